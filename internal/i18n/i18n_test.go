package i18n_test

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/i18n"
)

func newLocalizer(t *testing.T, loc string) *i18n.Localizer {
	t.Helper()
	l, err := i18n.New(loc)
	require.NoError(t, err)
	return l
}

func TestNew_DefaultLanguage(t *testing.T) {
	tests := []struct {
		loc  string
		want language.Tag
	}{
		{"fr", language.French},
		{"fr-FR", language.French},
		{"en-GB", language.English},
		{"en", language.English},
		{"de", language.French},
	}

	for _, tt := range tests {
		t.Run(tt.loc, func(t *testing.T) {
			l := newLocalizer(t, tt.loc)
			assert.Equal(t, tt.want, l.Default())
		})
	}
}

func TestLocalizer_T(t *testing.T) {
	l := newLocalizer(t, "fr")

	assert.Equal(t, "Veuillez sélectionner une Wilaya.", l.T(language.French, i18n.MsgRegionRequired))
	assert.Equal(t, "La date de fin est requise.", l.T(language.French, i18n.MsgEndDateRequired))
	assert.Equal(t, "Please select a city.", l.T(language.English, i18n.MsgCityRequired))
	assert.Equal(t, "Somme de pluie", l.T(language.French, i18n.MsgChartRainLabel))
}

func TestLocalizer_Negotiate(t *testing.T) {
	l := newLocalizer(t, "fr")

	t.Run("query parameter wins", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/?lang=en", nil)
		req.Header.Set("Accept-Language", "fr-FR")
		assert.Equal(t, language.English, l.Negotiate(req))
	})

	t.Run("cookie before header", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.AddCookie(&http.Cookie{Name: i18n.LangCookie, Value: "en"})
		req.Header.Set("Accept-Language", "fr-FR")
		assert.Equal(t, language.English, l.Negotiate(req))
	})

	t.Run("accept language", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Accept-Language", "en-US,en;q=0.9")
		assert.Equal(t, language.English, l.Negotiate(req))
	})

	t.Run("fallback", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		assert.Equal(t, language.French, l.Negotiate(req))
	})
}

func TestDayLabel(t *testing.T) {
	day := time.Date(2023, time.January, 1, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, "dim. 1 janv.", i18n.DayLabel(language.French, day))
	assert.Equal(t, "Sun, Jan 1", i18n.DayLabel(language.English, day))

	aug := time.Date(2023, time.August, 15, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, "mar. 15 août", i18n.DayLabel(language.French, aug))
}

func TestCityName(t *testing.T) {
	assert.Equal(t, "Alger", i18n.CityName(language.French, "Algiers"))
	assert.Equal(t, "Algiers", i18n.CityName(language.English, "Algiers"))
	assert.Equal(t, "Oran", i18n.CityName(language.French, "Oran"))
}
