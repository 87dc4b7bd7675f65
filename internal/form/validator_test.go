package form_test

import (
	"math"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/geo"
	"github.com/aquagraph/aquagraph/internal/i18n"
)

func newValidator(t *testing.T, strict bool) *form.Validator {
	t.Helper()
	loc, err := i18n.New("fr")
	require.NoError(t, err)
	return form.NewValidator(form.ValidatorConfig{Localizer: loc, StrictCoordinates: strict})
}

func completeState() form.State {
	return form.State{
		Region:    "16",
		City:      "Algiers",
		Longitude: "3.08746000",
		Latitude:  "36.73225000",
		StartDate: "2023-01-01",
		EndDate:   "2023-01-07",
	}
}

func TestValidator_AllEmpty(t *testing.T) {
	v := newValidator(t, false)

	errs := v.Validate(form.State{}, language.French)

	require.Len(t, errs, 6)
	assert.False(t, errs.Valid())
	assert.Equal(t, form.Fields, errs.Fields())
	assert.Equal(t, "Veuillez sélectionner une Wilaya.", errs[form.FieldRegion])
	assert.Equal(t, "Veuillez sélectionner une ville.", errs[form.FieldCity])
	assert.Equal(t, "La longitude est requise.", errs[form.FieldLongitude])
	assert.Equal(t, "La latitude est requise.", errs[form.FieldLatitude])
	assert.Equal(t, "La date de début est requise.", errs[form.FieldStartDate])
	assert.Equal(t, "La date de fin est requise.", errs[form.FieldEndDate])
}

func TestValidator_ExactlyMissingFields(t *testing.T) {
	v := newValidator(t, false)

	tests := []struct {
		name    string
		mutate  func(*form.State)
		missing []form.Field
	}{
		{"region", func(s *form.State) { s.Region = "" }, []form.Field{form.FieldRegion}},
		{"city", func(s *form.State) { s.City = "" }, []form.Field{form.FieldCity}},
		{"coordinates", func(s *form.State) { s.Latitude, s.Longitude = "", "" },
			[]form.Field{form.FieldLongitude, form.FieldLatitude}},
		{"dates", func(s *form.State) { s.StartDate, s.EndDate = "", "" },
			[]form.Field{form.FieldStartDate, form.FieldEndDate}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := completeState()
			tt.mutate(&s)
			errs := v.Validate(s, language.French)
			assert.Equal(t, tt.missing, errs.Fields())
		})
	}
}

func TestValidator_Complete(t *testing.T) {
	v := newValidator(t, false)
	assert.True(t, v.Validate(completeState(), language.French).Valid())
}

func TestValidator_NonNumericCoordinatesPassByDefault(t *testing.T) {
	v := newValidator(t, false)

	s := completeState()
	s.Latitude = "north"

	assert.True(t, v.Validate(s, language.French).Valid())
}

func TestValidator_StrictCoordinates(t *testing.T) {
	v := newValidator(t, true)

	s := completeState()
	s.Latitude = "north"
	s.Longitude = "200"

	errs := v.Validate(s, language.French)
	assert.Equal(t, "La latitude doit être un nombre.", errs[form.FieldLatitude])
	assert.Equal(t, "La longitude doit être un nombre.", errs[form.FieldLongitude])

	assert.True(t, v.Validate(completeState(), language.French).Valid())
}

func TestValidator_English(t *testing.T) {
	v := newValidator(t, false)
	errs := v.Validate(form.State{}, language.English)
	assert.Equal(t, "Please select a wilaya.", errs[form.FieldRegion])
}

func TestApplyCity_RoundTrip(t *testing.T) {
	ds, err := geo.NewEmbeddedDataset()
	require.NoError(t, err)

	cities, err := ds.Cities(t.Context(), "DZ", "16")
	require.NoError(t, err)

	for _, c := range cities {
		s := form.ApplyCity(form.State{Region: "16"}, c)
		assert.Equal(t, c.Name, s.City)
		assert.Equal(t, c.Latitude, s.Latitude)
		assert.Equal(t, c.Longitude, s.Longitude)
	}
}

func TestResetAfterFetch(t *testing.T) {
	s := form.ResetAfterFetch(completeState())

	assert.Equal(t, "16", s.Region)
	assert.Equal(t, "Algiers", s.City)
	assert.Empty(t, s.Latitude)
	assert.Empty(t, s.Longitude)
	assert.Empty(t, s.StartDate)
	assert.Empty(t, s.EndDate)
}

func TestCoordinates(t *testing.T) {
	lat, lon, ok := form.Coordinates(completeState())
	assert.True(t, ok)
	assert.InDelta(t, 36.73225, lat, 1e-9)
	assert.InDelta(t, 3.08746, lon, 1e-9)

	lat, _, ok = form.Coordinates(form.State{Latitude: "abc", Longitude: "3"})
	assert.False(t, ok)
	assert.True(t, math.IsNaN(lat))
}

func TestCoordinates_LeadingNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"36.7 N", 36.7, true},
		{"  -3.5deg", -3.5, true},
		{".5", 0.5, true},
		{"1e2x", 100, true},
		{"12.", 12, true},
		{"N 36.7", 0, false},
		{"-", 0, false},
		{"", 0, false},
		{"1e999", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			lat, _, ok := form.Coordinates(form.State{Latitude: tt.in, Longitude: "3"})
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.InDelta(t, tt.want, lat, 1e-9)
			} else {
				assert.True(t, math.IsNaN(lat))
			}
		})
	}
}

func TestDecode(t *testing.T) {
	values := url.Values{}
	values.Set("region", "16")
	values.Set("city", "Algiers")
	values.Set("long", "3.08746000")
	values.Set("lat", "36.73225000")
	values.Set("startDate", "2023-01-01")
	values.Set("endDate", "2023-01-07")

	assert.Equal(t, completeState(), form.Decode(values))
}
