package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquagraph/aquagraph/internal/api/handler"
	"github.com/aquagraph/aquagraph/internal/api/models"
)

func TestGeoHandler_ListRegions(t *testing.T) {
	f := newFixture(t)
	h := handler.NewGeoHandler(f.lookup, "DZ")

	rec := httptest.NewRecorder()
	h.ListRegions(rec, httptest.NewRequest(http.MethodGet, "/v1/regions", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	var list models.RegionList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list.Items, 58)
	assert.Equal(t, "01", list.Items[0].Code)
	assert.Equal(t, "DZ", list.Items[0].CountryCode)
}

func TestGeoHandler_ListCities(t *testing.T) {
	f := newFixture(t)
	h := handler.NewGeoHandler(f.lookup, "DZ")

	req := withURLParams(httptest.NewRequest(http.MethodGet, "/v1/regions/16/cities", nil),
		map[string]string{"code": "16"})
	rec := httptest.NewRecorder()
	h.ListCities(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var list models.CityList
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Equal(t, "Algiers", list.Region.Name)
	require.NotEmpty(t, list.Items)
	assert.Equal(t, "Algiers", list.Items[0].Name)
	assert.Equal(t, "36.73225000", list.Items[0].Latitude)
	assert.Equal(t, "3.08746000", list.Items[0].Longitude)
}

func TestGeoHandler_GetCity(t *testing.T) {
	f := newFixture(t)
	h := handler.NewGeoHandler(f.lookup, "DZ")

	tests := []struct {
		name       string
		code       string
		city       string
		wantStatus int
	}{
		{"found", "16", "Algiers", http.StatusOK},
		{"unknown city", "16", "Atlantis", http.StatusNotFound},
		{"unknown region", "99", "Algiers", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withURLParams(httptest.NewRequest(http.MethodGet, "/v1/regions/x/cities/y", nil),
				map[string]string{"code": tt.code, "name": tt.city})
			rec := httptest.NewRecorder()
			h.GetCity(rec, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
		})
	}
}

func TestGeoHandler_UnknownCountry(t *testing.T) {
	f := newFixture(t)
	h := handler.NewGeoHandler(f.lookup, "ZZ")

	rec := httptest.NewRecorder()
	h.ListRegions(rec, httptest.NewRequest(http.MethodGet, "/v1/regions", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
