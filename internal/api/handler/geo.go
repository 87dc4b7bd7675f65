package handler

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"github.com/aquagraph/aquagraph/internal/api/models"
	"github.com/aquagraph/aquagraph/internal/api/response"
	"github.com/aquagraph/aquagraph/internal/geo"
)

// GeoHandler serves the region and city reference data.
type GeoHandler struct {
	lookup  geo.Lookup
	country string
}

// NewGeoHandler creates a GeoHandler for one country.
func NewGeoHandler(lookup geo.Lookup, country string) *GeoHandler {
	return &GeoHandler{lookup: lookup, country: country}
}

// ListRegions handles GET /v1/regions.
func (h *GeoHandler) ListRegions(w http.ResponseWriter, r *http.Request) {
	regions, err := h.lookup.Regions(r.Context(), h.country)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}

	out := models.RegionList{Items: make([]models.Region, 0, len(regions))}
	for _, region := range regions {
		out.Items = append(out.Items, toRegion(region))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// ListCities handles GET /v1/regions/{code}/cities.
func (h *GeoHandler) ListCities(w http.ResponseWriter, r *http.Request) {
	code := chi.URLParam(r, "code")

	region, err := h.lookup.Region(r.Context(), h.country, code)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	cities, err := h.lookup.Cities(r.Context(), h.country, code)
	if err != nil {
		h.lookupError(w, r, err)
		return
	}

	out := models.CityList{Region: toRegion(*region), Items: make([]models.City, 0, len(cities))}
	for _, c := range cities {
		out.Items = append(out.Items, toCity(c))
	}
	response.JSON(w, r, http.StatusOK, out)
}

// GetCity handles GET /v1/regions/{code}/cities/{name}.
func (h *GeoHandler) GetCity(w http.ResponseWriter, r *http.Request) {
	city, err := h.lookup.City(r.Context(), h.country, chi.URLParam(r, "code"), chi.URLParam(r, "name"))
	if err != nil {
		h.lookupError(w, r, err)
		return
	}
	response.JSON(w, r, http.StatusOK, toCity(*city))
}

func (h *GeoHandler) lookupError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, geo.ErrRegionNotFound):
		response.NotFound(w, r, "region not found")
	case errors.Is(err, geo.ErrCityNotFound):
		response.NotFound(w, r, "city not found")
	case errors.Is(err, geo.ErrCountryNotFound):
		response.NotFound(w, r, "country not found")
	default:
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("geo lookup failed")
		response.InternalError(w, r, "geo lookup failed")
	}
}

func toRegion(r geo.Region) models.Region {
	return models.Region{Code: r.ISOCode, Name: r.Name, CountryCode: r.CountryCode}
}

func toCity(c geo.City) models.City {
	return models.City{
		Name:       c.Name,
		RegionCode: c.RegionCode,
		Latitude:   c.Latitude,
		Longitude:  c.Longitude,
	}
}
