// Package geo provides the region and city reference data used to populate
// the form's selectors and auto-fill coordinates.
package geo

import (
	"context"
	"errors"
)

// Lookup errors.
var (
	ErrCountryNotFound = errors.New("country not found")
	ErrRegionNotFound  = errors.New("region not found")
	ErrCityNotFound    = errors.New("city not found")
)

// Region is a first-level administrative division (a wilaya for DZ).
type Region struct {
	// ISOCode is the ISO 3166-2 subdivision code without the country prefix, e.g. "16".
	ISOCode     string
	Name        string
	CountryCode string
}

// City is a selectable city within a region.
//
// Latitude and Longitude are kept as the dataset's decimal strings so that
// copying them into the form is exact.
type City struct {
	Name        string
	RegionCode  string
	CountryCode string
	Latitude    string
	Longitude   string
}

// Lookup resolves regions and cities for a country code.
type Lookup interface {
	// Regions returns the regions of a country ordered by ISO code.
	Regions(ctx context.Context, country string) ([]Region, error)

	// Region returns a single region.
	Region(ctx context.Context, country, code string) (*Region, error)

	// Cities returns the cities of a region ordered by name.
	Cities(ctx context.Context, country, regionCode string) ([]City, error)

	// City returns a single city by exact name.
	City(ctx context.Context, country, regionCode, name string) (*City, error)
}
