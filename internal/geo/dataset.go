package geo

import (
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"
)

//go:embed data/countries.json
var countriesJSON []byte

type datasetFile struct {
	Countries []struct {
		ISOCode string `json:"isoCode"`
		Name    string `json:"name"`
		Regions []struct {
			ISOCode string `json:"isoCode"`
			Name    string `json:"name"`
			Cities  []struct {
				Name      string `json:"name"`
				Latitude  string `json:"latitude"`
				Longitude string `json:"longitude"`
			} `json:"cities"`
		} `json:"regions"`
	} `json:"countries"`
}

type country struct {
	regions []Region
	cities  map[string][]City
}

// Dataset is an in-memory Lookup backed by a static JSON document.
type Dataset struct {
	countries map[string]*country
}

// Ensure Dataset implements Lookup.
var _ Lookup = (*Dataset)(nil)

// NewEmbeddedDataset loads the dataset compiled into the binary.
func NewEmbeddedDataset() (*Dataset, error) {
	return NewDataset(countriesJSON)
}

// LoadDataset reads a dataset document from disk. It replaces the compiled-in
// list, which carries only the main cities of each wilaya.
func LoadDataset(path string) (*Dataset, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading geo dataset: %w", err)
	}
	return NewDataset(raw)
}

// NewDataset parses a dataset document.
func NewDataset(raw []byte) (*Dataset, error) {
	var file datasetFile
	if err := json.Unmarshal(raw, &file); err != nil {
		return nil, fmt.Errorf("parsing geo dataset: %w", err)
	}

	ds := &Dataset{countries: make(map[string]*country, len(file.Countries))}
	for _, c := range file.Countries {
		code := normalizeCode(c.ISOCode)
		entry := &country{cities: make(map[string][]City, len(c.Regions))}

		for _, r := range c.Regions {
			entry.regions = append(entry.regions, Region{
				ISOCode:     r.ISOCode,
				Name:        r.Name,
				CountryCode: code,
			})

			cities := make([]City, 0, len(r.Cities))
			for _, ct := range r.Cities {
				cities = append(cities, City{
					Name:        ct.Name,
					RegionCode:  r.ISOCode,
					CountryCode: code,
					Latitude:    ct.Latitude,
					Longitude:   ct.Longitude,
				})
			}
			sort.Slice(cities, func(i, j int) bool { return cities[i].Name < cities[j].Name })
			entry.cities[r.ISOCode] = cities
		}

		sort.Slice(entry.regions, func(i, j int) bool {
			return entry.regions[i].ISOCode < entry.regions[j].ISOCode
		})
		ds.countries[code] = entry
	}

	return ds, nil
}

// Regions returns the regions of a country.
func (d *Dataset) Regions(_ context.Context, countryCode string) ([]Region, error) {
	c, ok := d.countries[normalizeCode(countryCode)]
	if !ok {
		return nil, ErrCountryNotFound
	}
	out := make([]Region, len(c.regions))
	copy(out, c.regions)
	return out, nil
}

// Region returns a single region by ISO code.
func (d *Dataset) Region(_ context.Context, countryCode, code string) (*Region, error) {
	c, ok := d.countries[normalizeCode(countryCode)]
	if !ok {
		return nil, ErrCountryNotFound
	}
	for _, r := range c.regions {
		if r.ISOCode == code {
			region := r
			return &region, nil
		}
	}
	return nil, ErrRegionNotFound
}

// Cities returns the cities of a region.
func (d *Dataset) Cities(_ context.Context, countryCode, regionCode string) ([]City, error) {
	c, ok := d.countries[normalizeCode(countryCode)]
	if !ok {
		return nil, ErrCountryNotFound
	}
	cities, ok := c.cities[regionCode]
	if !ok {
		return nil, ErrRegionNotFound
	}
	out := make([]City, len(cities))
	copy(out, cities)
	return out, nil
}

// City returns a single city by exact name.
func (d *Dataset) City(ctx context.Context, countryCode, regionCode, name string) (*City, error) {
	cities, err := d.Cities(ctx, countryCode, regionCode)
	if err != nil {
		return nil, err
	}
	for _, ct := range cities {
		if ct.Name == name {
			city := ct
			return &city, nil
		}
	}
	return nil, ErrCityNotFound
}

func normalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}
