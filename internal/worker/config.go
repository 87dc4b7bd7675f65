// Package worker provides background job processing for AquaGraph.
package worker

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/geo"
)

// PrefetchTarget is one location whose archive series is kept warm.
type PrefetchTarget struct {
	// Name is the city name.
	Name string

	// RegionCode is the ISO code of the region the city belongs to.
	RegionCode string

	Point Point
}

// Point represents a geographic coordinate.
type Point struct {
	Lat float64
	Lon float64
}

// PrefetchConfig holds configuration for the prefetch job.
type PrefetchConfig struct {
	// Targets are the locations to prefetch.
	Targets []PrefetchTarget

	// Days is the length of the window ending yesterday.
	// Default: 7
	Days int

	// Concurrency is the number of concurrent archive requests.
	// Default: 3
	Concurrency int

	// Timeout bounds each archive request.
	// Default: 30 seconds
	Timeout time.Duration
}

// DefaultPrefetchConfig returns the default prefetch configuration without targets.
func DefaultPrefetchConfig() PrefetchConfig {
	return PrefetchConfig{
		Days:        7,
		Concurrency: 3,
		Timeout:     30 * time.Second,
	}
}

func (c PrefetchConfig) withDefaults() PrefetchConfig {
	def := DefaultPrefetchConfig()
	if c.Days <= 0 {
		c.Days = def.Days
	}
	if c.Concurrency <= 0 {
		c.Concurrency = def.Concurrency
	}
	if c.Timeout <= 0 {
		c.Timeout = def.Timeout
	}
	return c
}

// Window returns the start and end dates of the last days full days before
// now, in archive date layout.
func (c PrefetchConfig) Window(now time.Time) (start, end string) {
	days := c.Days
	if days <= 0 {
		days = DefaultPrefetchConfig().Days
	}
	last := now.UTC().AddDate(0, 0, -1)
	first := last.AddDate(0, 0, -(days - 1))
	return first.Format(archive.DateLayout), last.Format(archive.DateLayout)
}

// TargetsFromRegions picks one city per region of country: the one named
// like its region, else the first alphabetically. Cities with unparsable
// coordinates are skipped.
func TargetsFromRegions(ctx context.Context, lookup geo.Lookup, country string) ([]PrefetchTarget, error) {
	regions, err := lookup.Regions(ctx, country)
	if err != nil {
		return nil, fmt.Errorf("listing regions: %w", err)
	}

	targets := make([]PrefetchTarget, 0, len(regions))
	for _, region := range regions {
		cities, err := lookup.Cities(ctx, country, region.ISOCode)
		if err != nil {
			return nil, fmt.Errorf("listing cities of %s: %w", region.ISOCode, err)
		}
		if len(cities) == 0 {
			continue
		}

		pick := cities[0]
		for _, c := range cities {
			if strings.EqualFold(c.Name, region.Name) {
				pick = c
				break
			}
		}

		lat, lon, ok := form.Coordinates(form.State{Latitude: pick.Latitude, Longitude: pick.Longitude})
		if !ok {
			continue
		}
		targets = append(targets, PrefetchTarget{
			Name:       pick.Name,
			RegionCode: region.ISOCode,
			Point:      Point{Lat: lat, Lon: lon},
		})
	}
	return targets, nil
}
