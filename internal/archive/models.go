// Package archive fetches and caches historical daily weather series.
package archive

import (
	"context"
	"errors"
	"math"
	"time"
)

// Archive errors.
var (
	// ErrUpstream is returned when the archive API rejects or fails a request.
	ErrUpstream = errors.New("weather archive request failed")

	// ErrInvalidResponse is returned when the archive answers with a body
	// that cannot be turned into a series.
	ErrInvalidResponse = errors.New("invalid weather archive response")

	// ErrProviderUnavailable is returned by Service when the provider fails
	// and no usable cached series exists.
	ErrProviderUnavailable = errors.New("weather archive unavailable")
)

// DateLayout is the layout of archive dates.
const DateLayout = "2006-01-02"

// Query identifies one archive request. Coordinates may be NaN; they are
// sent as-is and the archive rejects them.
type Query struct {
	Latitude  float64
	Longitude float64
	StartDate string
	EndDate   string
}

// Provider fetches daily series from an archive backend.
type Provider interface {
	// FetchDaily returns rain sum and max wind speed per day for the query.
	FetchDaily(ctx context.Context, q Query) (*WeatherSeries, error)

	// Name returns the provider name for logging.
	Name() string
}

// WeatherSeries holds positionally aligned daily samples.
type WeatherSeries struct {
	Latitude  float64
	Longitude float64
	Timezone  string

	// Dates are calendar days at midnight UTC.
	Dates []time.Time

	// Rainfall is the daily rain sum in mm. Missing samples are NaN.
	Rainfall []float64

	// WindSpeed is the daily maximum 10 m wind speed in km/h. Missing samples are NaN.
	WindSpeed []float64

	FetchedAt time.Time
}

// Len returns the number of samples.
func (s *WeatherSeries) Len() int {
	return len(s.Dates)
}

// RainTotal sums the rainfall, skipping missing samples.
func (s *WeatherSeries) RainTotal() float64 {
	total := 0.0
	for _, v := range s.Rainfall {
		if !math.IsNaN(v) {
			total += v
		}
	}
	return total
}

// WindMax returns the highest wind speed, or NaN when every sample is missing.
func (s *WeatherSeries) WindMax() float64 {
	peak := math.NaN()
	for _, v := range s.WindSpeed {
		if math.IsNaN(v) {
			continue
		}
		if math.IsNaN(peak) || v > peak {
			peak = v
		}
	}
	return peak
}

// Clone returns a deep copy.
func (s *WeatherSeries) Clone() *WeatherSeries {
	if s == nil {
		return nil
	}
	out := *s
	out.Dates = append([]time.Time(nil), s.Dates...)
	out.Rainfall = append([]float64(nil), s.Rainfall...)
	out.WindSpeed = append([]float64(nil), s.WindSpeed...)
	return &out
}
