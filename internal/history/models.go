// Package history records successful archive fetches.
package history

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/aquagraph/aquagraph/internal/archive"
)

// Entry summarizes one successful fetch.
type Entry struct {
	ID        string
	Region    string
	City      string
	Latitude  float64
	Longitude float64
	StartDate string
	EndDate   string
	Days      int
	RainTotal float64
	// WindMax is nil when every wind sample was missing.
	WindMax   *float64
	CreatedAt time.Time
}

// NewEntry builds an entry from the submitted selection and the fetched series.
func NewEntry(region, city string, q archive.Query, series *archive.WeatherSeries) *Entry {
	e := &Entry{
		ID:        "hst_" + uuid.New().String()[:22],
		Region:    region,
		City:      city,
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
		Days:      series.Len(),
		RainTotal: series.RainTotal(),
		CreatedAt: time.Now().UTC(),
	}
	if peak := series.WindMax(); !math.IsNaN(peak) {
		e.WindMax = &peak
	}
	return e
}
