// Package chart projects a weather series into line-chart data: labels and
// two styled datasets for the browser renderer, or a PNG for clients
// without JavaScript.
package chart

import (
	"math"

	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/i18n"
)

// Style is the fixed display styling of one dataset.
type Style struct {
	LabelKey        string
	BorderColor     string
	BackgroundColor string
	Tension         float64
	Fill            bool
	Unit            string

	rgb [3]uint8
}

var (
	// RainStyle styles the rain sum dataset.
	RainStyle = Style{
		LabelKey:        i18n.MsgChartRainLabel,
		BorderColor:     "rgb(20,184,166)",
		BackgroundColor: "rgba(20,184,166,0.3)",
		Tension:         0.5,
		Fill:            true,
		Unit:            " mm",
		rgb:             [3]uint8{20, 184, 166},
	}

	// WindStyle styles the wind speed dataset.
	WindStyle = Style{
		LabelKey:        i18n.MsgChartWindLabel,
		BorderColor:     "rgb(153,0,255)",
		BackgroundColor: "rgba(153,0,255, 0.3)",
		Tension:         0.5,
		Fill:            true,
		Unit:            " km",
		rgb:             [3]uint8{153, 0, 255},
	}
)

// Dataset is one line series. Data holds nil for missing samples.
type Dataset struct {
	Label           string     `json:"label"`
	Data            []*float64 `json:"data"`
	BorderColor     string     `json:"borderColor"`
	BackgroundColor string     `json:"backgroundColor"`
	Tension         float64    `json:"tension"`
	Fill            bool       `json:"fill"`
	Unit            string     `json:"unit"`
}

// Data is the chart-ready projection of a series.
type Data struct {
	Labels   []string  `json:"labels"`
	Datasets []Dataset `json:"datasets"`
}

// Projector derives chart data from a series.
type Projector struct {
	localizer *i18n.Localizer
}

// NewProjector creates a Projector.
func NewProjector(localizer *i18n.Localizer) *Projector {
	return &Projector{localizer: localizer}
}

// Project maps a series onto one label per date and the rain and wind
// datasets, in input order. A nil series yields nil.
func (p *Projector) Project(series *archive.WeatherSeries, tag language.Tag) *Data {
	if series == nil {
		return nil
	}

	labels := make([]string, len(series.Dates))
	for i, day := range series.Dates {
		labels[i] = i18n.DayLabel(tag, day)
	}

	return &Data{
		Labels: labels,
		Datasets: []Dataset{
			p.dataset(RainStyle, series.Rainfall, tag),
			p.dataset(WindStyle, series.WindSpeed, tag),
		},
	}
}

func (p *Projector) dataset(style Style, values []float64, tag language.Tag) Dataset {
	return Dataset{
		Label:           p.localizer.T(tag, style.LabelKey),
		Data:            nullable(values),
		BorderColor:     style.BorderColor,
		BackgroundColor: style.BackgroundColor,
		Tension:         style.Tension,
		Fill:            style.Fill,
		Unit:            style.Unit,
	}
}

func nullable(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i, v := range values {
		if math.IsNaN(v) {
			continue
		}
		v := v
		out[i] = &v
	}
	return out
}
