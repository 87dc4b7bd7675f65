package chart

import (
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/i18n"
)

// axisTitleColor is the axis title colour on the dark page background.
const axisTitleColor = "#ffffff"

// Config is a complete line chart configuration in the shape the browser
// renderer consumes.
type Config struct {
	Type    string  `json:"type"`
	Data    *Data   `json:"data"`
	Options Options `json:"options"`
}

// Options are the renderer options.
type Options struct {
	Responsive          bool    `json:"responsive"`
	MaintainAspectRatio bool    `json:"maintainAspectRatio"`
	AspectRatio         float64 `json:"aspectRatio"`
	Scales              Scales  `json:"scales"`
	Plugins             Plugins `json:"plugins"`
}

// Scales holds the two axes.
type Scales struct {
	Y Axis `json:"y"`
	X Axis `json:"x"`
}

// Axis is one chart axis.
type Axis struct {
	BeginAtZero bool      `json:"beginAtZero,omitempty"`
	Title       AxisTitle `json:"title"`
}

// AxisTitle is an axis caption.
type AxisTitle struct {
	Display bool   `json:"display"`
	Text    string `json:"text"`
	Color   string `json:"color"`
}

// Plugins configures renderer plugins.
type Plugins struct {
	Tooltip Tooltip `json:"tooltip"`
}

// Tooltip controls how hovered values are printed: the value with
// Precision decimals followed by the dataset unit.
type Tooltip struct {
	Precision int `json:"precision"`
}

// Config returns the full chart configuration for a series, or nil when
// there is no series.
func (p *Projector) Config(series *archive.WeatherSeries, tag language.Tag) *Config {
	data := p.Project(series, tag)
	if data == nil {
		return nil
	}

	return &Config{
		Type: "line",
		Data: data,
		Options: Options{
			Responsive:          true,
			MaintainAspectRatio: false,
			AspectRatio:         2,
			Scales: Scales{
				Y: Axis{
					BeginAtZero: true,
					Title: AxisTitle{
						Display: true,
						Text:    p.localizer.T(tag, i18n.MsgChartYTitle),
						Color:   axisTitleColor,
					},
				},
				X: Axis{
					Title: AxisTitle{
						Display: true,
						Text:    p.localizer.T(tag, i18n.MsgChartXTitle),
						Color:   axisTitleColor,
					},
				},
			},
			Plugins: Plugins{
				Tooltip: Tooltip{Precision: 2},
			},
		},
	}
}
