package chart

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	gochart "github.com/wcharczuk/go-chart"
	"github.com/wcharczuk/go-chart/drawing"
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/i18n"
)

// ErrTooFewPoints is returned when a series has fewer than two plottable samples.
var ErrTooFewPoints = errors.New("series has too few points to plot")

// PNG dimensions.
const (
	pngWidth  = 1024
	pngHeight = 512
)

// RenderPNG draws the rain and wind series as a PNG line chart.
func (p *Projector) RenderPNG(w io.Writer, series *archive.WeatherSeries, tag language.Tag) error {
	if series == nil {
		return ErrTooFewPoints
	}

	var (
		lines []gochart.Series
		peak  float64
	)
	for _, item := range []struct {
		style  Style
		values []float64
	}{
		{RainStyle, series.Rainfall},
		{WindStyle, series.WindSpeed},
	} {
		xs, ys := plottable(series.Dates, item.values)
		if len(xs) < 2 {
			continue
		}
		for _, v := range ys {
			peak = math.Max(peak, v)
		}
		lines = append(lines, gochart.TimeSeries{
			Name: p.localizer.T(tag, item.style.LabelKey),
			Style: gochart.Style{
				Show:        true,
				StrokeColor: item.style.color(255),
				StrokeWidth: 2,
				FillColor:   item.style.color(77),
			},
			XValues: xs,
			YValues: ys,
		})
	}
	if len(lines) == 0 {
		return ErrTooFewPoints
	}
	if peak <= 0 {
		peak = 1
	}

	graph := gochart.Chart{
		Width:  pngWidth,
		Height: pngHeight,
		XAxis: gochart.XAxis{
			Name:      p.localizer.T(tag, i18n.MsgChartXTitle),
			NameStyle: gochart.StyleShow(),
			Style:     gochart.StyleShow(),
			ValueFormatter: func(v interface{}) string {
				return dayTick(tag, v)
			},
		},
		YAxis: gochart.YAxis{
			Name:      p.localizer.T(tag, i18n.MsgChartYTitle),
			NameStyle: gochart.StyleShow(),
			Style:     gochart.StyleShow(),
			Range:     &gochart.ContinuousRange{Min: 0, Max: peak * 1.1},
		},
		Series: lines,
	}
	graph.Elements = []gochart.Renderable{gochart.Legend(&graph)}

	if err := graph.Render(gochart.PNG, w); err != nil {
		return fmt.Errorf("rendering chart: %w", err)
	}
	return nil
}

func (s Style) color(alpha uint8) drawing.Color {
	return drawing.Color{R: s.rgb[0], G: s.rgb[1], B: s.rgb[2], A: alpha}
}

func plottable(dates []time.Time, values []float64) ([]time.Time, []float64) {
	xs := make([]time.Time, 0, len(dates))
	ys := make([]float64, 0, len(values))
	for i, v := range values {
		if i >= len(dates) || math.IsNaN(v) {
			continue
		}
		xs = append(xs, dates[i])
		ys = append(ys, v)
	}
	return xs, ys
}

func dayTick(tag language.Tag, v interface{}) string {
	switch t := v.(type) {
	case time.Time:
		return i18n.DayLabel(tag, t.UTC())
	case float64:
		return i18n.DayLabel(tag, time.Unix(0, int64(t)).UTC())
	}
	return ""
}
