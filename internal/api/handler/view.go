package handler

import (
	"context"
	"errors"
	"fmt"
	"math"

	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/chart"
	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/geo"
	"github.com/aquagraph/aquagraph/internal/i18n"
	"github.com/aquagraph/aquagraph/internal/session"
)

type option struct {
	Value    string
	Label    string
	Selected bool
}

type seriesSummary struct {
	Days      int
	RainTotal string
	WindMax   string
}

// pageView is the data behind web/templates/page.html.
type pageView struct {
	Lang      string
	OtherLang string
	Regions   []option
	Cities    []option
	Form      form.State
	Errors    map[string]string
	Loading   bool
	Banner    *session.Banner

	ChartTitle string
	Chart      *chart.Config
	Summary    *seriesSummary

	localizer *i18n.Localizer
	tag       language.Tag
}

// T translates a catalog key for the template.
func (v *pageView) T(key string) string {
	return v.localizer.T(v.tag, key)
}

func (h *PageHandler) view(ctx context.Context, sess *session.Session, tag language.Tag) (*pageView, error) {
	v := &pageView{
		Lang:      i18n.Base(tag),
		OtherLang: "en",
		Form:      sess.Form,
		Errors:    make(map[string]string, len(sess.Errors)),
		Loading:   sess.Loading,
		Banner:    sess.Banner,
		localizer: h.cfg.Localizer,
		tag:       tag,
	}
	if v.Lang == "en" {
		v.OtherLang = "fr"
	}
	for f, msg := range sess.Errors {
		v.Errors[string(f)] = msg
	}

	regions, err := h.cfg.Lookup.Regions(ctx, h.cfg.Country)
	if err != nil {
		return nil, fmt.Errorf("listing regions: %w", err)
	}
	for _, r := range regions {
		v.Regions = append(v.Regions, option{
			Value:    r.ISOCode,
			Label:    r.Name,
			Selected: r.ISOCode == sess.Form.Region,
		})
	}

	if sess.Form.Region != "" {
		cities, err := h.cfg.Lookup.Cities(ctx, h.cfg.Country, sess.Form.Region)
		if err != nil && !errors.Is(err, geo.ErrRegionNotFound) {
			return nil, fmt.Errorf("listing cities: %w", err)
		}
		for _, c := range cities {
			v.Cities = append(v.Cities, option{
				Value:    c.Name,
				Label:    c.Name,
				Selected: c.Name == sess.Form.City,
			})
		}
	}

	if sess.Series != nil {
		v.Chart = h.cfg.Projector.Config(sess.Series, tag)
		v.ChartTitle = v.T(i18n.MsgPageChartTitle) + " " + i18n.CityName(tag, sess.Form.City)
		v.Summary = &seriesSummary{
			Days:      sess.Series.Len(),
			RainTotal: fmt.Sprintf("%.2f mm", sess.Series.RainTotal()),
		}
		if peak := sess.Series.WindMax(); !math.IsNaN(peak) {
			v.Summary.WindMax = fmt.Sprintf("%.2f km/h", peak)
		}
	}

	return v, nil
}
