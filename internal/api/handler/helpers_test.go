package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/aquagraph/aquagraph/internal/api/handler"
	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/chart"
	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/geo"
	"github.com/aquagraph/aquagraph/internal/history"
	"github.com/aquagraph/aquagraph/internal/i18n"
	"github.com/aquagraph/aquagraph/internal/session"
	"github.com/aquagraph/aquagraph/internal/submit"
)

type fakeFetcher struct {
	mu      sync.Mutex
	queries []archive.Query
	err     error
}

func (f *fakeFetcher) FetchDaily(_ context.Context, q archive.Query) (*archive.WeatherSeries, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.queries = append(f.queries, q)
	if f.err != nil {
		return nil, f.err
	}
	return weekSeries(), nil
}

func (f *fakeFetcher) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.queries)
}

func weekSeries() *archive.WeatherSeries {
	start := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	s := &archive.WeatherSeries{Latitude: 36.73225, Longitude: 3.08746, Timezone: "Europe/London"}
	for i := 0; i < 7; i++ {
		s.Dates = append(s.Dates, start.AddDate(0, 0, i))
		s.Rainfall = append(s.Rainfall, float64(i)*0.5)
		s.WindSpeed = append(s.WindSpeed, 10+float64(i))
	}
	return s
}

type fixture struct {
	fetcher   *fakeFetcher
	sessions  *session.Store
	history   *history.InMemoryRepository
	lookup    *geo.Dataset
	localizer *i18n.Localizer
	validator *form.Validator
	projector *chart.Projector
	workflow  *submit.Workflow
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	lookup, err := geo.NewEmbeddedDataset()
	require.NoError(t, err)
	loc, err := i18n.New("fr")
	require.NoError(t, err)

	f := &fixture{
		fetcher:   &fakeFetcher{},
		sessions:  session.NewStore(session.StoreConfig{}),
		history:   history.NewInMemoryRepository(10),
		lookup:    lookup,
		localizer: loc,
		validator: form.NewValidator(form.ValidatorConfig{Localizer: loc}),
		projector: chart.NewProjector(loc),
	}
	f.workflow, err = submit.NewWorkflow(submit.WorkflowConfig{
		Sessions:  f.sessions,
		Validator: f.validator,
		Fetcher:   f.fetcher,
		Localizer: loc,
		Logger:    zerolog.Nop(),
		History:   f.history,
	})
	require.NoError(t, err)
	return f
}

func (f *fixture) pageHandler() *handler.PageHandler {
	return handler.NewPageHandler(handler.PageConfig{
		Sessions:  f.sessions,
		Workflow:  f.workflow,
		Lookup:    f.lookup,
		Country:   "DZ",
		Localizer: f.localizer,
		Projector: f.projector,
	})
}

// withURLParams attaches chi route parameters to a request.
func withURLParams(r *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, rctx))
}

func jsonRequest(method, path, body string) *http.Request {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	return req
}
