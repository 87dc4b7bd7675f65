// Package submit runs a form submission end to end: validation, the archive
// request, the coordinate check and the session update.
package submit

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/history"
	"github.com/aquagraph/aquagraph/internal/i18n"
	"github.com/aquagraph/aquagraph/internal/session"
)

const instrumentationName = "github.com/aquagraph/aquagraph/internal/submit"

// Fetcher returns a daily archive series. *archive.Service satisfies it.
type Fetcher interface {
	FetchDaily(ctx context.Context, q archive.Query) (*archive.WeatherSeries, error)
}

// Recorder stores successful fetches. Any history.Repository satisfies it.
type Recorder interface {
	Record(ctx context.Context, e *history.Entry) error
}

// WorkflowConfig holds the dependencies of a Workflow.
type WorkflowConfig struct {
	Sessions  *session.Store
	Validator *form.Validator
	Fetcher   Fetcher
	Localizer *i18n.Localizer
	Logger    zerolog.Logger

	// History is optional.
	History Recorder
}

// Outcome describes what a submission did.
type Outcome struct {
	// Errors is non-empty when validation failed. No request was made.
	Errors form.ErrorMap

	// Fetched is true when the archive was queried.
	Fetched bool

	// Applied is true when the result reached the session.
	Applied bool

	// Stale is true when a newer submission began before this one finished.
	Stale bool

	// InvalidCoordinates is true when latitude or longitude did not parse.
	// This is only detected once the request has returned.
	InvalidCoordinates bool

	Query  archive.Query
	Series *archive.WeatherSeries

	// Banner is set when the fetch failed.
	Banner *session.Banner

	// Err is the fetch error, if any.
	Err error
}

// Workflow runs submissions.
type Workflow struct {
	sessions  *session.Store
	validator *form.Validator
	fetcher   Fetcher
	localizer *i18n.Localizer
	history   Recorder
	logger    zerolog.Logger

	submissions metric.Int64Counter
}

// NewWorkflow creates a Workflow.
func NewWorkflow(cfg WorkflowConfig) (*Workflow, error) {
	if cfg.Validator == nil || cfg.Fetcher == nil || cfg.Localizer == nil {
		return nil, errors.New("submit: validator, fetcher and localizer are required")
	}

	submissions, err := otel.Meter(instrumentationName).Int64Counter(
		"aquagraph.submissions",
		metric.WithDescription("Form submissions by outcome"),
		metric.WithUnit("{submission}"),
	)
	if err != nil {
		return nil, fmt.Errorf("creating submissions counter: %w", err)
	}

	return &Workflow{
		sessions:    cfg.Sessions,
		validator:   cfg.Validator,
		fetcher:     cfg.Fetcher,
		localizer:   cfg.Localizer,
		history:     cfg.History,
		logger:      cfg.Logger,
		submissions: submissions,
	}, nil
}

// Submit runs a submission against a session. The only error returned is
// session.ErrSessionNotFound; everything else is reported in the Outcome.
func (w *Workflow) Submit(ctx context.Context, sessionID string, state form.State, tag language.Tag) (*Outcome, error) {
	if w.sessions == nil {
		return nil, errors.New("submit: no session store configured")
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "submit.Submit")
	defer span.End()

	errs := w.validator.Validate(state, tag)
	setForm := func(s *session.Session) {
		s.Form = state
		s.Errors = errs
	}
	if !errs.Valid() {
		// A blocked submit still replaces whatever is in flight.
		if err := w.sessions.Supersede(sessionID, setForm); err != nil {
			return nil, err
		}
		w.count(ctx, "invalid")
		return &Outcome{Errors: errs}, nil
	}
	if err := w.sessions.Update(sessionID, setForm); err != nil {
		return nil, err
	}

	token, err := w.sessions.Begin(sessionID)
	if err != nil {
		return nil, err
	}
	defer w.sessions.Settle(sessionID, token)

	out := w.fetch(ctx, state)
	logger := w.logger.With().Str("session_id", sessionID).Uint64("generation", uint64(token)).Logger()

	switch {
	case out.InvalidCoordinates:
		logger.Warn().
			Str("lat", state.Latitude).
			Str("long", state.Longitude).
			Msg("invalid latitude or longitude")
		w.count(ctx, "invalid_coordinates")
		return out, nil

	case out.Err != nil:
		span.SetStatus(codes.Error, out.Err.Error())
		logger.Error().Err(out.Err).Msg("archive fetch failed")

		banner := &session.Banner{
			Kind:    session.BannerFetchFailed,
			Message: w.localizer.T(tag, i18n.MsgFetchFailed),
		}
		applied, err := w.sessions.Apply(sessionID, token, func(s *session.Session) {
			s.Banner = banner
		})
		if err != nil {
			return nil, err
		}
		out.Banner = banner
		out.Applied = applied
		out.Stale = !applied
		w.count(ctx, "fetch_failed")
		return out, nil
	}

	applied, err := w.sessions.Apply(sessionID, token, func(s *session.Session) {
		s.Errors = form.ErrorMap{}
		s.Form = form.ResetAfterFetch(s.Form)
		s.Series = out.Series.Clone()
		s.Banner = nil
	})
	if err != nil {
		return nil, err
	}
	out.Applied = applied
	out.Stale = !applied
	if !applied {
		logger.Info().Msg("discarding archive response from superseded submission")
		w.count(ctx, "stale")
		return out, nil
	}

	w.record(ctx, state, out)
	w.count(ctx, "ok")
	return out, nil
}

// Run validates and fetches without a session.
func (w *Workflow) Run(ctx context.Context, state form.State, tag language.Tag) *Outcome {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "submit.Run")
	defer span.End()

	if errs := w.validator.Validate(state, tag); !errs.Valid() {
		w.count(ctx, "invalid")
		return &Outcome{Errors: errs}
	}

	out := w.fetch(ctx, state)
	switch {
	case out.InvalidCoordinates:
		w.logger.Warn().
			Str("lat", state.Latitude).
			Str("long", state.Longitude).
			Msg("invalid latitude or longitude")
		w.count(ctx, "invalid_coordinates")
	case out.Err != nil:
		span.SetStatus(codes.Error, out.Err.Error())
		w.logger.Error().Err(out.Err).Msg("archive fetch failed")
		out.Banner = &session.Banner{
			Kind:    session.BannerFetchFailed,
			Message: w.localizer.T(tag, i18n.MsgFetchFailed),
		}
		w.count(ctx, "fetch_failed")
	default:
		out.Applied = true
		w.record(ctx, state, out)
		w.count(ctx, "ok")
	}
	return out
}

// fetch issues the archive request, then checks the coordinates.
// The request goes out even when they do not parse.
func (w *Workflow) fetch(ctx context.Context, state form.State) *Outcome {
	lat, lon, ok := form.Coordinates(state)
	q := archive.Query{
		Latitude:  lat,
		Longitude: lon,
		StartDate: state.StartDate,
		EndDate:   state.EndDate,
	}

	series, err := w.fetcher.FetchDaily(ctx, q)
	out := &Outcome{Errors: form.ErrorMap{}, Fetched: true, Query: q}
	if !ok {
		out.InvalidCoordinates = true
		return out
	}
	if err != nil {
		out.Err = err
		return out
	}
	out.Series = series
	return out
}

func (w *Workflow) record(ctx context.Context, state form.State, out *Outcome) {
	if w.history == nil || out.Series == nil {
		return
	}
	entry := history.NewEntry(state.Region, state.City, out.Query, out.Series)
	if err := w.history.Record(ctx, entry); err != nil {
		w.logger.Warn().Err(err).Msg("failed to record fetch history")
	}
}

func (w *Workflow) count(ctx context.Context, outcome string) {
	w.submissions.Add(ctx, 1, metric.WithAttributes(attribute.String("outcome", outcome)))
}
