package handler

import (
	"context"
	"encoding/json"
	"math"
	"net/http"

	"github.com/rs/zerolog"
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/api/models"
	"github.com/aquagraph/aquagraph/internal/api/response"
	"github.com/aquagraph/aquagraph/internal/archive"
	"github.com/aquagraph/aquagraph/internal/chart"
	"github.com/aquagraph/aquagraph/internal/form"
	"github.com/aquagraph/aquagraph/internal/i18n"
	"github.com/aquagraph/aquagraph/internal/submit"
)

// maxFormBody bounds JSON request bodies.
const maxFormBody = 16 << 10

// Runner validates and fetches a form without a session.
type Runner interface {
	Run(ctx context.Context, state form.State, tag language.Tag) *submit.Outcome
}

// SubmissionConfig holds the dependencies of SubmissionHandler.
type SubmissionConfig struct {
	Workflow  Runner
	Validator *form.Validator
	Localizer *i18n.Localizer
	Projector *chart.Projector
}

// SubmissionHandler serves the JSON form API.
type SubmissionHandler struct {
	cfg SubmissionConfig
}

// NewSubmissionHandler creates a SubmissionHandler.
func NewSubmissionHandler(cfg SubmissionConfig) *SubmissionHandler {
	return &SubmissionHandler{cfg: cfg}
}

// Validate handles POST /v1/forms:validate. It never fetches.
func (h *SubmissionHandler) Validate(w http.ResponseWriter, r *http.Request) {
	state, ok := decodeFormState(w, r)
	if !ok {
		return
	}

	errs := h.cfg.Validator.Validate(state, h.cfg.Localizer.Negotiate(r))
	response.JSON(w, r, http.StatusOK, models.ValidationResult{
		Valid:  errs.Valid(),
		Errors: fieldErrors(state, errs),
	})
}

// Submit handles POST /v1/submissions.
func (h *SubmissionHandler) Submit(w http.ResponseWriter, r *http.Request) {
	state, ok := decodeFormState(w, r)
	if !ok {
		return
	}

	tag := h.cfg.Localizer.Negotiate(r)
	out := h.cfg.Workflow.Run(r.Context(), state, tag)

	switch {
	case !out.Errors.Valid():
		response.Unprocessable(w, r, "the form has missing or invalid fields", fieldErrors(state, out.Errors))
	case out.InvalidCoordinates:
		// Query is omitted: its coordinates are NaN.
		response.JSON(w, r, http.StatusOK, models.SubmissionResponse{InvalidCoordinates: true})
	case out.Err != nil:
		zerolog.Ctx(r.Context()).Warn().Err(out.Err).Msg("submission fetch failed")
		detail := h.cfg.Localizer.T(tag, i18n.MsgFetchFailed)
		if out.Banner != nil {
			detail = out.Banner.Message
		}
		response.BadGateway(w, r, detail)
	default:
		response.JSON(w, r, http.StatusOK, models.SubmissionResponse{
			Query:  toArchiveQuery(out.Query),
			Series: toSeries(out.Series),
			Chart:  h.cfg.Projector.Config(out.Series, tag),
		})
	}
}

func decodeFormState(w http.ResponseWriter, r *http.Request) (form.State, bool) {
	var input models.FormState
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxFormBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&input); err != nil {
		response.BadRequest(w, r, "request body is not a valid form state")
		return form.State{}, false
	}
	return form.State{
		Region:    input.Region,
		City:      input.City,
		Longitude: input.Longitude,
		Latitude:  input.Latitude,
		StartDate: input.StartDate,
		EndDate:   input.EndDate,
	}, true
}

// fieldErrors lists errors in display order. Empty fields are "required",
// filled ones failed a format rule.
func fieldErrors(state form.State, errs form.ErrorMap) []models.FieldError {
	out := make([]models.FieldError, 0, len(errs))
	for _, f := range errs.Fields() {
		code := "invalid"
		if state.Value(f) == "" {
			code = "required"
		}
		out = append(out, models.FieldError{Field: string(f), Message: errs[f], Code: code})
	}
	return out
}

func toArchiveQuery(q archive.Query) *models.ArchiveQuery {
	return &models.ArchiveQuery{
		Latitude:  q.Latitude,
		Longitude: q.Longitude,
		StartDate: q.StartDate,
		EndDate:   q.EndDate,
	}
}

func toSeries(s *archive.WeatherSeries) *models.Series {
	if s == nil {
		return nil
	}
	out := &models.Series{
		Latitude:  s.Latitude,
		Longitude: s.Longitude,
		Timezone:  s.Timezone,
		Dates:     make([]string, len(s.Dates)),
		Rainfall:  optionalValues(s.Rainfall),
		WindSpeed: optionalValues(s.WindSpeed),
		RainTotal: s.RainTotal(),
	}
	for i, d := range s.Dates {
		out.Dates[i] = d.Format(archive.DateLayout)
	}
	if peak := s.WindMax(); !math.IsNaN(peak) {
		out.WindMax = &peak
	}
	return out
}

func optionalValues(values []float64) []*float64 {
	out := make([]*float64, len(values))
	for i := range values {
		if !math.IsNaN(values[i]) {
			v := values[i]
			out[i] = &v
		}
	}
	return out
}
