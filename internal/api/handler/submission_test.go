package handler_test

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aquagraph/aquagraph/internal/api/handler"
	"github.com/aquagraph/aquagraph/internal/api/models"
	"github.com/aquagraph/aquagraph/internal/archive"
)

const algiersBody = `{"region":"16","city":"Algiers","long":"3.08746000","lat":"36.73225000","startDate":"2023-01-01","endDate":"2023-01-07"}`

func (f *fixture) submissionHandler() *handler.SubmissionHandler {
	return handler.NewSubmissionHandler(handler.SubmissionConfig{
		Workflow:  f.workflow,
		Validator: f.validator,
		Localizer: f.localizer,
		Projector: f.projector,
	})
}

func TestSubmissionHandler_Validate(t *testing.T) {
	f := newFixture(t)
	h := f.submissionHandler()

	rec := httptest.NewRecorder()
	h.Validate(rec, jsonRequest(http.MethodPost, "/v1/forms:validate", `{"region":"16","city":"Algiers"}`))

	assert.Equal(t, http.StatusOK, rec.Code)
	var result models.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.False(t, result.Valid)
	require.Len(t, result.Errors, 4)
	assert.Equal(t, "long", result.Errors[0].Field)
	assert.Equal(t, "La longitude est requise.", result.Errors[0].Message)
	assert.Equal(t, "required", result.Errors[0].Code)
	assert.Zero(t, f.fetcher.calls())
}

func TestSubmissionHandler_Validate_English(t *testing.T) {
	f := newFixture(t)
	h := f.submissionHandler()

	req := jsonRequest(http.MethodPost, "/v1/forms:validate", `{}`)
	req.Header.Set("Accept-Language", "en-GB,en;q=0.9")
	rec := httptest.NewRecorder()
	h.Validate(rec, req)

	var result models.ValidationResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	require.Len(t, result.Errors, 6)
	assert.Equal(t, "Please select a wilaya.", result.Errors[0].Message)
}

func TestSubmissionHandler_Submit(t *testing.T) {
	f := newFixture(t)
	h := f.submissionHandler()

	rec := httptest.NewRecorder()
	h.Submit(rec, jsonRequest(http.MethodPost, "/v1/submissions", algiersBody))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.SubmissionResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))

	assert.False(t, resp.InvalidCoordinates)
	require.NotNil(t, resp.Query)
	assert.Equal(t, 36.73225, resp.Query.Latitude)
	assert.Equal(t, "2023-01-07", resp.Query.EndDate)
	require.NotNil(t, resp.Series)
	assert.Len(t, resp.Series.Dates, 7)
	assert.Equal(t, "2023-01-01", resp.Series.Dates[0])
	require.NotNil(t, resp.Chart)
	assert.Len(t, resp.Chart.Data.Labels, 7)
	assert.Equal(t, "dim. 1 janv.", resp.Chart.Data.Labels[0])
	require.Len(t, resp.Chart.Data.Datasets, 2)
	assert.Equal(t, "Somme de pluie", resp.Chart.Data.Datasets[0].Label)
	assert.Equal(t, 1, f.fetcher.calls())
}

func TestSubmissionHandler_Submit_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		fetchErr   error
		wantStatus int
		wantType   string
		wantCalls  int
	}{
		{
			name:       "malformed body",
			body:       `{"region":`,
			wantStatus: http.StatusBadRequest,
			wantType:   models.ProblemTypeMalformed,
		},
		{
			name:       "unknown field",
			body:       `{"state":"16"}`,
			wantStatus: http.StatusBadRequest,
			wantType:   models.ProblemTypeMalformed,
		},
		{
			name:       "missing fields",
			body:       `{"region":"16"}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantType:   models.ProblemTypeValidation,
		},
		{
			name:       "upstream failure",
			body:       algiersBody,
			fetchErr:   archive.ErrProviderUnavailable,
			wantStatus: http.StatusBadGateway,
			wantType:   models.ProblemTypeUpstream,
			wantCalls:  1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			f.fetcher.err = tt.fetchErr
			h := f.submissionHandler()

			rec := httptest.NewRecorder()
			h.Submit(rec, jsonRequest(http.MethodPost, "/v1/submissions", tt.body))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, "application/problem+json", rec.Header().Get("Content-Type"))
			var problem models.Problem
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
			assert.Equal(t, tt.wantType, problem.Type)
			assert.Equal(t, tt.wantCalls, f.fetcher.calls())
		})
	}
}

func TestSubmissionHandler_Submit_UpstreamDetailIsLocalized(t *testing.T) {
	f := newFixture(t)
	f.fetcher.err = archive.ErrUpstream
	h := f.submissionHandler()

	rec := httptest.NewRecorder()
	h.Submit(rec, jsonRequest(http.MethodPost, "/v1/submissions", algiersBody))

	var problem models.Problem
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &problem))
	assert.Equal(t, "Impossible de récupérer les données météo. Veuillez réessayer.", problem.Detail)
}

func TestSubmissionHandler_Submit_InvalidCoordinates(t *testing.T) {
	f := newFixture(t)
	h := f.submissionHandler()

	body := `{"region":"16","city":"Algiers","long":"east","lat":"36.7","startDate":"2023-01-01","endDate":"2023-01-07"}`
	rec := httptest.NewRecorder()
	h.Submit(rec, jsonRequest(http.MethodPost, "/v1/submissions", body))

	require.Equal(t, http.StatusOK, rec.Code)
	var resp map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, true, resp["invalidCoordinates"])
	assert.NotContains(t, resp, "query")
	assert.NotContains(t, resp, "series")
	assert.Equal(t, 1, f.fetcher.calls(), "the archive is still queried")
}
