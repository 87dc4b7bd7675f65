package models

import "github.com/aquagraph/aquagraph/internal/chart"

// FormState is the body of POST /v1/forms:validate and POST /v1/submissions.
// Every value is a string, as typed into the form.
type FormState struct {
	Region    string `json:"region"`
	City      string `json:"city"`
	Longitude string `json:"long"`
	Latitude  string `json:"lat"`
	StartDate string `json:"startDate"`
	EndDate   string `json:"endDate"`
}

// ValidationResult is returned by POST /v1/forms:validate.
type ValidationResult struct {
	Valid  bool         `json:"valid"`
	Errors []FieldError `json:"errors"`
}

// ArchiveQuery echoes the parameters sent upstream.
type ArchiveQuery struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
	StartDate string  `json:"startDate"`
	EndDate   string  `json:"endDate"`
}

// Series is a daily weather series. Missing samples are null.
type Series struct {
	Latitude  float64    `json:"latitude"`
	Longitude float64    `json:"longitude"`
	Timezone  string     `json:"timezone"`
	Dates     []string   `json:"dates"`
	Rainfall  []*float64 `json:"rainfall"`
	WindSpeed []*float64 `json:"windSpeed"`
	RainTotal float64    `json:"rainTotal"`
	WindMax   *float64   `json:"windMax,omitempty"`
}

// SubmissionResponse is returned by POST /v1/submissions with status 200.
type SubmissionResponse struct {
	// InvalidCoordinates is true when latitude or longitude did not parse.
	// The archive was still queried; no series is returned.
	InvalidCoordinates bool          `json:"invalidCoordinates"`
	Query              *ArchiveQuery `json:"query,omitempty"`
	Series             *Series       `json:"series,omitempty"`
	Chart              *chart.Config `json:"chart,omitempty"`
}
