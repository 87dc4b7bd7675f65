// Package form holds the submitted form state and its validation rules.
package form

import (
	"math"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/aquagraph/aquagraph/internal/geo"
)

// Field names a form input. The values double as the keys of an ErrorMap
// and the names of the HTML inputs.
type Field string

const (
	FieldRegion    Field = "region"
	FieldCity      Field = "city"
	FieldLongitude Field = "long"
	FieldLatitude  Field = "lat"
	FieldStartDate Field = "startDate"
	FieldEndDate   Field = "endDate"
)

// Fields lists every field in display order.
var Fields = []Field{
	FieldRegion,
	FieldCity,
	FieldLongitude,
	FieldLatitude,
	FieldStartDate,
	FieldEndDate,
}

// State is the current value of every form input.
type State struct {
	Region    string `form:"region" json:"region" validate:"required"`
	City      string `form:"city" json:"city" validate:"required"`
	Longitude string `form:"long" json:"long" validate:"required"`
	Latitude  string `form:"lat" json:"lat" validate:"required"`
	StartDate string `form:"startDate" json:"startDate" validate:"required"`
	EndDate   string `form:"endDate" json:"endDate" validate:"required"`
}

// Decode reads a State from posted form values.
func Decode(values url.Values) State {
	return State{
		Region:    values.Get(string(FieldRegion)),
		City:      values.Get(string(FieldCity)),
		Longitude: values.Get(string(FieldLongitude)),
		Latitude:  values.Get(string(FieldLatitude)),
		StartDate: values.Get(string(FieldStartDate)),
		EndDate:   values.Get(string(FieldEndDate)),
	}
}

// Value returns the current value of a field.
func (s State) Value(f Field) string {
	switch f {
	case FieldRegion:
		return s.Region
	case FieldCity:
		return s.City
	case FieldLongitude:
		return s.Longitude
	case FieldLatitude:
		return s.Latitude
	case FieldStartDate:
		return s.StartDate
	case FieldEndDate:
		return s.EndDate
	}
	return ""
}

// SelectRegion changes the region. The city is left as is.
func SelectRegion(s State, code string) State {
	s.Region = code
	return s
}

// ApplyCity selects a city and copies its stored coordinates into the form.
func ApplyCity(s State, c geo.City) State {
	s.City = c.Name
	s.Latitude = c.Latitude
	s.Longitude = c.Longitude
	return s
}

// ResetAfterFetch clears the coordinate and date inputs. Region and city
// stay selected.
func ResetAfterFetch(s State) State {
	s.Longitude = ""
	s.Latitude = ""
	s.StartDate = ""
	s.EndDate = ""
	return s
}

// Coordinates parses latitude and longitude. Unparsable values come back
// as NaN with ok set to false.
func Coordinates(s State) (lat, lon float64, ok bool) {
	lat, latOK := parseCoordinate(s.Latitude)
	lon, lonOK := parseCoordinate(s.Longitude)
	return lat, lon, latOK && lonOK
}

// decimalPrefix matches the longest leading decimal literal, so "36.7 N"
// reads as 36.7 the way a browser's parseFloat would.
var decimalPrefix = regexp.MustCompile(`^[+-]?(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?`)

func parseCoordinate(v string) (float64, bool) {
	lit := decimalPrefix.FindString(strings.TrimLeft(v, " \t\n\r\f\v"))
	if lit == "" {
		return math.NaN(), false
	}
	f, err := strconv.ParseFloat(lit, 64)
	if err != nil || math.IsInf(f, 0) {
		return math.NaN(), false
	}
	return f, true
}
