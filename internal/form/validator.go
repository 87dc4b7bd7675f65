package form

import (
	"errors"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/language"

	"github.com/aquagraph/aquagraph/internal/i18n"
)

// ErrorMap maps a field to its localized error message. An empty map means
// the form is valid.
type ErrorMap map[Field]string

// Valid reports whether the map holds no errors.
func (m ErrorMap) Valid() bool {
	return len(m) == 0
}

// Fields returns the invalid fields in display order.
func (m ErrorMap) Fields() []Field {
	out := make([]Field, 0, len(m))
	for _, f := range Fields {
		if _, ok := m[f]; ok {
			out = append(out, f)
		}
	}
	return out
}

var requiredMessages = map[Field]string{
	FieldRegion:    i18n.MsgRegionRequired,
	FieldCity:      i18n.MsgCityRequired,
	FieldLongitude: i18n.MsgLongitudeRequired,
	FieldLatitude:  i18n.MsgLatitudeRequired,
	FieldStartDate: i18n.MsgStartDateRequired,
	FieldEndDate:   i18n.MsgEndDateRequired,
}

// ValidatorConfig holds configuration for the Validator.
type ValidatorConfig struct {
	Localizer *i18n.Localizer

	// StrictCoordinates also requires latitude and longitude to be valid
	// decimal degrees. Off by default: numeric validity is only checked
	// after the archive request returns.
	StrictCoordinates bool
}

// Validator checks a State for missing fields.
type Validator struct {
	validate  *validator.Validate
	localizer *i18n.Localizer
	strict    bool
}

// NewValidator creates a Validator.
func NewValidator(cfg ValidatorConfig) *Validator {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Validator{
		validate:  v,
		localizer: cfg.Localizer,
		strict:    cfg.StrictCoordinates,
	}
}

// Validate returns the errors for s. It has no side effects.
func (v *Validator) Validate(s State, tag language.Tag) ErrorMap {
	errs := ErrorMap{}

	if err := v.validate.Struct(s); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) {
			for _, fe := range fieldErrs {
				field := Field(fe.Field())
				if key, ok := requiredMessages[field]; ok {
					errs[field] = v.localizer.T(tag, key)
				}
			}
		}
	}

	if v.strict {
		v.checkCoordinate(errs, FieldLatitude, s.Latitude, "latitude", i18n.MsgLatitudeNumeric, tag)
		v.checkCoordinate(errs, FieldLongitude, s.Longitude, "longitude", i18n.MsgLongitudeNumeric, tag)
	}

	return errs
}

func (v *Validator) checkCoordinate(errs ErrorMap, field Field, value, rule, key string, tag language.Tag) {
	if _, missing := errs[field]; missing {
		return
	}
	if err := v.validate.Var(strings.TrimSpace(value), rule); err != nil {
		errs[field] = v.localizer.T(tag, key)
	}
}
