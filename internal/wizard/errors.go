package wizard

import (
	"errors"
	"fmt"
	"reflect"
	"sort"
	"strings"

	"github.com/go-playground/validator/v10"
)

// FieldErrors maps a dotted field path to a user-facing message. It is the
// error shape every step validation returns.
type FieldErrors map[string]string

func (fe FieldErrors) Error() string {
	keys := make([]string, 0, len(fe))
	for key := range fe {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		parts = append(parts, key+": "+fe[key])
	}
	return "validation failed: " + strings.Join(parts, "; ")
}

// Add records a message unless the field already has one.
func (fe FieldErrors) Add(field, message string) {
	if _, ok := fe[field]; !ok {
		fe[field] = message
	}
}

// Err returns nil for an empty set.
func (fe FieldErrors) Err() error {
	if len(fe) == 0 {
		return nil
	}
	return fe
}

// AsFieldErrors extracts FieldErrors from err.
func AsFieldErrors(err error) (FieldErrors, bool) {
	var fe FieldErrors
	if errors.As(err, &fe) {
		return fe, true
	}
	return nil, false
}

// FromValidator converts go-playground validation errors into FieldErrors
// with keys of the form "<prefix>.<json path>". Other errors are returned as is.
func FromValidator(err error, prefix string) error {
	if err == nil {
		return nil
	}
	var validationErrs validator.ValidationErrors
	if !errors.As(err, &validationErrs) {
		return err
	}

	fields := FieldErrors{}
	for _, fe := range validationErrs {
		path := fe.Namespace()
		// drop the root struct name
		if idx := strings.Index(path, "."); idx >= 0 {
			path = path[idx+1:]
		}
		if prefix != "" {
			path = prefix + "." + path
		}
		fields.Add(path, message(fe))
	}
	return fields
}

func message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must contain at least %s items", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if fe.Kind() == reflect.String {
			return fmt.Sprintf("must not exceed %s characters", fe.Param())
		}
		if fe.Kind() == reflect.Slice {
			return fmt.Sprintf("must not contain more than %s items", fe.Param())
		}
		return fmt.Sprintf("must not exceed %s", fe.Param())
	case "gte":
		return fmt.Sprintf("must be greater than or equal to %s", fe.Param())
	case "lte":
		return fmt.Sprintf("must be less than or equal to %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "slug":
		return "may only contain lowercase letters, digits and dashes"
	case "course_level":
		return "must be one of: BEGINNER, INTERMEDIATE, ADVANCED, ALL_LEVELS"
	case "url", "http_url":
		return "must be a valid http(s) URL"
	case "phone":
		return "must be a valid phone number"
	case "no_html":
		return "must not contain HTML"
	case "dive":
		return "contains an invalid value"
	}
	return fmt.Sprintf("failed the %s check", fe.Tag())
}
