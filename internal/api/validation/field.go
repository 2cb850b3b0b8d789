package validation

import (
	"fmt"
	"regexp"
	"strings"
)

// FieldError represents a validation error on a specific field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ServiceTypeRegex matches price matrix service identifiers such as
// "gutter_cleaning".
var ServiceTypeRegex = regexp.MustCompile(`^[a-z][a-z0-9_]{1,63}$`)

const maxIdentifierLength = 128

func validateServiceType(field, value string) *FieldError {
	if value == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}
	if !ServiceTypeRegex.MatchString(value) {
		return &FieldError{Field: field, Message: field + " must be lowercase letters, digits and underscores, 2-64 characters"}
	}
	return nil
}

func validateIdentifier(field, value string) *FieldError {
	value = strings.TrimSpace(value)
	if value == "" {
		return &FieldError{Field: field, Message: field + " is required"}
	}
	if len(value) > maxIdentifierLength {
		return &FieldError{Field: field, Message: fmt.Sprintf("%s must be at most %d characters", field, maxIdentifierLength)}
	}
	return nil
}

func appendIf(errs []FieldError, fe *FieldError) []FieldError {
	if fe != nil {
		errs = append(errs, *fe)
	}
	return errs
}
