package validation

import (
	"fmt"
	"regexp"

	"github.com/shopspring/decimal"
)

var zipRegex = regexp.MustCompile(`^[0-9]{5}(-[0-9]{4})?$`)

// MaxBundledServices bounds bundledWith and bundle estimate lists.
const MaxBundledServices = 20

// QuoteRequest mirrors the fields needed for quote and ceiling validation.
type QuoteRequest struct {
	ServiceType string
	Size        string
	Scope       string
	Zip         string
	BundledWith []string
	Rooms       *decimal.Decimal
	Hours       *decimal.Decimal
	Sqft        *decimal.Decimal
}

// ValidateQuoteRequest validates a quote request. Size and scope are free-form
// because the price matrix defines its own categories.
func ValidateQuoteRequest(req QuoteRequest) []FieldError {
	var errs []FieldError

	errs = appendIf(errs, validateServiceType("serviceType", req.ServiceType))

	if len(req.Size) > 32 {
		errs = append(errs, FieldError{Field: "size", Message: "size must be at most 32 characters"})
	}
	if len(req.Scope) > 32 {
		errs = append(errs, FieldError{Field: "scope", Message: "scope must be at most 32 characters"})
	}

	if req.Zip != "" && !zipRegex.MatchString(req.Zip) {
		errs = append(errs, FieldError{Field: "zip", Message: "zip must be a 5-digit ZIP code"})
	}

	if len(req.BundledWith) > MaxBundledServices {
		errs = append(errs, FieldError{Field: "bundledWith", Message: fmt.Sprintf("bundledWith must list at most %d services", MaxBundledServices)})
	}
	for i, svc := range req.BundledWith {
		errs = appendIf(errs, validateServiceType(fmt.Sprintf("bundledWith[%d]", i), svc))
	}

	for _, q := range []struct {
		field string
		value *decimal.Decimal
	}{
		{"rooms", req.Rooms},
		{"hours", req.Hours},
		{"sqft", req.Sqft},
	} {
		if q.value != nil && q.value.IsNegative() {
			errs = append(errs, FieldError{Field: q.field, Message: q.field + " must not be negative"})
		}
	}

	return errs
}

// ValidateBundleEstimateRequest validates the service list of a bundle estimate.
func ValidateBundleEstimateRequest(serviceTypes []string) []FieldError {
	var errs []FieldError

	if len(serviceTypes) == 0 {
		errs = append(errs, FieldError{Field: "serviceTypes", Message: "serviceTypes must list at least one service"})
	} else if len(serviceTypes) > MaxBundledServices {
		errs = append(errs, FieldError{Field: "serviceTypes", Message: fmt.Sprintf("serviceTypes must list at most %d services", MaxBundledServices)})
	}
	for i, svc := range serviceTypes {
		errs = appendIf(errs, validateServiceType(fmt.Sprintf("serviceTypes[%d]", i), svc))
	}

	return errs
}

// ValidateCeilingCheckRequest validates an amount checked against an issued ceiling.
func ValidateCeilingCheckRequest(amount *decimal.Decimal) []FieldError {
	if amount == nil {
		return []FieldError{{Field: "amount", Message: "amount is required"}}
	}
	if amount.IsNegative() {
		return []FieldError{{Field: "amount", Message: "amount must not be negative"}}
	}
	return nil
}
