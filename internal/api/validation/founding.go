package validation

import (
	"fmt"
	"net/mail"
	"strings"
)

// MaxAmountCents bounds job amounts accepted by the founding endpoints ($10M).
const MaxAmountCents int64 = 1_000_000_000

// ValidateAmountCents checks a job amount given in cents.
func ValidateAmountCents(field string, amount int64) []FieldError {
	if amount < 0 || amount > MaxAmountCents {
		return []FieldError{{Field: field, Message: fmt.Sprintf("%s must be between 0 and %d", field, MaxAmountCents)}}
	}
	return nil
}

// ApplyDiscountRequest mirrors the fields needed for apply validation.
// Amounts are cents.
type ApplyDiscountRequest struct {
	JobID          string
	OriginalAmount int64
	CreditApplied  int64
	DiscountAmount int64
	TotalSavings   int64
	FinalAmount    int64
}

// ValidateApplyDiscountRequest checks the job ID and that the discount adds up.
func ValidateApplyDiscountRequest(req ApplyDiscountRequest) []FieldError {
	var errs []FieldError

	errs = appendIf(errs, validateIdentifier("jobId", req.JobID))

	for _, a := range []struct {
		field string
		value int64
	}{
		{"discount.originalAmount", req.OriginalAmount},
		{"discount.creditApplied", req.CreditApplied},
		{"discount.discountAmount", req.DiscountAmount},
		{"discount.totalSavings", req.TotalSavings},
		{"discount.finalAmount", req.FinalAmount},
	} {
		if a.value < 0 {
			errs = append(errs, FieldError{Field: a.field, Message: a.field + " must not be negative"})
		}
	}
	errs = append(errs, ValidateAmountCents("discount.originalAmount", req.OriginalAmount)...)

	if req.CreditApplied+req.DiscountAmount != req.TotalSavings {
		errs = append(errs, FieldError{Field: "discount.totalSavings", Message: "discount.totalSavings must equal creditApplied plus discountAmount"})
	}
	if req.OriginalAmount-req.TotalSavings != req.FinalAmount {
		errs = append(errs, FieldError{Field: "discount.finalAmount", Message: "discount.finalAmount must equal originalAmount minus totalSavings"})
	}

	return errs
}

// ValidateLinkRequest validates a founding-member link request.
func ValidateLinkRequest(userID, email string) []FieldError {
	var errs []FieldError

	errs = appendIf(errs, validateIdentifier("userId", userID))

	email = strings.TrimSpace(email)
	if email == "" {
		errs = append(errs, FieldError{Field: "email", Message: "email is required"})
	} else if addr, err := mail.ParseAddress(email); err != nil || addr.Address != email {
		errs = append(errs, FieldError{Field: "email", Message: "email must be a valid email address"})
	}

	return errs
}

// ValidateCustomerID validates a customer ID path parameter.
func ValidateCustomerID(customerID string) []FieldError {
	return appendIf(nil, validateIdentifier("customerId", customerID))
}
