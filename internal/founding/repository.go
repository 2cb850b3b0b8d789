package founding

import (
	"context"
	"errors"
)

// ErrCustomerNotFound is returned when no founding-member account exists for a customer.
var ErrCustomerNotFound = errors.New("customer not found")

// ErrAlreadyApplied is returned when a discount was already recorded for a job.
var ErrAlreadyApplied = errors.New("founding discount already applied for job")

// ErrDuplicatePreRegistration is returned when an email is already pre-registered.
var ErrDuplicatePreRegistration = errors.New("founding pre-registration already exists")

// Repository persists founding-member accounts and the discount ledger.
type Repository interface {
	GetState(ctx context.Context, customerID string) (*AccountState, error)
	// ApplyDiscount atomically decrements credit (floored at zero), increments
	// the jobs counter and appends a ledger row. It returns the new state.
	ApplyDiscount(ctx context.Context, customerID, jobID string, d Discount) (*AccountState, error)
	// LinkMember claims an unlinked pre-registration for email and grants
	// userID founding membership. It returns false when nothing was claimed.
	LinkMember(ctx context.Context, userID, email string) (bool, error)
	ListLedger(ctx context.Context, customerID string) ([]LedgerEntry, error)
	CreatePreRegistration(ctx context.Context, email string) error
}
