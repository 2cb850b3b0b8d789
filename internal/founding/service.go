package founding

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/quotekit/quotekit/internal/metrics"
)

// ErrInvalidInput is returned for empty identifiers or negative amounts.
var ErrInvalidInput = errors.New("invalid founding discount input")

// Service computes and records founding-member discounts.
type Service struct {
	repo Repository
}

// NewService creates a new founding-member Service.
func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// CalculateFoundingDiscount returns the discount a customer would receive on
// a job of amountCents. Customers without an account get no discount.
func (s *Service) CalculateFoundingDiscount(ctx context.Context, customerID string, amountCents int64) (Discount, error) {
	if strings.TrimSpace(customerID) == "" || amountCents < 0 {
		return Discount{}, ErrInvalidInput
	}

	state, err := s.repo.GetState(ctx, customerID)
	if err != nil {
		if errors.Is(err, ErrCustomerNotFound) {
			return Calculate(AccountState{CustomerID: customerID}, amountCents), nil
		}
		return Discount{}, fmt.Errorf("loading founding state: %w", err)
	}
	return Calculate(*state, amountCents), nil
}

// ApplyFoundingDiscount records a discount once the job's payment has
// succeeded. It never returns an error: a bookkeeping failure is reported as
// StatusReconciliationNeeded so the caller can alert without touching the
// completed payment.
func (s *Service) ApplyFoundingDiscount(ctx context.Context, customerID, jobID string, d Discount) ApplyResult {
	result := ApplyResult{CustomerID: customerID, JobID: jobID}

	switch {
	case strings.TrimSpace(customerID) == "" || strings.TrimSpace(jobID) == "":
		result.Status = StatusReconciliationNeeded
		result.Err = ErrInvalidInput
	case !d.IsFoundingMember:
		result.Status = StatusNotApplicable
	default:
		state, err := s.repo.ApplyDiscount(ctx, customerID, jobID, d)
		switch {
		case err == nil:
			result.Status = StatusApplied
			result.CreditRemaining = state.CreditRemaining
			result.JobsUsed = state.JobsUsed
		case errors.Is(err, ErrAlreadyApplied):
			result.Status = StatusAlreadyApplied
		default:
			result.Status = StatusReconciliationNeeded
			result.Err = err
		}
	}

	metrics.FoundingApplications.WithLabelValues(string(result.Status)).Inc()

	if result.NeedsReconciliation() {
		slog.Error("founding discount not recorded after payment; manual reconciliation required",
			"customerId", customerID,
			"jobId", jobID,
			"creditApplied", d.CreditApplied,
			"discountAmount", d.DiscountAmount,
			"totalSavings", d.TotalSavings,
			"error", result.Err,
		)
	} else {
		slog.Info("founding discount processed",
			"customerId", customerID,
			"jobId", jobID,
			"status", result.Status,
			"totalSavings", d.TotalSavings,
		)
	}

	return result
}

// LinkFoundingMember converts the pre-registration for email into founding
// membership for userID. It returns false if there was nothing to link.
func (s *Service) LinkFoundingMember(ctx context.Context, userID, email string) (bool, error) {
	if strings.TrimSpace(userID) == "" || strings.TrimSpace(email) == "" {
		return false, ErrInvalidInput
	}

	linked, err := s.repo.LinkMember(ctx, userID, email)
	if err != nil {
		return false, fmt.Errorf("linking founding member: %w", err)
	}
	if linked {
		slog.Info("founding member linked", "userId", userID)
	}
	return linked, nil
}

// Status summarizes a customer's remaining founding benefits.
func (s *Service) Status(ctx context.Context, customerID string) (*Status, error) {
	state, err := s.repo.GetState(ctx, customerID)
	if err != nil {
		return nil, err
	}
	st := &Status{AccountState: *state, Phase: state.Phase()}
	if st.Phase == PhaseActive {
		st.DiscountJobsRemaining = max(0, DiscountJobLimit-state.JobsUsed)
	}
	return st, nil
}

// Ledger returns the discount ledger of a customer.
func (s *Service) Ledger(ctx context.Context, customerID string) ([]LedgerEntry, error) {
	entries, err := s.repo.ListLedger(ctx, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing founding ledger: %w", err)
	}
	return entries, nil
}
