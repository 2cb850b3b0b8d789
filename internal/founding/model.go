package founding

import (
	"time"

	"github.com/google/uuid"
)

const (
	// CreditCents is the one-time credit granted to a founding member.
	CreditCents int64 = 2500
	// DiscountPercent is applied to the post-credit balance of a discounted job.
	DiscountPercent int64 = 10
	// DiscountJobLimit is the number of jobs that receive the percentage discount.
	DiscountJobLimit = 10
)

// Phase is the position of an account in the founding-member lifecycle.
// Accounts only move forward.
type Phase int

const (
	// PhaseNotMember accounts never receive a founding discount.
	PhaseNotMember Phase = iota
	// PhaseActive accounts still have credit or discounted jobs left.
	PhaseActive
	// PhaseExhausted accounts have used all credit and discounted jobs.
	PhaseExhausted
)

func (p Phase) String() string {
	switch p {
	case PhaseActive:
		return "active"
	case PhaseExhausted:
		return "exhausted"
	default:
		return "not_member"
	}
}

// AccountState holds the founding-member fields of a customer.
type AccountState struct {
	CustomerID       string
	IsFoundingMember bool
	CreditRemaining  int64
	JobsUsed         int
}

// Phase derives the lifecycle phase from the account fields.
func (s AccountState) Phase() Phase {
	switch {
	case !s.IsFoundingMember:
		return PhaseNotMember
	case s.JobsUsed >= DiscountJobLimit && s.CreditRemaining <= 0:
		return PhaseExhausted
	default:
		return PhaseActive
	}
}

// Discount is the computed founding discount for one job. All amounts are cents.
type Discount struct {
	IsFoundingMember bool
	JobNumber        int
	OriginalAmount   int64
	CreditApplied    int64
	DiscountPercent  int64
	DiscountAmount   int64
	TotalSavings     int64
	FinalAmount      int64
}

// LedgerEntry is an immutable record of one applied founding discount.
type LedgerEntry struct {
	ID                uuid.UUID
	CustomerID        string
	JobID             string
	CreditApplied     int64
	DiscountPercent   int64
	DiscountAmount    int64
	TotalSavings      int64
	FoundingJobsCount int
	CreatedAt         time.Time
}

// Status summarizes a customer's founding-member benefits.
type Status struct {
	AccountState
	Phase                 Phase
	DiscountJobsRemaining int
}

// ApplyStatus tags the outcome of ApplyFoundingDiscount.
type ApplyStatus string

const (
	// StatusApplied means the account and ledger were updated.
	StatusApplied ApplyStatus = "applied"
	// StatusAlreadyApplied means the job was already recorded; nothing changed.
	StatusAlreadyApplied ApplyStatus = "already_applied"
	// StatusNotApplicable means the discount carried no founding benefit; nothing changed.
	StatusNotApplicable ApplyStatus = "not_applicable"
	// StatusReconciliationNeeded means payment succeeded but bookkeeping failed.
	StatusReconciliationNeeded ApplyStatus = "reconciliation_needed"
)

// ApplyResult is the outcome of applying a discount after payment.
// Err is set only when Status is StatusReconciliationNeeded.
type ApplyResult struct {
	Status          ApplyStatus
	CustomerID      string
	JobID           string
	CreditRemaining int64
	JobsUsed        int
	Err             error
}

// NeedsReconciliation reports whether the result must be routed to manual review.
func (r ApplyResult) NeedsReconciliation() bool {
	return r.Status == StatusReconciliationNeeded
}
