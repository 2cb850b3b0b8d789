package founding

// Calculate computes the founding discount for a job of amountCents.
// It does not mutate state.
//
// The credit is applied first; the percentage discount is then taken from
// the remaining balance, never from the original amount.
func Calculate(state AccountState, amountCents int64) Discount {
	none := Discount{
		OriginalAmount: amountCents,
		FinalAmount:    amountCents,
	}
	if state.Phase() != PhaseActive {
		return none
	}

	d := Discount{
		IsFoundingMember: true,
		JobNumber:        state.JobsUsed + 1,
		OriginalAmount:   amountCents,
	}
	remaining := amountCents

	if state.CreditRemaining > 0 && remaining > 0 {
		d.CreditApplied = min(state.CreditRemaining, remaining)
		remaining -= d.CreditApplied
	}

	if state.JobsUsed < DiscountJobLimit && remaining > 0 {
		d.DiscountPercent = DiscountPercent
		d.DiscountAmount = percentOf(remaining, DiscountPercent)
	}

	d.TotalSavings = d.CreditApplied + d.DiscountAmount
	d.FinalAmount = amountCents - d.TotalSavings
	return d
}

// percentOf returns pct% of cents rounded half-up to a whole cent.
// Whole dollars and the cent remainder are scaled separately so large
// amounts do not overflow.
func percentOf(cents, pct int64) int64 {
	return (cents/100)*pct + ((cents%100)*pct+50)/100
}
