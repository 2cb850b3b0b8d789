package pricing

import (
	"time"

	"github.com/shopspring/decimal"
)

// Unit is the billing unit of a price matrix row.
type Unit string

const (
	UnitFlat    Unit = "flat"
	UnitHourly  Unit = "hourly"
	UnitPerRoom Unit = "per_room"
	UnitPerSqft Unit = "per_sqft"
)

// Valid reports whether u is one of the known billing units.
func (u Unit) Valid() bool {
	switch u {
	case UnitFlat, UnitHourly, UnitPerRoom, UnitPerSqft:
		return true
	}
	return false
}

// PriceMatrixEntry represents a row in the price_matrix table.
// Nil bounds mean "no bound".
type PriceMatrixEntry struct {
	ID                int64
	ServiceType       string
	SizeCategory      string
	ScopeLevel        string
	BaseRate          decimal.Decimal
	Unit              Unit
	MinPrice          *decimal.Decimal
	MaxPrice          *decimal.Decimal
	RushMultiplier    *decimal.Decimal
	EstimatedDuration *int
}

// EntryKey selects price matrix rows. Empty Size or Scope match any value.
type EntryKey struct {
	ServiceType string
	Size        string
	Scope       string
}

// Zone represents a row in the pricing_zones table.
type Zone struct {
	ZipCode    string
	Multiplier decimal.Decimal
}

// SeasonalRate represents a row in the seasonal_rates table.
type SeasonalRate struct {
	ServiceType string
	Month       int
	Multiplier  decimal.Decimal
	Reason      string
}

// BundleTier represents a row in the bundle_discounts table.
type BundleTier struct {
	MinServices     int
	DiscountPercent decimal.Decimal
	BundleName      string
}

// QuoteOptions holds the optional inputs to a quote.
// A nil IsSeasonal means the seasonal rate is applied automatically.
type QuoteOptions struct {
	Size        string
	Scope       string
	Zip         string
	IsRush      bool
	IsSeasonal  *bool
	BundledWith []string
	Rooms       *decimal.Decimal
	Hours       *decimal.Decimal
	Sqft        *decimal.Decimal
}

// Adjustment names used in AppliedMultiplier.Name.
const (
	AdjustmentZone           = "zone"
	AdjustmentSeasonal       = "seasonal"
	AdjustmentRush           = "rush"
	AdjustmentBundleDiscount = "bundleDiscount"
)

// AppliedMultiplier records one adjustment that fired during a quote,
// in the order it was applied.
type AppliedMultiplier struct {
	Name   string
	Factor decimal.Decimal
	Reason string
}

// Breakdown itemizes the dollar deltas of each quote step.
// Nil fields mean the step did not fire.
type Breakdown struct {
	Rooms              *decimal.Decimal
	Hours              *decimal.Decimal
	Sqft               *decimal.Decimal
	BasePrice          decimal.Decimal
	ZoneAdjustment     *decimal.Decimal
	SeasonalAdjustment *decimal.Decimal
	RushSurcharge      *decimal.Decimal
	BundleDiscount     *decimal.Decimal
}

// QuoteResult is the computed price quote. It is never persisted by the engine.
type QuoteResult struct {
	ServiceType        string
	LowEstimate        decimal.Decimal
	HighEstimate       decimal.Decimal
	GuaranteedCeiling  decimal.Decimal
	BaseRate           decimal.Decimal
	Unit               Unit
	AppliedMultipliers []AppliedMultiplier
	Breakdown          Breakdown
}

// Multiplier returns the applied multiplier with the given name.
func (q *QuoteResult) Multiplier(name string) (AppliedMultiplier, bool) {
	for _, m := range q.AppliedMultipliers {
		if m.Name == name {
			return m, true
		}
	}
	return AppliedMultiplier{}, false
}

// ServiceTier is the public projection of a price matrix row.
// Absent bounds project to zero.
type ServiceTier struct {
	SizeCategory      string
	ScopeLevel        string
	BaseRate          decimal.Decimal
	Unit              Unit
	MinPrice          decimal.Decimal
	MaxPrice          decimal.Decimal
	EstimatedDuration *int
}

// BundleEstimate is the result of a bundle discount estimation.
type BundleEstimate struct {
	TotalServices    int
	DiscountPercent  decimal.Decimal
	BundleName       *string
	EstimatedSavings decimal.Decimal
	IndividualTotals map[string]decimal.Decimal
}

// CeilingQuote is an issued guaranteed ceiling. Callers that need to honour
// it later are responsible for storing it.
type CeilingQuote struct {
	QuoteID     string
	ServiceType string
	Ceiling     decimal.Decimal
	ValidUntil  time.Time
}
