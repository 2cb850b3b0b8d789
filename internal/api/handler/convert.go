package handler

import (
	"github.com/shopspring/decimal"

	"github.com/quotekit/quotekit/internal/pricing"
)

// money renders a decimal amount as a JSON number.
func money(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func optionalMoney(d *decimal.Decimal) *float64 {
	if d == nil {
		return nil
	}
	f := d.InexactFloat64()
	return &f
}

type appliedMultiplierResponse struct {
	Name   string  `json:"name"`
	Factor float64 `json:"factor"`
	Reason string  `json:"reason,omitempty"`
}

type breakdownResponse struct {
	Rooms              *float64 `json:"rooms,omitempty"`
	Hours              *float64 `json:"hours,omitempty"`
	Sqft               *float64 `json:"sqft,omitempty"`
	BasePrice          float64  `json:"basePrice"`
	ZoneAdjustment     *float64 `json:"zoneAdjustment,omitempty"`
	SeasonalAdjustment *float64 `json:"seasonalAdjustment,omitempty"`
	RushSurcharge      *float64 `json:"rushSurcharge,omitempty"`
	BundleDiscount     *float64 `json:"bundleDiscount,omitempty"`
}

type quoteResponse struct {
	ServiceType        string                      `json:"serviceType"`
	LowEstimate        float64                     `json:"lowEstimate"`
	HighEstimate       float64                     `json:"highEstimate"`
	GuaranteedCeiling  float64                     `json:"guaranteedCeiling"`
	BaseRate           float64                     `json:"baseRate"`
	Unit               string                      `json:"unit"`
	AppliedMultipliers []appliedMultiplierResponse `json:"appliedMultipliers"`
	Breakdown          breakdownResponse           `json:"breakdown"`
}

func toQuoteResponse(q *pricing.QuoteResult) quoteResponse {
	multipliers := make([]appliedMultiplierResponse, 0, len(q.AppliedMultipliers))
	for _, m := range q.AppliedMultipliers {
		multipliers = append(multipliers, appliedMultiplierResponse{
			Name:   m.Name,
			Factor: m.Factor.InexactFloat64(),
			Reason: m.Reason,
		})
	}
	b := q.Breakdown
	return quoteResponse{
		ServiceType:        q.ServiceType,
		LowEstimate:        money(q.LowEstimate),
		HighEstimate:       money(q.HighEstimate),
		GuaranteedCeiling:  money(q.GuaranteedCeiling),
		BaseRate:           money(q.BaseRate),
		Unit:               string(q.Unit),
		AppliedMultipliers: multipliers,
		Breakdown: breakdownResponse{
			Rooms:              optionalMoney(b.Rooms),
			Hours:              optionalMoney(b.Hours),
			Sqft:               optionalMoney(b.Sqft),
			BasePrice:          money(b.BasePrice),
			ZoneAdjustment:     optionalMoney(b.ZoneAdjustment),
			SeasonalAdjustment: optionalMoney(b.SeasonalAdjustment),
			RushSurcharge:      optionalMoney(b.RushSurcharge),
			BundleDiscount:     optionalMoney(b.BundleDiscount),
		},
	}
}

type serviceTierResponse struct {
	SizeCategory      string  `json:"sizeCategory"`
	ScopeLevel        string  `json:"scopeLevel"`
	BaseRate          float64 `json:"baseRate"`
	Unit              string  `json:"unit"`
	MinPrice          float64 `json:"minPrice"`
	MaxPrice          float64 `json:"maxPrice"`
	EstimatedDuration *int    `json:"estimatedDuration"`
}

func toServiceTierResponses(tiers []pricing.ServiceTier) []serviceTierResponse {
	out := make([]serviceTierResponse, 0, len(tiers))
	for _, t := range tiers {
		out = append(out, serviceTierResponse{
			SizeCategory:      t.SizeCategory,
			ScopeLevel:        t.ScopeLevel,
			BaseRate:          money(t.BaseRate),
			Unit:              string(t.Unit),
			MinPrice:          money(t.MinPrice),
			MaxPrice:          money(t.MaxPrice),
			EstimatedDuration: t.EstimatedDuration,
		})
	}
	return out
}

type bundleEstimateResponse struct {
	TotalServices    int                `json:"totalServices"`
	DiscountPercent  float64            `json:"discountPercent"`
	BundleName       *string            `json:"bundleName"`
	EstimatedSavings float64            `json:"estimatedSavings"`
	IndividualTotals map[string]float64 `json:"individualTotals"`
}

func toBundleEstimateResponse(e *pricing.BundleEstimate) bundleEstimateResponse {
	totals := make(map[string]float64, len(e.IndividualTotals))
	for svc, v := range e.IndividualTotals {
		totals[svc] = money(v)
	}
	return bundleEstimateResponse{
		TotalServices:    e.TotalServices,
		DiscountPercent:  e.DiscountPercent.InexactFloat64(),
		BundleName:       e.BundleName,
		EstimatedSavings: money(e.EstimatedSavings),
		IndividualTotals: totals,
	}
}
