package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	// DefaultSize is used when QuoteOptions.Size is empty.
	DefaultSize = "medium"
	// DefaultScope is used when QuoteOptions.Scope is empty.
	DefaultScope = "standard"

	// CeilingValidity is how long an issued guaranteed ceiling stays valid.
	CeilingValidity = 24 * time.Hour
)

var (
	one     = decimal.NewFromInt(1)
	hundred = decimal.NewFromInt(100)

	// estimateSpread widens the low estimate into the high estimate, and the
	// high estimate into the guaranteed ceiling.
	estimateSpread        = decimal.RequireFromString("1.15")
	defaultRushMultiplier = decimal.RequireFromString("1.5")
)

// Engine computes quotes from the pricing tables. It is safe for concurrent use.
type Engine struct {
	repo  Repository
	now   func() time.Time
	newID func(time.Time) string
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the clock used for the seasonal month and ceiling expiry.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithQuoteIDGenerator overrides how ceiling quote IDs are generated.
func WithQuoteIDGenerator(fn func(time.Time) string) Option {
	return func(e *Engine) { e.newID = fn }
}

// NewEngine creates an Engine reading from repo.
func NewEngine(repo Repository, opts ...Option) *Engine {
	e := &Engine{
		repo:  repo,
		now:   time.Now,
		newID: newQuoteID,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// newQuoteID returns "ceil_<unix-ms>_<8 hex chars>". Uniqueness is best-effort.
func newQuoteID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return fmt.Sprintf("ceil_%d_%s", now.UnixMilli(), suffix)
}

// GetQuote resolves serviceType and opts into a price quote.
//
// Missing zone, seasonal and bundle data skip their step. Missing price data
// fails with a *PricingNotFoundError.
func (e *Engine) GetQuote(ctx context.Context, serviceType string, opts QuoteOptions) (*QuoteResult, error) {
	serviceType = strings.TrimSpace(serviceType)
	if serviceType == "" {
		return nil, ErrInvalidServiceType
	}

	size := opts.Size
	if size == "" {
		size = DefaultSize
	}
	scope := opts.Scope
	if scope == "" {
		scope = DefaultScope
	}

	entry, err := e.resolveEntry(ctx, serviceType, size, scope)
	if err != nil {
		return nil, err
	}

	result := &QuoteResult{
		ServiceType:        serviceType,
		BaseRate:           entry.BaseRate,
		Unit:               entry.Unit,
		AppliedMultipliers: []AppliedMultiplier{},
	}
	bd := &result.Breakdown

	// 1. Quantity scaling.
	price := entry.BaseRate
	switch {
	case entry.Unit == UnitPerRoom && positive(opts.Rooms):
		price = entry.BaseRate.Mul(*opts.Rooms)
		bd.Rooms = ptr(*opts.Rooms)
	case entry.Unit == UnitHourly && positive(opts.Hours):
		price = entry.BaseRate.Mul(*opts.Hours)
		bd.Hours = ptr(*opts.Hours)
	case entry.Unit == UnitPerSqft && positive(opts.Sqft):
		price = entry.BaseRate.Mul(*opts.Sqft)
		bd.Sqft = ptr(*opts.Sqft)
	}
	bd.BasePrice = price

	// 2. Zone.
	if opts.Zip != "" {
		zone, err := e.repo.ZoneMultiplier(ctx, opts.Zip)
		switch {
		case err == nil:
			if !zone.Multiplier.Equal(one) {
				before := price
				price = price.Mul(zone.Multiplier)
				bd.ZoneAdjustment = ptr(price.Sub(before))
				result.AppliedMultipliers = append(result.AppliedMultipliers,
					AppliedMultiplier{Name: AdjustmentZone, Factor: zone.Multiplier})
			}
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("looking up pricing zone: %w", err)
		}
	}

	// 3. Seasonal.
	if opts.IsSeasonal == nil || *opts.IsSeasonal {
		month := int(e.now().Month())
		season, err := e.repo.SeasonalRate(ctx, serviceType, month)
		switch {
		case err == nil:
			if !season.Multiplier.Equal(one) {
				before := price
				price = price.Mul(season.Multiplier)
				bd.SeasonalAdjustment = ptr(price.Sub(before))
				result.AppliedMultipliers = append(result.AppliedMultipliers,
					AppliedMultiplier{Name: AdjustmentSeasonal, Factor: season.Multiplier, Reason: season.Reason})
			}
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("looking up seasonal rate: %w", err)
		}
	}

	// 4. Rush.
	if opts.IsRush {
		rush := defaultRushMultiplier
		if entry.RushMultiplier != nil && !entry.RushMultiplier.IsZero() {
			rush = *entry.RushMultiplier
		}
		before := price
		price = price.Mul(rush)
		bd.RushSurcharge = ptr(price.Sub(before))
		result.AppliedMultipliers = append(result.AppliedMultipliers,
			AppliedMultiplier{Name: AdjustmentRush, Factor: rush})
	}

	// 5. Bundle discount.
	if len(opts.BundledWith) > 0 {
		totalServices := len(opts.BundledWith) + 1
		tier, err := e.repo.BestBundleTier(ctx, totalServices)
		switch {
		case err == nil:
			fraction := tier.DiscountPercent.Div(hundred)
			discount := price.Mul(fraction)
			price = price.Sub(discount)
			bd.BundleDiscount = ptr(discount.Neg())
			result.AppliedMultipliers = append(result.AppliedMultipliers,
				AppliedMultiplier{Name: AdjustmentBundleDiscount, Factor: fraction, Reason: tier.BundleName})
		case !errors.Is(err, ErrNotFound):
			return nil, fmt.Errorf("looking up bundle discount: %w", err)
		}
	}

	result.LowEstimate, result.HighEstimate, result.GuaranteedCeiling = bounds(price, entry)
	return result, nil
}

// resolveEntry walks the fallback chain: exact (service, size, scope), then
// (service, size), then service only.
func (e *Engine) resolveEntry(ctx context.Context, serviceType, size, scope string) (*PriceMatrixEntry, error) {
	keys := []EntryKey{
		{ServiceType: serviceType, Size: size, Scope: scope},
		{ServiceType: serviceType, Size: size},
		{ServiceType: serviceType},
	}
	for _, key := range keys {
		entry, err := e.repo.FindEntry(ctx, key)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, ErrNotFound) {
			return nil, fmt.Errorf("finding price matrix entry: %w", err)
		}
	}
	return nil, &PricingNotFoundError{ServiceType: serviceType}
}

// bounds derives the low estimate, high estimate and guaranteed ceiling.
// The max price caps the high estimate and therefore the ceiling; when the
// min price or the cap would put the low estimate above the high estimate,
// the low estimate is lowered to meet it.
func bounds(price decimal.Decimal, entry *PriceMatrixEntry) (low, high, ceiling decimal.Decimal) {
	minPrice := decimal.Zero
	if entry.MinPrice != nil {
		minPrice = *entry.MinPrice
	}

	low = decimal.Max(price.Round(2), minPrice)

	high = price.Mul(estimateSpread).Round(2)
	if entry.MaxPrice != nil {
		high = decimal.Min(high, entry.MaxPrice.Mul(estimateSpread))
	}
	low = decimal.Min(low, high)

	ceiling = high.Mul(estimateSpread).Round(2)
	return low, high, ceiling
}

// GetServicePricing returns every tier of a service, cheapest first.
func (e *Engine) GetServicePricing(ctx context.Context, serviceType string) ([]ServiceTier, error) {
	entries, err := e.repo.ListEntries(ctx, serviceType)
	if err != nil {
		return nil, fmt.Errorf("listing service pricing: %w", err)
	}
	tiers := make([]ServiceTier, 0, len(entries))
	for i := range entries {
		tiers = append(tiers, toServiceTier(&entries[i]))
	}
	return tiers, nil
}

// GetAllPricing returns every tier grouped by service type.
func (e *Engine) GetAllPricing(ctx context.Context) (map[string][]ServiceTier, error) {
	entries, err := e.repo.ListAllEntries(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing all pricing: %w", err)
	}
	menu := make(map[string][]ServiceTier)
	for i := range entries {
		svc := entries[i].ServiceType
		menu[svc] = append(menu[svc], toServiceTier(&entries[i]))
	}
	return menu, nil
}

func toServiceTier(e *PriceMatrixEntry) ServiceTier {
	t := ServiceTier{
		SizeCategory:      e.SizeCategory,
		ScopeLevel:        e.ScopeLevel,
		BaseRate:          e.BaseRate,
		Unit:              e.Unit,
		EstimatedDuration: e.EstimatedDuration,
	}
	if e.MinPrice != nil {
		t.MinPrice = *e.MinPrice
	}
	if e.MaxPrice != nil {
		t.MaxPrice = *e.MaxPrice
	}
	return t
}

// GetBundleDiscount estimates the savings of booking serviceTypes together,
// pricing each service at its cheapest tier. Services without pricing count
// as zero.
func (e *Engine) GetBundleDiscount(ctx context.Context, serviceTypes []string) (*BundleEstimate, error) {
	estimate := &BundleEstimate{
		TotalServices:    len(serviceTypes),
		DiscountPercent:  decimal.Zero,
		IndividualTotals: make(map[string]decimal.Decimal, len(serviceTypes)),
	}

	tier, err := e.repo.BestBundleTier(ctx, len(serviceTypes))
	switch {
	case err == nil:
		estimate.DiscountPercent = tier.DiscountPercent
		if tier.BundleName != "" {
			estimate.BundleName = ptr(tier.BundleName)
		}
	case !errors.Is(err, ErrNotFound):
		return nil, fmt.Errorf("looking up bundle discount: %w", err)
	}

	total := decimal.Zero
	for _, svc := range serviceTypes {
		entries, err := e.repo.ListEntries(ctx, svc)
		if err != nil {
			return nil, fmt.Errorf("listing pricing for %s: %w", svc, err)
		}
		price := decimal.Zero
		if len(entries) > 0 {
			price = entries[0].BaseRate
		}
		estimate.IndividualTotals[svc] = price
		total = total.Add(price)
	}

	estimate.EstimatedSavings = total.Mul(estimate.DiscountPercent).Div(hundred).Round(2)
	return estimate, nil
}

// GetGuaranteedCeiling quotes the service and issues a ceiling valid for
// CeilingValidity. The ceiling is not persisted.
func (e *Engine) GetGuaranteedCeiling(ctx context.Context, serviceType string, opts QuoteOptions) (*CeilingQuote, error) {
	quote, err := e.GetQuote(ctx, serviceType, opts)
	if err != nil {
		return nil, err
	}
	now := e.now()
	return &CeilingQuote{
		QuoteID:     e.newID(now),
		ServiceType: quote.ServiceType,
		Ceiling:     quote.GuaranteedCeiling,
		ValidUntil:  now.Add(CeilingValidity).UTC(),
	}, nil
}

func positive(d *decimal.Decimal) bool {
	return d != nil && d.IsPositive()
}

func ptr[T any](v T) *T {
	return &v
}
