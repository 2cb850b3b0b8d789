// Package seed loads pricing tables and founding pre-registrations from a
// YAML file and upserts them into the store.
package seed

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"os"
	"strings"

	"github.com/shopspring/decimal"
	"sigs.k8s.io/yaml"

	"github.com/quotekit/quotekit/internal/founding"
	"github.com/quotekit/quotekit/internal/pricing"
)

// File is the document layout of a seed file.
type File struct {
	PriceMatrix     []EntrySpec    `json:"priceMatrix"`
	Zones           []ZoneSpec     `json:"zones"`
	SeasonalRates   []SeasonalSpec `json:"seasonalRates"`
	BundleDiscounts []BundleSpec   `json:"bundleDiscounts"`
	FoundingMembers []string       `json:"foundingMembers"`
}

// EntrySpec is one price matrix row.
type EntrySpec struct {
	ServiceType       string           `json:"serviceType"`
	SizeCategory      string           `json:"sizeCategory"`
	ScopeLevel        string           `json:"scopeLevel"`
	BaseRate          decimal.Decimal  `json:"baseRate"`
	Unit              pricing.Unit     `json:"unit"`
	MinPrice          *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice          *decimal.Decimal `json:"maxPrice,omitempty"`
	RushMultiplier    *decimal.Decimal `json:"rushMultiplier,omitempty"`
	EstimatedDuration *int             `json:"estimatedDuration,omitempty"`
}

type ZoneSpec struct {
	ZipCode    string          `json:"zipCode"`
	Multiplier decimal.Decimal `json:"multiplier"`
}

type SeasonalSpec struct {
	ServiceType string          `json:"serviceType"`
	Month       int             `json:"month"`
	Multiplier  decimal.Decimal `json:"multiplier"`
	Reason      string          `json:"reason"`
}

type BundleSpec struct {
	MinServices     int             `json:"minServices"`
	DiscountPercent decimal.Decimal `json:"discountPercent"`
	BundleName      string          `json:"bundleName"`
}

// FieldError describes one invalid value in a seed file.
type FieldError struct {
	Field   string
	Message string
}

// ValidationError collects every FieldError found in a file.
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Errors))
	for _, fe := range e.Errors {
		parts = append(parts, fe.Field+": "+fe.Message)
	}
	return "invalid seed file: " + strings.Join(parts, "; ")
}

// Parse decodes and validates a seed document. Unknown fields are rejected.
func Parse(data []byte) (*File, error) {
	var f File
	if err := yaml.UnmarshalStrict(data, &f); err != nil {
		return nil, fmt.Errorf("decoding seed file: %w", err)
	}
	if errs := f.Validate(); len(errs) > 0 {
		return nil, &ValidationError{Errors: errs}
	}
	return &f, nil
}

// Load reads and parses the seed file at path.
func Load(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading seed file: %w", err)
	}
	return Parse(data)
}

// Validate checks the file against the table constraints.
func (f *File) Validate() []FieldError {
	var errs []FieldError
	add := func(field, msg string) {
		errs = append(errs, FieldError{Field: field, Message: msg})
	}

	type rowKey struct{ svc, size, scope string }
	seenRows := map[rowKey]bool{}
	for i, e := range f.PriceMatrix {
		p := fmt.Sprintf("priceMatrix[%d]", i)
		if strings.TrimSpace(e.ServiceType) == "" {
			add(p+".serviceType", "is required")
		}
		if e.SizeCategory == "" {
			add(p+".sizeCategory", "is required")
		}
		if e.ScopeLevel == "" {
			add(p+".scopeLevel", "is required")
		}
		if e.BaseRate.IsNegative() {
			add(p+".baseRate", "must not be negative")
		}
		if !e.Unit.Valid() {
			add(p+".unit", "must be one of flat, hourly, per_room, per_sqft")
		}
		if e.MinPrice != nil && e.MaxPrice != nil && e.MinPrice.GreaterThan(*e.MaxPrice) {
			add(p+".minPrice", "must not exceed maxPrice")
		}
		if e.RushMultiplier != nil && !e.RushMultiplier.IsPositive() {
			add(p+".rushMultiplier", "must be positive")
		}
		k := rowKey{e.ServiceType, e.SizeCategory, e.ScopeLevel}
		if seenRows[k] {
			add(p, "duplicates an earlier row")
		}
		seenRows[k] = true
	}

	for i, z := range f.Zones {
		p := fmt.Sprintf("zones[%d]", i)
		if z.ZipCode == "" {
			add(p+".zipCode", "is required")
		}
		if !z.Multiplier.IsPositive() {
			add(p+".multiplier", "must be positive")
		}
	}

	for i, s := range f.SeasonalRates {
		p := fmt.Sprintf("seasonalRates[%d]", i)
		if s.ServiceType == "" {
			add(p+".serviceType", "is required")
		}
		if s.Month < 1 || s.Month > 12 {
			add(p+".month", "must be between 1 and 12")
		}
		if !s.Multiplier.IsPositive() {
			add(p+".multiplier", "must be positive")
		}
	}

	hundred := decimal.NewFromInt(100)
	for i, b := range f.BundleDiscounts {
		p := fmt.Sprintf("bundleDiscounts[%d]", i)
		if b.MinServices < 1 {
			add(p+".minServices", "must be at least 1")
		}
		if b.DiscountPercent.IsNegative() || b.DiscountPercent.GreaterThan(hundred) {
			add(p+".discountPercent", "must be between 0 and 100")
		}
		if b.BundleName == "" {
			add(p+".bundleName", "is required")
		}
	}

	for i, email := range f.FoundingMembers {
		if _, err := mail.ParseAddress(email); err != nil {
			add(fmt.Sprintf("foundingMembers[%d]", i), "must be a valid email address")
		}
	}

	return errs
}

// PreRegistrar records founding-member pre-registrations.
type PreRegistrar interface {
	CreatePreRegistration(ctx context.Context, email string) error
}

// Result counts what Apply wrote.
type Result struct {
	Entries         int
	Zones           int
	SeasonalRates   int
	BundleTiers     int
	FoundingMembers int
	// SkippedMembers counts pre-registrations that already existed.
	SkippedMembers int
}

// Apply upserts every row of f. prereg may be nil when the file has no
// founding members.
func Apply(ctx context.Context, f *File, w pricing.Writer, prereg PreRegistrar) (Result, error) {
	var res Result

	for _, e := range f.PriceMatrix {
		entry := &pricing.PriceMatrixEntry{
			ServiceType:       strings.TrimSpace(e.ServiceType),
			SizeCategory:      e.SizeCategory,
			ScopeLevel:        e.ScopeLevel,
			BaseRate:          e.BaseRate,
			Unit:              e.Unit,
			MinPrice:          e.MinPrice,
			MaxPrice:          e.MaxPrice,
			RushMultiplier:    e.RushMultiplier,
			EstimatedDuration: e.EstimatedDuration,
		}
		if err := w.UpsertEntry(ctx, entry); err != nil {
			return res, fmt.Errorf("seeding %s/%s/%s: %w", e.ServiceType, e.SizeCategory, e.ScopeLevel, err)
		}
		res.Entries++
	}

	for _, z := range f.Zones {
		if err := w.UpsertZone(ctx, pricing.Zone{ZipCode: z.ZipCode, Multiplier: z.Multiplier}); err != nil {
			return res, fmt.Errorf("seeding zone %s: %w", z.ZipCode, err)
		}
		res.Zones++
	}

	for _, s := range f.SeasonalRates {
		rate := pricing.SeasonalRate{
			ServiceType: s.ServiceType,
			Month:       s.Month,
			Multiplier:  s.Multiplier,
			Reason:      s.Reason,
		}
		if err := w.UpsertSeasonalRate(ctx, rate); err != nil {
			return res, fmt.Errorf("seeding seasonal rate %s/%d: %w", s.ServiceType, s.Month, err)
		}
		res.SeasonalRates++
	}

	for _, b := range f.BundleDiscounts {
		tier := pricing.BundleTier{
			MinServices:     b.MinServices,
			DiscountPercent: b.DiscountPercent,
			BundleName:      b.BundleName,
		}
		if err := w.UpsertBundleTier(ctx, tier); err != nil {
			return res, fmt.Errorf("seeding bundle tier %d: %w", b.MinServices, err)
		}
		res.BundleTiers++
	}

	if len(f.FoundingMembers) > 0 && prereg == nil {
		return res, errors.New("seed file lists founding members but no pre-registration store was given")
	}
	for _, email := range f.FoundingMembers {
		err := prereg.CreatePreRegistration(ctx, email)
		switch {
		case errors.Is(err, founding.ErrDuplicatePreRegistration):
			res.SkippedMembers++
		case err != nil:
			return res, fmt.Errorf("seeding founding member %s: %w", email, err)
		default:
			res.FoundingMembers++
		}
	}

	return res, nil
}
