package pricing

import (
	"context"
	"errors"
	"fmt"
)

// ErrNotFound is returned by a Repository when a lookup matches no row.
var ErrNotFound = errors.New("pricing record not found")

// ErrInvalidServiceType is returned when a quote is requested without a service type.
var ErrInvalidServiceType = errors.New("service type is required")

// ErrPricingNotFound matches every *PricingNotFoundError via errors.Is.
var ErrPricingNotFound = errors.New("pricing not found")

// PricingNotFoundError is returned when no price matrix row exists for a
// service type at any fallback level.
type PricingNotFoundError struct {
	ServiceType string
}

func (e *PricingNotFoundError) Error() string {
	return fmt.Sprintf("no pricing found for service: %s", e.ServiceType)
}

// Is reports whether target is ErrPricingNotFound.
func (e *PricingNotFoundError) Is(target error) bool {
	return target == ErrPricingNotFound
}

// Repository provides read access to the pricing tables.
type Repository interface {
	// FindEntry returns one row matching key, or ErrNotFound.
	FindEntry(ctx context.Context, key EntryKey) (*PriceMatrixEntry, error)
	// ListEntries returns every row for a service ordered by base rate ascending.
	ListEntries(ctx context.Context, serviceType string) ([]PriceMatrixEntry, error)
	// ListAllEntries returns every row ordered by service type, then base rate.
	ListAllEntries(ctx context.Context) ([]PriceMatrixEntry, error)
	ZoneMultiplier(ctx context.Context, zip string) (*Zone, error)
	SeasonalRate(ctx context.Context, serviceType string, month int) (*SeasonalRate, error)
	// BestBundleTier returns the tier with the largest min_services not
	// exceeding serviceCount, or ErrNotFound.
	BestBundleTier(ctx context.Context, serviceCount int) (*BundleTier, error)
}

// Writer upserts pricing rows. It is used by the administrative seed process;
// the engine never writes.
type Writer interface {
	UpsertEntry(ctx context.Context, e *PriceMatrixEntry) error
	UpsertZone(ctx context.Context, z Zone) error
	UpsertSeasonalRate(ctx context.Context, s SeasonalRate) error
	UpsertBundleTier(ctx context.Context, b BundleTier) error
}
