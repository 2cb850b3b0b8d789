package pricing

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// PostgresRepository implements Repository and Writer using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// entryColumns is the ordered list of columns scanned from price_matrix.
const entryColumns = `id, service_type, size_category, scope_level, base_rate, unit,
	min_price, max_price, rush_multiplier, estimated_duration`

func scanEntry(row pgx.Row) (*PriceMatrixEntry, error) {
	var (
		e                      PriceMatrixEntry
		unit                   string
		minPrice, maxPrice     decimal.NullDecimal
		rushMultiplier         decimal.NullDecimal
		estimatedDurationValue *int
	)
	err := row.Scan(
		&e.ID, &e.ServiceType, &e.SizeCategory, &e.ScopeLevel,
		&e.BaseRate, &unit,
		&minPrice, &maxPrice, &rushMultiplier, &estimatedDurationValue,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("scanning price matrix row: %w", err)
	}
	e.Unit = Unit(unit)
	e.MinPrice = nullable(minPrice)
	e.MaxPrice = nullable(maxPrice)
	e.RushMultiplier = nullable(rushMultiplier)
	e.EstimatedDuration = estimatedDurationValue
	return &e, nil
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func nullDecimal(d *decimal.Decimal) decimal.NullDecimal {
	if d == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: *d, Valid: true}
}

// FindEntry returns the cheapest row matching key. Empty Size or Scope are not filtered on.
func (r *PostgresRepository) FindEntry(ctx context.Context, key EntryKey) (*PriceMatrixEntry, error) {
	conditions := []string{"service_type = $1"}
	args := []any{key.ServiceType}
	argIdx := 2

	if key.Size != "" {
		conditions = append(conditions, fmt.Sprintf("size_category = $%d", argIdx))
		args = append(args, key.Size)
		argIdx++
	}
	if key.Scope != "" {
		conditions = append(conditions, fmt.Sprintf("scope_level = $%d", argIdx))
		args = append(args, key.Scope)
	}

	query := fmt.Sprintf(`SELECT %s FROM price_matrix WHERE %s ORDER BY base_rate ASC, id ASC LIMIT 1`,
		entryColumns, strings.Join(conditions, " AND "))

	return scanEntry(r.pool.QueryRow(ctx, query, args...))
}

// ListEntries returns every row for a service ordered by base rate ascending.
func (r *PostgresRepository) ListEntries(ctx context.Context, serviceType string) ([]PriceMatrixEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM price_matrix WHERE service_type = $1 ORDER BY base_rate ASC, id ASC`, entryColumns)
	return r.listEntries(ctx, query, serviceType)
}

// ListAllEntries returns every row ordered by service type, then base rate.
func (r *PostgresRepository) ListAllEntries(ctx context.Context) ([]PriceMatrixEntry, error) {
	query := fmt.Sprintf(`SELECT %s FROM price_matrix ORDER BY service_type ASC, base_rate ASC, id ASC`, entryColumns)
	return r.listEntries(ctx, query)
}

func (r *PostgresRepository) listEntries(ctx context.Context, query string, args ...any) ([]PriceMatrixEntry, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing price matrix: %w", err)
	}
	defer rows.Close()

	entries := []PriceMatrixEntry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating price matrix rows: %w", err)
	}

	return entries, nil
}

// ZoneMultiplier returns the zone for a ZIP code.
func (r *PostgresRepository) ZoneMultiplier(ctx context.Context, zip string) (*Zone, error) {
	var z Zone
	err := r.pool.QueryRow(ctx,
		`SELECT zip_code, multiplier FROM pricing_zones WHERE zip_code = $1`, zip,
	).Scan(&z.ZipCode, &z.Multiplier)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying pricing zone: %w", err)
	}
	return &z, nil
}

// SeasonalRate returns the seasonal rate for a service in a calendar month.
func (r *PostgresRepository) SeasonalRate(ctx context.Context, serviceType string, month int) (*SeasonalRate, error) {
	var s SeasonalRate
	err := r.pool.QueryRow(ctx,
		`SELECT service_type, month, multiplier, COALESCE(reason, '')
		 FROM seasonal_rates WHERE service_type = $1 AND month = $2`, serviceType, month,
	).Scan(&s.ServiceType, &s.Month, &s.Multiplier, &s.Reason)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying seasonal rate: %w", err)
	}
	return &s, nil
}

// BestBundleTier returns the tier with the largest min_services not exceeding serviceCount.
func (r *PostgresRepository) BestBundleTier(ctx context.Context, serviceCount int) (*BundleTier, error) {
	var b BundleTier
	err := r.pool.QueryRow(ctx,
		`SELECT min_services, discount_percent, bundle_name FROM bundle_discounts
		 WHERE min_services <= $1
		 ORDER BY min_services DESC LIMIT 1`, serviceCount,
	).Scan(&b.MinServices, &b.DiscountPercent, &b.BundleName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("querying bundle discount: %w", err)
	}
	return &b, nil
}

// UpsertEntry inserts or replaces the row for (service, size, scope).
func (r *PostgresRepository) UpsertEntry(ctx context.Context, e *PriceMatrixEntry) error {
	query := `
		INSERT INTO price_matrix (service_type, size_category, scope_level, base_rate, unit,
			min_price, max_price, rush_multiplier, estimated_duration)
		VALUES ($1, $2, $3, $4, $5, $6, $7, COALESCE($8, 1.5), $9)
		ON CONFLICT (service_type, size_category, scope_level) DO UPDATE SET
			base_rate = EXCLUDED.base_rate,
			unit = EXCLUDED.unit,
			min_price = EXCLUDED.min_price,
			max_price = EXCLUDED.max_price,
			rush_multiplier = EXCLUDED.rush_multiplier,
			estimated_duration = EXCLUDED.estimated_duration,
			updated_at = NOW()
		RETURNING id`

	err := r.pool.QueryRow(ctx, query,
		e.ServiceType, e.SizeCategory, e.ScopeLevel, e.BaseRate, string(e.Unit),
		nullDecimal(e.MinPrice), nullDecimal(e.MaxPrice), nullDecimal(e.RushMultiplier),
		e.EstimatedDuration,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("upserting price matrix entry: %w", err)
	}
	return nil
}

// UpsertZone inserts or replaces a pricing zone.
func (r *PostgresRepository) UpsertZone(ctx context.Context, z Zone) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO pricing_zones (zip_code, multiplier) VALUES ($1, $2)
		ON CONFLICT (zip_code) DO UPDATE SET multiplier = EXCLUDED.multiplier`,
		z.ZipCode, z.Multiplier)
	if err != nil {
		return fmt.Errorf("upserting pricing zone: %w", err)
	}
	return nil
}

// UpsertSeasonalRate inserts or replaces a seasonal rate.
func (r *PostgresRepository) UpsertSeasonalRate(ctx context.Context, s SeasonalRate) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO seasonal_rates (service_type, month, multiplier, reason) VALUES ($1, $2, $3, $4)
		ON CONFLICT (service_type, month) DO UPDATE SET
			multiplier = EXCLUDED.multiplier,
			reason = EXCLUDED.reason`,
		s.ServiceType, s.Month, s.Multiplier, s.Reason)
	if err != nil {
		return fmt.Errorf("upserting seasonal rate: %w", err)
	}
	return nil
}

// UpsertBundleTier inserts or replaces a bundle tier keyed by min_services.
func (r *PostgresRepository) UpsertBundleTier(ctx context.Context, b BundleTier) error {
	_, err := r.pool.Exec(ctx, `
		INSERT INTO bundle_discounts (min_services, discount_percent, bundle_name) VALUES ($1, $2, $3)
		ON CONFLICT (min_services) DO UPDATE SET
			discount_percent = EXCLUDED.discount_percent,
			bundle_name = EXCLUDED.bundle_name`,
		b.MinServices, b.DiscountPercent, b.BundleName)
	if err != nil {
		return fmt.Errorf("upserting bundle discount: %w", err)
	}
	return nil
}
