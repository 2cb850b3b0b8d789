package founding

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository implements Repository using pgxpool.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new Repository backed by the given connection pool.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// GetState loads the founding-member fields of a customer.
func (r *PostgresRepository) GetState(ctx context.Context, customerID string) (*AccountState, error) {
	var s AccountState
	err := r.pool.QueryRow(ctx, `
		SELECT id, is_founding_member, founding_credit_remaining, founding_discount_jobs_used
		FROM customers WHERE id = $1`, customerID,
	).Scan(&s.CustomerID, &s.IsFoundingMember, &s.CreditRemaining, &s.JobsUsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		return nil, fmt.Errorf("querying customer founding state: %w", err)
	}
	return &s, nil
}

// applyQuery performs the read-modify-write and the ledger append in a single
// statement. A duplicate job_id aborts the whole statement, so the account is
// never updated without its ledger row.
const applyQuery = `
	WITH updated AS (
		UPDATE customers
		SET founding_credit_remaining = GREATEST(0, founding_credit_remaining - $2::bigint),
		    founding_discount_jobs_used = founding_discount_jobs_used + 1,
		    updated_at = NOW()
		WHERE id = $1 AND is_founding_member
		RETURNING id, founding_credit_remaining, founding_discount_jobs_used
	), entry AS (
		INSERT INTO founding_discount_ledger
			(customer_id, job_id, credit_applied, discount_percent, discount_amount,
			 total_savings, founding_jobs_count)
		SELECT id, $3, $2::bigint, $4, $5, $6, founding_discount_jobs_used FROM updated
		RETURNING customer_id
	)
	SELECT u.founding_credit_remaining, u.founding_discount_jobs_used
	FROM updated u JOIN entry e ON e.customer_id = u.id`

// ApplyDiscount records an applied discount atomically.
func (r *PostgresRepository) ApplyDiscount(ctx context.Context, customerID, jobID string, d Discount) (*AccountState, error) {
	s := AccountState{CustomerID: customerID, IsFoundingMember: true}
	err := r.pool.QueryRow(ctx, applyQuery,
		customerID, d.CreditApplied, jobID,
		d.DiscountPercent, d.DiscountAmount, d.TotalSavings,
	).Scan(&s.CreditRemaining, &s.JobsUsed)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrCustomerNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrAlreadyApplied
		}
		return nil, fmt.Errorf("applying founding discount: %w", err)
	}
	return &s, nil
}

// LinkMember claims the pre-registration for email and upserts the customer
// as a founding member, in one transaction. The credit is granted once: an
// existing founding member keeps its current credit and job count.
func (r *PostgresRepository) LinkMember(ctx context.Context, userID, email string) (bool, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return false, fmt.Errorf("beginning link transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	email = strings.ToLower(strings.TrimSpace(email))

	tag, err := tx.Exec(ctx, `
		UPDATE founding_members
		SET linked_user_id = $1, linked_at = NOW()
		WHERE lower(email) = $2 AND linked_user_id IS NULL`, userID, email)
	if err != nil {
		return false, fmt.Errorf("claiming founding pre-registration: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return false, nil
	}

	_, err = tx.Exec(ctx, `
		INSERT INTO customers (id, email, is_founding_member, founding_credit_remaining, founding_discount_jobs_used)
		VALUES ($1, $2, TRUE, $3, 0)
		ON CONFLICT (id) DO UPDATE SET
			is_founding_member = TRUE,
			founding_credit_remaining = EXCLUDED.founding_credit_remaining,
			updated_at = NOW()
		WHERE NOT customers.is_founding_member`, userID, email, CreditCents)
	if err != nil {
		return false, fmt.Errorf("granting founding membership: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return false, fmt.Errorf("committing link transaction: %w", err)
	}
	return true, nil
}

// ListLedger returns a customer's ledger entries, oldest first.
func (r *PostgresRepository) ListLedger(ctx context.Context, customerID string) ([]LedgerEntry, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, customer_id, job_id, credit_applied, discount_percent, discount_amount,
		       total_savings, founding_jobs_count, created_at
		FROM founding_discount_ledger
		WHERE customer_id = $1
		ORDER BY created_at ASC, founding_jobs_count ASC`, customerID)
	if err != nil {
		return nil, fmt.Errorf("listing founding ledger: %w", err)
	}
	defer rows.Close()

	entries := []LedgerEntry{}
	for rows.Next() {
		var e LedgerEntry
		err := rows.Scan(
			&e.ID, &e.CustomerID, &e.JobID, &e.CreditApplied, &e.DiscountPercent,
			&e.DiscountAmount, &e.TotalSavings, &e.FoundingJobsCount, &e.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning ledger row: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating ledger rows: %w", err)
	}
	return entries, nil
}

// CreatePreRegistration records an email eligible for founding membership.
func (r *PostgresRepository) CreatePreRegistration(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO founding_members (email) VALUES ($1)`,
		strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicatePreRegistration
		}
		return fmt.Errorf("inserting founding pre-registration: %w", err)
	}
	return nil
}
