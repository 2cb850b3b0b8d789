// Package quotelock persists issued guaranteed ceilings in Redis so a final
// invoice amount can be checked against them until they expire.
package quotelock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"

	"github.com/quotekit/quotekit/internal/pricing"
)

const keyPrefix = "quotelock:"

var (
	// ErrNotFound is returned when no live lock exists for a quote ID.
	ErrNotFound = errors.New("ceiling quote not found or expired")
	// ErrExpired is returned when saving a lock whose validity already ended.
	ErrExpired = errors.New("ceiling quote already expired")
	// ErrCeilingExceeded is returned when an amount is above the locked ceiling.
	ErrCeilingExceeded = errors.New("amount exceeds guaranteed ceiling")
)

// Lock is the stored form of an issued ceiling.
type Lock struct {
	QuoteID     string          `json:"quoteId"`
	ServiceType string          `json:"serviceType"`
	Ceiling     decimal.Decimal `json:"ceiling"`
	ValidUntil  time.Time       `json:"validUntil"`
}

// FromQuote converts an issued ceiling into a Lock.
func FromQuote(q *pricing.CeilingQuote) Lock {
	return Lock{
		QuoteID:     q.QuoteID,
		ServiceType: q.ServiceType,
		Ceiling:     q.Ceiling,
		ValidUntil:  q.ValidUntil,
	}
}

// NewClient builds a go-redis client with the pool settings used by the server.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:         addr,
		Password:     password,
		DB:           db,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
		MinIdleConns: 2,
	})
}

// Store reads and writes locks. Each lock expires in Redis at its ValidUntil.
type Store struct {
	client *redis.Client
	now    func() time.Time
}

// NewStore wraps client. now may be nil, in which case time.Now is used.
func NewStore(client *redis.Client, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{client: client, now: now}
}

func key(quoteID string) string {
	return keyPrefix + quoteID
}

// Save stores lock until its ValidUntil.
func (s *Store) Save(ctx context.Context, lock Lock) error {
	ttl := lock.ValidUntil.Sub(s.now())
	if ttl <= 0 {
		return ErrExpired
	}

	payload, err := json.Marshal(lock)
	if err != nil {
		return fmt.Errorf("encoding ceiling lock: %w", err)
	}
	if err := s.client.Set(ctx, key(lock.QuoteID), payload, ttl).Err(); err != nil {
		return fmt.Errorf("storing ceiling lock: %w", err)
	}
	return nil
}

// Get loads the lock for quoteID.
func (s *Store) Get(ctx context.Context, quoteID string) (*Lock, error) {
	raw, err := s.client.Get(ctx, key(quoteID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("loading ceiling lock: %w", err)
	}

	var lock Lock
	if err := json.Unmarshal(raw, &lock); err != nil {
		return nil, fmt.Errorf("decoding ceiling lock: %w", err)
	}
	// Redis TTLs are second-granular.
	if !s.now().Before(lock.ValidUntil) {
		return nil, ErrNotFound
	}
	return &lock, nil
}

// Validate checks amount against the lock for quoteID. The lock is returned
// alongside ErrCeilingExceeded so callers can report the ceiling.
func (s *Store) Validate(ctx context.Context, quoteID string, amount decimal.Decimal) (*Lock, error) {
	lock, err := s.Get(ctx, quoteID)
	if err != nil {
		return nil, err
	}
	if amount.GreaterThan(lock.Ceiling) {
		return lock, ErrCeilingExceeded
	}
	return lock, nil
}

// Ping checks the Redis connection.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}
