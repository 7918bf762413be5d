package shared

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ErrIdempotencyConflict marks a request key that was already claimed for the
// same operation.
var ErrIdempotencyConflict = fmt.Errorf("%w: request already processed", ErrConflict)

// IdempotencyStore remembers client request keys per operation, so the same
// key may be reused for a sale and a payment without colliding.
type IdempotencyStore struct {
	pool *pgxpool.Pool
	now  func() time.Time
}

// NewIdempotencyStore builds the store.
func NewIdempotencyStore(pool *pgxpool.Pool) *IdempotencyStore {
	return &IdempotencyStore{pool: pool, now: time.Now}
}

func normalizeClaim(scope, key string) (string, string, error) {
	scope, key = strings.TrimSpace(scope), strings.TrimSpace(key)
	if scope == "" {
		return "", "", NewValidationError("scope", "idempotency scope required")
	}
	if key == "" || len(key) > 200 {
		return "", "", NewValidationError("Idempotency-Key", "must be 1-200 characters")
	}
	return scope, key, nil
}

// Claim records key under scope. A second claim returns ErrIdempotencyConflict.
func (s *IdempotencyStore) Claim(ctx context.Context, scope, key string) error {
	if s == nil || s.pool == nil {
		return errors.New("idempotency store not initialised")
	}
	scope, key, err := normalizeClaim(scope, key)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO idempotency_keys (scope, key, created_at) VALUES ($1, $2, $3)`,
		scope, key, s.now().UTC())
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return ErrIdempotencyConflict
	}
	return err
}

// Release forgets a claim whose unit of work did not commit.
func (s *IdempotencyStore) Release(ctx context.Context, scope, key string) error {
	if s == nil || s.pool == nil {
		return nil
	}
	scope, key, err := normalizeClaim(scope, key)
	if err != nil {
		return err
	}
	_, err = s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE scope = $1 AND key = $2`, scope, key)
	return err
}

// Cleanup drops claims older than olderThan and reports how many went.
func (s *IdempotencyStore) Cleanup(ctx context.Context, olderThan time.Duration) (int64, error) {
	if s == nil || s.pool == nil {
		return 0, nil
	}
	tag, err := s.pool.Exec(ctx, `DELETE FROM idempotency_keys WHERE created_at < $1`, s.now().UTC().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("idempotency cleanup: %w", err)
	}
	return tag.RowsAffected(), nil
}
