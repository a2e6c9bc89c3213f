package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// CounterRepository hands out per-scope sequence numbers
type CounterRepository struct {
	db *sqlx.DB
}

// NewCounterRepository creates a new counter repository
func NewCounterRepository(db *sqlx.DB) *CounterRepository {
	return &CounterRepository{db: db}
}

// Increment atomically bumps the counter for scopeKey, creating it on first
// use, and returns the post-increment value. The upsert is a single
// statement so concurrent callers on one scope never see the same value.
func (r *CounterRepository) Increment(ctx context.Context, scopeKey string) (int64, error) {
	query := `
		INSERT INTO counters (scope_key, sequence, updated_at)
		VALUES ($1, 1, NOW())
		ON CONFLICT (scope_key)
		DO UPDATE SET sequence = counters.sequence + 1, updated_at = NOW()
		RETURNING sequence
	`

	var sequence int64
	if err := r.db.QueryRowxContext(ctx, query, scopeKey).Scan(&sequence); err != nil {
		return 0, fmt.Errorf("failed to increment counter %s: %w", scopeKey, err)
	}

	return sequence, nil
}
