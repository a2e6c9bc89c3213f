package database

import (
	"context"
	"fmt"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const fareLineColumns = `id, flight_ref, cabin_class, base_price, add_ons, taxes,
	passenger_count, total_price, created_at`

// FareLineRepository persists priced fare breakdowns
type FareLineRepository struct {
	db *sqlx.DB
}

// NewFareLineRepository creates a new fare line repository
func NewFareLineRepository(db *sqlx.DB) *FareLineRepository {
	return &FareLineRepository{db: db}
}

// Create inserts a priced fare line
func (r *FareLineRepository) Create(ctx context.Context, line *models.FareLine) error {
	query := `
		INSERT INTO fare_lines (` + fareLineColumns + `)
		VALUES (:id, :flight_ref, :cabin_class, :base_price, :add_ons, :taxes,
			:passenger_count, :total_price, :created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, line); err != nil {
		return fmt.Errorf("failed to create fare line: %w", mapWriteError("fare_line", err))
	}

	return nil
}

// GetByIDs retrieves fare lines in the order of ids
func (r *FareLineRepository) GetByIDs(ctx context.Context, ids []string) ([]models.FareLine, error) {
	if len(ids) == 0 {
		return []models.FareLine{}, nil
	}

	query := `SELECT ` + fareLineColumns + ` FROM fare_lines WHERE id = ANY($1)`

	var lines []models.FareLine
	if err := r.db.SelectContext(ctx, &lines, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get fare lines: %w", err)
	}

	return orderByIDs(lines, ids, func(l models.FareLine) string { return l.ID }), nil
}

// Delete removes a fare line. Deleting a missing row is not an error.
func (r *FareLineRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM fare_lines WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete fare line: %w", err)
	}
	return nil
}

// DeleteOrphans removes fare lines created before cutoff that no booking references
func (r *FareLineRepository) DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	query := `
		DELETE FROM fare_lines fl
		WHERE fl.created_at < $1
		AND NOT EXISTS (
			SELECT 1 FROM bookings b WHERE fl.id = ANY(b.fare_line_refs)
		)
	`

	result, err := r.db.ExecContext(ctx, query, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete orphan fare lines: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
