package database

import (
	"context"
	"fmt"
	"strings"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const passengerColumns = `id, passenger_id, user_id, booking_ref, title, first_name, last_name,
	nationality, date_of_birth, created_at, updated_at`

// PassengerRepository handles passenger persistence
type PassengerRepository struct {
	db *sqlx.DB
}

// NewPassengerRepository creates a new passenger repository
func NewPassengerRepository(db *sqlx.DB) *PassengerRepository {
	return &PassengerRepository{db: db}
}

// InsertMany inserts all passengers of a booking in one transaction
func (r *PassengerRepository) InsertMany(ctx context.Context, passengers []*models.Passenger) error {
	if len(passengers) == 0 {
		return nil
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		INSERT INTO passengers (` + passengerColumns + `)
		VALUES (:id, :passenger_id, :user_id, :booking_ref, :title, :first_name, :last_name,
			:nationality, :date_of_birth, :created_at, :updated_at)
	`

	for _, p := range passengers {
		if _, err := tx.NamedExecContext(ctx, query, p); err != nil {
			return fmt.Errorf("failed to insert passenger %s: %w", p.PassengerID, mapWriteError("passenger", err))
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit passengers: %w", err)
	}

	return nil
}

// GetByID retrieves a passenger by UUID
func (r *PassengerRepository) GetByID(ctx context.Context, id string) (*models.Passenger, error) {
	query := `SELECT ` + passengerColumns + ` FROM passengers WHERE id = $1`

	var passenger models.Passenger
	if err := r.db.GetContext(ctx, &passenger, query, id); err != nil {
		return nil, mapReadError("passenger", id, err)
	}

	return &passenger, nil
}

// GetByIDs retrieves passengers in the order of ids
func (r *PassengerRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Passenger, error) {
	if len(ids) == 0 {
		return []models.Passenger{}, nil
	}

	query := `SELECT ` + passengerColumns + ` FROM passengers WHERE id = ANY($1)`

	var passengers []models.Passenger
	if err := r.db.SelectContext(ctx, &passengers, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get passengers: %w", err)
	}

	return orderByIDs(passengers, ids, func(p models.Passenger) string { return p.ID }), nil
}

// List returns passengers matching filter, newest first
func (r *PassengerRepository) List(ctx context.Context, filter models.PassengerFilter) ([]models.Passenger, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.BookingRef != "" {
		args = append(args, filter.BookingRef)
		conditions = append(conditions, fmt.Sprintf("booking_ref = $%d", len(args)))
	}
	if filter.PassengerID != "" {
		args = append(args, filter.PassengerID)
		conditions = append(conditions, fmt.Sprintf("passenger_id = $%d", len(args)))
	}
	if filter.Nationality != "" {
		args = append(args, filter.Nationality)
		conditions = append(conditions, fmt.Sprintf("nationality = $%d", len(args)))
	}

	query := `SELECT ` + passengerColumns + ` FROM passengers`
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	passengers := []models.Passenger{}
	if err := r.db.SelectContext(ctx, &passengers, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list passengers: %w", err)
	}

	return passengers, nil
}

// Update writes the editable passenger fields
func (r *PassengerRepository) Update(ctx context.Context, p *models.Passenger) error {
	query := `
		UPDATE passengers
		SET title = $2, first_name = $3, last_name = $4, nationality = $5,
			date_of_birth = $6, updated_at = $7
		WHERE id = $1
	`

	result, err := r.db.ExecContext(ctx, query,
		p.ID, p.Title, p.FirstName, p.LastName, p.Nationality, p.DateOfBirth, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update passenger: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.NotFoundError{Resource: "passenger", ID: p.ID}
	}

	return nil
}

// DeleteByBooking removes every passenger of a booking
func (r *PassengerRepository) DeleteByBooking(ctx context.Context, bookingRef string) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM passengers WHERE booking_ref = $1`, bookingRef)
	if err != nil {
		return 0, fmt.Errorf("failed to delete passengers: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rows, nil
}
