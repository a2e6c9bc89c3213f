package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const bookingColumns = `id, booking_id, user_id, flight_refs, fare_line_refs, passenger_refs,
	booking_date, trip_type, total_amount, status, passenger_count, booking_contact,
	seat_numbers, departure_gate, departure_terminal, arrival_gate, arrival_terminal,
	cancelled_at, created_at, updated_at`

// BookingRepository handles booking persistence
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository creates a new booking repository
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create inserts a new booking. A duplicate booking_id surfaces as a ConflictError.
func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	query := `
		INSERT INTO bookings (` + bookingColumns + `)
		VALUES (:id, :booking_id, :user_id, :flight_refs, :fare_line_refs, :passenger_refs,
			:booking_date, :trip_type, :total_amount, :status, :passenger_count, :booking_contact,
			:seat_numbers, :departure_gate, :departure_terminal, :arrival_gate, :arrival_terminal,
			:cancelled_at, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, booking); err != nil {
		return fmt.Errorf("failed to create booking: %w", mapWriteError("booking", err))
	}

	return nil
}

// GetByID retrieves a booking by its UUID
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`

	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, id); err != nil {
		return nil, mapReadError("booking", id, err)
	}

	return &booking, nil
}

// GetByBookingID retrieves a booking by its FLYX reference
func (r *BookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE booking_id = $1`

	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, bookingID); err != nil {
		return nil, mapReadError("booking", bookingID, err)
	}

	return &booking, nil
}

// SetPassengers records the passengers attached to a booking
func (r *BookingRepository) SetPassengers(ctx context.Context, id string, passengerRefs []string, at time.Time) error {
	query := `UPDATE bookings SET passenger_refs = $2, updated_at = $3 WHERE id = $1`

	result, err := r.db.ExecContext(ctx, query, id, models.UUIDArray(passengerRefs), at)
	if err != nil {
		return fmt.Errorf("failed to set booking passengers: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return models.NotFoundError{Resource: "booking", ID: id}
	}

	return nil
}

// TransitionStatus moves a booking from one status to another only if it is
// still in from. cancelledAt is written when non-nil. When the guard fails
// the booking is re-read to tell a missing row from a concurrent change.
func (r *BookingRepository) TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus, cancelledAt *time.Time, at time.Time) (*models.Booking, error) {
	query := `
		UPDATE bookings
		SET status = $3, cancelled_at = COALESCE($4, cancelled_at), updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING ` + bookingColumns

	var booking models.Booking
	err := r.db.QueryRowxContext(ctx, query, id, from, to, cancelledAt, at).StructScan(&booking)
	if err == nil {
		return &booking, nil
	}

	if err := mapReadError("booking", id, err); !models.IsNotFound(err) {
		return nil, fmt.Errorf("failed to update booking status: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return nil, models.TransitionError{Resource: "booking", From: string(current.Status), To: string(to)}
}

// List returns bookings matching filter, newest first
func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	where, args := bookingFilterClause(filter)

	query := `SELECT ` + bookingColumns + ` FROM bookings` + where + ` ORDER BY booking_date DESC, created_at DESC`
	if filter.Limit > 0 {
		args = append(args, filter.Limit)
		query += fmt.Sprintf(" LIMIT $%d", len(args))
	}
	if filter.Offset > 0 {
		args = append(args, filter.Offset)
		query += fmt.Sprintf(" OFFSET $%d", len(args))
	}

	bookings := []models.Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list bookings: %w", err)
	}

	return bookings, nil
}

func bookingFilterClause(filter models.BookingFilter) (string, []interface{}) {
	var (
		conditions []string
		args       []interface{}
	)

	add := func(cond string, arg interface{}) {
		args = append(args, arg)
		conditions = append(conditions, fmt.Sprintf(cond, len(args)))
	}

	if filter.Status != nil {
		add("status = $%d", *filter.Status)
	}
	if filter.From != nil {
		add("booking_date >= $%d", *filter.From)
	}
	if filter.To != nil {
		add("booking_date <= $%d", *filter.To)
	}
	if filter.BookingID != "" {
		add("booking_id = $%d", filter.BookingID)
	}
	if filter.UserID != nil {
		add("user_id = $%d", *filter.UserID)
	}

	if len(conditions) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conditions, " AND "), args
}

// FindLatestActiveByUser returns the user's most recent created or confirmed booking
func (r *BookingRepository) FindLatestActiveByUser(ctx context.Context, userID string) (*models.Booking, error) {
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE user_id = $1 AND status IN ('created', 'confirmed')
		ORDER BY booking_date DESC
		LIMIT 1
	`

	var booking models.Booking
	if err := r.db.GetContext(ctx, &booking, query, userID); err != nil {
		return nil, mapReadError("current booking", userID, err)
	}

	return &booking, nil
}

// Delete removes a booking. Only the orchestrator calls this, to undo a
// partially created booking.
func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM bookings WHERE id = $1`, id); err != nil {
		return fmt.Errorf("failed to delete booking: %w", err)
	}
	return nil
}

// DeleteIncomplete removes unpaid bookings created before cutoff that hold
// fewer passenger refs than their passenger count, together with their
// passengers, and returns how many bookings were removed
func (r *BookingRepository) DeleteIncomplete(ctx context.Context, cutoff time.Time) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	query := `
		SELECT b.id FROM bookings b
		WHERE b.created_at < $1
		AND b.status = 'created'
		AND cardinality(b.passenger_refs) < b.passenger_count
		AND NOT EXISTS (SELECT 1 FROM payments p WHERE p.booking_ref = b.id)
		FOR UPDATE
	`

	var ids []string
	if err := tx.SelectContext(ctx, &ids, query, cutoff); err != nil {
		return 0, fmt.Errorf("failed to find incomplete bookings: %w", err)
	}
	if len(ids) == 0 {
		return 0, tx.Commit()
	}

	if _, err := tx.ExecContext(ctx, `DELETE FROM passengers WHERE booking_ref = ANY($1)`, pq.Array(ids)); err != nil {
		return 0, fmt.Errorf("failed to delete passengers of incomplete bookings: %w", err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM bookings WHERE id = ANY($1)`, pq.Array(ids))
	if err != nil {
		return 0, fmt.Errorf("failed to delete incomplete bookings: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit incomplete booking sweep: %w", err)
	}

	return rows, nil
}
