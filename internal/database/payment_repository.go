package database

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/jmoiron/sqlx"
)

const paymentColumns = `id, payment_id, booking_ref, amount, currency, method, status,
	billing_info, card_info, failure_reason, created_at, updated_at`

// PaymentRepository handles payment persistence. Each charge attempt is its own row.
type PaymentRepository struct {
	db *sqlx.DB
}

// NewPaymentRepository creates a new payment repository
func NewPaymentRepository(db *sqlx.DB) *PaymentRepository {
	return &PaymentRepository{db: db}
}

// Create inserts a payment record
func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	query := `
		INSERT INTO payments (` + paymentColumns + `)
		VALUES (:id, :payment_id, :booking_ref, :amount, :currency, :method, :status,
			:billing_info, :card_info, :failure_reason, :created_at, :updated_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, payment); err != nil {
		return fmt.Errorf("failed to create payment: %w", mapWriteError("payment", err))
	}

	return nil
}

// GetByID retrieves a payment by UUID
func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE id = $1`

	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, id); err != nil {
		return nil, mapReadError("payment", id, err)
	}

	return &payment, nil
}

// GetByPaymentID retrieves a payment by its PAY reference
func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE payment_id = $1`

	var payment models.Payment
	if err := r.db.GetContext(ctx, &payment, query, paymentID); err != nil {
		return nil, mapReadError("payment", paymentID, err)
	}

	return &payment, nil
}

// List returns payments matching filter, newest first
func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	var (
		conditions []string
		args       []interface{}
	)

	if filter.Status != nil {
		args = append(args, *filter.Status)
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)))
	}
	if filter.BookingRef != "" {
		args = append(args, filter.BookingRef)
		conditions = append(conditions, fmt.Sprintf("booking_ref = $%d", len(args)))
	}

	query := `SELECT ` + paymentColumns + ` FROM payments`
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

	payments := []models.Payment{}
	if err := r.db.SelectContext(ctx, &payments, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list payments: %w", err)
	}

	return payments, nil
}

// UpdateStatus moves a payment from one status to another only if it is still in from
func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, from, to models.PaymentStatus, reason *string, at time.Time) (*models.Payment, error) {
	query := `
		UPDATE payments
		SET status = $3, failure_reason = COALESCE($4, failure_reason), updated_at = $5
		WHERE id = $1 AND status = $2
		RETURNING ` + paymentColumns

	var payment models.Payment
	err := r.db.QueryRowxContext(ctx, query, id, from, to, reason, at).StructScan(&payment)
	if err == nil {
		return &payment, nil
	}

	if err := mapReadError("payment", id, err); !models.IsNotFound(err) {
		return nil, fmt.Errorf("failed to update payment status: %w", err)
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	return nil, models.TransitionError{Resource: "payment", From: string(current.Status), To: string(to)}
}
