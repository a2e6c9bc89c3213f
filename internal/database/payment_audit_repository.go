package database

import (
	"context"
	"fmt"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

const paymentAuditColumns = `id, booking_ref, payment_ref, event_type, event_source,
	expected_amount, received_amount, currency, amounts_match, payment_status, details,
	error_message, error_code, processing_time_ms, ip_address, user_agent, correlation_id,
	created_at`

// PaymentAuditRepository handles payment audit operations
type PaymentAuditRepository struct {
	db     *sqlx.DB
	logger *logrus.Logger
}

// NewPaymentAuditRepository creates a new payment audit repository
func NewPaymentAuditRepository(db *sqlx.DB, logger *logrus.Logger) *PaymentAuditRepository {
	return &PaymentAuditRepository{
		db:     db,
		logger: logger,
	}
}

// Log creates a new payment audit entry
func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	if audit == nil {
		return fmt.Errorf("audit entry cannot be nil")
	}

	// Ensure ID and timestamp are set
	if audit.ID == "" {
		audit.ID = uuid.New().String()
	}
	if audit.CreatedAt.IsZero() {
		audit.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO payment_audits (` + paymentAuditColumns + `)
		VALUES (:id, :booking_ref, :payment_ref, :event_type, :event_source,
			:expected_amount, :received_amount, :currency, :amounts_match, :payment_status, :details,
			:error_message, :error_code, :processing_time_ms, :ip_address, :user_agent, :correlation_id,
			:created_at)
	`

	if _, err := r.db.NamedExecContext(ctx, query, audit); err != nil {
		r.logger.WithError(err).WithFields(logrus.Fields{
			"event_type":  audit.EventType,
			"booking_ref": audit.BookingRef,
		}).Error("Failed to log payment audit")
		return fmt.Errorf("failed to log payment audit: %w", err)
	}

	r.logger.WithFields(logrus.Fields{
		"audit_id":   audit.ID,
		"event_type": audit.EventType,
	}).Debug("Payment audit logged")

	return nil
}

// ListByBooking returns a booking's payment events in the order they happened
func (r *PaymentAuditRepository) ListByBooking(ctx context.Context, bookingRef string) ([]models.PaymentAudit, error) {
	query := `SELECT ` + paymentAuditColumns + ` FROM payment_audits WHERE booking_ref = $1 ORDER BY created_at ASC`

	audits := []models.PaymentAudit{}
	if err := r.db.SelectContext(ctx, &audits, query, bookingRef); err != nil {
		return nil, fmt.Errorf("failed to list payment audits: %w", err)
	}

	return audits, nil
}
