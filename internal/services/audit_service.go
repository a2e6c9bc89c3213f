package services

import (
	"context"
	"fmt"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/utils"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Audit actions
const (
	AuditActionBookingStatusChange = "booking_status_change"
	AuditActionPassengerUpdate     = "passenger_update"
)

// AuditService records operator actions in audit_logs
type AuditService struct {
	logs    AuditLogStore
	enabled bool
	now     Clock
	logger  *logrus.Logger
}

// NewAuditService creates a new audit service. A disabled service drops events.
func NewAuditService(logs AuditLogStore, enabled bool, now Clock, logger *logrus.Logger) *AuditService {
	if now == nil {
		now = UTCClock
	}
	return &AuditService{logs: logs, enabled: enabled, now: now, logger: logger}
}

// AuditEvent represents an operator action to be logged
type AuditEvent struct {
	UserID     *string                // Acting operator, nil for system jobs
	Action     string                 // e.g. "booking_status_change"
	EntityType string                 // e.g. "booking", "passenger"
	EntityID   *string                // ID of the affected entity
	IPAddress  string
	UserAgent  string
	Details    map[string]interface{} // Stored as JSONB
}

// LogBookingStatusChange logs an admin booking status change
func (s *AuditService) LogBookingStatusChange(ctx context.Context, booking *models.Booking, from models.BookingStatus, meta RequestMeta) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     meta.ActorID,
		Action:     AuditActionBookingStatusChange,
		EntityType: "booking",
		EntityID:   &booking.ID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		Details: map[string]interface{}{
			"booking_id":  booking.BookingID,
			"from":        string(from),
			"to":          string(booking.Status),
			"device_info": utils.ParseUserAgent(meta.UserAgent),
		},
	})
}

// LogPassengerUpdate logs an admin passenger edit
func (s *AuditService) LogPassengerUpdate(ctx context.Context, passenger *models.Passenger, meta RequestMeta) error {
	return s.logEvent(ctx, AuditEvent{
		UserID:     meta.ActorID,
		Action:     AuditActionPassengerUpdate,
		EntityType: "passenger",
		EntityID:   &passenger.ID,
		IPAddress:  meta.IPAddress,
		UserAgent:  meta.UserAgent,
		Details: map[string]interface{}{
			"passenger_id": passenger.PassengerID,
			"booking_ref":  passenger.BookingRef,
			"device_info":  utils.ParseUserAgent(meta.UserAgent),
		},
	})
}

// GetEntityHistory returns the most recent audit entries for an entity
func (s *AuditService) GetEntityHistory(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	if limit <= 0 {
		limit = 50
	}
	return s.logs.ListByEntity(ctx, entityType, entityID, limit)
}

// CleanupOldAuditLogs removes audit logs older than the specified duration
func (s *AuditService) CleanupOldAuditLogs(ctx context.Context, olderThan time.Duration) (int64, error) {
	removed, err := s.logs.DeleteOlderThan(ctx, s.now().Add(-olderThan))
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup old audit logs: %w", err)
	}
	return removed, nil
}

func (s *AuditService) logEvent(ctx context.Context, event AuditEvent) error {
	if !s.enabled {
		return nil
	}

	entry := &models.AuditLog{
		ID:         uuid.New().String(),
		UserID:     event.UserID,
		Action:     event.Action,
		EntityType: event.EntityType,
		EntityID:   event.EntityID,
		IPAddress:  event.IPAddress,
		UserAgent:  event.UserAgent,
		Details:    models.JSONB(event.Details),
		CreatedAt:  s.now(),
	}

	if err := s.logs.Insert(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("action", event.Action).Warn("Failed to write audit log")
		return fmt.Errorf("failed to log audit event: %w", err)
	}
	return nil
}
