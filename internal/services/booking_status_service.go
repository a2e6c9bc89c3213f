package services

import (
	"context"
	"fmt"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/sirupsen/logrus"
)

// BookingStatusMachine applies booking status transitions. The store update
// is guarded on the status read here, so two concurrent transitions from the
// same status cannot both win.
type BookingStatusMachine struct {
	bookings BookingStore
	now      Clock
	logger   *logrus.Logger
}

// NewBookingStatusMachine creates a new status machine
func NewBookingStatusMachine(bookings BookingStore, now Clock, logger *logrus.Logger) *BookingStatusMachine {
	if now == nil {
		now = UTCClock
	}
	return &BookingStatusMachine{bookings: bookings, now: now, logger: logger}
}

// Transition moves booking to status to. Cancellation stamps cancelledAt.
// Disallowed transitions return a TransitionError and change nothing.
func (m *BookingStatusMachine) Transition(ctx context.Context, booking *models.Booking, to models.BookingStatus) (*models.Booking, error) {
	if !to.IsValid() {
		return nil, models.ValidationError{Field: "status", Msg: fmt.Sprintf("invalid booking status %q", to)}
	}

	// The store write is guarded on the status the caller read
	from := booking.Status
	next := *booking
	if err := next.ApplyTransition(to, m.now()); err != nil {
		return nil, err
	}

	updated, err := m.bookings.TransitionStatus(ctx, booking.ID, from, next.Status, next.CancelledAt, next.UpdatedAt)
	if err != nil {
		return nil, err
	}

	m.logger.WithFields(logrus.Fields{
		"booking_id": updated.BookingID,
		"from":       from,
		"to":         to,
	}).Info("Booking status changed")

	return updated, nil
}
