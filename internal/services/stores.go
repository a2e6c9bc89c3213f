package services

import (
	"context"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
)

// The service layer depends on these narrow store contracts. Both the SQL
// repositories in internal/database and the in-process store in
// internal/database/memory satisfy them.

type CounterStore interface {
	Increment(ctx context.Context, scopeKey string) (int64, error)
}

type FlightStore interface {
	GetByID(ctx context.Context, id string) (*models.Flight, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Flight, error)
	Create(ctx context.Context, flight *models.Flight) error
}

type FareLineStore interface {
	Create(ctx context.Context, line *models.FareLine) error
	GetByIDs(ctx context.Context, ids []string) ([]models.FareLine, error)
	Delete(ctx context.Context, id string) error
	DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error)
}

type BookingStore interface {
	Create(ctx context.Context, booking *models.Booking) error
	GetByID(ctx context.Context, id string) (*models.Booking, error)
	GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error)
	SetPassengers(ctx context.Context, id string, passengerRefs []string, at time.Time) error
	TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus, cancelledAt *time.Time, at time.Time) (*models.Booking, error)
	List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error)
	FindLatestActiveByUser(ctx context.Context, userID string) (*models.Booking, error)
	Delete(ctx context.Context, id string) error
	DeleteIncomplete(ctx context.Context, cutoff time.Time) (int64, error)
}

type PassengerStore interface {
	InsertMany(ctx context.Context, passengers []*models.Passenger) error
	GetByID(ctx context.Context, id string) (*models.Passenger, error)
	GetByIDs(ctx context.Context, ids []string) ([]models.Passenger, error)
	List(ctx context.Context, filter models.PassengerFilter) ([]models.Passenger, error)
	Update(ctx context.Context, p *models.Passenger) error
	DeleteByBooking(ctx context.Context, bookingRef string) (int64, error)
}

type PaymentStore interface {
	Create(ctx context.Context, payment *models.Payment) error
	GetByID(ctx context.Context, id string) (*models.Payment, error)
	GetByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error)
	List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error)
	UpdateStatus(ctx context.Context, id string, from, to models.PaymentStatus, reason *string, at time.Time) (*models.Payment, error)
}

type PaymentAuditStore interface {
	Log(ctx context.Context, audit *models.PaymentAudit) error
	ListByBooking(ctx context.Context, bookingRef string) ([]models.PaymentAudit, error)
}

type AuditLogStore interface {
	Insert(ctx context.Context, entry *models.AuditLog) error
	ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error)
	DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error)
}

// Clock returns the current time. Services take one so tests can pin dates.
type Clock func() time.Time

// UTCClock is the production clock
func UTCClock() time.Time {
	return time.Now().UTC()
}
