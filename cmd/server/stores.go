package main

import (
	"context"
	"fmt"
	"time"

	"github.com/flyx/flyx-backend/internal/config"
	"github.com/flyx/flyx-backend/internal/database"
	"github.com/flyx/flyx-backend/internal/database/memory"
	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// storeSet is the persistence backing every service
type storeSet struct {
	counters      services.CounterStore
	flights       services.FlightStore
	fareLines     services.FareLineStore
	bookings      services.BookingStore
	passengers    services.PassengerStore
	payments      services.PaymentStore
	paymentAudits services.PaymentAuditStore
	auditLogs     services.AuditLogStore

	ping  func(ctx context.Context) error
	close func() error
}

// openStores connects the configured driver and runs migrations when enabled
func openStores(ctx context.Context, cfg config.DatabaseConfig, logger *logrus.Logger) (*storeSet, error) {
	if cfg.Driver == config.DriverMemory {
		logger.Warn("Using in-memory store, data is lost on restart")
		store := memory.New()
		return &storeSet{
			counters:      store.Counters(),
			flights:       store.Flights(),
			fareLines:     store.FareLines(),
			bookings:      store.Bookings(),
			passengers:    store.Passengers(),
			payments:      store.Payments(),
			paymentAudits: store.PaymentAudits(),
			auditLogs:     store.AuditLogs(),
			ping:          store.PingContext,
			close:         store.Close,
		}, nil
	}

	db, err := database.NewConnection(cfg, logger)
	if err != nil {
		return nil, err
	}

	if cfg.AutoMigrate {
		logger.Info("Running database migrations...")
		if err := database.Migrate(ctx, db.DB); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to migrate database: %w", err)
		}
	}

	return &storeSet{
		counters:      database.NewCounterRepository(db.DB),
		flights:       database.NewFlightRepository(db.DB),
		fareLines:     database.NewFareLineRepository(db.DB),
		bookings:      database.NewBookingRepository(db.DB),
		passengers:    database.NewPassengerRepository(db.DB),
		payments:      database.NewPaymentRepository(db.DB),
		paymentAudits: database.NewPaymentAuditRepository(db.DB, logger),
		auditLogs:     database.NewAuditLogRepository(db.DB),
		ping:          db.PingContext,
		close:         db.Close,
	}, nil
}

type demoRoute struct {
	airline     string
	origin      string
	destination string
	departIn    time.Duration
	duration    time.Duration
	basePrice   float64
}

var demoRoutes = []demoRoute{
	{"Flyx Air", "MNL", "CEB", 24 * time.Hour, 80 * time.Minute, 2450},
	{"Flyx Air", "CEB", "MNL", 72 * time.Hour, 80 * time.Minute, 2450},
	{"Flyx Air", "MNL", "DVO", 48 * time.Hour, 110 * time.Minute, 3180},
	{"Flyx Air", "MNL", "SIN", 96 * time.Hour, 3*time.Hour + 35*time.Minute, 8900},
}

// seedDemoFlights gives an empty in-memory store something to book
func seedDemoFlights(ctx context.Context, flights services.FlightStore, sequence *services.SequenceGenerator, currency string, logger *logrus.Logger) error {
	now := services.UTCClock().Truncate(time.Hour)

	for _, route := range demoRoutes {
		number, err := sequence.NextID(ctx, services.IDKindFlight)
		if err != nil {
			return err
		}

		departure := now.Add(route.departIn)
		flight := &models.Flight{
			ID:            uuid.New().String(),
			FlightNumber:  number,
			Airline:       route.airline,
			Origin:        route.origin,
			Destination:   route.destination,
			DepartureTime: departure,
			ArrivalTime:   departure.Add(route.duration),
			BasePrice:     route.basePrice,
			Currency:      currency,
			CreatedAt:     now,
		}
		if err := flights.Create(ctx, flight); err != nil {
			return fmt.Errorf("failed to seed flight %s: %w", number, err)
		}

		logger.WithFields(logrus.Fields{
			"flight_id":     flight.ID,
			"flight_number": number,
			"route":         route.origin + "-" + route.destination,
		}).Info("Seeded demo flight")
	}
	return nil
}
