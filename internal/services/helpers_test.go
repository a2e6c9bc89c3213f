package services

import (
	"context"
	"errors"
	"io"
	"math/rand"
	"testing"
	"time"

	"github.com/flyx/flyx-backend/internal/database/memory"
	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/pkg/validator"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

var errInjected = errors.New("injected failure")

func newTestLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

// testEnv wires every service against one in-memory store
type testEnv struct {
	store        *memory.Store
	sequence     *SequenceGenerator
	status       *BookingStatusMachine
	orchestrator *BookingOrchestratorService
	payments     *PaymentService
	passengers   *PassengerService
	audit        *AuditService
	logger       *logrus.Logger
}

type envOption func(*envStores)

type envStores struct {
	fareLines  FareLineStore
	bookings   BookingStore
	passengers PassengerStore
	payments   PaymentStore
	outcome    OutcomeSource
}

func withFareLines(f func(FareLineStore) FareLineStore) envOption {
	return func(s *envStores) { s.fareLines = f(s.fareLines) }
}

func withBookings(f func(BookingStore) BookingStore) envOption {
	return func(s *envStores) { s.bookings = f(s.bookings) }
}

func withPassengers(f func(PassengerStore) PassengerStore) envOption {
	return func(s *envStores) { s.passengers = f(s.passengers) }
}

func withPayments(f func(PaymentStore) PaymentStore) envOption {
	return func(s *envStores) { s.payments = f(s.payments) }
}

func withOutcome(o OutcomeSource) envOption {
	return func(s *envStores) { s.outcome = o }
}

func newTestEnv(t *testing.T, opts ...envOption) *testEnv {
	t.Helper()

	store := memory.New()
	logger := newTestLogger()

	stores := &envStores{
		fareLines:  store.FareLines(),
		bookings:   store.Bookings(),
		passengers: store.Passengers(),
		payments:   store.Payments(),
		outcome:    FixedOutcome(true),
	}
	for _, opt := range opts {
		opt(stores)
	}

	sequence := NewSequenceGenerator(store.Counters(), fixedClock)
	status := NewBookingStatusMachine(stores.bookings, fixedClock, logger)
	cards := validator.NewCardValidatorWithClock(fixedClock)
	evaluator := NewPaymentEvaluator(cards, stores.outcome, 0)
	audit := NewAuditService(store.AuditLogs(), true, fixedClock, logger)

	return &testEnv{
		store:    store,
		sequence: sequence,
		status:   status,
		orchestrator: NewBookingOrchestratorService(
			store.Flights(),
			stores.fareLines,
			stores.bookings,
			stores.passengers,
			sequence,
			NewFareCalculator(),
			NewSeatAllocatorWithSource(rand.NewSource(42)),
			status,
			audit,
			DefaultOrchestratorConfig(),
			fixedClock,
			logger,
		),
		payments: NewPaymentService(
			stores.payments,
			stores.bookings,
			store.PaymentAudits(),
			sequence,
			evaluator,
			status,
			"PHP",
			fixedClock,
			logger,
		),
		passengers: NewPassengerService(store.Passengers(), fixedClock, logger),
		audit:      audit,
		logger:     logger,
	}
}

// addFlight stores a flight with the given base price and returns its id
func (e *testEnv) addFlight(t *testing.T, basePrice float64) string {
	t.Helper()

	number, err := e.sequence.NextID(context.Background(), IDKindFlight)
	require.NoError(t, err)

	flight := &models.Flight{
		ID:            uuid.New().String(),
		FlightNumber:  number,
		Airline:       "Flyx Air",
		Origin:        "MNL",
		Destination:   "CEB",
		DepartureTime: testNow.Add(48 * time.Hour),
		ArrivalTime:   testNow.Add(49*time.Hour + 20*time.Minute),
		BasePrice:     basePrice,
		Currency:      "PHP",
		CreatedAt:     testNow,
	}
	require.NoError(t, e.store.Flights().Create(context.Background(), flight))
	return flight.ID
}

func testPassengers(n int) []models.PassengerInput {
	names := []string{"Juan", "Ana", "Jose", "Maria", "Luis"}
	out := make([]models.PassengerInput, 0, n)
	for i := 0; i < n; i++ {
		out = append(out, models.PassengerInput{
			Title:       models.TitleMr,
			FirstName:   names[i%len(names)],
			LastName:    "Dela Cruz",
			Nationality: "PH",
			DateOfBirth: "1990-05-17",
		})
	}
	return out
}

func testContact() models.BookingContact {
	return models.BookingContact{
		Title:     models.TitleMs,
		FirstName: "Ana",
		LastName:  "Dela Cruz",
		Phone:     "+639171234567",
		Email:     " Ana.DelaCruz@Example.com ",
	}
}

func oneWayRequest(flightRef string, cabin models.CabinClass, passengers int, addOns ...models.AddOnKind) *models.CreateBookingRequest {
	return &models.CreateBookingRequest{
		FlightRef:      flightRef,
		CabinClass:     cabin,
		AddOns:         addOns,
		TripType:       models.TripOneWay,
		Passengers:     testPassengers(passengers),
		BookingContact: testContact(),
	}
}

func validCharge(bookingID string, amount float64) *models.ChargeRequest {
	return &models.ChargeRequest{
		BookingID: bookingID,
		Amount:    amount,
		Card: models.CardDetails{
			Number: "4532 0151 1283 0366",
			CVV:    "123",
			Expiry: "12/30",
		},
		BillingInfo: models.BillingInfo{
			FirstName:     "Ana",
			LastName:      "Dela Cruz",
			StreetAddress: "1 Ayala Ave",
			City:          "Makati",
			Country:       "PH",
			ContactNumber: "+639171234567",
			Email:         "ana@example.com",
		},
	}
}

// Failure-injecting store wrappers

type failingPassengerStore struct {
	PassengerStore
}

func (s failingPassengerStore) InsertMany(ctx context.Context, passengers []*models.Passenger) error {
	return errInjected
}

type failingLinkStore struct {
	BookingStore
}

func (s failingLinkStore) SetPassengers(ctx context.Context, id string, refs []string, at time.Time) error {
	return errInjected
}

// conflictingBookingStore rejects the first n creates as duplicates
type conflictingBookingStore struct {
	BookingStore
	remaining int
}

func (s *conflictingBookingStore) Create(ctx context.Context, booking *models.Booking) error {
	if s.remaining > 0 {
		s.remaining--
		return models.ConflictError{Resource: "booking", Msg: "duplicate booking id"}
	}
	return s.BookingStore.Create(ctx, booking)
}

// conflictingPassengerStore rejects the first n batches as duplicates
type conflictingPassengerStore struct {
	PassengerStore
	remaining int
}

func (s *conflictingPassengerStore) InsertMany(ctx context.Context, passengers []*models.Passenger) error {
	if s.remaining > 0 {
		s.remaining--
		return models.ConflictError{Resource: "passenger", Msg: "duplicate passenger id"}
	}
	return s.PassengerStore.InsertMany(ctx, passengers)
}

// conflictingPaymentStore rejects the first n creates as duplicates
type conflictingPaymentStore struct {
	PaymentStore
	remaining int
}

func (s *conflictingPaymentStore) Create(ctx context.Context, payment *models.Payment) error {
	if s.remaining > 0 {
		s.remaining--
		return models.ConflictError{Resource: "payment", Msg: "duplicate payment id"}
	}
	return s.PaymentStore.Create(ctx, payment)
}

// cancellingFareLineStore cancels the request once the first fare line is written
type cancellingFareLineStore struct {
	FareLineStore
	cancel context.CancelFunc
}

func (s cancellingFareLineStore) Create(ctx context.Context, line *models.FareLine) error {
	if err := s.FareLineStore.Create(ctx, line); err != nil {
		return err
	}
	s.cancel()
	return nil
}
