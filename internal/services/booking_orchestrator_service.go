package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// BookingOrchestratorConfig holds configuration for the orchestrator
type BookingOrchestratorConfig struct {
	MaxPassengers int // Passengers per booking (default 10)
	MaxIDAttempts int // Booking and passenger inserts retried with fresh ids on conflict (default 3)
}

// DefaultOrchestratorConfig returns default configuration
func DefaultOrchestratorConfig() BookingOrchestratorConfig {
	return BookingOrchestratorConfig{
		MaxPassengers: 10,
		MaxIDAttempts: 3,
	}
}

// BookingOrchestratorService turns a flight selection into a fare line, a
// booking and its passengers, and answers booking queries
type BookingOrchestratorService struct {
	flights    FlightStore
	fareLines  FareLineStore
	bookings   BookingStore
	passengers PassengerStore
	sequence   *SequenceGenerator
	calculator *FareCalculator
	allocator  *SeatAllocator
	status     *BookingStatusMachine
	audit      *AuditService
	config     BookingOrchestratorConfig
	now        Clock
	logger     *logrus.Logger
}

// NewBookingOrchestratorService creates a new orchestrator service
func NewBookingOrchestratorService(
	flights FlightStore,
	fareLines FareLineStore,
	bookings BookingStore,
	passengers PassengerStore,
	sequence *SequenceGenerator,
	calculator *FareCalculator,
	allocator *SeatAllocator,
	status *BookingStatusMachine,
	audit *AuditService,
	config BookingOrchestratorConfig,
	now Clock,
	logger *logrus.Logger,
) *BookingOrchestratorService {
	if now == nil {
		now = UTCClock
	}
	if config.MaxIDAttempts < 1 {
		config.MaxIDAttempts = 1
	}
	return &BookingOrchestratorService{
		flights:    flights,
		fareLines:  fareLines,
		bookings:   bookings,
		passengers: passengers,
		sequence:   sequence,
		calculator: calculator,
		allocator:  allocator,
		status:     status,
		audit:      audit,
		config:     config,
		now:        now,
		logger:     logger,
	}
}

// ============================================================================
// CREATE BOOKING
// ============================================================================

// CreateBooking prices the selected flights, then persists fare lines, the
// booking and its passengers. The writes are one logical unit: if any step
// fails, or ctx is cancelled between steps, earlier writes are undone in
// reverse order and the error is returned.
func (s *BookingOrchestratorService) CreateBooking(ctx context.Context, req *models.CreateBookingRequest) (*models.BookingDetails, error) {
	// 1. Validate request
	if err := req.Validate(s.config.MaxPassengers); err != nil {
		return nil, err
	}

	now := s.now()
	birthDates := make([]time.Time, len(req.Passengers))
	for i := range req.Passengers {
		dob, err := req.Passengers[i].Validate(i, now)
		if err != nil {
			return nil, err
		}
		birthDates[i] = dob
	}

	// 2. Look up flights before writing anything
	flightRefs := req.FlightRefs()
	flights := make([]models.Flight, 0, len(flightRefs))
	for _, ref := range flightRefs {
		flight, err := s.flights.GetByID(ctx, ref)
		if err != nil {
			return nil, err
		}
		flights = append(flights, *flight)
	}

	saga := newBookingSaga(s.logger, logrus.Fields{
		"flight_refs": flightRefs,
		"passengers":  len(req.Passengers),
	})

	details, err := s.persistBooking(ctx, saga, req, flights, birthDates, now)
	if err != nil {
		saga.compensate(ctx, err)
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"booking_id":   details.Booking.BookingID,
		"user_id":      details.Booking.UserID,
		"total_amount": details.Booking.TotalAmount,
		"passengers":   details.Booking.PassengerCount,
	}).Info("Booking created")

	return details, nil
}

func (s *BookingOrchestratorService) persistBooking(
	ctx context.Context,
	saga *bookingSaga,
	req *models.CreateBookingRequest,
	flights []models.Flight,
	birthDates []time.Time,
	now time.Time,
) (*models.BookingDetails, error) {
	passengerCount := len(req.Passengers)

	// 3. Price and persist one fare line per flight
	fareLines := make([]models.FareLine, 0, len(flights))
	var total float64
	for _, flight := range flights {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		line, err := s.calculator.Price(FareInput{
			FlightRef:      flight.ID,
			CabinClass:     req.CabinClass,
			BasePrice:      flight.BasePrice,
			AddOns:         req.AddOns,
			PassengerCount: passengerCount,
		})
		if err != nil {
			return nil, err
		}
		line.ID = uuid.New().String()
		line.CreatedAt = now

		if err := s.fareLines.Create(ctx, line); err != nil {
			return nil, err
		}
		lineID := line.ID
		saga.record("delete fare line", func(ctx context.Context) error {
			return s.fareLines.Delete(ctx, lineID)
		})

		fareLines = append(fareLines, *line)
		total += line.TotalPrice
	}

	// 4. Persist the booking with its seat, gate and terminal allocation
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	booking := &models.Booking{
		ID:             uuid.New().String(),
		UserID:         req.UserID,
		BookingDate:    now,
		TripType:       req.TripType,
		TotalAmount:    models.RoundMoney(total),
		Status:         models.BookingStatusCreated,
		PassengerCount: passengerCount,
		PassengerRefs:  models.UUIDArray{},
		Contact:        req.BookingContact,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	for i := range flights {
		booking.FlightRefs = append(booking.FlightRefs, flights[i].ID)
		booking.FareLineRefs = append(booking.FareLineRefs, fareLines[i].ID)
	}
	if err := s.allocator.AssignMissing(booking); err != nil {
		return nil, err
	}

	if err := s.insertBooking(ctx, booking); err != nil {
		return nil, err
	}
	bookingID := booking.ID
	saga.record("delete booking", func(ctx context.Context) error {
		return s.bookings.Delete(ctx, bookingID)
	})
	saga.fields["booking_id"] = booking.BookingID

	// 5. Persist all passengers as one batch
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	passengers := make([]*models.Passenger, 0, passengerCount)
	for i, in := range req.Passengers {
		passengers = append(passengers, &models.Passenger{
			ID:          uuid.New().String(),
			UserID:      req.UserID,
			BookingRef:  booking.ID,
			Title:       in.Title,
			FirstName:   strings.TrimSpace(in.FirstName),
			LastName:    strings.TrimSpace(in.LastName),
			Nationality: strings.TrimSpace(in.Nationality),
			DateOfBirth: birthDates[i],
			CreatedAt:   now,
			UpdatedAt:   now,
		})
	}

	// Registered before the insert so a store without batch atomicity is still cleaned up
	saga.record("delete passengers", func(ctx context.Context) error {
		_, err := s.passengers.DeleteByBooking(ctx, bookingID)
		return err
	})
	if err := s.insertPassengers(ctx, passengers); err != nil {
		return nil, err
	}

	// 6. Link passengers to the booking
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	refs := make([]string, 0, len(passengers))
	for _, p := range passengers {
		refs = append(refs, p.ID)
	}
	if err := s.bookings.SetPassengers(ctx, booking.ID, refs, now); err != nil {
		return nil, err
	}
	booking.PassengerRefs = refs

	// 7. Return the hydrated booking
	hydrated := make([]models.Passenger, 0, len(passengers))
	for _, p := range passengers {
		hydrated = append(hydrated, *p)
	}

	return &models.BookingDetails{
		Booking:    booking,
		Flights:    flights,
		FareLines:  fareLines,
		Passengers: hydrated,
	}, nil
}

// insertBooking assigns a FLYX id and inserts, drawing a fresh id when the
// store reports a duplicate
func (s *BookingOrchestratorService) insertBooking(ctx context.Context, booking *models.Booking) error {
	var lastErr error
	for attempt := 1; attempt <= s.config.MaxIDAttempts; attempt++ {
		bookingID, err := s.sequence.NextID(ctx, IDKindBooking)
		if err != nil {
			return err
		}
		booking.BookingID = bookingID

		err = s.bookings.Create(ctx, booking)
		if err == nil {
			return nil
		}
		if !models.IsConflict(err) {
			return err
		}

		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"booking_id": bookingID,
			"attempt":    attempt,
		}).Warn("Booking id already taken, retrying with a new id")
	}
	return fmt.Errorf("failed to allocate a unique booking id after %d attempts: %w", s.config.MaxIDAttempts, lastErr)
}

// insertPassengers assigns PAX ids and inserts the batch, redrawing every id
// when the store reports a duplicate
func (s *BookingOrchestratorService) insertPassengers(ctx context.Context, passengers []*models.Passenger) error {
	var lastErr error
	for attempt := 1; attempt <= s.config.MaxIDAttempts; attempt++ {
		for _, p := range passengers {
			passengerID, err := s.sequence.NextID(ctx, IDKindPassenger)
			if err != nil {
				return err
			}
			p.PassengerID = passengerID
		}

		err := s.passengers.InsertMany(ctx, passengers)
		if err == nil {
			return nil
		}
		if !models.IsConflict(err) {
			return err
		}

		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"passenger_count": len(passengers),
			"attempt":         attempt,
		}).Warn("Passenger id already taken, retrying with new ids")
	}
	return fmt.Errorf("failed to allocate unique passenger ids after %d attempts: %w", s.config.MaxIDAttempts, lastErr)
}

// ============================================================================
// QUERIES
// ============================================================================

// GetBooking returns a hydrated booking by UUID or FLYX reference
func (s *BookingOrchestratorService) GetBooking(ctx context.Context, ref string) (*models.BookingDetails, error) {
	booking, err := s.resolveBooking(ctx, ref)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, booking)
}

// GetCurrentBooking returns the user's latest created or confirmed booking
func (s *BookingOrchestratorService) GetCurrentBooking(ctx context.Context, userID string) (*models.BookingDetails, error) {
	booking, err := s.bookings.FindLatestActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return s.hydrate(ctx, booking)
}

// GetBookingHistory returns every booking of the user, newest first
func (s *BookingOrchestratorService) GetBookingHistory(ctx context.Context, userID string) ([]models.Booking, error) {
	return s.bookings.List(ctx, models.BookingFilter{UserID: &userID})
}

// ListBookings returns bookings matching filter, newest first
func (s *BookingOrchestratorService) ListBookings(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	if filter.From != nil && filter.To != nil && filter.From.After(*filter.To) {
		return nil, models.ValidationError{Field: "start_date", Msg: "must not be after end_date"}
	}
	return s.bookings.List(ctx, filter)
}

// SetStatus applies an operator status change and records it in the audit
// log. Confirmation is reserved for the payment flow and is refused here.
func (s *BookingOrchestratorService) SetStatus(ctx context.Context, ref string, status string, meta RequestMeta) (*models.Booking, error) {
	to, err := models.ParseBookingStatus(status)
	if err != nil {
		return nil, err
	}

	booking, err := s.resolveBooking(ctx, ref)
	if err != nil {
		return nil, err
	}

	if to == models.BookingStatusConfirmed {
		return nil, models.TransitionError{Resource: "booking", From: string(booking.Status), To: string(to)}
	}

	from := booking.Status
	updated, err := s.status.Transition(ctx, booking, to)
	if err != nil {
		return nil, err
	}

	if s.audit != nil {
		// The change is committed; an audit failure is logged, not returned
		_ = s.audit.LogBookingStatusChange(ctx, updated, from, meta)
	}
	return updated, nil
}

// resolveBooking accepts either the internal UUID or the FLYX reference
func (s *BookingOrchestratorService) resolveBooking(ctx context.Context, ref string) (*models.Booking, error) {
	return resolveBooking(ctx, s.bookings, ref)
}

func resolveBooking(ctx context.Context, bookings BookingStore, ref string) (*models.Booking, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, idPrefixes[IDKindBooking]+"-") {
		return bookings.GetByBookingID(ctx, ref)
	}
	if _, err := uuid.Parse(ref); err != nil {
		return nil, models.NotFoundError{Resource: "booking", ID: ref}
	}
	return bookings.GetByID(ctx, ref)
}

func (s *BookingOrchestratorService) hydrate(ctx context.Context, booking *models.Booking) (*models.BookingDetails, error) {
	flights, err := s.flights.GetByIDs(ctx, booking.FlightRefs)
	if err != nil {
		return nil, err
	}
	fareLines, err := s.fareLines.GetByIDs(ctx, booking.FareLineRefs)
	if err != nil {
		return nil, err
	}
	passengers, err := s.passengers.GetByIDs(ctx, booking.PassengerRefs)
	if err != nil {
		return nil, err
	}

	return &models.BookingDetails{
		Booking:    booking,
		Flights:    flights,
		FareLines:  fareLines,
		Passengers: passengers,
	}, nil
}
