// Package memory is an in-process implementation of the booking stores.
// It backs DATABASE_DRIVER=memory for local runs and the service tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
)

// Store holds every collection behind one mutex
type Store struct {
	mu         sync.RWMutex
	counters   map[string]int64
	flights    map[string]models.Flight
	fareLines  map[string]models.FareLine
	bookings   map[string]models.Booking
	passengers map[string]models.Passenger
	payments   map[string]models.Payment
	audits     []models.PaymentAudit
	auditLogs  []models.AuditLog
}

// New creates an empty store
func New() *Store {
	return &Store{
		counters:   make(map[string]int64),
		flights:    make(map[string]models.Flight),
		fareLines:  make(map[string]models.FareLine),
		bookings:   make(map[string]models.Booking),
		passengers: make(map[string]models.Passenger),
		payments:   make(map[string]models.Payment),
	}
}

// PingContext always succeeds; it lets the store stand in for a database in health checks
func (s *Store) PingContext(ctx context.Context) error {
	return ctx.Err()
}

// Close is a no-op
func (s *Store) Close() error { return nil }

// Counts reports the number of records per collection
func (s *Store) Counts() map[string]int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return map[string]int{
		"flights":        len(s.flights),
		"fare_lines":     len(s.fareLines),
		"bookings":       len(s.bookings),
		"passengers":     len(s.passengers),
		"payments":       len(s.payments),
		"payment_audits": len(s.audits),
		"audit_logs":     len(s.auditLogs),
	}
}

func (s *Store) Counters() *CounterRepository           { return &CounterRepository{s: s} }
func (s *Store) Flights() *FlightRepository             { return &FlightRepository{s: s} }
func (s *Store) FareLines() *FareLineRepository         { return &FareLineRepository{s: s} }
func (s *Store) Bookings() *BookingRepository           { return &BookingRepository{s: s} }
func (s *Store) Passengers() *PassengerRepository       { return &PassengerRepository{s: s} }
func (s *Store) Payments() *PaymentRepository           { return &PaymentRepository{s: s} }
func (s *Store) PaymentAudits() *PaymentAuditRepository { return &PaymentAuditRepository{s: s} }
func (s *Store) AuditLogs() *AuditLogRepository         { return &AuditLogRepository{s: s} }

// ============================================================================
// COUNTERS
// ============================================================================

type CounterRepository struct{ s *Store }

// Increment bumps and returns the scope's counter under the store lock
func (r *CounterRepository) Increment(ctx context.Context, scopeKey string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.counters[scopeKey]++
	return r.s.counters[scopeKey], nil
}

// ============================================================================
// FLIGHTS
// ============================================================================

type FlightRepository struct{ s *Store }

func (r *FlightRepository) GetByID(ctx context.Context, id string) (*models.Flight, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	flight, ok := r.s.flights[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "flight", ID: id}
	}
	return &flight, nil
}

func (r *FlightRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Flight, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	flights := make([]models.Flight, 0, len(ids))
	for _, id := range ids {
		if flight, ok := r.s.flights[id]; ok {
			flights = append(flights, flight)
		}
	}
	return flights, nil
}

func (r *FlightRepository) Create(ctx context.Context, flight *models.Flight) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.flights[flight.ID]; exists {
		return models.ConflictError{Resource: "flight", Msg: "duplicate identifier"}
	}
	for _, f := range r.s.flights {
		if f.FlightNumber == flight.FlightNumber {
			return models.ConflictError{Resource: "flight", Msg: "duplicate flight number"}
		}
	}
	r.s.flights[flight.ID] = *flight
	return nil
}

// ============================================================================
// FARE LINES
// ============================================================================

type FareLineRepository struct{ s *Store }

func (r *FareLineRepository) Create(ctx context.Context, line *models.FareLine) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.fareLines[line.ID]; exists {
		return models.ConflictError{Resource: "fare_line", Msg: "duplicate identifier"}
	}
	stored := *line
	stored.AddOns = append(models.AddOns(nil), line.AddOns...)
	r.s.fareLines[line.ID] = stored
	return nil
}

func (r *FareLineRepository) GetByIDs(ctx context.Context, ids []string) ([]models.FareLine, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	lines := make([]models.FareLine, 0, len(ids))
	for _, id := range ids {
		if line, ok := r.s.fareLines[id]; ok {
			line.AddOns = append(models.AddOns(nil), line.AddOns...)
			lines = append(lines, line)
		}
	}
	return lines, nil
}

func (r *FareLineRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.fareLines, id)
	return nil
}

func (r *FareLineRepository) DeleteOrphans(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	referenced := make(map[string]bool)
	for _, b := range r.s.bookings {
		for _, ref := range b.FareLineRefs {
			referenced[ref] = true
		}
	}

	var deleted int64
	for id, line := range r.s.fareLines {
		if line.CreatedAt.Before(cutoff) && !referenced[id] {
			delete(r.s.fareLines, id)
			deleted++
		}
	}
	return deleted, nil
}

// ============================================================================
// BOOKINGS
// ============================================================================

type BookingRepository struct{ s *Store }

func copyBooking(b models.Booking) models.Booking {
	b.FlightRefs = append(models.UUIDArray(nil), b.FlightRefs...)
	b.FareLineRefs = append(models.UUIDArray(nil), b.FareLineRefs...)
	b.PassengerRefs = append(models.UUIDArray{}, b.PassengerRefs...)
	b.SeatNumbers = append(models.StringArray(nil), b.SeatNumbers...)
	if b.CancelledAt != nil {
		at := *b.CancelledAt
		b.CancelledAt = &at
	}
	return b
}

func (r *BookingRepository) Create(ctx context.Context, booking *models.Booking) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.bookings[booking.ID]; exists {
		return models.ConflictError{Resource: "booking", Msg: "duplicate identifier"}
	}
	for _, b := range r.s.bookings {
		if b.BookingID == booking.BookingID {
			return models.ConflictError{Resource: "booking", Msg: "duplicate booking id"}
		}
	}
	r.s.bookings[booking.ID] = copyBooking(*booking)
	return nil
}

func (r *BookingRepository) GetByID(ctx context.Context, id string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "booking", ID: id}
	}
	out := copyBooking(b)
	return &out, nil
}

func (r *BookingRepository) GetByBookingID(ctx context.Context, bookingID string) (*models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, b := range r.s.bookings {
		if b.BookingID == bookingID {
			out := copyBooking(b)
			return &out, nil
		}
	}
	return nil, models.NotFoundError{Resource: "booking", ID: bookingID}
}

func (r *BookingRepository) SetPassengers(ctx context.Context, id string, passengerRefs []string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return models.NotFoundError{Resource: "booking", ID: id}
	}
	b.PassengerRefs = append(models.UUIDArray{}, passengerRefs...)
	b.UpdatedAt = at
	r.s.bookings[id] = b
	return nil
}

func (r *BookingRepository) TransitionStatus(ctx context.Context, id string, from, to models.BookingStatus, cancelledAt *time.Time, at time.Time) (*models.Booking, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	b, ok := r.s.bookings[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "booking", ID: id}
	}
	if b.Status != from {
		return nil, models.TransitionError{Resource: "booking", From: string(b.Status), To: string(to)}
	}

	b.Status = to
	b.UpdatedAt = at
	if cancelledAt != nil {
		stamp := *cancelledAt
		b.CancelledAt = &stamp
	}
	r.s.bookings[id] = b

	out := copyBooking(b)
	return &out, nil
}

func (r *BookingRepository) DeleteIncomplete(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	paid := make(map[string]bool)
	for _, p := range r.s.payments {
		paid[p.BookingRef] = true
	}

	incomplete := make(map[string]bool)
	for id, b := range r.s.bookings {
		if b.CreatedAt.Before(cutoff) && b.Status == models.BookingStatusCreated &&
			len(b.PassengerRefs) < b.PassengerCount && !paid[id] {
			incomplete[id] = true
		}
	}
	for id, p := range r.s.passengers {
		if incomplete[p.BookingRef] {
			delete(r.s.passengers, id)
		}
	}
	for id := range incomplete {
		delete(r.s.bookings, id)
	}
	return int64(len(incomplete)), nil
}

func (r *BookingRepository) List(ctx context.Context, filter models.BookingFilter) ([]models.Booking, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	bookings := []models.Booking{}
	for _, b := range r.s.bookings {
		if filter.Status != nil && b.Status != *filter.Status {
			continue
		}
		if filter.From != nil && b.BookingDate.Before(*filter.From) {
			continue
		}
		if filter.To != nil && b.BookingDate.After(*filter.To) {
			continue
		}
		if filter.BookingID != "" && b.BookingID != filter.BookingID {
			continue
		}
		if filter.UserID != nil && (b.UserID == nil || *b.UserID != *filter.UserID) {
			continue
		}
		bookings = append(bookings, copyBooking(b))
	}

	sort.SliceStable(bookings, func(i, j int) bool {
		if bookings[i].BookingDate.Equal(bookings[j].BookingDate) {
			return bookings[i].BookingID > bookings[j].BookingID
		}
		return bookings[i].BookingDate.After(bookings[j].BookingDate)
	})

	return paginate(bookings, filter.Limit, filter.Offset), nil
}

func (r *BookingRepository) FindLatestActiveByUser(ctx context.Context, userID string) (*models.Booking, error) {
	bookings, err := r.List(ctx, models.BookingFilter{UserID: &userID})
	if err != nil {
		return nil, err
	}
	for _, b := range bookings {
		if b.Status.IsActive() {
			return &b, nil
		}
	}
	return nil, models.NotFoundError{Resource: "current booking", ID: userID}
}

func (r *BookingRepository) Delete(ctx context.Context, id string) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	delete(r.s.bookings, id)
	return nil
}

// ============================================================================
// PASSENGERS
// ============================================================================

type PassengerRepository struct{ s *Store }

// InsertMany stores all passengers or none
func (r *PassengerRepository) InsertMany(ctx context.Context, passengers []*models.Passenger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	seen := make(map[string]bool, len(passengers))
	for _, p := range passengers {
		if _, exists := r.s.passengers[p.ID]; exists || seen[p.ID] {
			return models.ConflictError{Resource: "passenger", Msg: "duplicate identifier"}
		}
		seen[p.ID] = true
	}
	for _, p := range passengers {
		r.s.passengers[p.ID] = *p
	}
	return nil
}

func (r *PassengerRepository) GetByID(ctx context.Context, id string) (*models.Passenger, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.passengers[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "passenger", ID: id}
	}
	return &p, nil
}

func (r *PassengerRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Passenger, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	passengers := make([]models.Passenger, 0, len(ids))
	for _, id := range ids {
		if p, ok := r.s.passengers[id]; ok {
			passengers = append(passengers, p)
		}
	}
	return passengers, nil
}

func (r *PassengerRepository) List(ctx context.Context, filter models.PassengerFilter) ([]models.Passenger, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	passengers := []models.Passenger{}
	for _, p := range r.s.passengers {
		if filter.BookingRef != "" && p.BookingRef != filter.BookingRef {
			continue
		}
		if filter.PassengerID != "" && p.PassengerID != filter.PassengerID {
			continue
		}
		if filter.Nationality != "" && p.Nationality != filter.Nationality {
			continue
		}
		passengers = append(passengers, p)
	}

	sort.SliceStable(passengers, func(i, j int) bool {
		if passengers[i].CreatedAt.Equal(passengers[j].CreatedAt) {
			return passengers[i].PassengerID > passengers[j].PassengerID
		}
		return passengers[i].CreatedAt.After(passengers[j].CreatedAt)
	})

	return paginate(passengers, filter.Limit, filter.Offset), nil
}

func (r *PassengerRepository) Update(ctx context.Context, p *models.Passenger) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	current, ok := r.s.passengers[p.ID]
	if !ok {
		return models.NotFoundError{Resource: "passenger", ID: p.ID}
	}
	current.Title = p.Title
	current.FirstName = p.FirstName
	current.LastName = p.LastName
	current.Nationality = p.Nationality
	current.DateOfBirth = p.DateOfBirth
	current.UpdatedAt = p.UpdatedAt
	r.s.passengers[p.ID] = current
	return nil
}

func (r *PassengerRepository) DeleteByBooking(ctx context.Context, bookingRef string) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	var deleted int64
	for id, p := range r.s.passengers {
		if p.BookingRef == bookingRef {
			delete(r.s.passengers, id)
			deleted++
		}
	}
	return deleted, nil
}

// ============================================================================
// PAYMENTS
// ============================================================================

type PaymentRepository struct{ s *Store }

func (r *PaymentRepository) Create(ctx context.Context, payment *models.Payment) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, exists := r.s.payments[payment.ID]; exists {
		return models.ConflictError{Resource: "payment", Msg: "duplicate identifier"}
	}
	r.s.payments[payment.ID] = *payment
	return nil
}

func (r *PaymentRepository) GetByID(ctx context.Context, id string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "payment", ID: id}
	}
	return &p, nil
}

func (r *PaymentRepository) GetByPaymentID(ctx context.Context, paymentID string) (*models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	for _, p := range r.s.payments {
		if p.PaymentID == paymentID {
			return &p, nil
		}
	}
	return nil, models.NotFoundError{Resource: "payment", ID: paymentID}
}

func (r *PaymentRepository) List(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	payments := []models.Payment{}
	for _, p := range r.s.payments {
		if filter.Status != nil && p.Status != *filter.Status {
			continue
		}
		if filter.BookingRef != "" && p.BookingRef != filter.BookingRef {
			continue
		}
		payments = append(payments, p)
	}

	sort.SliceStable(payments, func(i, j int) bool {
		if payments[i].CreatedAt.Equal(payments[j].CreatedAt) {
			return payments[i].PaymentID > payments[j].PaymentID
		}
		return payments[i].CreatedAt.After(payments[j].CreatedAt)
	})

	return paginate(payments, filter.Limit, filter.Offset), nil
}

func (r *PaymentRepository) UpdateStatus(ctx context.Context, id string, from, to models.PaymentStatus, reason *string, at time.Time) (*models.Payment, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	p, ok := r.s.payments[id]
	if !ok {
		return nil, models.NotFoundError{Resource: "payment", ID: id}
	}
	if p.Status != from {
		return nil, models.TransitionError{Resource: "payment", From: string(p.Status), To: string(to)}
	}
	p.Status = to
	p.UpdatedAt = at
	if reason != nil {
		p.FailureReason = reason
	}
	r.s.payments[id] = p
	return &p, nil
}

// ============================================================================
// AUDIT
// ============================================================================

type PaymentAuditRepository struct{ s *Store }

func (r *PaymentAuditRepository) Log(ctx context.Context, audit *models.PaymentAudit) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.audits = append(r.s.audits, *audit)
	return nil
}

func (r *PaymentAuditRepository) ListByBooking(ctx context.Context, bookingRef string) ([]models.PaymentAudit, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	audits := []models.PaymentAudit{}
	for _, a := range r.s.audits {
		if a.BookingRef != nil && *a.BookingRef == bookingRef {
			audits = append(audits, a)
		}
	}
	return audits, nil
}

type AuditLogRepository struct{ s *Store }

func (r *AuditLogRepository) Insert(ctx context.Context, entry *models.AuditLog) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	r.s.auditLogs = append(r.s.auditLogs, *entry)
	return nil
}

func (r *AuditLogRepository) ListByEntity(ctx context.Context, entityType, entityID string, limit int) ([]models.AuditLog, error) {
	r.s.mu.RLock()
	defer r.s.mu.RUnlock()

	entries := []models.AuditLog{}
	for i := len(r.s.auditLogs) - 1; i >= 0 && (limit <= 0 || len(entries) < limit); i-- {
		e := r.s.auditLogs[i]
		if e.EntityType == entityType && e.EntityID != nil && *e.EntityID == entityID {
			entries = append(entries, e)
		}
	}
	return entries, nil
}

func (r *AuditLogRepository) DeleteOlderThan(ctx context.Context, cutoff time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	kept := r.s.auditLogs[:0]
	var deleted int64
	for _, e := range r.s.auditLogs {
		if e.CreatedAt.Before(cutoff) {
			deleted++
			continue
		}
		kept = append(kept, e)
	}
	r.s.auditLogs = kept
	return deleted, nil
}

func paginate[T any](items []T, limit, offset int) []T {
	if offset > 0 {
		if offset >= len(items) {
			return []T{}
		}
		items = items[offset:]
	}
	if limit > 0 && limit < len(items) {
		items = items[:limit]
	}
	return items
}
