package models

import (
	"database/sql/driver"
	"fmt"
	"net/mail"
	"strings"
	"time"
)

// BookingStatus represents the lifecycle status of a booking
type BookingStatus string

const (
	BookingStatusCreated   BookingStatus = "created"
	BookingStatusConfirmed BookingStatus = "confirmed"
	BookingStatusCancelled BookingStatus = "cancelled"
	BookingStatusCompleted BookingStatus = "completed"
)

// validTransitions is the booking state machine. created→confirmed is only
// driven by a successful payment.
var validTransitions = map[BookingStatus][]BookingStatus{
	BookingStatusCreated:   {BookingStatusConfirmed, BookingStatusCancelled},
	BookingStatusConfirmed: {BookingStatusCancelled, BookingStatusCompleted},
	BookingStatusCancelled: {},
	BookingStatusCompleted: {},
}

// IsValid returns true if the status is a recognized booking status
func (s BookingStatus) IsValid() bool {
	_, exists := validTransitions[s]
	return exists
}

// CanTransitionTo returns true if a transition to target is allowed
func (s BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, t := range validTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// IsTerminal returns true if no further transitions are possible
func (s BookingStatus) IsTerminal() bool {
	return len(validTransitions[s]) == 0
}

// IsActive reports whether the booking still counts as the user's current trip
func (s BookingStatus) IsActive() bool {
	return s == BookingStatusCreated || s == BookingStatusConfirmed
}

// ParseBookingStatus converts a string to a BookingStatus
func ParseBookingStatus(s string) (BookingStatus, error) {
	status := BookingStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", ValidationError{Field: "status", Msg: fmt.Sprintf("invalid booking status %q", s)}
	}
	return status, nil
}

// TripType distinguishes one-way from return bookings
type TripType string

const (
	TripOneWay    TripType = "oneWay"
	TripRoundTrip TripType = "roundTrip"
)

func (t TripType) IsValid() bool {
	return t == TripOneWay || t == TripRoundTrip
}

// Title is the honorific used for contacts and passengers
type Title string

const (
	TitleMr  Title = "Mr"
	TitleMs  Title = "Ms"
	TitleMrs Title = "Mrs"
	TitleMx  Title = "Mx"
	TitleDr  Title = "Dr"
)

func (t Title) IsValid() bool {
	switch t {
	case TitleMr, TitleMs, TitleMrs, TitleMx, TitleDr:
		return true
	}
	return false
}

// BookingContact is the person the airline contacts about the booking
type BookingContact struct {
	Title     Title  `json:"title" binding:"required"`
	FirstName string `json:"first_name" binding:"required"`
	LastName  string `json:"last_name" binding:"required"`
	Phone     string `json:"phone" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
}

func (c BookingContact) Value() (driver.Value, error) {
	return jsonValue(c)
}

func (c *BookingContact) Scan(src interface{}) error {
	if src == nil {
		*c = BookingContact{}
		return nil
	}
	return jsonScan(src, c)
}

// Normalize trims names and lowercases the email
func (c *BookingContact) Normalize() {
	c.FirstName = strings.TrimSpace(c.FirstName)
	c.LastName = strings.TrimSpace(c.LastName)
	c.Phone = strings.TrimSpace(c.Phone)
	c.Email = strings.ToLower(strings.TrimSpace(c.Email))
}

// Validate validates a normalized contact
func (c *BookingContact) Validate() error {
	if !c.Title.IsValid() {
		return ValidationError{Field: "booking_contact.title", Msg: fmt.Sprintf("unsupported title %q", c.Title)}
	}
	if c.FirstName == "" {
		return ValidationError{Field: "booking_contact.first_name", Msg: "is required"}
	}
	if c.LastName == "" {
		return ValidationError{Field: "booking_contact.last_name", Msg: "is required"}
	}
	if c.Phone == "" {
		return ValidationError{Field: "booking_contact.phone", Msg: "is required"}
	}
	if _, err := mail.ParseAddress(c.Email); err != nil || !strings.Contains(c.Email, "@") {
		return ValidationError{Field: "booking_contact.email", Msg: "is not a valid email address", Err: err}
	}
	return nil
}

// Booking is a reservation for one or more passengers on an ordered list of flights
type Booking struct {
	ID                string         `json:"id" db:"id"`
	BookingID         string         `json:"booking_id" db:"booking_id"`
	UserID            *string        `json:"user_id,omitempty" db:"user_id"`
	FlightRefs        UUIDArray      `json:"flight_refs" db:"flight_refs"`
	FareLineRefs      UUIDArray      `json:"fare_line_refs" db:"fare_line_refs"`
	PassengerRefs     UUIDArray      `json:"passenger_refs" db:"passenger_refs"`
	BookingDate       time.Time      `json:"booking_date" db:"booking_date"`
	TripType          TripType       `json:"trip_type" db:"trip_type"`
	TotalAmount       float64        `json:"total_amount" db:"total_amount"`
	Status            BookingStatus  `json:"status" db:"status"`
	PassengerCount    int            `json:"passenger_count" db:"passenger_count"`
	Contact           BookingContact `json:"booking_contact" db:"booking_contact"`
	SeatNumbers       StringArray    `json:"seat_numbers" db:"seat_numbers"`
	DepartureGate     string         `json:"departure_gate" db:"departure_gate"`
	DepartureTerminal string         `json:"departure_terminal" db:"departure_terminal"`
	ArrivalGate       string         `json:"arrival_gate" db:"arrival_gate"`
	ArrivalTerminal   string         `json:"arrival_terminal" db:"arrival_terminal"`
	CancelledAt       *time.Time     `json:"cancelled_at,omitempty" db:"cancelled_at"`
	CreatedAt         time.Time      `json:"created_at" db:"created_at"`
	UpdatedAt         time.Time      `json:"updated_at" db:"updated_at"`
}

// ApplyTransition moves the booking to status to, stamping cancelledAt on cancellation
func (b *Booking) ApplyTransition(to BookingStatus, now time.Time) error {
	if !b.Status.CanTransitionTo(to) {
		return TransitionError{Resource: "booking", From: string(b.Status), To: string(to)}
	}
	b.Status = to
	b.UpdatedAt = now
	if to == BookingStatusCancelled {
		b.CancelledAt = &now
	}
	return nil
}

// PassengerInput is one traveller on a booking request
type PassengerInput struct {
	Title       Title  `json:"title" binding:"required"`
	FirstName   string `json:"first_name" binding:"required"`
	LastName    string `json:"last_name" binding:"required"`
	Nationality string `json:"nationality" binding:"required"`
	DateOfBirth string `json:"date_of_birth" binding:"required"` // YYYY-MM-DD
}

// DateLayout is the wire format for dates of birth
const DateLayout = "2006-01-02"

// Validate validates the passenger and returns the parsed date of birth
func (p *PassengerInput) Validate(index int, now time.Time) (time.Time, error) {
	field := func(name string) string { return fmt.Sprintf("passengers[%d].%s", index, name) }

	if !p.Title.IsValid() {
		return time.Time{}, ValidationError{Field: field("title"), Msg: fmt.Sprintf("unsupported title %q", p.Title)}
	}
	if strings.TrimSpace(p.FirstName) == "" {
		return time.Time{}, ValidationError{Field: field("first_name"), Msg: "is required"}
	}
	if strings.TrimSpace(p.LastName) == "" {
		return time.Time{}, ValidationError{Field: field("last_name"), Msg: "is required"}
	}
	if strings.TrimSpace(p.Nationality) == "" {
		return time.Time{}, ValidationError{Field: field("nationality"), Msg: "is required"}
	}
	dob, err := time.Parse(DateLayout, p.DateOfBirth)
	if err != nil {
		return time.Time{}, ValidationError{Field: field("date_of_birth"), Msg: "must be YYYY-MM-DD", Err: err}
	}
	if dob.After(now) {
		return time.Time{}, ValidationError{Field: field("date_of_birth"), Msg: "must not be in the future"}
	}
	return dob, nil
}

// CreateBookingRequest represents the request to create a booking
type CreateBookingRequest struct {
	FlightRef       string           `json:"flight_ref" binding:"required"`
	ReturnFlightRef *string          `json:"return_flight_ref,omitempty"`
	CabinClass      CabinClass       `json:"cabin_class" binding:"required"`
	AddOns          []AddOnKind      `json:"add_ons,omitempty"`
	TripType        TripType         `json:"trip_type" binding:"required"`
	Passengers      []PassengerInput `json:"passengers" binding:"required,min=1,dive"`
	BookingContact  BookingContact   `json:"booking_contact" binding:"required"`

	// Set from the authenticated caller, never from the body
	UserID *string `json:"-"`
}

// Validate validates the create booking request
func (r *CreateBookingRequest) Validate(maxPassengers int) error {
	if strings.TrimSpace(r.FlightRef) == "" {
		return ValidationError{Field: "flight_ref", Msg: "is required"}
	}
	if !r.CabinClass.IsValid() {
		return ValidationError{Field: "cabin_class", Msg: fmt.Sprintf("unsupported cabin class %q", r.CabinClass)}
	}

	seen := make(map[AddOnKind]bool, len(r.AddOns))
	for _, kind := range r.AddOns {
		if !kind.IsValid() {
			return ValidationError{Field: "add_ons", Msg: fmt.Sprintf("unsupported add-on %q", kind)}
		}
		if seen[kind] {
			return ValidationError{Field: "add_ons", Msg: fmt.Sprintf("duplicate add-on %q", kind)}
		}
		seen[kind] = true
	}

	switch r.TripType {
	case TripOneWay:
		if r.ReturnFlightRef != nil {
			return ValidationError{Field: "return_flight_ref", Msg: "not allowed on a oneWay booking"}
		}
	case TripRoundTrip:
		if r.ReturnFlightRef == nil || strings.TrimSpace(*r.ReturnFlightRef) == "" {
			return ValidationError{Field: "return_flight_ref", Msg: "is required for a roundTrip booking"}
		}
		if *r.ReturnFlightRef == r.FlightRef {
			return ValidationError{Field: "return_flight_ref", Msg: "must differ from flight_ref"}
		}
	default:
		return ValidationError{Field: "trip_type", Msg: fmt.Sprintf("unsupported trip type %q", r.TripType)}
	}

	if len(r.Passengers) == 0 {
		return ValidationError{Field: "passengers", Msg: "at least one passenger is required"}
	}
	if len(r.Passengers) > maxPassengers {
		return ValidationError{Field: "passengers", Msg: fmt.Sprintf("maximum %d passengers can be booked at once", maxPassengers)}
	}

	r.BookingContact.Normalize()
	return r.BookingContact.Validate()
}

// FlightRefs returns the ordered flights the booking covers
func (r *CreateBookingRequest) FlightRefs() []string {
	if r.TripType == TripRoundTrip && r.ReturnFlightRef != nil {
		return []string{r.FlightRef, *r.ReturnFlightRef}
	}
	return []string{r.FlightRef}
}

// UpdateBookingStatusRequest represents an admin status change
type UpdateBookingStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// BookingFilter narrows admin and history listings. Zero values mean no filter.
type BookingFilter struct {
	Status    *BookingStatus
	From      *time.Time
	To        *time.Time
	BookingID string
	UserID    *string
	Limit     int
	Offset    int
}

// BookingDetails is a booking hydrated with its flights, fares and passengers
type BookingDetails struct {
	Booking    *Booking    `json:"booking"`
	Flights    []Flight    `json:"flights"`
	FareLines  []FareLine  `json:"fare_lines"`
	Passengers []Passenger `json:"passengers"`
}
