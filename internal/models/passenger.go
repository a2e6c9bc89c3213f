package models

import (
	"strings"
	"time"
)

// Passenger is a traveller attached to exactly one booking
type Passenger struct {
	ID          string    `json:"id" db:"id"`
	PassengerID string    `json:"passenger_id" db:"passenger_id"`
	UserID      *string   `json:"user_id,omitempty" db:"user_id"`
	BookingRef  string    `json:"booking_ref" db:"booking_ref"`
	Title       Title     `json:"title" db:"title"`
	FirstName   string    `json:"first_name" db:"first_name"`
	LastName    string    `json:"last_name" db:"last_name"`
	Nationality string    `json:"nationality" db:"nationality"`
	DateOfBirth time.Time `json:"date_of_birth" db:"date_of_birth"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" db:"updated_at"`
}

// FullName returns "First Last"
func (p *Passenger) FullName() string {
	return strings.TrimSpace(p.FirstName + " " + p.LastName)
}

// UpdatePassengerRequest is an admin edit. The booking link and the
// passenger id cannot be changed.
type UpdatePassengerRequest struct {
	Title       *Title  `json:"title,omitempty"`
	FirstName   *string `json:"first_name,omitempty"`
	LastName    *string `json:"last_name,omitempty"`
	Nationality *string `json:"nationality,omitempty"`
	DateOfBirth *string `json:"date_of_birth,omitempty"`
}

// Apply validates the request and applies it to p
func (r *UpdatePassengerRequest) Apply(p *Passenger, now time.Time) error {
	if r.Title != nil {
		if !r.Title.IsValid() {
			return ValidationError{Field: "title", Msg: "unsupported title"}
		}
		p.Title = *r.Title
	}
	if r.FirstName != nil {
		name := strings.TrimSpace(*r.FirstName)
		if name == "" {
			return ValidationError{Field: "first_name", Msg: "must not be empty"}
		}
		p.FirstName = name
	}
	if r.LastName != nil {
		name := strings.TrimSpace(*r.LastName)
		if name == "" {
			return ValidationError{Field: "last_name", Msg: "must not be empty"}
		}
		p.LastName = name
	}
	if r.Nationality != nil {
		nationality := strings.TrimSpace(*r.Nationality)
		if nationality == "" {
			return ValidationError{Field: "nationality", Msg: "must not be empty"}
		}
		p.Nationality = nationality
	}
	if r.DateOfBirth != nil {
		dob, err := time.Parse(DateLayout, *r.DateOfBirth)
		if err != nil {
			return ValidationError{Field: "date_of_birth", Msg: "must be YYYY-MM-DD", Err: err}
		}
		if dob.After(now) {
			return ValidationError{Field: "date_of_birth", Msg: "must not be in the future"}
		}
		p.DateOfBirth = dob
	}
	p.UpdatedAt = now
	return nil
}

// PassengerFilter narrows the admin passenger listing
type PassengerFilter struct {
	BookingRef  string
	PassengerID string
	Nationality string
	Limit       int
	Offset      int
}
