package models

import "time"

// Flight is the read model the booking engine consumes. Flight management
// itself lives outside this service; rows are seeded or synced in.
type Flight struct {
	ID            string    `json:"id" db:"id"`
	FlightNumber  string    `json:"flight_number" db:"flight_number"`
	Airline       string    `json:"airline" db:"airline"`
	Origin        string    `json:"origin" db:"origin"`
	Destination   string    `json:"destination" db:"destination"`
	DepartureTime time.Time `json:"departure_time" db:"departure_time"`
	ArrivalTime   time.Time `json:"arrival_time" db:"arrival_time"`
	BasePrice     float64   `json:"base_price" db:"base_price"`
	Currency      string    `json:"currency" db:"currency"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// CabinPrice is the per-passenger display price for a cabin. Fares are always
// priced from BasePrice; this value is never fed back into the calculator.
func (f *Flight) CabinPrice(cabin CabinClass) float64 {
	return RoundMoney(f.BasePrice * cabin.Multiplier())
}
