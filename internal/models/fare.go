package models

import (
	"database/sql/driver"
	"fmt"
	"math"
	"time"
)

// CabinClass is the travel class a fare is priced for
type CabinClass string

const (
	CabinEconomy  CabinClass = "economy"
	CabinBusiness CabinClass = "business"
	CabinFirst    CabinClass = "first"
)

var cabinMultipliers = map[CabinClass]float64{
	CabinEconomy:  1.0,
	CabinBusiness: 1.5,
	CabinFirst:    2.0,
}

// Multiplier returns the cabin price factor, 0 for an unknown cabin
func (c CabinClass) Multiplier() float64 {
	return cabinMultipliers[c]
}

func (c CabinClass) IsValid() bool {
	_, ok := cabinMultipliers[c]
	return ok
}

// ParseCabinClass converts a string to a CabinClass
func ParseCabinClass(s string) (CabinClass, error) {
	c := CabinClass(s)
	if !c.IsValid() {
		return "", ValidationError{Field: "cabin_class", Msg: fmt.Sprintf("unsupported cabin class %q", s)}
	}
	return c, nil
}

// AddOnKind is an optional purchasable extra
type AddOnKind string

const (
	AddOnTravelInsurance AddOnKind = "travelInsurance"
	AddOnSeatSelector    AddOnKind = "seatSelector"
	AddOnExtraBaggage    AddOnKind = "extraBaggage"
)

func (k AddOnKind) IsValid() bool {
	switch k {
	case AddOnTravelInsurance, AddOnSeatSelector, AddOnExtraBaggage:
		return true
	}
	return false
}

// AddOn is a priced extra on a fare line
type AddOn struct {
	Kind  AddOnKind `json:"kind"`
	Price float64   `json:"price"`
}

// AddOns is stored as a JSONB array
type AddOns []AddOn

func (a AddOns) Value() (driver.Value, error) {
	if a == nil {
		return "[]", nil
	}
	return jsonValue(a)
}

func (a *AddOns) Scan(src interface{}) error {
	if src == nil {
		*a = nil
		return nil
	}
	return jsonScan(src, a)
}

// Total sums the add-on prices
func (a AddOns) Total() float64 {
	var total float64
	for _, addOn := range a {
		total += addOn.Price
	}
	return RoundMoney(total)
}

// FareTaxes is the tax breakdown of a fare line
type FareTaxes struct {
	AdminFee                              float64 `json:"adminFee"`
	FuelSurcharge                         float64 `json:"fuelSurcharge"`
	AdminFeeVAT                           float64 `json:"adminFeeVAT"`
	DomesticPassengerServiceCharge        float64 `json:"domesticPassengerServiceCharge"`
	AirportDomesticPassengerServiceCharge float64 `json:"airportDomesticPassengerServiceCharge"`
	ValueAddedTax                         float64 `json:"valueAddedTax"`
	Subtotal                              float64 `json:"subtotal"`
}

func (t FareTaxes) Value() (driver.Value, error) {
	return jsonValue(t)
}

func (t *FareTaxes) Scan(src interface{}) error {
	if src == nil {
		*t = FareTaxes{}
		return nil
	}
	return jsonScan(src, t)
}

// FareLine is the priced breakdown for one flight of a booking.
// It is derived once at creation and never recomputed.
type FareLine struct {
	ID             string     `json:"id" db:"id"`
	FlightRef      string     `json:"flight_ref" db:"flight_ref"`
	CabinClass     CabinClass `json:"cabin_class" db:"cabin_class"`
	BasePrice      float64    `json:"base_price" db:"base_price"`
	AddOns         AddOns     `json:"add_ons" db:"add_ons"`
	Taxes          FareTaxes  `json:"taxes" db:"taxes"`
	PassengerCount int        `json:"passenger_count" db:"passenger_count"`
	TotalPrice     float64    `json:"total_price" db:"total_price"`
	CreatedAt      time.Time  `json:"created_at" db:"created_at"`
}

// HasAddOn reports whether the fare line carries the given extra
func (f *FareLine) HasAddOn(kind AddOnKind) bool {
	for _, a := range f.AddOns {
		if a.Kind == kind {
			return true
		}
	}
	return false
}

// RoundMoney rounds half away from zero to two decimals
func RoundMoney(v float64) float64 {
	return math.Round(v*100) / 100
}
