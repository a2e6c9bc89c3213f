package services

import "github.com/flyx/flyx-backend/internal/models"

// Tax rates applied per passenger to the fare base price
const (
	TaxRateAdminFee                              = 0.03
	TaxRateFuelSurcharge                         = 0.08
	TaxRateAdminFeeVAT                           = 0.12
	TaxRateDomesticPassengerServiceCharge        = 0.04
	TaxRateAirportDomesticPassengerServiceCharge = 0.02
	TaxRateValueAddedTax                         = 0.05
)

// Add-on rates, applied to the cabin-adjusted base price per passenger
var addOnRates = map[models.AddOnKind]float64{
	models.AddOnTravelInsurance: 0.15,
	models.AddOnSeatSelector:    0.05,
	models.AddOnExtraBaggage:    0.05,
}

// FareCalculator derives taxes, add-on prices and the total of a fare line.
// It is pure: the same inputs always yield the same breakdown.
type FareCalculator struct{}

// NewFareCalculator creates a new fare calculator
func NewFareCalculator() *FareCalculator {
	return &FareCalculator{}
}

// FareInput is what the calculator prices
type FareInput struct {
	FlightRef      string
	CabinClass     models.CabinClass
	BasePrice      float64
	AddOns         []models.AddOnKind
	PassengerCount int
}

// Price returns a fully priced fare line (without id or timestamps).
//
// Each tax component is base × cabin multiplier × rate × passengers, but the
// subtotal sums base × rate × passengers without the cabin multiplier. The
// two therefore disagree for business and first; existing totals depend on
// the subtotal formula so it is kept as is.
func (c *FareCalculator) Price(in FareInput) (*models.FareLine, error) {
	if !in.CabinClass.IsValid() {
		return nil, models.ValidationError{Field: "cabin_class", Msg: "unsupported cabin class"}
	}
	if in.PassengerCount < 1 {
		return nil, models.ValidationError{Field: "passenger_count", Msg: "must be at least 1"}
	}
	if in.BasePrice < 0 {
		return nil, models.ValidationError{Field: "base_price", Msg: "must not be negative"}
	}

	multiplier := in.CabinClass.Multiplier()
	n := float64(in.PassengerCount)
	base := in.BasePrice

	component := func(rate float64) float64 {
		return models.RoundMoney(base * multiplier * rate * n)
	}

	taxes := models.FareTaxes{
		AdminFee:                              component(TaxRateAdminFee),
		FuelSurcharge:                         component(TaxRateFuelSurcharge),
		AdminFeeVAT:                           component(TaxRateAdminFeeVAT),
		DomesticPassengerServiceCharge:        component(TaxRateDomesticPassengerServiceCharge),
		AirportDomesticPassengerServiceCharge: component(TaxRateAirportDomesticPassengerServiceCharge),
		ValueAddedTax:                         component(TaxRateValueAddedTax),
	}

	subtotalRate := TaxRateAdminFee + TaxRateFuelSurcharge + TaxRateAdminFeeVAT +
		TaxRateDomesticPassengerServiceCharge + TaxRateAirportDomesticPassengerServiceCharge +
		TaxRateValueAddedTax
	taxes.Subtotal = models.RoundMoney(base * subtotalRate * n)

	addOns := make(models.AddOns, 0, len(in.AddOns))
	for _, kind := range in.AddOns {
		rate, ok := addOnRates[kind]
		if !ok {
			return nil, models.ValidationError{Field: "add_ons", Msg: "unsupported add-on " + string(kind)}
		}
		addOns = append(addOns, models.AddOn{Kind: kind, Price: component(rate)})
	}

	fare := models.RoundMoney(base * multiplier * n)

	return &models.FareLine{
		FlightRef:      in.FlightRef,
		CabinClass:     in.CabinClass,
		BasePrice:      base,
		AddOns:         addOns,
		Taxes:          taxes,
		PassengerCount: in.PassengerCount,
		TotalPrice:     models.RoundMoney(fare + taxes.Subtotal + addOns.Total()),
	}, nil
}
