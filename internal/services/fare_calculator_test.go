package services

import (
	"testing"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFareCalculator_Price(t *testing.T) {
	calc := NewFareCalculator()

	t.Run("economy with seat selector", func(t *testing.T) {
		line, err := calc.Price(FareInput{
			FlightRef:      "f-1",
			CabinClass:     models.CabinEconomy,
			BasePrice:      1000,
			AddOns:         []models.AddOnKind{models.AddOnSeatSelector},
			PassengerCount: 3,
		})
		require.NoError(t, err)

		assert.Equal(t, 90.0, line.Taxes.AdminFee)
		assert.Equal(t, 240.0, line.Taxes.FuelSurcharge)
		assert.Equal(t, 360.0, line.Taxes.AdminFeeVAT)
		assert.Equal(t, 120.0, line.Taxes.DomesticPassengerServiceCharge)
		assert.Equal(t, 60.0, line.Taxes.AirportDomesticPassengerServiceCharge)
		assert.Equal(t, 150.0, line.Taxes.ValueAddedTax)
		assert.Equal(t, 1020.0, line.Taxes.Subtotal)
		require.Len(t, line.AddOns, 1)
		assert.Equal(t, 150.0, line.AddOns[0].Price)
		assert.Equal(t, 4170.0, line.TotalPrice)
	})

	t.Run("business two passengers", func(t *testing.T) {
		line, err := calc.Price(FareInput{
			CabinClass:     models.CabinBusiness,
			BasePrice:      2000,
			PassengerCount: 2,
		})
		require.NoError(t, err)

		assert.Equal(t, 180.0, line.Taxes.AdminFee)
		assert.Equal(t, 1360.0, line.Taxes.Subtotal)
		assert.Empty(t, line.AddOns)
		assert.Equal(t, 7360.0, line.TotalPrice)
	})

	t.Run("subtotal omits the cabin multiplier", func(t *testing.T) {
		line, err := calc.Price(FareInput{
			CabinClass:     models.CabinFirst,
			BasePrice:      1000,
			PassengerCount: 1,
		})
		require.NoError(t, err)

		components := line.Taxes.AdminFee + line.Taxes.FuelSurcharge + line.Taxes.AdminFeeVAT +
			line.Taxes.DomesticPassengerServiceCharge + line.Taxes.AirportDomesticPassengerServiceCharge +
			line.Taxes.ValueAddedTax
		assert.InDelta(t, 680.0, components, 0.001)
		assert.Equal(t, 340.0, line.Taxes.Subtotal)
		assert.Equal(t, 2340.0, line.TotalPrice)
	})

	t.Run("all add-ons first class", func(t *testing.T) {
		line, err := calc.Price(FareInput{
			CabinClass:     models.CabinFirst,
			BasePrice:      1234.56,
			AddOns:         []models.AddOnKind{models.AddOnTravelInsurance, models.AddOnSeatSelector, models.AddOnExtraBaggage},
			PassengerCount: 1,
		})
		require.NoError(t, err)

		// 1234.56 × 2 × 0.15 = 370.368, 1234.56 × 2 × 0.05 = 123.456
		assert.Equal(t, 370.37, line.AddOns[0].Price)
		assert.Equal(t, 123.46, line.AddOns[1].Price)
		assert.Equal(t, 123.46, line.AddOns[2].Price)
		assert.Equal(t, 419.75, line.Taxes.Subtotal)
		assert.Equal(t, models.RoundMoney(2469.12+419.75+370.37+123.46+123.46), line.TotalPrice)
	})

	t.Run("rejects bad input", func(t *testing.T) {
		_, err := calc.Price(FareInput{CabinClass: "premium", BasePrice: 100, PassengerCount: 1})
		assert.True(t, models.IsValidation(err))

		_, err = calc.Price(FareInput{CabinClass: models.CabinEconomy, BasePrice: 100, PassengerCount: 0})
		assert.True(t, models.IsValidation(err))

		_, err = calc.Price(FareInput{CabinClass: models.CabinEconomy, BasePrice: -1, PassengerCount: 1})
		assert.True(t, models.IsValidation(err))
	})
}
