package validator

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestNewCardValidator(t *testing.T) {
	validator := NewCardValidator()
	assert.NotNil(t, validator)
}

func TestLuhn(t *testing.T) {
	cases := []struct {
		name   string
		digits string
		valid  bool
	}{
		{"Visa test card", "4532015112830366", true},
		{"Visa last digit changed", "4532015112830367", false},
		{"Mastercard test card", "5555555555554444", true},
		{"Amex test card", "378282246310005", true},
		{"Non digit", "45320151128303a6", false},
		{"Empty", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.valid, Luhn(tc.digits))
		})
	}
}

func TestIsExpired(t *testing.T) {
	validator := NewCardValidatorWithClock(fixedClock(time.Date(2026, 10, 15, 12, 0, 0, 0, time.UTC)))

	cases := []struct {
		expiry  string
		expired bool
	}{
		{"01/20", true},
		{"12/99", false},
		{"10/26", false}, // valid through the end of the month
		{"09/26", true},
		{"12/26", false},
	}

	for _, tc := range cases {
		t.Run(tc.expiry, func(t *testing.T) {
			expired, err := validator.IsExpired(tc.expiry)
			require.NoError(t, err)
			assert.Equal(t, tc.expired, expired)
		})
	}

	t.Run("expires on the first day of the next month", func(t *testing.T) {
		v := NewCardValidatorWithClock(fixedClock(time.Date(2026, 11, 1, 0, 0, 0, 0, time.UTC)))
		expired, err := v.IsExpired("10/26")
		require.NoError(t, err)
		assert.True(t, expired)
	})

	for _, bad := range []string{"13/25", "00/25", "1/25", "01-25", "0125", ""} {
		t.Run("invalid "+bad, func(t *testing.T) {
			_, err := validator.IsExpired(bad)
			assert.ErrorIs(t, err, ErrInvalidExpiry)
		})
	}
}

func TestValidate(t *testing.T) {
	validator := NewCardValidatorWithClock(fixedClock(time.Date(2026, 10, 15, 0, 0, 0, 0, time.UTC)))

	t.Run("valid card with spaces", func(t *testing.T) {
		sanitized, err := validator.Validate("4532 0151 1283 0366", "123", "12/99")
		require.NoError(t, err)
		assert.Equal(t, "4532015112830366", sanitized)
	})

	invalid := []struct {
		name   string
		number string
		cvv    string
		expiry string
		err    error
	}{
		{"Too short", "453201511283", "123", "12/99", ErrInvalidCardNumber},
		{"Too long", "45320151128303661234", "123", "12/99", ErrInvalidCardNumber},
		{"Letters", "4532abcd12830366", "123", "12/99", ErrInvalidCardNumber},
		{"Bad checksum", "4532015112830367", "123", "12/99", ErrChecksumFailed},
		{"Short CVV", "4532015112830366", "12", "12/99", ErrInvalidCVV},
		{"Long CVV", "4532015112830366", "12345", "12/99", ErrInvalidCVV},
		{"Bad expiry format", "4532015112830366", "123", "2099-12", ErrInvalidExpiry},
		{"Expired", "4532015112830366", "1234", "01/20", ErrCardExpired},
	}

	for _, tc := range invalid {
		t.Run(tc.name, func(t *testing.T) {
			_, err := validator.Validate(tc.number, tc.cvv, tc.expiry)
			assert.ErrorIs(t, err, tc.err)
		})
	}

	t.Run("checksum is checked before cvv", func(t *testing.T) {
		_, err := validator.Validate("4532015112830367", "x", "01/20")
		assert.ErrorIs(t, err, ErrChecksumFailed)
	})
}

func TestMaskCardNumber(t *testing.T) {
	assert.Equal(t, "************0366", MaskCardNumber("4532015112830366"))
	assert.Equal(t, "123", MaskCardNumber("123"))
}
