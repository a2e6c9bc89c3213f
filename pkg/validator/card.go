package validator

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrInvalidCardNumber indicates the card number is not 13-19 digits
	ErrInvalidCardNumber = errors.New("card number must be 13 to 19 digits")

	// ErrChecksumFailed indicates the card number fails the Luhn check
	ErrChecksumFailed = errors.New("card number failed checksum validation")

	// ErrInvalidCVV indicates the CVV is not 3 or 4 digits
	ErrInvalidCVV = errors.New("cvv must be 3 or 4 digits")

	// ErrInvalidExpiry indicates the expiry is not MM/YY
	ErrInvalidExpiry = errors.New("expiry must be in MM/YY format")

	// ErrCardExpired indicates the card expiry month has passed
	ErrCardExpired = errors.New("card has expired")
)

var (
	cardNumberRegex = regexp.MustCompile(`^\d{13,19}$`)
	cvvRegex        = regexp.MustCompile(`^\d{3,4}$`)
	expiryRegex     = regexp.MustCompile(`^(\d{2})/(\d{2})$`)
)

// CardValidator validates card details before they reach the gateway.
// The clock is injectable so expiry checks are deterministic in tests.
type CardValidator struct {
	now func() time.Time
}

// NewCardValidator creates a new card validator instance
func NewCardValidator() *CardValidator {
	return &CardValidator{now: time.Now}
}

// NewCardValidatorWithClock creates a validator that reads time from now
func NewCardValidatorWithClock(now func() time.Time) *CardValidator {
	return &CardValidator{now: now}
}

// Validate checks number format, Luhn checksum, CVV and expiry, in that
// order, and returns the sanitized card number
func (v *CardValidator) Validate(number, cvv, expiry string) (string, error) {
	sanitized := v.Sanitize(number)

	if !cardNumberRegex.MatchString(sanitized) {
		return "", ErrInvalidCardNumber
	}

	if !Luhn(sanitized) {
		return "", ErrChecksumFailed
	}

	if !cvvRegex.MatchString(cvv) {
		return "", ErrInvalidCVV
	}

	expired, err := v.IsExpired(expiry)
	if err != nil {
		return "", err
	}
	if expired {
		return "", ErrCardExpired
	}

	return sanitized, nil
}

// Sanitize removes spaces and dashes from a card number
func (v *CardValidator) Sanitize(number string) string {
	replacer := strings.NewReplacer(" ", "", "-", "")
	return replacer.Replace(strings.TrimSpace(number))
}

// IsExpired reports whether an MM/YY expiry has passed. A card is valid
// through the last day of its expiry month, so it expires on the first day
// of the following month.
func (v *CardValidator) IsExpired(expiry string) (bool, error) {
	matches := expiryRegex.FindStringSubmatch(strings.TrimSpace(expiry))
	if matches == nil {
		return false, ErrInvalidExpiry
	}

	month, _ := strconv.Atoi(matches[1])
	year, _ := strconv.Atoi(matches[2])
	if month < 1 || month > 12 {
		return false, ErrInvalidExpiry
	}

	// time.Date normalizes month 13 to January of the next year
	firstInvalidDay := time.Date(2000+year, time.Month(month+1), 1, 0, 0, 0, 0, time.UTC)
	return !v.now().Before(firstInvalidDay), nil
}

// Luhn reports whether a digit string passes the Luhn checksum
func Luhn(digits string) bool {
	if digits == "" {
		return false
	}

	sum := 0
	double := false
	for i := len(digits) - 1; i >= 0; i-- {
		c := digits[i]
		if c < '0' || c > '9' {
			return false
		}
		d := int(c - '0')
		if double {
			d *= 2
			if d > 9 {
				d -= 9
			}
		}
		sum += d
		double = !double
	}
	return sum%10 == 0
}

// MaskCardNumber returns the card number with all but the last 4 digits masked
func MaskCardNumber(number string) string {
	if len(number) <= 4 {
		return number
	}
	return strings.Repeat("*", len(number)-4) + number[len(number)-4:]
}
