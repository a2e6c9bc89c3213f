package models

import (
	"database/sql/driver"
	"fmt"
	"strings"
	"time"
)

// PaymentStatus represents the status of a single charge attempt
type PaymentStatus string

const (
	PaymentStatusPending  PaymentStatus = "pending"
	PaymentStatusSuccess  PaymentStatus = "success"
	PaymentStatusFailed   PaymentStatus = "failed"
	PaymentStatusRefunded PaymentStatus = "refunded"
)

var paymentTransitions = map[PaymentStatus][]PaymentStatus{
	PaymentStatusPending:  {PaymentStatusSuccess, PaymentStatusFailed},
	PaymentStatusSuccess:  {PaymentStatusRefunded},
	PaymentStatusFailed:   {},
	PaymentStatusRefunded: {},
}

func (s PaymentStatus) IsValid() bool {
	_, ok := paymentTransitions[s]
	return ok
}

// CanTransitionTo returns true if a payment may move to target
func (s PaymentStatus) CanTransitionTo(target PaymentStatus) bool {
	for _, t := range paymentTransitions[s] {
		if t == target {
			return true
		}
	}
	return false
}

// ParsePaymentStatus converts a string to a PaymentStatus
func ParsePaymentStatus(s string) (PaymentStatus, error) {
	status := PaymentStatus(strings.ToLower(strings.TrimSpace(s)))
	if !status.IsValid() {
		return "", ValidationError{Field: "status", Msg: fmt.Sprintf("invalid payment status %q", s)}
	}
	return status, nil
}

// PaymentMethod is the customer-facing payment channel
type PaymentMethod string

const (
	PaymentMethodCreditCard  PaymentMethod = "Credit Card"
	PaymentMethodDebitCard   PaymentMethod = "Debit Card"
	PaymentMethodGCash       PaymentMethod = "GCash"
	PaymentMethodPayPal      PaymentMethod = "PayPal"
	PaymentMethodMockGateway PaymentMethod = "MockGateway"
)

// ParsePaymentMethod defaults an empty method to Credit Card
func ParsePaymentMethod(s string) (PaymentMethod, error) {
	if strings.TrimSpace(s) == "" {
		return PaymentMethodCreditCard, nil
	}
	switch m := PaymentMethod(s); m {
	case PaymentMethodCreditCard, PaymentMethodDebitCard, PaymentMethodGCash, PaymentMethodPayPal, PaymentMethodMockGateway:
		return m, nil
	}
	return "", ValidationError{Field: "method", Msg: fmt.Sprintf("unsupported payment method %q", s)}
}

// BillingInfo is the payer's billing address
type BillingInfo struct {
	FirstName     string `json:"first_name" binding:"required"`
	LastName      string `json:"last_name" binding:"required"`
	StreetAddress string `json:"street_address" binding:"required"`
	City          string `json:"city" binding:"required"`
	Country       string `json:"country" binding:"required"`
	ContactNumber string `json:"contact_number" binding:"required"`
	Email         string `json:"email" binding:"required,email"`
}

func (b BillingInfo) Value() (driver.Value, error) {
	return jsonValue(b)
}

func (b *BillingInfo) Scan(src interface{}) error {
	if src == nil {
		*b = BillingInfo{}
		return nil
	}
	return jsonScan(src, b)
}

// Validate checks every billing field is present
func (b *BillingInfo) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"billing_info.first_name", b.FirstName},
		{"billing_info.last_name", b.LastName},
		{"billing_info.street_address", b.StreetAddress},
		{"billing_info.city", b.City},
		{"billing_info.country", b.Country},
		{"billing_info.contact_number", b.ContactNumber},
		{"billing_info.email", b.Email},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return ValidationError{Field: f.name, Msg: "is required"}
		}
	}
	return nil
}

// CardInfo is what survives of the card after a charge. PAN and CVV are never stored.
type CardInfo struct {
	Last4  string `json:"last4"`
	Expiry string `json:"expiry"`
}

func (c CardInfo) Value() (driver.Value, error) {
	return jsonValue(c)
}

func (c *CardInfo) Scan(src interface{}) error {
	if src == nil {
		*c = CardInfo{}
		return nil
	}
	return jsonScan(src, c)
}

// Payment is one persisted charge attempt against a booking
type Payment struct {
	ID            string        `json:"id" db:"id"`
	PaymentID     string        `json:"payment_id" db:"payment_id"`
	BookingRef    string        `json:"booking_ref" db:"booking_ref"`
	Amount        float64       `json:"amount" db:"amount"`
	Currency      string        `json:"currency" db:"currency"`
	Method        PaymentMethod `json:"method" db:"method"`
	Status        PaymentStatus `json:"status" db:"status"`
	BillingInfo   BillingInfo   `json:"billing_info" db:"billing_info"`
	CardInfo      CardInfo      `json:"card_info" db:"card_info"`
	FailureReason *string       `json:"failure_reason,omitempty" db:"failure_reason"`
	CreatedAt     time.Time     `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time     `json:"updated_at" db:"updated_at"`
}

// CardDetails is the raw card as submitted. It never leaves the payment service.
type CardDetails struct {
	Number string `json:"number" binding:"required"`
	CVV    string `json:"cvv" binding:"required"`
	Expiry string `json:"expiry" binding:"required"` // MM/YY
}

// Last4 returns the trailing four digits of the card number
func (c CardDetails) Last4() string {
	digits := strings.ReplaceAll(c.Number, " ", "")
	if len(digits) <= 4 {
		return digits
	}
	return digits[len(digits)-4:]
}

// ChargeRequest represents the request to pay for a booking
type ChargeRequest struct {
	BookingID   string      `json:"booking_id" binding:"required"`
	Amount      float64     `json:"amount" binding:"required,gt=0"`
	Method      string      `json:"method,omitempty"`
	Card        CardDetails `json:"card" binding:"required"`
	BillingInfo BillingInfo `json:"billing_info" binding:"required"`
}

// ChargeOutcome is the gateway verdict
type ChargeOutcome string

const (
	ChargeApproved ChargeOutcome = "approved"
	ChargeDeclined ChargeOutcome = "declined"
)

// ChargeResult is returned for every charge the gateway ruled on,
// including declines
type ChargeResult struct {
	Outcome ChargeOutcome `json:"outcome"`
	Reason  string        `json:"reason,omitempty"`
	Payment *Payment      `json:"payment"`
	Booking *Booking      `json:"booking"`
}

// Declined reports whether the charge was refused
func (r *ChargeResult) Declined() bool {
	return r.Outcome == ChargeDeclined
}

// Err returns ErrPaymentDeclined for a declined charge, nil otherwise
func (r *ChargeResult) Err() error {
	if r.Declined() {
		return fmt.Errorf("%w: %s", ErrPaymentDeclined, r.Reason)
	}
	return nil
}

// UpdatePaymentStatusRequest represents an admin payment status change
type UpdatePaymentStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// PaymentFilter narrows the admin payment listing
type PaymentFilter struct {
	Status     *PaymentStatus
	BookingRef string
	Limit      int
	Offset     int
}
