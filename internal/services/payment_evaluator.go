package services

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/pkg/validator"
)

// DeclineReason is reported for every gateway refusal
const DeclineReason = "payment could not be processed by the gateway"

// OutcomeSource decides whether a validated charge is approved
type OutcomeSource interface {
	Approve() bool
}

// RandomOutcome approves a charge with probability successRate
type RandomOutcome struct {
	mu          sync.Mutex
	rng         *rand.Rand
	successRate float64
}

// NewRandomOutcome creates a seeded outcome source. A zero seed seeds from the clock.
func NewRandomOutcome(successRate float64, seed int64) *RandomOutcome {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &RandomOutcome{
		rng:         rand.New(rand.NewSource(seed)),
		successRate: successRate,
	}
}

func (o *RandomOutcome) Approve() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.rng.Float64() < o.successRate
}

// FixedOutcome always returns the same verdict
type FixedOutcome bool

func (o FixedOutcome) Approve() bool {
	return bool(o)
}

// Verdict is the evaluator's decision on a charge
type Verdict struct {
	Approved bool
	Reason   string
	Last4    string
}

// PaymentEvaluator validates card input and asks the mock gateway for a verdict
type PaymentEvaluator struct {
	cards   *validator.CardValidator
	outcome OutcomeSource
	delay   time.Duration
}

// NewPaymentEvaluator creates a new payment evaluator
func NewPaymentEvaluator(cards *validator.CardValidator, outcome OutcomeSource, delay time.Duration) *PaymentEvaluator {
	return &PaymentEvaluator{
		cards:   cards,
		outcome: outcome,
		delay:   delay,
	}
}

// Evaluate validates number, checksum, CVV and expiry, in that order, then
// waits out the gateway round trip and returns the verdict. A malformed card
// is a ValidationError; a decline is a Verdict, not an error.
func (e *PaymentEvaluator) Evaluate(ctx context.Context, card models.CardDetails) (*Verdict, error) {
	number, err := e.cards.Validate(card.Number, card.CVV, card.Expiry)
	if err != nil {
		return nil, models.ValidationError{Field: "card", Msg: err.Error(), Err: err}
	}

	if e.delay > 0 {
		timer := time.NewTimer(e.delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		case <-timer.C:
		}
	}

	verdict := &Verdict{
		Approved: e.outcome.Approve(),
		Last4:    number[len(number)-4:],
	}
	if !verdict.Approved {
		verdict.Reason = DeclineReason
	}
	return verdict, nil
}
