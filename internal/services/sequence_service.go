package services

import (
	"context"
	"fmt"

	"github.com/flyx/flyx-backend/internal/models"
)

// IDKind selects the prefix of a generated identifier
type IDKind string

const (
	IDKindBooking   IDKind = "booking"
	IDKindFlight    IDKind = "flight"
	IDKindPassenger IDKind = "passenger"
	IDKindPayment   IDKind = "payment"
)

var idPrefixes = map[IDKind]string{
	IDKindBooking:   "FLYX",
	IDKindFlight:    "FL",
	IDKindPassenger: "PAX",
	IDKindPayment:   "PAY",
}

// SequenceGenerator issues human-readable ids of the form
// <PREFIX>-<YYYYMMDD>-<NNNN>, one counter per prefix per UTC day
type SequenceGenerator struct {
	counters CounterStore
	now      Clock
}

// NewSequenceGenerator creates a new sequence generator
func NewSequenceGenerator(counters CounterStore, now Clock) *SequenceGenerator {
	if now == nil {
		now = UTCClock
	}
	return &SequenceGenerator{counters: counters, now: now}
}

// NextID returns the next identifier for kind. The sequence is zero-padded to
// four digits and simply grows wider past 9999.
func (g *SequenceGenerator) NextID(ctx context.Context, kind IDKind) (string, error) {
	prefix, ok := idPrefixes[kind]
	if !ok {
		return "", models.ValidationError{Field: "kind", Msg: fmt.Sprintf("unknown id kind %q", kind)}
	}

	scopeKey := fmt.Sprintf("%s-%s", prefix, g.now().UTC().Format("20060102"))

	seq, err := g.counters.Increment(ctx, scopeKey)
	if err != nil {
		return "", fmt.Errorf("failed to generate %s id: %w", kind, err)
	}

	return fmt.Sprintf("%s-%04d", scopeKey, seq), nil
}
