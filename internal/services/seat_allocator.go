package services

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
)

const (
	seatRows    = 30
	seatColumns = "ABCDEFGHJK" // no I, as on most airline seat maps
	gateLetters = "ABCDEF"
	gateNumbers = 20
)

var terminals = []string{"T1", "T2", "T3", "T4"}

// SeatAllocator assigns random seats, gates and terminals. There is no seat
// inventory; the only guarantee is that seats within one booking are distinct.
type SeatAllocator struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// NewSeatAllocator creates an allocator seeded from the clock
func NewSeatAllocator() *SeatAllocator {
	return NewSeatAllocatorWithSource(rand.NewSource(time.Now().UnixNano()))
}

// NewSeatAllocatorWithSource creates an allocator with a caller-provided source
func NewSeatAllocatorWithSource(src rand.Source) *SeatAllocator {
	return &SeatAllocator{rng: rand.New(src)}
}

// Seats returns n distinct seat labels such as "12C"
func (a *SeatAllocator) Seats(n int) ([]string, error) {
	if n < 1 || n > seatRows*len(seatColumns) {
		return nil, models.ValidationError{Field: "passenger_count", Msg: fmt.Sprintf("cannot seat %d passengers", n)}
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	seen := make(map[string]bool, n)
	seats := make([]string, 0, n)
	for len(seats) < n {
		seat := fmt.Sprintf("%d%c", a.rng.Intn(seatRows)+1, seatColumns[a.rng.Intn(len(seatColumns))])
		if seen[seat] {
			continue
		}
		seen[seat] = true
		seats = append(seats, seat)
	}
	return seats, nil
}

// Gate returns a gate label such as "C14"
func (a *SeatAllocator) Gate() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return fmt.Sprintf("%c%d", gateLetters[a.rng.Intn(len(gateLetters))], a.rng.Intn(gateNumbers)+1)
}

// Terminal returns one of T1-T4
func (a *SeatAllocator) Terminal() string {
	a.mu.Lock()
	defer a.mu.Unlock()
	return terminals[a.rng.Intn(len(terminals))]
}

// AssignMissing fills whichever of seats, gates and terminals the booking
// does not already carry
func (a *SeatAllocator) AssignMissing(b *models.Booking) error {
	if len(b.SeatNumbers) == 0 {
		seats, err := a.Seats(b.PassengerCount)
		if err != nil {
			return err
		}
		b.SeatNumbers = seats
	}
	if b.DepartureGate == "" {
		b.DepartureGate = a.Gate()
	}
	if b.DepartureTerminal == "" {
		b.DepartureTerminal = a.Terminal()
	}
	if b.ArrivalGate == "" {
		b.ArrivalGate = a.Gate()
	}
	if b.ArrivalTerminal == "" {
		b.ArrivalTerminal = a.Terminal()
	}
	return nil
}
