package database

import (
	"context"
	"fmt"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const flightColumns = `id, flight_number, airline, origin, destination,
	departure_time, arrival_time, base_price, currency, created_at`

// FlightRepository reads the flight catalogue the booking engine prices against
type FlightRepository struct {
	db *sqlx.DB
}

// NewFlightRepository creates a new flight repository
func NewFlightRepository(db *sqlx.DB) *FlightRepository {
	return &FlightRepository{db: db}
}

// GetByID retrieves a flight by its UUID
func (r *FlightRepository) GetByID(ctx context.Context, id string) (*models.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = $1`

	var flight models.Flight
	if err := r.db.GetContext(ctx, &flight, query, id); err != nil {
		return nil, mapReadError("flight", id, err)
	}

	return &flight, nil
}

// GetByIDs retrieves flights in the order of ids. Missing ids are skipped.
func (r *FlightRepository) GetByIDs(ctx context.Context, ids []string) ([]models.Flight, error) {
	if len(ids) == 0 {
		return []models.Flight{}, nil
	}

	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = ANY($1)`

	var flights []models.Flight
	if err := r.db.SelectContext(ctx, &flights, query, pq.Array(ids)); err != nil {
		return nil, fmt.Errorf("failed to get flights: %w", err)
	}

	return orderByIDs(flights, ids, func(f models.Flight) string { return f.ID }), nil
}

// Create inserts a flight. Used by seeding and catalogue sync.
func (r *FlightRepository) Create(ctx context.Context, flight *models.Flight) error {
	query := `
		INSERT INTO flights (` + flightColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		flight.ID, flight.FlightNumber, flight.Airline, flight.Origin, flight.Destination,
		flight.DepartureTime, flight.ArrivalTime, flight.BasePrice, flight.Currency, flight.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create flight: %w", mapWriteError("flight", err))
	}

	return nil
}

// orderByIDs returns items sorted to match ids
func orderByIDs[T any](items []T, ids []string, key func(T) string) []T {
	byID := make(map[string]T, len(items))
	for _, item := range items {
		byID[key(item)] = item
	}
	ordered := make([]T, 0, len(items))
	for _, id := range ids {
		if item, ok := byID[id]; ok {
			ordered = append(ordered, item)
		}
	}
	return ordered
}
