package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is applied in order; every statement is idempotent
var schema = []string{
	`CREATE TABLE IF NOT EXISTS counters (
		scope_key  TEXT PRIMARY KEY,
		sequence   BIGINT NOT NULL CHECK (sequence > 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS flights (
		id             UUID PRIMARY KEY,
		flight_number  TEXT NOT NULL UNIQUE,
		airline        TEXT NOT NULL,
		origin         TEXT NOT NULL,
		destination    TEXT NOT NULL,
		departure_time TIMESTAMPTZ NOT NULL,
		arrival_time   TIMESTAMPTZ NOT NULL,
		base_price     NUMERIC(12,2) NOT NULL CHECK (base_price >= 0),
		currency       TEXT NOT NULL DEFAULT 'PHP',
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS fare_lines (
		id              UUID PRIMARY KEY,
		flight_ref      UUID NOT NULL REFERENCES flights(id),
		cabin_class     TEXT NOT NULL CHECK (cabin_class IN ('economy', 'business', 'first')),
		base_price      NUMERIC(12,2) NOT NULL,
		add_ons         JSONB NOT NULL DEFAULT '[]',
		taxes           JSONB NOT NULL,
		passenger_count INTEGER NOT NULL CHECK (passenger_count >= 1),
		total_price     NUMERIC(12,2) NOT NULL,
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS bookings (
		id                 UUID PRIMARY KEY,
		booking_id         TEXT NOT NULL UNIQUE,
		user_id            TEXT,
		flight_refs        UUID[] NOT NULL,
		fare_line_refs     UUID[] NOT NULL,
		passenger_refs     UUID[] NOT NULL DEFAULT '{}',
		booking_date       TIMESTAMPTZ NOT NULL,
		trip_type          TEXT NOT NULL CHECK (trip_type IN ('oneWay', 'roundTrip')),
		total_amount       NUMERIC(12,2) NOT NULL,
		status             TEXT NOT NULL CHECK (status IN ('created', 'confirmed', 'cancelled', 'completed')),
		passenger_count    INTEGER NOT NULL CHECK (passenger_count >= 1),
		booking_contact    JSONB NOT NULL,
		seat_numbers       TEXT[] NOT NULL,
		departure_gate     TEXT NOT NULL,
		departure_terminal TEXT NOT NULL,
		arrival_gate       TEXT NOT NULL,
		arrival_terminal   TEXT NOT NULL,
		cancelled_at       TIMESTAMPTZ,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at         TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CHECK (cardinality(seat_numbers) = passenger_count)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_user_status ON bookings (user_id, status, booking_date DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_bookings_created_at ON bookings (created_at DESC)`,

	`CREATE TABLE IF NOT EXISTS passengers (
		id            UUID PRIMARY KEY,
		passenger_id  TEXT NOT NULL UNIQUE,
		user_id       TEXT,
		booking_ref   UUID NOT NULL REFERENCES bookings(id),
		title         TEXT NOT NULL,
		first_name    TEXT NOT NULL,
		last_name     TEXT NOT NULL,
		nationality   TEXT NOT NULL,
		date_of_birth DATE NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at    TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_passengers_booking_ref ON passengers (booking_ref)`,

	`CREATE TABLE IF NOT EXISTS payments (
		id             UUID PRIMARY KEY,
		payment_id     TEXT NOT NULL UNIQUE,
		booking_ref    UUID NOT NULL REFERENCES bookings(id),
		amount         NUMERIC(12,2) NOT NULL,
		currency       TEXT NOT NULL,
		method         TEXT NOT NULL,
		status         TEXT NOT NULL CHECK (status IN ('pending', 'success', 'failed', 'refunded')),
		billing_info   JSONB NOT NULL,
		card_info      JSONB NOT NULL,
		failure_reason TEXT,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payments_booking_ref ON payments (booking_ref)`,

	`CREATE TABLE IF NOT EXISTS payment_audits (
		id                 UUID PRIMARY KEY,
		booking_ref        UUID,
		payment_ref        UUID,
		event_type         TEXT NOT NULL,
		event_source       TEXT NOT NULL,
		expected_amount    NUMERIC(12,2),
		received_amount    NUMERIC(12,2),
		currency           TEXT,
		amounts_match      BOOLEAN,
		payment_status     TEXT,
		details            JSONB,
		error_message      TEXT,
		error_code         TEXT,
		processing_time_ms INTEGER,
		ip_address         TEXT,
		user_agent         TEXT,
		correlation_id     TEXT,
		created_at         TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_payment_audits_booking_ref ON payment_audits (booking_ref, created_at)`,

	`CREATE TABLE IF NOT EXISTS audit_logs (
		id          UUID PRIMARY KEY,
		user_id     TEXT,
		action      TEXT NOT NULL,
		entity_type TEXT NOT NULL,
		entity_id   TEXT,
		ip_address  TEXT,
		user_agent  TEXT,
		details     JSONB,
		created_at  TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_audit_logs_entity ON audit_logs (entity_type, entity_id, created_at DESC)`,
}

// Migrate creates any missing tables and indexes
func Migrate(ctx context.Context, db *sqlx.DB) error {
	for i, stmt := range schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("failed to apply schema statement %d: %w", i, err)
		}
	}
	return nil
}

// Tables lists the booking data tables, children first
var Tables = []string{"payment_audits", "payments", "passengers", "bookings", "fare_lines", "audit_logs"}
