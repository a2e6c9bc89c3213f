package database

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"fmt"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/flyx/flyx-backend/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return sqlx.NewDb(db, "postgres"), mock
}

var bookingRowColumns = []string{
	"id", "booking_id", "user_id", "flight_refs", "fare_line_refs", "passenger_refs",
	"booking_date", "trip_type", "total_amount", "status", "passenger_count", "booking_contact",
	"seat_numbers", "departure_gate", "departure_terminal", "arrival_gate", "arrival_terminal",
	"cancelled_at", "created_at", "updated_at",
}

func bookingRow(status models.BookingStatus, cancelledAt interface{}) []driver.Value {
	now := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	return []driver.Value{
		"5b0d7c1e-8f52-4f4e-9d7a-2b7c1f9f0a01", "FLYX-20260301-0001", "user-1",
		[]byte("{11111111-1111-1111-1111-111111111111}"),
		[]byte("{22222222-2222-2222-2222-222222222222}"),
		[]byte("{33333333-3333-3333-3333-333333333333,44444444-4444-4444-4444-444444444444}"),
		now, "oneWay", 7360.0, string(status), 2,
		[]byte(`{"title":"Ms","first_name":"Ana","last_name":"Cruz","phone":"+639171234567","email":"ana@example.com"}`),
		[]byte("{12A,12B}"), "C7", "T2", "A3", "T1",
		cancelledAt, now, now,
	}
}

func TestCounterRepositoryIncrement(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewCounterRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (scope_key)`)).
			WithArgs("FLYX-20260301").
			WillReturnRows(sqlmock.NewRows([]string{"sequence"}).AddRow(int64(42)))

		seq, err := repo.Increment(context.Background(), "FLYX-20260301")
		require.NoError(t, err)
		assert.Equal(t, int64(42), seq)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Database Error", func(t *testing.T) {
		mock.ExpectQuery(`INSERT INTO counters`).
			WithArgs("FLYX-20260301").
			WillReturnError(fmt.Errorf("connection reset"))

		_, err := repo.Increment(context.Background(), "FLYX-20260301")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "failed to increment counter")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepositoryGetByID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs("5b0d7c1e-8f52-4f4e-9d7a-2b7c1f9f0a01").
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(bookingRow(models.BookingStatusCreated, nil)...))

		b, err := repo.GetByID(context.Background(), "5b0d7c1e-8f52-4f4e-9d7a-2b7c1f9f0a01")
		require.NoError(t, err)
		assert.Equal(t, "FLYX-20260301-0001", b.BookingID)
		assert.Equal(t, models.BookingStatusCreated, b.Status)
		assert.Equal(t, models.StringArray{"12A", "12B"}, b.SeatNumbers)
		assert.Len(t, b.PassengerRefs, 2)
		assert.Equal(t, "ana@example.com", b.Contact.Email)
		assert.Nil(t, b.CancelledAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Not Found", func(t *testing.T) {
		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs("missing").
			WillReturnError(sql.ErrNoRows)

		_, err := repo.GetByID(context.Background(), "missing")
		assert.True(t, models.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepositoryCreateConflict(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)

	mock.ExpectExec(`INSERT INTO bookings`).
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := repo.Create(context.Background(), &models.Booking{ID: "x", BookingID: "FLYX-20260301-0001"})
	assert.True(t, models.IsConflict(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryTransitionStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	id := "5b0d7c1e-8f52-4f4e-9d7a-2b7c1f9f0a01"
	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE bookings\s+SET status`).
			WithArgs(id, models.BookingStatusCreated, models.BookingStatusConfirmed, nil, at).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(bookingRow(models.BookingStatusConfirmed, nil)...))

		b, err := repo.TransitionStatus(context.Background(), id, models.BookingStatusCreated, models.BookingStatusConfirmed, nil, at)
		require.NoError(t, err)
		assert.Equal(t, models.BookingStatusConfirmed, b.Status)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Lost race reports current status", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE bookings\s+SET status`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(bookingRow(models.BookingStatusCancelled, at)...))

		_, err := repo.TransitionStatus(context.Background(), id, models.BookingStatusCreated, models.BookingStatusConfirmed, nil, at)
		var terr models.TransitionError
		require.ErrorAs(t, err, &terr)
		assert.Equal(t, "cancelled", terr.From)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Missing booking", func(t *testing.T) {
		mock.ExpectQuery(`UPDATE bookings\s+SET status`).
			WillReturnError(sql.ErrNoRows)
		mock.ExpectQuery(`FROM bookings WHERE id = \$1`).
			WithArgs(id).
			WillReturnError(sql.ErrNoRows)

		_, err := repo.TransitionStatus(context.Background(), id, models.BookingStatusCreated, models.BookingStatusConfirmed, nil, at)
		assert.True(t, models.IsNotFound(err))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestBookingRepositoryList(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewBookingRepository(db)
	status := models.BookingStatusConfirmed
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bookings WHERE status = $1 AND booking_date >= $2 ORDER BY booking_date DESC, created_at DESC LIMIT $3`)).
		WithArgs(status, from, 20).
		WillReturnRows(sqlmock.NewRows(bookingRowColumns).AddRow(bookingRow(models.BookingStatusConfirmed, nil)...))

	bookings, err := repo.List(context.Background(), models.BookingFilter{Status: &status, From: &from, Limit: 20})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPassengerRepositoryInsertMany(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPassengerRepository(db)
	now := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	passengers := []*models.Passenger{
		{ID: "p-1", PassengerID: "PAX-20260301-0001", BookingRef: "b-1", Title: models.TitleMr, FirstName: "Juan", LastName: "Cruz", Nationality: "PH", DateOfBirth: now, CreatedAt: now, UpdatedAt: now},
		{ID: "p-2", PassengerID: "PAX-20260301-0002", BookingRef: "b-1", Title: models.TitleMs, FirstName: "Ana", LastName: "Cruz", Nationality: "PH", DateOfBirth: now, CreatedAt: now, UpdatedAt: now},
	}

	t.Run("Success commits once", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO passengers`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO passengers`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectCommit()

		require.NoError(t, repo.InsertMany(context.Background(), passengers))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure rolls back", func(t *testing.T) {
		mock.ExpectBegin()
		mock.ExpectExec(`INSERT INTO passengers`).WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`INSERT INTO passengers`).WillReturnError(fmt.Errorf("disk full"))
		mock.ExpectRollback()

		err := repo.InsertMany(context.Background(), passengers)
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "PAX-20260301-0002")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestFareLineRepositoryDeleteOrphans(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewFareLineRepository(db)
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`DELETE FROM fare_lines fl`).
		WithArgs(cutoff).
		WillReturnResult(sqlmock.NewResult(0, 3))

	deleted, err := repo.DeleteOrphans(context.Background(), cutoff)
	require.NoError(t, err)
	assert.Equal(t, int64(3), deleted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBookingRepositoryDeleteIncomplete(t *testing.T) {
	cutoff := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	t.Run("Removes passengers then bookings", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b.id FROM bookings b`).
			WithArgs(cutoff).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b-1").AddRow("b-2"))
		mock.ExpectExec(`DELETE FROM passengers WHERE booking_ref = ANY`).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectExec(`DELETE FROM bookings WHERE id = ANY`).
			WillReturnResult(sqlmock.NewResult(0, 2))
		mock.ExpectCommit()

		deleted, err := repo.DeleteIncomplete(context.Background(), cutoff)
		require.NoError(t, err)
		assert.Equal(t, int64(2), deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Nothing to remove", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b.id FROM bookings b`).
			WithArgs(cutoff).
			WillReturnRows(sqlmock.NewRows([]string{"id"}))
		mock.ExpectCommit()

		deleted, err := repo.DeleteIncomplete(context.Background(), cutoff)
		require.NoError(t, err)
		assert.Zero(t, deleted)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("Failure rolls back", func(t *testing.T) {
		db, mock := newMockDB(t)
		repo := NewBookingRepository(db)

		mock.ExpectBegin()
		mock.ExpectQuery(`SELECT b.id FROM bookings b`).
			WithArgs(cutoff).
			WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("b-1"))
		mock.ExpectExec(`DELETE FROM passengers WHERE booking_ref = ANY`).
			WillReturnError(fmt.Errorf("connection reset"))
		mock.ExpectRollback()

		_, err := repo.DeleteIncomplete(context.Background(), cutoff)
		assert.Error(t, err)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestPaymentRepositoryUpdateStatus(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewPaymentRepository(db)
	at := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "payment_id", "booking_ref", "amount", "currency", "method", "status",
		"billing_info", "card_info", "failure_reason", "created_at", "updated_at"}

	mock.ExpectQuery(`UPDATE payments`).
		WithArgs("pay-1", models.PaymentStatusSuccess, models.PaymentStatusRefunded, nil, at).
		WillReturnRows(sqlmock.NewRows(columns).AddRow(
			"pay-1", "PAY-20260301-0001", "b-1", 7360.0, "PHP", "Credit Card", "refunded",
			[]byte(`{"first_name":"Ana"}`), []byte(`{"last4":"0366","expiry":"12/99"}`), nil, at, at,
		))

	p, err := repo.UpdateStatus(context.Background(), "pay-1", models.PaymentStatusSuccess, models.PaymentStatusRefunded, nil, at)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentStatusRefunded, p.Status)
	assert.Equal(t, "0366", p.CardInfo.Last4)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMaskPassword(t *testing.T) {
	assert.Equal(t, "postgres://flyx:****@db:5432/flyx", maskPassword("postgres://flyx:s3cret@db:5432/flyx"))
}
