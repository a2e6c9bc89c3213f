package handlers

import (
	"net/http"
	"testing"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBooking_Guest(t *testing.T) {
	srv := newTestServer(t, services.FixedOutcome(true))
	flightID := srv.addFlight(t, 1000)

	details := srv.createBooking(t, "", flightID, models.CabinEconomy, 1)

	booking := details.Booking
	assert.Equal(t, "FLYX-20260301-0001", booking.BookingID)
	assert.Equal(t, models.BookingStatusCreated, booking.Status)
	assert.Nil(t, booking.UserID)
	assert.InDelta(t, 1340.0, booking.TotalAmount, 0.001)
	assert.Equal(t, "gabriela.silang@example.com", booking.Contact.Email)
	assert.Len(t, booking.SeatNumbers, 1)
	require.Len(t, details.Passengers, 1)
	assert.Equal(t, "PAX-20260301-0001", details.Passengers[0].PassengerID)
}

func TestCreateBooking_LinksAuthenticatedUser(t *testing.T) {
	srv := newTestServer(t, services.FixedOutcome(true))
	flightID := srv.addFlight(t, 1000)
	token := srv.token(t, "user-42")

	created := srv.createBooking(t, token, flightID, models.CabinBusiness, 2)
	require.NotNil(t, created.Booking.UserID)
	assert.Equal(t, "user-42", *created.Booking.UserID)

	t.Run("current booking", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/bookings/current", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var details models.BookingDetails
		decode(t, w, &details)
		assert.Equal(t, created.Booking.BookingID, details.Booking.BookingID)
		assert.Len(t, details.Passengers, 2)
	})

	t.Run("history", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/bookings/history", token, nil)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		var body struct {
			Bookings []models.Booking `json:"bookings"`
			Count    int              `json:"count"`
		}
		decode(t, w, &body)
		assert.Equal(t, 1, body.Count)
		assert.Equal(t, created.Booking.BookingID, body.Bookings[0].BookingID)
	})

	t.Run("other user has nothing", func(t *testing.T) {
		other := srv.token(t, "user-99")
		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/bookings/current", other, nil).Code)
		assert.Equal(t, http.StatusNotFound, srv.do(t, http.MethodGet, "/api/v1/bookings/history", other, nil).Code)
	})
}

func TestCreateBooking_Errors(t *testing.T) {
	srv := newTestServer(t, services.FixedOutcome(true))
	flightID := srv.addFlight(t, 1000)

	t.Run("malformed body", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/bookings", "", map[string]interface{}{"flight_ref": flightID})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unsupported cabin", func(t *testing.T) {
		body := bookingBody(flightID, models.CabinClass("premium"), 1)
		w := srv.do(t, http.MethodPost, "/api/v1/bookings", "", body)
		require.Equal(t, http.StatusBadRequest, w.Code)

		var resp map[string]interface{}
		decode(t, w, &resp)
		assert.Equal(t, "validation_failed", resp["error"])
		assert.Equal(t, "cabin_class", resp["field"])
	})

	t.Run("unknown flight", func(t *testing.T) {
		body := bookingBody(uuid.New().String(), models.CabinEconomy, 1)
		w := srv.do(t, http.MethodPost, "/api/v1/bookings", "", body)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Zero(t, srv.store.Counts()["bookings"])
	})

	t.Run("invalid token on optional auth", func(t *testing.T) {
		w := srv.do(t, http.MethodPost, "/api/v1/bookings", "not-a-token", bookingBody(flightID, models.CabinEconomy, 1))
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})

	t.Run("current requires a token", func(t *testing.T) {
		w := srv.do(t, http.MethodGet, "/api/v1/bookings/current", "", nil)
		assert.Equal(t, http.StatusUnauthorized, w.Code)
	})
}
