package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/flyx/flyx-backend/internal/database/memory"
	"github.com/flyx/flyx-backend/internal/middleware"
	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/flyx/flyx-backend/pkg/jwt"
	"github.com/flyx/flyx-backend/pkg/validator"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return testNow }

// testServer is the full API router over an in-memory store
type testServer struct {
	router   *gin.Engine
	store    *memory.Store
	sequence *services.SequenceGenerator
	jwt      *jwt.Service
}

func newTestServer(t *testing.T, outcome services.OutcomeSource) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	logger := logrus.New()
	logger.SetOutput(io.Discard)

	store := memory.New()
	sequence := services.NewSequenceGenerator(store.Counters(), fixedClock)
	status := services.NewBookingStatusMachine(store.Bookings(), fixedClock, logger)
	audit := services.NewAuditService(store.AuditLogs(), true, fixedClock, logger)
	evaluator := services.NewPaymentEvaluator(validator.NewCardValidatorWithClock(fixedClock), outcome, 0)

	orchestrator := services.NewBookingOrchestratorService(
		store.Flights(),
		store.FareLines(),
		store.Bookings(),
		store.Passengers(),
		sequence,
		services.NewFareCalculator(),
		services.NewSeatAllocatorWithSource(rand.NewSource(7)),
		status,
		audit,
		services.DefaultOrchestratorConfig(),
		fixedClock,
		logger,
	)
	payments := services.NewPaymentService(
		store.Payments(),
		store.Bookings(),
		store.PaymentAudits(),
		sequence,
		evaluator,
		status,
		"PHP",
		fixedClock,
		logger,
	)
	passengers := services.NewPassengerService(store.Passengers(), fixedClock, logger)

	jwtService := jwt.NewService("handler-test-secret", time.Hour)

	router := gin.New()
	router.Use(middleware.RequestID())
	RegisterRoutes(router, Handlers{
		Bookings:      NewBookingHandler(orchestrator, logger),
		Payments:      NewPaymentHandler(payments, logger),
		AdminBookings: NewAdminBookingHandler(orchestrator, payments, audit, logger),
		AdminPayments: NewAdminPaymentHandler(payments, logger),
		Passengers:    NewPassengerHandler(passengers, audit, logger),
	}, jwtService, logger)

	return &testServer{router: router, store: store, sequence: sequence, jwt: jwtService}
}

func (s *testServer) token(t *testing.T, userID string, roles ...string) string {
	t.Helper()
	token, err := s.jwt.GenerateAccessToken(userID, userID+"@example.com", roles)
	require.NoError(t, err)
	return token
}

func (s *testServer) adminToken(t *testing.T) string {
	return s.token(t, "admin-1", middleware.RoleAdmin)
}

// do sends a request and returns the recorder. body may be nil.
func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) addFlight(t *testing.T, basePrice float64) string {
	t.Helper()

	number, err := s.sequence.NextID(context.Background(), services.IDKindFlight)
	require.NoError(t, err)

	flight := &models.Flight{
		ID:            uuid.New().String(),
		FlightNumber:  number,
		Airline:       "Flyx Air",
		Origin:        "MNL",
		Destination:   "DVO",
		DepartureTime: testNow.Add(72 * time.Hour),
		ArrivalTime:   testNow.Add(74 * time.Hour),
		BasePrice:     basePrice,
		Currency:      "PHP",
		CreatedAt:     testNow,
	}
	require.NoError(t, s.store.Flights().Create(context.Background(), flight))
	return flight.ID
}

// createBooking books passengers on flightID and returns the created details
func (s *testServer) createBooking(t *testing.T, token, flightID string, cabin models.CabinClass, passengers int) models.BookingDetails {
	t.Helper()

	w := s.do(t, http.MethodPost, "/api/v1/bookings", token, bookingBody(flightID, cabin, passengers))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	var details models.BookingDetails
	decode(t, w, &details)
	return details
}

func bookingBody(flightID string, cabin models.CabinClass, passengers int) map[string]interface{} {
	travellers := make([]map[string]interface{}, 0, passengers)
	for i := 0; i < passengers; i++ {
		travellers = append(travellers, map[string]interface{}{
			"title":         "Mr",
			"first_name":    "Jose",
			"last_name":     "Rizal",
			"nationality":   "PH",
			"date_of_birth": "1985-06-19",
		})
	}
	return map[string]interface{}{
		"flight_ref":  flightID,
		"cabin_class": cabin,
		"trip_type":   "oneWay",
		"passengers":  travellers,
		"booking_contact": map[string]interface{}{
			"title":      "Ms",
			"first_name": "Gabriela",
			"last_name":  "Silang",
			"phone":      "+639181112222",
			"email":      "Gabriela.Silang@Example.com",
		},
	}
}

func chargeBody(bookingID string, amount float64, cardNumber string) map[string]interface{} {
	return map[string]interface{}{
		"booking_id": bookingID,
		"amount":     amount,
		"card": map[string]interface{}{
			"number": cardNumber,
			"cvv":    "123",
			"expiry": "12/30",
		},
		"billing_info": map[string]interface{}{
			"first_name":     "Gabriela",
			"last_name":      "Silang",
			"street_address": "12 Session Rd",
			"city":           "Baguio",
			"country":        "PH",
			"contact_number": "+639181112222",
			"email":          "gabriela@example.com",
		},
	}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), v), w.Body.String())
}

const validCard = "4532015112830366"
