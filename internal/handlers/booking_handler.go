package handlers

import (
	"net/http"

	"github.com/flyx/flyx-backend/internal/middleware"
	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// BookingHandler handles customer booking endpoints
type BookingHandler struct {
	orchestrator *services.BookingOrchestratorService
	logger       *logrus.Logger
}

// NewBookingHandler creates a new BookingHandler
func NewBookingHandler(orchestrator *services.BookingOrchestratorService, logger *logrus.Logger) *BookingHandler {
	return &BookingHandler{
		orchestrator: orchestrator,
		logger:       logger,
	}
}

// ============================================================================
// CREATE BOOKING - POST /api/v1/bookings
// ============================================================================

// CreateBooking prices the selected flights and reserves seats for every passenger
// @Summary Create booking
// @Description Guests may book without a token; an authenticated caller is linked to the booking
// @Tags Bookings
// @Accept json
// @Produce json
// @Param request body models.CreateBookingRequest true "Booking request"
// @Success 201 {object} models.BookingDetails
// @Failure 400 {object} map[string]interface{} "Validation error"
// @Failure 404 {object} map[string]interface{} "Flight not found"
// @Router /bookings [post]
func (h *BookingHandler) CreateBooking(c *gin.Context) {
	var req models.CreateBookingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	// Guest bookings carry no user id
	if userCtx, ok := middleware.GetUserContext(c); ok {
		userID := userCtx.UserID
		req.UserID = &userID
	}

	details, err := h.orchestrator.CreateBooking(c.Request.Context(), &req)
	if err != nil {
		respondDomainError(c, h.logger, "create booking", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"booking_id": details.Booking.BookingID,
		"request_id": middleware.GetRequestID(c),
	}).Info("Booking created")

	c.JSON(http.StatusCreated, details)
}

// ============================================================================
// CURRENT BOOKING - GET /api/v1/bookings/current
// ============================================================================

// GetCurrentBooking returns the caller's latest created or confirmed booking
// @Summary Get current booking
// @Tags Bookings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} models.BookingDetails
// @Failure 404 {object} map[string]interface{} "No active booking"
// @Router /bookings/current [get]
func (h *BookingHandler) GetCurrentBooking(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	details, err := h.orchestrator.GetCurrentBooking(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondDomainError(c, h.logger, "get current booking", err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ============================================================================
// BOOKING HISTORY - GET /api/v1/bookings/history
// ============================================================================

// GetBookingHistory lists every booking the caller has made, newest first
// @Summary Get booking history
// @Tags Bookings
// @Produce json
// @Param Authorization header string true "Bearer token"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{} "No bookings"
// @Router /bookings/history [get]
func (h *BookingHandler) GetBookingHistory(c *gin.Context) {
	userCtx, exists := middleware.GetUserContext(c)
	if !exists {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "user not authenticated"})
		return
	}

	bookings, err := h.orchestrator.GetBookingHistory(c.Request.Context(), userCtx.UserID)
	if err != nil {
		respondDomainError(c, h.logger, "get booking history", err)
		return
	}
	if len(bookings) == 0 {
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": "No bookings found for this user",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
	})
}
