package handlers

import (
	"net/http"
	"strings"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PassengerHandler handles admin passenger endpoints
type PassengerHandler struct {
	passengers *services.PassengerService
	audit      *services.AuditService
	logger     *logrus.Logger
}

// NewPassengerHandler creates a new PassengerHandler
func NewPassengerHandler(passengers *services.PassengerService, audit *services.AuditService, logger *logrus.Logger) *PassengerHandler {
	return &PassengerHandler{
		passengers: passengers,
		audit:      audit,
		logger:     logger,
	}
}

// ============================================================================
// LIST PASSENGERS - GET /api/v1/admin/passengers
// ============================================================================

// ListPassengers lists passengers, optionally by booking or nationality
func (h *PassengerHandler) ListPassengers(c *gin.Context) {
	var filter models.PassengerFilter
	filter.Limit, filter.Offset = pagination(c)
	filter.BookingRef = strings.TrimSpace(c.Query("booking_ref"))
	filter.Nationality = strings.TrimSpace(c.Query("nationality"))

	passengers, err := h.passengers.ListPassengers(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, h.logger, "list passengers", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"passengers": passengers,
		"count":      len(passengers),
	})
}

// ============================================================================
// GET PASSENGER - GET /api/v1/admin/passengers/:id
// ============================================================================

// GetPassenger returns a passenger by PAX id or internal id
func (h *PassengerHandler) GetPassenger(c *gin.Context) {
	passenger, err := h.passengers.GetPassenger(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, "get passenger", err)
		return
	}

	c.JSON(http.StatusOK, passenger)
}

// ============================================================================
// UPDATE PASSENGER - PUT /api/v1/admin/passengers/:id
// ============================================================================

// UpdatePassenger edits a passenger's personal details
func (h *PassengerHandler) UpdatePassenger(c *gin.Context) {
	var req models.UpdatePassengerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	passenger, err := h.passengers.UpdatePassenger(c.Request.Context(), c.Param("id"), &req)
	if err != nil {
		respondDomainError(c, h.logger, "update passenger", err)
		return
	}

	// Audit failures are logged by the service and never fail the edit
	if h.audit != nil {
		_ = h.audit.LogPassengerUpdate(c.Request.Context(), passenger, requestMeta(c))
	}

	c.JSON(http.StatusOK, passenger)
}
