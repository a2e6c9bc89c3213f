package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminBookingHandler handles the operator booking console
type AdminBookingHandler struct {
	orchestrator *services.BookingOrchestratorService
	payments     *services.PaymentService
	audit        *services.AuditService
	logger       *logrus.Logger
}

// NewAdminBookingHandler creates a new AdminBookingHandler
func NewAdminBookingHandler(
	orchestrator *services.BookingOrchestratorService,
	payments *services.PaymentService,
	audit *services.AuditService,
	logger *logrus.Logger,
) *AdminBookingHandler {
	return &AdminBookingHandler{
		orchestrator: orchestrator,
		payments:     payments,
		audit:        audit,
		logger:       logger,
	}
}

// ============================================================================
// LIST BOOKINGS - GET /api/v1/admin/bookings
// ============================================================================

// ListBookings lists bookings filtered by status, date range and booking id
// @Summary List bookings
// @Tags Admin Bookings
// @Produce json
// @Param status query string false "created, confirmed, cancelled or completed"
// @Param start_date query string false "YYYY-MM-DD, inclusive"
// @Param end_date query string false "YYYY-MM-DD, inclusive"
// @Param booking_id query string false "Booking id prefix"
// @Success 200 {object} map[string]interface{}
// @Router /admin/bookings [get]
func (h *AdminBookingHandler) ListBookings(c *gin.Context) {
	filter, err := bookingFilterFromQuery(c)
	if err != nil {
		respondDomainError(c, h.logger, "list bookings", err)
		return
	}

	bookings, err := h.orchestrator.ListBookings(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, h.logger, "list bookings", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"bookings": bookings,
		"count":    len(bookings),
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// bookingFilterFromQuery parses the admin listing query string.
// end_date covers the whole day it names.
func bookingFilterFromQuery(c *gin.Context) (models.BookingFilter, error) {
	var filter models.BookingFilter
	filter.Limit, filter.Offset = pagination(c)
	filter.BookingID = strings.TrimSpace(c.Query("booking_id"))

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParseBookingStatus(raw)
		if err != nil {
			return filter, err
		}
		filter.Status = &status
	}

	if raw := c.Query("start_date"); raw != "" {
		from, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return filter, models.ValidationError{Field: "start_date", Msg: "must be YYYY-MM-DD", Err: err}
		}
		filter.From = &from
	}
	if raw := c.Query("end_date"); raw != "" {
		to, err := time.Parse(models.DateLayout, raw)
		if err != nil {
			return filter, models.ValidationError{Field: "end_date", Msg: "must be YYYY-MM-DD", Err: err}
		}
		to = to.Add(24*time.Hour - time.Nanosecond)
		filter.To = &to
	}

	return filter, nil
}

// ============================================================================
// GET BOOKING - GET /api/v1/admin/bookings/:id
// ============================================================================

// GetBooking returns a hydrated booking by FLYX id or internal id
// @Summary Get booking
// @Tags Admin Bookings
// @Produce json
// @Param id path string true "Booking id"
// @Success 200 {object} models.BookingDetails
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Router /admin/bookings/{id} [get]
func (h *AdminBookingHandler) GetBooking(c *gin.Context) {
	details, err := h.orchestrator.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, "get booking", err)
		return
	}

	c.JSON(http.StatusOK, details)
}

// ============================================================================
// UPDATE STATUS - PATCH /api/v1/admin/bookings/:id/status
// ============================================================================

// UpdateStatus cancels or completes a booking
// @Summary Update booking status
// @Description Confirmation is reserved for successful payments
// @Tags Admin Bookings
// @Accept json
// @Produce json
// @Param id path string true "Booking id"
// @Param request body models.UpdateBookingStatusRequest true "New status"
// @Success 200 {object} models.Booking
// @Failure 409 {object} map[string]interface{} "Transition not allowed"
// @Router /admin/bookings/{id}/status [patch]
func (h *AdminBookingHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdateBookingStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	booking, err := h.orchestrator.SetStatus(c.Request.Context(), c.Param("id"), req.Status, requestMeta(c))
	if err != nil {
		respondDomainError(c, h.logger, "update booking status", err)
		return
	}

	c.JSON(http.StatusOK, booking)
}

// ============================================================================
// PAYMENT AUDITS - GET /api/v1/admin/bookings/:id/payment-audits
// ============================================================================

// GetPaymentAudits returns the payment trail of a booking in order
func (h *AdminBookingHandler) GetPaymentAudits(c *gin.Context) {
	audits, err := h.payments.GetPaymentAudits(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, "get payment audits", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audits": audits,
		"count":  len(audits),
	})
}

// ============================================================================
// AUDIT HISTORY - GET /api/v1/admin/bookings/:id/audit-logs
// ============================================================================

// GetAuditHistory returns operator actions taken on a booking
func (h *AdminBookingHandler) GetAuditHistory(c *gin.Context) {
	details, err := h.orchestrator.GetBooking(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, "get booking audit history", err)
		return
	}

	limit, _ := pagination(c)
	logs, err := h.audit.GetEntityHistory(c.Request.Context(), "booking", details.Booking.ID, limit)
	if err != nil {
		respondDomainError(c, h.logger, "get booking audit history", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"audit_logs": logs,
		"count":      len(logs),
	})
}
