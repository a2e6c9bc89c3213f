package handlers

import (
	"net/http"
	"strings"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// AdminPaymentHandler handles the operator payment console
type AdminPaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewAdminPaymentHandler creates a new AdminPaymentHandler
func NewAdminPaymentHandler(payments *services.PaymentService, logger *logrus.Logger) *AdminPaymentHandler {
	return &AdminPaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// ============================================================================
// LIST PAYMENTS - GET /api/v1/admin/payments
// ============================================================================

// ListPayments lists charge attempts, optionally by status or booking
func (h *AdminPaymentHandler) ListPayments(c *gin.Context) {
	var filter models.PaymentFilter
	filter.Limit, filter.Offset = pagination(c)
	filter.BookingRef = strings.TrimSpace(c.Query("booking_ref"))

	if raw := c.Query("status"); raw != "" {
		status, err := models.ParsePaymentStatus(raw)
		if err != nil {
			respondDomainError(c, h.logger, "list payments", err)
			return
		}
		filter.Status = &status
	}

	payments, err := h.payments.ListPayments(c.Request.Context(), filter)
	if err != nil {
		respondDomainError(c, h.logger, "list payments", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"payments": payments,
		"count":    len(payments),
		"limit":    filter.Limit,
		"offset":   filter.Offset,
	})
}

// ============================================================================
// GET PAYMENT - GET /api/v1/admin/payments/:id
// ============================================================================

// GetPayment returns a payment by PAY id or internal id
func (h *AdminPaymentHandler) GetPayment(c *gin.Context) {
	payment, err := h.payments.GetPayment(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondDomainError(c, h.logger, "get payment", err)
		return
	}

	c.JSON(http.StatusOK, payment)
}

// ============================================================================
// UPDATE STATUS - PATCH /api/v1/admin/payments/:id/status
// ============================================================================

// UpdateStatus moves a payment along its lifecycle, e.g. success to refunded
func (h *AdminPaymentHandler) UpdateStatus(c *gin.Context) {
	var req models.UpdatePaymentStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	payment, err := h.payments.UpdatePaymentStatus(c.Request.Context(), c.Param("id"), req.Status, requestMeta(c))
	if err != nil {
		respondDomainError(c, h.logger, "update payment status", err)
		return
	}

	h.logger.WithFields(logrus.Fields{
		"payment_id": payment.PaymentID,
		"status":     payment.Status,
	}).Info("Payment status updated by admin")

	c.JSON(http.StatusOK, payment)
}
