package handlers

import (
	"net/http"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/flyx/flyx-backend/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// PaymentHandler handles the customer charge endpoint
type PaymentHandler struct {
	payments *services.PaymentService
	logger   *logrus.Logger
}

// NewPaymentHandler creates a new PaymentHandler
func NewPaymentHandler(payments *services.PaymentService, logger *logrus.Logger) *PaymentHandler {
	return &PaymentHandler{
		payments: payments,
		logger:   logger,
	}
}

// ============================================================================
// CHARGE - POST /api/v1/payments/charge
// ============================================================================

// ChargePayment charges a card for a created booking and confirms it on approval
// @Summary Charge payment
// @Description A declined card returns 402 with the recorded payment; the booking stays payable
// @Tags Payments
// @Accept json
// @Produce json
// @Param request body models.ChargeRequest true "Charge request"
// @Success 201 {object} models.ChargeResult
// @Failure 400 {object} map[string]interface{} "Invalid card or billing info"
// @Failure 402 {object} models.ChargeResult "Payment declined"
// @Failure 404 {object} map[string]interface{} "Booking not found"
// @Failure 409 {object} map[string]interface{} "Booking is not awaiting payment"
// @Router /payments/charge [post]
func (h *PaymentHandler) ChargePayment(c *gin.Context) {
	var req models.ChargeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBindError(c, err)
		return
	}

	result, err := h.payments.ChargePayment(c.Request.Context(), &req, requestMeta(c))
	if err != nil {
		respondDomainError(c, h.logger, "charge payment", err)
		return
	}

	if err := result.Err(); err != nil {
		respondPaymentDeclined(c, err, result)
		return
	}

	c.JSON(http.StatusCreated, result)
}
