package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

// respondDomainError maps service errors onto HTTP status codes
func respondDomainError(c *gin.Context, logger *logrus.Logger, operation string, err error) {
	var (
		validation models.ValidationError
		notFound   models.NotFoundError
		transition models.TransitionError
		conflict   models.ConflictError
	)

	switch {
	case errors.As(err, &validation):
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "validation_failed",
			"field":   validation.Field,
			"message": validation.Error(),
		})
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{
			"error":   "not_found",
			"message": notFound.Error(),
		})
	case errors.As(err, &transition):
		c.JSON(http.StatusConflict, gin.H{
			"error":   "invalid_transition",
			"from":    transition.From,
			"to":      transition.To,
			"message": transition.Error(),
		})
	case errors.As(err, &conflict):
		logger.WithError(err).Warn(operation + ": persistence conflict")
		c.JSON(http.StatusConflict, gin.H{
			"error":   "conflict",
			"message": "The request conflicted with another update, please retry",
		})
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		logger.WithError(err).Info(operation + ": request cancelled")
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"error":   "request_cancelled",
			"message": "The request was cancelled before it completed",
		})
	default:
		logger.WithError(err).Error(operation + " failed")
		c.JSON(http.StatusInternalServerError, gin.H{
			"error":   "internal_error",
			"message": "Something went wrong, please try again",
		})
	}
}

// respondPaymentDeclined answers a refused charge with 402 and the recorded attempt
func respondPaymentDeclined(c *gin.Context, err error, result *models.ChargeResult) {
	c.JSON(http.StatusPaymentRequired, gin.H{
		"error":   "payment_declined",
		"message": err.Error(),
		"result":  result,
	})
}

// respondBindError reports a malformed request body
func respondBindError(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, gin.H{
		"error":   "invalid_request",
		"message": err.Error(),
	})
}
