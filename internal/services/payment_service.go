package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// paymentIDAttempts bounds how many PAY ids are drawn for one charge when
// the store keeps reporting duplicates
const paymentIDAttempts = 3

// RequestMeta carries caller details recorded on audit entries
type RequestMeta struct {
	ActorID       *string
	IPAddress     string
	UserAgent     string
	CorrelationID string
}

// PaymentService charges bookings through the mock gateway and administers payment records
type PaymentService struct {
	payments  PaymentStore
	bookings  BookingStore
	audits    PaymentAuditStore
	sequence  *SequenceGenerator
	evaluator *PaymentEvaluator
	status    *BookingStatusMachine
	currency  string
	now       Clock
	logger    *logrus.Logger
}

// NewPaymentService creates a new payment service
func NewPaymentService(
	payments PaymentStore,
	bookings BookingStore,
	audits PaymentAuditStore,
	sequence *SequenceGenerator,
	evaluator *PaymentEvaluator,
	status *BookingStatusMachine,
	currency string,
	now Clock,
	logger *logrus.Logger,
) *PaymentService {
	if now == nil {
		now = UTCClock
	}
	return &PaymentService{
		payments:  payments,
		bookings:  bookings,
		audits:    audits,
		sequence:  sequence,
		evaluator: evaluator,
		status:    status,
		currency:  currency,
		now:       now,
		logger:    logger,
	}
}

// ============================================================================
// CHARGE
// ============================================================================

// ChargePayment validates the card, asks the gateway for a verdict and
// persists one Payment for the attempt. An approved charge confirms the
// booking. A declined charge is returned as a result with Outcome declined
// and leaves the booking untouched so the client can retry.
func (s *PaymentService) ChargePayment(ctx context.Context, req *models.ChargeRequest, meta RequestMeta) (*models.ChargeResult, error) {
	startTime := time.Now()

	// 1. Validate request fields
	method, err := models.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	if req.Amount <= 0 {
		return nil, models.ValidationError{Field: "amount", Msg: "must be greater than zero"}
	}
	if err := req.BillingInfo.Validate(); err != nil {
		return nil, err
	}

	// 2. Booking must exist and still await payment
	booking, err := resolveBooking(ctx, s.bookings, req.BookingID)
	if err != nil {
		return nil, err
	}
	if booking.Status != models.BookingStatusCreated {
		return nil, models.TransitionError{
			Resource: "booking",
			From:     string(booking.Status),
			To:       string(models.BookingStatusConfirmed),
		}
	}

	attempt := models.NewPaymentAudit(models.PaymentEventChargeAttempted, models.PaymentSourceBackend).
		SetBooking(booking.ID).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID)
	matches := attempt.SetAmounts(booking.TotalAmount, req.Amount, s.currency)
	s.audit(ctx, attempt)

	// The charged amount must settle the booking total exactly
	if !matches {
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.BookingID,
			"expected":   booking.TotalAmount,
			"received":   req.Amount,
		}).Warn("Charge amount does not match booking total")

		err := models.ValidationError{
			Field: "amount",
			Msg:   fmt.Sprintf("must equal the booking total of %.2f", models.RoundMoney(booking.TotalAmount)),
		}
		rejected := models.NewPaymentAudit(models.PaymentEventValidationFailed, models.PaymentSourceBackend).
			SetBooking(booking.ID).
			SetError(err.Error(), "AMOUNT_MISMATCH").
			SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID).
			SetProcessingTime(startTime)
		rejected.SetAmounts(booking.TotalAmount, req.Amount, s.currency)
		s.audit(ctx, rejected)
		return nil, err
	}

	// 3. Card validation and gateway verdict
	verdict, err := s.evaluator.Evaluate(ctx, req.Card)
	if err != nil {
		if models.IsValidation(err) {
			s.audit(ctx, models.NewPaymentAudit(models.PaymentEventValidationFailed, models.PaymentSourceBackend).
				SetBooking(booking.ID).
				SetError(err.Error(), "CARD_INVALID").
				SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID).
				SetProcessingTime(startTime))
		}
		return nil, err
	}

	// The gateway has ruled. From here on the outcome is recorded even if
	// the caller goes away.
	settleCtx := context.WithoutCancel(ctx)

	// 4. Persist the attempt with the card masked to its last four digits
	payment, err := s.recordPayment(settleCtx, booking, req, method, verdict)
	if err != nil {
		return nil, err
	}

	result := &models.ChargeResult{Payment: payment, Booking: booking}

	if !verdict.Approved {
		result.Outcome = models.ChargeDeclined
		result.Reason = verdict.Reason

		s.audit(settleCtx, models.NewPaymentAudit(models.PaymentEventFailed, models.PaymentSourceMockGateway).
			SetBooking(booking.ID).
			SetPayment(payment.ID).
			SetPaymentStatus(payment.Status).
			SetError(verdict.Reason, "DECLINED").
			SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID).
			SetProcessingTime(startTime))

		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.BookingID,
			"payment_id": payment.PaymentID,
		}).Info("Payment declined")
		return result, nil
	}

	s.audit(settleCtx, models.NewPaymentAudit(models.PaymentEventSuccess, models.PaymentSourceMockGateway).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetPaymentStatus(payment.Status).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID).
		SetProcessingTime(startTime))

	// 5. Confirm the booking
	confirmed, err := s.status.Transition(settleCtx, booking, models.BookingStatusConfirmed)
	if err != nil {
		s.audit(settleCtx, models.NewPaymentAudit(models.PaymentEventBookingConfirmFailed, models.PaymentSourceBackend).
			SetBooking(booking.ID).
			SetPayment(payment.ID).
			SetError(err.Error(), "CONFIRMATION_FAILED").
			SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID))

		if models.IsInvalidTransition(err) {
			s.refund(settleCtx, payment, "booking changed state before confirmation", meta)
		}
		return nil, err
	}

	result.Outcome = models.ChargeApproved
	result.Booking = confirmed

	s.audit(settleCtx, models.NewPaymentAudit(models.PaymentEventBookingConfirmed, models.PaymentSourceBackend).
		SetBooking(booking.ID).
		SetPayment(payment.ID).
		SetPaymentStatus(payment.Status).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID).
		SetProcessingTime(startTime))

	s.logger.WithFields(logrus.Fields{
		"booking_id": booking.BookingID,
		"payment_id": payment.PaymentID,
		"amount":     payment.Amount,
	}).Info("Payment succeeded, booking confirmed")

	return result, nil
}

func (s *PaymentService) recordPayment(
	ctx context.Context,
	booking *models.Booking,
	req *models.ChargeRequest,
	method models.PaymentMethod,
	verdict *Verdict,
) (*models.Payment, error) {
	now := s.now()
	payment := &models.Payment{
		ID:          uuid.New().String(),
		BookingRef:  booking.ID,
		Amount:      models.RoundMoney(req.Amount),
		Currency:    s.currency,
		Method:      method,
		Status:      models.PaymentStatusSuccess,
		BillingInfo: req.BillingInfo,
		CardInfo: models.CardInfo{
			Last4:  verdict.Last4,
			Expiry: req.Card.Expiry,
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if !verdict.Approved {
		reason := verdict.Reason
		payment.Status = models.PaymentStatusFailed
		payment.FailureReason = &reason
	}

	var lastErr error
	for attempt := 1; attempt <= paymentIDAttempts; attempt++ {
		paymentID, err := s.sequence.NextID(ctx, IDKindPayment)
		if err != nil {
			return nil, err
		}
		payment.PaymentID = paymentID

		err = s.payments.Create(ctx, payment)
		if err == nil {
			return payment, nil
		}
		if !models.IsConflict(err) {
			return nil, err
		}

		lastErr = err
		s.logger.WithFields(logrus.Fields{
			"booking_id": booking.BookingID,
			"payment_id": paymentID,
			"attempt":    attempt,
		}).Warn("Payment id already taken, retrying with a new id")
	}
	return nil, fmt.Errorf("failed to allocate a unique payment id after %d attempts: %w", paymentIDAttempts, lastErr)
}

func (s *PaymentService) refund(ctx context.Context, payment *models.Payment, reason string, meta RequestMeta) {
	refunded, err := s.payments.UpdateStatus(ctx, payment.ID, models.PaymentStatusSuccess, models.PaymentStatusRefunded, &reason, s.now())
	if err != nil {
		s.logger.WithError(err).WithField("payment_id", payment.PaymentID).Error("Failed to refund payment")
		return
	}
	*payment = *refunded

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventRefundCompleted, models.PaymentSourceBackend).
		SetBooking(payment.BookingRef).
		SetPayment(payment.ID).
		SetPaymentStatus(payment.Status).
		SetDetails(map[string]interface{}{"reason": reason}).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID))

	s.logger.WithFields(logrus.Fields{
		"payment_id": payment.PaymentID,
		"reason":     reason,
	}).Warn("Payment refunded")
}

// audit writes a payment audit entry. Audit failures never fail the charge.
func (s *PaymentService) audit(ctx context.Context, entry *models.PaymentAudit) {
	entry.CreatedAt = s.now()
	if err := s.audits.Log(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("event_type", entry.EventType).Warn("Failed to write payment audit")
	}
}

// ============================================================================
// ADMIN
// ============================================================================

// ListPayments returns payments matching filter, newest first
func (s *PaymentService) ListPayments(ctx context.Context, filter models.PaymentFilter) ([]models.Payment, error) {
	return s.payments.List(ctx, filter)
}

// GetPayment returns a payment by UUID or PAY reference
func (s *PaymentService) GetPayment(ctx context.Context, ref string) (*models.Payment, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, idPrefixes[IDKindPayment]+"-") {
		return s.payments.GetByPaymentID(ctx, ref)
	}
	if _, err := uuid.Parse(ref); err != nil {
		return nil, models.NotFoundError{Resource: "payment", ID: ref}
	}
	return s.payments.GetByID(ctx, ref)
}

// GetPaymentAudits returns the audit trail of a booking's charges
func (s *PaymentService) GetPaymentAudits(ctx context.Context, bookingRef string) ([]models.PaymentAudit, error) {
	booking, err := resolveBooking(ctx, s.bookings, bookingRef)
	if err != nil {
		return nil, err
	}
	return s.audits.ListByBooking(ctx, booking.ID)
}

// UpdatePaymentStatus applies an operator status change to a payment
func (s *PaymentService) UpdatePaymentStatus(ctx context.Context, ref string, status string, meta RequestMeta) (*models.Payment, error) {
	to, err := models.ParsePaymentStatus(status)
	if err != nil {
		return nil, err
	}

	payment, err := s.GetPayment(ctx, ref)
	if err != nil {
		return nil, err
	}
	if !payment.Status.CanTransitionTo(to) {
		return nil, models.TransitionError{Resource: "payment", From: string(payment.Status), To: string(to)}
	}

	from := payment.Status
	updated, err := s.payments.UpdateStatus(ctx, payment.ID, from, to, nil, s.now())
	if err != nil {
		return nil, err
	}

	s.audit(ctx, models.NewPaymentAudit(models.PaymentEventStatusChanged, models.PaymentSourceAdmin).
		SetBooking(updated.BookingRef).
		SetPayment(updated.ID).
		SetPaymentStatus(updated.Status).
		SetDetails(map[string]interface{}{
			"from":     string(from),
			"to":       string(to),
			"actor_id": meta.ActorID,
		}).
		SetMetadata(meta.IPAddress, meta.UserAgent, meta.CorrelationID))

	s.logger.WithFields(logrus.Fields{
		"payment_id": updated.PaymentID,
		"from":       from,
		"to":         to,
	}).Info("Payment status changed")

	return updated, nil
}
