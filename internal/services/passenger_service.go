package services

import (
	"context"
	"strings"

	"github.com/flyx/flyx-backend/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// PassengerService administers passengers created by the booking orchestrator
type PassengerService struct {
	passengers PassengerStore
	now        Clock
	logger     *logrus.Logger
}

// NewPassengerService creates a new passenger service
func NewPassengerService(passengers PassengerStore, now Clock, logger *logrus.Logger) *PassengerService {
	if now == nil {
		now = UTCClock
	}
	return &PassengerService{passengers: passengers, now: now, logger: logger}
}

// ListPassengers returns passengers matching filter
func (s *PassengerService) ListPassengers(ctx context.Context, filter models.PassengerFilter) ([]models.Passenger, error) {
	return s.passengers.List(ctx, filter)
}

// GetPassenger returns a passenger by UUID or PAX reference
func (s *PassengerService) GetPassenger(ctx context.Context, ref string) (*models.Passenger, error) {
	ref = strings.TrimSpace(ref)
	if strings.HasPrefix(ref, idPrefixes[IDKindPassenger]+"-") {
		list, err := s.passengers.List(ctx, models.PassengerFilter{PassengerID: ref, Limit: 1})
		if err != nil {
			return nil, err
		}
		if len(list) == 0 {
			return nil, models.NotFoundError{Resource: "passenger", ID: ref}
		}
		return &list[0], nil
	}
	if _, err := uuid.Parse(ref); err != nil {
		return nil, models.NotFoundError{Resource: "passenger", ID: ref}
	}
	return s.passengers.GetByID(ctx, ref)
}

// UpdatePassenger edits the traveller details of a passenger
func (s *PassengerService) UpdatePassenger(ctx context.Context, ref string, req *models.UpdatePassengerRequest) (*models.Passenger, error) {
	passenger, err := s.GetPassenger(ctx, ref)
	if err != nil {
		return nil, err
	}

	if err := req.Apply(passenger, s.now()); err != nil {
		return nil, err
	}

	if err := s.passengers.Update(ctx, passenger); err != nil {
		return nil, err
	}

	s.logger.WithFields(logrus.Fields{
		"passenger_id": passenger.PassengerID,
		"booking_ref":  passenger.BookingRef,
	}).Info("Passenger updated")

	return passenger, nil
}
