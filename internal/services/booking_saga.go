package services

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// compensationTimeout bounds the undo of a failed booking. Compensation runs
// on a context detached from the caller so a cancelled request still cleans up.
const compensationTimeout = 10 * time.Second

type compensation struct {
	name string
	undo func(ctx context.Context) error
}

// bookingSaga records an undo action for every write of a booking in progress
type bookingSaga struct {
	steps  []compensation
	logger *logrus.Logger
	fields logrus.Fields
}

func newBookingSaga(logger *logrus.Logger, fields logrus.Fields) *bookingSaga {
	return &bookingSaga{logger: logger, fields: fields}
}

// record registers undo to run if a later step fails
func (s *bookingSaga) record(name string, undo func(ctx context.Context) error) {
	s.steps = append(s.steps, compensation{name: name, undo: undo})
}

// compensate runs every recorded undo in reverse order. A failing undo is
// logged and the rest still run; leftover fare lines are swept by the cron job.
func (s *bookingSaga) compensate(ctx context.Context, cause error) {
	if len(s.steps) == 0 {
		return
	}

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), compensationTimeout)
	defer cancel()

	s.logger.WithError(cause).WithFields(s.fields).Warn("Booking creation failed, compensating")

	for i := len(s.steps) - 1; i >= 0; i-- {
		step := s.steps[i]
		if err := step.undo(ctx); err != nil {
			s.logger.WithError(err).WithFields(s.fields).WithField("step", step.name).
				Error("Compensation step failed")
			continue
		}
		s.logger.WithFields(s.fields).WithField("step", step.name).Debug("Compensation step completed")
	}
}
