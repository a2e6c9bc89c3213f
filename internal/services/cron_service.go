package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// auditCleanupSchedule runs the audit purge at 4:00 AM every day
const auditCleanupSchedule = "0 0 4 * * *"

// jobTimeout bounds a single cron run
const jobTimeout = 5 * time.Minute

// CronConfig holds schedules and thresholds for background jobs
type CronConfig struct {
	OrphanSweepSchedule string        // cron format: second minute hour day month weekday
	OrphanGracePeriod   time.Duration // records younger than this are left alone
	AuditRetention      time.Duration // zero disables the audit purge
}

// CronService manages scheduled background jobs
type CronService struct {
	cron      *cron.Cron
	bookings  BookingStore
	fareLines FareLineStore
	audit     *AuditService
	config    CronConfig
	now       Clock
	logger    *logrus.Logger
}

// NewCronService creates a new CronService
func NewCronService(bookings BookingStore, fareLines FareLineStore, audit *AuditService, config CronConfig, now Clock, logger *logrus.Logger) *CronService {
	if now == nil {
		now = UTCClock
	}
	return &CronService{
		cron:      cron.New(cron.WithSeconds()),
		bookings:  bookings,
		fareLines: fareLines,
		audit:     audit,
		config:    config,
		now:       now,
		logger:    logger,
	}
}

// Start schedules all jobs and starts the scheduler
func (s *CronService) Start() error {
	s.logger.Info("Starting cron service...")

	// Job 1: reclaim records left behind by failed compensations
	if _, err := s.cron.AddFunc(s.config.OrphanSweepSchedule, s.sweepOrphansJob); err != nil {
		return fmt.Errorf("failed to schedule orphan sweep: %w", err)
	}
	s.logger.WithField("schedule", s.config.OrphanSweepSchedule).Info("Scheduled: orphan sweep")

	// Job 2: purge old audit logs
	if s.audit != nil && s.config.AuditRetention > 0 {
		if _, err := s.cron.AddFunc(auditCleanupSchedule, s.cleanupAuditLogsJob); err != nil {
			return fmt.Errorf("failed to schedule audit cleanup: %w", err)
		}
		s.logger.WithField("schedule", auditCleanupSchedule).Info("Scheduled: audit log cleanup")
	}

	s.cron.Start()
	s.logger.Info("Cron service started")
	return nil
}

// Stop stops the scheduler and waits for running jobs
func (s *CronService) Stop() {
	s.logger.Info("Stopping cron service...")
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.logger.Info("Cron service stopped")
}

// SweepIncompleteBookings deletes unpaid bookings older than the grace period
// that never had all their passengers linked, along with those passengers
func (s *CronService) SweepIncompleteBookings(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.config.OrphanGracePeriod)
	removed, err := s.bookings.DeleteIncomplete(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep incomplete bookings: %w", err)
	}
	return removed, nil
}

// SweepOrphanFareLines deletes fare lines older than the grace period that
// no booking references and returns how many were removed
func (s *CronService) SweepOrphanFareLines(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.config.OrphanGracePeriod)
	removed, err := s.fareLines.DeleteOrphans(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep orphan fare lines: %w", err)
	}
	return removed, nil
}

func (s *CronService) sweepOrphansJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	startTime := time.Now()

	// Bookings first so the fare lines they held are swept in the same run
	bookings, err := s.SweepIncompleteBookings(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Incomplete booking sweep failed")
	}

	fareLines, err := s.SweepOrphanFareLines(ctx)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Orphan fare line sweep failed")
		return
	}

	entry := s.logger.WithFields(logrus.Fields{
		"bookings_removed":   bookings,
		"fare_lines_removed": fareLines,
		"duration":           time.Since(startTime).String(),
	})
	if bookings > 0 || fareLines > 0 {
		entry.Warn("[CRON] Removed orphaned records")
		return
	}
	entry.Debug("[CRON] No orphaned records")
}

func (s *CronService) cleanupAuditLogsJob() {
	ctx, cancel := context.WithTimeout(context.Background(), jobTimeout)
	defer cancel()

	removed, err := s.audit.CleanupOldAuditLogs(ctx, s.config.AuditRetention)
	if err != nil {
		s.logger.WithError(err).Error("[CRON] Audit log cleanup failed")
		return
	}
	s.logger.WithField("removed", removed).Info("[CRON] Cleaned up old audit logs")
}

// GetJobStatus returns the status of scheduled jobs
func (s *CronService) GetJobStatus() map[string]interface{} {
	entries := s.cron.Entries()

	jobs := make([]map[string]interface{}, 0, len(entries))
	for _, entry := range entries {
		jobs = append(jobs, map[string]interface{}{
			"id":       entry.ID,
			"next_run": entry.Next,
			"prev_run": entry.Prev,
		})
	}

	return map[string]interface{}{
		"running":   len(entries) > 0,
		"job_count": len(entries),
		"jobs":      jobs,
	}
}
