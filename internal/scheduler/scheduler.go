// Package scheduler runs the reminder job on a fixed schedule inside the
// server process.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-co-op/gocron"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
	"github.com/maditrack-server/internal/service"
)

const defaultInterval = 24 * time.Hour

// ReminderJob is the job the scheduler triggers
type ReminderJob interface {
	Run(ctx context.Context, now time.Time) (*service.ReminderRunReport, error)
}

// ReminderScheduler triggers the reminder job every interval, or once a day
// at a fixed time when At is configured. Runs never overlap.
type ReminderScheduler struct {
	logger   *logrus.Logger
	job      ReminderJob
	cfg      domain.ReminderConfig
	location *time.Location
	clock    func() time.Time

	mu     sync.Mutex
	cron   *gocron.Scheduler
	ctx    context.Context
	cancel context.CancelFunc
}

// NewReminderScheduler creates a scheduler for job
func NewReminderScheduler(job ReminderJob, cfg domain.ReminderConfig, logger *logrus.Logger) *ReminderScheduler {
	location := time.UTC
	if cfg.TimeZone != "" {
		if loc, err := time.LoadLocation(cfg.TimeZone); err == nil {
			location = loc
		}
	}
	if cfg.Interval <= 0 {
		cfg.Interval = defaultInterval
	}

	return &ReminderScheduler{
		logger:   logger,
		job:      job,
		cfg:      cfg,
		location: location,
		clock:    time.Now,
	}
}

// Start registers the job and starts the schedule in the background
func (s *ReminderScheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return errors.New("reminder scheduler already started")
	}

	cron := gocron.NewScheduler(s.location)
	cron.SingletonModeAll()

	if s.cfg.At != "" {
		cron.Every(1).Day().At(s.cfg.At)
	} else {
		cron.Every(s.cfg.Interval)
	}
	if !s.cfg.RunOnStart {
		cron.WaitForSchedule()
	}

	ctx, cancel := context.WithCancel(context.Background())
	if _, err := cron.Do(func() { s.runScheduled(ctx) }); err != nil {
		cancel()
		return fmt.Errorf("failed to schedule reminder job: %w", err)
	}

	cron.StartAsync()
	s.cron, s.ctx, s.cancel = cron, ctx, cancel

	fields := logrus.Fields{
		"time_zone":    s.location.String(),
		"run_on_start": s.cfg.RunOnStart,
	}
	if s.cfg.At != "" {
		fields["at"] = s.cfg.At
	} else {
		fields["interval"] = s.cfg.Interval.String()
	}
	s.logger.WithFields(fields).Info("Reminder scheduler started")
	return nil
}

// Stop cancels an in-flight run and stops the schedule
func (s *ReminderScheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron == nil {
		return
	}
	s.cancel()
	s.cron.Stop()
	s.cron = nil
	s.logger.Info("Reminder scheduler stopped")
}

// RunNow runs the job immediately, outside the schedule
func (s *ReminderScheduler) RunNow(ctx context.Context) (*service.ReminderRunReport, error) {
	return s.run(ctx, "manual")
}

func (s *ReminderScheduler) runScheduled(ctx context.Context) {
	// Failures are logged by run; the schedule keeps going.
	_, _ = s.run(ctx, "schedule")
}

func (s *ReminderScheduler) run(ctx context.Context, trigger string) (*service.ReminderRunReport, error) {
	logger := s.logger.WithField("trigger", trigger)

	report, err := s.job.Run(ctx, s.clock())
	if err != nil {
		if errors.Is(err, domain.ErrJobAlreadyRunning) {
			logger.Warn("Reminder run skipped, another run holds the lock")
		} else {
			logger.WithError(err).Error("Reminder run failed")
		}
		return nil, err
	}

	logger.WithFields(logrus.Fields{
		"target_date": report.TargetDate,
		"sent":        report.Sent,
		"failed":      report.Failed,
	}).Info("Reminder run finished")
	return report, nil
}
