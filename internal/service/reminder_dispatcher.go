package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/cache"
	"github.com/maditrack-server/internal/domain"
	"github.com/maditrack-server/internal/logging"
	"github.com/maditrack-server/internal/metrics"
	"github.com/maditrack-server/internal/store"
	"github.com/maditrack-server/pkg/sms"
)

const (
	reminderLead          = 24 * time.Hour
	defaultLockTTL        = 30 * time.Minute
	defaultMaxConcurrency = 10
	reminderMessageFormat = "Reminder: You have an appointment tomorrow at %s. Please arrive 15 minutes early. Reply 'CANCEL' to cancel your appointment."
	reminderLockKeyPrefix = "reminders:"
)

// ReminderOutcome is the result of one reminder attempt
type ReminderOutcome struct {
	AppointmentID string           `json:"appointment_id"`
	Status        domain.SMSStatus `json:"status"`
	Error         string           `json:"error,omitempty"`
	LogError      string           `json:"log_error,omitempty"`
}

// ReminderRunReport summarizes one reminder job run
type ReminderRunReport struct {
	TargetDate string            `json:"target_date"`
	StartedAt  time.Time         `json:"started_at"`
	FinishedAt time.Time         `json:"finished_at"`
	Outcomes   []ReminderOutcome `json:"outcomes"`
	Sent       int               `json:"sent"`
	Failed     int               `json:"failed"`
}

// ReminderDispatcher sends a reminder SMS for every appointment scheduled on
// the day after the run and records one SMS log per attempt.
type ReminderDispatcher struct {
	logger         *logrus.Logger
	store          store.Store
	gateway        sms.Gateway
	locker         cache.Store
	location       *time.Location
	maxConcurrency int
	lockTTL        time.Duration
}

// NewReminderDispatcher creates a reminder dispatcher. locker may be nil, in
// which case runs are not coordinated across processes.
func NewReminderDispatcher(
	st store.Store,
	gateway sms.Gateway,
	locker cache.Store,
	cfg domain.ReminderConfig,
	logger *logrus.Logger,
) *ReminderDispatcher {
	location := time.UTC
	if cfg.TimeZone != "" {
		loc, err := time.LoadLocation(cfg.TimeZone)
		if err != nil {
			logger.WithError(err).WithField("time_zone", cfg.TimeZone).Warn("Unknown reminder time zone, using UTC")
		} else {
			location = loc
		}
	}

	maxConcurrency := cfg.MaxConcurrency
	if maxConcurrency <= 0 {
		maxConcurrency = defaultMaxConcurrency
	}
	lockTTL := cfg.LockTTL
	if lockTTL <= 0 {
		lockTTL = defaultLockTTL
	}

	return &ReminderDispatcher{
		logger:         logger,
		store:          st,
		gateway:        gateway,
		locker:         locker,
		location:       location,
		maxConcurrency: maxConcurrency,
		lockTTL:        lockTTL,
	}
}

// TargetDate returns the calendar date the run at now sends reminders for
func (d *ReminderDispatcher) TargetDate(now time.Time) string {
	return now.Add(reminderLead).In(d.location).Format(domain.DateLayout)
}

// ReminderMessage builds the reminder text for an appointment
func ReminderMessage(appointment domain.Appointment) string {
	return fmt.Sprintf(reminderMessageFormat, appointment.Time)
}

// Run sends reminders for all scheduled appointments on the day after now.
// It fails as a whole only when the run lock or the appointment query fails;
// individual send failures are recorded in the report.
func (d *ReminderDispatcher) Run(ctx context.Context, now time.Time) (*ReminderRunReport, error) {
	report := &ReminderRunReport{
		TargetDate: d.TargetDate(now),
		StartedAt:  time.Now(),
		Outcomes:   make([]ReminderOutcome, 0),
	}

	logger := d.logger.WithField("target_date", report.TargetDate)

	release, err := d.acquireRunLock(ctx, report.TargetDate)
	if err != nil {
		metrics.RecordReminderRun("skipped", 0)
		return nil, err
	}
	defer release()

	appointments, err := d.store.ListScheduledAppointmentsOn(ctx, report.TargetDate)
	if err != nil {
		metrics.RecordReminderRun("error", time.Since(report.StartedAt))
		return nil, fmt.Errorf("failed to list appointments for %s: %w", report.TargetDate, err)
	}

	logger.WithField("appointments", len(appointments)).Info("Starting reminder run")

	outcomes := make([]ReminderOutcome, len(appointments))
	sem := make(chan struct{}, d.maxConcurrency)
	var wg sync.WaitGroup

	for i := range appointments {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()
			outcomes[i] = d.remind(ctx, appointments[i])
		}(i)
	}
	wg.Wait()

	for _, outcome := range outcomes {
		if outcome.Status == domain.SMSSent {
			report.Sent++
		} else {
			report.Failed++
		}
	}
	report.Outcomes = outcomes
	report.FinishedAt = time.Now()

	duration := report.FinishedAt.Sub(report.StartedAt)
	metrics.RecordReminderRun("success", duration)

	logger.WithFields(logrus.Fields{
		"sent":     report.Sent,
		"failed":   report.Failed,
		"duration": duration.String(),
	}).Info("Reminder run completed")

	return report, nil
}

// remind sends one reminder and appends its SMS log
func (d *ReminderDispatcher) remind(ctx context.Context, appointment domain.Appointment) ReminderOutcome {
	body := ReminderMessage(appointment)
	outcome := ReminderOutcome{AppointmentID: appointment.ID, Status: domain.SMSSent}

	logger := d.logger.WithFields(logrus.Fields{
		"appointment_id": appointment.ID,
		"phone":          logging.MaskPhone(appointment.PatientPhone),
	})

	entry := &domain.SMSLog{
		AppointmentID: appointment.ID,
		PatientID:     appointment.PatientID,
		PhoneNumber:   appointment.PatientPhone,
		Message:       body,
		Status:        domain.SMSSent,
	}

	if _, err := d.gateway.Send(ctx, sms.Message{To: appointment.PatientPhone, Body: body}); err != nil {
		logger.WithError(err).Warn("Failed to send reminder")
		outcome.Status = domain.SMSFailed
		outcome.Error = err.Error()
		entry.Status = domain.SMSFailed
		entry.Error = err.Error()
	}
	metrics.RecordReminder(string(outcome.Status))

	// The log write still runs when the run context is cancelled mid-send
	if err := d.store.AppendSMSLog(context.WithoutCancel(ctx), entry); err != nil {
		logger.WithError(err).Error("Failed to record SMS log")
		metrics.RecordSMSLogWriteFailure()
		outcome.LogError = err.Error()
	}

	return outcome
}

func (d *ReminderDispatcher) acquireRunLock(ctx context.Context, date string) (func(), error) {
	if d.locker == nil {
		return func() {}, nil
	}

	key := reminderLockKeyPrefix + date
	token := uuid.NewString()

	ok, err := d.locker.Acquire(ctx, key, token, d.lockTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to acquire reminder run lock: %w", err)
	}
	if !ok {
		d.logger.WithField("lock_key", key).Warn("Reminder run already in progress")
		return nil, domain.ErrJobAlreadyRunning
	}

	return func() {
		if err := d.locker.Release(context.WithoutCancel(ctx), key, token); err != nil {
			d.logger.WithError(err).WithField("lock_key", key).Warn("Failed to release reminder run lock")
		}
	}, nil
}
