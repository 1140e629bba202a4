package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
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

// Cancellation reply texts sent back to the patient
const (
	CancelKeyword            = "CANCEL"
	NoAppointmentReply       = "No upcoming appointments found to cancel."
	CancellationConfirmation = "Your appointment has been cancelled. Please contact the clinic to reschedule."

	defaultDedupeTTL    = 24 * time.Hour
	inboundDedupePrefix = "sms:inbound:"
)

// CancellationOutcome describes how an inbound message was handled
type CancellationOutcome string

const (
	OutcomeAcknowledged     CancellationOutcome = "acknowledged"
	OutcomeNoAppointment    CancellationOutcome = "no_appointment"
	OutcomeCancelled        CancellationOutcome = "cancelled"
	OutcomeAlreadyCancelled CancellationOutcome = "already_cancelled"
	OutcomeDuplicate        CancellationOutcome = "duplicate"
)

// IsCancelRequest reports whether an SMS body asks to cancel an appointment
func IsCancelRequest(body string) bool {
	return strings.ToUpper(strings.TrimSpace(body)) == CancelKeyword
}

// CancellationService handles patient replies to reminder messages
type CancellationService struct {
	logger    *logrus.Logger
	store     store.Store
	gateway   sms.Gateway
	dedupe    cache.Store
	dedupeTTL time.Duration
	now       func() time.Time
}

// NewCancellationService creates a cancellation service. dedupe may be nil,
// which disables duplicate delivery detection.
func NewCancellationService(
	st store.Store,
	gateway sms.Gateway,
	dedupe cache.Store,
	cfg domain.CacheConfig,
	logger *logrus.Logger,
) *CancellationService {
	ttl := cfg.DedupeTTL
	if ttl <= 0 {
		ttl = defaultDedupeTTL
	}
	return &CancellationService{
		logger:    logger,
		store:     st,
		gateway:   gateway,
		dedupe:    dedupe,
		dedupeTTL: ttl,
		now:       time.Now,
	}
}

// HandleInbound processes one inbound SMS. A CANCEL reply cancels the
// sender's earliest scheduled appointment; any other text is acknowledged.
// When the confirmation fails after the cancellation was committed, the
// error is returned together with OutcomeCancelled.
func (s *CancellationService) HandleInbound(ctx context.Context, msg domain.InboundMessage) (outcome CancellationOutcome, err error) {
	logger := s.logger.WithFields(logrus.Fields{
		"from":        logging.MaskPhone(msg.From),
		"message_sid": msg.MessageSID,
	})

	defer func() {
		if err != nil {
			metrics.RecordInboundMessage("error")
			return
		}
		metrics.RecordInboundMessage(string(outcome))
	}()

	if !IsCancelRequest(msg.Body) {
		logger.Debug("Inbound message is not a cancellation request")
		return OutcomeAcknowledged, nil
	}

	claimed, release, err := s.claim(ctx, msg.MessageSID)
	if err != nil {
		return "", err
	}
	if !claimed {
		logger.Info("Duplicate inbound message ignored")
		return OutcomeDuplicate, nil
	}
	defer func() {
		// Let the gateway's retry reprocess a message that failed before
		// anything was cancelled
		if err != nil && outcome != OutcomeCancelled {
			release()
		}
	}()

	return s.cancelNext(ctx, msg.From, logger)
}

func (s *CancellationService) cancelNext(ctx context.Context, from string, logger *logrus.Entry) (CancellationOutcome, error) {
	appointment, err := s.store.NextScheduledAppointmentForPhone(ctx, from)
	if errors.Is(err, domain.ErrNotFound) {
		if err := s.reply(ctx, from, NoAppointmentReply); err != nil {
			return "", err
		}
		logger.Info("No scheduled appointment to cancel")
		return OutcomeNoAppointment, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to find appointment to cancel: %w", err)
	}

	logger = logger.WithField("appointment_id", appointment.ID)

	err = s.store.CancelAppointment(ctx, appointment.ID, s.now().UTC())
	if errors.Is(err, domain.ErrConflict) || errors.Is(err, domain.ErrNotFound) {
		logger.Info("Appointment was no longer scheduled")
		return OutcomeAlreadyCancelled, nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to cancel appointment %s: %w", appointment.ID, err)
	}

	logger.Info("Appointment cancelled by patient")

	if err := s.reply(ctx, from, CancellationConfirmation); err != nil {
		return OutcomeCancelled, err
	}
	return OutcomeCancelled, nil
}

func (s *CancellationService) reply(ctx context.Context, to, body string) error {
	if _, err := s.gateway.Send(ctx, sms.Message{To: to, Body: body}); err != nil {
		return fmt.Errorf("failed to send reply: %w", err)
	}
	return nil
}

// claim marks a message SID as being processed. Messages without a SID are
// always processed.
func (s *CancellationService) claim(ctx context.Context, sid string) (bool, func(), error) {
	noop := func() {}
	if s.dedupe == nil || sid == "" {
		return true, noop, nil
	}

	key := inboundDedupePrefix + sid
	token := uuid.NewString()

	ok, err := s.dedupe.Acquire(ctx, key, token, s.dedupeTTL)
	if err != nil {
		return false, noop, fmt.Errorf("failed to check inbound message %s: %w", sid, err)
	}
	if !ok {
		return false, noop, nil
	}

	return true, func() {
		if err := s.dedupe.Release(context.WithoutCancel(ctx), key, token); err != nil {
			s.logger.WithError(err).WithField("message_sid", sid).Warn("Failed to release inbound message claim")
		}
	}, nil
}
