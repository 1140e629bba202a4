// Package sms sends outbound text messages through a messaging gateway and
// validates inbound webhook signatures.
package sms

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
)

// Message is one outbound SMS
type Message struct {
	To   string
	Body string
}

// Receipt is the gateway's acknowledgement of an accepted message
type Receipt struct {
	ProviderID string
	Status     string
	Provider   string
}

// Gateway delivers outbound messages. Send returns an error when the gateway
// did not accept the message.
type Gateway interface {
	Send(ctx context.Context, msg Message) (*Receipt, error)
}

// New builds the gateway selected by cfg.Provider.
func New(cfg domain.SMSConfig, logger *logrus.Logger) (Gateway, error) {
	switch cfg.Provider {
	case "twilio":
		return NewTwilioGateway(TwilioConfig{
			AccountSID:         cfg.AccountSID,
			AuthToken:          cfg.AuthToken,
			FromNumber:         cfg.FromNumber,
			RateLimit:          cfg.RateLimit,
			Timeout:            cfg.Timeout,
			BreakerMaxRequests: cfg.BreakerMaxRequests,
			BreakerInterval:    cfg.BreakerInterval,
			BreakerTimeout:     cfg.BreakerTimeout,
		}, logger)
	case "console", "":
		return NewConsoleGateway(logger), nil
	default:
		return nil, fmt.Errorf("unsupported sms provider: %q", cfg.Provider)
	}
}
