package sms

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
	"golang.org/x/time/rate"
)

// ErrGatewayUnavailable is returned while the circuit breaker is open
var ErrGatewayUnavailable = errors.New("sms gateway unavailable")

// TwilioConfig holds Twilio client settings
type TwilioConfig struct {
	AccountSID         string
	AuthToken          string
	FromNumber         string
	RateLimit          int // messages per second
	Timeout            time.Duration
	BreakerMaxRequests uint32
	BreakerInterval    time.Duration
	BreakerTimeout     time.Duration
}

// messageCreator is the subset of the Twilio messages API the gateway calls
type messageCreator interface {
	CreateMessage(params *twilioApi.CreateMessageParams) (*twilioApi.ApiV2010Message, error)
}

// TwilioGateway sends SMS through the Twilio REST API with rate limiting and
// a circuit breaker around the API call.
type TwilioGateway struct {
	api       messageCreator
	from      string
	rateLimit *rate.Limiter
	breaker   *gobreaker.CircuitBreaker
	logger    *logrus.Logger
}

// NewTwilioGateway creates a Twilio gateway
func NewTwilioGateway(config TwilioConfig, logger *logrus.Logger) (*TwilioGateway, error) {
	if config.AccountSID == "" || config.AuthToken == "" {
		return nil, fmt.Errorf("twilio account SID and auth token are required")
	}

	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: config.AccountSID,
		Password: config.AuthToken,
	})
	if config.Timeout > 0 {
		client.SetTimeout(config.Timeout)
	}

	return newTwilioGateway(client.Api, config, logger)
}

func newTwilioGateway(api messageCreator, config TwilioConfig, logger *logrus.Logger) (*TwilioGateway, error) {
	if config.FromNumber == "" {
		return nil, fmt.Errorf("twilio from number is required")
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 10
	}
	if config.BreakerMaxRequests == 0 {
		config.BreakerMaxRequests = 3
	}
	if config.BreakerInterval == 0 {
		config.BreakerInterval = time.Minute
	}
	if config.BreakerTimeout == 0 {
		config.BreakerTimeout = 30 * time.Second
	}

	breaker := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        "twilio",
		MaxRequests: config.BreakerMaxRequests,
		Interval:    config.BreakerInterval,
		Timeout:     config.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.6
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.WithFields(logrus.Fields{
				"breaker": name,
				"from":    from.String(),
				"to":      to.String(),
			}).Warn("SMS gateway circuit breaker changed state")
		},
	})

	return &TwilioGateway{
		api:       api,
		from:      config.FromNumber,
		rateLimit: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
		breaker:   breaker,
		logger:    logger,
	}, nil
}

// Send delivers one message through Twilio
func (g *TwilioGateway) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := g.rateLimit.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := &twilioApi.CreateMessageParams{}
	params.SetTo(msg.To)
	params.SetFrom(g.from)
	params.SetBody(msg.Body)

	result, err := g.breaker.Execute(func() (interface{}, error) {
		return g.api.CreateMessage(params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return nil, fmt.Errorf("%w: %v", ErrGatewayUnavailable, err)
		}
		return nil, fmt.Errorf("twilio create message: %w", err)
	}

	resp := result.(*twilioApi.ApiV2010Message)
	receipt := &Receipt{Provider: "twilio"}
	if resp != nil {
		if resp.Sid != nil {
			receipt.ProviderID = *resp.Sid
		}
		if resp.Status != nil {
			receipt.Status = *resp.Status
		}
	}
	return receipt, nil
}
