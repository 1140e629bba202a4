package sms

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"
)

// ConsoleGateway logs messages instead of sending them (for development)
type ConsoleGateway struct {
	logger *logrus.Logger
	seq    atomic.Int64
}

// NewConsoleGateway creates a console gateway
func NewConsoleGateway(logger *logrus.Logger) *ConsoleGateway {
	return &ConsoleGateway{logger: logger}
}

// Send logs the message and always succeeds
func (g *ConsoleGateway) Send(_ context.Context, msg Message) (*Receipt, error) {
	id := fmt.Sprintf("console-%d", g.seq.Add(1))
	g.logger.WithFields(logrus.Fields{
		"provider_id": id,
		"to":          msg.To,
		"body":        msg.Body,
	}).Info("[CONSOLE SMS]")
	return &Receipt{ProviderID: id, Status: "sent", Provider: "console"}, nil
}

// MockGateway records messages in memory and can be told to fail.
type MockGateway struct {
	mu         sync.RWMutex
	sent       []Message
	failOnSend bool
	failFor    map[string]error
}

// NewMockGateway creates a mock gateway
func NewMockGateway() *MockGateway {
	return &MockGateway{failFor: make(map[string]error)}
}

// Send records the message unless a failure is configured for it
func (g *MockGateway) Send(ctx context.Context, msg Message) (*Receipt, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	if g.failOnSend {
		return nil, fmt.Errorf("mock send failure")
	}
	if err, ok := g.failFor[msg.To]; ok {
		return nil, err
	}

	g.sent = append(g.sent, msg)
	return &Receipt{ProviderID: fmt.Sprintf("mock-%d", len(g.sent)), Status: "queued", Provider: "mock"}, nil
}

// SetFailOnSend makes every Send fail
func (g *MockGateway) SetFailOnSend(fail bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failOnSend = fail
}

// FailFor makes sends to the given number return err
func (g *MockGateway) FailFor(to string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.failFor[to] = err
}

// Sent returns a copy of all accepted messages
func (g *MockGateway) Sent() []Message {
	g.mu.RLock()
	defer g.mu.RUnlock()

	out := make([]Message, len(g.sent))
	copy(out, g.sent)
	return out
}
