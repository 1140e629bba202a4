// Package cache provides the short-lived coordination keys used by the
// reminder job (run lock) and the SMS webhook (inbound message dedupe).
package cache

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
)

// Store holds expiring keys with owner tokens.
type Store interface {
	// Acquire sets key to token if the key is absent or expired.
	// It reports whether this call took the key.
	Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error)

	// Release deletes key only while it still holds token.
	Release(ctx context.Context, key, token string) error

	// Close releases underlying connections.
	Close() error
}

// New returns a Redis-backed store when cfg.RedisURL is set and an
// in-process store otherwise.
func New(cfg domain.CacheConfig, logger *logrus.Logger) (Store, error) {
	if cfg.RedisURL == "" {
		logger.Info("No Redis URL configured, using in-memory coordination cache")
		return NewMemoryStore(cfg.MemoryMaxKeys)
	}
	return NewRedisStore(cfg, logger)
}
