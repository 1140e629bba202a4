package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"github.com/maditrack-server/internal/domain"
)

// releaseScript deletes the key only if it still holds the caller's token
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisStore implements Store on Redis so every replica shares locks and dedupe keys.
type RedisStore struct {
	client *redis.Client
	logger *logrus.Logger
}

// NewRedisStore connects to the Redis URL in cfg and verifies the connection.
func NewRedisStore(cfg domain.CacheConfig, logger *logrus.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	if cfg.PoolSize > 0 {
		opts.PoolSize = cfg.PoolSize
	}
	if cfg.PoolTimeout > 0 {
		opts.PoolTimeout = cfg.PoolTimeout
	}
	opts.MaxRetries = cfg.MaxRetries

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.WithField("addr", opts.Addr).Info("Connected to Redis coordination cache")

	return NewRedisStoreFromClient(client, logger), nil
}

// NewRedisStoreFromClient wraps an existing client.
func NewRedisStoreFromClient(client *redis.Client, logger *logrus.Logger) *RedisStore {
	return &RedisStore{client: client, logger: logger}
}

// Acquire issues SET key token NX PX ttl.
func (s *RedisStore) Acquire(ctx context.Context, key, token string, ttl time.Duration) (bool, error) {
	ok, err := s.client.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquiring %s: %w", key, err)
	}
	return ok, nil
}

// Release removes the key if it still holds token.
func (s *RedisStore) Release(ctx context.Context, key, token string) error {
	if err := releaseScript.Run(ctx, s.client, []string{key}, token).Err(); err != nil {
		return fmt.Errorf("releasing %s: %w", key, err)
	}
	return nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
