package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

type memoryEntry struct {
	token     string
	expiresAt time.Time
}

// MemoryStore implements Store in process memory, bounded by an LRU.
// Keys are only coordinated within one process.
type MemoryStore struct {
	mu    sync.Mutex
	keys  *lru.Cache[string, memoryEntry]
	clock func() time.Time
}

// NewMemoryStore creates a store holding at most maxKeys keys.
func NewMemoryStore(maxKeys int) (*MemoryStore, error) {
	if maxKeys <= 0 {
		maxKeys = 10000
	}
	keys, err := lru.New[string, memoryEntry](maxKeys)
	if err != nil {
		return nil, fmt.Errorf("creating memory cache: %w", err)
	}
	return &MemoryStore{keys: keys, clock: time.Now}, nil
}

// Acquire takes the key if it is absent or expired.
func (s *MemoryStore) Acquire(_ context.Context, key, token string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock()
	if current, ok := s.keys.Get(key); ok && now.Before(current.expiresAt) {
		return false, nil
	}
	s.keys.Add(key, memoryEntry{token: token, expiresAt: now.Add(ttl)})
	return true, nil
}

// Release removes the key if it still holds token.
func (s *MemoryStore) Release(_ context.Context, key, token string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if current, ok := s.keys.Peek(key); ok && current.token == token {
		s.keys.Remove(key)
	}
	return nil
}

// Close purges all keys.
func (s *MemoryStore) Close() error {
	s.keys.Purge()
	return nil
}
