package cache

import (
	"context"
	"sync"
	"time"

	"github.com/erp/pos-bridge/internal/domain/shared"
)

// InMemoryIdempotencyStore keeps webhook delivery fingerprints in process
// memory. Suitable for single-instance deployments and tests; entries are
// lost on restart, which at worst reapplies an idempotent stock update.
type InMemoryIdempotencyStore struct {
	mu        sync.RWMutex
	entries   map[string]time.Time
	stopCh    chan struct{}
	closeOnce sync.Once
}

// NewInMemoryIdempotencyStore creates a store with a background sweep that
// evicts expired fingerprints.
func NewInMemoryIdempotencyStore() *InMemoryIdempotencyStore {
	s := &InMemoryIdempotencyStore{
		entries: make(map[string]time.Time),
		stopCh:  make(chan struct{}),
	}
	go s.cleanupLoop()
	return s
}

func (s *InMemoryIdempotencyStore) MarkProcessed(_ context.Context, fingerprint string, ttl time.Duration) (bool, error) {
	if ttl <= 0 {
		ttl = shared.DefaultIdempotencyTTL
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if expiresAt, ok := s.entries[fingerprint]; ok && time.Now().Before(expiresAt) {
		return false, nil
	}
	s.entries[fingerprint] = time.Now().Add(ttl)
	return true, nil
}

func (s *InMemoryIdempotencyStore) IsProcessed(_ context.Context, fingerprint string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	expiresAt, ok := s.entries[fingerprint]
	return ok && time.Now().Before(expiresAt), nil
}

func (s *InMemoryIdempotencyStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopCh)
	})
	return nil
}

// Size returns the number of tracked fingerprints, expired ones included
// until the next sweep.
func (s *InMemoryIdempotencyStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *InMemoryIdempotencyStore) cleanupLoop() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanup()
		case <-s.stopCh:
			return
		}
	}
}

func (s *InMemoryIdempotencyStore) cleanup() {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()
	for fingerprint, expiresAt := range s.entries {
		if now.After(expiresAt) {
			delete(s.entries, fingerprint)
		}
	}
}

var _ shared.IdempotencyStore = (*InMemoryIdempotencyStore)(nil)
