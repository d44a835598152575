package memory

import (
	"context"
	"sync"
	"time"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

type stateEntry struct {
	value     []byte
	expiresAt time.Time
}

// StateStore is an in-memory domain.StateStore with per-key expiry.
// It is NOT persistent and is only suitable for development / local mode.
type StateStore struct {
	mu      sync.RWMutex
	entries map[string]stateEntry
	now     func() time.Time
}

var _ domain.StateStore = (*StateStore)(nil)

func NewStateStore() *StateStore {
	return &StateStore{
		entries: make(map[string]stateEntry),
		now:     time.Now,
	}
}

// WithClock replaces the clock used for expiry.
func (s *StateStore) WithClock(now func() time.Time) *StateStore {
	s.now = now
	return s
}

func (s *StateStore) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	e, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		return nil, domain.ErrStateNotFound
	}
	if !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt) {
		s.mu.Lock()
		// The entry may have been rewritten since the read lock was released.
		if cur, ok := s.entries[key]; ok && cur.expiresAt.Equal(e.expiresAt) {
			delete(s.entries, key)
		}
		s.mu.Unlock()
		return nil, domain.ErrStateNotFound
	}

	out := make([]byte, len(e.value))
	copy(out, e.value)
	return out, nil
}

// Put stores value under key. A ttl <= 0 means the value never expires.
func (s *StateStore) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	e := stateEntry{value: make([]byte, len(value))}
	copy(e.value, value)
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = e
	return nil
}

// Len returns the number of stored keys, expired ones included.
func (s *StateStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}
