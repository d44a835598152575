package memory

import (
	"context"
	"sync"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

// EventStore is a simple in-memory event sink and log of probe events.
// It is NOT persistent and is only suitable for development / local mode.
type EventStore struct {
	mu        sync.RWMutex
	bySession map[domain.SessionID][]domain.ProbeEvent
}

var (
	_ domain.EventSink = (*EventStore)(nil)
	_ domain.EventLog  = (*EventStore)(nil)
)

// NewEventStore creates a new in-memory EventStore.
func NewEventStore() *EventStore {
	return &EventStore{
		bySession: make(map[domain.SessionID][]domain.ProbeEvent),
	}
}

// Emit appends an event to its session's log.
func (s *EventStore) Emit(_ context.Context, ev domain.ProbeEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.bySession[ev.SessionID] = append(s.bySession[ev.SessionID], ev)
	return nil
}

// ListEvents returns the last `limit` events of a session, oldest first.
// If limit <= 0, returns all.
func (s *EventStore) ListEvents(_ context.Context, sessionID domain.SessionID, limit int) ([]domain.ProbeEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	events := s.bySession[sessionID]
	if limit <= 0 || limit > len(events) {
		limit = len(events)
	}

	out := make([]domain.ProbeEvent, limit)
	copy(out, events[len(events)-limit:])
	return out, nil
}
