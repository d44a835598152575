// Package probelog builds, fans out and reads back the per-turn probe events.
package probelog

import (
	"context"
	"errors"
	"fmt"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

// DefaultLimit is used when a caller asks for a non-positive number of events.
const DefaultLimit = 20

// Service holds the logic of reading probe events back
type Service struct {
	log domain.EventLog
}

// NewService creates a probe log service from an EventLog
func NewService(log domain.EventLog) *Service {
	return &Service{log: log}
}

// SessionEvents returns the last `limit` events of a session, oldest first.
// If limit <= 0, DefaultLimit is used.
func (s *Service) SessionEvents(ctx context.Context, id domain.SessionID, limit int) ([]domain.ProbeEvent, error) {
	if s == nil || s.log == nil {
		// Backends without a readable log (e.g. the slog sink alone).
		return []domain.ProbeEvent{}, nil
	}

	if limit <= 0 {
		limit = DefaultLimit
	}

	events, err := s.log.ListEvents(ctx, id, limit)
	if err != nil {
		return nil, fmt.Errorf("list probe events: %w", err)
	}
	if events == nil {
		events = []domain.ProbeEvent{}
	}
	return events, nil
}

type tee []domain.EventSink

// Tee emits every event to each sink in order. All sinks are tried; the
// errors are joined.
func Tee(sinks ...domain.EventSink) domain.EventSink {
	out := make(tee, 0, len(sinks))
	for _, s := range sinks {
		if s != nil {
			out = append(out, s)
		}
	}
	return out
}

func (t tee) Emit(ctx context.Context, ev domain.ProbeEvent) error {
	var errs []error
	for _, s := range t {
		if err := s.Emit(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
