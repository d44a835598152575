package domain

import (
	"context"
	"errors"
	"time"
)

// ErrStateNotFound is returned by a StateStore when a key is absent or expired.
var ErrStateNotFound = errors.New("state not found")

// StateStore is a key/value store with per-key expiry. Values are opaque bytes;
// callers own the encoding.
type StateStore interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// EventSink receives one probe event per turn.
type EventSink interface {
	Emit(ctx context.Context, ev ProbeEvent) error
}

// EventLog reads back emitted probe events, oldest first.
type EventLog interface {
	ListEvents(ctx context.Context, sessionID SessionID, limit int) ([]ProbeEvent, error)
}
