// Package sessionstate loads and saves per-session engine state on top of a
// raw key/value StateStore. Both directions are best-effort: failures are
// logged and replaced by defaults, never returned.
package sessionstate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/PabloGalante/farum-probe/internal/app/press"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

const keyPrefix = "convo:"

// Key is the store key of a session.
func Key(id domain.SessionID) string {
	return keyPrefix + string(id)
}

// Keeper wraps a StateStore with typed, validated, best-effort access.
type Keeper struct {
	store  domain.StateStore
	bounds press.Bounds
	ttl    time.Duration
}

// NewKeeper returns a keeper. A nil store is allowed: every load yields the
// default state and saves are dropped.
func NewKeeper(store domain.StateStore, bounds press.Bounds, ttl time.Duration) *Keeper {
	return &Keeper{store: store, bounds: bounds, ttl: ttl}
}

// Load returns the stored state of the session, or the default state when
// there is none or it cannot be read. A panicking store counts as a failed read.
func (k *Keeper) Load(ctx context.Context, id domain.SessionID) (st domain.SessionState) {
	def := domain.NewSessionState(k.bounds.Base)
	if k.store == nil {
		return def
	}

	log := observability.LoggerFromContext(ctx).With("session_id", id)

	defer func() {
		if r := recover(); r != nil {
			log.Warn("state load panicked, using defaults", "panic", fmt.Sprint(r))
			st = def
		}
	}()

	raw, err := k.store.Get(ctx, Key(id))
	if err != nil {
		if !errors.Is(err, domain.ErrStateNotFound) {
			log.Warn("state load failed, using defaults", "error", err)
		}
		return def
	}

	st, ok := Decode(raw, k.bounds)
	if !ok {
		log.Warn("stored state is malformed, using defaults", "bytes", len(raw))
		return def
	}
	return st
}

// Save stores st under the session key with the keeper's TTL. Failures,
// panics included, drop the save.
func (k *Keeper) Save(ctx context.Context, id domain.SessionID, st domain.SessionState) {
	if k.store == nil {
		return
	}

	log := observability.LoggerFromContext(ctx).With("session_id", id)

	defer func() {
		if r := recover(); r != nil {
			log.Warn("state save panicked, dropping it", "panic", fmt.Sprint(r))
		}
	}()

	raw, err := json.Marshal(stored{
		PressLevel: k.bounds.Clamp(st.PressLevel),
		LastVoice:  string(st.LastVoice),
		LastTopic:  st.LastTopic,
		LastAt:     st.LastAt,
	})
	if err != nil {
		log.Warn("state encode failed", "error", err)
		return
	}

	if err := k.store.Put(ctx, Key(id), raw, k.ttl); err != nil {
		log.Warn("state save failed", "error", err)
	}
}

// stored is the wire shape of a SessionState.
type stored struct {
	PressLevel int       `json:"pressLevel"`
	LastVoice  string    `json:"lastVoice"`
	LastTopic  string    `json:"lastTopic"`
	LastAt     time.Time `json:"lastAt"`
}

// Decode parses a stored value. It reports false when the value is not a
// JSON object of the expected shape or names an unknown voice. A press level
// outside bounds is clamped rather than rejected.
func Decode(raw []byte, bounds press.Bounds) (domain.SessionState, bool) {
	var s stored
	if err := json.Unmarshal(raw, &s); err != nil {
		return domain.SessionState{}, false
	}

	v, ok := domain.ParseVoice(s.LastVoice)
	if !ok {
		return domain.SessionState{}, false
	}

	return domain.SessionState{
		PressLevel: bounds.Clamp(s.PressLevel),
		LastVoice:  v,
		LastTopic:  s.LastTopic,
		LastAt:     s.LastAt,
	}, true
}
