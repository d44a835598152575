// Package sqlite stores session state and probe events in a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	_ "modernc.org/sqlite"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS convo_state (
	key        TEXT PRIMARY KEY,
	value      BLOB NOT NULL,
	expires_at INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS probe_events (
	seq        INTEGER PRIMARY KEY AUTOINCREMENT,
	id         TEXT NOT NULL UNIQUE,
	session_id TEXT NOT NULL,
	type       TEXT NOT NULL,
	who        TEXT NOT NULL,
	level      TEXT NOT NULL,
	tags       TEXT NOT NULL,
	payload    TEXT NOT NULL,
	created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_probe_events_session ON probe_events(session_id, seq);
`

// Store implements StateStore, EventSink and EventLog on SQLite.
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var (
	_ domain.StateStore = (*Store)(nil)
	_ domain.EventSink  = (*Store)(nil)
	_ domain.EventLog   = (*Store)(nil)
)

// Open opens or creates a SQLite DB at path and creates the tables.
// Creates the parent directory if it does not exist.
func Open(ctx context.Context, path string) (*Store, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("create store dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// One writer at a time; avoids SQLITE_BUSY between pooled connections.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// WithClock replaces the clock used for expiry.
func (s *Store) WithClock(now func() time.Time) *Store {
	s.now = now
	return s
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the value under key. Expired rows read as absent and are
// purged on the way out.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var (
		value     []byte
		expiresAt int64
	)
	err := s.db.QueryRowContext(ctx,
		"SELECT value, expires_at FROM convo_state WHERE key = ?", key,
	).Scan(&value, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrStateNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("sqlite get %q: %w", key, err)
	}

	if expiresAt != 0 && s.now().UnixNano() >= expiresAt {
		if _, err := s.db.ExecContext(ctx,
			"DELETE FROM convo_state WHERE key = ? AND expires_at = ?", key, expiresAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite purge %q: %w", key, err)
		}
		return nil, domain.ErrStateNotFound
	}
	return value, nil
}

// Put upserts value under key. A ttl <= 0 means the value never expires.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt int64
	if ttl > 0 {
		expiresAt = s.now().Add(ttl).UnixNano()
	}

	_, err := s.db.ExecContext(ctx, `
INSERT INTO convo_state(key, value, expires_at) VALUES(?, ?, ?)
ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`,
		key, value, expiresAt)
	if err != nil {
		return fmt.Errorf("sqlite put %q: %w", key, err)
	}
	return nil
}

// Emit appends a probe event.
func (s *Store) Emit(ctx context.Context, ev domain.ProbeEvent) error {
	tags, err := json.Marshal(ev.Tags)
	if err != nil {
		return fmt.Errorf("encode tags: %w", err)
	}
	payload, err := json.Marshal(ev.Payload)
	if err != nil {
		return fmt.Errorf("encode payload: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO probe_events(id, session_id, type, who, level, tags, payload, created_at)
VALUES(?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, string(ev.SessionID), ev.Type, ev.Who, ev.Level,
		string(tags), string(payload), ev.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("sqlite emit %s: %w", ev.ID, err)
	}
	return nil
}

// ListEvents returns the last `limit` events of a session, oldest first.
// If limit <= 0, returns all.
func (s *Store) ListEvents(ctx context.Context, sessionID domain.SessionID, limit int) ([]domain.ProbeEvent, error) {
	if limit <= 0 {
		limit = -1
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT id, session_id, type, who, level, tags, payload, created_at
FROM probe_events WHERE session_id = ? ORDER BY seq DESC LIMIT ?`,
		string(sessionID), limit)
	if err != nil {
		return nil, fmt.Errorf("sqlite list events: %w", err)
	}
	defer rows.Close()

	out := []domain.ProbeEvent{}
	for rows.Next() {
		var (
			ev                       domain.ProbeEvent
			sid, tags, payload, when string
		)
		if err := rows.Scan(&ev.ID, &sid, &ev.Type, &ev.Who, &ev.Level, &tags, &payload, &when); err != nil {
			return nil, fmt.Errorf("scan probe event: %w", err)
		}
		ev.SessionID = domain.SessionID(sid)
		if err := json.Unmarshal([]byte(tags), &ev.Tags); err != nil {
			return nil, fmt.Errorf("decode tags of %s: %w", ev.ID, err)
		}
		if err := json.Unmarshal([]byte(payload), &ev.Payload); err != nil {
			return nil, fmt.Errorf("decode payload of %s: %w", ev.ID, err)
		}
		if ev.CreatedAt, err = time.Parse(time.RFC3339Nano, when); err != nil {
			return nil, fmt.Errorf("decode created_at of %s: %w", ev.ID, err)
		}
		out = append(out, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate probe events: %w", err)
	}

	slices.Reverse(out)
	return out, nil
}
