package firestore

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

type Store struct {
	client *firestore.Client
	now    func() time.Time
}

var (
	_ domain.StateStore = (*Store)(nil)
	_ domain.EventSink  = (*Store)(nil)
	_ domain.EventLog   = (*Store)(nil)
)

// NewStore creates a Firestore store.
// Uses the project passed (FARUM_GCP_PROJECT).
func NewStore(ctx context.Context, projectID string) (*Store, error) {
	if projectID == "" {
		return nil, fmt.Errorf("projectID is required for Firestore store")
	}

	client, err := firestore.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &Store{client: client, now: time.Now}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

func (s *Store) stateDoc(key string) *firestore.DocumentRef {
	return s.client.Collection("convo").Doc(key)
}

func (s *Store) eventsCol() *firestore.CollectionRef {
	return s.client.Collection("probe_events")
}

type stateDoc struct {
	Value     []byte     `firestore:"value"`
	ExpiresAt *time.Time `firestore:"expires_at"`
}

type eventDoc struct {
	SessionID string    `firestore:"session_id"`
	Type      string    `firestore:"type"`
	Who       string    `firestore:"who"`
	Level     string    `firestore:"level"`
	Tags      []string  `firestore:"tags"`
	Payload   []byte    `firestore:"payload"`
	CreatedAt time.Time `firestore:"created_at"`
}

// Get reads the value under key. Documents past expires_at read as absent;
// removal is left to a Firestore TTL policy on that field.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	snap, err := s.stateDoc(key).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, domain.ErrStateNotFound
		}
		return nil, fmt.Errorf("firestore Get %q: %w", key, err)
	}

	var doc stateDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, fmt.Errorf("firestore Get %q decode: %w", key, err)
	}
	if doc.ExpiresAt != nil && !s.now().Before(*doc.ExpiresAt) {
		return nil, domain.ErrStateNotFound
	}
	return doc.Value, nil
}

// Put overwrites the document under key. A ttl <= 0 means no expiry.
func (s *Store) Put(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	doc := stateDoc{Value: value}
	if ttl > 0 {
		at := s.now().Add(ttl).UTC()
		doc.ExpiresAt = &at
	}

	if _, err := s.stateDoc(key).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore Put %q: %w", key, err)
	}
	return nil
}

// Emit stores the event under its id.
func (s *Store) Emit(ctx context.Context, ev domain.ProbeEvent) error {
	payload, err := marshalPayload(ev.Payload)
	if err != nil {
		return err
	}

	doc := eventDoc{
		SessionID: string(ev.SessionID),
		Type:      ev.Type,
		Who:       ev.Who,
		Level:     ev.Level,
		Tags:      ev.Tags,
		Payload:   payload,
		CreatedAt: ev.CreatedAt,
	}

	if _, err := s.eventsCol().Doc(ev.ID).Set(ctx, doc); err != nil {
		return fmt.Errorf("firestore Emit %s: %w", ev.ID, err)
	}
	return nil
}

// ListEvents returns the last `limit` events of a session, oldest first.
// If limit <= 0, returns all.
func (s *Store) ListEvents(ctx context.Context, sessionID domain.SessionID, limit int) ([]domain.ProbeEvent, error) {
	q := s.eventsCol().
		Where("session_id", "==", string(sessionID)).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	out := []domain.ProbeEvent{}
	for {
		snap, err := iter.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("firestore ListEvents: %w", err)
		}

		var doc eventDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, fmt.Errorf("decode eventDoc: %w", err)
		}
		payload, err := unmarshalPayload(doc.Payload)
		if err != nil {
			return nil, fmt.Errorf("decode eventDoc %s: %w", snap.Ref.ID, err)
		}

		out = append(out, domain.ProbeEvent{
			ID:        snap.Ref.ID,
			Type:      doc.Type,
			Payload:   payload,
			SessionID: domain.SessionID(doc.SessionID),
			Who:       doc.Who,
			Level:     doc.Level,
			Tags:      doc.Tags,
			CreatedAt: doc.CreatedAt,
		})
	}

	slices.Reverse(out)
	return out, nil
}
