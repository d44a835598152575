package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/PabloGalante/farum-probe/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-probe/internal/domain"
)

func TestStateStoreRoundTripAndExpiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	store := memory.NewStateStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	_, err := store.Get(ctx, "convo:a")
	require.ErrorIs(t, err, domain.ErrStateNotFound)

	require.NoError(t, store.Put(ctx, "convo:a", []byte(`{"pressLevel":2}`), time.Hour))

	got, err := store.Get(ctx, "convo:a")
	require.NoError(t, err)
	assert.JSONEq(t, `{"pressLevel":2}`, string(got))

	now = now.Add(time.Hour)
	_, err = store.Get(ctx, "convo:a")
	require.ErrorIs(t, err, domain.ErrStateNotFound)
	assert.Equal(t, 0, store.Len())
}

func TestStateStoreNoTTLNeverExpires(t *testing.T) {
	t.Parallel()

	now := time.Now()
	store := memory.NewStateStore().WithClock(func() time.Time { return now })
	ctx := context.Background()

	require.NoError(t, store.Put(ctx, "k", []byte("v"), 0))
	now = now.Add(24 * 365 * time.Hour)

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "v", string(got))
}

func TestStateStoreCopiesValues(t *testing.T) {
	t.Parallel()

	store := memory.NewStateStore()
	ctx := context.Background()

	buf := []byte("abc")
	require.NoError(t, store.Put(ctx, "k", buf, time.Minute))
	buf[0] = 'x'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, "abc", string(got))
}

func TestStateStoreHonoursCancelledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	store := memory.NewStateStore()
	require.ErrorIs(t, store.Put(ctx, "k", []byte("v"), time.Minute), context.Canceled)
	_, err := store.Get(ctx, "k")
	require.ErrorIs(t, err, context.Canceled)
}

func TestEventStoreListsLastEventsInOrder(t *testing.T) {
	t.Parallel()

	store := memory.NewEventStore()
	ctx := context.Background()

	for _, id := range []string{"e1", "e2", "e3"} {
		require.NoError(t, store.Emit(ctx, domain.ProbeEvent{ID: id, SessionID: "s1"}))
	}
	require.NoError(t, store.Emit(ctx, domain.ProbeEvent{ID: "other", SessionID: "s2"}))

	all, err := store.ListEvents(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, "e1", all[0].ID)

	last, err := store.ListEvents(ctx, "s1", 2)
	require.NoError(t, err)
	require.Len(t, last, 2)
	assert.Equal(t, "e2", last[0].ID)
	assert.Equal(t, "e3", last[1].ID)

	none, err := store.ListEvents(ctx, "missing", 5)
	require.NoError(t, err)
	assert.Empty(t, none)
}
