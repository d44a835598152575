package engine_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/PabloGalante/farum-probe/internal/adapters/storage/memory"
	"github.com/PabloGalante/farum-probe/internal/app/engine"
	"github.com/PabloGalante/farum-probe/internal/app/press"
	"github.com/PabloGalante/farum-probe/internal/app/questions"
	"github.com/PabloGalante/farum-probe/internal/app/signal"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/lexicon"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const (
	evasive     = "I guess maybe later"
	overwhelmed = "I'm completely overwhelmed and can't handle this anymore"
)

type downStore struct{}

func (downStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("dial tcp: connection refused")
}

func (downStore) Put(context.Context, string, []byte, time.Duration) error {
	return errors.New("dial tcp: connection refused")
}

type panicStore struct{ onGet, onPut bool }

func (s panicStore) Get(context.Context, string) ([]byte, error) {
	if s.onGet {
		panic("nil map in driver")
	}
	return nil, domain.ErrStateNotFound
}

func (s panicStore) Put(context.Context, string, []byte, time.Duration) error {
	if s.onPut {
		panic("closed pool")
	}
	return nil
}

type badSink struct{ panics bool }

func (s badSink) Emit(context.Context, domain.ProbeEvent) error {
	if s.panics {
		panic("sink exploded")
	}
	return errors.New("log pipeline down")
}

func newEngine(t *testing.T, opts engine.Options) *engine.Engine {
	t.Helper()
	if opts.Rand == nil {
		opts.Rand = questions.NewRand(1)
	}
	if opts.Sink == nil {
		opts.Sink = memory.NewEventStore()
	}
	e, err := engine.New(opts)
	require.NoError(t, err)
	return e
}

func assertWellFormed(t *testing.T, b press.Bounds, res domain.EngineResult) {
	t.Helper()
	assert.True(t, res.Voice.Valid(), "voice %q", res.Voice)
	assert.GreaterOrEqual(t, res.PressLevel, b.Base)
	assert.LessOrEqual(t, res.PressLevel, b.Max)
	assert.NotNil(t, res.Cues)
	assert.GreaterOrEqual(t, len(res.Questions), 1)
	assert.LessOrEqual(t, len(res.Questions), questions.MaxQuestions)
	assert.Equal(t, b.InHighBand(res.PressLevel), res.Micro != nil)
}

func TestRunWithUnavailableStore(t *testing.T) {
	e := newEngine(t, engine.Options{Store: downStore{}, StateTTL: time.Hour})

	res := e.Run(context.Background(), "s1", evasive)

	assertWellFormed(t, e.Bounds(), res)
	assert.NotContains(t, res.Cues, domain.CueError)
	assert.Equal(t, 2, res.PressLevel)
}

func TestRunWithoutStore(t *testing.T) {
	e := newEngine(t, engine.Options{})

	first := e.Run(context.Background(), "s1", evasive)
	second := e.Run(context.Background(), "s1", evasive)

	assertWellFormed(t, e.Bounds(), first)
	assert.Equal(t, 2, first.PressLevel)
	assert.Equal(t, 2, second.PressLevel)
}

func TestRunFallsBackOnPanic(t *testing.T) {
	pools := lexicon.MustDefaultPools()
	e := newEngine(t, engine.Options{
		Pools: pools,
		Now:   func() time.Time { panic("clock stopped") },
	})

	res := e.Run(context.Background(), "s1", evasive)

	assert.Equal(t, domain.EngineResult{
		Voice:      domain.VoiceMirror,
		PressLevel: 1,
		Cues:       []string{domain.CueError},
		Questions:  []string{pools.Fallback},
	}, res)
}

func TestRunWithPanickingStoreDegrades(t *testing.T) {
	for name, store := range map[string]panicStore{
		"get": {onGet: true},
		"put": {onPut: true},
	} {
		t.Run(name, func(t *testing.T) {
			e := newEngine(t, engine.Options{Store: store, StateTTL: time.Hour})

			res := e.Run(context.Background(), "s1", evasive)

			assertWellFormed(t, e.Bounds(), res)
			assert.NotContains(t, res.Cues, domain.CueError)
			assert.Contains(t, res.Cues, domain.CueHedging)
			assert.Equal(t, 2, res.PressLevel)
		})
	}
}

func TestRunEscalatesAndDeescalates(t *testing.T) {
	store := memory.NewStateStore()
	e := newEngine(t, engine.Options{Store: store, StateTTL: time.Hour})
	ctx := context.Background()
	b := e.Bounds()

	var levels []int
	for i := 0; i < 4; i++ {
		res := e.Run(ctx, "s1", evasive)
		assertWellFormed(t, b, res)
		assert.Contains(t, res.Cues, domain.CueHedging)
		levels = append(levels, res.PressLevel)
	}
	assert.Equal(t, []int{2, 3, 4, 4}, levels)

	res := e.Run(ctx, "s1", overwhelmed)
	assertWellFormed(t, b, res)
	assert.Equal(t, 3, res.PressLevel)

	assert.Equal(t, 3, e.State(ctx, "s1").PressLevel)
}

func TestRunOverwhelmAtBaseStaysAtBase(t *testing.T) {
	e := newEngine(t, engine.Options{Store: memory.NewStateStore(), StateTTL: time.Hour})

	res := e.Run(context.Background(), "s1", overwhelmed)
	assert.Equal(t, 1, res.PressLevel)
	assert.Nil(t, res.Micro)
}

func TestRunPersistsTopicAndVoice(t *testing.T) {
	store := memory.NewStateStore()
	at := time.Date(2026, 9, 1, 9, 0, 0, 0, time.UTC)
	e := newEngine(t, engine.Options{
		Store:    store,
		StateTTL: time.Hour,
		Now:      func() time.Time { return at },
	})
	ctx := context.Background()
	det := signal.NewDetector(lexicon.MustDefault())

	text := "My manager moved the project deadline again on Monday"
	res := e.Run(ctx, "s1", text)

	st := e.State(ctx, "s1")
	assert.Equal(t, det.Topic(text), st.LastTopic)
	assert.NotEmpty(t, st.LastTopic)
	assert.Equal(t, res.Voice, st.LastVoice)
	assert.Equal(t, res.PressLevel, st.PressLevel)
	assert.True(t, at.Equal(st.LastAt))

	e.Run(ctx, "s1", "...")
	assert.Equal(t, det.Topic(text), e.State(ctx, "s1").LastTopic)
}

func TestRunEmptySessionIsStateless(t *testing.T) {
	store := memory.NewStateStore()
	events := memory.NewEventStore()
	e := newEngine(t, engine.Options{Store: store, StateTTL: time.Hour, Sink: events})

	res := e.Run(context.Background(), "", evasive)

	assertWellFormed(t, e.Bounds(), res)
	assert.Equal(t, 0, store.Len())
}

func TestRunEmitsOneEventPerTurn(t *testing.T) {
	events := memory.NewEventStore()
	e := newEngine(t, engine.Options{Store: memory.NewStateStore(), StateTTL: time.Hour, Sink: events})
	ctx := context.Background()

	first := e.Run(ctx, "s1", evasive)
	e.Run(ctx, "s1", overwhelmed)

	got, err := events.ListEvents(ctx, "s1", 0)
	require.NoError(t, err)
	require.Len(t, got, 2)

	ev := got[0]
	assert.Equal(t, domain.ProbeEventType, ev.Type)
	assert.Equal(t, "probe", ev.Payload.Action)
	assert.Equal(t, evasive, ev.Payload.Input.Text)
	assert.Equal(t, first, ev.Payload.Result)
	assert.False(t, ev.Payload.Overwhelmed)
	assert.Contains(t, ev.Tags, "probe")
	assert.Contains(t, ev.Tags, "press:2")
	assert.Contains(t, ev.Tags, "voice:"+string(first.Voice))
	assert.Contains(t, ev.Tags, domain.CueHedging)

	assert.True(t, got[1].Payload.Overwhelmed)
}

func TestRunSurvivesBrokenSink(t *testing.T) {
	for _, sink := range []badSink{{}, {panics: true}} {
		e := newEngine(t, engine.Options{Store: memory.NewStateStore(), StateTTL: time.Hour, Sink: sink})
		res := e.Run(context.Background(), "s1", evasive)

		assertWellFormed(t, e.Bounds(), res)
		assert.NotContains(t, res.Cues, domain.CueError)
		assert.Equal(t, 2, e.State(context.Background(), "s1").PressLevel)
	}
}

func TestNewRejectsInvalidBounds(t *testing.T) {
	_, err := engine.New(engine.Options{Bounds: &press.Bounds{Base: 5, Max: 2}})
	require.Error(t, err)
}

func TestRunPropertiesAcrossInputs(t *testing.T) {
	e := newEngine(t, engine.Options{Store: memory.NewStateStore(), StateTTL: time.Hour})
	ctx := context.Background()

	inputs := []string{
		"",
		"   ",
		"!!!",
		evasive,
		overwhelmed,
		"What is the meaning of all this? I feel lost on my path.",
		"I need a plan and a deadline for the launch on Friday",
		"Yesterday at 3pm I called the bank and closed the account",
		"whatever, dunno, kind of, sort of, maybe, perhaps",
	}
	for i, in := range inputs {
		for _, id := range []domain.SessionID{"a", "b"} {
			res := e.Run(ctx, id, in)
			assertWellFormed(t, e.Bounds(), res)
			assert.NotContains(t, res.Cues, domain.CueError, "input %d", i)
		}
	}
}
