// Package engine runs one conversational turn end to end: state, signals,
// press level, voice, questions, event and persistence.
package engine

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/PabloGalante/farum-probe/internal/app/press"
	"github.com/PabloGalante/farum-probe/internal/app/probelog"
	"github.com/PabloGalante/farum-probe/internal/app/questions"
	"github.com/PabloGalante/farum-probe/internal/app/sessionstate"
	"github.com/PabloGalante/farum-probe/internal/app/signal"
	"github.com/PabloGalante/farum-probe/internal/app/voice"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/lexicon"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

// DefaultSensitivity is the overwhelm sensitivity when none is configured.
const DefaultSensitivity = 0.5

// Options configures an Engine. Zero values fall back to the embedded
// lexicon and pools, bounds [1, 4], no store, the slog sink and a
// time-seeded random source.
type Options struct {
	Lexicon     *lexicon.Lexicon
	Pools       *lexicon.Pools
	Bounds      *press.Bounds
	Sensitivity *float64
	Store       domain.StateStore
	StateTTL    time.Duration
	Sink        domain.EventSink
	Rand        questions.Rand
	Now         func() time.Time
}

type Engine struct {
	detector    *signal.Detector
	selector    *voice.Selector
	generator   *questions.Generator
	keeper      *sessionstate.Keeper
	sink        domain.EventSink
	bounds      press.Bounds
	sensitivity float64
	fallback    string
	now         func() time.Time
}

func New(opts Options) (*Engine, error) {
	lex := opts.Lexicon
	if lex == nil {
		lex = lexicon.MustDefault()
	}
	pools := opts.Pools
	if pools == nil {
		pools = lexicon.MustDefaultPools()
	}

	bounds := press.Bounds{Base: 1, Max: 4, High: 3}
	if opts.Bounds != nil {
		b, err := press.NewBounds(opts.Bounds.Base, opts.Bounds.Max, opts.Bounds.High)
		if err != nil {
			return nil, fmt.Errorf("engine: %w", err)
		}
		bounds = b
	}

	sensitivity := DefaultSensitivity
	if opts.Sensitivity != nil {
		sensitivity = *opts.Sensitivity
	}

	sink := opts.Sink
	if sink == nil {
		sink = observability.NewSlogSink()
	}
	rng := opts.Rand
	if rng == nil {
		rng = questions.NewRand(0)
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Engine{
		detector:    signal.NewDetector(lex),
		selector:    voice.NewSelector(lex, bounds),
		generator:   questions.NewGenerator(pools, bounds, rng),
		keeper:      sessionstate.NewKeeper(opts.Store, bounds, opts.StateTTL),
		sink:        sink,
		bounds:      bounds,
		sensitivity: sensitivity,
		fallback:    pools.Fallback,
		now:         now,
	}, nil
}

// Bounds are the press-level bounds the engine runs with.
func (e *Engine) Bounds() press.Bounds {
	return e.bounds
}

// Run handles one turn. It never fails: any panic inside the pipeline is
// turned into the fallback result.
func (e *Engine) Run(ctx context.Context, sessionID domain.SessionID, text string) (res domain.EngineResult) {
	log := observability.LoggerFromContext(ctx).With("session_id", sessionID)

	defer func() {
		if r := recover(); r != nil {
			log.Error("probe turn failed, returning fallback", "panic", fmt.Sprint(r))
			res = e.fallbackResult()
		}
	}()

	stateless := sessionID == ""
	if stateless {
		log.Warn("empty session id, running stateless turn")
	}

	state := domain.NewSessionState(e.bounds.Base)
	if !stateless {
		state = e.keeper.Load(ctx, sessionID)
	}

	signals := e.detector.Detect(text, state.LastTopic)
	overwhelmed := e.detector.Overwhelmed(text, e.sensitivity)
	level := e.bounds.Next(state.PressLevel, signals.Score, overwhelmed)

	v := e.selector.Select(ctx, voice.Input{Text: text, Signals: signals, PressLevel: level})

	out := e.generator.Generate(ctx, questions.Request{
		SessionID:      sessionID,
		Voice:          v,
		PressLevel:     level,
		Text:           text,
		PreviousTopic:  state.LastTopic,
		Cues:           signals.Cues,
		AvoidanceScore: signals.Score,
	})

	res = domain.EngineResult{
		Voice:      v,
		PressLevel: level,
		Cues:       slices.Clone(signals.Cues),
		Questions:  out.Questions,
		Micro:      out.Micro,
	}
	if res.Cues == nil {
		res.Cues = []string{}
	}

	now := e.now().UTC()
	e.emit(ctx, probelog.NewEvent(probelog.Turn{
		SessionID:   sessionID,
		Text:        text,
		Signals:     signals,
		Overwhelmed: overwhelmed,
		Result:      res,
		At:          now,
	}))

	if !stateless {
		topic := e.detector.Topic(text)
		if topic == "" {
			topic = state.LastTopic
		}
		e.keeper.Save(ctx, sessionID, domain.SessionState{
			PressLevel: level,
			LastVoice:  v,
			LastTopic:  topic,
			LastAt:     now,
		})
	}

	log.Debug("probe turn done",
		"voice", res.Voice,
		"press_level", res.PressLevel,
		"cues", res.Cues,
		"overwhelmed", overwhelmed,
	)
	return res
}

// State returns the persisted state of a session, or the default state.
func (e *Engine) State(ctx context.Context, sessionID domain.SessionID) domain.SessionState {
	return e.keeper.Load(ctx, sessionID)
}

func (e *Engine) emit(ctx context.Context, ev domain.ProbeEvent) {
	log := observability.LoggerFromContext(ctx).With("session_id", ev.SessionID, "event_id", ev.ID)

	defer func() {
		if r := recover(); r != nil {
			log.Warn("probe event sink panicked", "panic", fmt.Sprint(r))
		}
	}()

	if err := e.sink.Emit(ctx, ev); err != nil {
		log.Warn("probe event emit failed", "error", err)
	}
}

func (e *Engine) fallbackResult() domain.EngineResult {
	return domain.EngineResult{
		Voice:      domain.VoiceMirror,
		PressLevel: e.bounds.Base,
		Cues:       []string{domain.CueError},
		Questions:  []string{e.fallback},
		Micro:      nil,
	}
}
