// Package questions builds the follow-up questions for one turn from a
// sequence of stages, with a guardrail against empty or bland output.
package questions

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/PabloGalante/farum-probe/internal/app/press"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/lexicon"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

// MaxQuestions caps the questions returned for a turn.
const MaxQuestions = 3

// Request is everything the stages may use to produce questions.
type Request struct {
	SessionID      domain.SessionID
	Voice          domain.Voice
	PressLevel     int
	Text           string
	PreviousTopic  string
	Cues           []string
	AvoidanceScore float64
}

// Output is the generated set: 1..MaxQuestions questions and an optional
// micro-commitment.
type Output struct {
	Questions []string
	Micro     *string
}

// Step is a stage plus the most questions it may add.
type Step struct {
	Stage Stage
	Limit int
}

// Generator runs its steps in order and post-processes the result.
type Generator struct {
	pools  *lexicon.Pools
	bounds press.Bounds
	rng    Rand
	steps  []Step
}

// NewGenerator returns a generator with the primary, contradiction and
// fallback stages.
func NewGenerator(pools *lexicon.Pools, bounds press.Bounds, rng Rand) *Generator {
	return NewGeneratorWithSteps(pools, bounds, rng, DefaultSteps(pools, bounds, rng)...)
}

func NewGeneratorWithSteps(pools *lexicon.Pools, bounds press.Bounds, rng Rand, steps ...Step) *Generator {
	return &Generator{
		pools:  pools,
		bounds: bounds,
		rng:    rng,
		steps:  steps,
	}
}

// DefaultSteps is primary (2), contradiction (1), fallback (2).
func DefaultSteps(pools *lexicon.Pools, bounds press.Bounds, rng Rand) []Step {
	return []Step{
		{Stage: NewPrimaryStage(pools, bounds, rng), Limit: 2},
		{Stage: NewContradictionStage(pools, rng), Limit: 1},
		{Stage: NewFallbackStage(pools, rng), Limit: 2},
	}
}

// Generate never fails: a stage that errors or panics adds nothing and the
// guardrail guarantees at least one question.
func (g *Generator) Generate(ctx context.Context, req Request) Output {
	log := observability.LoggerFromContext(ctx).With(
		"session_id", req.SessionID,
		"voice", req.Voice,
		"press_level", req.PressLevel,
	)

	var qs []string
	for _, step := range g.steps {
		start := time.Now()

		out, err := runStage(ctx, step.Stage, StageInput{Request: req, SoFar: slices.Clone(qs)})
		if err != nil {
			log.Warn("question stage failed", "stage", step.Stage.Name(), "error", err)
			continue
		}

		before := len(qs)
		qs = appendDistinct(qs, out, step.Limit)
		log.Debug("question stage end",
			"stage", step.Stage.Name(),
			"added", len(qs)-before,
			"elapsed_ms", time.Since(start).Milliseconds())
	}

	if g.needsGuardrail(qs) {
		log.Info("question guardrail applied", "candidates", len(qs))
		qs = []string{g.guardrail(req.PressLevel)}
	}
	if len(qs) > MaxQuestions {
		qs = qs[:MaxQuestions]
	}

	return Output{
		Questions: qs,
		Micro:     g.micro(req),
	}
}

func runStage(ctx context.Context, stage Stage, in StageInput) (out []string, err error) {
	defer func() {
		if r := recover(); r != nil {
			out, err = nil, fmt.Errorf("stage %s panicked: %v", stage.Name(), r)
		}
	}()
	return stage.Run(ctx, in)
}

// appendDistinct adds up to limit new, non-empty questions.
func appendDistinct(qs, candidates []string, limit int) []string {
	added := 0
	for _, c := range candidates {
		if added == limit {
			break
		}
		c = strings.TrimSpace(c)
		if c == "" || slices.Contains(qs, c) {
			continue
		}
		qs = append(qs, c)
		added++
	}
	return qs
}

func (g *Generator) needsGuardrail(qs []string) bool {
	for _, q := range qs {
		if !g.pools.IsBland(q) {
			return false
		}
	}
	return true
}

func (g *Generator) guardrail(level int) string {
	switch g.bounds.Band(level) {
	case "high":
		return g.pools.Guardrail.High
	case "mid":
		return g.pools.Guardrail.Mid
	default:
		return g.pools.Guardrail.Low
	}
}

// micro returns one nudge from the voice's pool when level is in the high band.
func (g *Generator) micro(req Request) *string {
	if !g.bounds.InHighBand(req.PressLevel) {
		return nil
	}

	pool := g.pools.Micro[req.Voice]
	if len(pool) == 0 {
		pool = g.pools.Micro[domain.VoiceDefault]
	}
	m := pool[g.rng.IntN(len(pool))]
	return &m
}
