package questions

import (
	"context"
	"slices"
	"strings"

	"github.com/PabloGalante/farum-probe/internal/app/press"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/lexicon"
)

// StageInput is the request plus the questions accepted so far.
type StageInput struct {
	Request
	SoFar []string
}

// Stage is one source of candidate questions. Returning nothing is fine; an
// error makes the generator skip the stage.
type Stage interface {
	Name() string
	Run(ctx context.Context, in StageInput) ([]string, error)
}

// PrimaryStage draws from the voice's own pool, firm in the high band.
type PrimaryStage struct {
	pools  *lexicon.Pools
	bounds press.Bounds
	rng    Rand
}

func NewPrimaryStage(pools *lexicon.Pools, bounds press.Bounds, rng Rand) *PrimaryStage {
	return &PrimaryStage{pools: pools, bounds: bounds, rng: rng}
}

func (s *PrimaryStage) Name() string {
	return "primary"
}

func (s *PrimaryStage) Run(_ context.Context, in StageInput) ([]string, error) {
	tiers := s.pools.Primary[in.Voice]
	pool := tiers.Soft
	if s.bounds.InHighBand(in.PressLevel) {
		pool = tiers.Firm
	}
	return pickN(s.rng, pool, 2), nil
}

// ContradictionStage surfaces a tension when the user drifted away from the
// previous topic or hedged heavily. It never resolves the tension.
type ContradictionStage struct {
	pools *lexicon.Pools
	rng   Rand
}

// HeavyHedging is the avoidance score above which hedging alone opens the
// contradiction stage.
const HeavyHedging = 0.7

func NewContradictionStage(pools *lexicon.Pools, rng Rand) *ContradictionStage {
	return &ContradictionStage{pools: pools, rng: rng}
}

func (s *ContradictionStage) Name() string {
	return "contradiction"
}

func (s *ContradictionStage) Run(_ context.Context, in StageInput) ([]string, error) {
	if len(in.SoFar) >= MaxQuestions {
		return nil, nil
	}

	shifted := slices.Contains(in.Cues, domain.CueTopicShift)
	hedged := slices.Contains(in.Cues, domain.CueHedging) && in.AvoidanceScore > HeavyHedging
	if !shifted && !hedged {
		return nil, nil
	}

	// Templates that quote the previous topic need one.
	var usable []string
	for _, t := range s.pools.Contradiction {
		if strings.Contains(t, "{topic}") {
			if in.PreviousTopic == "" {
				continue
			}
			t = strings.ReplaceAll(t, "{topic}", `"`+in.PreviousTopic+`"`)
		}
		usable = append(usable, t)
	}
	return pickN(s.rng, usable, 1), nil
}

// FallbackStage draws from the generic pool when nothing else produced a
// question.
type FallbackStage struct {
	pools *lexicon.Pools
	rng   Rand
}

func NewFallbackStage(pools *lexicon.Pools, rng Rand) *FallbackStage {
	return &FallbackStage{pools: pools, rng: rng}
}

func (s *FallbackStage) Name() string {
	return "fallback"
}

func (s *FallbackStage) Run(_ context.Context, in StageInput) ([]string, error) {
	if len(in.SoFar) > 0 {
		return nil, nil
	}

	pool := s.pools.Generic[in.Voice]
	if len(pool) == 0 {
		pool = s.pools.Generic[domain.VoiceDefault]
	}
	return pickN(s.rng, pool, 2), nil
}
