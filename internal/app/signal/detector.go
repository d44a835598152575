// Package signal scores a single utterance for avoidance and vagueness.
//
// Detection is lexical and deterministic: the same input and previous topic
// always give the same SignalResult.
package signal

import (
	"math"

	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/lexicon"
)

const (
	hedgeWeight   = 0.2
	hedgeCap      = 0.4
	vagueBelow    = 0.3
	vaguePenalty  = 0.25
	driftBelow    = 0.2
	driftPenalty  = 0.2
	minTokenRunes = 3
)

// Detector scores utterances against a fixed lexicon.
type Detector struct {
	lex *lexicon.Lexicon
}

func NewDetector(lex *lexicon.Lexicon) *Detector {
	return &Detector{lex: lex}
}

// Detect computes the avoidance score, cues and concreteness of input.
// previousTopic is the topic fingerprint of the prior turn, or empty.
func (d *Detector) Detect(input, previousTopic string) domain.SignalResult {
	text := lexicon.Parse(input)
	if text.Len() == 0 {
		return domain.SignalResult{Cues: []string{}}
	}

	var (
		score float64
		cues  = []string{}
	)

	if hedges := text.Matches(d.lex.Hedges); len(hedges) > 0 {
		score += math.Min(float64(len(hedges))*hedgeWeight, hedgeCap)
		cues = append(cues, domain.CueHedging)
	}

	concreteness := round2(clamp01(d.concreteness(text)))
	if concreteness < vagueBelow {
		score += vaguePenalty
		cues = append(cues, domain.CueVague)
	}

	if previousTopic != "" {
		if jaccard(d.contentTokens(text), d.contentTokens(lexicon.Parse(previousTopic))) < driftBelow {
			score += driftPenalty
			cues = append(cues, domain.CueTopicShift)
		}
	}

	return domain.SignalResult{
		Score:        round2(clamp01(score)),
		Cues:         cues,
		Concreteness: concreteness,
	}
}

// jaccard is |a∩b| / |a∪b|; two empty sets are identical.
func jaccard(a, b map[string]struct{}) float64 {
	if len(a) == 0 && len(b) == 0 {
		return 1
	}
	if len(a) == 0 || len(b) == 0 {
		return 0
	}

	inter := 0
	for tok := range a {
		if _, ok := b[tok]; ok {
			inter++
		}
	}
	union := len(a) + len(b) - inter
	return float64(inter) / float64(union)
}

func clamp01(x float64) float64 {
	return math.Max(0, math.Min(1, x))
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
