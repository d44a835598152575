// Package voice picks the persona that frames the follow-up questions.
package voice

import (
	"context"
	"fmt"

	"github.com/PabloGalante/farum-probe/internal/app/press"
	"github.com/PabloGalante/farum-probe/internal/domain"
	"github.com/PabloGalante/farum-probe/internal/lexicon"
	"github.com/PabloGalante/farum-probe/internal/observability"
)

const (
	lowConcreteness  = 0.4
	highConcreteness = 0.6
)

// Input is what the selector looks at for one turn.
type Input struct {
	Text       string
	Signals    domain.SignalResult
	PressLevel int
}

// Selector maps an utterance, its signals and the press level to a voice.
type Selector struct {
	lex    *lexicon.Lexicon
	bounds press.Bounds
}

func NewSelector(lex *lexicon.Lexicon, bounds press.Bounds) *Selector {
	return &Selector{lex: lex, bounds: bounds}
}

// Select returns the voice for in. Explicit trigger phrases win, checked in
// lexicon.TriggerOrder. Otherwise:
//
//	vague and already pressing      -> scientist
//	high band and concrete          -> strategist
//	thematic or symbolic wording    -> oracle
//	press at base                   -> mirror
//	anything else                   -> default
//
// Any failure while selecting yields mirror.
func (s *Selector) Select(ctx context.Context, in Input) (v domain.Voice) {
	log := observability.LoggerFromContext(ctx)

	defer func() {
		if r := recover(); r != nil {
			log.Warn("voice selection failed, using mirror", "panic", fmt.Sprint(r))
			v = domain.VoiceMirror
		}
	}()

	v, err := s.selectVoice(in)
	if err != nil {
		log.Warn("voice selection failed, using mirror", "error", err)
		return domain.VoiceMirror
	}
	return v
}

func (s *Selector) selectVoice(in Input) (domain.Voice, error) {
	if s.lex == nil {
		return "", fmt.Errorf("selector has no lexicon")
	}

	text := lexicon.Parse(in.Text)
	for _, candidate := range lexicon.TriggerOrder {
		if text.HasAny(s.lex.Triggers[candidate]) {
			return candidate, nil
		}
	}

	c := in.Signals.Concreteness
	switch {
	case c < lowConcreteness && in.PressLevel > s.bounds.Base:
		return domain.VoiceScientist, nil
	case s.bounds.InHighBand(in.PressLevel) && c >= highConcreteness:
		return domain.VoiceStrategist, nil
	case text.HasAny(s.lex.Thematic):
		return domain.VoiceOracle, nil
	case in.PressLevel <= s.bounds.Base:
		return domain.VoiceMirror, nil
	default:
		return domain.VoiceDefault, nil
	}
}
