package signal

import (
	"slices"
	"strings"
	"unicode"

	"github.com/PabloGalante/farum-probe/internal/lexicon"
)

const (
	minWords         = 8
	baselineWeight   = 0.3
	temporalWeight   = 0.2
	spatialWeight    = 0.15
	numericWeight    = 0.15
	nounVerbWeight   = 0.2
	pastTenseMinRune = 5
)

// concreteness rewards length up to minWords, then time, place, numbers and a
// noun+verb pair. The caller clamps the result.
func (d *Detector) concreteness(text lexicon.Text) float64 {
	words := float64(text.Len())
	c := baselineWeight * min(words/minWords, 1)

	if text.HasAny(d.lex.Temporal) {
		c += temporalWeight
	}
	if text.HasAny(d.lex.Spatial) {
		c += spatialWeight
	}
	if d.hasNumber(text) {
		c += numericWeight
	}
	if d.hasNounVerb(text) {
		c += nounVerbWeight
	}
	return c
}

func (d *Detector) hasNumber(text lexicon.Text) bool {
	for _, tok := range text.Tokens() {
		if strings.IndexFunc(tok, unicode.IsDigit) >= 0 {
			return true
		}
	}
	return text.HasAny(d.lex.NumberWords)
}

// hasNounVerb looks for a known or -ed verb together with a word that follows
// a determiner ("my manager", "the office").
func (d *Detector) hasNounVerb(text lexicon.Text) bool {
	tokens := text.Tokens()

	verb := false
	for _, tok := range tokens {
		if slices.Contains(d.lex.Verbs, tok) || (strings.HasSuffix(tok, "ed") && len([]rune(tok)) >= pastTenseMinRune) {
			verb = true
			break
		}
	}
	if !verb {
		return false
	}

	for i := 0; i+1 < len(tokens); i++ {
		if !slices.Contains(d.lex.Determiners, tokens[i]) {
			continue
		}
		next := tokens[i+1]
		if len([]rune(next)) >= minTokenRunes &&
			!slices.Contains(d.lex.Determiners, next) &&
			!slices.Contains(d.lex.StopWords, next) {
			return true
		}
	}
	return false
}
