package signal

import "github.com/PabloGalante/farum-probe/internal/lexicon"

const (
	strongWeight     = 1.0
	absolutistWeight = 0.5
	// The trip threshold moves from maxThreshold (sensitivity 0) down to
	// maxThreshold-thresholdSpan (sensitivity 1).
	maxThreshold  = 2.0
	thresholdSpan = 1.5
)

// DetectOverwhelm reports whether input reads as overwhelm or crisis.
// Higher sensitivity needs fewer matches; no match never trips.
func DetectOverwhelm(lex *lexicon.Lexicon, input string, sensitivity float64) bool {
	text := lexicon.Parse(input)
	if text.Len() == 0 {
		return false
	}

	weight := float64(len(text.Matches(lex.Overwhelm.Strong)))*strongWeight +
		float64(len(text.Matches(lex.Overwhelm.Absolutist)))*absolutistWeight
	if weight == 0 {
		return false
	}

	return weight >= maxThreshold-thresholdSpan*clamp01(sensitivity)
}

// Overwhelmed is DetectOverwhelm with the detector's lexicon.
func (d *Detector) Overwhelmed(input string, sensitivity float64) bool {
	return DetectOverwhelm(d.lex, input, sensitivity)
}
