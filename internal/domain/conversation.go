package domain

import "slices"

// SessionState is what survives between turns of one session.
type SessionState struct {
	PressLevel int       `json:"pressLevel"`
	LastVoice  Voice     `json:"lastVoice"`
	LastTopic  string    `json:"lastTopic"`
	LastAt     Timestamp `json:"lastAt"`
}

// NewSessionState returns the state of a session that has never been seen.
func NewSessionState(base int) SessionState {
	return SessionState{
		PressLevel: base,
		LastVoice:  VoiceMirror,
	}
}

// SignalResult is the lexical reading of a single utterance.
// Score and Concreteness are in [0,1] with two decimals.
type SignalResult struct {
	Score        float64  `json:"score"`
	Cues         []string `json:"cues"`
	Concreteness float64  `json:"concreteness"`
}

// HasCue reports whether the cue was raised.
func (s SignalResult) HasCue(cue string) bool {
	return slices.Contains(s.Cues, cue)
}

// EngineResult is returned to the caller for every turn.
type EngineResult struct {
	Voice      Voice    `json:"voice"`
	PressLevel int      `json:"pressLevel"`
	Cues       []string `json:"cues"`
	Questions  []string `json:"questions"`
	Micro      *string  `json:"micro"`
}
