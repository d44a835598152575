package domain

import "time"

type SessionID string

// Voice is the persona used to frame follow-up questions.
type Voice string

const (
	VoiceMirror     Voice = "mirror"     // Reflects the user's words back
	VoiceOracle     Voice = "oracle"     // Thematic, symbolic framing
	VoiceScientist  Voice = "scientist"  // Asks for verifiable specifics
	VoiceStrategist Voice = "strategist" // Pushes toward concrete action
	VoiceDefault    Voice = "default"    // Neutral framing
)

// Voices lists every persona in a stable order.
var Voices = []Voice{VoiceMirror, VoiceOracle, VoiceScientist, VoiceStrategist, VoiceDefault}

// Valid reports whether v is one of the known personas.
func (v Voice) Valid() bool {
	for _, known := range Voices {
		if v == known {
			return true
		}
	}
	return false
}

// ParseVoice maps s to a known persona. Unknown values yield VoiceDefault and false.
func ParseVoice(s string) (Voice, bool) {
	v := Voice(s)
	if v.Valid() {
		return v, true
	}
	return VoiceDefault, false
}

// Cue names attached to a SignalResult.
const (
	CueHedging    = "hedging"
	CueVague      = "vague"
	CueTopicShift = "topic_shift"
	CueError      = "error"
)

type Timestamp = time.Time
