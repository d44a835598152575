package probelog

import (
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/PabloGalante/farum-probe/internal/domain"
)

// Turn is everything the engine knows once a turn is decided.
type Turn struct {
	SessionID   domain.SessionID
	Text        string
	Signals     domain.SignalResult
	Overwhelmed bool
	Result      domain.EngineResult
	At          time.Time
}

// NewEvent builds the probe event of a turn.
func NewEvent(t Turn) domain.ProbeEvent {
	at := t.At
	if at.IsZero() {
		at = time.Now().UTC()
	}

	return domain.ProbeEvent{
		ID:   uuid.NewString(),
		Type: domain.ProbeEventType,
		Payload: domain.ProbePayload{
			Action: "probe",
			Input: domain.ProbeInput{
				Text:      t.Text,
				SessionID: t.SessionID,
			},
			Signals:     t.Signals,
			Overwhelmed: t.Overwhelmed,
			Result:      t.Result,
		},
		SessionID: t.SessionID,
		Who:       "system",
		Level:     "info",
		Tags:      Tags(t.Result),
		CreatedAt: at,
	}
}

// Tags are probe, voice:<v>, press:<n>, then every cue once.
func Tags(r domain.EngineResult) []string {
	tags := []string{
		"probe",
		"voice:" + string(r.Voice),
		"press:" + strconv.Itoa(r.PressLevel),
	}
	for _, c := range r.Cues {
		if !slices.Contains(tags, c) {
			tags = append(tags, c)
		}
	}
	return tags
}
