package domain

import "time"

// ProbeEventType is the type tag of the event emitted once per turn.
const ProbeEventType = "conversationalProbe"

// ProbeInput is the caller input recorded with an event.
type ProbeInput struct {
	Text      string    `json:"text"`
	SessionID SessionID `json:"session_id"`
}

// ProbePayload holds what the engine saw and what it answered.
type ProbePayload struct {
	Action      string       `json:"action"`
	Input       ProbeInput   `json:"input"`
	Signals     SignalResult `json:"signals"`
	Overwhelmed bool         `json:"overwhelmed"`
	Result      EngineResult `json:"result"`
}

// ProbeEvent is the structured log record of one engine turn
type ProbeEvent struct {
	ID        string       `json:"id"`
	Type      string       `json:"type"`
	Payload   ProbePayload `json:"payload"`
	SessionID SessionID    `json:"session_id"`
	Who       string       `json:"who"`
	Level     string       `json:"level"`
	Tags      []string     `json:"tags"`
	CreatedAt time.Time    `json:"created_at"`
}
