package storage

import "time"

// Event is one processed turn: the counterpart's message and the reply the
// persona sent back. Events are appended in the order turns complete.
type Event struct {
	Timestamp    time.Time `json:"timestamp"`
	SessionID    string    `json:"session_id"`
	Channel      string    `json:"channel,omitempty"`
	Message      string    `json:"message"`
	Reply        string    `json:"reply"`
	ScamDetected bool      `json:"scam_detected"`
	ScamType     string    `json:"scam_type,omitempty"`
	RedFlags     []string  `json:"red_flags,omitempty"`
	// Source is "template", "generator" or "fallback".
	Source string `json:"source,omitempty"`
}

// Recorder persists transcript events. Implementations must be safe for
// concurrent use and return events in append order.
type Recorder interface {
	AppendInteraction(event Event) error
	LoadInteractions() ([]Event, error)
}
