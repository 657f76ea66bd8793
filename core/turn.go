package core

import (
	"time"

	"github.com/google/uuid"
)

// SpeakerUser is the speaker value for inbound customer messages. Outbound
// turns carry the name of the support agent that produced them (triage,
// technical, billing, manager).
const SpeakerUser = "user"

// Turn is one message within a session's history: who spoke, what they said
// and when. Turns are value types; once appended to a session they are never
// mutated.
type Turn struct {
	Speaker   string    `json:"speaker"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewTurn creates a turn stamped with the current UTC time.
func NewTurn(speaker, text string) Turn {
	return Turn{Speaker: speaker, Text: text, Timestamp: time.Now().UTC()}
}

// NewUserTurn is a convenience wrapper for an inbound customer message.
func NewUserTurn(text string) Turn { return NewTurn(SpeakerUser, text) }

// IsUser reports whether the turn was spoken by the customer.
func (t Turn) IsUser() bool { return t.Speaker == SpeakerUser }

// NewID generates a new unique identifier for sessions, tickets and other
// correlation handles.
func NewID() string { return uuid.NewString() }
