package core

import (
	"sync"
	"time"
)

// Session is a conversational container tracking the ordered turn history of
// one support thread plus the metadata resolved along the way. It is safe for
// concurrent access.
//
// Contract:
//   - AddTurn appends in call order and updates the Updated timestamp
//   - Transcript returns a defensive copy to avoid external mutation
//   - CustomerID stays empty until a lookup resolves it
//   - LastAgent names the agent that produced the most recent reply
//   - Clone performs deep copies for safe divergence.
type Session struct {
	ID         string    `json:"id"`
	Turns      []Turn    `json:"turns"`
	CustomerID string    `json:"customer_id,omitempty"`
	LastAgent  string    `json:"last_agent,omitempty"`
	Created    time.Time `json:"created"`
	Updated    time.Time `json:"updated"`
	mu         sync.RWMutex
}

// NewSession creates an empty session with the given ID.
func NewSession(id string) *Session {
	now := time.Now().UTC()
	return &Session{ID: id, Turns: []Turn{}, Created: now, Updated: now}
}

// AddTurn appends a turn to the history updating the Updated timestamp.
func (s *Session) AddTurn(t Turn) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Turns = append(s.Turns, t)
	s.Updated = time.Now().UTC()
}

// Transcript returns a copy of the full turn history so callers cannot mutate
// internal state.
func (s *Session) Transcript() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}

// Len returns the number of turns recorded so far.
func (s *Session) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.Turns)
}

// SetCustomerID records the resolved customer identifier.
func (s *Session) SetCustomerID(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.CustomerID = id
	s.Updated = time.Now().UTC()
}

// GetCustomerID returns the customer identifier, empty if not yet resolved.
func (s *Session) GetCustomerID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.CustomerID
}

// SetLastAgent records which agent produced the most recent reply.
func (s *Session) SetLastAgent(agent string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.LastAgent = agent
	s.Updated = time.Now().UTC()
}

// GetLastAgent returns the agent that produced the most recent reply.
func (s *Session) GetLastAgent() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.LastAgent
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{
		ID:         s.ID,
		Turns:      make([]Turn, len(s.Turns)),
		CustomerID: s.CustomerID,
		LastAgent:  s.LastAgent,
		Created:    s.Created,
		Updated:    s.Updated,
	}
	copy(clone.Turns, s.Turns)
	return clone
}

// SessionStore persists sessions and their evolving turn history.
//
// Concurrency contract: implementations must support concurrent calls for
// independent keys, and GetOrCreate must never create the same key twice even
// under concurrent first-touch. Ordering of concurrent mutations against the
// SAME key is left to the caller; serialize externally where turn order
// matters.
type SessionStore interface {
	// GetOrCreate returns the session for key, creating an empty one on
	// first touch.
	GetOrCreate(key string) (*Session, error)

	// Get returns the session for key or ErrSessionNotFound.
	Get(key string) (*Session, error)

	// AppendTurn appends to an existing session's history. Unlike
	// GetOrCreate it never creates the key: appending to an unknown key is
	// a contract violation and fails with ErrSessionNotFound.
	AppendTurn(key string, t Turn) error

	// SetCustomerID records the resolved customer identifier for key.
	SetCustomerID(key, customerID string) error

	// SetLastAgent records the agent that produced the latest reply for key.
	SetLastAgent(key, agent string) error
}
