package session

import (
	"fmt"
	"sync"

	"github.com/deskmesh/deskmesh/core"
)

// InMemoryStore is a volatile SessionStore implementation keeping sessions in
// a process local map. It is safe for concurrent access and best suited for
// tests or ephemeral demo runs. Returned sessions are cloned to prevent
// external mutation of internal state.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

// GetOrCreate returns an existing session (clone) or creates a new one. The
// write lock spans lookup and insert so concurrent first-touch on the same
// key yields exactly one session.
func (s *InMemoryStore) GetOrCreate(key string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[key]; ok {
		return sess.Clone(), nil
	}
	sess := core.NewSession(key)
	s.sessions[key] = sess
	return sess.Clone(), nil
}

// Get returns a clone of the session or core.ErrSessionNotFound.
func (s *InMemoryStore) Get(key string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sess, ok := s.sessions[key]
	if !ok {
		return nil, fmt.Errorf("get %q: %w", key, core.ErrSessionNotFound)
	}
	return sess.Clone(), nil
}

// AppendTurn adds a turn to an existing session. It never creates the key.
func (s *InMemoryStore) AppendTurn(key string, t core.Turn) error {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("append to %q: %w", key, core.ErrSessionNotFound)
	}
	sess.AddTurn(t)
	return nil
}

// SetCustomerID records the resolved customer identifier.
func (s *InMemoryStore) SetCustomerID(key, customerID string) error {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("set customer on %q: %w", key, core.ErrSessionNotFound)
	}
	sess.SetCustomerID(customerID)
	return nil
}

// SetLastAgent records the agent that produced the latest reply.
func (s *InMemoryStore) SetLastAgent(key, agent string) error {
	s.mu.RLock()
	sess, ok := s.sessions[key]
	s.mu.RUnlock()
	if !ok {
		return fmt.Errorf("set agent on %q: %w", key, core.ErrSessionNotFound)
	}
	sess.SetLastAgent(agent)
	return nil
}
