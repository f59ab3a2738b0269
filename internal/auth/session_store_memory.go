package auth

import (
	"context"
	"sync"
)

// NewInMemorySessionStore returns a SessionStore backed by an in-memory map.
// Used by tests and local development seeds.
func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{sessions: make(map[string]Session)}
}

// InMemorySessionStore implements SessionStore without durable storage.
type InMemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]Session
}

// Put registers a session record.
func (s *InMemorySessionStore) Put(session Session) {
	s.mu.Lock()
	s.sessions[session.Token] = session
	s.mu.Unlock()
}

// Find retrieves a session by token.
func (s *InMemorySessionStore) Find(_ context.Context, token string) (Session, error) {
	s.mu.RLock()
	session, ok := s.sessions[token]
	s.mu.RUnlock()
	if !ok {
		return Session{}, ErrInvalidToken
	}
	return session, nil
}

var _ SessionStore = (*InMemorySessionStore)(nil)
