package agents

import (
	"sync"

	"github.com/huandu/go-clone"

	"github.com/go-go-golems/scoutgpt/pkg/turns"
)

// SessionStore persists one Turn per session identifier. Get returns a
// deep snapshot so callers can mutate freely; Update writes a snapshot
// back. Access is serialized per key, which is what makes concurrent
// sessions safe while a single session stays strictly sequential.
type SessionStore interface {
	Get(sessionID string) (*turns.Turn, error)
	Update(sessionID string, t *turns.Turn) error
	Delete(sessionID string) error
}

// InMemorySessionStore keeps session turns in a map guarded by a mutex.
type InMemorySessionStore struct {
	mu       sync.Mutex
	sessions map[string]*turns.Turn
}

func NewInMemorySessionStore() *InMemorySessionStore {
	return &InMemorySessionStore{
		sessions: make(map[string]*turns.Turn),
	}
}

// Get returns a deep copy of the session turn, creating an empty session
// on first access.
func (s *InMemorySessionStore) Get(sessionID string) (*turns.Turn, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.sessions[sessionID]
	if !ok {
		t = &turns.Turn{ID: sessionID}
		s.sessions[sessionID] = t
	}
	return clone.Clone(t).(*turns.Turn), nil
}

func (s *InMemorySessionStore) Update(sessionID string, t *turns.Turn) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.sessions[sessionID] = clone.Clone(t).(*turns.Turn)
	return nil
}

func (s *InMemorySessionStore) Delete(sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.sessions, sessionID)
	return nil
}

var _ SessionStore = (*InMemorySessionStore)(nil)
