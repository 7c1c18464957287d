package importer

import (
	"errors"
	"sync"

	"github.com/google/uuid"
)

// ErrSessionNotFound is returned for unknown or expired session ids.
var ErrSessionNotFound = errors.New("import session not found")

// SessionStore holds one pipeline per active wizard session. Sessions are
// in-memory only; intermediate state never outlives the process.
type SessionStore struct {
	mu        sync.Mutex
	sessions  map[uuid.UUID]*Pipeline
	construct func() *Pipeline
}

// NewSessionStore wires a store that builds pipelines with the given
// constructor.
func NewSessionStore(construct func() *Pipeline) *SessionStore {
	return &SessionStore{
		sessions:  make(map[uuid.UUID]*Pipeline),
		construct: construct,
	}
}

// Create starts a new session and returns its id and pipeline.
func (s *SessionStore) Create() (uuid.UUID, *Pipeline) {
	s.mu.Lock()
	defer s.mu.Unlock()
	id := uuid.New()
	pipeline := s.construct()
	s.sessions[id] = pipeline
	return id, pipeline
}

// Get looks up an active session.
func (s *SessionStore) Get(id uuid.UUID) (*Pipeline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	pipeline, ok := s.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return pipeline, nil
}

// Delete discards a session.
func (s *SessionStore) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}
