package session

import (
	"context"
	"fmt"
	"sync"

	"github.com/gridmind/gridmind/core"
)

// InMemoryStore is a volatile core.SessionStore holding sessions in a
// process local map. Loads return clones so callers can never mutate the
// canonical copy; writes go through AppendTurn and its version check. Best
// suited for tests and ephemeral demo deployments.
type InMemoryStore struct {
	mu       sync.RWMutex
	sessions map[string]*core.Session
}

// NewInMemoryStore constructs an empty in-memory session store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]*core.Session)}
}

var _ core.SessionStore = (*InMemoryStore)(nil)

// Create allocates a new session at version 0. Creating an id that already
// exists is an error; sessions are never silently overwritten.
func (s *InMemoryStore) Create(_ context.Context, id, userID string) (*core.Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[id]; exists {
		return nil, fmt.Errorf("session %s already exists", id)
	}

	sess := core.NewSession(id, userID)
	s.sessions[id] = sess

	return sess.Clone(), nil
}

// Load returns a clone of the stored session or core.ErrSessionNotFound.
func (s *InMemoryStore) Load(_ context.Context, id string) (*core.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	sess, ok := s.sessions[id]
	if !ok {
		return nil, core.ErrSessionNotFound
	}

	return sess.Clone(), nil
}

// AppendTurn commits a turn and state delta when expectedVersion matches the
// stored version, returning the new version. On mismatch nothing changes and
// a *core.VersionConflictError reports both versions so the caller can
// reload and reapply.
func (s *InMemoryStore) AppendTurn(_ context.Context, sessionID string, expectedVersion int64, turn core.Turn, stateDelta map[string]interface{}) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[sessionID]
	if !ok {
		return 0, core.ErrSessionNotFound
	}

	if actual := sess.CurrentVersion(); actual != expectedVersion {
		return 0, &core.VersionConflictError{SessionID: sessionID, Expected: expectedVersion, Actual: actual}
	}

	if len(stateDelta) > 0 {
		sess.ApplyStateDelta(stateDelta)
	}

	return sess.AddTurn(turn), nil
}
