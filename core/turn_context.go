package core

import (
	"context"
	"fmt"
	"maps"
	"sync"

	"github.com/gridmind/gridmind/logging"
)

// TurnContext carries the execution scope of one user turn. It aggregates:
//   - The ambient cancellation Context (bounded by the turn wall-clock budget)
//   - Identifiers (SessionID, UserID, TurnID)
//   - A working Session snapshot and the pending StateDelta to commit
//   - Backing services (session store, artifact store, document index)
//   - The immutable Config
//
// State mutations performed via SetState accumulate in StateDelta until the
// runner commits the turn. The snapshot handed to sub-agents is read-only;
// all writes funnel back through the TurnContext.
type TurnContext struct {
	Context   context.Context
	SessionID string
	UserID    string
	TurnID    string
	Session   *Session
	Sessions  SessionStore
	Artifacts ArtifactStore
	Index     DocumentIndex
	Config    Config

	mu         sync.Mutex
	stateDelta map[string]any
	produced   []string

	*loggerAdapter
}

// NewTurnContext constructs a TurnContext with empty delta buffers.
func NewTurnContext(
	ctx context.Context,
	turnID string,
	sess *Session,
	sessions SessionStore,
	artifacts ArtifactStore,
	index DocumentIndex,
	cfg Config,
	logger logging.Logger,
) *TurnContext {
	return &TurnContext{
		Context:       ctx,
		SessionID:     sess.ID,
		UserID:        sess.UserID,
		TurnID:        turnID,
		Session:       sess,
		Sessions:      sessions,
		Artifacts:     artifacts,
		Index:         index,
		Config:        cfg,
		stateDelta:    map[string]any{},
		loggerAdapter: newLoggerAdapter(logger),
	}
}

// Done returns a channel closed when the underlying context is cancelled.
func (tc *TurnContext) Done() <-chan struct{} { return tc.Context.Done() }

// Err returns the cancellation error (if any) from the underlying context.
func (tc *TurnContext) Err() error { return tc.Context.Err() }

// GetState returns a staged (delta) value if present, else the session value.
func (tc *TurnContext) GetState(k string) (any, bool) {
	tc.mu.Lock()
	v, ok := tc.stateDelta[k]
	tc.mu.Unlock()
	if ok {
		return v, true
	}

	if tc.Session != nil {
		return tc.Session.GetState(k)
	}

	return nil, false
}

// SetState stages a state mutation in the in-memory delta buffer.
func (tc *TurnContext) SetState(k string, v any) {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	tc.stateDelta[k] = v
}

// StateDelta returns a copy of the staged state mutations.
func (tc *TurnContext) StateDelta() map[string]any {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	d := make(map[string]any, len(tc.stateDelta))
	maps.Copy(d, tc.stateDelta)
	return d
}

// SaveArtifact hashes data, stores it and records the id among the turn's
// produced artifacts. Duplicate payloads return the existing id.
func (tc *TurnContext) SaveArtifact(meta Artifact, data []byte) (string, error) {
	if tc.Artifacts == nil {
		return "", fmt.Errorf("artifact store not configured")
	}

	meta.SessionID = tc.SessionID

	id, err := tc.Artifacts.Put(tc.Context, meta, data)
	if err != nil {
		return "", err
	}

	tc.mu.Lock()
	tc.produced = append(tc.produced, id)
	tc.mu.Unlock()

	return id, nil
}

// GetArtifact retrieves previously saved artifact bytes.
func (tc *TurnContext) GetArtifact(id string) ([]byte, error) {
	if tc.Artifacts == nil {
		return nil, fmt.Errorf("artifact store not configured")
	}

	return tc.Artifacts.Get(tc.Context, id)
}

// ProducedArtifacts returns the ids of artifacts written during this turn.
func (tc *TurnContext) ProducedArtifacts() []string {
	tc.mu.Lock()
	defer tc.mu.Unlock()
	out := make([]string, len(tc.produced))
	copy(out, tc.produced)
	return out
}

// RefreshSession replaces the working snapshot, used by the runner after a
// version conflict reload. The staged delta buffer is kept so the turn's
// writes can be reapplied.
func (tc *TurnContext) RefreshSession(sess *Session) {
	tc.Session = sess
}

// History returns the session's conversational history.
func (tc *TurnContext) History() []Turn {
	if tc.Session == nil {
		return []Turn{}
	}

	return tc.Session.ConversationHistory()
}
