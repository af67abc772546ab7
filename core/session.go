package core

import (
	"context"
	"sync"
	"time"
)

// TurnRole identifies who produced a turn.
type TurnRole string

const (
	TurnRoleUser      TurnRole = "user"
	TurnRoleAssistant TurnRole = "assistant"
	TurnRoleAgent     TurnRole = "agent"
	TurnRoleTool      TurnRole = "tool"
)

// TurnStatus reports how a turn concluded.
type TurnStatus string

const (
	// TurnComplete means the turn produced a full response.
	TurnComplete TurnStatus = "complete"
	// TurnIncomplete means the wall-clock budget expired and the response is
	// partial.
	TurnIncomplete TurnStatus = "incomplete"
	// TurnNeedsClarification means the reviewer could not resolve the request
	// and the response asks the user a clarifying question.
	TurnNeedsClarification TurnStatus = "needs_clarification"
)

// Turn is one immutable entry in a session's history. ParentID links a turn
// to the turn that caused it, so the delegation chain behind a response can
// be reconstructed.
type Turn struct {
	ID        string     `json:"id"`
	Role      TurnRole   `json:"role"`
	AgentName string     `json:"agent_name,omitempty"`
	Content   string     `json:"content"`
	ParentID  string     `json:"parent_id,omitempty"`
	Artifacts []string   `json:"artifacts,omitempty"`
	Status    TurnStatus `json:"status,omitempty"`
	Timestamp time.Time  `json:"timestamp"`
}

// NewUserTurn builds a user turn with a fresh id.
func NewUserTurn(text string) Turn {
	return Turn{ID: NewID(), Role: TurnRoleUser, Content: text, Timestamp: time.Now()}
}

// NewAssistantTurn builds an assistant turn caused by parentID.
func NewAssistantTurn(parentID, text string, status TurnStatus) Turn {
	return Turn{ID: NewID(), Role: TurnRoleAssistant, Content: text, ParentID: parentID, Status: status, Timestamp: time.Now()}
}

// Session is the conversational container for one user: an ordered turn
// history, a mutable state blob and a version that increases by exactly one
// per committed write. It is safe for concurrent access.
//
// Contract:
//   - Version starts at 0 and only ever increases
//   - Turns are append-only; a stored turn is never modified
//   - Turns and GetTurns return defensive copies
//   - Clone performs deep copies of maps/slices for safe divergence.
type Session struct {
	ID      string                 `json:"id"`
	UserID  string                 `json:"user_id"`
	Turns   []Turn                 `json:"turns"`
	State   map[string]interface{} `json:"state"`
	Version int64                  `json:"version"`
	Created time.Time              `json:"created"`
	Updated time.Time              `json:"updated"`
	mu      sync.RWMutex
}

// NewSession creates an empty session at version 0 owned by userID.
func NewSession(id, userID string) *Session {
	now := time.Now()
	return &Session{ID: id, UserID: userID, Turns: []Turn{}, State: map[string]interface{}{}, Created: now, Updated: now}
}

// GetState returns the value and existence flag for a state key.
func (s *Session) GetState(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	v, ok := s.State[key]
	return v, ok
}

// SetState sets a key/value pair in session state updating the Updated timestamp.
func (s *Session) SetState(key string, value interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.State[key] = value
	s.Updated = time.Now()
}

// ApplyStateDelta merges the provided key/value pairs into State.
func (s *Session) ApplyStateDelta(delta map[string]interface{}) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range delta {
		s.State[k] = v
	}
	s.Updated = time.Now()
}

// AddTurn appends a turn and bumps the version. Stores use this when
// committing a validated write; callers go through SessionStore.AppendTurn.
func (s *Session) AddTurn(t Turn) int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.Turns = append(s.Turns, t)
	s.Version++
	s.Updated = time.Now()
	return s.Version
}

// GetTurns returns a defensive copy of the full turn history.
func (s *Session) GetTurns() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	turns := make([]Turn, len(s.Turns))
	copy(turns, s.Turns)
	return turns
}

// ConversationHistory returns the user and assistant turns, the slice models
// consume as dialogue context.
func (s *Session) ConversationHistory() []Turn {
	s.mu.RLock()
	defer s.mu.RUnlock()
	res := make([]Turn, 0, len(s.Turns))
	for _, t := range s.Turns {
		if t.Role == TurnRoleUser || t.Role == TurnRoleAssistant {
			res = append(res, t)
		}
	}
	return res
}

// CurrentVersion returns the session version.
func (s *Session) CurrentVersion() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.Version
}

// Clone returns a deep copy of the session safe for independent mutation.
func (s *Session) Clone() *Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	clone := &Session{ID: s.ID, UserID: s.UserID, Turns: make([]Turn, len(s.Turns)), State: make(map[string]interface{}, len(s.State)), Version: s.Version, Created: s.Created, Updated: s.Updated}
	copy(clone.Turns, s.Turns)
	for k, v := range s.State {
		clone.State[k] = v
	}
	return clone
}

// SessionStore persists sessions under optimistic concurrency control.
//
// AppendTurn commits one turn plus an optional state delta if and only if
// expectedVersion matches the stored version; a stale expectedVersion yields
// a *VersionConflictError and no partial application. Exactly one of any set
// of concurrent appenders wins a given version.
type SessionStore interface {
	Create(ctx context.Context, id, userID string) (*Session, error)
	Load(ctx context.Context, id string) (*Session, error)
	AppendTurn(ctx context.Context, sessionID string, expectedVersion int64, turn Turn, stateDelta map[string]interface{}) (int64, error)
}
