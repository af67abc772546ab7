package testutil

import (
	"github.com/gridmind/gridmind/core"
)

// SessionBuilder helps construct sessions with fluent chaining for tests.
// Example:
//
//	sess := NewSessionBuilder("sess-1", "user-1").State("k", "v").Turns(t1, t2).Build()
type SessionBuilder struct {
	id     string
	userID string
	state  map[string]interface{}
	turns  []core.Turn
}

// NewSessionBuilder creates a new builder for a session with the given id and
// owner. Use chainable methods (State, Turn, Turns, Exchange) then call Build.
func NewSessionBuilder(id, userID string) *SessionBuilder {
	return &SessionBuilder{id: id, userID: userID, state: map[string]interface{}{}}
}

// State sets or overwrites a state key/value pair on the resulting session (chainable).
func (b *SessionBuilder) State(key string, val interface{}) *SessionBuilder {
	b.state[key] = val
	return b
}

// Turn appends a single turn to the session history (chainable).
func (b *SessionBuilder) Turn(t core.Turn) *SessionBuilder {
	b.turns = append(b.turns, t)
	return b
}

// Turns appends multiple turns to the session history (chainable).
func (b *SessionBuilder) Turns(ts ...core.Turn) *SessionBuilder {
	b.turns = append(b.turns, ts...)
	return b
}

// Exchange appends a complete user/assistant pair, with the assistant turn
// linked to the user turn and marked complete (chainable).
func (b *SessionBuilder) Exchange(userText, assistantText string) *SessionBuilder {
	user := core.NewUserTurn(userText)
	assistant := core.NewAssistantTurn(user.ID, assistantText, core.TurnComplete)
	b.turns = append(b.turns, user, assistant)
	return b
}

// Build returns a *core.Session with pre-populated state and turns. Each
// appended turn advances the version, mirroring how a store commit would.
func (b *SessionBuilder) Build() *core.Session {
	s := core.NewSession(b.id, b.userID)

	for k, v := range b.state {
		s.SetState(k, v)
	}

	for _, t := range b.turns {
		s.AddTurn(t)
	}

	return s
}
