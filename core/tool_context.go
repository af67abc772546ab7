package core

import (
	"context"
	"fmt"

	"github.com/gridmind/gridmind/logging"
)

// ToolContext provides a constrained, auditable surface for tool
// implementations invoked by a sub-agent. It scopes the parent TurnContext
// to one call: the invoking agent, the owning task, a unique call id and the
// agent's capability level. Read-only agents can query but never write.
type ToolContext struct {
	turnCtx  *TurnContext
	callID   string
	taskID   string
	agent    string
	readOnly bool

	*loggerAdapter
}

// NewToolContext constructs a tool context bound to a parent TurnContext.
func NewToolContext(turnCtx *TurnContext, taskID, agent, callID string, readOnly bool) *ToolContext {
	return &ToolContext{
		turnCtx:       turnCtx,
		callID:        callID,
		taskID:        taskID,
		agent:         agent,
		readOnly:      readOnly,
		loggerAdapter: newLoggerAdapter(turnCtx.Logger()),
	}
}

// Context returns the context associated with the tool invocation.
func (tc *ToolContext) Context() context.Context { return tc.turnCtx.Context }

// SessionID returns the session id associated with the tool invocation.
func (tc *ToolContext) SessionID() string { return tc.turnCtx.SessionID }

// TurnID returns the turn id associated with the tool invocation.
func (tc *ToolContext) TurnID() string { return tc.turnCtx.TurnID }

// TaskID returns the task the invoking agent is handling.
func (tc *ToolContext) TaskID() string { return tc.taskID }

// CallID returns the unique id of this tool call.
func (tc *ToolContext) CallID() string { return tc.callID }

// AgentName returns the invoking agent's name.
func (tc *ToolContext) AgentName() string { return tc.agent }

// ReadOnly reports whether the invoking agent holds write capability.
func (tc *ToolContext) ReadOnly() bool { return tc.readOnly }

// Logger returns the logger associated with the tool invocation.
func (tc *ToolContext) Logger() logging.Logger { return tc.loggerAdapter.Logger() }

// Config returns the turn's immutable configuration.
func (tc *ToolContext) Config() Config { return tc.turnCtx.Config }

// GetState retrieves the state associated with the given key.
func (tc *ToolContext) GetState(k string) (any, bool) {
	return tc.turnCtx.GetState(k)
}

// SetState stages a state mutation on the turn. Rejected for read-only agents.
func (tc *ToolContext) SetState(k string, v any) error {
	if tc.readOnly {
		return fmt.Errorf("agent %s is read-only", tc.agent)
	}

	tc.turnCtx.SetState(k, v)

	return nil
}

// QueryIndex runs a retrieval query against the document index.
func (tc *ToolContext) QueryIndex(text string, k int, filters QueryFilters) ([]ScoredChunk, error) {
	if tc.turnCtx.Index == nil {
		return nil, fmt.Errorf("document index not configured")
	}

	return tc.turnCtx.Index.Query(tc.Context(), text, k, filters)
}

// RecordLearning persists a validated insight tagged with this call's
// provenance. Rejected for read-only agents.
func (tc *ToolContext) RecordLearning(text string) (string, error) {
	if tc.readOnly {
		return "", fmt.Errorf("agent %s is read-only", tc.agent)
	}

	if tc.turnCtx.Index == nil {
		return "", fmt.Errorf("document index not configured")
	}

	prov := LearningProvenance{Agent: tc.agent, TaskID: tc.taskID, SessionID: tc.SessionID()}

	return tc.turnCtx.Index.RecordLearning(tc.Context(), text, prov)
}

// SaveArtifact persists artifact bytes through the turn. Rejected for
// read-only agents.
func (tc *ToolContext) SaveArtifact(meta Artifact, data []byte) (string, error) {
	if tc.readOnly {
		return "", fmt.Errorf("agent %s is read-only", tc.agent)
	}

	meta.TaskID = tc.taskID

	return tc.turnCtx.SaveArtifact(meta, data)
}

// LoadArtifact retrieves a persisted artifact by id.
func (tc *ToolContext) LoadArtifact(id string) ([]byte, error) {
	return tc.turnCtx.GetArtifact(id)
}

// History returns the session's conversational history.
func (tc *ToolContext) History() []Turn {
	return tc.turnCtx.History()
}

// Validate performs a structural sanity check of the context.
func (tc *ToolContext) Validate() error {
	if tc.turnCtx == nil || tc.turnCtx.SessionID == "" || tc.callID == "" {
		return fmt.Errorf("invalid ToolContext")
	}

	return nil
}
