package agent

import "github.com/gridmind/gridmind/core"

// SubAgent is the uniform contract every specialist implements. Handle is
// synchronous; concurrency is the coordinator's concern. Failures that make
// the result unusable are reported as *core.TaskFailedError so the caller
// can read the reason and the partial trace.
type SubAgent interface {
	// Name returns the unique agent name used in routing and traces.
	Name() string
	// Description returns a short summary of what the agent is good at.
	Description() string
	// Handle processes one task and returns a uniform result.
	Handle(turnCtx *core.TurnContext, task *core.Task) (*core.TaskResult, error)
}

// BaseAgent carries the identity shared by all agent implementations.
type BaseAgent struct {
	name        string
	description string
}

// NewBaseAgent creates the identity portion of an agent.
func NewBaseAgent(name, description string) BaseAgent {
	return BaseAgent{name: name, description: description}
}

// Name returns the agent's unique name.
func (a BaseAgent) Name() string { return a.name }

// Description returns the agent's capability summary.
func (a BaseAgent) Description() string { return a.description }
