package core

import "time"

// TaskStatus tracks a delegated task through its lifecycle.
type TaskStatus string

const (
	TaskPending   TaskStatus = "pending"
	TaskRunning   TaskStatus = "running"
	TaskSucceeded TaskStatus = "succeeded"
	TaskFailed    TaskStatus = "failed"
	TaskReviewed  TaskStatus = "reviewed"
)

// Task is one unit of work the coordinator delegates to a sub-agent. The
// coordinator owns the task graph; sub-agents receive tasks as read-only
// input and report results, they never mutate coordinator state.
type Task struct {
	ID      string `json:"id"`
	TurnID  string `json:"turn_id"`
	Agent   string `json:"agent"`
	Input   string `json:"input"`
	// Context is a read-only snapshot of whatever session state and prior
	// results the coordinator considered relevant to the task.
	Context map[string]interface{} `json:"context,omitempty"`
	Status  TaskStatus             `json:"status"`
	Retries int                    `json:"retries"`
	Result  *TaskResult            `json:"result,omitempty"`
	Created time.Time              `json:"created"`
	Updated time.Time              `json:"updated"`
}

// NewTask builds a pending task for the given agent.
func NewTask(turnID, agent, input string, taskCtx map[string]interface{}) *Task {
	now := time.Now()
	return &Task{ID: NewID(), TurnID: turnID, Agent: agent, Input: input, Context: taskCtx, Status: TaskPending, Created: now, Updated: now}
}

// TaskResult is the uniform result shape every sub-agent returns.
type TaskResult struct {
	Output string `json:"output"`
	// Artifacts lists ids of artifacts produced while handling the task.
	Artifacts []string `json:"artifacts,omitempty"`
	// Confidence is the agent's self-assessment in [0, 1].
	Confidence float64 `json:"confidence"`
	// Trace records the model and tool calls made, in order.
	Trace []TraceStep `json:"trace,omitempty"`
}

// TraceStepKind distinguishes trace entries.
type TraceStepKind string

const (
	TraceModelCall TraceStepKind = "model_call"
	TraceToolCall  TraceStepKind = "tool_call"
	TraceNote      TraceStepKind = "note"
)

// TraceStep is one entry in a task's execution trace.
type TraceStep struct {
	Kind      TraceStepKind `json:"kind"`
	Name      string        `json:"name,omitempty"`
	Detail    string        `json:"detail,omitempty"`
	Err       string        `json:"error,omitempty"`
	Duration  time.Duration `json:"duration,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}
