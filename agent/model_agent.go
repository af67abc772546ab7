package agent

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/model"
	"github.com/gridmind/gridmind/tool"
)

// ModelAgentOptions configures a ModelAgent instance.
//
// Use functional options with NewModelAgent to override defaults.
type ModelAgentOptions struct {
	Instruction        Instruction
	ReadOnly           bool
	MaxHistoryMessages int
}

// ModelAgent is the model-driven loop shared by every specialist: it
// resolves its instruction, converses with the language model, executes
// requested tool calls through its capability scope, and returns a uniform
// TaskResult.
//
// Tool calls are counted against the per-task call budget; the first call
// past the budget aborts the task with reason budget_exceeded. Unauthorized
// and failed calls count too, so a misbehaving agent cannot loop for free.
type ModelAgent struct {
	BaseAgent
	llm      model.Model
	scope    *tool.Scope
	readOnly bool

	instruction        Instruction
	maxHistoryMessages int
}

// NewModelAgent creates a specialist around a language model and a
// capability-scoped tool view.
func NewModelAgent(name, description string, llm model.Model, scope *tool.Scope, optFns ...func(o *ModelAgentOptions)) *ModelAgent {
	opts := ModelAgentOptions{
		Instruction:        NewInstructionFromText(fmt.Sprintf("You are %s, a helpful assistant.", name)),
		MaxHistoryMessages: 20,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	return &ModelAgent{
		BaseAgent:          NewBaseAgent(name, description),
		llm:                llm,
		scope:              scope,
		readOnly:           opts.ReadOnly,
		instruction:        opts.Instruction,
		maxHistoryMessages: opts.MaxHistoryMessages,
	}
}

// ReadOnly reports whether this agent holds write capability.
func (a *ModelAgent) ReadOnly() bool { return a.readOnly }

// ToolNames returns the names of the tools visible to this agent.
func (a *ModelAgent) ToolNames() []string { return a.scope.Names() }

// Handle runs the model/tool loop for one task.
func (a *ModelAgent) Handle(turnCtx *core.TurnContext, task *core.Task) (*core.TaskResult, error) {
	logger := turnCtx.Logger()
	logger.Debug("agent.handle.start", "agent", a.Name(), "task", task.ID)

	instructions, err := a.instruction.Resolve(turnCtx)
	if err != nil {
		return nil, &core.TaskFailedError{TaskID: task.ID, Agent: a.Name(), Reason: core.TaskFailModelError, Err: err}
	}

	msgs := a.buildMessages(turnCtx, task)
	tools := a.toolDefinitions()
	budget := core.NewCallBudget(turnCtx.Config.ToolCallBudget)

	var (
		trace     []core.TraceStep
		artifacts []string
		toolOK    int
		toolFail  int
	)

	for {
		if err := turnCtx.Err(); err != nil {
			return nil, &core.TaskFailedError{TaskID: task.ID, Agent: a.Name(), Reason: core.TaskFailCanceled, Trace: trace, Err: err}
		}

		start := time.Now()
		resp, err := a.llm.Complete(turnCtx.Context, model.Request{
			Instructions: instructions,
			Messages:     msgs,
			Tools:        tools,
		})
		trace = append(trace, core.TraceStep{
			Kind:      core.TraceModelCall,
			Name:      a.llm.Info().Name,
			Duration:  time.Since(start),
			Timestamp: start,
			Err:       errString(err),
		})
		if err != nil {
			logger.Error("agent.model.error", "agent", a.Name(), "task", task.ID, "error", err.Error())

			return nil, &core.TaskFailedError{TaskID: task.ID, Agent: a.Name(), Reason: core.TaskFailModelError, Trace: trace, Err: err}
		}

		if !resp.HasToolCalls() {
			result := &core.TaskResult{
				Output:     resp.Text,
				Artifacts:  artifacts,
				Confidence: estimateConfidence(toolOK, toolFail),
				Trace:      trace,
			}

			logger.Info("agent.handle.completed",
				"agent", a.Name(),
				"task", task.ID,
				"tool_calls", budget.Count(),
				"confidence", result.Confidence,
			)

			return result, nil
		}

		msgs = append(msgs, model.Message{Role: "assistant", Text: resp.Text, ToolCalls: resp.ToolCalls})

		for _, call := range resp.ToolCalls {
			if err := budget.Increment(); err != nil {
				logger.Warn("agent.budget.exceeded", "agent", a.Name(), "task", task.ID, "calls", budget.Count())

				return nil, &core.TaskFailedError{TaskID: task.ID, Agent: a.Name(), Reason: core.TaskFailBudgetExceeded, Trace: trace, Err: err}
			}

			step, resultMsg := a.invokeTool(turnCtx, task, call)
			trace = append(trace, step)
			if step.Err == "" {
				toolOK++
			} else {
				toolFail++
			}
			if id := artifactID(resultMsg.Text); id != "" {
				artifacts = append(artifacts, id)
			}

			msgs = append(msgs, resultMsg)
		}
	}
}

// invokeTool dispatches one requested call through the agent's scope and
// renders the outcome as a tool result message. Tool failures are fed back
// to the model instead of aborting the task; the model may recover or route
// around them.
func (a *ModelAgent) invokeTool(turnCtx *core.TurnContext, task *core.Task, call model.ToolCall) (core.TraceStep, model.Message) {
	start := time.Now()

	args := map[string]any{}
	var payload string

	if err := json.Unmarshal(call.Function.Arguments, &args); err != nil && len(call.Function.Arguments) > 0 {
		toolErr := tool.NewToolError(call.Function.Name, fmt.Sprintf("malformed arguments: %v", err), tool.CodeValidation, nil)
		payload = encodeToolError(toolErr)

		return a.traceToolCall(call, start, toolErr), model.Message{
			Role: "tool", Text: payload, ToolCallID: call.ID, Name: call.Function.Name,
		}
	}

	toolCtx := core.NewToolContext(turnCtx, task.ID, a.Name(), call.ID, a.readOnly)

	result, err := a.scope.Invoke(toolCtx, call.Function.Name, args)
	if err != nil {
		payload = encodeToolError(tool.AsToolError(call.Function.Name, err))
	} else {
		raw, mErr := json.Marshal(result)
		if mErr != nil {
			payload = fmt.Sprintf("%v", result)
		} else {
			payload = string(raw)
		}
	}

	var stepErr error
	if err != nil {
		stepErr = err
	}

	return a.traceToolCall(call, start, stepErr), model.Message{
		Role: "tool", Text: payload, ToolCallID: call.ID, Name: call.Function.Name,
	}
}

func (a *ModelAgent) traceToolCall(call model.ToolCall, start time.Time, err error) core.TraceStep {
	return core.TraceStep{
		Kind:      core.TraceToolCall,
		Name:      call.Function.Name,
		Detail:    string(call.Function.Arguments),
		Err:       errString(err),
		Duration:  time.Since(start),
		Timestamp: start,
	}
}

// buildMessages assembles the dialogue: a bounded window of prior
// conversation, any coordinator supplied context, then the task input.
func (a *ModelAgent) buildMessages(turnCtx *core.TurnContext, task *core.Task) []model.Message {
	var msgs []model.Message

	history := turnCtx.History()
	if a.maxHistoryMessages > 0 && len(history) > a.maxHistoryMessages {
		history = history[len(history)-a.maxHistoryMessages:]
	}
	for _, t := range history {
		role := "user"
		if t.Role == core.TurnRoleAssistant {
			role = "assistant"
		}
		msgs = append(msgs, model.Message{Role: role, Text: t.Content})
	}

	input := task.Input
	if len(task.Context) > 0 {
		if raw, err := json.Marshal(task.Context); err == nil {
			input = input + "\n\nContext:\n" + string(raw)
		}
	}
	msgs = append(msgs, model.Message{Role: "user", Text: input})

	return msgs
}

func (a *ModelAgent) toolDefinitions() []model.ToolDefinition {
	var defs []model.ToolDefinition
	for _, t := range a.scope.Tools() {
		defs = append(defs, model.ToolDefinition{
			Type: "function",
			Function: model.FunctionDefinition{
				Name:        t.Name(),
				Description: t.Description(),
				Parameters:  t.Parameters(),
			},
		})
	}

	return defs
}

// estimateConfidence is a coarse self-assessment derived from tool usage:
// grounded answers score higher, answers produced despite tool failures
// score lower.
func estimateConfidence(toolOK, toolFail int) float64 {
	confidence := 0.6
	if toolOK > 0 {
		confidence = 0.9
	}
	if toolFail > 0 {
		confidence -= 0.2
	}
	if confidence < 0.1 {
		confidence = 0.1
	}

	return confidence
}

// artifactID extracts an artifact_id field from a JSON tool result, if any.
func artifactID(payload string) string {
	var parsed struct {
		ArtifactID string `json:"artifact_id"`
	}
	if err := json.Unmarshal([]byte(payload), &parsed); err != nil {
		return ""
	}

	return parsed.ArtifactID
}

func encodeToolError(te *tool.ToolError) string {
	raw, err := json.Marshal(map[string]any{"error": te})
	if err != nil {
		return te.Error()
	}

	return string(raw)
}

func errString(err error) string {
	if err == nil {
		return ""
	}

	return err.Error()
}
