package tool

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/internal/util"
)

// Registry maps tool names to implementations and dispatches calls through
// a uniform pipeline:
//
//  1. unknown name                  -> *ToolError{Code: NOT_FOUND}
//  2. name outside the caller scope -> *ToolError{Code: UNAUTHORIZED}
//  3. argument schema validation    -> *ToolError{Code: VALIDATION_ERROR}
//  4. execution under the per-call timeout; expiry -> *ToolError{Code: TIMEOUT}
//  5. handler error or panic        -> *ToolError{Code: EXECUTION_ERROR}
//
// Raw handler errors never propagate past Invoke. Registration is expected
// at startup; Invoke may be called concurrently afterwards.
type Registry struct {
	mu    sync.RWMutex
	tools map[string]Tool
}

// NewRegistry creates an empty tool registry.
func NewRegistry(tools ...Tool) *Registry {
	r := &Registry{tools: map[string]Tool{}}
	for _, t := range tools {
		r.Register(t)
	}

	return r
}

// Register adds or replaces a tool under its name.
func (r *Registry) Register(t Tool) {
	r.mu.Lock()
	r.tools[t.Name()] = t
	r.mu.Unlock()
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	t, ok := r.tools[name]
	r.mu.RUnlock()

	return t, ok
}

// Names returns the sorted names of all registered tools.
func (r *Registry) Names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)

	return names
}

// Scope returns a view of the registry restricted to the named tools.
// Invoking a registered tool outside the scope yields UNAUTHORIZED, which
// is distinct from NOT_FOUND so misuse by an agent is attributable.
func (r *Registry) Scope(names ...string) *Scope {
	allowed := make(map[string]bool, len(names))
	for _, n := range names {
		allowed[n] = true
	}

	return &Scope{registry: r, allowed: allowed}
}

// Invoke dispatches a call with full access to every registered tool.
func (r *Registry) Invoke(toolCtx *core.ToolContext, name string, args map[string]any) (any, error) {
	return r.invoke(toolCtx, name, args, nil)
}

// Scope is a capability-restricted view of a Registry. Sub-agents receive a
// Scope, never the registry itself.
type Scope struct {
	registry *Registry
	allowed  map[string]bool
}

// Names returns the sorted names of the tools visible in this scope.
func (s *Scope) Names() []string {
	var names []string
	for _, n := range s.registry.Names() {
		if s.allowed[n] {
			names = append(names, n)
		}
	}

	return names
}

// Tools returns the tool implementations visible in this scope.
func (s *Scope) Tools() []Tool {
	var tools []Tool
	for _, n := range s.Names() {
		if t, ok := s.registry.Get(n); ok {
			tools = append(tools, t)
		}
	}

	return tools
}

// Invoke dispatches a call through the registry pipeline, enforcing scope.
func (s *Scope) Invoke(toolCtx *core.ToolContext, name string, args map[string]any) (any, error) {
	return s.registry.invoke(toolCtx, name, args, s.allowed)
}

func (r *Registry) invoke(toolCtx *core.ToolContext, name string, args map[string]any, allowed map[string]bool) (any, error) {
	logger := toolCtx.Logger()

	t, ok := r.Get(name)
	if !ok {
		logger.Warn("tool.invoke.not_found", "tool", name, "agent", toolCtx.AgentName())

		return nil, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("no tool registered under %q", name),
			Code:    CodeNotFound,
		}
	}

	if allowed != nil && !allowed[name] {
		logger.Warn("tool.invoke.unauthorized", "tool", name, "agent", toolCtx.AgentName())

		return nil, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("agent %s is not authorized to call %s", toolCtx.AgentName(), name),
			Code:    CodeUnauthorized,
		}
	}

	if err := util.ValidateParameters(args, t.Parameters()); err != nil {
		return nil, &ToolError{
			Tool:    name,
			Message: fmt.Sprintf("parameter validation failed: %v", err),
			Code:    CodeValidation,
			Details: err,
		}
	}

	return callWithTimeout(toolCtx, t, args)
}

type callResult struct {
	value any
	err   error
}

// callWithTimeout runs the tool call in its own goroutine so the caller can
// abandon it at the deadline. An abandoned handler keeps running until it
// returns; its result is discarded.
func callWithTimeout(toolCtx *core.ToolContext, t Tool, args map[string]any) (any, error) {
	timeout := toolCtx.Config().ToolTimeout

	done := make(chan callResult, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- callResult{err: &ToolError{
					Tool:    t.Name(),
					Message: fmt.Sprintf("tool panicked: %v", rec),
					Code:    CodeExecution,
				}}
			}
		}()

		value, err := t.Call(toolCtx, args)
		if err != nil {
			done <- callResult{err: AsToolError(t.Name(), err)}
			return
		}

		done <- callResult{value: value}
	}()

	var expired <-chan time.Time
	if timeout > 0 {
		timer := time.NewTimer(timeout)
		defer timer.Stop()
		expired = timer.C
	}

	select {
	case res := <-done:
		return res.value, res.err
	case <-expired:
		toolCtx.Logger().Warn("tool.invoke.timeout", "tool", t.Name(), "timeout", timeout.String())

		return nil, &ToolError{
			Tool:    t.Name(),
			Message: fmt.Sprintf("tool did not complete within %s", timeout),
			Code:    CodeTimeout,
		}
	case <-toolCtx.Context().Done():
		return nil, &ToolError{
			Tool:    t.Name(),
			Message: toolCtx.Context().Err().Error(),
			Code:    CodeTimeout,
		}
	}
}
