// Package tool defines the tool abstraction exposed to sub-agents: a
// registry of named, schema-described capabilities, a generic function
// adapter with argument validation, and the domain tools for regulation
// retrieval, learning capture, power-quality calculations and report
// persistence.
package tool

import (
	"fmt"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/internal/util"
)

// Error codes carried by ToolError. Agents branch on these to decide
// whether a failed call should be surfaced, retried or reported as a gap.
const (
	CodeNotFound     = "NOT_FOUND"
	CodeUnauthorized = "UNAUTHORIZED"
	CodeValidation   = "VALIDATION_ERROR"
	CodeTimeout      = "TIMEOUT"
	CodeExecution    = "EXECUTION_ERROR"
)

// Tool is the interface implemented by all tools. A tool is identified by
// a unique snake_case name, describes its accepted arguments with a
// minimal JSON-Schema-like map, and executes against a *core.ToolContext
// that scopes it to one agent call.
type Tool interface {
	// Name returns the unique tool identifier.
	Name() string
	// Description returns a short natural language description shown to models.
	Description() string
	// Parameters returns the JSON schema describing accepted arguments.
	Parameters() map[string]interface{}
	// Call executes the tool with validated arguments.
	Call(toolCtx *core.ToolContext, args map[string]interface{}) (interface{}, error)
}

// ValidationError re-exports the internal validation error type so callers
// can assert on it without importing internal packages.
type ValidationError = util.ValidationError

// ToolError is the uniform failure envelope for tool execution. Raw handler
// errors and panics never cross the tool boundary; they are wrapped here.
type ToolError struct {
	Tool    string `json:"tool"`              // Tool that produced the error
	Message string `json:"message"`           // Human-readable error message
	Code    string `json:"code"`              // Machine-readable code, see Code* constants
	Details any    `json:"details,omitempty"` // Optional structured context
}

// Error implements the error interface for ToolError.
func (e *ToolError) Error() string {
	return fmt.Sprintf("tool error [%s] in %s: %s", e.Code, e.Tool, e.Message)
}

// NewToolError creates a ToolError with the given fields.
func NewToolError(tool, message, code string, details any) *ToolError {
	return &ToolError{Tool: tool, Message: message, Code: code, Details: details}
}

// AsToolError normalizes any error into a *ToolError attributed to the
// given tool. Existing ToolErrors are passed through unchanged.
func AsToolError(tool string, err error) *ToolError {
	if err == nil {
		return nil
	}
	if te, ok := err.(*ToolError); ok {
		return te
	}
	if _, ok := err.(*ValidationError); ok {
		return &ToolError{Tool: tool, Message: err.Error(), Code: CodeValidation, Details: err}
	}

	return &ToolError{Tool: tool, Message: err.Error(), Code: CodeExecution}
}
