package agent

import (
	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/internal/util"
)

// Provider supplies dynamic instruction text at runtime.
// Implementations can derive instructions from session state, environment, etc.
type Provider interface {
	Instruction(*core.TurnContext) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func func(*core.TurnContext) (string, error)

// Instruction implements Provider.
func (f Func) Instruction(tc *core.TurnContext) (string, error) { return f(tc) }

// Instruction represents either a static instruction string or a dynamic
// provider. Static text may contain Go template markers that are rendered
// against the session state plus the reserved "language" key.
type Instruction struct {
	text     string
	provider Provider
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText(text string) Instruction { return Instruction{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider(p Provider) Instruction { return Instruction{provider: p} }

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc(f func(*core.TurnContext) (string, error)) Instruction {
	return Instruction{provider: Func(f)}
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction) IsStatic() bool { return i.provider == nil }

// Resolve returns the instruction text, invoking the provider if needed and
// rendering template markers against session state.
func (i Instruction) Resolve(tc *core.TurnContext) (string, error) {
	text := i.text
	if i.provider != nil {
		resolved, err := i.provider.Instruction(tc)
		if err != nil {
			return "", err
		}
		text = resolved
	}

	state := map[string]any{"language": tc.Config.Language}
	if tc.Session != nil {
		for k, v := range tc.Session.Clone().State {
			state[k] = v
		}
	}

	return util.RenderTemplate(text, state)
}
