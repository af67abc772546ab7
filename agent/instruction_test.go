package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmind/gridmind/core"
)

func newInstructionContext(t *testing.T) *core.TurnContext {
	t.Helper()

	sess := core.NewSession("s1", "maria")
	sess.SetState("distribuidora", "Enel")

	return core.NewTurnContext(context.Background(), "t1", sess, nil, nil, nil, core.DefaultConfig(), nil)
}

func TestInstructionStatic(t *testing.T) {
	tc := newInstructionContext(t)

	inst := NewInstructionFromText("Você é um assistente técnico.")
	assert.True(t, inst.IsStatic())

	text, err := inst.Resolve(tc)
	require.NoError(t, err)
	assert.Equal(t, "Você é um assistente técnico.", text)
}

func TestInstructionTemplateRendersStateAndLanguage(t *testing.T) {
	tc := newInstructionContext(t)

	inst := NewInstructionFromText("Answer in {{.language}} for utility {{.distribuidora}}.")
	text, err := inst.Resolve(tc)
	require.NoError(t, err)
	assert.Equal(t, "Answer in pt-BR for utility Enel.", text)
}

func TestInstructionProvider(t *testing.T) {
	tc := newInstructionContext(t)

	inst := NewInstructionFromFunc(func(tc *core.TurnContext) (string, error) {
		return "dynamic for " + tc.SessionID, nil
	})
	assert.False(t, inst.IsStatic())

	text, err := inst.Resolve(tc)
	require.NoError(t, err)
	assert.Equal(t, "dynamic for s1", text)
}
