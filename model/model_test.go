package model

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMock_ScriptedBeforeCanned(t *testing.T) {
	m := NewMock()
	m.AddResponse("hello", "canned")
	m.EnqueueToolCall("query_regulations", `{"query":"tensao"}`)

	resp, err := m.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Text: "hello"}}})
	require.NoError(t, err)
	require.True(t, resp.HasToolCalls())
	assert.Equal(t, "query_regulations", resp.ToolCalls[0].Function.Name)

	resp, err = m.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Text: "hello"}}})
	require.NoError(t, err)
	assert.Equal(t, "canned", resp.Text)
}

func TestMock_Fail(t *testing.T) {
	m := NewMock()
	m.Fail(errors.New("backend down"))

	_, err := m.Complete(context.Background(), Request{Messages: []Message{{Role: "user", Text: "x"}}})
	assert.Error(t, err)
}

func TestMock_RecordsRequests(t *testing.T) {
	m := NewMock()
	_, err := m.Complete(context.Background(), Request{Instructions: "be brief", Messages: []Message{{Role: "user", Text: "q"}}})
	require.NoError(t, err)

	reqs := m.Requests()
	require.Len(t, reqs, 1)
	assert.Equal(t, "be brief", reqs[0].Instructions)
}
