package embed

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{1, 0, 0}
	c := []float32{0, 1, 0}

	same, err := CosineSimilarity(a, b)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, same, 1e-9)

	ortho, err := CosineSimilarity(a, c)
	require.NoError(t, err)
	assert.InDelta(t, 0.0, ortho, 1e-9)

	_, err = CosineSimilarity(a, []float32{1, 2})
	assert.Error(t, err)
}

func TestCosineSimilarity_ZeroVector(t *testing.T) {
	score, err := CosineSimilarity([]float32{0, 0}, []float32{1, 1})
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestMock_Deterministic(t *testing.T) {
	m := NewMock(32)
	ctx := context.Background()

	v1, err := m.Embed(ctx, "voltage deviation limits")
	require.NoError(t, err)
	v2, err := m.Embed(ctx, "voltage deviation limits")
	require.NoError(t, err)
	assert.Equal(t, v1, v2)

	related, err := m.Embed(ctx, "voltage limits")
	require.NoError(t, err)
	unrelated, err := m.Embed(ctx, "harmonic distortion spectrum")
	require.NoError(t, err)

	simRelated, err := CosineSimilarity(v1, related)
	require.NoError(t, err)
	simUnrelated, err := CosineSimilarity(v1, unrelated)
	require.NoError(t, err)
	assert.Greater(t, simRelated, simUnrelated)
}

func TestMock_Fail(t *testing.T) {
	m := NewMock(8)
	m.Fail = true

	_, err := m.Embed(context.Background(), "anything")
	assert.ErrorIs(t, err, ErrUnavailable)
}

func TestNew_UnknownProvider(t *testing.T) {
	_, err := New(Config{Provider: "bogus"})
	assert.Error(t, err)
}
