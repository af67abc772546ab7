package index

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitChunks_Overlap(t *testing.T) {
	words := make([]string, 20)
	for i := range words {
		words[i] = string(rune('a' + i))
	}
	text := strings.Join(words, " ")

	spans := splitChunks(text, 8, 2)
	require.Len(t, spans, 3)

	// each window starts size-overlap tokens after the previous one
	first := strings.Fields(spans[0].Text)
	second := strings.Fields(spans[1].Text)
	assert.Equal(t, first[6:], second[:2], "windows must overlap by two tokens")

	for i, sp := range spans {
		assert.Equal(t, i, sp.Ordinal)
	}
}

func TestSplitChunks_ShortDocument(t *testing.T) {
	spans := splitChunks("only three tokens", 300, 50)
	require.Len(t, spans, 1)
	assert.Equal(t, "only three tokens", spans[0].Text)
	assert.Equal(t, 0, spans[0].Offset)
}

func TestSplitChunks_Empty(t *testing.T) {
	assert.Empty(t, splitChunks("   \n\t ", 300, 50))
}

func TestChunkID_Stability(t *testing.T) {
	assert.Equal(t, chunkID("doc", 3), chunkID("doc", 3))
	assert.NotEqual(t, chunkID("doc", 3), chunkID("doc", 4))
	assert.NotEqual(t, chunkID("doc", 3), chunkID("other", 3))
}
