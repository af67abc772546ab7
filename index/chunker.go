package index

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode"
)

// span is one chunk-to-be: its ordinal position within the document, the
// rune offset of its first token and the chunk text.
type span struct {
	Ordinal int
	Offset  int
	Text    string
}

// splitChunks cuts text into overlapping windows of size tokens stepping by
// size-overlap. Tokens are whitespace separated. The final window may be
// shorter; a document shorter than one window yields a single chunk.
func splitChunks(text string, size, overlap int) []span {
	if size <= 0 {
		size = 300
	}
	if overlap < 0 || overlap >= size {
		overlap = size / 4
	}

	tokens, offsets := tokenize(text)
	if len(tokens) == 0 {
		return nil
	}

	step := size - overlap
	spans := make([]span, 0, len(tokens)/step+1)
	for start, ord := 0, 0; start < len(tokens); start, ord = start+step, ord+1 {
		end := start + size
		if end > len(tokens) {
			end = len(tokens)
		}

		spans = append(spans, span{
			Ordinal: ord,
			Offset:  offsets[start],
			Text:    strings.Join(tokens[start:end], " "),
		})

		if end == len(tokens) {
			break
		}
	}

	return spans
}

// tokenize splits text on whitespace returning tokens and the rune offset of
// each token's first rune.
func tokenize(text string) ([]string, []int) {
	var tokens []string
	var offsets []int

	runes := []rune(text)
	start := -1
	for i, r := range runes {
		if unicode.IsSpace(r) {
			if start >= 0 {
				tokens = append(tokens, string(runes[start:i]))
				offsets = append(offsets, start)
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		tokens = append(tokens, string(runes[start:]))
		offsets = append(offsets, start)
	}

	return tokens, offsets
}

// chunkID derives the stable chunk identifier from document id and chunk
// ordinal. Re-ingesting a document reproduces the same ids.
func chunkID(docID string, ordinal int) string {
	sum := sha256.Sum256([]byte(fmt.Sprintf("%s:%d", docID, ordinal)))
	return hex.EncodeToString(sum[:16])
}

// learningID derives the chunk identifier for a learned insight from its
// text, so recording the same insight twice is idempotent.
func learningID(text string) string {
	sum := sha256.Sum256([]byte("learning:" + text))
	return hex.EncodeToString(sum[:16])
}
