package embed

import (
	"context"
	"errors"
	"hash/fnv"
	"sync"
)

// ErrUnavailable simulates an unreachable embedding backend.
var ErrUnavailable = errors.New("embedding backend unavailable")

// Mock is a deterministic Embedder for tests. Identical texts map to
// identical vectors and similar token sets score higher under cosine
// similarity than disjoint ones. Set Fail to make every call error.
type Mock struct {
	Dim  int
	Fail bool

	mu    sync.Mutex
	calls int
}

// NewMock returns a mock embedder with the given dimensionality.
func NewMock(dim int) *Mock {
	if dim <= 0 {
		dim = 64
	}
	return &Mock{Dim: dim}
}

// Embed generates a deterministic pseudo-embedding for text.
func (m *Mock) Embed(_ context.Context, text string) ([]float32, error) {
	m.mu.Lock()
	m.calls++
	fail := m.Fail
	m.mu.Unlock()

	if fail {
		return nil, ErrUnavailable
	}

	vec := make([]float32, m.Dim)
	token := []byte{}
	bump := func() {
		if len(token) == 0 {
			return
		}
		h := fnv.New32a()
		h.Write(token)
		vec[int(h.Sum32())%m.Dim]++
		token = token[:0]
	}
	for i := 0; i < len(text); i++ {
		c := text[i]
		if c == ' ' || c == '\n' || c == '\t' {
			bump()
			continue
		}
		if c >= 'A' && c <= 'Z' {
			c += 'a' - 'A'
		}
		token = append(token, c)
	}
	bump()

	return vec, nil
}

// EmbedBatch generates deterministic pseudo-embeddings for texts.
func (m *Mock) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		vec, err := m.Embed(ctx, t)
		if err != nil {
			return nil, err
		}
		out[i] = vec
	}
	return out, nil
}

// Dimensions returns the configured dimensionality.
func (m *Mock) Dimensions() int { return m.Dim }

// Name returns the engine name.
func (m *Mock) Name() string { return "mock" }

// Calls returns how many Embed calls were made.
func (m *Mock) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}
