package index

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/embed"
)

// InMemory is a thread-safe document index backed by maps. Suitable for
// tests and single-process deployments without durability needs.
type InMemory struct {
	embedder embed.Embedder
	opts     Options

	mu     sync.RWMutex
	gens   map[string]int64      // doc id -> current generation
	chunks map[string]core.Chunk // chunk id + generation -> chunk
}

var _ core.DocumentIndex = (*InMemory)(nil)

// NewInMemory creates an empty in-memory index over the given embedder.
func NewInMemory(embedder embed.Embedder, optFns ...func(o *Options)) *InMemory {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	return &InMemory{
		embedder: embedder,
		opts:     opts,
		gens:     map[string]int64{},
		chunks:   map[string]core.Chunk{},
	}
}

func genKey(id string, gen int64) string { return fmt.Sprintf("%s@%d", id, gen) }

// Ingest splits doc into overlapping chunks and stores them under the next
// document generation. Unchanged text is idempotent: the existing chunk ids
// are returned and no new generation starts.
func (ix *InMemory) Ingest(ctx context.Context, doc core.Document) ([]string, error) {
	if doc.ID == "" {
		return nil, fmt.Errorf("document id required")
	}

	spans := splitChunks(doc.Text, ix.opts.ChunkSize, ix.opts.ChunkOverlap)
	if len(spans) == 0 {
		return nil, fmt.Errorf("document %s has no content", doc.ID)
	}

	texts := make([]string, len(spans))
	for i, sp := range spans {
		texts[i] = sp.Text
	}

	vecs, err := ix.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return nil, &core.RetrievalUnavailableError{Cause: err}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()

	curGen := ix.gens[doc.ID]
	if curGen > 0 && ix.sameTextLocked(doc.ID, curGen, spans) {
		ids := make([]string, len(spans))
		for i, sp := range spans {
			ids[i] = chunkID(doc.ID, sp.Ordinal)
		}
		ix.opts.Logger.Debug("index.ingest.unchanged", "doc_id", doc.ID, "generation", curGen)
		return ids, nil
	}

	gen := curGen + 1
	now := time.Now()
	ids := make([]string, len(spans))
	for i, sp := range spans {
		id := chunkID(doc.ID, sp.Ordinal)
		ids[i] = id
		ix.chunks[genKey(id, gen)] = core.Chunk{
			ID:         id,
			DocID:      doc.ID,
			Ordinal:    sp.Ordinal,
			Offset:     sp.Offset,
			Text:       sp.Text,
			Embedding:  vecs[i],
			Generation: gen,
			Provenance: core.ProvenanceIngested,
			Origin:     doc.Title,
			IngestedAt: now,
		}
	}
	ix.gens[doc.ID] = gen

	ix.opts.Logger.Info("index.ingest.completed", "doc_id", doc.ID, "generation", gen, "chunks", len(ids))

	return ids, nil
}

// sameTextLocked reports whether the current generation of doc holds exactly
// the given chunk texts. Caller holds the lock.
func (ix *InMemory) sameTextLocked(docID string, gen int64, spans []span) bool {
	count := 0
	for _, c := range ix.chunks {
		if c.DocID == docID && c.Generation == gen {
			count++
		}
	}
	if count != len(spans) {
		return false
	}

	for _, sp := range spans {
		c, ok := ix.chunks[genKey(chunkID(docID, sp.Ordinal), gen)]
		if !ok || c.Text != sp.Text {
			return false
		}
	}

	return true
}

// Query embeds text and returns up to k current chunks ordered by descending
// similarity, ties broken by most recent ingestion.
func (ix *InMemory) Query(ctx context.Context, text string, k int, filters core.QueryFilters) ([]core.ScoredChunk, error) {
	if k <= 0 {
		return []core.ScoredChunk{}, nil
	}

	ix.mu.RLock()
	empty := len(ix.chunks) == 0
	ix.mu.RUnlock()
	if empty {
		return []core.ScoredChunk{}, nil
	}

	queryVec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return nil, &core.RetrievalUnavailableError{Cause: err}
	}

	threshold := ix.opts.SimilarityThreshold
	if filters.MinScore > threshold {
		threshold = filters.MinScore
	}

	ix.mu.RLock()
	defer ix.mu.RUnlock()

	hits := make([]core.ScoredChunk, 0, k)
	for _, c := range ix.chunks {
		if c.Provenance == core.ProvenanceIngested && c.Generation != ix.gens[c.DocID] {
			continue // stale generation
		}
		if !matchesFilters(c, filters) {
			continue
		}
		if hit, ok := score(queryVec, c, threshold); ok {
			hits = append(hits, hit)
		}
	}

	return rank(hits, k), nil
}

// RecordLearning stores one provenance-tagged learned chunk, immediately
// visible to queries. Recording identical text twice returns the same id.
func (ix *InMemory) RecordLearning(ctx context.Context, text string, prov core.LearningProvenance) (string, error) {
	if text == "" {
		return "", fmt.Errorf("learning text required")
	}

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return "", &core.RetrievalUnavailableError{Cause: err}
	}

	id := learningID(text)

	ix.mu.Lock()
	defer ix.mu.Unlock()

	key := genKey(id, 1)
	if _, exists := ix.chunks[key]; !exists {
		ix.chunks[key] = core.Chunk{
			ID:         id,
			Text:       text,
			Embedding:  vec,
			Generation: 1,
			Provenance: core.ProvenanceLearned,
			Origin:     fmt.Sprintf("%s/%s", prov.Agent, prov.TaskID),
			IngestedAt: time.Now(),
		}
		ix.opts.Logger.Info("index.learning.recorded", "chunk_id", id, "agent", prov.Agent)
	}

	return id, nil
}
