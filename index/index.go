// Package index implements the retrieval store behind the regulation tools:
// document ingestion with stable chunk ids and generations, similarity
// queries and provenance-tagged learned insights. Two backends are provided,
// an in-memory store and a sqlite store sharing the same semantics.
package index

import (
	"sort"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/embed"
	"github.com/gridmind/gridmind/logging"
)

// Options configure an index backend.
type Options struct {
	// Logger receives structured index events. Defaults to NoOpLogger.
	Logger logging.Logger

	// ChunkSize is the chunk window in tokens.
	ChunkSize int

	// ChunkOverlap is the token overlap between adjacent windows.
	ChunkOverlap int

	// SimilarityThreshold drops query hits scoring below it.
	SimilarityThreshold float64
}

func defaultOptions() Options {
	cfg := core.DefaultConfig()
	return Options{
		Logger:              logging.NoOpLogger{},
		ChunkSize:           cfg.ChunkSize,
		ChunkOverlap:        cfg.ChunkOverlap,
		SimilarityThreshold: cfg.SimilarityThreshold,
	}
}

// WithLogger sets the logger.
func WithLogger(l logging.Logger) func(o *Options) {
	return func(o *Options) { o.Logger = l }
}

// WithChunking sets the chunk window and overlap.
func WithChunking(size, overlap int) func(o *Options) {
	return func(o *Options) {
		o.ChunkSize = size
		o.ChunkOverlap = overlap
	}
}

// WithSimilarityThreshold sets the minimum query score.
func WithSimilarityThreshold(t float64) func(o *Options) {
	return func(o *Options) { o.SimilarityThreshold = t }
}

// rank orders scored chunks by descending similarity, ties broken by most
// recent ingestion, and truncates to k.
func rank(hits []core.ScoredChunk, k int) []core.ScoredChunk {
	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].Score != hits[j].Score {
			return hits[i].Score > hits[j].Score
		}
		return hits[i].Chunk.IngestedAt.After(hits[j].Chunk.IngestedAt)
	})

	if len(hits) > k {
		hits = hits[:k]
	}

	return hits
}

// score computes similarity for one candidate against the query embedding,
// reporting whether it clears the threshold.
func score(queryVec []float32, c core.Chunk, threshold float64) (core.ScoredChunk, bool) {
	sim, err := embed.CosineSimilarity(queryVec, c.Embedding)
	if err != nil || sim < threshold {
		return core.ScoredChunk{}, false
	}

	return core.ScoredChunk{Chunk: c, Score: sim}, true
}

// matchesFilters applies query filters to a candidate chunk.
func matchesFilters(c core.Chunk, f core.QueryFilters) bool {
	if f.Provenance != "" && c.Provenance != f.Provenance {
		return false
	}

	if len(f.DocIDs) > 0 {
		found := false
		for _, id := range f.DocIDs {
			if c.DocID == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}

	return true
}
