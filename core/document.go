package core

import (
	"context"
	"time"
)

// Provenance records how a chunk entered the index.
type Provenance string

const (
	// ProvenanceIngested marks chunks produced by document ingestion.
	ProvenanceIngested Provenance = "ingested"
	// ProvenanceLearned marks chunks recorded as validated insights by agents.
	ProvenanceLearned Provenance = "learned"
)

// Document is the unit of ingestion: a regulation, standard or technical note.
type Document struct {
	ID       string            `json:"id"`
	Title    string            `json:"title"`
	Source   string            `json:"source,omitempty"`
	Text     string            `json:"text"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// Chunk is one retrievable slice of a document, or a single learned insight.
// Chunks from superseded ingestions of the same document keep their rows but
// carry an older generation and are excluded from queries.
type Chunk struct {
	ID         string     `json:"id"`
	DocID      string     `json:"doc_id"`
	Ordinal    int        `json:"ordinal"`
	Offset     int        `json:"offset"`
	Text       string     `json:"text"`
	Embedding  []float32  `json:"-"`
	Generation int64      `json:"generation"`
	Provenance Provenance `json:"provenance"`
	// Origin names where the chunk came from: the document title for
	// ingested chunks, the recording agent and task for learned ones.
	Origin     string    `json:"origin,omitempty"`
	IngestedAt time.Time `json:"ingested_at"`
}

// ScoredChunk pairs a chunk with its similarity score for one query.
type ScoredChunk struct {
	Chunk Chunk   `json:"chunk"`
	Score float64 `json:"score"`
}

// QueryFilters narrows a retrieval query. Zero value means no filtering.
type QueryFilters struct {
	DocIDs     []string   `json:"doc_ids,omitempty"`
	Provenance Provenance `json:"provenance,omitempty"`
	MinScore   float64    `json:"min_score,omitempty"`
}

// LearningProvenance tags a learned chunk with the context that produced it.
type LearningProvenance struct {
	Agent     string `json:"agent"`
	TaskID    string `json:"task_id,omitempty"`
	SessionID string `json:"session_id,omitempty"`
}

// DocumentIndex is the retrieval store behind the regulation tools.
//
// Ingest splits a document into overlapping chunks with ids stable across
// re-ingestion of unchanged text; changed text starts a new generation and
// the previous generation stops matching queries. Query returns up to k
// chunks ordered by descending similarity, ties broken by most recent
// ingestion; an empty corpus yields an empty result, and an unreachable
// embedding backend yields a *RetrievalUnavailableError. RecordLearning adds
// one provenance-tagged chunk that is immediately queryable.
type DocumentIndex interface {
	Ingest(ctx context.Context, doc Document) ([]string, error)
	Query(ctx context.Context, text string, k int, filters QueryFilters) ([]ScoredChunk, error)
	RecordLearning(ctx context.Context, text string, prov LearningProvenance) (string, error)
}
