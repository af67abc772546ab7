package index

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/embed"
)

// SQLite is a durable document index. Embeddings are stored JSON-encoded and
// similarity is computed in Go over the current-generation rows.
type SQLite struct {
	db       *sql.DB
	embedder embed.Embedder
	opts     Options
}

var _ core.DocumentIndex = (*SQLite)(nil)

// NewSQLite opens (creating if needed) a sqlite-backed index at path.
func NewSQLite(path string, embedder embed.Embedder, optFns ...func(o *Options)) (*SQLite, error) {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec("PRAGMA busy_timeout = 5000"); err != nil {
		opts.Logger.Debug("index.sqlite.pragma_failed", "error", err)
	}

	ix := &SQLite{db: db, embedder: embedder, opts: opts}
	if err := ix.ensureSchema(); err != nil {
		db.Close()
		return nil, err
	}

	return ix, nil
}

func (ix *SQLite) ensureSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		id TEXT PRIMARY KEY,
		title TEXT,
		generation INTEGER NOT NULL
	);
	CREATE TABLE IF NOT EXISTS chunks (
		id TEXT NOT NULL,
		doc_id TEXT NOT NULL,
		ordinal INTEGER NOT NULL,
		start_offset INTEGER NOT NULL,
		text TEXT NOT NULL,
		embedding TEXT NOT NULL,
		generation INTEGER NOT NULL,
		provenance TEXT NOT NULL,
		origin TEXT,
		ingested_at TIMESTAMP NOT NULL,
		PRIMARY KEY (id, generation)
	);
	CREATE INDEX IF NOT EXISTS idx_chunks_doc ON chunks(doc_id, generation);
	`
	if _, err := ix.db.Exec(schema); err != nil {
		return fmt.Errorf("failed to create index schema: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (ix *SQLite) Close() error { return ix.db.Close() }

// Ingest splits doc into overlapping chunks and stores them under the next
// document generation. Unchanged text is idempotent.
func (ix *SQLite) Ingest(ctx context.Context, doc core.Document) ([]string, error) {
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

	tx, err := ix.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin ingest: %w", err)
	}
	defer tx.Rollback()

	var curGen int64
	err = tx.QueryRowContext(ctx, "SELECT generation FROM documents WHERE id = ?", doc.ID).Scan(&curGen)
	if err != nil && err != sql.ErrNoRows {
		return nil, fmt.Errorf("failed to read document generation: %w", err)
	}

	ids := make([]string, len(spans))
	for i, sp := range spans {
		ids[i] = chunkID(doc.ID, sp.Ordinal)
	}

	if curGen > 0 {
		same, err := ix.sameTextTx(ctx, tx, doc.ID, curGen, spans)
		if err != nil {
			return nil, err
		}
		if same {
			ix.opts.Logger.Debug("index.ingest.unchanged", "doc_id", doc.ID, "generation", curGen)
			return ids, nil
		}
	}

	gen := curGen + 1
	now := time.Now()
	for i, sp := range spans {
		vecJSON, err := json.Marshal(vecs[i])
		if err != nil {
			return nil, fmt.Errorf("failed to encode embedding: %w", err)
		}
		_, err = tx.ExecContext(ctx, `
			INSERT INTO chunks (id, doc_id, ordinal, start_offset, text, embedding, generation, provenance, origin, ingested_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			ids[i], doc.ID, sp.Ordinal, sp.Offset, sp.Text, string(vecJSON), gen, string(core.ProvenanceIngested), doc.Title, now)
		if err != nil {
			return nil, fmt.Errorf("failed to insert chunk: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (id, title, generation) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET title = excluded.title, generation = excluded.generation`,
		doc.ID, doc.Title, gen)
	if err != nil {
		return nil, fmt.Errorf("failed to update document: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit ingest: %w", err)
	}

	ix.opts.Logger.Info("index.ingest.completed", "doc_id", doc.ID, "generation", gen, "chunks", len(ids))

	return ids, nil
}

func (ix *SQLite) sameTextTx(ctx context.Context, tx *sql.Tx, docID string, gen int64, spans []span) (bool, error) {
	rows, err := tx.QueryContext(ctx, "SELECT ordinal, text FROM chunks WHERE doc_id = ? AND generation = ?", docID, gen)
	if err != nil {
		return false, fmt.Errorf("failed to read current chunks: %w", err)
	}
	defer rows.Close()

	existing := map[int]string{}
	for rows.Next() {
		var ord int
		var text string
		if err := rows.Scan(&ord, &text); err != nil {
			return false, err
		}
		existing[ord] = text
	}
	if err := rows.Err(); err != nil {
		return false, err
	}

	if len(existing) != len(spans) {
		return false, nil
	}
	for _, sp := range spans {
		if existing[sp.Ordinal] != sp.Text {
			return false, nil
		}
	}

	return true, nil
}

// Query embeds text and returns up to k current chunks ordered by descending
// similarity, ties broken by most recent ingestion.
func (ix *SQLite) Query(ctx context.Context, text string, k int, filters core.QueryFilters) ([]core.ScoredChunk, error) {
	if k <= 0 {
		return []core.ScoredChunk{}, nil
	}

	var count int
	if err := ix.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM chunks").Scan(&count); err != nil {
		return nil, fmt.Errorf("failed to count chunks: %w", err)
	}
	if count == 0 {
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

	// Current-generation ingested chunks plus all learned chunks.
	rows, err := ix.db.QueryContext(ctx, `
		SELECT c.id, c.doc_id, c.ordinal, c.start_offset, c.text, c.embedding, c.generation, c.provenance, c.origin, c.ingested_at
		FROM chunks c
		LEFT JOIN documents d ON d.id = c.doc_id
		WHERE c.provenance = ? OR c.generation = d.generation`,
		string(core.ProvenanceLearned))
	if err != nil {
		return nil, fmt.Errorf("failed to query chunks: %w", err)
	}
	defer rows.Close()

	hits := make([]core.ScoredChunk, 0, k)
	for rows.Next() {
		var c core.Chunk
		var vecJSON, prov string
		var origin sql.NullString
		if err := rows.Scan(&c.ID, &c.DocID, &c.Ordinal, &c.Offset, &c.Text, &vecJSON, &c.Generation, &prov, &origin, &c.IngestedAt); err != nil {
			return nil, err
		}
		c.Provenance = core.Provenance(prov)
		c.Origin = origin.String
		if err := json.Unmarshal([]byte(vecJSON), &c.Embedding); err != nil {
			ix.opts.Logger.Warn("index.query.bad_embedding", "chunk_id", c.ID)
			continue
		}

		if !matchesFilters(c, filters) {
			continue
		}
		if hit, ok := score(queryVec, c, threshold); ok {
			hits = append(hits, hit)
		}
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return rank(hits, k), nil
}

// RecordLearning stores one provenance-tagged learned chunk, immediately
// visible to queries. Recording identical text twice returns the same id.
func (ix *SQLite) RecordLearning(ctx context.Context, text string, prov core.LearningProvenance) (string, error) {
	if text == "" {
		return "", fmt.Errorf("learning text required")
	}

	vec, err := ix.embedder.Embed(ctx, text)
	if err != nil {
		return "", &core.RetrievalUnavailableError{Cause: err}
	}

	vecJSON, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("failed to encode embedding: %w", err)
	}

	id := learningID(text)

	_, err = ix.db.ExecContext(ctx, `
		INSERT INTO chunks (id, doc_id, ordinal, start_offset, text, embedding, generation, provenance, origin, ingested_at)
		VALUES (?, '', 0, 0, ?, ?, 1, ?, ?, ?)
		ON CONFLICT(id, generation) DO NOTHING`,
		id, text, string(vecJSON), string(core.ProvenanceLearned), fmt.Sprintf("%s/%s", prov.Agent, prov.TaskID), time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to insert learning: %w", err)
	}

	ix.opts.Logger.Info("index.learning.recorded", "chunk_id", id, "agent", prov.Agent)

	return id, nil
}
