package artifact

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gridmind/gridmind/core"
)

// SQLiteStore is a durable core.ArtifactStore backed by a single SQLite
// database file. Payloads are stored inline as BLOBs, which is adequate for
// report-sized artifacts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the artifact database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open artifact db: %w", err)
	}

	// modernc's driver serializes access per connection; a single connection
	// avoids SQLITE_BUSY under concurrent writers.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if err := ensureArtifactSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

var _ core.ArtifactStore = (*SQLiteStore)(nil)

func ensureArtifactSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS artifacts (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	mime_type  TEXT NOT NULL DEFAULT '',
	size       INTEGER NOT NULL,
	session_id TEXT NOT NULL,
	task_id    TEXT NOT NULL DEFAULT '',
	version    INTEGER NOT NULL DEFAULT 1,
	supersedes TEXT NOT NULL DEFAULT '',
	created    TIMESTAMP NOT NULL,
	data       BLOB NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_artifacts_session ON artifacts(session_id);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("ensure artifact schema: %w", err)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Put stores the payload under its content hash inside one transaction.
// Re-putting identical bytes returns the existing id unchanged.
func (s *SQLiteStore) Put(ctx context.Context, meta core.Artifact, data []byte) (string, error) {
	id := core.HashArtifact(data)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return "", fmt.Errorf("begin put: %w", err)
	}
	defer tx.Rollback()

	var exists int
	if err := tx.QueryRowContext(ctx, `SELECT COUNT(1) FROM artifacts WHERE id = ?`, id).Scan(&exists); err != nil {
		return "", fmt.Errorf("check artifact: %w", err)
	}
	if exists > 0 {
		return id, nil
	}

	meta.ID = id
	meta.Size = int64(len(data))
	meta.Created = time.Now().UTC()
	if meta.Version == 0 {
		meta.Version = 1
	}

	if meta.Supersedes == "" && meta.Name != "" {
		var prevID string
		var prevVersion int64
		err := tx.QueryRowContext(ctx,
			`SELECT id, version FROM artifacts WHERE session_id = ? AND name = ? ORDER BY version DESC, created DESC LIMIT 1`,
			meta.SessionID, meta.Name,
		).Scan(&prevID, &prevVersion)
		switch {
		case err == nil:
			meta.Supersedes = prevID
			meta.Version = prevVersion + 1
		case errors.Is(err, sql.ErrNoRows):
			// first artifact under this name
		default:
			return "", fmt.Errorf("lookup previous version: %w", err)
		}
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO artifacts (id, name, mime_type, size, session_id, task_id, version, supersedes, created, data)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		meta.ID, meta.Name, meta.MIMEType, meta.Size, meta.SessionID, meta.TaskID,
		meta.Version, meta.Supersedes, meta.Created, data,
	); err != nil {
		return "", fmt.Errorf("insert artifact: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return "", fmt.Errorf("commit put: %w", err)
	}

	return id, nil
}

// Get returns the stored payload or ErrNotFound.
func (s *SQLiteStore) Get(ctx context.Context, id string) ([]byte, error) {
	var data []byte
	err := s.db.QueryRowContext(ctx, `SELECT data FROM artifacts WHERE id = ?`, id).Scan(&data)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get artifact: %w", err)
	}

	return data, nil
}

// Stat returns the stored metadata for an artifact id.
func (s *SQLiteStore) Stat(ctx context.Context, id string) (core.Artifact, error) {
	var meta core.Artifact
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, mime_type, size, session_id, task_id, version, supersedes, created
		 FROM artifacts WHERE id = ?`, id,
	).Scan(&meta.ID, &meta.Name, &meta.MIMEType, &meta.Size, &meta.SessionID,
		&meta.TaskID, &meta.Version, &meta.Supersedes, &meta.Created)
	if errors.Is(err, sql.ErrNoRows) {
		return core.Artifact{}, ErrNotFound
	}
	if err != nil {
		return core.Artifact{}, fmt.Errorf("stat artifact: %w", err)
	}

	return meta, nil
}

// List returns the metadata of all artifacts stored for the session,
// oldest first.
func (s *SQLiteStore) List(ctx context.Context, sessionID string) ([]core.Artifact, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, mime_type, size, session_id, task_id, version, supersedes, created
		 FROM artifacts WHERE session_id = ? ORDER BY created ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("list artifacts: %w", err)
	}
	defer rows.Close()

	var metas []core.Artifact
	for rows.Next() {
		var meta core.Artifact
		if err := rows.Scan(&meta.ID, &meta.Name, &meta.MIMEType, &meta.Size, &meta.SessionID,
			&meta.TaskID, &meta.Version, &meta.Supersedes, &meta.Created); err != nil {
			return nil, fmt.Errorf("scan artifact: %w", err)
		}
		metas = append(metas, meta)
	}

	return metas, rows.Err()
}
