package session

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"github.com/gridmind/gridmind/core"
)

// SQLiteStore is a durable core.SessionStore backed by a single SQLite
// database file. The version check and the turn insert happen in one
// transaction, so a conflicting writer can never interleave between them.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore opens (creating if necessary) the session database at path.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open session db: %w", err)
	}

	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA busy_timeout = 5000`); err != nil {
		db.Close()
		return nil, fmt.Errorf("set busy_timeout: %w", err)
	}

	if err := ensureSessionSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db}, nil
}

var _ core.SessionStore = (*SQLiteStore)(nil)

func ensureSessionSchema(db *sql.DB) error {
	const schema = `
CREATE TABLE IF NOT EXISTS sessions (
	id      TEXT PRIMARY KEY,
	user_id TEXT NOT NULL,
	version INTEGER NOT NULL DEFAULT 0,
	state   TEXT NOT NULL DEFAULT '{}',
	created TIMESTAMP NOT NULL,
	updated TIMESTAMP NOT NULL
);
CREATE TABLE IF NOT EXISTS turns (
	session_id TEXT NOT NULL,
	seq        INTEGER NOT NULL,
	id         TEXT NOT NULL,
	role       TEXT NOT NULL,
	agent_name TEXT NOT NULL DEFAULT '',
	content    TEXT NOT NULL,
	parent_id  TEXT NOT NULL DEFAULT '',
	artifacts  TEXT NOT NULL DEFAULT '[]',
	status     TEXT NOT NULL DEFAULT '',
	timestamp  TIMESTAMP NOT NULL,
	PRIMARY KEY (session_id, seq)
);
`
	if _, err := db.Exec(schema); err != nil {
		return fmt.Errorf("ensure session schema: %w", err)
	}

	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error { return s.db.Close() }

// Create allocates a new session row at version 0.
func (s *SQLiteStore) Create(ctx context.Context, id, userID string) (*core.Session, error) {
	now := time.Now().UTC()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (id, user_id, version, state, created, updated) VALUES (?, ?, 0, '{}', ?, ?)`,
		id, userID, now, now,
	)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", id, err)
	}

	sess := core.NewSession(id, userID)

	return sess, nil
}

// Load reconstructs the session and its full turn history, or returns
// core.ErrSessionNotFound.
func (s *SQLiteStore) Load(ctx context.Context, id string) (*core.Session, error) {
	var (
		userID   string
		version  int64
		stateRaw string
		created  time.Time
		updated  time.Time
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT user_id, version, state, created, updated FROM sessions WHERE id = ?`, id,
	).Scan(&userID, &version, &stateRaw, &created, &updated)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, core.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("load session %s: %w", id, err)
	}

	state := map[string]interface{}{}
	if err := json.Unmarshal([]byte(stateRaw), &state); err != nil {
		return nil, fmt.Errorf("decode session state %s: %w", id, err)
	}

	turns, err := s.loadTurns(ctx, id)
	if err != nil {
		return nil, err
	}

	return &core.Session{
		ID:      id,
		UserID:  userID,
		Turns:   turns,
		State:   state,
		Version: version,
		Created: created,
		Updated: updated,
	}, nil
}

func (s *SQLiteStore) loadTurns(ctx context.Context, sessionID string) ([]core.Turn, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, role, agent_name, content, parent_id, artifacts, status, timestamp
		 FROM turns WHERE session_id = ? ORDER BY seq ASC`, sessionID,
	)
	if err != nil {
		return nil, fmt.Errorf("load turns %s: %w", sessionID, err)
	}
	defer rows.Close()

	turns := []core.Turn{}
	for rows.Next() {
		var (
			t            core.Turn
			artifactsRaw string
		)
		if err := rows.Scan(&t.ID, &t.Role, &t.AgentName, &t.Content, &t.ParentID,
			&artifactsRaw, &t.Status, &t.Timestamp); err != nil {
			return nil, fmt.Errorf("scan turn: %w", err)
		}
		if err := json.Unmarshal([]byte(artifactsRaw), &t.Artifacts); err != nil {
			return nil, fmt.Errorf("decode turn artifacts: %w", err)
		}
		turns = append(turns, t)
	}

	return turns, rows.Err()
}

// AppendTurn commits a turn and state delta inside one transaction when
// expectedVersion matches the stored version. On mismatch the transaction
// rolls back and a *core.VersionConflictError reports both versions.
func (s *SQLiteStore) AppendTurn(ctx context.Context, sessionID string, expectedVersion int64, turn core.Turn, stateDelta map[string]interface{}) (int64, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin append: %w", err)
	}
	defer tx.Rollback()

	var (
		version  int64
		stateRaw string
	)
	err = tx.QueryRowContext(ctx, `SELECT version, state FROM sessions WHERE id = ?`, sessionID).Scan(&version, &stateRaw)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, core.ErrSessionNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("read session version: %w", err)
	}

	if version != expectedVersion {
		return 0, &core.VersionConflictError{SessionID: sessionID, Expected: expectedVersion, Actual: version}
	}

	state := map[string]interface{}{}
	if err := json.Unmarshal([]byte(stateRaw), &state); err != nil {
		return 0, fmt.Errorf("decode session state: %w", err)
	}
	for k, v := range stateDelta {
		state[k] = v
	}
	newStateRaw, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("encode session state: %w", err)
	}

	artifacts := turn.Artifacts
	if artifacts == nil {
		artifacts = []string{}
	}
	artifactsRaw, err := json.Marshal(artifacts)
	if err != nil {
		return 0, fmt.Errorf("encode turn artifacts: %w", err)
	}

	newVersion := version + 1

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO turns (session_id, seq, id, role, agent_name, content, parent_id, artifacts, status, timestamp)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sessionID, newVersion, turn.ID, turn.Role, turn.AgentName, turn.Content,
		turn.ParentID, string(artifactsRaw), turn.Status, turn.Timestamp.UTC(),
	); err != nil {
		return 0, fmt.Errorf("insert turn: %w", err)
	}

	if _, err := tx.ExecContext(ctx,
		`UPDATE sessions SET version = ?, state = ?, updated = ? WHERE id = ? AND version = ?`,
		newVersion, string(newStateRaw), time.Now().UTC(), sessionID, version,
	); err != nil {
		return 0, fmt.Errorf("update session: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit append: %w", err)
	}

	return newVersion, nil
}
