package core

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"time"
)

// Artifact describes a stored binary output (report, chart data, table).
// Artifacts are write-once: a revision is a new artifact whose Supersedes
// field points back at the one it replaces.
type Artifact struct {
	// ID is the hex sha256 of the payload, so storing identical bytes twice
	// yields the same id.
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	MIMEType   string    `json:"mime_type"`
	Size       int64     `json:"size"`
	SessionID  string    `json:"session_id"`
	TaskID     string    `json:"task_id,omitempty"`
	Version    int64     `json:"version"`
	Supersedes string    `json:"supersedes,omitempty"`
	Created    time.Time `json:"created"`
}

// HashArtifact returns the content-derived artifact id for data.
func HashArtifact(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// ArtifactStore persists artifacts keyed by content hash.
//
// Put is idempotent: storing a payload whose hash already exists returns the
// existing id without rewriting. Get returns the raw bytes for an id.
type ArtifactStore interface {
	Put(ctx context.Context, meta Artifact, data []byte) (string, error)
	Get(ctx context.Context, id string) ([]byte, error)
	List(ctx context.Context, sessionID string) ([]Artifact, error)
}
