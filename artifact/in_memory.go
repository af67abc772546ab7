package artifact

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gridmind/gridmind/core"
)

// InMemoryStore is an in-process core.ArtifactStore keeping payloads and
// metadata in maps guarded by an RWMutex. Data is copied on save and
// retrieval to avoid accidental external mutation of internal buffers.
// Best suited for tests and single-process deployments.
type InMemoryStore struct {
	mu   sync.RWMutex
	data map[string][]byte        // artifactID -> payload
	meta map[string]core.Artifact // artifactID -> metadata
}

// NewInMemoryStore returns an empty in-memory artifact store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		data: make(map[string][]byte),
		meta: make(map[string]core.Artifact),
	}
}

var _ core.ArtifactStore = (*InMemoryStore)(nil)

// Put stores the payload under its content hash. Storing identical bytes
// again returns the existing id without rewriting, so retried writes are
// idempotent. When the session already holds an artifact with the same name,
// the new one records it in Supersedes and advances the version.
func (s *InMemoryStore) Put(_ context.Context, meta core.Artifact, data []byte) (string, error) {
	id := core.HashArtifact(data)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.meta[id]; exists {
		return id, nil
	}

	meta.ID = id
	meta.Size = int64(len(data))
	meta.Created = time.Now().UTC()
	if meta.Version == 0 {
		meta.Version = 1
	}

	if meta.Supersedes == "" && meta.Name != "" {
		if prev, ok := s.latestByNameLocked(meta.SessionID, meta.Name); ok {
			meta.Supersedes = prev.ID
			meta.Version = prev.Version + 1
		}
	}

	cp := make([]byte, len(data))
	copy(cp, data)
	s.data[id] = cp
	s.meta[id] = meta

	return id, nil
}

// Get returns a copy of the stored payload or ErrNotFound.
func (s *InMemoryStore) Get(_ context.Context, id string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.data[id]
	if !ok {
		return nil, ErrNotFound
	}

	cp := make([]byte, len(data))
	copy(cp, data)

	return cp, nil
}

// Stat returns the stored metadata for an artifact id.
func (s *InMemoryStore) Stat(_ context.Context, id string) (core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	meta, ok := s.meta[id]
	if !ok {
		return core.Artifact{}, ErrNotFound
	}

	return meta, nil
}

// List returns the metadata of all artifacts stored for the session,
// oldest first.
func (s *InMemoryStore) List(_ context.Context, sessionID string) ([]core.Artifact, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var metas []core.Artifact
	for _, m := range s.meta {
		if m.SessionID == sessionID {
			metas = append(metas, m)
		}
	}
	sort.Slice(metas, func(i, j int) bool { return metas[i].Created.Before(metas[j].Created) })

	return metas, nil
}

// latestByNameLocked finds the most recent artifact with the given session
// and name. Caller must hold at least a read lock.
func (s *InMemoryStore) latestByNameLocked(sessionID, name string) (core.Artifact, bool) {
	var latest core.Artifact
	var found bool
	for _, m := range s.meta {
		if m.SessionID != sessionID || m.Name != name {
			continue
		}
		if !found || m.Created.After(latest.Created) || m.Version > latest.Version {
			latest = m
			found = true
		}
	}

	return latest, found
}
