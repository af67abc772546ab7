package artifact

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridmind/gridmind/core"
)

type statStore interface {
	core.ArtifactStore
	Stat(ctx context.Context, id string) (core.Artifact, error)
}

func newStores(t *testing.T) map[string]statStore {
	t.Helper()

	sqlite, err := NewSQLiteStore(filepath.Join(t.TempDir(), "artifacts.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlite.Close() })

	return map[string]statStore{
		"memory": NewInMemoryStore(),
		"sqlite": sqlite,
	}
}

func TestPutAndGet(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := []byte(`{"title":"laudo"}`)

			id, err := store.Put(ctx, core.Artifact{Name: "laudo.json", MIMEType: "application/json", SessionID: "s1"}, payload)
			require.NoError(t, err)
			assert.Equal(t, core.HashArtifact(payload), id)

			got, err := store.Get(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, payload, got)

			meta, err := store.Stat(ctx, id)
			require.NoError(t, err)
			assert.Equal(t, int64(len(payload)), meta.Size)
			assert.Equal(t, int64(1), meta.Version)
		})
	}
}

func TestPutIdempotent(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			payload := []byte("same bytes")

			id1, err := store.Put(ctx, core.Artifact{Name: "a", SessionID: "s1"}, payload)
			require.NoError(t, err)
			id2, err := store.Put(ctx, core.Artifact{Name: "a", SessionID: "s1"}, payload)
			require.NoError(t, err)
			assert.Equal(t, id1, id2)

			metas, err := store.List(ctx, "s1")
			require.NoError(t, err)
			assert.Len(t, metas, 1)
		})
	}
}

func TestPutSupersedesSameName(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			id1, err := store.Put(ctx, core.Artifact{Name: "laudo.json", SessionID: "s1"}, []byte("v1"))
			require.NoError(t, err)
			id2, err := store.Put(ctx, core.Artifact{Name: "laudo.json", SessionID: "s1"}, []byte("v2"))
			require.NoError(t, err)
			require.NotEqual(t, id1, id2)

			meta, err := store.Stat(ctx, id2)
			require.NoError(t, err)
			assert.Equal(t, id1, meta.Supersedes)
			assert.Equal(t, int64(2), meta.Version)

			// Earlier content stays retrievable.
			old, err := store.Get(ctx, id1)
			require.NoError(t, err)
			assert.Equal(t, []byte("v1"), old)
		})
	}
}

func TestGetMissing(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			_, err := store.Get(context.Background(), "deadbeef")
			assert.ErrorIs(t, err, ErrNotFound)
		})
	}
}

func TestListScopedToSession(t *testing.T) {
	for name, store := range newStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			_, err := store.Put(ctx, core.Artifact{Name: "a", SessionID: "s1"}, []byte("one"))
			require.NoError(t, err)
			_, err = store.Put(ctx, core.Artifact{Name: "b", SessionID: "s2"}, []byte("two"))
			require.NoError(t, err)

			metas, err := store.List(ctx, "s1")
			require.NoError(t, err)
			require.Len(t, metas, 1)
			assert.Equal(t, "a", metas[0].Name)
		})
	}
}
