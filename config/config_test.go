package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	settings, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	require.NoError(t, err)
	assert.Equal(t, ProviderGenAI, settings.Provider)
	assert.Equal(t, "pt-BR", settings.Core.Language)
	assert.Equal(t, 90*time.Second, settings.Core.TurnBudget)
}

func TestLoadOverlaysFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridmind.yaml")
	content := []byte(`
provider: openai
data_dir: /var/lib/gridmind
core:
  language: en-US
  turn_budget: 30s
  tool_call_budget: 4
`)
	require.NoError(t, os.WriteFile(path, content, 0o644))

	settings, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, ProviderOpenAI, settings.Provider)
	assert.Equal(t, "en-US", settings.Core.Language)
	assert.Equal(t, 30*time.Second, settings.Core.TurnBudget)
	assert.Equal(t, 4, settings.Core.ToolCallBudget)
	// Untouched fields keep their defaults.
	assert.Equal(t, 45*time.Second, settings.Core.TaskTimeout)
	assert.Equal(t, 300, settings.Core.ChunkSize)

	assert.Equal(t, filepath.Join("/var/lib/gridmind", "index.db"), settings.IndexPath())
}

func TestLoadRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gridmind.yaml")
	require.NoError(t, os.WriteFile(path, []byte("provider: telepathy\n"), 0o644))

	_, err := Load(path)
	assert.ErrorContains(t, err, "unknown provider")

	path2 := filepath.Join(t.TempDir(), "gridmind2.yaml")
	require.NoError(t, os.WriteFile(path2, []byte("core:\n  chunk_size: 10\n  chunk_overlap: 20\n"), 0o644))

	_, err = Load(path2)
	assert.ErrorContains(t, err, "chunk_overlap")
}

func TestAPIKeyEnvResolution(t *testing.T) {
	t.Setenv("GRIDMIND_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	s := Default()
	s.Provider = ProviderOpenAI
	assert.Equal(t, "sk-test", s.APIKey())

	t.Setenv("GRIDMIND_API_KEY", "gm-wins")
	assert.Equal(t, "gm-wins", s.APIKey())
}

func TestEmptyDataDirMeansInMemory(t *testing.T) {
	s := Default()
	assert.Empty(t, s.IndexPath())
	assert.Empty(t, s.SessionsPath())
	assert.Empty(t, s.ArtifactsPath())
}
