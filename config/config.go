// Package config loads deployment settings from a YAML file, overlays
// environment secrets and produces the wiring inputs for a gridmind
// instance.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/embed"
)

// Completion model providers.
const (
	ProviderGenAI     = "genai"
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
	ProviderMock      = "mock"
)

// Settings is the full deployment configuration: the core tunables plus the
// model provider, embedding backend, storage locations and logging setup.
// API keys are never read from the file; they come from the environment.
type Settings struct {
	Core core.Config `yaml:"core"`

	// Provider selects the completion backend. Default "genai".
	Provider string `yaml:"provider"`

	// Embedding configures the embedding backend used by the index.
	Embedding embed.Config `yaml:"embedding"`

	// DataDir is where the SQLite databases live. Empty means fully
	// in-memory stores.
	DataDir string `yaml:"data_dir"`

	// LogLevel is one of debug, info, warn, error. Default "info".
	LogLevel string `yaml:"log_level"`
	// LogFormat is "json" or "text". Default "text".
	LogFormat string `yaml:"log_format"`
}

// Default returns settings suitable for local development.
func Default() Settings {
	return Settings{
		Core:      core.DefaultConfig(),
		Provider:  ProviderGenAI,
		Embedding: embed.DefaultConfig(),
		LogLevel:  "info",
		LogFormat: "text",
	}
}

// Load reads settings from path, falling back to defaults when the file
// does not exist. Values present in the file override defaults field by
// field; absent values keep their default.
func Load(path string) (Settings, error) {
	settings := Default()

	if path == "" {
		return settings, nil
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return settings, nil
	}
	if err != nil {
		return Settings{}, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &settings); err != nil {
		return Settings{}, fmt.Errorf("parse config %s: %w", path, err)
	}

	if err := settings.Validate(); err != nil {
		return Settings{}, err
	}

	return settings, nil
}

// Validate rejects settings no deployment can run with.
func (s *Settings) Validate() error {
	switch s.Provider {
	case ProviderGenAI, ProviderOpenAI, ProviderAnthropic, ProviderMock:
	default:
		return fmt.Errorf("unknown provider %q", s.Provider)
	}

	if s.Core.ChunkOverlap >= s.Core.ChunkSize && s.Core.ChunkSize > 0 {
		return fmt.Errorf("chunk_overlap (%d) must be smaller than chunk_size (%d)", s.Core.ChunkOverlap, s.Core.ChunkSize)
	}
	if s.Core.MaxConcurrentTasks < 1 {
		return fmt.Errorf("max_concurrent_tasks must be at least 1")
	}

	return nil
}

// APIKey resolves the completion provider's API key from the environment.
// GRIDMIND_API_KEY wins over the provider-specific variable.
func (s *Settings) APIKey() string {
	if key := os.Getenv("GRIDMIND_API_KEY"); key != "" {
		return key
	}

	switch s.Provider {
	case ProviderGenAI:
		return os.Getenv("GOOGLE_API_KEY")
	case ProviderOpenAI:
		return os.Getenv("OPENAI_API_KEY")
	case ProviderAnthropic:
		return os.Getenv("ANTHROPIC_API_KEY")
	}

	return ""
}

// IndexPath returns the location of the index database, or "" for in-memory.
func (s *Settings) IndexPath() string { return s.dataFile("index.db") }

// SessionsPath returns the location of the session database, or "" for in-memory.
func (s *Settings) SessionsPath() string { return s.dataFile("sessions.db") }

// ArtifactsPath returns the location of the artifact database, or "" for in-memory.
func (s *Settings) ArtifactsPath() string { return s.dataFile("artifacts.db") }

func (s *Settings) dataFile(name string) string {
	if s.DataDir == "" {
		return ""
	}

	return filepath.Join(s.DataDir, name)
}

// EnsureDataDir creates the data directory when one is configured.
func (s *Settings) EnsureDataDir() error {
	if s.DataDir == "" {
		return nil
	}

	if err := os.MkdirAll(s.DataDir, 0o755); err != nil {
		return fmt.Errorf("create data dir %s: %w", s.DataDir, err)
	}

	return nil
}
