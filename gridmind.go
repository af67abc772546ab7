// Package gridmind provides a high-level façade over the runner and service
// abstractions (sessions, artifacts, document index & logging) for building a
// regulatory assistant for the Brazilian electric sector. Most applications
// interact with this package by:
//  1. Creating a GridMind via New() with a completion model (optionally
//     overriding the default in-memory services)
//  2. Ingesting reference documents (norms, resolutions, measurement data)
//  3. Running user turns with RunTurn
//
// The façade delegates orchestration to runner.Runner while keeping setup and
// usage ergonomics concise. All defaults are safe for local development and
// testing; production deployments typically supply durable store
// implementations, a real embedding backend and a structured logger.
package gridmind

import (
	"context"
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/gridmind/gridmind/agent"
	"github.com/gridmind/gridmind/artifact"
	"github.com/gridmind/gridmind/config"
	"github.com/gridmind/gridmind/core"
	"github.com/gridmind/gridmind/embed"
	"github.com/gridmind/gridmind/index"
	"github.com/gridmind/gridmind/logging"
	"github.com/gridmind/gridmind/model"
	modelanthropic "github.com/gridmind/gridmind/model/anthropic"
	modelgenai "github.com/gridmind/gridmind/model/genai"
	modelopenai "github.com/gridmind/gridmind/model/openai"
	"github.com/gridmind/gridmind/runner"
	"github.com/gridmind/gridmind/session"
	"github.com/gridmind/gridmind/tool"
)

// Options configures the GridMind instance.
type Options struct {
	// Config carries the turn, task and retrieval tunables.
	Config core.Config

	// Stores (default to in-memory implementations if not provided)
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore

	// Index holds the regulatory corpus. When nil, an in-memory index is
	// built around Embedder (or a deterministic local embedder if that is
	// nil too).
	Index    core.DocumentIndex
	Embedder embed.Embedder

	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// GridMind is the high-level façade aggregating the runner and its services.
type GridMind struct {
	runner    *runner.Runner
	index     core.DocumentIndex
	sessions  core.SessionStore
	artifacts core.ArtifactStore
	cfg       core.Config
	llm       model.Model
	agents    []*agent.ModelAgent
}

// AgentInfo describes one registered specialist for introspection.
type AgentInfo struct {
	Name        string
	Description string
	Tools       []string
	ReadOnly    bool
}

// New creates a GridMind around a completion model with optional overrides.
// Any unset service is initialized with an in-memory implementation. The
// standard specialist roster (data scientist, electric engineer and a
// read-only reviewer) is wired against the full tool registry.
func New(llm model.Model, optFns ...func(o *Options)) *GridMind {
	opts := Options{
		Config:        core.DefaultConfig(),
		SessionStore:  session.NewInMemoryStore(),
		ArtifactStore: artifact.NewInMemoryStore(),
		Logger:        logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Index == nil {
		embedder := opts.Embedder
		if embedder == nil {
			embedder = embed.NewMock(256)
		}
		opts.Index = index.NewInMemory(embedder, index.WithChunking(opts.Config.ChunkSize, opts.Config.ChunkOverlap))
	}

	registry := tool.NewRegistry(
		tool.NewRegulationTool(),
		tool.NewLearningTool(),
		tool.NewPowerMetricsTool(),
		tool.NewReportTool(),
	)

	reviewer := agent.NewReviewer(llm, registry)
	dataScientist := agent.NewDataScientist(llm, registry)
	engineer := agent.NewElectricEngineer(llm, registry)

	coordinator := agent.NewCoordinator(reviewer, dataScientist, engineer)

	r := runner.New(coordinator, func(o *runner.Options) {
		o.SessionStore = opts.SessionStore
		o.ArtifactStore = opts.ArtifactStore
		o.Index = opts.Index
		o.Config = opts.Config
		o.Logger = opts.Logger
	})

	return &GridMind{
		runner:    r,
		index:     opts.Index,
		sessions:  opts.SessionStore,
		artifacts: opts.ArtifactStore,
		cfg:       opts.Config,
		llm:       llm,
		agents:    []*agent.ModelAgent{dataScientist, engineer, reviewer},
	}
}

// NewFromSettings builds a fully wired GridMind from file/flag settings:
// the configured completion provider, embedding backend and, when a data
// directory is set, SQLite-backed stores. API keys come exclusively from
// environment variables.
func NewFromSettings(settings config.Settings) (*GridMind, error) {
	if err := settings.Validate(); err != nil {
		return nil, err
	}

	llm, err := newProviderModel(settings)
	if err != nil {
		return nil, err
	}

	logger := logging.NewSlogLogger(logging.ParseLevel(settings.LogLevel), settings.LogFormat, false)

	optFns := []func(o *Options){func(o *Options) {
		o.Config = settings.Core
		o.Logger = logger
	}}

	embedder, err := newSettingsEmbedder(settings)
	if err != nil {
		return nil, err
	}

	if settings.DataDir != "" {
		if err := settings.EnsureDataDir(); err != nil {
			return nil, err
		}

		ix, err := index.NewSQLite(settings.IndexPath(), embedder,
			index.WithChunking(settings.Core.ChunkSize, settings.Core.ChunkOverlap))
		if err != nil {
			return nil, err
		}
		sessions, err := session.NewSQLiteStore(settings.SessionsPath())
		if err != nil {
			return nil, err
		}
		artifacts, err := artifact.NewSQLiteStore(settings.ArtifactsPath())
		if err != nil {
			return nil, err
		}

		optFns = append(optFns, func(o *Options) {
			o.Index = ix
			o.SessionStore = sessions
			o.ArtifactStore = artifacts
		})
	} else {
		optFns = append(optFns, func(o *Options) { o.Embedder = embedder })
	}

	return New(llm, optFns...), nil
}

// newSettingsEmbedder picks the embedding backend. The mock provider runs
// fully offline, so it gets a deterministic local embedder.
func newSettingsEmbedder(settings config.Settings) (embed.Embedder, error) {
	if settings.Provider == config.ProviderMock {
		return embed.NewMock(256), nil
	}
	return embed.New(settings.Embedding)
}

// newProviderModel maps the configured provider name to a model adapter.
func newProviderModel(settings config.Settings) (model.Model, error) {
	switch settings.Provider {
	case config.ProviderGenAI:
		return modelgenai.NewModel(func(o *modelgenai.Options) {
			if settings.Core.ModelID != "" {
				o.Model = settings.Core.ModelID
			}
			o.APIKey = settings.APIKey()
		})
	case config.ProviderOpenAI:
		return modelopenai.NewModel(func(o *modelopenai.Options) {
			if settings.Core.ModelID != "" {
				o.Model = settings.Core.ModelID
			}
		}), nil
	case config.ProviderAnthropic:
		return modelanthropic.NewModel(func(o *modelanthropic.Options) {
			if settings.Core.ModelID != "" {
				o.Model = anthropicsdk.Model(settings.Core.ModelID)
			}
			o.APIKey = settings.APIKey()
		}), nil
	case config.ProviderMock:
		return model.NewMock(), nil
	default:
		return nil, fmt.Errorf("unsupported provider: %s", settings.Provider)
	}
}

// RunTurn executes one complete user turn and returns the committed result.
func (g *GridMind) RunTurn(ctx context.Context, sessionID, userID, userText string) (*runner.TurnOutput, error) {
	return g.runner.RunTurn(ctx, sessionID, userID, userText)
}

// Ingest chunks, embeds and stores a document in the index, returning the
// created chunk ids. Re-ingesting a document id marks the previous chunks
// stale.
func (g *GridMind) Ingest(ctx context.Context, doc core.Document) ([]string, error) {
	return g.index.Ingest(ctx, doc)
}

// Query runs a similarity search over the corpus.
func (g *GridMind) Query(ctx context.Context, text string, k int, filters core.QueryFilters) ([]core.ScoredChunk, error) {
	return g.index.Query(ctx, text, k, filters)
}

// Session loads a session snapshot by id.
func (g *GridMind) Session(ctx context.Context, id string) (*core.Session, error) {
	return g.sessions.Load(ctx, id)
}

// Artifact returns the raw bytes of a stored artifact.
func (g *GridMind) Artifact(ctx context.Context, id string) ([]byte, error) {
	return g.artifacts.Get(ctx, id)
}

// Artifacts lists artifact metadata for a session.
func (g *GridMind) Artifacts(ctx context.Context, sessionID string) ([]core.Artifact, error) {
	return g.artifacts.List(ctx, sessionID)
}

// Config returns the effective configuration.
func (g *GridMind) Config() core.Config { return g.cfg }

// Model describes the completion backend in use.
func (g *GridMind) Model() model.Info { return g.llm.Info() }

// Agents returns the specialist roster, reviewer included.
func (g *GridMind) Agents() []AgentInfo {
	infos := make([]AgentInfo, 0, len(g.agents))
	for _, a := range g.agents {
		infos = append(infos, AgentInfo{
			Name:        a.Name(),
			Description: a.Description(),
			Tools:       a.ToolNames(),
			ReadOnly:    a.ReadOnly(),
		})
	}
	return infos
}
