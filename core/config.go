package core

import (
	"fmt"
	"time"

	"gopkg.in/yaml.v3"
)

// Config carries every tunable of a gridmind deployment. It is constructed
// once before wiring and treated as immutable afterwards; components receive
// it by value.
type Config struct {
	// ModelID selects the completion model. Default "gemini-1.5-flash".
	ModelID string `yaml:"model_id"`

	// EmbedModelID selects the embedding model. Default "text-embedding-004".
	EmbedModelID string `yaml:"embed_model_id"`

	// Language is the BCP-47 code responses are written in. Default "pt-BR".
	Language string `yaml:"language"`

	// TurnBudget is the wall-clock limit for one full turn. When it expires
	// outstanding work is canceled and a partial response is returned.
	// Default 90s.
	TurnBudget time.Duration `yaml:"turn_budget"`

	// TaskTimeout bounds a single delegated task. Default 45s.
	TaskTimeout time.Duration `yaml:"task_timeout"`

	// ToolTimeout bounds a single tool invocation. Default 15s.
	ToolTimeout time.Duration `yaml:"tool_timeout"`

	// MaxConcurrentTasks caps sub-agent tasks running in parallel within one
	// turn. Default 3.
	MaxConcurrentTasks int `yaml:"max_concurrent_tasks"`

	// ToolCallBudget caps tool calls per task. 0 means unlimited. Default 8.
	ToolCallBudget int `yaml:"tool_call_budget"`

	// TaskRetryLimit is the number of times a transiently failed task is
	// retried before it is reported as failed. Default 1.
	TaskRetryLimit int `yaml:"task_retry_limit"`

	// ReviewRedelegationLimit caps the revision rounds the reviewer may
	// request before the turn is answered best-effort. Default 1.
	ReviewRedelegationLimit int `yaml:"review_redelegation_limit"`

	// MaxRouteFanOut caps how many specialists an ambiguous request is
	// delegated to. Default 2.
	MaxRouteFanOut int `yaml:"max_route_fan_out"`

	// SessionRetryLimit is the number of reload-and-reapply attempts after a
	// version conflict before giving up. Default 3.
	SessionRetryLimit int `yaml:"session_retry_limit"`

	// RetrievalK is the default number of chunks returned by a retrieval
	// query. Default 5.
	RetrievalK int `yaml:"retrieval_k"`

	// SimilarityThreshold drops retrieval hits scoring below it. Default 0.2.
	SimilarityThreshold float64 `yaml:"similarity_threshold"`

	// ChunkSize is the chunk length in tokens used at ingestion. Default 300.
	ChunkSize int `yaml:"chunk_size"`

	// ChunkOverlap is the token overlap between adjacent chunks. Default 50.
	ChunkOverlap int `yaml:"chunk_overlap"`
}

// yamlConfig mirrors Config with pointer fields and human-readable duration
// strings, so a YAML file can override a field without resetting the rest.
type yamlConfig struct {
	ModelID                 *string  `yaml:"model_id"`
	EmbedModelID            *string  `yaml:"embed_model_id"`
	Language                *string  `yaml:"language"`
	TurnBudget              *string  `yaml:"turn_budget"`
	TaskTimeout             *string  `yaml:"task_timeout"`
	ToolTimeout             *string  `yaml:"tool_timeout"`
	MaxConcurrentTasks      *int     `yaml:"max_concurrent_tasks"`
	ToolCallBudget          *int     `yaml:"tool_call_budget"`
	TaskRetryLimit          *int     `yaml:"task_retry_limit"`
	ReviewRedelegationLimit *int     `yaml:"review_redelegation_limit"`
	MaxRouteFanOut          *int     `yaml:"max_route_fan_out"`
	SessionRetryLimit       *int     `yaml:"session_retry_limit"`
	RetrievalK              *int     `yaml:"retrieval_k"`
	SimilarityThreshold     *float64 `yaml:"similarity_threshold"`
	ChunkSize               *int     `yaml:"chunk_size"`
	ChunkOverlap            *int     `yaml:"chunk_overlap"`
}

// UnmarshalYAML overlays the decoded values onto the receiver. Durations
// accept Go syntax ("90s", "2m30s").
func (c *Config) UnmarshalYAML(value *yaml.Node) error {
	var raw yamlConfig
	if err := value.Decode(&raw); err != nil {
		return err
	}

	setString := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil {
			*dst = *src
		}
	}
	setDuration := func(dst *time.Duration, src *string, field string) error {
		if src == nil {
			return nil
		}
		d, err := time.ParseDuration(*src)
		if err != nil {
			return fmt.Errorf("invalid %s %q: %w", field, *src, err)
		}
		*dst = d
		return nil
	}

	setString(&c.ModelID, raw.ModelID)
	setString(&c.EmbedModelID, raw.EmbedModelID)
	setString(&c.Language, raw.Language)
	if err := setDuration(&c.TurnBudget, raw.TurnBudget, "turn_budget"); err != nil {
		return err
	}
	if err := setDuration(&c.TaskTimeout, raw.TaskTimeout, "task_timeout"); err != nil {
		return err
	}
	if err := setDuration(&c.ToolTimeout, raw.ToolTimeout, "tool_timeout"); err != nil {
		return err
	}
	setInt(&c.MaxConcurrentTasks, raw.MaxConcurrentTasks)
	setInt(&c.ToolCallBudget, raw.ToolCallBudget)
	setInt(&c.TaskRetryLimit, raw.TaskRetryLimit)
	setInt(&c.ReviewRedelegationLimit, raw.ReviewRedelegationLimit)
	setInt(&c.MaxRouteFanOut, raw.MaxRouteFanOut)
	setInt(&c.SessionRetryLimit, raw.SessionRetryLimit)
	setInt(&c.RetrievalK, raw.RetrievalK)
	if raw.SimilarityThreshold != nil {
		c.SimilarityThreshold = *raw.SimilarityThreshold
	}
	setInt(&c.ChunkSize, raw.ChunkSize)
	setInt(&c.ChunkOverlap, raw.ChunkOverlap)

	return nil
}

// DefaultConfig returns the documented default configuration.
func DefaultConfig() Config {
	return Config{
		ModelID:                 "gemini-1.5-flash",
		EmbedModelID:            "text-embedding-004",
		Language:                "pt-BR",
		TurnBudget:              90 * time.Second,
		TaskTimeout:             45 * time.Second,
		ToolTimeout:             15 * time.Second,
		MaxConcurrentTasks:      3,
		ToolCallBudget:          8,
		TaskRetryLimit:          1,
		ReviewRedelegationLimit: 1,
		MaxRouteFanOut:          2,
		SessionRetryLimit:       3,
		RetrievalK:              5,
		SimilarityThreshold:     0.2,
		ChunkSize:               300,
		ChunkOverlap:            50,
	}
}
