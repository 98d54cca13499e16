// Package config loads application configuration from a YAML file with
// programmatic defaults, plus API credentials from the environment or a
// .env file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// ChunkingConfig controls how documents are split into chunks.
type ChunkingConfig struct {
	MaxChunkTokens int `yaml:"max_chunk_tokens"`
	OverlapTokens  int `yaml:"overlap_tokens"`
}

// RetrievalConfig controls query-time behavior.
type RetrievalConfig struct {
	K                  int     `yaml:"retrieval_k"`
	MinSimilarity      float64 `yaml:"min_similarity"`
	ContextTokenBudget int     `yaml:"context_token_budget"`
	HighConfidence     float64 `yaml:"high_confidence"`
	MediumConfidence   float64 `yaml:"medium_confidence"`
}

// GenerationConfig shapes answer generation; values are passed opaquely to
// the generation capability.
type GenerationConfig struct {
	Temperature float64 `yaml:"temperature"`
	MaxTokens   int     `yaml:"max_tokens"`
}

// CapabilityConfig configures the embedding/generation provider.
type CapabilityConfig struct {
	BaseURL        string `yaml:"base_url"`
	APIKeyEnv      string `yaml:"api_key_env"`
	EmbeddingModel string `yaml:"embedding_model"`
	ChatModel      string `yaml:"chat_model"`
	TimeoutSecs    int    `yaml:"timeout_secs"`
}

// Config is the root application configuration.
type Config struct {
	DataDir       string           `yaml:"data_dir"`
	Collection    string           `yaml:"collection"`
	MaxCodeLength int              `yaml:"max_code_length"`
	Chunking      ChunkingConfig   `yaml:"chunking"`
	Retrieval     RetrievalConfig  `yaml:"retrieval"`
	Generation    GenerationConfig `yaml:"generation"`
	Capability    CapabilityConfig `yaml:"capability"`
}

// Default returns the built-in configuration defaults.
func Default() *Config {
	return &Config{
		DataDir:       "./data",
		Collection:    "api_docs",
		MaxCodeLength: 50000,
		Chunking: ChunkingConfig{
			MaxChunkTokens: 1000,
			OverlapTokens:  200,
		},
		Retrieval: RetrievalConfig{
			K:                  5,
			MinSimilarity:      0.30,
			ContextTokenBudget: 3000,
			HighConfidence:     0.80,
			MediumConfidence:   0.55,
		},
		Generation: GenerationConfig{
			Temperature: 0.7,
			MaxTokens:   1500,
		},
		Capability: CapabilityConfig{
			BaseURL:        "https://api.openai.com/v1",
			APIKeyEnv:      "OPENAI_API_KEY",
			EmbeddingModel: "text-embedding-3-small",
			ChatModel:      "gpt-4o-mini",
			TimeoutSecs:    30,
		},
	}
}

// Load reads configuration from path. A missing file yields defaults.
// A .env file in the working directory is loaded first so API keys can
// live outside the config file.
func Load(path string) (*Config, error) {
	// Best effort; a missing .env is not an error.
	_ = godotenv.Load()

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	applyDefaults(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes the config to path, creating directories as needed.
func Save(path string, cfg *Config) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o644)
}

// APIKey resolves the capability API key from the configured env var.
func (c *Config) APIKey() string {
	return os.Getenv(c.Capability.APIKeyEnv)
}

// Validate checks configuration invariants. Validation errors are never
// retried and are reported immediately.
func (c *Config) Validate() error {
	if c.Chunking.MaxChunkTokens <= 0 {
		return errors.New("max_chunk_tokens must be positive")
	}
	if c.Chunking.OverlapTokens <= 0 || c.Chunking.OverlapTokens >= c.Chunking.MaxChunkTokens {
		return errors.New("overlap_tokens must be positive and less than max_chunk_tokens")
	}
	if c.Retrieval.K <= 0 {
		return errors.New("retrieval_k must be positive")
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return errors.New("min_similarity must be between 0 and 1")
	}
	if c.Retrieval.MediumConfidence > c.Retrieval.HighConfidence {
		return errors.New("medium_confidence cutoff must not exceed high_confidence")
	}
	if c.MaxCodeLength <= 0 {
		return errors.New("max_code_length must be positive")
	}
	return nil
}

// applyDefaults fills zero values left by a sparse config file.
func applyDefaults(cfg *Config) {
	def := Default()
	if cfg.DataDir == "" {
		cfg.DataDir = def.DataDir
	}
	if cfg.Collection == "" {
		cfg.Collection = def.Collection
	}
	if cfg.MaxCodeLength == 0 {
		cfg.MaxCodeLength = def.MaxCodeLength
	}
	if cfg.Chunking.MaxChunkTokens == 0 {
		cfg.Chunking.MaxChunkTokens = def.Chunking.MaxChunkTokens
	}
	if cfg.Chunking.OverlapTokens == 0 {
		cfg.Chunking.OverlapTokens = def.Chunking.OverlapTokens
	}
	if cfg.Retrieval.K == 0 {
		cfg.Retrieval.K = def.Retrieval.K
	}
	if cfg.Retrieval.MinSimilarity == 0 {
		cfg.Retrieval.MinSimilarity = def.Retrieval.MinSimilarity
	}
	if cfg.Retrieval.ContextTokenBudget == 0 {
		cfg.Retrieval.ContextTokenBudget = def.Retrieval.ContextTokenBudget
	}
	if cfg.Retrieval.HighConfidence == 0 {
		cfg.Retrieval.HighConfidence = def.Retrieval.HighConfidence
	}
	if cfg.Retrieval.MediumConfidence == 0 {
		cfg.Retrieval.MediumConfidence = def.Retrieval.MediumConfidence
	}
	if cfg.Generation.Temperature == 0 {
		cfg.Generation.Temperature = def.Generation.Temperature
	}
	if cfg.Generation.MaxTokens == 0 {
		cfg.Generation.MaxTokens = def.Generation.MaxTokens
	}
	if cfg.Capability.BaseURL == "" {
		cfg.Capability.BaseURL = def.Capability.BaseURL
	}
	if cfg.Capability.APIKeyEnv == "" {
		cfg.Capability.APIKeyEnv = def.Capability.APIKeyEnv
	}
	if cfg.Capability.EmbeddingModel == "" {
		cfg.Capability.EmbeddingModel = def.Capability.EmbeddingModel
	}
	if cfg.Capability.ChatModel == "" {
		cfg.Capability.ChatModel = def.Capability.ChatModel
	}
	if cfg.Capability.TimeoutSecs == 0 {
		cfg.Capability.TimeoutSecs = def.Capability.TimeoutSecs
	}
}
