// Package config loads pipeline configuration from a TOML file, with
// environment variables supplying credentials.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// Config is the full pipeline configuration.
type Config struct {
	Chunking   ChunkingConfig   `toml:"chunking"`
	Retrieval  RetrievalConfig  `toml:"retrieval"`
	Confidence ConfidenceConfig `toml:"confidence"`
	Cache      CacheConfig      `toml:"cache"`
	Embedding  EmbeddingConfig  `toml:"embedding"`
	LLM        LLMConfig        `toml:"llm"`
	Store      StoreConfig      `toml:"store"`
	Prompt     PromptConfig     `toml:"prompt"`
	Ingest     IngestConfig     `toml:"ingest"`
}

// ChunkingConfig controls how documents are split.
type ChunkingConfig struct {
	// Strategy selects the splitter: "recursive" or "window".
	Strategy  string `toml:"strategy"`
	ChunkSize int    `toml:"chunk_size"`
	Overlap   int    `toml:"overlap"`
}

// RetrievalConfig controls vector search.
type RetrievalConfig struct {
	TopK          int     `toml:"top_k"`
	MinSimilarity float64 `toml:"min_similarity"`
	// TimeoutSeconds bounds a single retrieval call.
	TimeoutSeconds int `toml:"timeout_seconds"`
}

// ConfidenceConfig holds the similarity thresholds for confidence
// levels.
type ConfidenceConfig struct {
	HighMax   float64 `toml:"high_max"`
	HighAvg   float64 `toml:"high_avg"`
	MediumMax float64 `toml:"medium_max"`
	MediumAvg float64 `toml:"medium_avg"`
}

// CacheConfig controls the response cache.
type CacheConfig struct {
	Enabled        bool `toml:"enabled"`
	MaxSize        int  `toml:"max_size"`
	TTLMinutes     int  `toml:"ttl_minutes"`
	MinQueryLength int  `toml:"min_query_length"`
}

// EmbeddingConfig selects and configures the embedding provider.
type EmbeddingConfig struct {
	// Provider is one of "openai", "ollama".
	Provider   string `toml:"provider"`
	Model      string `toml:"model"`
	BaseURL    string `toml:"base_url"`
	APIKey     string `toml:"api_key"`
	Dimensions int    `toml:"dimensions"`
}

// LLMConfig selects and configures the generation provider.
type LLMConfig struct {
	// Provider is one of "openai", "anthropic", "ollama".
	Provider    string  `toml:"provider"`
	Model       string  `toml:"model"`
	BaseURL     string  `toml:"base_url"`
	APIKey      string  `toml:"api_key"`
	MaxTokens   int     `toml:"max_tokens"`
	Temperature float64 `toml:"temperature"`
}

// StoreConfig selects the vector store backend.
type StoreConfig struct {
	// Backend is one of "sqlite", "pgvector", "memory".
	Backend string `toml:"backend"`
	// DataDir holds the SQLite database (default ~/.ragcore/data).
	DataDir string `toml:"data_dir"`
	// DSN is the PostgreSQL connection string for pgvector.
	DSN string `toml:"dsn"`
}

// PromptConfig controls prompt assembly.
type PromptConfig struct {
	MaxHistoryTurns int `toml:"max_history_turns"`
	MaxContextChars int `toml:"max_context_chars"`
}

// IngestConfig controls the ingestion pipeline.
type IngestConfig struct {
	// EmbedRatePerSecond throttles embedding calls during ingestion.
	// Zero disables throttling.
	EmbedRatePerSecond float64 `toml:"embed_rate_per_second"`
}

// Default returns the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Chunking: ChunkingConfig{
			Strategy:  "recursive",
			ChunkSize: 800,
			Overlap:   100,
		},
		Retrieval: RetrievalConfig{
			TopK:           5,
			MinSimilarity:  0.7,
			TimeoutSeconds: 30,
		},
		Confidence: ConfidenceConfig{
			HighMax:   0.85,
			HighAvg:   0.75,
			MediumMax: 0.70,
			MediumAvg: 0.60,
		},
		Cache: CacheConfig{
			Enabled:        true,
			MaxSize:        100,
			TTLMinutes:     30,
			MinQueryLength: 10,
		},
		Embedding: EmbeddingConfig{
			Provider:   "openai",
			Dimensions: 1024,
		},
		LLM: LLMConfig{
			Provider:    "openai",
			MaxTokens:   2048,
			Temperature: 0.2,
		},
		Store: StoreConfig{
			Backend: "sqlite",
		},
		Prompt: PromptConfig{
			MaxHistoryTurns: 5,
			MaxContextChars: 24000,
		},
	}
}

// DefaultPath returns the default config file location,
// ~/.ragcore/config.toml.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}
	return filepath.Join(home, ".ragcore", "config.toml"), nil
}

// Load reads configuration from path, layering file values over the
// defaults and environment credentials over the file. A missing file is
// not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return nil, fmt.Errorf("reading config: %w", err)
			}
		} else if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("%w: parsing config: %v", domain.ErrInvalidInput, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// applyEnv overrides credentials from the environment. Keys in the
// config file are supported but the environment wins, so secrets can
// stay out of the file.
func applyEnv(cfg *Config) {
	if v := os.Getenv("RAGCORE_EMBEDDING_API_KEY"); v != "" {
		cfg.Embedding.APIKey = v
	}
	if v := os.Getenv("RAGCORE_LLM_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("RAGCORE_STORE_DSN"); v != "" {
		cfg.Store.DSN = v
	}

	// Provider-conventional variables as fallbacks.
	if cfg.Embedding.APIKey == "" && cfg.Embedding.Provider == "openai" {
		cfg.Embedding.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.LLM.APIKey == "" {
		switch cfg.LLM.Provider {
		case "openai":
			cfg.LLM.APIKey = os.Getenv("OPENAI_API_KEY")
		case "anthropic":
			cfg.LLM.APIKey = os.Getenv("ANTHROPIC_API_KEY")
		}
	}
}

// Validate checks cross-field constraints.
func (c *Config) Validate() error {
	if c.Chunking.ChunkSize <= 0 {
		return fmt.Errorf("%w: chunk_size must be positive", domain.ErrInvalidInput)
	}
	if c.Chunking.Overlap < 0 || c.Chunking.Overlap >= c.Chunking.ChunkSize {
		return fmt.Errorf("%w: overlap must be in [0, chunk_size)", domain.ErrInvalidInput)
	}
	if c.Chunking.Strategy != "recursive" && c.Chunking.Strategy != "window" {
		return fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, c.Chunking.Strategy)
	}
	if c.Retrieval.TopK <= 0 {
		return fmt.Errorf("%w: top_k must be positive", domain.ErrInvalidInput)
	}
	if c.Retrieval.MinSimilarity < 0 || c.Retrieval.MinSimilarity > 1 {
		return fmt.Errorf("%w: min_similarity must be in [0, 1]", domain.ErrInvalidInput)
	}
	if c.Embedding.Dimensions <= 0 {
		return fmt.Errorf("%w: embedding dimensions must be positive", domain.ErrInvalidInput)
	}
	switch c.Store.Backend {
	case "sqlite", "pgvector", "memory":
	default:
		return fmt.Errorf("%w: unknown store backend %q", domain.ErrInvalidInput, c.Store.Backend)
	}
	if c.Store.Backend == "pgvector" && c.Store.DSN == "" {
		return fmt.Errorf("%w: pgvector backend requires a dsn", domain.ErrInvalidInput)
	}
	return nil
}

// ConfidenceThresholds converts the config section to domain
// thresholds.
func (c *Config) ConfidenceThresholds() domain.ConfidenceThresholds {
	return domain.ConfidenceThresholds{
		HighMax:   c.Confidence.HighMax,
		HighAvg:   c.Confidence.HighAvg,
		MediumMax: c.Confidence.MediumMax,
		MediumAvg: c.Confidence.MediumAvg,
	}
}

// CacheTTL returns the cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLMinutes) * time.Minute
}

// RetrievalTimeout returns the per-call retrieval timeout.
func (c *Config) RetrievalTimeout() time.Duration {
	return time.Duration(c.Retrieval.TimeoutSeconds) * time.Second
}

// Save writes the configuration to path with restricted permissions.
func (c *Config) Save(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshalling config: %w", err)
	}
	return os.WriteFile(path, data, 0600)
}
