// Package ai provides factory functions for creating provider and
// storage adapters from configuration.
package ai

import (
	"context"
	"fmt"

	ollamaembed "github.com/atrium-labs/ragcore/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/atrium-labs/ragcore/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/atrium-labs/ragcore/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/atrium-labs/ragcore/internal/adapters/driven/llm/ollama"
	openaillm "github.com/atrium-labs/ragcore/internal/adapters/driven/llm/openai"
	"github.com/atrium-labs/ragcore/internal/adapters/driven/vectorstore/memory"
	"github.com/atrium-labs/ragcore/internal/adapters/driven/vectorstore/pgvector"
	"github.com/atrium-labs/ragcore/internal/adapters/driven/vectorstore/sqlite"
	"github.com/atrium-labs/ragcore/internal/config"
	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
)

// CreateEmbeddingService creates the embedding service named by the
// configuration.
func CreateEmbeddingService(cfg config.EmbeddingConfig) (driven.EmbeddingService, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamaembed.NewEmbeddingService(ollamaembed.Config{
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		}), nil

	case "openai":
		return openaiembed.NewEmbeddingService(openaiembed.Config{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
		})

	case "anthropic":
		return nil, fmt.Errorf("%w: anthropic does not provide embeddings, use ollama or openai",
			domain.ErrInvalidInput)

	default:
		return nil, fmt.Errorf("%w: unsupported embedding provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

// CreateLLMService creates the LLM service named by the configuration.
func CreateLLMService(cfg config.LLMConfig) (driven.LLMService, error) {
	switch cfg.Provider {
	case "ollama":
		return ollamallm.NewLLMService(ollamallm.Config{
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		}), nil

	case "openai":
		return openaillm.NewLLMService(openaillm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	case "anthropic":
		return anthropicllm.NewLLMService(anthropicllm.Config{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
		})

	default:
		return nil, fmt.Errorf("%w: unsupported LLM provider %q", domain.ErrInvalidInput, cfg.Provider)
	}
}

// CreateVectorStore creates the vector store backend named by the
// configuration. The dimensions come from the embedding configuration
// so the two always agree.
func CreateVectorStore(ctx context.Context, cfg config.StoreConfig, dimensions int) (driven.VectorStore, error) {
	switch cfg.Backend {
	case "memory":
		return memory.NewStore(dimensions), nil

	case "sqlite":
		return sqlite.NewStore(cfg.DataDir, dimensions)

	case "pgvector":
		return pgvector.NewStore(ctx, cfg.DSN, dimensions)

	default:
		return nil, fmt.Errorf("%w: unsupported store backend %q", domain.ErrInvalidInput, cfg.Backend)
	}
}
