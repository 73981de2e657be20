// Package cli implements the command line interface.
package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/atrium-labs/ragcore/internal/adapters/driven/ai"
	"github.com/atrium-labs/ragcore/internal/cache"
	"github.com/atrium-labs/ragcore/internal/chunker"
	"github.com/atrium-labs/ragcore/internal/config"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
	"github.com/atrium-labs/ragcore/internal/core/ports/driving"
	"github.com/atrium-labs/ragcore/internal/core/services"
	"github.com/atrium-labs/ragcore/internal/extractors"
	"github.com/atrium-labs/ragcore/internal/logger"
	"github.com/atrium-labs/ragcore/internal/prompt"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgPath string
	verbose bool
)

// Services wired by ensureServices. Tests may inject their own.
var (
	cfg           *config.Config
	queryService  driving.QueryService
	ingestService driving.IngestService
	vectorStore   driven.VectorStore
)

var rootCmd = &cobra.Command{
	Use:   "ragcore",
	Short: "Index documents and answer questions about them",
	Long: `ragcore ingests documents into a vector index and answers
questions about them using retrieval-augmented generation.`,
	SilenceUsage: true,
	PersistentPreRun: func(_ *cobra.Command, _ []string) {
		logger.SetVerbose(verbose)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgPath, "config", "", "config file (default ~/.ragcore/config.toml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
}

// Execute runs the CLI.
func Execute() {
	defer closeServices()
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// ensureServices wires the pipeline on first use. Commands injected
// with test services skip the wiring.
func ensureServices(ctx context.Context) error {
	if queryService != nil && ingestService != nil {
		return nil
	}

	path := cfgPath
	if path == "" {
		var err error
		if path, err = config.DefaultPath(); err != nil {
			return err
		}
	}

	var err error
	cfg, err = config.Load(path)
	if err != nil {
		return fmt.Errorf("loading configuration: %w", err)
	}

	embedder, err := ai.CreateEmbeddingService(cfg.Embedding)
	if err != nil {
		return err
	}

	llm, err := ai.CreateLLMService(cfg.LLM)
	if err != nil {
		embedder.Close()
		return err
	}

	vectorStore, err = ai.CreateVectorStore(ctx, cfg.Store, cfg.Embedding.Dimensions)
	if err != nil {
		embedder.Close()
		llm.Close()
		return err
	}

	splitter, err := chunker.New(cfg.Chunking.Strategy, cfg.Chunking.ChunkSize, cfg.Chunking.Overlap)
	if err != nil {
		return err
	}

	retrieval := services.NewRetrievalService(embedder, vectorStore,
		services.WithRetrievalDefaults(cfg.Retrieval.TopK, cfg.Retrieval.MinSimilarity),
		services.WithRetrievalTimeout(cfg.RetrievalTimeout()),
		services.WithConfidenceThresholds(cfg.ConfidenceThresholds()),
	)

	answerOpts := []services.AnswerOption{
		services.WithGeneration(cfg.LLM.MaxTokens, cfg.LLM.Temperature),
	}
	if cfg.Cache.Enabled {
		answerOpts = append(answerOpts, services.WithResponseCache(cache.New(
			cache.WithMaxSize(cfg.Cache.MaxSize),
			cache.WithTTL(cfg.CacheTTL()),
			cache.WithMinQueryLength(cfg.Cache.MinQueryLength),
		)))
	}

	builder := prompt.New(
		prompt.WithMaxHistoryTurns(cfg.Prompt.MaxHistoryTurns),
		prompt.WithMaxContextChars(cfg.Prompt.MaxContextChars),
	)

	queryService = services.NewAnswerService(retrieval, llm, builder, answerOpts...)
	ingestService = services.NewIngestionService(extractors.Defaults(), splitter, embedder, vectorStore,
		services.WithEmbedRateLimit(cfg.Ingest.EmbedRatePerSecond),
	)

	return nil
}

// closeServices releases backend connections on exit.
func closeServices() {
	if vectorStore != nil {
		vectorStore.Close()
	}
}
