package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
	"github.com/atrium-labs/ragcore/internal/core/ports/driving"
	"github.com/atrium-labs/ragcore/internal/logger"
)

// Ensure RetrievalService implements the interface.
var _ driving.RetrievalService = (*RetrievalService)(nil)

// Default retrieval parameters, used when neither the request nor the
// service configuration supplies a value.
const (
	DefaultTopK          = 5
	DefaultMinSimilarity = 0.7
)

// RetrievalService embeds queries and searches the vector store.
type RetrievalService struct {
	embedder   driven.EmbeddingService
	store      driven.VectorStore
	thresholds domain.ConfidenceThresholds

	defaultTopK          int
	defaultMinSimilarity float64
	timeout              time.Duration
}

// RetrievalOption configures the retrieval service.
type RetrievalOption func(*RetrievalService)

// WithRetrievalDefaults sets the top-k and similarity floor applied
// when a request leaves them zero.
func WithRetrievalDefaults(topK int, minSimilarity float64) RetrievalOption {
	return func(s *RetrievalService) {
		if topK > 0 {
			s.defaultTopK = topK
		}
		if minSimilarity > 0 {
			s.defaultMinSimilarity = minSimilarity
		}
	}
}

// WithRetrievalTimeout bounds a single retrieval call. Zero disables
// the bound.
func WithRetrievalTimeout(d time.Duration) RetrievalOption {
	return func(s *RetrievalService) {
		s.timeout = d
	}
}

// WithConfidenceThresholds overrides the confidence cut-offs.
func WithConfidenceThresholds(t domain.ConfidenceThresholds) RetrievalOption {
	return func(s *RetrievalService) {
		s.thresholds = t
	}
}

// NewRetrievalService creates a retrieval service.
func NewRetrievalService(embedder driven.EmbeddingService, store driven.VectorStore, opts ...RetrievalOption) *RetrievalService {
	s := &RetrievalService{
		embedder:             embedder,
		store:                store,
		thresholds:           domain.DefaultConfidenceThresholds(),
		defaultTopK:          DefaultTopK,
		defaultMinSimilarity: DefaultMinSimilarity,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Retrieve embeds the query, searches the vector store and scores the
// outcome. Results come back ordered by descending similarity.
func (s *RetrievalService) Retrieve(
	ctx context.Context, query string, opts domain.SearchOptions,
) ([]domain.SearchResult, domain.ConfidenceAssessment, error) {
	query, err := domain.SanitizeQuery(query)
	if err != nil {
		return nil, domain.ConfidenceAssessment{}, fmt.Errorf("sanitizing query: %w", err)
	}

	if opts.TopK <= 0 {
		opts.TopK = s.defaultTopK
	}
	if opts.MinSimilarity <= 0 {
		opts.MinSimilarity = s.defaultMinSimilarity
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	logger.Section("Retrieval")
	logger.Debug("Query: %q (top_k=%d, min_similarity=%.2f)", query, opts.TopK, opts.MinSimilarity)

	embedding, err := s.embedder.Embed(ctx, query)
	if err != nil {
		return nil, domain.ConfidenceAssessment{}, mapTimeout(fmt.Errorf("embedding query: %w", err))
	}

	results, err := s.store.Search(ctx, embedding, opts)
	if err != nil {
		return nil, domain.ConfidenceAssessment{}, mapTimeout(fmt.Errorf("searching index: %w", err))
	}

	assessment := domain.AssessConfidence(results, s.thresholds)
	logger.Info("Retrieved %d fragments, confidence %s (max=%.3f avg=%.3f)",
		assessment.ChunksRetrieved, assessment.Level, assessment.MaxSimilarity, assessment.AvgSimilarity)

	return results, assessment, nil
}

// mapTimeout folds context deadline errors into the timeout sentinel so
// callers can distinguish a slow backend from a broken one.
func mapTimeout(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%w: %v", domain.ErrTimeout, err)
	}
	return err
}
