package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
	"github.com/atrium-labs/ragcore/internal/core/ports/driving"
	"github.com/atrium-labs/ragcore/internal/logger"
	"github.com/atrium-labs/ragcore/internal/prompt"
)

// Ensure AnswerService implements the interface.
var _ driving.QueryService = (*AnswerService)(nil)

// noContextAnswer is returned when retrieval finds nothing above the
// similarity floor. The generator is not called in that case.
const noContextAnswer = "I do not have enough information in the indexed documents to answer that question."

// AnswerService runs the full question-answering pipeline.
type AnswerService struct {
	retrieval driving.RetrievalService
	llm       driven.LLMService
	cache     driven.ResponseCache
	builder   *prompt.Builder

	maxTokens   int
	temperature float64
	now         func() time.Time
}

// AnswerOption configures the answer service.
type AnswerOption func(*AnswerService)

// WithResponseCache enables response caching. A nil cache disables it.
func WithResponseCache(cache driven.ResponseCache) AnswerOption {
	return func(s *AnswerService) {
		s.cache = cache
	}
}

// WithGeneration sets the generation parameters.
func WithGeneration(maxTokens int, temperature float64) AnswerOption {
	return func(s *AnswerService) {
		if maxTokens > 0 {
			s.maxTokens = maxTokens
		}
		if temperature > 0 {
			s.temperature = temperature
		}
	}
}

// withClock overrides the time source for tests.
func withClock(now func() time.Time) AnswerOption {
	return func(s *AnswerService) {
		s.now = now
	}
}

// NewAnswerService creates an answer service.
func NewAnswerService(
	retrieval driving.RetrievalService,
	llm driven.LLMService,
	builder *prompt.Builder,
	opts ...AnswerOption,
) *AnswerService {
	s := &AnswerService{
		retrieval:   retrieval,
		llm:         llm,
		builder:     builder,
		maxTokens:   2048,
		temperature: 0.2,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Answer runs cache check, retrieval, prompt assembly, generation,
// confidence scoring and response formatting.
func (s *AnswerService) Answer(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	start := s.now()

	query, err := domain.SanitizeQuery(req.Query)
	if err != nil {
		return nil, fmt.Errorf("sanitizing query: %w", err)
	}

	if s.cache != nil {
		if cached, ok := s.cache.Get(query, req.Filters); ok {
			logger.Debug("Cache hit for %q", query)
			response := *cached
			response.FromCache = true
			response.ResponseTime = s.now().Sub(start).Seconds()
			return &response, nil
		}
	}

	results, assessment, err := s.retrieval.Retrieve(ctx, query, domain.SearchOptions{
		TopK:          req.TopK,
		MinSimilarity: req.MinSimilarity,
		Filters:       req.Filters,
	})
	if err != nil {
		return nil, err
	}

	response := &domain.QueryResponse{
		Confidence: assessment,
		ChunksUsed: len(results),
	}

	if len(results) == 0 {
		logger.Info("No context above similarity floor, skipping generation")
		response.Answer = noContextAnswer
		response.ResponseTime = s.now().Sub(start).Seconds()
		return response, nil
	}

	var p prompt.Prompt
	if req.Conversational {
		p = s.builder.BuildConversational(query, results, req.History)
	} else {
		p = s.builder.Build(query, results)
	}

	answer, err := s.llm.Generate(ctx, p.User, driven.GenerateOptions{
		System:      p.System,
		MaxTokens:   s.maxTokens,
		Temperature: s.temperature,
	})
	if err != nil {
		return nil, mapTimeout(fmt.Errorf("generating answer: %w", err))
	}

	response.Answer = answer
	if req.IncludeSources {
		response.Sources = aggregateSources(results)
	}
	response.ResponseTime = s.now().Sub(start).Seconds()

	if s.cache != nil {
		s.cache.Set(query, req.Filters, response)
	}

	return response, nil
}

// aggregateSources groups fragments by parent document, carrying the
// best similarity as the document score. Sources come back ordered by
// descending score, ties broken by document ID.
func aggregateSources(results []domain.SearchResult) []domain.SourceRef {
	byDoc := make(map[string]*domain.SourceRef)
	var order []string

	for _, r := range results {
		ref, ok := byDoc[r.DocumentID]
		if !ok {
			ref = &domain.SourceRef{
				DocumentID: r.DocumentID,
				Filename:   metadataString(r.Metadata, "filename"),
				Title:      metadataString(r.Metadata, "title"),
			}
			byDoc[r.DocumentID] = ref
			order = append(order, r.DocumentID)
		}
		if r.Similarity > ref.Score {
			ref.Score = r.Similarity
		}
		ref.ChunksUsed = append(ref.ChunksUsed, domain.ChunkScore{
			ChunkIndex: r.ChunkIndex,
			Score:      r.Similarity,
		})
	}

	sources := make([]domain.SourceRef, 0, len(order))
	for _, id := range order {
		sources = append(sources, *byDoc[id])
	}
	sort.SliceStable(sources, func(i, j int) bool {
		if sources[i].Score != sources[j].Score {
			return sources[i].Score > sources[j].Score
		}
		return sources[i].DocumentID < sources[j].DocumentID
	})
	return sources
}

// metadataString reads a string field from fragment metadata.
func metadataString(metadata map[string]any, key string) string {
	if v, ok := metadata[key].(string); ok {
		return v
	}
	return ""
}
