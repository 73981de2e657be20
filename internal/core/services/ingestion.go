package services

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/atrium-labs/ragcore/internal/chunker"
	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
	"github.com/atrium-labs/ragcore/internal/core/ports/driving"
	"github.com/atrium-labs/ragcore/internal/extractors"
	"github.com/atrium-labs/ragcore/internal/logger"
)

// Ensure IngestionService implements the interface.
var _ driving.IngestService = (*IngestionService)(nil)

// embedBatchSize caps how many chunks go to the embedding provider in
// one call.
const embedBatchSize = 64

// IngestionService runs the document ingestion pipeline: extract,
// normalise, chunk, embed, index.
type IngestionService struct {
	registry *extractors.Registry
	splitter chunker.Splitter
	embedder driven.EmbeddingService
	store    driven.VectorStore
	limiter  *rate.Limiter
}

// IngestOption configures the ingestion service.
type IngestOption func(*IngestionService)

// WithEmbedRateLimit throttles embedding calls to n batches per second.
// Zero or negative disables throttling.
func WithEmbedRateLimit(n float64) IngestOption {
	return func(s *IngestionService) {
		if n > 0 {
			s.limiter = rate.NewLimiter(rate.Limit(n), 1)
		}
	}
}

// NewIngestionService creates an ingestion service.
func NewIngestionService(
	registry *extractors.Registry,
	splitter chunker.Splitter,
	embedder driven.EmbeddingService,
	store driven.VectorStore,
	opts ...IngestOption,
) *IngestionService {
	s := &IngestionService{
		registry: registry,
		splitter: splitter,
		embedder: embedder,
		store:    store,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// DocumentID derives a stable document identifier from the source and
// filename, so re-ingesting the same document overwrites its fragments
// instead of duplicating them.
func DocumentID(source, filename string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(source+"/"+filename)).String()
}

// Ingest runs the full pipeline for one document. All chunks are
// embedded before anything is written, so an embedding failure leaves
// the index untouched.
func (s *IngestionService) Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	if req.Filename == "" {
		return nil, fmt.Errorf("%w: filename is required", domain.ErrInvalidInput)
	}
	if len(req.Content) == 0 {
		return nil, fmt.Errorf("%w: content is empty", domain.ErrInvalidInput)
	}

	logger.Section("Ingestion")
	logger.Info("Ingesting %s (%d bytes)", req.Filename, len(req.Content))

	extractor, err := s.registry.ForFilename(req.Filename)
	if err != nil {
		return nil, err
	}

	extracted, err := extractor.Extract(ctx, req.Content, req.Filename)
	if err != nil {
		return nil, fmt.Errorf("extracting %s: %w", req.Filename, err)
	}

	text := chunker.Normalize(extracted.Text)
	if text == "" {
		return nil, fmt.Errorf("%w: %s contains no extractable text", domain.ErrInvalidInput, req.Filename)
	}

	chunks := s.splitter.Split(text)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s produced no chunks", domain.ErrInvalidInput, req.Filename)
	}
	logger.Debug("Split into %d chunks", len(chunks))

	embeddings, err := s.embedAll(ctx, chunks)
	if err != nil {
		return nil, mapTimeout(fmt.Errorf("embedding %s: %w", req.Filename, err))
	}

	documentID := DocumentID(req.Source, req.Filename)
	metadata := fragmentMetadata(req, extracted)

	fragments := make([]domain.IndexedFragment, len(chunks))
	for i, chunk := range chunks {
		fragments[i] = domain.IndexedFragment{
			ID:         domain.FragmentID(documentID, chunk.Index),
			DocumentID: documentID,
			Content:    chunk.Content,
			Embedding:  embeddings[i],
			ChunkIndex: chunk.Index,
			Metadata:   metadata,
		}
	}

	// Stale fragments from a longer previous version would survive the
	// per-ID upsert, so the document is cleared first.
	if _, err := s.store.Delete(ctx, documentID); err != nil {
		return nil, fmt.Errorf("clearing previous fragments: %w", err)
	}

	persisted, err := s.store.UpsertBatch(ctx, fragments)
	if err != nil {
		return nil, fmt.Errorf("indexing %s: %w", req.Filename, err)
	}
	logger.Info("Indexed %d fragments for %s", persisted, req.Filename)

	return &domain.IngestResult{
		DocumentID:    documentID,
		Filename:      req.Filename,
		FragmentCount: persisted,
	}, nil
}

// Delete removes all fragments of a document, or a single fragment when
// given a fragment ID.
func (s *IngestionService) Delete(ctx context.Context, id string) (int, error) {
	if id == "" {
		return 0, fmt.Errorf("%w: id is required", domain.ErrInvalidInput)
	}
	return s.store.Delete(ctx, id)
}

// embedAll embeds every chunk in batches, respecting the rate limit.
// Any failure aborts the whole document.
func (s *IngestionService) embedAll(ctx context.Context, chunks []domain.Chunk) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(chunks))

	for start := 0; start < len(chunks); start += embedBatchSize {
		end := start + embedBatchSize
		if end > len(chunks) {
			end = len(chunks)
		}

		if s.limiter != nil {
			if err := s.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		texts := make([]string, 0, end-start)
		for _, chunk := range chunks[start:end] {
			texts = append(texts, chunk.Content)
		}

		batch, err := s.embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return nil, err
		}
		if len(batch) != len(texts) {
			return nil, fmt.Errorf("%w: got %d embeddings for %d chunks", domain.ErrProvider, len(batch), len(texts))
		}
		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}

// fragmentMetadata merges request metadata with what extraction found.
// Request metadata wins on conflict; filename and title are always set.
func fragmentMetadata(req domain.IngestRequest, extracted *driven.ExtractResult) map[string]any {
	metadata := make(map[string]any, len(req.Metadata)+len(extracted.Metadata)+3)
	for k, v := range extracted.Metadata {
		metadata[k] = v
	}
	for k, v := range req.Metadata {
		metadata[k] = v
	}
	metadata["filename"] = req.Filename
	if extracted.Title != "" {
		metadata["title"] = extracted.Title
	}
	if req.Source != "" {
		metadata["source"] = req.Source
	}
	return metadata
}
