package driven

import (
	"context"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// VectorStore persists fragments with their embeddings and serves
// similarity searches.
//
// Implementations report backend unreachability by wrapping
// domain.ErrStorageUnavailable, and reject embeddings whose length does
// not match the configured dimension with domain.ErrDimensionMismatch.
type VectorStore interface {
	// UpsertBatch writes fragments, overwriting any existing fragment
	// with the same ID. Each fragment write is independent; a failure
	// does not roll back fragments already committed in the same
	// batch. Returns the number of fragments persisted.
	UpsertBatch(ctx context.Context, fragments []domain.IndexedFragment) (int, error)

	// Search computes cosine similarity between the query vector and
	// stored vectors, drops results below opts.MinSimilarity, applies
	// opts.Filters as an AND of metadata equality predicates, and
	// returns at most opts.TopK results ordered by descending
	// similarity. Ties are broken by fragment ID so identical inputs
	// produce identical output.
	Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error)

	// Delete removes every fragment whose ID or parent document ID
	// equals id. Returns the number of fragments removed.
	Delete(ctx context.Context, id string) (int, error)

	// Dimensions returns the configured embedding dimension.
	Dimensions() int

	// Close releases the backend connection. Safe to call on every
	// exit path.
	Close() error
}
