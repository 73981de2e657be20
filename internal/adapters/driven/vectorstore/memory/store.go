// Package memory provides an in-memory vector store, used for tests
// and for ephemeral indexes that do not need to survive the process.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is an in-memory implementation of driven.VectorStore.
type Store struct {
	mu         sync.RWMutex
	dimensions int
	fragments  map[string]domain.IndexedFragment
}

// NewStore creates an in-memory vector store for embeddings of the
// given dimension.
func NewStore(dimensions int) *Store {
	return &Store{
		dimensions: dimensions,
		fragments:  make(map[string]domain.IndexedFragment),
	}
}

// UpsertBatch writes fragments, overwriting existing ones by ID.
func (s *Store) UpsertBatch(_ context.Context, fragments []domain.IndexedFragment) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC()
	persisted := 0
	for _, f := range fragments {
		if len(f.Embedding) != s.dimensions {
			return persisted, fmt.Errorf("%w: fragment %s has %d dimensions, store expects %d",
				domain.ErrDimensionMismatch, f.ID, len(f.Embedding), s.dimensions)
		}
		if existing, ok := s.fragments[f.ID]; ok {
			f.CreatedAt = existing.CreatedAt
		} else {
			f.CreatedAt = now
		}
		f.UpdatedAt = now
		s.fragments[f.ID] = f
		persisted++
	}
	return persisted, nil
}

// Search scans all fragments, scoring each by cosine similarity.
func (s *Store) Search(_ context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			domain.ErrDimensionMismatch, len(query), s.dimensions)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var results []domain.SearchResult
	for _, f := range s.fragments {
		if !matchesFilters(f.Metadata, opts.Filters) {
			continue
		}
		similarity := domain.CosineSimilarity(query, f.Embedding)
		if similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, domain.SearchResult{
			FragmentID: f.ID,
			DocumentID: f.DocumentID,
			Content:    f.Content,
			Similarity: similarity,
			ChunkIndex: f.ChunkIndex,
			Metadata:   f.Metadata,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return results[i].FragmentID < results[j].FragmentID
	})

	if opts.TopK > 0 && len(results) > opts.TopK {
		results = results[:opts.TopK]
	}
	return results, nil
}

// Delete removes every fragment whose ID or document ID matches.
func (s *Store) Delete(_ context.Context, id string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, f := range s.fragments {
		if f.ID == id || f.DocumentID == id {
			delete(s.fragments, key)
			removed++
		}
	}
	return removed, nil
}

// Dimensions returns the configured embedding dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Count returns the number of stored fragments.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.fragments)
}

// matchesFilters reports whether metadata satisfies every filter as a
// string-equality predicate.
func matchesFilters(metadata map[string]any, filters map[string]string) bool {
	for key, want := range filters {
		value, ok := metadata[key]
		if !ok {
			return false
		}
		if fmt.Sprintf("%v", value) != want {
			return false
		}
	}
	return true
}
