package memory

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

func newFragment(id, docID, content string, embedding []float32) domain.IndexedFragment {
	return domain.IndexedFragment{
		ID:         id,
		DocumentID: docID,
		Content:    content,
		Embedding:  embedding,
	}
}

func TestUpsertBatch(t *testing.T) {
	s := NewStore(3)

	n, err := s.UpsertBatch(context.Background(), []domain.IndexedFragment{
		newFragment("doc1_chunk_0", "doc1", "first", []float32{1, 0, 0}),
		newFragment("doc1_chunk_1", "doc1", "second", []float32{0, 1, 0}),
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Count())
}

func TestUpsertBatch_OverwritesByID(t *testing.T) {
	s := NewStore(3)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("doc1_chunk_0", "doc1", "original", []float32{1, 0, 0}),
	})
	require.NoError(t, err)

	_, err = s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("doc1_chunk_0", "doc1", "replaced", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	assert.Equal(t, 1, s.Count())

	results, err := s.Search(ctx, []float32{0, 1, 0}, domain.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "replaced", results[0].Content)
}

func TestUpsertBatch_DimensionMismatch(t *testing.T) {
	s := NewStore(3)

	_, err := s.UpsertBatch(context.Background(), []domain.IndexedFragment{
		newFragment("doc1_chunk_0", "doc1", "bad", []float32{1, 0}),
	})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestSearch_OrdersByDescendingSimilarity(t *testing.T) {
	s := NewStore(3)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("a_chunk_0", "a", "exact", []float32{1, 0, 0}),
		newFragment("b_chunk_0", "b", "close", []float32{0.9, 0.1, 0}),
		newFragment("c_chunk_0", "c", "orthogonal", []float32{0, 0, 1}),
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{TopK: 10})
	require.NoError(t, err)
	require.Len(t, results, 3)
	assert.Equal(t, "a_chunk_0", results[0].FragmentID)
	assert.Equal(t, "b_chunk_0", results[1].FragmentID)
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-9)
}

func TestSearch_MinSimilarity(t *testing.T) {
	s := NewStore(3)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("a_chunk_0", "a", "exact", []float32{1, 0, 0}),
		newFragment("b_chunk_0", "b", "orthogonal", []float32{0, 1, 0}),
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{TopK: 10, MinSimilarity: 0.7})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "a_chunk_0", results[0].FragmentID)
}

func TestSearch_TopK(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("a_chunk_0", "a", "1", []float32{1, 0}),
		newFragment("b_chunk_0", "b", "2", []float32{0.9, 0.1}),
		newFragment("c_chunk_0", "c", "3", []float32{0.8, 0.2}),
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0}, domain.SearchOptions{TopK: 2})
	require.NoError(t, err)
	assert.Len(t, results, 2)
}

func TestSearch_Filters(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		{
			ID: "a_chunk_0", DocumentID: "a", Content: "spanish",
			Embedding: []float32{1, 0},
			Metadata:  map[string]any{"language": "es", "source": "wiki"},
		},
		{
			ID: "b_chunk_0", DocumentID: "b", Content: "english",
			Embedding: []float32{1, 0},
			Metadata:  map[string]any{"language": "en", "source": "wiki"},
		},
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0}, domain.SearchOptions{
		TopK:    10,
		Filters: map[string]string{"language": "es", "source": "wiki"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "spanish", results[0].Content)

	results, err = s.Search(ctx, []float32{1, 0}, domain.SearchOptions{
		TopK:    10,
		Filters: map[string]string{"language": "fr"},
	})
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearch_TieBreakByFragmentID(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("z_chunk_0", "z", "z", []float32{1, 0}),
		newFragment("a_chunk_0", "a", "a", []float32{1, 0}),
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0}, domain.SearchOptions{TopK: 10})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "a_chunk_0", results[0].FragmentID)
	assert.Equal(t, "z_chunk_0", results[1].FragmentID)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	s := NewStore(3)

	_, err := s.Search(context.Background(), []float32{1, 0}, domain.SearchOptions{TopK: 1})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestDelete_ByFragmentID(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("doc1_chunk_0", "doc1", "1", []float32{1, 0}),
		newFragment("doc1_chunk_1", "doc1", "2", []float32{0, 1}),
	})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, "doc1_chunk_0")
	require.NoError(t, err)
	assert.Equal(t, 1, removed)
	assert.Equal(t, 1, s.Count())
}

func TestDelete_ByDocumentID(t *testing.T) {
	s := NewStore(2)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		newFragment("doc1_chunk_0", "doc1", "1", []float32{1, 0}),
		newFragment("doc1_chunk_1", "doc1", "2", []float32{0, 1}),
		newFragment("doc2_chunk_0", "doc2", "3", []float32{1, 0}),
	})
	require.NoError(t, err)

	removed, err := s.Delete(ctx, "doc1")
	require.NoError(t, err)
	assert.Equal(t, 2, removed)
	assert.Equal(t, 1, s.Count())
}

func TestDelete_Missing(t *testing.T) {
	s := NewStore(2)

	removed, err := s.Delete(context.Background(), "nope")
	require.NoError(t, err)
	assert.Zero(t, removed)
}
