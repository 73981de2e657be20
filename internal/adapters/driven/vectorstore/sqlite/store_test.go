package sqlite

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()

	s, err := NewStore(t.TempDir(), 3)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestUpsertBatchAndSearch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		{
			ID: "doc1_chunk_0", DocumentID: "doc1", Content: "about cats",
			ChunkIndex: 0, Embedding: []float32{1, 0, 0},
			Metadata: map[string]any{"filename": "cats.txt"},
		},
		{
			ID: "doc1_chunk_1", DocumentID: "doc1", Content: "about dogs",
			ChunkIndex: 1, Embedding: []float32{0, 1, 0},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	results, err := s.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "doc1_chunk_0", results[0].FragmentID)
	assert.Equal(t, "about cats", results[0].Content)
	assert.Equal(t, "cats.txt", results[0].Metadata["filename"])
	assert.InDelta(t, 1.0, results[0].Similarity, 1e-6)
}

func TestUpsertBatch_Overwrites(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		{ID: "doc1_chunk_0", DocumentID: "doc1", Content: "old", Embedding: []float32{1, 0, 0}},
	})
	require.NoError(t, err)

	_, err = s.UpsertBatch(ctx, []domain.IndexedFragment{
		{ID: "doc1_chunk_0", DocumentID: "doc1", Content: "new", Embedding: []float32{1, 0, 0}},
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{TopK: 5})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "new", results[0].Content)
}

func TestUpsertBatch_DimensionMismatch(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	n, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		{ID: "doc1_chunk_0", DocumentID: "doc1", Content: "ok", Embedding: []float32{1, 0, 0}},
		{ID: "doc1_chunk_1", DocumentID: "doc1", Content: "bad", Embedding: []float32{1, 0}},
	})
	require.ErrorIs(t, err, domain.ErrDimensionMismatch)
	// The valid fragment before the failure stays committed.
	assert.Equal(t, 1, n)

	results, err := s.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{TopK: 5})
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearch_MinSimilarityAndFilters(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		{
			ID: "a_chunk_0", DocumentID: "a", Content: "match",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]any{"language": "es"},
		},
		{
			ID: "b_chunk_0", DocumentID: "b", Content: "wrong language",
			Embedding: []float32{1, 0, 0},
			Metadata:  map[string]any{"language": "en"},
		},
		{
			ID: "c_chunk_0", DocumentID: "c", Content: "too distant",
			Embedding: []float32{0, 0, 1},
			Metadata:  map[string]any{"language": "es"},
		},
	})
	require.NoError(t, err)

	results, err := s.Search(ctx, []float32{1, 0, 0}, domain.SearchOptions{
		TopK:          5,
		MinSimilarity: 0.7,
		Filters:       map[string]string{"language": "es"},
	})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "match", results[0].Content)
}

func TestSearch_QueryDimensionMismatch(t *testing.T) {
	s := newTestStore(t)

	_, err := s.Search(context.Background(), []float32{1, 0}, domain.SearchOptions{TopK: 1})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)
	ctx := context.Background()

	_, err := s.UpsertBatch(ctx, []domain.IndexedFragment{
		{ID: "doc1_chunk_0", DocumentID: "doc1", Content: "1", Embedding: []float32{1, 0, 0}},
		{ID: "doc1_chunk_1", DocumentID: "doc1", Content: "2", Embedding: []float32{0, 1, 0}},
		{ID: "doc2_chunk_0", DocumentID: "doc2", Content: "3", Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)

	t.Run("by document id", func(t *testing.T) {
		removed, err := s.Delete(ctx, "doc1")
		require.NoError(t, err)
		assert.Equal(t, 2, removed)
	})

	t.Run("by fragment id", func(t *testing.T) {
		removed, err := s.Delete(ctx, "doc2_chunk_0")
		require.NoError(t, err)
		assert.Equal(t, 1, removed)
	})

	t.Run("missing id", func(t *testing.T) {
		removed, err := s.Delete(ctx, "nope")
		require.NoError(t, err)
		assert.Zero(t, removed)
	})
}

func TestMigrate_Idempotent(t *testing.T) {
	dir := t.TempDir()

	s1, err := NewStore(dir, 3)
	require.NoError(t, err)
	require.NoError(t, s1.Close())

	// Reopening the same directory must not re-run migrations.
	s2, err := NewStore(dir, 3)
	require.NoError(t, err)
	require.NoError(t, s2.Close())
}

func TestFloat32Roundtrip(t *testing.T) {
	original := []float32{0.1, -2.5, 3.14159, 0}
	assert.Equal(t, original, bytesToFloat32Slice(float32SliceToBytes(original)))
	assert.Nil(t, float32SliceToBytes(nil))
	assert.Nil(t, bytesToFloat32Slice(nil))
}
