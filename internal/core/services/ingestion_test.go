package services

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-labs/ragcore/internal/adapters/driven/vectorstore/memory"
	"github.com/atrium-labs/ragcore/internal/chunker"
	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/extractors"
)

func newIngestionService(t *testing.T, store *memory.Store, embedder *stubEmbedder, opts ...IngestOption) *IngestionService {
	t.Helper()

	splitter, err := chunker.New(chunker.StrategyRecursive, 80, 20)
	require.NoError(t, err)
	return NewIngestionService(extractors.Defaults(), splitter, embedder, store, opts...)
}

func TestIngest(t *testing.T) {
	store := memory.NewStore(3)
	embedder := &stubEmbedder{fallback: []float32{1, 0, 0}, dimensions: 3}
	svc := newIngestionService(t, store, embedder)

	content := strings.Repeat("Cats are small carnivorous mammals. ", 10)
	result, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content:  []byte(content),
		Filename: "cats.txt",
		Source:   "uploads",
		Metadata: map[string]any{"language": "en"},
	})
	require.NoError(t, err)

	assert.Equal(t, DocumentID("uploads", "cats.txt"), result.DocumentID)
	assert.Equal(t, "cats.txt", result.Filename)
	assert.Greater(t, result.FragmentCount, 1)
	assert.Equal(t, result.FragmentCount, store.Count())

	// Fragments carry derived IDs and merged metadata.
	results, err := store.Search(context.Background(), []float32{1, 0, 0}, domain.SearchOptions{TopK: 1})
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, domain.FragmentID(result.DocumentID, results[0].ChunkIndex), results[0].FragmentID)
	assert.Equal(t, "en", results[0].Metadata["language"])
	assert.Equal(t, "cats.txt", results[0].Metadata["filename"])
	assert.Equal(t, "uploads", results[0].Metadata["source"])
	assert.Equal(t, "cats", results[0].Metadata["title"])
}

func TestIngest_ReingestOverwrites(t *testing.T) {
	store := memory.NewStore(3)
	embedder := &stubEmbedder{fallback: []float32{1, 0, 0}, dimensions: 3}
	svc := newIngestionService(t, store, embedder)

	long := strings.Repeat("A sentence about the project roadmap. ", 20)
	first, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content: []byte(long), Filename: "roadmap.txt", Source: "wiki",
	})
	require.NoError(t, err)

	// A much shorter second version must fully replace the first.
	second, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content: []byte("The roadmap was cancelled."), Filename: "roadmap.txt", Source: "wiki",
	})
	require.NoError(t, err)

	assert.Equal(t, first.DocumentID, second.DocumentID)
	assert.Less(t, second.FragmentCount, first.FragmentCount)
	assert.Equal(t, second.FragmentCount, store.Count())
}

func TestIngest_UnsupportedFormat(t *testing.T) {
	svc := newIngestionService(t, memory.NewStore(3), &stubEmbedder{dimensions: 3})

	_, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content: []byte("data"), Filename: "video.mp4",
	})
	assert.ErrorIs(t, err, domain.ErrUnsupportedFormat)
}

func TestIngest_MissingInput(t *testing.T) {
	svc := newIngestionService(t, memory.NewStore(3), &stubEmbedder{dimensions: 3})

	_, err := svc.Ingest(context.Background(), domain.IngestRequest{Filename: "a.txt"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = svc.Ingest(context.Background(), domain.IngestRequest{Content: []byte("x")})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_WhitespaceOnlyDocument(t *testing.T) {
	svc := newIngestionService(t, memory.NewStore(3), &stubEmbedder{dimensions: 3})

	_, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content: []byte("   \n\n\t  "), Filename: "blank.txt",
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestIngest_EmbeddingFailureLeavesIndexUntouched(t *testing.T) {
	store := memory.NewStore(3)
	embedder := &stubEmbedder{err: domain.ErrProvider, dimensions: 3}
	svc := newIngestionService(t, store, embedder)

	_, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content:  []byte(strings.Repeat("Some document text. ", 20)),
		Filename: "doc.txt",
	})
	require.ErrorIs(t, err, domain.ErrProvider)
	assert.Zero(t, store.Count())
}

func TestIngest_EmbedsInBatches(t *testing.T) {
	store := memory.NewStore(3)
	embedder := &stubEmbedder{fallback: []float32{1, 0, 0}, dimensions: 3}
	svc := newIngestionService(t, store, embedder)

	// Enough text for well over embedBatchSize chunks at size 80.
	content := strings.Repeat("Sentence number one of the corpus. ", 400)
	result, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content: []byte(content), Filename: "big.txt",
	})
	require.NoError(t, err)

	assert.Greater(t, result.FragmentCount, embedBatchSize)
	assert.Greater(t, embedder.calls, 1)
}

func TestDelete(t *testing.T) {
	store := memory.NewStore(3)
	embedder := &stubEmbedder{fallback: []float32{1, 0, 0}, dimensions: 3}
	svc := newIngestionService(t, store, embedder)

	result, err := svc.Ingest(context.Background(), domain.IngestRequest{
		Content:  []byte(strings.Repeat("Text to be deleted later. ", 20)),
		Filename: "gone.txt",
	})
	require.NoError(t, err)

	removed, err := svc.Delete(context.Background(), result.DocumentID)
	require.NoError(t, err)
	assert.Equal(t, result.FragmentCount, removed)
	assert.Zero(t, store.Count())

	_, err = svc.Delete(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestDocumentID_Deterministic(t *testing.T) {
	assert.Equal(t, DocumentID("wiki", "a.txt"), DocumentID("wiki", "a.txt"))
	assert.NotEqual(t, DocumentID("wiki", "a.txt"), DocumentID("wiki", "b.txt"))
	assert.NotEqual(t, DocumentID("wiki", "a.txt"), DocumentID("mail", "a.txt"))
}
