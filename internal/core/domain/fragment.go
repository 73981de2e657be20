package domain

import (
	"fmt"
	"time"
)

// Chunk is a bounded slice of a source document's text, produced by the
// chunker. Offsets are byte positions into the normalised source text.
// Chunks are immutable once created and ordered by Index within their
// parent document.
type Chunk struct {
	// Content is the chunk text.
	Content string

	// StartOffset is the byte offset of the chunk start in the source.
	StartOffset int

	// EndOffset is the byte offset one past the chunk end.
	EndOffset int

	// Index is the ordinal position within the parent document.
	Index int
}

// IndexedFragment is a chunk persisted in the vector store together with
// its embedding and metadata. Owned exclusively by the vector store;
// re-indexing with the same ID overwrites, never duplicates.
type IndexedFragment struct {
	// ID uniquely identifies the fragment. Derived from the parent
	// document ID and chunk index, see FragmentID.
	ID string

	// DocumentID links to the parent document.
	DocumentID string

	// Content is the chunk text.
	Content string

	// Embedding is the fixed-dimension vector representation.
	Embedding []float32

	// ChunkIndex is the ordinal position within the parent document.
	ChunkIndex int

	// Metadata contains opaque key-value pairs (filename, title, file
	// metadata merged in at ingestion time).
	Metadata map[string]any

	// CreatedAt is when the fragment was first indexed.
	CreatedAt time.Time

	// UpdatedAt is when the fragment was last overwritten.
	UpdatedAt time.Time
}

// FragmentID derives the canonical fragment ID for a document chunk.
func FragmentID(documentID string, chunkIndex int) string {
	return fmt.Sprintf("%s_chunk_%d", documentID, chunkIndex)
}
