package domain

// SearchResult is a single similarity hit. Ephemeral: produced per
// query, ordered by descending similarity, never persisted.
type SearchResult struct {
	// FragmentID is the matched fragment.
	FragmentID string

	// DocumentID is the fragment's parent document.
	DocumentID string

	// Content is the fragment text.
	Content string

	// Similarity is the cosine similarity mapped to [0,1].
	Similarity float64

	// ChunkIndex is the fragment's position within its document.
	ChunkIndex int

	// Metadata is the fragment metadata as stored.
	Metadata map[string]any
}

// SearchOptions configures a vector store search.
type SearchOptions struct {
	// TopK is the maximum number of results to return.
	TopK int

	// MinSimilarity filters out results scoring below this value.
	MinSimilarity float64

	// Filters are metadata equality predicates, combined with AND.
	Filters map[string]string
}
