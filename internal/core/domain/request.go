package domain

import "strings"

// MaxQueryLength is the longest query accepted after sanitisation.
const MaxQueryLength = 1000

// ChatTurn is one entry of a conversation history.
type ChatTurn struct {
	// Role is "user" or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// QueryRequest carries the fields of an answer request. Produced by the
// hosting layer (CLI, HTTP, queue consumer); consumed by the query
// service. Zero values for the optional fields mean "use configured
// defaults".
type QueryRequest struct {
	// Query is the user question. Required.
	Query string

	// Filters restricts retrieval to fragments whose metadata matches
	// every entry. Optional.
	Filters map[string]string

	// TopK overrides the configured result limit when > 0.
	TopK int

	// MinSimilarity overrides the configured threshold when > 0.
	MinSimilarity float64

	// IncludeSources controls whether the response carries the source
	// list.
	IncludeSources bool

	// Conversational enables the conversational prompt mode.
	Conversational bool

	// History is prior conversation turns, oldest first. Only used in
	// conversational mode.
	History []ChatTurn
}

// SourceRef identifies a parent document that contributed context to an
// answer, aggregated across its retrieved fragments.
type SourceRef struct {
	DocumentID string       `json:"document_id"`
	Filename   string       `json:"filename"`
	Title      string       `json:"title,omitempty"`
	Score      float64      `json:"score"`
	ChunksUsed []ChunkScore `json:"chunks_used"`
}

// ChunkScore records the similarity of one fragment of a source.
type ChunkScore struct {
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
}

// QueryResponse is the full answer payload.
type QueryResponse struct {
	Answer       string               `json:"answer"`
	Sources      []SourceRef          `json:"sources,omitempty"`
	Confidence   ConfidenceAssessment `json:"confidence"`
	ChunksUsed   int                  `json:"total_chunks_used"`
	ResponseTime float64              `json:"response_time"`
	FromCache    bool                 `json:"from_cache"`
}

// IngestRequest carries a raw document into the ingestion pipeline.
type IngestRequest struct {
	// Content is the raw file bytes.
	Content []byte

	// Filename is the original file name; its extension selects the
	// extractor.
	Filename string

	// Source describes where the document came from (path, URL, upload
	// channel). Combined with Filename it derives the document ID.
	Source string

	// Metadata is merged into every fragment's metadata.
	Metadata map[string]any
}

// IngestResult reports a completed ingestion.
type IngestResult struct {
	DocumentID    string `json:"document_id"`
	Filename      string `json:"filename"`
	FragmentCount int    `json:"fragment_count"`
}

// SanitizeQuery trims and collapses whitespace and enforces the length
// cap. Returns ErrInvalidInput for empty queries.
func SanitizeQuery(query string) (string, error) {
	query = strings.Join(strings.Fields(query), " ")
	if query == "" {
		return "", ErrInvalidInput
	}
	if len(query) > MaxQueryLength {
		query = strings.TrimSpace(query[:MaxQueryLength])
	}
	return query, nil
}
