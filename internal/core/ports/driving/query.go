package driving

import (
	"context"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// QueryService answers questions from the indexed corpus.
type QueryService interface {
	// Answer runs the full query pipeline: cache check, retrieval,
	// prompt assembly, generation, confidence scoring and response
	// formatting. An empty retrieval is not an error; it yields a
	// well-formed low-confidence payload.
	Answer(ctx context.Context, req domain.QueryRequest) (*domain.QueryResponse, error)
}

// RetrievalService retrieves context fragments for a query.
type RetrievalService interface {
	// Retrieve embeds the query, searches the vector store and scores
	// the outcome. Results are ordered by descending similarity.
	Retrieve(ctx context.Context, query string, opts domain.SearchOptions) ([]domain.SearchResult, domain.ConfidenceAssessment, error)
}
