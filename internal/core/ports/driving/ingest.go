package driving

import (
	"context"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// IngestService drives document ingestion and removal.
type IngestService interface {
	// Ingest extracts, chunks, embeds and indexes one document.
	// Fail-fast: an embedding failure aborts the whole document and
	// leaves nothing of it indexed.
	Ingest(ctx context.Context, req domain.IngestRequest) (*domain.IngestResult, error)

	// Delete removes all fragments of a document (or a single fragment
	// when given a fragment ID). Returns the number removed.
	Delete(ctx context.Context, id string) (int, error)
}
