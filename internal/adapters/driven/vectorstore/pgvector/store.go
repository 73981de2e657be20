// Package pgvector provides a PostgreSQL-backed vector store using the
// pgvector extension. Similarity is computed by the database, so this
// backend scales past what the in-process scanners can handle.
package pgvector

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib" // PostgreSQL driver

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a pgvector-based implementation of driven.VectorStore.
type Store struct {
	db         *sql.DB
	dimensions int
}

// NewStore connects to PostgreSQL and ensures the schema exists. The
// dimensions parameter fixes the width of the vector column.
func NewStore(ctx context.Context, dsn string, dimensions int) (*Store, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrStorageUnavailable, err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: pinging database: %v", domain.ErrStorageUnavailable, err)
	}

	s := &Store{db: db, dimensions: dimensions}
	if err := s.migrate(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %v", domain.ErrStorageUnavailable, err)
	}

	return s, nil
}

func (s *Store) migrate(ctx context.Context) error {
	statements := []string{
		`CREATE EXTENSION IF NOT EXISTS vector`,
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS fragments (
			id TEXT PRIMARY KEY,
			document_id TEXT NOT NULL,
			content TEXT NOT NULL,
			chunk_index INTEGER NOT NULL,
			embedding vector(%d) NOT NULL,
			metadata JSONB NOT NULL DEFAULT '{}',
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`, s.dimensions),
		`CREATE INDEX IF NOT EXISTS idx_fragments_document_id ON fragments (document_id)`,
		`CREATE INDEX IF NOT EXISTS idx_fragments_embedding ON fragments USING hnsw (embedding vector_cosine_ops)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing migration: %w", err)
		}
	}
	return nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Dimensions returns the configured embedding dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// UpsertBatch writes fragments one at a time so that a failure leaves
// earlier fragments committed.
func (s *Store) UpsertBatch(ctx context.Context, fragments []domain.IndexedFragment) (int, error) {
	persisted := 0
	for _, f := range fragments {
		if len(f.Embedding) != s.dimensions {
			return persisted, fmt.Errorf("%w: fragment %s has %d dimensions, store expects %d",
				domain.ErrDimensionMismatch, f.ID, len(f.Embedding), s.dimensions)
		}

		metadataJSON, err := json.Marshal(f.Metadata)
		if err != nil {
			return persisted, fmt.Errorf("marshalling metadata: %w", err)
		}

		_, err = s.db.ExecContext(ctx, `
			INSERT INTO fragments (id, document_id, content, chunk_index, embedding, metadata)
			VALUES ($1, $2, $3, $4, $5, $6)
			ON CONFLICT (id) DO UPDATE SET
				document_id = EXCLUDED.document_id,
				content = EXCLUDED.content,
				chunk_index = EXCLUDED.chunk_index,
				embedding = EXCLUDED.embedding,
				metadata = EXCLUDED.metadata,
				updated_at = NOW()
		`, f.ID, f.DocumentID, f.Content, f.ChunkIndex,
			formatVector(f.Embedding), string(metadataJSON))

		if err != nil {
			return persisted, fmt.Errorf("%w: saving fragment %s: %v", domain.ErrStorageUnavailable, f.ID, err)
		}
		persisted++
	}
	return persisted, nil
}

// Search lets PostgreSQL order by cosine distance, pushing the
// similarity floor and metadata filters into the query.
func (s *Store) Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			domain.ErrDimensionMismatch, len(query), s.dimensions)
	}

	querySQL, args, err := buildSearchQuery(query, opts)
	if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, querySQL, args...)
	if err != nil {
		return nil, fmt.Errorf("%w: querying fragments: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var result domain.SearchResult
		var metadataJSON []byte

		if err := rows.Scan(&result.FragmentID, &result.DocumentID, &result.Content,
			&result.ChunkIndex, &metadataJSON, &result.Similarity); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}

		if len(metadataJSON) > 0 {
			if err := json.Unmarshal(metadataJSON, &result.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fragments: %w", err)
	}
	return results, nil
}

// buildSearchQuery assembles the similarity query. Filters become JSONB
// containment predicates; the similarity floor is applied to the cosine
// score; ties are broken by fragment ID.
func buildSearchQuery(query []float32, opts domain.SearchOptions) (string, []any, error) {
	var b strings.Builder
	args := []any{formatVector(query)}

	b.WriteString(`
		SELECT id, document_id, content, chunk_index, metadata,
			1 - (embedding <=> $1) AS similarity
		FROM fragments
		WHERE 1 - (embedding <=> $1) >= $2`)
	args = append(args, opts.MinSimilarity)

	if len(opts.Filters) > 0 {
		filter := make(map[string]string, len(opts.Filters))
		for k, v := range opts.Filters {
			filter[k] = v
		}
		filterJSON, err := json.Marshal(filter)
		if err != nil {
			return "", nil, fmt.Errorf("marshalling filters: %w", err)
		}
		args = append(args, string(filterJSON))
		fmt.Fprintf(&b, " AND metadata @> $%d::jsonb", len(args))
	}

	b.WriteString(" ORDER BY embedding <=> $1, id")

	topK := opts.TopK
	if topK <= 0 {
		topK = 10
	}
	args = append(args, topK)
	fmt.Fprintf(&b, " LIMIT $%d", len(args))

	return b.String(), args, nil
}

// Delete removes every fragment whose ID or document ID matches.
func (s *Store) Delete(ctx context.Context, id string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM fragments WHERE id = $1 OR document_id = $1", id)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting fragments: %v", domain.ErrStorageUnavailable, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted fragments: %w", err)
	}
	return int(removed), nil
}

// formatVector converts a float32 slice to pgvector input format:
// "[0.1,0.2,0.3]".
func formatVector(embedding []float32) string {
	parts := make([]string, len(embedding))
	for i, v := range embedding {
		parts[i] = strconv.FormatFloat(float64(v), 'g', -1, 32)
	}
	return "[" + strings.Join(parts, ",") + "]"
}
