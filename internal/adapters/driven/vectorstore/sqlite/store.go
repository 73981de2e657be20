// Package sqlite provides a SQLite-backed vector store. Embeddings are
// stored as little-endian float32 blobs and scored in process, which is
// plenty for single-machine corpora.
package sqlite

import (
	"context"
	"database/sql"
	"embed"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	_ "modernc.org/sqlite" // SQLite driver

	"github.com/atrium-labs/ragcore/internal/adapters/driven/vectorstore/sqlite/migrations"
	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
)

// Ensure Store implements the interface.
var _ driven.VectorStore = (*Store)(nil)

// Store is a SQLite-based implementation of driven.VectorStore.
type Store struct {
	db         *sql.DB
	path       string
	dimensions int
}

// NewStore creates a SQLite vector store at the specified data
// directory. If dataDir is empty, defaults to ~/.ragcore/data.
func NewStore(dataDir string, dimensions int) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".ragcore", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "index.db")

	// WAL mode for better concurrency
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("%w: opening database: %v", domain.ErrStorageUnavailable, err)
	}

	s := &Store{
		db:         db,
		path:       dbPath,
		dimensions: dimensions,
	}

	if err := s.migrate(migrations.FS); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: running migrations: %v", domain.ErrStorageUnavailable, err)
	}

	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Dimensions returns the configured embedding dimension.
func (s *Store) Dimensions() int {
	return s.dimensions
}

// UpsertBatch writes fragments one at a time so that a failure leaves
// earlier fragments committed.
func (s *Store) UpsertBatch(ctx context.Context, fragments []domain.IndexedFragment) (int, error) {
	now := time.Now().UTC()
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
			INSERT INTO fragments (id, document_id, content, chunk_index, embedding, metadata, created_at, updated_at)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(id) DO UPDATE SET
				document_id = excluded.document_id,
				content = excluded.content,
				chunk_index = excluded.chunk_index,
				embedding = excluded.embedding,
				metadata = excluded.metadata,
				updated_at = excluded.updated_at
		`, f.ID, f.DocumentID, f.Content, f.ChunkIndex,
			float32SliceToBytes(f.Embedding), string(metadataJSON), now, now)

		if err != nil {
			return persisted, fmt.Errorf("%w: saving fragment %s: %v", domain.ErrStorageUnavailable, f.ID, err)
		}
		persisted++
	}

	return persisted, nil
}

// Search scores every stored fragment by cosine similarity in process.
// SQLite has no vector index, so this is a full scan.
func (s *Store) Search(ctx context.Context, query []float32, opts domain.SearchOptions) ([]domain.SearchResult, error) {
	if len(query) != s.dimensions {
		return nil, fmt.Errorf("%w: query has %d dimensions, store expects %d",
			domain.ErrDimensionMismatch, len(query), s.dimensions)
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, document_id, content, chunk_index, embedding, metadata
		FROM fragments
	`)
	if err != nil {
		return nil, fmt.Errorf("%w: querying fragments: %v", domain.ErrStorageUnavailable, err)
	}
	defer rows.Close()

	var results []domain.SearchResult
	for rows.Next() {
		var result domain.SearchResult
		var embeddingBlob []byte
		var metadataJSON string

		if err := rows.Scan(&result.FragmentID, &result.DocumentID, &result.Content,
			&result.ChunkIndex, &embeddingBlob, &metadataJSON); err != nil {
			return nil, fmt.Errorf("scanning fragment: %w", err)
		}

		if metadataJSON != "" {
			if err := json.Unmarshal([]byte(metadataJSON), &result.Metadata); err != nil {
				return nil, fmt.Errorf("unmarshaling metadata: %w", err)
			}
		}

		if !matchesFilters(result.Metadata, opts.Filters) {
			continue
		}

		result.Similarity = domain.CosineSimilarity(query, bytesToFloat32Slice(embeddingBlob))
		if result.Similarity < opts.MinSimilarity {
			continue
		}
		results = append(results, result)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating fragments: %w", err)
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
func (s *Store) Delete(ctx context.Context, id string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		"DELETE FROM fragments WHERE id = ? OR document_id = ?", id, id)
	if err != nil {
		return 0, fmt.Errorf("%w: deleting fragments: %v", domain.ErrStorageUnavailable, err)
	}

	removed, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted fragments: %w", err)
	}
	return int(removed), nil
}

// migrate runs all pending migrations.
func (s *Store) migrate(fsys embed.FS) error {
	_, err := s.db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_migrations (
			version INTEGER PRIMARY KEY,
			applied_at DATETIME DEFAULT CURRENT_TIMESTAMP
		)
	`)
	if err != nil {
		return fmt.Errorf("creating schema_migrations table: %w", err)
	}

	var currentVersion int
	row := s.db.QueryRow("SELECT COALESCE(MAX(version), 0) FROM schema_migrations")
	if err := row.Scan(&currentVersion); err != nil {
		return fmt.Errorf("getting current version: %w", err)
	}

	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return fmt.Errorf("reading migrations directory: %w", err)
	}

	var upFiles []string
	for _, entry := range entries {
		if strings.HasSuffix(entry.Name(), ".up.sql") {
			upFiles = append(upFiles, entry.Name())
		}
	}
	sort.Strings(upFiles)

	for _, name := range upFiles {
		// "001_initial.up.sql" -> 1
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			continue
		}
		if version <= currentVersion {
			continue
		}

		content, err := fs.ReadFile(fsys, name)
		if err != nil {
			return fmt.Errorf("reading migration %s: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("executing migration %s: %w", name, err)
		}
		if _, err := s.db.Exec("INSERT INTO schema_migrations (version) VALUES (?)", version); err != nil {
			return fmt.Errorf("recording migration %s: %w", name, err)
		}
	}

	return nil
}

// float32SliceToBytes converts a []float32 to a byte slice for storage.
func float32SliceToBytes(floats []float32) []byte {
	if len(floats) == 0 {
		return nil
	}
	buf := make([]byte, len(floats)*4)
	for i, f := range floats {
		binary.LittleEndian.PutUint32(buf[i*4:], math.Float32bits(f))
	}
	return buf
}

// bytesToFloat32Slice converts a byte slice back to []float32.
func bytesToFloat32Slice(data []byte) []float32 {
	if len(data) == 0 {
		return nil
	}
	floats := make([]float32, len(data)/4)
	for i := range floats {
		floats[i] = math.Float32frombits(binary.LittleEndian.Uint32(data[i*4:]))
	}
	return floats
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
