package cli

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// stubQuery answers every question with a canned response.
type stubQuery struct {
	resp     *domain.QueryResponse
	err      error
	requests []domain.QueryRequest
}

func (s *stubQuery) Answer(_ context.Context, req domain.QueryRequest) (*domain.QueryResponse, error) {
	s.requests = append(s.requests, req)
	if s.err != nil {
		return nil, s.err
	}
	return s.resp, nil
}

// stubIngest records ingest and delete calls.
type stubIngest struct {
	ingested []domain.IngestRequest
	deleted  []string
	removed  int
	err      error
}

func (s *stubIngest) Ingest(_ context.Context, req domain.IngestRequest) (*domain.IngestResult, error) {
	s.ingested = append(s.ingested, req)
	if s.err != nil {
		return nil, s.err
	}
	return &domain.IngestResult{
		DocumentID:    "doc-1",
		Filename:      req.Filename,
		FragmentCount: 3,
	}, nil
}

func (s *stubIngest) Delete(_ context.Context, id string) (int, error) {
	s.deleted = append(s.deleted, id)
	return s.removed, s.err
}

// setupTestServices injects stubs so commands skip the real wiring, and
// restores the globals afterwards.
func setupTestServices(t *testing.T, query *stubQuery, ingest *stubIngest) {
	t.Helper()
	prevQuery, prevIngest := queryService, ingestService
	queryService, ingestService = query, ingest
	t.Cleanup(func() {
		queryService, ingestService = prevQuery, prevIngest
	})
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, stdin io.Reader, args ...string) (string, error) {
	t.Helper()

	// Command flags are package globals; reset between runs.
	queryTopK = 0
	queryMinSimilarity = 0
	queryFilters = nil
	queryJSON = false
	queryNoSources = false
	ingestSource = "local"
	ingestMeta = nil

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	if stdin != nil {
		rootCmd.SetIn(stdin)
	}
	rootCmd.SetArgs(args)

	err := rootCmd.Execute()
	return out.String(), err
}

func testResponse() *domain.QueryResponse {
	return &domain.QueryResponse{
		Answer: "Cats sleep a lot.",
		Sources: []domain.SourceRef{
			{DocumentID: "doc-1", Filename: "cats.md", Score: 0.91,
				ChunksUsed: []domain.ChunkScore{{ChunkIndex: 0, Score: 0.91}}},
		},
		Confidence: domain.ConfidenceAssessment{
			Level:           domain.ConfidenceHigh,
			MaxSimilarity:   0.91,
			AvgSimilarity:   0.88,
			ChunksRetrieved: 1,
		},
		ChunksUsed:   1,
		ResponseTime: 0.42,
	}
}

func TestQueryCommand(t *testing.T) {
	query := &stubQuery{resp: testResponse()}
	setupTestServices(t, query, &stubIngest{})

	out, err := execute(t, nil, "query", "how much do cats sleep?")
	require.NoError(t, err)

	assert.Contains(t, out, "Cats sleep a lot.")
	assert.Contains(t, out, "Confidence: high")
	assert.Contains(t, out, "cats.md")

	require.Len(t, query.requests, 1)
	assert.Equal(t, "how much do cats sleep?", query.requests[0].Query)
	assert.True(t, query.requests[0].IncludeSources)
}

func TestQueryCommand_Flags(t *testing.T) {
	query := &stubQuery{resp: testResponse()}
	setupTestServices(t, query, &stubIngest{})

	_, err := execute(t, nil, "query", "cats",
		"--top-k", "3",
		"--min-similarity", "0.8",
		"--filter", "source=wiki",
		"--no-sources",
	)
	require.NoError(t, err)

	require.Len(t, query.requests, 1)
	req := query.requests[0]
	assert.Equal(t, 3, req.TopK)
	assert.InDelta(t, 0.8, req.MinSimilarity, 1e-9)
	assert.Equal(t, map[string]string{"source": "wiki"}, req.Filters)
	assert.False(t, req.IncludeSources)
}

func TestQueryCommand_JSON(t *testing.T) {
	setupTestServices(t, &stubQuery{resp: testResponse()}, &stubIngest{})

	out, err := execute(t, nil, "query", "cats", "--json")
	require.NoError(t, err)

	assert.Contains(t, out, `"answer": "Cats sleep a lot."`)
	assert.Contains(t, out, `"level": "high"`)
}

func TestQueryCommand_InvalidFilter(t *testing.T) {
	setupTestServices(t, &stubQuery{resp: testResponse()}, &stubIngest{})

	_, err := execute(t, nil, "query", "cats", "--filter", "nokey")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "expected key=value")
}

func TestQueryCommand_FromCache(t *testing.T) {
	resp := testResponse()
	resp.FromCache = true
	setupTestServices(t, &stubQuery{resp: resp}, &stubIngest{})

	out, err := execute(t, nil, "query", "cats")
	require.NoError(t, err)
	assert.Contains(t, out, "cached")
}

func TestIngestCommand(t *testing.T) {
	ingest := &stubIngest{}
	setupTestServices(t, &stubQuery{}, ingest)

	path := filepath.Join(t.TempDir(), "note.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0644))

	out, err := execute(t, nil, "ingest", path, "--source", "wiki", "--meta", "lang=en")
	require.NoError(t, err)
	assert.Contains(t, out, "indexed note.txt: 3 fragments")

	require.Len(t, ingest.ingested, 1)
	req := ingest.ingested[0]
	assert.Equal(t, "note.txt", req.Filename)
	assert.Equal(t, "wiki", req.Source)
	assert.Equal(t, []byte("hello"), req.Content)
	assert.Equal(t, map[string]any{"lang": "en"}, req.Metadata)
}

func TestIngestCommand_MissingFile(t *testing.T) {
	ingest := &stubIngest{}
	setupTestServices(t, &stubQuery{}, ingest)

	_, err := execute(t, nil, "ingest", filepath.Join(t.TempDir(), "missing.txt"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 1 files failed")
	assert.Empty(t, ingest.ingested)
}

func TestDeleteCommand(t *testing.T) {
	ingest := &stubIngest{removed: 4}
	setupTestServices(t, &stubQuery{}, ingest)

	out, err := execute(t, nil, "delete", "doc-1")
	require.NoError(t, err)
	assert.Contains(t, out, "removed 4 fragments")
	assert.Equal(t, []string{"doc-1"}, ingest.deleted)
}

func TestDeleteCommand_NoMatch(t *testing.T) {
	setupTestServices(t, &stubQuery{}, &stubIngest{removed: 0})

	out, err := execute(t, nil, "delete", "ghost")
	require.NoError(t, err)
	assert.Contains(t, out, "nothing matched ghost")
}

func TestChatCommand(t *testing.T) {
	query := &stubQuery{resp: testResponse()}
	setupTestServices(t, query, &stubIngest{})

	stdin := strings.NewReader("do cats dream?\nand dogs?\nexit\n")
	out, err := execute(t, stdin, "chat")
	require.NoError(t, err)

	assert.Contains(t, out, "Cats sleep a lot.")
	require.Len(t, query.requests, 2)

	first, second := query.requests[0], query.requests[1]
	assert.True(t, first.Conversational)
	assert.Empty(t, first.History)

	// The second turn carries the first exchange as history.
	require.Len(t, second.History, 2)
	assert.Equal(t, domain.ChatTurn{Role: "user", Content: "do cats dream?"}, second.History[0])
	assert.Equal(t, domain.ChatTurn{Role: "assistant", Content: "Cats sleep a lot."}, second.History[1])
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, nil, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "ragcore version")
}

func TestParseFilters(t *testing.T) {
	tests := []struct {
		name    string
		pairs   []string
		want    map[string]string
		wantErr bool
	}{
		{name: "empty", pairs: nil, want: nil},
		{name: "single", pairs: []string{"source=wiki"}, want: map[string]string{"source": "wiki"}},
		{name: "value with equals", pairs: []string{"url=https://a?b=c"}, want: map[string]string{"url": "https://a?b=c"}},
		{name: "missing value", pairs: []string{"source"}, wantErr: true},
		{name: "empty key", pairs: []string{"=wiki"}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseFilters(tt.pairs)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
