package prompt

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

func result(filename, content string, score float64) domain.SearchResult {
	return domain.SearchResult{
		FragmentID: filename + "_chunk_0",
		DocumentID: "doc-" + filename,
		Content:    content,
		Similarity: score,
		Metadata:   map[string]any{"filename": filename},
	}
}

func TestBuild_StandardMode(t *testing.T) {
	b := New()

	results := []domain.SearchResult{
		result("handbook.pdf", "Employees accrue 25 days of leave.", 0.91),
		result("policy.md", "Leave requests need manager approval.", 0.78),
	}

	p := b.Build("how much leave do I get", results)

	assert.Contains(t, p.System, "ONLY from the information in the context")
	assert.Contains(t, p.System, "not enough information")

	assert.Contains(t, p.User, "[Source 1: handbook.pdf (relevance: 0.91)]")
	assert.Contains(t, p.User, "[Source 2: policy.md (relevance: 0.78)]")
	assert.Contains(t, p.User, "Employees accrue 25 days of leave.")
	assert.Contains(t, p.User, "\n---\n")
	assert.Contains(t, p.User, "User question: how much leave do I get")

	// Sources appear in score order.
	assert.Less(t,
		strings.Index(p.User, "handbook.pdf"),
		strings.Index(p.User, "policy.md"))
}

func TestBuild_FallsBackToDocumentID(t *testing.T) {
	b := New()

	r := result("x", "content", 0.8)
	r.Metadata = nil
	r.DocumentID = "doc-123"

	p := b.Build("q", []domain.SearchResult{r})
	assert.Contains(t, p.User, "[Source 1: doc-123")
}

func TestBuildConversational(t *testing.T) {
	b := New()

	results := []domain.SearchResult{
		result("notes.txt", "The project deadline is March.", 0.85),
	}
	history := []domain.ChatTurn{
		{Role: "user", Content: "tell me about the project"},
		{Role: "assistant", Content: "It is an internal migration."},
	}

	p := b.BuildConversational("when is it due", results, history)

	assert.Contains(t, p.System, "conversational")
	assert.Contains(t, p.User, "Conversation history:")
	assert.Contains(t, p.User, "USER: tell me about the project")
	assert.Contains(t, p.User, "ASSISTANT: It is an internal migration.")
	assert.Contains(t, p.User, "User: when is it due")

	// History sits between context and the current question.
	assert.Less(t,
		strings.Index(p.User, "deadline is March"),
		strings.Index(p.User, "Conversation history:"))
	assert.Less(t,
		strings.Index(p.User, "Conversation history:"),
		strings.Index(p.User, "User: when is it due"))
}

func TestBuildConversational_TruncatesHistory(t *testing.T) {
	b := New(WithMaxHistoryTurns(3))

	var history []domain.ChatTurn
	for i := 0; i < 8; i++ {
		history = append(history, domain.ChatTurn{
			Role:    "user",
			Content: fmt.Sprintf("turn %d", i),
		})
	}

	p := b.BuildConversational("q", nil, history)

	// Only the trailing three turns survive.
	assert.NotContains(t, p.User, "turn 4")
	assert.Contains(t, p.User, "turn 5")
	assert.Contains(t, p.User, "turn 6")
	assert.Contains(t, p.User, "turn 7")
}

func TestBuildConversational_NoHistory(t *testing.T) {
	b := New()
	p := b.BuildConversational("q", []domain.SearchResult{result("a.txt", "c", 0.9)}, nil)
	assert.NotContains(t, p.User, "Conversation history:")
}

func TestContextBudget_DropsLowestScoredFirst(t *testing.T) {
	// Each block is ~120 characters; a 300-char budget keeps two.
	b := New(WithMaxContextChars(300))

	results := []domain.SearchResult{
		result("first.txt", strings.Repeat("a", 80), 0.9),
		result("second.txt", strings.Repeat("b", 80), 0.8),
		result("third.txt", strings.Repeat("c", 80), 0.7),
	}

	p := b.Build("q", results)

	assert.Contains(t, p.User, "first.txt")
	assert.Contains(t, p.User, strings.Repeat("a", 80), "kept sources are intact, never truncated")
	assert.Contains(t, p.User, "second.txt")
	assert.NotContains(t, p.User, "third.txt")
}

func TestContextBudget_TopSourceAlwaysKept(t *testing.T) {
	b := New(WithMaxContextChars(50))

	results := []domain.SearchResult{
		result("big.txt", strings.Repeat("x", 500), 0.95),
	}

	p := b.Build("q", results)
	require.Contains(t, p.User, "big.txt")
	assert.Contains(t, p.User, strings.Repeat("x", 500))
}
