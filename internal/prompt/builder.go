// Package prompt assembles generation prompts from retrieved context.
package prompt

import (
	"fmt"
	"strings"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/logger"
)

// Default assembly parameters.
const (
	// DefaultMaxHistoryTurns is how many trailing conversation turns
	// the conversational mode includes.
	DefaultMaxHistoryTurns = 5

	// DefaultMaxContextChars bounds the total size of the source
	// blocks. When exceeded, whole sources are dropped lowest-score
	// first; a source is never cut mid-block.
	DefaultMaxContextChars = 24000
)

// standardSystem directs the generator to answer only from the
// supplied context.
const standardSystem = `You are an expert assistant that answers questions based solely on the provided context.

Instructions:
1. Answer ONLY from the information in the context below.
2. If the context does not contain the answer, say clearly "I do not have enough information to answer that question."
3. Be concise but complete.
4. When you cite information, mention which document it comes from.
5. Keep a clear, professional tone.
6. Never invent information that is not in the context.`

// conversationalSystem keeps the exchange natural while staying bound
// to the context.
const conversationalSystem = `You are an expert conversational assistant. Keep the conversation natural while answering from the provided document context.

Your answers must be:
- Natural and conversational
- Grounded in the provided context
- Consistent with the conversation history
- Honest about missing information`

// Prompt is an assembled generation request: system instructions plus
// the user content carrying context and question.
type Prompt struct {
	System string
	User   string
}

// Option configures the builder.
type Option func(*Builder)

// WithMaxHistoryTurns sets how many history turns are kept.
func WithMaxHistoryTurns(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxHistoryTurns = n
		}
	}
}

// WithMaxContextChars sets the context size budget in characters.
func WithMaxContextChars(n int) Option {
	return func(b *Builder) {
		if n > 0 {
			b.maxContextChars = n
		}
	}
}

// Builder assembles prompts. The zero value is not usable, use New.
type Builder struct {
	maxHistoryTurns int
	maxContextChars int
}

// New creates a prompt builder.
func New(opts ...Option) *Builder {
	b := &Builder{
		maxHistoryTurns: DefaultMaxHistoryTurns,
		maxContextChars: DefaultMaxContextChars,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

// Build assembles the standard question-answering prompt: labelled
// source blocks followed by the literal question.
func (b *Builder) Build(query string, results []domain.SearchResult) Prompt {
	context := b.contextBlocks(results)

	var user strings.Builder
	user.WriteString("Context from relevant documents:\n\n")
	user.WriteString(strings.Join(context, "\n---\n"))
	user.WriteString("\n\n---\n\nUser question: ")
	user.WriteString(query)
	user.WriteString("\n\nAnswer the question using only the context provided above.")

	return Prompt{System: standardSystem, User: user.String()}
}

// BuildConversational assembles the conversational prompt, inserting
// the trailing turns of history between context and the current
// question.
func (b *Builder) BuildConversational(query string, results []domain.SearchResult, history []domain.ChatTurn) Prompt {
	context := b.contextBlocks(results)

	if len(history) > b.maxHistoryTurns {
		history = history[len(history)-b.maxHistoryTurns:]
	}

	var user strings.Builder
	user.WriteString("Relevant context:\n")
	user.WriteString(strings.Join(context, "\n\n"))

	if len(history) > 0 {
		user.WriteString("\n\nConversation history:\n")
		for _, turn := range history {
			user.WriteString(strings.ToUpper(turn.Role))
			user.WriteString(": ")
			user.WriteString(turn.Content)
			user.WriteByte('\n')
		}
	}

	user.WriteString("\nUser: ")
	user.WriteString(query)
	user.WriteString("\n\nAssistant:")

	return Prompt{System: conversationalSystem, User: user.String()}
}

// contextBlocks renders one labelled block per result, applying the
// context budget. Results arrive ordered by descending similarity, so
// enforcing the budget means keeping a prefix; the top source is always
// kept even if it alone exceeds the budget.
func (b *Builder) contextBlocks(results []domain.SearchResult) []string {
	blocks := make([]string, 0, len(results))
	total := 0

	for i, r := range results {
		block := fmt.Sprintf("[Source %d: %s (relevance: %.2f)]\n%s\n",
			i+1, sourceLabel(r), r.Similarity, r.Content)

		if i > 0 && total+len(block) > b.maxContextChars {
			logger.Debug("Context budget reached, dropping %d lowest-scored sources", len(results)-i)
			break
		}
		blocks = append(blocks, block)
		total += len(block)
	}

	return blocks
}

// sourceLabel picks the identifying metadata for a source block.
func sourceLabel(r domain.SearchResult) string {
	if name, ok := r.Metadata["filename"].(string); ok && name != "" {
		return name
	}
	if r.DocumentID != "" {
		return r.DocumentID
	}
	return "unknown document"
}
