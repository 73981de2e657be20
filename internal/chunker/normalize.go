package chunker

import (
	"regexp"
	"strings"
)

// Pre-compiled expressions for text normalisation.
var (
	spaceRuns     = regexp.MustCompile(`[ \t\r\f\v]+`)
	spacedBreaks  = regexp.MustCompile(` ?\n ?`)
	multiNewlines = regexp.MustCompile(`\n{3,}`)
)

// Normalize prepares raw extracted text for chunking: runs of
// horizontal whitespace collapse to a single space, runs of blank lines
// collapse to exactly one blank line, and leading/trailing whitespace
// is trimmed. The function is pure and idempotent.
func Normalize(text string) string {
	text = spaceRuns.ReplaceAllString(text, " ")
	text = spacedBreaks.ReplaceAllString(text, "\n")
	text = multiNewlines.ReplaceAllString(text, "\n\n")
	return strings.TrimSpace(text)
}
