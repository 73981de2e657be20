package chunker

import (
	"strings"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// windowSplitter is the greedy fixed-window strategy. It advances a
// window of chunkSize characters, retracting the window end to the last
// space so words are not split, and starts the next window overlap
// characters before the previous end.
type windowSplitter struct {
	chunkSize int
	overlap   int
}

func (s *windowSplitter) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}

	var chunks []domain.Chunk
	start := 0

	for start < len(text) {
		end := start + s.chunkSize
		if end >= len(text) {
			end = len(text)
		} else {
			// Retract to the last space inside the window so the cut
			// does not fall mid-word.
			if cut := strings.LastIndexByte(text[start:end], ' '); cut > 0 {
				end = start + cut
			}
		}

		if content := text[start:end]; strings.TrimSpace(content) != "" {
			chunks = append(chunks, domain.Chunk{
				Content:     content,
				StartOffset: start,
				EndOffset:   end,
				Index:       len(chunks),
			})
		}

		if end >= len(text) {
			break
		}
		next := end - s.overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}
