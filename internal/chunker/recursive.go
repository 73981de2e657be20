package chunker

import (
	"strings"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// separators ordered coarsest first: paragraph, line, sentence, word.
// The empty separator is the terminal hard split.
var separators = []string{"\n\n", "\n", ". ", " ", ""}

// recursiveSplitter prefers the coarsest separator that yields pieces
// no larger than chunkSize, recursing to finer separators only for
// oversized pieces, then merges adjacent pieces into chunks carrying
// overlap characters from their predecessor.
type recursiveSplitter struct {
	chunkSize int
	overlap   int
}

// piece is a contiguous span of the source text. Pieces produced by
// split are adjacent: each one ends where the next begins, so merged
// chunks cover the source with no gaps.
type piece struct {
	start, end int
}

func (s *recursiveSplitter) Split(text string) []domain.Chunk {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	pieces := s.split(text, 0, len(text), 0)
	return s.merge(text, pieces)
}

// split carves text[start:end] into pieces of at most chunkSize
// characters, trying separators from sepIdx onward.
func (s *recursiveSplitter) split(text string, start, end, sepIdx int) []piece {
	if end-start <= s.chunkSize {
		return []piece{{start: start, end: end}}
	}

	sep := separators[sepIdx]
	if sep == "" {
		// Hard split into chunkSize slices.
		var pieces []piece
		for at := start; at < end; at += s.chunkSize {
			stop := at + s.chunkSize
			if stop > end {
				stop = end
			}
			pieces = append(pieces, piece{start: at, end: stop})
		}
		return pieces
	}

	var pieces []piece
	at := start
	for at < end {
		idx := strings.Index(text[at:end], sep)
		var stop int
		if idx < 0 {
			stop = end
		} else {
			// The separator stays attached to the piece it terminates,
			// keeping pieces contiguous.
			stop = at + idx + len(sep)
		}

		if stop-at > s.chunkSize {
			pieces = append(pieces, s.split(text, at, stop, sepIdx+1)...)
		} else {
			pieces = append(pieces, piece{start: at, end: stop})
		}
		at = stop
	}
	return pieces
}

// merge greedily packs adjacent pieces into chunks of at most chunkSize
// characters. When a chunk is emitted, leading pieces are dropped until
// at most overlap characters remain; those become the start of the next
// chunk.
func (s *recursiveSplitter) merge(text string, pieces []piece) []domain.Chunk {
	var chunks []domain.Chunk
	var window []piece

	emit := func() {
		if len(window) == 0 {
			return
		}
		start := window[0].start
		end := window[len(window)-1].end
		if content := text[start:end]; strings.TrimSpace(content) != "" {
			chunks = append(chunks, domain.Chunk{
				Content:     content,
				StartOffset: start,
				EndOffset:   end,
				Index:       len(chunks),
			})
		}
	}

	for _, p := range pieces {
		if len(window) > 0 && p.end-window[0].start > s.chunkSize {
			emit()
			// Retain up to overlap characters as the head of the next
			// chunk, dropping further if the incoming piece would push
			// the chunk past chunkSize.
			tail := window[len(window)-1].end
			for len(window) > 0 &&
				(tail-window[0].start > s.overlap || p.end-window[0].start > s.chunkSize) {
				window = window[1:]
			}
		}
		window = append(window, p)
	}
	emit()

	return chunks
}
