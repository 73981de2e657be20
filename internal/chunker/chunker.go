// Package chunker splits normalised document text into overlapping
// chunks sized for embedding.
//
// Two strategies are available behind the Splitter interface: the
// recursive splitter prefers paragraph, then sentence, then word
// boundaries; the fixed-window splitter advances a character window and
// retracts to the last space. The strategy is selected by configuration
// at startup, not by runtime fallback.
package chunker

import (
	"fmt"

	"github.com/atrium-labs/ragcore/internal/core/domain"
)

// Default chunking parameters.
const (
	DefaultChunkSize = 800
	DefaultOverlap   = 100
)

// Strategy names accepted by New.
const (
	StrategyRecursive = "recursive"
	StrategyWindow    = "window"
)

// Splitter splits normalised text into ordered, overlapping chunks.
// Offsets in the returned chunks are byte positions into the input.
type Splitter interface {
	Split(text string) []domain.Chunk
}

// New creates a Splitter for the named strategy. A zero chunkSize or a
// negative overlap selects the default. Overlap must be smaller than
// the chunk size.
func New(strategy string, chunkSize, overlap int) (Splitter, error) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = DefaultOverlap
	}
	if overlap >= chunkSize {
		return nil, fmt.Errorf("%w: overlap %d must be smaller than chunk size %d",
			domain.ErrInvalidInput, overlap, chunkSize)
	}

	switch strategy {
	case "", StrategyRecursive:
		return &recursiveSplitter{chunkSize: chunkSize, overlap: overlap}, nil
	case StrategyWindow:
		return &windowSplitter{chunkSize: chunkSize, overlap: overlap}, nil
	default:
		return nil, fmt.Errorf("%w: unknown chunking strategy %q", domain.ErrInvalidInput, strategy)
	}
}
