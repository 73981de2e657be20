// Package plaintext extracts text from plain text files.
package plaintext

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles plain text files.
type Extractor struct{}

// New creates a plain text extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{"txt", "text", "log", "csv"}
}

// Extract decodes the file bytes as UTF-8, falling back to Latin-1 for
// legacy encodings so no document is rejected for its charset.
func (e *Extractor) Extract(_ context.Context, content []byte, filename string) (*driven.ExtractResult, error) {
	if content == nil {
		return nil, domain.ErrInvalidInput
	}

	text := decode(content)

	return &driven.ExtractResult{
		Text:  text,
		Title: TitleFromFilename(filename),
	}, nil
}

// decode interprets bytes as UTF-8 when valid, Latin-1 otherwise.
func decode(content []byte) string {
	if utf8.Valid(content) {
		return string(content)
	}
	runes := make([]rune, len(content))
	for i, b := range content {
		runes[i] = rune(b)
	}
	return string(runes)
}

// TitleFromFilename derives a human-readable title from a filename.
// Shared by extractors whose format carries no title of its own.
func TitleFromFilename(filename string) string {
	name := filepath.Base(filename)
	if ext := filepath.Ext(name); ext != "" {
		name = strings.TrimSuffix(name, ext)
	}
	name = strings.ReplaceAll(name, "_", " ")
	name = strings.ReplaceAll(name, "-", " ")
	return name
}
