// Package extractors selects a text extraction collaborator by file
// type. Each format lives in its own subpackage; the registry maps
// file extensions to the extractor that handles them.
package extractors

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
	"github.com/atrium-labs/ragcore/internal/extractors/docx"
	"github.com/atrium-labs/ragcore/internal/extractors/html"
	"github.com/atrium-labs/ragcore/internal/extractors/markdown"
	"github.com/atrium-labs/ragcore/internal/extractors/pdf"
	"github.com/atrium-labs/ragcore/internal/extractors/plaintext"
)

// Registry resolves extractors by filename extension.
type Registry struct {
	byExt map[string]driven.Extractor
}

// NewRegistry builds a registry from the given extractors. Later
// extractors win extension conflicts.
func NewRegistry(extractors ...driven.Extractor) *Registry {
	r := &Registry{byExt: make(map[string]driven.Extractor)}
	for _, e := range extractors {
		for _, ext := range e.SupportedExtensions() {
			r.byExt[strings.ToLower(ext)] = e
		}
	}
	return r
}

// Defaults returns a registry with every built-in extractor.
func Defaults() *Registry {
	return NewRegistry(
		plaintext.New(),
		markdown.New(),
		html.New(),
		docx.New(),
		pdf.New(),
	)
}

// ForFilename returns the extractor for the file's extension, or a
// domain.ErrUnsupportedFormat error when none is registered.
func (r *Registry) ForFilename(filename string) (driven.Extractor, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
	if ext == "" {
		return nil, fmt.Errorf("%w: %q has no extension", domain.ErrUnsupportedFormat, filename)
	}
	e, ok := r.byExt[ext]
	if !ok {
		return nil, fmt.Errorf("%w: .%s", domain.ErrUnsupportedFormat, ext)
	}
	return e, nil
}

// SupportedExtensions lists every registered extension, for error
// messages and CLI help.
func (r *Registry) SupportedExtensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	return exts
}
