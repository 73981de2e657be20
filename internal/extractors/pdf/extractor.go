// Package pdf extracts text from PDF files.
package pdf

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
	"github.com/atrium-labs/ragcore/internal/extractors/plaintext"
)

// Ensure Extractor implements the interface.
var _ driven.Extractor = (*Extractor)(nil)

// Extractor handles PDF files.
type Extractor struct{}

// New creates a PDF extractor.
func New() *Extractor {
	return &Extractor{}
}

// SupportedExtensions returns the extensions this extractor handles.
func (e *Extractor) SupportedExtensions() []string {
	return []string{"pdf"}
}

// Extract concatenates page text in page order. Document info such as
// the title is best effort: a PDF without a Title entry falls back to
// the filename.
func (e *Extractor) Extract(_ context.Context, content []byte, filename string) (*driven.ExtractResult, error) {
	if content == nil {
		return nil, domain.ErrInvalidInput
	}

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return nil, fmt.Errorf("%w: not a valid pdf", domain.ErrUnsupportedFormat)
	}

	var pages []string
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single unreadable page does not fail the document.
			continue
		}
		if text = strings.TrimSpace(text); text != "" {
			pages = append(pages, text)
		}
	}

	metadata := map[string]any{"page_count": reader.NumPage()}

	return &driven.ExtractResult{
		Text:     strings.Join(pages, "\n\n"),
		Title:    extractTitle(reader, filename),
		Metadata: metadata,
	}, nil
}

// extractTitle reads the document info Title, falling back to the
// filename.
func extractTitle(reader *pdf.Reader, filename string) string {
	if title := infoTitle(reader); title != "" {
		return title
	}
	return plaintext.TitleFromFilename(filename)
}

// infoTitle reads Info/Title from the trailer. The pdf library panics
// on malformed trailers, so this is isolated and best effort.
func infoTitle(reader *pdf.Reader) (title string) {
	defer func() {
		if recover() != nil {
			title = ""
		}
	}()

	info := reader.Trailer().Key("Info")
	if info.IsNull() {
		return ""
	}
	return strings.TrimSpace(info.Key("Title").Text())
}
