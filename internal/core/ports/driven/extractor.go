package driven

import "context"

// Extractor converts raw file bytes of a specific format into plain
// text. Each extractor handles a set of file extensions.
type Extractor interface {
	// SupportedExtensions returns the lower-case extensions this
	// extractor handles, without the leading dot (e.g. "pdf", "md").
	SupportedExtensions() []string

	// Extract produces the plain text of the document plus any file
	// metadata worth carrying into the index (title, page count).
	// Metadata extraction is best effort: a missing PDF title falls
	// back to the filename rather than failing the ingestion.
	Extract(ctx context.Context, content []byte, filename string) (*ExtractResult, error)
}

// ExtractResult is the output of text extraction.
type ExtractResult struct {
	// Text is the extracted plain text, before normalisation.
	Text string

	// Title is the document title, or the filename when the format
	// carries none.
	Title string

	// Metadata contains format-specific fields (page_count, author).
	Metadata map[string]any
}
