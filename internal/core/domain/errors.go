package domain

import "errors"

// Pipeline errors. Services wrap these with %w so callers can classify
// failures with errors.Is without parsing messages.
var (
	// ErrInvalidInput indicates malformed or missing request fields.
	// Detected before any external call is made.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedFormat indicates a file type no extractor handles.
	// Non-retryable.
	ErrUnsupportedFormat = errors.New("unsupported format")

	// ErrProvider indicates an embedding or generation backend failure.
	ErrProvider = errors.New("provider error")

	// ErrStorageUnavailable indicates the vector store is unreachable.
	// Not retried within the same request.
	ErrStorageUnavailable = errors.New("storage unavailable")

	// ErrTimeout indicates an external call exceeded its budget.
	// Kept distinct from ErrProvider so future retry logic can tell
	// them apart.
	ErrTimeout = errors.New("timeout")

	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrDimensionMismatch indicates an embedding whose length does not
	// match the store's configured dimension. This is a configuration
	// error, never silently truncated or padded.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
