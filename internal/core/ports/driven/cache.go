package driven

import "github.com/atrium-labs/ragcore/internal/core/domain"

// ResponseCache memoises full answer payloads per (query, filters)
// pair. Scoped to a single warm execution context; not shared across
// concurrent contexts without external synchronisation.
type ResponseCache interface {
	// Get returns the cached payload for the query and filter set, or
	// false on miss or expiry.
	Get(query string, filters map[string]string) (*domain.QueryResponse, bool)

	// Set stores a payload. May evict an existing entry when the cache
	// is at capacity.
	Set(query string, filters map[string]string, payload *domain.QueryResponse)

	// ShouldCache reports whether the query is eligible for caching at
	// all. Ineligible queries bypass the cache on both read and write.
	ShouldCache(query string) bool

	// Clear drops all entries.
	Clear()
}
