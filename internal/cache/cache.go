// Package cache provides the in-memory response cache for answered
// queries. Entries expire lazily on read after a TTL, and capacity
// overflow evicts the entry with the fewest recorded hits.
//
// The cache is scoped to one warm execution context. It is safe for
// sequential reuse across requests in that context; it is not a
// distributed cache.
package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/atrium-labs/ragcore/internal/core/domain"
	"github.com/atrium-labs/ragcore/internal/core/ports/driven"
)

// Ensure ResponseCache implements the interface.
var _ driven.ResponseCache = (*ResponseCache)(nil)

// Default cache parameters.
const (
	DefaultMaxSize        = 100
	DefaultTTL            = 30 * time.Minute
	DefaultMinQueryLength = 10
)

// DefaultTemporalKeywords lists query terms that make an answer
// time-sensitive and therefore uncacheable. The deployment this
// pipeline grew out of served Spanish-language corpora, so both
// languages are covered by default.
var DefaultTemporalKeywords = []string{
	"hoy", "ahora", "actual", "último", "ultima", "reciente",
	"today", "now", "current", "latest", "recent",
}

// entry is one cached payload with its bookkeeping.
type entry struct {
	payload   *domain.QueryResponse
	createdAt time.Time
	hits      int
}

// Option configures the cache.
type Option func(*ResponseCache)

// WithMaxSize sets the entry capacity.
func WithMaxSize(n int) Option {
	return func(c *ResponseCache) {
		if n > 0 {
			c.maxSize = n
		}
	}
}

// WithTTL sets the entry lifetime.
func WithTTL(d time.Duration) Option {
	return func(c *ResponseCache) {
		if d > 0 {
			c.ttl = d
		}
	}
}

// WithMinQueryLength sets the minimum query length for cacheability.
func WithMinQueryLength(n int) Option {
	return func(c *ResponseCache) {
		if n >= 0 {
			c.minQueryLen = n
		}
	}
}

// WithTemporalKeywords replaces the temporal keyword list.
func WithTemporalKeywords(keywords []string) Option {
	return func(c *ResponseCache) {
		c.temporal = keywords
	}
}

// withClock overrides the time source. Test hook.
func withClock(now func() time.Time) Option {
	return func(c *ResponseCache) {
		c.now = now
	}
}

// ResponseCache memoises (query, filters) -> answer payload.
type ResponseCache struct {
	mu          sync.Mutex
	entries     map[string]*entry
	maxSize     int
	ttl         time.Duration
	minQueryLen int
	temporal    []string
	now         func() time.Time
}

// New creates a response cache with the given options.
func New(opts ...Option) *ResponseCache {
	c := &ResponseCache{
		entries:     make(map[string]*entry),
		maxSize:     DefaultMaxSize,
		ttl:         DefaultTTL,
		minQueryLen: DefaultMinQueryLength,
		temporal:    DefaultTemporalKeywords,
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Get returns the cached payload for the query and filter set. Expired
// entries are removed on the way out; there is no background sweep.
func (c *ResponseCache) Get(query string, filters map[string]string) (*domain.QueryResponse, bool) {
	if !c.ShouldCache(query) {
		return nil, false
	}
	key := cacheKey(query, filters)

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.now().Sub(e.createdAt) >= c.ttl {
		delete(c.entries, key)
		return nil, false
	}

	e.hits++
	return e.payload, true
}

// Set stores a payload, evicting the least-hit entry when at capacity.
func (c *ResponseCache) Set(query string, filters map[string]string, payload *domain.QueryResponse) {
	if !c.ShouldCache(query) {
		return
	}
	key := cacheKey(query, filters)

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLeastHit()
	}

	c.entries[key] = &entry{
		payload:   payload,
		createdAt: c.now(),
	}
}

// ShouldCache reports whether a query is eligible for caching. Very
// short queries and queries containing temporal keywords always bypass
// the cache, on both read and write.
func (c *ResponseCache) ShouldCache(query string) bool {
	if len(query) < c.minQueryLen {
		return false
	}
	lower := strings.ToLower(query)
	for _, kw := range c.temporal {
		if strings.Contains(lower, kw) {
			return false
		}
	}
	return true
}

// Clear drops all entries.
func (c *ResponseCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]*entry)
}

// Stats reports cache occupancy and accumulated hits.
func (c *ResponseCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	total := 0
	for _, e := range c.entries {
		total += e.hits
	}
	return Stats{
		Size:      len(c.entries),
		MaxSize:   c.maxSize,
		TotalHits: total,
		TTL:       c.ttl,
	}
}

// Stats describes the cache state.
type Stats struct {
	Size      int
	MaxSize   int
	TotalHits int
	TTL       time.Duration
}

// evictLeastHit removes the entry with the fewest hits. Ties are broken
// arbitrarily. Caller holds the lock.
func (c *ResponseCache) evictLeastHit() {
	var victim string
	minHits := -1
	for key, e := range c.entries {
		if minHits < 0 || e.hits < minHits {
			victim = key
			minHits = e.hits
		}
	}
	if victim != "" {
		delete(c.entries, victim)
	}
}

// cacheKey derives a deterministic key from the normalised query and
// the canonicalised filter set (stable key order).
func cacheKey(query string, filters map[string]string) string {
	var b strings.Builder
	b.WriteString(strings.Join(strings.Fields(query), " "))
	b.WriteByte(':')

	keys := make([]string, 0, len(filters))
	for k := range filters {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(filters[k])
		b.WriteByte(';')
	}

	sum := sha256.Sum256([]byte(b.String()))
	return hex.EncodeToString(sum[:])
}
