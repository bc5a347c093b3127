package pipeline

import (
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/gork-labs/uniongen/internal/schema"
)

// entry is one memoized transform: the declaration it was computed from and
// its outcome. ok is false for declarations the extractor rejected, so a
// broken declaration is not re-validated every cycle either.
type entry struct {
	decl   schema.Declaration
	schema schema.UnionSchema
	ok     bool
}

// Cache memoizes transform results across build cycles, keyed by
// declaration ID. Entries are only replaced wholesale by a completed cycle.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]entry

	flight singleflight.Group
}

// NewCache returns an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[string]entry)}
}

// lookup returns the cached entry for decl when it was computed from an
// equal declaration.
func (c *Cache) lookup(decl schema.Declaration) (entry, bool) {
	c.mu.RLock()
	e, ok := c.entries[decl.ID]
	c.mu.RUnlock()
	if !ok || !e.decl.Equal(decl) {
		return entry{}, false
	}
	return e, true
}

// compute runs fn once per declaration ID across concurrent callers. A
// caller whose declaration differs from the one that won the flight
// computes its own result.
func (c *Cache) compute(decl schema.Declaration, fn TransformFunc) entry {
	v, _, _ := c.flight.Do(decl.ID, func() (any, error) {
		s, ok := fn(decl)
		return entry{decl: decl, schema: s, ok: ok}, nil
	})
	e := v.(entry)
	if !e.decl.Equal(decl) {
		s, ok := fn(decl)
		return entry{decl: decl, schema: s, ok: ok}
	}
	return e
}

// commit replaces the cache contents with the entries of a finished cycle.
// Declarations absent from that cycle are evicted.
func (c *Cache) commit(staged map[string]entry) {
	c.mu.Lock()
	c.entries = staged
	c.mu.Unlock()
}

// Len reports the number of cached declarations.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.commit(make(map[string]entry))
}
