package override

import (
	"sync"

	"typeweave/internal/meta"
)

type queryOp uint8

const (
	opMostDerivedVirtual queryOp = iota + 1
	opMostDerivedOverride
)

type cacheKey struct {
	provider meta.Provider
	op       queryOp
	start    meta.TypeID
	shape    string
	def      meta.MethodID
}

// Cache memoizes resolver queries across build sessions. Only results
// computed over frozen providers are stored. A single mutex guards both the
// lookup and the fill, so concurrent sessions never compute the same entry
// twice.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]meta.MethodID
	hits    uint64
	misses  uint64
}

// DefaultCache is the process-wide cache used by resolvers created without one.
var DefaultCache = NewCache()

// NewCache creates an empty cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]meta.MethodID, 64)}
}

func cacheable(p meta.Provider) bool {
	f, ok := p.(meta.Freezable)
	return ok && f.Frozen()
}

// lookupOrFill returns the memoized value for key or computes and stores it.
func (c *Cache) lookupOrFill(key cacheKey, compute func() meta.MethodID) meta.MethodID {
	if c == nil || !cacheable(key.provider) {
		return compute()
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if v, ok := c.entries[key]; ok {
		c.hits++
		return v
	}
	c.misses++
	v := compute()
	c.entries[key] = v
	return v
}

// Len reports the number of memoized entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats reports cache hits and misses since the last Reset.
func (c *Cache) Stats() (hits, misses uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}

// Reset drops every entry.
func (c *Cache) Reset() {
	c.mu.Lock()
	c.entries = make(map[cacheKey]meta.MethodID, 64)
	c.hits, c.misses = 0, 0
	c.mu.Unlock()
}
