// Package cache implements the bounded, process-wide tile cache (spec §5):
// decompressed tiles keyed by (fragment, attribute, tile id), admitted and
// evicted by their decompressed byte size rather than by entry count, since
// tile sizes vary widely across attributes and compression types.
package cache

import (
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Key identifies one decompressed tile within the cache.
type Key struct {
	FragmentID string
	Attribute  string
	TileID     uint64
}

// entry pairs the cached bytes with the size charged against the cache's
// byte budget, so eviction accounting stays correct even if callers mutate
// their own copy of the returned slice.
type entry struct {
	data []byte
	size int64
}

// TileCache bounds total resident bytes rather than entry count. It wraps an
// lru.Cache sized generously on entry count (the entry-count eviction policy
// from golang-lru is repurposed as the recency tracker; the byte budget is
// enforced on top by evicting the LRU tail until usage fits).
type TileCache struct {
	mu       sync.Mutex
	inner    *lru.Cache[Key, entry]
	maxBytes int64
	used     int64

	hits   atomic.Int64
	misses atomic.Int64
}

// New creates a TileCache that admits tiles until the sum of their
// decompressed sizes reaches maxBytes, then evicts least-recently-used
// tiles to make room.
func New(maxBytes int64) *TileCache {
	// The entry-count cap only needs to be large enough that the LRU list
	// never truncates before the byte budget does; there is no fixed tile
	// count in the domain, so size generously.
	inner, _ := lru.New[Key, entry](1 << 20)

	return &TileCache{inner: inner, maxBytes: maxBytes}
}

// Get returns the cached tile bytes for key, if resident.
func (c *TileCache) Get(key Key) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.inner.Get(key)
	if !ok {
		c.misses.Add(1)
		return nil, false
	}

	c.hits.Add(1)

	return e.data, true
}

// Put admits data under key, evicting least-recently-used entries until the
// cache's byte budget is satisfied. A single tile larger than maxBytes is
// not admitted.
func (c *TileCache) Put(key Key, data []byte) {
	size := int64(len(data))
	if size > c.maxBytes {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.inner.Peek(key); ok {
		c.used -= old.size
		c.inner.Remove(key)
	}

	for c.used+size > c.maxBytes {
		_, old, ok := c.inner.RemoveOldest()
		if !ok {
			break
		}

		c.used -= old.size
	}

	c.inner.Add(key, entry{data: data, size: size})
	c.used += size
}

// Remove evicts key, if present, freeing its charged bytes.
func (c *TileCache) Remove(key Key) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if old, ok := c.inner.Peek(key); ok {
		c.used -= old.size
		c.inner.Remove(key)
	}
}

// RemoveFragment evicts every tile belonging to fragmentID, used when a
// fragment is consolidated away or dropped (spec §9).
func (c *TileCache) RemoveFragment(fragmentID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, key := range c.inner.Keys() {
		if key.FragmentID != fragmentID {
			continue
		}

		if old, ok := c.inner.Peek(key); ok {
			c.used -= old.size
			c.inner.Remove(key)
		}
	}
}

// Stats reports cumulative hit/miss counters and current resident bytes.
type Stats struct {
	Hits       int64
	Misses     int64
	UsedBytes  int64
	EntryCount int
}

// Stats returns a snapshot of the cache's counters.
func (c *TileCache) Stats() Stats {
	c.mu.Lock()
	defer c.mu.Unlock()

	return Stats{
		Hits:       c.hits.Load(),
		Misses:     c.misses.Load(),
		UsedBytes:  c.used,
		EntryCount: c.inner.Len(),
	}
}
