package dataset

import (
	"sync"
	"time"
)

// cacheKey identifies one loaded artifact version. A changed modification
// time produces a new key, so stale entries are simply never hit again.
type cacheKey struct {
	path  string
	mtime int64
}

// Cache memoizes loaded datasets by (path, mtime). Reads populate it
// opportunistically; the only mutation is InvalidateAll, which clears every
// entry under the same lock readers take, so no caller ever observes a
// partially cleared cache.
type Cache struct {
	mu      sync.Mutex
	entries map[cacheKey]*Dataset
}

// NewCache creates an empty artifact cache.
func NewCache() *Cache {
	return &Cache{entries: make(map[cacheKey]*Dataset)}
}

// Get returns the cached dataset for the given path and modification time.
func (c *Cache) Get(path string, mtime time.Time) (*Dataset, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ds, ok := c.entries[cacheKey{path: path, mtime: mtime.UnixNano()}]
	return ds, ok
}

// Put stores a dataset under the given path and modification time.
func (c *Cache) Put(path string, mtime time.Time, ds *Dataset) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[cacheKey{path: path, mtime: mtime.UnixNano()}] = ds
}

// InvalidateAll atomically drops every cache entry and returns how many
// entries were removed.
func (c *Cache) InvalidateAll() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	n := len(c.entries)
	c.entries = make(map[cacheKey]*Dataset)
	return n
}

// Len returns the current number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
