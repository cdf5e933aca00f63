package cache

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultMemoryEntries bounds a MemoryCache created with size <= 0.
const DefaultMemoryEntries = 256

// MemoryCache is an in-process cache bounded by entry count. The least
// recently used entry is evicted when the cache is full.
type MemoryCache struct {
	lru       *lru.Cache[string, memoryEntry]
	evictions atomic.Int64
}

type memoryEntry struct {
	data      []byte
	expiresAt time.Time
}

// NewMemoryCache creates a cache holding at most size entries.
func NewMemoryCache(size int) (*MemoryCache, error) {
	if size <= 0 {
		size = DefaultMemoryEntries
	}
	c := &MemoryCache{}
	l, err := lru.NewWithEvict(size, func(string, memoryEntry) {
		c.evictions.Add(1)
	})
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c.lru = l
	return c, nil
}

// Get retrieves a value from the cache.
func (c *MemoryCache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	e, ok := c.lru.Get(key)
	if !ok {
		return nil, false, nil
	}
	if !e.expiresAt.IsZero() && time.Now().After(e.expiresAt) {
		c.lru.Remove(key)
		return nil, false, nil
	}
	return e.data, true, nil
}

// Set stores a value in the cache.
func (c *MemoryCache) Set(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	e := memoryEntry{data: data}
	if ttl > 0 {
		e.expiresAt = time.Now().Add(ttl)
	}
	c.lru.Add(key, e)
	return nil
}

// Delete removes a value from the cache.
func (c *MemoryCache) Delete(ctx context.Context, key string) error {
	c.lru.Remove(key)
	return nil
}

// Len returns the number of cached entries, including expired ones not yet
// looked up.
func (c *MemoryCache) Len() int { return c.lru.Len() }

// Evictions returns how many entries have left the cache, whether to make
// room, on expiry or by Delete.
func (c *MemoryCache) Evictions() int64 { return c.evictions.Load() }

// Close empties the cache.
func (c *MemoryCache) Close() error {
	c.lru.Purge()
	return nil
}

// Ensure MemoryCache implements Cache.
var _ Cache = (*MemoryCache)(nil)
