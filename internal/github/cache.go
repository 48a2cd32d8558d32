package github

import (
	"context"
	"sync"

	"github.com/capralifecycle/cals/internal/respcache"
)

// Cache stores conditional-request state per URL. *respcache.Store
// satisfies it; NewMemoryCache is used when the on-disk cache is disabled.
type Cache interface {
	Get(ctx context.Context, url string) (respcache.Entry, bool, error)
	Put(ctx context.Context, url string, e respcache.Entry) error
}

// MemoryCache is a Cache that lives for the duration of the process.
type MemoryCache struct {
	mu      sync.Mutex
	entries map[string]respcache.Entry
}

// NewMemoryCache returns an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]respcache.Entry)}
}

// Get returns the entry for url.
func (c *MemoryCache) Get(_ context.Context, url string) (respcache.Entry, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[url]

	return e, ok, nil
}

// Put stores the entry for url.
func (c *MemoryCache) Put(_ context.Context, url string, e respcache.Entry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[url] = e

	return nil
}
