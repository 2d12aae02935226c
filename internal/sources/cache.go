// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"sync"
	"time"

	"github.com/pdiddy/reference-engine/pkg/types"
)

// responseCache is a TTL- and size-bounded cache of successful provider
// responses, keyed by request signature (the full request URL). Each
// adapter owns one cache; it lives for the process lifetime.
type responseCache struct {
	mu         sync.Mutex
	ttl        time.Duration
	maxEntries int
	entries    map[string]cacheEntry
	order      []string // insertion order, oldest first
}

type cacheEntry struct {
	data    []byte
	expires time.Time
}

func newResponseCache(cfg types.CacheConfig) *responseCache {
	if cfg.TTL <= 0 {
		cfg.TTL = 10 * time.Minute
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = 256
	}
	return &responseCache{
		ttl:        cfg.TTL,
		maxEntries: cfg.MaxEntries,
		entries:    make(map[string]cacheEntry),
	}
}

// get returns the cached bytes for key, or nil when absent or expired.
func (c *responseCache) get(key string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil
	}
	if time.Now().After(e.expires) {
		delete(c.entries, key)
		c.dropOrder(key)
		return nil
	}
	return e.data
}

// dropOrder removes key from the insertion-order slice so a later put of
// the same key cannot leave a duplicate slot behind.
func (c *responseCache) dropOrder(key string) {
	for i, k := range c.order {
		if k == key {
			c.order = append(c.order[:i], c.order[i+1:]...)
			return
		}
	}
}

// put stores bytes under key, evicting the oldest entry when full.
func (c *responseCache) put(key string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, key)
	}
	c.entries[key] = cacheEntry{data: data, expires: time.Now().Add(c.ttl)}
}
