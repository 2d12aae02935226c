// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"testing"
	"time"

	"github.com/pdiddy/reference-engine/pkg/types"
)

func TestCacheReturnsStoredEntry(t *testing.T) {
	c := newResponseCache(types.CacheConfig{TTL: time.Minute, MaxEntries: 4})
	c.put("a", []byte("alpha"))
	if got := c.get("a"); string(got) != "alpha" {
		t.Errorf("get(a) = %q, want alpha", got)
	}
	if got := c.get("missing"); got != nil {
		t.Errorf("get(missing) = %q, want nil", got)
	}
}

func TestCacheExpiresByTTL(t *testing.T) {
	c := newResponseCache(types.CacheConfig{TTL: 10 * time.Millisecond, MaxEntries: 4})
	c.put("a", []byte("alpha"))
	time.Sleep(20 * time.Millisecond)
	if got := c.get("a"); got != nil {
		t.Errorf("get(a) after TTL = %q, want nil", got)
	}
}

func TestCacheEvictsOldestWhenFull(t *testing.T) {
	c := newResponseCache(types.CacheConfig{TTL: time.Minute, MaxEntries: 2})
	c.put("a", []byte("1"))
	c.put("b", []byte("2"))
	c.put("c", []byte("3"))

	if got := c.get("a"); got != nil {
		t.Errorf("oldest entry survived eviction: %q", got)
	}
	if got := c.get("b"); string(got) != "2" {
		t.Errorf("get(b) = %q, want 2", got)
	}
	if got := c.get("c"); string(got) != "3" {
		t.Errorf("get(c) = %q, want 3", got)
	}
}

func TestCacheRewriteAfterExpiryKeepsOrderClean(t *testing.T) {
	c := newResponseCache(types.CacheConfig{TTL: 10 * time.Millisecond, MaxEntries: 2})
	c.put("a", []byte("1"))
	time.Sleep(20 * time.Millisecond)
	if got := c.get("a"); got != nil {
		t.Fatalf("get(a) after TTL = %q, want nil", got)
	}

	// A stale "a" slot left at the front of the order would make the next
	// eviction drop the rewritten "a" instead of the older "b".
	c.ttl = time.Minute
	c.put("b", []byte("2"))
	c.put("a", []byte("fresh"))
	c.put("c", []byte("3"))

	if got := c.get("a"); string(got) != "fresh" {
		t.Errorf("get(a) = %q, want fresh", got)
	}
	if got := c.get("b"); got != nil {
		t.Errorf("get(b) = %q, want nil after eviction", got)
	}
	if got := c.get("c"); string(got) != "3" {
		t.Errorf("get(c) = %q, want 3", got)
	}
}

func TestCacheOverwriteDoesNotEvict(t *testing.T) {
	c := newResponseCache(types.CacheConfig{TTL: time.Minute, MaxEntries: 2})
	c.put("a", []byte("1"))
	c.put("b", []byte("2"))
	c.put("a", []byte("updated"))

	if got := c.get("a"); string(got) != "updated" {
		t.Errorf("get(a) = %q, want updated", got)
	}
	if got := c.get("b"); string(got) != "2" {
		t.Errorf("get(b) = %q, want 2", got)
	}
}
