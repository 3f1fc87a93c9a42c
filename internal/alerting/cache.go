package alerting

import (
	"sync"
	"time"
)

// DedupCache remembers recently admitted dedup identities until they expire.
// There is at most one entry per hash.
type DedupCache struct {
	mu      sync.Mutex
	entries map[[32]byte]time.Time
}

func NewDedupCache() *DedupCache {
	return &DedupCache{
		entries: make(map[[32]byte]time.Time),
	}
}

// Admit reports whether an occurrence of hash at now should go on to delivery.
// A new or expired hash gets expires_at = now+ttl; a live one is left untouched.
func (c *DedupCache) Admit(hash [32]byte, now time.Time, ttl time.Duration) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if expiresAt, exists := c.entries[hash]; exists && !now.After(expiresAt) {
		return false
	}
	c.entries[hash] = now.Add(ttl)
	return true
}

// Purge drops every entry whose expiry is at or before now and returns how
// many were removed.
func (c *DedupCache) Purge(now time.Time) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	removed := 0
	for hash, expiresAt := range c.entries {
		if !expiresAt.After(now) {
			delete(c.entries, hash)
			removed++
		}
	}
	return removed
}

func (c *DedupCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *DedupCache) Reset() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[[32]byte]time.Time)
}

