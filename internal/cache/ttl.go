// Package cache provides a small in-memory TTL cache used for read-mostly
// lookup maps (tenancies, tenants). Entries are never invalidated on write,
// only on expiry, so a write followed by a cached read can observe stale data
// for up to the TTL window.
package cache

import (
	"sync"
	"time"
)

// Clock abstracts time.Now so expiry is deterministic in tests
type Clock interface {
	Now() time.Time
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

type entry struct {
	value     any
	expiresAt time.Time
}

// TTLCache is a map of (key, value, expiry) guarded by a RWMutex
type TTLCache struct {
	mu      sync.RWMutex
	ttl     time.Duration
	clock   Clock
	entries map[string]entry
}

// New creates a cache whose entries expire after ttl
func New(ttl time.Duration) *TTLCache {
	return NewWithClock(ttl, realClock{})
}

// NewWithClock creates a cache with an injectable clock
func NewWithClock(ttl time.Duration, clock Clock) *TTLCache {
	return &TTLCache{
		ttl:     ttl,
		clock:   clock,
		entries: make(map[string]entry),
	}
}

// Get returns the cached value for key, or false if absent or expired.
// Expired entries are removed lazily on the next Set for the same key.
func (c *TTLCache) Get(key string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if c.clock.Now().After(e.expiresAt) {
		return nil, false
	}
	return e.value, true
}

// Set stores value under key with the cache's TTL
func (c *TTLCache) Set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: c.clock.Now().Add(c.ttl),
	}
}

// Len returns the number of stored entries, including expired ones
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
