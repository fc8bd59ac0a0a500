// Package cache keeps recently answered queries in memory so that follow-up
// button presses can be served without calling the search service again.
package cache

import (
	"sync"
	"time"

	"github.com/lightningnetwork/lnd/fn/v2"

	"pdc-bot/internal/domain"
)

// DefaultTTL is how long a result stays readable after it was stored.
const DefaultTTL = 15 * time.Minute

// ShareCache maps share ids to cached results. Entries expire a fixed TTL
// after insertion; reads never extend that window.
type ShareCache struct {
	ttl time.Duration
	now func() time.Time

	mu      sync.Mutex
	entries map[string]domain.CachedResult
}

type Option func(*ShareCache)

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(c *ShareCache) {
		if now != nil {
			c.now = now
		}
	}
}

// New creates an empty cache. A non-positive ttl falls back to DefaultTTL.
func New(ttl time.Duration, opts ...Option) *ShareCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &ShareCache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]domain.CachedResult),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// TTL returns the configured expiry window.
func (c *ShareCache) TTL() time.Duration {
	return c.ttl
}

// Put inserts or overwrites the entry for shareID and stamps it with the
// current time.
func (c *ShareCache) Put(shareID string, result domain.CachedResult) {
	result.ShareID = shareID
	result.CreatedAt = c.now()

	c.mu.Lock()
	c.entries[shareID] = result
	c.mu.Unlock()
}

// Get returns the entry for shareID while it is fresh. A stale entry is
// deleted and reported as absent.
func (c *ShareCache) Get(shareID string) fn.Option[domain.CachedResult] {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[shareID]
	if !ok {
		return fn.None[domain.CachedResult]()
	}
	if c.expired(entry, c.now()) {
		delete(c.entries, shareID)
		return fn.None[domain.CachedResult]()
	}
	return fn.Some(entry)
}

// PurgeExpired drops every stale entry and returns how many were removed.
func (c *ShareCache) PurgeExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	removed := 0
	for id, entry := range c.entries {
		if c.expired(entry, now) {
			delete(c.entries, id)
			removed++
		}
	}
	return removed
}

// Len returns the number of stored entries, stale ones included.
func (c *ShareCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *ShareCache) expired(entry domain.CachedResult, now time.Time) bool {
	return now.Sub(entry.CreatedAt) > c.ttl
}
