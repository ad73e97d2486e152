package jira

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

// maxExtensions bounds how often a hit may push an entry's expiry out.
const maxExtensions = 6

type cacheEntry struct {
	value       any
	expiration  time.Time
	accessCount int
	originalTTL time.Duration
}

// ttlCache is a sliding-window metadata cache: every hit extends the entry by its TTL, up to
// maxExtensions times.
type ttlCache struct {
	mu      sync.Mutex
	entries map[string]*cacheEntry
	now     func() time.Time
}

func newTTLCache() *ttlCache {
	return &ttlCache{entries: make(map[string]*cacheEntry), now: time.Now}
}

func (c *ttlCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		log.Debug().Str("key", key).Msg("Cache miss")
		return nil, false
	}
	if c.now().After(entry.expiration) {
		delete(c.entries, key)
		log.Debug().Str("key", key).Msg("Cache entry expired")
		return nil, false
	}
	log.Debug().Str("key", key).Msg("Cache hit")

	if entry.accessCount < maxExtensions {
		entry.expiration = c.now().Add(entry.originalTTL)
		entry.accessCount++
		log.Trace().Str("key", key).Int("count", entry.accessCount).Msg("Extended cache TTL")
	}
	return entry.value, true
}

func (c *ttlCache) put(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &cacheEntry{
		value:       value,
		expiration:  c.now().Add(ttl),
		originalTTL: ttl,
		accessCount: 1,
	}
	log.Debug().Str("key", key).Dur("ttl", ttl).Msg("Added to cache")
}
