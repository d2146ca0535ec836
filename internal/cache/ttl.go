// Package cache provides small in-process caches: a generic bounded TTL
// cache used by the service and repository factories, and a time-limited
// deduplication cache used by the transport.
package cache

import (
	"sync"
	"time"
)

// TTLCache is a bounded cache with lazy expiry. Eviction policy: when an
// insert pushes the cache past its max size, the least-recently-created
// entry goes first; expired entries are dropped lazily on read and swept on
// insert. Safe for concurrent use.
type TTLCache[V any] struct {
	mu      sync.Mutex
	entries map[string]ttlEntry[V]
	ttl     time.Duration
	maxSize int
}

type ttlEntry[V any] struct {
	value     V
	createdAt int64 // unix milliseconds
}

// Options configures a TTLCache. TTL <= 0 means entries never expire;
// MaxSize <= 0 means the cache holds nothing (every Put is dropped).
type Options struct {
	TTL     time.Duration
	MaxSize int
}

// NewTTL creates an empty cache.
func NewTTL[V any](opts Options) *TTLCache[V] {
	ttl := opts.TTL
	if ttl < 0 {
		ttl = 0
	}
	maxSize := opts.MaxSize
	if maxSize < 0 {
		maxSize = 0
	}
	return &TTLCache[V]{
		entries: make(map[string]ttlEntry[V]),
		ttl:     ttl,
		maxSize: maxSize,
	}
}

// Get returns the live value for key. Expired entries are removed and
// reported as absent.
func (c *TTLCache[V]) Get(key string) (V, bool) {
	return c.GetAt(key, time.Now())
}

// GetAt is Get with an explicit clock (for testing).
func (c *TTLCache[V]) GetAt(key string, now time.Time) (V, bool) {
	var zero V
	if key == "" {
		return zero, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return zero, false
	}
	if c.expired(e.createdAt, now.UnixMilli()) {
		delete(c.entries, key)
		return zero, false
	}
	return e.value, true
}

// Put stores value under key, resetting its creation time, then prunes
// expired and excess entries.
func (c *TTLCache[V]) Put(key string, value V) {
	c.PutAt(key, value, time.Now())
}

// PutAt is Put with an explicit clock (for testing).
func (c *TTLCache[V]) PutAt(key string, value V, now time.Time) {
	if key == "" {
		return
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	nowUnix := now.UnixMilli()
	c.entries[key] = ttlEntry[V]{value: value, createdAt: nowUnix}
	c.prune(nowUnix)
}

// Remove drops key if present.
func (c *TTLCache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}

// Clear removes all entries.
func (c *TTLCache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]ttlEntry[V])
}

// Len returns the current number of entries, expired ones included until
// their lazy removal.
func (c *TTLCache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns the current keys (for debugging and checks).
func (c *TTLCache[V]) Keys() []string {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	return keys
}

func (c *TTLCache[V]) expired(createdAt, nowUnix int64) bool {
	return c.ttl > 0 && nowUnix-createdAt >= c.ttl.Milliseconds()
}

// prune removes expired entries, then evicts least-recently-created
// entries until the size bound holds.
func (c *TTLCache[V]) prune(nowUnix int64) {
	if c.ttl > 0 {
		for key, e := range c.entries {
			if c.expired(e.createdAt, nowUnix) {
				delete(c.entries, key)
			}
		}
	}

	if c.maxSize <= 0 {
		c.entries = make(map[string]ttlEntry[V])
		return
	}

	for len(c.entries) > c.maxSize {
		var oldestKey string
		oldestTs := int64(^uint64(0) >> 1)
		for k, e := range c.entries {
			if e.createdAt < oldestTs {
				oldestTs = e.createdAt
				oldestKey = k
			}
		}
		if oldestKey == "" {
			break
		}
		delete(c.entries, oldestKey)
	}
}

// FactoryKey builds the cache key for a (kind, team) pair used by the
// service and repository factories.
func FactoryKey(kind, teamID string) string {
	return kind + ":" + teamID
}
