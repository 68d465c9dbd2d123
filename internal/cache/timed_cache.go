package cache

import (
	"sync"
	"time"
)

// TimedCache is a thread-safe in-memory cache whose entries expire after a
// per-cache TTL. Expired entries are detected lazily on read; there is no
// background sweep, so memory is reclaimed only when a key is overwritten.
type TimedCache[K comparable, V any] struct {
	store map[K]timedItem[V]
	mutex sync.RWMutex
	ttl   time.Duration
	now   func() time.Time
}

type timedItem[V any] struct {
	value      V
	expiration int64
}

// NewTimedCache creates a cache whose entries live for ttl after being set.
func NewTimedCache[K comparable, V any](ttl time.Duration) *TimedCache[K, V] {
	return &TimedCache[K, V]{
		store: make(map[K]timedItem[V]),
		ttl:   ttl,
		now:   time.Now,
	}
}

// SetClock replaces the cache's time source. Useful in tests.
func (c *TimedCache[K, V]) SetClock(now func() time.Time) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.now = now
}

// Get retrieves a live item from the cache. The second return value is false
// when the key is missing or its entry has expired.
func (c *TimedCache[K, V]) Get(key K) (V, bool) {
	c.mutex.RLock()
	defer c.mutex.RUnlock()

	var zero V
	item, found := c.store[key]
	if !found {
		return zero, false
	}
	if c.now().UnixNano() > item.expiration {
		// Expired entry, treated as absent (lazy cleanup)
		return zero, false
	}
	return item.value, true
}

// Set adds or updates an item, restarting its TTL.
func (c *TimedCache[K, V]) Set(key K, value V) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	c.store[key] = timedItem[V]{
		value:      value,
		expiration: c.now().Add(c.ttl).UnixNano(),
	}
}

// Delete removes an item from the cache.
func (c *TimedCache[K, V]) Delete(key K) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	delete(c.store, key)
}

// Len reports the number of stored entries, expired ones included.
func (c *TimedCache[K, V]) Len() int {
	c.mutex.RLock()
	defer c.mutex.RUnlock()
	return len(c.store)
}

// TTL returns the cache's entry lifetime.
func (c *TimedCache[K, V]) TTL() time.Duration {
	return c.ttl
}
