package cache

import (
	"container/list"
	"context"
	"errors"
	"fmt"
	"sync"
	"time"
)

// Sentinel errors for cache operations.
var (
	// ErrInvalidConfig is returned when a constructor receives invalid configuration.
	ErrInvalidConfig = errors.New("cache: invalid configuration")
)

// Config configures a Cache.
type Config struct {
	// MaxSize is the maximum number of entries. Must be > 0.
	// When full, the least-recently-used entry is evicted.
	MaxSize int

	// TTL is the default lifetime for entries. Zero means entries never
	// expire unless a per-entry TTL is given. Negative is invalid.
	TTL time.Duration
}

// Cache is a bounded LRU cache with per-entry TTL.
//
// Expired entries are purged lazily: Get treats an expired hit as a miss
// and removes it, Prune sweeps everything, and Has reports false without
// removing. Len is therefore an upper bound on live entries.
type Cache[K comparable, V any] struct {
	config Config

	mu       sync.Mutex
	entries  map[K]*list.Element
	order    *list.List // front is least recently used
	inflight map[K]*call[V]
}

type entry[K comparable, V any] struct {
	key       K
	value     V
	expiresAt time.Time // zero means no expiry
}

// call is a pending GetOrSet computation shared by concurrent callers.
type call[V any] struct {
	done  chan struct{}
	value V
	err   error
}

// New creates a new cache.
// Returns an error wrapping ErrInvalidConfig if the configuration is invalid.
func New[K comparable, V any](config Config) (*Cache[K, V], error) {
	if config.MaxSize <= 0 {
		return nil, fmt.Errorf("%w: MaxSize must be > 0, got %d", ErrInvalidConfig, config.MaxSize)
	}
	if config.TTL < 0 {
		return nil, fmt.Errorf("%w: TTL must be >= 0, got %v", ErrInvalidConfig, config.TTL)
	}

	return &Cache[K, V]{
		config:   config,
		entries:  make(map[K]*list.Element),
		order:    list.New(),
		inflight: make(map[K]*call[V]),
	}, nil
}

// Get returns the value for key. An expired hit is purged and reported as
// a miss; a live hit becomes the most recently used entry.
func (c *Cache[K, V]) Get(key K) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.getLocked(key)
}

// Set stores value under key with the cache-wide default TTL.
// Any existing entry for key is replaced.
func (c *Cache[K, V]) Set(key K, value V) {
	c.SetTTL(key, value, c.config.TTL)
}

// SetTTL stores value under key with an explicit TTL, overriding the
// default. A non-positive ttl means the entry never expires.
func (c *Cache[K, V]) SetTTL(key K, value V, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value, ttl)
}

// Has reports whether key holds a live entry. It neither refreshes the
// entry's recency nor purges it when expired.
func (c *Cache[K, V]) Has(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	return !c.expired(elem.Value.(*entry[K, V]))
}

// Delete removes the entry for key, reporting whether one was present.
func (c *Cache[K, V]) Delete(key K) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, ok := c.entries[key]
	if !ok {
		return false
	}
	c.removeLocked(elem)
	return true
}

// Clear removes all entries.
func (c *Cache[K, V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[K]*list.Element)
	c.order.Init()
}

// Len returns the number of stored entries, including expired entries
// that have not been purged yet.
func (c *Cache[K, V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Keys returns all keys from least to most recently used.
func (c *Cache[K, V]) Keys() []K {
	c.mu.Lock()
	defer c.mu.Unlock()

	keys := make([]K, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		keys = append(keys, elem.Value.(*entry[K, V]).key)
	}
	return keys
}

// Values returns all values from least to most recently used.
func (c *Cache[K, V]) Values() []V {
	c.mu.Lock()
	defer c.mu.Unlock()

	values := make([]V, 0, c.order.Len())
	for elem := c.order.Front(); elem != nil; elem = elem.Next() {
		values = append(values, elem.Value.(*entry[K, V]).value)
	}
	return values
}

// Prune removes every expired entry and returns the count removed.
// Intended for periodic invocation when TTL is used heavily.
func (c *Cache[K, V]) Prune() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	removed := 0
	for elem := c.order.Front(); elem != nil; {
		next := elem.Next()
		if c.expired(elem.Value.(*entry[K, V])) {
			c.removeLocked(elem)
			removed++
		}
		elem = next
	}
	return removed
}

// GetOrSet returns the cached value for key, or invokes fn to produce it.
//
// Concurrent callers for the same uncached key share a single fn
// invocation; the result is stored once and handed to every waiter.
// Errors from fn are returned to all waiters and never cached.
func (c *Cache[K, V]) GetOrSet(ctx context.Context, key K, fn func(context.Context) (V, error)) (V, error) {
	c.mu.Lock()
	if value, ok := c.getLocked(key); ok {
		c.mu.Unlock()
		return value, nil
	}

	if pending, ok := c.inflight[key]; ok {
		c.mu.Unlock()
		select {
		case <-pending.done:
			return pending.value, pending.err
		case <-ctx.Done():
			var zero V
			return zero, ctx.Err()
		}
	}

	pending := &call[V]{done: make(chan struct{})}
	c.inflight[key] = pending
	c.mu.Unlock()

	value, err := fn(ctx)

	c.mu.Lock()
	delete(c.inflight, key)
	if err == nil {
		c.setLocked(key, value, c.config.TTL)
	}
	c.mu.Unlock()

	pending.value = value
	pending.err = err
	close(pending.done)

	return value, err
}

func (c *Cache[K, V]) getLocked(key K) (V, bool) {
	var zero V

	elem, ok := c.entries[key]
	if !ok {
		return zero, false
	}

	ent := elem.Value.(*entry[K, V])
	if c.expired(ent) {
		c.removeLocked(elem)
		return zero, false
	}

	c.order.MoveToBack(elem)
	return ent.value, true
}

func (c *Cache[K, V]) setLocked(key K, value V, ttl time.Duration) {
	if elem, ok := c.entries[key]; ok {
		c.removeLocked(elem)
	}

	// Evict from the LRU end until there is room.
	for len(c.entries) >= c.config.MaxSize {
		c.removeLocked(c.order.Front())
	}

	ent := &entry[K, V]{key: key, value: value}
	if ttl > 0 {
		ent.expiresAt = time.Now().Add(ttl)
	}
	c.entries[key] = c.order.PushBack(ent)
}

func (c *Cache[K, V]) removeLocked(elem *list.Element) {
	c.order.Remove(elem)
	delete(c.entries, elem.Value.(*entry[K, V]).key)
}

func (c *Cache[K, V]) expired(ent *entry[K, V]) bool {
	return !ent.expiresAt.IsZero() && time.Now().After(ent.expiresAt)
}
