package elevation

import (
	"context"
	"fmt"
	"sync"

	"github.com/couchcryptid/sea-level-risk/internal/domain"
	"github.com/couchcryptid/sea-level-risk/internal/observability"
)

// CachedLookup wraps an ElevationLookup with an in-memory LRU cache.
type CachedLookup struct {
	inner   domain.ElevationLookup
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedLookup creates a cache decorator around a lookup.
func NewCachedLookup(inner domain.ElevationLookup, maxEntries int, metrics *observability.Metrics) *CachedLookup {
	return &CachedLookup{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedLookup) Elevation(ctx context.Context, lat, lon float64) (float64, bool, error) {
	key := fmt.Sprintf("%.6f,%.6f", lat, lon)
	if alt, ok := c.cache.get(key); ok {
		c.metrics.ElevationCache.WithLabelValues("hit").Inc()
		return alt, true, nil
	}
	c.metrics.ElevationCache.WithLabelValues("miss").Inc()

	alt, ok, err := c.inner.Elevation(ctx, lat, lon)
	if err != nil {
		return 0, false, err
	}
	// Absent points are not cached so coverage gaps can be retried.
	if ok {
		c.cache.put(key, alt)
	}
	return alt, ok, nil
}

// lruCache is a thread-safe LRU cache of altitudes.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value float64
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return 0, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
