package memorycache

import (
	"container/list"
	"sync"

	"github.com/Mettra/fabula-ultima-technosphere-machine-sub000/pkg/cache"
)

// entry represents a cache entry
type entry[V any] struct {
	key   uint64
	value V
}

// Cache implements an LRU cache bounded by entry count.
// Entries never expire: keys are content hashes, so a stale entry is never hit.
type Cache[V any] struct {
	mu sync.Mutex

	// LRU tracking
	items     map[uint64]*list.Element // key -> list element
	evictList *list.List               // LRU list (front = most recent, back = least recent)

	maxEntries int

	// Metrics
	metrics *cache.Metrics
}

// Config holds configuration for the memory cache.
type Config struct {
	// MaxEntries is the maximum number of cached items.
	// When this limit is exceeded, least recently used items are evicted.
	MaxEntries int

	// EnableMetrics enables collection of cache metrics.
	EnableMetrics bool
}

// New creates a new memory cache with the given configuration.
// MaxEntries must be positive.
func New[V any](config Config) *Cache[V] {
	c := &Cache[V]{
		items:      make(map[uint64]*list.Element),
		evictList:  list.New(),
		maxEntries: max(config.MaxEntries, 1),
	}
	if config.EnableMetrics {
		c.metrics = &cache.Metrics{}
	}
	return c
}

// Get retrieves a value from cache and marks it most recently used.
func (c *Cache[V]) Get(key uint64) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	elem, exists := c.items[key]
	if !exists {
		if c.metrics != nil {
			c.metrics.Misses++
		}
		var zero V
		return zero, false
	}

	c.evictList.MoveToFront(elem)
	if c.metrics != nil {
		c.metrics.Hits++
	}
	return elem.Value.(*entry[V]).value, true
}

// Set stores a value in cache.
func (c *Cache[V]) Set(key uint64, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	// Check if key already exists
	if elem, exists := c.items[key]; exists {
		elem.Value.(*entry[V]).value = value
		c.evictList.MoveToFront(elem)
		return
	}

	c.items[key] = c.evictList.PushFront(&entry[V]{key: key, value: value})
	if c.metrics != nil {
		c.metrics.KeysAdded++
	}

	// Evict LRU items if over capacity
	for c.evictList.Len() > c.maxEntries {
		c.removeElement(c.evictList.Back())
		if c.metrics != nil {
			c.metrics.KeysEvicted++
		}
	}
}

// Clear removes all entries from cache.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[uint64]*list.Element)
	c.evictList.Init()
}

// Metrics returns cache statistics.
func (c *Cache[V]) Metrics() *cache.Metrics {
	if c.metrics == nil {
		return &cache.Metrics{}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := *c.metrics
	return &snapshot
}

// Len returns the current number of items in cache.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.evictList.Len()
}

// removeElement removes an element from cache (must be called with lock held).
func (c *Cache[V]) removeElement(elem *list.Element) {
	c.evictList.Remove(elem)
	delete(c.items, elem.Value.(*entry[V]).key)
}

var _ cache.Cache[int] = (*Cache[int])(nil)
