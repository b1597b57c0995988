package geo

import "sync"

// evictionBatch is how many of the oldest entries are dropped at once when
// the cache reaches capacity.
const evictionBatch = 100

// Cache is a bounded map from normalized address strings to coordinates.
// Eviction is batch-FIFO: on reaching capacity the oldest batch of entries
// is removed before the new one is inserted. The cache is shared
// process-lifetime state and is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[string]Coordinate
	order   []string
	maxSize int
}

// NewCache creates a cache holding at most maxSize entries.
func NewCache(maxSize int) *Cache {
	if maxSize <= 0 {
		maxSize = 1
	}
	return &Cache{
		entries: make(map[string]Coordinate),
		maxSize: maxSize,
	}
}

// Get returns the cached coordinate for key, if present.
func (c *Cache) Get(key string) (Coordinate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	coord, ok := c.entries[key]
	return coord, ok
}

// Set stores a coordinate, evicting the oldest batch first when full.
// Overwriting an existing key does not grow the cache.
func (c *Cache) Set(key string, coord Coordinate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.entries[key]; exists {
		c.entries[key] = coord
		return
	}
	if len(c.entries) >= c.maxSize {
		n := evictionBatch
		if n > len(c.order) {
			n = len(c.order)
		}
		for _, victim := range c.order[:n] {
			delete(c.entries, victim)
		}
		c.order = append([]string(nil), c.order[n:]...)
	}
	c.entries[key] = coord
	c.order = append(c.order, key)
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
