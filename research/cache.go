package research

import "sync"

// DefaultCacheSize bounds the relevance cache unless overridden.
const DefaultCacheSize = 1000

// relevanceCache maps text to its relevance score, bounded by max entries.
// When an insert would exceed the bound, the least-recently-added half is
// evicted; the most recently inserted entries survive. Reads do not refresh
// position: eviction order is insertion order, not access order.
type relevanceCache struct {
	mu      sync.Mutex
	max     int
	entries map[string]float64
	order   []string
}

func newRelevanceCache(max int) *relevanceCache {
	if max < 2 {
		max = 2
	}
	return &relevanceCache{
		max:     max,
		entries: make(map[string]float64),
	}
}

func (c *relevanceCache) get(key string) (float64, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	score, ok := c.entries[key]
	return score, ok
}

func (c *relevanceCache) put(key string, score float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; exists {
		c.entries[key] = score
		return
	}

	if len(c.entries) >= c.max {
		keep := c.order[len(c.order)-c.max/2:]
		kept := make(map[string]float64, len(keep))
		for _, k := range keep {
			kept[k] = c.entries[k]
		}
		c.entries = kept
		c.order = append([]string(nil), keep...)
	}

	c.entries[key] = score
	c.order = append(c.order, key)
}

func (c *relevanceCache) size() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
