// Package cache provides the read-through memoization layer that sits between
// the on-disk resource files and every dashboard view. Each resource category
// owns one region; a region holds its last computed value until it is
// explicitly invalidated by the file watcher or by a write path. There is no
// TTL: invalidation is synchronous with the change that made the value stale.
package cache

import (
	"fmt"
	"sync"
)

// Category names one cache region. Each on-disk resource maps to exactly one
// category.
type Category string

const (
	CategoryStore     Category = "store"
	CategoryIdeas     Category = "ideas"
	CategoryKnowledge Category = "knowledge"
	CategoryDrafts    Category = "drafts"
	CategoryBook      Category = "book"
	CategorySchedule  Category = "schedule"
	CategoryRecurring Category = "recurring"
)

// AllCategories lists every known cache region.
var AllCategories = []Category{
	CategoryStore,
	CategoryIdeas,
	CategoryKnowledge,
	CategoryDrafts,
	CategoryBook,
	CategorySchedule,
	CategoryRecurring,
}

// ComputeFunc produces the value for a region on a cache miss.
type ComputeFunc func() (any, error)

// Cache memoizes one value per category. It is an injectable service rather
// than process-wide state so tests can construct isolated instances. Each
// region carries a generation counter bumped on invalidation, so a compute
// that was in flight when the region was invalidated cannot store its stale
// result.
type Cache struct {
	mu      sync.Mutex
	entries map[Category]any
	gens    map[Category]uint64
}

// New creates an empty cache with no populated regions.
func New() *Cache {
	return &Cache{
		entries: make(map[Category]any),
		gens:    make(map[Category]uint64),
	}
}

// Get returns the memoized value for the category, computing and storing it
// first if the region is empty. A failed compute leaves the region empty so
// the next Get retries. If the region is invalidated while the compute is
// running, the result is returned to the caller but not stored; the next Get
// recomputes from disk.
func (c *Cache) Get(category Category, compute ComputeFunc) (any, error) {
	c.mu.Lock()
	if v, ok := c.entries[category]; ok {
		c.mu.Unlock()
		return v, nil
	}
	gen := c.gens[category]
	c.mu.Unlock()

	// Compute outside the lock; a burst of concurrent misses may recompute
	// more than once, and the generation check below keeps any of them from
	// masking an invalidation that landed mid-compute.
	v, err := compute()
	if err != nil {
		return nil, fmt.Errorf("computing cache region %s: %w", category, err)
	}

	c.mu.Lock()
	if c.gens[category] == gen {
		c.entries[category] = v
	}
	c.mu.Unlock()
	return v, nil
}

// Peek returns the memoized value without computing on a miss.
func (c *Cache) Peek(category Category) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[category]
	return v, ok
}

// Invalidate drops the memoized entry for the category. It does not eagerly
// recompute: a burst of file changes costs one recompute on next demand, not
// one per change.
func (c *Cache) Invalidate(category Category) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, category)
	c.gens[category]++
}

// InvalidateAll drops every region.
func (c *Cache) InvalidateAll() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[Category]any)
	for _, cat := range AllCategories {
		c.gens[cat]++
	}
}
