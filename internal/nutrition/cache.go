package nutrition

import (
	"context"
	"strings"
	"sync"
	"time"
)

type cacheEntry struct {
	product   *Product
	expiresAt time.Time
}

// Cached memoizes successful lookups by lower-cased name for ttl.
// Failures are not cached.
type Cached struct {
	next Searcher
	ttl  time.Duration
	now  func() time.Time

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func NewCached(next Searcher, ttl time.Duration) *Cached {
	return &Cached{
		next:    next,
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]cacheEntry),
	}
}

func (c *Cached) CaloriesPer100g(ctx context.Context, foodName string) (float64, error) {
	p, err := c.Search(ctx, foodName)
	if err != nil {
		return 0, err
	}
	return p.CaloriesPer100g, nil
}

func (c *Cached) Search(ctx context.Context, foodName string) (*Product, error) {
	key := strings.ToLower(strings.TrimSpace(foodName))
	if c.ttl <= 0 {
		return c.next.Search(ctx, foodName)
	}

	c.mu.Lock()
	entry, ok := c.entries[key]
	if ok && c.now().Before(entry.expiresAt) {
		c.mu.Unlock()
		p := *entry.product
		return &p, nil
	}
	delete(c.entries, key)
	c.mu.Unlock()

	p, err := c.next.Search(ctx, foodName)
	if err != nil {
		return nil, err
	}

	c.mu.Lock()
	c.entries[key] = cacheEntry{product: p, expiresAt: c.now().Add(c.ttl)}
	c.mu.Unlock()

	out := *p
	return &out, nil
}
