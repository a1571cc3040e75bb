package cache

import (
	"context"
	"sync"

	"trendscout/models"
)

// InMemory keeps the current trend set in a single map reference. Replace
// installs a freshly copied map with one assignment under the write lock, so
// a reader holding the old map keeps a consistent snapshot and never sees a
// mid-swap mix of batches.
type InMemory struct {
	mu     sync.RWMutex
	trends map[string]models.Trend
}

func NewInMemory() *InMemory {
	return &InMemory{trends: make(map[string]models.Trend)}
}

func (c *InMemory) Replace(_ context.Context, trends map[string]models.Trend) error {
	next := make(map[string]models.Trend, len(trends))
	for id, t := range trends {
		next[id] = t
	}
	c.mu.Lock()
	c.trends = next
	c.mu.Unlock()
	return nil
}

func (c *InMemory) Get(_ context.Context, id string) (models.Trend, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	t, ok := c.trends[id]
	return t, ok, nil
}

func (c *InMemory) Len(_ context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.trends), nil
}

func (c *InMemory) All(_ context.Context) (map[string]models.Trend, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make(map[string]models.Trend, len(c.trends))
	for id, t := range c.trends {
		out[id] = t
	}
	return out, nil
}
