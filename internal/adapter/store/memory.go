package store

import (
	"context"
	"fmt"
	"sync"

	"furnish/internal/domain"
	"furnish/internal/port"
)

// MemoryCatalog keeps the catalog in process. It is used by tests and by
// "serve --catalog-file" for small catalogs that are embedded at startup.
type MemoryCatalog struct {
	mu        sync.RWMutex
	dimension int
	entries   map[string]entry
}

func NewMemoryCatalog(dimension int) *MemoryCatalog {
	return &MemoryCatalog{
		dimension: dimension,
		entries:   make(map[string]entry),
	}
}

func (c *MemoryCatalog) Upsert(ctx context.Context, entries []port.CatalogEntry) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, e := range entries {
		if e.Item.ID == "" {
			return fmt.Errorf("catalog entry without id")
		}
		if err := checkDimension(c.dimension, e.Vector); err != nil {
			return fmt.Errorf("item %s: %w", e.Item.ID, err)
		}
		c.entries[e.Item.ID] = newEntry(e)
	}
	return nil
}

func (c *MemoryCatalog) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

func (c *MemoryCatalog) Get(id string) (domain.Item, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	e, ok := c.entries[id]
	if !ok {
		return domain.Item{}, false
	}
	return e.item.Clone(), true
}

func (c *MemoryCatalog) NearestNeighbors(ctx context.Context, vector []float32, limit int, filters domain.Filters) ([]port.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDimension(c.dimension, vector); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return nearest(c.entries, vector, limit, filters), nil
}
