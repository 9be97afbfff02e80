package port

import (
	"context"

	"furnish/internal/domain"
)

// CatalogIndex is the nearest-neighbor search over item embeddings.
type CatalogIndex interface {
	// NearestNeighbors returns up to limit items ordered by descending
	// similarity. Implementations may push filters down but are not required
	// to; callers post-filter.
	NearestNeighbors(ctx context.Context, vector []float32, limit int, filters domain.Filters) ([]Neighbor, error)
}

// Neighbor is one search hit.
type Neighbor struct {
	Item  domain.Item
	Score float64 // similarity, higher is better
}

// CatalogWriter loads items into a catalog. Only the import tooling uses it.
type CatalogWriter interface {
	Upsert(ctx context.Context, entries []CatalogEntry) error
	Count(ctx context.Context) (int, error)
}

// CatalogEntry is an item together with its embedding.
type CatalogEntry struct {
	Item   domain.Item
	Vector []float32
}
