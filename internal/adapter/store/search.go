package store

import (
	"fmt"
	"sort"

	"gonum.org/v1/gonum/floats"

	"furnish/internal/domain"
	"furnish/internal/port"
)

type entry struct {
	item   domain.Item
	vector []float64
	norm   float64
}

func newEntry(e port.CatalogEntry) entry {
	vec := toFloat64(e.Vector)
	return entry{
		item:   e.Item.Clone(),
		vector: vec,
		norm:   floats.Norm(vec, 2),
	}
}

func toFloat64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func checkDimension(want int, v []float32) error {
	if len(v) != want {
		return fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, want, len(v))
	}
	return nil
}

// priceAllows applies the price part of filters. Other constraints are
// left to the caller's post-filter.
func priceAllows(it domain.Item, f domain.Filters) bool {
	if f.PriceMin <= 0 && f.PriceMax <= 0 {
		return true
	}
	if !it.HasPrice() {
		return false
	}
	if f.PriceMax > 0 && it.Price > f.PriceMax {
		return false
	}
	return f.PriceMin <= 0 || it.Price >= f.PriceMin
}

// nearest scores every entry by cosine similarity (brute force) and returns
// the top limit in result order.
func nearest(entries map[string]entry, query []float32, limit int, f domain.Filters) []port.Neighbor {
	if limit <= 0 || len(entries) == 0 {
		return nil
	}
	q := toFloat64(query)
	qNorm := floats.Norm(q, 2)

	hits := make([]port.Neighbor, 0, len(entries))
	for _, e := range entries {
		if !priceAllows(e.item, f) {
			continue
		}
		var score float64
		if qNorm > 0 && e.norm > 0 && len(e.vector) == len(q) {
			score = floats.Dot(q, e.vector) / (qNorm * e.norm)
		}
		hits = append(hits, port.Neighbor{Item: e.item.Clone(), Score: score})
	}

	sort.Slice(hits, func(i, j int) bool {
		return domain.RankBefore(hits[i].Item, hits[i].Score, hits[j].Item, hits[j].Score)
	})

	if limit < len(hits) {
		hits = hits[:limit]
	}
	return hits
}
