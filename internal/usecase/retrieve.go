package usecase

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"furnish/internal/adapter/analyzer"
	"furnish/internal/domain"
	"furnish/internal/metrics"
	"furnish/internal/port"
)

// RetrieveOptions sizes a retrieval.
type RetrieveOptions struct {
	TopK               int     // K: items returned at most
	Headroom           int     // M: extra neighbors fetched to survive post-filtering
	PerfectMatchScore  float64 // 0 disables the single-item trim
	PerfectMatchMargin float64
}

// RetrieveUseCase drives Embedder -> Catalog Index -> post-filter -> ranking.
type RetrieveUseCase struct {
	embedder port.Embedder
	catalog  port.CatalogIndex
	opts     RetrieveOptions
}

// NewRetrieveUseCase creates a new retrieve use case.
func NewRetrieveUseCase(embedder port.Embedder, catalog port.CatalogIndex, opts RetrieveOptions) *RetrieveUseCase {
	if opts.TopK <= 0 {
		opts.TopK = 5
	}
	if opts.Headroom < 0 {
		opts.Headroom = 0
	}
	return &RetrieveUseCase{
		embedder: embedder,
		catalog:  catalog,
		opts:     opts,
	}
}

// TopK returns the configured result cap.
func (u *RetrieveUseCase) TopK() int {
	return u.opts.TopK
}

// Retrieve returns at most K items for q. Items whose id is in exclude are
// never returned. An empty result is not an error.
func (u *RetrieveUseCase) Retrieve(ctx context.Context, q domain.Query, intent domain.Intent, exclude []domain.Item) ([]domain.Item, error) {
	start := time.Now()
	vector, err := u.embedder.Embed(ctx, q.Resolved)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	excluded := make(map[string]struct{}, len(exclude))
	for _, it := range exclude {
		excluded[it.ID] = struct{}{}
	}

	limit := u.opts.TopK + u.opts.Headroom + len(excluded)
	neighbors, err := u.catalog.NearestNeighbors(ctx, vector, limit, q.Filters)
	if err != nil {
		return nil, fmt.Errorf("failed to search catalog: %w", err)
	}

	candidates := make([]domain.Item, 0, len(neighbors))
	seen := make(map[string]int, len(neighbors))
	for _, n := range neighbors {
		item := n.Item.Clone()
		item.Score = n.Score
		if idx, dup := seen[item.ID]; dup {
			if item.Score > candidates[idx].Score {
				candidates[idx] = item
			}
			continue
		}
		seen[item.ID] = len(candidates)
		candidates = append(candidates, item)
	}

	results := make([]domain.Item, 0, len(candidates))
	for _, item := range candidates {
		if _, skip := excluded[item.ID]; skip {
			continue
		}
		if !MatchesFilters(item, q.Filters) {
			continue
		}
		results = append(results, item)
	}

	SortRanked(results)

	if intent == domain.IntentSearch && u.isPerfectMatch(results) {
		results = results[:1]
	}
	if len(results) > u.opts.TopK {
		results = results[:u.opts.TopK]
	}

	var best float64
	if len(results) > 0 {
		best = results[0].Score
	}
	metrics.ObserveRetrieval(start, len(results), best)
	return results, nil
}

// isPerfectMatch reports whether the top result clearly dominates.
func (u *RetrieveUseCase) isPerfectMatch(results []domain.Item) bool {
	if u.opts.PerfectMatchScore <= 0 || len(results) < 2 {
		return false
	}
	return results[0].Score >= u.opts.PerfectMatchScore &&
		results[0].Score-results[1].Score >= u.opts.PerfectMatchMargin
}

// SortRanked orders items by descending score, then ascending price with
// unknown prices last, then ascending id.
func SortRanked(items []domain.Item) {
	sort.Slice(items, func(i, j int) bool {
		return domain.RankBefore(items[i], items[i].Score, items[j], items[j].Score)
	})
}

// MatchesFilters reports whether it satisfies every stated constraint. A
// price constraint is failed by items without a known price.
func MatchesFilters(it domain.Item, f domain.Filters) bool {
	if f.Category != "" && itemCategory(it) != f.Category {
		return false
	}
	if f.Color != "" {
		color, _ := it.Attr(domain.AttrColor)
		if !analyzer.ColorMatches(f.Color, it.Title+" "+color) {
			return false
		}
	}
	if f.Material != "" {
		material, _ := it.Attr(domain.AttrMaterial)
		if !analyzer.MaterialMatches(f.Material, it.Title+" "+material) {
			return false
		}
	}
	if f.Size != domain.SizeAny && !analyzer.SizeMatches(string(f.Size), it.Title) {
		return false
	}
	if f.Brand != "" {
		brand, ok := it.Attr(domain.AttrBrand)
		if !ok || !strings.EqualFold(brand, f.Brand) {
			return false
		}
	}
	if f.PriceMin > 0 || f.PriceMax > 0 {
		if !it.HasPrice() {
			return false
		}
		if f.PriceMax > 0 && it.Price > f.PriceMax {
			return false
		}
		if f.PriceMin > 0 && it.Price < f.PriceMin {
			return false
		}
	}
	return true
}
