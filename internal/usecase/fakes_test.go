package usecase

import (
	"context"
	"sync"

	"furnish/internal/domain"
	"furnish/internal/port"
)

type fakeEmbedder struct {
	mu    sync.Mutex
	err   error
	texts []string
}

func (e *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.texts = append(e.texts, text)
	if e.err != nil {
		return nil, e.err
	}
	return []float32{1, 0, 0}, nil
}

func (e *fakeEmbedder) Dimension() int    { return 3 }
func (e *fakeEmbedder) ModelName() string { return "fake" }

type fakeCatalog struct {
	neighbors []port.Neighbor
	err       error
	limit     int
	filters   domain.Filters
}

func (c *fakeCatalog) NearestNeighbors(ctx context.Context, vector []float32, limit int, filters domain.Filters) ([]port.Neighbor, error) {
	c.limit = limit
	c.filters = filters
	if c.err != nil {
		return nil, c.err
	}
	out := c.neighbors
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

type fakeGenerator struct {
	mu    sync.Mutex
	text  string
	err   error
	calls int
}

func (g *fakeGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.err != nil {
		return "", g.err
	}
	return g.text, nil
}

func (g *fakeGenerator) ModelName() string { return "fake-chat" }

func item(id, title string, price float64, attrs map[string]string) domain.Item {
	return domain.Item{ID: id, Title: title, Price: price, Attributes: attrs}
}

func neighbor(it domain.Item, score float64) port.Neighbor {
	return port.Neighbor{Item: it, Score: score}
}

func shownSofas() []domain.Item {
	return []domain.Item{
		item("s1", "Modern Sofa", 300, map[string]string{
			domain.AttrColor: "Grey", domain.AttrMaterial: "Fabric", domain.AttrBrand: "FANYE",
		}),
		item("s2", "Chesterfield Sofa", 150, map[string]string{
			domain.AttrColor: "Blue", domain.AttrMaterial: "Genuine Leather",
		}),
		item("s3", "Sectional Couch", 450, map[string]string{
			domain.AttrColor: "Black",
		}),
	}
}
