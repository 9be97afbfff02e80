package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnish/internal/domain"
	"furnish/internal/port"
)

func sampleEntries() []port.CatalogEntry {
	return []port.CatalogEntry{
		{Item: domain.Item{ID: "sofa-1", Title: "Grey Linen Sofa", Price: 450}, Vector: []float32{1, 0, 0}},
		{Item: domain.Item{ID: "sofa-2", Title: "Blue Velvet Sofa", Price: 900}, Vector: []float32{0.9, 0.1, 0}},
		{Item: domain.Item{ID: "bed-1", Title: "Oak Bed Frame"}, Vector: []float32{0, 0, 1}},
	}
}

func TestMemoryCatalogNearestNeighbors(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(3)
	require.NoError(t, c.Upsert(ctx, sampleEntries()))

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := c.NearestNeighbors(ctx, []float32{1, 0, 0}, 2, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "sofa-1", hits[0].Item.ID)
	assert.InDelta(t, 1.0, hits[0].Score, 1e-9)
	assert.Equal(t, "sofa-2", hits[1].Item.ID)
	assert.Greater(t, hits[0].Score, hits[1].Score)
}

func TestMemoryCatalogPricePushdown(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(3)
	require.NoError(t, c.Upsert(ctx, sampleEntries()))

	hits, err := c.NearestNeighbors(ctx, []float32{1, 0, 0}, 10, domain.Filters{PriceMax: 500})
	require.NoError(t, err)
	require.Len(t, hits, 1, "unpriced and over-budget items are dropped")
	assert.Equal(t, "sofa-1", hits[0].Item.ID)
}

func TestMemoryCatalogTiesAtTheCut(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(3)
	require.NoError(t, c.Upsert(ctx, []port.CatalogEntry{
		{Item: domain.Item{ID: "a-pricey", Price: 500}, Vector: []float32{1, 0, 0}},
		{Item: domain.Item{ID: "m-unpriced"}, Vector: []float32{1, 0, 0}},
		{Item: domain.Item{ID: "z-cheap", Price: 100}, Vector: []float32{1, 0, 0}},
	}))

	hits, err := c.NearestNeighbors(ctx, []float32{1, 0, 0}, 2, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "z-cheap", hits[0].Item.ID)
	assert.Equal(t, "a-pricey", hits[1].Item.ID)
}

func TestMemoryCatalogDimensionMismatch(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(3)

	err := c.Upsert(ctx, []port.CatalogEntry{{Item: domain.Item{ID: "x"}, Vector: []float32{1}}})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = c.NearestNeighbors(ctx, []float32{1, 0}, 5, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestMemoryCatalogReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCatalog(3)
	require.NoError(t, c.Upsert(ctx, []port.CatalogEntry{{
		Item:   domain.Item{ID: "a", Attributes: map[string]string{"color": "grey"}},
		Vector: []float32{1, 0, 0},
	}}))

	hits, err := c.NearestNeighbors(ctx, []float32{1, 0, 0}, 1, domain.Filters{})
	require.NoError(t, err)
	hits[0].Item.Attributes["color"] = "red"

	it, ok := c.Get("a")
	require.True(t, ok)
	assert.Equal(t, "grey", it.Attributes["color"])
}

func TestBoltCatalogPersists(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := OpenBoltCatalog(path, "hash", 3)
	require.NoError(t, err)
	require.NoError(t, c.Upsert(ctx, sampleEntries()))
	require.NoError(t, c.Close())

	c, err = OpenBoltCatalog(path, "hash", 3)
	require.NoError(t, err)
	defer c.Close()

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	hits, err := c.NearestNeighbors(ctx, []float32{0, 0, 1}, 1, domain.Filters{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.Equal(t, "bed-1", hits[0].Item.ID)
	assert.Equal(t, "Oak Bed Frame", hits[0].Item.Title)

	meta := c.Meta()
	assert.Equal(t, "hash", meta.Model)
	assert.Equal(t, 3, meta.Dimension)
	assert.Equal(t, CurrentSchemaVersion, meta.SchemaVersion)
}

func TestBoltCatalogRejectsOtherEmbedder(t *testing.T) {
	path := filepath.Join(t.TempDir(), "catalog.db")

	c, err := OpenBoltCatalog(path, "hash", 3)
	require.NoError(t, err)
	require.NoError(t, c.Close())

	_, err = OpenBoltCatalog(path, "hash", 8)
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)

	_, err = OpenBoltCatalog(path, "text-embedding-3-small", 3)
	assert.ErrorContains(t, err, "re-import")
}

func TestBoltCatalogClear(t *testing.T) {
	ctx := context.Background()
	c, err := OpenBoltCatalog(filepath.Join(t.TempDir(), "catalog.db"), "hash", 3)
	require.NoError(t, err)
	defer c.Close()

	require.NoError(t, c.Upsert(ctx, sampleEntries()))
	require.NoError(t, c.Clear())

	n, err := c.Count(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	hits, err := c.NearestNeighbors(ctx, []float32{1, 0, 0}, 5, domain.Filters{})
	require.NoError(t, err)
	assert.Empty(t, hits)
}
