package milvus

import (
	"context"
	"errors"
	"testing"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnish/internal/domain"
	"furnish/internal/port"
)

// fakeClient overrides the calls the catalog makes; anything else panics
// through the nil embedded interface.
type fakeClient struct {
	client.Client

	expr     string
	topK     int
	results  []client.SearchResult
	err      error
	upserted []entity.Column
	stats    map[string]string
}

func (f *fakeClient) Search(ctx context.Context, collName string, partitions []string, expr string, outputFields []string,
	vectors []entity.Vector, vectorField string, metricType entity.MetricType, topK int, sp entity.SearchParam,
	opts ...client.SearchQueryOptionFunc) ([]client.SearchResult, error) {
	f.expr = expr
	f.topK = topK
	return f.results, f.err
}

func (f *fakeClient) Upsert(ctx context.Context, collName string, partitionName string, columns ...entity.Column) (entity.Column, error) {
	f.upserted = columns
	return nil, f.err
}

func (f *fakeClient) GetCollectionStatistics(ctx context.Context, collName string) (map[string]string, error) {
	return f.stats, f.err
}

func TestPriceExpr(t *testing.T) {
	assert.Equal(t, "", PriceExpr(domain.Filters{}))
	assert.Equal(t, "price > 0 && price <= 500", PriceExpr(domain.Filters{PriceMax: 500}))
	assert.Equal(t, "price > 0 && price >= 100.5 && price <= 300", PriceExpr(domain.Filters{PriceMin: 100.5, PriceMax: 300}))
}

func TestNearestNeighborsMapsResults(t *testing.T) {
	fc := &fakeClient{results: []client.SearchResult{{
		ResultCount: 2,
		IDs:         entity.NewColumnVarChar(fieldID, []string{"sofa-1", "sofa-2"}),
		Scores:      []float32{0.93, 0.81},
		Fields: client.ResultSet{
			entity.NewColumnVarChar(fieldTitle, []string{"Grey Sofa", "Blue Sofa"}),
			entity.NewColumnVarChar(fieldImage, []string{"", "b.jpg"}),
			entity.NewColumnDouble(fieldPrice, []float64{450, 0}),
			entity.NewColumnVarChar(fieldAttributes, []string{`{"color":"grey"}`, ""}),
		},
	}}}
	c := New(fc, "furniture", "", 2)

	hits, err := c.NearestNeighbors(context.Background(), []float32{1, 0}, 7, domain.Filters{PriceMax: 500})
	require.NoError(t, err)
	assert.Equal(t, 7, fc.topK)
	assert.Equal(t, "price > 0 && price <= 500", fc.expr)

	require.Len(t, hits, 2)
	assert.Equal(t, "sofa-1", hits[0].Item.ID)
	assert.Equal(t, "Grey Sofa", hits[0].Item.Title)
	assert.Equal(t, 450.0, hits[0].Item.Price)
	assert.Equal(t, "grey", hits[0].Item.Attributes["color"])
	assert.InDelta(t, 0.93, hits[0].Score, 1e-6)
	assert.False(t, hits[1].Item.HasPrice())
	assert.Equal(t, "b.jpg", hits[1].Item.Image)
}

func TestNearestNeighborsDimensionMismatch(t *testing.T) {
	c := New(&fakeClient{}, "furniture", "", 3)
	_, err := c.NearestNeighbors(context.Background(), []float32{1}, 5, domain.Filters{})
	assert.ErrorIs(t, err, domain.ErrDimensionMismatch)
}

func TestNearestNeighborsWrapsSearchError(t *testing.T) {
	boom := errors.New("connection refused")
	c := New(&fakeClient{err: boom}, "furniture", "", 1)
	_, err := c.NearestNeighbors(context.Background(), []float32{1}, 5, domain.Filters{})
	assert.ErrorIs(t, err, boom)
}

func TestUpsertBuildsColumns(t *testing.T) {
	fc := &fakeClient{}
	c := New(fc, "furniture", "vec", 2)

	err := c.Upsert(context.Background(), []port.CatalogEntry{{
		Item:   domain.Item{ID: "a", Title: "Chair", Price: 80, Attributes: map[string]string{"brand": "ACME"}},
		Vector: []float32{0.1, 0.2},
	}})
	require.NoError(t, err)
	require.Len(t, fc.upserted, 6)
	assert.Equal(t, "vec", fc.upserted[5].Name())
	assert.Equal(t, 1, fc.upserted[0].Len())
}

func TestCount(t *testing.T) {
	c := New(&fakeClient{stats: map[string]string{"row_count": "42"}}, "furniture", "", 2)
	n, err := c.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 42, n)
}
