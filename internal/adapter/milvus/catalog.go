package milvus

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"furnish/config"
	"furnish/internal/domain"
	"furnish/internal/port"
)

// Scalar fields of the furniture collection.
const (
	fieldID         = "id"
	fieldTitle      = "title"
	fieldImage      = "image"
	fieldPrice      = "price"
	fieldAttributes = "attributes" // JSON-encoded map stored as varchar
)

var outputFields = []string{fieldID, fieldTitle, fieldImage, fieldPrice, fieldAttributes}

// Catalog is a CatalogIndex backed by a Milvus collection using COSINE
// similarity.
type Catalog struct {
	client      client.Client
	collection  string
	vectorField string
	dimension   int
}

// Dial connects to the Milvus server named in cfg.
func Dial(ctx context.Context, cfg config.MilvusConfig, dimension int) (*Catalog, error) {
	mc := client.Config{Address: cfg.Address}
	if cfg.APIKeyEnv != "" {
		mc.APIKey = os.Getenv(cfg.APIKeyEnv)
	}
	c, err := client.NewClient(ctx, mc)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus at %s: %w", cfg.Address, err)
	}
	return New(c, cfg.Collection, cfg.VectorField, dimension), nil
}

// New wraps an existing client.
func New(c client.Client, collection, vectorField string, dimension int) *Catalog {
	if vectorField == "" {
		vectorField = "embedding"
	}
	return &Catalog{
		client:      c,
		collection:  collection,
		vectorField: vectorField,
		dimension:   dimension,
	}
}

func (c *Catalog) NearestNeighbors(ctx context.Context, vector []float32, limit int, filters domain.Filters) ([]port.Neighbor, error) {
	if len(vector) != c.dimension {
		return nil, fmt.Errorf("%w: expected %d, got %d", domain.ErrDimensionMismatch, c.dimension, len(vector))
	}
	if limit <= 0 {
		return nil, nil
	}

	sp, err := entity.NewIndexAUTOINDEXSearchParam(1)
	if err != nil {
		return nil, err
	}

	results, err := c.client.Search(ctx, c.collection, nil, PriceExpr(filters), outputFields,
		[]entity.Vector{entity.FloatVector(vector)}, c.vectorField, entity.COSINE, limit, sp)
	if err != nil {
		return nil, fmt.Errorf("milvus search failed: %w", err)
	}

	var neighbors []port.Neighbor
	for _, r := range results {
		if r.Err != nil {
			return nil, fmt.Errorf("milvus search failed: %w", r.Err)
		}
		for i := 0; i < r.ResultCount; i++ {
			it, err := itemAt(r, i)
			if err != nil {
				return nil, err
			}
			var score float64
			if i < len(r.Scores) {
				score = float64(r.Scores[i])
			}
			neighbors = append(neighbors, port.Neighbor{Item: it, Score: score})
		}
	}
	return neighbors, nil
}

// PriceExpr renders the price part of filters as a Milvus boolean
// expression. Items without a price are stored as 0.
func PriceExpr(f domain.Filters) string {
	var parts []string
	if f.PriceMin > 0 || f.PriceMax > 0 {
		parts = append(parts, fieldPrice+" > 0")
	}
	if f.PriceMin > 0 {
		parts = append(parts, fmt.Sprintf("%s >= %s", fieldPrice, strconv.FormatFloat(f.PriceMin, 'f', -1, 64)))
	}
	if f.PriceMax > 0 {
		parts = append(parts, fmt.Sprintf("%s <= %s", fieldPrice, strconv.FormatFloat(f.PriceMax, 'f', -1, 64)))
	}
	return strings.Join(parts, " && ")
}

func itemAt(r client.SearchResult, i int) (domain.Item, error) {
	var it domain.Item
	id, err := r.IDs.GetAsString(i)
	if err != nil {
		return it, fmt.Errorf("failed to read id: %w", err)
	}
	it.ID = id
	it.Title = stringField(r.Fields, fieldTitle, i)
	it.Image = stringField(r.Fields, fieldImage, i)

	if col := r.Fields.GetColumn(fieldPrice); col != nil {
		if p, err := col.GetAsDouble(i); err == nil {
			it.Price = p
		}
	}
	if raw := stringField(r.Fields, fieldAttributes, i); raw != "" {
		if err := json.Unmarshal([]byte(raw), &it.Attributes); err != nil {
			return it, fmt.Errorf("item %s: bad attributes: %w", id, err)
		}
	}
	return it, nil
}

func stringField(fields client.ResultSet, name string, i int) string {
	col := fields.GetColumn(name)
	if col == nil {
		return ""
	}
	s, err := col.GetAsString(i)
	if err != nil {
		return ""
	}
	return s
}

// Upsert writes entries into the collection.
func (c *Catalog) Upsert(ctx context.Context, entries []port.CatalogEntry) error {
	if len(entries) == 0 {
		return nil
	}

	ids := make([]string, len(entries))
	titles := make([]string, len(entries))
	images := make([]string, len(entries))
	prices := make([]float64, len(entries))
	attrs := make([]string, len(entries))
	vectors := make([][]float32, len(entries))

	for i, e := range entries {
		if len(e.Vector) != c.dimension {
			return fmt.Errorf("item %s: %w: expected %d, got %d", e.Item.ID, domain.ErrDimensionMismatch, c.dimension, len(e.Vector))
		}
		data, err := json.Marshal(e.Item.Attributes)
		if err != nil {
			return err
		}
		ids[i] = e.Item.ID
		titles[i] = e.Item.Title
		images[i] = e.Item.Image
		prices[i] = e.Item.Price
		attrs[i] = string(data)
		vectors[i] = e.Vector
	}

	_, err := c.client.Upsert(ctx, c.collection, "",
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldTitle, titles),
		entity.NewColumnVarChar(fieldImage, images),
		entity.NewColumnDouble(fieldPrice, prices),
		entity.NewColumnVarChar(fieldAttributes, attrs),
		entity.NewColumnFloatVector(c.vectorField, c.dimension, vectors),
	)
	if err != nil {
		return fmt.Errorf("milvus upsert failed: %w", err)
	}
	return nil
}

func (c *Catalog) Count(ctx context.Context) (int, error) {
	stats, err := c.client.GetCollectionStatistics(ctx, c.collection)
	if err != nil {
		return 0, fmt.Errorf("failed to read collection statistics: %w", err)
	}
	n, err := strconv.Atoi(stats["row_count"])
	if err != nil {
		return 0, fmt.Errorf("unexpected row_count %q: %w", stats["row_count"], err)
	}
	return n, nil
}

func (c *Catalog) Close() error {
	return c.client.Close()
}
