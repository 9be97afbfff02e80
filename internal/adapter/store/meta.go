package store

import (
	"encoding/json"
	"fmt"
	"time"

	"go.etcd.io/bbolt"

	"furnish/internal/domain"
)

// CurrentSchemaVersion is bumped on breaking changes to the item record.
const CurrentSchemaVersion = 1

var keyMeta = []byte("catalog")

// Meta records how a catalog was built.
type Meta struct {
	SchemaVersion int       `json:"schema_version"`
	Model         string    `json:"model"`
	Dimension     int       `json:"dimension"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// Meta returns the catalog metadata.
func (c *BoltCatalog) Meta() Meta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.meta
}

// checkMeta initializes metadata on a fresh file and otherwise verifies the
// stored model and dimension match the configured embedder.
func (c *BoltCatalog) checkMeta(model string, dimension int) (Meta, error) {
	var meta Meta
	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketMeta)
		data := b.Get(keyMeta)
		if data == nil {
			meta = Meta{
				SchemaVersion: CurrentSchemaVersion,
				Model:         model,
				Dimension:     dimension,
				UpdatedAt:     time.Now().UTC(),
			}
			return putMeta(b, meta)
		}

		if err := json.Unmarshal(data, &meta); err != nil {
			return fmt.Errorf("failed to read catalog metadata: %w", err)
		}
		switch {
		case meta.SchemaVersion > CurrentSchemaVersion:
			return fmt.Errorf("catalog created by newer version (v%d > v%d)", meta.SchemaVersion, CurrentSchemaVersion)
		case meta.Dimension != dimension:
			return fmt.Errorf("%w: catalog built with %d dimensions, embedder produces %d; re-import the catalog",
				domain.ErrDimensionMismatch, meta.Dimension, dimension)
		case meta.Model != model:
			return fmt.Errorf("catalog built with model %q, configured model is %q; re-import the catalog", meta.Model, model)
		}
		return nil
	})
	return meta, err
}

func (c *BoltCatalog) touch(tx *bbolt.Tx) error {
	c.meta.UpdatedAt = time.Now().UTC()
	return putMeta(tx.Bucket(bucketMeta), c.meta)
}

func putMeta(b *bbolt.Bucket, meta Meta) error {
	data, err := json.Marshal(meta)
	if err != nil {
		return err
	}
	return b.Put(keyMeta, data)
}
