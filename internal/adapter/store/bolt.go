package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.etcd.io/bbolt"

	"furnish/internal/domain"
	"furnish/internal/port"
)

var (
	bucketItems = []byte("items")
	bucketMeta  = []byte("meta")
)

type storedItem struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Image      string            `json:"image,omitempty"`
	Price      float64           `json:"price,omitempty"`
	Attributes map[string]string `json:"attributes,omitempty"`
	Vector     []float32         `json:"v"`
}

// BoltCatalog persists items and their embeddings in a bbolt file and
// answers searches from an in-memory copy loaded at open.
type BoltCatalog struct {
	db   *bbolt.DB
	meta Meta

	mu      sync.RWMutex
	entries map[string]entry
}

// OpenBoltCatalog opens (creating if needed) the catalog at path. A catalog
// built with another embedding model or dimension is rejected.
func OpenBoltCatalog(path, model string, dimension int) (*BoltCatalog, error) {
	db, err := bbolt.Open(path, 0600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("failed to open bolt db: %w", err)
	}

	err = db.Update(func(tx *bbolt.Tx) error {
		for _, b := range [][]byte{bucketItems, bucketMeta} {
			if _, err := tx.CreateBucketIfNotExists(b); err != nil {
				return fmt.Errorf("failed to create bucket %s: %w", b, err)
			}
		}
		return nil
	})
	if err != nil {
		db.Close()
		return nil, err
	}

	c := &BoltCatalog{
		db:      db,
		entries: make(map[string]entry),
	}

	meta, err := c.checkMeta(model, dimension)
	if err != nil {
		db.Close()
		return nil, err
	}
	c.meta = meta

	if err := c.load(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to load catalog: %w", err)
	}
	return c, nil
}

func (c *BoltCatalog) load() error {
	return c.db.View(func(tx *bbolt.Tx) error {
		return tx.Bucket(bucketItems).ForEach(func(k, v []byte) error {
			var stored storedItem
			if err := json.Unmarshal(v, &stored); err != nil {
				return fmt.Errorf("corrupt item %s: %w", k, err)
			}
			c.entries[stored.ID] = newEntry(port.CatalogEntry{
				Item:   stored.item(),
				Vector: stored.Vector,
			})
			return nil
		})
	})
}

func (s storedItem) item() domain.Item {
	return domain.Item{
		ID:         s.ID,
		Title:      s.Title,
		Image:      s.Image,
		Price:      s.Price,
		Attributes: s.Attributes,
	}
}

// Upsert writes entries in a single transaction.
func (c *BoltCatalog) Upsert(ctx context.Context, entries []port.CatalogEntry) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	for _, e := range entries {
		if e.Item.ID == "" {
			return errors.New("catalog entry without id")
		}
		if err := checkDimension(c.meta.Dimension, e.Vector); err != nil {
			return fmt.Errorf("item %s: %w", e.Item.ID, err)
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Update(func(tx *bbolt.Tx) error {
		b := tx.Bucket(bucketItems)
		for _, e := range entries {
			data, err := json.Marshal(storedItem{
				ID:         e.Item.ID,
				Title:      e.Item.Title,
				Image:      e.Item.Image,
				Price:      e.Item.Price,
				Attributes: e.Item.Attributes,
				Vector:     e.Vector,
			})
			if err != nil {
				return err
			}
			if err := b.Put([]byte(e.Item.ID), data); err != nil {
				return err
			}
		}
		return c.touch(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to upsert items: %w", err)
	}

	for _, e := range entries {
		c.entries[e.Item.ID] = newEntry(e)
	}
	return nil
}

func (c *BoltCatalog) Count(ctx context.Context) (int, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries), nil
}

func (c *BoltCatalog) NearestNeighbors(ctx context.Context, vector []float32, limit int, filters domain.Filters) ([]port.Neighbor, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := checkDimension(c.meta.Dimension, vector); err != nil {
		return nil, err
	}

	c.mu.RLock()
	defer c.mu.RUnlock()
	return nearest(c.entries, vector, limit, filters), nil
}

// Clear removes every item but keeps the metadata.
func (c *BoltCatalog) Clear() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	err := c.db.Update(func(tx *bbolt.Tx) error {
		if err := tx.DeleteBucket(bucketItems); err != nil {
			return err
		}
		if _, err := tx.CreateBucket(bucketItems); err != nil {
			return err
		}
		return c.touch(tx)
	})
	if err != nil {
		return fmt.Errorf("failed to clear catalog: %w", err)
	}
	c.entries = make(map[string]entry)
	return nil
}

func (c *BoltCatalog) Close() error {
	return c.db.Close()
}
