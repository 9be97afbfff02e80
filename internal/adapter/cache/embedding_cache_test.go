package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingEmbedder struct {
	calls int
	fail  bool
}

func (e *countingEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	e.calls++
	if e.fail {
		return nil, errors.New("down")
	}
	return []float32{float32(len(text))}, nil
}

func (e *countingEmbedder) Dimension() int    { return 1 }
func (e *countingEmbedder) ModelName() string { return "count" }

func TestEmbeddingCacheLRU(t *testing.T) {
	c := NewEmbeddingCache(2, time.Minute)
	c.Put("m", "a", []float32{1})
	c.Put("m", "b", []float32{2})

	_, ok := c.Get("m", "a") // a becomes most recent
	require.True(t, ok)

	c.Put("m", "c", []float32{3})
	_, ok = c.Get("m", "b")
	assert.False(t, ok, "b should have been evicted")
	_, ok = c.Get("m", "a")
	assert.True(t, ok)
	assert.Equal(t, 2, c.Size())
}

func TestEmbeddingCacheTTL(t *testing.T) {
	now := time.Unix(0, 0)
	c := NewEmbeddingCache(10, time.Minute)
	c.now = func() time.Time { return now }

	c.Put("m", "sofa", []float32{1})
	now = now.Add(2 * time.Minute)

	_, ok := c.Get("m", "sofa")
	assert.False(t, ok)
	assert.Zero(t, c.Size())
}

func TestEmbeddingCacheKeysOnModelAndNormalisedText(t *testing.T) {
	c := NewEmbeddingCache(10, time.Minute)
	c.Put("m1", "Grey Sofa ", []float32{1})

	_, ok := c.Get("m1", "grey sofa")
	assert.True(t, ok)
	_, ok = c.Get("m2", "grey sofa")
	assert.False(t, ok)

	c.Invalidate()
	assert.Zero(t, c.Size())
}

func TestCachedEmbedder(t *testing.T) {
	inner := &countingEmbedder{}
	e := NewCachedEmbedder(inner, NewEmbeddingCache(10, time.Minute))

	for i := 0; i < 3; i++ {
		vec, err := e.Embed(context.Background(), "grey sofa")
		require.NoError(t, err)
		assert.Equal(t, []float32{9}, vec)
	}
	assert.Equal(t, 1, inner.calls)

	hits, misses := e.cache.Stats()
	assert.Equal(t, 2, hits)
	assert.Equal(t, 1, misses)
}

func TestCachedEmbedderDoesNotCacheFailures(t *testing.T) {
	inner := &countingEmbedder{fail: true}
	e := NewCachedEmbedder(inner, NewEmbeddingCache(10, time.Minute))

	_, err := e.Embed(context.Background(), "sofa")
	assert.Error(t, err)
	_, err = e.Embed(context.Background(), "sofa")
	assert.Error(t, err)
	assert.Equal(t, 2, inner.calls)
}
