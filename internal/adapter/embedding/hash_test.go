package embedding

import (
	"context"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats"

	"furnish/config"
)

func toF64(v []float32) []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = float64(x)
	}
	return out
}

func TestHashEmbedderDeterministic(t *testing.T) {
	e := NewHashEmbedder(64)
	a, err := e.Embed(context.Background(), "grey fabric sofa")
	require.NoError(t, err)
	b, err := e.Embed(context.Background(), "Grey Fabric Sofas")
	require.NoError(t, err)

	assert.Len(t, a, 64)
	assert.Equal(t, a, b)
	assert.InDelta(t, 1.0, floats.Norm(toF64(a), 2), 1e-6)
}

func TestHashEmbedderSimilarity(t *testing.T) {
	e := NewHashEmbedder(256)
	ctx := context.Background()
	query, _ := e.Embed(ctx, "grey sofa couch")
	sofa, _ := e.Embed(ctx, "FANYE grey modular sectional sofa couch")
	bed, _ := e.Embed(ctx, "queen bed frame with headboard")

	q := toF64(query)
	assert.Greater(t, floats.Dot(q, toF64(sofa)), floats.Dot(q, toF64(bed)))
}

func TestHashEmbedderEmptyText(t *testing.T) {
	vec, err := NewHashEmbedder(8).Embed(context.Background(), "  ")
	require.NoError(t, err)
	for _, v := range vec {
		assert.False(t, math.IsNaN(float64(v)))
		assert.Zero(t, v)
	}
}

func TestNewFactory(t *testing.T) {
	e, err := New(config.EmbeddingConfig{Provider: "hash", Dimension: 32})
	require.NoError(t, err)
	assert.Equal(t, 32, e.Dimension())
	assert.Equal(t, "hash", e.ModelName())

	t.Setenv("FURNISH_TEST_MISSING_KEY", "")
	_, err = New(config.EmbeddingConfig{Provider: "openai", APIKeyEnv: "FURNISH_TEST_MISSING_KEY"})
	assert.Error(t, err)

	_, err = New(config.EmbeddingConfig{Provider: "word2vec"})
	assert.Error(t, err)
}
