package usecase

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"furnish/internal/adapter/embedding"
	"furnish/internal/adapter/fs"
	"furnish/internal/adapter/store"
	"furnish/internal/domain"
)

const catalogJSON = `[
  {"uniq_id": "a1", "title": "Grey Fabric Sofa", "price": "$450.00", "brand": "FANYE", "categories": ["Home & Kitchen", "Furniture", "Sofas"], "color": "Grey"},
  {"uniq_id": "a2", "title": "Oak Nightstand", "price": 89.5, "material": "Wood"},
  {"title": "Nameless Chair", "price": "$20"},
  {"uniq_id": "a1", "title": "Grey Fabric Sofa (duplicate)"}
]`

func writeCatalog(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "catalog.json"), []byte(catalogJSON), 0644))
	return dir
}

func TestImport(t *testing.T) {
	dir := writeCatalog(t)
	catalog := store.NewMemoryCatalog(32)
	uc := NewImportUseCase(fs.NewWalker(nil, nil), embedding.NewHashEmbedder(32), catalog, 1, 2)

	var calls int
	result, err := uc.Import(context.Background(), dir, func(done, total int) {
		calls++
		assert.Equal(t, 2, total)
	})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Files)
	assert.Equal(t, 2, result.Imported)
	assert.Equal(t, 2, result.Skipped)
	assert.Len(t, result.Errors, 1)
	assert.Equal(t, 2, calls)

	n, err := catalog.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	sofa, ok := catalog.Get("a1")
	require.True(t, ok)
	assert.Equal(t, 450.0, sofa.Price)
	category, _ := sofa.Attr(domain.AttrCategory)
	assert.Equal(t, "Sofas", category)
}

func TestImportEmbedFailure(t *testing.T) {
	dir := writeCatalog(t)
	boom := errors.New("quota exceeded")
	uc := NewImportUseCase(fs.NewWalker(nil, nil), &fakeEmbedder{err: boom}, store.NewMemoryCatalog(3), 0, 0)

	result, err := uc.Import(context.Background(), dir, nil)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, result.Imported)
}

func TestItemText(t *testing.T) {
	it := item("x", "Oak Nightstand", 0, map[string]string{
		domain.AttrMaterial:    "Wood",
		domain.AttrDescription: "Two drawers.",
	})
	assert.Equal(t, "Oak Nightstand. Wood. Two drawers.", ItemText(it))
}
