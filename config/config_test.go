package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, 5, cfg.Retrieve.TopK)
	assert.Equal(t, 5, cfg.Retrieve.Headroom)
	assert.Equal(t, 6, cfg.Engine.HistoryWindow)
	assert.Equal(t, 20*time.Second, cfg.Engine.RequestTimeout)
	assert.Equal(t, "bolt", cfg.Catalog.Backend)
	assert.NoError(t, cfg.Validate())
}

func TestLoad_NonExistent(t *testing.T) {
	cfg, err := Load("/nonexistent/path/config.yaml")
	require.NoError(t, err)
	require.NotNil(t, cfg)
	assert.Equal(t, DefaultConfig(), cfg)
}

func TestLoad_ValidYAML(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "furnish.yaml")

	content := `
retrieve:
  top_k: 3
  embed_timeout: 2s
contextualize:
  reset_on_category_change: false
catalog:
  backend: memory
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	cfg, err := Load(configPath)
	require.NoError(t, err)

	assert.Equal(t, 3, cfg.Retrieve.TopK)
	assert.Equal(t, 2*time.Second, cfg.Retrieve.EmbedTimeout)
	assert.False(t, cfg.Contextualize.ResetOnCategoryChange)
	assert.Equal(t, "memory", cfg.Catalog.Backend)
	// untouched sections keep their defaults
	assert.Equal(t, 140, cfg.Synth.BlurbMaxChars)
}

func TestLoad_InvalidReportsAllErrors(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "furnish.yaml")

	content := `
retrieve:
  top_k: 0
catalog:
  backend: pinecone
contextualize:
  price_step: 1.5
`
	require.NoError(t, os.WriteFile(configPath, []byte(content), 0644))

	_, err := Load(configPath)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "retrieve.top_k")
	assert.Contains(t, err.Error(), "catalog.backend")
	assert.Contains(t, err.Error(), "contextualize.price_step")
}

func TestLoadFromDir(t *testing.T) {
	tmpDir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(tmpDir, ".furnish"), 0755))

	content := `
server:
  addr: ":9090"
`
	require.NoError(t, os.WriteFile(filepath.Join(tmpDir, ".furnish", "config.yaml"), []byte(content), 0644))

	cfg, err := LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, ":9090", cfg.Server.Addr)
}

func TestCatalogPath(t *testing.T) {
	cfg := DefaultConfig()
	assert.Equal(t, filepath.Join("/srv/shop", ".furnish", "catalog.db"), CatalogPath("/srv/shop", cfg))

	cfg.Catalog.Path = "/var/lib/furnish/catalog.db"
	assert.Equal(t, "/var/lib/furnish/catalog.db", CatalogPath("/srv/shop", cfg))
}

func TestSaveRoundTrip(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := DefaultConfig()
	cfg.Retrieve.TopK = 7
	cfg.Server.Addr = ":9191"

	require.NoError(t, cfg.Save(filepath.Join(tmpDir, "furnish.yaml")))

	loaded, err := LoadFromDir(tmpDir)
	require.NoError(t, err)
	assert.Equal(t, 7, loaded.Retrieve.TopK)
	assert.Equal(t, ":9191", loaded.Server.Addr)
	assert.Equal(t, cfg.Retrieve.EmbedTimeout, loaded.Retrieve.EmbedTimeout)
}
