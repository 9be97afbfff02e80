package cli

import (
	"context"
	"fmt"
	"io"

	"furnish/config"
	"furnish/internal/adapter/cache"
	"furnish/internal/adapter/embedding"
	"furnish/internal/adapter/fs"
	"furnish/internal/adapter/guard"
	"furnish/internal/adapter/llm"
	"furnish/internal/adapter/milvus"
	"furnish/internal/adapter/store"
	"furnish/internal/port"
	"furnish/internal/usecase"
)

// catalog is what a backend offers: search for the engine, writes for
// the importer.
type catalog interface {
	port.CatalogIndex
	port.CatalogWriter
	io.Closer
}

type memoryCatalog struct{ *store.MemoryCatalog }

func (memoryCatalog) Close() error { return nil }

func openCatalog(ctx context.Context, cfg *config.Config, embedder port.Embedder) (catalog, error) {
	switch cfg.Catalog.Backend {
	case "memory":
		return memoryCatalog{store.NewMemoryCatalog(embedder.Dimension())}, nil
	case "milvus":
		return milvus.Dial(ctx, cfg.Catalog.Milvus, embedder.Dimension())
	}

	if err := config.EnsureDataDir(GetRootDir(), cfg); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	return store.OpenBoltCatalog(config.CatalogPath(GetRootDir(), cfg), embedder.ModelName(), embedder.Dimension())
}

func newEmbedder(cfg *config.Config) (port.Embedder, error) {
	e, err := embedding.New(cfg.Embedding)
	if err != nil {
		return nil, fmt.Errorf("failed to create embedder: %w", err)
	}
	if cfg.Retrieve.CacheSize > 0 {
		e = cache.NewCachedEmbedder(e, cache.NewEmbeddingCache(cfg.Retrieve.CacheSize, cfg.Retrieve.CacheTTL))
	}
	return e, nil
}

// buildEngine wires the engine from cfg. When preload names a catalog file
// or directory it is imported first, which is how the memory backend gets
// its items. The returned catalog must be closed by the caller.
func buildEngine(ctx context.Context, cfg *config.Config, preload string) (*usecase.Engine, catalog, error) {
	embedder, err := newEmbedder(cfg)
	if err != nil {
		return nil, nil, err
	}

	cat, err := openCatalog(ctx, cfg, embedder)
	if err != nil {
		return nil, nil, err
	}

	if preload != "" {
		importer := usecase.NewImportUseCase(fs.NewWalker(nil, nil), embedder, cat, 0, 0)
		res, err := importer.Import(ctx, preload, nil)
		if err != nil {
			cat.Close()
			return nil, nil, fmt.Errorf("failed to load catalog %s: %w", preload, err)
		}
		logger.Info().Int("items", res.Imported).Int("skipped", res.Skipped).Msg("catalog loaded")
	}

	var generator port.Generator
	if cfg.Generation.Provider != "" && cfg.Generation.Provider != "none" {
		g, err := llm.New(cfg.Generation)
		if err != nil {
			cat.Close()
			return nil, nil, fmt.Errorf("failed to create generator: %w", err)
		}
		generator = guard.NewGenerator(g, guard.Policy{
			Timeout: cfg.Synth.GenerateTimeout,
			Backoff: cfg.Retrieve.RetryBackoff,
			Retries: 1,
		})
	}

	embedPolicy := guard.Policy{Timeout: cfg.Retrieve.EmbedTimeout, Backoff: cfg.Retrieve.RetryBackoff, Retries: 1}
	searchPolicy := guard.Policy{Timeout: cfg.Retrieve.SearchTimeout, Backoff: cfg.Retrieve.RetryBackoff, Retries: 1}

	classifier := usecase.NewIntentClassifier()
	engine := usecase.NewEngine(
		classifier,
		usecase.NewContextualizer(classifier, usecase.ContextualizeOptions{
			MaxCarryTurns:         cfg.Contextualize.MaxCarryTurns,
			ResetOnCategoryChange: cfg.Contextualize.ResetOnCategoryChange,
			PriceStep:             cfg.Contextualize.PriceStep,
		}),
		usecase.NewRetrieveUseCase(
			guard.NewEmbedder(embedder, embedPolicy),
			guard.NewCatalog(cat, searchPolicy),
			usecase.RetrieveOptions{
				TopK:               cfg.Retrieve.TopK,
				Headroom:           cfg.Retrieve.Headroom,
				PerfectMatchScore:  cfg.Retrieve.PerfectMatchScore,
				PerfectMatchMargin: cfg.Retrieve.PerfectMatchMargin,
			},
		),
		usecase.NewSynthesizer(usecase.NewBlurber(generator, usecase.BlurbOptions{
			MaxChars:  cfg.Synth.BlurbMaxChars,
			MaxTokens: cfg.Synth.BlurbMaxTokens,
		})),
		usecase.EngineOptions{
			RequestTimeout: cfg.Engine.RequestTimeout,
			HistoryWindow:  cfg.Engine.HistoryWindow,
		},
	)
	return engine, cat, nil
}
