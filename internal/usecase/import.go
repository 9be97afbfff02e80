package usecase

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"furnish/internal/adapter/fs"
	"furnish/internal/domain"
	"furnish/internal/port"
)

// ImportUseCase embeds catalog records and writes them to a catalog.
type ImportUseCase struct {
	walker    *fs.Walker
	embedder  port.Embedder
	writer    port.CatalogWriter
	batchSize int
	workers   int
}

// NewImportUseCase creates a new import use case.
func NewImportUseCase(walker *fs.Walker, embedder port.Embedder, writer port.CatalogWriter, batchSize, workers int) *ImportUseCase {
	if batchSize <= 0 {
		batchSize = 64
	}
	if workers <= 0 {
		workers = 4
	}
	return &ImportUseCase{
		walker:    walker,
		embedder:  embedder,
		writer:    writer,
		batchSize: batchSize,
		workers:   workers,
	}
}

// ImportResult summarizes an import.
type ImportResult struct {
	Files    int
	Imported int
	Skipped  int
	Errors   []string
}

// Import reads every catalog file under root. Records without an id are
// skipped; an embedding or write failure aborts the import.
func (u *ImportUseCase) Import(ctx context.Context, root string, progress func(done, total int)) (*ImportResult, error) {
	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}

	result := &ImportResult{Files: len(files)}
	var items []domain.Item
	seen := make(map[string]struct{})
	for _, f := range files {
		records, err := fs.ReadRecords(f.Path)
		if err != nil {
			result.Errors = append(result.Errors, err.Error())
			continue
		}
		for _, r := range records {
			it, err := r.Item()
			if err != nil {
				result.Skipped++
				result.Errors = append(result.Errors, fmt.Sprintf("%s: %v", f.Path, err))
				continue
			}
			if _, dup := seen[it.ID]; dup {
				result.Skipped++
				continue
			}
			seen[it.ID] = struct{}{}
			items = append(items, it)
		}
	}

	zerolog.Ctx(ctx).Info().Int("files", len(files)).Int("items", len(items)).Msg("importing catalog")

	for start := 0; start < len(items); start += u.batchSize {
		end := start + u.batchSize
		if end > len(items) {
			end = len(items)
		}
		entries, err := u.embedBatch(ctx, items[start:end])
		if err != nil {
			return result, err
		}
		if err := u.writer.Upsert(ctx, entries); err != nil {
			return result, fmt.Errorf("failed to write catalog: %w", err)
		}
		result.Imported += len(entries)
		if progress != nil {
			progress(result.Imported, len(items))
		}
	}
	return result, nil
}

func (u *ImportUseCase) embedBatch(ctx context.Context, items []domain.Item) ([]port.CatalogEntry, error) {
	entries := make([]port.CatalogEntry, len(items))
	p := pool.New().WithContext(ctx).WithMaxGoroutines(u.workers).WithCancelOnError()
	for i := range items {
		p.Go(func(ctx context.Context) error {
			vec, err := u.embedder.Embed(ctx, ItemText(items[i]))
			if err != nil {
				return fmt.Errorf("failed to embed item %s: %w", items[i].ID, err)
			}
			entries[i] = port.CatalogEntry{Item: items[i], Vector: vec}
			return nil
		})
	}
	if err := p.Wait(); err != nil {
		return nil, err
	}
	return entries, nil
}

// ItemText is the text embedded for an item: title first, then the
// attributes a shopper searches by, then a bounded slice of description.
func ItemText(it domain.Item) string {
	parts := []string{it.Title}
	for _, key := range []string{domain.AttrCategory, domain.AttrBrand, domain.AttrMaterial, domain.AttrColor} {
		if v, ok := it.Attr(key); ok {
			parts = append(parts, v)
		}
	}
	if d, ok := it.Attr(domain.AttrDescription); ok {
		parts = append(parts, truncateText(d, 500))
	}
	return strings.Join(parts, ". ")
}
