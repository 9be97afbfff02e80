package cli

import (
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"furnish/config"
	"furnish/internal/adapter/fs"
	"furnish/internal/adapter/store"
	"furnish/internal/usecase"
)

var (
	importExcludes []string
	importBatch    int
	importWorkers  int
	importReplace  bool
)

var catalogCmd = &cobra.Command{
	Use:   "catalog",
	Short: "Manage the furniture catalog",
}

var catalogImportCmd = &cobra.Command{
	Use:   "import <path>",
	Short: "Embed catalog records and store them",
	Long: `Import JSON or JSON-lines catalog files. A directory is searched for
*.json, *.jsonl and *.ndjson files.

Examples:
  furnish catalog import ./catalog.jsonl
  furnish catalog import ./feeds --exclude "archive/**"
  furnish catalog import ./catalog.json --replace`,
	Args: cobra.ExactArgs(1),
	RunE: runCatalogImport,
}

var catalogInfoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show catalog backend, size and embedding model",
	RunE:  runCatalogInfo,
}

func init() {
	rootCmd.AddCommand(catalogCmd)
	catalogCmd.AddCommand(catalogImportCmd, catalogInfoCmd)
	catalogImportCmd.Flags().StringSliceVar(&importExcludes, "exclude", nil, "glob patterns to skip")
	catalogImportCmd.Flags().IntVar(&importBatch, "batch", 64, "items written per transaction")
	catalogImportCmd.Flags().IntVar(&importWorkers, "workers", 4, "concurrent embedding calls")
	catalogImportCmd.Flags().BoolVar(&importReplace, "replace", false, "clear the bolt catalog before importing")
}

func runCatalogImport(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := logger.WithContext(cmd.Context())

	path, err := filepath.Abs(args[0])
	if err != nil {
		return fmt.Errorf("invalid path: %w", err)
	}

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	cat, err := openCatalog(ctx, cfg, embedder)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	if importReplace {
		bolt, ok := cat.(*store.BoltCatalog)
		if !ok {
			return fmt.Errorf("--replace is only supported for the bolt backend")
		}
		if err := bolt.Clear(); err != nil {
			return err
		}
	}

	var (
		bar   *progressbar.ProgressBar
		barMu sync.Mutex
	)
	progress := func(done, total int) {
		barMu.Lock()
		defer barMu.Unlock()
		if bar == nil {
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Importing[reset]"),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}
		bar.Set(done)
	}

	started := time.Now()
	importer := usecase.NewImportUseCase(fs.NewWalker(nil, importExcludes), embedder, cat, importBatch, importWorkers)
	result, err := importer.Import(ctx, path, progress)
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}

	fmt.Printf("Imported %d items from %d files in %s\n", result.Imported, result.Files, time.Since(started).Round(time.Millisecond))
	if result.Skipped > 0 {
		fmt.Printf("Skipped %d records\n", result.Skipped)
	}
	for _, e := range result.Errors {
		fmt.Printf("  warning: %s\n", e)
	}
	return nil
}

func runCatalogInfo(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	ctx := logger.WithContext(cmd.Context())

	embedder, err := newEmbedder(cfg)
	if err != nil {
		return err
	}
	cat, err := openCatalog(ctx, cfg, embedder)
	if err != nil {
		return fmt.Errorf("failed to open catalog: %w", err)
	}
	defer cat.Close()

	n, err := cat.Count(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("Backend:    %s\n", cfg.Catalog.Backend)
	fmt.Printf("Items:      %d\n", n)
	fmt.Printf("Embedder:   %s (%d dimensions)\n", embedder.ModelName(), embedder.Dimension())
	if bolt, ok := cat.(*store.BoltCatalog); ok {
		meta := bolt.Meta()
		fmt.Printf("Path:       %s\n", config.CatalogPath(GetRootDir(), cfg))
		fmt.Printf("Schema:     v%d\n", meta.SchemaVersion)
		fmt.Printf("Updated:    %s\n", meta.UpdatedAt.Format(time.RFC3339))
	}
	return nil
}
