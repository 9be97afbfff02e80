package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"furnish/internal/api"
)

var (
	serveAddr        string
	serveCatalogFile string
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the recommendation HTTP API",
	Long: `Serve POST /recommend, GET /healthz and GET /metrics.

Examples:
  furnish serve
  furnish serve --addr :9000
  furnish serve --catalog-file ./catalog.json   # with catalog.backend: memory`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
	serveCmd.Flags().StringVar(&serveCatalogFile, "catalog-file", "", "catalog file or directory to import at startup")
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()
	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx = logger.WithContext(ctx)

	engine, cat, err := buildEngine(ctx, cfg, serveCatalogFile)
	if err != nil {
		return err
	}
	defer cat.Close()

	if n, err := cat.Count(ctx); err == nil {
		logger.Info().Int("items", n).Str("backend", cfg.Catalog.Backend).Msg("catalog ready")
		if n == 0 {
			logger.Warn().Msg("catalog is empty; run 'furnish catalog import' first")
		}
	}

	srv := &http.Server{
		Addr:              addr,
		Handler:           api.NewHandler(engine, logger, cfg.Server.AllowedOrigins),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info().Str("addr", addr).Msg("listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Engine.RequestTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
