// Package logging builds the zerolog loggers used across furnish and
// carries per-request identifiers through a context.
package logging

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"furnish/config"
)

type requestIDKey struct{}

// New creates a logger from the logging config, writing to w.
func New(cfg config.LoggingConfig, w io.Writer) (zerolog.Logger, error) {
	level := zerolog.InfoLevel
	if cfg.Level != "" {
		parsed, err := zerolog.ParseLevel(strings.ToLower(cfg.Level))
		if err != nil {
			return zerolog.Nop(), fmt.Errorf("failed to parse log level %q: %w", cfg.Level, err)
		}
		level = parsed
	}

	if w == nil {
		w = os.Stderr
	}
	if cfg.Format != "json" {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.Kitchen}
	}

	return zerolog.New(w).Level(level).With().Timestamp().Logger(), nil
}

// WithRequestID returns a context carrying id and a logger tagged with it.
// An empty id is replaced by a fresh UUID.
func WithRequestID(ctx context.Context, base zerolog.Logger, id string) (context.Context, string) {
	if id == "" {
		id = uuid.NewString()
	}
	logger := base.With().Str("request_id", id).Logger()
	ctx = context.WithValue(ctx, requestIDKey{}, id)
	return logger.WithContext(ctx), id
}

// RequestID returns the id stored by WithRequestID, or "".
func RequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey{}).(string)
	return id
}
