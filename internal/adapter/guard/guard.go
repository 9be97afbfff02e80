// Package guard wraps the external capabilities with a per-call timeout and
// a single retry with backoff.
package guard

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/rs/zerolog"

	"furnish/internal/domain"
	"furnish/internal/port"
)

// Policy bounds one external call.
type Policy struct {
	Timeout time.Duration // per attempt; 0 means no extra bound
	Backoff time.Duration // wait before the retry
	Retries uint          // extra attempts after the first
}

// Do runs fn under p. A done parent ctx stops retrying and its error is
// returned as is; permanent errors are not retried.
func Do(ctx context.Context, p Policy, op string, fn func(ctx context.Context) error) error {
	attempt := func() error {
		actx := ctx
		if p.Timeout > 0 {
			var cancel context.CancelFunc
			actx, cancel = context.WithTimeout(ctx, p.Timeout)
			defer cancel()
		}
		return fn(actx)
	}

	err := retry.Do(attempt,
		retry.Context(ctx),
		retry.Attempts(p.Retries+1),
		retry.Delay(p.Backoff),
		retry.DelayType(retry.FixedDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return ctx.Err() == nil && !errors.Is(err, domain.ErrDimensionMismatch)
		}),
		retry.OnRetry(func(n uint, err error) {
			zerolog.Ctx(ctx).Debug().Err(err).Str("op", op).Uint("attempt", n+1).Msg("retrying")
		}),
	)
	if err == nil {
		return nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

// Embedder guards a port.Embedder. Exhausted calls fail with
// domain.ErrUpstreamTimeout.
type Embedder struct {
	inner  port.Embedder
	policy Policy
}

func NewEmbedder(inner port.Embedder, policy Policy) *Embedder {
	return &Embedder{inner: inner, policy: policy}
}

func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := Do(ctx, e.policy, "embed", func(ctx context.Context) error {
		var err error
		vec, err = e.inner.Embed(ctx, text)
		return err
	})
	if err != nil {
		return nil, upstream(ctx, "embedder", err)
	}
	return vec, nil
}

func (e *Embedder) Dimension() int    { return e.inner.Dimension() }
func (e *Embedder) ModelName() string { return e.inner.ModelName() }

// Catalog guards a port.CatalogIndex.
type Catalog struct {
	inner  port.CatalogIndex
	policy Policy
}

func NewCatalog(inner port.CatalogIndex, policy Policy) *Catalog {
	return &Catalog{inner: inner, policy: policy}
}

func (c *Catalog) NearestNeighbors(ctx context.Context, vector []float32, limit int, filters domain.Filters) ([]port.Neighbor, error) {
	var out []port.Neighbor
	err := Do(ctx, c.policy, "search", func(ctx context.Context) error {
		var err error
		out, err = c.inner.NearestNeighbors(ctx, vector, limit, filters)
		return err
	})
	if err != nil {
		return nil, upstream(ctx, "catalog", err)
	}
	return out, nil
}

// Generator guards a port.Generator. Failures are reported as
// domain.ErrGenerationUnavailable so callers can fall back.
type Generator struct {
	inner  port.Generator
	policy Policy
}

func NewGenerator(inner port.Generator, policy Policy) *Generator {
	return &Generator{inner: inner, policy: policy}
}

func (g *Generator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	var text string
	err := Do(ctx, g.policy, "generate", func(ctx context.Context) error {
		var err error
		text, err = g.inner.Generate(ctx, prompt, maxTokens)
		return err
	})
	if err != nil {
		if errors.Is(err, domain.ErrGenerationUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", domain.ErrGenerationUnavailable, err)
	}
	return text, nil
}

func (g *Generator) ModelName() string { return g.inner.ModelName() }

// upstream classifies a failed embedder or catalog call. Cancellation of the
// request is passed through untouched.
func upstream(ctx context.Context, what string, err error) error {
	if ctx.Err() != nil || errors.Is(err, domain.ErrDimensionMismatch) {
		return err
	}
	return fmt.Errorf("%w: %s: %w", domain.ErrUpstreamTimeout, what, err)
}
