package domain

import "errors"

var (
	// ErrValidation rejects a request before any external call is made.
	ErrValidation = errors.New("invalid request")

	// ErrUnresolvedReference marks a follow-up whose target item is ambiguous.
	// It is recovered locally into a clarifying question.
	ErrUnresolvedReference = errors.New("unresolved reference")

	// ErrUpstreamTimeout means the Embedder or Catalog Index stayed
	// unreachable after retry. The request fails; the caller may retry.
	ErrUpstreamTimeout = errors.New("upstream unavailable")

	// ErrGenerationUnavailable means text generation failed or timed out.
	// Callers degrade to a deterministic template.
	ErrGenerationUnavailable = errors.New("generation unavailable")

	// ErrDimensionMismatch is a permanent catalog error; retrying cannot fix it.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
)
