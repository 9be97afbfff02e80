package port

import "context"

// Generator produces free text. It is used for item blurbs only, never to
// decide control flow.
type Generator interface {
	// Generate completes the prompt using at most maxTokens tokens.
	Generate(ctx context.Context, prompt string, maxTokens int) (string, error)

	// ModelName returns the name of the model.
	ModelName() string
}
