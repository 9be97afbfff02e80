package llm

import (
	"context"
	"fmt"
	"os"
	"strings"
	"sync/atomic"

	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"

	"furnish/config"
	"furnish/internal/domain"
	"furnish/internal/port"
)

const systemPrompt = "You write short, factual product blurbs for a furniture store. Never invent facts."

// Provider configurations
var providers = map[string]struct {
	baseURL   string
	keyEnvVar string
}{
	"groq":     {"https://api.groq.com/openai/v1", "GROQ_API_KEY"},
	"openai":   {"https://api.openai.com/v1", "OPENAI_API_KEY"},
	"deepseek": {"https://api.deepseek.com/v1", "DEEPSEEK_API_KEY"},
	"ollama":   {"http://localhost:11434/v1", ""},
}

// Stats tracks generation usage.
type Stats struct {
	Calls       int64
	Failures    int64
	OutputChars int64
}

// ChatGenerator generates text through an OpenAI-compatible chat endpoint.
type ChatGenerator struct {
	client      openai.Client
	model       string
	temperature float64

	calls       atomic.Int64
	failures    atomic.Int64
	outputChars atomic.Int64
}

// NewChatGenerator creates a generator for a known provider or, with a
// base URL, any compatible endpoint.
func NewChatGenerator(cfg config.GenerationConfig) (*ChatGenerator, error) {
	p, ok := providers[cfg.Provider]
	if !ok && cfg.BaseURL == "" {
		return nil, fmt.Errorf("unknown provider: %s (set base_url for custom endpoints)", cfg.Provider)
	}

	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = p.baseURL
	}

	keyEnv := cfg.APIKeyEnv
	if keyEnv == "" || cfg.Provider == "ollama" {
		keyEnv = p.keyEnvVar
	}
	apiKey := "none"
	if keyEnv != "" {
		apiKey = os.Getenv(keyEnv)
		if apiKey == "" {
			return nil, fmt.Errorf("API key not found. Set %s environment variable", keyEnv)
		}
	}

	return &ChatGenerator{
		client:      openai.NewClient(option.WithAPIKey(apiKey), option.WithBaseURL(baseURL), option.WithMaxRetries(0)),
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}, nil
}

func (g *ChatGenerator) Generate(ctx context.Context, prompt string, maxTokens int) (string, error) {
	g.calls.Add(1)

	params := openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(prompt),
		},
		Temperature: openai.Float(g.temperature),
	}
	if maxTokens > 0 {
		params.MaxTokens = openai.Int(int64(maxTokens))
	}

	resp, err := g.client.Chat.Completions.New(ctx, params)
	if err != nil {
		g.failures.Add(1)
		return "", fmt.Errorf("%w: chat request failed: %w", domain.ErrGenerationUnavailable, err)
	}
	if len(resp.Choices) == 0 {
		g.failures.Add(1)
		return "", fmt.Errorf("%w: no response from LLM", domain.ErrGenerationUnavailable)
	}

	output := strings.TrimSpace(resp.Choices[0].Message.Content)
	g.outputChars.Add(int64(len(output)))
	return output, nil
}

func (g *ChatGenerator) ModelName() string {
	return g.model
}

// GetStats returns the current usage statistics.
func (g *ChatGenerator) GetStats() Stats {
	return Stats{
		Calls:       g.calls.Load(),
		Failures:    g.failures.Load(),
		OutputChars: g.outputChars.Load(),
	}
}

// Disabled is the generator used when generation is switched off. Every
// call reports domain.ErrGenerationUnavailable.
type Disabled struct{}

func (Disabled) Generate(context.Context, string, int) (string, error) {
	return "", fmt.Errorf("%w: generation disabled", domain.ErrGenerationUnavailable)
}

func (Disabled) ModelName() string { return "none" }

// New builds the generator named by cfg.Provider.
func New(cfg config.GenerationConfig) (port.Generator, error) {
	if cfg.Provider == "none" || cfg.Provider == "" {
		return Disabled{}, nil
	}
	return NewChatGenerator(cfg)
}
