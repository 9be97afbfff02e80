package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/hashicorp/go-multierror"
	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the furnish service.
type Config struct {
	Engine        EngineConfig        `yaml:"engine"`
	Retrieve      RetrieveConfig      `yaml:"retrieve"`
	Contextualize ContextualizeConfig `yaml:"contextualize"`
	Synth         SynthConfig         `yaml:"synth"`
	Embedding     EmbeddingConfig     `yaml:"embedding"`
	Generation    GenerationConfig    `yaml:"generation"`
	Catalog       CatalogConfig       `yaml:"catalog"`
	Server        ServerConfig        `yaml:"server"`
	Logging       LoggingConfig       `yaml:"logging"`
}

// EngineConfig bounds a single conversational request.
type EngineConfig struct {
	RequestTimeout time.Duration `yaml:"request_timeout"`
	HistoryWindow  int           `yaml:"history_window"` // newest turns kept from the client history
}

// RetrieveConfig holds retrieval configuration.
type RetrieveConfig struct {
	TopK               int           `yaml:"top_k"`
	Headroom           int           `yaml:"headroom"` // extra neighbors requested to survive post-filtering
	PerfectMatchScore  float64       `yaml:"perfect_match_score"`
	PerfectMatchMargin float64       `yaml:"perfect_match_margin"`
	EmbedTimeout       time.Duration `yaml:"embed_timeout"`
	SearchTimeout      time.Duration `yaml:"search_timeout"`
	RetryBackoff       time.Duration `yaml:"retry_backoff"`
	CacheSize          int           `yaml:"cache_size"`
	CacheTTL           time.Duration `yaml:"cache_ttl"`
}

// ContextualizeConfig tunes how constraints carry across turns.
type ContextualizeConfig struct {
	MaxCarryTurns         int     `yaml:"max_carry_turns"`
	ResetOnCategoryChange bool    `yaml:"reset_on_category_change"`
	PriceStep             float64 `yaml:"price_step"` // fraction applied by "cheaper" / "more expensive"
}

// SynthConfig holds response synthesis configuration.
type SynthConfig struct {
	BlurbMaxChars   int           `yaml:"blurb_max_chars"`
	BlurbMaxTokens  int           `yaml:"blurb_max_tokens"`
	GenerateTimeout time.Duration `yaml:"generate_timeout"`
}

// EmbeddingConfig holds embedding configuration.
type EmbeddingConfig struct {
	Provider  string `yaml:"provider"`    // "openai", "ollama", "hash"
	Model     string `yaml:"model"`       // e.g., "text-embedding-3-small"
	BaseURL   string `yaml:"base_url"`    // OpenAI-compatible endpoint
	APIKeyEnv string `yaml:"api_key_env"` // Environment variable for API key
	Dimension int    `yaml:"dimension"`
}

// GenerationConfig holds configuration for the blurb generator.
type GenerationConfig struct {
	Provider    string  `yaml:"provider"` // "openai", "groq", "ollama", "none"
	Model       string  `yaml:"model"`
	BaseURL     string  `yaml:"base_url"`
	APIKeyEnv   string  `yaml:"api_key_env"`
	Temperature float64 `yaml:"temperature"`
}

// CatalogConfig selects the Catalog Index backend.
type CatalogConfig struct {
	Backend string       `yaml:"backend"` // "bolt", "memory", "milvus"
	Path    string       `yaml:"path"`    // bolt database file
	Milvus  MilvusConfig `yaml:"milvus"`
}

// MilvusConfig contains connection details for a Milvus collection.
type MilvusConfig struct {
	Address     string `yaml:"address"`
	Collection  string `yaml:"collection"`
	VectorField string `yaml:"vector_field"`
	APIKeyEnv   string `yaml:"api_key_env"`
}

// ServerConfig holds HTTP transport configuration.
type ServerConfig struct {
	Addr           string   `yaml:"addr"`
	AllowedOrigins []string `yaml:"allowed_origins"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "json" or "console"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Engine: EngineConfig{
			RequestTimeout: 20 * time.Second,
			HistoryWindow:  6,
		},
		Retrieve: RetrieveConfig{
			TopK:               5,
			Headroom:           5,
			PerfectMatchScore:  0.90,
			PerfectMatchMargin: 0.05,
			EmbedTimeout:       5 * time.Second,
			SearchTimeout:      5 * time.Second,
			RetryBackoff:       200 * time.Millisecond,
			CacheSize:          256,
			CacheTTL:           10 * time.Minute,
		},
		Contextualize: ContextualizeConfig{
			MaxCarryTurns:         3,
			ResetOnCategoryChange: true,
			PriceStep:             0.2,
		},
		Synth: SynthConfig{
			BlurbMaxChars:   140,
			BlurbMaxTokens:  48,
			GenerateTimeout: 4 * time.Second,
		},
		Embedding: EmbeddingConfig{
			Provider:  "hash",
			Model:     "text-embedding-3-small",
			APIKeyEnv: "OPENAI_API_KEY",
			Dimension: 384,
		},
		Generation: GenerationConfig{
			Provider:    "none",
			Model:       "llama-3.1-8b-instant",
			APIKeyEnv:   "GROQ_API_KEY",
			Temperature: 0,
		},
		Catalog: CatalogConfig{
			Backend: "bolt",
			Path:    filepath.Join(".furnish", "catalog.db"),
			Milvus: MilvusConfig{
				Address:     "localhost:19530",
				Collection:  "furniture",
				VectorField: "embedding",
				APIKeyEnv:   "MILVUS_TOKEN",
			},
		},
		Server: ServerConfig{
			Addr:           ":8000",
			AllowedOrigins: []string{"http://localhost:3000", "http://localhost:5173"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// Load loads configuration from a YAML file.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil // Return defaults if no config file
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// LoadFromDir loads configuration from a directory (looks for furnish.yaml).
func LoadFromDir(dir string) (*Config, error) {
	path := filepath.Join(dir, "furnish.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	path = filepath.Join(dir, ".furnish", "config.yaml")
	if _, err := os.Stat(path); err == nil {
		return Load(path)
	}

	return DefaultConfig(), nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var result *multierror.Error

	if c.Retrieve.TopK <= 0 {
		result = multierror.Append(result, fmt.Errorf("retrieve.top_k must be positive, got %d", c.Retrieve.TopK))
	}
	if c.Retrieve.Headroom < 0 {
		result = multierror.Append(result, fmt.Errorf("retrieve.headroom must not be negative, got %d", c.Retrieve.Headroom))
	}
	if c.Engine.RequestTimeout <= 0 {
		result = multierror.Append(result, fmt.Errorf("engine.request_timeout must be positive"))
	}
	if c.Engine.HistoryWindow < 0 {
		result = multierror.Append(result, fmt.Errorf("engine.history_window must not be negative"))
	}
	if c.Contextualize.PriceStep <= 0 || c.Contextualize.PriceStep >= 1 {
		result = multierror.Append(result, fmt.Errorf("contextualize.price_step must be in (0,1), got %g", c.Contextualize.PriceStep))
	}
	if c.Synth.BlurbMaxChars <= 0 {
		result = multierror.Append(result, fmt.Errorf("synth.blurb_max_chars must be positive"))
	}
	if c.Embedding.Dimension <= 0 {
		result = multierror.Append(result, fmt.Errorf("embedding.dimension must be positive"))
	}

	switch c.Catalog.Backend {
	case "bolt", "memory", "milvus":
	default:
		result = multierror.Append(result, fmt.Errorf("catalog.backend %q is not one of bolt, memory, milvus", c.Catalog.Backend))
	}

	switch c.Logging.Format {
	case "", "json", "console":
	default:
		result = multierror.Append(result, fmt.Errorf("logging.format %q is not one of json, console", c.Logging.Format))
	}

	return result.ErrorOrNil()
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// CatalogPath resolves the bolt catalog path against dir when relative.
func CatalogPath(dir string, cfg *Config) string {
	if filepath.IsAbs(cfg.Catalog.Path) {
		return cfg.Catalog.Path
	}
	return filepath.Join(dir, cfg.Catalog.Path)
}

// EnsureDataDir ensures the directory holding the catalog exists.
func EnsureDataDir(dir string, cfg *Config) error {
	return os.MkdirAll(filepath.Dir(CatalogPath(dir, cfg)), 0755)
}
