package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Config represents the top-level application configuration.
type Config struct {
	Generation GenerationConfig `toml:"generation"`
	Pipeline   PipelineConfig   `toml:"pipeline"`
	Store      StoreConfig      `toml:"store"`
	Fetch      FetchConfig      `toml:"fetch"`
	Walk       WalkConfig       `toml:"walk"`
	Log        LogConfig        `toml:"log"`
}

// GenerationConfig selects and configures the text-generation provider.
type GenerationConfig struct {
	Provider          string            `toml:"provider"`
	BaseURL           string            `toml:"base_url"`
	APIKeySource      string            `toml:"api_key_source"`
	APIKey            string            `toml:"api_key"`
	APIKeyEnv         string            `toml:"api_key_env"`
	ExtraHeaders      map[string]string `toml:"extra_headers"`
	TimeoutSeconds    int               `toml:"timeout_seconds"`
	RequestsPerMinute int               `toml:"requests_per_minute"`
}

// Timeout returns the per-call timeout.
func (g GenerationConfig) Timeout() time.Duration {
	return time.Duration(g.TimeoutSeconds) * time.Second
}

// PipelineConfig holds the models and sampling settings of the three
// documentation stages.
type PipelineConfig struct {
	ConstructModel       string   `toml:"construct_model"`
	ConstructTemperature float64  `toml:"construct_temperature"`
	ConstructMaxTokens   int      `toml:"construct_max_tokens"`
	ClassModel           string   `toml:"class_model"`
	ClassTemperature     float64  `toml:"class_temperature"`
	ClassMaxTokens       int      `toml:"class_max_tokens"`
	ReadmeModels         []string `toml:"readme_models"`
	ReadmeTemperature    float64  `toml:"readme_temperature"`
	ReadmeMaxTokens      int      `toml:"readme_max_tokens"`
	Concurrency          int      `toml:"concurrency"`
	MaxSnippetChars      int      `toml:"max_snippet_chars"`
}

// StoreConfig selects the record store backend. Driver is one of "sqlite",
// "postgres" or "mysql".
type StoreConfig struct {
	Driver string `toml:"driver"`
	DSN    string `toml:"dsn"`
}

// FetchConfig holds repository cloning and metadata lookup settings.
type FetchConfig struct {
	GitBinary      string `toml:"git_binary"`
	Depth          int    `toml:"depth"`
	TimeoutSeconds int    `toml:"timeout_seconds"`
	WorkDir        string `toml:"work_dir"`
	GitHubToken    string `toml:"github_token"`
	GitLabToken    string `toml:"gitlab_token"`
	GitLabBaseURL  string `toml:"gitlab_base_url"`
	Metadata       bool   `toml:"metadata"`
}

// Timeout returns the clone timeout.
func (f FetchConfig) Timeout() time.Duration {
	return time.Duration(f.TimeoutSeconds) * time.Second
}

// WalkConfig controls source tree traversal. SkipDirs extends the built-in
// denylist. JavaScriptExtractor is "grammar" or "pattern".
type WalkConfig struct {
	MaxFileBytes        int64    `toml:"max_file_bytes"`
	SkipDirs            []string `toml:"skip_dirs"`
	JavaScriptExtractor string   `toml:"javascript_extractor"`
}

// LogConfig holds logger settings. Format is "text" or "json".
type LogConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

// DefaultConfig returns a Config populated with sensible default values.
func DefaultConfig() *Config {
	return &Config{
		Generation: GenerationConfig{
			Provider:          "anthropic",
			APIKeySource:      "env",
			TimeoutSeconds:    60,
			RequestsPerMinute: 0,
		},
		Pipeline: PipelineConfig{
			ConstructModel:       "claude-haiku-4-5",
			ConstructTemperature: 0.2,
			ConstructMaxTokens:   512,
			ClassModel:           "claude-sonnet-4-5",
			ClassTemperature:     0.3,
			ClassMaxTokens:       1024,
			ReadmeModels:         []string{"claude-sonnet-4-5", "claude-haiku-4-5"},
			ReadmeTemperature:    0.4,
			ReadmeMaxTokens:      4096,
			Concurrency:          4,
			MaxSnippetChars:      4000,
		},
		Store: StoreConfig{
			Driver: "sqlite",
			DSN:    "codesage.db",
		},
		Fetch: FetchConfig{
			GitBinary:      "git",
			Depth:          1,
			TimeoutSeconds: 300,
			GitLabBaseURL:  "https://gitlab.com/api/v4",
			Metadata:       true,
		},
		Walk: WalkConfig{
			MaxFileBytes:        1 << 20,
			JavaScriptExtractor: "grammar",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load reads the TOML file at path over the defaults. A missing file yields
// the defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if _, err := toml.Decode(string(data), cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config file: %w", err)
	}
	return cfg, nil
}

// Validate checks enumerated settings and numeric bounds.
func (c *Config) Validate() error {
	switch c.Store.Driver {
	case "sqlite", "postgres", "mysql":
	default:
		return fmt.Errorf("unknown store driver: %q", c.Store.Driver)
	}
	switch c.Walk.JavaScriptExtractor {
	case "grammar", "pattern":
	default:
		return fmt.Errorf("unknown javascript_extractor: %q", c.Walk.JavaScriptExtractor)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format: %q", c.Log.Format)
	}
	if c.Pipeline.Concurrency < 1 {
		return fmt.Errorf("pipeline concurrency must be at least 1, got %d", c.Pipeline.Concurrency)
	}
	if len(c.Pipeline.ReadmeModels) == 0 {
		return errors.New("pipeline readme_models must not be empty")
	}
	if c.Fetch.Depth < 0 {
		return fmt.Errorf("fetch depth must not be negative, got %d", c.Fetch.Depth)
	}
	return nil
}
