package generation

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/julianshen/codesage/internal/config"
)

// Options configures a provider client.
type Options struct {
	BaseURL      string
	APIKey       string
	ExtraHeaders map[string]string
	Timeout      time.Duration
}

// Constructor is a function that creates a new Generator.
type Constructor func(opts Options) Generator

// registry holds registered provider constructors.
var registry = map[string]Constructor{}

// Register registers a provider constructor by name.
func Register(name string, constructor Constructor) {
	registry[name] = constructor
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New creates a Generator for the configured provider, wrapped in a rate
// limiter when requests_per_minute is set.
func New(cfg config.GenerationConfig) (Generator, error) {
	constructor, ok := registry[cfg.Provider]
	if !ok {
		return nil, fmt.Errorf("unknown provider: %q (registered: %s)", cfg.Provider, strings.Join(Providers(), ", "))
	}

	apiKey, err := cfg.ResolveAPIKey()
	if err != nil {
		return nil, fmt.Errorf("resolving %s API key: %w", cfg.Provider, err)
	}

	gen := constructor(Options{
		BaseURL:      cfg.BaseURL,
		APIKey:       apiKey,
		ExtraHeaders: cfg.ExtraHeaders,
		Timeout:      cfg.Timeout(),
	})
	if cfg.RequestsPerMinute > 0 {
		gen = RateLimited(gen, float64(cfg.RequestsPerMinute)/60, 1)
	}
	return gen, nil
}
