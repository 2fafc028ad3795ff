// cmd/codesage/app.go
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/julianshen/codesage/internal/config"
	"github.com/julianshen/codesage/internal/docgen"
	"github.com/julianshen/codesage/internal/fetcher"
	"github.com/julianshen/codesage/internal/generation"
	"github.com/julianshen/codesage/internal/logging"
	"github.com/julianshen/codesage/internal/parser"
	"github.com/julianshen/codesage/internal/project"
	"github.com/julianshen/codesage/internal/store"
	"github.com/julianshen/codesage/internal/walker"
)

// app holds the wired collaborators shared by subcommands.
type app struct {
	cfg    *config.Config
	logger *slog.Logger
	store  *store.Store
	ctrl   *project.Controller
}

// newApp loads configuration and wires the project controller. When
// needGenerator is false a provider that cannot be configured (for example a
// missing API key) does not prevent read-only commands from running.
func newApp(needGenerator bool) (*app, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	logger := logging.NewLogger(os.Stderr, cfg.Log)

	gen, err := generation.New(cfg.Generation)
	if err != nil {
		if needGenerator {
			return nil, fmt.Errorf("creating generator: %w", err)
		}
		genErr := err
		gen = generation.GeneratorFunc(func(context.Context, generation.Request) (string, error) {
			return "", genErr
		})
	}

	st, err := store.Open(cfg.Store.Driver, cfg.Store.DSN)
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}

	opts := []project.Option{project.WithLogger(logger)}
	if cfg.Fetch.Metadata {
		resolver, err := fetcher.NewMetadataResolver(
			cfg.Fetch.GitHubToken,
			cfg.Fetch.GitLabToken,
			cfg.Fetch.GitLabBaseURL,
			fetcher.WithMetadataLogger(logger),
		)
		if err != nil {
			logger.Warn("repository metadata disabled", "error", err)
		} else {
			opts = append(opts, project.WithMetadataResolver(resolver))
		}
	}

	ctrl := project.NewController(
		st,
		newFetcher(cfg.Fetch, logger),
		newWalker(cfg.Walk, logger),
		docgen.New(gen, cfg.Pipeline, logger),
		opts...,
	)
	return &app{cfg: cfg, logger: logger, store: st, ctrl: ctrl}, nil
}

func newFetcher(cfg config.FetchConfig, logger *slog.Logger) *fetcher.Fetcher {
	return fetcher.New(
		fetcher.WithGitBinary(cfg.GitBinary),
		fetcher.WithDepth(cfg.Depth),
		fetcher.WithTimeout(cfg.Timeout()),
		fetcher.WithWorkDir(cfg.WorkDir),
		fetcher.WithLogger(logger),
	)
}

func newWalker(cfg config.WalkConfig, logger *slog.Logger) *walker.Walker {
	return walker.New(newRegistry(cfg.JavaScriptExtractor),
		walker.WithSkipDirs(cfg.SkipDirs...),
		walker.WithMaxFileBytes(cfg.MaxFileBytes),
		walker.WithLogger(logger),
	)
}

// newRegistry returns the default registry, switching JavaScript to the
// pattern extractor when configured.
func newRegistry(javascriptExtractor string) *parser.Registry {
	registry := parser.DefaultRegistry()
	if javascriptExtractor == "pattern" {
		registry.UsePattern("javascript")
	}
	return registry
}

// Close waits for background analysis runs and closes the store.
func (a *app) Close() error {
	a.ctrl.Wait()
	return a.store.Close()
}

// owner returns the caller identity for ownership checks.
func owner() (string, error) {
	if ownerFlag == "" {
		return "", errors.New("no owner identity: pass --owner or set $USER")
	}
	return ownerFlag, nil
}
