// Package docgen enriches an AnalysisResult with generated documentation in
// three ordered stages: per-construct docs, per-class summaries, and a
// project README.
package docgen

import (
	"context"
	"fmt"
	"log/slog"
	"unicode/utf8"

	"github.com/julianshen/codesage/internal/config"
	"github.com/julianshen/codesage/internal/generation"
	"github.com/julianshen/codesage/internal/logging"
	"github.com/julianshen/codesage/internal/model"
)

// Placeholder texts recorded when generation is skipped or fails.
const (
	DocFailurePlaceholder     = "Documentation generation failed."
	NoSummaryPlaceholder      = "No summary available."
	SummaryFailurePlaceholder = "Summary generation failed."
)

// ProjectInfo describes the repository being documented.
type ProjectInfo struct {
	Name        string
	URL         string
	Description string
}

// Pipeline runs the documentation stages against a Generator.
type Pipeline struct {
	gen    generation.Generator
	cfg    config.PipelineConfig
	logger *slog.Logger
}

// New creates a Pipeline. Zero concurrency runs one call at a time.
func New(gen generation.Generator, cfg config.PipelineConfig, logger *slog.Logger) *Pipeline {
	if cfg.Concurrency < 1 {
		cfg.Concurrency = 1
	}
	return &Pipeline{gen: gen, cfg: cfg, logger: logging.OrDiscard(logger)}
}

// Run executes stage 1, 2 and 3 in order over result. Generation failures
// degrade to placeholders; only cancellation of ctx between stages aborts.
func (p *Pipeline) Run(ctx context.Context, info ProjectInfo, result *model.AnalysisResult) error {
	stages := []struct {
		name string
		run  func()
	}{
		{"construct documentation", func() { p.DocumentConstructs(ctx, result) }},
		{"class summaries", func() { p.SummarizeClasses(ctx, result) }},
		{"project readme", func() { p.WriteReadme(ctx, info, result) }},
	}
	for _, s := range stages {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("before %s: %w", s.name, err)
		}
		p.logger.Info("pipeline stage started", "stage", s.name, "project", info.Name)
		s.run()
	}
	return nil
}

// truncate shortens s to at most n bytes on a rune boundary. n <= 0 keeps s.
func truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "\n..."
}
