// Package walker traverses a source tree, dispatches each file to the
// extractor registered for its extension, and aggregates the results.
package walker

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"unicode/utf8"

	"github.com/julianshen/codesage/internal/logging"
	"github.com/julianshen/codesage/internal/model"
	"github.com/julianshen/codesage/internal/parser"
)

// DefaultMaxFileBytes is the largest file handed to an extractor.
const DefaultMaxFileBytes = 1 << 20

// DefaultSkipDirs are directory names pruned before descent: version-control
// metadata, build output, dependency caches and virtual environments.
var DefaultSkipDirs = []string{
	".git", ".hg", ".svn",
	"node_modules", "bower_components", "vendor",
	"build", "dist", "out", "target",
	"__pycache__", ".mypy_cache", ".pytest_cache", ".tox",
	".venv", "venv", "env",
	".next", ".gradle",
}

// Walker builds an AnalysisResult from a directory tree.
type Walker struct {
	registry     *parser.Registry
	skipDirs     map[string]bool
	maxFileBytes int64
	logger       *slog.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithSkipDirs adds directory names to the pruning denylist.
func WithSkipDirs(names ...string) Option {
	return func(w *Walker) {
		for _, n := range names {
			w.skipDirs[n] = true
		}
	}
}

// WithMaxFileBytes sets the size limit above which files are skipped.
// Non-positive values keep the default.
func WithMaxFileBytes(n int64) Option {
	return func(w *Walker) {
		if n > 0 {
			w.maxFileBytes = n
		}
	}
}

// WithLogger sets the logger used for skipped-file diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(w *Walker) {
		w.logger = logging.OrDiscard(l)
	}
}

// New creates a Walker dispatching through registry.
func New(registry *parser.Registry, opts ...Option) *Walker {
	w := &Walker{
		registry:     registry,
		skipDirs:     make(map[string]bool, len(DefaultSkipDirs)),
		maxFileBytes: DefaultMaxFileBytes,
		logger:       logging.NewDiscardLogger(),
	}
	for _, d := range DefaultSkipDirs {
		w.skipDirs[d] = true
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Walk visits every regular file under root. Every visited file counts toward
// TotalFiles; only files that yield at least one construct are returned.
// Documentation fields are left empty.
func (w *Walker) Walk(ctx context.Context, root string) (*model.AnalysisResult, error) {
	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("walking %s: not a directory", root)
	}

	result := &model.AnalysisResult{Stats: model.Stats{Languages: []string{}}}
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if err != nil {
			if d != nil && d.IsDir() && path != root {
				w.logger.Warn("directory unreadable", "path", path, "error", err)
				return filepath.SkipDir
			}
			if path == root {
				return err
			}
			w.logger.Warn("path unreadable", "path", path, "error", err)
			return nil
		}
		if d.IsDir() {
			if path != root && w.skipDirs[d.Name()] {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.Type().IsRegular() {
			return nil
		}

		result.Stats.TotalFiles++
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)

		pf, ok := w.parseFile(path, rel, d)
		if !ok {
			return nil
		}
		result.Files = append(result.Files, pf)
		result.Stats.ParsedFiles++
		result.Stats.AddLanguage(pf.Language)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}

	w.logger.Debug("walk finished",
		"root", root,
		"total_files", result.Stats.TotalFiles,
		"parsed_files", result.Stats.ParsedFiles,
	)
	return result, nil
}

// parseFile reads and extracts one file. It reports false for every skip
// condition; none of them is an error for the walk.
func (w *Walker) parseFile(path, rel string, d fs.DirEntry) (model.ParsedFile, bool) {
	lang, ok := w.registry.Lookup(rel)
	if !ok {
		return model.ParsedFile{}, false
	}

	info, err := d.Info()
	if err != nil {
		w.logger.Warn("file unreadable", "path", rel, "error", err)
		return model.ParsedFile{}, false
	}
	if info.Size() > w.maxFileBytes {
		w.logger.Debug("file too large", "path", rel, "size", info.Size(), "limit", w.maxFileBytes)
		return model.ParsedFile{}, false
	}

	source, err := os.ReadFile(path)
	if err != nil {
		w.logger.Warn("file unreadable", "path", rel, "error", err)
		return model.ParsedFile{}, false
	}
	if !utf8.Valid(source) {
		w.logger.Debug("file not valid UTF-8", "path", rel)
		return model.ParsedFile{}, false
	}

	constructs, err := safeExtract(lang.Extractor, source)
	if err != nil {
		w.logger.Warn("extraction failed", "path", rel, "language", lang.Name, "error", err)
		return model.ParsedFile{}, false
	}
	constructs = w.valid(rel, constructs)
	if len(constructs) == 0 {
		return model.ParsedFile{}, false
	}
	return model.ParsedFile{Path: rel, Language: lang.Name, Constructs: constructs}, true
}

// valid drops constructs that violate the construct invariants.
func (w *Walker) valid(rel string, constructs []*model.Construct) []*model.Construct {
	out := constructs[:0]
	for _, c := range constructs {
		if err := c.Validate(); err != nil {
			w.logger.Debug("dropping invalid construct", "path", rel, "error", err)
			continue
		}
		out = append(out, c)
	}
	return out
}

// safeExtract runs ex, converting a panic into an error.
func safeExtract(ex parser.Extractor, source []byte) (constructs []*model.Construct, err error) {
	defer func() {
		if r := recover(); r != nil {
			constructs = nil
			err = fmt.Errorf("extractor panic: %v", r)
		}
	}()
	return ex.Extract(source)
}
