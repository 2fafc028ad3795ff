// Package parser turns source text into code constructs. Two extractor
// families share one contract: a tree-sitter grammar extractor for languages
// with a structural parser, and a regexp/brace-balance pattern extractor for a
// lightweight path. A Registry routes files to extractors by extension.
package parser

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/julianshen/codesage/internal/model"
)

// Extractor turns the contents of one file into constructs. Implementations
// are pure functions of their input and safe for concurrent use.
type Extractor interface {
	Extract(source []byte) ([]*model.Construct, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(source []byte) ([]*model.Construct, error)

// Extract calls f(source).
func (f ExtractorFunc) Extract(source []byte) ([]*model.Construct, error) {
	return f(source)
}

// Language pairs a language tag with the extractor used for it.
type Language struct {
	Name      string
	Extractor Extractor
}

// Registry maps file extensions to languages.
type Registry struct {
	byExt map[string]Language
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{byExt: make(map[string]Language)}
}

// DefaultRegistry returns a registry with every built-in language: all
// tree-sitter grammars plus PHP on the pattern extractor.
func DefaultRegistry() *Registry {
	r := NewRegistry()
	for _, g := range grammars {
		ex := NewGrammarExtractor(g)
		for _, ext := range g.extensions {
			r.Register(ext, g.language, ex)
		}
	}
	r.Register(".php", "php", NewPatternExtractor())
	return r
}

// Register maps ext (with leading dot) to language and extractor,
// replacing any previous mapping.
func (r *Registry) Register(ext, language string, ex Extractor) {
	r.byExt[strings.ToLower(ext)] = Language{Name: language, Extractor: ex}
}

// UsePattern switches every extension mapped to language over to the
// pattern extractor. It returns the number of extensions switched.
func (r *Registry) UsePattern(language string) int {
	ex := NewPatternExtractor()
	n := 0
	for ext, l := range r.byExt {
		if l.Name == language {
			r.byExt[ext] = Language{Name: language, Extractor: ex}
			n++
		}
	}
	return n
}

// Lookup returns the language registered for path's extension.
func (r *Registry) Lookup(path string) (Language, bool) {
	l, ok := r.byExt[strings.ToLower(filepath.Ext(path))]
	return l, ok
}

// Extensions returns the registered extensions, sorted.
func (r *Registry) Extensions() []string {
	exts := make([]string, 0, len(r.byExt))
	for ext := range r.byExt {
		exts = append(exts, ext)
	}
	sort.Strings(exts)
	return exts
}
