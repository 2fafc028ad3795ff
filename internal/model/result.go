package model

import (
	"sort"
	"time"
)

// ParsedFile is a source file that yielded at least one construct.
type ParsedFile struct {
	Path       string       `json:"file_path" yaml:"file_path"`
	Language   string       `json:"language" yaml:"language"`
	Constructs []*Construct `json:"constructs" yaml:"constructs"`
}

// Stats aggregates corpus counters for one analysis run.
type Stats struct {
	TotalFiles  int      `json:"total_files" yaml:"total_files"`
	ParsedFiles int      `json:"parsed_files" yaml:"parsed_files"`
	Languages   []string `json:"languages" yaml:"languages"`
}

// AddLanguage records lang in the observed-language set, keeping it sorted.
func (s *Stats) AddLanguage(lang string) {
	if s.HasLanguage(lang) {
		return
	}
	i := sort.SearchStrings(s.Languages, lang)
	s.Languages = append(s.Languages, "")
	copy(s.Languages[i+1:], s.Languages[i:])
	s.Languages[i] = lang
}

// HasLanguage reports whether lang was observed.
func (s *Stats) HasLanguage(lang string) bool {
	i := sort.SearchStrings(s.Languages, lang)
	return i < len(s.Languages) && s.Languages[i] == lang
}

// AnalysisResult is the output of one analysis run. ClassSummaries is keyed by
// bare class name, so same-named classes from different files share one entry.
type AnalysisResult struct {
	Files          []ParsedFile      `json:"files" yaml:"files"`
	Stats          Stats             `json:"stats" yaml:"stats"`
	ClassSummaries map[string]string `json:"class_summaries,omitempty" yaml:"class_summaries,omitempty"`
	ReadmeContent  string            `json:"readme_content,omitempty" yaml:"readme_content,omitempty"`
	AnalyzedAt     time.Time         `json:"analyzed_at" yaml:"analyzed_at"`
}

// Constructs returns every construct in file order, then declaration order.
func (r *AnalysisResult) Constructs() []*Construct {
	var all []*Construct
	for _, f := range r.Files {
		all = append(all, f.Constructs...)
	}
	return all
}

// FileConstruct pairs a construct with the language of the file it came from.
type FileConstruct struct {
	Construct *Construct
	Language  string
	Path      string
}

// Classes returns every class construct in file order with its file language.
func (r *AnalysisResult) Classes() []FileConstruct {
	var classes []FileConstruct
	for _, f := range r.Files {
		for _, c := range f.Constructs {
			if c.IsClass() {
				classes = append(classes, FileConstruct{Construct: c, Language: f.Language, Path: f.Path})
			}
		}
	}
	return classes
}

// Summary is the compact view of a result stored on the project record.
type Summary struct {
	Files     int      `json:"files" yaml:"files"`
	Classes   int      `json:"classes" yaml:"classes"`
	Functions int      `json:"functions" yaml:"functions"`
	Methods   int      `json:"methods" yaml:"methods"`
	Languages []string `json:"languages" yaml:"languages"`
}

// Summarize counts constructs by kind.
func (r *AnalysisResult) Summarize() Summary {
	s := Summary{Files: len(r.Files), Languages: r.Stats.Languages}
	for _, c := range r.Constructs() {
		switch c.Kind {
		case KindClass:
			s.Classes++
		case KindFunction:
			s.Functions++
		case KindMethod:
			s.Methods++
		}
	}
	return s
}
