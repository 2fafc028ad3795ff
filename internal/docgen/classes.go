package docgen

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/julianshen/codesage/internal/generation"
	"github.com/julianshen/codesage/internal/model"
)

// SummarizeClasses runs stage 2: one summary per distinct class name, keyed
// by bare name. On a name collision the first class in file order wins.
// Classes without a snippet get NoSummaryPlaceholder; failed calls get
// SummaryFailurePlaceholder.
func (p *Pipeline) SummarizeClasses(ctx context.Context, result *model.AnalysisResult) {
	summaries := make(map[string]string)
	seen := make(map[string]bool)
	var mu sync.Mutex

	g := new(errgroup.Group)
	g.SetLimit(p.cfg.Concurrency)

	for _, fc := range result.Classes() {
		name := fc.Construct.Name
		if seen[name] {
			p.logger.Debug("duplicate class name skipped", "class", name, "path", fc.Path)
			continue
		}
		seen[name] = true

		if fc.Construct.Snippet == "" {
			mu.Lock()
			summaries[name] = NoSummaryPlaceholder
			mu.Unlock()
			continue
		}

		fc := fc
		methods := ClassMethods(result, fc.Construct)
		g.Go(func() error {
			text := p.summarizeClass(ctx, fc, methods)
			mu.Lock()
			summaries[fc.Construct.Name] = text
			mu.Unlock()
			return nil
		})
	}

	_ = g.Wait()
	result.ClassSummaries = summaries
	p.logger.Info("classes summarized", "count", len(summaries))
}

func (p *Pipeline) summarizeClass(ctx context.Context, fc model.FileConstruct, methods []*model.Construct) string {
	c := fc.Construct
	prompt, err := render(classTmpl, struct {
		Language string
		Name     string
		Snippet  string
		Methods  []*model.Construct
	}{fc.Language, c.Name, truncate(c.Snippet, p.cfg.MaxSnippetChars), methods})
	if err != nil {
		p.logger.Warn("rendering class prompt failed", "class", c.Name, "error", err)
		return SummaryFailurePlaceholder
	}

	text, err := p.gen.Generate(ctx, generation.Request{
		Prompt:      prompt,
		Model:       p.cfg.ClassModel,
		Temperature: p.cfg.ClassTemperature,
		MaxTokens:   p.cfg.ClassMaxTokens,
	})
	if !generation.Usable(text, err) {
		p.logger.Warn("class summary failed", "class", c.Name, "path", fc.Path, "error", err)
		return SummaryFailurePlaceholder
	}
	return trimmed(text)
}

// ClassMethods gathers the methods of class from two sources: constructs in
// any file whose ParentClass equals the class name, then the class's own
// Methods list. The merge keeps the first method of each name.
func ClassMethods(result *model.AnalysisResult, class *model.Construct) []*model.Construct {
	seen := make(map[string]bool)
	var methods []*model.Construct
	add := func(m *model.Construct) {
		if m == nil || seen[m.Name] {
			return
		}
		seen[m.Name] = true
		methods = append(methods, m)
	}

	for _, c := range result.Constructs() {
		if c.Kind == model.KindMethod && c.ParentClass == class.Name {
			add(c)
		}
	}
	for _, m := range class.Methods {
		add(m)
	}
	return methods
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}
