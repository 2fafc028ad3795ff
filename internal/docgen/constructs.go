package docgen

import (
	"context"

	"github.com/sourcegraph/conc/pool"

	"github.com/julianshen/codesage/internal/generation"
	"github.com/julianshen/codesage/internal/model"
)

// DocumentConstructs runs stage 1: one generation call per construct with a
// snippet. Each call writes only its own construct's Documentation, and a
// failed call records DocFailurePlaceholder. Constructs without a snippet are
// left undocumented.
func (p *Pipeline) DocumentConstructs(ctx context.Context, result *model.AnalysisResult) {
	wp := pool.New().WithMaxGoroutines(p.cfg.Concurrency)
	seen := make(map[*model.Construct]bool)
	documented := 0

	for _, f := range result.Files {
		for _, c := range f.Constructs {
			if c.Snippet == "" || seen[c] {
				continue
			}
			seen[c] = true
			documented++
			c, lang, path := c, f.Language, f.Path
			wp.Go(func() {
				c.Documentation = p.documentConstruct(ctx, c, lang, path)
			})
		}
	}

	wp.Wait()
	p.logger.Info("constructs documented", "count", documented)
}

func (p *Pipeline) documentConstruct(ctx context.Context, c *model.Construct, lang, path string) string {
	prompt, err := render(constructTmpl, struct {
		Language    string
		Kind        model.Kind
		Name        string
		ParentClass string
		Snippet     string
	}{lang, c.Kind, c.Name, c.ParentClass, truncate(c.Snippet, p.cfg.MaxSnippetChars)})
	if err != nil {
		p.logger.Warn("rendering construct prompt failed", "construct", c.Name, "error", err)
		return DocFailurePlaceholder
	}

	text, err := p.gen.Generate(ctx, generation.Request{
		Prompt:      prompt,
		Model:       p.cfg.ConstructModel,
		Temperature: p.cfg.ConstructTemperature,
		MaxTokens:   p.cfg.ConstructMaxTokens,
	})
	if !generation.Usable(text, err) {
		p.logger.Warn("construct documentation failed",
			"construct", c.Name, "kind", c.Kind, "path", path, "error", err)
		return DocFailurePlaceholder
	}
	return trimmed(text)
}
