package docgen

import (
	"context"
	"sort"

	"github.com/julianshen/codesage/internal/generation"
	"github.com/julianshen/codesage/internal/model"
)

// WriteReadme runs stage 3. With class summaries present it tries each
// configured model in order and keeps the first usable response; when every
// model fails, or no summaries exist, the README is rendered locally without
// a generation call. ReadmeContent is always set.
func (p *Pipeline) WriteReadme(ctx context.Context, info ProjectInfo, result *model.AnalysisResult) {
	data := readmeData{
		Name:        info.Name,
		Description: info.Description,
		Stats:       result.Stats,
		Classes:     sortedSummaries(result.ClassSummaries),
	}

	if len(data.Classes) > 0 {
		if text, ok := p.generateReadme(ctx, data); ok {
			result.ReadmeContent = text
			return
		}
		p.logger.Warn("all readme models failed, using local template", "models", p.cfg.ReadmeModels)
	}
	result.ReadmeContent = localReadme(data)
}

func (p *Pipeline) generateReadme(ctx context.Context, data readmeData) (string, bool) {
	prompt, err := render(readmeTmpl, data)
	if err != nil {
		p.logger.Warn("rendering readme prompt failed", "error", err)
		return "", false
	}

	for _, m := range p.cfg.ReadmeModels {
		text, err := p.gen.Generate(ctx, generation.Request{
			Prompt:      prompt,
			Model:       m,
			Temperature: p.cfg.ReadmeTemperature,
			MaxTokens:   p.cfg.ReadmeMaxTokens,
		})
		if generation.Usable(text, err) {
			p.logger.Info("readme generated", "model", m)
			return trimmed(text), true
		}
		p.logger.Warn("readme model failed", "model", m, "error", err)
	}
	return "", false
}

// localReadme renders the deterministic fallback document.
func localReadme(data readmeData) string {
	text, err := render(fallbackReadmeTmpl, data)
	if err != nil || text == "" {
		return "# " + data.Name + "\n"
	}
	return text
}

func sortedSummaries(m map[string]string) []classSummary {
	out := make([]classSummary, 0, len(m))
	for name, summary := range m {
		out = append(out, classSummary{Name: name, Summary: summary})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
