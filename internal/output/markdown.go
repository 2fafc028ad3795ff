// internal/output/markdown.go
package output

import (
	"fmt"
	"sort"
	"strings"

	"github.com/julianshen/codesage/internal/model"
)

// MarkdownFormatter outputs a Report as human-readable Markdown.
type MarkdownFormatter struct{}

// NewMarkdownFormatter creates a new MarkdownFormatter.
func NewMarkdownFormatter() *MarkdownFormatter {
	return &MarkdownFormatter{}
}

// Format renders the Report as Markdown. A completed analysis with generated
// README content leads with that content; the construct reference follows.
func (f *MarkdownFormatter) Format(r *Report) ([]byte, error) {
	var b strings.Builder
	p := r.Project

	if p != nil {
		fmt.Fprintf(&b, "# %s\n\n", p.Name)
		fmt.Fprintf(&b, "- **Repository:** %s\n", p.RemoteURL)
		fmt.Fprintf(&b, "- **Status:** %s\n", p.Status)
		if p.AnalyzedAt != nil {
			fmt.Fprintf(&b, "- **Analyzed:** %s\n", p.AnalyzedAt.Format("2006-01-02 15:04 MST"))
		}
		if p.Error != "" {
			fmt.Fprintf(&b, "\n## Error\n\n%s\n", p.Error)
		}
		b.WriteString("\n")
	}

	a := r.Analysis
	if a == nil {
		b.WriteString("*No analysis available.*\n")
		return []byte(b.String()), nil
	}

	fmt.Fprintf(&b, "%d of %d files analyzed", a.Stats.ParsedFiles, a.Stats.TotalFiles)
	if len(a.Stats.Languages) > 0 {
		fmt.Fprintf(&b, " (%s)", strings.Join(a.Stats.Languages, ", "))
	}
	b.WriteString(".\n\n")

	if a.ReadmeContent != "" {
		b.WriteString("---\n\n")
		b.WriteString(strings.TrimSpace(a.ReadmeContent))
		b.WriteString("\n\n---\n\n")
	}

	if len(a.ClassSummaries) > 0 {
		b.WriteString("## Class Summaries\n\n")
		names := make([]string, 0, len(a.ClassSummaries))
		for name := range a.ClassSummaries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(&b, "### %s\n\n%s\n\n", name, strings.TrimSpace(a.ClassSummaries[name]))
		}
	}

	if len(a.Files) > 0 {
		b.WriteString("## Reference\n")
		for _, file := range a.Files {
			fmt.Fprintf(&b, "\n### `%s` (%s)\n\n", file.Path, file.Language)
			for _, c := range file.Constructs {
				if c.Kind == model.KindMethod {
					continue
				}
				writeConstruct(&b, c, "")
				for _, m := range c.Methods {
					writeConstruct(&b, m, "  ")
				}
			}
		}
	}
	return []byte(b.String()), nil
}

func writeConstruct(b *strings.Builder, c *model.Construct, indent string) {
	fmt.Fprintf(b, "%s- **%s** `%s`", indent, c.Kind, c.Name)
	if c.Line != model.UnknownLine {
		fmt.Fprintf(b, " line %d", c.Line)
	}
	if doc := strings.TrimSpace(c.Documentation); doc != "" {
		fmt.Fprintf(b, ": %s", firstLine(doc))
	}
	b.WriteString("\n")
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return s[:i]
	}
	return s
}
