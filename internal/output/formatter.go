// internal/output/formatter.go
package output

import (
	"fmt"

	"github.com/julianshen/codesage/internal/model"
	"github.com/julianshen/codesage/internal/project"
)

// Report is a project together with its latest analysis, if any.
type Report struct {
	Project  *project.Project      `json:"project" yaml:"project"`
	Analysis *model.AnalysisResult `json:"analysis,omitempty" yaml:"analysis,omitempty"`
}

// Formatter formats a Report into output bytes.
type Formatter interface {
	Format(r *Report) ([]byte, error)
}

// Formats lists the names accepted by NewFormatter.
var Formats = []string{"markdown", "json", "yaml"}

// NewFormatter returns the formatter registered under name.
func NewFormatter(name string) (Formatter, error) {
	switch name {
	case "markdown", "md", "":
		return NewMarkdownFormatter(), nil
	case "json":
		return NewJSONFormatter(), nil
	case "yaml", "yml":
		return NewYAMLFormatter(), nil
	default:
		return nil, fmt.Errorf("unknown output format %q (want one of %v)", name, Formats)
	}
}
