// internal/output/yaml.go
package output

import "gopkg.in/yaml.v3"

// YAMLFormatter outputs a Report as YAML.
type YAMLFormatter struct{}

// NewYAMLFormatter creates a new YAMLFormatter.
func NewYAMLFormatter() *YAMLFormatter {
	return &YAMLFormatter{}
}

// Format marshals the Report as YAML.
func (f *YAMLFormatter) Format(r *Report) ([]byte, error) {
	return yaml.Marshal(r)
}
