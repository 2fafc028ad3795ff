// internal/output/formatter_test.go
package output

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/julianshen/codesage/internal/model"
	"github.com/julianshen/codesage/internal/project"
)

func sampleReport() *Report {
	analyzed := time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
	bar := model.NewClass("Bar", 4, "class Bar:")
	baz := model.NewMethod("Bar", "baz", 5, "def baz(self):")
	baz.Documentation = "Does the baz.\nSecond line."
	_ = bar.AddMethod(baz)
	foo := model.NewFunction("foo", 1, "def foo():")
	foo.Documentation = "Returns one."

	return &Report{
		Project: &project.Project{
			ID:         "p1",
			Name:       "codesage",
			RemoteURL:  "https://github.com/julianshen/codesage",
			OwnerUID:   "alice",
			Status:     project.StatusCompleted,
			Settings:   map[string]any{},
			AnalyzedAt: &analyzed,
		},
		Analysis: &model.AnalysisResult{
			Files: []model.ParsedFile{
				{Path: "a.py", Language: "python", Constructs: []*model.Construct{foo, bar, baz}},
			},
			Stats:          model.Stats{TotalFiles: 3, ParsedFiles: 1, Languages: []string{"python"}},
			ClassSummaries: map[string]string{"Bar": "Bar holds baz."},
			ReadmeContent:  "# codesage\n\nAnalyzes repositories.",
			AnalyzedAt:     analyzed,
		},
	}
}

func TestNewFormatter(t *testing.T) {
	for name, want := range map[string]Formatter{
		"":         &MarkdownFormatter{},
		"markdown": &MarkdownFormatter{},
		"md":       &MarkdownFormatter{},
		"json":     &JSONFormatter{},
		"yaml":     &YAMLFormatter{},
		"yml":      &YAMLFormatter{},
	} {
		got, err := NewFormatter(name)
		require.NoError(t, err, name)
		assert.IsType(t, want, got, name)
	}

	_, err := NewFormatter("xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func TestJSONFormatter(t *testing.T) {
	out, err := NewJSONFormatter().Format(sampleReport())
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))

	p := decoded["project"].(map[string]any)
	assert.Equal(t, "codesage", p["name"])
	assert.Equal(t, "completed", p["status"])
	assert.Equal(t, "alice", p["owner_uid"])

	a := decoded["analysis"].(map[string]any)
	stats := a["stats"].(map[string]any)
	assert.Equal(t, float64(3), stats["total_files"])
	files := a["files"].([]any)
	require.Len(t, files, 1)
	assert.Equal(t, "a.py", files[0].(map[string]any)["file_path"])
}

func TestJSONFormatterWithoutAnalysis(t *testing.T) {
	r := sampleReport()
	r.Analysis = nil
	out, err := NewJSONFormatter().Format(r)
	require.NoError(t, err)

	var decoded map[string]any
	require.NoError(t, json.Unmarshal(out, &decoded))
	assert.NotContains(t, decoded, "analysis")
}

func TestYAMLFormatter(t *testing.T) {
	out, err := NewYAMLFormatter().Format(sampleReport())
	require.NoError(t, err)

	var decoded struct {
		Project struct {
			Name      string `yaml:"name"`
			RemoteURL string `yaml:"remote_url"`
			Status    string `yaml:"status"`
		} `yaml:"project"`
		Analysis struct {
			ClassSummaries map[string]string `yaml:"class_summaries"`
			Stats          struct {
				Languages []string `yaml:"languages"`
			} `yaml:"stats"`
		} `yaml:"analysis"`
	}
	require.NoError(t, yaml.Unmarshal(out, &decoded))
	assert.Equal(t, "codesage", decoded.Project.Name)
	assert.Equal(t, "https://github.com/julianshen/codesage", decoded.Project.RemoteURL)
	assert.Equal(t, "completed", decoded.Project.Status)
	assert.Equal(t, map[string]string{"Bar": "Bar holds baz."}, decoded.Analysis.ClassSummaries)
	assert.Equal(t, []string{"python"}, decoded.Analysis.Stats.Languages)
}

func TestWriteNonTerminalIsRaw(t *testing.T) {
	var buf bytes.Buffer
	f := NewMarkdownFormatter()
	require.NoError(t, Write(&buf, f, sampleReport()))

	want, err := f.Format(sampleReport())
	require.NoError(t, err)
	assert.Equal(t, string(want), buf.String())
}

func TestWriteJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, NewJSONFormatter(), sampleReport()))
	assert.True(t, json.Valid(buf.Bytes()))
}
