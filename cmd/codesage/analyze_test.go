package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runGit(t *testing.T, dir string, args ...string) {
	t.Helper()
	cmd := exec.CommandContext(context.Background(), "git", args...)
	cmd.Dir = dir
	out, err := cmd.CombinedOutput()
	require.NoError(t, err, "git %v failed: %s", args, string(out))
}

// initRepo creates a one-commit repository and returns its file:// URL.
func initRepo(t *testing.T) string {
	t.Helper()
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := filepath.Join(t.TempDir(), "sample")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	runGit(t, dir, "init")
	runGit(t, dir, "config", "user.email", "test@test.com")
	runGit(t, dir, "config", "user.name", "Test")
	src := "def main():\n    pass\n\nclass Greeter:\n    def greet(self):\n        return 'hi'\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.py"), []byte(src), 0o644))
	runGit(t, dir, "add", "main.py")
	runGit(t, dir, "commit", "-m", "initial")
	return "file://" + dir
}

// writeConfig points the CLI at a temporary SQLite store and an Ollama
// server at baseURL.
func writeConfig(t *testing.T, baseURL string) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "config.toml")
	cfg := fmt.Sprintf(`
[generation]
provider = "ollama"
base_url = %q
api_key_source = "none"

[pipeline]
construct_model = "llama3"
class_model = "llama3"
readme_models = ["llama3"]
concurrency = 2

[store]
driver = "sqlite"
dsn = %q

[fetch]
work_dir = %q
metadata = false

[log]
level = "error"
`, baseURL, filepath.Join(dir, "codesage.db"), dir)
	require.NoError(t, os.WriteFile(path, []byte(cfg), 0o644))
	return path
}

func execute(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func fakeOllama(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Prompt string `json:"prompt"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		text := "Generated documentation."
		if strings.Contains(req.Prompt, "README") {
			text = "# sample\n\nA sample project."
		}
		json.NewEncoder(w).Encode(map[string]any{"response": text, "done": true})
	}))
	t.Cleanup(server.Close)
	return server
}

func TestAnalyzeURLEndToEnd(t *testing.T) {
	url := initRepo(t)
	cfgPath := writeConfig(t, fakeOllama(t).URL)

	out, errOut, err := execute(t, "--config", cfgPath, "--owner", "alice", "analyze", url, "--format", "json")
	require.NoError(t, err, errOut)
	assert.Contains(t, errOut, "Created project")
	assert.Contains(t, errOut, "completed")

	var report struct {
		Project struct {
			ID     string `json:"id"`
			Name   string `json:"name"`
			Status string `json:"status"`
		} `json:"project"`
		Analysis struct {
			Files []struct {
				Path       string `json:"file_path"`
				Constructs []struct {
					Name          string `json:"name"`
					Documentation string `json:"documentation"`
				} `json:"constructs"`
			} `json:"files"`
			ClassSummaries map[string]string `json:"class_summaries"`
			ReadmeContent  string            `json:"readme_content"`
		} `json:"analysis"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	assert.Equal(t, "sample", report.Project.Name)
	assert.Equal(t, "completed", report.Project.Status)
	require.Len(t, report.Analysis.Files, 1)
	assert.Equal(t, "main.py", report.Analysis.Files[0].Path)
	for _, c := range report.Analysis.Files[0].Constructs {
		assert.NotEmpty(t, c.Documentation, c.Name)
	}
	assert.Contains(t, report.Analysis.ClassSummaries, "Greeter")
	assert.NotEmpty(t, report.Analysis.ReadmeContent)

	listOut, _, err := execute(t, "--config", cfgPath, "--owner", "alice", "project", "list")
	require.NoError(t, err)
	assert.Contains(t, listOut, report.Project.ID)
	assert.Contains(t, listOut, "sample")

	showOut, _, err := execute(t, "--config", cfgPath, "--owner", "alice", "show", report.Project.ID, "--format", "yaml")
	require.NoError(t, err)
	assert.Contains(t, showOut, "status: completed")

	_, _, err = execute(t, "--config", cfgPath, "--owner", "bob", "show", report.Project.ID)
	assert.ErrorContains(t, err, "forbidden")
}

func TestAnalyzeFetchFailureReportsError(t *testing.T) {
	cfgPath := writeConfig(t, fakeOllama(t).URL)
	missing := "file://" + filepath.Join(t.TempDir(), "does-not-exist")
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}

	_, errOut, err := execute(t, "--config", cfgPath, "--owner", "alice", "analyze", missing)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "analysis of does-not-exist failed")
	assert.Contains(t, errOut, "failed")
}

func TestProjectCreateAndShowWithoutAnalysis(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")

	out, _, err := execute(t, "--config", cfgPath, "--owner", "alice", "project", "create", "https://github.com/julianshen/codesage.git")
	require.NoError(t, err)
	assert.Contains(t, out, "(codesage)")
	id := strings.Fields(strings.TrimPrefix(out, "Created project "))[0]

	showOut, _, err := execute(t, "--config", cfgPath, "--owner", "alice", "show", id)
	require.NoError(t, err)
	assert.Contains(t, showOut, "# codesage")
	assert.Contains(t, showOut, "- **Status:** created")
	assert.Contains(t, showOut, "*No analysis available.*")
}

func TestProjectDelete(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")

	out, _, err := execute(t, "--config", cfgPath, "--owner", "alice", "project", "create", "https://github.com/a/one")
	require.NoError(t, err)
	id := strings.Fields(strings.TrimPrefix(out, "Created project "))[0]

	_, _, err = execute(t, "--config", cfgPath, "--owner", "bob", "project", "delete", id)
	assert.ErrorContains(t, err, "forbidden")

	out, _, err = execute(t, "--config", cfgPath, "--owner", "alice", "project", "delete", id)
	require.NoError(t, err)
	assert.Equal(t, "Deleted project "+id+"\n", out)

	_, _, err = execute(t, "--config", cfgPath, "--owner", "alice", "show", id)
	assert.ErrorContains(t, err, "not found")
}

func TestProjectCreateRejectsInvalidURL(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")
	_, _, err := execute(t, "--config", cfgPath, "--owner", "alice", "project", "create", "not a url")
	assert.ErrorContains(t, err, "invalid repository url")
}

func TestCommandsRequireOwner(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")
	_, _, err := execute(t, "--config", cfgPath, "--owner", "", "project", "list")
	assert.ErrorContains(t, err, "no owner identity")
}

func TestShowRejectsUnknownFormat(t *testing.T) {
	cfgPath := writeConfig(t, "http://127.0.0.1:1")
	_, _, err := execute(t, "--config", cfgPath, "--owner", "alice", "show", "p1", "--format", "xml")
	assert.ErrorContains(t, err, `unknown output format "xml"`)
}

func splitLines(s string) []string {
	return strings.Split(strings.TrimRight(s, "\n"), "\n")
}
