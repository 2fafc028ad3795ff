package docgen

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/codesage/internal/config"
	"github.com/julianshen/codesage/internal/generation"
	"github.com/julianshen/codesage/internal/model"
)

type fakeGenerator struct {
	mu      sync.Mutex
	calls   []generation.Request
	respond func(req generation.Request) (string, error)
}

func (f *fakeGenerator) Generate(_ context.Context, req generation.Request) (string, error) {
	f.mu.Lock()
	f.calls = append(f.calls, req)
	f.mu.Unlock()
	if f.respond == nil {
		return "", errors.New("no responder")
	}
	return f.respond(req)
}

func (f *fakeGenerator) callsFor(model string) []generation.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []generation.Request
	for _, c := range f.calls {
		if c.Model == model {
			out = append(out, c)
		}
	}
	return out
}

func testConfig() config.PipelineConfig {
	return config.PipelineConfig{
		ConstructModel:  "construct-model",
		ClassModel:      "class-model",
		ReadmeModels:    []string{"readme-a", "readme-b", "readme-c"},
		Concurrency:     3,
		MaxSnippetChars: 2000,
	}
}

// sampleResult is the a.py/b.js scenario: foo, Bar{baz}, qux.
func sampleResult() *model.AnalysisResult {
	bar := model.NewClass("Bar", 4, "class Bar:\n    def baz(self):\n        pass")
	baz := model.NewMethod("Bar", "baz", 5, "def baz(self):\n        pass")
	_ = bar.AddMethod(baz)
	return &model.AnalysisResult{
		Files: []model.ParsedFile{
			{Path: "a.py", Language: "python", Constructs: []*model.Construct{
				model.NewFunction("foo", 1, "def foo():\n    return 1"),
				bar,
				baz,
			}},
			{Path: "b.js", Language: "javascript", Constructs: []*model.Construct{
				model.NewFunction("qux", 1, "function qux(){}"),
			}},
		},
		Stats: model.Stats{TotalFiles: 2, ParsedFiles: 2, Languages: []string{"javascript", "python"}},
	}
}

func echoDocs(req generation.Request) (string, error) {
	first := strings.SplitN(req.Prompt, "\n", 2)[0]
	return "doc: " + first + "\n", nil
}

func TestDocumentConstructs(t *testing.T) {
	gen := &fakeGenerator{respond: func(req generation.Request) (string, error) {
		if strings.Contains(req.Prompt, `"qux"`) {
			return "", errors.New("HTTP 500")
		}
		return echoDocs(req)
	}}
	result := sampleResult()
	result.Files[0].Constructs = append(result.Files[0].Constructs, model.NewFunction("nosnippet", model.UnknownLine, ""))

	New(gen, testConfig(), nil).DocumentConstructs(context.Background(), result)

	cs := result.Constructs()
	assert.Equal(t, `doc: Write concise documentation for the following python function "foo".`, cs[0].Documentation)
	assert.Contains(t, cs[2].Documentation, `method "baz". It is a method of class "Bar".`)
	assert.Empty(t, cs[3].Documentation, "constructs without a snippet stay undocumented")
	assert.Equal(t, DocFailurePlaceholder, cs[4].Documentation)

	// The class view shares the documented method.
	assert.Equal(t, cs[2].Documentation, cs[1].Methods[0].Documentation)
	assert.Len(t, gen.callsFor("construct-model"), 4)
}

func TestDocumentConstructsIdempotent(t *testing.T) {
	gen := &fakeGenerator{respond: echoDocs}
	p := New(gen, testConfig(), nil)
	result := sampleResult()

	p.DocumentConstructs(context.Background(), result)
	var first []string
	for _, c := range result.Constructs() {
		first = append(first, c.Documentation)
	}

	p.DocumentConstructs(context.Background(), result)
	var second []string
	for _, c := range result.Constructs() {
		second = append(second, c.Documentation)
	}
	assert.Equal(t, first, second)
}

func TestDocumentConstructsAllFail(t *testing.T) {
	gen := &fakeGenerator{respond: func(generation.Request) (string, error) { return "   ", nil }}
	result := sampleResult()

	New(gen, testConfig(), nil).DocumentConstructs(context.Background(), result)
	for _, c := range result.Constructs() {
		assert.Equal(t, DocFailurePlaceholder, c.Documentation, c.Name)
	}
}

func TestDocumentConstructsTruncatesSnippets(t *testing.T) {
	gen := &fakeGenerator{respond: echoDocs}
	cfg := testConfig()
	cfg.MaxSnippetChars = 10
	result := &model.AnalysisResult{Files: []model.ParsedFile{{
		Path: "x.py", Language: "python",
		Constructs: []*model.Construct{model.NewFunction("long", 1, "def long():\n"+strings.Repeat("    x = 1\n", 50))},
	}}}

	New(gen, cfg, nil).DocumentConstructs(context.Background(), result)
	require.Len(t, gen.calls, 1)
	assert.Contains(t, gen.calls[0].Prompt, "def long()\n...")
	assert.NotContains(t, gen.calls[0].Prompt, "x = 1")
}

func TestClassMethodsMergesBothSources(t *testing.T) {
	result := sampleResult()
	extra := model.NewMethod("Bar", "qux", 3, "qux() {}")
	dupe := model.NewMethod("Bar", "baz", 9, "baz() { other }")
	result.Files = append(result.Files, model.ParsedFile{
		Path: "c.js", Language: "javascript", Constructs: []*model.Construct{dupe, extra},
	})
	bar := result.Files[0].Constructs[1]
	bar.Methods = append(bar.Methods, model.NewMethod("Bar", "only_in_list", model.UnknownLine, ""))

	methods := ClassMethods(result, bar)

	var names []string
	for _, m := range methods {
		names = append(names, m.Name)
	}
	assert.Equal(t, []string{"baz", "qux", "only_in_list"}, names)
	assert.Same(t, result.Files[0].Constructs[2], methods[0], "first occurrence wins")
}

func TestSummarizeClasses(t *testing.T) {
	gen := &fakeGenerator{respond: func(req generation.Request) (string, error) {
		if strings.Contains(req.Prompt, `class "Broken"`) {
			return "", errors.New("timeout")
		}
		return "summary of " + strings.SplitN(req.Prompt, `"`, 3)[1], nil
	}}
	result := sampleResult()
	result.Files[0].Constructs[2].Documentation = "Does baz things."
	result.Files = append(result.Files,
		model.ParsedFile{Path: "c.py", Language: "python", Constructs: []*model.Construct{
			model.NewClass("Bar", 1, "class Bar:\n    other = True"),
			model.NewClass("Empty", 5, ""),
			model.NewClass("Broken", 9, "class Broken:\n    pass"),
		}},
	)

	New(gen, testConfig(), nil).SummarizeClasses(context.Background(), result)

	assert.Equal(t, map[string]string{
		"Bar":    "summary of Bar",
		"Empty":  NoSummaryPlaceholder,
		"Broken": SummaryFailurePlaceholder,
	}, result.ClassSummaries)

	calls := gen.callsFor("class-model")
	require.Len(t, calls, 2, "one call per distinct named class with a snippet")
	var barPrompt string
	for _, c := range calls {
		if strings.Contains(c.Prompt, `class "Bar"`) {
			barPrompt = c.Prompt
		}
	}
	assert.Contains(t, barPrompt, "def baz(self)", "first Bar wins")
	assert.NotContains(t, barPrompt, "other = True")
	assert.Contains(t, barPrompt, "- baz: Does baz things.")
}

func TestWriteReadmeFallsThroughModels(t *testing.T) {
	gen := &fakeGenerator{respond: func(req generation.Request) (string, error) {
		switch req.Model {
		case "readme-a":
			return "", errors.New("HTTP 503")
		case "readme-b":
			return "\n\n", nil
		default:
			return "# Generated\n", nil
		}
	}}
	result := sampleResult()
	result.ClassSummaries = map[string]string{"Bar": "Bar does things."}

	New(gen, testConfig(), nil).WriteReadme(context.Background(), ProjectInfo{Name: "demo"}, result)

	assert.Equal(t, "# Generated", result.ReadmeContent)
	require.Len(t, gen.calls, 3)
	assert.Equal(t, "readme-a", gen.calls[0].Model)
	assert.Equal(t, "readme-b", gen.calls[1].Model)
	assert.Equal(t, "readme-c", gen.calls[2].Model)
	assert.Contains(t, gen.calls[0].Prompt, `project "demo"`)
	assert.Contains(t, gen.calls[0].Prompt, "Bar does things.")
}

func TestWriteReadmeStopsAtFirstUsable(t *testing.T) {
	gen := &fakeGenerator{respond: func(generation.Request) (string, error) { return "# First", nil }}
	result := sampleResult()
	result.ClassSummaries = map[string]string{"Bar": "x"}

	New(gen, testConfig(), nil).WriteReadme(context.Background(), ProjectInfo{Name: "demo"}, result)
	assert.Equal(t, "# First", result.ReadmeContent)
	assert.Len(t, gen.calls, 1)
}

func TestWriteReadmeAllModelsFail(t *testing.T) {
	gen := &fakeGenerator{respond: func(generation.Request) (string, error) { return "", errors.New("down") }}
	result := sampleResult()
	result.ClassSummaries = map[string]string{"Bar": "Bar stores records.", "Alpha": "Alpha parses input."}

	New(gen, testConfig(), nil).WriteReadme(context.Background(), ProjectInfo{Name: "demo", Description: "A demo repository."}, result)

	readme := result.ReadmeContent
	require.NotEmpty(t, readme)
	assert.True(t, strings.HasPrefix(readme, "# demo\n"))
	assert.Contains(t, readme, "A demo repository.")
	assert.Contains(t, readme, "2 files, of which 2 were analyzed (javascript, python).")
	assert.Contains(t, readme, "### Bar\n\nBar stores records.")
	assert.Less(t, strings.Index(readme, "### Alpha"), strings.Index(readme, "### Bar"))
	assert.Len(t, gen.calls, 3)
}

func TestWriteReadmeWithoutClassesMakesNoCall(t *testing.T) {
	gen := &fakeGenerator{respond: echoDocs}
	result := sampleResult()

	New(gen, testConfig(), nil).WriteReadme(context.Background(), ProjectInfo{Name: "demo"}, result)

	assert.Empty(t, gen.calls)
	assert.Contains(t, result.ReadmeContent, "# demo")
	assert.Contains(t, result.ReadmeContent, "No classes were found in this repository.")
}

func TestRunStagesInOrder(t *testing.T) {
	gen := &fakeGenerator{respond: func(req generation.Request) (string, error) {
		switch req.Model {
		case "construct-model":
			return "documented", nil
		case "class-model":
			return "class summary", nil
		default:
			return "# README", nil
		}
	}}
	result := sampleResult()

	err := New(gen, testConfig(), nil).Run(context.Background(), ProjectInfo{Name: "demo"}, result)
	require.NoError(t, err)

	for _, c := range result.Constructs() {
		assert.Equal(t, "documented", c.Documentation)
	}
	assert.Equal(t, map[string]string{"Bar": "class summary"}, result.ClassSummaries)
	assert.Equal(t, "# README", result.ReadmeContent)

	classCalls := gen.callsFor("class-model")
	require.Len(t, classCalls, 1)
	assert.Contains(t, classCalls[0].Prompt, "- baz: documented", "stage 2 reads stage 1 output")

	gen.mu.Lock()
	defer gen.mu.Unlock()
	last := gen.calls[len(gen.calls)-1]
	assert.Equal(t, "readme-a", last.Model)
}

func TestRunCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	gen := &fakeGenerator{respond: echoDocs}

	err := New(gen, testConfig(), nil).Run(ctx, ProjectInfo{Name: "demo"}, sampleResult())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, gen.calls)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "abc", truncate("abc", 10))
	assert.Equal(t, "abc", truncate("abc", 0))
	assert.Equal(t, "ab\n...", truncate("abcdef", 2))
	assert.Equal(t, "a\n...", truncate("aé", 2), "never splits a rune")
}
