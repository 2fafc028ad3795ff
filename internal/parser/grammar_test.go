package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/julianshen/codesage/internal/model"
)

func extractWith(t *testing.T, path, src string) []*model.Construct {
	t.Helper()
	lang, ok := DefaultRegistry().Lookup(path)
	require.True(t, ok, "no extractor for %s", path)
	constructs, err := lang.Extractor.Extract([]byte(src))
	require.NoError(t, err)
	for _, c := range constructs {
		require.NoError(t, c.Validate())
	}
	return constructs
}

type shape struct {
	Name   string
	Kind   model.Kind
	Parent string
}

func shapes(cs []*model.Construct) []shape {
	out := make([]shape, 0, len(cs))
	for _, c := range cs {
		out = append(out, shape{c.Name, c.Kind, c.ParentClass})
	}
	return out
}

func methodNames(c *model.Construct) []string {
	var names []string
	for _, m := range c.Methods {
		names = append(names, m.Name)
	}
	return names
}

func TestGrammarPythonFunctionClassAndMethod(t *testing.T) {
	src := `def foo():
    return 1


class Bar:
    def baz(self):
        return 2
`
	cs := extractWith(t, "a.py", src)
	require.Equal(t, []shape{
		{"foo", model.KindFunction, ""},
		{"Bar", model.KindClass, ""},
		{"baz", model.KindMethod, "Bar"},
	}, shapes(cs))

	assert.Equal(t, 1, cs[0].Line)
	assert.Equal(t, "def foo():\n    return 1", cs[0].Snippet)
	assert.Equal(t, 5, cs[1].Line)
	assert.Equal(t, []string{"baz"}, methodNames(cs[1]))
	assert.Same(t, cs[2], cs[1].Methods[0])
}

func TestGrammarPythonDecoratedAsyncAndNested(t *testing.T) {
	src := `class Service:
    @staticmethod
    def build():
        pass

    async def fetch(self):
        def helper():
            pass
        return helper
`
	cs := extractWith(t, "svc.py", src)
	assert.Equal(t, []shape{
		{"Service", model.KindClass, ""},
		{"build", model.KindMethod, "Service"},
		{"fetch", model.KindMethod, "Service"},
		{"helper", model.KindFunction, ""},
	}, shapes(cs))
	assert.Equal(t, []string{"build", "fetch"}, methodNames(cs[0]))
}

func TestGrammarJavaScript(t *testing.T) {
	src := `function qux() {}

const greet = (name) => {
  return name;
};

class Calculator {
  constructor() {
    this.total = 0;
  }

  add(n) {
    const inner = () => n;
    return inner();
  }
}
`
	cs := extractWith(t, "calc.js", src)
	assert.Equal(t, []shape{
		{"qux", model.KindFunction, ""},
		{"greet", model.KindFunction, ""},
		{"Calculator", model.KindClass, ""},
		{"constructor", model.KindMethod, "Calculator"},
		{"add", model.KindMethod, "Calculator"},
		{"inner", model.KindFunction, ""},
	}, shapes(cs))
	assert.Equal(t, "function qux() {}", cs[0].Snippet)
	assert.Equal(t, []string{"constructor", "add"}, methodNames(cs[2]))
}

func TestGrammarGoReceiverMethods(t *testing.T) {
	src := `package main

type Server struct{}

func NewServer() *Server { return &Server{} }

func (s *Server) Start() error { return nil }
`
	cs := extractWith(t, "main.go", src)
	assert.Equal(t, []shape{
		{"Server", model.KindClass, ""},
		{"NewServer", model.KindFunction, ""},
		{"Start", model.KindMethod, "Server"},
	}, shapes(cs))
	assert.Equal(t, []string{"Start"}, methodNames(cs[0]))
}

func TestGrammarGoMethodOnForeignType(t *testing.T) {
	src := `package main

func (c *Client) Close() error { return nil }
`
	cs := extractWith(t, "client.go", src)
	assert.Equal(t, []shape{{"Close", model.KindMethod, "Client"}}, shapes(cs))
}

func TestGrammarJava(t *testing.T) {
	src := `public class Main {
    public static void main(String[] args) {
        System.out.println("Hello");
    }

    public int add(int a, int b) {
        return a + b;
    }
}
`
	cs := extractWith(t, "Main.java", src)
	assert.Equal(t, []shape{
		{"Main", model.KindClass, ""},
		{"main", model.KindMethod, "Main"},
		{"add", model.KindMethod, "Main"},
	}, shapes(cs))
}

func TestGrammarRustImplBlock(t *testing.T) {
	src := `struct Point {
    x: i32,
}

impl Point {
    fn new() -> Self {
        Point { x: 0 }
    }
}

fn helper() {}
`
	cs := extractWith(t, "lib.rs", src)
	assert.Equal(t, []shape{
		{"Point", model.KindClass, ""},
		{"new", model.KindMethod, "Point"},
		{"helper", model.KindFunction, ""},
	}, shapes(cs))
	assert.Equal(t, []string{"new"}, methodNames(cs[0]))
}

func TestGrammarRuby(t *testing.T) {
	src := `class Greeter
  def hello
    "hi"
  end
end

def farewell
  puts "bye"
end
`
	cs := extractWith(t, "greeter.rb", src)
	assert.Equal(t, []shape{
		{"Greeter", model.KindClass, ""},
		{"hello", model.KindMethod, "Greeter"},
		{"farewell", model.KindFunction, ""},
	}, shapes(cs))
}

func TestGrammarCDeclaratorChain(t *testing.T) {
	src := `#include <stdio.h>

int main() {
    return 0;
}

void greet(const char *name) {
    printf("Hello %s\n", name);
}
`
	cs := extractWith(t, "main.c", src)
	assert.Equal(t, []shape{
		{"main", model.KindFunction, ""},
		{"greet", model.KindFunction, ""},
	}, shapes(cs))
}

func TestGrammarMalformedInputDoesNotFail(t *testing.T) {
	src := "def broken(:\n    return\n\ndef ok():\n    pass\n"
	lang, ok := DefaultRegistry().Lookup("x.py")
	require.True(t, ok)
	cs, err := lang.Extractor.Extract([]byte(src))
	require.NoError(t, err)
	var names []string
	for _, c := range cs {
		names = append(names, c.Name)
	}
	assert.Contains(t, names, "ok")
}

func TestGrammarEmptySource(t *testing.T) {
	cs := extractWith(t, "empty.py", "")
	assert.Empty(t, cs)
}

func TestGrammarTypeScriptFieldsConstructorsAndAbstractClasses(t *testing.T) {
	src := `export abstract class Svc {
  handler = (e: string) => {
    return e;
  };

  constructor(private repo: string) {}

  async load(id: string): Promise<void> {
    const parse = (s: string) => s;
  }
}

export function boot(): Svc | null {
  return null;
}
`
	cs := extractWith(t, "svc.ts", src)
	assert.Equal(t, []shape{
		{"Svc", model.KindClass, ""},
		{"handler", model.KindMethod, "Svc"},
		{"constructor", model.KindMethod, "Svc"},
		{"load", model.KindMethod, "Svc"},
		{"parse", model.KindFunction, ""},
		{"boot", model.KindFunction, ""},
	}, shapes(cs))
	assert.Equal(t, []string{"handler", "constructor", "load"}, methodNames(cs[0]))
}

func TestGrammarTSX(t *testing.T) {
	src := `export function App(props: { title: string }) {
  return <div className="app">{props.title}</div>;
}

class Widget extends Component {
  render() {
    return <span />;
  }
}
`
	lang, ok := DefaultRegistry().Lookup("app.tsx")
	require.True(t, ok)
	assert.Equal(t, "tsx", lang.Name)

	cs := extractWith(t, "app.tsx", src)
	assert.Equal(t, []shape{
		{"App", model.KindFunction, ""},
		{"Widget", model.KindClass, ""},
		{"render", model.KindMethod, "Widget"},
	}, shapes(cs))
}

func TestGrammarCppInClassAndQualifiedMethods(t *testing.T) {
	src := `class Foo {
public:
    int bar() { return 1; }
    int baz();
};

int Foo::baz() {
    return 2;
}

int helper() { return 0; }
`
	cs := extractWith(t, "foo.cpp", src)
	assert.Equal(t, []shape{
		{"Foo", model.KindClass, ""},
		{"bar", model.KindMethod, "Foo"},
		{"baz", model.KindMethod, "Foo"},
		{"helper", model.KindFunction, ""},
	}, shapes(cs))
	assert.Equal(t, []string{"bar", "baz"}, methodNames(cs[0]))
}

func TestTypeName(t *testing.T) {
	tests := map[string]string{
		"*Server":     "Server",
		"Stack[T]":    "Stack",
		"*pkg.Client": "Client",
		"Foo<T>":      "Foo",
		"ns::Widget":  "Widget",
		"  Point  ":   "Point",
	}
	for in, want := range tests {
		assert.Equal(t, want, typeName(in), "typeName(%q)", in)
	}
}
