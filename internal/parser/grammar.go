package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/c"
	"github.com/smacker/go-tree-sitter/cpp"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/java"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/ruby"
	"github.com/smacker/go-tree-sitter/rust"
	"github.com/smacker/go-tree-sitter/typescript/tsx"
	"github.com/smacker/go-tree-sitter/typescript/typescript"

	"github.com/julianshen/codesage/internal/model"
)

// grammar describes which syntax node types carry declarations for one
// tree-sitter language.
type grammar struct {
	language   string
	extensions []string
	lang       func() *sitter.Language

	// functions are node types emitted as functions, or as methods when they
	// are direct members of a class body.
	functions []string
	// classes are node types emitted as classes.
	classes []string
	// scopes are class-like blocks that own methods without declaring a type
	// themselves (Rust impl blocks), keyed to the field naming the type.
	scopes map[string]string
	// declarators bind a name to a function-valued expression, keyed to the
	// field holding the name (const f = () => {}).
	declarators map[string]string
	// receiver returns the owning type of an out-of-body method declaration
	// (Go receivers, C++ qualified names).
	receiver func(n *sitter.Node, source []byte) (name, owner string)
	// isClass filters candidate class nodes (Go type specs).
	isClass func(n *sitter.Node) bool
}

var jsDeclarators = map[string]string{
	"variable_declarator": "name",
	"field_definition":    "property",
}

var tsDeclarators = map[string]string{
	"variable_declarator":     "name",
	"public_field_definition": "name",
}

// functionValues are expression node types that make a declarator a function.
var functionValues = map[string]bool{
	"arrow_function":      true,
	"function_expression": true,
	"function":            true,
	"generator_function":  true,
}

var grammars = []grammar{
	{
		language:   "python",
		extensions: []string{".py"},
		lang:       python.GetLanguage,
		functions:  []string{"function_definition"},
		classes:    []string{"class_definition"},
	},
	{
		language:    "javascript",
		extensions:  []string{".js", ".jsx", ".mjs", ".cjs"},
		lang:        javascript.GetLanguage,
		functions:   []string{"function_declaration", "generator_function_declaration", "method_definition"},
		classes:     []string{"class_declaration"},
		declarators: jsDeclarators,
	},
	{
		language:    "typescript",
		extensions:  []string{".ts", ".mts", ".cts"},
		lang:        typescript.GetLanguage,
		functions:   []string{"function_declaration", "generator_function_declaration", "method_definition"},
		classes:     []string{"class_declaration", "abstract_class_declaration"},
		declarators: tsDeclarators,
	},
	{
		language:    "tsx",
		extensions:  []string{".tsx"},
		lang:        tsx.GetLanguage,
		functions:   []string{"function_declaration", "generator_function_declaration", "method_definition"},
		classes:     []string{"class_declaration", "abstract_class_declaration"},
		declarators: tsDeclarators,
	},
	{
		language:   "go",
		extensions: []string{".go"},
		lang:       golang.GetLanguage,
		functions:  []string{"function_declaration", "method_declaration"},
		classes:    []string{"type_spec"},
		receiver:   goReceiver,
		isClass:    goTypeIsClass,
	},
	{
		language:   "java",
		extensions: []string{".java"},
		lang:       java.GetLanguage,
		functions:  []string{"method_declaration", "constructor_declaration"},
		classes:    []string{"class_declaration", "interface_declaration", "enum_declaration"},
	},
	{
		language:   "ruby",
		extensions: []string{".rb"},
		lang:       ruby.GetLanguage,
		functions:  []string{"method", "singleton_method"},
		classes:    []string{"class", "module"},
	},
	{
		language:   "rust",
		extensions: []string{".rs"},
		lang:       rust.GetLanguage,
		functions:  []string{"function_item"},
		classes:    []string{"struct_item", "enum_item", "trait_item"},
		scopes:     map[string]string{"impl_item": "type"},
	},
	{
		language:   "c",
		extensions: []string{".c", ".h"},
		lang:       c.GetLanguage,
		functions:  []string{"function_definition"},
		receiver:   declaratorName,
	},
	{
		language:   "cpp",
		extensions: []string{".cc", ".cpp", ".cxx", ".hpp", ".hh"},
		lang:       cpp.GetLanguage,
		functions:  []string{"function_definition"},
		classes:    []string{"class_specifier", "struct_specifier"},
		receiver:   declaratorName,
	},
}

// GrammarExtractor extracts constructs by walking a tree-sitter syntax tree.
type GrammarExtractor struct {
	g         grammar
	functions map[string]bool
	classes   map[string]bool
}

// NewGrammarExtractor builds an extractor for one grammar table.
func NewGrammarExtractor(g grammar) *GrammarExtractor {
	return &GrammarExtractor{
		g:         g,
		functions: toSet(g.functions),
		classes:   toSet(g.classes),
	}
}

// Extract parses source and returns its constructs in declaration order.
// A fresh tree-sitter parser is used per call so the extractor can be shared.
func (x *GrammarExtractor) Extract(source []byte) ([]*model.Construct, error) {
	p := sitter.NewParser()
	defer p.Close()
	p.SetLanguage(x.g.lang())

	tree, err := p.ParseCtx(context.Background(), nil, source)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", x.g.language, err)
	}
	defer tree.Close()

	e := &extraction{x: x, source: source, classes: make(map[string]*model.Construct)}
	e.visit(tree.RootNode(), frame{})
	e.attachPending()
	return Dedupe(e.out), nil
}

// frame is the enclosing declaration context during the walk.
type frame struct {
	class  *model.Construct // enclosing class construct, if any
	scope  string           // name methods are attributed to
	inFunc bool             // inside a function body below the scope
}

type extraction struct {
	x       *GrammarExtractor
	source  []byte
	out     []*model.Construct
	classes map[string]*model.Construct
	pending []*model.Construct // methods whose class is resolved after the walk
}

func (e *extraction) visit(n *sitter.Node, f frame) {
	if n == nil {
		return
	}
	t := n.Type()
	g := e.x.g

	switch {
	case e.x.classes[t] && (g.isClass == nil || g.isClass(n)):
		if name := fieldText(n, "name", e.source); name != "" {
			class := model.NewClass(name, startLine(n), n.Content(e.source))
			e.out = append(e.out, class)
			if _, ok := e.classes[name]; !ok {
				e.classes[name] = class
			}
			f = frame{class: class, scope: name}
		}
	case g.scopes[t] != "":
		if name := typeName(fieldText(n, g.scopes[t], e.source)); name != "" {
			f = frame{scope: name}
		}
	case e.x.functions[t]:
		name, owner := e.funcName(n)
		if name != "" {
			e.emitFunc(name, owner, n, f)
		}
		f.inFunc = true
	case g.declarators[t] != "":
		value := n.ChildByFieldName("value")
		if value != nil && functionValues[value.Type()] {
			if name := fieldText(n, g.declarators[t], e.source); name != "" {
				e.emitFunc(name, "", n, f)
			}
			f.inFunc = true
		}
	}

	for i := 0; i < int(n.NamedChildCount()); i++ {
		e.visit(n.NamedChild(i), f)
	}
}

func (e *extraction) funcName(n *sitter.Node) (name, owner string) {
	if e.x.g.receiver != nil {
		return e.x.g.receiver(n, e.source)
	}
	return fieldText(n, "name", e.source), ""
}

func (e *extraction) emitFunc(name, owner string, n *sitter.Node, f frame) {
	line, snippet := startLine(n), n.Content(e.source)
	switch {
	case f.scope != "" && !f.inFunc:
		m := model.NewMethod(f.scope, name, line, snippet)
		e.out = append(e.out, m)
		if f.class != nil {
			_ = f.class.AddMethod(m)
		} else {
			e.pending = append(e.pending, m)
		}
	case owner != "":
		m := model.NewMethod(owner, name, line, snippet)
		e.out = append(e.out, m)
		e.pending = append(e.pending, m)
	default:
		e.out = append(e.out, model.NewFunction(name, line, snippet))
	}
}

// attachPending links receiver-style methods to a same-file class of the
// owning type. Methods whose type lives elsewhere keep only the name reference.
func (e *extraction) attachPending() {
	for _, m := range e.pending {
		if class, ok := e.classes[m.ParentClass]; ok && !class.HasMethod(m.Name) {
			_ = class.AddMethod(m)
		}
	}
}

func fieldText(n *sitter.Node, field string, source []byte) string {
	child := n.ChildByFieldName(field)
	if child == nil {
		return ""
	}
	return strings.TrimSpace(child.Content(source))
}

func startLine(n *sitter.Node) int {
	return int(n.StartPoint().Row) + 1
}

// typeName strips pointer markers, generic arguments and package qualifiers
// from a type expression: "*pkg.Server[T]" -> "Server".
func typeName(expr string) string {
	expr = strings.TrimSpace(expr)
	expr = strings.TrimLeft(expr, "*&")
	if i := strings.IndexAny(expr, "[<"); i >= 0 {
		expr = expr[:i]
	}
	if i := strings.LastIndexAny(expr, ".:"); i >= 0 {
		expr = expr[i+1:]
	}
	return strings.TrimSpace(expr)
}

// goReceiver names a Go function and, for methods, its receiver type.
func goReceiver(n *sitter.Node, source []byte) (string, string) {
	name := fieldText(n, "name", source)
	if n.Type() != "method_declaration" {
		return name, ""
	}
	recv := strings.Trim(fieldText(n, "receiver", source), "()")
	fields := strings.Fields(recv)
	if len(fields) == 0 {
		return name, ""
	}
	return name, typeName(fields[len(fields)-1])
}

// goTypeIsClass accepts struct and interface type specs.
func goTypeIsClass(n *sitter.Node) bool {
	t := n.ChildByFieldName("type")
	if t == nil {
		return false
	}
	return t.Type() == "struct_type" || t.Type() == "interface_type"
}

// declaratorName resolves a C/C++ function_definition name by following the
// declarator chain (function_declarator -> identifier). Qualified C++ names
// such as Foo::bar are split into method name and owning class.
func declaratorName(n *sitter.Node, source []byte) (string, string) {
	d := n.ChildByFieldName("declarator")
	for depth := 0; d != nil && depth < 8; depth++ {
		next := d.ChildByFieldName("declarator")
		if next == nil {
			break
		}
		d = next
	}
	if d == nil {
		return "", ""
	}
	name := strings.TrimSpace(d.Content(source))
	if i := strings.LastIndex(name, "::"); i >= 0 {
		return name[i+2:], typeName(name[:i])
	}
	return name, ""
}

func toSet(items []string) map[string]bool {
	set := make(map[string]bool, len(items))
	for _, it := range items {
		set[it] = true
	}
	return set
}
