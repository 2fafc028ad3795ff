package parser

import (
	"bytes"
	"regexp"
	"sort"

	"github.com/julianshen/codesage/internal/model"
)

var (
	classHeadRe = regexp.MustCompile(`\bclass\s+([A-Za-z_$][\w$]*)[^{;]*\{`)
	funcHeadRe  = regexp.MustCompile(`\bfunction\s*\*?\s*&?\s*([A-Za-z_$][\w$]*)\s*\(`)
	arrowHeadRe = regexp.MustCompile(`\b(?:const|let|var)\s+([A-Za-z_$][\w$]*)\s*=\s*(?:async\s+)?(?:function\b|\([^()]*\)(?:\s*:\s*[^=;{]+)?\s*=>|[A-Za-z_$][\w$]*\s*=>)`)

	// Member forms only recognized at the top level of a class body. A member
	// starts a line or follows a ';' or '}' at body depth 0.
	methodHeadRe = regexp.MustCompile(`(?m)(?:^|[;}])[ \t]*(?:(?:static|async|get|set|public|private|protected|abstract|override|readonly|final)\s+)*\*?[ \t]*([A-Za-z_$#][\w$]*)\s*\([^()]*\)\s*(?::\s*[^{;]+)?\{`)
	fieldArrowRe = regexp.MustCompile(`(?m)(?:^|[;}])[ \t]*(?:(?:static|public|private|protected|readonly)\s+)*([A-Za-z_$#][\w$]*)\s*=\s*(?:async\s+)?(?:\([^()]*\)|[A-Za-z_$][\w$]*)\s*=>`)
)

// reservedMethodNames are keywords the member patterns can mistake for
// method names inside a class body.
var reservedMethodNames = map[string]bool{
	"constructor": true,
	"__construct": true,
	"if":          true,
	"else":        true,
	"for":         true,
	"while":       true,
	"do":          true,
	"switch":      true,
	"case":        true,
	"catch":       true,
	"try":         true,
	"finally":     true,
	"with":        true,
	"function":    true,
	"return":      true,
	"new":         true,
	"typeof":      true,
	"super":       true,
	"import":      true,
	"export":      true,
	"foreach":     true,
	"elseif":      true,
}

// PatternExtractor approximates declarations in brace-delimited languages
// (JavaScript, PHP) without a grammar. Regular expressions find declaration
// heads; a bracket scanner over a comment- and string-masked copy of the
// source finds their extents.
type PatternExtractor struct{}

// NewPatternExtractor returns a pattern extractor.
func NewPatternExtractor() *PatternExtractor {
	return &PatternExtractor{}
}

type span struct{ start, end int } // [start, end)

func (s span) contains(o span) bool {
	return o.start >= s.start && o.end <= s.end
}

type classMatch struct {
	c    *model.Construct
	span span
	body span
}

type rawMatch struct {
	name  string
	span  span
	class *classMatch // set for class heads
}

// Extract returns the constructs found in source ordered by position.
func (x *PatternExtractor) Extract(source []byte) ([]*model.Construct, error) {
	masked := maskNonCode(source)
	lines := newLineIndex(source)

	var classes []*classMatch
	for _, m := range classHeadRe.FindAllSubmatchIndex(masked, -1) {
		open := m[1] - 1
		end := matchClose(masked, open)
		if end < 0 {
			continue
		}
		name := string(source[m[2]:m[3]])
		cm := &classMatch{
			c:    model.NewClass(name, lines.line(m[0]), string(source[m[0]:end+1])),
			span: span{m[0], end + 1},
			body: span{open + 1, end},
		}
		classes = append(classes, cm)
	}

	var raw []rawMatch
	for _, cm := range classes {
		raw = append(raw, rawMatch{name: cm.c.Name, span: cm.span, class: cm})
	}
	for _, m := range funcHeadRe.FindAllSubmatchIndex(masked, -1) {
		raw = append(raw, rawMatch{
			name: string(source[m[2]:m[3]]),
			span: span{m[0], functionEnd(masked, m[1]-1)},
		})
	}
	for _, m := range arrowHeadRe.FindAllSubmatchIndex(masked, -1) {
		raw = append(raw, rawMatch{
			name: string(source[m[2]:m[3]]),
			span: span{m[0], arrowEnd(masked, m[1])},
		})
	}
	for _, cm := range classes {
		raw = append(raw, classMembers(masked, source, cm)...)
	}

	sort.SliceStable(raw, func(i, j int) bool { return raw[i].span.start < raw[j].span.start })

	out := make([]*model.Construct, 0, len(raw))
	for _, r := range raw {
		if r.class != nil {
			out = append(out, r.class.c)
			continue
		}
		snippet := string(source[r.span.start:r.span.end])
		owner := innermostClass(classes, r.span)
		if owner == nil {
			out = append(out, model.NewFunction(r.name, lines.line(r.span.start), snippet))
			continue
		}
		if reservedMethodNames[r.name] {
			continue
		}
		m := model.NewMethod(owner.c.Name, r.name, lines.line(r.span.start), snippet)
		if !owner.c.HasMethod(m.Name) {
			_ = owner.c.AddMethod(m)
		}
		out = append(out, m)
	}
	return Dedupe(out), nil
}

// classMembers finds method-shorthand and field-arrow members declared at
// the top level of the class body.
func classMembers(masked, source []byte, cm *classMatch) []rawMatch {
	body := masked[cm.body.start:cm.body.end]
	nested := nestedBlocks(body)
	var out []rawMatch

	add := func(m []int, end func(int) int) {
		head := memberStart(body, m[0], m[2])
		for _, n := range nested {
			if head > n.start && head < n.end {
				return
			}
		}
		out = append(out, rawMatch{
			name: string(source[cm.body.start+m[2] : cm.body.start+m[3]]),
			span: span{cm.body.start + head, end(cm.body.start + m[1])},
		})
	}
	for _, m := range methodHeadRe.FindAllSubmatchIndex(body, -1) {
		add(m, func(after int) int {
			if e := matchClose(masked, after-1); e >= 0 {
				return e + 1
			}
			return after
		})
	}
	for _, m := range fieldArrowRe.FindAllSubmatchIndex(body, -1) {
		add(m, func(after int) int { return arrowEnd(masked, after) })
	}
	return out
}

// memberStart skips the boundary and blanks a member match begins with.
func memberStart(body []byte, from, name int) int {
	for from < name {
		switch body[from] {
		case ';', '}', ' ', '\t', '\r', '\n':
			from++
			continue
		}
		break
	}
	return from
}

// nestedBlocks returns the brace blocks directly inside a class body.
func nestedBlocks(body []byte) []span {
	var blocks []span
	for i := 0; i < len(body); i++ {
		if body[i] != '{' {
			continue
		}
		end := matchClose(body, i)
		if end < 0 {
			break
		}
		blocks = append(blocks, span{i, end})
		i = end
	}
	return blocks
}

func innermostClass(classes []*classMatch, s span) *classMatch {
	var best *classMatch
	for _, cm := range classes {
		if cm.span.start == s.start || !cm.span.contains(s) {
			continue
		}
		if best == nil || best.span.contains(cm.span) {
			best = cm
		}
	}
	return best
}

// functionEnd returns the end offset of a function whose parameter list opens
// at paren. Declarations without a body end after the parameter list.
func functionEnd(masked []byte, paren int) int {
	closeParen := matchClose(masked, paren)
	if closeParen < 0 {
		return paren + 1
	}
	rest := masked[closeParen+1:]
	i := bytes.IndexAny(rest, "{;")
	if i < 0 || rest[i] != '{' {
		return closeParen + 1
	}
	between := bytes.TrimSpace(rest[:i])
	if len(between) > 0 && between[0] != ':' {
		return closeParen + 1
	}
	open := closeParen + 1 + i
	if end := matchClose(masked, open); end >= 0 {
		return end + 1
	}
	return closeParen + 1
}

// arrowEnd returns the end offset of an arrow function or function
// expression whose head ends at pos.
func arrowEnd(masked []byte, pos int) int {
	if bytes.HasSuffix(masked[:pos], []byte("function")) {
		if p := bytes.IndexByte(masked[pos:], '('); p >= 0 {
			return functionEnd(masked, pos+p)
		}
		return pos
	}
	i := pos
	for i < len(masked) && (masked[i] == ' ' || masked[i] == '\t' || masked[i] == '\n' || masked[i] == '\r') {
		i++
	}
	if i < len(masked) && masked[i] == '{' {
		if end := matchClose(masked, i); end >= 0 {
			return end + 1
		}
	}
	if e := bytes.IndexAny(masked[pos:], ";\n"); e >= 0 {
		return pos + e
	}
	return len(masked)
}

// matchClose returns the index of the bracket closing the one at open, or -1
// when unbalanced. Nesting depth is unbounded. Callers pass masked text so
// brackets in strings and comments are ignored.
func matchClose(src []byte, open int) int {
	if open < 0 || open >= len(src) {
		return -1
	}
	var closer byte
	switch src[open] {
	case '{':
		closer = '}'
	case '(':
		closer = ')'
	case '[':
		closer = ']'
	default:
		return -1
	}
	opener := src[open]
	depth := 0
	for i := open; i < len(src); i++ {
		switch src[i] {
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}

// maskNonCode returns a copy of src with comment text and string literal
// contents replaced by spaces. Offsets and newlines are preserved.
func maskNonCode(src []byte) []byte {
	out := make([]byte, len(src))
	copy(out, src)
	blank := func(i int) {
		if out[i] != '\n' {
			out[i] = ' '
		}
	}
	for i := 0; i < len(out); i++ {
		switch {
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '/':
			for ; i < len(out) && out[i] != '\n'; i++ {
				blank(i)
			}
		case out[i] == '/' && i+1 < len(out) && out[i+1] == '*':
			blank(i)
			blank(i + 1)
			i += 2
			for ; i < len(out); i++ {
				if out[i] == '*' && i+1 < len(out) && out[i+1] == '/' {
					blank(i)
					blank(i + 1)
					i++
					break
				}
				blank(i)
			}
		case out[i] == '"' || out[i] == '\'' || out[i] == '`':
			quote := out[i]
			for i++; i < len(out) && out[i] != quote; i++ {
				if out[i] == '\\' && i+1 < len(out) {
					blank(i)
					i++
				}
				if quote != '`' && out[i] == '\n' {
					break
				}
				blank(i)
			}
		}
	}
	return out
}

// lineIndex converts byte offsets to 1-based line numbers.
type lineIndex []int

func newLineIndex(src []byte) lineIndex {
	idx := lineIndex{0}
	for i, b := range src {
		if b == '\n' {
			idx = append(idx, i+1)
		}
	}
	return idx
}

func (l lineIndex) line(offset int) int {
	return sort.Search(len(l), func(i int) bool { return l[i] > offset })
}
