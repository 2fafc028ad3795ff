// Package model defines the shapes shared by every stage of a repository
// analysis: extracted constructs, parsed files, and the aggregate result.
package model

import (
	"errors"
	"fmt"
)

// Kind identifies the variant of a Construct.
type Kind string

const (
	KindFunction Kind = "function"
	KindClass    Kind = "class"
	KindMethod   Kind = "method"
)

// UnknownLine marks a construct whose source line could not be determined.
const UnknownLine = -1

// Construct is one recognized code unit. Only methods carry ParentClass and
// only classes carry Methods; use the New* constructors to keep that shape.
type Construct struct {
	Name          string       `json:"name" yaml:"name"`
	Kind          Kind         `json:"kind" yaml:"kind"`
	Line          int          `json:"line" yaml:"line"`
	Snippet       string       `json:"snippet,omitempty" yaml:"snippet,omitempty"`
	ParentClass   string       `json:"parent_class,omitempty" yaml:"parent_class,omitempty"`
	Documentation string       `json:"documentation,omitempty" yaml:"documentation,omitempty"`
	Methods       []*Construct `json:"methods,omitempty" yaml:"methods,omitempty"`
}

// Key is the identity of a construct for de-duplication purposes.
type Key struct {
	Name        string
	Kind        Kind
	ParentClass string
}

// NewFunction creates a top-level (or nested, non-member) function.
func NewFunction(name string, line int, snippet string) *Construct {
	return &Construct{Name: name, Kind: KindFunction, Line: line, Snippet: snippet}
}

// NewClass creates a class with an empty method list.
func NewClass(name string, line int, snippet string) *Construct {
	return &Construct{Name: name, Kind: KindClass, Line: line, Snippet: snippet}
}

// NewMethod creates a method owned by the named class. The method is not
// added to any class; see AddMethod.
func NewMethod(parentClass, name string, line int, snippet string) *Construct {
	return &Construct{Name: name, Kind: KindMethod, Line: line, Snippet: snippet, ParentClass: parentClass}
}

// Key returns the (name, kind, parentClass) identity of c.
func (c *Construct) Key() Key {
	return Key{Name: c.Name, Kind: c.Kind, ParentClass: c.ParentClass}
}

// IsClass reports whether c is a class construct.
func (c *Construct) IsClass() bool { return c.Kind == KindClass }

// AddMethod appends m to the class's method list and points m at the class.
// The same pointer is expected to appear in the file's flat construct list.
func (c *Construct) AddMethod(m *Construct) error {
	if c.Kind != KindClass {
		return fmt.Errorf("add method %q: %q is a %s, not a class", m.Name, c.Name, c.Kind)
	}
	m.Kind = KindMethod
	m.ParentClass = c.Name
	c.Methods = append(c.Methods, m)
	return nil
}

// HasMethod reports whether the class already lists a method with the given name.
func (c *Construct) HasMethod(name string) bool {
	for _, m := range c.Methods {
		if m.Name == name {
			return true
		}
	}
	return false
}

// Validate reports a malformed construct.
func (c *Construct) Validate() error {
	if c.Name == "" {
		return errors.New("construct has empty name")
	}
	switch c.Kind {
	case KindFunction, KindClass:
		if c.ParentClass != "" {
			return fmt.Errorf("%s %q must not have a parent class", c.Kind, c.Name)
		}
	case KindMethod:
		if c.ParentClass == "" {
			return fmt.Errorf("method %q has no parent class", c.Name)
		}
	default:
		return fmt.Errorf("construct %q has unknown kind %q", c.Name, c.Kind)
	}
	if c.Kind != KindClass && len(c.Methods) > 0 {
		return fmt.Errorf("%s %q cannot own methods", c.Kind, c.Name)
	}
	return nil
}
