package parser

import "github.com/julianshen/codesage/internal/model"

// Dedupe collapses constructs sharing the same (name, kind, parentClass)
// identity, keeping the first occurrence. Class method lists are rebuilt so
// they only reference surviving constructs, without duplicates.
func Dedupe(constructs []*model.Construct) []*model.Construct {
	kept := make(map[model.Key]*model.Construct, len(constructs))
	out := make([]*model.Construct, 0, len(constructs))
	for _, c := range constructs {
		if c == nil || c.Name == "" {
			continue
		}
		k := c.Key()
		if _, ok := kept[k]; ok {
			continue
		}
		kept[k] = c
		out = append(out, c)
	}

	for _, c := range out {
		if !c.IsClass() || len(c.Methods) == 0 {
			continue
		}
		seen := make(map[string]bool, len(c.Methods))
		methods := c.Methods[:0:0]
		for _, m := range c.Methods {
			if seen[m.Name] {
				continue
			}
			seen[m.Name] = true
			if survivor, ok := kept[m.Key()]; ok {
				m = survivor
			}
			methods = append(methods, m)
		}
		c.Methods = methods
	}
	return out
}
