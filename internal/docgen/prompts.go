package docgen

import (
	"bytes"
	"strings"
	"text/template"

	"github.com/julianshen/codesage/internal/model"
)

var funcs = template.FuncMap{"join": strings.Join}

var constructTmpl = template.Must(template.New("construct").Parse(
	`Write concise documentation for the following {{.Language}} {{.Kind}} "{{.Name}}".
{{- if .ParentClass}} It is a method of class "{{.ParentClass}}".{{end}}
Describe its purpose, parameters and return value in a short docstring. Respond with the documentation text only.

Source:
{{.Snippet}}`))

var classTmpl = template.Must(template.New("class").Parse(
	`Summarize the {{.Language}} class "{{.Name}}" for a developer new to the codebase.
Explain its responsibility and how its methods work together in one or two paragraphs.

Source:
{{.Snippet}}
{{if .Methods}}
Methods:
{{range .Methods}}- {{.Name}}: {{if .Documentation}}{{.Documentation}}{{else}}(undocumented){{end}}
{{end}}{{end}}`))

var readmeTmpl = template.Must(template.New("readme").Funcs(funcs).Parse(
	`Write a README.md in Markdown for the project "{{.Name}}".
{{- if .Description}}
The repository describes itself as: {{.Description}}{{end}}

Repository statistics:
- Source files: {{.Stats.TotalFiles}}
- Analyzed files: {{.Stats.ParsedFiles}}
- Languages: {{join .Stats.Languages ", "}}

Class summaries:
{{range .Classes}}
### {{.Name}}
{{.Summary}}
{{end}}
Include an overview, the main components, and how they fit together. Respond with the Markdown document only.`))

// fallbackReadmeTmpl renders a README locally from already-known data.
var fallbackReadmeTmpl = template.Must(template.New("fallback").Funcs(funcs).Parse(
	`# {{.Name}}
{{if .Description}}
{{.Description}}
{{end}}
## Overview

This repository contains {{.Stats.TotalFiles}} files, of which {{.Stats.ParsedFiles}} were analyzed
{{- if .Stats.Languages}} ({{join .Stats.Languages ", "}}){{end}}.
{{if .Classes}}
## Classes
{{range .Classes}}
### {{.Name}}

{{.Summary}}
{{end}}{{else}}
No classes were found in this repository.
{{end}}`))

type classSummary struct {
	Name    string
	Summary string
}

type readmeData struct {
	Name        string
	Description string
	Stats       model.Stats
	Classes     []classSummary
}

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
