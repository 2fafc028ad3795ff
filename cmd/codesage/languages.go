// cmd/codesage/languages.go
package main

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesage/internal/parser"
)

func languagesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "languages",
		Short: "List the languages and file extensions that are analyzed",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			return writeLanguages(cmd, newRegistry(cfg.Walk.JavaScriptExtractor))
		},
	}
}

func writeLanguages(cmd *cobra.Command, registry *parser.Registry) error {
	type row struct {
		exts      []string
		extractor string
	}
	rows := map[string]*row{}
	for _, ext := range registry.Extensions() {
		lang, _ := registry.Lookup("x" + ext)
		r, ok := rows[lang.Name]
		if !ok {
			r = &row{extractor: "grammar"}
			if _, pattern := lang.Extractor.(*parser.PatternExtractor); pattern {
				r.extractor = "pattern"
			}
			rows[lang.Name] = r
		}
		r.exts = append(r.exts, ext)
	}

	names := make([]string, 0, len(rows))
	for name := range rows {
		names = append(names, name)
	}
	sort.Strings(names)

	tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "LANGUAGE\tEXTRACTOR\tEXTENSIONS")
	for _, name := range names {
		r := rows[name]
		fmt.Fprintf(tw, "%s\t%s\t%s\n", name, r.extractor, strings.Join(r.exts, " "))
	}
	return tw.Flush()
}
