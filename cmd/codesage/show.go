// cmd/codesage/show.go
package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesage/internal/output"
	"github.com/julianshen/codesage/internal/project"
)

func showCmd() *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project and its latest analysis",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := owner()
			if err != nil {
				return err
			}
			f, err := output.NewFormatter(formatFlag)
			if err != nil {
				return err
			}
			a, err := newApp(false)
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.ctrl.GetProject(cmd.Context(), uid, args[0])
			if err != nil {
				return err
			}
			return writeReport(cmd, a, f, p)
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "markdown", "output format: markdown, json, yaml")
	return cmd
}

// writeReport prints p with its latest analysis. A project that has never
// completed an analysis is printed on its own.
func writeReport(cmd *cobra.Command, a *app, f output.Formatter, p *project.Project) error {
	analysis, err := a.ctrl.GetLatestAnalysis(cmd.Context(), p.ID)
	if err != nil && !errors.Is(err, project.ErrNotFound) {
		return err
	}
	return output.Write(cmd.OutOrStdout(), f, &output.Report{Project: p, Analysis: analysis})
}
