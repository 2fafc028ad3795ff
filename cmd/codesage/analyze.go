// cmd/codesage/analyze.go
package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesage/internal/fetcher"
	"github.com/julianshen/codesage/internal/output"
	"github.com/julianshen/codesage/internal/project"
)

func analyzeCmd() *cobra.Command {
	var formatFlag string

	cmd := &cobra.Command{
		Use:   "analyze <project-id|repository-url>",
		Short: "Analyze a project and generate its documentation",
		Long: `Run a full analysis: clone the repository, extract constructs, document
them and write a README. Passing a repository URL creates the project first.
The command waits for the run to finish.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			uid, err := owner()
			if err != nil {
				return err
			}
			var f output.Formatter
			if formatFlag != "" {
				if f, err = output.NewFormatter(formatFlag); err != nil {
					return err
				}
			}

			a, err := newApp(true)
			if err != nil {
				return err
			}
			defer a.Close()

			ctx := cmd.Context()
			id := args[0]
			if fetcher.ValidateURL(id) == nil {
				p, err := a.ctrl.CreateProject(ctx, uid, id)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "Created project %s (%s)\n", p.ID, p.Name)
				id = p.ID
			}

			if _, err := a.ctrl.RequestAnalysis(ctx, uid, id); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "Analyzing %s...\n", id)
			a.ctrl.Wait()

			p, err := a.ctrl.GetProject(ctx, uid, id)
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.ErrOrStderr(), output.ProjectList([]*project.Project{p}))
			if p.Status == project.StatusFailed {
				return fmt.Errorf("analysis of %s failed: %s", p.Name, p.Error)
			}
			if f == nil {
				return nil
			}
			return writeReport(cmd, a, f, p)
		},
	}

	cmd.Flags().StringVar(&formatFlag, "format", "", "print the result when done: markdown, json, yaml")
	return cmd
}
