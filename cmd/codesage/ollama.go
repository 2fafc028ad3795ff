// cmd/codesage/ollama.go
package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesage/internal/config"
	"github.com/julianshen/codesage/internal/generation/ollama"
)

// ollamaCmd returns the "ollama" command, which checks that a local Ollama
// server can serve the models the documentation stages are configured with.
func ollamaCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ollama",
		Short: "Check a local Ollama server against the pipeline models",
	}
	cmd.PersistentFlags().String("base-url", "", "Ollama API base URL (default: generation.base_url, then http://localhost:11434)")
	cmd.AddCommand(ollamaModelsCmd())
	cmd.AddCommand(ollamaStatusCmd())
	return cmd
}

// ollamaTarget returns the server base URL and the configured pipeline
// models. The --base-url flag wins over a config that selects ollama.
func ollamaTarget(cmd *cobra.Command) (string, []string, error) {
	cfg, err := loadConfig()
	if err != nil {
		return "", nil, err
	}
	baseURL, _ := cmd.Flags().GetString("base-url")
	if baseURL == "" && cfg.Generation.Provider == "ollama" {
		baseURL = cfg.Generation.BaseURL
	}
	if baseURL == "" {
		baseURL = ollama.DefaultBaseURL
	}
	return baseURL, pipelineModels(cfg.Pipeline), nil
}

// pipelineModels lists the distinct models named by the pipeline stages.
func pipelineModels(p config.PipelineConfig) []string {
	var models []string
	seen := map[string]bool{}
	for _, m := range append([]string{p.ConstructModel, p.ClassModel}, p.ReadmeModels...) {
		if m != "" && !seen[m] {
			seen[m] = true
			models = append(models, m)
		}
	}
	return models
}

// hasModel matches name against a local model tag; an untagged name
// matches its ":latest" tag.
func hasModel(local []ollama.ModelInfo, name string) bool {
	for _, m := range local {
		if m.Name == name || (!strings.Contains(name, ":") && m.Name == name+":latest") {
			return true
		}
	}
	return false
}

func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return fmt.Sprintf("%d B", b)
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit && exp < 2; n /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(b)/float64(div), "KMG"[exp])
}

func ollamaModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List local models, marking those the pipeline uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseURL, wanted, err := ollamaTarget(cmd)
			if err != nil {
				return err
			}
			local, err := ollama.New(baseURL, nil).ListModels(cmd.Context())
			if err != nil {
				return err
			}
			if len(local) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No models available.")
				return nil
			}

			used := map[string]bool{}
			for _, w := range wanted {
				for _, m := range local {
					if hasModel([]ollama.ModelInfo{m}, w) {
						used[m.Name] = true
					}
				}
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tSIZE\tPIPELINE")
			for _, m := range local {
				mark := ""
				if used[m.Name] {
					mark = "yes"
				}
				fmt.Fprintf(w, "%s\t%s\t%s\n", m.Name, formatBytes(m.Size), mark)
			}
			return w.Flush()
		},
	}
}

func ollamaStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Check the server is up and has every pipeline model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			baseURL, wanted, err := ollamaTarget(cmd)
			if err != nil {
				return err
			}
			client := ollama.New(baseURL, nil)
			version, err := client.Version(cmd.Context())
			if err != nil {
				return fmt.Errorf("ollama not reachable at %s: %w", baseURL, err)
			}
			local, err := client.ListModels(cmd.Context())
			if err != nil {
				return err
			}

			var missing []string
			for _, m := range wanted {
				if !hasModel(local, m) {
					missing = append(missing, m)
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Ollama %s at %s, %d local models\n", version, baseURL, len(local))
			if len(missing) > 0 {
				return fmt.Errorf("pipeline models not pulled: %s", strings.Join(missing, ", "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "All pipeline models available.")
			return nil
		},
	}
}
