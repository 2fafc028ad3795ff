// cmd/codesage/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/julianshen/codesage/internal/config"

	// Register generation providers via init() side effects.
	_ "github.com/julianshen/codesage/internal/generation/anthropic"
	_ "github.com/julianshen/codesage/internal/generation/ollama"
	_ "github.com/julianshen/codesage/internal/generation/openai"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"

	configPath   string
	modelFlag    string
	providerFlag string
	logLevelFlag string
	ownerFlag    string
)

func versionString() string {
	return fmt.Sprintf("codesage %s (commit: %s, built: %s)", version, commit, date)
}

func newRootCmd() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "codesage",
		Short: "Analyze repositories and generate their documentation",
		Long: `codesage clones a source repository, extracts its functions, classes and
methods, and asks a language model to document them and write a README.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file")
	rootCmd.PersistentFlags().StringVar(&modelFlag, "model", "", "override the model used by every documentation stage")
	rootCmd.PersistentFlags().StringVar(&providerFlag, "provider", "", "override provider name")
	rootCmd.PersistentFlags().StringVar(&logLevelFlag, "log-level", "", "override log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&ownerFlag, "owner", os.Getenv("USER"), "identity that owns created projects")

	versionCmd := &cobra.Command{
		Use:   "version",
		Short: "Print the version",
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintln(cmd.OutOrStdout(), versionString())
		},
	}

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(projectCmd())
	rootCmd.AddCommand(analyzeCmd())
	rootCmd.AddCommand(showCmd())
	rootCmd.AddCommand(ollamaCmd())
	rootCmd.AddCommand(languagesCmd())
	return rootCmd
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

// loadConfig resolves the config path, loads the config, and applies any
// flag overrides.
func loadConfig() (*config.Config, error) {
	cfgPath := configPath
	if cfgPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("cannot determine home directory: %w", err)
		}
		cfgPath = filepath.Join(home, ".config", "codesage", "config.toml")
	}

	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	applyOverrides(cfg)
	return cfg, nil
}

func applyOverrides(cfg *config.Config) {
	if providerFlag != "" {
		cfg.Generation.Provider = providerFlag
		if providerFlag == "ollama" && (cfg.Generation.APIKeySource == "" || cfg.Generation.APIKeySource == "env") {
			cfg.Generation.APIKeySource = "none"
		}
	}
	if modelFlag != "" {
		cfg.Pipeline.ConstructModel = modelFlag
		cfg.Pipeline.ClassModel = modelFlag
		cfg.Pipeline.ReadmeModels = []string{modelFlag}
	}
	if logLevelFlag != "" {
		cfg.Log.Level = logLevelFlag
	}
}
