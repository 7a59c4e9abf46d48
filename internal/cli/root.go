package cli

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/erg0nix/synapse/internal/config"
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "synapse",
		Short:         "synapse ritual companion",
		Long:          "Drives a locally hosted model through ritual modes, records every exchange, and tracks your practice across sessions.",
		SilenceErrors: true,
		SilenceUsage:  true,
		Args:          cobra.NoArgs,
		RunE:          runCmd,
	}

	rootCmd.PersistentFlags().StringP("config", "c", "", "path to config file")
	rootCmd.PersistentFlags().String("model", "", "model name override")
	rootCmd.Flags().Uint64("seed", 0, "fix the draw seed for reproducible selection")

	rootCmd.AddCommand(newSessionsCmd())
	rootCmd.AddCommand(newEvolutionCmd())
	rootCmd.AddCommand(newModelsCmd())
	rootCmd.AddCommand(newInitCmd())

	return rootCmd
}

func setupLogging() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))
}

func loadConfig(cmd *cobra.Command) (config.Config, error) {
	configPath, _ := cmd.Flags().GetString("config")
	if configPath == "" {
		configPath = filepath.Join(config.Default().DataDir, "config.toml")
	}

	cfg, err := config.LoadOrCreate(configPath)
	if err != nil {
		return cfg, fmt.Errorf("load config: %w", err)
	}

	if model, _ := cmd.Flags().GetString("model"); model != "" {
		cfg.Model = model
	}

	return cfg, nil
}
