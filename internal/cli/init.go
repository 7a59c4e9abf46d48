package cli

import (
	"fmt"

	lipgloss "github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"

	"github.com/erg0nix/synapse/internal/content"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Write the default config and starter content",
		Args:  cobra.NoArgs,
		RunE:  runInitCmd,
	}
}

func runInitCmd(cmd *cobra.Command, _ []string) error {
	setupLogging()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	written, err := content.WriteDefaults(cfg.ContentDir)
	if err != nil {
		return err
	}

	if written == 0 {
		lipgloss.Println(styleDim.Render("content already present at " + cfg.ContentDir))
	} else {
		lipgloss.Println(styleSuccess.Render(fmt.Sprintf("wrote %d content file(s)", written)) + " " + styleDim.Render(cfg.ContentDir))
	}

	// Prove the written set loads before declaring success.
	if _, err := content.Load(cfg.ContentDir); err != nil {
		return err
	}

	lipgloss.Println(styleSuccess.Render("ready") + styleDim.Render("  start with: synapse"))
	return nil
}
