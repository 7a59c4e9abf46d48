package cli

import (
	"context"
	"time"

	lipgloss "github.com/charmbracelet/lipgloss/v2"
	"github.com/spf13/cobra"
)

func newModelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "models",
		Short: "List models the endpoint offers",
		Args:  cobra.NoArgs,
		RunE:  runModelsCmd,
	}
}

func runModelsCmd(cmd *cobra.Command, _ []string) error {
	setupLogging()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), 5*time.Second)
	defer cancel()

	models, err := newClient(cfg).ListModels(ctx)
	if err != nil {
		return err
	}

	if len(models) == 0 {
		lipgloss.Println(styleDim.Render("endpoint reports no models"))
		return nil
	}

	for _, model := range models {
		marker := "  "
		if model == cfg.Model {
			marker = styleSuccess.Render("* ")
		}
		lipgloss.Println(marker + model)
	}
	return nil
}
