package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/erg0nix/synapse/internal/evolution"
)

func newEvolutionCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evolution [file...]",
		Short: "Evolution report over saved sessions",
		Long:  "Aggregates archetype, element, koan and mode usage across all saved sessions, or only the named session files.",
		RunE:  runEvolutionCmd,
	}
	cmd.Flags().Bool("diagram", false, "render the mastery diagram instead of the text report")
	return cmd
}

func runEvolutionCmd(cmd *cobra.Command, args []string) error {
	setupLogging()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	store, err := loadStore(cfg)
	if err != nil {
		return err
	}

	report, err := evolution.Analyze(store, cfg.SessionsDir(), args...)
	if err != nil {
		return err
	}

	if diagram, _ := cmd.Flags().GetBool("diagram"); diagram {
		fmt.Println(evolution.RenderDiagram(store, report, cfg.Diagram.TierThresholds))
		return nil
	}

	fmt.Println(evolution.RenderReport(store, report))
	return nil
}
