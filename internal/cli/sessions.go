package cli

import (
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	lipgloss "github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/lipgloss/v2/table"
	"github.com/spf13/cobra"

	"github.com/erg0nix/synapse/internal/content"
	"github.com/erg0nix/synapse/internal/core"
	"github.com/erg0nix/synapse/internal/evolution"
	"github.com/erg0nix/synapse/internal/session"
)

func newSessionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List saved sessions",
		Args:  cobra.NoArgs,
		RunE:  runSessionsCmd,
	}
}

func runSessionsCmd(cmd *cobra.Command, _ []string) error {
	setupLogging()

	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	list, err := session.List(cfg.SessionsDir())
	if err != nil {
		return err
	}
	if len(list) == 0 {
		lipgloss.Println(styleDim.Render("no sessions found"))
		return nil
	}

	if !isInteractive() {
		printSessionsTable(list, "")
		return nil
	}

	// The store is only needed for display names; a missing content dir
	// falls back to raw IDs.
	store, _ := content.Load(cfg.ContentDir)

	return pickSession(list, store, cfg.Diagram.TierThresholds)
}

func printSessionsTable(list []session.Summary, activeID core.SessionID) {
	t := table.New().
		Headers("", "SESSION", "MODEL", "EXCHANGES", "STARTED").
		BorderTop(false).
		BorderBottom(false).
		BorderLeft(false).
		BorderRight(false).
		BorderColumn(false).
		BorderHeader(true).
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return styleTableHeader
			}
			return lipgloss.NewStyle().PaddingRight(2)
		})

	for _, info := range list {
		marker := " "
		id := string(info.ID)
		if info.ID == activeID {
			marker = styleSuccess.Render("*")
		}

		t.Row(marker, id, info.Model,
			fmt.Sprintf("%d", info.Exchanges),
			formatTime(info.StartedAt))
	}

	lipgloss.Println(t.Render())
}

func pickSession(list []session.Summary, store *content.Store, thresholds []int) error {
	var opts []huh.Option[string]
	for _, info := range list {
		label := string(info.ID)
		desc := fmt.Sprintf("model:%s exchanges:%d %s", info.Model, info.Exchanges, formatTime(info.StartedAt))

		opt := huh.NewOption(label, info.Path)
		opt.Key = label + "  " + styleDim.Render(desc)
		opts = append(opts, opt)
	}

	var selected string
	err := huh.NewSelect[string]().
		Title("Pick a session").
		Options(opts...).
		Value(&selected).
		Run()
	if err != nil {
		return err
	}

	s, err := session.Load(selected)
	if err != nil {
		return err
	}

	lipgloss.Println(styleBanner.Render(string(s.ID)) + styleDim.Render(fmt.Sprintf("  %d exchanges, model %s", len(s.Exchanges), s.Model)))
	fmt.Println(evolution.MasteryDiagram(store, s, thresholds))
	return nil
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Format("2006-01-02 15:04")
}
