package cli

import (
	lipgloss "github.com/charmbracelet/lipgloss/v2"
)

var (
	colorPrimary = lipgloss.Color("#7C71F9")
	colorSuccess = lipgloss.Color("#34D399")
	colorError   = lipgloss.Color("#F87171")
	colorWarning = lipgloss.Color("#FBBF24")
	colorDim     = lipgloss.Color("#6B7280")
	colorAccent  = lipgloss.Color("#60A5FA")
)

var (
	styleDim     = lipgloss.NewStyle().Foreground(colorDim)
	styleError   = lipgloss.NewStyle().Foreground(colorError)
	styleSuccess = lipgloss.NewStyle().Foreground(colorSuccess)
	styleWarning = lipgloss.NewStyle().Foreground(colorWarning)

	styleBanner = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
	styleMode   = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	stylePrompt = lipgloss.NewStyle().Bold(true).Foreground(colorSuccess)

	styleKoan = lipgloss.NewStyle().Faint(true).Italic(true)

	styleTableHeader = lipgloss.NewStyle().Bold(true).Foreground(colorPrimary)
)

func styledError(msg string, hints ...string) string {
	out := styleError.Render(msg)
	for _, h := range hints {
		out += "\n  " + styleDim.Render(h)
	}
	return out
}
