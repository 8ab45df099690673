package tui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF99"))

	subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#4B5563"))

	criticalStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0055"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#F59E0B"))

	listSelectedStyle = lipgloss.NewStyle().
				Bold(true)

	listNormalStyle = lipgloss.NewStyle()

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00CCFF"))
)
