package lipgloss

import "github.com/charmbracelet/lipgloss"

// Shared styles for terminal output.
var (
	Red     = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF5555"))
	Green   = lipgloss.NewStyle().Foreground(lipgloss.Color("#50FA7B"))
	Yellow  = lipgloss.NewStyle().Foreground(lipgloss.Color("#F1FA8C"))
	Info    = lipgloss.NewStyle().Foreground(lipgloss.Color("#8BE9FD"))
	BlueSky = lipgloss.NewStyle().Foreground(lipgloss.Color("#87CEEB"))

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#6272A4")).
			Padding(0, 1)
)
