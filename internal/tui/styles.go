package tui

import "github.com/charmbracelet/lipgloss"

const (
	primaryColor   = "#7C3AED" // Purple
	secondaryColor = "#10B981" // Green
	recordColor    = "#EF4444" // Red
	dimColor       = "#6B7280" // Gray
)

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	buttonStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(primaryColor)).
			Padding(0, 2)

	recordingButtonStyle = buttonStyle.
				BorderForeground(lipgloss.Color(recordColor)).
				Foreground(lipgloss.Color(recordColor))

	playingButtonStyle = buttonStyle.
				BorderForeground(lipgloss.Color(secondaryColor)).
				Foreground(lipgloss.Color(secondaryColor))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(primaryColor)).
			Bold(true)

	playingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(secondaryColor))

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(dimColor))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(recordColor))

	visualizerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(recordColor))
)
