package tui

import "github.com/charmbracelet/lipgloss"

// Color scheme
const (
	colorPrimary = "6"  // Cyan
	colorSuccess = "2"  // Green
	colorError   = "1"  // Red
	colorMuted   = "8"  // Dark gray
	colorAccent  = "11" // Bright yellow
)

var (
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorPrimary)).
			BorderStyle(lipgloss.NormalBorder()).
			BorderBottom(true)

	userLabelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorSuccess))

	assistantLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color(colorPrimary))

	thinkingStyle = lipgloss.NewStyle().
			Italic(true).
			Foreground(lipgloss.Color(colorMuted))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorAccent))

	errorStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color(colorError))

	mutedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color(colorMuted))

	composerStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color(colorMuted))
)
