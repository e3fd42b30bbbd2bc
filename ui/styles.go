package ui

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	colorRed    = lipgloss.Color("#FF5555")
	colorYellow = lipgloss.Color("#F1FA8C")
	colorGreen  = lipgloss.Color("#50FA7B")
	colorCyan   = lipgloss.Color("#8BE9FD")
	colorWhite  = lipgloss.Color("#F8F8F2")
	colorGray   = lipgloss.Color("#6272A4")
	colorPanel  = lipgloss.Color("#44475A")

	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorCyan)
	labelStyle    = lipgloss.NewStyle().Foreground(colorGray)
	valueStyle    = lipgloss.NewStyle().Foreground(colorWhite)
	warnStyle     = lipgloss.NewStyle().Foreground(colorYellow).Bold(true)
	critStyle     = lipgloss.NewStyle().Foreground(colorRed).Bold(true)
	okStyle       = lipgloss.NewStyle().Foreground(colorGreen)
	headerStyle   = lipgloss.NewStyle().Foreground(colorCyan).Bold(true)
	selectedStyle = lipgloss.NewStyle().Background(colorPanel).Foreground(colorWhite)
	helpStyle     = lipgloss.NewStyle().Foreground(colorGray)
	cellStyle     = lipgloss.NewStyle().Padding(0, 1)
)

// usageColor picks a style for a utilisation percentage (higher is worse).
func usageColor(pct float64) lipgloss.Style {
	switch {
	case pct >= 90:
		return critStyle
	case pct >= 70:
		return warnStyle
	default:
		return okStyle
	}
}
