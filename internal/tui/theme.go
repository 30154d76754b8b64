package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorText    lipgloss.Color = "#cdd6f4"
	colorMuted   lipgloss.Color = "#a6adc8"
	colorBorder  lipgloss.Color = "#585b70"
	colorAccent  lipgloss.Color = "#89b4fa"
	colorSuccess lipgloss.Color = "#a6e3a1"
	colorError   lipgloss.Color = "#f38ba8"
	colorWarn    lipgloss.Color = "#f9e2af"
	colorMantle  lipgloss.Color = "#181825"
	colorSurface lipgloss.Color = "#313244"
)

var (
	headerBarStyle = lipgloss.NewStyle().Background(colorMantle).Foreground(colorText)
	titleStyle     = lipgloss.NewStyle().Foreground(colorAccent).Bold(true).Background(colorMantle)
	badgeStyle     = lipgloss.NewStyle().Foreground(colorMantle).Background(colorAccent).Padding(0, 1)
	errBadgeStyle  = lipgloss.NewStyle().Foreground(colorMantle).Background(colorError).Padding(0, 1)
	secureStyle    = lipgloss.NewStyle().Foreground(colorMantle).Background(colorWarn).Bold(true).Padding(0, 1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)
	focusPaneStyle = paneStyle.BorderForeground(colorAccent)

	labelStyle  = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(colorMuted)
	keyStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	markerStyle = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	openStyle   = lipgloss.NewStyle().Foreground(colorWarn).Bold(true)

	toastStyle    = lipgloss.NewStyle().Foreground(colorSuccess).Background(colorSurface)
	toastErrStyle = lipgloss.NewStyle().Foreground(colorError).Background(colorSurface)
	footerStyle   = lipgloss.NewStyle().Background(colorMantle)

	popoverStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorWarn).
			Padding(0, 1)
)
