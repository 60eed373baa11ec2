package main

import "github.com/charmbracelet/lipgloss"

var (
	accent = lipgloss.Color("#1E88E5")
	live   = lipgloss.Color("#4CAF50")
	amber  = lipgloss.Color("#FFB74D")
	alert  = lipgloss.Color("#F44336")
	muted  = lipgloss.Color("#90A4AE")
	border = lipgloss.Color("#30363D")

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(accent).
			Padding(0, 1)

	panelStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(border).
			Padding(0, 1).
			Width(panelWidth)

	labelStyle = lipgloss.NewStyle().
			Foreground(muted).
			Width(20)

	valueStyle = lipgloss.NewStyle().
			Bold(true)

	liveStyle = lipgloss.NewStyle().
			Foreground(live).
			Bold(true).
			Padding(0, 1)

	warnStyle = lipgloss.NewStyle().
			Foreground(amber).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(alert).
			Bold(true).
			Padding(0, 1)

	mutedStyle = lipgloss.NewStyle().
			Foreground(muted)

	helpStyle = lipgloss.NewStyle().
			Foreground(muted).
			Padding(0, 1)
)
