package tui

import "github.com/charmbracelet/lipgloss"

var (
	salmonPink  = lipgloss.Color("#FFB3BA")
	coralPink   = lipgloss.Color("#FFCCCB")
	mintGreen   = lipgloss.Color("#A8E6CF")
	skyBlue     = lipgloss.Color("#A0C4FF")
	mutedGray   = lipgloss.Color("#6B7280")
	brightWhite = lipgloss.Color("#F9FAFB")
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	subtitleStyle = lipgloss.NewStyle().
			Foreground(mutedGray)

	userLabelStyle = lipgloss.NewStyle().
			Foreground(coralPink).
			Bold(true)

	assistantLabelStyle = lipgloss.NewStyle().
				Foreground(mintGreen).
				Bold(true)

	systemStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Italic(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(salmonPink)

	noticeStyle = lipgloss.NewStyle().
			Foreground(skyBlue)

	textStyle = lipgloss.NewStyle().
			Foreground(brightWhite)

	inputBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(salmonPink).
			Padding(0, 1)

	paletteStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(mutedGray).
			Padding(0, 1)

	paletteItemStyle = lipgloss.NewStyle().
				Foreground(brightWhite)

	paletteSelectedStyle = lipgloss.NewStyle().
				Foreground(salmonPink).
				Bold(true)

	paletteDescStyle = lipgloss.NewStyle().
				Foreground(mutedGray)

	statusBarStyle = lipgloss.NewStyle().
			Foreground(mutedGray).
			Padding(0, 1)

	statusKeyStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)
)
