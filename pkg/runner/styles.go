package runner

import "github.com/charmbracelet/lipgloss"

// Color palette shared by the console reporter.
var (
	mintGreen  = lipgloss.Color("#A8E6CF") // passed tests, discovered flows
	salmonPink = lipgloss.Color("#FFB3BA") // failures
	skyBlue    = lipgloss.Color("#A0C4FF") // totals
	mutedGray  = lipgloss.Color("#6B7280") // secondary text
)

var (
	passStyle = lipgloss.NewStyle().
			Foreground(mintGreen)

	failStyle = lipgloss.NewStyle().
			Foreground(salmonPink).
			Bold(true)

	totalStyle = lipgloss.NewStyle().
			Foreground(skyBlue).
			Bold(true)

	mutedStyle = lipgloss.NewStyle().
			Foreground(mutedGray)
)
