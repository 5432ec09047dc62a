// Package styles provides the terminal styling of the gatekeeper CLI.
package styles

import "github.com/charmbracelet/lipgloss"

// Palette.
var (
	Green  = lipgloss.Color("#00cc6a")
	Cyan   = lipgloss.Color("#00a0cc")
	Yellow = lipgloss.Color("#e5c07b")
	Red    = lipgloss.Color("#e06c75")
	Grey   = lipgloss.Color("#8a8a8a")
	Light  = lipgloss.Color("#d0d0d0")
	Dark   = lipgloss.Color("#3a3a3a")
)

// Semantic colors.
var (
	ColorPrimary   = Green
	ColorSuccess   = Green
	ColorInfo      = Cyan
	ColorWarning   = Yellow
	ColorError     = Red
	ColorText      = Light
	ColorTextMuted = Grey
	ColorBorder    = Dark
)
