package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme groups the composed styles.
var Theme = struct {
	Title   lipgloss.Style
	Heading lipgloss.Style
	Body    lipgloss.Style
	Muted   lipgloss.Style
	Bold    lipgloss.Style

	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	ListBullet lipgloss.Style
	ListItem   lipgloss.Style
}{
	Title:   lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary),
	Heading: lipgloss.NewStyle().Bold(true).Foreground(ColorText),
	Body:    lipgloss.NewStyle().Foreground(ColorText),
	Muted:   lipgloss.NewStyle().Foreground(ColorTextMuted),
	Bold:    lipgloss.NewStyle().Bold(true),

	Success: lipgloss.NewStyle().Foreground(ColorSuccess),
	Error:   lipgloss.NewStyle().Foreground(ColorError),
	Warning: lipgloss.NewStyle().Foreground(ColorWarning),
	Info:    lipgloss.NewStyle().Foreground(ColorInfo),

	ListBullet: lipgloss.NewStyle().Foreground(ColorPrimary),
	ListItem:   lipgloss.NewStyle().Foreground(ColorText),
}

// RenderState colors an onboarding state: onboarded is green, a failed run
// is red, anything else is in progress.
func RenderState(state string, failed bool) string {
	switch {
	case failed:
		return Theme.Error.Render(IconError + " " + state)
	case state == "onboarded":
		return Theme.Success.Render(IconSuccess + " " + state)
	default:
		return Theme.Warning.Render(IconPending + " " + state)
	}
}

// RenderListItem returns item with a bullet.
func RenderListItem(item string) string {
	return Theme.ListBullet.Render(IconBullet) + " " + Theme.ListItem.Render(item)
}

// RenderError returns a styled error message.
func RenderError(msg string) string {
	return Theme.Error.Render(IconError + " " + msg)
}

// RenderSuccess returns a styled success message.
func RenderSuccess(msg string) string {
	return Theme.Success.Render(IconSuccess + " " + msg)
}

// RenderWarning returns a styled warning message.
func RenderWarning(msg string) string {
	return Theme.Warning.Render(IconWarning + " " + msg)
}

// RenderInfo returns a styled info message.
func RenderInfo(msg string) string {
	return Theme.Info.Render(IconInfo + " " + msg)
}
