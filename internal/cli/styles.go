// Package cli renders session, chat and verification state for the terminal
// and reads commands from it.
package cli

import (
	"github.com/charmbracelet/lipgloss"
)

// Absher palette.
var (
	PrimaryColor = lipgloss.Color("#1B8354")
	AccentColor  = lipgloss.Color("#C9A227")
	SuccessColor = lipgloss.Color("#2DB47D")
	WarningColor = lipgloss.Color("#F5A524")
	ErrorColor   = lipgloss.Color("#D64545")
	InfoColor    = lipgloss.Color("#5FB3B3")
	SubtleColor  = lipgloss.Color("#7A7A7A")
)

var (
	// TitleStyle is used for box and section titles.
	TitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(PrimaryColor).
			MarginBottom(1)

	SuccessStyle = lipgloss.NewStyle().Foreground(SuccessColor)
	WarningStyle = lipgloss.NewStyle().Foreground(WarningColor)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ErrorColor)
	InfoStyle    = lipgloss.NewStyle().Foreground(InfoColor)
	SubtleStyle  = lipgloss.NewStyle().Foreground(SubtleColor)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	// LinkStyle marks anything the user can act on by number: deep links
	// and suggestion chips.
	LinkStyle = lipgloss.NewStyle().
			Underline(true).
			Foreground(AccentColor)

	// SessionBoxStyle frames the session summary.
	SessionBoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(PrimaryColor).
			Padding(0, 1)

	// ProgressStyle fills the paid share of the payment bar.
	ProgressStyle = lipgloss.NewStyle().Foreground(PrimaryColor)

	PromptStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(AccentColor)
)

const (
	SuccessIcon = "✓"
	ErrorIcon   = "✗"
	WarningIcon = "⚠️"
	InfoIcon    = "ℹ️"
	UserIcon    = "👤"
	RobotIcon   = "🤖"
	LinkIcon    = "🔗"
	BellIcon    = "🔔"
	ShieldIcon  = "🛡️"
	SpinnerIcon = "⏳"
)

// FormatSuccess formats a success line.
func FormatSuccess(message string) string {
	return SuccessStyle.Render(SuccessIcon + " " + message)
}

// FormatError formats an error line.
func FormatError(message string) string {
	return ErrorStyle.Render(ErrorIcon + " " + message)
}

// FormatWarning formats a warning line.
func FormatWarning(message string) string {
	return WarningStyle.Render(WarningIcon + " " + message)
}

// FormatInfo formats an informational line.
func FormatInfo(message string) string {
	return InfoStyle.Render(InfoIcon + " " + message)
}

// FormatTitle prefixes title with the shield mark.
func FormatTitle(title string) string {
	return TitleStyle.Render(ShieldIcon + " " + title)
}

// FormatPrompt formats the input prompt for speaker.
func FormatPrompt(speaker string) string {
	return PromptStyle.Render(speaker + " ← ")
}

// RenderBox frames content under title.
func RenderBox(title, content string) string {
	return SessionBoxStyle.Render(lipgloss.JoinVertical(
		lipgloss.Right,
		TitleStyle.UnsetMargins().Render(title),
		content,
	))
}
