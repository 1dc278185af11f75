package tui

import "github.com/charmbracelet/lipgloss"

var (
	boldStyle  = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Faint(true)
	urlStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("6")).Underline(true)
	greenStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	redStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))
)

// ColorRed colors text red
func ColorRed(text string) string {
	return redStyle.Render(text)
}

// ColorGreen colors text green
func ColorGreen(text string) string {
	return greenStyle.Render(text)
}

// ColorDim dims text
func ColorDim(text string) string {
	return dimStyle.Render(text)
}

// Bold renders text in bold
func Bold(text string) string {
	return boldStyle.Render(text)
}

// ColorURL styles a link
func ColorURL(text string) string {
	return urlStyle.Render(text)
}
