package tui

import "github.com/charmbracelet/lipgloss"

// Row statuses shown in the STATUS column.
const (
	StatusPending   = "pending"
	StatusAnalyzing = "analyzing"
	StatusAnalyzed  = "analyzed"
	StatusCached    = "cached"
	StatusEmpty     = "empty"
	StatusError     = "error"
)

var (
	// HeaderStyle styles the column header row.
	HeaderStyle = lipgloss.NewStyle().Bold(true)
	// FooterStyle styles the progress line under the table.
	FooterStyle = lipgloss.NewStyle().Faint(true)

	green  = lipgloss.NewStyle().Foreground(lipgloss.Color("2"))
	blue   = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	yellow = lipgloss.NewStyle().Foreground(lipgloss.Color("3"))
	red    = lipgloss.NewStyle().Foreground(lipgloss.Color("1"))

	statusStyles = map[string]lipgloss.Style{
		StatusAnalyzed:  green,
		StatusCached:    green,
		StatusAnalyzing: blue,
		StatusEmpty:     yellow,
		StatusError:     red,
		StatusPending:   lipgloss.NewStyle().Faint(true),
	}
)

// StatusStyle returns the style for status, or a plain style when unknown.
func StatusStyle(status string) lipgloss.Style {
	if s, ok := statusStyles[status]; ok {
		return s
	}
	return lipgloss.NewStyle()
}

// Settled reports whether status is terminal.
func Settled(status string) bool {
	switch status {
	case StatusAnalyzed, StatusCached, StatusEmpty, StatusError:
		return true
	}
	return false
}
