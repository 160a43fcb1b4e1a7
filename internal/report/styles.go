package report

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/robustidx/internal/robust"
)

var (
	Title = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#00ffff"))

	Header = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#ffffff")).
		BorderStyle(lipgloss.NormalBorder()).
		BorderBottom(true).
		BorderForeground(lipgloss.Color("#444466"))

	Label = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#888899"))

	Subtle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#666688"))

	// index colours: unbounded is the best case, non-robust the worst
	UnboundedStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ff88"))
	FiniteStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#00ccff"))
	NonRobustStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#ff4444"))
	FailureStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#ffaa00"))
)

func IndexStyle(idx robust.Index) lipgloss.Style {
	switch {
	case idx.IsUnbounded():
		return UnboundedStyle
	case idx.IsNonRobust():
		return NonRobustStyle
	}
	return FiniteStyle
}

// FormatIndex renders idx in its colour.
func FormatIndex(idx robust.Index) string {
	return IndexStyle(idx).Render(idx.String())
}
