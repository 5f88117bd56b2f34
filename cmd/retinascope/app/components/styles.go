package components

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/retinaai/retinascope/internal/diagnosis"
)

var (
	TitleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("63")).
		MarginBottom(1)

	SubtitleStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244")).
		MarginBottom(1)

	ErrorStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("196")).
		Bold(true)

	WarnStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("214"))

	HintStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	LabelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("244"))

	ValueStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("252")).
		Bold(true)

	BoxStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("63")).
		Padding(1, 2)

	SelectedRowStyle = lipgloss.NewStyle().
		Background(lipgloss.Color("236"))
)

// SeverityStyle colors text with the palette entry for the given severity,
// falling back to the neutral color outside the table.
func SeverityStyle(severity int) lipgloss.Style {
	color := diagnosis.NeutralColor
	if severity >= 0 && severity < len(diagnosis.Palette) {
		color = diagnosis.Palette[severity]
	}
	return lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Bold(true)
}

// Badge renders a severity class label in its tier color.
func Badge(label string, severity int) string {
	return SeverityStyle(severity).Render(label)
}
