package components

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

// Meter renders a filled horizontal bar for a 0-100 value.
func Meter(percent float64, width int, color string) string {
	if width <= 0 {
		width = 30
	}
	if percent < 0 {
		percent = 0
	}
	if percent > 100 {
		percent = 100
	}

	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	empty := width - filled

	bar := lipgloss.NewStyle().Foreground(lipgloss.Color(color)).Render(strings.Repeat("█", filled))
	bar += lipgloss.NewStyle().Foreground(lipgloss.Color("240")).Render(strings.Repeat("░", empty))
	return bar
}

// BarRow renders one labeled percentage bar, label left-padded to align a
// column of rows.
func BarRow(label string, percent float64, width int, color string) string {
	return fmt.Sprintf("%14s %s %5.1f%%", label, Meter(percent, width, color), percent)
}
