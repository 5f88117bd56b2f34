package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/retinaai/retinascope/cmd/retinascope/app/components"
	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/patient"
)

// DashboardScreen renders one completed diagnosis: headline, risk meter,
// per-class probabilities, projected risk trend and the recommendation tier.
type DashboardScreen struct {
	patient patient.Record
	model   diagnosis.DisplayModel
	width   int
	height  int
}

// NewDashboardScreen builds the dashboard for a mapped result.
func NewDashboardScreen(p patient.Record, model diagnosis.DisplayModel) *DashboardScreen {
	return &DashboardScreen{patient: p, model: model}
}

// Init implements tea.Model.
func (s *DashboardScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model. Navigation keys are handled by the
// orchestrator; the dashboard itself only tracks the window size.
func (s *DashboardScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if ws, ok := msg.(tea.WindowSizeMsg); ok {
		s.width = ws.Width
		s.height = ws.Height
	}
	return s, nil
}

// View implements tea.Model.
func (s *DashboardScreen) View() string {
	var sb strings.Builder

	sb.WriteString(components.TitleStyle.Render("DIAGNOSIS RESULT"))
	sb.WriteString("\n")

	sb.WriteString(s.patientLine())
	sb.WriteString("\n\n")

	if s.model.Rejected {
		sb.WriteString(components.ErrorStyle.Render("✗ " + s.model.Message))
		sb.WriteString("\n\n")
		sb.WriteString(s.recommendationBox())
		sb.WriteString("\n\n")
		sb.WriteString(s.hints())
		return sb.String()
	}

	headline := lipgloss.NewStyle().
		Foreground(lipgloss.Color(s.model.Color)).
		Bold(true).
		Render(s.model.Label)
	sb.WriteString("  Classification: " + headline)
	sb.WriteString("\n\n")

	sb.WriteString(components.LabelStyle.Render("  Progression Risk"))
	sb.WriteString("\n")
	if s.model.RiskSuppressed {
		sb.WriteString("  " + components.ValueStyle.Render("N/A"))
	} else {
		sb.WriteString("  " + components.Meter(s.model.Risk, 30, s.model.Color))
		sb.WriteString(components.ValueStyle.Render(fmt.Sprintf(" %.1f%%", s.model.Risk)))
	}
	sb.WriteString("\n\n")

	sb.WriteString(components.LabelStyle.Render("  Class Probabilities"))
	sb.WriteString("\n")
	for _, bar := range s.model.Probabilities {
		sb.WriteString("  " + components.BarRow(bar.Label, bar.Percent, 24, bar.Color))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if !s.model.RiskSuppressed {
		sb.WriteString(components.LabelStyle.Render("  Projected Risk Trend"))
		sb.WriteString("\n")
		for i, v := range s.model.Trend {
			sb.WriteString("  " + components.BarRow(diagnosis.TrendPoints[i], v, 24, s.model.Color))
			sb.WriteString("\n")
		}
		sb.WriteString("\n")
	}

	sb.WriteString(s.recommendationBox())
	sb.WriteString("\n\n")
	sb.WriteString(s.hints())
	return sb.String()
}

func (s *DashboardScreen) patientLine() string {
	fields := []string{
		components.LabelStyle.Render("  Patient: ") + components.ValueStyle.Render(s.patient.Name),
		components.LabelStyle.Render("Age: ") + components.ValueStyle.Render(fmt.Sprintf("%d", s.patient.Age)),
		components.LabelStyle.Render("Mobile: ") + components.ValueStyle.Render(s.patient.Mobile),
	}
	return strings.Join(fields, "   ")
}

func (s *DashboardScreen) recommendationBox() string {
	var sb strings.Builder
	sb.WriteString(components.ValueStyle.Render(s.model.Recommendation.Title))
	for _, p := range s.model.Recommendation.Points {
		sb.WriteString("\n• " + p)
	}
	return components.BoxStyle.Render(sb.String())
}

func (s *DashboardScreen) hints() string {
	return components.HintStyle.Render("d: New diagnosis | h: History | p: Print report | q: Quit")
}
