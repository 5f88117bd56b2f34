package screens

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/retinaai/retinascope/cmd/retinascope/app/components"
	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/patient"
	"github.com/retinaai/retinascope/internal/report"
)

// PreviewScreen confirms a generated report and shows where it was written.
// It overlays whichever view requested the print; esc returns to it.
type PreviewScreen struct {
	rep     report.Report
	patient patient.Record
	model   diagnosis.DisplayModel
	closed  bool
	width   int
	height  int
}

// NewPreviewScreen wraps a freshly generated report.
func NewPreviewScreen(rep report.Report, p patient.Record, model diagnosis.DisplayModel) *PreviewScreen {
	return &PreviewScreen{rep: rep, patient: p, model: model}
}

// Init implements tea.Model.
func (s *PreviewScreen) Init() tea.Cmd {
	return nil
}

// Update implements tea.Model.
func (s *PreviewScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "enter", "q":
			s.closed = true
		}
	}
	return s, nil
}

// Closed reports whether the user dismissed the preview.
func (s *PreviewScreen) Closed() bool { return s.closed }

// View implements tea.Model.
func (s *PreviewScreen) View() string {
	var sb strings.Builder

	sb.WriteString(components.TitleStyle.Render("REPORT GENERATED"))
	sb.WriteString("\n")

	headline := s.model.Label
	if s.model.Rejected {
		headline = "Input Rejected"
	}

	body := strings.Join([]string{
		components.LabelStyle.Render("Report ID:  ") + components.ValueStyle.Render(s.rep.ID),
		components.LabelStyle.Render("Patient:    ") + components.ValueStyle.Render(s.patient.Name),
		components.LabelStyle.Render("Diagnosis:  ") + components.ValueStyle.Render(headline),
		components.LabelStyle.Render("Generated:  ") + components.ValueStyle.Render(s.rep.GeneratedAt.Format("2006-01-02 15:04:05")),
		components.LabelStyle.Render("Written to: ") + components.ValueStyle.Render(s.rep.Path),
	}, "\n")

	sb.WriteString(components.BoxStyle.Render(body))
	sb.WriteString("\n\n")
	sb.WriteString(components.SubtitleStyle.Render(fmt.Sprintf("Open %s in a browser to print.", s.rep.Path)))
	sb.WriteString("\n\n")
	sb.WriteString(components.HintStyle.Render("Esc: Back"))
	return sb.String()
}
