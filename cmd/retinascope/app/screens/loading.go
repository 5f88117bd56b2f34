package screens

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/retinaai/retinascope/cmd/retinascope/app/components"
)

// Timing of the staged-progress sequencer. The stages are cosmetic and do not
// reflect real request state; the floor guarantees a minimum elapsed time
// before a result is shown so fast responses do not feel abrupt.
const (
	StageInterval  = 800 * time.Millisecond
	MinimumDisplay = 2 * time.Second
)

// Stages are the fixed cosmetic progress markers, activated one at a time.
var Stages = [5]string{
	"Uploading retinal scan",
	"Preprocessing image",
	"Running classification model",
	"Computing progression risk",
	"Preparing results",
}

var (
	stageActiveStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("63")).
				Bold(true)

	stageDoneStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42"))

	stagePendingStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("240"))
)

// LoadingScreen shows the staged progress sequence while a submission is in
// flight, along with the local preview of the submitted image.
type LoadingScreen struct {
	seq       int
	active    int
	spin      spinner.Model
	preview   string
	advisory  bool
	startedAt time.Time
	width     int
	height    int
}

// NewLoadingScreen creates the loading view for submission seq. preview is
// the already-rendered local image preview.
func NewLoadingScreen(seq int, preview string) *LoadingScreen {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("63"))

	return &LoadingScreen{
		seq:       seq,
		spin:      sp,
		preview:   preview,
		startedAt: time.Now(),
	}
}

// Init implements tea.Model. It starts the spinner, the stage sequencer and
// the minimum-display floor timer as independent awaitables.
func (s *LoadingScreen) Init() tea.Cmd {
	return tea.Batch(s.spin.Tick, s.stageCmd(), s.floorCmd())
}

func (s *LoadingScreen) stageCmd() tea.Cmd {
	seq := s.seq
	return tea.Tick(StageInterval, func(time.Time) tea.Msg {
		return StageAdvanceMsg{Seq: seq}
	})
}

func (s *LoadingScreen) floorCmd() tea.Cmd {
	seq := s.seq
	return tea.Tick(MinimumDisplay, func(time.Time) tea.Msg {
		return FloorElapsedMsg{Seq: seq}
	})
}

// Update implements tea.Model.
func (s *LoadingScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height

	case StageAdvanceMsg:
		if msg.Seq != s.seq {
			return s, nil
		}
		if s.active < len(Stages)-1 {
			s.active++
			return s, s.stageCmd()
		}
		return s, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		s.spin, cmd = s.spin.Update(msg)
		return s, cmd
	}

	return s, nil
}

// SetAdvisory marks that a patient with the submitted mobile already exists.
func (s *LoadingScreen) SetAdvisory(exists bool) {
	s.advisory = exists
}

// ActiveStage returns the index of the currently highlighted stage.
func (s *LoadingScreen) ActiveStage() int { return s.active }

// Seq returns the submission this screen belongs to.
func (s *LoadingScreen) Seq() int { return s.seq }

// View implements tea.Model.
func (s *LoadingScreen) View() string {
	title := components.TitleStyle.Render("ANALYZING")

	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")

	for i, stage := range Stages {
		switch {
		case i < s.active:
			sb.WriteString(stageDoneStyle.Render("  ✓ " + stage))
		case i == s.active:
			sb.WriteString(stageActiveStyle.Render(fmt.Sprintf("  %s %s", s.spin.View(), stage)))
		default:
			sb.WriteString(stagePendingStyle.Render("    " + stage))
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\n")
	sb.WriteString(components.LabelStyle.Render(fmt.Sprintf("Elapsed: %.1fs", time.Since(s.startedAt).Seconds())))
	sb.WriteString("\n")

	if s.advisory {
		sb.WriteString("\n")
		sb.WriteString(components.WarnStyle.Render("Note: a patient record with this mobile number already exists."))
		sb.WriteString("\n")
	}

	if s.preview != "" {
		sb.WriteString("\n")
		sb.WriteString(components.SubtitleStyle.Render("Submitted image:"))
		sb.WriteString("\n")
		sb.WriteString(s.preview)
		sb.WriteString("\n")
	}

	return sb.String()
}
