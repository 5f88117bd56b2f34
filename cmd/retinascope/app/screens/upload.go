package screens

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/retinaai/retinascope/cmd/retinascope/app/components"
	"github.com/retinaai/retinascope/internal/patient"
)

// UploadScreen captures the patient form and the image selection. Full
// cross-field validation happens at submission time in the orchestrator; the
// per-field validators here only catch format errors early.
type UploadScreen struct {
	form      *huh.Form
	in        patient.Input
	errMsg    string
	done      bool
	cancelled bool
	width     int
	height    int
}

var uploadMobilePattern = regexp.MustCompile(`^[0-9]{10}$`)

// NewUploadScreen creates the upload form. in prefills the fields, so typed
// values survive a failed submission; errMsg, when non-empty, is shown as a
// blocking banner above the form.
func NewUploadScreen(in patient.Input, errMsg string) *UploadScreen {
	s := &UploadScreen{in: in, errMsg: errMsg}

	s.form = huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Key("name").
				Title("Patient Name").
				Value(&s.in.Name).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("name is required")
					}
					return nil
				}),

			huh.NewInput().
				Key("dob").
				Title("Date of Birth").
				Description("Format: YYYY-MM-DD (optional when age is entered)").
				Value(&s.in.DateOfBirth).
				Validate(validateOptionalDate),

			huh.NewInput().
				Key("age").
				Title("Age").
				Description("Years, 0-120 (derived from date of birth when empty)").
				Value(&s.in.Age).
				Validate(validateOptionalAge),

			huh.NewInput().
				Key("mobile").
				Title("Mobile Number").
				Description("Exactly 10 numeric digits").
				Value(&s.in.Mobile).
				Validate(func(v string) error {
					if !uploadMobilePattern.MatchString(strings.TrimSpace(v)) {
						return fmt.Errorf("must be exactly 10 digits")
					}
					return nil
				}),

			huh.NewSelect[string]().
				Key("gender").
				Title("Gender").
				Options(
					huh.NewOption("Not specified", ""),
					huh.NewOption("Female", "F"),
					huh.NewOption("Male", "M"),
					huh.NewOption("Other", "O"),
				).
				Value(&s.in.Gender),

			huh.NewInput().
				Key("diabetes_duration").
				Title("Diabetes Duration").
				Description("Years since diagnosis (optional)").
				Value(&s.in.DiabetesDuration).
				Validate(validateOptionalNumber),

			huh.NewInput().
				Key("image").
				Title("Image File").
				Description("Path to a retinal fundus scan (JPEG/PNG/DICOM)").
				Value(&s.in.ImagePath).
				Validate(func(v string) error {
					if strings.TrimSpace(v) == "" {
						return fmt.Errorf("an image file is required")
					}
					if _, err := os.Stat(v); err != nil {
						return fmt.Errorf("file not found")
					}
					return nil
				}),
		),
	).WithShowHelp(false).WithShowErrors(true)

	return s
}

func validateOptionalDate(v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	if _, err := time.Parse("2006-01-02", v); err != nil {
		return fmt.Errorf("invalid date format, use YYYY-MM-DD")
	}
	return nil
}

func validateOptionalAge(v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	age, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return fmt.Errorf("must be a whole number")
	}
	if age < 0 || age > 120 {
		return fmt.Errorf("must be between 0 and 120")
	}
	return nil
}

func validateOptionalNumber(v string) error {
	if strings.TrimSpace(v) == "" {
		return nil
	}
	if n, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err != nil || n < 0 {
		return fmt.Errorf("must be a non-negative number")
	}
	return nil
}

// Init implements tea.Model.
func (s *UploadScreen) Init() tea.Cmd {
	return s.form.Init()
}

// Update implements tea.Model.
func (s *UploadScreen) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc":
			s.cancelled = true
			return s, tea.Quit
		}
	case tea.WindowSizeMsg:
		s.width = msg.Width
		s.height = msg.Height
	}

	form, cmd := s.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		s.form = f
	}

	if s.form.State == huh.StateCompleted {
		s.done = true
	}

	return s, cmd
}

// View implements tea.Model.
func (s *UploadScreen) View() string {
	if s.cancelled {
		return "Cancelled.\n"
	}

	title := components.TitleStyle.Render("NEW DIAGNOSIS")

	parts := []string{title}

	if s.errMsg != "" {
		parts = append(parts, components.ErrorStyle.Render("✗ "+s.errMsg), "")
	}

	parts = append(parts, s.form.View())

	if s.in.ImagePath != "" {
		if info, err := os.Stat(s.in.ImagePath); err == nil {
			parts = append(parts, components.SubtitleStyle.Render(
				fmt.Sprintf("Selected: %s (%s)", s.in.ImagePath, humanize.Bytes(uint64(info.Size())))))
		}
	}

	parts = append(parts, "",
		components.HintStyle.Render("Tab: Next field | Enter: Submit | Ctrl+L: History | Esc: Quit"))

	return lipgloss.JoinVertical(lipgloss.Left, parts...)
}

// Done returns true if the form was completed.
func (s *UploadScreen) Done() bool { return s.done }

// Cancelled returns true if the user cancelled.
func (s *UploadScreen) Cancelled() bool { return s.cancelled }

// Input returns the raw form state.
func (s *UploadScreen) Input() patient.Input { return s.in }
