package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"github.com/retinaai/retinascope/cmd/retinascope/app/screens"
	"github.com/retinaai/retinascope/internal/api"
	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/imaging"
	"github.com/retinaai/retinascope/internal/patient"
	"github.com/retinaai/retinascope/internal/report"
)

// nowFunc is swapped in tests.
var nowFunc = time.Now

// Phase represents the current phase/screen of the workflow.
type Phase int

const (
	PhaseUpload Phase = iota
	PhaseLoading
	PhaseDashboard
	PhaseHistory
	PhasePreview
)

// App is the main orchestrator for the diagnosis workflow. Exactly one phase
// is active at a time; screens are constructed fresh on each transition so no
// stale view state leaks across phases.
type App struct {
	client  *api.Client
	reports *report.Generator
	session *Session
	logger  *log.Logger

	phase Phase

	uploadScreen    *screens.UploadScreen
	loadingScreen   *screens.LoadingScreen
	dashboardScreen *screens.DashboardScreen
	historyScreen   *screens.HistoryScreen
	previewScreen   *screens.PreviewScreen

	// input is the persisted form state. It survives failed submissions so
	// the user does not retype everything.
	input patient.Input

	// seq numbers submissions. Messages stamped with an older seq belong to
	// an abandoned submission and are dropped.
	seq int

	// Submission join state: the dashboard is shown only once both the
	// minimum-display floor has elapsed and the server has answered.
	floorDone bool
	outcome   *screens.AnalyzeOutcome

	// pending holds the record and image of the in-flight submission.
	pendingPatient patient.Record
	pendingImage   *imaging.Image

	// returnPhase is where closing the report preview goes back to.
	returnPhase Phase

	historyLimit int

	width  int
	height int
}

// NewApp creates the workflow starting at the upload form.
func NewApp(client *api.Client, reports *report.Generator, logger *log.Logger) *App {
	if logger == nil {
		logger = log.New(io.Discard)
	}

	a := &App{
		client:  client,
		reports: reports,
		session: &Session{},
		logger:  logger,
		phase:   PhaseUpload,
	}

	a.uploadScreen = screens.NewUploadScreen(patient.Input{}, "")

	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return a.uploadScreen.Init()
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if wsm, ok := msg.(tea.WindowSizeMsg); ok {
		a.width = wsm.Width
		a.height = wsm.Height
	}

	switch a.phase {
	case PhaseUpload:
		return a.updateUpload(msg)
	case PhaseLoading:
		return a.updateLoading(msg)
	case PhaseDashboard:
		return a.updateDashboard(msg)
	case PhaseHistory:
		return a.updateHistory(msg)
	case PhasePreview:
		return a.updatePreview(msg)
	}

	return a, nil
}

// View implements tea.Model.
func (a *App) View() string {
	switch a.phase {
	case PhaseUpload:
		return a.uploadScreen.View()
	case PhaseLoading:
		return a.loadingScreen.View()
	case PhaseDashboard:
		return a.dashboardScreen.View()
	case PhaseHistory:
		return a.historyScreen.View()
	case PhasePreview:
		return a.previewScreen.View()
	}

	return ""
}

// updateUpload handles the upload form phase.
func (a *App) updateUpload(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+l" {
		a.input = a.uploadScreen.Input()
		return a.transitionToHistory()
	}

	model, cmd := a.uploadScreen.Update(msg)
	if us, ok := model.(*screens.UploadScreen); ok {
		a.uploadScreen = us
	}

	if a.uploadScreen.Cancelled() {
		return a, tea.Quit
	}

	if a.uploadScreen.Done() {
		return a.submit()
	}

	return a, cmd
}

// submit validates the form, loads the image and starts the analysis. The
// loading screen, the floor timer and the request all start together.
func (a *App) submit() (tea.Model, tea.Cmd) {
	a.input = a.uploadScreen.Input()

	rec, err := patient.Validate(a.input, nowFunc())
	if err != nil {
		return a.backToUpload(err.Error())
	}

	img, err := imaging.Load(rec.ImagePath)
	if err != nil {
		a.logger.Error("image load failed", "path", rec.ImagePath, "err", err)
		return a.backToUpload(fmt.Sprintf("Could not read image: %v", err))
	}

	a.seq++
	a.floorDone = false
	a.outcome = nil
	a.pendingPatient = rec
	a.pendingImage = img
	a.session.Clear()

	a.phase = PhaseLoading
	a.loadingScreen = screens.NewLoadingScreen(a.seq, img.Preview(48))

	a.logger.Info("submission started", "seq", a.seq, "patient", rec.Name, "image", img.Filename)

	return a, tea.Batch(
		a.loadingScreen.Init(),
		a.analyzeCmd(a.seq, rec, img),
		a.advisoryCmd(a.seq, rec.Mobile),
	)
}

func (a *App) analyzeCmd(seq int, rec patient.Record, img *imaging.Image) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		res, err := client.Analyze(context.Background(), rec, img)
		out := screens.AnalyzeOutcome{Err: err}
		if err == nil {
			out.DiagnosisID = res.DiagnosisID
			out.PatientID = res.PatientID
			out.Result = res.Result
		}
		return screens.AnalysisDoneMsg{Seq: seq, Outcome: out}
	}
}

// advisoryCmd checks whether the mobile number is already on file. The check
// is advisory only: its failure never affects the submission.
func (a *App) advisoryCmd(seq int, mobile string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		exists, err := client.CheckMobile(context.Background(), mobile)
		if err != nil {
			return screens.MobileAdvisoryMsg{Seq: seq, Exists: false}
		}
		return screens.MobileAdvisoryMsg{Seq: seq, Exists: exists}
	}
}

// backToUpload returns to the form with an error banner. The file selection is
// dropped so nothing of the failed submission lingers; typed fields survive.
func (a *App) backToUpload(errMsg string) (tea.Model, tea.Cmd) {
	a.input.ImagePath = ""
	a.phase = PhaseUpload
	a.uploadScreen = screens.NewUploadScreen(a.input, errMsg)
	return a, a.uploadScreen.Init()
}

// updateLoading handles the in-flight submission phase. The dashboard shows
// only after both awaitables resolve, in either order.
func (a *App) updateLoading(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case screens.FloorElapsedMsg:
		if msg.Seq != a.seq {
			return a, nil
		}
		a.floorDone = true
		return a.finishIfReady()

	case screens.AnalysisDoneMsg:
		if msg.Seq != a.seq {
			return a, nil
		}
		a.outcome = &msg.Outcome
		return a.finishIfReady()

	case screens.MobileAdvisoryMsg:
		if msg.Seq == a.seq {
			a.loadingScreen.SetAdvisory(msg.Exists)
		}
		return a, nil

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	}

	model, cmd := a.loadingScreen.Update(msg)
	if ls, ok := model.(*screens.LoadingScreen); ok {
		a.loadingScreen = ls
	}

	return a, cmd
}

// finishIfReady transitions out of the loading phase once both the floor and
// the server response are in.
func (a *App) finishIfReady() (tea.Model, tea.Cmd) {
	if !a.floorDone || a.outcome == nil {
		return a, nil
	}

	out := a.outcome
	a.outcome = nil

	if out.Err != nil {
		a.logger.Error("analysis failed", "seq", a.seq, "err", out.Err)
		return a.backToUpload(errorMessage(out.Err))
	}

	a.logger.Info("analysis complete",
		"seq", a.seq, "diagnosis_id", out.DiagnosisID, "severity", out.Result.SeverityIndex)

	a.session.Set(out.DiagnosisID, out.PatientID, a.pendingPatient, out.Result, a.pendingImage)

	a.phase = PhaseDashboard
	a.dashboardScreen = screens.NewDashboardScreen(a.pendingPatient, diagnosis.Map(out.Result))
	return a, nil
}

// updateDashboard handles the results phase.
func (a *App) updateDashboard(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok {
		switch km.String() {
		case "d":
			a.startNewDiagnosis()
			return a, a.uploadScreen.Init()
		case "h", "ctrl+l":
			return a.transitionToHistory()
		case "p":
			return a.printSession(PhaseDashboard)
		case "q", "ctrl+c":
			return a, tea.Quit
		}
	}

	model, cmd := a.dashboardScreen.Update(msg)
	if ds, ok := model.(*screens.DashboardScreen); ok {
		a.dashboardScreen = ds
	}

	return a, cmd
}

// startNewDiagnosis resets to a blank upload form. The cached result belongs
// to the abandoned workflow, so it goes too.
func (a *App) startNewDiagnosis() {
	a.session.Clear()
	a.input = patient.Input{}
	a.phase = PhaseUpload
	a.uploadScreen = screens.NewUploadScreen(a.input, "")
}

func (a *App) transitionToHistory() (tea.Model, tea.Cmd) {
	a.phase = PhaseHistory
	a.historyScreen = screens.NewHistoryScreen(a.client, a.historyLimit)
	return a, a.historyScreen.Init()
}

// printSession renders the report for the cached diagnosis and opens the
// preview. Re-printing the same diagnosis overwrites the same file.
func (a *App) printSession(back Phase) (tea.Model, tea.Cmd) {
	if !a.session.HasResult() {
		return a, nil
	}

	imageURL := ""
	if a.session.DiagnosisID != "" {
		imageURL = a.client.ImageURL(a.session.DiagnosisID)
	}

	rep, err := a.reports.Render(a.session.Patient, a.session.Result, a.session.DiagnosisID, imageURL)
	if err != nil {
		a.logger.Error("report generation failed", "err", err)
		return a, nil
	}

	a.logger.Info("report written", "id", rep.ID, "path", rep.Path)

	a.returnPhase = back
	a.phase = PhasePreview
	a.previewScreen = screens.NewPreviewScreen(rep, a.session.Patient, diagnosis.Map(a.session.Result))
	return a, a.previewScreen.Init()
}

// updateHistory handles the history phase, including print requests that need
// the full record re-fetched first.
func (a *App) updateHistory(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case screens.PrintRequestMsg:
		return a, a.fetchRecordCmd(msg.ID)

	case screens.RecordFetchedMsg:
		if msg.Err != nil {
			a.logger.Error("record fetch failed", "err", msg.Err)
			return a, nil
		}
		rec, res := msg.Record.Split()
		a.session.Set(msg.Record.ID, msg.Record.PatientID, rec, res, nil)
		return a.printSession(PhaseHistory)

	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
		if !a.historyScreen.Capturing() {
			switch msg.String() {
			case "d":
				a.startNewDiagnosis()
				return a, a.uploadScreen.Init()
			case "q":
				return a, tea.Quit
			case "esc":
				if a.dashboardScreen != nil {
					a.phase = PhaseDashboard
					return a, nil
				}
				a.phase = PhaseUpload
				a.uploadScreen = screens.NewUploadScreen(a.input, "")
				return a, a.uploadScreen.Init()
			}
		}
	}

	model, cmd := a.historyScreen.Update(msg)
	if hs, ok := model.(*screens.HistoryScreen); ok {
		a.historyScreen = hs
	}

	return a, cmd
}

func (a *App) fetchRecordCmd(id string) tea.Cmd {
	client := a.client
	return func() tea.Msg {
		rec, err := client.Diagnosis(context.Background(), id)
		return screens.RecordFetchedMsg{Record: rec, Err: err}
	}
}

// updatePreview handles the report preview overlay.
func (a *App) updatePreview(msg tea.Msg) (tea.Model, tea.Cmd) {
	if km, ok := msg.(tea.KeyMsg); ok && km.String() == "ctrl+c" {
		return a, tea.Quit
	}

	model, cmd := a.previewScreen.Update(msg)
	if ps, ok := model.(*screens.PreviewScreen); ok {
		a.previewScreen = ps
	}

	if a.previewScreen.Closed() {
		a.phase = a.returnPhase
	}

	return a, cmd
}

// errorMessage maps request failures to user-facing text.
func errorMessage(err error) string {
	var netErr *api.NetworkError
	if errors.As(err, &netErr) {
		return "Could not reach the analysis server. Check your connection and try again."
	}

	var srvErr *api.ServerError
	if errors.As(err, &srvErr) && srvErr.Message != "" {
		return srvErr.Message
	}

	return fmt.Sprintf("Analysis failed: %v", err)
}

// Run starts the interactive workflow with the given configuration.
func Run(cfg *Config) error {
	var logger *log.Logger
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return fmt.Errorf("opening log file: %w", err)
		}
		defer f.Close()
		logger = log.New(f)
		logger.SetLevel(log.DebugLevel)
	} else {
		logger = log.New(io.Discard)
	}

	client := api.New(cfg.ServerURL, cfg.Timeout(), logger)
	reports := report.NewGenerator(cfg.ReportsDir)

	app := NewApp(client, reports, logger)
	app.historyLimit = cfg.HistoryLimit
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("running workflow: %w", err)
	}

	return nil
}
