package app

import (
	"errors"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/retinaai/retinascope/cmd/retinascope/app/screens"
	"github.com/retinaai/retinascope/internal/api"
	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/patient"
	"github.com/retinaai/retinascope/internal/report"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	client := api.New("http://127.0.0.1:1", time.Second, nil)
	return NewApp(client, report.NewGenerator(t.TempDir()), nil)
}

// enterLoading puts the app mid-submission without going through the form.
func enterLoading(a *App, seq int) {
	a.phase = PhaseLoading
	a.seq = seq
	a.floorDone = false
	a.outcome = nil
	a.loadingScreen = screens.NewLoadingScreen(seq, "")
	a.pendingPatient = patient.Record{Name: "Asha Rao", Age: 54, Mobile: "9876543210"}
	a.input = patient.Input{Name: "Asha Rao", Age: "54", Mobile: "9876543210", ImagePath: "/scans/eye.png"}
}

func successOutcome() screens.AnalyzeOutcome {
	return screens.AnalyzeOutcome{
		DiagnosisID: "diag-1",
		PatientID:   "pat-1",
		Result: diagnosis.Result{
			SeverityIndex:   2,
			ClassLabel:      "Moderate",
			ProgressionRisk: 55,
			Probabilities:   map[string]float64{"Moderate": 0.8},
		},
	}
}

func TestApp_ResultBeforeFloorWaits(t *testing.T) {
	a := newTestApp(t)
	enterLoading(a, 1)

	a.Update(screens.AnalysisDoneMsg{Seq: 1, Outcome: successOutcome()})
	if a.phase != PhaseLoading {
		t.Fatal("Dashboard must not show before the minimum display elapses")
	}

	a.Update(screens.FloorElapsedMsg{Seq: 1})
	if a.phase != PhaseDashboard {
		t.Fatalf("Expected dashboard after floor, got phase %d", a.phase)
	}
}

func TestApp_FloorBeforeResultWaits(t *testing.T) {
	a := newTestApp(t)
	enterLoading(a, 1)

	a.Update(screens.FloorElapsedMsg{Seq: 1})
	if a.phase != PhaseLoading {
		t.Fatal("Dashboard must not show before the server answers")
	}

	a.Update(screens.AnalysisDoneMsg{Seq: 1, Outcome: successOutcome()})
	if a.phase != PhaseDashboard {
		t.Fatalf("Expected dashboard after result, got phase %d", a.phase)
	}
}

func TestApp_StaleSubmissionMessagesIgnored(t *testing.T) {
	a := newTestApp(t)
	enterLoading(a, 2)

	a.Update(screens.FloorElapsedMsg{Seq: 1})
	a.Update(screens.AnalysisDoneMsg{Seq: 1, Outcome: successOutcome()})

	if a.phase != PhaseLoading {
		t.Error("Messages from an abandoned submission must not transition the view")
	}
	if a.floorDone {
		t.Error("Stale floor message must not mark the floor done")
	}
}

func TestApp_FailureReturnsToUploadKeepingFields(t *testing.T) {
	a := newTestApp(t)
	enterLoading(a, 1)

	a.Update(screens.FloorElapsedMsg{Seq: 1})
	a.Update(screens.AnalysisDoneMsg{Seq: 1, Outcome: screens.AnalyzeOutcome{
		Err: &api.NetworkError{Op: "analyze", Err: errors.New("connection refused")},
	}})

	if a.phase != PhaseUpload {
		t.Fatalf("Expected upload phase after failure, got %d", a.phase)
	}
	if a.input.Name != "Asha Rao" || a.input.Mobile != "9876543210" {
		t.Error("Typed fields must survive a failed submission")
	}
	if a.input.ImagePath != "" {
		t.Error("The file selection must be cleared after a failed submission")
	}
}

func TestApp_PreconditionFailureClearsFileSelection(t *testing.T) {
	a := newTestApp(t)
	// Age and date of birth are each optional in the form, so a submission
	// with neither reaches the shared validation only here.
	a.uploadScreen = screens.NewUploadScreen(patient.Input{
		Name:      "Asha Rao",
		Mobile:    "9876543210",
		ImagePath: "/scans/eye.png",
	}, "")

	a.submit()

	if a.phase != PhaseUpload {
		t.Fatalf("Expected upload phase after precondition failure, got %d", a.phase)
	}
	if a.input.ImagePath != "" {
		t.Errorf("File selection must be cleared on precondition failure, got %q", a.input.ImagePath)
	}
	if a.input.Name != "Asha Rao" || a.input.Mobile != "9876543210" {
		t.Error("Typed fields must survive a precondition failure")
	}
}

func TestApp_RejectedResultStillShowsDashboard(t *testing.T) {
	a := newTestApp(t)
	enterLoading(a, 1)

	a.Update(screens.FloorElapsedMsg{Seq: 1})
	a.Update(screens.AnalysisDoneMsg{Seq: 1, Outcome: screens.AnalyzeOutcome{
		DiagnosisID: "diag-9",
		Result: diagnosis.Result{
			SeverityIndex: diagnosis.SeverityRejected,
			ErrorMessage:  "Not a fundus image",
		},
	}})

	if a.phase != PhaseDashboard {
		t.Fatal("A rejected input is a valid result and shows the dashboard")
	}
	if !strings.Contains(a.View(), "Not a fundus image") {
		t.Error("The rejection message should be shown")
	}
}

func TestApp_SessionCachedAfterSuccess(t *testing.T) {
	a := newTestApp(t)
	enterLoading(a, 1)

	a.Update(screens.FloorElapsedMsg{Seq: 1})
	a.Update(screens.AnalysisDoneMsg{Seq: 1, Outcome: successOutcome()})

	if !a.session.HasResult() {
		t.Fatal("Expected the session cache to hold the result")
	}
	if a.session.DiagnosisID != "diag-1" {
		t.Errorf("Expected diagnosis diag-1, got %s", a.session.DiagnosisID)
	}
	if a.session.Patient.Name != "Asha Rao" {
		t.Errorf("Expected cached patient, got %s", a.session.Patient.Name)
	}
}

func TestApp_NewDiagnosisClearsSessionCache(t *testing.T) {
	a := newTestApp(t)
	enterLoading(a, 1)

	a.Update(screens.FloorElapsedMsg{Seq: 1})
	a.Update(screens.AnalysisDoneMsg{Seq: 1, Outcome: successOutcome()})
	if !a.session.HasResult() {
		t.Fatal("Expected a cached result before resetting")
	}

	a.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("d")})

	if a.phase != PhaseUpload {
		t.Fatalf("Expected a blank upload form, got phase %d", a.phase)
	}
	if a.session.HasResult() {
		t.Error("Starting a new diagnosis must clear the cached result")
	}
	if a.input.Name != "" || a.input.ImagePath != "" {
		t.Error("Starting a new diagnosis must reset the form fields")
	}
}

func TestErrorMessage_Mapping(t *testing.T) {
	netErr := &api.NetworkError{Op: "analyze", Err: errors.New("dial tcp: refused")}
	if msg := errorMessage(netErr); !strings.Contains(msg, "Could not reach") {
		t.Errorf("Expected connectivity message, got %q", msg)
	}

	srvErr := &api.ServerError{StatusCode: 400, Message: "Invalid image format"}
	if msg := errorMessage(srvErr); msg != "Invalid image format" {
		t.Errorf("Expected server message passthrough, got %q", msg)
	}

	plain := errors.New("boom")
	if msg := errorMessage(plain); !strings.Contains(msg, "boom") {
		t.Errorf("Expected wrapped generic error, got %q", msg)
	}
}
