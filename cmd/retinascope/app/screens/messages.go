package screens

import (
	"github.com/retinaai/retinascope/internal/api"
	"github.com/retinaai/retinascope/internal/diagnosis"
)

// AnalyzeOutcome is the terminal state of one submission: either a
// classification or the error that ended it.
type AnalyzeOutcome struct {
	DiagnosisID string
	PatientID   string
	Result      diagnosis.Result
	Err         error
}

// AnalysisDoneMsg is sent when the analysis request resolves. Seq identifies
// the submission; a message whose Seq is older than the latest submission is
// stale and must be discarded.
type AnalysisDoneMsg struct {
	Seq     int
	Outcome AnalyzeOutcome
}

// FloorElapsedMsg is sent when the minimum display duration of the loading
// view has passed. The dashboard transition waits for both this and
// AnalysisDoneMsg.
type FloorElapsedMsg struct {
	Seq int
}

// StageAdvanceMsg drives the cosmetic progress stages of the loading view.
type StageAdvanceMsg struct {
	Seq int
}

// MobileAdvisoryMsg reports the duplicate-patient check. Advisory only.
type MobileAdvisoryMsg struct {
	Seq    int
	Exists bool
}

// HistoryLoadedMsg delivers one fetched history page. Token identifies the
// request; responses older than the latest issued token are discarded.
type HistoryLoadedMsg struct {
	Token int
	Page  api.HistoryPage
	Err   error
}

// SearchDebounceMsg fires after the search debounce delay. Gen identifies the
// keystroke generation; only the latest generation triggers a reload.
type SearchDebounceMsg struct {
	Gen int
}

// DeleteDoneMsg reports a completed delete operation, single or bulk.
type DeleteDoneMsg struct {
	Succeeded int
	Total     int
}

// PrintRequestMsg asks the orchestrator to reconstruct and preview the report
// for a history record.
type PrintRequestMsg struct {
	ID string
}

// RecordFetchedMsg delivers the re-fetched record backing a history print.
type RecordFetchedMsg struct {
	Record api.DiagnosisRecord
	Err    error
}
