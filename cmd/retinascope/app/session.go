// Package app provides the interactive TUI for the RetinaAI diagnosis workflow.
package app

import (
	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/imaging"
	"github.com/retinaai/retinascope/internal/patient"
)

// Session caches the most recent completed diagnosis so the dashboard and the
// report generator read from one place. It lives for the program run and is
// replaced wholesale on each new result.
type Session struct {
	DiagnosisID string
	PatientID   string
	Patient     patient.Record
	Result      diagnosis.Result
	Image       *imaging.Image
}

// Set replaces the cached diagnosis.
func (s *Session) Set(diagnosisID, patientID string, p patient.Record, res diagnosis.Result, img *imaging.Image) {
	s.DiagnosisID = diagnosisID
	s.PatientID = patientID
	s.Patient = p
	s.Result = res
	s.Image = img
}

// Clear empties the cache, e.g. when a new submission starts.
func (s *Session) Clear() {
	*s = Session{}
}

// HasResult reports whether a diagnosis is cached.
func (s *Session) HasResult() bool {
	return s.DiagnosisID != "" || s.Patient.Name != ""
}
