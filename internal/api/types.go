package api

import (
	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/patient"
)

// AnalyzeResult is the outcome of a successful image submission.
type AnalyzeResult struct {
	DiagnosisID string
	PatientID   string
	Result      diagnosis.Result
}

// PatientSummary is the patient subset persisted with a diagnosis record.
type PatientSummary struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	DOB    string `json:"dob"`
	Mobile string `json:"mobile"`
	Gender string `json:"gender"`
}

// DiagnosisRecord is one history item, created server-side at analysis time
// and read-only from the client's perspective.
type DiagnosisRecord struct {
	ID            string             `json:"id"`
	PatientID     string             `json:"patient_id"`
	Date          string             `json:"date"`
	Patient       PatientSummary     `json:"patient"`
	Diagnosis     string             `json:"diagnosis"`
	SeverityIndex int                `json:"severity_index"`
	Risk          float64            `json:"risk"`
	Probabilities map[string]float64 `json:"probabilities,omitempty"`
	ImageFilename string             `json:"image_filename,omitempty"`
}

// ImageAvailable reports whether the record references a stored image.
func (r DiagnosisRecord) ImageAvailable() bool {
	return r.ImageFilename != ""
}

// Split converts a fetched record back into the patient/classification pair
// the report generator consumes, so a reprint from history renders through
// the same path as a just-completed analysis.
func (r DiagnosisRecord) Split() (patient.Record, diagnosis.Result) {
	p := patient.Record{
		Name:        r.Patient.Name,
		Age:         r.Patient.Age,
		DateOfBirth: r.Patient.DOB,
		Mobile:      r.Patient.Mobile,
		Gender:      r.Patient.Gender,
	}
	res := diagnosis.Result{
		SeverityIndex:   r.SeverityIndex,
		ClassLabel:      r.Diagnosis,
		ProgressionRisk: r.Risk,
		Probabilities:   diagnosis.NormalizeProbabilities(r.Probabilities),
	}
	return p, res
}

// HistoryPage is one page of diagnosis records. Transient: refetched wholesale
// on every navigation, page change, search change or post-delete refresh.
type HistoryPage struct {
	Records []DiagnosisRecord `json:"data"`
	Total   int               `json:"total"`
	Page    int               `json:"page"`
	Limit   int               `json:"limit"`
	Pages   int               `json:"pages"`
}

// wire types, decoded then normalized at the boundary

type classificationPayload struct {
	SeverityIndex   int                `json:"severity_index"`
	Class           string             `json:"class"`
	ProgressionRisk float64            `json:"progression_risk"`
	Probabilities   map[string]float64 `json:"probabilities"`
	Error           string             `json:"error,omitempty"`
}

func (p classificationPayload) normalize() diagnosis.Result {
	return diagnosis.Result{
		SeverityIndex:   p.SeverityIndex,
		ClassLabel:      p.Class,
		ProgressionRisk: p.ProgressionRisk,
		Probabilities:   diagnosis.NormalizeProbabilities(p.Probabilities),
		ErrorMessage:    p.Error,
	}
}

type analyzeResponse struct {
	DiagnosisID string                `json:"diagnosis_id"`
	PatientID   string                `json:"patient_id"`
	Data        classificationPayload `json:"data"`
	Error       string                `json:"error,omitempty"`
}

type historyResponse struct {
	HistoryPage
	Error string `json:"error,omitempty"`
}

type diagnosisResponse struct {
	DiagnosisRecord
	Error string `json:"error,omitempty"`
}

type deleteResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type checkMobileResponse struct {
	Exists bool   `json:"exists"`
	Error  string `json:"error,omitempty"`
}
