package api

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retinaai/retinascope/internal/imaging"
	"github.com/retinaai/retinascope/internal/patient"
)

func testPatient() patient.Record {
	return patient.Record{
		Name:   "A Kumar",
		Age:    34,
		Mobile: "9876543210",
		Gender: "F",
	}
}

func testImage() *imaging.Image {
	return &imaging.Image{
		Filename:    "scan.png",
		Data:        []byte{0x89, 'P', 'N', 'G'},
		ContentType: "image/png",
		Size:        4,
	}
}

func newTestClient(srv *httptest.Server) *Client {
	return New(srv.URL, 5*time.Second, nil)
}

func TestAnalyze_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/analyze", r.URL.Path)

		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, "A Kumar", r.FormValue("name"))
		assert.Equal(t, "9876543210", r.FormValue("mobile"))
		file, header, err := r.FormFile("file")
		require.NoError(t, err)
		file.Close()
		assert.Equal(t, "scan.png", header.Filename)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"diagnosis_id": "d-1",
			"patient_id": "p-1",
			"data": {
				"severity_index": 2,
				"class": "Moderate DR",
				"progression_risk": 55,
				"probabilities": {"No_DR": 0.1, "Mild": 0.2, "Moderate": 0.5, "Severe": 0.1, "Proliferate_DR": 0.1}
			}
		}`))
	}))
	defer srv.Close()

	got, err := newTestClient(srv).Analyze(context.Background(), testPatient(), testImage())
	require.NoError(t, err)

	assert.Equal(t, "d-1", got.DiagnosisID)
	assert.Equal(t, "p-1", got.PatientID)
	assert.Equal(t, 2, got.Result.SeverityIndex)
	// Keys are canonicalized at the boundary.
	assert.InDelta(t, 0.1, got.Result.Probabilities["No DR"], 1e-9)
	assert.InDelta(t, 0.1, got.Result.Probabilities["Proliferative"], 1e-9)
}

func TestAnalyze_PayloadError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"error": "Invalid image format"}`))
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Analyze(context.Background(), testPatient(), testImage())

	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, "Invalid image format", serr.Message)
}

func TestAnalyze_Non2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error": "model unavailable"}`, http.StatusInternalServerError)
	}))
	defer srv.Close()

	_, err := newTestClient(srv).Analyze(context.Background(), testPatient(), testImage())

	var serr *ServerError
	require.ErrorAs(t, err, &serr)
	assert.Equal(t, http.StatusInternalServerError, serr.StatusCode)
	assert.Equal(t, "model unavailable", serr.Message)
}

func TestAnalyze_TransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // refuse connections

	_, err := newTestClient(srv).Analyze(context.Background(), testPatient(), testImage())

	var nerr *NetworkError
	require.ErrorAs(t, err, &nerr)
	assert.Equal(t, "analyze", nerr.Op)
	assert.NotNil(t, errors.Unwrap(nerr))
}

func TestHistory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/history", r.URL.Path)
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		assert.Equal(t, "50", r.URL.Query().Get("limit"))
		assert.Equal(t, "kumar", r.URL.Query().Get("search"))

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"data": [
				{"id": "d-1", "patient_id": "p-1", "date": "2026-08-01 10:30",
				 "patient": {"name": "A Kumar", "age": 34, "mobile": "9876543210"},
				 "diagnosis": "Moderate DR", "severity_index": 2, "risk": 55,
				 "image_filename": "scan.png"}
			],
			"total": 51, "page": 2, "limit": 50, "pages": 2
		}`))
	}))
	defer srv.Close()

	page, err := newTestClient(srv).History(context.Background(), 2, 50, "kumar")
	require.NoError(t, err)

	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 2, page.Pages)
	require.Len(t, page.Records, 1)
	assert.Equal(t, "A Kumar", page.Records[0].Patient.Name)
	assert.True(t, page.Records[0].ImageAvailable())
}

func TestDiagnosis_SplitRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/diagnosis/d-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{
			"id": "d-1", "patient_id": "p-1", "date": "2026-08-01 10:30",
			"patient": {"name": "A Kumar", "age": 34, "dob": "1992-01-01", "mobile": "9876543210", "gender": "F"},
			"diagnosis": "Severe DR", "severity_index": 3, "risk": 80,
			"probabilities": {"No_DR": 0.05, "Mild": 0.05, "Moderate": 0.1, "Severe": 0.7, "Proliferative DR": 0.1}
		}`))
	}))
	defer srv.Close()

	rec, err := newTestClient(srv).Diagnosis(context.Background(), "d-1")
	require.NoError(t, err)

	p, res := rec.Split()
	assert.Equal(t, "A Kumar", p.Name)
	assert.Equal(t, 3, res.SeverityIndex)
	assert.InDelta(t, 0.1, res.Probabilities["Proliferative"], 1e-9)
	assert.InDelta(t, 0.05, res.Probabilities["No DR"], 1e-9)
}

func TestDeleteDiagnosis(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		require.Equal(t, http.MethodDelete, r.Method)
		require.Equal(t, "/delete_diagnosis/d-1", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success": true}`))
	}))
	defer srv.Close()

	ok, err := newTestClient(srv).DeleteDiagnosis(context.Background(), "d-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheckMobile(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/check_mobile/9876543210", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"exists": true}`))
	}))
	defer srv.Close()

	exists, err := newTestClient(srv).CheckMobile(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestImageURL(t *testing.T) {
	c := New("http://localhost:5000/", time.Second, nil)
	assert.Equal(t, "http://localhost:5000/diagnosis/image/d-1", c.ImageURL("d-1"))
}
