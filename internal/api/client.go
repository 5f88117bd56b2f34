// Package api is the typed HTTP client for the analysis service. Wire payloads
// are normalized here, at the boundary, so the rest of the program only sees
// canonical shapes.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/log"

	"github.com/retinaai/retinascope/internal/imaging"
	"github.com/retinaai/retinascope/internal/patient"
)

// Client talks to the analysis service.
type Client struct {
	baseURL string
	httpc   *http.Client
	log     *log.Logger
}

// New creates a client for the service at baseURL.
func New(baseURL string, timeout time.Duration, logger *log.Logger) *Client {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpc:   &http.Client{Timeout: timeout},
		log:     logger,
	}
}

// Analyze submits the image and patient metadata and returns the
// classification. The multipart form mirrors what the service expects: the
// file part plus flat patient fields.
func (c *Client) Analyze(ctx context.Context, p patient.Record, img *imaging.Image) (AnalyzeResult, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	part, err := mw.CreateFormFile("file", img.Filename)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("building multipart body: %w", err)
	}
	if _, err := part.Write(img.Data); err != nil {
		return AnalyzeResult{}, fmt.Errorf("building multipart body: %w", err)
	}

	fields := map[string]string{
		"name":              p.Name,
		"dob":               p.DateOfBirth,
		"age":               strconv.Itoa(p.Age),
		"mobile":            p.Mobile,
		"gender":            p.Gender,
		"diabetes_duration": strconv.FormatFloat(p.DiabetesDurationYears, 'f', -1, 64),
	}
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			return AnalyzeResult{}, fmt.Errorf("building multipart body: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return AnalyzeResult{}, fmt.Errorf("building multipart body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/analyze", &body)
	if err != nil {
		return AnalyzeResult{}, fmt.Errorf("building request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	c.log.Info("submitting image for analysis", "patient", p.Name, "file", img.Filename, "bytes", img.Size)

	var resp analyzeResponse
	if err := c.do(req, "analyze", &resp); err != nil {
		return AnalyzeResult{}, err
	}
	if resp.Error != "" {
		return AnalyzeResult{}, &ServerError{Message: resp.Error}
	}

	result := resp.Data.normalize()
	c.log.Info("analysis complete", "diagnosis_id", resp.DiagnosisID, "severity", result.SeverityIndex)

	return AnalyzeResult{
		DiagnosisID: resp.DiagnosisID,
		PatientID:   resp.PatientID,
		Result:      result,
	}, nil
}

// CheckMobile reports whether a patient with this mobile number already
// exists. Advisory only: callers must not gate submission on it.
func (c *Client) CheckMobile(ctx context.Context, mobile string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/check_mobile/"+url.PathEscape(mobile), nil)
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}

	var resp checkMobileResponse
	if err := c.do(req, "check mobile", &resp); err != nil {
		return false, err
	}
	return resp.Exists, nil
}

// History fetches one page of diagnosis records. search filters server-side
// by identifier or name.
func (c *Client) History(ctx context.Context, page, limit int, search string) (HistoryPage, error) {
	q := url.Values{}
	q.Set("page", strconv.Itoa(page))
	q.Set("limit", strconv.Itoa(limit))
	q.Set("search", search)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history?"+q.Encode(), nil)
	if err != nil {
		return HistoryPage{}, fmt.Errorf("building request: %w", err)
	}

	var resp historyResponse
	if err := c.do(req, "history", &resp); err != nil {
		return HistoryPage{}, err
	}
	if resp.Error != "" {
		return HistoryPage{}, &ServerError{Message: resp.Error}
	}
	return resp.HistoryPage, nil
}

// Diagnosis fetches a full record by id, including probabilities, for report
// reconstruction.
func (c *Client) Diagnosis(ctx context.Context, id string) (DiagnosisRecord, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/diagnosis/"+url.PathEscape(id), nil)
	if err != nil {
		return DiagnosisRecord{}, fmt.Errorf("building request: %w", err)
	}

	var resp diagnosisResponse
	if err := c.do(req, "fetch diagnosis", &resp); err != nil {
		return DiagnosisRecord{}, err
	}
	if resp.Error != "" {
		return DiagnosisRecord{}, &ServerError{Message: resp.Error}
	}
	resp.DiagnosisRecord.Probabilities = normalizeRecordProbabilities(resp.DiagnosisRecord.Probabilities)
	return resp.DiagnosisRecord, nil
}

// ImageURL returns the URL of the stored image for a diagnosis. The image is
// referenced by URL only, never downloaded by this client.
func (c *Client) ImageURL(id string) string {
	return c.baseURL + "/diagnosis/image/" + url.PathEscape(id)
}

// DeleteDiagnosis removes one record. Returns whether the server confirmed
// the deletion.
func (c *Client) DeleteDiagnosis(ctx context.Context, id string) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+"/delete_diagnosis/"+url.PathEscape(id), nil)
	if err != nil {
		return false, fmt.Errorf("building request: %w", err)
	}

	var resp deleteResponse
	if err := c.do(req, "delete diagnosis", &resp); err != nil {
		return false, err
	}
	if resp.Error != "" {
		return false, &ServerError{Message: resp.Error}
	}
	return resp.Success, nil
}

// do executes the request and decodes the JSON body, translating transport
// failures into NetworkError and non-2xx statuses into ServerError.
func (c *Client) do(req *http.Request, op string, out any) error {
	res, err := c.httpc.Do(req)
	if err != nil {
		c.log.Error("request failed", "op", op, "err", err)
		return &NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		msg := serverMessage(body)
		if msg == "" {
			msg = res.Status
		}
		c.log.Error("server rejected request", "op", op, "status", res.StatusCode, "message", msg)
		return &ServerError{StatusCode: res.StatusCode, Message: msg}
	}

	if err := json.Unmarshal(body, out); err != nil {
		return &ServerError{StatusCode: res.StatusCode, Message: fmt.Sprintf("malformed response: %v", err)}
	}
	return nil
}

func serverMessage(body []byte) string {
	var payload struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	return payload.Error
}

func normalizeRecordProbabilities(raw map[string]float64) map[string]float64 {
	if raw == nil {
		return nil
	}
	// Reuse the boundary canonicalization so reprints see the same keys the
	// dashboard saw.
	p := classificationPayload{Probabilities: raw}
	return p.normalize().Probabilities
}
