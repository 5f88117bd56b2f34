// Package report reconstructs a standalone printable diagnosis document from a
// patient/classification pair, whether it comes from the just-completed
// analysis or from a re-fetched history record. Either source produces an
// identical document.
package report

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
	"github.com/google/uuid"

	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/patient"
)

// Disclaimer is the fixed footer of every report.
const Disclaimer = "This report is generated by an AI diagnostic system. " +
	"Results should be verified by a qualified ophthalmologist before clinical decisions."

// Report describes a written document.
type Report struct {
	ID          string
	Path        string
	GeneratedAt time.Time
}

// Generator writes printable HTML reports into Dir.
type Generator struct {
	Dir string

	// Overridable for deterministic tests.
	Now   func() time.Time
	NewID func() string
}

// NewGenerator creates a generator writing into dir.
func NewGenerator(dir string) *Generator {
	return &Generator{
		Dir: dir,
		Now: time.Now,
		NewID: func() string {
			return strings.ToUpper(uuid.NewString()[:8])
		},
	}
}

// Render builds the printable document and writes it to disk. diagnosisID
// keys the output filename so regenerating the same record overwrites the
// previous document instead of accumulating copies. imageURL, when non-empty,
// references the stored fundus image by URL.
func (g *Generator) Render(p patient.Record, res diagnosis.Result, diagnosisID, imageURL string) (Report, error) {
	model := diagnosis.Map(res)
	now := g.Now()

	chartHTML, err := probabilityChart(model)
	if err != nil {
		return Report{}, fmt.Errorf("rendering probability chart: %w", err)
	}

	data := documentData{
		ReportID:    "RAI-" + g.NewID(),
		GeneratedAt: now.Format("02 Jan 2006, 15:04"),
		Year:        now.Year(),
		Patient:     p,
		Model:       model,
		ImageURL:    imageURL,
		ChartHTML:   template.HTML(chartHTML),
		Disclaimer:  Disclaimer,
	}

	var buf bytes.Buffer
	if err := documentTemplate.Execute(&buf, data); err != nil {
		return Report{}, fmt.Errorf("rendering report: %w", err)
	}

	if err := os.MkdirAll(g.Dir, 0755); err != nil {
		return Report{}, fmt.Errorf("creating reports directory: %w", err)
	}

	key := diagnosisID
	if key == "" {
		key = strings.ToLower(data.ReportID)
	}
	path := filepath.Join(g.Dir, fmt.Sprintf("report-%s.html", sanitizeKey(key)))

	if err := os.WriteFile(path, buf.Bytes(), 0644); err != nil {
		return Report{}, fmt.Errorf("writing report: %w", err)
	}

	return Report{ID: data.ReportID, Path: path, GeneratedAt: now}, nil
}

// probabilityChart redraws the fixed-order probability distribution as a
// standalone bar chart, one color per severity tier.
func probabilityChart(model diagnosis.DisplayModel) (string, error) {
	if model.Rejected {
		return "", nil
	}

	bar := charts.NewBar()
	bar.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			Width:  "600px",
			Height: "300px",
		}),
		charts.WithTitleOpts(opts.Title{
			Title: "Severity Probability Distribution",
		}),
		charts.WithLegendOpts(opts.Legend{
			Show: opts.Bool(false),
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Max: 100,
			Min: 0,
		}),
	)

	labels := make([]string, len(model.Probabilities))
	values := make([]opts.BarData, len(model.Probabilities))
	for i, p := range model.Probabilities {
		labels[i] = p.Label
		values[i] = opts.BarData{
			Value:     p.Percent,
			ItemStyle: &opts.ItemStyle{Color: p.Color},
		}
	}

	bar.SetXAxis(labels).AddSeries("Confidence (%)", values)

	var buf bytes.Buffer
	if err := bar.Render(&buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '-'
		}
	}, key)
}
