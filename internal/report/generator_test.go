package report

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/patient"
)

func fixedGenerator(t *testing.T) *Generator {
	t.Helper()
	g := NewGenerator(t.TempDir())
	g.Now = func() time.Time { return time.Date(2026, 8, 28, 10, 30, 0, 0, time.UTC) }
	g.NewID = func() string { return "TESTID01" }
	return g
}

func moderateResult() diagnosis.Result {
	return diagnosis.Result{
		SeverityIndex:   2,
		ClassLabel:      "Moderate DR",
		ProgressionRisk: 55,
		Probabilities: map[string]float64{
			"No DR": 0.1, "Mild": 0.2, "Moderate": 0.5, "Severe": 0.1, "Proliferative": 0.1,
		},
	}
}

func TestRender_WritesDocument(t *testing.T) {
	g := fixedGenerator(t)
	p := patient.Record{Name: "A Kumar", Age: 34, Mobile: "9876543210"}

	rep, err := g.Render(p, moderateResult(), "d-1", "http://localhost:5000/diagnosis/image/d-1")
	require.NoError(t, err)

	assert.Equal(t, "RAI-TESTID01", rep.ID)
	assert.Equal(t, filepath.Join(g.Dir, "report-d-1.html"), rep.Path)

	html, err := os.ReadFile(rep.Path)
	require.NoError(t, err)
	doc := string(html)

	assert.Contains(t, doc, "RetinaAI Pro")
	assert.Contains(t, doc, "A Kumar")
	assert.Contains(t, doc, "34 years")
	assert.Contains(t, doc, "Moderate DR")
	assert.Contains(t, doc, diagnosis.Palette[2])
	assert.Contains(t, doc, "Progression Risk: <strong>55%</strong>")
	assert.Contains(t, doc, "consult ophthalmologist within 3-6 months")
	assert.Contains(t, doc, Disclaimer)
	assert.Contains(t, doc, "diagnosis/image/d-1")
	for _, label := range diagnosis.Labels {
		assert.Contains(t, doc, label)
	}
}

func TestRender_IdenticalFromEitherSource(t *testing.T) {
	// A report rebuilt from a re-fetched history record must match the one
	// produced right after analysis.
	g := fixedGenerator(t)
	p := patient.Record{Name: "A Kumar", Age: 34, Mobile: "9876543210"}

	first, err := g.Render(p, moderateResult(), "d-1", "")
	require.NoError(t, err)
	firstHTML, err := os.ReadFile(first.Path)
	require.NoError(t, err)

	second, err := g.Render(p, moderateResult(), "d-1", "")
	require.NoError(t, err)
	secondHTML, err := os.ReadFile(second.Path)
	require.NoError(t, err)

	assert.Equal(t, first.Path, second.Path, "same record must map to the same document path")
	assert.Equal(t, string(firstHTML), string(secondHTML))

	entries, err := os.ReadDir(g.Dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "regeneration must overwrite, not accumulate")
}

func TestRender_RejectedInput(t *testing.T) {
	g := fixedGenerator(t)
	p := patient.Record{Name: "A Kumar", Age: 34, Mobile: "9876543210"}
	res := diagnosis.Result{SeverityIndex: diagnosis.SeverityRejected, ErrorMessage: "Not a retinal scan"}

	rep, err := g.Render(p, res, "d-2", "")
	require.NoError(t, err)

	html, err := os.ReadFile(rep.Path)
	require.NoError(t, err)
	doc := string(html)

	assert.Contains(t, doc, "Input Rejected")
	assert.Contains(t, doc, "Not a retinal scan")
	assert.NotContains(t, doc, "Progression Risk")
	assert.NotContains(t, doc, "SEVERITY PROBABILITY DISTRIBUTION")
}

func TestRender_MissingImageFallback(t *testing.T) {
	g := fixedGenerator(t)
	p := patient.Record{Name: "A Kumar", Age: 34, Mobile: "9876543210"}

	rep, err := g.Render(p, moderateResult(), "d-3", "")
	require.NoError(t, err)

	html, err := os.ReadFile(rep.Path)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Image not available for print")
}

func TestRender_UnkeyedRecordGetsUniquePath(t *testing.T) {
	g := NewGenerator(t.TempDir())
	p := patient.Record{Name: "A Kumar", Age: 34, Mobile: "9876543210"}

	first, err := g.Render(p, moderateResult(), "", "")
	require.NoError(t, err)
	second, err := g.Render(p, moderateResult(), "", "")
	require.NoError(t, err)

	assert.NotEqual(t, first.Path, second.Path)
}
