// Package diagnosis maps raw classification results to display semantics:
// severity label, color, clinical recommendation tier and projected risk trend.
package diagnosis

import (
	"math"
	"strings"
)

// SeverityRejected is the sentinel index the analysis service returns when the
// submitted image is not a usable retinal fundus scan. Risk and probabilities
// carry no meaning in that state.
const SeverityRejected = -1

// Labels is the fixed display order of the five severity classes. Probability
// series are always emitted in this order regardless of the wire payload.
var Labels = [5]string{"No DR", "Mild", "Moderate", "Severe", "Proliferative"}

// Palette holds the severity colors, indexed by severity 0-4.
var Palette = [5]string{
	"#00bfa5", // No DR
	"#29b6f6", // Mild
	"#ffb74d", // Moderate
	"#ef5350", // Severe
	"#c62828", // Proliferative
}

// NeutralColor is used for rejected input and any severity outside the table.
const NeutralColor = "#95a5a6"

// DefaultRejectionMessage is shown when the service rejects an image without
// providing its own explanation.
const DefaultRejectionMessage = "Image rejected. Please upload a valid retinal fundus scan."

// Result is the canonical classification payload after boundary
// normalization. Probabilities is keyed by the canonical labels only.
type Result struct {
	SeverityIndex   int
	ClassLabel      string
	ProgressionRisk float64
	Probabilities   map[string]float64
	ErrorMessage    string
}

// Recommendation is one tier of clinical follow-up advice.
type Recommendation struct {
	Title  string
	Points []string
}

var recommendations = [5]Recommendation{
	{
		Title: "Low Risk (No Apparent DR)",
		Points: []string{
			"Maintain annual comprehensive eye examinations.",
			"Continue strict control of blood glucose (HbA1c < 7%) and blood pressure.",
			"Monitor lipid profile regularly.",
		},
	},
	{
		Title: "Mild Non-Proliferative DR",
		Points: []string{
			"Schedule follow-up appointment in 6-12 months.",
			"Optimize glycemic control to delay progression.",
			"Manage blood pressure and cholesterol levels aggressively.",
		},
	},
	{
		Title: "Moderate Non-Proliferative DR",
		Points: []string{
			"Referral required: consult ophthalmologist within 3-6 months.",
			"Consider fluorescein angiography to assess retinal ischemia.",
			"Monitor for signs of macular edema.",
		},
	},
	{
		Title: "Severe Non-Proliferative DR",
		Points: []string{
			"Urgent referral: consult retina specialist within 2-4 weeks.",
			"High risk of progression to Proliferative DR. Closely monitor vision changes.",
			"Pan-retinal photocoagulation (PRP) laser therapy may be indicated.",
		},
	},
	{
		Title: "Proliferative DR (High Risk)",
		Points: []string{
			"Immediate intervention required: high risk of severe vision loss.",
			"Treatments typically include anti-VEGF injections or vitrectomy.",
			"Avoid strenuous physical activity that increases blood pressure until treated.",
		},
	},
}

// fallbackRecommendation covers severity values outside the table. Never an error.
var fallbackRecommendation = Recommendation{
	Title:  "Unrecognized Severity",
	Points: []string{"Consult a specialist."},
}

// Slope per severity for the projected risk trend. Proliferative is treated as
// already saturated.
var trendSlopes = map[int]float64{
	0: 2,
	1: 5,
	2: 12,
	3: 20,
	4: 1,
}

const defaultTrendSlope = 5

// TrendPoints are the forward time points the risk projection covers.
var TrendPoints = [4]string{"Year 1", "Year 2", "Year 3", "Year 5"}

// ProbBar is one entry of the fixed-order probability series, scaled to a
// percentage with one decimal of precision.
type ProbBar struct {
	Label   string
	Percent float64
	Color   string
}

// DisplayModel is everything a view needs to render a classification result.
type DisplayModel struct {
	Rejected       bool
	Label          string
	Color          string
	Risk           float64
	RiskSuppressed bool
	Message        string
	Recommendation Recommendation
	Probabilities  [5]ProbBar
	Trend          [4]float64
}

// Map converts a classification result into its display model. Pure and
// deterministic: no I/O, no clock, no randomness.
func Map(r Result) DisplayModel {
	if r.SeverityIndex == SeverityRejected {
		msg := r.ErrorMessage
		if msg == "" {
			msg = DefaultRejectionMessage
		}
		return DisplayModel{
			Rejected:       true,
			Label:          r.ClassLabel,
			Color:          NeutralColor,
			RiskSuppressed: true,
			Message:        msg,
			Recommendation: Recommendation{Title: "Input Rejected", Points: []string{msg}},
		}
	}

	m := DisplayModel{
		Label:         r.ClassLabel,
		Risk:          r.ProgressionRisk,
		Probabilities: Series(r.Probabilities),
		Trend:         Trend(r.ProgressionRisk, r.SeverityIndex),
	}

	if r.SeverityIndex >= 0 && r.SeverityIndex < len(Palette) {
		m.Color = Palette[r.SeverityIndex]
		m.Recommendation = recommendations[r.SeverityIndex]
	} else {
		m.Color = NeutralColor
		m.Recommendation = fallbackRecommendation
	}

	return m
}

// Series produces the probability bars in fixed label order. Missing entries
// default to zero.
func Series(probs map[string]float64) [5]ProbBar {
	var out [5]ProbBar
	for i, label := range Labels {
		out[i] = ProbBar{
			Label:   label,
			Percent: round1(probs[label] * 100),
			Color:   Palette[i],
		}
	}
	return out
}

// Trend synthesizes the projected risk over four forward time points:
// trend[i] = min(100, base + i*slope). This is a presentational heuristic,
// not a clinical prediction.
func Trend(baseRisk float64, severity int) [4]float64 {
	slope, ok := trendSlopes[severity]
	if !ok {
		slope = defaultTrendSlope
	}

	var out [4]float64
	for i := range out {
		out[i] = math.Min(100, baseRisk+float64(i)*slope)
	}
	return out
}

// NormalizeProbabilities canonicalizes the label keys of a wire-format
// probability map. Backends have shipped several spellings for the first and
// last classes ("No_DR", "Proliferative DR", "Proliferate_DR"); this runs once
// at the network boundary so rendering code never needs fallback lookups.
func NormalizeProbabilities(raw map[string]float64) map[string]float64 {
	out := make(map[string]float64, len(Labels))
	for k, v := range raw {
		if canonical, ok := canonicalLabel(k); ok {
			out[canonical] = v
		}
	}
	return out
}

func canonicalLabel(key string) (string, bool) {
	folded := strings.ToLower(strings.ReplaceAll(strings.TrimSpace(key), "_", " "))
	switch folded {
	case "no dr":
		return "No DR", true
	case "mild", "mild dr":
		return "Mild", true
	case "moderate", "moderate dr":
		return "Moderate", true
	case "severe", "severe dr":
		return "Severe", true
	case "proliferative", "proliferative dr", "proliferate dr":
		return "Proliferative", true
	}
	return "", false
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
