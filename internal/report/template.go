package report

import (
	"html/template"

	"github.com/retinaai/retinascope/internal/diagnosis"
	"github.com/retinaai/retinascope/internal/patient"
)

type documentData struct {
	ReportID    string
	GeneratedAt string
	Year        int
	Patient     patient.Record
	Model       diagnosis.DisplayModel
	ImageURL    string
	ChartHTML   template.HTML
	Disclaimer  string
}

var documentTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Diagnosis Report {{.ReportID}}</title>
<style>
  body { font-family: sans-serif; max-width: 210mm; margin: 0 auto; padding: 15px; color: #2c3e50; }
  h1.brand { margin: 0; font-size: 22px; text-align: center; }
  p.sub { color: #666; text-align: center; font-size: 13px; margin: 3px 0 8px 0; }
  .rule { border-bottom: 1px solid #d32f2f; margin-bottom: 15px; }
  h2.doc { text-align: center; font-size: 16px; margin: 0 0 5px 0; }
  p.meta { text-align: center; color: #666; font-size: 11px; }
  h3.section { background: #f5f5f5; padding: 6px 10px; border-left: 3px solid #2980b9; font-size: 13px; }
  .demographics { display: grid; grid-template-columns: repeat(3, 1fr); gap: 12px; }
  .demographics p.label { color: #666; font-size: 11px; margin: 2px 0; }
  .demographics p.value { font-size: 13px; font-weight: 600; margin: 2px 0; }
  .headline { text-align: center; padding: 15px; background: #f8f9fa; border-radius: 6px; }
  .headline h1 { font-size: 22px; margin: 0; }
  .recommendation { padding: 12px; background: #fff8e1; border-radius: 5px; font-size: 12px; }
  .image img { max-width: 180px; max-height: 120px; border: 1px solid #ddd; border-radius: 4px; }
  .image .missing { color: #999; font-size: 12px; font-style: italic; }
  .footer { margin-top: 20px; padding-top: 12px; border-top: 1px solid #eee; text-align: center; }
  .footer p.disclaimer { color: #666; font-size: 10px; font-style: italic; }
  .footer p.copyright { color: #999; font-size: 9px; }
  @media print { body { font-size: 11px; } }
</style>
</head>
<body>
<h1 class="brand">RetinaAI Pro</h1>
<p class="sub">Advanced Diabetic Retinopathy Diagnosis System</p>
<div class="rule"></div>

<h2 class="doc">DIAGNOSIS REPORT</h2>
<p class="meta">Report ID: {{.ReportID}} | Generated: {{.GeneratedAt}}</p>

<h3 class="section">PATIENT INFORMATION</h3>
<div class="demographics">
  <div><p class="label">Name</p><p class="value">{{.Patient.Name}}</p></div>
  <div><p class="label">Age</p><p class="value">{{.Patient.Age}} years</p></div>
  <div><p class="label">Mobile</p><p class="value">{{.Patient.Mobile}}</p></div>
</div>

<h3 class="section">DIAGNOSIS RESULT</h3>
<div class="headline">
  {{if .Model.Rejected}}
  <h1 style="color: {{.Model.Color}}">Input Rejected</h1>
  <p>{{.Model.Message}}</p>
  {{else}}
  <h1 style="color: {{.Model.Color}}">{{.Model.Label}}</h1>
  <p>Progression Risk: <strong>{{printf "%.0f" .Model.Risk}}%</strong></p>
  {{end}}
</div>

<h3 class="section">RETINAL FUNDUS IMAGE</h3>
<div class="image">
  {{if .ImageURL}}
  <img src="{{.ImageURL}}" alt="Retinal fundus scan">
  {{else}}
  <p class="missing">Image not available for print</p>
  {{end}}
</div>

<h3 class="section">CLINICAL RECOMMENDATIONS</h3>
<div class="recommendation">
  <strong>{{.Model.Recommendation.Title}}</strong>
  <ul>
    {{range .Model.Recommendation.Points}}<li>{{.}}</li>
    {{end}}
  </ul>
</div>

{{if not .Model.Rejected}}
<h3 class="section">SEVERITY PROBABILITY DISTRIBUTION</h3>
{{.ChartHTML}}
{{end}}

<div class="footer">
  <p class="disclaimer">Disclaimer: {{.Disclaimer}}</p>
  <p class="copyright">&copy; {{.Year}} RetinaAI Pro - All rights reserved.</p>
</div>
</body>
</html>
`))
