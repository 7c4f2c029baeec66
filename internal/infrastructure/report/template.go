package report

import (
	"bytes"
	"fmt"
	"html/template"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// SessionReport is the data model behind the grading report template
type SessionReport struct {
	AssignmentName string
	SectionNumber  string
	RubricName     string
	TotalPoints    decimal.Decimal
	GradedBy       string
	ReviewedBy     string
	ReviewedAt     *time.Time
	ReviewNotes    string
	GeneratedAt    time.Time
	Documents      []DocumentReport
}

// DocumentReport is one graded document in the report
type DocumentReport struct {
	Name        string
	Success     bool
	TotalScore  decimal.Decimal
	Grade       string
	Rows        []ScoreRow
	Strengths   []string
	KeyIssues   []string
	Suggestions []string
	Summary     string
	Error       string
}

// ScoreRow is one rubric criterion line in a document's score table
type ScoreRow struct {
	Criterion string
	Points    decimal.Decimal
	MaxPoints decimal.Decimal
	Comment   string
}

// TemplateEngine renders session reports to HTML
type TemplateEngine struct {
	tmpl *template.Template
}

// NewTemplateEngine creates the report template engine. The template is
// compiled once; a broken template is a programming error.
func NewTemplateEngine() (*TemplateEngine, error) {
	tmpl, err := template.New("session_report").Funcs(reportFuncMap()).Parse(sessionReportTemplate)
	if err != nil {
		return nil, fmt.Errorf("report: parsing session template: %w", err)
	}
	return &TemplateEngine{tmpl: tmpl}, nil
}

// RenderHTML fills the session report template
func (e *TemplateEngine) RenderHTML(data *SessionReport) (string, error) {
	var buf bytes.Buffer
	if err := e.tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("report: executing session template: %w", err)
	}
	return buf.String(), nil
}

func reportFuncMap() template.FuncMap {
	titleCaser := cases.Title(language.English)
	return template.FuncMap{
		"title":  titleCaser.String,
		"points": formatPoints,
		"percent": func(score, total decimal.Decimal) string {
			if total.LessThanOrEqual(decimal.Zero) {
				return "0%"
			}
			return score.Div(total).Mul(decimal.NewFromInt(100)).Round(1).String() + "%"
		},
		"datetime": func(v any) string {
			switch t := v.(type) {
			case time.Time:
				return t.Format("January 2, 2006 15:04")
			case *time.Time:
				if t == nil {
					return ""
				}
				return t.Format("January 2, 2006 15:04")
			}
			return ""
		},
	}
}

// formatPoints renders a decimal score without trailing zeros
func formatPoints(d decimal.Decimal) string {
	return d.Truncate(2).String()
}

const sessionReportTemplate = `<!DOCTYPE html>
<html>
<head>
<meta charset="UTF-8">
<title>Grading Report - {{.AssignmentName}}</title>
<style>
  body { font-family: Georgia, serif; color: #1a1a1a; margin: 0; }
  h1 { font-size: 22px; margin-bottom: 2px; }
  h2 { font-size: 16px; border-bottom: 1px solid #999; padding-bottom: 4px; page-break-after: avoid; }
  .meta { color: #555; font-size: 12px; margin-bottom: 18px; }
  .document { page-break-inside: avoid; margin-bottom: 28px; }
  .failed { color: #8b0000; font-style: italic; }
  table { border-collapse: collapse; width: 100%; font-size: 12px; margin: 8px 0; }
  th, td { border: 1px solid #bbb; padding: 5px 8px; text-align: left; }
  th { background: #f0f0f0; }
  td.num { text-align: right; white-space: nowrap; }
  .total-row td { font-weight: bold; background: #fafafa; }
  ul { margin: 4px 0 10px 0; padding-left: 20px; font-size: 12px; }
  .section-label { font-weight: bold; font-size: 12px; margin-top: 8px; }
  .summary { font-size: 12px; background: #f8f8f4; padding: 8px 10px; border-left: 3px solid #999; }
  .notes { font-size: 12px; font-style: italic; }
</style>
</head>
<body>
<h1>Grading Report: {{.AssignmentName}}</h1>
<div class="meta">
  {{if .SectionNumber}}Section {{.SectionNumber}} &middot; {{end}}Rubric: {{.RubricName}} ({{points .TotalPoints}} points)<br>
  Graded by {{.GradedBy}}{{if .ReviewedBy}} &middot; Approved by {{.ReviewedBy}}{{if .ReviewedAt}} on {{datetime .ReviewedAt}}{{end}}{{end}}<br>
  Generated {{datetime .GeneratedAt}}
</div>
{{if .ReviewNotes}}<p class="notes">Reviewer notes: {{.ReviewNotes}}</p>{{end}}

{{range .Documents}}
<div class="document">
  <h2>{{.Name}}</h2>
  {{if .Success}}
  <table>
    <tr><th>Criterion</th><th>Score</th><th>Comment</th></tr>
    {{range .Rows}}
    <tr>
      <td>{{title .Criterion}}</td>
      <td class="num">{{points .Points}} / {{points .MaxPoints}}</td>
      <td>{{.Comment}}</td>
    </tr>
    {{end}}
    <tr class="total-row">
      <td>Total</td>
      <td class="num">{{points .TotalScore}} ({{percent .TotalScore $.TotalPoints}})</td>
      <td>Grade: {{.Grade}}</td>
    </tr>
  </table>
  {{if .Strengths}}<div class="section-label">Strengths</div><ul>{{range .Strengths}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{if .KeyIssues}}<div class="section-label">Key Issues</div><ul>{{range .KeyIssues}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{if .Suggestions}}<div class="section-label">Suggestions</div><ul>{{range .Suggestions}}<li>{{.}}</li>{{end}}</ul>{{end}}
  {{if .Summary}}<p class="summary">{{.Summary}}</p>{{end}}
  {{else}}
  <p class="failed">Grading failed: {{.Error}}</p>
  {{end}}
</div>
{{end}}
</body>
</html>`
