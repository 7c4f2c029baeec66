package report

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleSessionReport() *SessionReport {
	reviewedAt := time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)
	return &SessionReport{
		AssignmentName: "Case Study 2",
		SectionNumber:  "901",
		RubricName:     "Essay Rubric",
		TotalPoints:    decimal.NewFromInt(100),
		GradedBy:       "Alice Grader",
		ReviewedBy:     "Bob Reviewer",
		ReviewedAt:     &reviewedAt,
		ReviewNotes:    "Looks consistent across the batch.",
		GeneratedAt:    time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC),
		Documents: []DocumentReport{
			{
				Name:       "jane_doe_case2.docx",
				Success:    true,
				TotalScore: decimal.NewFromFloat(87.5),
				Grade:      "B",
				Rows: []ScoreRow{
					{Criterion: "thesis clarity", Points: decimal.NewFromInt(18), MaxPoints: decimal.NewFromInt(20), Comment: "Clear position stated early."},
					{Criterion: "evidence", Points: decimal.NewFromFloat(69.5), MaxPoints: decimal.NewFromInt(80), Comment: "Solid sourcing, one unsupported claim."},
				},
				Strengths:   []string{"Strong opening paragraph"},
				KeyIssues:   []string{"Second claim lacks citation"},
				Suggestions: []string{"Add a source for the market data"},
				Summary:     "A well organized analysis with minor sourcing gaps.",
			},
			{
				Name:    "empty_submission.docx",
				Success: false,
				Error:   "document contains no text",
			},
		},
	}
}

func TestTemplateEngineRenderHTML(t *testing.T) {
	engine, err := NewTemplateEngine()
	require.NoError(t, err)

	t.Run("renders full report", func(t *testing.T) {
		html, err := engine.RenderHTML(sampleSessionReport())
		require.NoError(t, err)

		assert.Contains(t, html, "Grading Report: Case Study 2")
		assert.Contains(t, html, "Section 901")
		assert.Contains(t, html, "Essay Rubric (100 points)")
		assert.Contains(t, html, "Graded by Alice Grader")
		assert.Contains(t, html, "Approved by Bob Reviewer")
		assert.Contains(t, html, "March 14, 2026 09:30")
		assert.Contains(t, html, "Reviewer notes: Looks consistent across the batch.")
	})

	t.Run("title cases criteria and formats scores", func(t *testing.T) {
		html, err := engine.RenderHTML(sampleSessionReport())
		require.NoError(t, err)

		assert.Contains(t, html, "Thesis Clarity")
		assert.Contains(t, html, "18 / 20")
		assert.Contains(t, html, "69.5 / 80")
		assert.Contains(t, html, "87.5 (87.5%)")
		assert.Contains(t, html, "Grade: B")
	})

	t.Run("renders failure notice for failed documents", func(t *testing.T) {
		html, err := engine.RenderHTML(sampleSessionReport())
		require.NoError(t, err)

		assert.Contains(t, html, "empty_submission.docx")
		assert.Contains(t, html, "Grading failed: document contains no text")
	})

	t.Run("omits review line when session has no reviewer", func(t *testing.T) {
		data := sampleSessionReport()
		data.ReviewedBy = ""
		data.ReviewedAt = nil
		data.ReviewNotes = ""

		html, err := engine.RenderHTML(data)
		require.NoError(t, err)

		assert.NotContains(t, html, "Approved by")
		assert.NotContains(t, html, "Reviewer notes")
	})

	t.Run("escapes html in document content", func(t *testing.T) {
		data := sampleSessionReport()
		data.Documents[0].Summary = "<script>alert(1)</script>"

		html, err := engine.RenderHTML(data)
		require.NoError(t, err)

		assert.NotContains(t, html, "<script>alert(1)</script>")
		assert.Contains(t, html, "&lt;script&gt;")
	})
}

func TestFormatPoints(t *testing.T) {
	assert.Equal(t, "100", formatPoints(decimal.NewFromInt(100)))
	assert.Equal(t, "87.5", formatPoints(decimal.NewFromFloat(87.5)))
	assert.Equal(t, "12.33", formatPoints(decimal.NewFromFloat(12.339)))
}
