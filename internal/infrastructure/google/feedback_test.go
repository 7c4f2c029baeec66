package google

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gradeflow/backend/internal/domain/grading"
)

func TestBuildFeedbackRequests_IndexArithmetic(t *testing.T) {
	requests := buildFeedbackRequests(100, "Good analysis", "", "Add citations")
	require.Len(t, requests, 7)

	require.NotNil(t, requests[0].InsertPageBreak)
	assert.Equal(t, int64(99), requests[0].InsertPageBreak.Location.Index)

	require.NotNil(t, requests[1].InsertText)
	assert.Equal(t, int64(100), requests[1].InsertText.Location.Index)
	assert.Equal(t, "Feedback\n\n", requests[1].InsertText.Text)

	title := requests[2].UpdateTextStyle
	require.NotNil(t, title)
	assert.Equal(t, int64(100), title.Range.StartIndex)
	assert.Equal(t, int64(109), title.Range.EndIndex)
	assert.True(t, title.TextStyle.Bold)
	assert.Equal(t, float64(18), title.TextStyle.FontSize.Magnitude)
	assert.Equal(t, "bold,fontSize", title.Fields)

	require.NotNil(t, requests[3].InsertText)
	assert.Equal(t, int64(110), requests[3].InsertText.Location.Index)
	assert.Equal(t, "Strengths\nGood analysis\n\n", requests[3].InsertText.Text)

	strengths := requests[4].UpdateTextStyle
	require.NotNil(t, strengths)
	assert.Equal(t, int64(110), strengths.Range.StartIndex)
	assert.Equal(t, int64(119), strengths.Range.EndIndex)
	assert.Equal(t, float64(14), strengths.TextStyle.FontSize.Magnitude)

	require.NotNil(t, requests[5].InsertText)
	assert.Equal(t, int64(135), requests[5].InsertText.Location.Index)
	assert.Equal(t, "Suggestions for Improvement\nAdd citations\n\n", requests[5].InsertText.Text)

	suggestions := requests[6].UpdateTextStyle
	require.NotNil(t, suggestions)
	assert.Equal(t, int64(135), suggestions.Range.StartIndex)
	assert.Equal(t, int64(162), suggestions.Range.EndIndex)
}

func TestBuildFeedbackRequests_EmptyDocumentClampsToStart(t *testing.T) {
	requests := buildFeedbackRequests(1, "", "", "")
	require.NotEmpty(t, requests)

	require.NotNil(t, requests[0].InsertPageBreak)
	assert.Equal(t, int64(1), requests[0].InsertPageBreak.Location.Index)

	// only the page break and the styled title remain
	require.Len(t, requests, 3)
}

func TestBuildFeedbackRequests_SkipsEmptySections(t *testing.T) {
	requests := buildFeedbackRequests(50, "", "Weak thesis", "")
	require.Len(t, requests, 5)
	assert.Equal(t, "Key Issues\nWeak thesis\n\n", requests[3].InsertText.Text)
}

func TestJoinFeedback(t *testing.T) {
	assert.Equal(t, "a\nb", joinFeedback([]string{" a ", "", "b"}))
	assert.Equal(t, "", joinFeedback(nil))
	assert.Equal(t, "", joinFeedback([]string{"  ", ""}))
}

func scoreTableFixture() (grading.RubricOutline, *grading.DocumentResult) {
	rubric := grading.RubricOutline{
		Name:        "Essay Rubric",
		TotalPoints: decimal.NewFromInt(50),
		Criteria: []grading.OutlineCriterion{
			{Name: "Analysis", MaxPoints: decimal.NewFromInt(40)},
			{Name: "Writing", MaxPoints: decimal.NewFromInt(10)},
		},
	}
	result := &grading.DocumentResult{
		DocID:      "doc-1",
		Success:    true,
		TotalScore: decimal.NewFromFloat(35.5),
		Scores: map[string]decimal.Decimal{
			"Analysis": decimal.NewFromFloat(35.5),
		},
	}
	return rubric, result
}

func TestBuildScoreTableRequests(t *testing.T) {
	rubric, result := scoreTableFixture()

	requests := buildScoreTableRequests(50, rubric, result)
	require.Len(t, requests, 5)

	require.NotNil(t, requests[0].InsertPageBreak)
	assert.Equal(t, int64(49), requests[0].InsertPageBreak.Location.Index)

	require.NotNil(t, requests[1].InsertText)
	assert.Equal(t, "Grading Rubric\n\n", requests[1].InsertText.Text)

	title := requests[2].UpdateTextStyle
	require.NotNil(t, title)
	assert.Equal(t, float64(16), title.TextStyle.FontSize.Magnitude)

	require.NotNil(t, requests[3].InsertText)
	body := requests[3].InsertText.Text
	assert.Contains(t, body, "Criterion | Max Points | Points Received\n")
	assert.Contains(t, body, "Analysis | 40 | 35.5\n")
	assert.Contains(t, body, "Writing | 10 | 0\n")
	assert.Contains(t, body, "Total | 50 | 35.5\n")

	total := requests[4].UpdateTextStyle
	require.NotNil(t, total)
	assert.Equal(t, "bold", total.Fields)
	assert.True(t, total.TextStyle.Bold)
}

func TestBuildScoreTextRequests(t *testing.T) {
	rubric, result := scoreTableFixture()

	requests := buildScoreTextRequests(10, rubric, result)
	require.Len(t, requests, 2)

	require.NotNil(t, requests[0].InsertPageBreak)
	assert.Equal(t, int64(9), requests[0].InsertPageBreak.Location.Index)

	require.NotNil(t, requests[1].InsertText)
	assert.Equal(t, int64(10), requests[1].InsertText.Location.Index)
	body := requests[1].InsertText.Text
	assert.Contains(t, body, "Grading Rubric\n==============\n")
	assert.Contains(t, body, "Analysis:\n  Max Points: 40\n  Points Received: 35.5\n")
	assert.Contains(t, body, "Total Points: 35.5 / 50\n")
}
