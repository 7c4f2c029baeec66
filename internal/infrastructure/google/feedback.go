package google

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"google.golang.org/api/docs/v1"

	"github.com/gradeflow/backend/internal/domain/grading"
)

// Headings used on the appended pages
const (
	feedbackPageTitle  = "Feedback"
	scorePageTitle     = "Grading Rubric"
	headingStrengths   = "Strengths"
	headingKeyIssues   = "Key Issues"
	headingSuggestions = "Suggestions for Improvement"
)

// insertFeedbackPage appends the written feedback on a new page
func (w *Workspace) insertFeedbackPage(ctx context.Context, svc *Services, docID string, result *grading.DocumentResult) error {
	doc, err := svc.Docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return wrapAPIError("fetching document", err)
	}

	requests := buildFeedbackRequests(documentEndIndex(doc),
		joinFeedback(result.Strengths),
		joinFeedback(result.KeyIssues),
		joinFeedback(result.Suggestions))

	_, err = svc.Docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err != nil {
		return wrapAPIError("inserting feedback page", err)
	}
	return nil
}

// joinFeedback merges bullet items into one block, one line per item
func joinFeedback(items []string) string {
	var lines []string
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			lines = append(lines, s)
		}
	}
	return strings.Join(lines, "\n")
}

// buildFeedbackRequests assembles the single batch appending the feedback
// page: page break, 18pt bold title, then a 14pt bold heading per non-empty
// section. Indices are tracked in UTF-16 units as each insert shifts the
// positions after it.
func buildFeedbackRequests(endIndex int64, strengths, keyIssues, suggestions string) []*docs.Request {
	insertAt := endIndex - 1
	if insertAt < 1 {
		insertAt = 1
	}

	requests := []*docs.Request{{
		InsertPageBreak: &docs.InsertPageBreakRequest{
			Location: &docs.Location{Index: insertAt},
		},
	}}

	cur := insertAt + 1
	title := feedbackPageTitle + "\n\n"
	requests = append(requests,
		insertTextAt(cur, title),
		boldSizeStyle(cur, cur+utf16Len(feedbackPageTitle)+1, 18),
	)
	cur += utf16Len(title)

	sections := []struct {
		heading string
		body    string
	}{
		{headingStrengths, strengths},
		{headingKeyIssues, keyIssues},
		{headingSuggestions, suggestions},
	}
	for _, sec := range sections {
		body := strings.TrimSpace(sec.body)
		if body == "" {
			continue
		}
		text := sec.heading + "\n" + body + "\n\n"
		requests = append(requests,
			insertTextAt(cur, text),
			boldSizeStyle(cur, cur+utf16Len(sec.heading), 14),
		)
		cur += utf16Len(text)
	}

	return requests
}

// insertScoreTable appends the per-criterion score table on a new page,
// falling back to an unstyled text layout when the styled batch is rejected.
func (w *Workspace) insertScoreTable(ctx context.Context, svc *Services, docID string, rubric grading.RubricOutline, result *grading.DocumentResult) error {
	doc, err := svc.Docs.Documents.Get(docID).Context(ctx).Do()
	if err != nil {
		return wrapAPIError("fetching document", err)
	}

	requests := buildScoreTableRequests(documentEndIndex(doc), rubric, result)
	_, err = svc.Docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if err == nil {
		return nil
	}

	w.logger.Warn("Styled score table rejected, writing plain text",
		zap.String("doc_id", docID),
		zap.Error(err))

	doc, ferr := svc.Docs.Documents.Get(docID).Context(ctx).Do()
	if ferr != nil {
		return wrapAPIError("fetching document", ferr)
	}

	requests = buildScoreTextRequests(documentEndIndex(doc), rubric, result)
	_, ferr = svc.Docs.Documents.BatchUpdate(docID, &docs.BatchUpdateDocumentRequest{
		Requests: requests,
	}).Context(ctx).Do()
	if ferr != nil {
		return wrapAPIError("inserting score table", ferr)
	}
	return nil
}

// buildScoreTableRequests lays the scores out as pipe-delimited rows under a
// 16pt bold title, with the total row bolded.
func buildScoreTableRequests(endIndex int64, rubric grading.RubricOutline, result *grading.DocumentResult) []*docs.Request {
	insertAt := endIndex - 1
	if insertAt < 1 {
		insertAt = 1
	}

	requests := []*docs.Request{{
		InsertPageBreak: &docs.InsertPageBreakRequest{
			Location: &docs.Location{Index: insertAt},
		},
	}}

	cur := insertAt + 1
	title := scorePageTitle + "\n\n"
	requests = append(requests,
		insertTextAt(cur, title),
		boldSizeStyle(cur, cur+utf16Len(scorePageTitle)+1, 16),
	)
	cur += utf16Len(title)

	var b strings.Builder
	b.WriteString("Criterion | Max Points | Points Received\n")
	b.WriteString("--- | --- | ---\n")
	for _, c := range rubric.Criteria {
		fmt.Fprintf(&b, "%s | %s | %s\n", c.Name, c.MaxPoints, scoreFor(result, c.Name))
	}
	totalRow := fmt.Sprintf("Total | %s | %s\n", rubric.TotalPoints, result.TotalScore)

	rows := b.String()
	requests = append(requests,
		insertTextAt(cur, rows+"\n"+totalRow),
		boldStyle(cur+utf16Len(rows)+1, cur+utf16Len(rows)+utf16Len(totalRow)),
	)

	return requests
}

// buildScoreTextRequests is the plain layout used when styling is rejected
func buildScoreTextRequests(endIndex int64, rubric grading.RubricOutline, result *grading.DocumentResult) []*docs.Request {
	insertAt := endIndex - 1
	if insertAt < 1 {
		insertAt = 1
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s\n%s\n\n", scorePageTitle, strings.Repeat("=", len(scorePageTitle)))
	for _, c := range rubric.Criteria {
		fmt.Fprintf(&b, "%s:\n  Max Points: %s\n  Points Received: %s\n\n", c.Name, c.MaxPoints, scoreFor(result, c.Name))
	}
	fmt.Fprintf(&b, "Total Points: %s / %s\n", result.TotalScore, rubric.TotalPoints)

	return []*docs.Request{
		{
			InsertPageBreak: &docs.InsertPageBreakRequest{
				Location: &docs.Location{Index: insertAt},
			},
		},
		insertTextAt(insertAt+1, b.String()),
	}
}

// scoreFor reads the awarded points for a criterion, zero when absent
func scoreFor(result *grading.DocumentResult, criterion string) decimal.Decimal {
	if s, ok := result.Scores[criterion]; ok {
		return s
	}
	return decimal.Zero
}

func insertTextAt(index int64, text string) *docs.Request {
	return &docs.Request{
		InsertText: &docs.InsertTextRequest{
			Location: &docs.Location{Index: index},
			Text:     text,
		},
	}
}

func boldSizeStyle(start, end int64, points float64) *docs.Request {
	return &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range: &docs.Range{StartIndex: start, EndIndex: end},
			TextStyle: &docs.TextStyle{
				Bold:     true,
				FontSize: &docs.Dimension{Magnitude: points, Unit: "PT"},
			},
			Fields: "bold,fontSize",
		},
	}
}

func boldStyle(start, end int64) *docs.Request {
	return &docs.Request{
		UpdateTextStyle: &docs.UpdateTextStyleRequest{
			Range:     &docs.Range{StartIndex: start, EndIndex: end},
			TextStyle: &docs.TextStyle{Bold: true},
			Fields:    "bold",
		},
	}
}
