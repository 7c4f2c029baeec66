package grading

import (
	"strings"

	"github.com/shopspring/decimal"
)

// InlineComment is a piece of feedback anchored to a passage of the document
type InlineComment struct {
	Text       string `json:"text"`
	Location   string `json:"location"`
	Suggestion string `json:"suggestion"`
}

// DocumentResult captures the grading outcome for a single document within a
// session. Failed documents carry Success=false and an Error message instead
// of scores. Word uploads graded through a Docs-converted copy carry
// ConvertedDocID next to the original file ID.
type DocumentResult struct {
	DocID             string                     `json:"doc_id"`
	DocName           string                     `json:"doc_name"`
	Success           bool                       `json:"success"`
	TotalScore        decimal.Decimal            `json:"total_score"`
	Scores            map[string]decimal.Decimal `json:"scores,omitempty"`
	Strengths         []string                   `json:"strengths,omitempty"`
	KeyIssues         []string                   `json:"key_issues,omitempty"`
	Suggestions       []string                   `json:"suggestions,omitempty"`
	CriterionComments map[string]string          `json:"criterion_comments,omitempty"`
	Comments          []InlineComment            `json:"comments,omitempty"`
	Summary           string                     `json:"summary,omitempty"`
	Error             string                     `json:"error,omitempty"`
	ConvertedDocID    string                     `json:"converted_doc_id,omitempty"`
	OriginalDocID     string                     `json:"original_doc_id,omitempty"`
}

// NewFailedResult builds a result recording a per-document grading failure
func NewFailedResult(docID, docName, errMsg string) DocumentResult {
	return DocumentResult{
		DocID:   docID,
		DocName: docName,
		Success: false,
		Error:   errMsg,
	}
}

// Matches reports whether this result belongs to the given document ID,
// checking the converted and original IDs as well
func (r DocumentResult) Matches(docID string) bool {
	if docID == "" {
		return false
	}
	return r.DocID == docID || r.ConvertedDocID == docID || r.OriginalDocID == docID
}

// TargetDocID returns the document the feedback should be written into. Word
// uploads are graded through their Docs-converted copy, so that copy is the
// writable target.
func (r DocumentResult) TargetDocID() string {
	if r.ConvertedDocID != "" {
		return r.ConvertedDocID
	}
	return r.DocID
}

// HasInlineComments reports whether any anchored comments carry text
func (r DocumentResult) HasInlineComments() bool {
	for _, c := range r.Comments {
		if strings.TrimSpace(c.Text) != "" {
			return true
		}
	}
	return false
}
