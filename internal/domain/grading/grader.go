package grading

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Grader Errors
// ---------------------------------------------------------------------------

var (
	// ErrGraderNotConfigured means no model API key is set
	ErrGraderNotConfigured = errors.New("grader: model API key not configured")
	// ErrGraderRequestFailed wraps transport errors from the model provider
	ErrGraderRequestFailed = errors.New("grader: model request failed")
	// ErrGraderBadResponse means the model reply could not be parsed
	ErrGraderBadResponse = errors.New("grader: model returned an unparseable response")
)

// ---------------------------------------------------------------------------
// Rubric Outline
// ---------------------------------------------------------------------------

// OutlineCriterion is one scored dimension of a rubric as the grading ports
// see it: a name, a cap, and the guidance text fed to the model.
type OutlineCriterion struct {
	Name        string
	MaxPoints   decimal.Decimal
	Description string
}

// RubricOutline is the slice of a rubric the grading ports need: the ordered
// criteria with their caps. It decouples the grading domain from rubric
// template storage; the application layer maps stored rubrics into it.
type RubricOutline struct {
	Name        string
	TotalPoints decimal.Decimal
	Criteria    []OutlineCriterion
}

// MaxPointsFor returns the cap for a criterion by name
func (o RubricOutline) MaxPointsFor(name string) (decimal.Decimal, bool) {
	for _, c := range o.Criteria {
		if c.Name == name {
			return c.MaxPoints, true
		}
	}
	return decimal.Zero, false
}

// ClampScores normalizes model scores against the outline: every criterion is
// present, each score is forced into [0, max], and the total is recomputed as
// the sum. Criteria the model skipped score zero.
func (o RubricOutline) ClampScores(raw map[string]decimal.Decimal) (map[string]decimal.Decimal, decimal.Decimal) {
	clamped := make(map[string]decimal.Decimal, len(o.Criteria))
	total := decimal.Zero

	for _, c := range o.Criteria {
		score := decimal.Zero
		if s, ok := raw[c.Name]; ok {
			score = s
			if score.LessThan(decimal.Zero) {
				score = decimal.Zero
			}
			if score.GreaterThan(c.MaxPoints) {
				score = c.MaxPoints
			}
		}
		clamped[c.Name] = score
		total = total.Add(score)
	}

	return clamped, total
}

// ---------------------------------------------------------------------------
// Grader Types
// ---------------------------------------------------------------------------

// GradeRequest is one document's text plus the rubric it is graded against
type GradeRequest struct {
	DocumentText       string
	Rubric             RubricOutline
	CustomInstructions string
}

// Validate checks the request carries enough text to grade
func (r *GradeRequest) Validate() error {
	if len(strings.TrimSpace(r.DocumentText)) < MinimumDocumentTextLength {
		return ErrEmptyDocument
	}
	if len(r.Rubric.Criteria) == 0 {
		return errors.New("grader: rubric has no criteria")
	}
	return nil
}

// Evaluation is the structured outcome of grading one document. Scores are
// already clamped to the rubric caps and the total recomputed.
type Evaluation struct {
	Scores            map[string]decimal.Decimal
	TotalScore        decimal.Decimal
	Strengths         []string
	KeyIssues         []string
	Suggestions       []string
	CriterionComments map[string]string
	Comments          []InlineComment
	Summary           string
}

// FeedbackDigest is the per-document feedback slice fed to the class
// performance summarizer.
type FeedbackDigest struct {
	Strengths   []string
	KeyIssues   []string
	Suggestions []string
}

// HasContent reports whether the digest carries any feedback text
func (d FeedbackDigest) HasContent() bool {
	return len(d.Strengths) > 0 || len(d.KeyIssues) > 0 || len(d.Suggestions) > 0
}

// ---------------------------------------------------------------------------
// Grader Port Interfaces
// ---------------------------------------------------------------------------

// DocumentGrader is the port to the grading model. The production
// implementation prompts Gemini; tests substitute a stub.
type DocumentGrader interface {
	// Grade evaluates one document against the rubric
	Grade(ctx context.Context, req *GradeRequest) (*Evaluation, error)
}

// PerformanceSummarizer writes the subjective class-performance paragraph for
// assignment summaries from the accumulated per-document feedback.
type PerformanceSummarizer interface {
	SummarizePerformance(ctx context.Context, feedback []FeedbackDigest) (string, error)
}
