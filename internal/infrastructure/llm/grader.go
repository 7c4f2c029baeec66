package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
)

var _ grading.DocumentGrader = (*Gemini)(nil)

// Grade evaluates a document against a rubric. Scores outside a criterion's
// range are clamped and missing criteria score zero, so a confused model
// response still yields a usable evaluation.
func (g *Gemini) Grade(ctx context.Context, req *grading.GradeRequest) (*grading.Evaluation, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	text, err := g.generateText(ctx, telemetry.GeminiOpGrade, g.cfg.GradingTemperature, buildGradingPrompt(req))
	if err != nil {
		return nil, err
	}

	payload, err := decodeEvaluation(text)
	if err != nil {
		return nil, err
	}
	return payload.toEvaluation(req.Rubric), nil
}

// buildGradingPrompt renders the grading instruction with the rubric,
// optional instructor notes, and the expected JSON shape.
func buildGradingPrompt(req *grading.GradeRequest) string {
	var criteria strings.Builder
	for i, c := range req.Rubric.Criteria {
		fmt.Fprintf(&criteria, "%d. %s (%s points)\n   Description: %s\n\n", i+1, c.Name, c.MaxPoints, c.Description)
	}

	var custom string
	if s := strings.TrimSpace(req.CustomInstructions); s != "" {
		custom = "ADDITIONAL INSTRUCTIONS FROM THE INSTRUCTOR:\n" + s + "\n\n"
	}

	return fmt.Sprintf(`You are an expert teaching assistant grading a student assignment.

RUBRIC:
%s (Total: %s points)

%s%sSTUDENT'S DOCUMENT:
%s

TASK:
1. Evaluate the document against each rubric criterion
2. Identify specific issues and areas for improvement
3. Provide constructive feedback
4. Assign points for each criterion based on performance
5. Return your evaluation in the following JSON format:

{
  "comments": [
    {
      "text": "Comment text here",
      "location": "specific text excerpt or paragraph reference",
      "suggestion": "specific improvement suggestion"
    }
  ],
  "scores": {
    "Criterion Name": 18
  },
  "total_score": 85,
  "summary": "Brief overall feedback",
  "strengths": ["What the student did well"],
  "key_issues": ["The most significant problems to address"],
  "suggestions": ["Actionable ways to improve the work"],
  "criterion_comments": {
    "Criterion Name": "One or two sentences on this criterion"
  }
}

IMPORTANT:
- Be specific and constructive in your comments
- Reference exact parts of the text when possible
- Provide actionable suggestions
- Scores should reflect actual performance, not just be high
- Total score should match sum of individual criterion scores
- Return ONLY valid JSON, no additional text

Return the JSON now:`,
		req.Rubric.Name, req.Rubric.TotalPoints, criteria.String(), custom, req.DocumentText)
}

// evaluationPayload is the JSON shape the grading prompt asks for
type evaluationPayload struct {
	Comments          []commentPayload           `json:"comments"`
	Scores            map[string]decimal.Decimal `json:"scores"`
	TotalScore        decimal.Decimal            `json:"total_score"`
	Summary           string                     `json:"summary"`
	Strengths         []string                   `json:"strengths"`
	KeyIssues         []string                   `json:"key_issues"`
	Suggestions       []string                   `json:"suggestions"`
	CriterionComments map[string]string          `json:"criterion_comments"`
}

type commentPayload struct {
	Text       string `json:"text"`
	Location   string `json:"location"`
	Suggestion string `json:"suggestion"`
}

// decodeEvaluation parses the model response. A single-quoted pseudo-JSON
// response gets one repair attempt with quotes swapped.
func decodeEvaluation(response string) (*evaluationPayload, error) {
	text, ok := extractJSONObject(response)
	if !ok {
		return nil, fmt.Errorf("%w: no JSON object in response", grading.ErrGraderBadResponse)
	}

	var payload evaluationPayload
	if err := json.Unmarshal([]byte(text), &payload); err != nil {
		repaired := strings.ReplaceAll(text, "'", `"`)
		if err2 := json.Unmarshal([]byte(repaired), &payload); err2 != nil {
			return nil, fmt.Errorf("%w: %v", grading.ErrGraderBadResponse, err)
		}
	}
	return &payload, nil
}

// toEvaluation normalizes the payload against the rubric
func (p *evaluationPayload) toEvaluation(rubric grading.RubricOutline) *grading.Evaluation {
	scores, total := rubric.ClampScores(p.Scores)

	var comments []grading.InlineComment
	for _, c := range p.Comments {
		if strings.TrimSpace(c.Text) == "" {
			continue
		}
		comments = append(comments, grading.InlineComment{
			Text:       strings.TrimSpace(c.Text),
			Location:   strings.TrimSpace(c.Location),
			Suggestion: strings.TrimSpace(c.Suggestion),
		})
	}

	criterionComments := make(map[string]string)
	for name, comment := range p.CriterionComments {
		if s := strings.TrimSpace(comment); s != "" {
			criterionComments[name] = s
		}
	}

	return &grading.Evaluation{
		Scores:            scores,
		TotalScore:        total,
		Strengths:         trimAll(p.Strengths),
		KeyIssues:         trimAll(p.KeyIssues),
		Suggestions:       trimAll(p.Suggestions),
		CriterionComments: criterionComments,
		Comments:          comments,
		Summary:           strings.TrimSpace(p.Summary),
	}
}

func trimAll(items []string) []string {
	var out []string
	for _, item := range items {
		if s := strings.TrimSpace(item); s != "" {
			out = append(out, s)
		}
	}
	return out
}
