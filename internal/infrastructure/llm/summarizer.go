package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
)

var _ grading.PerformanceSummarizer = (*Gemini)(nil)

// SummarizePerformance writes a short subjective paragraph about class
// performance from the per-document feedback. The response is free prose, so
// the call runs on the model's default sampling rather than the structured
// grading settings.
func (g *Gemini) SummarizePerformance(ctx context.Context, feedback []grading.FeedbackDigest) (string, error) {
	if len(feedback) == 0 {
		return "", fmt.Errorf("%w: no feedback to summarize", grading.ErrGraderBadResponse)
	}

	text, err := g.generateText(ctx, telemetry.GeminiOpSummarize, -1, buildSummaryPrompt(feedback))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(text), nil
}

// buildSummaryPrompt renders the class performance instruction with one
// block per graded assignment.
func buildSummaryPrompt(feedback []grading.FeedbackDigest) string {
	var blocks strings.Builder
	for i, f := range feedback {
		fmt.Fprintf(&blocks, "\n\nAssignment %d:\n", i+1)
		if len(f.Strengths) > 0 {
			fmt.Fprintf(&blocks, "Strengths: %s\n", strings.Join(f.Strengths, "; "))
		}
		if len(f.KeyIssues) > 0 {
			fmt.Fprintf(&blocks, "Key Issues: %s\n", strings.Join(f.KeyIssues, "; "))
		}
		if len(f.Suggestions) > 0 {
			fmt.Fprintf(&blocks, "Suggestions: %s\n", strings.Join(f.Suggestions, "; "))
		}
	}

	return fmt.Sprintf(`You are analyzing feedback from grading %d student assignments. Based on the actual feedback provided for each student, write a brief paragraph (3-4 sentences) summarizing how the class performed overall. Focus on:

1. Common strengths across students based on the feedback
2. Common issues or areas of difficulty mentioned in the feedback
3. Overall assessment of student performance based on the actual comments

Be subjective and descriptive based on the actual feedback text, not just metrics. Write as if you're a professor summarizing class performance based on the detailed feedback given to each student.

Feedback from all students:
%s

Write a concise, subjective summary paragraph based on this feedback:`, len(feedback), blocks.String())
}
