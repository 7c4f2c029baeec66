package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// noGradingDataMessage is served while an assignment has no graded documents
const noGradingDataMessage = "No grading data is available yet. Once documents are graded, a performance summary will be generated based on the feedback provided to each student."

// defaultTotalPoints is assumed when an assignment's rubric cannot supply one
var defaultTotalPoints = decimal.NewFromInt(100)

// SummaryService aggregates an assignment's grading results into score
// statistics, a letter-grade distribution and a class performance paragraph
type SummaryService struct {
	assignmentRepo course.AssignmentRepository
	sessionRepo    grading.GradingSessionRepository
	documentRepo   grading.AssignmentDocumentRepository
	rubricStore    rubric.RubricStore
	logger         *zap.Logger

	summarizer grading.PerformanceSummarizer
}

// NewSummaryService creates a new summary service
func NewSummaryService(
	assignmentRepo course.AssignmentRepository,
	sessionRepo grading.GradingSessionRepository,
	documentRepo grading.AssignmentDocumentRepository,
	rubricStore rubric.RubricStore,
	logger *zap.Logger,
) *SummaryService {
	return &SummaryService{
		assignmentRepo: assignmentRepo,
		sessionRepo:    sessionRepo,
		documentRepo:   documentRepo,
		rubricStore:    rubricStore,
		logger:         logger,
	}
}

// SetPerformanceSummarizer wires the model-backed paragraph writer. Without
// one the summary falls back to a deterministic paragraph.
func (s *SummaryService) SetPerformanceSummarizer(summarizer grading.PerformanceSummarizer) {
	s.summarizer = summarizer
}

// ForAssignment builds the grading summary for one assignment. Scores come
// from every session's successful results; document counts come from the
// document records.
func (s *SummaryService) ForAssignment(ctx context.Context, assignmentID uuid.UUID) (*AssignmentSummary, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		s.logger.Error("Failed to load assignment", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load assignment")
	}

	sessions, err := s.sessionRepo.FindByAssignment(ctx, assignmentID, shared.Filter{})
	if err != nil {
		s.logger.Error("Failed to list grading sessions", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list grading sessions")
	}

	var scores []decimal.Decimal
	var digests []grading.FeedbackDigest
	for si := range sessions {
		for _, result := range sessions[si].Results {
			if !result.Success {
				continue
			}
			scores = append(scores, result.TotalScore)
			digest := grading.FeedbackDigest{
				Strengths:   result.Strengths,
				KeyIssues:   result.KeyIssues,
				Suggestions: result.Suggestions,
			}
			if digest.HasContent() {
				digests = append(digests, digest)
			}
		}
	}

	totalPoints := s.totalPointsFor(ctx, assignment)

	docs, err := s.documentRepo.FindByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("Failed to list documents", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list documents")
	}

	summary := &AssignmentSummary{
		TotalDocuments:     len(docs),
		GradedDocuments:    len(scores),
		TotalPoints:        totalPoints,
		GradeDistribution:  distributeGrades(scores, totalPoints),
		PerformanceSummary: s.performanceSummary(ctx, digests),
	}

	for i := range docs {
		switch docs[i].Status {
		case grading.DocumentStatusUngraded:
			summary.UngradedDocuments++
		case grading.DocumentStatusReviewed:
			summary.ReviewedDocuments++
		}
	}

	if len(scores) > 0 {
		avg, minScore, maxScore := scoreStats(scores)
		summary.AverageScore = &avg
		summary.MinScore = &minScore
		summary.MaxScore = &maxScore
	}

	return summary, nil
}

// totalPointsFor loads the rubric's point total, assuming the default when
// the assignment has no loadable rubric
func (s *SummaryService) totalPointsFor(ctx context.Context, assignment *course.Assignment) decimal.Decimal {
	if !assignment.HasRubric() {
		return defaultTotalPoints
	}
	r, err := s.rubricStore.Load(ctx, assignment.RubricFilename)
	if err != nil {
		s.logger.Warn("Could not load rubric for summary",
			zap.String("rubric", assignment.RubricFilename),
			zap.Error(err))
		return defaultTotalPoints
	}
	if !r.TotalPoints.IsPositive() {
		return defaultTotalPoints
	}
	return r.TotalPoints
}

// performanceSummary writes the subjective class paragraph: the model when
// available, a deterministic fallback otherwise
func (s *SummaryService) performanceSummary(ctx context.Context, digests []grading.FeedbackDigest) string {
	if len(digests) == 0 {
		return noGradingDataMessage
	}
	if s.summarizer != nil {
		text, err := s.summarizer.SummarizePerformance(ctx, digests)
		if err != nil {
			s.logger.Warn("Performance summarizer failed, using fallback", zap.Error(err))
		} else if strings.TrimSpace(text) != "" {
			return strings.TrimSpace(text)
		}
	}
	return fallbackSummary(digests)
}

// fallbackSummary composes the class paragraph from feedback patterns when
// the model is unavailable
func fallbackSummary(digests []grading.FeedbackDigest) string {
	if len(digests) == 0 {
		return "No grading data is available yet."
	}

	var hasStrengths, hasIssues, hasSuggestions bool
	for _, d := range digests {
		hasStrengths = hasStrengths || len(d.Strengths) > 0
		hasIssues = hasIssues || len(d.KeyIssues) > 0
		hasSuggestions = hasSuggestions || len(d.Suggestions) > 0
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Based on feedback from %d student assignments, ", len(digests))
	if hasStrengths {
		b.WriteString("students demonstrated various strengths across their submissions. ")
	} else {
		b.WriteString("the assignments showed areas that need improvement. ")
	}
	if hasIssues {
		b.WriteString("Common issues identified in the feedback include areas that require additional attention. ")
	}
	if hasSuggestions {
		b.WriteString("The feedback suggests several areas for improvement across the class. ")
	}
	b.WriteString("Overall, the feedback indicates a range of performance levels across the class.")

	return b.String()
}

// distributeGrades buckets scores into letter grades against the point total
func distributeGrades(scores []decimal.Decimal, totalPoints decimal.Decimal) GradeDistribution {
	var dist GradeDistribution

	gradeA := totalPoints.Mul(decimal.NewFromFloat(0.9))
	gradeB := totalPoints.Mul(decimal.NewFromFloat(0.8))
	gradeC := totalPoints.Mul(decimal.NewFromFloat(0.7))
	gradeD := totalPoints.Mul(decimal.NewFromFloat(0.6))

	for _, score := range scores {
		switch {
		case score.GreaterThanOrEqual(gradeA):
			dist.A++
		case score.GreaterThanOrEqual(gradeB):
			dist.B++
		case score.GreaterThanOrEqual(gradeC):
			dist.C++
		case score.GreaterThanOrEqual(gradeD):
			dist.D++
		default:
			dist.F++
		}
	}

	return dist
}

// scoreStats returns the average (rounded to two places), minimum and maximum
func scoreStats(scores []decimal.Decimal) (avg, minScore, maxScore decimal.Decimal) {
	sum := decimal.Zero
	minScore = scores[0]
	maxScore = scores[0]
	for _, score := range scores {
		sum = sum.Add(score)
		if score.LessThan(minScore) {
			minScore = score
		}
		if score.GreaterThan(maxScore) {
			maxScore = score
		}
	}
	avg = sum.Div(decimal.NewFromInt(int64(len(scores)))).Round(2)
	return avg, minScore, maxScore
}
