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
	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// GradingService runs the AI grading pipeline: pull document text from the
// workspace, grade it against a rubric, and store the outcome as a session
// awaiting review
type GradingService struct {
	assignmentRepo course.AssignmentRepository
	documentRepo   grading.AssignmentDocumentRepository
	rubricStore    rubric.RubricStore
	workspace      grading.DocumentWorkspace
	grader         grading.DocumentGrader
	sessions       *SessionService
	logger         *zap.Logger

	gradingMetrics *telemetry.GradingMetrics
}

// NewGradingService creates a new grading service
func NewGradingService(
	assignmentRepo course.AssignmentRepository,
	documentRepo grading.AssignmentDocumentRepository,
	rubricStore rubric.RubricStore,
	workspace grading.DocumentWorkspace,
	grader grading.DocumentGrader,
	sessions *SessionService,
	logger *zap.Logger,
) *GradingService {
	return &GradingService{
		assignmentRepo: assignmentRepo,
		documentRepo:   documentRepo,
		rubricStore:    rubricStore,
		workspace:      workspace,
		grader:         grader,
		sessions:       sessions,
		logger:         logger,
	}
}

// SetGradingMetrics sets the business metrics recorder
func (s *GradingService) SetGradingMetrics(gm *telemetry.GradingMetrics) {
	s.gradingMetrics = gm
}

// GradeBatch grades an assignment's documents and stores the outcome as a
// pending session. Each document fails or succeeds on its own; a grading
// error never aborts the batch. Rubric and instructions default to the
// assignment's own when the input leaves them blank.
func (s *GradingService) GradeBatch(ctx context.Context, input GradeBatchInput) (*GradeBatchResult, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, input.AssignmentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		s.logger.Error("Failed to load assignment", zap.String("assignment_id", input.AssignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load assignment")
	}

	if len(input.DocIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "doc_ids is required")
	}

	rubricFilename := input.RubricFilename
	if rubricFilename == "" {
		rubricFilename = assignment.RubricFilename
	}
	if rubricFilename == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "rubric_filename is required")
	}

	r, err := s.rubricStore.Load(ctx, rubricFilename)
	if err != nil {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Rubric not found: %s", rubricFilename))
	}
	outline := outlineFrom(r)

	instructions := strings.TrimSpace(input.CustomInstructions)
	if instructions == "" {
		instructions = assignment.CustomInstructions
	}

	s.logger.Info("Grading batch started",
		zap.String("assignment_id", assignment.ID.String()),
		zap.String("rubric", rubricFilename),
		zap.Int("documents", len(input.DocIDs)))

	results := make([]grading.DocumentResult, 0, len(input.DocIDs))
	for _, docID := range input.DocIDs {
		docName := s.lookupDocName(ctx, assignment.ID, docID)
		results = append(results, s.gradeOne(ctx, docID, docName, input.DocTypes[docID], outline, instructions))
	}

	created, err := s.sessions.Create(ctx, CreateSessionInput{
		AssignmentID: input.AssignmentID,
		DocIDs:       input.DocIDs,
		Results:      results,
		UserEmail:    input.UserEmail,
		UserName:     input.UserName,
		UserRole:     input.UserRole,
	})
	if err != nil {
		return nil, err
	}

	return &GradeBatchResult{SessionID: created.SessionID, Results: results}, nil
}

// GradeSingle grades one document outside an assignment context. Grading
// failures are reported in the result rather than as errors.
func (s *GradingService) GradeSingle(ctx context.Context, input GradeDocumentInput) (*grading.DocumentResult, error) {
	if strings.TrimSpace(input.DocID) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "doc_id is required")
	}
	if input.RubricFilename == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "rubric_filename is required")
	}

	r, err := s.rubricStore.Load(ctx, input.RubricFilename)
	if err != nil {
		return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Rubric not found: %s", input.RubricFilename))
	}

	result := s.gradeOne(ctx, input.DocID, "", input.IsWordDoc, outlineFrom(r), strings.TrimSpace(input.CustomInstructions))
	return &result, nil
}

// gradeOne runs the pipeline for one document: convert Word uploads to a Docs
// copy, extract the text, grade it against the outline. Failures come back as
// failed results carrying the reason.
func (s *GradingService) gradeOne(ctx context.Context, docID, docName string, isWordDoc bool, outline grading.RubricOutline, instructions string) grading.DocumentResult {
	result := grading.DocumentResult{DocID: docID, DocName: docName}

	workID := docID
	if isWordDoc {
		copyName := docName
		if copyName == "" {
			copyName = docID
		}
		convertedID, err := s.workspace.ConvertToGoogleDoc(ctx, docID, copyName)
		if err != nil {
			s.logger.Warn("Word conversion failed", zap.String("doc_id", docID), zap.Error(err))
			s.recordGraded(ctx, telemetry.GradeOutcomeFailed)
			return grading.NewFailedResult(docID, docName, failureMessage(err))
		}
		result.ConvertedDocID = convertedID
		result.OriginalDocID = docID
		workID = convertedID
	}

	text, err := s.workspace.ExtractText(ctx, workID)
	if err != nil {
		s.logger.Warn("Text extraction failed", zap.String("doc_id", workID), zap.Error(err))
		s.recordGraded(ctx, telemetry.GradeOutcomeFailed)
		return s.failResult(result, err)
	}

	evaluation, err := s.grader.Grade(ctx, &grading.GradeRequest{
		DocumentText:       text,
		Rubric:             outline,
		CustomInstructions: instructions,
	})
	if err != nil {
		s.logger.Warn("Grading failed", zap.String("doc_id", workID), zap.Error(err))
		s.recordGraded(ctx, telemetry.GradeOutcomeFailed)
		return s.failResult(result, err)
	}

	result.Success = true
	result.Scores = evaluation.Scores
	result.TotalScore = evaluation.TotalScore
	result.Strengths = evaluation.Strengths
	result.KeyIssues = evaluation.KeyIssues
	result.Suggestions = evaluation.Suggestions
	result.CriterionComments = evaluation.CriterionComments
	result.Comments = evaluation.Comments
	result.Summary = evaluation.Summary

	s.recordGraded(ctx, telemetry.GradeOutcomeOK)

	return result
}

// failResult turns a partially built result into a failed one, keeping the
// conversion IDs so the review board can still locate the document
func (s *GradingService) failResult(result grading.DocumentResult, err error) grading.DocumentResult {
	failed := grading.NewFailedResult(result.DocID, result.DocName, failureMessage(err))
	failed.ConvertedDocID = result.ConvertedDocID
	failed.OriginalDocID = result.OriginalDocID
	return failed
}

// lookupDocName returns the stored display name for a document, when known
func (s *GradingService) lookupDocName(ctx context.Context, assignmentID uuid.UUID, docID string) string {
	doc, err := s.documentRepo.FindByAssignmentAndDocID(ctx, assignmentID, docID)
	if err != nil {
		return ""
	}
	return doc.DocName
}

func (s *GradingService) recordGraded(ctx context.Context, outcome telemetry.GradeOutcome) {
	if s.gradingMetrics == nil {
		return
	}
	s.gradingMetrics.RecordDocumentGraded(ctx, outcome)
}

// failureMessage maps pipeline errors to the message stored on a failed
// result. The empty-document sentinel keeps its canonical message.
func failureMessage(err error) string {
	if errors.Is(err, grading.ErrEmptyDocument) {
		return "Document appears to be empty or could not extract text"
	}
	return err.Error()
}
