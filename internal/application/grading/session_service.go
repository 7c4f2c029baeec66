package grading

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	identityapp "github.com/gradeflow/backend/internal/application/identity"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/gradeflow/backend/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// feedbackSyncTTL bounds how long a synced document blocks duplicate feedback
// writes. After it expires a re-approval writes again.
const feedbackSyncTTL = 7 * 24 * time.Hour

// SessionService manages the review lifecycle of grading sessions: storing
// runs for review, approving or rejecting them whole or per document, and
// writing approved feedback back into the documents.
type SessionService struct {
	sessionRepo    grading.GradingSessionRepository
	documentRepo   grading.AssignmentDocumentRepository
	assignmentRepo course.AssignmentRepository
	sectionRepo    course.SectionRepository
	rubricStore    rubric.RubricStore
	workspace      grading.DocumentWorkspace
	users          *identityapp.UserService
	logger         *zap.Logger

	idempotency    shared.IdempotencyStore
	eventPublisher shared.EventPublisher
	gradingMetrics *telemetry.GradingMetrics
}

// NewSessionService creates a new session service
func NewSessionService(
	sessionRepo grading.GradingSessionRepository,
	documentRepo grading.AssignmentDocumentRepository,
	assignmentRepo course.AssignmentRepository,
	sectionRepo course.SectionRepository,
	rubricStore rubric.RubricStore,
	workspace grading.DocumentWorkspace,
	users *identityapp.UserService,
	logger *zap.Logger,
) *SessionService {
	return &SessionService{
		sessionRepo:    sessionRepo,
		documentRepo:   documentRepo,
		assignmentRepo: assignmentRepo,
		sectionRepo:    sectionRepo,
		rubricStore:    rubricStore,
		workspace:      workspace,
		users:          users,
		logger:         logger,
	}
}

// SetIdempotencyStore wires the duplicate-write guard for feedback syncs
func (s *SessionService) SetIdempotencyStore(store shared.IdempotencyStore) {
	s.idempotency = store
}

// SetEventPublisher sets the event publisher for domain events
func (s *SessionService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetGradingMetrics sets the business metrics recorder
func (s *SessionService) SetGradingMetrics(gm *telemetry.GradingMetrics) {
	s.gradingMetrics = gm
}

// Create stores a completed grading run as a session awaiting review and
// flips its documents to pending review
func (s *SessionService) Create(ctx context.Context, input CreateSessionInput) (*CreateSessionResult, error) {
	if _, err := s.findAssignment(ctx, input.AssignmentID); err != nil {
		return nil, err
	}

	grader, err := s.users.ResolveGrader(ctx, input.UserEmail, input.UserName, input.UserRole)
	if err != nil {
		return nil, err
	}

	session, err := grading.NewGradingSession(input.AssignmentID, grader.ID, input.DocIDs, input.Results)
	if err != nil {
		return nil, err
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		s.logger.Error("Failed to save grading session",
			zap.String("assignment_id", input.AssignmentID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save grading session")
	}

	s.markDocumentsPending(ctx, input.AssignmentID, input.DocIDs)

	s.publishSessionEvents(ctx, session)
	s.recordSessionCreated(ctx, input.AssignmentID)

	s.logger.Info("Grading session stored for review",
		zap.String("session_id", session.ID.String()),
		zap.String("assignment_id", input.AssignmentID.String()),
		zap.Int("documents", len(input.DocIDs)))

	return &CreateSessionResult{
		SessionID: session.ID,
		Message:   "Grading session saved successfully",
	}, nil
}

// Get loads a session with everything a reviewer needs: the results, the
// rubric they were graded against, and who graded and reviewed them
func (s *SessionService) Get(ctx context.Context, id uuid.UUID) (*SessionDetail, error) {
	session, err := s.findSession(ctx, id)
	if err != nil {
		return nil, err
	}

	detail := &SessionDetail{
		ID:           session.ID,
		AssignmentID: session.AssignmentID,
		GradedBy:     s.userRef(ctx, session.GradedByID),
		DocIDs:       session.DocIDs,
		Results:      session.Results,
		Status:       session.Status.String(),
		ReviewedAt:   session.ReviewedAt,
		ReviewNotes:  session.ReviewNotes,
		CreatedAt:    session.CreatedAt,
	}

	if session.ReviewedByID != nil {
		ref := s.userRef(ctx, *session.ReviewedByID)
		detail.ReviewedBy = &ref
	}

	// Assignment and rubric are display context only; a session outliving
	// either still renders.
	assignment, err := s.assignmentRepo.FindByID(ctx, session.AssignmentID)
	if err == nil {
		detail.AssignmentName = assignment.Name
		if assignment.HasRubric() {
			r, loadErr := s.rubricStore.Load(ctx, assignment.RubricFilename)
			if loadErr != nil {
				s.logger.Warn("Could not load rubric for session detail",
					zap.String("rubric", assignment.RubricFilename),
					zap.Error(loadErr))
			} else {
				detail.Rubric = r
			}
		}
	}

	return detail, nil
}

// Approve releases a pending session: reviewer edits replace the stored
// results, every successful result is synced into its document, and the
// documents flip to reviewed. Per-document sync failures are reported in the
// sync results; they do not block the approval.
func (s *SessionService) Approve(ctx context.Context, input ReviewSessionInput) (*ApproveSessionResult, error) {
	session, err := s.findSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPending() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Session is not pending review (current status: %s)", session.Status))
	}

	reviewer, err := s.users.ResolveReviewer(ctx, input.UserEmail, input.UserName, input.UserRole)
	if err != nil {
		return nil, err
	}

	assignment, err := s.findAssignment(ctx, session.AssignmentID)
	if err != nil {
		return nil, err
	}
	outline, err := s.loadOutline(ctx, assignment.RubricFilename)
	if err != nil {
		return nil, err
	}

	if err := session.Approve(reviewer.ID, strings.TrimSpace(input.ReviewNotes), input.Results); err != nil {
		return nil, err
	}

	syncResults := make([]grading.FeedbackSyncResult, 0, len(session.Results))
	for i := range session.Results {
		result := &session.Results[i]

		if !result.Success {
			errMsg := result.Error
			if errMsg == "" {
				errMsg = "Grading failed"
			}
			syncResults = append(syncResults, grading.FeedbackSyncResult{DocID: result.DocID, Error: errMsg})
			continue
		}

		target := result.TargetDocID()
		if target == "" {
			syncResults = append(syncResults, grading.FeedbackSyncResult{DocID: result.DocID, Error: "No document ID found"})
			continue
		}

		syncResults = append(syncResults, s.syncFeedback(ctx, session, result, outline, target))
		s.markDocumentReviewed(ctx, session.AssignmentID, target)
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		s.logger.Error("Failed to save approved session",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save grading session")
	}

	s.publishSessionEvents(ctx, session)
	s.recordSessionReviewed(ctx, session.AssignmentID, telemetry.ReviewDecisionApproved)

	s.logger.Info("Grading session approved",
		zap.String("session_id", session.ID.String()),
		zap.String("reviewer", reviewer.Email),
		zap.Int("documents", len(syncResults)))

	return &ApproveSessionResult{
		SessionID:   session.ID,
		SyncResults: syncResults,
		Message:     "Grading session approved and feedback synced to Google Docs",
	}, nil
}

// Reject discards a pending session and returns its documents to the grading
// queue
func (s *SessionService) Reject(ctx context.Context, input ReviewSessionInput) (*RejectSessionResult, error) {
	session, err := s.findSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}
	if !session.IsPending() {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Session is not pending review (current status: %s)", session.Status))
	}

	reviewer, err := s.users.ResolveReviewer(ctx, input.UserEmail, input.UserName, input.UserRole)
	if err != nil {
		return nil, err
	}

	if err := session.Reject(reviewer.ID, strings.TrimSpace(input.ReviewNotes)); err != nil {
		return nil, err
	}

	for _, docID := range session.DocIDs {
		if err := s.requeueDocument(ctx, session.AssignmentID, docID); err != nil {
			s.logger.Warn("Failed to re-queue document",
				zap.String("doc_id", docID),
				zap.Error(err))
		}
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		s.logger.Error("Failed to save rejected session",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save grading session")
	}

	s.publishSessionEvents(ctx, session)
	s.recordSessionReviewed(ctx, session.AssignmentID, telemetry.ReviewDecisionRejected)

	s.logger.Info("Grading session rejected",
		zap.String("session_id", session.ID.String()),
		zap.String("reviewer", reviewer.Email))

	return &RejectSessionResult{SessionID: session.ID, Message: "Grading session rejected"}, nil
}

// ApproveDocument approves a single result within a session, syncing its
// feedback immediately. When every document of the session is reviewed the
// session itself flips to approved. Unlike a whole-session approval this also
// works on sessions already decided, so a document can be re-synced after an
// edit.
func (s *SessionService) ApproveDocument(ctx context.Context, input DocumentReviewInput) (*DocumentApprovalResult, error) {
	session, err := s.findSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	if input.DocIndex == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "doc_index is required")
	}
	idx := *input.DocIndex
	if idx < 0 || idx >= len(session.Results) || idx >= len(session.DocIDs) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid doc_index")
	}

	result := session.Results[idx]
	if input.Result != nil {
		result = *input.Result
	}
	if !result.Success {
		return nil, shared.NewDomainError("INVALID_INPUT", "Document grading failed, cannot approve")
	}

	reviewer, err := s.users.ResolveReviewer(ctx, input.UserEmail, input.UserName, input.UserRole)
	if err != nil {
		return nil, err
	}

	assignment, err := s.findAssignment(ctx, session.AssignmentID)
	if err != nil {
		return nil, err
	}
	outline, err := s.loadOutline(ctx, assignment.RubricFilename)
	if err != nil {
		return nil, err
	}

	target := result.TargetDocID()
	if target == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "No document ID found in result")
	}

	if err := session.OverrideResult(idx, result); err != nil {
		return nil, err
	}

	syncResult := s.syncFeedback(ctx, session, &session.Results[idx], outline, target)
	if !syncResult.Success {
		return nil, shared.NewDomainError("EXTERNAL_SERVICE",
			fmt.Sprintf("Failed to sync to Google Docs: %s", syncResult.Error))
	}

	s.markDocumentReviewed(ctx, session.AssignmentID, target)

	if session.IsPending() && s.allDocumentsReviewed(ctx, session) {
		if err := session.Approve(reviewer.ID, session.ReviewNotes, nil); err != nil {
			s.logger.Warn("Could not close fully reviewed session",
				zap.String("session_id", session.ID.String()),
				zap.Error(err))
		} else {
			s.recordSessionReviewed(ctx, session.AssignmentID, telemetry.ReviewDecisionApproved)
		}
	}

	if err := s.sessionRepo.Save(ctx, session); err != nil {
		s.logger.Error("Failed to save session",
			zap.String("session_id", session.ID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save grading session")
	}

	s.publishSessionEvents(ctx, session)

	return &DocumentApprovalResult{
		SessionID:  session.ID,
		DocIndex:   idx,
		SyncResult: &syncResult,
		Message:    "Document approved and feedback synced to Google Docs",
	}, nil
}

// RejectDocument returns a single document of a session to the grading queue.
// The session and its stored results are left untouched.
func (s *SessionService) RejectDocument(ctx context.Context, input DocumentReviewInput) (*DocumentRejectionResult, error) {
	session, err := s.findSession(ctx, input.SessionID)
	if err != nil {
		return nil, err
	}

	if input.DocIndex == nil {
		return nil, shared.NewDomainError("INVALID_INPUT", "doc_index is required")
	}
	idx := *input.DocIndex
	if idx < 0 || idx >= len(session.DocIDs) {
		return nil, shared.NewDomainError("INVALID_INPUT", "Invalid doc_index")
	}

	if _, err := s.users.ResolveReviewer(ctx, input.UserEmail, input.UserName, input.UserRole); err != nil {
		return nil, err
	}

	if err := s.requeueDocument(ctx, session.AssignmentID, session.DocIDs[idx]); err != nil {
		s.logger.Error("Failed to re-queue document",
			zap.String("session_id", session.ID.String()),
			zap.String("doc_id", session.DocIDs[idx]),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to update document")
	}

	s.logger.Info("Document rejected",
		zap.String("session_id", session.ID.String()),
		zap.Int("doc_index", idx))

	return &DocumentRejectionResult{SessionID: session.ID, DocIndex: idx, Message: "Document rejected"}, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (s *SessionService) findSession(ctx context.Context, id uuid.UUID) (*grading.GradingSession, error) {
	session, err := s.sessionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Grading session not found")
		}
		s.logger.Error("Failed to load grading session", zap.String("session_id", id.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load grading session")
	}
	return session, nil
}

func (s *SessionService) findAssignment(ctx context.Context, id uuid.UUID) (*course.Assignment, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		s.logger.Error("Failed to load assignment", zap.String("assignment_id", id.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load assignment")
	}
	return assignment, nil
}

func (s *SessionService) loadOutline(ctx context.Context, filename string) (grading.RubricOutline, error) {
	r, err := s.rubricStore.Load(ctx, filename)
	if err != nil {
		return grading.RubricOutline{}, shared.NewDomainError("NOT_FOUND",
			fmt.Sprintf("Rubric not found: %s", filename))
	}
	return outlineFrom(r), nil
}

func (s *SessionService) userRef(ctx context.Context, id uuid.UUID) UserRef {
	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		// A vanished user still gets attributed by ID.
		return UserRef{ID: id}
	}
	return UserRef{ID: user.ID, Name: user.DisplayName, Email: user.Email}
}

// markDocumentsPending flips the session's documents to pending review,
// creating records for documents the Drive sync has not seen yet. Failures
// are logged rather than propagated: the stored session is the source of
// truth and the folder listing recreates missing records.
func (s *SessionService) markDocumentsPending(ctx context.Context, assignmentID uuid.UUID, docIDs []string) {
	for _, docID := range docIDs {
		doc, err := s.documentRepo.FindByAssignmentAndDocID(ctx, assignmentID, docID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			doc, err = grading.NewAssignmentDocument(assignmentID, docID, fmt.Sprintf("Document %s", docID))
			if err != nil {
				s.logger.Warn("Skipping document record", zap.String("doc_id", docID), zap.Error(err))
				continue
			}
		case err != nil:
			s.logger.Warn("Failed to load document record", zap.String("doc_id", docID), zap.Error(err))
			continue
		}

		// Re-grading restarts the pipeline from wherever the document was.
		if err := doc.ResetToUngraded(); err != nil {
			s.logger.Warn("Failed to re-queue document", zap.String("doc_id", docID), zap.Error(err))
			continue
		}
		if err := doc.MarkPendingReview(); err != nil {
			s.logger.Warn("Failed to mark document pending review", zap.String("doc_id", docID), zap.Error(err))
			continue
		}
		if err := s.documentRepo.Save(ctx, doc); err != nil {
			s.logger.Warn("Failed to save document record", zap.String("doc_id", docID), zap.Error(err))
		}
	}
}

// syncFeedback writes one result into its document. The idempotency store
// keeps a retried or re-approved session from writing the same feedback page
// twice; a failed sync is not marked and stays retryable.
func (s *SessionService) syncFeedback(ctx context.Context, session *grading.GradingSession, result *grading.DocumentResult, outline grading.RubricOutline, target string) grading.FeedbackSyncResult {
	key := fmt.Sprintf("feedback:%s:%s", session.ID, target)

	if s.idempotency != nil {
		done, err := s.idempotency.IsProcessed(ctx, key)
		if err != nil {
			s.logger.Warn("Idempotency check failed, syncing anyway", zap.String("key", key), zap.Error(err))
		} else if done {
			return grading.FeedbackSyncResult{DocID: target, Success: true, Skipped: true}
		}
	}

	res, err := s.workspace.SyncFeedback(ctx, &grading.FeedbackSyncRequest{
		DocID:  target,
		Result: result,
		Rubric: outline,
	})
	if err != nil {
		s.logger.Error("Feedback sync failed",
			zap.String("session_id", session.ID.String()),
			zap.String("doc_id", target),
			zap.Error(err))
		s.recordSyncFailure(ctx, session.AssignmentID)
		if s.eventPublisher != nil {
			_ = s.eventPublisher.Publish(ctx, grading.NewFeedbackSyncFailedEvent(session.ID, target, err.Error()))
		}
		return grading.FeedbackSyncResult{DocID: target, Error: err.Error()}
	}

	if !res.Success {
		s.recordSyncFailure(ctx, session.AssignmentID)
		if s.eventPublisher != nil {
			_ = s.eventPublisher.Publish(ctx, grading.NewFeedbackSyncFailedEvent(session.ID, target, res.Error))
		}
	} else if s.idempotency != nil {
		if _, err := s.idempotency.MarkProcessed(ctx, key, feedbackSyncTTL); err != nil {
			s.logger.Warn("Failed to record feedback sync", zap.String("key", key), zap.Error(err))
		}
	}

	return *res
}

// markDocumentReviewed flips a document to reviewed, creating the record when
// the sync targeted a converted copy the folder listing never saw. Failures
// are logged; the approval stands regardless.
func (s *SessionService) markDocumentReviewed(ctx context.Context, assignmentID uuid.UUID, docID string) {
	doc, err := s.documentRepo.FindByAssignmentAndDocID(ctx, assignmentID, docID)
	switch {
	case errors.Is(err, shared.ErrNotFound):
		doc, err = grading.NewAssignmentDocument(assignmentID, docID, fmt.Sprintf("Document %s", docID))
		if err != nil {
			s.logger.Warn("Skipping document record", zap.String("doc_id", docID), zap.Error(err))
			return
		}
	case err != nil:
		s.logger.Warn("Failed to load document record", zap.String("doc_id", docID), zap.Error(err))
		return
	}

	if err := advanceToReviewed(doc); err != nil {
		s.logger.Warn("Failed to mark document reviewed", zap.String("doc_id", docID), zap.Error(err))
		return
	}
	if err := s.documentRepo.Save(ctx, doc); err != nil {
		s.logger.Warn("Failed to save document record", zap.String("doc_id", docID), zap.Error(err))
		return
	}

	s.publishDocumentEvents(ctx, doc)
}

// advanceToReviewed walks a document to reviewed from whatever status it is
// in, passing through pending review when needed
func advanceToReviewed(doc *grading.AssignmentDocument) error {
	if doc.IsReviewed() {
		return nil
	}
	if !doc.IsPendingReview() {
		if err := doc.MarkPendingReview(); err != nil {
			return err
		}
	}
	return doc.MarkReviewed()
}

// requeueDocument returns one document to the grading queue. Missing records
// are skipped.
func (s *SessionService) requeueDocument(ctx context.Context, assignmentID uuid.UUID, docID string) error {
	doc, err := s.documentRepo.FindByAssignmentAndDocID(ctx, assignmentID, docID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if err := doc.ResetToUngraded(); err != nil {
		return err
	}
	return s.documentRepo.Save(ctx, doc)
}

// allDocumentsReviewed reports whether every document of the session has a
// reviewed record. Word uploads are checked under their converted copy, the
// document the feedback actually lands in.
func (s *SessionService) allDocumentsReviewed(ctx context.Context, session *grading.GradingSession) bool {
	for _, docID := range session.DocIDs {
		recordID := docID
		if result, _ := session.ResultForDoc(docID); result != nil {
			recordID = result.TargetDocID()
		}
		doc, err := s.documentRepo.FindByAssignmentAndDocID(ctx, session.AssignmentID, recordID)
		if err != nil || !doc.IsReviewed() {
			return false
		}
	}
	return true
}

// publishSessionEvents publishes all domain events from the session
func (s *SessionService) publishSessionEvents(ctx context.Context, session *grading.GradingSession) {
	if s.eventPublisher == nil {
		return
	}
	events := session.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	// Publish events (errors are logged by the event bus, not propagated)
	_ = s.eventPublisher.Publish(ctx, events...)
	session.ClearDomainEvents()
}

// publishDocumentEvents publishes all domain events from the document record
func (s *SessionService) publishDocumentEvents(ctx context.Context, doc *grading.AssignmentDocument) {
	if s.eventPublisher == nil {
		return
	}
	events := doc.GetDomainEvents()
	if len(events) == 0 {
		return
	}
	_ = s.eventPublisher.Publish(ctx, events...)
	doc.ClearDomainEvents()
}

// sectionNumberFor resolves the metric label for an assignment's section.
// Label resolution never fails a business operation.
func (s *SessionService) sectionNumberFor(ctx context.Context, assignmentID uuid.UUID) string {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		return ""
	}
	section, err := s.sectionRepo.FindByID(ctx, assignment.SectionID)
	if err != nil {
		return ""
	}
	return section.SectionNumber
}

func (s *SessionService) recordSessionCreated(ctx context.Context, assignmentID uuid.UUID) {
	if s.gradingMetrics == nil {
		return
	}
	s.gradingMetrics.RecordSessionCreated(ctx, s.sectionNumberFor(ctx, assignmentID))
}

func (s *SessionService) recordSessionReviewed(ctx context.Context, assignmentID uuid.UUID, decision telemetry.ReviewDecision) {
	if s.gradingMetrics == nil {
		return
	}
	s.gradingMetrics.RecordSessionReviewed(ctx, s.sectionNumberFor(ctx, assignmentID), decision)
}

func (s *SessionService) recordSyncFailure(ctx context.Context, assignmentID uuid.UUID) {
	if s.gradingMetrics == nil {
		return
	}
	s.gradingMetrics.RecordFeedbackSyncFailure(ctx, s.sectionNumberFor(ctx, assignmentID))
}
