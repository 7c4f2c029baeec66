package grading

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// DocumentSyncService keeps an assignment's document records aligned with its
// Drive folder and serves the annotated listing the review board renders
type DocumentSyncService struct {
	documentRepo   grading.AssignmentDocumentRepository
	sessionRepo    grading.GradingSessionRepository
	assignmentRepo course.AssignmentRepository
	workspace      grading.DocumentWorkspace
	logger         *zap.Logger
}

// NewDocumentSyncService creates a new document sync service
func NewDocumentSyncService(
	documentRepo grading.AssignmentDocumentRepository,
	sessionRepo grading.GradingSessionRepository,
	assignmentRepo course.AssignmentRepository,
	workspace grading.DocumentWorkspace,
	logger *zap.Logger,
) *DocumentSyncService {
	return &DocumentSyncService{
		documentRepo:   documentRepo,
		sessionRepo:    sessionRepo,
		assignmentRepo: assignmentRepo,
		workspace:      workspace,
		logger:         logger,
	}
}

// ListForAssignment returns the assignment's documents annotated with the
// newest session claiming each. When the assignment has a Drive folder the
// records are first upserted from a folder listing; a failed listing degrades
// to the stored records.
func (s *DocumentSyncService) ListForAssignment(ctx context.Context, assignmentID uuid.UUID) (*DocumentListResult, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		s.logger.Error("Failed to load assignment", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load assignment")
	}

	driveSynced := false
	if assignment.HasDriveFolder() {
		driveSynced = s.syncFromDrive(ctx, assignment)
	}

	docs, err := s.documentRepo.FindByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("Failed to list documents", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list documents")
	}

	sessions, err := s.sessionRepo.FindByAssignment(ctx, assignmentID, shared.Filter{})
	if err != nil {
		s.logger.Error("Failed to list grading sessions", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list grading sessions")
	}

	claims := claimResults(sessions)
	items := make([]DocumentItem, len(docs))
	for i := range docs {
		items[i] = toDocumentItem(&docs[i], assignment, claims)
	}

	return &DocumentListResult{Documents: items, DriveSynced: driveSynced}, nil
}

// syncFromDrive upserts document records from the assignment's folder: unseen
// files get new ungraded records, renamed files refresh their stored name.
// Returns false when the folder listing itself failed.
func (s *DocumentSyncService) syncFromDrive(ctx context.Context, assignment *course.Assignment) bool {
	files, err := s.workspace.ListFolder(ctx, assignment.DriveFolderID)
	if err != nil {
		s.logger.Warn("Could not sync documents from Drive",
			zap.String("assignment_id", assignment.ID.String()),
			zap.String("folder_id", assignment.DriveFolderID),
			zap.Error(err))
		return false
	}

	for _, file := range files {
		existing, err := s.documentRepo.FindByAssignmentAndDocID(ctx, assignment.ID, file.ID)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			doc, newErr := grading.NewAssignmentDocument(assignment.ID, file.ID, file.Name)
			if newErr != nil {
				s.logger.Warn("Skipping Drive file", zap.String("file_id", file.ID), zap.Error(newErr))
				continue
			}
			if saveErr := s.documentRepo.Save(ctx, doc); saveErr != nil {
				s.logger.Warn("Failed to save document record", zap.String("doc_id", file.ID), zap.Error(saveErr))
			}
		case err != nil:
			s.logger.Warn("Failed to load document record", zap.String("doc_id", file.ID), zap.Error(err))
		case file.Name != "" && existing.DocName != file.Name:
			existing.Rename(file.Name)
			if saveErr := s.documentRepo.Save(ctx, existing); saveErr != nil {
				s.logger.Warn("Failed to save document record", zap.String("doc_id", file.ID), zap.Error(saveErr))
			}
		}
	}

	return true
}

// resultClaim links a document ID to the newest session that graded it
type resultClaim struct {
	sessionID uuid.UUID
	docIndex  int
	status    grading.SessionStatus
	result    *grading.DocumentResult
}

// claimResults maps each document ID to the newest session claiming it.
// Sessions arrive newest first, so the first claim wins. Converted Word
// uploads are claimed under both the original file ID and the converted
// copy's ID.
func claimResults(sessions []grading.GradingSession) map[string]resultClaim {
	claims := make(map[string]resultClaim)
	for si := range sessions {
		session := &sessions[si]
		for di, docID := range session.DocIDs {
			claim := resultClaim{sessionID: session.ID, docIndex: di, status: session.Status}
			if di < len(session.Results) {
				claim.result = &session.Results[di]
			}
			addClaim(claims, docID, claim)
			if claim.result != nil && claim.result.ConvertedDocID != "" {
				addClaim(claims, claim.result.ConvertedDocID, claim)
			}
		}
	}
	return claims
}

func addClaim(claims map[string]resultClaim, docID string, claim resultClaim) {
	if docID == "" {
		return
	}
	if _, ok := claims[docID]; ok {
		return
	}
	claims[docID] = claim
}

func toDocumentItem(doc *grading.AssignmentDocument, assignment *course.Assignment, claims map[string]resultClaim) DocumentItem {
	item := DocumentItem{
		ID:             doc.ID,
		DocID:          doc.DocID,
		DocName:        doc.DocName,
		Status:         doc.Status.String(),
		GradedAt:       doc.GradedAt,
		ReviewedAt:     doc.ReviewedAt,
		AssignmentID:   assignment.ID,
		AssignmentName: assignment.Name,
	}

	if claim, ok := claims[doc.DocID]; ok {
		sessionID := claim.sessionID
		docIndex := claim.docIndex
		status := claim.status.String()
		item.SessionID = &sessionID
		item.DocIndex = &docIndex
		item.SessionStatus = &status
		if claim.result != nil && claim.result.Success {
			total := claim.result.TotalScore
			item.TotalScore = &total
		}
	}

	return item
}
