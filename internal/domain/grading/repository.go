package grading

import (
	"context"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// GradingSessionRepository defines the interface for grading session persistence
type GradingSessionRepository interface {
	// FindByID finds a grading session by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*GradingSession, error)

	// FindByAssignment finds sessions for an assignment, newest first
	FindByAssignment(ctx context.Context, assignmentID uuid.UUID, filter shared.Filter) ([]GradingSession, error)

	// FindByStatus finds sessions with a specific status
	FindByStatus(ctx context.Context, status SessionStatus, filter shared.Filter) ([]GradingSession, error)

	// Save creates or updates a grading session
	Save(ctx context.Context, session *GradingSession) error

	// Delete deletes a grading session
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByAssignment deletes all sessions for an assignment
	DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error

	// Count counts sessions for an assignment
	Count(ctx context.Context, assignmentID uuid.UUID) (int64, error)

	// CountByStatus counts sessions with a specific status
	CountByStatus(ctx context.Context, status SessionStatus) (int64, error)
}

// AssignmentDocumentRepository defines the interface for document record persistence
type AssignmentDocumentRepository interface {
	// FindByID finds a document record by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*AssignmentDocument, error)

	// FindByAssignment finds all document records for an assignment
	FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]AssignmentDocument, error)

	// FindByAssignmentAndDocID finds a document record by its Drive file ID
	FindByAssignmentAndDocID(ctx context.Context, assignmentID uuid.UUID, docID string) (*AssignmentDocument, error)

	// FindByStatus finds document records with a specific status
	FindByStatus(ctx context.Context, assignmentID uuid.UUID, status DocumentStatus) ([]AssignmentDocument, error)

	// Save creates or updates a document record
	Save(ctx context.Context, doc *AssignmentDocument) error

	// SaveAll creates or updates multiple document records
	SaveAll(ctx context.Context, docs []*AssignmentDocument) error

	// Delete deletes a document record
	Delete(ctx context.Context, id uuid.UUID) error

	// DeleteByAssignment deletes all document records for an assignment
	DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error

	// CountByAssignment counts document records for an assignment
	CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int64, error)

	// CountByStatus counts document records by status for an assignment
	CountByStatus(ctx context.Context, assignmentID uuid.UUID, status DocumentStatus) (int64, error)
}
