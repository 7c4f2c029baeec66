package grading

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// DocumentStatus represents where a document sits in the grading pipeline
type DocumentStatus string

const (
	DocumentStatusUngraded      DocumentStatus = "ungraded"       // Not yet graded, or re-queued after a reject
	DocumentStatusPendingReview DocumentStatus = "pending_review" // Graded, feedback awaiting review
	DocumentStatusGraded        DocumentStatus = "graded"         // Legacy alias of pending_review kept for old rows
	DocumentStatusReviewed      DocumentStatus = "reviewed"       // Feedback approved and written back
)

// IsValid checks if the status is a valid DocumentStatus
func (s DocumentStatus) IsValid() bool {
	switch s {
	case DocumentStatusUngraded, DocumentStatusPendingReview, DocumentStatusGraded, DocumentStatusReviewed:
		return true
	}
	return false
}

// String returns the string representation of DocumentStatus
func (s DocumentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s DocumentStatus) CanTransitionTo(target DocumentStatus) bool {
	switch s {
	case DocumentStatusUngraded:
		return target == DocumentStatusPendingReview
	case DocumentStatusPendingReview, DocumentStatusGraded:
		return target == DocumentStatusReviewed || target == DocumentStatusUngraded
	case DocumentStatusReviewed:
		return target == DocumentStatusUngraded
	}
	return false
}

// AssignmentDocument tracks the grading status of one Drive document within
// an assignment. Rows are upserted during Drive sync and flipped through the
// pipeline by grading runs and review decisions.
type AssignmentDocument struct {
	shared.BaseAggregateRoot
	AssignmentID uuid.UUID
	DocID        string
	DocName      string
	Status       DocumentStatus
	GradedAt     *time.Time
	ReviewedAt   *time.Time
}

// NewAssignmentDocument creates an ungraded document record
func NewAssignmentDocument(assignmentID uuid.UUID, docID, docName string) (*AssignmentDocument, error) {
	if assignmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ASSIGNMENT", "Assignment ID cannot be empty")
	}
	docID = strings.TrimSpace(docID)
	if docID == "" {
		return nil, shared.NewDomainError("INVALID_DOCUMENT", "Document ID cannot be empty")
	}

	return &AssignmentDocument{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AssignmentID:      assignmentID,
		DocID:             docID,
		DocName:           strings.TrimSpace(docName),
		Status:            DocumentStatusUngraded,
	}, nil
}

// MarkPendingReview records that a grading run produced feedback for this
// document and stamps GradedAt
func (d *AssignmentDocument) MarkPendingReview() error {
	if !d.Status.CanTransitionTo(DocumentStatusPendingReview) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot grade document in %s status", d.Status))
	}

	now := time.Now()
	d.Status = DocumentStatusPendingReview
	d.GradedAt = &now
	d.touch(now)

	return nil
}

// MarkReviewed records that the document's feedback was approved
func (d *AssignmentDocument) MarkReviewed() error {
	if !d.Status.CanTransitionTo(DocumentStatusReviewed) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot review document in %s status", d.Status))
	}

	now := time.Now()
	d.Status = DocumentStatusReviewed
	d.ReviewedAt = &now
	d.touch(now)

	d.AddDomainEvent(NewDocumentReviewedEvent(d))

	return nil
}

// ResetToUngraded returns the document to the grading queue, clearing its
// grading and review stamps. Resetting an ungraded document is a no-op.
func (d *AssignmentDocument) ResetToUngraded() error {
	if d.Status == DocumentStatusUngraded {
		return nil
	}
	if !d.Status.CanTransitionTo(DocumentStatusUngraded) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot re-queue document in %s status", d.Status))
	}

	d.Status = DocumentStatusUngraded
	d.GradedAt = nil
	d.ReviewedAt = nil
	d.touch(time.Now())

	return nil
}

// Rename updates the display name picked up from Drive
func (d *AssignmentDocument) Rename(docName string) {
	docName = strings.TrimSpace(docName)
	if docName == "" || docName == d.DocName {
		return
	}
	d.DocName = docName
	d.touch(time.Now())
}

// IsReviewed reports whether the feedback has been approved
func (d *AssignmentDocument) IsReviewed() bool {
	return d.Status == DocumentStatusReviewed
}

// IsPendingReview reports whether feedback awaits review, treating the legacy
// graded status as pending
func (d *AssignmentDocument) IsPendingReview() bool {
	return d.Status == DocumentStatusPendingReview || d.Status == DocumentStatusGraded
}

func (d *AssignmentDocument) touch(now time.Time) {
	d.UpdatedAt = now
	d.IncrementVersion()
}
