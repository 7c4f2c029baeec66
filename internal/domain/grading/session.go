package grading

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// SessionStatus represents the review state of a grading session
type SessionStatus string

const (
	SessionStatusPendingReview SessionStatus = "pending_review" // Awaiting human review
	SessionStatusApproved      SessionStatus = "approved"       // Feedback released to documents
	SessionStatusRejected      SessionStatus = "rejected"       // Discarded, documents re-queued
)

// IsValid checks if the status is a valid SessionStatus
func (s SessionStatus) IsValid() bool {
	switch s {
	case SessionStatusPendingReview, SessionStatusApproved, SessionStatusRejected:
		return true
	}
	return false
}

// String returns the string representation of SessionStatus
func (s SessionStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s SessionStatus) CanTransitionTo(target SessionStatus) bool {
	switch s {
	case SessionStatusPendingReview:
		return target == SessionStatusApproved || target == SessionStatusRejected
	case SessionStatusApproved, SessionStatusRejected:
		return false // Terminal states
	}
	return false
}

// GradingSession represents one AI grading run over a batch of documents.
// Every session starts pending review; a human either approves it (optionally
// with edited results), releasing the feedback, or rejects it, discarding the
// run and returning its documents to the queue.
type GradingSession struct {
	shared.BaseAggregateRoot
	AssignmentID uuid.UUID
	GradedByID   uuid.UUID
	DocIDs       []string
	Results      []DocumentResult
	Status       SessionStatus
	ReviewedByID *uuid.UUID
	ReviewedAt   *time.Time
	ReviewNotes  string
}

// NewGradingSession creates a session in pending review holding the results
// of one grading run
func NewGradingSession(assignmentID, gradedByID uuid.UUID, docIDs []string, results []DocumentResult) (*GradingSession, error) {
	if assignmentID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_ASSIGNMENT", "Assignment ID cannot be empty")
	}
	if gradedByID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_GRADER", "Grader ID cannot be empty")
	}
	if len(docIDs) == 0 {
		return nil, shared.NewDomainError("INVALID_DOCUMENTS", "At least one document is required")
	}
	if len(results) == 0 {
		return nil, shared.NewDomainError("INVALID_RESULTS", "At least one result is required")
	}

	gs := &GradingSession{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		AssignmentID:      assignmentID,
		GradedByID:        gradedByID,
		DocIDs:            docIDs,
		Results:           results,
		Status:            SessionStatusPendingReview,
	}

	gs.AddDomainEvent(NewGradingSessionCreatedEvent(gs))

	return gs, nil
}

// Approve releases the session. Edited results, when supplied, replace the
// stored ones before approval.
func (gs *GradingSession) Approve(reviewerID uuid.UUID, notes string, editedResults []DocumentResult) error {
	if reviewerID == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer ID cannot be empty")
	}
	if !gs.Status.CanTransitionTo(SessionStatusApproved) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot approve session in %s status", gs.Status))
	}

	if editedResults != nil {
		if err := gs.ReplaceResults(editedResults); err != nil {
			return err
		}
	}

	now := time.Now()
	gs.Status = SessionStatusApproved
	gs.ReviewedByID = &reviewerID
	gs.ReviewedAt = &now
	gs.ReviewNotes = notes
	gs.UpdatedAt = now
	gs.IncrementVersion()

	gs.AddDomainEvent(NewGradingSessionApprovedEvent(gs))

	return nil
}

// Reject discards the session
func (gs *GradingSession) Reject(reviewerID uuid.UUID, notes string) error {
	if reviewerID == uuid.Nil {
		return shared.NewDomainError("INVALID_REVIEWER", "Reviewer ID cannot be empty")
	}
	if !gs.Status.CanTransitionTo(SessionStatusRejected) {
		return shared.NewDomainError("INVALID_STATE", fmt.Sprintf("Cannot reject session in %s status", gs.Status))
	}

	now := time.Now()
	gs.Status = SessionStatusRejected
	gs.ReviewedByID = &reviewerID
	gs.ReviewedAt = &now
	gs.ReviewNotes = notes
	gs.UpdatedAt = now
	gs.IncrementVersion()

	gs.AddDomainEvent(NewGradingSessionRejectedEvent(gs))

	return nil
}

// ReplaceResults swaps the stored results for reviewer-edited ones. Only a
// pending session can be edited.
func (gs *GradingSession) ReplaceResults(results []DocumentResult) error {
	if gs.Status != SessionStatusPendingReview {
		return shared.NewDomainError("INVALID_STATE", "Only a pending session can be edited")
	}
	if len(results) == 0 {
		return shared.NewDomainError("INVALID_RESULTS", "Edited results cannot be empty")
	}

	gs.Results = results
	gs.UpdatedAt = time.Now()
	gs.IncrementVersion()

	return nil
}

// OverrideResult replaces a single result with a reviewer-edited one. Unlike
// ReplaceResults this works in any status: a per-document approval persists
// its edit even when the session as a whole has already been decided.
func (gs *GradingSession) OverrideResult(index int, result DocumentResult) error {
	if index < 0 || index >= len(gs.Results) {
		return shared.NewDomainError("INVALID_DOC_INDEX", fmt.Sprintf("Document index %d is out of range", index))
	}

	gs.Results[index] = result
	gs.UpdatedAt = time.Now()
	gs.IncrementVersion()

	return nil
}

// ResultAt returns the result at the given review index
func (gs *GradingSession) ResultAt(index int) (*DocumentResult, error) {
	if index < 0 || index >= len(gs.Results) {
		return nil, shared.NewDomainError("INVALID_DOC_INDEX", fmt.Sprintf("Document index %d is out of range", index))
	}
	return &gs.Results[index], nil
}

// ResultForDoc finds the result for a document ID, matching converted and
// original IDs as well. Returns the index alongside, or -1 when absent.
func (gs *GradingSession) ResultForDoc(docID string) (*DocumentResult, int) {
	for i := range gs.Results {
		if gs.Results[i].Matches(docID) {
			return &gs.Results[i], i
		}
	}
	return nil, -1
}

// SuccessfulResults returns the results whose grading succeeded
func (gs *GradingSession) SuccessfulResults() []DocumentResult {
	successful := make([]DocumentResult, 0, len(gs.Results))
	for _, r := range gs.Results {
		if r.Success {
			successful = append(successful, r)
		}
	}
	return successful
}

// IsPending reports whether the session still awaits review
func (gs *GradingSession) IsPending() bool {
	return gs.Status == SessionStatusPendingReview
}
