package grading

import (
	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeGradingSession     = "GradingSession"
	AggregateTypeAssignmentDocument = "AssignmentDocument"
)

// Grading event type constants
const (
	EventTypeGradingSessionCreated  = "GradingSessionCreated"
	EventTypeGradingSessionApproved = "GradingSessionApproved"
	EventTypeGradingSessionRejected = "GradingSessionRejected"
	EventTypeDocumentReviewed       = "DocumentReviewed"
	EventTypeFeedbackSyncFailed     = "FeedbackSyncFailed"
)

// GradingSessionCreatedEvent is raised when a grading run produces a session
type GradingSessionCreatedEvent struct {
	shared.BaseDomainEvent
	SessionID     uuid.UUID `json:"session_id"`
	AssignmentID  uuid.UUID `json:"assignment_id"`
	GradedByID    uuid.UUID `json:"graded_by_id"`
	DocumentCount int       `json:"document_count"`
	SuccessCount  int       `json:"success_count"`
}

// NewGradingSessionCreatedEvent creates a new GradingSessionCreatedEvent
func NewGradingSessionCreatedEvent(gs *GradingSession) *GradingSessionCreatedEvent {
	return &GradingSessionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGradingSessionCreated, AggregateTypeGradingSession, gs.ID),
		SessionID:       gs.ID,
		AssignmentID:    gs.AssignmentID,
		GradedByID:      gs.GradedByID,
		DocumentCount:   len(gs.DocIDs),
		SuccessCount:    len(gs.SuccessfulResults()),
	}
}

// GradingSessionApprovedEvent is raised when a reviewer approves a session
type GradingSessionApprovedEvent struct {
	shared.BaseDomainEvent
	SessionID    uuid.UUID  `json:"session_id"`
	AssignmentID uuid.UUID  `json:"assignment_id"`
	ReviewedByID *uuid.UUID `json:"reviewed_by_id"`
	ReviewNotes  string     `json:"review_notes,omitempty"`
}

// NewGradingSessionApprovedEvent creates a new GradingSessionApprovedEvent
func NewGradingSessionApprovedEvent(gs *GradingSession) *GradingSessionApprovedEvent {
	return &GradingSessionApprovedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGradingSessionApproved, AggregateTypeGradingSession, gs.ID),
		SessionID:       gs.ID,
		AssignmentID:    gs.AssignmentID,
		ReviewedByID:    gs.ReviewedByID,
		ReviewNotes:     gs.ReviewNotes,
	}
}

// GradingSessionRejectedEvent is raised when a reviewer rejects a session
type GradingSessionRejectedEvent struct {
	shared.BaseDomainEvent
	SessionID    uuid.UUID  `json:"session_id"`
	AssignmentID uuid.UUID  `json:"assignment_id"`
	ReviewedByID *uuid.UUID `json:"reviewed_by_id"`
	ReviewNotes  string     `json:"review_notes,omitempty"`
}

// NewGradingSessionRejectedEvent creates a new GradingSessionRejectedEvent
func NewGradingSessionRejectedEvent(gs *GradingSession) *GradingSessionRejectedEvent {
	return &GradingSessionRejectedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeGradingSessionRejected, AggregateTypeGradingSession, gs.ID),
		SessionID:       gs.ID,
		AssignmentID:    gs.AssignmentID,
		ReviewedByID:    gs.ReviewedByID,
		ReviewNotes:     gs.ReviewNotes,
	}
}

// DocumentReviewedEvent is raised when a document's feedback is approved
type DocumentReviewedEvent struct {
	shared.BaseDomainEvent
	DocumentID   uuid.UUID `json:"document_id"`
	AssignmentID uuid.UUID `json:"assignment_id"`
	DocID        string    `json:"doc_id"`
	DocName      string    `json:"doc_name"`
}

// NewDocumentReviewedEvent creates a new DocumentReviewedEvent
func NewDocumentReviewedEvent(d *AssignmentDocument) *DocumentReviewedEvent {
	return &DocumentReviewedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeDocumentReviewed, AggregateTypeAssignmentDocument, d.ID),
		DocumentID:      d.ID,
		AssignmentID:    d.AssignmentID,
		DocID:           d.DocID,
		DocName:         d.DocName,
	}
}

// FeedbackSyncFailedEvent is raised when writing approved feedback into a
// document fails. The approval itself proceeds; the failure is surfaced for
// retry.
type FeedbackSyncFailedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID `json:"session_id"`
	DocID     string    `json:"doc_id"`
	Reason    string    `json:"reason"`
}

// NewFeedbackSyncFailedEvent creates a new FeedbackSyncFailedEvent
func NewFeedbackSyncFailedEvent(sessionID uuid.UUID, docID, reason string) *FeedbackSyncFailedEvent {
	return &FeedbackSyncFailedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeFeedbackSyncFailed, AggregateTypeGradingSession, sessionID),
		SessionID:       sessionID,
		DocID:           docID,
		Reason:          reason,
	}
}
