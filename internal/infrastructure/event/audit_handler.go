package event

import (
	"context"

	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/identity"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// AuditLogHandler writes grading lifecycle events to the structured log.
// It is the default subscriber on the in-process event bus: every session
// created, reviewed, or failed to sync leaves an audit trail entry.
type AuditLogHandler struct {
	logger *zap.Logger
}

// NewAuditLogHandler creates a new audit log handler
func NewAuditLogHandler(logger *zap.Logger) *AuditLogHandler {
	return &AuditLogHandler{logger: logger.Named("audit")}
}

// EventTypes returns the event types this handler subscribes to
func (h *AuditLogHandler) EventTypes() []string {
	return []string{
		grading.EventTypeGradingSessionCreated,
		grading.EventTypeGradingSessionApproved,
		grading.EventTypeGradingSessionRejected,
		grading.EventTypeDocumentReviewed,
		grading.EventTypeFeedbackSyncFailed,
		rubric.EventTypeRubricUploaded,
		course.EventTypeSectionCreated,
		course.EventTypeAssignmentCreated,
		course.EventTypeAssignmentStatusChanged,
		identity.EventTypeUserCreated,
		identity.EventTypeUserRoleChanged,
	}
}

// Handle records the event. Returns nil always: an audit entry must never
// fail the business operation that produced it.
func (h *AuditLogHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	fields := []zap.Field{
		zap.String("event_id", event.EventID().String()),
		zap.String("aggregate_type", event.AggregateType()),
		zap.String("aggregate_id", event.AggregateID().String()),
		zap.Time("occurred_at", event.OccurredAt()),
	}

	switch e := event.(type) {
	case *grading.GradingSessionCreatedEvent:
		fields = append(fields,
			zap.String("assignment_id", e.AssignmentID.String()),
			zap.Int("documents", e.DocumentCount),
			zap.Int("succeeded", e.SuccessCount),
		)
	case *grading.GradingSessionApprovedEvent:
		fields = append(fields, zap.String("assignment_id", e.AssignmentID.String()))
		if e.ReviewedByID != nil {
			fields = append(fields, zap.String("reviewed_by", e.ReviewedByID.String()))
		}
	case *grading.GradingSessionRejectedEvent:
		fields = append(fields, zap.String("assignment_id", e.AssignmentID.String()))
		if e.ReviewedByID != nil {
			fields = append(fields, zap.String("reviewed_by", e.ReviewedByID.String()))
		}
	case *grading.DocumentReviewedEvent:
		fields = append(fields,
			zap.String("assignment_id", e.AssignmentID.String()),
			zap.String("doc_id", e.DocID),
			zap.String("doc_name", e.DocName),
		)
	case *grading.FeedbackSyncFailedEvent:
		fields = append(fields,
			zap.String("doc_id", e.DocID),
			zap.String("reason", e.Reason),
		)
		h.logger.Warn(event.EventType(), fields...)
		return nil
	}

	h.logger.Info(event.EventType(), fields...)
	return nil
}

var _ shared.EventHandler = (*AuditLogHandler)(nil)
