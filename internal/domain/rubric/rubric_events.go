package rubric

import (
	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

const AggregateTypeRubric = "Rubric"

const EventTypeRubricUploaded = "RubricUploaded"

// RubricUploadedEvent is raised when a rubric template is stored
type RubricUploadedEvent struct {
	shared.BaseDomainEvent
	Filename      string          `json:"filename"`
	Name          string          `json:"name"`
	TotalPoints   decimal.Decimal `json:"total_points"`
	CriteriaCount int             `json:"criteria_count"`
	SourceFormat  string          `json:"source_format,omitempty"`
}

// NewRubricUploadedEvent creates a new RubricUploadedEvent. Rubrics are
// file-backed and carry no aggregate ID, so the event gets a fresh one.
func NewRubricUploadedEvent(r *Rubric, filename string) *RubricUploadedEvent {
	return &RubricUploadedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeRubricUploaded, AggregateTypeRubric, uuid.New()),
		Filename:        filename,
		Name:            r.Name,
		TotalPoints:     r.TotalPoints,
		CriteriaCount:   len(r.Criteria),
		SourceFormat:    r.OriginalExtension,
	}
}
