package course

import (
	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// Aggregate type constants
const (
	AggregateTypeSection    = "Section"
	AggregateTypeAssignment = "Assignment"
)

// Course event type constants
const (
	EventTypeSectionCreated          = "SectionCreated"
	EventTypeAssignmentCreated       = "AssignmentCreated"
	EventTypeAssignmentStatusChanged = "AssignmentStatusChanged"
)

// SectionCreatedEvent is raised when a section is created
type SectionCreatedEvent struct {
	shared.BaseDomainEvent
	SectionID     uuid.UUID `json:"section_id"`
	SectionNumber string    `json:"section_number"`
	CourseCode    string    `json:"course_code"`
}

// NewSectionCreatedEvent creates a new SectionCreatedEvent
func NewSectionCreatedEvent(s *Section) *SectionCreatedEvent {
	return &SectionCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSectionCreated, AggregateTypeSection, s.ID),
		SectionID:       s.ID,
		SectionNumber:   s.SectionNumber,
		CourseCode:      s.CourseCode,
	}
}

// AssignmentCreatedEvent is raised when an assignment is created
type AssignmentCreatedEvent struct {
	shared.BaseDomainEvent
	AssignmentID uuid.UUID `json:"assignment_id"`
	SectionID    uuid.UUID `json:"section_id"`
	Name         string    `json:"name"`
	CreatedByID  uuid.UUID `json:"created_by_id"`
}

// NewAssignmentCreatedEvent creates a new AssignmentCreatedEvent
func NewAssignmentCreatedEvent(a *Assignment) *AssignmentCreatedEvent {
	return &AssignmentCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssignmentCreated, AggregateTypeAssignment, a.ID),
		AssignmentID:    a.ID,
		SectionID:       a.SectionID,
		Name:            a.Name,
		CreatedByID:     a.CreatedByID,
	}
}

// AssignmentStatusChangedEvent is raised when an assignment moves through its lifecycle
type AssignmentStatusChangedEvent struct {
	shared.BaseDomainEvent
	AssignmentID   uuid.UUID        `json:"assignment_id"`
	SectionID      uuid.UUID        `json:"section_id"`
	PreviousStatus AssignmentStatus `json:"previous_status"`
	NewStatus      AssignmentStatus `json:"new_status"`
}

// NewAssignmentStatusChangedEvent creates a new AssignmentStatusChangedEvent
func NewAssignmentStatusChangedEvent(a *Assignment, previous AssignmentStatus) *AssignmentStatusChangedEvent {
	return &AssignmentStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeAssignmentStatusChanged, AggregateTypeAssignment, a.ID),
		AssignmentID:    a.ID,
		SectionID:       a.SectionID,
		PreviousStatus:  previous,
		NewStatus:       a.Status,
	}
}
