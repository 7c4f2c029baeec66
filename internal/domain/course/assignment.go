package course

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// AssignmentStatus represents the lifecycle state of an assignment
type AssignmentStatus string

const (
	AssignmentStatusDraft     AssignmentStatus = "draft"     // Being configured, not yet open for grading
	AssignmentStatusActive    AssignmentStatus = "active"    // Open for grading runs
	AssignmentStatusCompleted AssignmentStatus = "completed" // Grading finished, read-only
)

// IsValid checks if the status is a valid AssignmentStatus
func (s AssignmentStatus) IsValid() bool {
	switch s {
	case AssignmentStatusDraft, AssignmentStatusActive, AssignmentStatusCompleted:
		return true
	}
	return false
}

// String returns the string representation of AssignmentStatus
func (s AssignmentStatus) String() string {
	return string(s)
}

// CanTransitionTo checks if the status can transition to the target status
func (s AssignmentStatus) CanTransitionTo(target AssignmentStatus) bool {
	switch s {
	case AssignmentStatusDraft:
		return target == AssignmentStatusActive || target == AssignmentStatusCompleted
	case AssignmentStatusActive:
		return target == AssignmentStatusCompleted
	case AssignmentStatusCompleted:
		return false // Terminal state
	}
	return false
}

// Assignment represents a graded piece of coursework. It binds a section to a
// rubric and optionally to a Google Drive folder holding student documents.
type Assignment struct {
	shared.BaseAggregateRoot
	SectionID          uuid.UUID
	Name               string
	Description        string
	RubricFilename     string
	CustomInstructions string
	DriveFolderID      string
	Status             AssignmentStatus
	CreatedByID        uuid.UUID
	ActivatedAt        *time.Time
	CompletedAt        *time.Time
}

// NewAssignment creates a new assignment in draft status
func NewAssignment(sectionID uuid.UUID, name string, createdByID uuid.UUID) (*Assignment, error) {
	if sectionID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_SECTION", "Section ID cannot be empty")
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, shared.NewDomainError("INVALID_NAME", "Assignment name cannot be empty")
	}
	if len(name) > 300 {
		return nil, shared.NewDomainError("INVALID_NAME", "Assignment name cannot exceed 300 characters")
	}
	if createdByID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_CREATOR", "Creator ID cannot be empty")
	}

	a := &Assignment{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SectionID:         sectionID,
		Name:              name,
		Status:            AssignmentStatusDraft,
		CreatedByID:       createdByID,
	}

	a.AddDomainEvent(NewAssignmentCreatedEvent(a))

	return a, nil
}

// Rename changes the assignment name
func (a *Assignment) Rename(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Assignment name cannot be empty")
	}

	a.Name = name
	a.touch()

	return nil
}

// SetDescription sets the free-form description shown to graders
func (a *Assignment) SetDescription(description string) {
	a.Description = strings.TrimSpace(description)
	a.touch()
}

// SetCustomInstructions sets extra instructions appended to the grading prompt
func (a *Assignment) SetCustomInstructions(instructions string) {
	a.CustomInstructions = strings.TrimSpace(instructions)
	a.touch()
}

// AttachRubric binds a stored rubric (by filename) to this assignment
func (a *Assignment) AttachRubric(filename string) error {
	filename = strings.TrimSpace(filename)
	if filename != "" && !strings.HasSuffix(filename, ".json") {
		return shared.NewDomainError("INVALID_RUBRIC", "Rubric filename must reference a stored .json rubric")
	}

	a.RubricFilename = filename
	a.touch()

	return nil
}

// AttachDriveFolder binds the Google Drive folder holding student documents
func (a *Assignment) AttachDriveFolder(folderID string) {
	a.DriveFolderID = strings.TrimSpace(folderID)
	a.touch()
}

// ChangeStatus drives the assignment lifecycle. Moving to active stamps
// ActivatedAt; moving to completed stamps CompletedAt. Setting the current
// status again is a no-op.
func (a *Assignment) ChangeStatus(target AssignmentStatus) error {
	if !target.IsValid() {
		return shared.NewDomainError("INVALID_STATUS", "Unknown assignment status")
	}
	if a.Status == target {
		return nil
	}
	if !a.Status.CanTransitionTo(target) {
		return shared.NewDomainError("INVALID_TRANSITION", fmt.Sprintf("Cannot transition from %s to %s", a.Status, target))
	}

	now := time.Now()
	previous := a.Status
	a.Status = target

	switch target {
	case AssignmentStatusActive:
		a.ActivatedAt = &now
	case AssignmentStatusCompleted:
		a.CompletedAt = &now
	}

	a.UpdatedAt = now
	a.IncrementVersion()

	a.AddDomainEvent(NewAssignmentStatusChangedEvent(a, previous))

	return nil
}

// IsGradable reports whether grading runs may target this assignment
func (a *Assignment) IsGradable() bool {
	return a.Status == AssignmentStatusActive || a.Status == AssignmentStatusDraft
}

// HasDriveFolder reports whether a document folder is connected
func (a *Assignment) HasDriveFolder() bool {
	return a.DriveFolderID != ""
}

// HasRubric reports whether a rubric is attached
func (a *Assignment) HasRubric() bool {
	return a.RubricFilename != ""
}

func (a *Assignment) touch() {
	a.UpdatedAt = time.Now()
	a.IncrementVersion()
}
