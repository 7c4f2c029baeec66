package course

import (
	"time"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/course"
)

// CreateSectionRequest represents a request to create a new section
type CreateSectionRequest struct {
	SectionNumber string `json:"section_number" binding:"required,min=1,max=20"`
	CourseCode    string `json:"course_code" binding:"max=50"`
}

// SectionResponse represents a section in API responses
type SectionResponse struct {
	ID              uuid.UUID `json:"id"`
	SectionNumber   string    `json:"section_number"`
	CourseCode      string    `json:"course_code"`
	AssignmentCount int64     `json:"assignment_count"`
}

// CreateAssignmentRequest represents a request to create a new assignment.
// The user_* fields identify the operator; they default to the course admin
// when omitted.
type CreateAssignmentRequest struct {
	Name               string `json:"name" binding:"required,min=1,max=300"`
	Description        string `json:"description" binding:"max=5000"`
	RubricFilename     string `json:"rubric_filename" binding:"required"`
	CustomInstructions string `json:"custom_instructions" binding:"max=5000"`
	DriveFolderID      string `json:"drive_folder_id" binding:"required"`
	Status             string `json:"status" binding:"omitempty,oneof=draft active completed"`
	UserEmail          string `json:"user_email"`
	UserName           string `json:"user_name"`
	UserRole           string `json:"user_role" binding:"omitempty,oneof=professor ta"`
}

// UpdateAssignmentRequest represents a partial assignment update. Nil fields
// are left unchanged.
type UpdateAssignmentRequest struct {
	Name               *string `json:"name" binding:"omitempty,min=1,max=300"`
	Description        *string `json:"description" binding:"omitempty,max=5000"`
	RubricFilename     *string `json:"rubric_filename"`
	CustomInstructions *string `json:"custom_instructions" binding:"omitempty,max=5000"`
	DriveFolderID      *string `json:"drive_folder_id"`
	Status             *string `json:"status" binding:"omitempty,oneof=draft active completed"`
}

// AssignmentResponse represents full assignment details
type AssignmentResponse struct {
	ID                 uuid.UUID  `json:"id"`
	SectionID          uuid.UUID  `json:"section_id"`
	Name               string     `json:"name"`
	Description        string     `json:"description"`
	Status             string     `json:"status"`
	RubricFilename     string     `json:"rubric_filename"`
	CustomInstructions string     `json:"custom_instructions"`
	DriveFolderID      string     `json:"drive_folder_id"`
	CreatedAt          time.Time  `json:"created_at"`
	ActivatedAt        *time.Time `json:"activated_at"`
	CompletedAt        *time.Time `json:"completed_at"`
	CreatedBy          uuid.UUID  `json:"created_by"`
}

// AssignmentListResponse represents an assignment in list responses. It
// omits custom instructions, which can be large.
type AssignmentListResponse struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Status         string     `json:"status"`
	RubricFilename string     `json:"rubric_filename"`
	DriveFolderID  string     `json:"drive_folder_id"`
	CreatedAt      time.Time  `json:"created_at"`
	ActivatedAt    *time.Time `json:"activated_at"`
	CompletedAt    *time.Time `json:"completed_at"`
	CreatedBy      uuid.UUID  `json:"created_by"`
}

// AssignmentRef is the compact assignment shape returned by create and update
type AssignmentRef struct {
	ID     uuid.UUID `json:"id"`
	Name   string    `json:"name"`
	Status string    `json:"status"`
}

// UserRef identifies the user behind a grading or review action
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// HistoryEntry represents one grading session in an assignment's history
type HistoryEntry struct {
	ID         uuid.UUID  `json:"id"`
	GradedBy   *UserRef   `json:"graded_by"`
	DocIDs     []string   `json:"doc_ids"`
	Status     string     `json:"status"`
	ReviewedBy *UserRef   `json:"reviewed_by"`
	ReviewedAt *time.Time `json:"reviewed_at"`
	CreatedAt  time.Time  `json:"created_at"`
}

// ToSectionResponse converts a section to its API representation
func ToSectionResponse(s *course.Section, assignmentCount int64) SectionResponse {
	return SectionResponse{
		ID:              s.ID,
		SectionNumber:   s.SectionNumber,
		CourseCode:      s.CourseCode,
		AssignmentCount: assignmentCount,
	}
}

// ToAssignmentResponse converts an assignment to its full API representation
func ToAssignmentResponse(a *course.Assignment) *AssignmentResponse {
	return &AssignmentResponse{
		ID:                 a.ID,
		SectionID:          a.SectionID,
		Name:               a.Name,
		Description:        a.Description,
		Status:             a.Status.String(),
		RubricFilename:     a.RubricFilename,
		CustomInstructions: a.CustomInstructions,
		DriveFolderID:      a.DriveFolderID,
		CreatedAt:          a.CreatedAt,
		ActivatedAt:        a.ActivatedAt,
		CompletedAt:        a.CompletedAt,
		CreatedBy:          a.CreatedByID,
	}
}

// ToAssignmentListResponse converts an assignment to its list representation
func ToAssignmentListResponse(a *course.Assignment) AssignmentListResponse {
	return AssignmentListResponse{
		ID:             a.ID,
		Name:           a.Name,
		Description:    a.Description,
		Status:         a.Status.String(),
		RubricFilename: a.RubricFilename,
		DriveFolderID:  a.DriveFolderID,
		CreatedAt:      a.CreatedAt,
		ActivatedAt:    a.ActivatedAt,
		CompletedAt:    a.CompletedAt,
		CreatedBy:      a.CreatedByID,
	}
}

// ToAssignmentRef converts an assignment to its compact representation
func ToAssignmentRef(a *course.Assignment) *AssignmentRef {
	return &AssignmentRef{
		ID:     a.ID,
		Name:   a.Name,
		Status: a.Status.String(),
	}
}
