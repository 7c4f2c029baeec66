package course

import (
	"context"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// SectionRepository defines the interface for section persistence
type SectionRepository interface {
	// FindByID finds a section by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Section, error)

	// FindBySectionNumber finds a section by its number
	FindBySectionNumber(ctx context.Context, sectionNumber string) (*Section, error)

	// FindAll finds all sections matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Section, error)

	// ExistsBySectionNumber checks if a section number is already taken
	ExistsBySectionNumber(ctx context.Context, sectionNumber string) (bool, error)

	// Save creates or updates a section
	Save(ctx context.Context, section *Section) error

	// Delete deletes a section
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts sections matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountAssignments counts assignments attached to a section
	CountAssignments(ctx context.Context, sectionID uuid.UUID) (int64, error)
}

// AssignmentRepository defines the interface for assignment persistence
type AssignmentRepository interface {
	// FindByID finds an assignment by its ID
	FindByID(ctx context.Context, id uuid.UUID) (*Assignment, error)

	// FindBySection finds all assignments for a section
	FindBySection(ctx context.Context, sectionID uuid.UUID, filter shared.Filter) ([]Assignment, error)

	// FindByStatus finds all assignments with a specific status
	FindByStatus(ctx context.Context, status AssignmentStatus, filter shared.Filter) ([]Assignment, error)

	// FindAll finds all assignments matching the filter
	FindAll(ctx context.Context, filter shared.Filter) ([]Assignment, error)

	// Save creates or updates an assignment
	Save(ctx context.Context, assignment *Assignment) error

	// Delete deletes an assignment together with its documents and sessions
	Delete(ctx context.Context, id uuid.UUID) error

	// Count counts assignments matching the filter
	Count(ctx context.Context, filter shared.Filter) (int64, error)

	// CountBySection counts assignments for a section
	CountBySection(ctx context.Context, sectionID uuid.UUID) (int64, error)
}
