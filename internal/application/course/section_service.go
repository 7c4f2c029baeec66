package course

import (
	"context"
	"errors"

	"github.com/google/uuid"
	identityapp "github.com/gradeflow/backend/internal/application/identity"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/identity"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// DefaultSectionNumbers are the sections provisioned on first startup
var DefaultSectionNumbers = []string{"900", "901", "902"}

// DefaultAdminName is the display name of the seeded course admin
const DefaultAdminName = "Admin User"

// SectionService handles section-related business operations
type SectionService struct {
	sectionRepo course.SectionRepository
	users       *identityapp.UserService
}

// NewSectionService creates a new SectionService
func NewSectionService(sectionRepo course.SectionRepository, users *identityapp.UserService) *SectionService {
	return &SectionService{
		sectionRepo: sectionRepo,
		users:       users,
	}
}

// List returns all sections with their assignment counts
func (s *SectionService) List(ctx context.Context) ([]SectionResponse, error) {
	sections, err := s.sectionRepo.FindAll(ctx, shared.Filter{
		OrderBy:  "section_number",
		OrderDir: "asc",
	})
	if err != nil {
		return nil, err
	}

	responses := make([]SectionResponse, len(sections))
	for i := range sections {
		count, err := s.sectionRepo.CountAssignments(ctx, sections[i].ID)
		if err != nil {
			return nil, err
		}
		responses[i] = ToSectionResponse(&sections[i], count)
	}

	return responses, nil
}

// Get retrieves a section by ID
func (s *SectionService) Get(ctx context.Context, id uuid.UUID) (*SectionResponse, error) {
	section, err := s.sectionRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Section not found")
		}
		return nil, err
	}

	count, err := s.sectionRepo.CountAssignments(ctx, section.ID)
	if err != nil {
		return nil, err
	}

	resp := ToSectionResponse(section, count)
	return &resp, nil
}

// Create creates a new section
func (s *SectionService) Create(ctx context.Context, req CreateSectionRequest) (*SectionResponse, error) {
	exists, err := s.sectionRepo.ExistsBySectionNumber(ctx, req.SectionNumber)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, shared.NewDomainError("ALREADY_EXISTS", "Section with this number already exists")
	}

	section, err := course.NewSection(req.SectionNumber, req.CourseCode)
	if err != nil {
		return nil, err
	}

	if err := s.sectionRepo.Save(ctx, section); err != nil {
		return nil, err
	}

	resp := ToSectionResponse(section, 0)
	return &resp, nil
}

// Delete deletes a section. Sections still holding assignments cannot be
// deleted.
func (s *SectionService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.sectionRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", "Section not found")
		}
		return err
	}

	count, err := s.sectionRepo.CountAssignments(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return shared.NewDomainError("INVALID_STATE", "Cannot delete a section with assignments")
	}

	return s.sectionRepo.Delete(ctx, id)
}

// SeedDefaults provisions the default sections and the course admin user.
// It is idempotent and runs on every startup.
func (s *SectionService) SeedDefaults(ctx context.Context) error {
	for _, number := range DefaultSectionNumbers {
		exists, err := s.sectionRepo.ExistsBySectionNumber(ctx, number)
		if err != nil {
			return err
		}
		if exists {
			continue
		}

		section, err := course.NewSection(number, "")
		if err != nil {
			return err
		}
		if err := s.sectionRepo.Save(ctx, section); err != nil {
			return err
		}
	}

	_, err := s.users.GetOrCreateByEmail(ctx, identityapp.DefaultOperatorEmail, DefaultAdminName, identity.RoleProfessor)
	return err
}
