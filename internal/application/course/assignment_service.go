package course

import (
	"context"
	"errors"

	"github.com/google/uuid"
	identityapp "github.com/gradeflow/backend/internal/application/identity"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// AssignmentService handles assignment-related business operations
type AssignmentService struct {
	assignmentRepo course.AssignmentRepository
	sectionRepo    course.SectionRepository
	sessionRepo    grading.GradingSessionRepository
	users          *identityapp.UserService
}

// NewAssignmentService creates a new AssignmentService
func NewAssignmentService(
	assignmentRepo course.AssignmentRepository,
	sectionRepo course.SectionRepository,
	sessionRepo grading.GradingSessionRepository,
	users *identityapp.UserService,
) *AssignmentService {
	return &AssignmentService{
		assignmentRepo: assignmentRepo,
		sectionRepo:    sectionRepo,
		sessionRepo:    sessionRepo,
		users:          users,
	}
}

// ListBySection returns a section's assignments, newest first
func (s *AssignmentService) ListBySection(ctx context.Context, sectionID uuid.UUID) ([]AssignmentListResponse, error) {
	if _, err := s.sectionRepo.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Section not found")
		}
		return nil, err
	}

	assignments, err := s.assignmentRepo.FindBySection(ctx, sectionID, shared.Filter{})
	if err != nil {
		return nil, err
	}

	responses := make([]AssignmentListResponse, len(assignments))
	for i := range assignments {
		responses[i] = ToAssignmentListResponse(&assignments[i])
	}

	return responses, nil
}

// Get retrieves an assignment by ID
func (s *AssignmentService) Get(ctx context.Context, id uuid.UUID) (*AssignmentResponse, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		return nil, err
	}

	return ToAssignmentResponse(assignment), nil
}

// Create creates a new assignment in a section. The operator identified by
// the user_* fields is provisioned on first use.
func (s *AssignmentService) Create(ctx context.Context, sectionID uuid.UUID, req CreateAssignmentRequest) (*AssignmentRef, error) {
	if _, err := s.sectionRepo.FindByID(ctx, sectionID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Section not found")
		}
		return nil, err
	}

	creator, err := s.users.ResolveGrader(ctx, req.UserEmail, req.UserName, req.UserRole)
	if err != nil {
		return nil, err
	}

	assignment, err := course.NewAssignment(sectionID, req.Name, creator.ID)
	if err != nil {
		return nil, err
	}

	if err := assignment.AttachRubric(req.RubricFilename); err != nil {
		return nil, err
	}
	assignment.AttachDriveFolder(req.DriveFolderID)

	if req.Description != "" {
		assignment.SetDescription(req.Description)
	}
	if req.CustomInstructions != "" {
		assignment.SetCustomInstructions(req.CustomInstructions)
	}

	if req.Status != "" {
		if err := assignment.ChangeStatus(course.AssignmentStatus(req.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.assignmentRepo.Save(ctx, assignment); err != nil {
		return nil, err
	}

	return ToAssignmentRef(assignment), nil
}

// Update applies a partial update to an assignment. A status change stamps
// the matching lifecycle timestamp.
func (s *AssignmentService) Update(ctx context.Context, id uuid.UUID, req UpdateAssignmentRequest) (*AssignmentRef, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		return nil, err
	}

	if req.Name != nil {
		if err := assignment.Rename(*req.Name); err != nil {
			return nil, err
		}
	}
	if req.Description != nil {
		assignment.SetDescription(*req.Description)
	}
	if req.RubricFilename != nil {
		if err := assignment.AttachRubric(*req.RubricFilename); err != nil {
			return nil, err
		}
	}
	if req.CustomInstructions != nil {
		assignment.SetCustomInstructions(*req.CustomInstructions)
	}
	if req.DriveFolderID != nil {
		assignment.AttachDriveFolder(*req.DriveFolderID)
	}
	if req.Status != nil {
		if err := assignment.ChangeStatus(course.AssignmentStatus(*req.Status)); err != nil {
			return nil, err
		}
	}

	if err := s.assignmentRepo.Save(ctx, assignment); err != nil {
		return nil, err
	}

	return ToAssignmentRef(assignment), nil
}

// Delete removes an assignment together with its grading sessions and
// document records. It returns the deleted assignment's name.
func (s *AssignmentService) Delete(ctx context.Context, id uuid.UUID) (string, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return "", shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		return "", err
	}

	if err := s.assignmentRepo.Delete(ctx, id); err != nil {
		return "", err
	}

	return assignment.Name, nil
}

// History returns an assignment's grading sessions, newest first, with the
// grader and reviewer resolved to display info.
func (s *AssignmentService) History(ctx context.Context, assignmentID uuid.UUID) ([]HistoryEntry, error) {
	if _, err := s.assignmentRepo.FindByID(ctx, assignmentID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		return nil, err
	}

	sessions, err := s.sessionRepo.FindByAssignment(ctx, assignmentID, shared.Filter{})
	if err != nil {
		return nil, err
	}

	refs := make(map[uuid.UUID]*UserRef)
	entries := make([]HistoryEntry, len(sessions))
	for i := range sessions {
		session := &sessions[i]

		gradedBy, err := s.userRef(ctx, session.GradedByID, refs)
		if err != nil {
			return nil, err
		}

		var reviewedBy *UserRef
		if session.ReviewedByID != nil {
			reviewedBy, err = s.userRef(ctx, *session.ReviewedByID, refs)
			if err != nil {
				return nil, err
			}
		}

		entries[i] = HistoryEntry{
			ID:         session.ID,
			GradedBy:   gradedBy,
			DocIDs:     session.DocIDs,
			Status:     session.Status.String(),
			ReviewedBy: reviewedBy,
			ReviewedAt: session.ReviewedAt,
			CreatedAt:  session.CreatedAt,
		}
	}

	return entries, nil
}

// userRef resolves a user to display info, caching lookups across one call.
// A vanished user keeps its ID so the history stays attributable.
func (s *AssignmentService) userRef(ctx context.Context, id uuid.UUID, cache map[uuid.UUID]*UserRef) (*UserRef, error) {
	if ref, ok := cache[id]; ok {
		return ref, nil
	}

	user, err := s.users.GetByID(ctx, id)
	if err != nil {
		var domainErr *shared.DomainError
		if errors.As(err, &domainErr) && domainErr.Code == "USER_NOT_FOUND" {
			ref := &UserRef{ID: id}
			cache[id] = ref
			return ref, nil
		}
		return nil, err
	}

	ref := &UserRef{ID: user.ID, Name: user.DisplayName, Email: user.Email}
	cache[id] = ref
	return ref, nil
}
