package course

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	identityapp "github.com/gradeflow/backend/internal/application/identity"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/identity"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockSectionRepository is a mock implementation of SectionRepository
type MockSectionRepository struct {
	mock.Mock
}

func (m *MockSectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*course.Section, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*course.Section), args.Error(1)
}

func (m *MockSectionRepository) FindBySectionNumber(ctx context.Context, sectionNumber string) (*course.Section, error) {
	args := m.Called(ctx, sectionNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*course.Section), args.Error(1)
}

func (m *MockSectionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]course.Section, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]course.Section), args.Error(1)
}

func (m *MockSectionRepository) ExistsBySectionNumber(ctx context.Context, sectionNumber string) (bool, error) {
	args := m.Called(ctx, sectionNumber)
	return args.Bool(0), args.Error(1)
}

func (m *MockSectionRepository) Save(ctx context.Context, section *course.Section) error {
	args := m.Called(ctx, section)
	return args.Error(0)
}

func (m *MockSectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSectionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSectionRepository) CountAssignments(ctx context.Context, sectionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, sectionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockUserRepository is a mock implementation of identity.UserRepository
type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockUserRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockUserRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockUserRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockUserRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockUserRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func newTestUserService(userRepo identity.UserRepository) *identityapp.UserService {
	return identityapp.NewUserService(userRepo, zap.NewNop())
}

func createTestSection(number string) *course.Section {
	section, _ := course.NewSection(number, "")
	return section
}

func createTestAdmin() *identity.User {
	admin, _ := identity.NewUser(identityapp.DefaultOperatorEmail, DefaultAdminName, identity.RoleProfessor)
	return admin
}

func TestSectionService_List(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	service := NewSectionService(sectionRepo, newTestUserService(new(MockUserRepository)))

	ctx := context.Background()
	first := createTestSection("900")
	second := createTestSection("901")

	sectionRepo.On("FindAll", ctx, shared.Filter{OrderBy: "section_number", OrderDir: "asc"}).
		Return([]course.Section{*first, *second}, nil)
	sectionRepo.On("CountAssignments", ctx, first.ID).Return(int64(3), nil)
	sectionRepo.On("CountAssignments", ctx, second.ID).Return(int64(0), nil)

	sections, err := service.List(ctx)

	assert.NoError(t, err)
	assert.Len(t, sections, 2)
	assert.Equal(t, "900", sections[0].SectionNumber)
	assert.Equal(t, course.DefaultCourseCode, sections[0].CourseCode)
	assert.Equal(t, int64(3), sections[0].AssignmentCount)
	assert.Equal(t, int64(0), sections[1].AssignmentCount)
	sectionRepo.AssertExpectations(t)
}

func TestSectionService_Get(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	service := NewSectionService(sectionRepo, newTestUserService(new(MockUserRepository)))

	ctx := context.Background()
	section := createTestSection("902")

	sectionRepo.On("FindByID", ctx, section.ID).Return(section, nil)
	sectionRepo.On("CountAssignments", ctx, section.ID).Return(int64(1), nil)

	resp, err := service.Get(ctx, section.ID)

	assert.NoError(t, err)
	assert.Equal(t, section.ID, resp.ID)
	assert.Equal(t, "902", resp.SectionNumber)
	assert.Equal(t, int64(1), resp.AssignmentCount)
	sectionRepo.AssertExpectations(t)
}

func TestSectionService_Get_NotFound(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	service := NewSectionService(sectionRepo, newTestUserService(new(MockUserRepository)))

	ctx := context.Background()
	id := uuid.New()

	sectionRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	resp, err := service.Get(ctx, id)

	assert.Nil(t, resp)
	var domainErr *shared.DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
	assert.Equal(t, "Section not found", domainErr.Message)
	sectionRepo.AssertExpectations(t)
}

func TestSectionService_Create(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	service := NewSectionService(sectionRepo, newTestUserService(new(MockUserRepository)))

	ctx := context.Background()

	sectionRepo.On("ExistsBySectionNumber", ctx, "903").Return(false, nil)
	sectionRepo.On("Save", ctx, mock.AnythingOfType("*course.Section")).Return(nil)

	resp, err := service.Create(ctx, CreateSectionRequest{SectionNumber: "903"})

	assert.NoError(t, err)
	assert.Equal(t, "903", resp.SectionNumber)
	assert.Equal(t, course.DefaultCourseCode, resp.CourseCode)
	assert.Equal(t, int64(0), resp.AssignmentCount)
	sectionRepo.AssertExpectations(t)
}

func TestSectionService_Create_DuplicateNumber(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	service := NewSectionService(sectionRepo, newTestUserService(new(MockUserRepository)))

	ctx := context.Background()

	sectionRepo.On("ExistsBySectionNumber", ctx, "900").Return(true, nil)

	resp, err := service.Create(ctx, CreateSectionRequest{SectionNumber: "900"})

	assert.Nil(t, resp)
	var domainErr *shared.DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "ALREADY_EXISTS", domainErr.Code)
	sectionRepo.AssertExpectations(t)
}

func TestSectionService_Delete(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	service := NewSectionService(sectionRepo, newTestUserService(new(MockUserRepository)))

	ctx := context.Background()
	section := createTestSection("904")

	sectionRepo.On("FindByID", ctx, section.ID).Return(section, nil)
	sectionRepo.On("CountAssignments", ctx, section.ID).Return(int64(0), nil)
	sectionRepo.On("Delete", ctx, section.ID).Return(nil)

	err := service.Delete(ctx, section.ID)

	assert.NoError(t, err)
	sectionRepo.AssertExpectations(t)
}

func TestSectionService_Delete_WithAssignments(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	service := NewSectionService(sectionRepo, newTestUserService(new(MockUserRepository)))

	ctx := context.Background()
	section := createTestSection("900")

	sectionRepo.On("FindByID", ctx, section.ID).Return(section, nil)
	sectionRepo.On("CountAssignments", ctx, section.ID).Return(int64(2), nil)

	err := service.Delete(ctx, section.ID)

	var domainErr *shared.DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "INVALID_STATE", domainErr.Code)
	sectionRepo.AssertNotCalled(t, "Delete", ctx, section.ID)
	sectionRepo.AssertExpectations(t)
}

func TestSectionService_SeedDefaults(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	userRepo := new(MockUserRepository)
	service := NewSectionService(sectionRepo, newTestUserService(userRepo))

	ctx := context.Background()

	// 900 already exists; 901 and 902 get provisioned.
	sectionRepo.On("ExistsBySectionNumber", ctx, "900").Return(true, nil)
	sectionRepo.On("ExistsBySectionNumber", ctx, "901").Return(false, nil)
	sectionRepo.On("ExistsBySectionNumber", ctx, "902").Return(false, nil)
	sectionRepo.On("Save", ctx, mock.AnythingOfType("*course.Section")).Return(nil)
	userRepo.On("FindByEmail", ctx, identityapp.DefaultOperatorEmail).Return(createTestAdmin(), nil)

	err := service.SeedDefaults(ctx)

	assert.NoError(t, err)
	sectionRepo.AssertNumberOfCalls(t, "Save", 2)
	sectionRepo.AssertExpectations(t)
	userRepo.AssertExpectations(t)
}

func TestSectionService_SeedDefaults_Idempotent(t *testing.T) {
	sectionRepo := new(MockSectionRepository)
	userRepo := new(MockUserRepository)
	service := NewSectionService(sectionRepo, newTestUserService(userRepo))

	ctx := context.Background()

	for _, number := range DefaultSectionNumbers {
		sectionRepo.On("ExistsBySectionNumber", ctx, number).Return(true, nil)
	}
	userRepo.On("FindByEmail", ctx, identityapp.DefaultOperatorEmail).Return(createTestAdmin(), nil)

	err := service.SeedDefaults(ctx)

	assert.NoError(t, err)
	sectionRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	userRepo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	sectionRepo.AssertExpectations(t)
}
