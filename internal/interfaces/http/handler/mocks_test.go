package handler

import (
	"context"

	"github.com/google/uuid"
	identityapp "github.com/gradeflow/backend/internal/application/identity"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/identity"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockSectionRepository implements course.SectionRepository for testing
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

// MockAssignmentRepository implements course.AssignmentRepository for testing
type MockAssignmentRepository struct {
	mock.Mock
}

func (m *MockAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*course.Assignment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*course.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindBySection(ctx context.Context, sectionID uuid.UUID, filter shared.Filter) ([]course.Assignment, error) {
	args := m.Called(ctx, sectionID, filter)
	return args.Get(0).([]course.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindByStatus(ctx context.Context, status course.AssignmentStatus, filter shared.Filter) ([]course.Assignment, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]course.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]course.Assignment, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]course.Assignment), args.Error(1)
}

func (m *MockAssignmentRepository) Save(ctx context.Context, assignment *course.Assignment) error {
	args := m.Called(ctx, assignment)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssignmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentRepository) CountBySection(ctx context.Context, sectionID uuid.UUID) (int64, error) {
	args := m.Called(ctx, sectionID)
	return args.Get(0).(int64), args.Error(1)
}

// MockGradingSessionRepository implements grading.GradingSessionRepository for testing
type MockGradingSessionRepository struct {
	mock.Mock
}

func (m *MockGradingSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*grading.GradingSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.GradingSession), args.Error(1)
}

func (m *MockGradingSessionRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID, filter shared.Filter) ([]grading.GradingSession, error) {
	args := m.Called(ctx, assignmentID, filter)
	return args.Get(0).([]grading.GradingSession), args.Error(1)
}

func (m *MockGradingSessionRepository) FindByStatus(ctx context.Context, status grading.SessionStatus, filter shared.Filter) ([]grading.GradingSession, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]grading.GradingSession), args.Error(1)
}

func (m *MockGradingSessionRepository) Save(ctx context.Context, session *grading.GradingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockGradingSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockGradingSessionRepository) DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}

func (m *MockGradingSessionRepository) Count(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, assignmentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockGradingSessionRepository) CountByStatus(ctx context.Context, status grading.SessionStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockAssignmentDocumentRepository implements grading.AssignmentDocumentRepository for testing
type MockAssignmentDocumentRepository struct {
	mock.Mock
}

func (m *MockAssignmentDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*grading.AssignmentDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.AssignmentDocument), args.Error(1)
}

func (m *MockAssignmentDocumentRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]grading.AssignmentDocument, error) {
	args := m.Called(ctx, assignmentID)
	return args.Get(0).([]grading.AssignmentDocument), args.Error(1)
}

func (m *MockAssignmentDocumentRepository) FindByAssignmentAndDocID(ctx context.Context, assignmentID uuid.UUID, docID string) (*grading.AssignmentDocument, error) {
	args := m.Called(ctx, assignmentID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.AssignmentDocument), args.Error(1)
}

func (m *MockAssignmentDocumentRepository) FindByStatus(ctx context.Context, assignmentID uuid.UUID, status grading.DocumentStatus) ([]grading.AssignmentDocument, error) {
	args := m.Called(ctx, assignmentID, status)
	return args.Get(0).([]grading.AssignmentDocument), args.Error(1)
}

func (m *MockAssignmentDocumentRepository) Save(ctx context.Context, doc *grading.AssignmentDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockAssignmentDocumentRepository) SaveAll(ctx context.Context, docs []*grading.AssignmentDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockAssignmentDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockAssignmentDocumentRepository) DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}

func (m *MockAssignmentDocumentRepository) CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, assignmentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockAssignmentDocumentRepository) CountByStatus(ctx context.Context, assignmentID uuid.UUID, status grading.DocumentStatus) (int64, error) {
	args := m.Called(ctx, assignmentID, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockRubricStore implements rubric.RubricStore for testing
type MockRubricStore struct {
	mock.Mock
}

func (m *MockRubricStore) List(ctx context.Context) ([]rubric.StoredRubric, error) {
	args := m.Called(ctx)
	return args.Get(0).([]rubric.StoredRubric), args.Error(1)
}

func (m *MockRubricStore) Load(ctx context.Context, filename string) (*rubric.Rubric, error) {
	args := m.Called(ctx, filename)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rubric.Rubric), args.Error(1)
}

func (m *MockRubricStore) Save(ctx context.Context, filename string, r *rubric.Rubric) error {
	args := m.Called(ctx, filename, r)
	return args.Error(0)
}

func (m *MockRubricStore) Delete(ctx context.Context, filename string) error {
	args := m.Called(ctx, filename)
	return args.Error(0)
}

func (m *MockRubricStore) Exists(ctx context.Context, filename string) (bool, error) {
	args := m.Called(ctx, filename)
	return args.Bool(0), args.Error(1)
}

// MockDocumentWorkspace implements grading.DocumentWorkspace for testing
type MockDocumentWorkspace struct {
	mock.Mock
}

func (m *MockDocumentWorkspace) ListFolder(ctx context.Context, folderID string) ([]grading.DriveFile, error) {
	args := m.Called(ctx, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]grading.DriveFile), args.Error(1)
}

func (m *MockDocumentWorkspace) ExtractText(ctx context.Context, docID string) (string, error) {
	args := m.Called(ctx, docID)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentWorkspace) ConvertToGoogleDoc(ctx context.Context, fileID, name string) (string, error) {
	args := m.Called(ctx, fileID, name)
	return args.String(0), args.Error(1)
}

func (m *MockDocumentWorkspace) SyncFeedback(ctx context.Context, req *grading.FeedbackSyncRequest) (*grading.FeedbackSyncResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.FeedbackSyncResult), args.Error(1)
}

// MockDocumentGrader implements grading.DocumentGrader for testing
type MockDocumentGrader struct {
	mock.Mock
}

func (m *MockDocumentGrader) Grade(ctx context.Context, req *grading.GradeRequest) (*grading.Evaluation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.Evaluation), args.Error(1)
}

// MockOperatorRepository implements identity.UserRepository for testing
type MockOperatorRepository struct {
	mock.Mock
}

func (m *MockOperatorRepository) FindByID(ctx context.Context, id uuid.UUID) (*identity.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockOperatorRepository) FindByEmail(ctx context.Context, email string) (*identity.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*identity.User), args.Error(1)
}

func (m *MockOperatorRepository) FindAll(ctx context.Context, filter shared.Filter) ([]identity.User, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).([]identity.User), args.Error(1)
}

func (m *MockOperatorRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	args := m.Called(ctx, email)
	return args.Bool(0), args.Error(1)
}

func (m *MockOperatorRepository) Save(ctx context.Context, user *identity.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}

func (m *MockOperatorRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockOperatorRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	args := m.Called(ctx, filter)
	return args.Get(0).(int64), args.Error(1)
}

// MockObjectStorage implements the rubric original file store for testing
type MockObjectStorage struct {
	mock.Mock
}

func (m *MockObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	args := m.Called(ctx, key, data, contentType)
	return args.Error(0)
}

func (m *MockObjectStorage) Download(ctx context.Context, key string) ([]byte, string, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, "", args.Error(2)
	}
	return args.Get(0).([]byte), args.String(1), args.Error(2)
}

func (m *MockObjectStorage) Delete(ctx context.Context, key string) error {
	args := m.Called(ctx, key)
	return args.Error(0)
}

func (m *MockObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

// MockRubricParser implements rubric.Parser for testing
type MockRubricParser struct {
	mock.Mock
}

func (m *MockRubricParser) ParseDocumentText(ctx context.Context, text string) (*rubric.Rubric, error) {
	args := m.Called(ctx, text)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*rubric.Rubric), args.Error(1)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func testUserService(userRepo identity.UserRepository) *identityapp.UserService {
	return identityapp.NewUserService(userRepo, zap.NewNop())
}

func testOperator() *identity.User {
	user, _ := identity.NewUser("prof@busn403.edu", "Test Professor", identity.RoleProfessor)
	return user
}

func testStoredRubric() *rubric.Rubric {
	return &rubric.Rubric{
		Name:        "Case Analysis Rubric",
		TotalPoints: decimal.NewFromInt(100),
		Criteria: []rubric.Criterion{
			{Name: "Analysis", MaxPoints: decimal.NewFromInt(60)},
			{Name: "Writing", MaxPoints: decimal.NewFromInt(40)},
		},
	}
}

func testCourseSection(number string) *course.Section {
	section, _ := course.NewSection(number, "")
	return section
}

func testCourseAssignment(sectionID uuid.UUID, name string) *course.Assignment {
	assignment, _ := course.NewAssignment(sectionID, name, uuid.New())
	return assignment
}

func testSessionWithResult(assignmentID uuid.UUID, docID string, total int64) *grading.GradingSession {
	result := grading.DocumentResult{
		DocID:      docID,
		DocName:    "Submission " + docID,
		Success:    true,
		TotalScore: decimal.NewFromInt(total),
		Scores: map[string]decimal.Decimal{
			"Analysis": decimal.NewFromInt(total - 30),
			"Writing":  decimal.NewFromInt(30),
		},
	}
	session, _ := grading.NewGradingSession(assignmentID, uuid.New(), []string{docID}, []grading.DocumentResult{result})
	session.ClearDomainEvents()
	return session
}
