package grading

import (
	"context"
	"time"

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

// MockAssignmentRepository is a mock implementation of course.AssignmentRepository
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

// MockSectionRepository is a mock implementation of course.SectionRepository
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

// MockSessionRepository is a mock implementation of grading.GradingSessionRepository
type MockSessionRepository struct {
	mock.Mock
}

func (m *MockSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*grading.GradingSession, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.GradingSession), args.Error(1)
}

func (m *MockSessionRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID, filter shared.Filter) ([]grading.GradingSession, error) {
	args := m.Called(ctx, assignmentID, filter)
	return args.Get(0).([]grading.GradingSession), args.Error(1)
}

func (m *MockSessionRepository) FindByStatus(ctx context.Context, status grading.SessionStatus, filter shared.Filter) ([]grading.GradingSession, error) {
	args := m.Called(ctx, status, filter)
	return args.Get(0).([]grading.GradingSession), args.Error(1)
}

func (m *MockSessionRepository) Save(ctx context.Context, session *grading.GradingSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSessionRepository) DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}

func (m *MockSessionRepository) Count(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, assignmentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSessionRepository) CountByStatus(ctx context.Context, status grading.SessionStatus) (int64, error) {
	args := m.Called(ctx, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockDocumentRepository is a mock implementation of grading.AssignmentDocumentRepository
type MockDocumentRepository struct {
	mock.Mock
}

func (m *MockDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*grading.AssignmentDocument, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.AssignmentDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]grading.AssignmentDocument, error) {
	args := m.Called(ctx, assignmentID)
	return args.Get(0).([]grading.AssignmentDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByAssignmentAndDocID(ctx context.Context, assignmentID uuid.UUID, docID string) (*grading.AssignmentDocument, error) {
	args := m.Called(ctx, assignmentID, docID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.AssignmentDocument), args.Error(1)
}

func (m *MockDocumentRepository) FindByStatus(ctx context.Context, assignmentID uuid.UUID, status grading.DocumentStatus) ([]grading.AssignmentDocument, error) {
	args := m.Called(ctx, assignmentID, status)
	return args.Get(0).([]grading.AssignmentDocument), args.Error(1)
}

func (m *MockDocumentRepository) Save(ctx context.Context, doc *grading.AssignmentDocument) error {
	args := m.Called(ctx, doc)
	return args.Error(0)
}

func (m *MockDocumentRepository) SaveAll(ctx context.Context, docs []*grading.AssignmentDocument) error {
	args := m.Called(ctx, docs)
	return args.Error(0)
}

func (m *MockDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	args := m.Called(ctx, assignmentID)
	return args.Error(0)
}

func (m *MockDocumentRepository) CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	args := m.Called(ctx, assignmentID)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockDocumentRepository) CountByStatus(ctx context.Context, assignmentID uuid.UUID, status grading.DocumentStatus) (int64, error) {
	args := m.Called(ctx, assignmentID, status)
	return args.Get(0).(int64), args.Error(1)
}

// MockRubricStore is a mock implementation of rubric.RubricStore
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

// MockWorkspace is a mock implementation of grading.DocumentWorkspace
type MockWorkspace struct {
	mock.Mock
}

func (m *MockWorkspace) ListFolder(ctx context.Context, folderID string) ([]grading.DriveFile, error) {
	args := m.Called(ctx, folderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]grading.DriveFile), args.Error(1)
}

func (m *MockWorkspace) ExtractText(ctx context.Context, docID string) (string, error) {
	args := m.Called(ctx, docID)
	return args.String(0), args.Error(1)
}

func (m *MockWorkspace) ConvertToGoogleDoc(ctx context.Context, fileID, name string) (string, error) {
	args := m.Called(ctx, fileID, name)
	return args.String(0), args.Error(1)
}

func (m *MockWorkspace) SyncFeedback(ctx context.Context, req *grading.FeedbackSyncRequest) (*grading.FeedbackSyncResult, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.FeedbackSyncResult), args.Error(1)
}

// MockGrader is a mock implementation of grading.DocumentGrader
type MockGrader struct {
	mock.Mock
}

func (m *MockGrader) Grade(ctx context.Context, req *grading.GradeRequest) (*grading.Evaluation, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*grading.Evaluation), args.Error(1)
}

// MockSummarizer is a mock implementation of grading.PerformanceSummarizer
type MockSummarizer struct {
	mock.Mock
}

func (m *MockSummarizer) SummarizePerformance(ctx context.Context, feedback []grading.FeedbackDigest) (string, error) {
	args := m.Called(ctx, feedback)
	return args.String(0), args.Error(1)
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

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	args := m.Called(ctx, key, ttl)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) IsProcessed(ctx context.Context, key string) (bool, error) {
	args := m.Called(ctx, key)
	return args.Bool(0), args.Error(1)
}

func (m *MockIdempotencyStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

// ---------------------------------------------------------------------------
// Fixtures
// ---------------------------------------------------------------------------

func newTestUsers(userRepo identity.UserRepository) *identityapp.UserService {
	return identityapp.NewUserService(userRepo, zap.NewNop())
}

func testGrader() *identity.User {
	user, _ := identity.NewUser("ta@busn403.edu", "Test TA", identity.RoleTA)
	return user
}

func testReviewer() *identity.User {
	user, _ := identity.NewUser("prof@busn403.edu", "Test Professor", identity.RoleProfessor)
	return user
}

func testRubric() *rubric.Rubric {
	return &rubric.Rubric{
		Name:        "Case Analysis Rubric",
		TotalPoints: decimal.NewFromInt(100),
		Criteria: []rubric.Criterion{
			{Name: "Analysis", MaxPoints: decimal.NewFromInt(60), Description: "Depth of analysis"},
			{Name: "Writing", MaxPoints: decimal.NewFromInt(40), Description: "Clarity and structure"},
		},
	}
}

func testAssignment(rubricFilename, folderID string) *course.Assignment {
	assignment, _ := course.NewAssignment(uuid.New(), "Case Study 1", uuid.New())
	if rubricFilename != "" {
		_ = assignment.AttachRubric(rubricFilename)
	}
	if folderID != "" {
		assignment.AttachDriveFolder(folderID)
	}
	return assignment
}

func successResult(docID string, total int64) grading.DocumentResult {
	return grading.DocumentResult{
		DocID:      docID,
		DocName:    "Submission " + docID,
		Success:    true,
		TotalScore: decimal.NewFromInt(total),
		Scores: map[string]decimal.Decimal{
			"Analysis": decimal.NewFromInt(total - 30),
			"Writing":  decimal.NewFromInt(30),
		},
		Strengths: []string{"Clear thesis"},
	}
}

func pendingSession(assignmentID uuid.UUID, docIDs []string, results []grading.DocumentResult) *grading.GradingSession {
	session, _ := grading.NewGradingSession(assignmentID, uuid.New(), docIDs, results)
	session.ClearDomainEvents()
	return session
}

func ungradedDocument(assignmentID uuid.UUID, docID string) *grading.AssignmentDocument {
	doc, _ := grading.NewAssignmentDocument(assignmentID, docID, "Submission "+docID)
	return doc
}

func pendingReviewDocument(assignmentID uuid.UUID, docID string) *grading.AssignmentDocument {
	doc := ungradedDocument(assignmentID, docID)
	_ = doc.MarkPendingReview()
	return doc
}
