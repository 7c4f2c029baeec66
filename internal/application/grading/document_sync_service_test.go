package grading

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

type syncFixture struct {
	documentRepo   *MockDocumentRepository
	sessionRepo    *MockSessionRepository
	assignmentRepo *MockAssignmentRepository
	workspace      *MockWorkspace
	service        *DocumentSyncService
}

func newSyncFixture() *syncFixture {
	f := &syncFixture{
		documentRepo:   new(MockDocumentRepository),
		sessionRepo:    new(MockSessionRepository),
		assignmentRepo: new(MockAssignmentRepository),
		workspace:      new(MockWorkspace),
	}
	f.service = NewDocumentSyncService(
		f.documentRepo, f.sessionRepo, f.assignmentRepo, f.workspace, zap.NewNop())
	return f
}

func TestDocumentSyncService_ListForAssignment(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	assignment := testAssignment("case_rubric.json", "folder-1")
	known := ungradedDocument(assignment.ID, "doc-1")

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.workspace.On("ListFolder", ctx, "folder-1").Return([]grading.DriveFile{
		{ID: "doc-1", Name: "Alice - Case Study"},
		{ID: "doc-2", Name: "Bob - Case Study"},
	}, nil)
	f.documentRepo.On("FindByAssignmentAndDocID", ctx, assignment.ID, "doc-1").Return(known, nil)
	f.documentRepo.On("FindByAssignmentAndDocID", ctx, assignment.ID, "doc-2").Return(nil, shared.ErrNotFound)
	f.documentRepo.On("Save", ctx, mock.AnythingOfType("*grading.AssignmentDocument")).Return(nil)
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return([]grading.AssignmentDocument{*known}, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).Return([]grading.GradingSession{}, nil)

	res, err := f.service.ListForAssignment(ctx, assignment.ID)

	assert.NoError(t, err)
	assert.True(t, res.DriveSynced)
	assert.Len(t, res.Documents, 1)
	assert.Equal(t, "Alice - Case Study", known.DocName)
	assert.Equal(t, assignment.Name, res.Documents[0].AssignmentName)
	f.documentRepo.AssertExpectations(t)
}

func TestDocumentSyncService_ListForAssignment_DriveFailureDegrades(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	assignment := testAssignment("case_rubric.json", "folder-1")
	known := ungradedDocument(assignment.ID, "doc-1")

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.workspace.On("ListFolder", ctx, "folder-1").Return(nil, grading.ErrWorkspaceUnauthorized)
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return([]grading.AssignmentDocument{*known}, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).Return([]grading.GradingSession{}, nil)

	res, err := f.service.ListForAssignment(ctx, assignment.ID)

	assert.NoError(t, err)
	assert.False(t, res.DriveSynced)
	assert.Len(t, res.Documents, 1)
}

func TestDocumentSyncService_ListForAssignment_NoFolder(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	assignment := testAssignment("case_rubric.json", "")

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return([]grading.AssignmentDocument{}, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).Return([]grading.GradingSession{}, nil)

	res, err := f.service.ListForAssignment(ctx, assignment.ID)

	assert.NoError(t, err)
	assert.False(t, res.DriveSynced)
	assert.Empty(t, res.Documents)
	f.workspace.AssertNotCalled(t, "ListFolder", mock.Anything, mock.Anything)
}

func TestDocumentSyncService_ListForAssignment_NotFound(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()
	id := uuid.New()

	f.assignmentRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	res, err := f.service.ListForAssignment(ctx, id)

	assert.Nil(t, res)
	var domainErr *shared.DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestDocumentSyncService_AnnotatesNewestSession(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	assignment := testAssignment("case_rubric.json", "")
	doc := pendingReviewDocument(assignment.ID, "doc-1")

	// Newest first: the pending re-grade claims the document, the earlier
	// approved session does not.
	newest := pendingSession(assignment.ID, []string{"doc-1"}, []grading.DocumentResult{successResult("doc-1", 91)})
	older := pendingSession(assignment.ID, []string{"doc-1"}, []grading.DocumentResult{successResult("doc-1", 78)})
	_ = older.Approve(uuid.New(), "", nil)

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return([]grading.AssignmentDocument{*doc}, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).
		Return([]grading.GradingSession{*newest, *older}, nil)

	res, err := f.service.ListForAssignment(ctx, assignment.ID)

	assert.NoError(t, err)
	item := res.Documents[0]
	assert.Equal(t, newest.ID, *item.SessionID)
	assert.Equal(t, 0, *item.DocIndex)
	assert.Equal(t, "pending_review", *item.SessionStatus)
	assert.True(t, item.TotalScore.Equal(successResult("doc-1", 91).TotalScore))
}

func TestDocumentSyncService_ClaimsConvertedCopies(t *testing.T) {
	f := newSyncFixture()
	ctx := context.Background()

	assignment := testAssignment("case_rubric.json", "")

	// The record tracks the converted copy, the session lists the original
	// Word upload.
	result := successResult("word-1", 80)
	result.ConvertedDocID = "conv-1"
	result.OriginalDocID = "word-1"
	session := pendingSession(assignment.ID, []string{"word-1"}, []grading.DocumentResult{result})
	doc := ungradedDocument(assignment.ID, "conv-1")

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return([]grading.AssignmentDocument{*doc}, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).
		Return([]grading.GradingSession{*session}, nil)

	res, err := f.service.ListForAssignment(ctx, assignment.ID)

	assert.NoError(t, err)
	item := res.Documents[0]
	assert.Equal(t, session.ID, *item.SessionID)
	assert.NotNil(t, item.TotalScore)
}
