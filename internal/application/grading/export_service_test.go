package grading

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

type exportFixture struct {
	assignmentRepo *MockAssignmentRepository
	documentRepo   *MockDocumentRepository
	sessionRepo    *MockSessionRepository
	rubricStore    *MockRubricStore
	service        *ExportService
}

func newExportFixture() *exportFixture {
	f := &exportFixture{
		assignmentRepo: new(MockAssignmentRepository),
		documentRepo:   new(MockDocumentRepository),
		sessionRepo:    new(MockSessionRepository),
		rubricStore:    new(MockRubricStore),
	}
	f.service = NewExportService(
		f.assignmentRepo, f.documentRepo, f.sessionRepo, f.rubricStore, zap.NewNop())
	return f
}

func parseExport(t *testing.T, content []byte) [][]string {
	t.Helper()
	assert.True(t, bytes.HasPrefix(content, utf8BOM))
	records, err := csv.NewReader(bytes.NewReader(content[len(utf8BOM):])).ReadAll()
	assert.NoError(t, err)
	return records
}

func TestExportService_ExportCSV(t *testing.T) {
	f := newExportFixture()
	ctx := context.Background()

	assignment := testAssignment("case_rubric.json", "")
	session := pendingSession(assignment.ID, []string{"doc-1"}, []grading.DocumentResult{successResult("doc-1", 85)})
	docs := []grading.AssignmentDocument{
		*pendingReviewDocument(assignment.ID, "doc-1"),
		*ungradedDocument(assignment.ID, "doc-2"),
	}

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.rubricStore.On("Load", ctx, "case_rubric.json").Return(testRubric(), nil)
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return(docs, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).
		Return([]grading.GradingSession{*session}, nil)

	export, err := f.service.ExportCSV(ctx, assignment.ID)

	assert.NoError(t, err)
	assert.Equal(t, "case_study_1_results.csv", export.Filename)

	records := parseExport(t, export.Content)
	assert.Len(t, records, 3)
	assert.Equal(t, []string{"Document", "Document ID", "Status", "Total Score", "Analysis", "Writing"}, records[0])
	assert.Equal(t, []string{"Submission doc-1", "doc-1", "pending_review", "85", "55", "30"}, records[1])
	assert.Equal(t, []string{"Submission doc-2", "doc-2", "ungraded", "", "", ""}, records[2])
}

func TestExportService_ExportCSV_WithoutRubric(t *testing.T) {
	f := newExportFixture()
	ctx := context.Background()

	assignment := testAssignment("", "")
	docs := []grading.AssignmentDocument{*ungradedDocument(assignment.ID, "doc-1")}

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return(docs, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).
		Return([]grading.GradingSession{}, nil)

	export, err := f.service.ExportCSV(ctx, assignment.ID)

	assert.NoError(t, err)
	records := parseExport(t, export.Content)
	assert.Equal(t, []string{"Document", "Document ID", "Status", "Total Score"}, records[0])
}

func TestExportService_ExportCSV_UnloadableRubricDegrades(t *testing.T) {
	f := newExportFixture()
	ctx := context.Background()

	assignment := testAssignment("missing.json", "")

	f.assignmentRepo.On("FindByID", ctx, assignment.ID).Return(assignment, nil)
	f.rubricStore.On("Load", ctx, "missing.json").Return(nil, errors.New("no such file"))
	f.documentRepo.On("FindByAssignment", ctx, assignment.ID).Return([]grading.AssignmentDocument{}, nil)
	f.sessionRepo.On("FindByAssignment", ctx, assignment.ID, shared.Filter{}).
		Return([]grading.GradingSession{}, nil)

	export, err := f.service.ExportCSV(ctx, assignment.ID)

	assert.NoError(t, err)
	records := parseExport(t, export.Content)
	assert.Equal(t, []string{"Document", "Document ID", "Status", "Total Score"}, records[0])
}

func TestExportService_ExportCSV_NotFound(t *testing.T) {
	f := newExportFixture()
	ctx := context.Background()
	id := uuid.New()

	f.assignmentRepo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound)

	export, err := f.service.ExportCSV(ctx, id)

	assert.Nil(t, export)
	var domainErr *shared.DomainError
	assert.True(t, errors.As(err, &domainErr))
	assert.Equal(t, "NOT_FOUND", domainErr.Code)
}

func TestExportFilename(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "spaces and case", input: "Case Study 1", expected: "case_study_1_results.csv"},
		{name: "punctuation", input: "Memo #2 (Final)", expected: "memo__2__final__results.csv"},
		{name: "empty", input: "", expected: "assignment_results.csv"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, exportFilename(tt.input))
		})
	}
}
