// Package integration provides end-to-end grading flow tests with real
// database interactions: grade a batch, review the session, and verify the
// feedback write-back.
package integration

import (
	"context"
	"fmt"
	"sync"
	"testing"

	coursesvc "github.com/gradeflow/backend/internal/application/course"
	gradingsvc "github.com/gradeflow/backend/internal/application/grading"
	identityapp "github.com/gradeflow/backend/internal/application/identity"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/identity"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/infrastructure/persistence"
	"github.com/gradeflow/backend/internal/infrastructure/storage"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// stubWorkspace is an in-memory Google Drive/Docs stand-in. Documents map doc
// IDs to text; synced records every feedback write.
type stubWorkspace struct {
	mu        sync.Mutex
	documents map[string]string
	synced    []string
}

func newStubWorkspace(documents map[string]string) *stubWorkspace {
	return &stubWorkspace{documents: documents}
}

func (w *stubWorkspace) ListFolder(ctx context.Context, folderID string) ([]grading.DriveFile, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	files := make([]grading.DriveFile, 0, len(w.documents))
	for id := range w.documents {
		files = append(files, grading.DriveFile{ID: id, Name: "Submission " + id, MimeType: "application/vnd.google-apps.document"})
	}
	return files, nil
}

func (w *stubWorkspace) ExtractText(ctx context.Context, docID string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	text, ok := w.documents[docID]
	if !ok {
		return "", fmt.Errorf("document %s not found", docID)
	}
	if text == "" {
		return "", grading.ErrEmptyDocument
	}
	return text, nil
}

func (w *stubWorkspace) ConvertToGoogleDoc(ctx context.Context, fileID, name string) (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	converted := "gdoc-" + fileID
	w.documents[converted] = w.documents[fileID]
	return converted, nil
}

func (w *stubWorkspace) SyncFeedback(ctx context.Context, req *grading.FeedbackSyncRequest) (*grading.FeedbackSyncResult, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if _, ok := w.documents[req.DocID]; !ok {
		return &grading.FeedbackSyncResult{DocID: req.DocID, Error: "document not found"}, nil
	}
	w.synced = append(w.synced, req.DocID)
	return &grading.FeedbackSyncResult{DocID: req.DocID, Success: true, FeedbackInserted: true}, nil
}

func (w *stubWorkspace) syncedDocs() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]string(nil), w.synced...)
}

// stubGrader scores every document with a fixed outcome
type stubGrader struct {
	scores map[string]decimal.Decimal
}

func (g *stubGrader) Grade(ctx context.Context, req *grading.GradeRequest) (*grading.Evaluation, error) {
	scores := g.scores
	if scores == nil {
		scores = map[string]decimal.Decimal{
			"Analysis": decimal.NewFromInt(50),
			"Writing":  decimal.NewFromInt(35),
		}
	}

	total := decimal.Zero
	for _, s := range scores {
		total = total.Add(s)
	}

	return &grading.Evaluation{
		Scores:     scores,
		TotalScore: total,
		Strengths:  []string{"Clear structure"},
		KeyIssues:  []string{"Needs more evidence"},
		Summary:    "Competent analysis with room to grow",
	}, nil
}

// GradingFlowSetup wires real repositories and services against a containerized
// PostgreSQL database, with the Google and Gemini edges stubbed out.
type GradingFlowSetup struct {
	DB *TestDB

	SectionRepo  course.SectionRepository
	AssignRepo   course.AssignmentRepository
	SessionRepo  grading.GradingSessionRepository
	DocumentRepo grading.AssignmentDocumentRepository

	Workspace *stubWorkspace

	Users       *identityapp.UserService
	Sections    *coursesvc.SectionService
	Assignments *coursesvc.AssignmentService
	Grading     *gradingsvc.GradingService
	Sessions    *gradingsvc.SessionService
	Documents   *gradingsvc.DocumentSyncService

	SectionID      uuid.UUID
	RubricFilename string
}

// NewGradingFlowSetup builds the full service stack: a section, a stored
// rubric, and a workspace holding the given documents.
func NewGradingFlowSetup(t *testing.T, documents map[string]string) *GradingFlowSetup {
	t.Helper()

	testDB := NewTestDB(t)
	logger := zap.NewNop()

	sectionRepo := persistence.NewGormSectionRepository(testDB.DB)
	assignRepo := persistence.NewGormAssignmentRepository(testDB.DB)
	sessionRepo := persistence.NewGormGradingSessionRepository(testDB.DB)
	documentRepo := persistence.NewGormAssignmentDocumentRepository(testDB.DB)
	userRepo := persistence.NewGormUserRepository(testDB.DB)

	rubricStore := storage.NewFileRubricStore(t.TempDir(), logger)
	workspace := newStubWorkspace(documents)
	grader := &stubGrader{}

	users := identityapp.NewUserService(userRepo, logger)
	sections := coursesvc.NewSectionService(sectionRepo, users)
	assignments := coursesvc.NewAssignmentService(assignRepo, sectionRepo, sessionRepo, users)
	sessions := gradingsvc.NewSessionService(sessionRepo, documentRepo, assignRepo, sectionRepo, rubricStore, workspace, users, logger)
	gradingService := gradingsvc.NewGradingService(assignRepo, documentRepo, rubricStore, workspace, grader, sessions, logger)
	docSync := gradingsvc.NewDocumentSyncService(documentRepo, sessionRepo, assignRepo, workspace, logger)

	ctx := context.Background()

	section, err := course.NewSection("900", "")
	require.NoError(t, err)
	require.NoError(t, sectionRepo.Save(ctx, section))

	r := &rubric.Rubric{
		Name:        "Case Analysis Rubric",
		TotalPoints: decimal.NewFromInt(100),
		Criteria: []rubric.Criterion{
			{Name: "Analysis", MaxPoints: decimal.NewFromInt(60), Description: "Depth of analysis"},
			{Name: "Writing", MaxPoints: decimal.NewFromInt(40), Description: "Clarity of writing"},
		},
	}
	rubricFilename := "case_analysis_rubric.json"
	require.NoError(t, rubricStore.Save(ctx, rubricFilename, r))

	return &GradingFlowSetup{
		DB:             testDB,
		SectionRepo:    sectionRepo,
		AssignRepo:     assignRepo,
		SessionRepo:    sessionRepo,
		DocumentRepo:   documentRepo,
		Workspace:      workspace,
		Users:          users,
		Sections:       sections,
		Assignments:    assignments,
		Grading:        gradingService,
		Sessions:       sessions,
		Documents:      docSync,
		SectionID:      section.ID,
		RubricFilename: rubricFilename,
	}
}

// createAssignment provisions an active assignment owned by the professor
func (s *GradingFlowSetup) createAssignment(t *testing.T, name string) uuid.UUID {
	t.Helper()

	ref, err := s.Assignments.Create(context.Background(), s.SectionID, coursesvc.CreateAssignmentRequest{
		Name:           name,
		RubricFilename: s.RubricFilename,
		DriveFolderID:  "folder-1",
		Status:         "active",
		UserEmail:      "prof@busn403.edu",
		UserName:       "Test Professor",
		UserRole:       "professor",
	})
	require.NoError(t, err)
	return ref.ID
}

func TestGradingFlow_BatchGradeAndApprove(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewGradingFlowSetup(t, map[string]string{
		"doc-1": "Alice's case analysis of the merger proposal.",
		"doc-2": "Bob's case analysis of the merger proposal.",
	})
	ctx := context.Background()

	assignmentID := setup.createAssignment(t, "Case Study 1")

	// Pull the folder listing so document records exist before grading
	listing, err := setup.Documents.ListForAssignment(ctx, assignmentID)
	require.NoError(t, err)
	assert.True(t, listing.DriveSynced)
	require.Len(t, listing.Documents, 2)

	// Grade the batch
	batch, err := setup.Grading.GradeBatch(ctx, gradingsvc.GradeBatchInput{
		AssignmentID: assignmentID,
		DocIDs:       []string{"doc-1", "doc-2"},
		UserEmail:    "ta@busn403.edu",
		UserName:     "Test TA",
		UserRole:     "ta",
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)
	for _, result := range batch.Results {
		assert.True(t, result.Success)
		assert.Equal(t, "85", result.TotalScore.String())
	}

	// The session is stored pending review and the documents follow
	stored, err := setup.SessionRepo.FindByID(ctx, batch.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.IsPending())

	docs, err := setup.DocumentRepo.FindByStatus(ctx, assignmentID, grading.DocumentStatusPendingReview)
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	// Approve the session
	approval, err := setup.Sessions.Approve(ctx, gradingsvc.ReviewSessionInput{
		SessionID:   batch.SessionID,
		ReviewNotes: "Scores verified",
		UserEmail:   "prof@busn403.edu",
		UserName:    "Test Professor",
		UserRole:    "professor",
	})
	require.NoError(t, err)
	require.Len(t, approval.SyncResults, 2)
	for _, sync := range approval.SyncResults {
		assert.True(t, sync.Success)
	}

	// Feedback was written into both documents
	assert.ElementsMatch(t, []string{"doc-1", "doc-2"}, setup.Workspace.syncedDocs())

	// Session and documents are finalized
	approved, err := setup.SessionRepo.FindByID(ctx, batch.SessionID)
	require.NoError(t, err)
	assert.Equal(t, grading.SessionStatusApproved, approved.Status)
	assert.Equal(t, "Scores verified", approved.ReviewNotes)
	require.NotNil(t, approved.ReviewedByID)

	reviewed, err := setup.DocumentRepo.FindByStatus(ctx, assignmentID, grading.DocumentStatusReviewed)
	require.NoError(t, err)
	assert.Len(t, reviewed, 2)

	// The review attributes resolve to the provisioned users
	detail, err := setup.Sessions.Get(ctx, batch.SessionID)
	require.NoError(t, err)
	assert.Equal(t, "ta@busn403.edu", detail.GradedBy.Email)
	require.NotNil(t, detail.ReviewedBy)
	assert.Equal(t, "prof@busn403.edu", detail.ReviewedBy.Email)
	require.NotNil(t, detail.Rubric)
	assert.Equal(t, "Case Analysis Rubric", detail.Rubric.Name)
}

func TestGradingFlow_RejectReturnsDocumentsToQueue(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewGradingFlowSetup(t, map[string]string{
		"doc-1": "A first draft that needs a regrade.",
	})
	ctx := context.Background()

	assignmentID := setup.createAssignment(t, "Memo 1")

	_, err := setup.Documents.ListForAssignment(ctx, assignmentID)
	require.NoError(t, err)

	batch, err := setup.Grading.GradeBatch(ctx, gradingsvc.GradeBatchInput{
		AssignmentID: assignmentID,
		DocIDs:       []string{"doc-1"},
	})
	require.NoError(t, err)

	_, err = setup.Sessions.Reject(ctx, gradingsvc.ReviewSessionInput{
		SessionID:   batch.SessionID,
		ReviewNotes: "Rubric was outdated, rerun",
		UserEmail:   "prof@busn403.edu",
	})
	require.NoError(t, err)

	// No feedback reached the document
	assert.Empty(t, setup.Workspace.syncedDocs())

	rejected, err := setup.SessionRepo.FindByID(ctx, batch.SessionID)
	require.NoError(t, err)
	assert.Equal(t, grading.SessionStatusRejected, rejected.Status)

	// The document is back in the grading queue
	ungraded, err := setup.DocumentRepo.FindByStatus(ctx, assignmentID, grading.DocumentStatusUngraded)
	require.NoError(t, err)
	assert.Len(t, ungraded, 1)
}

func TestGradingFlow_EmptyDocumentFailsWithoutAbortingBatch(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewGradingFlowSetup(t, map[string]string{
		"doc-1": "A complete submission.",
		"doc-2": "",
	})
	ctx := context.Background()

	assignmentID := setup.createAssignment(t, "Case Study 2")

	_, err := setup.Documents.ListForAssignment(ctx, assignmentID)
	require.NoError(t, err)

	batch, err := setup.Grading.GradeBatch(ctx, gradingsvc.GradeBatchInput{
		AssignmentID: assignmentID,
		DocIDs:       []string{"doc-1", "doc-2"},
	})
	require.NoError(t, err)
	require.Len(t, batch.Results, 2)

	assert.True(t, batch.Results[0].Success)
	assert.False(t, batch.Results[1].Success)
	assert.Equal(t, "Document appears to be empty or could not extract text", batch.Results[1].Error)

	// The failed document still lands in the session pending review
	stored, err := setup.SessionRepo.FindByID(ctx, batch.SessionID)
	require.NoError(t, err)
	assert.True(t, stored.IsPending())
	assert.Len(t, stored.Results, 2)
}

func TestGradingFlow_SectionSeedIsIdempotent(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := NewGradingFlowSetup(t, nil)
	ctx := context.Background()

	require.NoError(t, setup.Sections.SeedDefaults(ctx))
	require.NoError(t, setup.Sections.SeedDefaults(ctx))

	sections, err := setup.Sections.List(ctx)
	require.NoError(t, err)

	// The fixture section "900" plus the seeded "901" and "902"
	numbers := make([]string, 0, len(sections))
	for _, s := range sections {
		numbers = append(numbers, s.SectionNumber)
	}
	assert.ElementsMatch(t, []string{"900", "901", "902"}, numbers)

	admin, err := setup.Users.GetOrCreateByEmail(ctx, identityapp.DefaultOperatorEmail, "", identity.RoleProfessor)
	require.NoError(t, err)
	assert.Equal(t, identityapp.DefaultOperatorEmail, admin.Email)
}
