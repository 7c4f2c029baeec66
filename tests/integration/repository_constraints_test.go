// Database constraint tests that need a real PostgreSQL instance: the unique
// indexes and foreign keys the in-memory SQLite repository tests cannot
// enforce faithfully.
package integration

import (
	"context"
	"testing"
	"time"

	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/identity"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/gradeflow/backend/internal/infrastructure/persistence"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type repoTestSetup struct {
	DB           *TestDB
	SectionRepo  *persistence.GormSectionRepository
	AssignRepo   *persistence.GormAssignmentRepository
	SessionRepo  *persistence.GormGradingSessionRepository
	DocumentRepo *persistence.GormAssignmentDocumentRepository
	UserRepo     *persistence.GormUserRepository

	Professor *identity.User
	Section   *course.Section
}

func newRepoTestSetup(t *testing.T) *repoTestSetup {
	t.Helper()

	testDB := NewTestDB(t)
	ctx := context.Background()

	setup := &repoTestSetup{
		DB:           testDB,
		SectionRepo:  persistence.NewGormSectionRepository(testDB.DB),
		AssignRepo:   persistence.NewGormAssignmentRepository(testDB.DB),
		SessionRepo:  persistence.NewGormGradingSessionRepository(testDB.DB),
		DocumentRepo: persistence.NewGormAssignmentDocumentRepository(testDB.DB),
		UserRepo:     persistence.NewGormUserRepository(testDB.DB),
	}

	professor, err := identity.NewUser("prof@busn403.edu", "Test Professor", identity.RoleProfessor)
	require.NoError(t, err)
	require.NoError(t, setup.UserRepo.Save(ctx, professor))
	setup.Professor = professor

	section, err := course.NewSection("900", "")
	require.NoError(t, err)
	require.NoError(t, setup.SectionRepo.Save(ctx, section))
	setup.Section = section

	return setup
}

func (s *repoTestSetup) createAssignment(t *testing.T, name string) *course.Assignment {
	t.Helper()

	assignment, err := course.NewAssignment(s.Section.ID, name, s.Professor.ID)
	require.NoError(t, err)
	require.NoError(t, s.AssignRepo.Save(context.Background(), assignment))
	return assignment
}

func TestSectionNumberUniqueness(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newRepoTestSetup(t)
	ctx := context.Background()

	duplicate, err := course.NewSection("900", "ACCT 301")
	require.NoError(t, err)

	err = setup.SectionRepo.Save(ctx, duplicate)
	assert.Error(t, err, "the unique index on section_number should reject a duplicate")

	exists, err := setup.SectionRepo.ExistsBySectionNumber(ctx, "900")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestUserEmailUniqueness(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newRepoTestSetup(t)
	ctx := context.Background()

	duplicate, err := identity.NewUser("prof@busn403.edu", "Another Professor", identity.RoleTA)
	require.NoError(t, err)

	err = setup.UserRepo.Save(ctx, duplicate)
	assert.Error(t, err, "the unique index on email should reject a duplicate")
}

func TestAssignmentForeignKeys(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newRepoTestSetup(t)
	ctx := context.Background()

	t.Run("rejects assignment with unknown section", func(t *testing.T) {
		orphan, err := course.NewAssignment(uuid.New(), "Orphan", setup.Professor.ID)
		require.NoError(t, err)

		assert.Error(t, setup.AssignRepo.Save(ctx, orphan))
	})

	t.Run("rejects assignment with unknown creator", func(t *testing.T) {
		orphan, err := course.NewAssignment(setup.Section.ID, "Orphan", uuid.New())
		require.NoError(t, err)

		assert.Error(t, setup.AssignRepo.Save(ctx, orphan))
	})

	t.Run("rejects deleting a section that still has assignments", func(t *testing.T) {
		setup.createAssignment(t, "Case Study 1")

		assert.Error(t, setup.SectionRepo.Delete(ctx, setup.Section.ID))
	})
}

func TestAssignmentDocumentUniquePerAssignment(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newRepoTestSetup(t)
	ctx := context.Background()
	assignment := setup.createAssignment(t, "Case Study 1")

	doc, err := grading.NewAssignmentDocument(assignment.ID, "doc-1", "Alice")
	require.NoError(t, err)
	require.NoError(t, setup.DocumentRepo.Save(ctx, doc))

	duplicate, err := grading.NewAssignmentDocument(assignment.ID, "doc-1", "Alice again")
	require.NoError(t, err)
	assert.Error(t, setup.DocumentRepo.Save(ctx, duplicate),
		"the unique index on (assignment_id, doc_id) should reject a second record")

	// The same doc ID under another assignment is fine
	other := setup.createAssignment(t, "Case Study 2")
	sameDocID, err := grading.NewAssignmentDocument(other.ID, "doc-1", "Alice")
	require.NoError(t, err)
	assert.NoError(t, setup.DocumentRepo.Save(ctx, sameDocID))
}

func TestGradingSessionResultsRoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newRepoTestSetup(t)
	ctx := context.Background()
	assignment := setup.createAssignment(t, "Case Study 1")

	fractional, err := decimal.NewFromString("87.25")
	require.NoError(t, err)

	session, err := grading.NewGradingSession(assignment.ID, setup.Professor.ID,
		[]string{"doc-1"},
		[]grading.DocumentResult{{
			DocID:      "doc-1",
			DocName:    "Alice",
			Success:    true,
			TotalScore: fractional,
			Scores: map[string]decimal.Decimal{
				"Analysis": decimal.NewFromFloat(52.25),
				"Writing":  decimal.NewFromInt(35),
			},
			Strengths:         []string{"Sharp thesis"},
			CriterionComments: map[string]string{"Analysis": "Good use of the framework"},
		}})
	require.NoError(t, err)
	require.NoError(t, setup.SessionRepo.Save(ctx, session))

	found, err := setup.SessionRepo.FindByID(ctx, session.ID)
	require.NoError(t, err)

	require.Len(t, found.Results, 1)
	result := found.Results[0]
	assert.True(t, result.TotalScore.Equal(fractional), "decimal scores survive the JSON column")
	assert.True(t, result.Scores["Analysis"].Equal(decimal.NewFromFloat(52.25)))
	assert.Equal(t, []string{"Sharp thesis"}, result.Strengths)
	assert.Equal(t, "Good use of the framework", result.CriterionComments["Analysis"])
}

func TestSessionOrderingNewestFirst(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	setup := newRepoTestSetup(t)
	ctx := context.Background()
	assignment := setup.createAssignment(t, "Case Study 1")

	var ids []uuid.UUID
	for i := 0; i < 3; i++ {
		session, err := grading.NewGradingSession(assignment.ID, setup.Professor.ID,
			[]string{"doc-1"},
			[]grading.DocumentResult{{DocID: "doc-1", Success: true, TotalScore: decimal.NewFromInt(int64(80 + i))}})
		require.NoError(t, err)
		require.NoError(t, setup.SessionRepo.Save(ctx, session))
		ids = append(ids, session.ID)
		time.Sleep(5 * time.Millisecond)
	}

	sessions, err := setup.SessionRepo.FindByAssignment(ctx, assignment.ID, shared.Filter{
		OrderBy:  "created_at",
		OrderDir: "desc",
	})
	require.NoError(t, err)
	require.Len(t, sessions, 3)
	assert.Equal(t, ids[2], sessions[0].ID)
	assert.Equal(t, ids[0], sessions[2].ID)
}
