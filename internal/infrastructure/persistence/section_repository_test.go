package persistence

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/gradeflow/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSectionTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.AutoMigrate(&models.SectionModel{}, &models.AssignmentModel{})
	require.NoError(t, err)

	return db
}

func createTestSection(t *testing.T, number string) *course.Section {
	t.Helper()

	section, err := course.NewSection(number, "")
	require.NoError(t, err)
	return section
}

func TestGormSectionRepository_SaveAndFind(t *testing.T) {
	db := setupSectionTestDB(t)
	repo := NewGormSectionRepository(db)
	ctx := context.Background()

	t.Run("saves and finds section by ID", func(t *testing.T) {
		section := createTestSection(t, "900")
		require.NoError(t, repo.Save(ctx, section))

		found, err := repo.FindByID(ctx, section.ID)
		require.NoError(t, err)
		assert.Equal(t, "900", found.SectionNumber)
		assert.Equal(t, course.DefaultCourseCode, found.CourseCode)
	})

	t.Run("finds section by number", func(t *testing.T) {
		section := createTestSection(t, "901")
		require.NoError(t, repo.Save(ctx, section))

		found, err := repo.FindBySectionNumber(ctx, "901")
		require.NoError(t, err)
		assert.Equal(t, section.ID, found.ID)
	})

	t.Run("returns not found for unknown section number", func(t *testing.T) {
		_, err := repo.FindBySectionNumber(ctx, "999")
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSectionRepository_FindAll(t *testing.T) {
	db := setupSectionTestDB(t)
	repo := NewGormSectionRepository(db)
	ctx := context.Background()

	for _, number := range []string{"902", "900", "901"} {
		require.NoError(t, repo.Save(ctx, createTestSection(t, number)))
	}

	t.Run("returns sections ordered by number by default", func(t *testing.T) {
		sections, err := repo.FindAll(ctx, shared.Filter{Page: 1, PageSize: 20})
		require.NoError(t, err)
		require.Len(t, sections, 3)
		assert.Equal(t, "900", sections[0].SectionNumber)
		assert.Equal(t, "901", sections[1].SectionNumber)
		assert.Equal(t, "902", sections[2].SectionNumber)
	})

	t.Run("counts sections", func(t *testing.T) {
		count, err := repo.Count(ctx, shared.DefaultFilter())
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)
	})
}

func TestGormSectionRepository_ExistsBySectionNumber(t *testing.T) {
	db := setupSectionTestDB(t)
	repo := NewGormSectionRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Save(ctx, createTestSection(t, "900")))

	t.Run("returns true when taken", func(t *testing.T) {
		exists, err := repo.ExistsBySectionNumber(ctx, "900")
		require.NoError(t, err)
		assert.True(t, exists)
	})

	t.Run("returns false when free", func(t *testing.T) {
		exists, err := repo.ExistsBySectionNumber(ctx, "903")
		require.NoError(t, err)
		assert.False(t, exists)
	})
}

func TestGormSectionRepository_CountAssignments(t *testing.T) {
	db := setupSectionTestDB(t)
	repo := NewGormSectionRepository(db)
	assignmentRepo := NewGormAssignmentRepository(db)
	ctx := context.Background()

	section := createTestSection(t, "900")
	require.NoError(t, repo.Save(ctx, section))

	creatorID := uuid.New()
	for _, name := range []string{"Memo 1", "Memo 2"} {
		assignment, err := course.NewAssignment(section.ID, name, creatorID)
		require.NoError(t, err)
		require.NoError(t, assignmentRepo.Save(ctx, assignment))
	}

	count, err := repo.CountAssignments(ctx, section.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), count)

	count, err = repo.CountAssignments(ctx, uuid.New())
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)
}

func TestGormSectionRepository_Delete(t *testing.T) {
	db := setupSectionTestDB(t)
	repo := NewGormSectionRepository(db)
	ctx := context.Background()

	t.Run("deletes existing section", func(t *testing.T) {
		section := createTestSection(t, "900")
		require.NoError(t, repo.Save(ctx, section))

		require.NoError(t, repo.Delete(ctx, section.ID))

		_, err := repo.FindByID(ctx, section.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("returns not found for unknown section", func(t *testing.T) {
		err := repo.Delete(ctx, uuid.New())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
