package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRubric(name string) *rubric.Rubric {
	return &rubric.Rubric{
		Name:        name,
		TotalPoints: decimal.NewFromInt(100),
		Criteria: []rubric.Criterion{
			{Name: "Thesis", MaxPoints: decimal.NewFromInt(40), Description: "Clarity of the thesis"},
			{Name: "Evidence", MaxPoints: decimal.NewFromInt(60), Description: "Use of supporting evidence"},
		},
	}
}

func newTestRubricStore(t *testing.T) (*FileRubricStore, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "rubrics")
	return NewFileRubricStore(dir, zap.NewNop()), dir
}

func TestFileRubricStore_SaveAndLoad(t *testing.T) {
	store, _ := newTestRubricStore(t)
	ctx := context.Background()

	saved := newTestRubric("Essay Rubric")
	saved.OriginalFilename = "Essay Rubric.docx"
	saved.OriginalExtension = ".docx"
	saved.OriginalObjectKey = "rubric-originals/essay_rubric.docx"

	require.NoError(t, store.Save(ctx, "essay_rubric_20260312_141500.json", saved))

	loaded, err := store.Load(ctx, "essay_rubric_20260312_141500.json")
	require.NoError(t, err)
	assert.Equal(t, "Essay Rubric", loaded.Name)
	assert.True(t, loaded.TotalPoints.Equal(decimal.NewFromInt(100)))
	require.Len(t, loaded.Criteria, 2)
	assert.Equal(t, "Thesis", loaded.Criteria[0].Name)
	assert.True(t, loaded.Criteria[0].MaxPoints.Equal(decimal.NewFromInt(40)))
	assert.Equal(t, "Essay Rubric.docx", loaded.OriginalFilename)
	assert.Equal(t, ".docx", loaded.OriginalExtension)
	assert.Equal(t, "rubric-originals/essay_rubric.docx", loaded.OriginalObjectKey)
}

func TestFileRubricStore_Load_NotFound(t *testing.T) {
	store, _ := newTestRubricStore(t)

	_, err := store.Load(context.Background(), "missing.json")
	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrNotFound)
}

func TestFileRubricStore_RejectsBadFilenames(t *testing.T) {
	store, _ := newTestRubricStore(t)
	ctx := context.Background()

	badNames := []string{
		"",
		"../../../etc/passwd",
		"sub/dir.json",
		"rubric.txt",
		"rubric.docx",
	}

	for _, name := range badNames {
		_, err := store.Load(ctx, name)
		assert.Error(t, err, "Load should reject %q", name)

		err = store.Save(ctx, name, newTestRubric("X"))
		assert.Error(t, err, "Save should reject %q", name)

		err = store.Delete(ctx, name)
		assert.Error(t, err, "Delete should reject %q", name)
	}
}

func TestFileRubricStore_Save_NilRubric(t *testing.T) {
	store, _ := newTestRubricStore(t)

	err := store.Save(context.Background(), "nil.json", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "rubric is required")
}

func TestFileRubricStore_List(t *testing.T) {
	ctx := context.Background()

	t.Run("missing directory lists empty", func(t *testing.T) {
		store, _ := newTestRubricStore(t)
		stored, err := store.List(ctx)
		require.NoError(t, err)
		assert.Empty(t, stored)
	})

	t.Run("lists templates in filename order", func(t *testing.T) {
		store, _ := newTestRubricStore(t)
		require.NoError(t, store.Save(ctx, "b_rubric.json", newTestRubric("B Rubric")))
		require.NoError(t, store.Save(ctx, "a_rubric.json", newTestRubric("A Rubric")))

		stored, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 2)
		assert.Equal(t, "a_rubric.json", stored[0].Filename)
		assert.Equal(t, "A Rubric", stored[0].Rubric.Name)
		assert.Equal(t, "b_rubric.json", stored[1].Filename)
	})

	t.Run("skips corrupt and non-json files", func(t *testing.T) {
		store, dir := newTestRubricStore(t)
		require.NoError(t, store.Save(ctx, "good.json", newTestRubric("Good")))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "corrupt.json"), []byte("{not json"), 0o644))
		require.NoError(t, os.WriteFile(filepath.Join(dir, "readme.txt"), []byte("ignore me"), 0o644))

		stored, err := store.List(ctx)
		require.NoError(t, err)
		require.Len(t, stored, 1)
		assert.Equal(t, "good.json", stored[0].Filename)
	})
}

func TestFileRubricStore_Delete(t *testing.T) {
	store, _ := newTestRubricStore(t)
	ctx := context.Background()

	t.Run("removes stored template", func(t *testing.T) {
		require.NoError(t, store.Save(ctx, "to_delete.json", newTestRubric("Doomed")))
		require.NoError(t, store.Delete(ctx, "to_delete.json"))

		exists, err := store.Exists(ctx, "to_delete.json")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("missing template returns not found", func(t *testing.T) {
		err := store.Delete(ctx, "never_saved.json")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestFileRubricStore_Exists(t *testing.T) {
	store, _ := newTestRubricStore(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "nope.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Save(ctx, "yep.json", newTestRubric("Yep")))

	exists, err = store.Exists(ctx, "yep.json")
	require.NoError(t, err)
	assert.True(t, exists)
}
