package storage

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestLocalStorage(t *testing.T) *LocalObjectStorage {
	t.Helper()
	store, err := NewLocalObjectStorage(filepath.Join(t.TempDir(), "originals"))
	require.NoError(t, err)
	return store
}

func TestNewLocalObjectStorage(t *testing.T) {
	t.Run("empty directory returns error", func(t *testing.T) {
		_, err := NewLocalObjectStorage("")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "directory is required")
	})

	t.Run("creates base directory", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "originals")
		_, err := NewLocalObjectStorage(dir)
		require.NoError(t, err)

		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	})
}

func TestLocalObjectStorage_UploadAndDownload(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	t.Run("round trips object content", func(t *testing.T) {
		data := []byte(`{"name":"Essay Rubric"}`)
		err := store.Upload(ctx, "essay_rubric.json", data, "application/json")
		require.NoError(t, err)

		got, contentType, err := store.Download(ctx, "essay_rubric.json")
		require.NoError(t, err)
		assert.Equal(t, data, got)
		assert.Equal(t, "application/json", contentType)
	})

	t.Run("creates nested directories for prefixed keys", func(t *testing.T) {
		err := store.Upload(ctx, "rubric-originals/essay_rubric.docx", []byte("word bytes"), "")
		require.NoError(t, err)

		got, contentType, err := store.Download(ctx, "rubric-originals/essay_rubric.docx")
		require.NoError(t, err)
		assert.Equal(t, []byte("word bytes"), got)
		assert.Equal(t, "application/vnd.openxmlformats-officedocument.wordprocessingml.document", contentType)
	})

	t.Run("missing key returns not found", func(t *testing.T) {
		_, _, err := store.Download(ctx, "missing.json")
		require.Error(t, err)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("overwrites existing object", func(t *testing.T) {
		require.NoError(t, store.Upload(ctx, "dup.json", []byte("v1"), "application/json"))
		require.NoError(t, store.Upload(ctx, "dup.json", []byte("v2"), "application/json"))

		got, _, err := store.Download(ctx, "dup.json")
		require.NoError(t, err)
		assert.Equal(t, []byte("v2"), got)
	})
}

func TestLocalObjectStorage_Delete(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	t.Run("removes object", func(t *testing.T) {
		require.NoError(t, store.Upload(ctx, "gone.json", []byte("{}"), "application/json"))
		require.NoError(t, store.Delete(ctx, "gone.json"))

		exists, err := store.Exists(ctx, "gone.json")
		require.NoError(t, err)
		assert.False(t, exists)
	})

	t.Run("deleting a missing key succeeds", func(t *testing.T) {
		assert.NoError(t, store.Delete(ctx, "never-existed.json"))
	})
}

func TestLocalObjectStorage_Exists(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	exists, err := store.Exists(ctx, "nope.json")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, store.Upload(ctx, "yep.json", []byte("{}"), "application/json"))

	exists, err = store.Exists(ctx, "yep.json")
	require.NoError(t, err)
	assert.True(t, exists)
}

func TestLocalObjectStorage_RejectsEscapingKeys(t *testing.T) {
	store := newTestLocalStorage(t)
	ctx := context.Background()

	keys := []string{
		"",
		"..",
		"../outside.json",
		"prefix/../../outside.json",
		"/etc/passwd",
	}

	for _, key := range keys {
		err := store.Upload(ctx, key, []byte("x"), "text/plain")
		assert.Error(t, err, "key %q should be rejected", key)

		_, _, err = store.Download(ctx, key)
		assert.Error(t, err, "key %q should be rejected", key)
	}
}

func TestContentTypeForKey(t *testing.T) {
	tests := []struct {
		key  string
		want string
	}{
		{"rubric.json", "application/json"},
		{"rubric-originals/essay.DOCX", "application/vnd.openxmlformats-officedocument.wordprocessingml.document"},
		{"legacy.doc", "application/msword"},
		{"notes.txt", "text/plain"},
		{"blob.bin", "application/octet-stream"},
		{"no-extension", "application/octet-stream"},
	}

	for _, tc := range tests {
		assert.Equal(t, tc.want, ContentTypeForKey(tc.key), "key %s", tc.key)
	}
}
