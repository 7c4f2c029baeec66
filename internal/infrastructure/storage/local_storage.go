package storage

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	rubricapp "github.com/gradeflow/backend/internal/application/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
)

// Ensure LocalObjectStorage implements ObjectStorage
var _ rubricapp.ObjectStorage = (*LocalObjectStorage)(nil)

// LocalObjectStorage implements ObjectStorage on the local filesystem. It is
// the default backend: uploaded rubric originals land in a directory next to
// the rubric templates, no external storage service needed.
type LocalObjectStorage struct {
	baseDir string
}

// NewLocalObjectStorage creates a LocalObjectStorage rooted at baseDir,
// creating the directory if it does not exist.
func NewLocalObjectStorage(baseDir string) (*LocalObjectStorage, error) {
	if baseDir == "" {
		return nil, errors.New("storage directory is required")
	}
	if err := os.MkdirAll(baseDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalObjectStorage{baseDir: baseDir}, nil
}

// resolve maps an object key to a path under baseDir, rejecting keys that
// would escape it.
func (l *LocalObjectStorage) resolve(key string) (string, error) {
	if key == "" {
		return "", errors.New("storage key is required")
	}
	cleaned := filepath.Clean(filepath.FromSlash(key))
	if filepath.IsAbs(cleaned) || cleaned == ".." || strings.HasPrefix(cleaned, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid storage key: %s", key)
	}
	return filepath.Join(l.baseDir, cleaned), nil
}

// Upload writes an object to disk. The content type is not persisted; it is
// derived from the key's extension on download.
func (l *LocalObjectStorage) Upload(ctx context.Context, key string, data []byte, contentType string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create object directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write object: %w", err)
	}
	return nil
}

// Download reads an object from disk.
// Returns shared.ErrNotFound when no object is stored under the key.
func (l *LocalObjectStorage) Download(ctx context.Context, key string) ([]byte, string, error) {
	path, err := l.resolve(key)
	if err != nil {
		return nil, "", err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, "", shared.ErrNotFound
		}
		return nil, "", fmt.Errorf("failed to read object: %w", err)
	}
	return data, ContentTypeForKey(key), nil
}

// Delete removes an object. Deleting a missing key succeeds, matching the
// S3 backend.
func (l *LocalObjectStorage) Delete(ctx context.Context, key string) error {
	path, err := l.resolve(key)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to delete object: %w", err)
	}
	return nil
}

// Exists checks whether an object is stored under the given key.
func (l *LocalObjectStorage) Exists(ctx context.Context, key string) (bool, error) {
	path, err := l.resolve(key)
	if err != nil {
		return false, err
	}
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat object: %w", err)
	}
	return true, nil
}

// ContentTypeForKey derives a content type from an object key's extension.
// Rubric originals are JSON or Word documents; anything else falls back to
// a generic binary type.
func ContentTypeForKey(key string) string {
	switch strings.ToLower(filepath.Ext(key)) {
	case ".json":
		return "application/json"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".doc":
		return "application/msword"
	case ".txt":
		return "text/plain"
	default:
		return "application/octet-stream"
	}
}
