package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Ensure FileRubricStore implements RubricStore
var _ rubric.RubricStore = (*FileRubricStore)(nil)

// FileRubricStore implements rubric.RubricStore with one JSON file per
// template in a flat directory. Templates stay human-editable on disk.
type FileRubricStore struct {
	dir    string
	logger *zap.Logger
}

// NewFileRubricStore creates a FileRubricStore over dir. The directory is
// created lazily on the first save.
func NewFileRubricStore(dir string, logger *zap.Logger) *FileRubricStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FileRubricStore{dir: dir, logger: logger}
}

// List loads every stored rubric template in filename order. Files that fail
// to parse are skipped with a warning so one corrupt template cannot break
// the whole listing.
func (s *FileRubricStore) List(ctx context.Context) ([]rubric.StoredRubric, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return []rubric.StoredRubric{}, nil
		}
		return nil, fmt.Errorf("failed to read rubric directory: %w", err)
	}

	stored := make([]rubric.StoredRubric, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		r, err := s.Load(ctx, entry.Name())
		if err != nil {
			s.logger.Warn("Skipping unreadable rubric template",
				zap.String("filename", entry.Name()),
				zap.Error(err))
			continue
		}
		stored = append(stored, rubric.StoredRubric{Filename: entry.Name(), Rubric: *r})
	}

	return stored, nil
}

// Load loads a rubric template by filename.
// Returns shared.ErrNotFound when no template is stored under the filename.
func (s *FileRubricStore) Load(ctx context.Context, filename string) (*rubric.Rubric, error) {
	if err := rubric.ValidateStoredFilename(filename); err != nil {
		return nil, err
	}

	data, err := os.ReadFile(filepath.Join(s.dir, filename))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to read rubric template: %w", err)
	}

	var r rubric.Rubric
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("failed to parse rubric template %s: %w", filename, err)
	}

	return &r, nil
}

// Save persists a rubric template as indented JSON under the given filename.
func (s *FileRubricStore) Save(ctx context.Context, filename string, r *rubric.Rubric) error {
	if err := rubric.ValidateStoredFilename(filename); err != nil {
		return err
	}
	if r == nil {
		return errors.New("rubric is required")
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create rubric directory: %w", err)
	}

	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode rubric template: %w", err)
	}

	if err := os.WriteFile(filepath.Join(s.dir, filename), data, 0o644); err != nil {
		return fmt.Errorf("failed to write rubric template: %w", err)
	}

	return nil
}

// Delete removes a rubric template.
// Returns shared.ErrNotFound when no template is stored under the filename.
func (s *FileRubricStore) Delete(ctx context.Context, filename string) error {
	if err := rubric.ValidateStoredFilename(filename); err != nil {
		return err
	}

	if err := os.Remove(filepath.Join(s.dir, filename)); err != nil {
		if os.IsNotExist(err) {
			return shared.ErrNotFound
		}
		return fmt.Errorf("failed to delete rubric template: %w", err)
	}

	return nil
}

// Exists checks whether a rubric template is stored under the filename.
func (s *FileRubricStore) Exists(ctx context.Context, filename string) (bool, error) {
	if err := rubric.ValidateStoredFilename(filename); err != nil {
		return false, err
	}

	if _, err := os.Stat(filepath.Join(s.dir, filename)); err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to stat rubric template: %w", err)
	}

	return true, nil
}
