package rubric

import (
	"context"
)

// StoredRubric pairs a rubric with the filename it is stored under
type StoredRubric struct {
	Filename string
	Rubric   Rubric
}

// RubricStore defines the interface for rubric template persistence.
// Templates live as JSON files, not database rows.
type RubricStore interface {
	// List loads every stored rubric template
	List(ctx context.Context) ([]StoredRubric, error)

	// Load loads a rubric template by filename
	Load(ctx context.Context, filename string) (*Rubric, error)

	// Save persists a rubric template under the given filename
	Save(ctx context.Context, filename string, r *Rubric) error

	// Delete removes a rubric template
	Delete(ctx context.Context, filename string) error

	// Exists checks whether a rubric template is stored
	Exists(ctx context.Context, filename string) (bool, error)
}
