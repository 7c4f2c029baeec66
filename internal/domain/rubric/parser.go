package rubric

import (
	"context"
	"errors"
)

var (
	// ErrParserNotConfigured means no model API key is set for rubric parsing
	ErrParserNotConfigured = errors.New("rubric: parser model not configured")
	// ErrUnparseableDocument means the model could not recover a rubric from the text
	ErrUnparseableDocument = errors.New("rubric: could not extract a rubric from the document")
)

// Parser turns free-form rubric document text (tables, lists, prose) into a
// structured Rubric. The production implementation prompts Gemini at a low
// temperature; the returned rubric is validated but carries no file metadata.
type Parser interface {
	ParseDocumentText(ctx context.Context, text string) (*Rubric, error)
}
