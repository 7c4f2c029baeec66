package rubric

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/gradeflow/backend/internal/infrastructure/docx"
	"go.uber.org/zap"
)

// contentTypes maps upload extensions to the content type stored alongside
// the original file
var contentTypes = map[string]string{
	".json": "application/json",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".doc":  "application/msword",
}

// RubricService manages rubric templates: uploading JSON or Word rubrics,
// listing and loading stored templates, and serving the originally uploaded
// files back to the client.
type RubricService struct {
	store     rubric.RubricStore
	originals ObjectStorage
	parser    rubric.Parser
	logger    *zap.Logger

	eventPublisher shared.EventPublisher
	now            func() time.Time
}

// NewRubricService creates a new rubric service
func NewRubricService(store rubric.RubricStore, originals ObjectStorage, parser rubric.Parser, logger *zap.Logger) *RubricService {
	return &RubricService{
		store:     store,
		originals: originals,
		parser:    parser,
		logger:    logger,
		now:       time.Now,
	}
}

// SetEventPublisher sets the event publisher for domain events
func (s *RubricService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// List returns every stored rubric template
func (s *RubricService) List(ctx context.Context) ([]RubricInfo, error) {
	stored, err := s.store.List(ctx)
	if err != nil {
		s.logger.Error("Failed to list rubrics", zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list rubrics")
	}

	infos := make([]RubricInfo, len(stored))
	for i, sr := range stored {
		infos[i] = ToRubricInfo(sr)
	}
	return infos, nil
}

// Get loads one rubric template by filename
func (s *RubricService) Get(ctx context.Context, filename string) (*rubric.Rubric, error) {
	if err := rubric.ValidateStoredFilename(filename); err != nil {
		return nil, err
	}

	r, err := s.store.Load(ctx, filename)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Rubric not found: %s", filename))
		}
		s.logger.Error("Failed to load rubric", zap.String("filename", filename), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load rubric")
	}
	return r, nil
}

// Upload stores an uploaded rubric. JSON files are taken as-is; Word
// documents have their text extracted and parsed into a rubric by the model.
// Every rubric is validated before it is stored, and the original file is
// kept alongside the derived JSON.
func (s *RubricService) Upload(ctx context.Context, input UploadRubricInput) (*UploadRubricResult, error) {
	if strings.TrimSpace(input.Filename) == "" {
		return nil, shared.NewDomainError("INVALID_INPUT", "No file provided")
	}
	if len(input.Content) == 0 {
		return nil, shared.NewDomainError("INVALID_INPUT", "Uploaded file is empty")
	}

	ext := strings.ToLower(filepath.Ext(input.Filename))
	if ext == ".pdf" {
		return nil, shared.NewDomainError("INVALID_INPUT",
			"PDF rubrics are not supported. Please upload a JSON or Word (.docx) file")
	}
	if !AllowedUploadExtensions[ext] {
		return nil, shared.NewDomainError("INVALID_INPUT",
			fmt.Sprintf("Unsupported file type: %s. Allowed types: .json, .docx, .doc", ext))
	}

	r, err := s.parseUpload(ctx, ext, input.Content)
	if err != nil {
		return nil, err
	}
	if err := r.ValidateAndNormalize(); err != nil {
		return nil, err
	}

	filename := r.StoredFilename(s.now())
	r.OriginalFilename = filepath.Base(input.Filename)
	r.OriginalExtension = ext

	// The original file is best-effort context for reviewers; losing it does
	// not invalidate the parsed rubric.
	key := strings.TrimSuffix(filename, ".json") + ext
	if err := s.originals.Upload(ctx, key, input.Content, contentTypes[ext]); err != nil {
		s.logger.Warn("Failed to store rubric original",
			zap.String("key", key),
			zap.Error(err))
	} else {
		r.OriginalObjectKey = key
	}

	if err := s.store.Save(ctx, filename, r); err != nil {
		s.logger.Error("Failed to save rubric", zap.String("filename", filename), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to save rubric")
	}

	if s.eventPublisher != nil {
		_ = s.eventPublisher.Publish(ctx, rubric.NewRubricUploadedEvent(r, filename))
	}

	s.logger.Info("Rubric uploaded",
		zap.String("filename", filename),
		zap.String("name", r.Name),
		zap.Int("criteria", len(r.Criteria)))

	return &UploadRubricResult{
		Filename: filename,
		Rubric:   r,
		Message:  "Rubric uploaded successfully",
	}, nil
}

// Delete removes a rubric template and its stored original
func (s *RubricService) Delete(ctx context.Context, filename string) error {
	if err := rubric.ValidateStoredFilename(filename); err != nil {
		return err
	}

	r, err := s.store.Load(ctx, filename)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.NewDomainError("NOT_FOUND", fmt.Sprintf("Rubric not found: %s", filename))
		}
		s.logger.Error("Failed to load rubric", zap.String("filename", filename), zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete rubric")
	}

	if r.OriginalObjectKey != "" {
		if err := s.originals.Delete(ctx, r.OriginalObjectKey); err != nil && !errors.Is(err, shared.ErrNotFound) {
			s.logger.Warn("Failed to delete rubric original",
				zap.String("key", r.OriginalObjectKey),
				zap.Error(err))
		}
	}

	if err := s.store.Delete(ctx, filename); err != nil {
		s.logger.Error("Failed to delete rubric", zap.String("filename", filename), zap.Error(err))
		return shared.NewDomainError("INTERNAL_ERROR", "Failed to delete rubric")
	}

	s.logger.Info("Rubric deleted", zap.String("filename", filename))
	return nil
}

// GetOriginal streams back the file a rubric was uploaded as
func (s *RubricService) GetOriginal(ctx context.Context, filename string) (*OriginalFile, error) {
	r, err := s.Get(ctx, filename)
	if err != nil {
		return nil, err
	}
	if r.OriginalObjectKey == "" {
		return nil, shared.NewDomainError("NOT_FOUND", "No original file stored for this rubric")
	}

	content, contentType, err := s.originals.Download(ctx, r.OriginalObjectKey)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Original file no longer exists")
		}
		s.logger.Error("Failed to download rubric original",
			zap.String("key", r.OriginalObjectKey),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load original file")
	}

	name := r.OriginalFilename
	if name == "" {
		name = r.OriginalObjectKey
	}
	if contentType == "" {
		contentType = contentTypes[r.OriginalExtension]
	}

	return &OriginalFile{Filename: name, ContentType: contentType, Content: content}, nil
}

// parseUpload turns the uploaded bytes into a rubric: JSON decodes directly,
// Word documents go through text extraction and the model parser
func (s *RubricService) parseUpload(ctx context.Context, ext string, content []byte) (*rubric.Rubric, error) {
	if ext == ".json" {
		var r rubric.Rubric
		dec := json.NewDecoder(bytes.NewReader(content))
		if err := dec.Decode(&r); err != nil {
			return nil, shared.NewDomainError("INVALID_INPUT", "Rubric file is not valid JSON")
		}
		return &r, nil
	}

	text, err := docx.ExtractText(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		if errors.Is(err, docx.ErrInvalidDocument) {
			// Legacy binary .doc files are not OOXML archives.
			return nil, shared.NewDomainError("INVALID_INPUT",
				"Could not read the Word document. Legacy .doc files should be re-saved as .docx")
		}
		if errors.Is(err, docx.ErrEmptyDocument) {
			return nil, shared.NewDomainError("INVALID_INPUT", "The Word document contains no text")
		}
		s.logger.Error("Word text extraction failed", zap.Error(err))
		return nil, shared.NewDomainError("INVALID_INPUT", "Could not read the Word document")
	}

	r, err := s.parser.ParseDocumentText(ctx, text)
	if err != nil {
		if errors.Is(err, rubric.ErrParserNotConfigured) {
			return nil, shared.NewDomainError("EXTERNAL_SERVICE",
				"Word rubric parsing requires a configured Gemini API key")
		}
		if errors.Is(err, rubric.ErrUnparseableDocument) {
			return nil, shared.NewDomainError("INVALID_INPUT",
				"Could not extract a rubric from the document. Check that it lists criteria with point values")
		}
		s.logger.Error("Rubric parsing failed", zap.Error(err))
		return nil, shared.NewDomainError("EXTERNAL_SERVICE", "Failed to parse the rubric document")
	}
	return r, nil
}
