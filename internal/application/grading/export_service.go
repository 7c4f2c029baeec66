package grading

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// utf8BOM makes spreadsheet tools detect the encoding of the download
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExportService renders an assignment's latest results as a CSV download
type ExportService struct {
	assignmentRepo course.AssignmentRepository
	documentRepo   grading.AssignmentDocumentRepository
	sessionRepo    grading.GradingSessionRepository
	rubricStore    rubric.RubricStore
	logger         *zap.Logger
}

// NewExportService creates a new export service
func NewExportService(
	assignmentRepo course.AssignmentRepository,
	documentRepo grading.AssignmentDocumentRepository,
	sessionRepo grading.GradingSessionRepository,
	rubricStore rubric.RubricStore,
	logger *zap.Logger,
) *ExportService {
	return &ExportService{
		assignmentRepo: assignmentRepo,
		documentRepo:   documentRepo,
		sessionRepo:    sessionRepo,
		rubricStore:    rubricStore,
		logger:         logger,
	}
}

// ExportCSV builds the results export for an assignment: one row per document
// with its status, total, and per-criterion scores from the newest session
// claiming it. Ungraded documents export with empty score cells.
func (s *ExportService) ExportCSV(ctx context.Context, assignmentID uuid.UUID) (*CSVExport, error) {
	assignment, err := s.assignmentRepo.FindByID(ctx, assignmentID)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.NewDomainError("NOT_FOUND", "Assignment not found")
		}
		s.logger.Error("Failed to load assignment", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to load assignment")
	}

	var criteria []rubric.Criterion
	if assignment.HasRubric() {
		r, loadErr := s.rubricStore.Load(ctx, assignment.RubricFilename)
		if loadErr != nil {
			s.logger.Warn("Could not load rubric for export",
				zap.String("rubric", assignment.RubricFilename),
				zap.Error(loadErr))
		} else {
			criteria = r.Criteria
		}
	}

	docs, err := s.documentRepo.FindByAssignment(ctx, assignmentID)
	if err != nil {
		s.logger.Error("Failed to list documents", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list documents")
	}

	sessions, err := s.sessionRepo.FindByAssignment(ctx, assignmentID, shared.Filter{})
	if err != nil {
		s.logger.Error("Failed to list grading sessions", zap.String("assignment_id", assignmentID.String()), zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to list grading sessions")
	}

	claims := claimResults(sessions)

	var buf bytes.Buffer
	buf.Write(utf8BOM)
	w := csv.NewWriter(&buf)

	header := []string{"Document", "Document ID", "Status", "Total Score"}
	for _, c := range criteria {
		header = append(header, c.Name)
	}
	if err := w.Write(header); err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to render export")
	}

	for i := range docs {
		doc := &docs[i]
		row := []string{doc.DocName, doc.DocID, doc.Status.String()}

		var result *grading.DocumentResult
		if claim, ok := claims[doc.DocID]; ok && claim.result != nil && claim.result.Success {
			result = claim.result
		}

		if result != nil {
			row = append(row, result.TotalScore.String())
			for _, c := range criteria {
				if score, has := result.Scores[c.Name]; has {
					row = append(row, score.String())
				} else {
					row = append(row, "")
				}
			}
		} else {
			row = append(row, "")
			for range criteria {
				row = append(row, "")
			}
		}

		if err := w.Write(row); err != nil {
			return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to render export")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to render export")
	}

	return &CSVExport{
		Filename: exportFilename(assignment.Name),
		Content:  buf.Bytes(),
	}, nil
}

// exportFilename slugs the assignment name the way rubric filenames are
// slugged: lowercase with non-alphanumerics collapsed to underscores
func exportFilename(name string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		} else {
			b.WriteRune('_')
		}
	}
	if b.Len() == 0 {
		b.WriteString("assignment")
	}
	return b.String() + "_results.csv"
}
