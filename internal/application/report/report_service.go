// Package report assembles printable PDF reports for approved grading
// sessions.
package report

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/identity"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/gradeflow/backend/internal/domain/shared"
	infrareport "github.com/gradeflow/backend/internal/infrastructure/report"
)

// GeneratedReport is a rendered PDF ready to stream to the client
type GeneratedReport struct {
	Filename    string
	ContentType string
	PDF         []byte
}

// ReportService turns approved grading sessions into PDF reports
type ReportService struct {
	sessions    grading.GradingSessionRepository
	assignments course.AssignmentRepository
	sections    course.SectionRepository
	users       identity.UserRepository
	rubrics     rubric.RubricStore
	engine      *infrareport.TemplateEngine
	renderer    infrareport.PDFRenderer
	logger      *zap.Logger
	now         func() time.Time
}

// NewReportService creates a new report service
func NewReportService(
	sessions grading.GradingSessionRepository,
	assignments course.AssignmentRepository,
	sections course.SectionRepository,
	users identity.UserRepository,
	rubrics rubric.RubricStore,
	engine *infrareport.TemplateEngine,
	renderer infrareport.PDFRenderer,
	logger *zap.Logger,
) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ReportService{
		sessions:    sessions,
		assignments: assignments,
		sections:    sections,
		users:       users,
		rubrics:     rubrics,
		engine:      engine,
		renderer:    renderer,
		logger:      logger,
		now:         time.Now,
	}
}

// Generate renders the PDF report for an approved session. Pending and
// rejected sessions cannot be reported on.
func (s *ReportService) Generate(ctx context.Context, sessionID uuid.UUID) (*GeneratedReport, error) {
	session, err := s.sessions.FindByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != grading.SessionStatusApproved {
		return nil, shared.NewDomainError("INVALID_STATE",
			fmt.Sprintf("Reports are only available for approved sessions, this one is %s", session.Status))
	}

	assignment, err := s.assignments.FindByID(ctx, session.AssignmentID)
	if err != nil {
		return nil, err
	}

	data := &infrareport.SessionReport{
		AssignmentName: assignment.Name,
		SectionNumber:  s.sectionNumberFor(ctx, assignment.SectionID),
		GradedBy:       s.userNameFor(ctx, session.GradedByID),
		ReviewedAt:     session.ReviewedAt,
		ReviewNotes:    session.ReviewNotes,
		GeneratedAt:    s.now(),
	}
	if session.ReviewedByID != nil {
		data.ReviewedBy = s.userNameFor(ctx, *session.ReviewedByID)
	}

	rb := s.rubricFor(ctx, assignment, session)
	data.RubricName = rb.Name
	data.TotalPoints = rb.TotalPoints
	for _, result := range session.Results {
		data.Documents = append(data.Documents, documentReport(result, rb))
	}

	if s.renderer == nil {
		return nil, shared.NewDomainError("INVALID_STATE", "PDF report rendering is not enabled")
	}

	html, err := s.engine.RenderHTML(data)
	if err != nil {
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to build the report document")
	}

	rendered, err := s.renderer.Render(ctx, &infrareport.RenderRequest{
		HTML:  html,
		Title: "Grading Report - " + assignment.Name,
	})
	if err != nil {
		s.logger.Error("report rendering failed",
			zap.String("session_id", sessionID.String()),
			zap.Error(err))
		return nil, shared.NewDomainError("INTERNAL_ERROR", "Failed to render the report PDF")
	}

	s.logger.Info("grading report generated",
		zap.String("session_id", sessionID.String()),
		zap.Int("documents", len(session.Results)),
		zap.Int("pdf_bytes", len(rendered.PDFData)))

	return &GeneratedReport{
		Filename:    reportFilename(assignment.Name, sessionID),
		ContentType: "application/pdf",
		PDF:         rendered.PDFData,
	}, nil
}

// rubricFor loads the assignment's rubric. A session whose rubric has since
// been deleted still gets a report: criteria are reconstructed from the
// stored scores.
func (s *ReportService) rubricFor(ctx context.Context, assignment *course.Assignment, session *grading.GradingSession) *rubric.Rubric {
	if assignment.RubricFilename != "" {
		rb, err := s.rubrics.Load(ctx, assignment.RubricFilename)
		if err == nil {
			return rb
		}
		s.logger.Warn("rubric unavailable for report, reconstructing from results",
			zap.String("rubric", assignment.RubricFilename),
			zap.Error(err))
	}
	return reconstructRubric(session)
}

func (s *ReportService) sectionNumberFor(ctx context.Context, sectionID uuid.UUID) string {
	section, err := s.sections.FindByID(ctx, sectionID)
	if err != nil {
		return ""
	}
	return section.SectionNumber
}

func (s *ReportService) userNameFor(ctx context.Context, userID uuid.UUID) string {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return "Unknown"
	}
	return user.Name
}

// documentReport flattens one grading result into template rows, keeping the
// rubric's criterion order
func documentReport(result grading.DocumentResult, rb *rubric.Rubric) infrareport.DocumentReport {
	doc := infrareport.DocumentReport{
		Name:        result.DocName,
		Success:     result.Success,
		TotalScore:  result.TotalScore,
		Strengths:   result.Strengths,
		KeyIssues:   result.KeyIssues,
		Suggestions: result.Suggestions,
		Summary:     result.Summary,
		Error:       result.Error,
	}
	if !result.Success {
		return doc
	}

	doc.Grade = rb.GradeFor(result.TotalScore)
	for _, criterion := range rb.Criteria {
		doc.Rows = append(doc.Rows, infrareport.ScoreRow{
			Criterion: criterion.Name,
			Points:    result.Scores[criterion.Name],
			MaxPoints: criterion.MaxPoints,
			Comment:   result.CriterionComments[criterion.Name],
		})
	}
	return doc
}

// reconstructRubric synthesizes a rubric from session results so grades and
// percentages still render. Max points per criterion are unknown, so the
// highest successful total stands in for the rubric total.
func reconstructRubric(session *grading.GradingSession) *rubric.Rubric {
	names := make(map[string]struct{})
	total := decimal.Zero
	for _, r := range session.Results {
		if !r.Success {
			continue
		}
		for name := range r.Scores {
			names[name] = struct{}{}
		}
		if r.TotalScore.GreaterThan(total) {
			total = r.TotalScore
		}
	}

	criteria := make([]rubric.Criterion, 0, len(names))
	for name := range names {
		criteria = append(criteria, rubric.Criterion{Name: name})
	}
	sort.Slice(criteria, func(i, j int) bool { return criteria[i].Name < criteria[j].Name })

	return &rubric.Rubric{
		Name:        "Rubric (no longer on file)",
		TotalPoints: total,
		Criteria:    criteria,
	}
}

var filenameSanitizer = regexp.MustCompile(`[^a-z0-9]+`)

func reportFilename(assignmentName string, sessionID uuid.UUID) string {
	slug := filenameSanitizer.ReplaceAllString(strings.ToLower(assignmentName), "_")
	slug = strings.Trim(slug, "_")
	if slug == "" {
		slug = "assignment"
	}
	short := strings.ReplaceAll(sessionID.String(), "-", "")[:8]
	return fmt.Sprintf("grading_report_%s_%s.pdf", slug, short)
}
