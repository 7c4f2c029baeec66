package grading

import (
	"time"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/shopspring/decimal"
)

// UserRef identifies the user behind a grading or review action
type UserRef struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// CreateSessionInput contains input for storing a grading run for review.
// The user fields attribute the run; blanks fall back to the course admin.
type CreateSessionInput struct {
	AssignmentID uuid.UUID
	DocIDs       []string
	Results      []grading.DocumentResult
	UserEmail    string
	UserName     string
	UserRole     string
}

// CreateSessionResult confirms a stored grading session
type CreateSessionResult struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

// ReviewSessionInput contains input for approving or rejecting a whole session
type ReviewSessionInput struct {
	SessionID   uuid.UUID
	ReviewNotes string
	// Results optionally replaces the stored results with reviewer edits.
	// Only approvals read it.
	Results   []grading.DocumentResult
	UserEmail string
	UserName  string
	UserRole  string
}

// ApproveSessionResult reports an approval and its per-document sync outcomes
type ApproveSessionResult struct {
	SessionID   uuid.UUID                    `json:"session_id"`
	SyncResults []grading.FeedbackSyncResult `json:"sync_results"`
	Message     string                       `json:"message"`
}

// RejectSessionResult confirms a rejected session
type RejectSessionResult struct {
	SessionID uuid.UUID `json:"session_id"`
	Message   string    `json:"message"`
}

// DocumentReviewInput contains input for reviewing a single document of a
// session, addressed by its index in the session's document list
type DocumentReviewInput struct {
	SessionID uuid.UUID
	DocIndex  *int
	// Result optionally replaces the stored result with a reviewer edit.
	// Only approvals read it.
	Result    *grading.DocumentResult
	UserEmail string
	UserName  string
	UserRole  string
}

// DocumentApprovalResult reports a per-document approval and its sync outcome
type DocumentApprovalResult struct {
	SessionID  uuid.UUID                   `json:"session_id"`
	DocIndex   int                         `json:"doc_index"`
	SyncResult *grading.FeedbackSyncResult `json:"sync_result"`
	Message    string                      `json:"message"`
}

// DocumentRejectionResult confirms a per-document rejection
type DocumentRejectionResult struct {
	SessionID uuid.UUID `json:"session_id"`
	DocIndex  int       `json:"doc_index"`
	Message   string    `json:"message"`
}

// SessionDetail is the full review payload for one grading session
type SessionDetail struct {
	ID             uuid.UUID                `json:"id"`
	AssignmentID   uuid.UUID                `json:"assignment_id"`
	AssignmentName string                   `json:"assignment_name"`
	GradedBy       UserRef                  `json:"graded_by"`
	DocIDs         []string                 `json:"doc_ids"`
	Results        []grading.DocumentResult `json:"results"`
	Rubric         *rubric.Rubric           `json:"rubric"`
	Status         string                   `json:"status"`
	ReviewedBy     *UserRef                 `json:"reviewed_by"`
	ReviewedAt     *time.Time               `json:"reviewed_at"`
	ReviewNotes    string                   `json:"review_notes"`
	CreatedAt      time.Time                `json:"created_at"`
}

// DocumentItem is one document in an assignment's listing, annotated with the
// newest session that claims it
type DocumentItem struct {
	ID             uuid.UUID        `json:"id"`
	DocID          string           `json:"doc_id"`
	DocName        string           `json:"doc_name"`
	Status         string           `json:"status"`
	GradedAt       *time.Time       `json:"graded_at"`
	ReviewedAt     *time.Time       `json:"reviewed_at"`
	SessionID      *uuid.UUID       `json:"session_id"`
	DocIndex       *int             `json:"doc_index"`
	SessionStatus  *string          `json:"session_status"`
	TotalScore     *decimal.Decimal `json:"total_score,omitempty"`
	AssignmentID   uuid.UUID        `json:"assignment_id"`
	AssignmentName string           `json:"assignment_name"`
}

// DocumentListResult carries an assignment's documents and whether the Drive
// folder listing succeeded during this call
type DocumentListResult struct {
	Documents   []DocumentItem `json:"documents"`
	DriveSynced bool           `json:"drive_synced"`
}

// GradeDocumentInput contains input for grading a single document outside an
// assignment context
type GradeDocumentInput struct {
	DocID              string
	RubricFilename     string
	CustomInstructions string
	IsWordDoc          bool
}

// GradeBatchInput contains input for grading an assignment's documents.
// RubricFilename and CustomInstructions default to the assignment's own when
// blank. DocTypes flags Word uploads needing conversion before grading.
type GradeBatchInput struct {
	AssignmentID       uuid.UUID
	DocIDs             []string
	DocTypes           map[string]bool
	RubricFilename     string
	CustomInstructions string
	UserEmail          string
	UserName           string
	UserRole           string
}

// GradeBatchResult carries the per-document outcomes of a grading run and the
// pending session created from them
type GradeBatchResult struct {
	SessionID uuid.UUID                `json:"session_id"`
	Results   []grading.DocumentResult `json:"results"`
}

// GradeDistribution buckets scores into letter grades
type GradeDistribution struct {
	A int `json:"A"`
	B int `json:"B"`
	C int `json:"C"`
	D int `json:"D"`
	F int `json:"F"`
}

// AssignmentSummary aggregates grading statistics for one assignment. Score
// statistics are nil until at least one document has been graded.
type AssignmentSummary struct {
	TotalDocuments     int               `json:"total_documents"`
	GradedDocuments    int               `json:"graded_documents"`
	UngradedDocuments  int               `json:"ungraded_documents"`
	ReviewedDocuments  int               `json:"reviewed_documents"`
	AverageScore       *decimal.Decimal  `json:"average_score"`
	MinScore           *decimal.Decimal  `json:"min_score"`
	MaxScore           *decimal.Decimal  `json:"max_score"`
	TotalPoints        decimal.Decimal   `json:"total_points"`
	GradeDistribution  GradeDistribution `json:"grade_distribution"`
	PerformanceSummary string            `json:"performance_summary"`
}

// CSVExport is a rendered results export ready to serve as an attachment
type CSVExport struct {
	Filename string
	Content  []byte
}

// outlineFrom maps a stored rubric template into the outline the grading
// ports consume
func outlineFrom(r *rubric.Rubric) grading.RubricOutline {
	criteria := make([]grading.OutlineCriterion, len(r.Criteria))
	for i, c := range r.Criteria {
		criteria[i] = grading.OutlineCriterion{
			Name:        c.Name,
			MaxPoints:   c.MaxPoints,
			Description: c.Description,
		}
	}
	return grading.RubricOutline{
		Name:        r.Name,
		TotalPoints: r.TotalPoints,
		Criteria:    criteria,
	}
}
