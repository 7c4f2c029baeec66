package rubric

import (
	"github.com/gradeflow/backend/internal/domain/rubric"
	"github.com/shopspring/decimal"
)

// RubricInfo is one stored template in the rubric listing
type RubricInfo struct {
	Filename      string          `json:"filename"`
	Name          string          `json:"name"`
	TotalPoints   decimal.Decimal `json:"total_points"`
	CriteriaCount int             `json:"criteria_count"`
}

// UploadRubricInput carries one uploaded rubric file
type UploadRubricInput struct {
	Filename string
	Content  []byte
}

// UploadRubricResult reports a stored rubric template
type UploadRubricResult struct {
	Filename string         `json:"filename"`
	Rubric   *rubric.Rubric `json:"rubric"`
	Message  string         `json:"message"`
}

// OriginalFile is a stored rubric original ready to stream back to the client
type OriginalFile struct {
	Filename    string
	ContentType string
	Content     []byte
}

// ToRubricInfo converts a stored rubric to its listing representation
func ToRubricInfo(s rubric.StoredRubric) RubricInfo {
	return RubricInfo{
		Filename:      s.Filename,
		Name:          s.Rubric.Name,
		TotalPoints:   s.Rubric.TotalPoints,
		CriteriaCount: len(s.Rubric.Criteria),
	}
}
