package rubric

import (
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Criterion is one scored dimension of a rubric
type Criterion struct {
	Name        string          `json:"name"`
	MaxPoints   decimal.Decimal `json:"max_points"`
	Description string          `json:"description,omitempty"`
}

// Rubric is a grading template. Rubrics are stored as JSON files rather than
// database rows; the underscore-prefixed fields carry metadata about the
// originally uploaded file.
type Rubric struct {
	Name        string          `json:"name"`
	TotalPoints decimal.Decimal `json:"total_points"`
	Criteria    []Criterion     `json:"criteria"`

	OriginalFilename  string `json:"_original_filename,omitempty"`
	OriginalExtension string `json:"_original_extension,omitempty"`
	OriginalObjectKey string `json:"_original_object_key,omitempty"`
}

// ValidateAndNormalize checks required fields and fills defaults: missing
// criterion descriptions and a zero TotalPoints are derived from the criteria.
func (r *Rubric) ValidateAndNormalize() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return shared.NewDomainError("INVALID_RUBRIC", "Rubric name is required")
	}
	if len(r.Criteria) == 0 {
		return shared.NewDomainError("INVALID_RUBRIC", "Rubric must have at least one criterion")
	}

	for i := range r.Criteria {
		c := &r.Criteria[i]
		c.Name = strings.TrimSpace(c.Name)
		if c.Name == "" {
			return shared.NewDomainError("INVALID_RUBRIC", fmt.Sprintf("Criterion %d is missing a name", i+1))
		}
		if c.MaxPoints.LessThanOrEqual(decimal.Zero) {
			return shared.NewDomainError("INVALID_RUBRIC", fmt.Sprintf("Criterion '%s' needs a positive max_points", c.Name))
		}
		if strings.TrimSpace(c.Description) == "" {
			c.Description = "Evaluation of " + c.Name
		}
	}

	if r.TotalPoints.LessThanOrEqual(decimal.Zero) {
		r.TotalPoints = r.CriteriaTotal()
	}

	return nil
}

// CriteriaTotal sums the max points across all criteria
func (r *Rubric) CriteriaTotal() decimal.Decimal {
	total := decimal.Zero
	for _, c := range r.Criteria {
		total = total.Add(c.MaxPoints)
	}
	return total
}

// MaxPointsFor returns the cap for a criterion by name
func (r *Rubric) MaxPointsFor(name string) (decimal.Decimal, bool) {
	for _, c := range r.Criteria {
		if c.Name == name {
			return c.MaxPoints, true
		}
	}
	return decimal.Zero, false
}

// GradeFor maps a score to a letter grade against TotalPoints.
// A>=90%, B>=80%, C>=70%, D>=60%, F below.
func (r *Rubric) GradeFor(score decimal.Decimal) string {
	if r.TotalPoints.LessThanOrEqual(decimal.Zero) {
		return "F"
	}

	percentage := score.Div(r.TotalPoints).Mul(decimal.NewFromInt(100))
	switch {
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(90)):
		return "A"
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(80)):
		return "B"
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(70)):
		return "C"
	case percentage.GreaterThanOrEqual(decimal.NewFromInt(60)):
		return "D"
	default:
		return "F"
	}
}

// StoredFilename derives the JSON filename a rubric is saved under. The name
// is slugged rune by rune (non-alphanumerics become underscores) and suffixed
// with an upload timestamp, e.g. "essay_rubric_20260312_141500.json".
func (r *Rubric) StoredFilename(now time.Time) string {
	var b strings.Builder
	for _, ru := range strings.ToLower(r.Name) {
		if unicode.IsLetter(ru) || unicode.IsDigit(ru) {
			b.WriteRune(ru)
		} else {
			b.WriteRune('_')
		}
	}
	return b.String() + "_" + now.Format("20060102_150405") + ".json"
}

// ValidateStoredFilename guards rubric file access against path traversal.
// Only plain .json filenames produced by StoredFilename are accepted.
func ValidateStoredFilename(filename string) error {
	if filename == "" {
		return shared.NewDomainError("INVALID_FILENAME", "Rubric filename is required")
	}
	if strings.Contains(filename, "..") || strings.ContainsAny(filename, "/\\") {
		return shared.NewDomainError("INVALID_FILENAME", "Rubric filename cannot contain path separators")
	}
	if !strings.HasSuffix(filename, ".json") {
		return shared.NewDomainError("INVALID_FILENAME", "Rubric filename must end in .json")
	}
	return nil
}
