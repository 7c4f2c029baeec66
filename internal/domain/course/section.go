package course

import (
	"strings"
	"time"

	"github.com/gradeflow/backend/internal/domain/shared"
)

// DefaultCourseCode is assigned to sections created without an explicit course
const DefaultCourseCode = "BUSN 403"

// Section represents a course section (enrollment grouping) owning assignments
type Section struct {
	shared.BaseAggregateRoot
	SectionNumber string
	CourseCode    string
}

// NewSection creates a new section
func NewSection(sectionNumber, courseCode string) (*Section, error) {
	sectionNumber = strings.TrimSpace(sectionNumber)
	if sectionNumber == "" {
		return nil, shared.NewDomainError("INVALID_SECTION", "Section number cannot be empty")
	}
	if len(sectionNumber) > 20 {
		return nil, shared.NewDomainError("INVALID_SECTION", "Section number cannot exceed 20 characters")
	}

	courseCode = strings.TrimSpace(courseCode)
	if courseCode == "" {
		courseCode = DefaultCourseCode
	}

	s := &Section{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		SectionNumber:     sectionNumber,
		CourseCode:        courseCode,
	}

	s.AddDomainEvent(NewSectionCreatedEvent(s))

	return s, nil
}

// Label returns the human-readable section label, e.g. "BUSN 403-900"
func (s *Section) Label() string {
	return s.CourseCode + "-" + s.SectionNumber
}

// SetCourseCode changes the course this section belongs to
func (s *Section) SetCourseCode(code string) error {
	code = strings.TrimSpace(code)
	if code == "" {
		return shared.NewDomainError("INVALID_COURSE_CODE", "Course code cannot be empty")
	}

	s.CourseCode = code
	s.UpdatedAt = time.Now()
	s.IncrementVersion()

	return nil
}
