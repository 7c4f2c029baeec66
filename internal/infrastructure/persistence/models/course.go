package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/course"
)

// SectionModel is the persistence model for the Section aggregate root.
type SectionModel struct {
	AggregateModel
	SectionNumber string `gorm:"type:varchar(20);not null;uniqueIndex"`
	CourseCode    string `gorm:"type:varchar(50);not null"`
}

// TableName returns the table name for GORM
func (SectionModel) TableName() string {
	return "sections"
}

// ToDomain converts the persistence model to a domain Section entity.
func (m *SectionModel) ToDomain() *course.Section {
	s := &course.Section{
		SectionNumber: m.SectionNumber,
		CourseCode:    m.CourseCode,
	}
	m.PopulateAggregateRoot(&s.BaseAggregateRoot)
	return s
}

// FromDomain populates the persistence model from a domain Section entity.
func (m *SectionModel) FromDomain(s *course.Section) {
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	m.SectionNumber = s.SectionNumber
	m.CourseCode = s.CourseCode
}

// SectionModelFromDomain creates a new persistence model from a domain Section entity.
func SectionModelFromDomain(s *course.Section) *SectionModel {
	m := &SectionModel{}
	m.FromDomain(s)
	return m
}

// AssignmentModel is the persistence model for the Assignment aggregate root.
type AssignmentModel struct {
	AggregateModel
	SectionID          uuid.UUID               `gorm:"type:uuid;not null;index"`
	Name               string                  `gorm:"type:varchar(300);not null"`
	Description        string                  `gorm:"type:text"`
	RubricFilename     string                  `gorm:"type:varchar(300)"`
	CustomInstructions string                  `gorm:"type:text"`
	DriveFolderID      string                  `gorm:"type:varchar(128);index"`
	Status             course.AssignmentStatus `gorm:"type:varchar(20);not null;default:'draft'"`
	CreatedByID        uuid.UUID               `gorm:"type:uuid;not null;index"`
	ActivatedAt        *time.Time
	CompletedAt        *time.Time
}

// TableName returns the table name for GORM
func (AssignmentModel) TableName() string {
	return "assignments"
}

// ToDomain converts the persistence model to a domain Assignment entity.
func (m *AssignmentModel) ToDomain() *course.Assignment {
	a := &course.Assignment{
		SectionID:          m.SectionID,
		Name:               m.Name,
		Description:        m.Description,
		RubricFilename:     m.RubricFilename,
		CustomInstructions: m.CustomInstructions,
		DriveFolderID:      m.DriveFolderID,
		Status:             m.Status,
		CreatedByID:        m.CreatedByID,
		ActivatedAt:        m.ActivatedAt,
		CompletedAt:        m.CompletedAt,
	}
	m.PopulateAggregateRoot(&a.BaseAggregateRoot)
	return a
}

// FromDomain populates the persistence model from a domain Assignment entity.
func (m *AssignmentModel) FromDomain(a *course.Assignment) {
	m.FromDomainAggregateRoot(a.BaseAggregateRoot)
	m.SectionID = a.SectionID
	m.Name = a.Name
	m.Description = a.Description
	m.RubricFilename = a.RubricFilename
	m.CustomInstructions = a.CustomInstructions
	m.DriveFolderID = a.DriveFolderID
	m.Status = a.Status
	m.CreatedByID = a.CreatedByID
	m.ActivatedAt = a.ActivatedAt
	m.CompletedAt = a.CompletedAt
}

// AssignmentModelFromDomain creates a new persistence model from a domain Assignment entity.
func AssignmentModelFromDomain(a *course.Assignment) *AssignmentModel {
	m := &AssignmentModel{}
	m.FromDomain(a)
	return m
}
