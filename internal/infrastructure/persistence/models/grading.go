package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/grading"
)

// GradingSessionModel is the persistence model for the GradingSession
// aggregate root. DocIDs and Results are serialized into JSON text columns so
// the same schema works on sqlite and postgres.
type GradingSessionModel struct {
	AggregateModel
	AssignmentID uuid.UUID              `gorm:"type:uuid;not null;index"`
	GradedByID   uuid.UUID              `gorm:"type:uuid;not null"`
	DocIDs       string                 `gorm:"type:text;not null"`
	Results      string                 `gorm:"type:text;not null"`
	Status       grading.SessionStatus  `gorm:"type:varchar(20);not null;default:'pending_review';index"`
	ReviewedByID *uuid.UUID             `gorm:"type:uuid"`
	ReviewedAt   *time.Time
	ReviewNotes  string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (GradingSessionModel) TableName() string {
	return "grading_sessions"
}

// ToDomain converts the persistence model to a domain GradingSession entity.
// Returns an error when a stored JSON column cannot be decoded.
func (m *GradingSessionModel) ToDomain() (*grading.GradingSession, error) {
	var docIDs []string
	if m.DocIDs != "" {
		if err := json.Unmarshal([]byte(m.DocIDs), &docIDs); err != nil {
			return nil, fmt.Errorf("decode doc_ids for session %s: %w", m.ID, err)
		}
	}

	var results []grading.DocumentResult
	if m.Results != "" {
		if err := json.Unmarshal([]byte(m.Results), &results); err != nil {
			return nil, fmt.Errorf("decode results for session %s: %w", m.ID, err)
		}
	}

	gs := &grading.GradingSession{
		AssignmentID: m.AssignmentID,
		GradedByID:   m.GradedByID,
		DocIDs:       docIDs,
		Results:      results,
		Status:       m.Status,
		ReviewedByID: m.ReviewedByID,
		ReviewedAt:   m.ReviewedAt,
		ReviewNotes:  m.ReviewNotes,
	}
	m.PopulateAggregateRoot(&gs.BaseAggregateRoot)
	return gs, nil
}

// FromDomain populates the persistence model from a domain GradingSession entity.
func (m *GradingSessionModel) FromDomain(gs *grading.GradingSession) error {
	docIDs, err := json.Marshal(gs.DocIDs)
	if err != nil {
		return fmt.Errorf("encode doc_ids for session %s: %w", gs.ID, err)
	}
	results, err := json.Marshal(gs.Results)
	if err != nil {
		return fmt.Errorf("encode results for session %s: %w", gs.ID, err)
	}

	m.FromDomainAggregateRoot(gs.BaseAggregateRoot)
	m.AssignmentID = gs.AssignmentID
	m.GradedByID = gs.GradedByID
	m.DocIDs = string(docIDs)
	m.Results = string(results)
	m.Status = gs.Status
	m.ReviewedByID = gs.ReviewedByID
	m.ReviewedAt = gs.ReviewedAt
	m.ReviewNotes = gs.ReviewNotes
	return nil
}

// GradingSessionModelFromDomain creates a new persistence model from a domain
// GradingSession entity.
func GradingSessionModelFromDomain(gs *grading.GradingSession) (*GradingSessionModel, error) {
	m := &GradingSessionModel{}
	if err := m.FromDomain(gs); err != nil {
		return nil, err
	}
	return m, nil
}

// AssignmentDocumentModel is the persistence model for the AssignmentDocument record.
type AssignmentDocumentModel struct {
	AggregateModel
	AssignmentID uuid.UUID              `gorm:"type:uuid;not null;index;uniqueIndex:idx_assignment_doc,priority:1"`
	DocID        string                 `gorm:"type:varchar(128);not null;uniqueIndex:idx_assignment_doc,priority:2"`
	DocName      string                 `gorm:"type:varchar(500)"`
	Status       grading.DocumentStatus `gorm:"type:varchar(20);not null;default:'ungraded';index"`
	GradedAt     *time.Time
	ReviewedAt   *time.Time
}

// TableName returns the table name for GORM
func (AssignmentDocumentModel) TableName() string {
	return "assignment_documents"
}

// ToDomain converts the persistence model to a domain AssignmentDocument entity.
func (m *AssignmentDocumentModel) ToDomain() *grading.AssignmentDocument {
	d := &grading.AssignmentDocument{
		AssignmentID: m.AssignmentID,
		DocID:        m.DocID,
		DocName:      m.DocName,
		Status:       m.Status,
		GradedAt:     m.GradedAt,
		ReviewedAt:   m.ReviewedAt,
	}
	m.PopulateAggregateRoot(&d.BaseAggregateRoot)
	return d
}

// FromDomain populates the persistence model from a domain AssignmentDocument entity.
func (m *AssignmentDocumentModel) FromDomain(d *grading.AssignmentDocument) {
	m.FromDomainAggregateRoot(d.BaseAggregateRoot)
	m.AssignmentID = d.AssignmentID
	m.DocID = d.DocID
	m.DocName = d.DocName
	m.Status = d.Status
	m.GradedAt = d.GradedAt
	m.ReviewedAt = d.ReviewedAt
}

// AssignmentDocumentModelFromDomain creates a new persistence model from a
// domain AssignmentDocument entity.
func AssignmentDocumentModelFromDomain(d *grading.AssignmentDocument) *AssignmentDocumentModel {
	m := &AssignmentDocumentModel{}
	m.FromDomain(d)
	return m
}
