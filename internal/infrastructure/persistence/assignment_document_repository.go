package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/grading"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/gradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAssignmentDocumentRepository implements AssignmentDocumentRepository using GORM
type GormAssignmentDocumentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentDocumentRepository creates a new GormAssignmentDocumentRepository
func NewGormAssignmentDocumentRepository(db *gorm.DB) *GormAssignmentDocumentRepository {
	return &GormAssignmentDocumentRepository{db: db}
}

// FindByID finds a document record by its ID
func (r *GormAssignmentDocumentRepository) FindByID(ctx context.Context, id uuid.UUID) (*grading.AssignmentDocument, error) {
	var model models.AssignmentDocumentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByAssignment finds all document records for an assignment
func (r *GormAssignmentDocumentRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID) ([]grading.AssignmentDocument, error) {
	var docModels []models.AssignmentDocumentModel
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Order("doc_name ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(docModels), nil
}

// FindByAssignmentAndDocID finds a document record by its Drive file ID
func (r *GormAssignmentDocumentRepository) FindByAssignmentAndDocID(ctx context.Context, assignmentID uuid.UUID, docID string) (*grading.AssignmentDocument, error) {
	if docID == "" {
		return nil, shared.ErrNotFound
	}
	var model models.AssignmentDocumentModel
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND doc_id = ?", assignmentID, docID).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStatus finds document records with a specific status
func (r *GormAssignmentDocumentRepository) FindByStatus(ctx context.Context, assignmentID uuid.UUID, status grading.DocumentStatus) ([]grading.AssignmentDocument, error) {
	var docModels []models.AssignmentDocumentModel
	if err := r.db.WithContext(ctx).
		Where("assignment_id = ? AND status = ?", assignmentID, status).
		Order("doc_name ASC").
		Find(&docModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(docModels), nil
}

// Save creates or updates a document record
func (r *GormAssignmentDocumentRepository) Save(ctx context.Context, doc *grading.AssignmentDocument) error {
	model := models.AssignmentDocumentModelFromDomain(doc)
	return r.db.WithContext(ctx).Save(model).Error
}

// SaveAll creates or updates multiple document records
func (r *GormAssignmentDocumentRepository) SaveAll(ctx context.Context, docs []*grading.AssignmentDocument) error {
	if len(docs) == 0 {
		return nil
	}
	docModels := make([]*models.AssignmentDocumentModel, len(docs))
	for i, doc := range docs {
		docModels[i] = models.AssignmentDocumentModelFromDomain(doc)
	}
	return r.db.WithContext(ctx).Save(docModels).Error
}

// Delete deletes a document record
func (r *GormAssignmentDocumentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.AssignmentDocumentModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByAssignment deletes all document records for an assignment
func (r *GormAssignmentDocumentRepository) DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Delete(&models.AssignmentDocumentModel{}).Error
}

// CountByAssignment counts document records for an assignment
func (r *GormAssignmentDocumentRepository) CountByAssignment(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AssignmentDocumentModel{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts document records by status for an assignment
func (r *GormAssignmentDocumentRepository) CountByStatus(ctx context.Context, assignmentID uuid.UUID, status grading.DocumentStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AssignmentDocumentModel{}).
		Where("assignment_id = ? AND status = ?", assignmentID, status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAssignmentDocumentRepository) toDomainSlice(docModels []models.AssignmentDocumentModel) []grading.AssignmentDocument {
	docs := make([]grading.AssignmentDocument, len(docModels))
	for i := range docModels {
		docs[i] = *docModels[i].ToDomain()
	}
	return docs
}

// Ensure GormAssignmentDocumentRepository implements AssignmentDocumentRepository
var _ grading.AssignmentDocumentRepository = (*GormAssignmentDocumentRepository)(nil)
