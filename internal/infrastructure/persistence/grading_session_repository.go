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

// GormGradingSessionRepository implements GradingSessionRepository using GORM
type GormGradingSessionRepository struct {
	db *gorm.DB
}

// NewGormGradingSessionRepository creates a new GormGradingSessionRepository
func NewGormGradingSessionRepository(db *gorm.DB) *GormGradingSessionRepository {
	return &GormGradingSessionRepository{db: db}
}

// FindByID finds a grading session by its ID
func (r *GormGradingSessionRepository) FindByID(ctx context.Context, id uuid.UUID) (*grading.GradingSession, error) {
	var model models.GradingSessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindByAssignment finds sessions for an assignment, newest first
func (r *GormGradingSessionRepository) FindByAssignment(ctx context.Context, assignmentID uuid.UUID, filter shared.Filter) ([]grading.GradingSession, error) {
	var sessionModels []models.GradingSessionModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.GradingSessionModel{}).
			Where("assignment_id = ?", assignmentID),
		filter,
	)

	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(sessionModels)
}

// FindByStatus finds sessions with a specific status
func (r *GormGradingSessionRepository) FindByStatus(ctx context.Context, status grading.SessionStatus, filter shared.Filter) ([]grading.GradingSession, error) {
	var sessionModels []models.GradingSessionModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.GradingSessionModel{}).
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&sessionModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(sessionModels)
}

// Save creates or updates a grading session
func (r *GormGradingSessionRepository) Save(ctx context.Context, session *grading.GradingSession) error {
	model, err := models.GradingSessionModelFromDomain(session)
	if err != nil {
		return err
	}
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a grading session
func (r *GormGradingSessionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.GradingSessionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// DeleteByAssignment deletes all sessions for an assignment
func (r *GormGradingSessionRepository) DeleteByAssignment(ctx context.Context, assignmentID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Where("assignment_id = ?", assignmentID).
		Delete(&models.GradingSessionModel{}).Error
}

// Count counts sessions for an assignment
func (r *GormGradingSessionRepository) Count(ctx context.Context, assignmentID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.GradingSessionModel{}).
		Where("assignment_id = ?", assignmentID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountByStatus counts sessions with a specific status
func (r *GormGradingSessionRepository) CountByStatus(ctx context.Context, status grading.SessionStatus) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.GradingSessionModel{}).
		Where("status = ?", status).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormGradingSessionRepository) toDomainSlice(sessionModels []models.GradingSessionModel) ([]grading.GradingSession, error) {
	sessions := make([]grading.GradingSession, len(sessionModels))
	for i := range sessionModels {
		s, err := sessionModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		sessions[i] = *s
	}
	return sessions, nil
}

// applyFilter applies filter options to the query
func (r *GormGradingSessionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, GradingSessionSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// Ensure GormGradingSessionRepository implements GradingSessionRepository
var _ grading.GradingSessionRepository = (*GormGradingSessionRepository)(nil)
