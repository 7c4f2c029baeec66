package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/gradeflow/backend/internal/domain/course"
	"github.com/gradeflow/backend/internal/domain/shared"
	"github.com/gradeflow/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormAssignmentRepository implements AssignmentRepository using GORM
type GormAssignmentRepository struct {
	db *gorm.DB
}

// NewGormAssignmentRepository creates a new GormAssignmentRepository
func NewGormAssignmentRepository(db *gorm.DB) *GormAssignmentRepository {
	return &GormAssignmentRepository{db: db}
}

// FindByID finds an assignment by its ID
func (r *GormAssignmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*course.Assignment, error) {
	var model models.AssignmentModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySection finds all assignments for a section
func (r *GormAssignmentRepository) FindBySection(ctx context.Context, sectionID uuid.UUID, filter shared.Filter) ([]course.Assignment, error) {
	var assignmentModels []models.AssignmentModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.AssignmentModel{}).
			Where("section_id = ?", sectionID),
		filter,
	)

	if err := query.Find(&assignmentModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(assignmentModels), nil
}

// FindByStatus finds all assignments with a specific status
func (r *GormAssignmentRepository) FindByStatus(ctx context.Context, status course.AssignmentStatus, filter shared.Filter) ([]course.Assignment, error) {
	var assignmentModels []models.AssignmentModel
	query := r.applyFilter(
		r.db.WithContext(ctx).Model(&models.AssignmentModel{}).
			Where("status = ?", status),
		filter,
	)

	if err := query.Find(&assignmentModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(assignmentModels), nil
}

// FindAll finds all assignments matching the filter
func (r *GormAssignmentRepository) FindAll(ctx context.Context, filter shared.Filter) ([]course.Assignment, error) {
	var assignmentModels []models.AssignmentModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.AssignmentModel{}), filter)

	if err := query.Find(&assignmentModels).Error; err != nil {
		return nil, err
	}
	return r.toDomainSlice(assignmentModels), nil
}

// Save creates or updates an assignment
func (r *GormAssignmentRepository) Save(ctx context.Context, assignment *course.Assignment) error {
	model := models.AssignmentModelFromDomain(assignment)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes an assignment together with its documents and sessions
func (r *GormAssignmentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("assignment_id = ?", id).
			Delete(&models.GradingSessionModel{}).Error; err != nil {
			return err
		}
		if err := tx.Where("assignment_id = ?", id).
			Delete(&models.AssignmentDocumentModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.AssignmentModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// Count counts assignments matching the filter
func (r *GormAssignmentRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.AssignmentModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountBySection counts assignments for a section
func (r *GormAssignmentRepository) CountBySection(ctx context.Context, sectionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AssignmentModel{}).
		Where("section_id = ?", sectionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

func (r *GormAssignmentRepository) toDomainSlice(assignmentModels []models.AssignmentModel) []course.Assignment {
	assignments := make([]course.Assignment, len(assignmentModels))
	for i := range assignmentModels {
		assignments[i] = *assignmentModels[i].ToDomain()
	}
	return assignments
}

// applyFilter applies filter options to the query
func (r *GormAssignmentRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, AssignmentSortFields, "created_at")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormAssignmentRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "status":
			query = query.Where("status = ?", value)
		case "section_id":
			query = query.Where("section_id = ?", value)
		case "created_by_id":
			query = query.Where("created_by_id = ?", value)
		case "has_drive_folder":
			if value == true {
				query = query.Where("drive_folder_id <> ''")
			} else {
				query = query.Where("drive_folder_id = ''")
			}
		case "has_rubric":
			if value == true {
				query = query.Where("rubric_filename <> ''")
			} else {
				query = query.Where("rubric_filename = ''")
			}
		}
	}

	return query
}

// Ensure GormAssignmentRepository implements AssignmentRepository
var _ course.AssignmentRepository = (*GormAssignmentRepository)(nil)
