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

// GormSectionRepository implements SectionRepository using GORM
type GormSectionRepository struct {
	db *gorm.DB
}

// NewGormSectionRepository creates a new GormSectionRepository
func NewGormSectionRepository(db *gorm.DB) *GormSectionRepository {
	return &GormSectionRepository{db: db}
}

// FindByID finds a section by its ID
func (r *GormSectionRepository) FindByID(ctx context.Context, id uuid.UUID) (*course.Section, error) {
	var model models.SectionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySectionNumber finds a section by its number
func (r *GormSectionRepository) FindBySectionNumber(ctx context.Context, sectionNumber string) (*course.Section, error) {
	if sectionNumber == "" {
		return nil, shared.ErrNotFound
	}
	var model models.SectionModel
	if err := r.db.WithContext(ctx).
		Where("section_number = ?", sectionNumber).
		First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindAll finds all sections matching the filter
func (r *GormSectionRepository) FindAll(ctx context.Context, filter shared.Filter) ([]course.Section, error) {
	var sectionModels []models.SectionModel
	query := r.applyFilter(r.db.WithContext(ctx).Model(&models.SectionModel{}), filter)

	if err := query.Find(&sectionModels).Error; err != nil {
		return nil, err
	}

	sections := make([]course.Section, len(sectionModels))
	for i := range sectionModels {
		sections[i] = *sectionModels[i].ToDomain()
	}
	return sections, nil
}

// ExistsBySectionNumber checks if a section number is already taken
func (r *GormSectionRepository) ExistsBySectionNumber(ctx context.Context, sectionNumber string) (bool, error) {
	if sectionNumber == "" {
		return false, nil
	}
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.SectionModel{}).
		Where("section_number = ?", sectionNumber).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Save creates or updates a section
func (r *GormSectionRepository) Save(ctx context.Context, section *course.Section) error {
	model := models.SectionModelFromDomain(section)
	return r.db.WithContext(ctx).Save(model).Error
}

// Delete deletes a section
func (r *GormSectionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Delete(&models.SectionModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// Count counts sections matching the filter
func (r *GormSectionRepository) Count(ctx context.Context, filter shared.Filter) (int64, error) {
	var count int64
	query := r.applyFilterWithoutPagination(r.db.WithContext(ctx).Model(&models.SectionModel{}), filter)

	if err := query.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// CountAssignments counts assignments attached to a section
func (r *GormSectionRepository) CountAssignments(ctx context.Context, sectionID uuid.UUID) (int64, error) {
	var count int64
	if err := r.db.WithContext(ctx).
		Model(&models.AssignmentModel{}).
		Where("section_id = ?", sectionID).
		Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}

// applyFilter applies filter options to the query
func (r *GormSectionRepository) applyFilter(query *gorm.DB, filter shared.Filter) *gorm.DB {
	query = r.applyFilterWithoutPagination(query, filter)

	if filter.Page > 0 && filter.PageSize > 0 {
		offset := (filter.Page - 1) * filter.PageSize
		query = query.Offset(offset).Limit(filter.PageSize)
	}

	sortField := ValidateSortField(filter.OrderBy, SectionSortFields, "section_number")
	sortOrder := ValidateSortOrder(filter.OrderDir)
	if filter.OrderBy == "" && filter.OrderDir == "" {
		// Roster ordering: 900 before 901 before 902
		return query.Order("section_number ASC")
	}
	return query.Order(sortField + " " + sortOrder)
}

// applyFilterWithoutPagination applies filter options without pagination
func (r *GormSectionRepository) applyFilterWithoutPagination(query *gorm.DB, filter shared.Filter) *gorm.DB {
	if filter.Search != "" {
		searchPattern := "%" + strings.ToLower(filter.Search) + "%"
		query = query.Where("LOWER(section_number) LIKE ? OR LOWER(course_code) LIKE ?", searchPattern, searchPattern)
	}

	for key, value := range filter.Filters {
		switch key {
		case "course_code":
			query = query.Where("course_code = ?", value)
		}
	}

	return query
}

// Ensure GormSectionRepository implements SectionRepository
var _ course.SectionRepository = (*GormSectionRepository)(nil)
