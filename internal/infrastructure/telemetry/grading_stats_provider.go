// Package telemetry provides OpenTelemetry integration for metrics collection.
package telemetry

import (
	"context"

	"gorm.io/gorm"
)

// GormGradingStatsProvider implements GradingStatsProvider using GORM.
// It queries the grading tables directly for aggregated workload counts.
type GormGradingStatsProvider struct {
	db *gorm.DB
}

// NewGormGradingStatsProvider creates a new GormGradingStatsProvider.
func NewGormGradingStatsProvider(db *gorm.DB) *GormGradingStatsProvider {
	return &GormGradingStatsProvider{db: db}
}

// CountSessionsPendingReview returns the number of sessions awaiting review.
func (p *GormGradingStatsProvider) CountSessionsPendingReview(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("grading_sessions").
		Where("status = ?", "pending_review").
		Count(&count).Error

	return count, err
}

// CountDocumentsUngraded returns the number of synced documents not yet graded.
func (p *GormGradingStatsProvider) CountDocumentsUngraded(ctx context.Context) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("assignment_documents").
		Where("status = ?", "ungraded").
		Count(&count).Error

	return count, err
}
