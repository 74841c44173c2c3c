package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/marketplace/backend/internal/domain/review"
	"github.com/marketplace/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormReviewRepository implements review.Repository using GORM
type GormReviewRepository struct {
	db *gorm.DB
}

// NewGormReviewRepository creates a new GormReviewRepository
func NewGormReviewRepository(db *gorm.DB) *GormReviewRepository {
	return &GormReviewRepository{db: db}
}

// FindByID finds a review by its ID
func (r *GormReviewRepository) FindByID(ctx context.Context, id uuid.UUID) (*review.Review, error) {
	var rv review.Review
	if err := conn(ctx, r.db).First(&rv, "id = ?", id).Error; err != nil {
		return nil, notFound(err)
	}
	return &rv, nil
}

// FindByProvider lists reviews about a provider
func (r *GormReviewRepository) FindByProvider(ctx context.Context, providerID uuid.UUID, filter shared.Filter) ([]review.Review, int64, error) {
	query := conn(ctx, r.db).Model(&review.Review{}).Where("provider_id = ?", providerID)
	return findPage[review.Review](query, filter, ReviewSortFields, "created_at")
}

// FindByService lists reviews of one service
func (r *GormReviewRepository) FindByService(ctx context.Context, serviceID uuid.UUID, filter shared.Filter) ([]review.Review, int64, error) {
	query := conn(ctx, r.db).Model(&review.Review{}).Where("service_id = ?", serviceID)
	return findPage[review.Review](query, filter, ReviewSortFields, "created_at")
}

// SummaryForProvider computes count and average rating
func (r *GormReviewRepository) SummaryForProvider(ctx context.Context, providerID uuid.UUID) (review.Summary, error) {
	var summary review.Summary
	err := conn(ctx, r.db).
		Model(&review.Review{}).
		Select("COUNT(*) AS count, COALESCE(AVG(rating), 0) AS average").
		Where("provider_id = ?", providerID).
		Scan(&summary).Error
	return summary, err
}

// Save creates a review or updates it under its optimistic lock. A second
// review of the same booking is rejected.
func (r *GormReviewRepository) Save(ctx context.Context, rv *review.Review) error {
	if err := saveVersioned(ctx, r.db, rv); err != nil {
		if isUniqueViolation(err) {
			return shared.NewDomainError("ALREADY_EXISTS", "This booking has already been reviewed")
		}
		return err
	}
	return nil
}

// Delete removes a review
func (r *GormReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&review.Review{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ review.Repository = (*GormReviewRepository)(nil)
