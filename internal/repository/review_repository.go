package repository

import (
	"context"

	"chapel-site/internal/domain/review"
	chapel_errors "chapel-site/pkg/errors"

	"gorm.io/gorm"
)

type PostgresReviewRepository struct {
	db *gorm.DB
}

func NewReviewRepository(db *gorm.DB) ReviewRepository {
	return &PostgresReviewRepository{db: db}
}

func (r *PostgresReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	return r.db.WithContext(ctx).Create(rv).Error
}

func (r *PostgresReviewRepository) GetByID(ctx context.Context, id uint64) (review.Review, error) {
	var rv review.Review
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&rv).Error; err != nil {
		return review.Review{}, mapNotFound(err)
	}
	return rv, nil
}

func (r *PostgresReviewRepository) List(ctx context.Context, page, limit int) ([]review.Review, int64, error) {
	var items []review.Review
	var total int64

	if err := r.db.WithContext(ctx).Model(&review.Review{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	limit = clampLimit(limit, 20, 100)
	if err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Order("id DESC").
		Offset(pageOffset(page, limit)).
		Limit(limit).
		Find(&items).Error; err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *PostgresReviewRepository) Delete(ctx context.Context, id uint64) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&review.Review{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return chapel_errors.ErrNotFound
	}
	return nil
}
