package repository

import (
	"context"

	"chapel-site/internal/domain/contact"

	"gorm.io/gorm"
)

type PostgresContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) ContactRepository {
	return &PostgresContactRepository{db: db}
}

func (r *PostgresContactRepository) Create(ctx context.Context, s *contact.Submission) error {
	return r.db.WithContext(ctx).Create(s).Error
}

func (r *PostgresContactRepository) List(ctx context.Context, page, limit int) ([]contact.Submission, int64, error) {
	var items []contact.Submission
	var total int64

	if err := r.db.WithContext(ctx).Model(&contact.Submission{}).Count(&total).Error; err != nil {
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
