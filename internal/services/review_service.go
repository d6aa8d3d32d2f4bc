package services

import (
	"context"
	"unicode/utf8"

	"chapel-site/internal/domain/chat"
	"chapel-site/internal/domain/review"
	"chapel-site/internal/repository"
	chapel_errors "chapel-site/pkg/errors"
	"chapel-site/pkg/logger"

	"go.uber.org/zap"
)

const maxReviewLen = 2000

type ReviewService struct {
	repo repository.ReviewRepository
	log  *logger.Logger
}

func NewReviewService(repo repository.ReviewRepository, l *logger.Logger) *ReviewService {
	return &ReviewService{repo: repo, log: orNopLogger(l)}
}

// Create posts a review under the customer's current display name.
func (s *ReviewService) Create(ctx context.Context, actor chat.Actor, rating int, text string) (review.Review, error) {
	if actor.ID == "" {
		return review.Review{}, chapel_errors.ErrUnauthorized
	}
	if actor.IsAdmin() {
		return review.Review{}, chapel_errors.ErrForbidden
	}
	text = sanitizeText(text)
	if rating < review.MinRating || rating > review.MaxRating {
		return review.Review{}, chapel_errors.ErrInvalidInput
	}
	if text == "" || utf8.RuneCountInString(text) > maxReviewLen {
		return review.Review{}, chapel_errors.ErrInvalidInput
	}

	rv := review.Review{
		AuthorID:   actor.ID,
		AuthorName: actor.Name,
		Rating:     rating,
		Text:       text,
	}
	if err := s.repo.Create(ctx, &rv); err != nil {
		return review.Review{}, err
	}
	return rv, nil
}

func (s *ReviewService) List(ctx context.Context, page, limit int) ([]review.Review, int64, error) {
	return s.repo.List(ctx, page, limit)
}

func (s *ReviewService) Delete(ctx context.Context, actor chat.Actor, id uint64) error {
	if !actor.IsAdmin() {
		return chapel_errors.ErrForbidden
	}
	if id == 0 {
		return chapel_errors.ErrInvalidInput
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	s.log.InfoCtx(ctx, "review deleted", zap.Uint64("review_id", id))
	return nil
}
