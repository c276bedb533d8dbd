// internal/service/review_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"curation-service/internal/domain"
	"curation-service/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// ReviewService - операции над отзывами.
type ReviewService struct {
	reviews   store.ReviewStore
	directory AccountDirectory
	validator *validator.Validate
	logger    *slog.Logger
}

// NewReviewService создает ReviewService.
func NewReviewService(reviews store.ReviewStore, directory AccountDirectory, v *validator.Validate, logger *slog.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, directory: directory, validator: v, logger: logger}
}

func validateReviewFields(rating int, comment string) error {
	if rating < domain.RatingMin || rating > domain.RatingMax {
		return domain.NewValidationError("rating", fmt.Sprintf("must be between %d and %d", domain.RatingMin, domain.RatingMax))
	}
	n := utf8.RuneCountInString(comment)
	if n == 0 {
		return domain.NewValidationError("comment", "is required")
	}
	if n > domain.CommentMaxLen {
		return domain.NewValidationError("comment", fmt.Sprintf("must be at most %d characters", domain.CommentMaxLen))
	}
	return nil
}

// Create создает отзыв. Повторный отзыв к тому же фильму - Conflict,
// в том числе когда его отклоняет уникальный индекс после пройденной
// предварительной проверки.
func (s *ReviewService) Create(ctx context.Context, ownerID string, req domain.CreateReviewRequest) (*domain.Review, error) {
	req.Comment = strings.TrimSpace(req.Comment)
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return nil, err
	}
	if err := validateReviewFields(req.Rating, req.Comment); err != nil {
		return nil, err
	}

	if _, err := s.reviews.GetByOwnerAndMovie(ctx, ownerID, req.MovieID); err == nil {
		return nil, store.ErrDuplicateReview
	} else if !errors.Is(err, store.ErrReviewNotFound) {
		return nil, err
	}

	review := &domain.Review{
		ID:      uuid.NewString(),
		Owner:   ownerID,
		MovieID: req.MovieID,
		Rating:  req.Rating,
		Comment: req.Comment,
	}
	if err := s.reviews.Create(ctx, review); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Review created", slog.String("reviewID", review.ID), slog.Int64("movieID", review.MovieID))
	return review, nil
}

// ListForMovie возвращает отзывы к фильму, новые первыми, с username
// автора.
func (s *ReviewService) ListForMovie(ctx context.Context, movieID int64) ([]*domain.Review, error) {
	if movieID <= 0 {
		return nil, domain.NewValidationError("movieId", "must be greater than 0")
	}
	reviews, err := s.reviews.ListByMovie(ctx, movieID)
	if err != nil {
		return nil, err
	}
	s.annotate(ctx, reviews)
	return reviews, nil
}

// annotate проставляет username авторов, обращаясь к справочнику один раз
// на автора. Ошибка справочника оставляет username пустым.
func (s *ReviewService) annotate(ctx context.Context, reviews []*domain.Review) {
	if s.directory == nil {
		return
	}
	names := make(map[string]string)
	for _, r := range reviews {
		name, seen := names[r.Owner]
		if !seen {
			profile, err := s.directory.GetAccount(ctx, r.Owner)
			if err != nil {
				s.logger.WarnContext(ctx, "Failed to resolve reviewer", slog.String("accountID", r.Owner), slog.String("error", err.Error()))
			} else {
				name = profile.Username
			}
			names[r.Owner] = name
		}
		r.Username = name
	}
}

// GetOwn возвращает отзыв owner к фильму.
func (s *ReviewService) GetOwn(ctx context.Context, ownerID string, movieID int64) (*domain.Review, error) {
	if movieID <= 0 {
		return nil, domain.NewValidationError("movieId", "must be greater than 0")
	}
	return s.reviews.GetByOwnerAndMovie(ctx, ownerID, movieID)
}

// ListMine возвращает все отзывы owner, новые первыми.
func (s *ReviewService) ListMine(ctx context.Context, ownerID string) ([]*domain.Review, error) {
	return s.reviews.ListByOwner(ctx, ownerID)
}

// owned загружает отзыв и проверяет владельца: отсутствующий - NotFound,
// чужой - Unauthorized.
func (s *ReviewService) owned(ctx context.Context, ownerID, reviewID string) (*domain.Review, error) {
	review, err := s.reviews.GetByID(ctx, reviewID)
	if err != nil {
		return nil, err
	}
	if review.Owner != ownerID {
		s.logger.WarnContext(ctx, "Review mutation by non-owner", slog.String("reviewID", reviewID), slog.String("accountID", ownerID))
		return nil, ErrNotReviewOwner
	}
	return review, nil
}

// Update меняет rating и/или comment. При любой ошибке отзыв не меняется.
func (s *ReviewService) Update(ctx context.Context, ownerID, reviewID string, req domain.UpdateReviewRequest) (*domain.Review, error) {
	review, err := s.owned(ctx, ownerID, reviewID)
	if err != nil {
		return nil, err
	}

	updated := *review
	if req.Rating != nil {
		updated.Rating = *req.Rating
	}
	if req.Comment != nil {
		updated.Comment = strings.TrimSpace(*req.Comment)
	}
	if err := validateReviewFields(updated.Rating, updated.Comment); err != nil {
		return nil, err
	}

	if err := s.reviews.Update(ctx, &updated); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Review updated", slog.String("reviewID", reviewID))
	return &updated, nil
}

// Delete удаляет отзыв owner.
func (s *ReviewService) Delete(ctx context.Context, ownerID, reviewID string) error {
	if _, err := s.owned(ctx, ownerID, reviewID); err != nil {
		return err
	}
	if err := s.reviews.Delete(ctx, ownerID, reviewID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Review deleted", slog.String("reviewID", reviewID))
	return nil
}

// Summary возвращает средний рейтинг и число отзывов к фильму.
func (s *ReviewService) Summary(ctx context.Context, movieID int64) (*domain.RatingSummary, error) {
	if movieID <= 0 {
		return nil, domain.NewValidationError("movieId", "must be greater than 0")
	}
	return s.reviews.RatingSummary(ctx, movieID)
}
