// internal/store/postgres_review_store.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curation-service/internal/domain"

	"github.com/jmoiron/sqlx"
)

const reviewColumns = `id, owner_id, movie_id, rating, comment, created_at, updated_at`

// uqOwnerMovieReview - имя уникального ограничения (owner_id, movie_id).
const uqOwnerMovieReview = "uq_owner_movie_review"

// PostgresReviewStore реализует ReviewStore для PostgreSQL.
type PostgresReviewStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresReviewStore создает новый экземпляр PostgresReviewStore.
// Важно: db *sqlx.DB должен быть уже подключен и передан сюда.
func NewPostgresReviewStore(db *sqlx.DB, logger *slog.Logger) (*PostgresReviewStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresReviewStore")
	}
	return &PostgresReviewStore{db: db, logger: logger}, nil
}

// Create создает новый отзыв. Повтор пары (owner, movieId) отклоняется
// уникальным ограничением и возвращается как ErrDuplicateReview.
func (s *PostgresReviewStore) Create(ctx context.Context, review *domain.Review) error {
	query := `INSERT INTO reviews (` + reviewColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt

	s.logger.DebugContext(ctx, "Executing Create review query",
		slog.String("reviewID", review.ID),
		slog.Int64("movieID", review.MovieID),
		slog.String("ownerID", review.Owner))

	_, err := s.db.ExecContext(ctx, query,
		review.ID, review.Owner, review.MovieID, review.Rating, review.Comment,
		review.CreatedAt, review.UpdatedAt,
	)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			if constraint == uqOwnerMovieReview {
				s.logger.WarnContext(ctx, "Account has already reviewed this movie (DB constraint)",
					slog.Int64("movieID", review.MovieID), slog.String("ownerID", review.Owner))
				return ErrDuplicateReview
			}
			return fmt.Errorf("failed to create review due to unique constraint %s: %w", constraint, domain.ErrConflict)
		}
		s.logger.ErrorContext(ctx, "Failed to create review in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create review: %w", err)
	}
	s.logger.InfoContext(ctx, "Review created successfully in DB", slog.String("reviewID", review.ID))
	return nil
}

func (s *PostgresReviewStore) getOne(ctx context.Context, query string, args ...any) (*domain.Review, error) {
	var review domain.Review
	if err := s.db.GetContext(ctx, &review, query, args...); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// GetByID находит отзыв по его ID.
func (s *PostgresReviewStore) GetByID(ctx context.Context, reviewID string) (*domain.Review, error) {
	return s.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE id = $1`, reviewID)
}

// GetByOwnerAndMovie находит отзыв аккаунта к фильму.
func (s *PostgresReviewStore) GetByOwnerAndMovie(ctx context.Context, ownerID string, movieID int64) (*domain.Review, error) {
	return s.getOne(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE owner_id = $1 AND movie_id = $2`, ownerID, movieID)
}

func (s *PostgresReviewStore) list(ctx context.Context, query string, arg any) ([]*domain.Review, error) {
	reviews := []*domain.Review{}
	if err := s.db.SelectContext(ctx, &reviews, query, arg); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews from DB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, nil
}

// ListByMovie получает все отзывы к фильму, новые первыми.
func (s *PostgresReviewStore) ListByMovie(ctx context.Context, movieID int64) ([]*domain.Review, error) {
	return s.list(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE movie_id = $1 ORDER BY created_at DESC`, movieID)
}

// ListByOwner получает все отзывы аккаунта, новые первыми.
func (s *PostgresReviewStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Review, error) {
	return s.list(ctx, `SELECT `+reviewColumns+` FROM reviews WHERE owner_id = $1 ORDER BY created_at DESC`, ownerID)
}

// Update обновляет существующий отзыв.
func (s *PostgresReviewStore) Update(ctx context.Context, review *domain.Review) error {
	query := `UPDATE reviews SET rating = $1, comment = $2, updated_at = $3 WHERE id = $4 AND owner_id = $5`
	review.UpdatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing Update review query", slog.String("reviewID", review.ID), slog.String("ownerID", review.Owner))
	result, err := s.db.ExecContext(ctx, query, review.Rating, review.Comment, review.UpdatedAt, review.ID, review.Owner)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update review in DB", slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review update result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No review found to update", slog.String("reviewID", review.ID), slog.String("ownerID", review.Owner))
		return ErrReviewNotFound
	}
	return nil
}

// Delete удаляет отзыв.
func (s *PostgresReviewStore) Delete(ctx context.Context, ownerID, reviewID string) error {
	query := `DELETE FROM reviews WHERE id = $1 AND owner_id = $2`

	result, err := s.db.ExecContext(ctx, query, reviewID, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from DB", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check review delete result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No review found to delete", slog.String("reviewID", reviewID), slog.String("ownerID", ownerID))
		return ErrReviewNotFound
	}
	return nil
}

// RatingSummary рассчитывает средний рейтинг и количество оценок для фильма.
func (s *PostgresReviewStore) RatingSummary(ctx context.Context, movieID int64) (*domain.RatingSummary, error) {
	query := `SELECT $1::BIGINT AS movie_id, COALESCE(AVG(rating), 0)::FLOAT8 AS average_rating, COUNT(rating) AS rating_count
              FROM reviews WHERE movie_id = $1`

	var summary domain.RatingSummary
	if err := s.db.GetContext(ctx, &summary, query, movieID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to get rating summary from DB", slog.Int64("movieID", movieID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get rating summary for movie %d: %w", movieID, err)
	}
	return &summary, nil
}
