// internal/store/mongo_review_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curation-service/internal/domain"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// MongoReviewStore реализует ReviewStore для MongoDB.
type MongoReviewStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoReviewStore создает новый экземпляр MongoReviewStore.
func NewMongoReviewStore(db *mongo.Database, logger *slog.Logger) *MongoReviewStore {
	return &MongoReviewStore{coll: db.Collection(reviewsCollection), logger: logger}
}

// Create создает новый отзыв; уникальный индекс (owner, movieId)
// отклоняет повтор, что возвращается как ErrDuplicateReview.
func (s *MongoReviewStore) Create(ctx context.Context, review *domain.Review) error {
	review.CreatedAt = time.Now().UTC()
	review.UpdatedAt = review.CreatedAt
	if _, err := s.coll.InsertOne(ctx, review); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.WarnContext(ctx, "Account has already reviewed this movie (duplicate key in mongo)",
				slog.Int64("movieID", review.MovieID), slog.String("ownerID", review.Owner))
			return ErrDuplicateReview
		}
		s.logger.ErrorContext(ctx, "Failed to create review in mongo", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

func (s *MongoReviewStore) findOne(ctx context.Context, filter bson.M) (*domain.Review, error) {
	var review domain.Review
	if err := s.coll.FindOne(ctx, filter).Decode(&review); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrReviewNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get review from mongo", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	return &review, nil
}

// GetByID находит отзыв по его ID.
func (s *MongoReviewStore) GetByID(ctx context.Context, reviewID string) (*domain.Review, error) {
	return s.findOne(ctx, bson.M{"_id": reviewID})
}

// GetByOwnerAndMovie находит отзыв аккаунта к фильму.
func (s *MongoReviewStore) GetByOwnerAndMovie(ctx context.Context, ownerID string, movieID int64) (*domain.Review, error) {
	return s.findOne(ctx, bson.M{"owner": ownerID, "movieId": movieID})
}

func (s *MongoReviewStore) list(ctx context.Context, filter bson.M) ([]*domain.Review, error) {
	cursor, err := s.coll.Find(ctx, filter, newestFirst)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list reviews from mongo", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list reviews: %w", err)
	}
	reviews := []*domain.Review{}
	if err := cursor.All(ctx, &reviews); err != nil {
		return nil, fmt.Errorf("failed to decode reviews: %w", err)
	}
	return reviews, nil
}

// ListByMovie получает все отзывы к фильму, новые первыми.
func (s *MongoReviewStore) ListByMovie(ctx context.Context, movieID int64) ([]*domain.Review, error) {
	return s.list(ctx, bson.M{"movieId": movieID})
}

// ListByOwner получает все отзывы аккаунта, новые первыми.
func (s *MongoReviewStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Review, error) {
	return s.list(ctx, bson.M{"owner": ownerID})
}

// Update обновляет rating и comment отзыва владельца.
func (s *MongoReviewStore) Update(ctx context.Context, review *domain.Review) error {
	review.UpdatedAt = time.Now().UTC()
	res, err := s.coll.UpdateOne(ctx,
		bson.M{"_id": review.ID, "owner": review.Owner},
		bson.M{"$set": bson.M{"rating": review.Rating, "comment": review.Comment, "updatedAt": review.UpdatedAt}},
	)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to update review in mongo", slog.String("reviewID", review.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update review: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// Delete удаляет отзыв владельца.
func (s *MongoReviewStore) Delete(ctx context.Context, ownerID, reviewID string) error {
	res, err := s.coll.DeleteOne(ctx, bson.M{"_id": reviewID, "owner": ownerID})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete review from mongo", slog.String("reviewID", reviewID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete review: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrReviewNotFound
	}
	return nil
}

// RatingSummary считает средний рейтинг через aggregation pipeline.
func (s *MongoReviewStore) RatingSummary(ctx context.Context, movieID int64) (*domain.RatingSummary, error) {
	pipeline := mongo.Pipeline{
		{{Key: "$match", Value: bson.D{{Key: "movieId", Value: movieID}}}},
		{{Key: "$group", Value: bson.D{
			{Key: "_id", Value: "$movieId"},
			{Key: "averageRating", Value: bson.D{{Key: "$avg", Value: "$rating"}}},
			{Key: "ratingCount", Value: bson.D{{Key: "$sum", Value: 1}}},
		}}},
	}
	cursor, err := s.coll.Aggregate(ctx, pipeline)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to aggregate ratings in mongo", slog.Int64("movieID", movieID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get rating summary for movie %d: %w", movieID, err)
	}
	var results []domain.RatingSummary
	if err := cursor.All(ctx, &results); err != nil {
		return nil, fmt.Errorf("failed to decode rating summary: %w", err)
	}
	if len(results) == 0 {
		return &domain.RatingSummary{MovieID: movieID}, nil
	}
	return &results[0], nil
}
