// internal/domain/review.go
package domain

import "time"

// Границы полей отзыва.
const (
	RatingMin     = 1
	RatingMax     = 10
	CommentMaxLen = 500
)

// Review - оценка и комментарий одного аккаунта к одному фильму.
type Review struct {
	ID        string    `json:"id" db:"id" bson:"_id"`
	Owner     string    `json:"owner" db:"owner_id" bson:"owner"`
	MovieID   int64     `json:"movieId" db:"movie_id" bson:"movieId"`
	Rating    int       `json:"rating" db:"rating" bson:"rating"`
	Comment   string    `json:"comment" db:"comment" bson:"comment"`
	Username  string    `json:"username,omitempty" db:"-" bson:"-"` // Заполняется при выдаче списка по фильму
	CreatedAt time.Time `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// CreateReviewRequest для создания отзыва (HTTP)
type CreateReviewRequest struct {
	MovieID int64  `json:"movieId" validate:"required,gt=0"`
	Rating  int    `json:"rating" validate:"required,min=1,max=10"`
	Comment string `json:"comment" validate:"required,min=1,max=500"`
}

// UpdateReviewRequest для обновления отзыва (HTTP)
type UpdateReviewRequest struct {
	Rating  *int    `json:"rating,omitempty" validate:"omitempty,min=1,max=10"`
	Comment *string `json:"comment,omitempty" validate:"omitempty,min=1,max=500"`
}

// RatingSummary - агрегат оценок по фильму.
type RatingSummary struct {
	MovieID       int64   `json:"movieId" db:"movie_id" bson:"_id"`
	AverageRating float64 `json:"averageRating" db:"average_rating" bson:"averageRating"`
	RatingCount   int     `json:"ratingCount" db:"rating_count" bson:"ratingCount"`
}
