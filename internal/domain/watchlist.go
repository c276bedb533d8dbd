// internal/domain/watchlist.go
package domain

import (
	"time"

	"github.com/lib/pq"
)

// Границы полей списка просмотра.
const (
	WatchlistNameMin        = 3
	WatchlistNameMax        = 100
	WatchlistDescriptionMax = 500
)

// Watchlist - именованная коллекция фильмов, принадлежащая одному аккаунту.
type Watchlist struct {
	ID          string        `json:"id" db:"id" bson:"_id"`
	Owner       string        `json:"owner" db:"owner_id" bson:"owner"`
	Name        string        `json:"name" db:"name" bson:"name"`
	Description string        `json:"description" db:"description" bson:"description"`
	Movies      pq.Int64Array `json:"movies" db:"movies" bson:"movies"` // Порядок добавления, без повторов
	IsPublic    bool          `json:"isPublic" db:"is_public" bson:"isPublic"`
	CreatedAt   time.Time     `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt   time.Time     `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// Contains сообщает, есть ли фильм в списке.
func (w *Watchlist) Contains(movieID int64) bool {
	for _, id := range w.Movies {
		if id == movieID {
			return true
		}
	}
	return false
}

// CreateWatchlistRequest для создания списка (HTTP)
type CreateWatchlistRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	IsPublic    bool   `json:"isPublic"`
}

// UpdateWatchlistRequest - частичное обновление: nil означает "не менять".
type UpdateWatchlistRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}

// WatchlistMovieRequest для add-movie / remove-movie (HTTP)
type WatchlistMovieRequest struct {
	MovieID int64 `json:"movieId" validate:"required,gt=0"`
}

// WatchlistDetails - список вместе с карточками фильмов из каталога.
type WatchlistDetails struct {
	*Watchlist
	MovieDetails []*MovieDetail `json:"movieDetails"`
}
