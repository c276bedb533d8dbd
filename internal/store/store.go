// internal/store/store.go
package store

import (
	"context"
	"fmt"

	"curation-service/internal/domain"
)

// Кастомные ошибки хранилища. Каждая оборачивает вид ошибки из domain,
// поэтому errors.Is(err, domain.ErrNotFound) работает на любом уровне.
var (
	ErrAccountNotFound         = fmt.Errorf("account not found: %w", domain.ErrNotFound)
	ErrAccountAlreadyExists    = fmt.Errorf("account with this email or username already exists: %w", domain.ErrConflict)
	ErrFavoriteAlreadyExists   = fmt.Errorf("movie already in favorites: %w", domain.ErrConflict)
	ErrFavoriteNotFound        = fmt.Errorf("movie not in favorites: %w", domain.ErrNotFound)
	ErrWatchlistNotFound       = fmt.Errorf("watchlist not found: %w", domain.ErrNotFound)
	ErrMovieAlreadyInWatchlist = fmt.Errorf("movie already in watchlist: %w", domain.ErrConflict)
	ErrMovieNotInWatchlist     = fmt.Errorf("movie not in watchlist: %w", domain.ErrNotFound)
	ErrReviewNotFound          = fmt.Errorf("review not found: %w", domain.ErrNotFound)
	ErrDuplicateReview         = fmt.Errorf("account has already reviewed this movie: %w", domain.ErrConflict)
)

// AccountStore определяет интерфейс для операций с аккаунтами.
// Уникальность username и email обеспечивает само хранилище.
type AccountStore interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, accountID string) (*domain.Account, error)
	GetByEmail(ctx context.Context, email string) (*domain.Account, error)
	GetByUsername(ctx context.Context, username string) (*domain.Account, error)
	// Update меняет непустые поля Username, Email и PasswordHash.
	Update(ctx context.Context, account *domain.Account) error
	AddFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error)
	RemoveFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error)
}

// WatchlistUpdate - частичное обновление списка; nil означает "не менять".
type WatchlistUpdate struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// WatchlistStore определяет интерфейс для списков просмотра. Владелец
// всегда входит в условие поиска: чужой список неотличим от отсутствующего.
type WatchlistStore interface {
	Create(ctx context.Context, watchlist *domain.Watchlist) error
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Watchlist, error)
	GetByID(ctx context.Context, ownerID, watchlistID string) (*domain.Watchlist, error)
	AddMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error)
	RemoveMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error)
	Update(ctx context.Context, ownerID, watchlistID string, upd WatchlistUpdate) (*domain.Watchlist, error)
	Delete(ctx context.Context, ownerID, watchlistID string) error
}

// ReviewStore определяет интерфейс для отзывов. Пара (owner, movieId)
// уникальна на уровне хранилища.
type ReviewStore interface {
	Create(ctx context.Context, review *domain.Review) error
	GetByID(ctx context.Context, reviewID string) (*domain.Review, error)
	GetByOwnerAndMovie(ctx context.Context, ownerID string, movieID int64) (*domain.Review, error)
	ListByMovie(ctx context.Context, movieID int64) ([]*domain.Review, error)
	ListByOwner(ctx context.Context, ownerID string) ([]*domain.Review, error)
	// Update меняет rating и comment, если отзыв принадлежит review.Owner.
	Update(ctx context.Context, review *domain.Review) error
	Delete(ctx context.Context, ownerID, reviewID string) error
	RatingSummary(ctx context.Context, movieID int64) (*domain.RatingSummary, error)
}
