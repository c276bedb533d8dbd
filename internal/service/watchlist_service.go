// internal/service/watchlist_service.go
package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"curation-service/internal/domain"
	"curation-service/internal/store"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// WatchlistService - операции над списками просмотра. Каждая операция
// получает владельца из Access Gate и передает его в условие поиска.
type WatchlistService struct {
	watchlists store.WatchlistStore
	movies     MovieDetailsFetcher
	validator  *validator.Validate
	logger     *slog.Logger
}

// NewWatchlistService создает WatchlistService. movies может быть nil.
func NewWatchlistService(watchlists store.WatchlistStore, movies MovieDetailsFetcher, v *validator.Validate, logger *slog.Logger) *WatchlistService {
	return &WatchlistService{watchlists: watchlists, movies: movies, validator: v, logger: logger}
}

func validateName(name string) (string, error) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n == 0 {
		return "", domain.NewValidationError("name", "is required")
	}
	if n < domain.WatchlistNameMin || n > domain.WatchlistNameMax {
		return "", domain.NewValidationError("name",
			fmt.Sprintf("must be between %d and %d characters", domain.WatchlistNameMin, domain.WatchlistNameMax))
	}
	return name, nil
}

func validateDescription(description string) (string, error) {
	description = strings.TrimSpace(description)
	if utf8.RuneCountInString(description) > domain.WatchlistDescriptionMax {
		return "", domain.NewValidationError("description",
			fmt.Sprintf("must be at most %d characters", domain.WatchlistDescriptionMax))
	}
	return description, nil
}

// Create создает список для owner.
func (s *WatchlistService) Create(ctx context.Context, ownerID string, req domain.CreateWatchlistRequest) (*domain.Watchlist, error) {
	name, err := validateName(req.Name)
	if err != nil {
		return nil, err
	}
	description, err := validateDescription(req.Description)
	if err != nil {
		return nil, err
	}

	watchlist := &domain.Watchlist{
		ID:          uuid.NewString(),
		Owner:       ownerID,
		Name:        name,
		Description: description,
		Movies:      pq.Int64Array{},
		IsPublic:    req.IsPublic,
	}
	if err := s.watchlists.Create(ctx, watchlist); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Watchlist created", slog.String("watchlistID", watchlist.ID), slog.String("ownerID", ownerID))
	return watchlist, nil
}

// List возвращает списки owner, новые первыми.
func (s *WatchlistService) List(ctx context.Context, ownerID string) ([]*domain.Watchlist, error) {
	return s.watchlists.ListByOwner(ctx, ownerID)
}

// Get возвращает список owner. Чужой или отсутствующий список - NotFound.
func (s *WatchlistService) Get(ctx context.Context, ownerID, watchlistID string) (*domain.Watchlist, error) {
	return s.watchlists.GetByID(ctx, ownerID, watchlistID)
}

// GetWithDetails возвращает список вместе с карточками фильмов.
func (s *WatchlistService) GetWithDetails(ctx context.Context, ownerID, watchlistID string) (*domain.WatchlistDetails, error) {
	watchlist, err := s.watchlists.GetByID(ctx, ownerID, watchlistID)
	if err != nil {
		return nil, err
	}
	details := []*domain.MovieDetail{}
	if s.movies != nil && len(watchlist.Movies) > 0 {
		details = s.movies.DetailsFor(ctx, watchlist.Movies)
	}
	return &domain.WatchlistDetails{Watchlist: watchlist, MovieDetails: details}, nil
}

// AddMovie добавляет фильм в список. Повтор - Conflict, список не меняется.
func (s *WatchlistService) AddMovie(ctx context.Context, ownerID, watchlistID string, req domain.WatchlistMovieRequest) (*domain.Watchlist, error) {
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return nil, err
	}
	watchlist, err := s.watchlists.AddMovie(ctx, ownerID, watchlistID, req.MovieID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Movie added to watchlist", slog.String("watchlistID", watchlistID), slog.Int64("movieID", req.MovieID))
	return watchlist, nil
}

// RemoveMovie удаляет фильм из списка. Отсутствующий фильм - NotFound.
func (s *WatchlistService) RemoveMovie(ctx context.Context, ownerID, watchlistID string, req domain.WatchlistMovieRequest) (*domain.Watchlist, error) {
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return nil, err
	}
	watchlist, err := s.watchlists.RemoveMovie(ctx, ownerID, watchlistID, req.MovieID)
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Movie removed from watchlist", slog.String("watchlistID", watchlistID), slog.Int64("movieID", req.MovieID))
	return watchlist, nil
}

// Update частично обновляет список. Переданное имя проверяется по тем же
// границам, что и при создании.
func (s *WatchlistService) Update(ctx context.Context, ownerID, watchlistID string, req domain.UpdateWatchlistRequest) (*domain.Watchlist, error) {
	var upd store.WatchlistUpdate
	if req.Name != nil {
		name, err := validateName(*req.Name)
		if err != nil {
			return nil, err
		}
		upd.Name = &name
	}
	if req.Description != nil {
		description, err := validateDescription(*req.Description)
		if err != nil {
			return nil, err
		}
		upd.Description = &description
	}
	upd.IsPublic = req.IsPublic
	return s.watchlists.Update(ctx, ownerID, watchlistID, upd)
}

// Delete удаляет список owner.
func (s *WatchlistService) Delete(ctx context.Context, ownerID, watchlistID string) error {
	if err := s.watchlists.Delete(ctx, ownerID, watchlistID); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Watchlist deleted", slog.String("watchlistID", watchlistID), slog.String("ownerID", ownerID))
	return nil
}
