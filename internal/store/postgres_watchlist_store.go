// internal/store/postgres_watchlist_store.go
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
	"github.com/lib/pq"
)

const watchlistColumns = `id, owner_id, name, description, movies, is_public, created_at, updated_at`

// PostgresWatchlistStore реализует WatchlistStore для PostgreSQL.
type PostgresWatchlistStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresWatchlistStore создает новый экземпляр PostgresWatchlistStore.
func NewPostgresWatchlistStore(db *sqlx.DB, logger *slog.Logger) (*PostgresWatchlistStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresWatchlistStore")
	}
	return &PostgresWatchlistStore{db: db, logger: logger}, nil
}

// Create сохраняет новый список.
func (s *PostgresWatchlistStore) Create(ctx context.Context, watchlist *domain.Watchlist) error {
	query := `INSERT INTO watchlists (` + watchlistColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	watchlist.CreatedAt = time.Now().UTC()
	watchlist.UpdatedAt = watchlist.CreatedAt
	if watchlist.Movies == nil {
		watchlist.Movies = pq.Int64Array{}
	}

	s.logger.DebugContext(ctx, "Executing Create watchlist query", slog.String("watchlistID", watchlist.ID), slog.String("ownerID", watchlist.Owner))
	_, err := s.db.ExecContext(ctx, query,
		watchlist.ID, watchlist.Owner, watchlist.Name, watchlist.Description,
		watchlist.Movies, watchlist.IsPublic, watchlist.CreatedAt, watchlist.UpdatedAt)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to create watchlist in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

// ListByOwner возвращает списки владельца, новые первыми.
func (s *PostgresWatchlistStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Watchlist, error) {
	query := `SELECT ` + watchlistColumns + ` FROM watchlists WHERE owner_id = $1 ORDER BY created_at DESC`
	watchlists := []*domain.Watchlist{}
	if err := s.db.SelectContext(ctx, &watchlists, query, ownerID); err != nil {
		s.logger.ErrorContext(ctx, "Failed to list watchlists from DB", slog.String("ownerID", ownerID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}
	return watchlists, nil
}

// GetByID находит список по id и владельцу.
func (s *PostgresWatchlistStore) GetByID(ctx context.Context, ownerID, watchlistID string) (*domain.Watchlist, error) {
	query := `SELECT ` + watchlistColumns + ` FROM watchlists WHERE id = $1 AND owner_id = $2`
	var watchlist domain.Watchlist
	if err := s.db.GetContext(ctx, &watchlist, query, watchlistID, ownerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWatchlistNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get watchlist from DB", slog.String("watchlistID", watchlistID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	return &watchlist, nil
}

// AddMovie добавляет фильм в конец списка одним UPDATE; условие
// "фильма еще нет" входит в WHERE.
func (s *PostgresWatchlistStore) AddMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error) {
	query := `UPDATE watchlists SET movies = array_append(movies, $1::BIGINT), updated_at = $2
              WHERE id = $3 AND owner_id = $4 AND NOT ($1::BIGINT = ANY(movies))
              RETURNING ` + watchlistColumns
	return s.mutateMovies(ctx, query, ownerID, watchlistID, movieID, ErrMovieAlreadyInWatchlist)
}

// RemoveMovie удаляет фильм из списка.
func (s *PostgresWatchlistStore) RemoveMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error) {
	query := `UPDATE watchlists SET movies = array_remove(movies, $1::BIGINT), updated_at = $2
              WHERE id = $3 AND owner_id = $4 AND $1::BIGINT = ANY(movies)
              RETURNING ` + watchlistColumns
	return s.mutateMovies(ctx, query, ownerID, watchlistID, movieID, ErrMovieNotInWatchlist)
}

func (s *PostgresWatchlistStore) mutateMovies(ctx context.Context, query, ownerID, watchlistID string, movieID int64, noMatch error) (*domain.Watchlist, error) {
	var watchlist domain.Watchlist
	err := s.db.GetContext(ctx, &watchlist, query, movieID, time.Now().UTC(), watchlistID, ownerID)
	if err == nil {
		return &watchlist, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Failed to update watchlist movies in DB", slog.String("watchlistID", watchlistID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update watchlist movies: %w", err)
	}
	if _, err := s.GetByID(ctx, ownerID, watchlistID); err != nil {
		return nil, err
	}
	return nil, noMatch
}

// Update частично обновляет список; владелец проверяется в WHERE.
func (s *PostgresWatchlistStore) Update(ctx context.Context, ownerID, watchlistID string, upd WatchlistUpdate) (*domain.Watchlist, error) {
	query := `UPDATE watchlists SET
                name = COALESCE($1, name),
                description = COALESCE($2, description),
                is_public = COALESCE($3, is_public),
                updated_at = $4
              WHERE id = $5 AND owner_id = $6
              RETURNING ` + watchlistColumns

	var watchlist domain.Watchlist
	err := s.db.GetContext(ctx, &watchlist, query,
		sql.NullString{String: deref(upd.Name), Valid: upd.Name != nil},
		sql.NullString{String: deref(upd.Description), Valid: upd.Description != nil},
		sql.NullBool{Bool: upd.IsPublic != nil && *upd.IsPublic, Valid: upd.IsPublic != nil},
		time.Now().UTC(), watchlistID, ownerID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrWatchlistNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to update watchlist in DB", slog.String("watchlistID", watchlistID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update watchlist: %w", err)
	}
	return &watchlist, nil
}

// Delete удаляет список владельца.
func (s *PostgresWatchlistStore) Delete(ctx context.Context, ownerID, watchlistID string) error {
	query := `DELETE FROM watchlists WHERE id = $1 AND owner_id = $2`
	result, err := s.db.ExecContext(ctx, query, watchlistID, ownerID)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete watchlist from DB", slog.String("watchlistID", watchlistID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check watchlist delete result: %w", err)
	}
	if rowsAffected == 0 {
		s.logger.WarnContext(ctx, "No watchlist found to delete", slog.String("watchlistID", watchlistID), slog.String("ownerID", ownerID))
		return ErrWatchlistNotFound
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
