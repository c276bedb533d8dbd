// internal/store/postgres_account_store.go
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

const accountColumns = `id, username, email, password_hash, favorite_movies, created_at, updated_at`

// PostgresAccountStore реализует AccountStore для PostgreSQL.
type PostgresAccountStore struct {
	db     *sqlx.DB
	logger *slog.Logger
}

// NewPostgresAccountStore создает новый экземпляр PostgresAccountStore.
// db должен быть уже подключен.
func NewPostgresAccountStore(db *sqlx.DB, logger *slog.Logger) (*PostgresAccountStore, error) {
	if db == nil {
		return nil, errors.New("database connection (db) cannot be nil for PostgresAccountStore")
	}
	return &PostgresAccountStore{db: db, logger: logger}, nil
}

// Create создает новый аккаунт. Нарушение уникальности username или email
// возвращается как ErrAccountAlreadyExists.
func (s *PostgresAccountStore) Create(ctx context.Context, account *domain.Account) error {
	query := `INSERT INTO accounts (` + accountColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7)`

	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	if account.FavoriteMovies == nil {
		account.FavoriteMovies = pq.Int64Array{}
	}

	s.logger.DebugContext(ctx, "Executing Create account query", slog.String("accountID", account.ID), slog.String("username", account.Username))
	_, err := s.db.ExecContext(ctx, query,
		account.ID, account.Username, account.Email, account.PasswordHash,
		account.FavoriteMovies, account.CreatedAt, account.UpdatedAt)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			s.logger.WarnContext(ctx, "Account already exists (unique constraint violation in DB)",
				slog.String("accountID", account.ID),
				slog.String("constraint_name", constraint))
			return ErrAccountAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create account in DB", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *PostgresAccountStore) getBy(ctx context.Context, column, value string) (*domain.Account, error) {
	query := `SELECT ` + accountColumns + ` FROM accounts WHERE ` + column + ` = $1`
	var account domain.Account
	if err := s.db.GetContext(ctx, &account, query, value); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccountNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get account from DB", slog.String("by", column), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get account by %s: %w", column, err)
	}
	return &account, nil
}

// GetByID находит аккаунт по ID.
func (s *PostgresAccountStore) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.getBy(ctx, "id", accountID)
}

// GetByEmail находит аккаунт по email.
func (s *PostgresAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.getBy(ctx, "email", email)
}

// GetByUsername находит аккаунт по имени пользователя.
func (s *PostgresAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.getBy(ctx, "username", username)
}

// Update обновляет непустые поля аккаунта.
func (s *PostgresAccountStore) Update(ctx context.Context, account *domain.Account) error {
	query := `UPDATE accounts SET
                username = COALESCE(NULLIF($1::TEXT, ''), username),
                email = COALESCE(NULLIF($2::TEXT, ''), email),
                password_hash = COALESCE(NULLIF($3::TEXT, ''), password_hash),
                updated_at = $4
              WHERE id = $5`
	account.UpdatedAt = time.Now().UTC()

	s.logger.DebugContext(ctx, "Executing Update account query", slog.String("accountID", account.ID))
	result, err := s.db.ExecContext(ctx, query, account.Username, account.Email, account.PasswordHash, account.UpdatedAt, account.ID)
	if err != nil {
		if constraint, ok := isUniqueViolation(err); ok {
			s.logger.WarnContext(ctx, "Account update violates unique constraint",
				slog.String("accountID", account.ID), slog.String("constraint_name", constraint))
			return ErrAccountAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to update account in DB", slog.String("accountID", account.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update account: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check account update result: %w", err)
	}
	if rowsAffected == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AddFavorite добавляет фильм в избранное. Проверка "уже есть" входит в
// условие UPDATE, поэтому добавление атомарно.
func (s *PostgresAccountStore) AddFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error) {
	query := `UPDATE accounts SET favorite_movies = array_append(favorite_movies, $1::BIGINT), updated_at = $2
              WHERE id = $3 AND NOT ($1::BIGINT = ANY(favorite_movies))
              RETURNING favorite_movies`
	return s.mutateFavorites(ctx, query, accountID, movieID, ErrFavoriteAlreadyExists)
}

// RemoveFavorite удаляет фильм из избранного.
func (s *PostgresAccountStore) RemoveFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error) {
	query := `UPDATE accounts SET favorite_movies = array_remove(favorite_movies, $1::BIGINT), updated_at = $2
              WHERE id = $3 AND $1::BIGINT = ANY(favorite_movies)
              RETURNING favorite_movies`
	return s.mutateFavorites(ctx, query, accountID, movieID, ErrFavoriteNotFound)
}

func (s *PostgresAccountStore) mutateFavorites(ctx context.Context, query, accountID string, movieID int64, noMatch error) ([]int64, error) {
	var favorites pq.Int64Array
	err := s.db.GetContext(ctx, &favorites, query, movieID, time.Now().UTC(), accountID)
	if err == nil {
		return []int64(favorites), nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		s.logger.ErrorContext(ctx, "Failed to update favorites in DB", slog.String("accountID", accountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update favorites: %w", err)
	}
	// Ни одна строка не подошла: аккаунта нет или условие по фильму не выполнено.
	if _, err := s.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return nil, noMatch
}
