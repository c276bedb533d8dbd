// internal/store/postgres.go
package store

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

//go:embed schema.sql
var postgresSchema string

// pgUniqueViolation - код ошибки PostgreSQL unique_violation.
const pgUniqueViolation = "23505"

// ConnectPostgres подключается к PostgreSQL и проверяет соединение.
func ConnectPostgres(ctx context.Context, dbURL string, logger *slog.Logger) (*sqlx.DB, error) {
	if dbURL == "" {
		return nil, errors.New("DB connection string (dbURL) cannot be empty")
	}
	logger.InfoContext(ctx, "Connecting to PostgreSQL database...")
	db, err := sqlx.ConnectContext(ctx, "postgres", dbURL)
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to PostgreSQL", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to connect to postgres: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		logger.ErrorContext(ctx, "Failed to ping PostgreSQL database", slog.String("error", err.Error()))
		db.Close()
		return nil, fmt.Errorf("failed to ping postgres: %w", err)
	}
	logger.InfoContext(ctx, "Successfully connected to PostgreSQL database.")
	return db, nil
}

// MigratePostgres создает таблицы и индексы, если их еще нет.
func MigratePostgres(ctx context.Context, db *sqlx.DB) error {
	if _, err := db.ExecContext(ctx, postgresSchema); err != nil {
		return fmt.Errorf("failed to apply postgres schema: %w", err)
	}
	return nil
}

// isUniqueViolation сообщает, нарушен ли уникальный индекс, и возвращает
// имя ограничения.
func isUniqueViolation(err error) (string, bool) {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation {
		return pqErr.Constraint, true
	}
	return "", false
}
