// internal/store/open.go
package store

import (
	"context"
	"fmt"
	"log/slog"
)

// Поддерживаемые драйверы хранилища.
const (
	DriverMemory   = "memory"
	DriverPostgres = "postgres"
	DriverMongo    = "mongo"
)

// Options описывает выбор и параметры хранилища.
type Options struct {
	Driver        string
	PostgresURL   string
	MongoURI      string
	MongoDatabase string
	AutoMigrate   bool
}

// Stores объединяет хранилища одного драйвера.
type Stores struct {
	Accounts   AccountStore
	Watchlists WatchlistStore
	Reviews    ReviewStore

	closeFn func(ctx context.Context) error
}

// Close освобождает соединение с базой данных.
func (s *Stores) Close(ctx context.Context) error {
	if s.closeFn == nil {
		return nil
	}
	return s.closeFn(ctx)
}

// NewMemoryStores возвращает Stores поверх одного хранилища в памяти.
func NewMemoryStores() *Stores {
	m := NewMemory()
	return &Stores{Accounts: m.Accounts(), Watchlists: m.Watchlists(), Reviews: m.Reviews()}
}

// Open открывает хранилища выбранного драйвера.
func Open(ctx context.Context, opts Options, logger *slog.Logger) (*Stores, error) {
	switch opts.Driver {
	case "", DriverMemory:
		logger.WarnContext(ctx, "Using in-memory store; data is lost on restart")
		return NewMemoryStores(), nil

	case DriverPostgres:
		db, err := ConnectPostgres(ctx, opts.PostgresURL, logger)
		if err != nil {
			return nil, err
		}
		if opts.AutoMigrate {
			if err := MigratePostgres(ctx, db); err != nil {
				db.Close()
				return nil, err
			}
			logger.InfoContext(ctx, "PostgreSQL schema applied.")
		}
		accounts, _ := NewPostgresAccountStore(db, logger)
		watchlists, _ := NewPostgresWatchlistStore(db, logger)
		reviews, _ := NewPostgresReviewStore(db, logger)
		return &Stores{
			Accounts:   accounts,
			Watchlists: watchlists,
			Reviews:    reviews,
			closeFn: func(context.Context) error {
				logger.Info("Closing PostgreSQL database connection...")
				return db.Close()
			},
		}, nil

	case DriverMongo:
		client, err := ConnectMongo(ctx, opts.MongoURI, logger)
		if err != nil {
			return nil, err
		}
		db := client.Database(opts.MongoDatabase)
		if opts.AutoMigrate {
			if err := EnsureMongoIndexes(ctx, db); err != nil {
				_ = client.Disconnect(ctx)
				return nil, err
			}
			logger.InfoContext(ctx, "MongoDB indexes ensured.")
		}
		return &Stores{
			Accounts:   NewMongoAccountStore(db, logger),
			Watchlists: NewMongoWatchlistStore(db, logger),
			Reviews:    NewMongoReviewStore(db, logger),
			closeFn: func(ctx context.Context) error {
				logger.Info("Disconnecting from MongoDB...")
				return client.Disconnect(ctx)
			},
		}, nil

	default:
		return nil, fmt.Errorf("unknown store driver %q", opts.Driver)
	}
}
