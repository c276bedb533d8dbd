// internal/store/mongo.go
package store

import (
	"context"
	"fmt"
	"log/slog"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// Имена коллекций MongoDB.
const (
	accountsCollection   = "accounts"
	watchlistsCollection = "watchlists"
	reviewsCollection    = "reviews"
)

// ConnectMongo подключается к MongoDB и проверяет соединение.
func ConnectMongo(ctx context.Context, uri string, logger *slog.Logger) (*mongo.Client, error) {
	if uri == "" {
		return nil, fmt.Errorf("mongo connection URI cannot be empty")
	}
	logger.InfoContext(ctx, "Connecting to MongoDB...")
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(uri))
	if err != nil {
		logger.ErrorContext(ctx, "Failed to connect to MongoDB", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to connect to mongo: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		logger.ErrorContext(ctx, "Failed to ping MongoDB", slog.String("error", err.Error()))
		_ = client.Disconnect(ctx)
		return nil, fmt.Errorf("failed to ping mongo: %w", err)
	}
	logger.InfoContext(ctx, "Successfully connected to MongoDB.")
	return client, nil
}

// EnsureMongoIndexes создает уникальные индексы, на которые опираются
// гарантии уникальности хранилища.
func EnsureMongoIndexes(ctx context.Context, db *mongo.Database) error {
	indexes := map[string][]mongo.IndexModel{
		accountsCollection: {
			{Keys: bson.D{{Key: "username", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_accounts_username")},
			{Keys: bson.D{{Key: "email", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_accounts_email")},
		},
		watchlistsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
		reviewsCollection: {
			{Keys: bson.D{{Key: "owner", Value: 1}, {Key: "movieId", Value: 1}}, Options: options.Index().SetUnique(true).SetName("uq_owner_movie_review")},
			{Keys: bson.D{{Key: "movieId", Value: 1}, {Key: "createdAt", Value: -1}}},
		},
	}
	for name, models := range indexes {
		if _, err := db.Collection(name).Indexes().CreateMany(ctx, models); err != nil {
			return fmt.Errorf("failed to create indexes on %s: %w", name, err)
		}
	}
	return nil
}

var newestFirst = options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
