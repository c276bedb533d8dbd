// internal/store/mongo_watchlist_store.go
package store

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"curation-service/internal/domain"

	"github.com/lib/pq"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// MongoWatchlistStore реализует WatchlistStore для MongoDB.
type MongoWatchlistStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoWatchlistStore создает новый экземпляр MongoWatchlistStore.
func NewMongoWatchlistStore(db *mongo.Database, logger *slog.Logger) *MongoWatchlistStore {
	return &MongoWatchlistStore{coll: db.Collection(watchlistsCollection), logger: logger}
}

func ownedFilter(ownerID, watchlistID string) bson.M {
	return bson.M{"_id": watchlistID, "owner": ownerID}
}

// Create сохраняет новый список.
func (s *MongoWatchlistStore) Create(ctx context.Context, watchlist *domain.Watchlist) error {
	watchlist.CreatedAt = time.Now().UTC()
	watchlist.UpdatedAt = watchlist.CreatedAt
	if watchlist.Movies == nil {
		watchlist.Movies = pq.Int64Array{}
	}
	if _, err := s.coll.InsertOne(ctx, watchlist); err != nil {
		s.logger.ErrorContext(ctx, "Failed to create watchlist in mongo", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create watchlist: %w", err)
	}
	return nil
}

// ListByOwner возвращает списки владельца, новые первыми.
func (s *MongoWatchlistStore) ListByOwner(ctx context.Context, ownerID string) ([]*domain.Watchlist, error) {
	cursor, err := s.coll.Find(ctx, bson.M{"owner": ownerID}, newestFirst)
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to list watchlists from mongo", slog.String("ownerID", ownerID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list watchlists: %w", err)
	}
	watchlists := []*domain.Watchlist{}
	if err := cursor.All(ctx, &watchlists); err != nil {
		return nil, fmt.Errorf("failed to decode watchlists: %w", err)
	}
	return watchlists, nil
}

// GetByID находит список по id и владельцу.
func (s *MongoWatchlistStore) GetByID(ctx context.Context, ownerID, watchlistID string) (*domain.Watchlist, error) {
	var watchlist domain.Watchlist
	if err := s.coll.FindOne(ctx, ownedFilter(ownerID, watchlistID)).Decode(&watchlist); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrWatchlistNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get watchlist from mongo", slog.String("watchlistID", watchlistID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get watchlist: %w", err)
	}
	return &watchlist, nil
}

// AddMovie добавляет фильм; условие $ne делает добавление атомарным.
func (s *MongoWatchlistStore) AddMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error) {
	filter := ownedFilter(ownerID, watchlistID)
	filter["movies"] = bson.M{"$ne": movieID}
	update := bson.M{
		"$push": bson.M{"movies": movieID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.findAndUpdate(ctx, ownerID, watchlistID, filter, update, ErrMovieAlreadyInWatchlist)
}

// RemoveMovie удаляет фильм из списка.
func (s *MongoWatchlistStore) RemoveMovie(ctx context.Context, ownerID, watchlistID string, movieID int64) (*domain.Watchlist, error) {
	filter := ownedFilter(ownerID, watchlistID)
	filter["movies"] = movieID
	update := bson.M{
		"$pull": bson.M{"movies": movieID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.findAndUpdate(ctx, ownerID, watchlistID, filter, update, ErrMovieNotInWatchlist)
}

// Update частично обновляет список.
func (s *MongoWatchlistStore) Update(ctx context.Context, ownerID, watchlistID string, upd WatchlistUpdate) (*domain.Watchlist, error) {
	set := bson.M{"updatedAt": time.Now().UTC()}
	if upd.Name != nil {
		set["name"] = *upd.Name
	}
	if upd.Description != nil {
		set["description"] = *upd.Description
	}
	if upd.IsPublic != nil {
		set["isPublic"] = *upd.IsPublic
	}
	return s.findAndUpdate(ctx, ownerID, watchlistID, ownedFilter(ownerID, watchlistID), bson.M{"$set": set}, ErrWatchlistNotFound)
}

func (s *MongoWatchlistStore) findAndUpdate(ctx context.Context, ownerID, watchlistID string, filter, update bson.M, noMatch error) (*domain.Watchlist, error) {
	var watchlist domain.Watchlist
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&watchlist)
	if err == nil {
		return &watchlist, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		s.logger.ErrorContext(ctx, "Failed to update watchlist in mongo", slog.String("watchlistID", watchlistID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update watchlist: %w", err)
	}
	if _, err := s.GetByID(ctx, ownerID, watchlistID); err != nil {
		return nil, err
	}
	return nil, noMatch
}

// Delete удаляет список владельца.
func (s *MongoWatchlistStore) Delete(ctx context.Context, ownerID, watchlistID string) error {
	res, err := s.coll.DeleteOne(ctx, ownedFilter(ownerID, watchlistID))
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete watchlist from mongo", slog.String("watchlistID", watchlistID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to delete watchlist: %w", err)
	}
	if res.DeletedCount == 0 {
		return ErrWatchlistNotFound
	}
	return nil
}
