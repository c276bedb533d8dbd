// internal/store/mongo_account_store.go
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

// MongoAccountStore реализует AccountStore для MongoDB.
type MongoAccountStore struct {
	coll   *mongo.Collection
	logger *slog.Logger
}

// NewMongoAccountStore создает новый экземпляр MongoAccountStore.
func NewMongoAccountStore(db *mongo.Database, logger *slog.Logger) *MongoAccountStore {
	return &MongoAccountStore{coll: db.Collection(accountsCollection), logger: logger}
}

// Create создает новый аккаунт; нарушение уникального индекса
// возвращается как ErrAccountAlreadyExists.
func (s *MongoAccountStore) Create(ctx context.Context, account *domain.Account) error {
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	if account.FavoriteMovies == nil {
		account.FavoriteMovies = pq.Int64Array{}
	}

	if _, err := s.coll.InsertOne(ctx, account); err != nil {
		if mongo.IsDuplicateKeyError(err) {
			s.logger.WarnContext(ctx, "Account already exists (duplicate key in mongo)", slog.String("accountID", account.ID))
			return ErrAccountAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to create account in mongo", slog.String("error", err.Error()))
		return fmt.Errorf("failed to create account: %w", err)
	}
	return nil
}

func (s *MongoAccountStore) findOne(ctx context.Context, filter bson.M) (*domain.Account, error) {
	var account domain.Account
	if err := s.coll.FindOne(ctx, filter).Decode(&account); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, ErrAccountNotFound
		}
		s.logger.ErrorContext(ctx, "Failed to get account from mongo", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return &account, nil
}

// GetByID находит аккаунт по ID.
func (s *MongoAccountStore) GetByID(ctx context.Context, accountID string) (*domain.Account, error) {
	return s.findOne(ctx, bson.M{"_id": accountID})
}

// GetByEmail находит аккаунт по email.
func (s *MongoAccountStore) GetByEmail(ctx context.Context, email string) (*domain.Account, error) {
	return s.findOne(ctx, bson.M{"email": email})
}

// GetByUsername находит аккаунт по имени пользователя.
func (s *MongoAccountStore) GetByUsername(ctx context.Context, username string) (*domain.Account, error) {
	return s.findOne(ctx, bson.M{"username": username})
}

// Update обновляет непустые поля аккаунта.
func (s *MongoAccountStore) Update(ctx context.Context, account *domain.Account) error {
	account.UpdatedAt = time.Now().UTC()
	set := bson.M{"updatedAt": account.UpdatedAt}
	if account.Username != "" {
		set["username"] = account.Username
	}
	if account.Email != "" {
		set["email"] = account.Email
	}
	if account.PasswordHash != "" {
		set["passwordHash"] = account.PasswordHash
	}

	res, err := s.coll.UpdateOne(ctx, bson.M{"_id": account.ID}, bson.M{"$set": set})
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return ErrAccountAlreadyExists
		}
		s.logger.ErrorContext(ctx, "Failed to update account in mongo", slog.String("accountID", account.ID), slog.String("error", err.Error()))
		return fmt.Errorf("failed to update account: %w", err)
	}
	if res.MatchedCount == 0 {
		return ErrAccountNotFound
	}
	return nil
}

// AddFavorite добавляет фильм в избранное одним условным обновлением.
func (s *MongoAccountStore) AddFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error) {
	filter := bson.M{"_id": accountID, "favoriteMovies": bson.M{"$ne": movieID}}
	update := bson.M{
		"$push": bson.M{"favoriteMovies": movieID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.mutateFavorites(ctx, accountID, filter, update, ErrFavoriteAlreadyExists)
}

// RemoveFavorite удаляет фильм из избранного.
func (s *MongoAccountStore) RemoveFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error) {
	filter := bson.M{"_id": accountID, "favoriteMovies": movieID}
	update := bson.M{
		"$pull": bson.M{"favoriteMovies": movieID},
		"$set":  bson.M{"updatedAt": time.Now().UTC()},
	}
	return s.mutateFavorites(ctx, accountID, filter, update, ErrFavoriteNotFound)
}

func (s *MongoAccountStore) mutateFavorites(ctx context.Context, accountID string, filter, update bson.M, noMatch error) ([]int64, error) {
	var account domain.Account
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	err := s.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&account)
	if err == nil {
		return append([]int64{}, account.FavoriteMovies...), nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		s.logger.ErrorContext(ctx, "Failed to update favorites in mongo", slog.String("accountID", accountID), slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to update favorites: %w", err)
	}
	if _, err := s.GetByID(ctx, accountID); err != nil {
		return nil, err
	}
	return nil, noMatch
}
