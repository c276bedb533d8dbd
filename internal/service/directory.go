// internal/service/directory.go
package service

import (
	"context"

	"curation-service/internal/domain"
	"curation-service/internal/store"
)

// AccountDirectory выдает публичные данные аккаунта по id. Реализации:
// StoreDirectory (локальное хранилище) и gRPC клиент.
type AccountDirectory interface {
	GetAccount(ctx context.Context, accountID string) (*domain.PublicProfile, error)
}

// StoreDirectory - AccountDirectory поверх AccountStore.
type StoreDirectory struct {
	accounts store.AccountStore
}

// NewStoreDirectory создает StoreDirectory.
func NewStoreDirectory(accounts store.AccountStore) *StoreDirectory {
	return &StoreDirectory{accounts: accounts}
}

// GetAccount возвращает публичный профиль или store.ErrAccountNotFound.
func (d *StoreDirectory) GetAccount(ctx context.Context, accountID string) (*domain.PublicProfile, error) {
	account, err := d.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.PublicProfile{
		ID:          account.ID,
		Username:    account.Username,
		MemberSince: account.CreatedAt,
	}, nil
}
