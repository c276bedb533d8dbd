// internal/service/auth_service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"curation-service/internal/domain"
	"curation-service/internal/metrics"
	"curation-service/internal/store"
	"curation-service/pkg/auth"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/lib/pq"
)

// AuthService регистрирует аккаунты, проверяет учетные данные и токены.
type AuthService struct {
	accounts  store.AccountStore
	tokens    auth.TokenManager
	hasher    *auth.PasswordHasher
	validator *validator.Validate
	logger    *slog.Logger
}

// NewAuthService создает AuthService.
func NewAuthService(accounts store.AccountStore, tokens auth.TokenManager, hasher *auth.PasswordHasher, v *validator.Validate, logger *slog.Logger) *AuthService {
	return &AuthService{
		accounts:  accounts,
		tokens:    tokens,
		hasher:    hasher,
		validator: v,
		logger:    logger,
	}
}

// Register создает аккаунт и выдает токен. Предварительная проверка
// уникальности только экономит хеширование; решающей остается ошибка
// уникального индекса хранилища.
func (s *AuthService) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResponse, error) {
	req.Username = strings.TrimSpace(req.Username)
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return nil, err
	}

	if err := s.ensureAvailable(ctx, req.Username, req.Email); err != nil {
		return nil, err
	}

	hash, err := s.hasher.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	account := &domain.Account{
		ID:             uuid.NewString(),
		Username:       req.Username,
		Email:          req.Email,
		PasswordHash:   hash,
		FavoriteMovies: pq.Int64Array{},
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "Account registered", slog.String("accountID", account.ID), slog.String("username", account.Username))

	return s.issue(account)
}

func (s *AuthService) ensureAvailable(ctx context.Context, username, email string) error {
	if _, err := s.accounts.GetByEmail(ctx, email); err == nil {
		return store.ErrAccountAlreadyExists
	} else if !errors.Is(err, store.ErrAccountNotFound) {
		return err
	}
	if _, err := s.accounts.GetByUsername(ctx, username); err == nil {
		return store.ErrAccountAlreadyExists
	} else if !errors.Is(err, store.ErrAccountNotFound) {
		return err
	}
	return nil
}

// Login проверяет email и пароль. Неизвестный email и неверный пароль
// дают одну и ту же ошибку.
func (s *AuthService) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResponse, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return nil, err
	}

	account, err := s.accounts.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			s.logger.WarnContext(ctx, "Login attempt for non-existent email")
			metrics.AuthFailures.WithLabelValues("unknown_email").Inc()
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}
	if !s.hasher.Check(req.Password, account.PasswordHash) {
		s.logger.WarnContext(ctx, "Invalid password attempt", slog.String("accountID", account.ID))
		metrics.AuthFailures.WithLabelValues("wrong_password").Inc()
		return nil, ErrInvalidCredentials
	}
	return s.issue(account)
}

func (s *AuthService) issue(account *domain.Account) (*domain.AuthResponse, error) {
	token, err := s.tokens.Generate(account.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to issue token: %w", err)
	}
	return &domain.AuthResponse{
		ID:       account.ID,
		Username: account.Username,
		Email:    account.Email,
		Token:    token,
	}, nil
}

// Authenticate проверяет токен и возвращает аккаунт без учетных данных.
// Токен аккаунта, которого больше нет, считается недействительным.
func (s *AuthService) Authenticate(ctx context.Context, token string) (*domain.Account, error) {
	claims, err := s.tokens.Validate(token)
	if err != nil {
		metrics.AuthFailures.WithLabelValues("invalid_token").Inc()
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	account, err := s.accounts.GetByID(ctx, claims.AccountID)
	if err != nil {
		if errors.Is(err, store.ErrAccountNotFound) {
			metrics.AuthFailures.WithLabelValues("unknown_account").Inc()
			return nil, ErrInvalidToken
		}
		return nil, err
	}
	return account.Public(), nil
}
