// internal/service/account_service.go
package service

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"curation-service/internal/domain"
	"curation-service/internal/store"
	"curation-service/pkg/auth"

	"github.com/go-playground/validator/v10"
)

// AccountService управляет профилем, паролем и избранным.
type AccountService struct {
	accounts  store.AccountStore
	hasher    *auth.PasswordHasher
	movies    MovieDetailsFetcher
	validator *validator.Validate
	logger    *slog.Logger
}

// NewAccountService создает AccountService. movies может быть nil, тогда
// избранное отдается без карточек фильмов.
func NewAccountService(accounts store.AccountStore, hasher *auth.PasswordHasher, movies MovieDetailsFetcher, v *validator.Validate, logger *slog.Logger) *AccountService {
	return &AccountService{
		accounts:  accounts,
		hasher:    hasher,
		movies:    movies,
		validator: v,
		logger:    logger,
	}
}

// Me возвращает сводку текущего аккаунта.
func (s *AccountService) Me(ctx context.Context, accountID string) (*domain.MeResponse, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return &domain.MeResponse{
		ID:          account.ID,
		Username:    account.Username,
		Email:       account.Email,
		MemberSince: account.CreatedAt,
	}, nil
}

// Profile возвращает аккаунт без учетных данных.
func (s *AccountService) Profile(ctx context.Context, accountID string) (*domain.Account, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	return account.Public(), nil
}

// UpdateProfile меняет username и/или email.
func (s *AccountService) UpdateProfile(ctx context.Context, accountID string, req domain.UpdateProfileRequest) (*domain.Account, error) {
	if req.Username != nil {
		trimmed := strings.TrimSpace(*req.Username)
		req.Username = &trimmed
	}
	if req.Email != nil {
		normalized := normalizeEmail(*req.Email)
		req.Email = &normalized
	}
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return nil, err
	}

	upd := &domain.Account{ID: accountID}
	if req.Username != nil {
		upd.Username = *req.Username
	}
	if req.Email != nil {
		upd.Email = *req.Email
	}
	if upd.Username != "" || upd.Email != "" {
		if err := s.accounts.Update(ctx, upd); err != nil {
			return nil, err
		}
		s.logger.InfoContext(ctx, "Profile updated", slog.String("accountID", accountID))
	}
	return s.Profile(ctx, accountID)
}

// ChangePassword проверяет текущий пароль и сохраняет новый хеш.
// Неверный текущий пароль - ошибка валидации, а не аутентификации.
func (s *AccountService) ChangePassword(ctx context.Context, accountID string, req domain.ChangePasswordRequest) error {
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return err
	}
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return err
	}
	if !s.hasher.Check(req.OldPassword, account.PasswordHash) {
		return domain.NewValidationError("oldPassword", "current password is incorrect")
	}
	hash, err := s.hasher.Hash(req.NewPassword)
	if err != nil {
		return err
	}
	if err := s.accounts.Update(ctx, &domain.Account{ID: accountID, PasswordHash: hash}); err != nil {
		return err
	}
	s.logger.InfoContext(ctx, "Password changed", slog.String("accountID", accountID))
	return nil
}

// Favorites возвращает карточки фильмов из избранного.
func (s *AccountService) Favorites(ctx context.Context, accountID string) ([]*domain.MovieDetail, error) {
	account, err := s.accounts.GetByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if s.movies == nil || len(account.FavoriteMovies) == 0 {
		return []*domain.MovieDetail{}, nil
	}
	return s.movies.DetailsFor(ctx, account.FavoriteMovies), nil
}

// AddFavorite добавляет фильм в избранное и возвращает новый список id.
func (s *AccountService) AddFavorite(ctx context.Context, accountID string, req domain.FavoriteRequest) ([]int64, error) {
	if err := validateStruct(ctx, s.validator, req); err != nil {
		return nil, err
	}
	favorites, err := s.accounts.AddFavorite(ctx, accountID, req.MovieID)
	if err != nil {
		if errors.Is(err, store.ErrFavoriteAlreadyExists) {
			s.logger.WarnContext(ctx, "Movie already in favorites", slog.String("accountID", accountID), slog.Int64("movieID", req.MovieID))
		}
		return nil, err
	}
	return favorites, nil
}

// RemoveFavorite удаляет фильм из избранного и возвращает новый список id.
func (s *AccountService) RemoveFavorite(ctx context.Context, accountID string, movieID int64) ([]int64, error) {
	if movieID <= 0 {
		return nil, domain.NewValidationError("movieId", "must be greater than 0")
	}
	return s.accounts.RemoveFavorite(ctx, accountID, movieID)
}
