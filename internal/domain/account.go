// internal/domain/account.go
package domain

import (
	"time"

	"github.com/lib/pq"
)

// Account представляет зарегистрированного пользователя.
type Account struct {
	ID             string        `json:"id" db:"id" bson:"_id"` // UUID
	Username       string        `json:"username" db:"username" bson:"username"`
	Email          string        `json:"email" db:"email" bson:"email"`
	PasswordHash   string        `json:"-" db:"password_hash" bson:"passwordHash"` // Не отдаем хеш пароля в JSON
	FavoriteMovies pq.Int64Array `json:"favoriteMovies" db:"favorite_movies" bson:"favoriteMovies"`
	CreatedAt      time.Time     `json:"createdAt" db:"created_at" bson:"createdAt"`
	UpdatedAt      time.Time     `json:"updatedAt" db:"updated_at" bson:"updatedAt"`
}

// Public возвращает копию аккаунта без полей учетных данных.
func (a *Account) Public() *Account {
	if a == nil {
		return nil
	}
	cp := *a
	cp.PasswordHash = ""
	cp.FavoriteMovies = append(pq.Int64Array{}, a.FavoriteMovies...)
	return &cp
}

// HasFavorite сообщает, есть ли фильм в избранном.
func (a *Account) HasFavorite(movieID int64) bool {
	for _, id := range a.FavoriteMovies {
		if id == movieID {
			return true
		}
	}
	return false
}

// RegisterRequest для регистрации нового пользователя (HTTP)
type RegisterRequest struct {
	Username string `json:"username" validate:"required,min=3,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=100"`
}

// LoginRequest для входа пользователя (HTTP)
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AuthResponse возвращается при регистрации и входе.
type AuthResponse struct {
	ID       string `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Token    string `json:"token"`
}

// MeResponse для GET /auth/me
type MeResponse struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	Email       string    `json:"email"`
	MemberSince time.Time `json:"memberSince"`
}

// UpdateProfileRequest для обновления профиля (HTTP)
type UpdateProfileRequest struct {
	Username *string `json:"username,omitempty" validate:"omitempty,min=3,max=50"`
	Email    *string `json:"email,omitempty" validate:"omitempty,email"`
}

// ChangePasswordRequest для смены пароля (HTTP)
type ChangePasswordRequest struct {
	OldPassword string `json:"oldPassword" validate:"required"`
	NewPassword string `json:"newPassword" validate:"required,min=6,max=100"`
}

// FavoriteRequest для добавления фильма в избранное (HTTP)
type FavoriteRequest struct {
	MovieID int64 `json:"movieId" validate:"required,gt=0"`
}

// PublicProfile - публичные поля аккаунта, которые отдает справочник аккаунтов.
type PublicProfile struct {
	ID          string    `json:"id"`
	Username    string    `json:"username"`
	MemberSince time.Time `json:"memberSince"`
}
