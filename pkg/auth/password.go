// pkg/auth/password.go
package auth

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// DefaultCost - стоимость bcrypt по умолчанию (10).
const DefaultCost = bcrypt.DefaultCost

// PasswordHasher хеширует и проверяет пароли с заданной стоимостью bcrypt.
type PasswordHasher struct {
	cost int
}

// NewPasswordHasher создает PasswordHasher. Недопустимая стоимость
// заменяется на DefaultCost.
func NewPasswordHasher(cost int) *PasswordHasher {
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = DefaultCost
	}
	return &PasswordHasher{cost: cost}
}

// Hash генерирует bcrypt хеш для заданного пароля.
func (h *PasswordHasher) Hash(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", fmt.Errorf("failed to hash password: %w", err)
	}
	return string(hashed), nil
}

// Check сравнивает пароль с существующим хешем.
func (h *PasswordHasher) Check(password, hashedPassword string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashedPassword), []byte(password)) == nil
}

// HashPassword хеширует пароль со стоимостью DefaultCost.
func HashPassword(password string) (string, error) {
	return NewPasswordHasher(DefaultCost).Hash(password)
}

// CheckPasswordHash сравнивает предоставленный пароль с существующим хешем.
func CheckPasswordHash(password, hashedPassword string) bool {
	return NewPasswordHasher(DefaultCost).Check(password, hashedPassword)
}
