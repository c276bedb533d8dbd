// internal/domain/errors.go
package domain

import "errors"

// Виды ошибок, общие для всех слоёв. Хранилища и сервисы оборачивают их
// через %w, обработчики HTTP переводят их в статусы через errors.Is.
var (
	ErrValidation      = errors.New("validation failed")
	ErrUnauthenticated = errors.New("not authenticated")
	ErrUnauthorized    = errors.New("not authorized")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
)

// ValidationError описывает отклонённое поле запроса.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return e.Field + ": " + e.Message
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidationError создает *ValidationError для поля field.
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}
