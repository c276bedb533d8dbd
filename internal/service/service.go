// internal/service/service.go
package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"curation-service/internal/domain"

	"github.com/go-playground/validator/v10"
)

// Ошибки сервисного слоя. Каждая оборачивает вид ошибки из domain.
var (
	ErrInvalidCredentials = fmt.Errorf("invalid email or password: %w", domain.ErrUnauthenticated)
	ErrInvalidToken       = fmt.Errorf("token invalid: %w", domain.ErrUnauthenticated)
	ErrNotReviewOwner     = fmt.Errorf("review belongs to another account: %w", domain.ErrUnauthorized)
)

// MovieDetailsFetcher получает карточки фильмов из каталога. Реализуется
// catalog.Client.
type MovieDetailsFetcher interface {
	DetailsFor(ctx context.Context, ids []int64) []*domain.MovieDetail
}

// NewValidator создает validator, который называет поля по их json тегам.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validateStruct проверяет DTO и переводит первую ошибку validator в
// *domain.ValidationError.
func validateStruct(ctx context.Context, v *validator.Validate, s any) error {
	err := v.StructCtx(ctx, s)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return domain.NewValidationError(fe.Field(), describe(fe))
	}
	return domain.NewValidationError("", err.Error())
}

func describe(fe validator.FieldError) string {
	unit := ""
	if fe.Kind() == reflect.String {
		unit = " characters"
	}
	switch fe.Tag() {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email address"
	case "min":
		return "must be at least " + fe.Param() + unit
	case "max":
		return "must be at most " + fe.Param() + unit
	case "gt":
		return "must be greater than " + fe.Param()
	default:
		return "failed " + fe.Tag() + " validation"
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
