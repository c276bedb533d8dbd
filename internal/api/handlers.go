// internal/api/handlers.go
package api

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"curation-service/internal/catalog"
	"curation-service/internal/domain"
	"curation-service/internal/service"
	"curation-service/internal/store"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"
)

const maxBodyBytes = 1 << 20

// Catalog - операции каталога фильмов, которые нужны обработчикам.
// Реализуется catalog.Client.
type Catalog interface {
	Search(ctx context.Context, query string, page int) (*domain.MoviePage, error)
	Popular(ctx context.Context, p catalog.PopularParams) (*domain.MoviePage, error)
	Detail(ctx context.Context, movieID int64) (*domain.MovieDetail, error)
	Genres(ctx context.Context) ([]domain.Genre, error)
}

// Services собирает зависимости HTTPHandler.
type Services struct {
	Auth       *service.AuthService
	Accounts   *service.AccountService
	Watchlists *service.WatchlistService
	Reviews    *service.ReviewService
	Catalog    Catalog
}

type HTTPHandler struct {
	auth       *service.AuthService
	accounts   *service.AccountService
	watchlists *service.WatchlistService
	reviews    *service.ReviewService
	catalog    Catalog
	logger     *slog.Logger
}

func NewHTTPHandler(s Services, l *slog.Logger) *HTTPHandler {
	return &HTTPHandler{
		auth:       s.Auth,
		accounts:   s.Accounts,
		watchlists: s.Watchlists,
		reviews:    s.Reviews,
		catalog:    s.Catalog,
		logger:     l,
	}
}

// --- Вспомогательные функции ---

func (h *HTTPHandler) respondJSON(w http.ResponseWriter, r *http.Request, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if data != nil {
		if err := json.NewEncoder(w).Encode(data); err != nil {
			h.logger.ErrorContext(r.Context(), "Failed to encode JSON response", slog.String("error", err.Error()), slog.String("path", r.URL.Path))
		}
	}
}

func (h *HTTPHandler) respondError(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"error": message})
}

func (h *HTTPHandler) respondMessage(w http.ResponseWriter, r *http.Request, status int, message string) {
	h.respondJSON(w, r, status, map[string]string{"message": message})
}

// respondServiceError переводит ошибку сервисного слоя в HTTP ответ.
// Внутренние подробности остаются в логе.
func (h *HTTPHandler) respondServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	ctx := r.Context()

	var verr *domain.ValidationError
	var upstream *catalog.UpstreamError
	switch {
	case errors.As(err, &verr):
		h.logger.WarnContext(ctx, "Request validation failed", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusBadRequest, "Validation failed: "+verr.Error())
	case errors.Is(err, domain.ErrUnauthenticated), errors.Is(err, domain.ErrUnauthorized),
		errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrConflict):
		status, message := clientError(err)
		h.logger.WarnContext(ctx, "Request rejected", slog.String("path", r.URL.Path), slog.Int("status", status), slog.String("error", err.Error()))
		h.respondError(w, r, status, message)
	case errors.As(err, &upstream):
		h.logger.ErrorContext(ctx, "Catalog request failed", slog.String("path", r.URL.Path), slog.Int("upstreamStatus", upstream.Status), slog.String("error", err.Error()))
		h.respondJSON(w, r, upstream.HTTPStatus(), map[string]string{
			"error":   "Failed to fetch data from movie catalog",
			"details": upstream.Message,
		})
	case errors.Is(err, catalog.ErrNotConfigured):
		h.logger.ErrorContext(ctx, "Catalog API key is not configured", slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusInternalServerError, "Movie catalog is not configured")
	default:
		h.logger.ErrorContext(ctx, fallback, slog.String("path", r.URL.Path), slog.String("error", err.Error()))
		h.respondError(w, r, http.StatusInternalServerError, fallback)
	}
}

// clientError возвращает статус и безопасное сообщение для известных
// ошибок 4xx.
func clientError(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid email or password"
	case errors.Is(err, service.ErrNotReviewOwner):
		return http.StatusUnauthorized, "Not authorized to modify this review"
	case errors.Is(err, domain.ErrUnauthenticated):
		return http.StatusUnauthorized, "Not authorized, token invalid"
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, "Not authorized"
	case errors.Is(err, store.ErrAccountNotFound):
		return http.StatusNotFound, "User not found"
	case errors.Is(err, store.ErrWatchlistNotFound):
		return http.StatusNotFound, "Watchlist not found or you do not own it"
	case errors.Is(err, store.ErrMovieNotInWatchlist):
		return http.StatusNotFound, "Movie not found in this watchlist"
	case errors.Is(err, store.ErrFavoriteNotFound):
		return http.StatusNotFound, "Movie not found in favorites"
	case errors.Is(err, store.ErrReviewNotFound):
		return http.StatusNotFound, "Review not found"
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case errors.Is(err, store.ErrAccountAlreadyExists):
		return http.StatusConflict, "User with this email or username already exists"
	case errors.Is(err, store.ErrMovieAlreadyInWatchlist):
		return http.StatusConflict, "Movie already in this watchlist"
	case errors.Is(err, store.ErrFavoriteAlreadyExists):
		return http.StatusConflict, "Movie already in favorites"
	case errors.Is(err, store.ErrDuplicateReview):
		return http.StatusConflict, "You have already reviewed this movie"
	default:
		return http.StatusConflict, "Resource already exists"
	}
}

// decodeJSON читает тело запроса в dst. Пустое тело допустимо, если
// allowEmpty.
func (h *HTTPHandler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}, allowEmpty bool) bool {
	defer r.Body.Close()
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(dst)
	if err == nil || (allowEmpty && errors.Is(err, io.EOF)) {
		return true
	}
	h.logger.WarnContext(r.Context(), "Failed to decode request body", slog.String("path", r.URL.Path), slog.String("error", err.Error()))
	h.respondError(w, r, http.StatusBadRequest, "Invalid request payload")
	return false
}

// currentAccount достает аккаунт, положенный AuthMiddleware.
func (h *HTTPHandler) currentAccount(w http.ResponseWriter, r *http.Request) (*domain.Account, bool) {
	account, ok := AccountFromContext(r.Context())
	if !ok {
		h.logger.ErrorContext(r.Context(), "Account not found in request context after AuthMiddleware", slog.String("path", r.URL.Path))
		h.respondError(w, r, http.StatusInternalServerError, "Error processing user identity")
		return nil, false
	}
	return account, true
}

// movieIDVar разбирает числовой path параметр.
func (h *HTTPHandler) movieIDVar(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		h.logger.WarnContext(r.Context(), "Invalid movie ID in path", slog.String("param", name), slog.String("value", raw))
		h.respondError(w, r, http.StatusBadRequest, "Valid movie ID is required")
		return 0, false
	}
	return id, true
}

// queryInt возвращает целый query параметр или def.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}

// Health - проверка живости процесса.
func (h *HTTPHandler) Health(w http.ResponseWriter, r *http.Request) {
	h.respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
}
