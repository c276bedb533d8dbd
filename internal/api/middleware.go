// internal/api/middleware.go
package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"curation-service/internal/domain"
	"curation-service/internal/metrics"

	"github.com/gorilla/mux"
)

// ContextKey используется для ключей в контексте запроса.
type ContextKey string

// AccountKey ключ для хранения аккаунта в контексте.
const AccountKey ContextKey = "account"

// AccountFromContext возвращает аккаунт, положенный AuthMiddleware.
func AccountFromContext(ctx context.Context) (*domain.Account, bool) {
	account, ok := ctx.Value(AccountKey).(*domain.Account)
	return account, ok && account != nil && account.ID != ""
}

// AuthMiddleware проверяет JWT токен из заголовка Authorization.
// Если токен валиден и аккаунт существует, аккаунт (без учетных данных)
// добавляется в контекст запроса.
func (h *HTTPHandler) AuthMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			h.logger.WarnContext(r.Context(), "Authorization header missing", slog.String("path", r.URL.Path))
			metrics.AuthFailures.WithLabelValues("no_token").Inc()
			h.respondError(w, r, http.StatusUnauthorized, "Not authorized, no token")
			return
		}

		// Ожидаем токен в формате "Bearer <token>"
		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			h.logger.WarnContext(r.Context(), "Invalid Authorization header format", slog.String("path", r.URL.Path))
			metrics.AuthFailures.WithLabelValues("malformed_header").Inc()
			h.respondError(w, r, http.StatusUnauthorized, "Not authorized, token invalid")
			return
		}

		account, err := h.auth.Authenticate(r.Context(), parts[1])
		if err != nil {
			if errors.Is(err, domain.ErrUnauthenticated) {
				h.logger.WarnContext(r.Context(), "Invalid or expired token", slog.String("error", err.Error()))
				h.respondError(w, r, http.StatusUnauthorized, "Not authorized, token invalid")
				return
			}
			h.logger.ErrorContext(r.Context(), "Failed to load account for token", slog.String("error", err.Error()))
			h.respondError(w, r, http.StatusInternalServerError, "Error processing user identity")
			return
		}

		ctx := context.WithValue(r.Context(), AccountKey, account)
		h.logger.DebugContext(ctx, "Token validated successfully", slog.String("accountID", account.ID))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// statusRecorder запоминает код ответа для логов и метрик.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// RequestLogger логирует каждый запрос и пишет HTTP метрики по шаблону
// маршрута.
func (h *HTTPHandler) RequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		elapsed := time.Since(start)

		route := r.URL.Path
		if current := mux.CurrentRoute(r); current != nil {
			if tpl, err := current.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		metrics.ObserveHTTP(r.Method, route, rec.status, elapsed)

		h.logger.InfoContext(r.Context(), "HTTP request handled",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", rec.status),
			slog.Duration("duration", elapsed),
		)
	})
}

// RecoverPanic переводит панику обработчика в ответ 500.
func (h *HTTPHandler) RecoverPanic(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rv := recover(); rv != nil {
				if rv == http.ErrAbortHandler {
					panic(rv)
				}
				w.Header().Set("Connection", "close")
				h.logger.ErrorContext(r.Context(), "Handler panicked", slog.String("path", r.URL.Path), slog.String("panic", fmt.Sprint(rv)))
				h.respondError(w, r, http.StatusInternalServerError, "Something broke on the server")
			}
		}()
		next.ServeHTTP(w, r)
	})
}
