// internal/api/auth_handlers.go
package api

import (
	"log/slog"
	"net/http"

	"curation-service/internal/domain"
)

// Register регистрирует новый аккаунт и сразу выдает токен.
func (h *HTTPHandler) Register(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP Register request received", slog.String("path", r.URL.Path))

	var req domain.RegisterRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	resp, err := h.auth.Register(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error during registration")
		return
	}
	h.respondJSON(w, r, http.StatusCreated, resp)
}

// Login проверяет email и пароль.
func (h *HTTPHandler) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.logger.InfoContext(ctx, "HTTP Login request received", slog.String("path", r.URL.Path))

	var req domain.LoginRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	resp, err := h.auth.Login(ctx, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error during login")
		return
	}
	h.logger.InfoContext(ctx, "User logged in successfully", slog.String("accountID", resp.ID))
	h.respondJSON(w, r, http.StatusOK, resp)
}

// Me возвращает данные текущего аккаунта.
func (h *HTTPHandler) Me(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	me, err := h.accounts.Me(r.Context(), account.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve user")
		return
	}
	h.respondJSON(w, r, http.StatusOK, me)
}
