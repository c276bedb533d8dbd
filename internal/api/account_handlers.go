// internal/api/account_handlers.go
package api

import (
	"log/slog"
	"net/http"

	"curation-service/internal/domain"
)

// GetProfile возвращает профиль текущего аккаунта.
func (h *HTTPHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	profile, err := h.accounts.Profile(r.Context(), account.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to retrieve user profile")
		return
	}
	h.respondJSON(w, r, http.StatusOK, profile)
}

// UpdateProfile меняет username и/или email.
func (h *HTTPHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.UpdateProfileRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	updated, err := h.accounts.UpdateProfile(r.Context(), account.ID, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to update user profile")
		return
	}
	h.logger.InfoContext(r.Context(), "User profile updated", slog.String("accountID", account.ID))
	h.respondJSON(w, r, http.StatusOK, updated)
}

// ChangePassword проверяет старый пароль и сохраняет новый.
func (h *HTTPHandler) ChangePassword(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.ChangePasswordRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	if err := h.accounts.ChangePassword(r.Context(), account.ID, req); err != nil {
		h.respondServiceError(w, r, err, "Failed to update password")
		return
	}
	h.respondMessage(w, r, http.StatusOK, "Password updated successfully")
}

// ListFavorites возвращает карточки избранных фильмов.
func (h *HTTPHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	details, err := h.accounts.Favorites(r.Context(), account.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error fetching favorite movies")
		return
	}
	h.respondJSON(w, r, http.StatusOK, details)
}

// AddFavorite добавляет фильм в избранное.
func (h *HTTPHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.FavoriteRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	favorites, err := h.accounts.AddFavorite(r.Context(), account.ID, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error adding movie to favorites")
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":   "Movie added to favorites",
		"favorites": nonNil(favorites),
	})
}

// RemoveFavorite удаляет фильм из избранного.
func (h *HTTPHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	movieID, ok := h.movieIDVar(w, r, "movieId")
	if !ok {
		return
	}

	favorites, err := h.accounts.RemoveFavorite(r.Context(), account.ID, movieID)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error removing movie from favorites")
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":   "Movie removed from favorites",
		"favorites": nonNil(favorites),
	})
}

func nonNil(ids []int64) []int64 {
	if ids == nil {
		return []int64{}
	}
	return ids
}
