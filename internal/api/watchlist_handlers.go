// internal/api/watchlist_handlers.go
package api

import (
	"net/http"

	"curation-service/internal/domain"

	"github.com/gorilla/mux"
)

// CreateWatchlist создает список просмотра текущего аккаунта.
func (h *HTTPHandler) CreateWatchlist(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.CreateWatchlistRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	watchlist, err := h.watchlists.Create(r.Context(), account.ID, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error creating watchlist")
		return
	}
	h.respondJSON(w, r, http.StatusCreated, watchlist)
}

// ListWatchlists возвращает списки текущего аккаунта, новые первыми.
func (h *HTTPHandler) ListWatchlists(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	watchlists, err := h.watchlists.List(r.Context(), account.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error fetching watchlists")
		return
	}
	h.respondJSON(w, r, http.StatusOK, watchlists)
}

// GetWatchlist возвращает список вместе с карточками фильмов.
func (h *HTTPHandler) GetWatchlist(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	details, err := h.watchlists.GetWithDetails(r.Context(), account.ID, mux.Vars(r)["id"])
	if err != nil {
		h.respondServiceError(w, r, err, "Server error fetching watchlist")
		return
	}
	h.respondJSON(w, r, http.StatusOK, details)
}

// AddMovieToWatchlist добавляет фильм в список.
func (h *HTTPHandler) AddMovieToWatchlist(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.WatchlistMovieRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	watchlist, err := h.watchlists.AddMovie(r.Context(), account.ID, mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error adding movie")
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":   "Movie added to watchlist",
		"watchlist": watchlist,
	})
}

// RemoveMovieFromWatchlist удаляет фильм из списка.
func (h *HTTPHandler) RemoveMovieFromWatchlist(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.WatchlistMovieRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	watchlist, err := h.watchlists.RemoveMovie(r.Context(), account.ID, mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error removing movie")
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":   "Movie removed from watchlist",
		"watchlist": watchlist,
	})
}

// UpdateWatchlist частично обновляет список.
func (h *HTTPHandler) UpdateWatchlist(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.UpdateWatchlistRequest
	if !h.decodeJSON(w, r, &req, true) {
		return
	}

	watchlist, err := h.watchlists.Update(r.Context(), account.ID, mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error updating watchlist")
		return
	}
	h.respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"message":   "Watchlist updated",
		"watchlist": watchlist,
	})
}

// DeleteWatchlist удаляет список.
func (h *HTTPHandler) DeleteWatchlist(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	if err := h.watchlists.Delete(r.Context(), account.ID, mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, r, err, "Server error deleting watchlist")
		return
	}
	h.respondMessage(w, r, http.StatusOK, "Watchlist deleted successfully")
}
