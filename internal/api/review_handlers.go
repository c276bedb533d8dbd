// internal/api/review_handlers.go
package api

import (
	"net/http"

	"curation-service/internal/domain"

	"github.com/gorilla/mux"
)

// CreateReview создает отзыв текущего аккаунта на фильм.
func (h *HTTPHandler) CreateReview(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.CreateReviewRequest
	if !h.decodeJSON(w, r, &req, false) {
		return
	}

	review, err := h.reviews.Create(r.Context(), account.ID, req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error creating review")
		return
	}
	h.respondJSON(w, r, http.StatusCreated, review)
}

// ListMovieReviews - публичный список отзывов на фильм.
func (h *HTTPHandler) ListMovieReviews(w http.ResponseWriter, r *http.Request) {
	movieID, ok := h.movieIDVar(w, r, "movieId")
	if !ok {
		return
	}
	reviews, err := h.reviews.ListForMovie(r.Context(), movieID)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error fetching reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, reviews)
}

// MovieRatingSummary возвращает среднюю оценку и число отзывов.
func (h *HTTPHandler) MovieRatingSummary(w http.ResponseWriter, r *http.Request) {
	movieID, ok := h.movieIDVar(w, r, "movieId")
	if !ok {
		return
	}
	summary, err := h.reviews.Summary(r.Context(), movieID)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error fetching rating summary")
		return
	}
	h.respondJSON(w, r, http.StatusOK, summary)
}

// GetOwnReview возвращает отзыв текущего аккаунта на фильм.
func (h *HTTPHandler) GetOwnReview(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	movieID, ok := h.movieIDVar(w, r, "movieId")
	if !ok {
		return
	}
	review, err := h.reviews.GetOwn(r.Context(), account.ID, movieID)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error fetching review")
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

// ListMyReviews возвращает все отзывы текущего аккаунта.
func (h *HTTPHandler) ListMyReviews(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	reviews, err := h.reviews.ListMine(r.Context(), account.ID)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error fetching reviews")
		return
	}
	h.respondJSON(w, r, http.StatusOK, reviews)
}

// UpdateReview меняет оценку и/или комментарий. Только для автора.
func (h *HTTPHandler) UpdateReview(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	var req domain.UpdateReviewRequest
	if !h.decodeJSON(w, r, &req, true) {
		return
	}

	review, err := h.reviews.Update(r.Context(), account.ID, mux.Vars(r)["id"], req)
	if err != nil {
		h.respondServiceError(w, r, err, "Server error updating review")
		return
	}
	h.respondJSON(w, r, http.StatusOK, review)
}

// DeleteReview удаляет отзыв. Только для автора.
func (h *HTTPHandler) DeleteReview(w http.ResponseWriter, r *http.Request) {
	account, ok := h.currentAccount(w, r)
	if !ok {
		return
	}
	if err := h.reviews.Delete(r.Context(), account.ID, mux.Vars(r)["id"]); err != nil {
		h.respondServiceError(w, r, err, "Server error deleting review")
		return
	}
	h.respondMessage(w, r, http.StatusOK, "Review removed")
}
