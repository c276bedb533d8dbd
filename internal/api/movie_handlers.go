// internal/api/movie_handlers.go
package api

import (
	"net/http"

	"curation-service/internal/catalog"
)

// SearchMovies ищет фильмы в каталоге: ?query=&page=
func (h *HTTPHandler) SearchMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.catalog.Search(r.Context(), q.Get("query"), queryInt(r, "page", 1))
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to search movies")
		return
	}
	h.respondJSON(w, r, http.StatusOK, page)
}

// PopularMovies возвращает популярные фильмы: ?page=&genre=&sort_by=
func (h *HTTPHandler) PopularMovies(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.catalog.Popular(r.Context(), catalog.PopularParams{
		Page:   queryInt(r, "page", 1),
		Genre:  q.Get("genre"),
		SortBy: q.Get("sort_by"),
	})
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch popular movies")
		return
	}
	h.respondJSON(w, r, http.StatusOK, page)
}

// MovieGenres возвращает список жанров (кешируется клиентом каталога).
func (h *HTTPHandler) MovieGenres(w http.ResponseWriter, r *http.Request) {
	genres, err := h.catalog.Genres(r.Context())
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch genres")
		return
	}
	h.respondJSON(w, r, http.StatusOK, genres)
}

// MovieDetail возвращает карточку фильма.
func (h *HTTPHandler) MovieDetail(w http.ResponseWriter, r *http.Request) {
	movieID, ok := h.movieIDVar(w, r, "id")
	if !ok {
		return
	}
	detail, err := h.catalog.Detail(r.Context(), movieID)
	if err != nil {
		h.respondServiceError(w, r, err, "Failed to fetch movie details")
		return
	}
	h.respondJSON(w, r, http.StatusOK, detail)
}
