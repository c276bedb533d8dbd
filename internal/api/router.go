// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RouterOptions - настройки внешнего слоя маршрутизатора.
type RouterOptions struct {
	AllowedOrigins []string
	RateLimit      int           // Запросов к /api с одного IP за RateWindow; 0 - без ограничения
	RateWindow     time.Duration
	AuthRateLimit  int // Попыток входа/регистрации с одного IP в минуту; 0 - без ограничения
}

// NewHTTPRouter создает и настраивает HTTP маршрутизатор сервиса.
// CORS оборачивает весь маршрутизатор, чтобы preflight запросы не
// доходили до маршрутов.
func NewHTTPRouter(h *HTTPHandler, opts RouterOptions) http.Handler {
	router := mux.NewRouter()
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusNotFound, "Route not found")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
	})
	router.Use(h.RecoverPanic, h.RequestLogger)

	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Базовый префикс для всех API эндпоинтов
	apiRouter := router.PathPrefix("/api").Subrouter()
	if opts.RateLimit > 0 {
		window := opts.RateWindow
		if window <= 0 {
			window = time.Minute
		}
		apiRouter.Use(h.rateLimiter(opts.RateLimit, window))
	}
	apiRouter.HandleFunc("/health", h.Health).Methods(http.MethodGet)

	// Публичные эндпоинты (не требуют аутентификации)
	authLimit := func(next http.HandlerFunc) http.Handler { return next }
	if opts.AuthRateLimit > 0 {
		limiter := h.rateLimiter(opts.AuthRateLimit, time.Minute)
		authLimit = func(next http.HandlerFunc) http.Handler { return limiter(next) }
	}
	apiRouter.Handle("/auth/register", authLimit(h.Register)).Methods(http.MethodPost)
	apiRouter.Handle("/auth/login", authLimit(h.Login)).Methods(http.MethodPost)

	apiRouter.HandleFunc("/movies/search", h.SearchMovies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/popular", h.PopularMovies).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/genres", h.MovieGenres).Methods(http.MethodGet)
	apiRouter.HandleFunc("/movies/{id}", h.MovieDetail).Methods(http.MethodGet)

	apiRouter.HandleFunc("/reviews/movie/{movieId}", h.ListMovieReviews).Methods(http.MethodGet)
	apiRouter.HandleFunc("/reviews/movie/{movieId}/summary", h.MovieRatingSummary).Methods(http.MethodGet)

	// Эндпоинты, требующие аутентификации
	protected := apiRouter.NewRoute().Subrouter()
	protected.Use(h.AuthMiddleware)

	protected.HandleFunc("/auth/me", h.Me).Methods(http.MethodGet)

	protected.HandleFunc("/users/profile", h.GetProfile).Methods(http.MethodGet)
	protected.HandleFunc("/users/profile", h.UpdateProfile).Methods(http.MethodPut)
	protected.HandleFunc("/users/me/password", h.ChangePassword).Methods(http.MethodPut)
	protected.HandleFunc("/users/favorites", h.ListFavorites).Methods(http.MethodGet)
	protected.HandleFunc("/users/favorites", h.AddFavorite).Methods(http.MethodPost)
	protected.HandleFunc("/users/favorites/{movieId}", h.RemoveFavorite).Methods(http.MethodDelete)

	protected.HandleFunc("/watchlists", h.CreateWatchlist).Methods(http.MethodPost)
	protected.HandleFunc("/watchlists", h.ListWatchlists).Methods(http.MethodGet)
	protected.HandleFunc("/watchlists/{id}", h.GetWatchlist).Methods(http.MethodGet)
	protected.HandleFunc("/watchlists/{id}", h.UpdateWatchlist).Methods(http.MethodPut)
	protected.HandleFunc("/watchlists/{id}", h.DeleteWatchlist).Methods(http.MethodDelete)
	protected.HandleFunc("/watchlists/{id}/add-movie", h.AddMovieToWatchlist).Methods(http.MethodPut)
	protected.HandleFunc("/watchlists/{id}/remove-movie", h.RemoveMovieFromWatchlist).Methods(http.MethodPut)

	protected.HandleFunc("/reviews", h.CreateReview).Methods(http.MethodPost)
	protected.HandleFunc("/reviews/me", h.ListMyReviews).Methods(http.MethodGet)
	protected.HandleFunc("/reviews/user/{movieId}", h.GetOwnReview).Methods(http.MethodGet)
	protected.HandleFunc("/reviews/{id}", h.UpdateReview).Methods(http.MethodPut)
	protected.HandleFunc("/reviews/{id}", h.DeleteReview).Methods(http.MethodDelete)

	origins := opts.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	})(router)
}

// rateLimiter ограничивает число запросов с одного IP.
func (h *HTTPHandler) rateLimiter(limit int, window time.Duration) func(http.Handler) http.Handler {
	return httprate.Limit(limit, window,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			h.logger.WarnContext(r.Context(), "Rate limit exceeded", slog.String("path", r.URL.Path), slog.String("remoteAddr", r.RemoteAddr))
			h.respondError(w, r, http.StatusTooManyRequests, "Too many requests, please try again later")
		}),
	)
}
