// internal/catalog/client.go
package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"curation-service/internal/domain"
	"curation-service/internal/metrics"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

// maxBodyBytes ограничивает размер ответа каталога.
const maxBodyBytes = 8 << 20

// detailExtras - разделы, которые каталог добавляет к карточке фильма.
const detailExtras = "videos,credits,images,recommendations"

// Config - параметры клиента каталога.
type Config struct {
	BaseURL         string
	APIKey          string
	Language        string
	Timeout         time.Duration
	RatePerSecond   float64
	Burst           int
	BreakerFailures uint32
	BreakerTimeout  time.Duration
	FanOut          int // Параллельных запросов при получении нескольких карточек
}

// DefaultConfig возвращает параметры по умолчанию для TMDB.
func DefaultConfig() Config {
	return Config{
		BaseURL:         "https://api.themoviedb.org/3",
		Language:        "en-US",
		Timeout:         10 * time.Second,
		RatePerSecond:   20,
		Burst:           20,
		BreakerFailures: 5,
		BreakerTimeout:  30 * time.Second,
		FanOut:          4,
	}
}

// Client - шлюз к внешнему каталогу фильмов (TMDB).
type Client struct {
	cfg     Config
	http    *http.Client
	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[[]byte]
	logger  *slog.Logger

	genreMu    sync.RWMutex
	genres     []domain.Genre // nil, пока не загружен
	genreGroup singleflight.Group
}

// NewClient создает клиент каталога. Пустой API ключ допустим: каждая
// операция тогда вернет ErrNotConfigured.
func NewClient(cfg Config, logger *slog.Logger) *Client {
	def := DefaultConfig()
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Language == "" {
		cfg.Language = def.Language
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = def.Timeout
	}
	if cfg.RatePerSecond <= 0 {
		cfg.RatePerSecond = def.RatePerSecond
	}
	if cfg.Burst <= 0 {
		cfg.Burst = def.Burst
	}
	if cfg.BreakerFailures == 0 {
		cfg.BreakerFailures = def.BreakerFailures
	}
	if cfg.BreakerTimeout <= 0 {
		cfg.BreakerTimeout = def.BreakerTimeout
	}
	if cfg.FanOut <= 0 {
		cfg.FanOut = def.FanOut
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	c := &Client{
		cfg:     cfg,
		http:    &http.Client{Timeout: cfg.Timeout},
		limiter: rate.NewLimiter(rate.Limit(cfg.RatePerSecond), cfg.Burst),
		logger:  logger,
	}
	c.breaker = gobreaker.NewCircuitBreaker[[]byte](gobreaker.Settings{
		Name:        "catalog",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.BreakerFailures
		},
		IsSuccessful: func(err error) bool {
			if err == nil || errors.Is(err, context.Canceled) {
				return true
			}
			var upErr *UpstreamError
			if errors.As(err, &upErr) {
				return !upErr.serverSide()
			}
			return false
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CatalogBreakerState.Set(float64(to))
			logger.Warn("Catalog circuit breaker state changed",
				slog.String("breaker", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	})
	return c
}

// Configured сообщает, задан ли API ключ.
func (c *Client) Configured() bool { return c.cfg.APIKey != "" }

// Search ищет фильмы по строке запроса.
func (c *Client) Search(ctx context.Context, query string, page int) (*domain.MoviePage, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, domain.NewValidationError("query", "search query is required")
	}
	params := url.Values{}
	params.Set("query", query)
	params.Set("page", strconv.Itoa(normalizePage(page)))
	params.Set("include_adult", "false")

	var out domain.MoviePage
	if err := c.get(ctx, "search", "/search/movie", params, &out); err != nil {
		return nil, err
	}
	return normalizeMoviePage(&out), nil
}

// PopularParams - параметры списка популярных фильмов.
type PopularParams struct {
	Page   int
	Genre  string
	SortBy string
}

// Popular возвращает популярные фильмы. С фильтром по жанру или
// сортировкой используется /discover/movie.
func (c *Client) Popular(ctx context.Context, p PopularParams) (*domain.MoviePage, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(normalizePage(p.Page)))

	endpoint, path := "popular", "/movie/popular"
	if p.Genre != "" || p.SortBy != "" {
		endpoint, path = "discover", "/discover/movie"
		params.Set("include_adult", "false")
		if p.Genre != "" {
			params.Set("with_genres", p.Genre)
		}
		sortBy := p.SortBy
		if sortBy == "" {
			sortBy = "popularity.desc"
		}
		params.Set("sort_by", sortBy)
	}

	var out domain.MoviePage
	if err := c.get(ctx, endpoint, path, params, &out); err != nil {
		return nil, err
	}
	return normalizeMoviePage(&out), nil
}

// Detail возвращает карточку фильма вместе с видео, актерами,
// изображениями и рекомендациями.
func (c *Client) Detail(ctx context.Context, movieID int64) (*domain.MovieDetail, error) {
	return c.detail(ctx, movieID, true)
}

func (c *Client) detail(ctx context.Context, movieID int64, extras bool) (*domain.MovieDetail, error) {
	if movieID <= 0 {
		return nil, domain.NewValidationError("movieId", "movie id must be a positive integer")
	}
	params := url.Values{}
	if extras {
		params.Set("append_to_response", detailExtras)
	}
	var out domain.MovieDetail
	if err := c.get(ctx, "detail", "/movie/"+strconv.FormatInt(movieID, 10), params, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// DetailsFor получает карточки нескольких фильмов с ограниченной
// параллельностью. Неудачные запросы пропускаются и логируются; порядок
// результатов совпадает с порядком ids.
func (c *Client) DetailsFor(ctx context.Context, ids []int64) []*domain.MovieDetail {
	results := make([]*domain.MovieDetail, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.cfg.FanOut)
	for i, id := range ids {
		g.Go(func() error {
			d, err := c.detail(gctx, id, false)
			if err != nil {
				c.logger.WarnContext(ctx, "Failed to fetch movie details, skipping",
					slog.Int64("movieID", id), slog.String("error", err.Error()))
				return nil
			}
			results[i] = d
			return nil
		})
	}
	_ = g.Wait()

	out := make([]*domain.MovieDetail, 0, len(ids))
	for _, d := range results {
		if d != nil {
			out = append(out, d)
		}
	}
	return out
}

// Genres возвращает справочник жанров. Первый успешный ответ кешируется
// на все время жизни процесса; одновременные первые вызовы делят один
// запрос к каталогу. Ошибки не кешируются.
func (c *Client) Genres(ctx context.Context) ([]domain.Genre, error) {
	if cached := c.cachedGenres(); cached != nil {
		metrics.GenreCacheEvents.WithLabelValues("hit").Inc()
		return cached, nil
	}

	v, err, shared := c.genreGroup.Do("genres", func() (interface{}, error) {
		if cached := c.cachedGenres(); cached != nil {
			return cached, nil
		}
		metrics.GenreCacheEvents.WithLabelValues("miss").Inc()

		var out struct {
			Genres []domain.Genre `json:"genres"`
		}
		// Запрос общий для всех ожидающих, поэтому не зависит от отмены
		// контекста первого вызывающего.
		if err := c.get(context.WithoutCancel(ctx), "genres", "/genre/movie/list", url.Values{}, &out); err != nil {
			metrics.GenreCacheEvents.WithLabelValues("fetch_error").Inc()
			return nil, err
		}
		if out.Genres == nil {
			out.Genres = []domain.Genre{}
		}

		c.genreMu.Lock()
		c.genres = out.Genres
		c.genreMu.Unlock()
		c.logger.InfoContext(ctx, "Genre list cached", slog.Int("count", len(out.Genres)))
		return append([]domain.Genre(nil), out.Genres...), nil
	})
	if err != nil {
		return nil, err
	}
	genres := v.([]domain.Genre)
	if shared {
		genres = append([]domain.Genre(nil), genres...)
	}
	return genres, nil
}

func (c *Client) cachedGenres() []domain.Genre {
	c.genreMu.RLock()
	defer c.genreMu.RUnlock()
	if c.genres == nil {
		return nil
	}
	return append([]domain.Genre{}, c.genres...)
}

// get выполняет GET запрос к каталогу через ограничитель частоты и
// circuit breaker и декодирует JSON ответ в out.
func (c *Client) get(ctx context.Context, endpoint, path string, params url.Values, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("catalog rate limiter: %w", err)
	}

	start := time.Now()
	body, err := c.breaker.Execute(func() ([]byte, error) {
		return c.fetch(ctx, path, params)
	})
	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			metrics.ObserveCatalog(endpoint, "breaker_open", time.Since(start))
			return &UpstreamError{Status: http.StatusServiceUnavailable, Message: "catalog temporarily unavailable", Err: err}
		}
		var upErr *UpstreamError
		if errors.As(err, &upErr) {
			metrics.ObserveCatalog(endpoint, "upstream_error", time.Since(start))
		} else {
			metrics.ObserveCatalog(endpoint, "error", time.Since(start))
		}
		c.logger.WarnContext(ctx, "Catalog request failed", slog.String("endpoint", endpoint), slog.String("error", err.Error()))
		return err
	}
	metrics.ObserveCatalog(endpoint, "success", time.Since(start))

	if err := json.Unmarshal(body, out); err != nil {
		return &UpstreamError{Status: http.StatusBadGateway, Message: "invalid catalog response", Err: err}
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, path string, params url.Values) ([]byte, error) {
	q := url.Values{}
	for k, v := range params {
		q[k] = v
	}
	q.Set("api_key", c.cfg.APIKey)
	if q.Get("language") == "" {
		q.Set("language", c.cfg.Language)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.cfg.BaseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "catalog unreachable", Err: redactKey(err)}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, &UpstreamError{Status: http.StatusBadGateway, Message: "failed to read catalog response", Err: err}
	}
	if resp.StatusCode >= 400 {
		return nil, &UpstreamError{Status: resp.StatusCode, Message: upstreamMessage(resp.StatusCode, body)}
	}
	return body, nil
}

// upstreamMessage достает status_message из тела ошибки TMDB.
func upstreamMessage(status int, body []byte) string {
	var payload struct {
		StatusMessage string `json:"status_message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil && payload.StatusMessage != "" {
		return payload.StatusMessage
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return "catalog request failed"
}

// redactKey убирает URL с API ключом из ошибки транспорта.
func redactKey(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		return urlErr.Err
	}
	return err
}

func normalizePage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func normalizeMoviePage(p *domain.MoviePage) *domain.MoviePage {
	if p.Results == nil {
		p.Results = []domain.MovieSummary{}
	}
	return p
}
