package catalog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"curation-service/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc, mutate ...func(*Config)) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := DefaultConfig()
	cfg.BaseURL = srv.URL
	cfg.APIKey = "test-key"
	cfg.RatePerSecond = 1000
	cfg.Burst = 1000
	for _, m := range mutate {
		m(&cfg)
	}
	return NewClient(cfg, slog.New(slog.DiscardHandler))
}

func TestSearchSendsExpectedQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/movie", r.URL.Path)
		q := r.URL.Query()
		assert.Equal(t, "fight club", q.Get("query"))
		assert.Equal(t, "2", q.Get("page"))
		assert.Equal(t, "en-US", q.Get("language"))
		assert.Equal(t, "false", q.Get("include_adult"))
		assert.Equal(t, "test-key", q.Get("api_key"))
		fmt.Fprint(w, `{"page":2,"total_pages":7,"results":[{"id":550,"title":"Fight Club"}]}`)
	})

	page, err := c.Search(context.Background(), " fight club ", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Page)
	assert.Equal(t, 7, page.TotalPages)
	require.Len(t, page.Results, 1)
	assert.Equal(t, int64(550), page.Results[0].ID)
}

func TestSearchRequiresQuery(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called")
	})
	_, err := c.Search(context.Background(), "  ", 1)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPopularUsesDiscoverWhenFiltered(t *testing.T) {
	var paths []string
	var mu sync.Mutex
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path+"?"+r.URL.Query().Get("with_genres")+"|"+r.URL.Query().Get("sort_by"))
		mu.Unlock()
		fmt.Fprint(w, `{"page":1,"total_pages":1}`)
	})

	page, err := c.Popular(context.Background(), PopularParams{Page: 0})
	require.NoError(t, err)
	assert.NotNil(t, page.Results)

	_, err = c.Popular(context.Background(), PopularParams{Page: 1, Genre: "28"})
	require.NoError(t, err)
	_, err = c.Popular(context.Background(), PopularParams{Page: 1, SortBy: "vote_average.desc"})
	require.NoError(t, err)

	assert.Equal(t, []string{
		"/movie/popular?|",
		"/discover/movie?28|popularity.desc",
		"/discover/movie?|vote_average.desc",
	}, paths)
}

func TestDetailAppendsExtras(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/movie/550", r.URL.Path)
		assert.Equal(t, "videos,credits,images,recommendations", r.URL.Query().Get("append_to_response"))
		fmt.Fprint(w, `{"id":550,"title":"Fight Club","genres":[{"id":18,"name":"Drama"}],"credits":{"cast":[]}}`)
	})

	d, err := c.Detail(context.Background(), 550)
	require.NoError(t, err)
	assert.Equal(t, "Fight Club", d.Title)
	assert.JSONEq(t, `{"cast":[]}`, string(d.Credits))

	_, err = c.Detail(context.Background(), 0)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestUpstreamErrorCarriesStatusAndMessage(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"success":false,"status_code":34,"status_message":"The resource you requested could not be found."}`)
	})

	_, err := c.Detail(context.Background(), 999999)
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusNotFound, upErr.Status)
	assert.Equal(t, http.StatusNotFound, upErr.HTTPStatus())
	assert.Equal(t, "The resource you requested could not be found.", upErr.Message)
}

func TestMissingAPIKeyFailsWithoutCallingUpstream(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("upstream must not be called")
	}, func(cfg *Config) { cfg.APIKey = "" })

	assert.False(t, c.Configured())
	_, err := c.Popular(context.Background(), PopularParams{})
	assert.ErrorIs(t, err, ErrNotConfigured)
	_, err = c.Genres(context.Background())
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestGenresCachedAfterFirstSuccess(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "/genre/movie/list", r.URL.Path)
		fmt.Fprint(w, `{"genres":[{"id":28,"name":"Action"},{"id":18,"name":"Drama"}]}`)
	})

	first, err := c.Genres(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 2)

	first[0].Name = "mutated"

	second, err := c.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Action", second[0].Name)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenresConcurrentFirstCallersShareOneFetch(t *testing.T) {
	var calls atomic.Int32
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		<-release
		fmt.Fprint(w, `{"genres":[{"id":28,"name":"Action"}]}`)
	})

	const callers = 10
	var wg sync.WaitGroup
	results := make(chan []domain.Genre, callers)
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			g, err := c.Genres(context.Background())
			assert.NoError(t, err)
			results <- g
		}()
	}
	time.Sleep(50 * time.Millisecond)
	close(release)
	wg.Wait()
	close(results)

	for g := range results {
		assert.Equal(t, []domain.Genre{{ID: 28, Name: "Action"}}, g)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGenresFailureIsNotCached(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		fmt.Fprint(w, `{"genres":[{"id":35,"name":"Comedy"}]}`)
	})

	_, err := c.Genres(context.Background())
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.Status)

	genres, err := c.Genres(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "Comedy", genres[0].Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestBreakerOpensAfterConsecutiveServerErrors(t *testing.T) {
	var calls atomic.Int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}, func(cfg *Config) {
		cfg.BreakerFailures = 2
		cfg.BreakerTimeout = time.Minute
	})

	for i := 0; i < 2; i++ {
		_, err := c.Popular(context.Background(), PopularParams{})
		require.Error(t, err)
	}
	_, err := c.Popular(context.Background(), PopularParams{})
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusServiceUnavailable, upErr.Status)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClientErrorsDoNotTripBreaker(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}, func(cfg *Config) { cfg.BreakerFailures = 1 })

	for i := 0; i < 3; i++ {
		_, err := c.Detail(context.Background(), 1)
		var upErr *UpstreamError
		require.True(t, errors.As(err, &upErr))
		assert.Equal(t, http.StatusNotFound, upErr.Status)
	}
}

func TestDetailsForSkipsFailuresAndKeepsOrder(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.Query().Get("append_to_response"))
		switch r.URL.Path {
		case "/movie/1":
			fmt.Fprint(w, `{"id":1,"title":"One"}`)
		case "/movie/3":
			fmt.Fprint(w, `{"id":3,"title":"Three"}`)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	})

	details := c.DetailsFor(context.Background(), []int64{3, 2, 1})
	require.Len(t, details, 2)
	assert.Equal(t, "Three", details[0].Title)
	assert.Equal(t, "One", details[1].Title)

	assert.Empty(t, c.DetailsFor(context.Background(), nil))
}

func TestUnreachableUpstreamIsBadGateway(t *testing.T) {
	cfg := DefaultConfig()
	cfg.BaseURL = "http://127.0.0.1:1"
	cfg.APIKey = "secret-key"
	cfg.Timeout = time.Second
	c := NewClient(cfg, slog.New(slog.DiscardHandler))

	_, err := c.Popular(context.Background(), PopularParams{})
	var upErr *UpstreamError
	require.True(t, errors.As(err, &upErr))
	assert.Equal(t, http.StatusBadGateway, upErr.Status)
	assert.NotContains(t, err.Error(), "secret-key")
}
