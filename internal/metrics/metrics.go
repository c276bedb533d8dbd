// internal/metrics/metrics.go
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// HTTPRequestsTotal считает HTTP запросы по шаблону маршрута.
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_http_requests_total",
			Help: "Total number of HTTP requests handled",
		},
		[]string{"method", "route", "status"},
	)

	// HTTPRequestDuration измеряет длительность HTTP запросов.
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curation_http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"method", "route"},
	)

	// CatalogRequestsTotal считает обращения к внешнему каталогу.
	// outcome: "success", "upstream_error", "breaker_open", "error"
	CatalogRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_catalog_requests_total",
			Help: "Total number of outbound catalog requests",
		},
		[]string{"endpoint", "outcome"},
	)

	// CatalogRequestDuration измеряет задержку каталога.
	CatalogRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "curation_catalog_request_duration_seconds",
			Help:    "Duration of outbound catalog requests in seconds",
			Buckets: []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10},
		},
		[]string{"endpoint"},
	)

	// CatalogBreakerState - состояние circuit breaker каталога
	// (0 closed, 1 half-open, 2 open).
	CatalogBreakerState = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "curation_catalog_breaker_state",
			Help: "Catalog circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
	)

	// GenreCacheEvents считает обращения к кешу жанров.
	// result: "hit", "miss", "fetch_error"
	GenreCacheEvents = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_genre_cache_events_total",
			Help: "Genre cache lookups by result",
		},
		[]string{"result"},
	)

	// AuthFailures считает отказы Access Gate и входа.
	AuthFailures = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "curation_auth_failures_total",
			Help: "Authentication failures by reason",
		},
		[]string{"reason"},
	)
)

// ObserveHTTP записывает метрики одного HTTP запроса.
func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	HTTPRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// ObserveCatalog записывает метрики одного обращения к каталогу.
func ObserveCatalog(endpoint, outcome string, elapsed time.Duration) {
	CatalogRequestsTotal.WithLabelValues(endpoint, outcome).Inc()
	CatalogRequestDuration.WithLabelValues(endpoint).Observe(elapsed.Seconds())
}
