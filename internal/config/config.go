// internal/config/config.go
package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"curation-service/internal/catalog"
	"curation-service/internal/store"
	"curation-service/pkg/auth"
)

// DevJWTSecret используется вне production, если секрет не задан.
const DevJWTSecret = "curation-dev-only-secret-key-change-me-before-deploying"

// Config - вся конфигурация сервиса.
type Config struct {
	Server    ServerConfig    `koanf:"server"`
	Store     StoreConfig     `koanf:"store"`
	Security  SecurityConfig  `koanf:"security"`
	Catalog   CatalogConfig   `koanf:"catalog"`
	Directory DirectoryConfig `koanf:"directory"`
	Logging   LoggingConfig   `koanf:"logging"`
}

type ServerConfig struct {
	Port            int           `koanf:"port"`
	Environment     string        `koanf:"environment"`
	ReadTimeout     time.Duration `koanf:"read_timeout"`
	WriteTimeout    time.Duration `koanf:"write_timeout"`
	IdleTimeout     time.Duration `koanf:"idle_timeout"`
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
	CORSOrigins     []string      `koanf:"cors_origins"`
	RateLimit       int           `koanf:"rate_limit"` // Запросов с одного IP за RateWindow; 0 - выключено
	RateWindow      time.Duration `koanf:"rate_window"`
	AuthRateLimit   int           `koanf:"auth_rate_limit"` // Попыток входа/регистрации с одного IP в минуту
}

type StoreConfig struct {
	Driver        string `koanf:"driver"` // memory | postgres | mongo
	PostgresURL   string `koanf:"postgres_url"`
	MongoURI      string `koanf:"mongo_uri"`
	MongoDatabase string `koanf:"mongo_database"`
	AutoMigrate   bool   `koanf:"auto_migrate"`
}

type SecurityConfig struct {
	JWTSecret  string        `koanf:"jwt_secret"`
	TokenTTL   time.Duration `koanf:"token_ttl"`
	BcryptCost int           `koanf:"bcrypt_cost"`
}

type CatalogConfig struct {
	BaseURL         string        `koanf:"base_url"`
	APIKey          string        `koanf:"api_key"`
	Language        string        `koanf:"language"`
	Timeout         time.Duration `koanf:"timeout"`
	RatePerSecond   float64       `koanf:"rate_per_second"`
	Burst           int           `koanf:"burst"`
	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
	FanOut          int           `koanf:"fan_out"`
}

// DirectoryConfig - gRPC справочник аккаунтов. GRPCListen включает
// сервер, GRPCAddr переключает поиск имен авторов отзывов на удаленный
// справочник.
type DirectoryConfig struct {
	GRPCListen  string        `koanf:"grpc_listen"`
	GRPCAddr    string        `koanf:"grpc_addr"`
	CallTimeout time.Duration `koanf:"call_timeout"`
}

type LoggingConfig struct {
	Level  string `koanf:"level"`  // debug | info | warn | error
	Format string `koanf:"format"` // json | text
}

func defaultConfig() *Config {
	cat := catalog.DefaultConfig()
	return &Config{
		Server: ServerConfig{
			Port:            5000,
			Environment:     "development",
			ReadTimeout:     5 * time.Second,
			WriteTimeout:    30 * time.Second,
			IdleTimeout:     120 * time.Second,
			ShutdownTimeout: 10 * time.Second,
			CORSOrigins:     []string{"*"},
			RateLimit:       300,
			RateWindow:      time.Minute,
			AuthRateLimit:   20,
		},
		Store: StoreConfig{
			Driver:        store.DriverMemory,
			MongoDatabase: "curation",
			AutoMigrate:   true,
		},
		Security: SecurityConfig{
			TokenTTL:   time.Hour,
			BcryptCost: auth.DefaultCost,
		},
		Catalog: CatalogConfig{
			BaseURL:         cat.BaseURL,
			Language:        cat.Language,
			Timeout:         cat.Timeout,
			RatePerSecond:   cat.RatePerSecond,
			Burst:           cat.Burst,
			BreakerFailures: cat.BreakerFailures,
			BreakerTimeout:  cat.BreakerTimeout,
			FanOut:          cat.FanOut,
		},
		Directory: DirectoryConfig{
			CallTimeout: 2 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

// IsProduction сообщает, запущен ли сервис в production окружении.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Server.Environment, "production")
}

// UsesDevSecret сообщает, подставлен ли секрет для разработки.
func (c *Config) UsesDevSecret() bool {
	return c.Security.JWTSecret == DevJWTSecret
}

// Validate проверяет согласованность конфигурации.
func (c *Config) Validate() error {
	var errs []error

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("server.port must be between 1 and 65535, got %d", c.Server.Port))
	}
	if c.Server.RateLimit < 0 || c.Server.AuthRateLimit < 0 {
		errs = append(errs, errors.New("server rate limits must not be negative"))
	}
	if c.Server.ShutdownTimeout <= 0 {
		errs = append(errs, errors.New("server.shutdown_timeout must be positive"))
	}

	switch c.Store.Driver {
	case store.DriverMemory:
	case store.DriverPostgres:
		if c.Store.PostgresURL == "" {
			errs = append(errs, errors.New("store.postgres_url is required for the postgres driver"))
		}
	case store.DriverMongo:
		if c.Store.MongoURI == "" {
			errs = append(errs, errors.New("store.mongo_uri is required for the mongo driver"))
		}
		if c.Store.MongoDatabase == "" {
			errs = append(errs, errors.New("store.mongo_database is required for the mongo driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.driver must be one of memory, postgres, mongo, got %q", c.Store.Driver))
	}

	if c.Security.JWTSecret == "" {
		errs = append(errs, errors.New("security.jwt_secret is required"))
	} else if c.IsProduction() && c.UsesDevSecret() {
		errs = append(errs, errors.New("security.jwt_secret must be set explicitly in production"))
	}
	if c.Security.TokenTTL <= 0 {
		errs = append(errs, errors.New("security.token_ttl must be positive"))
	}
	if c.Security.BcryptCost < 4 || c.Security.BcryptCost > 31 {
		errs = append(errs, fmt.Errorf("security.bcrypt_cost must be between 4 and 31, got %d", c.Security.BcryptCost))
	}

	if c.Catalog.BaseURL == "" {
		errs = append(errs, errors.New("catalog.base_url is required"))
	}
	if c.Catalog.RatePerSecond < 0 || c.Catalog.Burst < 0 {
		errs = append(errs, errors.New("catalog rate limits must not be negative"))
	}
	if c.Catalog.FanOut < 1 {
		errs = append(errs, errors.New("catalog.fan_out must be at least 1"))
	}

	if _, err := parseLevel(c.Logging.Level); err != nil {
		errs = append(errs, err)
	}
	if f := strings.ToLower(c.Logging.Format); f != "json" && f != "text" {
		errs = append(errs, fmt.Errorf("logging.format must be json or text, got %q", c.Logging.Format))
	}

	return errors.Join(errs...)
}

// StoreOptions переводит секцию store в параметры store.Open.
func (c *Config) StoreOptions() store.Options {
	return store.Options{
		Driver:        c.Store.Driver,
		PostgresURL:   c.Store.PostgresURL,
		MongoURI:      c.Store.MongoURI,
		MongoDatabase: c.Store.MongoDatabase,
		AutoMigrate:   c.Store.AutoMigrate,
	}
}

// CatalogClientConfig переводит секцию catalog в catalog.Config.
func (c *Config) CatalogClientConfig() catalog.Config {
	return catalog.Config{
		BaseURL:         c.Catalog.BaseURL,
		APIKey:          c.Catalog.APIKey,
		Language:        c.Catalog.Language,
		Timeout:         c.Catalog.Timeout,
		RatePerSecond:   c.Catalog.RatePerSecond,
		Burst:           c.Catalog.Burst,
		BreakerFailures: c.Catalog.BreakerFailures,
		BreakerTimeout:  c.Catalog.BreakerTimeout,
		FanOut:          c.Catalog.FanOut,
	}
}

// NewLogger создает slog логгер по секции logging.
func (l LoggingConfig) NewLogger(w io.Writer) *slog.Logger {
	level, err := parseLevel(l.Level)
	if err != nil {
		level = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: level}
	if strings.EqualFold(l.Format, "text") {
		return slog.New(slog.NewTextHandler(w, opts))
	}
	return slog.New(slog.NewJSONHandler(w, opts))
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo, fmt.Errorf("logging.level %q is not valid: %w", s, err)
	}
	return level, nil
}

// envOr возвращает значение переменной окружения или def.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
