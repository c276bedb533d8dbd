// internal/config/koanf.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// ConfigPathEnvVar переопределяет путь к YAML файлу конфигурации.
const ConfigPathEnvVar = "CONFIG_PATH"

// EnvPrefix - префикс переменных вида CURATOR_<SECTION>_<KEY>.
const EnvPrefix = "CURATOR_"

// DefaultConfigPaths - где искать YAML файл, если путь не задан.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
}

// sections - секции, в которые раскладываются CURATOR_ переменные.
var sections = []string{"server", "store", "security", "catalog", "directory", "logging"}

// envMappings - общепринятые имена переменных окружения.
var envMappings = map[string]string{
	"port":           "server.port",
	"environment":    "server.environment",
	"cors_origins":   "server.cors_origins",
	"store_driver":   "store.driver",
	"database_url":   "store.postgres_url",
	"mongo_uri":      "store.mongo_uri",
	"mongo_database": "store.mongo_database",
	"jwt_secret":     "security.jwt_secret",
	"token_ttl":      "security.token_ttl",
	"bcrypt_cost":    "security.bcrypt_cost",
	"tmdb_api_key":   "catalog.api_key",
	"tmdb_base_url":  "catalog.base_url",
	"grpc_addr":      "directory.grpc_addr",
	"grpc_listen":    "directory.grpc_listen",
	"log_level":      "logging.level",
	"log_format":     "logging.format",
}

// sliceConfigPaths - поля, которые из окружения приходят строкой через запятую.
var sliceConfigPaths = []string{
	"server.cors_origins",
}

// Load загружает конфигурацию слоями:
//  1. значения по умолчанию;
//  2. YAML файл (configPath, CONFIG_PATH или config.yaml), если он есть;
//  3. переменные окружения, включая .env файл.
func Load(configPath string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env file: %w", err)
	}

	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(configPath); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	} else if configPath != "" {
		return nil, fmt.Errorf("config file %s not found", configPath)
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}

	if cfg.Security.JWTSecret == "" && !cfg.IsProduction() {
		cfg.Security.JWTSecret = DevJWTSecret
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

func findConfigFile(explicit string) string {
	candidates := DefaultConfigPaths
	if explicit != "" {
		candidates = []string{explicit}
	} else if fromEnv := envOr(ConfigPathEnvVar, ""); fromEnv != "" {
		candidates = []string{fromEnv}
	}
	for _, path := range candidates {
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}
	return ""
}

// envTransformFunc переводит имя переменной окружения в путь koanf.
// Неизвестные переменные пропускаются.
func envTransformFunc(key string) string {
	key = strings.ToLower(key)
	if mapped, ok := envMappings[key]; ok {
		return mapped
	}

	prefix := strings.ToLower(EnvPrefix)
	if !strings.HasPrefix(key, prefix) {
		return ""
	}
	rest := strings.TrimPrefix(key, prefix)
	for _, section := range sections {
		if field, ok := strings.CutPrefix(rest, section+"_"); ok && field != "" {
			return section + "." + field
		}
	}
	return ""
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		strVal, ok := k.Get(path).(string)
		if !ok {
			continue
		}
		parts := strings.Split(strVal, ",")
		trimmed := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				trimmed = append(trimmed, p)
			}
		}
		if err := k.Set(path, trimmed); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}
