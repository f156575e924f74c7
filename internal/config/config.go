// Package config loads application configuration from environment variables.
package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ericfisherdev/containerproxy/internal/domain/model"
)

// Store backends.
const (
	StoreSQLite   = "sqlite"
	StorePostgres = "postgres"
)

// minSecretLen is the shortest API secret accepted for HS256 signing.
const minSecretLen = 16

// Config holds the application configuration loaded from environment variables.
type Config struct {
	ListenAddr         string
	Store              string
	DBPath             string
	PostgresDSN        string
	RegistryPath       string
	APISecret          string
	LogLevel           slog.Level
	LogFormat          string
	DefaultContainerID string
}

// AuthEnabled reports whether API requests must carry a bearer token.
func (c *Config) AuthEnabled() bool {
	return c.APISecret != ""
}

// NewLogger builds the slog logger described by LogLevel and LogFormat.
func (c *Config) NewLogger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: c.LogLevel}
	if c.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}

// Load reads configuration from environment variables and returns a validated Config.
// Every variable is optional. Defaults: CONTAINERPROXY_LISTEN_ADDR (127.0.0.1:8181),
// CONTAINERPROXY_STORE (sqlite), CONTAINERPROXY_DB_PATH (containerproxy.db),
// CONTAINERPROXY_LOG_LEVEL (info), CONTAINERPROXY_LOG_FORMAT (text),
// CONTAINERPROXY_DEFAULT_CONTAINER (firefox-default). CONTAINERPROXY_POSTGRES_DSN
// is required when the store is postgres.
func Load() (*Config, error) {
	listenAddr := "127.0.0.1:8181"
	if v, ok := os.LookupEnv("CONTAINERPROXY_LISTEN_ADDR"); ok {
		listenAddr = v
	}

	store := StoreSQLite
	if v, ok := os.LookupEnv("CONTAINERPROXY_STORE"); ok && v != "" {
		store = strings.ToLower(strings.TrimSpace(v))
	}
	if store != StoreSQLite && store != StorePostgres {
		return nil, fmt.Errorf("CONTAINERPROXY_STORE has invalid value %q (want sqlite or postgres)", store)
	}

	dbPath := "containerproxy.db"
	if v, ok := os.LookupEnv("CONTAINERPROXY_DB_PATH"); ok {
		dbPath = v
	}

	dsn := os.Getenv("CONTAINERPROXY_POSTGRES_DSN")
	if store == StorePostgres && dsn == "" {
		return nil, fmt.Errorf("CONTAINERPROXY_POSTGRES_DSN is required when CONTAINERPROXY_STORE is postgres")
	}

	secret := os.Getenv("CONTAINERPROXY_API_SECRET")
	if secret != "" && len(secret) < minSecretLen {
		return nil, fmt.Errorf("CONTAINERPROXY_API_SECRET must be at least %d bytes", minSecretLen)
	}

	level := slog.LevelInfo
	if v, ok := os.LookupEnv("CONTAINERPROXY_LOG_LEVEL"); ok && v != "" {
		if err := level.UnmarshalText([]byte(v)); err != nil {
			return nil, fmt.Errorf("CONTAINERPROXY_LOG_LEVEL has invalid level %q: %w", v, err)
		}
	}

	format := "text"
	if v, ok := os.LookupEnv("CONTAINERPROXY_LOG_FORMAT"); ok && v != "" {
		format = strings.ToLower(v)
	}
	if format != "text" && format != "json" {
		return nil, fmt.Errorf("CONTAINERPROXY_LOG_FORMAT has invalid value %q (want text or json)", format)
	}

	defaultContainer := model.DefaultContainerID
	if v, ok := os.LookupEnv("CONTAINERPROXY_DEFAULT_CONTAINER"); ok && strings.TrimSpace(v) != "" {
		defaultContainer = strings.TrimSpace(v)
	}

	return &Config{
		ListenAddr:         listenAddr,
		Store:              store,
		DBPath:             dbPath,
		PostgresDSN:        dsn,
		RegistryPath:       os.Getenv("CONTAINERPROXY_REGISTRY_PATH"),
		APISecret:          secret,
		LogLevel:           level,
		LogFormat:          format,
		DefaultContainerID: defaultContainer,
	}, nil
}
