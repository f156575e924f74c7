package config

import (
	"bytes"
	"log/slog"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// allConfigKeys lists every CONTAINERPROXY_ env var that Load() reads.
var allConfigKeys = []string{
	"CONTAINERPROXY_LISTEN_ADDR",
	"CONTAINERPROXY_STORE",
	"CONTAINERPROXY_DB_PATH",
	"CONTAINERPROXY_POSTGRES_DSN",
	"CONTAINERPROXY_REGISTRY_PATH",
	"CONTAINERPROXY_API_SECRET",
	"CONTAINERPROXY_LOG_LEVEL",
	"CONTAINERPROXY_LOG_FORMAT",
	"CONTAINERPROXY_DEFAULT_CONTAINER",
}

// isolateConfigEnv saves and unsets all CONTAINERPROXY_ env vars so tests
// don't inherit values from the host environment (e.g. a running daemon).
// t.Cleanup restores original values after the test.
func isolateConfigEnv(t *testing.T) {
	t.Helper()
	for _, key := range allConfigKeys {
		if orig, ok := os.LookupEnv(key); ok {
			t.Cleanup(func() { os.Setenv(key, orig) })
		} else {
			t.Cleanup(func() { os.Unsetenv(key) })
		}
		os.Unsetenv(key)
	}
}

func TestLoad_Success(t *testing.T) {
	isolateConfigEnv(t)
	t.Setenv("CONTAINERPROXY_LISTEN_ADDR", "0.0.0.0:9090")
	t.Setenv("CONTAINERPROXY_STORE", "Postgres")
	t.Setenv("CONTAINERPROXY_DB_PATH", "/tmp/test.db")
	t.Setenv("CONTAINERPROXY_POSTGRES_DSN", "postgres://localhost/containerproxy?sslmode=disable")
	t.Setenv("CONTAINERPROXY_REGISTRY_PATH", "/etc/containerproxy/containers.toml")
	t.Setenv("CONTAINERPROXY_API_SECRET", "0123456789abcdef")
	t.Setenv("CONTAINERPROXY_LOG_LEVEL", "debug")
	t.Setenv("CONTAINERPROXY_LOG_FORMAT", "JSON")
	t.Setenv("CONTAINERPROXY_DEFAULT_CONTAINER", " default-profile ")

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "0.0.0.0:9090", cfg.ListenAddr)
	assert.Equal(t, StorePostgres, cfg.Store)
	assert.Equal(t, "/tmp/test.db", cfg.DBPath)
	assert.Equal(t, "postgres://localhost/containerproxy?sslmode=disable", cfg.PostgresDSN)
	assert.Equal(t, "/etc/containerproxy/containers.toml", cfg.RegistryPath)
	assert.True(t, cfg.AuthEnabled())
	assert.Equal(t, slog.LevelDebug, cfg.LogLevel)
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "default-profile", cfg.DefaultContainerID)
}

func TestLoad_Defaults(t *testing.T) {
	isolateConfigEnv(t)

	cfg, err := Load()

	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:8181", cfg.ListenAddr)
	assert.Equal(t, StoreSQLite, cfg.Store)
	assert.Equal(t, "containerproxy.db", cfg.DBPath)
	assert.Empty(t, cfg.PostgresDSN)
	assert.Empty(t, cfg.RegistryPath)
	assert.False(t, cfg.AuthEnabled())
	assert.Equal(t, slog.LevelInfo, cfg.LogLevel)
	assert.Equal(t, "text", cfg.LogFormat)
	assert.Equal(t, "firefox-default", cfg.DefaultContainerID)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr string
	}{
		{
			name:    "unknown store",
			env:     map[string]string{"CONTAINERPROXY_STORE": "redis"},
			wantErr: "CONTAINERPROXY_STORE",
		},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"CONTAINERPROXY_STORE": "postgres"},
			wantErr: "CONTAINERPROXY_POSTGRES_DSN",
		},
		{
			name:    "short secret",
			env:     map[string]string{"CONTAINERPROXY_API_SECRET": "short"},
			wantErr: "CONTAINERPROXY_API_SECRET",
		},
		{
			name:    "bad log level",
			env:     map[string]string{"CONTAINERPROXY_LOG_LEVEL": "loud"},
			wantErr: "CONTAINERPROXY_LOG_LEVEL",
		},
		{
			name:    "bad log format",
			env:     map[string]string{"CONTAINERPROXY_LOG_FORMAT": "xml"},
			wantErr: "CONTAINERPROXY_LOG_FORMAT",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolateConfigEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()

			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	cfg := &Config{LogLevel: slog.LevelWarn, LogFormat: "json"}
	logger := cfg.NewLogger(&buf)

	logger.Info("hidden")
	logger.Warn("shown", "container_id", "c1")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), `"msg":"shown"`)
	assert.Contains(t, buf.String(), `"container_id":"c1"`)
}
