package app

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var configEnv = []string{
	"CONFIG_FILE", "LOG_MODE", "PORT", "SERVICE_NAME", "SERVICE_VERSION",
	"DB_DRIVER", "DATABASE_URL", "POSTGRES_HOST", "POSTGRES_PORT", "POSTGRES_USER",
	"POSTGRES_PASSWORD", "POSTGRES_NAME", "POSTGRES_SSLMODE", "SQLITE_PATH",
	"DB_MAX_OPEN_CONNS", "DB_SLOW_QUERY", "JWT_SECRET", "TOKEN_TTL", "BCRYPT_COST",
	"AI_PROVIDER", "AI_TIMEOUT", "GEMINI_API_KEY", "GEMINI_MODEL", "GEMINI_BASE_URL",
	"OPENAI_API_KEY", "OPENAI_MODEL", "OPENAI_BASE_URL", "REDIS_ADDR", "REDIS_PASSWORD",
	"REDIS_DB", "REDIS_LOCK_TTL", "OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"OTEL_EXPORTER_OTLP_HEADERS", "OTEL_EXPORTER_OTLP_INSECURE", "OTEL_SAMPLER_RATIO",
	"CORS_ORIGINS", "DELETE_FORBIDDEN_403",
}

// clearEnv blanks every variable LoadConfig reads; blank counts as unset.
func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range configEnv {
		t.Setenv(name, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.Port)
	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "interview-coach.db", cfg.Database.DSN())
	assert.Equal(t, ProviderMock, cfg.AI.Provider)
	assert.Equal(t, 60*time.Second, cfg.AI.Timeout)
	assert.Equal(t, 7*24*time.Hour, cfg.Auth.TokenTTL)
	assert.True(t, cfg.UsesDevSecret())
	assert.False(t, cfg.DeleteForbidden403)
}

func TestLoadConfigEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9000")
	t.Setenv("JWT_SECRET", "s3cret")
	t.Setenv("TOKEN_TTL", "2h")
	t.Setenv("GEMINI_API_KEY", "g-key")
	t.Setenv("POSTGRES_HOST", "db")
	t.Setenv("POSTGRES_USER", "coach")
	t.Setenv("POSTGRES_PASSWORD", "pw")
	t.Setenv("POSTGRES_NAME", "coach")
	t.Setenv("CORS_ORIGINS", "https://a.example, https://b.example")
	t.Setenv("DELETE_FORBIDDEN_403", "true")
	t.Setenv("OTEL_SAMPLER_RATIO", "0.25")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "9000", cfg.Port)
	assert.False(t, cfg.UsesDevSecret())
	assert.Equal(t, 2*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, ProviderGemini, cfg.AI.Provider)
	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://coach:pw@db:5432/coach?sslmode=disable", cfg.Database.DSN())
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.CORSOrigins)
	assert.True(t, cfg.DeleteForbidden403)
	assert.InDelta(t, 0.25, cfg.Otel.SampleRatio, 1e-9)
}

func TestLoadConfigFileOverlayLosesToEnv(t *testing.T) {
	clearEnv(t)
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	body := `
port: "7000"
auth:
  jwtSecret: from-file
  tokenTTL: 12h
ai:
  provider: openai
  timeout: 30s
  openai:
    apiKey: o-key
    model: gpt-test
database:
  sqlitePath: /tmp/coach.db
corsOrigins:
  - https://file.example
`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("PORT", "7100")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "7100", cfg.Port)
	assert.Equal(t, "from-file", cfg.Auth.JWTSecret)
	assert.Equal(t, 12*time.Hour, cfg.Auth.TokenTTL)
	assert.Equal(t, ProviderOpenAI, cfg.AI.Provider)
	assert.Equal(t, 30*time.Second, cfg.AI.Timeout)
	assert.Equal(t, "gpt-test", cfg.AI.OpenAI.Model)
	assert.Equal(t, "/tmp/coach.db", cfg.Database.DSN())
	assert.Equal(t, []string{"https://file.example"}, cfg.CORSOrigins)
}

func TestLoadConfigRejects(t *testing.T) {
	cases := []struct {
		name string
		env  map[string]string
	}{
		{"production without secret", map[string]string{"LOG_MODE": "production", "GEMINI_API_KEY": "k"}},
		{"production with mock ai", map[string]string{"LOG_MODE": "production", "JWT_SECRET": "s"}},
		{"gemini without key", map[string]string{"AI_PROVIDER": "gemini"}},
		{"openai without key", map[string]string{"AI_PROVIDER": "openai"}},
		{"unknown provider", map[string]string{"AI_PROVIDER": "llama"}},
		{"unknown driver", map[string]string{"DB_DRIVER": "oracle"}},
		{"postgres without target", map[string]string{"DB_DRIVER": "postgres"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range tc.env {
				t.Setenv(k, v)
			}
			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	clearEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))
	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "read config file")
}
