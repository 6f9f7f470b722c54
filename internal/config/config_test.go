package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/alexanderramin/miru/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func isolate(t *testing.T) string {
	t.Helper()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("MIRU_CONFIG", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")
	return home
}

func writeFile(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	home := isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(home, ".miru", "miru.db"), cfg.DBPath)
	assert.Equal(t, "ja", cfg.Locale)
	assert.Equal(t, "127.0.0.1:8080", cfg.HTTP.Addr())
	assert.Equal(t, "text", cfg.Logging.Format)
	assert.Equal(t, 7*24*time.Hour, cfg.Session.TTL)
	assert.Empty(t, cfg.Session.RedisAddr)
	assert.Equal(t, 30000, cfg.AI.TimeoutMs)
	assert.Zero(t, cfg.AI.MaxRetries)
}

func TestLoad_YAMLThenEnv(t *testing.T) {
	home := isolate(t)
	path := writeFile(t, home, "miru.yaml", `
db_path: /tmp/miru-test.db
locale: en
http:
  port: 9090
  read_timeout: 3s
  allowed_origins: ["http://localhost:3000"]
logging:
  level: debug
  format: json
session:
  ttl: 12h
  redis_addr: localhost:6379
ai:
  max_retries: 2
  health_ttl: 1m
  claude:
    api_key: sk-yaml
    model: claude-custom
`)
	t.Setenv("MIRU_HTTP_PORT", "9191")
	t.Setenv("MIRU_GPT_API_KEY", "sk-env")
	t.Setenv("MIRU_LOG_LEVEL", "warn")

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "/tmp/miru-test.db", cfg.DBPath)
	assert.Equal(t, "en", cfg.Locale)
	assert.Equal(t, 9191, cfg.HTTP.Port, "env wins over yaml")
	assert.Equal(t, 3*time.Second, cfg.HTTP.ReadTimeout)
	assert.Equal(t, 60*time.Second, cfg.HTTP.WriteTimeout, "unset keeps default")
	assert.Equal(t, []string{"http://localhost:3000"}, cfg.HTTP.AllowedOrigins)
	assert.Equal(t, "warn", cfg.Logging.Level)
	assert.Equal(t, "json", cfg.Logging.Format)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "localhost:6379", cfg.Session.RedisAddr)
	assert.Equal(t, "sk-yaml", cfg.AI.Claude.APIKey)
	assert.Equal(t, "sk-env", cfg.AI.GPT.APIKey)
}

func TestLoad_VendorKeyFallback(t *testing.T) {
	isolate(t)
	t.Setenv("ANTHROPIC_API_KEY", "sk-vendor")

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-vendor", cfg.AI.Claude.APIKey)

	t.Setenv("MIRU_CLAUDE_API_KEY", "sk-miru")
	cfg, err = Load("")
	require.NoError(t, err)
	assert.Equal(t, "sk-miru", cfg.AI.Claude.APIKey)
}

func TestLoad_Errors(t *testing.T) {
	home := isolate(t)

	_, err := Load(filepath.Join(home, "missing.yaml"))
	assert.Error(t, err, "explicit path must exist")

	bad := writeFile(t, home, "bad.yaml", "http: [not a map")
	_, err = Load(bad)
	assert.Error(t, err)

	t.Setenv("MIRU_HTTP_PORT", "eighty")
	_, err = Load("")
	assert.ErrorContains(t, err, "MIRU_HTTP_PORT")

	t.Setenv("MIRU_HTTP_PORT", "70000")
	_, err = Load("")
	assert.ErrorContains(t, err, "out of range")

	t.Setenv("MIRU_HTTP_PORT", "")
	t.Setenv("MIRU_SESSION_TTL", "soon")
	_, err = Load("")
	assert.ErrorContains(t, err, "MIRU_SESSION_TTL")
}

func TestValidate_CollectsAll(t *testing.T) {
	cfg := Default()
	cfg.Logging.Format = "xml"
	cfg.AI.MaxRetries = -1
	err := cfg.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "logging.format")
	assert.Contains(t, err.Error(), "ai.max_retries")
}

func TestAIConfig_LLM(t *testing.T) {
	ai := Default().AI
	ai.MaxRetries = 1
	ai.Claude = ProviderConfig{APIKey: "sk-1", BaseURL: "http://localhost:9999/", MaxTokens: 256}

	cfg := ai.LLM()
	claude := cfg.Providers[domain.ProviderClaude]
	assert.Equal(t, "sk-1", claude.APIKey)
	assert.Equal(t, "http://localhost:9999", claude.BaseURL)
	assert.Equal(t, 256, claude.MaxTokens)
	assert.Equal(t, "claude-3-5-sonnet-latest", claude.Model, "default model kept")
	assert.True(t, cfg.Configured(domain.ProviderClaude))
	assert.False(t, cfg.Configured(domain.ProviderGPT))
	assert.Equal(t, 1, cfg.MaxRetries)
}
