package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"
api:
  base_url: "https://api.clinic.example"
  cache_ttl_seconds: 60
database:
  path: "`+filepath.Join(t.TempDir(), "data", "shifa.db")+`"
booking:
  default_duration_minutes: 45
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "123:abc", cfg.Telegram.BotToken)
	assert.Equal(t, "https://api.clinic.example", cfg.API.BaseURL)
	assert.Equal(t, time.Minute, cfg.CacheTTL())
	assert.Equal(t, 45, cfg.DefaultDuration())
	assert.Equal(t, 30*24*time.Hour, cfg.MaxAdvance())
}

func TestLoadExpandsEnvPlaceholders(t *testing.T) {
	t.Setenv("SHIFA_TEST_TOKEN", "456:def")
	path := writeConfig(t, `
telegram:
  bot_token: "${SHIFA_TEST_TOKEN}"
api:
  base_url: "https://api.clinic.example"
database:
  path: "`+filepath.Join(t.TempDir(), "shifa.db")+`"
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "456:def", cfg.Telegram.BotToken)
}

func TestLoadRequiresBaseURL(t *testing.T) {
	path := writeConfig(t, `
telegram:
  bot_token: "123:abc"
`)
	_, err := Load(path)
	assert.Error(t, err)
}

func TestDefaults(t *testing.T) {
	cfg := &Config{}
	assert.Equal(t, 30, cfg.DefaultDuration())
	assert.Equal(t, time.Duration(0), cfg.CacheTTL())
}
