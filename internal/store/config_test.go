package store

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

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.yaml"))
	require.NoError(t, err)

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, 3600, cfg.Cache.TTLSeconds)
	assert.Equal(t, 128, cfg.Cache.MaxEntries)
	assert.Equal(t, 5, cfg.RateLimit.UncachedPerMinute)
	assert.Equal(t, 10, cfg.News.MaxHeadlines)
	assert.Equal(t, 365, cfg.MarketData.HistoryDays)
	assert.Equal(t, time.Hour, cfg.CacheTTL())
}

func TestLoadConfigOverrides(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
llm:
  provider: OPENAI
  model: gpt-4o-mini
cache:
  ttl_seconds: 60
rate_limit:
  uncached_per_minute: 2
  coalesce_requests: true
`)
	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, "OPENAI", cfg.LLM.Provider)
	assert.Equal(t, "gpt-4o-mini", cfg.LLM.Model)
	assert.Equal(t, time.Minute, cfg.CacheTTL())
	assert.Equal(t, 2, cfg.RateLimit.UncachedPerMinute)
	assert.True(t, cfg.RateLimit.CoalesceRequests)

	// Unset sections still pick up defaults.
	assert.Equal(t, 128, cfg.Cache.MaxEntries)
}

func TestLoadConfigRejectsUnknownProvider(t *testing.T) {
	path := writeConfig(t, `
llm:
  provider: GEMINI
`)
	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestLoadConfigRejectsBadYAML(t *testing.T) {
	path := writeConfig(t, "cache: [not a map")
	_, err := LoadConfig(path)
	assert.Error(t, err)
}
