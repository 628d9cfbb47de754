package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0644))
	return path
}

func TestGetDefaultConfig(t *testing.T) {
	cfg := GetDefaultConfig()
	require.NoError(t, cfg.Validate())

	items, err := cfg.Source("items")
	require.NoError(t, err)
	assert.Equal(t, 50, items.PageSize)
	assert.Equal(t, 200*time.Millisecond, items.Delay)
	assert.Equal(t, 30*time.Second, items.Timeout)
	assert.False(t, items.ListRecords)

	arcs, err := cfg.Source("arcs")
	require.NoError(t, err)
	assert.Contains(t, arcs.URL, "includeLoot=true")
	assert.True(t, arcs.ListRecords)

	assert.Equal(t, []string{"arcs", "items"}, cfg.SourceNames())
	assert.Equal(t, FetcherRod, cfg.Wiki.Fetcher)
}

func TestLoadConfig_MergesSourcesWithDefaults(t *testing.T) {
	path := writeConfig(t, `
log:
  level: debug
sources:
  items:
    page_size: 10
    delay: 1s
  quests:
    url: https://example.com/api/quests
    output: quests.json
wiki:
  fetcher: colly
`)

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)

	items := cfg.Sources["items"]
	assert.Equal(t, 10, items.PageSize)
	assert.Equal(t, time.Second, items.Delay)
	assert.Equal(t, "https://metaforge.app/api/arc-raiders/items", items.URL)
	assert.Equal(t, "items.json", items.Output)

	quests := cfg.Sources["quests"]
	assert.Equal(t, "https://example.com/api/quests", quests.URL)
	assert.Equal(t, 50, quests.PageSize)

	assert.Contains(t, cfg.Sources, "arcs")
	assert.Equal(t, FetcherColly, cfg.Wiki.Fetcher)
	assert.Equal(t, ".tabber__panel", cfg.Wiki.WaitSelector)
}

func TestLoadConfig_Errors(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"zero page size", "sources:\n  items:\n    page_size: 0\n"},
		{"negative delay", "sources:\n  items:\n    delay: -1s\n"},
		{"source without url", "sources:\n  quests:\n    output: q.json\n"},
		{"unknown fetcher", "wiki:\n  fetcher: selenium\n"},
		{"negative wait timeout", "wiki:\n  wait_timeout: -5s\n"},
		{"bad yaml", "sources: [\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadConfig(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoadConfig_MissingFile(t *testing.T) {
	_, err := LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestSource_Unknown(t *testing.T) {
	_, err := GetDefaultConfig().Source("quests")
	assert.ErrorContains(t, err, "unknown source")
}
