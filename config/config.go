package config

import (
	"fmt"
	"os"
	"sort"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	FetcherRod   = "rod"
	FetcherColly = "colly"
)

// Config represents the exporter configuration
type Config struct {
	Log      LogConfig               `yaml:"log"`
	Sources  map[string]SourceConfig `yaml:"-"`
	Wiki     WikiConfig              `yaml:"wiki"`
	Database DatabaseConfig          `yaml:"database"`
}

// LogConfig controls the zap logger
type LogConfig struct {
	Level string `yaml:"level"`
}

// SourceConfig describes one paginated API collection
type SourceConfig struct {
	URL         string        `yaml:"url"`
	Output      string        `yaml:"output"`
	PageSize    int           `yaml:"page_size"`
	Delay       time.Duration `yaml:"delay"`
	Timeout     time.Duration `yaml:"timeout"`
	UserAgent   string        `yaml:"user_agent"`
	ListRecords bool          `yaml:"list_records"` // Print one summary row per record
}

// WikiConfig describes the Workshop page extraction
type WikiConfig struct {
	URL          string        `yaml:"url"`
	Output       string        `yaml:"output"`
	Fetcher      string        `yaml:"fetcher"`
	WaitSelector string        `yaml:"wait_selector"`
	WaitTimeout  time.Duration `yaml:"wait_timeout"`
	UserDataDir  string        `yaml:"user_data_dir"`
	BrowserBin   string        `yaml:"browser_bin"`
}

// DatabaseConfig holds the Postgres connection string used for seeding
type DatabaseConfig struct {
	DSN string `yaml:"dsn"`
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// LoadConfig loads configuration from a YAML file on top of the defaults.
// Source entries are merged field by field with the default entry of the same name.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := GetDefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	var raw struct {
		Sources map[string]yaml.Node `yaml:"sources"`
	}
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}
	for name, node := range raw.Sources {
		src, ok := cfg.Sources[name]
		if !ok {
			src = newSource("", "")
		}
		if err := node.Decode(&src); err != nil {
			return nil, fmt.Errorf("failed to parse source %q: %w", name, err)
		}
		cfg.Sources[name] = src
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// GetDefaultConfig returns a default configuration
func GetDefaultConfig() *Config {
	arcs := newSource("https://metaforge.app/api/arc-raiders/arcs?includeLoot=true", "arcs.json")
	arcs.ListRecords = true

	return &Config{
		Log: LogConfig{Level: "info"},
		Sources: map[string]SourceConfig{
			"items": newSource("https://metaforge.app/api/arc-raiders/items", "items.json"),
			"arcs":  arcs,
		},
		Wiki: WikiConfig{
			URL:          "https://arcraiders.wiki/wiki/Workshop",
			Output:       "workbenches.json",
			Fetcher:      FetcherRod,
			WaitSelector: ".tabber__panel",
			WaitTimeout:  30 * time.Second,
		},
	}
}

func newSource(url, output string) SourceConfig {
	return SourceConfig{
		URL:       url,
		Output:    output,
		PageSize:  50,
		Delay:     200 * time.Millisecond,
		Timeout:   30 * time.Second,
		UserAgent: defaultUserAgent,
	}
}

// Validate checks values that would otherwise fail deep inside a run
func (c *Config) Validate() error {
	for name, src := range c.Sources {
		if src.URL == "" {
			return fmt.Errorf("source %q: url is required", name)
		}
		if src.Output == "" {
			return fmt.Errorf("source %q: output is required", name)
		}
		if src.PageSize < 1 {
			return fmt.Errorf("source %q: page_size must be at least 1, got %d", name, src.PageSize)
		}
		if src.Delay < 0 {
			return fmt.Errorf("source %q: delay must not be negative", name)
		}
	}

	if c.Wiki.URL == "" {
		return fmt.Errorf("wiki: url is required")
	}
	if c.Wiki.WaitTimeout < 0 {
		return fmt.Errorf("wiki: wait_timeout must not be negative")
	}
	switch c.Wiki.Fetcher {
	case FetcherRod, FetcherColly:
	default:
		return fmt.Errorf("wiki: unknown fetcher %q (want %q or %q)", c.Wiki.Fetcher, FetcherRod, FetcherColly)
	}
	return nil
}

// Source returns the named source or an error listing the known ones
func (c *Config) Source(name string) (SourceConfig, error) {
	src, ok := c.Sources[name]
	if !ok {
		return SourceConfig{}, fmt.Errorf("unknown source %q (known: %v)", name, c.SourceNames())
	}
	return src, nil
}

// SourceNames returns the configured source names in sorted order
func (c *Config) SourceNames() []string {
	names := make([]string, 0, len(c.Sources))
	for name := range c.Sources {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
