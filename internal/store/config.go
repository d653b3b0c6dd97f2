package store

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		Addr         string   `yaml:"addr"`
		ReadSeconds  int      `yaml:"read_seconds"`
		WriteSeconds int      `yaml:"write_seconds"`
		IdleSeconds  int      `yaml:"idle_seconds"`
		CORSOrigins  []string `yaml:"cors_origins"`
	} `yaml:"server"`
	LLM struct {
		Provider    string  `yaml:"provider"` // OPENAI, CLAUDE, or empty for noop
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float32 `yaml:"temperature"`
	} `yaml:"llm"`
	News struct {
		MaxHeadlines   int  `yaml:"max_headlines"`
		ScraperEnabled bool `yaml:"scraper_enabled"`
		TimeoutSeconds int  `yaml:"timeout_seconds"`
	} `yaml:"news"`
	MarketData struct {
		HistoryDays       int `yaml:"history_days"`
		TimeoutSeconds    int `yaml:"timeout_seconds"`
		RequestsPerSecond int `yaml:"requests_per_second"`
	} `yaml:"market_data"`
	Cache struct {
		TTLSeconds int `yaml:"ttl_seconds"`
		MaxEntries int `yaml:"max_entries"`
	} `yaml:"cache"`
	RateLimit struct {
		UncachedPerMinute int  `yaml:"uncached_per_minute"`
		CoalesceRequests  bool `yaml:"coalesce_requests"`
	} `yaml:"rate_limit"`
}

func (c *Config) Validate() error {
	switch strings.ToUpper(c.LLM.Provider) {
	case "", "OPENAI", "CLAUDE":
	default:
		return fmt.Errorf("invalid llm.provider '%s': must be 'OPENAI', 'CLAUDE', or empty", c.LLM.Provider)
	}
	if c.Cache.TTLSeconds <= 0 {
		return fmt.Errorf("cache.ttl_seconds must be positive, got %d", c.Cache.TTLSeconds)
	}
	if c.Cache.MaxEntries <= 0 {
		return fmt.Errorf("cache.max_entries must be positive, got %d", c.Cache.MaxEntries)
	}
	if c.RateLimit.UncachedPerMinute <= 0 {
		return fmt.Errorf("rate_limit.uncached_per_minute must be positive, got %d", c.RateLimit.UncachedPerMinute)
	}
	return nil
}

// CacheTTL returns the analysis cache TTL as a duration.
func (c *Config) CacheTTL() time.Duration {
	return time.Duration(c.Cache.TTLSeconds) * time.Second
}

// NewsTimeout returns the news fetch timeout as a duration.
func (c *Config) NewsTimeout() time.Duration {
	return time.Duration(c.News.TimeoutSeconds) * time.Second
}

// MarketDataTimeout returns the market data fetch timeout as a duration.
func (c *Config) MarketDataTimeout() time.Duration {
	return time.Duration(c.MarketData.TimeoutSeconds) * time.Second
}

func LoadConfig(path string) (*Config, error) {
	var c Config
	b, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// Missing config file falls back to defaults; secrets come from env.
	} else if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}

	applyDefaults(&c)

	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &c, nil
}

func applyDefaults(c *Config) {
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.ReadSeconds == 0 {
		c.Server.ReadSeconds = 15
	}
	if c.Server.WriteSeconds == 0 {
		// Analyze requests wait on LLM round trips.
		c.Server.WriteSeconds = 120
	}
	if c.Server.IdleSeconds == 0 {
		c.Server.IdleSeconds = 60
	}
	if len(c.Server.CORSOrigins) == 0 {
		c.Server.CORSOrigins = []string{"http://localhost:3000", "http://localhost:3001"}
	}
	if c.LLM.Provider == "" {
		c.LLM.Provider = strings.ToUpper(os.Getenv("LLM_PROVIDER"))
	}
	if c.LLM.Model == "" {
		c.LLM.Model = os.Getenv("LLM_MODEL")
	}
	if c.LLM.MaxTokens == 0 {
		c.LLM.MaxTokens = 1000
	}
	if c.News.MaxHeadlines == 0 {
		c.News.MaxHeadlines = 10
	}
	if c.News.TimeoutSeconds == 0 {
		c.News.TimeoutSeconds = 10
	}
	if c.MarketData.HistoryDays == 0 {
		c.MarketData.HistoryDays = 365
	}
	if c.MarketData.TimeoutSeconds == 0 {
		c.MarketData.TimeoutSeconds = 10
	}
	if c.MarketData.RequestsPerSecond == 0 {
		c.MarketData.RequestsPerSecond = 5
	}
	if c.Cache.TTLSeconds == 0 {
		c.Cache.TTLSeconds = 3600
	}
	if c.Cache.MaxEntries == 0 {
		c.Cache.MaxEntries = 128
	}
	if c.RateLimit.UncachedPerMinute == 0 {
		c.RateLimit.UncachedPerMinute = 5
	}
}
