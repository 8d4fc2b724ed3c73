package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"gopkg.in/yaml.v3"

	"PatternSentinel/internal/model"
	"PatternSentinel/internal/retry"
)

// Config holds all application configuration.
type Config struct {
	Provider  ProviderConfig  `yaml:"provider"`
	Retry     RetryConfig     `yaml:"retry"`
	Retrieval RetrievalConfig `yaml:"retrieval"`
	Cache     CacheConfig     `yaml:"cache"`
	Watch     WatchConfig     `yaml:"watch"`
	Telegram  TelegramConfig  `yaml:"telegram"`
	Proxy     string          `yaml:"proxy" env:"HTTPS_PROXY"`
}

type ProviderConfig struct {
	Name           string        `yaml:"name" env:"PROVIDER" env-default:"binance"`
	BaseURL        string        `yaml:"base_url" env:"PROVIDER_BASE_URL"`
	APIKey         string        `yaml:"api_key" env:"PROVIDER_API_KEY"`
	ChunkLimit     int           `yaml:"chunk_limit" env:"PROVIDER_CHUNK_LIMIT" env-default:"1000"`
	RequestTimeout time.Duration `yaml:"request_timeout" env:"PROVIDER_REQUEST_TIMEOUT" env-default:"10s"`
	RateLimitDelay time.Duration `yaml:"rate_limit_delay" env:"PROVIDER_RATE_LIMIT_DELAY" env-default:"150ms"`
	MockPrice      float64       `yaml:"mock_price" env-default:"50000"`
}

type RetryConfig struct {
	MaxAttempts int           `yaml:"max_attempts" env:"RETRY_MAX_ATTEMPTS" env-default:"3"`
	BaseDelay   time.Duration `yaml:"base_delay" env:"RETRY_BASE_DELAY" env-default:"500ms"`
	Multiplier  float64       `yaml:"multiplier" env:"RETRY_MULTIPLIER" env-default:"2"`
	MaxDelay    time.Duration `yaml:"max_delay" env:"RETRY_MAX_DELAY" env-default:"5s"`
}

type RetrievalConfig struct {
	Lookback               time.Duration  `yaml:"lookback" env:"RETRIEVAL_LOOKBACK" env-default:"8760h"`
	MaxConsecutiveFailures int            `yaml:"max_consecutive_failures" env-default:"5"`
	ChunkCeilings          map[string]int `yaml:"chunk_ceilings"`
	DefaultCeiling         int            `yaml:"default_ceiling" env-default:"50"`
}

type CacheConfig struct {
	Driver      string `yaml:"driver" env:"CACHE_DRIVER" env-default:"memory"`
	SQLitePath  string `yaml:"sqlite_path" env:"SQLITE_PATH" env-default:"data/pattern_sentinel.db"`
	CleanupCron string `yaml:"cleanup_cron" env-default:"0 */5 * * * *"`
}

type WatchConfig struct {
	Symbols       []string `yaml:"symbols" env:"WATCH_SYMBOLS" env-default:"BTCUSDT"`
	Interval      string   `yaml:"interval" env:"WATCH_INTERVAL" env-default:"15m"`
	Window        int      `yaml:"window" env:"WATCH_WINDOW" env-default:"60"`
	Cron          string   `yaml:"cron" env:"CRON_WATCH" env-default:"0 */15 * * * *"`
	TrendHours    int      `yaml:"trend_hours" env-default:"6"`
	TrendCron     string   `yaml:"trend_cron" env:"CRON_TREND" env-default:"0 5 * * * *"`
	TrendMinScore float64  `yaml:"trend_min_score" env-default:"0.8"`
}

type TelegramConfig struct {
	BotToken string `yaml:"bot_token" env:"TELEGRAM_BOT_TOKEN"`
	ChatID   string `yaml:"chat_id" env:"TELEGRAM_CHAT_ID"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides and defaults. A missing file is not an error.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cleanenv.ReadEnv(cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}
	return cfg, nil
}

// Validate checks that every field holds a usable value.
func (c *Config) Validate() error {
	switch c.Provider.Name {
	case "binance", "yahoo", "mock":
	default:
		return fmt.Errorf("provider.name %q is not one of binance, yahoo, mock", c.Provider.Name)
	}
	if c.Provider.ChunkLimit < 1 || c.Provider.ChunkLimit > 1000 {
		return fmt.Errorf("provider.chunk_limit must be within 1..1000")
	}
	if c.Provider.RequestTimeout <= 0 {
		return fmt.Errorf("provider.request_timeout must be positive")
	}
	if c.Retry.MaxAttempts < 1 {
		return fmt.Errorf("retry.max_attempts must be at least 1")
	}
	if c.Retry.Multiplier < 1 {
		return fmt.Errorf("retry.multiplier must be at least 1")
	}
	if c.Retrieval.Lookback <= 0 {
		return fmt.Errorf("retrieval.lookback must be positive")
	}
	for name, ceiling := range c.Retrieval.ChunkCeilings {
		if !model.Interval(name).Valid() {
			return fmt.Errorf("retrieval.chunk_ceilings: unknown interval %q", name)
		}
		if ceiling < 1 {
			return fmt.Errorf("retrieval.chunk_ceilings[%s] must be positive", name)
		}
	}
	switch c.Cache.Driver {
	case "memory", "none":
	case "sqlite":
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache.sqlite_path is required for the sqlite driver")
		}
	default:
		return fmt.Errorf("cache.driver %q is not one of memory, sqlite, none", c.Cache.Driver)
	}
	if len(c.Watch.Symbols) == 0 {
		return fmt.Errorf("watch.symbols must not be empty")
	}
	if !model.Interval(c.Watch.Interval).Valid() {
		return fmt.Errorf("watch.interval %q is not supported", c.Watch.Interval)
	}
	if c.Watch.Window < 10 || c.Watch.Window > 200 {
		return fmt.Errorf("watch.window must be within 10..200")
	}
	if c.Watch.TrendHours < 1 || c.Watch.TrendHours > 24 {
		return fmt.Errorf("watch.trend_hours must be within 1..24")
	}
	if (c.Telegram.BotToken == "") != (c.Telegram.ChatID == "") {
		return fmt.Errorf("telegram.bot_token and telegram.chat_id must be set together")
	}
	return nil
}

// TelegramEnabled reports whether alerts go to Telegram.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}

// RetryPolicy converts the retry section.
func (c *Config) RetryPolicy() retry.Policy {
	return retry.Policy{
		MaxAttempts: c.Retry.MaxAttempts,
		BaseDelay:   c.Retry.BaseDelay,
		Multiplier:  c.Retry.Multiplier,
		MaxDelay:    c.Retry.MaxDelay,
	}
}

// ChunkCeilings returns configured per-interval ceilings keyed by interval.
// Nil when none are configured.
func (c *Config) ChunkCeilings() map[model.Interval]int {
	if len(c.Retrieval.ChunkCeilings) == 0 {
		return nil
	}
	out := make(map[model.Interval]int, len(c.Retrieval.ChunkCeilings))
	for name, ceiling := range c.Retrieval.ChunkCeilings {
		out[model.Interval(name)] = ceiling
	}
	return out
}
