package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"
)

// Duration wraps time.Duration so "90s"-style strings parse from both the
// YAML file and environment overrides.
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	return d.UnmarshalText([]byte(s))
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds all application configuration.
type Config struct {
	Watchlist []string `yaml:"watchlist" envconfig:"WATCHLIST"`

	Analysis struct {
		WindowDays int      `yaml:"window_days" envconfig:"ANALYSIS_WINDOW_DAYS"`
		Workers    int      `yaml:"workers" envconfig:"ANALYSIS_WORKERS"`
		RunTimeout Duration `yaml:"run_timeout" envconfig:"ANALYSIS_RUN_TIMEOUT"`
		CacheTTL   Duration `yaml:"cache_ttl" envconfig:"ANALYSIS_CACHE_TTL"`
	} `yaml:"analysis"`

	Server struct {
		Addr string `yaml:"addr" envconfig:"SERVER_ADDR"`
	} `yaml:"server"`

	Telegram struct {
		BotToken string `yaml:"bot_token" envconfig:"TELEGRAM_BOT_TOKEN"`
		ChatID   string `yaml:"chat_id" envconfig:"TELEGRAM_CHAT_ID"`
		Polling  bool   `yaml:"polling" envconfig:"TELEGRAM_POLLING"`
	} `yaml:"telegram"`

	Schedule struct {
		DailyCron   string `yaml:"daily_cron" envconfig:"CRON_DAILY"`
		ReviewCron  string `yaml:"review_cron" envconfig:"CRON_REVIEW"`
		CleanupCron string `yaml:"cleanup_cron" envconfig:"CRON_CLEANUP"`
	} `yaml:"schedule"`

	Database struct {
		SQLitePath string `yaml:"sqlite_path" envconfig:"SQLITE_PATH"`
	} `yaml:"database"`

	Proxy string `yaml:"proxy" envconfig:"HTTPS_PROXY"`
}

// Load reads config from a YAML file, then applies environment variable
// overrides. A missing file is fine: everything has a default or an env knob.
func Load(path string) (*Config, error) {
	// A local .env is a development convenience, not a requirement.
	_ = godotenv.Load()

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

	if err := envconfig.Process("", cfg); err != nil {
		return nil, fmt.Errorf("apply env overrides: %w", err)
	}

	cfg.applyDefaults()
	return cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Analysis.WindowDays == 0 {
		c.Analysis.WindowDays = 60
	}
	if c.Analysis.Workers == 0 {
		c.Analysis.Workers = 4
	}
	if c.Analysis.RunTimeout == 0 {
		c.Analysis.RunTimeout = Duration(3 * time.Minute)
	}
	if c.Analysis.CacheTTL == 0 {
		c.Analysis.CacheTTL = Duration(time.Hour)
	}
	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Schedule.DailyCron == "" {
		c.Schedule.DailyCron = "0 30 14 * * 1-5" // after the Taiwan close
	}
	if c.Schedule.ReviewCron == "" {
		c.Schedule.ReviewCron = "0 0 15 * * 1-5"
	}
	if c.Schedule.CleanupCron == "" {
		c.Schedule.CleanupCron = "0 0 */6 * * *"
	}
}

// Validate checks field consistency. Telegram stays optional: without
// credentials, notifications fall back to the process log.
func (c *Config) Validate() error {
	if c.Analysis.WindowDays < 5 {
		return fmt.Errorf("analysis.window_days must be at least 5, got %d", c.Analysis.WindowDays)
	}
	if c.Analysis.Workers < 1 {
		return fmt.Errorf("analysis.workers must be positive, got %d", c.Analysis.Workers)
	}
	if c.Analysis.RunTimeout <= 0 {
		return fmt.Errorf("analysis.run_timeout must be positive")
	}
	if c.Telegram.BotToken != "" && c.Telegram.ChatID == "" {
		return fmt.Errorf("telegram.chat_id is required when telegram.bot_token is set")
	}
	return nil
}

// TelegramEnabled reports whether a real Telegram notifier can be built.
func (c *Config) TelegramEnabled() bool {
	return c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
}
