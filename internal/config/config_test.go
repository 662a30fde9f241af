package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestLoad_DefaultsWhenMissing(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "does-not-exist.yaml"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Analysis.WindowDays != 60 || cfg.Analysis.Workers != 4 {
		t.Errorf("unexpected analysis defaults: %+v", cfg.Analysis)
	}
	if cfg.Server.Addr != ":8080" {
		t.Errorf("server addr default = %q", cfg.Server.Addr)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
	if cfg.TelegramEnabled() {
		t.Error("telegram must be off without credentials")
	}
}

func TestLoad_YAMLAndEnvOverride(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	yaml := `
watchlist:
  - 2330.TW
  - AAPL
analysis:
  window_days: 90
  run_timeout: 90s
telegram:
  bot_token: file-token
  chat_id: "123"
`
	if err := os.WriteFile(path, []byte(yaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("TELEGRAM_BOT_TOKEN", "env-token")
	t.Setenv("ANALYSIS_WORKERS", "8")

	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if len(cfg.Watchlist) != 2 || cfg.Watchlist[0] != "2330.TW" {
		t.Errorf("watchlist = %v", cfg.Watchlist)
	}
	if cfg.Analysis.WindowDays != 90 {
		t.Errorf("window_days = %d, want 90", cfg.Analysis.WindowDays)
	}
	if cfg.Analysis.RunTimeout.Std() != 90*time.Second {
		t.Errorf("run_timeout = %v, want 90s", cfg.Analysis.RunTimeout)
	}
	if cfg.Analysis.Workers != 8 {
		t.Errorf("env override lost: workers = %d", cfg.Analysis.Workers)
	}
	if cfg.Telegram.BotToken != "env-token" {
		t.Errorf("env must beat the file: token = %q", cfg.Telegram.BotToken)
	}
	if !cfg.TelegramEnabled() {
		t.Error("telegram should be enabled")
	}
}

func TestValidate(t *testing.T) {
	cfg := &Config{}
	cfg.applyDefaults()

	cfg.Analysis.WindowDays = 3
	if err := cfg.Validate(); err == nil {
		t.Error("window shorter than the scoring minimum must fail validation")
	}
	cfg.Analysis.WindowDays = 60

	cfg.Telegram.BotToken = "token-without-chat"
	if err := cfg.Validate(); err == nil {
		t.Error("bot token without chat id must fail validation")
	}
}
