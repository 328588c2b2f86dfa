package core

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/pkg/models"
)

// --- Helper ---

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}

// --- LoadGlobalConfig tests ---

func TestLoadGlobalConfig_Defaults_WhenNoFile(t *testing.T) {
	dir := t.TempDir()
	cm := NewConfigurationManager(dir)

	cfg, err := cm.LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Driver != "file" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "file")
	}
	if cfg.Storage.Path != "data" {
		t.Errorf("Storage.Path = %q, want %q", cfg.Storage.Path, "data")
	}
	if cfg.Latency.UploadMS != 1000 {
		t.Errorf("Latency.UploadMS = %d, want 1000", cfg.Latency.UploadMS)
	}
	if cfg.HistorySize != 100 {
		t.Errorf("HistorySize = %d, want 100", cfg.HistorySize)
	}
	if cfg.Screening.Model != "deepseek-chat" {
		t.Errorf("Screening.Model = %q, want %q", cfg.Screening.Model, "deepseek-chat")
	}
	if cfg.Screening.Temperature != 0.3 {
		t.Errorf("Screening.Temperature = %v, want 0.3", cfg.Screening.Temperature)
	}
	if cfg.Alerts.ReviewDays != 5 {
		t.Errorf("Alerts.ReviewDays = %d, want 5", cfg.Alerts.ReviewDays)
	}
	if cfg.Notifications.Enabled {
		t.Error("Notifications.Enabled = true, want false")
	}
	if cfg.ServerAddr != ":8080" {
		t.Errorf("ServerAddr = %q, want %q", cfg.ServerAddr, ":8080")
	}
}

func TestLoadGlobalConfig_ReadsOnboardconfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".onboardconfig.yaml", `
storage:
  driver: sqlite
  path: onboard.db
latency:
  enabled: false
  upload_ms: 50
events:
  history_size: 25
log:
  level: debug
screening:
  model: gpt-4o-mini
  max_tokens: 512
notifications:
  enabled: true
  slack:
    webhook_url: https://hooks.slack.example/T000
alerts:
  review_days: 3
server:
  addr: 127.0.0.1:9090
`)

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.Storage.Driver != "sqlite" || cfg.Storage.Path != "onboard.db" {
		t.Errorf("Storage = %+v, want sqlite/onboard.db", cfg.Storage)
	}
	if cfg.Latency.Enabled {
		t.Error("Latency.Enabled = true, want false")
	}
	if cfg.Latency.UploadMS != 50 {
		t.Errorf("Latency.UploadMS = %d, want 50", cfg.Latency.UploadMS)
	}
	// Unset keys keep their defaults.
	if cfg.Latency.ReadMS != 500 {
		t.Errorf("Latency.ReadMS = %d, want 500", cfg.Latency.ReadMS)
	}
	if cfg.HistorySize != 25 {
		t.Errorf("HistorySize = %d, want 25", cfg.HistorySize)
	}
	if cfg.LogLevel != "debug" {
		t.Errorf("LogLevel = %q, want %q", cfg.LogLevel, "debug")
	}
	if cfg.Screening.Model != "gpt-4o-mini" || cfg.Screening.MaxTokens != 512 {
		t.Errorf("Screening = %+v", cfg.Screening)
	}
	if cfg.Screening.BaseURL != "https://api.deepseek.com/v1" {
		t.Errorf("Screening.BaseURL = %q, want default", cfg.Screening.BaseURL)
	}
	if !cfg.Notifications.Enabled || cfg.Notifications.Slack.WebhookURL != "https://hooks.slack.example/T000" {
		t.Errorf("Notifications = %+v", cfg.Notifications)
	}
	if cfg.Alerts.ReviewDays != 3 {
		t.Errorf("Alerts.ReviewDays = %d, want 3", cfg.Alerts.ReviewDays)
	}
	if cfg.ServerAddr != "127.0.0.1:9090" {
		t.Errorf("ServerAddr = %q", cfg.ServerAddr)
	}
}

func TestLoadGlobalConfig_EnvOverridesFile(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".onboardconfig.yaml", "storage:\n  driver: sqlite\n")
	t.Setenv("ONB_STORAGE_DRIVER", "memory")

	cfg, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Storage.Driver != "memory" {
		t.Errorf("Storage.Driver = %q, want %q", cfg.Storage.Driver, "memory")
	}
}

func TestLoadGlobalConfig_MalformedYAML(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, ".onboardconfig.yaml", "storage: [unclosed\n")

	_, err := NewConfigurationManager(dir).LoadGlobalConfig()
	if err == nil {
		t.Fatal("expected error for malformed config, got nil")
	}
	if !strings.Contains(err.Error(), ".onboardconfig") {
		t.Errorf("error %q should name the config file", err)
	}
}

// --- ValidateConfig tests ---

func TestValidateConfig_DefaultsAreValid(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	if err := cm.ValidateConfig(DefaultGlobalConfig()); err != nil {
		t.Errorf("defaults should be valid, got %v", err)
	}
}

func TestValidateConfig_Nil(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())
	if err := cm.ValidateConfig(nil); err == nil {
		t.Error("expected error for nil config")
	}
}

func TestValidateConfig_ReportsEachProblem(t *testing.T) {
	cm := NewConfigurationManager(t.TempDir())

	tests := []struct {
		name   string
		mutate func(c *models.GlobalConfig)
		want   string
	}{
		{"bad driver", func(c *models.GlobalConfig) { c.Storage.Driver = "postgres" }, "storage.driver"},
		{"empty path", func(c *models.GlobalConfig) { c.Storage.Path = "" }, "storage.path"},
		{"negative latency", func(c *models.GlobalConfig) { c.Latency.QuickMS = -1 }, "latency.quick_ms"},
		{"zero history", func(c *models.GlobalConfig) { c.HistorySize = 0 }, "events.history_size"},
		{"hot temperature", func(c *models.GlobalConfig) { c.Screening.Temperature = 2.5 }, "screening.temperature"},
		{"zero tokens", func(c *models.GlobalConfig) { c.Screening.MaxTokens = 0 }, "screening.max_tokens"},
		{"slack without url", func(c *models.GlobalConfig) { c.Notifications.Enabled = true }, "webhook_url"},
		{"negative review days", func(c *models.GlobalConfig) { c.Alerts.ReviewDays = -2 }, "alerts.review_days"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultGlobalConfig()
			tt.mutate(cfg)
			err := cm.ValidateConfig(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestValidateConfig_MemoryDriverNeedsNoPath(t *testing.T) {
	cfg := DefaultGlobalConfig()
	cfg.Storage.Driver = "memory"
	cfg.Storage.Path = ""
	if err := NewConfigurationManager(t.TempDir()).ValidateConfig(cfg); err != nil {
		t.Errorf("memory driver without path should be valid, got %v", err)
	}
}

func TestLatencyProfile(t *testing.T) {
	p := LatencyProfile(DefaultGlobalConfig().Latency)
	if got := p.Of(latency.Upload); got != time.Second {
		t.Errorf("upload = %v, want 1s", got)
	}
	if got := p.Of(latency.Quick); got != 100*time.Millisecond {
		t.Errorf("quick = %v, want 100ms", got)
	}
	if got := p.Of(latency.Message); got != 300*time.Millisecond {
		t.Errorf("message = %v, want 300ms", got)
	}
}
