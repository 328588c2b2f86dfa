package core

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/stampedhq/onboard/internal/latency"
	"github.com/stampedhq/onboard/pkg/models"
)

// ConfigFileName is the name of the YAML configuration file read from the
// base path.
const ConfigFileName = ".onboardconfig"

// ConfigurationManager defines the interface for loading and validating
// configuration from the global .onboardconfig file.
type ConfigurationManager interface {
	LoadGlobalConfig() (*models.GlobalConfig, error)
	ValidateConfig(config *models.GlobalConfig) error
}

// viperConfigManager implements ConfigurationManager using Viper for
// reading YAML configuration files.
type viperConfigManager struct {
	// basePath is the root directory where .onboardconfig resides.
	basePath string
}

// NewConfigurationManager creates a new ConfigurationManager that reads
// configuration files relative to basePath.
func NewConfigurationManager(basePath string) ConfigurationManager {
	return &viperConfigManager{basePath: basePath}
}

// DefaultGlobalConfig returns a GlobalConfig populated with defaults.
func DefaultGlobalConfig() *models.GlobalConfig {
	return &models.GlobalConfig{
		Storage: models.StorageConfig{Driver: "file", Path: "data"},
		Latency: models.LatencyConfig{
			Enabled:   true,
			DefaultMS: 500,
			ReadMS:    500,
			UploadMS:  1000,
			MessageMS: 300,
			QuickMS:   100,
		},
		HistorySize: 100,
		LogLevel:    "info",
		Screening: models.ScreeningConfig{
			BaseURL:           "https://api.deepseek.com/v1",
			Model:             "deepseek-chat",
			APIKeyEnv:         "DEEPSEEK_API_KEY",
			Temperature:       0.3,
			MaxTokens:         2000,
			RequestsPerMinute: 20,
		},
		Alerts:     models.AlertConfig{ReviewDays: 5, RiskReviewGraceDays: 0},
		ServerAddr: ":8080",
	}
}

// LoadGlobalConfig reads the .onboardconfig file from the base path using
// Viper. Environment variables prefixed ONB_ override file values, e.g.
// ONB_STORAGE_DRIVER. If the file does not exist, defaults are returned
// with any environment overrides applied.
func (cm *viperConfigManager) LoadGlobalConfig() (*models.GlobalConfig, error) {
	cfg := DefaultGlobalConfig()

	v := viper.New()
	v.SetConfigName(ConfigFileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(cm.basePath)
	v.SetEnvPrefix("ONB")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Set Viper defaults so missing keys fall back gracefully.
	v.SetDefault("storage.driver", cfg.Storage.Driver)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("latency.enabled", cfg.Latency.Enabled)
	v.SetDefault("latency.default_ms", cfg.Latency.DefaultMS)
	v.SetDefault("latency.read_ms", cfg.Latency.ReadMS)
	v.SetDefault("latency.upload_ms", cfg.Latency.UploadMS)
	v.SetDefault("latency.message_ms", cfg.Latency.MessageMS)
	v.SetDefault("latency.quick_ms", cfg.Latency.QuickMS)
	v.SetDefault("events.history_size", cfg.HistorySize)
	v.SetDefault("log.level", cfg.LogLevel)
	v.SetDefault("screening.base_url", cfg.Screening.BaseURL)
	v.SetDefault("screening.model", cfg.Screening.Model)
	v.SetDefault("screening.api_key_env", cfg.Screening.APIKeyEnv)
	v.SetDefault("screening.temperature", cfg.Screening.Temperature)
	v.SetDefault("screening.max_tokens", cfg.Screening.MaxTokens)
	v.SetDefault("screening.requests_per_minute", cfg.Screening.RequestsPerMinute)
	v.SetDefault("notifications.enabled", false)
	v.SetDefault("notifications.slack.webhook_url", "")
	v.SetDefault("alerts.review_days", cfg.Alerts.ReviewDays)
	v.SetDefault("alerts.risk_review_grace_days", cfg.Alerts.RiskReviewGraceDays)
	v.SetDefault("server.addr", cfg.ServerAddr)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading %s: %w", ConfigFileName, err)
		}
	}

	// Map nested YAML keys to GlobalConfig fields.
	cfg.Storage.Driver = v.GetString("storage.driver")
	cfg.Storage.Path = v.GetString("storage.path")
	cfg.Latency.Enabled = v.GetBool("latency.enabled")
	cfg.Latency.DefaultMS = v.GetInt("latency.default_ms")
	cfg.Latency.ReadMS = v.GetInt("latency.read_ms")
	cfg.Latency.UploadMS = v.GetInt("latency.upload_ms")
	cfg.Latency.MessageMS = v.GetInt("latency.message_ms")
	cfg.Latency.QuickMS = v.GetInt("latency.quick_ms")
	cfg.HistorySize = v.GetInt("events.history_size")
	cfg.LogLevel = v.GetString("log.level")
	cfg.Screening.BaseURL = v.GetString("screening.base_url")
	cfg.Screening.Model = v.GetString("screening.model")
	cfg.Screening.APIKeyEnv = v.GetString("screening.api_key_env")
	cfg.Screening.Temperature = v.GetFloat64("screening.temperature")
	cfg.Screening.MaxTokens = v.GetInt("screening.max_tokens")
	cfg.Screening.RequestsPerMinute = v.GetInt("screening.requests_per_minute")
	cfg.Notifications.Enabled = v.GetBool("notifications.enabled")
	cfg.Notifications.Slack.WebhookURL = v.GetString("notifications.slack.webhook_url")
	cfg.Alerts.ReviewDays = v.GetInt("alerts.review_days")
	cfg.Alerts.RiskReviewGraceDays = v.GetInt("alerts.risk_review_grace_days")
	cfg.ServerAddr = v.GetString("server.addr")

	return cfg, nil
}

var validDrivers = map[string]bool{
	"file":   true,
	"sqlite": true,
	"memory": true,
}

// ValidateConfig checks the provided configuration for invalid values and
// returns a clear error message identifying every problem.
func (cm *viperConfigManager) ValidateConfig(cfg *models.GlobalConfig) error {
	if cfg == nil {
		return fmt.Errorf("configuration is nil")
	}

	var errs []string

	if !validDrivers[cfg.Storage.Driver] {
		errs = append(errs, fmt.Sprintf("storage.driver %q is invalid, must be one of: file, sqlite, memory", cfg.Storage.Driver))
	}
	if cfg.Storage.Driver != "memory" && cfg.Storage.Path == "" {
		errs = append(errs, "storage.path must not be empty")
	}
	for key, ms := range map[string]int{
		"latency.default_ms": cfg.Latency.DefaultMS,
		"latency.read_ms":    cfg.Latency.ReadMS,
		"latency.upload_ms":  cfg.Latency.UploadMS,
		"latency.message_ms": cfg.Latency.MessageMS,
		"latency.quick_ms":   cfg.Latency.QuickMS,
	} {
		if ms < 0 {
			errs = append(errs, fmt.Sprintf("%s must be non-negative, got %d", key, ms))
		}
	}
	if cfg.HistorySize <= 0 {
		errs = append(errs, fmt.Sprintf("events.history_size must be positive, got %d", cfg.HistorySize))
	}
	if cfg.Screening.Temperature < 0 || cfg.Screening.Temperature > 2 {
		errs = append(errs, fmt.Sprintf("screening.temperature %.2f is invalid, must be between 0 and 2", cfg.Screening.Temperature))
	}
	if cfg.Screening.MaxTokens <= 0 {
		errs = append(errs, fmt.Sprintf("screening.max_tokens must be positive, got %d", cfg.Screening.MaxTokens))
	}
	if cfg.Screening.RequestsPerMinute < 0 {
		errs = append(errs, fmt.Sprintf("screening.requests_per_minute must be non-negative, got %d", cfg.Screening.RequestsPerMinute))
	}
	if cfg.Notifications.Enabled && cfg.Notifications.Slack.WebhookURL == "" {
		errs = append(errs, "notifications.slack.webhook_url is required when notifications are enabled")
	}
	if cfg.Alerts.ReviewDays < 0 {
		errs = append(errs, fmt.Sprintf("alerts.review_days must be non-negative, got %d", cfg.Alerts.ReviewDays))
	}

	if len(errs) > 0 {
		// Map iteration order varies; keep the message stable.
		sort.Strings(errs)
		return fmt.Errorf("config validation failed:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// LatencyProfile converts the configured milliseconds into a latency.Profile.
func LatencyProfile(cfg models.LatencyConfig) latency.Profile {
	ms := func(n int) time.Duration { return time.Duration(n) * time.Millisecond }
	return latency.Profile{
		Default: ms(cfg.DefaultMS),
		Read:    ms(cfg.ReadMS),
		Upload:  ms(cfg.UploadMS),
		Message: ms(cfg.MessageMS),
		Quick:   ms(cfg.QuickMS),
	}
}
