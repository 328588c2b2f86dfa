package models

// StorageConfig selects the persistence substrate.
type StorageConfig struct {
	Driver string `yaml:"driver" mapstructure:"driver"` // file, sqlite, memory
	Path   string `yaml:"path" mapstructure:"path"`
}

// LatencyConfig tunes the simulated backend latency in milliseconds.
type LatencyConfig struct {
	Enabled   bool `yaml:"enabled" mapstructure:"enabled"`
	DefaultMS int  `yaml:"default_ms" mapstructure:"default_ms"`
	ReadMS    int  `yaml:"read_ms" mapstructure:"read_ms"`
	UploadMS  int  `yaml:"upload_ms" mapstructure:"upload_ms"`
	MessageMS int  `yaml:"message_ms" mapstructure:"message_ms"`
	QuickMS   int  `yaml:"quick_ms" mapstructure:"quick_ms"`
}

// ScreeningConfig configures the adverse media LLM endpoint.
type ScreeningConfig struct {
	BaseURL           string  `yaml:"base_url" mapstructure:"base_url"`
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKeyEnv         string  `yaml:"api_key_env" mapstructure:"api_key_env"`
	Temperature       float64 `yaml:"temperature" mapstructure:"temperature"`
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	RequestsPerMinute int     `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// SlackConfig holds the Slack webhook used for notifications.
type SlackConfig struct {
	WebhookURL string `yaml:"webhook_url" mapstructure:"webhook_url"`
}

// NotificationConfig toggles external notification delivery.
type NotificationConfig struct {
	Enabled bool        `yaml:"enabled" mapstructure:"enabled"`
	Slack   SlackConfig `yaml:"slack" mapstructure:"slack"`
}

// AlertConfig holds compliance alert thresholds.
type AlertConfig struct {
	ReviewDays          int `yaml:"review_days" mapstructure:"review_days"`
	RiskReviewGraceDays int `yaml:"risk_review_grace_days" mapstructure:"risk_review_grace_days"`
}

// GlobalConfig holds settings read from .onboardconfig via Viper.
type GlobalConfig struct {
	Storage       StorageConfig      `yaml:"storage" mapstructure:"storage"`
	Latency       LatencyConfig      `yaml:"latency" mapstructure:"latency"`
	HistorySize   int                `yaml:"history_size" mapstructure:"history_size"`
	LogLevel      string             `yaml:"log_level" mapstructure:"log_level"`
	Screening     ScreeningConfig    `yaml:"screening" mapstructure:"screening"`
	Notifications NotificationConfig `yaml:"notifications" mapstructure:"notifications"`
	Alerts        AlertConfig        `yaml:"alerts" mapstructure:"alerts"`
	ServerAddr    string             `yaml:"server_addr" mapstructure:"server_addr"`
}
