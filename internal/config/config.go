package config

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config holds all application configuration.
type Config struct {
	Server  ServerConfig        `mapstructure:"server"`
	Auth    AuthConfig          `mapstructure:"auth"`
	CORS    CORSConfig          `mapstructure:"cors"`
	HTTP    HTTPRateLimitConfig `mapstructure:"http_rate_limit"`
	Redis   RedisConfig         `mapstructure:"redis"`
	Queue   QueueConfig         `mapstructure:"queue"`
	Quotas  QuotasConfig        `mapstructure:"quotas"`
	History HistoryConfig       `mapstructure:"history"`
	Senders SendersConfig       `mapstructure:"senders"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Port int    `mapstructure:"port"`
	Mode string `mapstructure:"mode"`
}

// AuthConfig holds API key authentication settings.
// When no keys are configured, authentication is disabled.
type AuthConfig struct {
	APIKeys []string `mapstructure:"api_keys"`
}

// CORSConfig holds CORS policy settings.
type CORSConfig struct {
	AllowedOrigins []string `mapstructure:"allowed_origins"`
	AllowedMethods []string `mapstructure:"allowed_methods"`
	AllowedHeaders []string `mapstructure:"allowed_headers"`
}

// HTTPRateLimitConfig holds per-IP request throttling settings.
// This protects the API surface itself; per-user notification quotas
// are configured separately under quotas.
type HTTPRateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

// RedisConfig holds Redis connection settings. Redis backs the dispatch
// queue, the usage counters, and the recent-history store.
type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// QueueConfig holds dispatch queue settings.
type QueueConfig struct {
	Concurrency       int `mapstructure:"concurrency"`
	MaxAttempts       int `mapstructure:"max_attempts"`
	RetryBaseDelaySec int `mapstructure:"retry_base_delay_sec"`
}

// QuotaConfig holds the three fixed-window limits for one channel.
type QuotaConfig struct {
	MaxPerMinute int `mapstructure:"max_per_minute"`
	MaxPerHour   int `mapstructure:"max_per_hour"`
	MaxPerDay    int `mapstructure:"max_per_day"`
}

// QuotasConfig holds the per-channel quota table. Unrecognized channels
// fall back to Default.
type QuotasConfig struct {
	Email   QuotaConfig `mapstructure:"email"`
	SMS     QuotaConfig `mapstructure:"sms"`
	InApp   QuotaConfig `mapstructure:"in_app"`
	Push    QuotaConfig `mapstructure:"push"`
	Default QuotaConfig `mapstructure:"default"`
}

// HistoryConfig holds recent-history store settings.
type HistoryConfig struct {
	Cap int `mapstructure:"cap"`
}

// SendersConfig holds delivery provider settings per channel.
type SendersConfig struct {
	Email EmailSenderConfig `mapstructure:"email"`
	SMS   SMSSenderConfig   `mapstructure:"sms"`
	Push  PushSenderConfig  `mapstructure:"push"`
}

// EmailSenderConfig holds email provider settings.
type EmailSenderConfig struct {
	APIURL      string `mapstructure:"api_url"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

// SMSSenderConfig holds SMS gateway settings.
type SMSSenderConfig struct {
	APIURL     string `mapstructure:"api_url"`
	APIKey     string `mapstructure:"api_key"`
	FromNumber string `mapstructure:"from_number"`
}

// PushSenderConfig holds push gateway settings.
type PushSenderConfig struct {
	APIURL string `mapstructure:"api_url"`
	APIKey string `mapstructure:"api_key"`
}

// Load reads configuration from config.yaml and environment variables.
// Environment variables use the NOTIQ_ prefix and underscore separators.
// Example: NOTIQ_SERVER_PORT overrides server.port in config.yaml.
func Load() (*Config, error) {
	v := viper.New()

	// Config file settings
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	// Load .env file if it exists
	_ = godotenv.Load()

	// Environment variable settings
	v.SetEnvPrefix("NOTIQ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("server.port", 3000)
	v.SetDefault("server.mode", "debug")
	v.SetDefault("http_rate_limit.requests_per_second", 10)
	v.SetDefault("http_rate_limit.burst", 20)
	v.SetDefault("redis.address", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.max_attempts", 5)
	v.SetDefault("queue.retry_base_delay_sec", 30)
	v.SetDefault("history.cap", 1000)

	// Per-channel quota table. SMS is the tightest tier since SMS
	// providers bill per message.
	v.SetDefault("quotas.email.max_per_minute", 2)
	v.SetDefault("quotas.email.max_per_hour", 10)
	v.SetDefault("quotas.email.max_per_day", 20)
	v.SetDefault("quotas.sms.max_per_minute", 1)
	v.SetDefault("quotas.sms.max_per_hour", 5)
	v.SetDefault("quotas.sms.max_per_day", 10)
	v.SetDefault("quotas.in_app.max_per_minute", 5)
	v.SetDefault("quotas.in_app.max_per_hour", 30)
	v.SetDefault("quotas.in_app.max_per_day", 100)
	v.SetDefault("quotas.push.max_per_minute", 3)
	v.SetDefault("quotas.push.max_per_hour", 15)
	v.SetDefault("quotas.push.max_per_day", 50)
	v.SetDefault("quotas.default.max_per_minute", 2)
	v.SetDefault("quotas.default.max_per_hour", 20)
	v.SetDefault("quotas.default.max_per_day", 50)

	v.SetDefault("senders.email.api_url", "https://api.resend.com/emails")

	// Read config file (optional — env vars can provide everything)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("reading config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshaling config: %w", err)
	}

	// Handle comma-separated API keys from env var
	if apiKeysStr := v.GetString("auth.api_keys"); apiKeysStr != "" && len(cfg.Auth.APIKeys) == 0 {
		keys := strings.Split(apiKeysStr, ",")
		for i := range keys {
			keys[i] = strings.TrimSpace(keys[i])
		}
		cfg.Auth.APIKeys = keys
	}

	return &cfg, nil
}
