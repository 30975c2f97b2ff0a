// Package config loads daemon configuration from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config holds the full daemon configuration.
type Config struct {
	API           APIConfig
	Refresh       RefreshConfig
	Notifications NotificationsConfig
	Status        StatusConfig
	Session       SessionConfig
	Telemetry     TelemetryConfig
	Logging       LoggingConfig
}

// APIConfig configures the shared backend HTTP client.
type APIConfig struct {
	// BaseURL is the dashboard backend base URL.
	BaseURL string

	// Timeout is the per-request timeout.
	Timeout time.Duration
}

// RefreshConfig configures the air-quality synchronization engine.
type RefreshConfig struct {
	// Interval is how often the location-scoped datasets are refetched.
	Interval time.Duration

	// Tolerance is the search radius (degrees) passed to the backend.
	Tolerance float64

	// ForecastHours is the forward window for forecast fetches.
	ForecastHours int

	// TrendHours is the backward window for trend fetches.
	TrendHours int

	// MapLimit bounds the global map-data point list.
	MapLimit int
}

// NotificationsConfig configures the notification reconciliation engine.
type NotificationsConfig struct {
	// PollInterval is how often the per-user feed is polled.
	PollInterval time.Duration
}

// StatusConfig configures the local status API.
type StatusConfig struct {
	Host string
	Port int
}

// SessionConfig configures the local persistence store.
type SessionConfig struct {
	// DBPath is the sqlite file backing the key-value store.
	DBPath string
}

// TelemetryConfig configures OpenTelemetry export.
type TelemetryConfig struct {
	Enabled  bool
	Endpoint string
}

// LoggingConfig configures structured logging.
type LoggingConfig struct {
	Level string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		API: APIConfig{
			BaseURL: getEnv("API_BASE_URL", "http://localhost:3001"),
			Timeout: getEnvDuration("API_TIMEOUT", 10*time.Second),
		},
		Refresh: RefreshConfig{
			Interval:      getEnvDuration("REFRESH_INTERVAL", 5*time.Minute),
			Tolerance:     getEnvFloat("REFRESH_TOLERANCE", 0.5),
			ForecastHours: getEnvInt("FORECAST_HOURS", 24),
			TrendHours:    getEnvInt("TREND_HOURS", 24),
			MapLimit:      getEnvInt("MAP_DATA_LIMIT", 100),
		},
		Notifications: NotificationsConfig{
			PollInterval: getEnvDuration("NOTIFICATION_POLL_INTERVAL", 30*time.Second),
		},
		Status: StatusConfig{
			Host: getEnv("STATUS_HOST", "localhost"),
			Port: getEnvInt("STATUS_PORT", 8090),
		},
		Session: SessionConfig{
			DBPath: getEnv("SESSION_DB_PATH", "./data/session.db"),
		},
		Telemetry: TelemetryConfig{
			Enabled:  getEnvBool("OTEL_ENABLED", false),
			Endpoint: getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) validate() error {
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL must not be empty")
	}
	if c.Status.Port < 1 || c.Status.Port > 65535 {
		return fmt.Errorf("invalid status port: %d", c.Status.Port)
	}
	if c.Refresh.Interval <= 0 {
		return fmt.Errorf("refresh interval must be positive")
	}
	if c.Notifications.PollInterval <= 0 {
		return fmt.Errorf("notification poll interval must be positive")
	}
	if c.Refresh.MapLimit < 1 {
		return fmt.Errorf("map data limit must be at least 1")
	}
	return nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func getEnvFloat(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
