package config_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/clearskies/clearskies/internal/config"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"API_BASE_URL", "API_TIMEOUT",
		"REFRESH_INTERVAL", "REFRESH_TOLERANCE", "FORECAST_HOURS", "TREND_HOURS", "MAP_DATA_LIMIT",
		"NOTIFICATION_POLL_INTERVAL",
		"STATUS_HOST", "STATUS_PORT",
		"SESSION_DB_PATH",
		"OTEL_ENABLED", "OTEL_EXPORTER_OTLP_ENDPOINT",
		"LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "http://localhost:3001", cfg.API.BaseURL)
	assert.Equal(t, 10*time.Second, cfg.API.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 0.5, cfg.Refresh.Tolerance)
	assert.Equal(t, 24, cfg.Refresh.ForecastHours)
	assert.Equal(t, 24, cfg.Refresh.TrendHours)
	assert.Equal(t, 100, cfg.Refresh.MapLimit)
	assert.Equal(t, 30*time.Second, cfg.Notifications.PollInterval)
	assert.Equal(t, "localhost", cfg.Status.Host)
	assert.Equal(t, 8090, cfg.Status.Port)
	assert.Equal(t, "./data/session.db", cfg.Session.DBPath)
	assert.False(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "info", cfg.Logging.Level)
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("API_BASE_URL", "https://api.example.com")
	t.Setenv("REFRESH_INTERVAL", "90s")
	t.Setenv("REFRESH_TOLERANCE", "1.25")
	t.Setenv("MAP_DATA_LIMIT", "50")
	t.Setenv("NOTIFICATION_POLL_INTERVAL", "10s")
	t.Setenv("STATUS_PORT", "9000")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "https://api.example.com", cfg.API.BaseURL)
	assert.Equal(t, 90*time.Second, cfg.Refresh.Interval)
	assert.Equal(t, 1.25, cfg.Refresh.Tolerance)
	assert.Equal(t, 50, cfg.Refresh.MapLimit)
	assert.Equal(t, 10*time.Second, cfg.Notifications.PollInterval)
	assert.Equal(t, 9000, cfg.Status.Port)
	assert.True(t, cfg.Telemetry.Enabled)
	assert.Equal(t, "debug", cfg.Logging.Level)
}

func TestLoad_UnparseableValuesFallBack(t *testing.T) {
	clearEnv(t)
	t.Setenv("REFRESH_INTERVAL", "not-a-duration")
	t.Setenv("STATUS_PORT", "not-a-number")
	t.Setenv("OTEL_ENABLED", "maybe")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, 5*time.Minute, cfg.Refresh.Interval)
	assert.Equal(t, 8090, cfg.Status.Port)
	assert.False(t, cfg.Telemetry.Enabled)
}

func TestLoad_Validation(t *testing.T) {
	tests := []struct {
		name  string
		key   string
		value string
	}{
		{"port too low", "STATUS_PORT", "0"},
		{"port too high", "STATUS_PORT", "70000"},
		{"negative refresh interval", "REFRESH_INTERVAL", "-5m"},
		{"negative poll interval", "NOTIFICATION_POLL_INTERVAL", "-10s"},
		{"zero map limit", "MAP_DATA_LIMIT", "0"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clearEnv(t)
			t.Setenv(tt.key, tt.value)

			_, err := config.Load()
			assert.Error(t, err)
		})
	}
}
