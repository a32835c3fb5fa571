package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testConfigToml = `
[development]
environment = "development"
host = "localhost"
port = 9000
cors_allowed_origins = ["http://localhost:3000"]
log_level = "trace"
logs_path = ""
log_to_stdout = true
sentry_enabled = false
redis_host = "localhost"
redis_port = "6379"
stream_relay_enabled = true
prometheus_metrics_host = "localhost"
prometheus_metrics_port = "2112"
jog_api_base_url = "http://localhost:9100/api"
jog_api_timeout_sec = 5
session_ttl_hours = 24
sessions_cleanup_interval_min = 30
login_rate_limit_allowed_per_min = 20
report_cache_size_mb = 4
report_cache_ttl_sec = 300

[production]
environment = "production"
host = "0.0.0.0"
port = 9000
log_level = "info"
redis_host = "redis"
redis_port = "6379"
prometheus_metrics_host = "0.0.0.0"
prometheus_metrics_port = "2112"
jog_api_base_url = "https://jogtracker.herokuapp.com/api"
jog_api_timeout_sec = 10
session_ttl_hours = 0
sessions_cleanup_interval_min = 60
login_rate_limit_allowed_per_min = 5
report_cache_size_mb = 16
report_cache_ttl_sec = 600
`

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func validConfig() *Config {
	return &Config{
		Environment:                 "development",
		Host:                        "localhost",
		Port:                        9000,
		LogLevel:                    "debug",
		RedisHost:                   "localhost",
		RedisPort:                   "6379",
		PrometheusMetricsHost:       "localhost",
		PrometheusMetricsPort:       "2112",
		JogAPIBaseURL:               "https://jogtracker.herokuapp.com/api",
		JogAPITimeoutSec:            10,
		SessionTTLHours:             24,
		SessionsCleanupIntervalMin:  60,
		LoginRateLimitAllowedPerMin: 5,
		ReportCacheSizeMB:           8,
		ReportCacheTTLSec:           300,
	}
}

func TestLoad(t *testing.T) {
	path := writeConfig(t, testConfigToml)

	for _, env := range []string{"dev", "development", "DEV"} {
		cfg, err := Load(env, path)
		require.NoError(t, err, env)
		assert.Equal(t, "localhost", cfg.Host)
		assert.Equal(t, 9000, cfg.Port)
		assert.Equal(t, []string{"http://localhost:3000"}, cfg.CorsAllowedOrigins)
		assert.Equal(t, "trace", cfg.LogLevel)
		assert.True(t, cfg.LogToStdout)
		assert.True(t, cfg.StreamRelayEnabled)
		assert.Equal(t, "http://localhost:9100/api", cfg.JogAPIBaseURL)
		assert.Equal(t, 5*time.Second, cfg.JogAPITimeout())
		assert.Equal(t, 24*time.Hour, cfg.SessionTTL())
		assert.Equal(t, 30*time.Minute, cfg.SessionsCleanupInterval())
	}
}

func TestLoad_InvalidEnvConfig(t *testing.T) {
	path := writeConfig(t, testConfigToml)

	// production has a zero session ttl
	cfg, err := Load("production", path)
	require.Error(t, err)
	assert.Nil(t, cfg)
}

func TestLoad_Errors(t *testing.T) {
	path := writeConfig(t, testConfigToml)

	_, err := Load("staging", path)
	assert.EqualError(t, err, "unknown env: staging")

	_, err = Load("dev", filepath.Join(t.TempDir(), "missing.toml"))
	assert.Error(t, err)

	_, err = Load("dev", writeConfig(t, "this is = not [toml"))
	assert.Error(t, err)

	_, err = Load("prod", writeConfig(t, "[development]\nport = 9000\n"))
	assert.ErrorIs(t, err, ErrMissingEnvConfig)
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate(validConfig()))

	tests := map[string]func(c *Config){
		"empty host":          func(c *Config) { c.Host = "" },
		"zero port":           func(c *Config) { c.Port = 0 },
		"port too big":        func(c *Config) { c.Port = 70000 },
		"unknown environment": func(c *Config) { c.Environment = "staging" },
		"bad log level":       func(c *Config) { c.LogLevel = "verbose" },
		"relative api url":    func(c *Config) { c.JogAPIBaseURL = "/api" },
		"zero api timeout":    func(c *Config) { c.JogAPITimeoutSec = 0 },
		"bad redis port":      func(c *Config) { c.RedisPort = "redis" },
		"zero cache size":     func(c *Config) { c.ReportCacheSizeMB = 0 },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			c := validConfig()
			mutate(c)
			assert.Error(t, Validate(c))
		})
	}
}
