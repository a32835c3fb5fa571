package config

import (
	"fmt"
	"strings"
	"time"
)

type Config struct {
	Environment string `toml:"environment" validate:"required|in:development,production"`
	Host        string `toml:"host" validate:"required"`
	Port        int    `toml:"port" validate:"required|int|min:1|max:65535"`
	// browser origins allowed next to the built in ones
	CorsAllowedOrigins []string `toml:"cors_allowed_origins"`

	// logging
	LogLevel      string `toml:"log_level" validate:"required|in:trace,debug,info,warn,error,fatal"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// redis keeps login sessions, rate limit counters and relays stream updates
	RedisHost          string `toml:"redis_host" validate:"required"`
	RedisPort          string `toml:"redis_port" validate:"required|isNumber"`
	StreamRelayEnabled bool   `toml:"stream_relay_enabled"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host" validate:"required"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port" validate:"required|isNumber"`

	// remote jog tracker api
	JogAPIBaseURL    string `toml:"jog_api_base_url" validate:"required|fullUrl"`
	JogAPITimeoutSec int    `toml:"jog_api_timeout_sec" validate:"required|int|min:1"`

	SessionTTLHours             int `toml:"session_ttl_hours" validate:"required|int|min:1"`
	SessionsCleanupIntervalMin  int `toml:"sessions_cleanup_interval_min" validate:"required|int|min:1"`
	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min" validate:"required|int|min:1"`

	ReportCacheSizeMB int `toml:"report_cache_size_mb" validate:"required|int|min:1"`
	ReportCacheTTLSec int `toml:"report_cache_ttl_sec" validate:"required|int|min:1"`
}

func (c *Config) JogAPITimeout() time.Duration {
	return time.Duration(c.JogAPITimeoutSec) * time.Second
}

func (c *Config) SessionTTL() time.Duration {
	return time.Duration(c.SessionTTLHours) * time.Hour
}

func (c *Config) SessionsCleanupInterval() time.Duration {
	return time.Duration(c.SessionsCleanupIntervalMin) * time.Minute
}

type Toml struct {
	Development *Config
	Production  *Config
}

func (t *Toml) Get(env string) (*Config, error) {
	switch strings.ToLower(env) {
	case "dev", "development":
		return t.Development, nil
	case "prod", "production":
		return t.Production, nil
	default:
		return nil, fmt.Errorf("unknown env: %s", env)
	}
}
