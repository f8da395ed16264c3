package config

import (
	"fmt"
	"strings"

	"github.com/BurntSushi/toml"
)

type Config struct {
	Environment string
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// postgres
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// prometheus
	PrometheusMetricsHost string `toml:"prom_metrics_host"`
	PrometheusMetricsPort string `toml:"prom_metrics_port"`

	// login
	LoginRateLimitAllowedPerMin int `toml:"login_rate_limit_allowed_per_min"`

	// achievements engine
	AchievementsRevocable bool `toml:"achievements_revocable"`
	// settle delay (milliseconds) between a log/goal mutation and the
	// evaluation pass it triggers, so bursty updates coalesce
	EvalSettleMillis int `toml:"eval_settle_millis"`
	// grace period (seconds) after login during which previously earned
	// badges are not re-announced
	NotifyGraceSeconds int `toml:"notify_grace_seconds"`
	// cool-down window (seconds) within which the same badge transition
	// is not announced twice
	NotifyCooldownSeconds int `toml:"notify_cooldown_seconds"`
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

func Load(env, path string) (*Config, error) {
	var tomlFile Toml
	if _, err := toml.DecodeFile(path, &tomlFile); err != nil {
		return nil, fmt.Errorf("decode toml config file: %w", err)
	}

	cfg, err := tomlFile.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config for env %s is empty", env)
	}

	cfg.Environment = env

	if cfg.EvalSettleMillis <= 0 {
		cfg.EvalSettleMillis = 150
	}
	if cfg.NotifyGraceSeconds <= 0 {
		cfg.NotifyGraceSeconds = 10
	}
	if cfg.NotifyCooldownSeconds <= 0 {
		cfg.NotifyCooldownSeconds = 30
	}
	if cfg.LoginRateLimitAllowedPerMin <= 0 {
		cfg.LoginRateLimitAllowedPerMin = 15
	}

	return cfg, nil
}
