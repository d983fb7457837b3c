package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
)

const (
	StoragePostgres = "postgres"
	StorageMemory   = "memory"
)

type Config struct {
	Environment string `toml:"environment"`
	Host        string `toml:"host"`
	Port        int    `toml:"port"`

	PrometheusMetricsHost string `toml:"prometheus_metrics_host"`
	PrometheusMetricsPort string `toml:"prometheus_metrics_port"`

	// logging
	LogLevel      string `toml:"log_level"`
	LogsPath      string `toml:"logs_path"`
	LogToStdout   bool   `toml:"log_to_stdout"`
	LogFormatJSON bool   `toml:"log_format_json"`
	SentryEnabled bool   `toml:"sentry_enabled"`

	// storage
	Storage        string `toml:"storage"`
	PostgresHost   string `toml:"postgres_host"`
	PostgresPort   string `toml:"postgres_port"`
	PostgresDBName string `toml:"postgres_db_name"`
	MigrateOnStart bool   `toml:"migrate_on_start"`

	// redis
	RedisHost string `toml:"redis_host"`
	RedisPort string `toml:"redis_port"`

	// sessions
	Timezone              string `toml:"timezone"`
	StreakRule            string `toml:"streak_rule"`
	SameDayPolicy         string `toml:"same_day_policy"`
	SubmitRateLimitPerMin int    `toml:"submit_rate_limit_per_min"`

	ChallengesCsvPath string `toml:"challenges_csv_path"`
}

// Location resolves the configured timezone, used to decide the user's calendar day.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.UTC, nil
	}
	return time.LoadLocation(c.Timezone)
}

func (c *Config) Validate() error {
	switch c.Storage {
	case StoragePostgres, StorageMemory:
	default:
		return fmt.Errorf("unknown storage: [%s]", c.Storage)
	}

	switch c.StreakRule {
	case "calendar", "24h":
	default:
		return fmt.Errorf("unknown streak rule: [%s]", c.StreakRule)
	}

	switch c.SameDayPolicy {
	case "restart", "reject":
	default:
		return fmt.Errorf("unknown same day policy: [%s]", c.SameDayPolicy)
	}

	if _, err := c.Location(); err != nil {
		return fmt.Errorf("load timezone: %w", err)
	}

	return nil
}

func (c *Config) applyDefaults() {
	if c.Storage == "" {
		c.Storage = StoragePostgres
	}
	if c.StreakRule == "" {
		c.StreakRule = "calendar"
	}
	if c.SameDayPolicy == "" {
		c.SameDayPolicy = "restart"
	}
	if c.SubmitRateLimitPerMin <= 0 {
		c.SubmitRateLimitPerMin = 30
	}
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

func Load(env, configPath string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.DecodeFile(configPath, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config file [%s]: %w", configPath, err)
	}
	return fromToml(&tomlConfig, env)
}

func LoadFromString(env, tomlContent string) (*Config, error) {
	var tomlConfig Toml
	if _, err := toml.Decode(tomlContent, &tomlConfig); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	return fromToml(&tomlConfig, env)
}

func fromToml(tomlConfig *Toml, env string) (*Config, error) {
	cfg, err := tomlConfig.Get(env)
	if err != nil {
		return nil, err
	}
	if cfg == nil {
		return nil, fmt.Errorf("config section for env [%s] missing", env)
	}

	cfg.applyDefaults()
	if cfg.Environment == "" {
		cfg.Environment = strings.ToLower(env)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}
