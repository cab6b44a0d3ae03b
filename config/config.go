/*
Package config loads process configuration.

PRIORITY:
  environment (AWARD_ prefix) > config file > defaults

  AWARD_SERVER_PORT=9090        -> server.port
  AWARD_DB_PATH=./data/pay.db   -> db.path
  AWARD_LOG_LEVEL=debug         -> log.level

A .env file, when present, is loaded into the environment by cmd/server
before Load runs.
*/
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"github.com/warp/award-engine/award"
)

// Config is the whole process configuration.
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"db"`
	Log        LogConfig        `mapstructure:"log"`
	Scheduler  SchedulerConfig  `mapstructure:"scheduler"`
	Simulation SimulationConfig `mapstructure:"simulation"`
	Seed       SeedConfig       `mapstructure:"seed"`
}

type ServerConfig struct {
	Port            int           `mapstructure:"port"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	CORS            CORSConfig    `mapstructure:"cors"`
}

type CORSConfig struct {
	AllowOrigins []string `mapstructure:"allow_origins"`
}

// DatabaseConfig points at the SQLite file. ":memory:" keeps everything in process.
type DatabaseConfig struct {
	Path string `mapstructure:"path"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"` // json or console
}

// SchedulerConfig drives periodic reconciliation of salaried staff.
type SchedulerConfig struct {
	Enabled    bool          `mapstructure:"enabled"`
	Interval   time.Duration `mapstructure:"interval"`
	PeriodType string        `mapstructure:"period_type"` // weekly, fortnightly, monthly
	WeekStart  string        `mapstructure:"week_start"`
	Anchor     string        `mapstructure:"anchor"` // YYYY-MM-DD, first day of a fortnight
}

// SimulationConfig bounds the bulk calculation endpoint.
type SimulationConfig struct {
	Workers int `mapstructure:"workers"`
	MaxJobs int `mapstructure:"max_jobs"`
}

// SeedConfig imports catalog presets on startup when the store has no awards.
type SeedConfig struct {
	Presets []string `mapstructure:"presets"`
}

// Load reads configuration from defaults, an optional file and the environment.
// An empty path looks for config.yaml in ./config and the working directory.
func Load(path string) (*Config, error) {
	v := viper.New()

	v.SetDefault("server.port", 8080)
	v.SetDefault("server.read_timeout", "15s")
	v.SetDefault("server.write_timeout", "60s")
	v.SetDefault("server.shutdown_timeout", "30s")
	v.SetDefault("server.cors.allow_origins", []string{"*"})

	v.SetDefault("db.path", "awards.db")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	v.SetDefault("scheduler.enabled", false)
	v.SetDefault("scheduler.interval", "1h")
	v.SetDefault("scheduler.period_type", string(award.PeriodWeekly))
	v.SetDefault("scheduler.week_start", "monday")
	v.SetDefault("scheduler.anchor", "")

	v.SetDefault("simulation.workers", 8)
	v.SetDefault("simulation.max_jobs", 10000)

	v.SetDefault("seed.presets", []string{})

	if path != "" {
		v.SetConfigFile(path)
	} else {
		v.SetConfigName("config")
		v.SetConfigType("yaml")
		v.AddConfigPath("./config")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AWARD")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		// No file: defaults and environment only
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the values the process cannot start without.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid config: server.port must be between 1 and 65535")
	}
	if c.Database.Path == "" {
		return fmt.Errorf("invalid config: db.path is required")
	}
	switch c.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("invalid config: log.format must be json or console, got %q", c.Log.Format)
	}
	if c.Simulation.Workers < 1 {
		return fmt.Errorf("invalid config: simulation.workers must be at least 1")
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			return fmt.Errorf("invalid config: scheduler.interval must be positive")
		}
		if _, err := c.Scheduler.PeriodConfig(); err != nil {
			return err
		}
	}
	return nil
}

var weekdays = map[string]time.Weekday{
	"sunday": time.Sunday, "monday": time.Monday, "tuesday": time.Tuesday,
	"wednesday": time.Wednesday, "thursday": time.Thursday, "friday": time.Friday,
	"saturday": time.Saturday,
}

// PeriodConfig converts the scheduler settings into pay period boundaries.
func (s SchedulerConfig) PeriodConfig() (award.PeriodConfig, error) {
	pc := award.PeriodConfig{Type: award.PeriodType(s.PeriodType)}
	if pc.Type.PeriodsPerYear() == 0 {
		return pc, fmt.Errorf("invalid config: scheduler.period_type %q is not weekly, fortnightly or monthly", s.PeriodType)
	}
	wd, ok := weekdays[strings.ToLower(s.WeekStart)]
	if !ok {
		return pc, fmt.Errorf("invalid config: scheduler.week_start %q is not a weekday", s.WeekStart)
	}
	pc.WeekStart = wd
	if s.Anchor != "" {
		anchor, err := award.ParseDate(s.Anchor)
		if err != nil {
			return pc, fmt.Errorf("invalid config: scheduler.anchor: %w", err)
		}
		pc.Anchor = anchor
	}
	return pc, nil
}
