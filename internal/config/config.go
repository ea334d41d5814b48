package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		IntervalHours int    `yaml:"interval_hours"`
		Path          string `yaml:"path"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Scheduler struct {
		CheckIntervalMinutes       int `yaml:"check_interval_minutes"`
		AssignmentThresholdMinutes int `yaml:"assignment_threshold_minutes"`
		ConflictBufferMinutes      int `yaml:"conflict_buffer_minutes"`
		DefaultDurationMinutes     int `yaml:"default_duration_minutes"`
	} `yaml:"scheduler"`

	Audit struct {
		Channel          string  `yaml:"channel"`
		PublishRate      float64 `yaml:"publish_rate"`
		PublishBurst     int     `yaml:"publish_burst"`
		RetentionDays    int     `yaml:"retention_days"`
		RulesCacheTTLSec int     `yaml:"rules_cache_ttl_seconds"`
	} `yaml:"audit"`
}

func Load(path string) (*Config, error) {
	if path == "" {
		path = "configs/config.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Support ${ENV_VAR} placeholders in YAML config.
	data = []byte(os.ExpandEnv(string(data)))

	var cfg Config
	if err = yaml.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}

	if cfg.Database.Path == "" {
		cfg.Database.Path = "data/maitred.db"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) CheckInterval() time.Duration {
	if c.Scheduler.CheckIntervalMinutes <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Scheduler.CheckIntervalMinutes) * time.Minute
}

func (c *Config) AssignmentThreshold() time.Duration {
	if c.Scheduler.AssignmentThresholdMinutes <= 0 {
		return 120 * time.Minute
	}
	return time.Duration(c.Scheduler.AssignmentThresholdMinutes) * time.Minute
}

func (c *Config) ConflictBuffer() time.Duration {
	if c.Scheduler.ConflictBufferMinutes <= 0 {
		return 30 * time.Minute
	}
	return time.Duration(c.Scheduler.ConflictBufferMinutes) * time.Minute
}

func (c *Config) DefaultDuration() time.Duration {
	if c.Scheduler.DefaultDurationMinutes <= 0 {
		return 120 * time.Minute
	}
	return time.Duration(c.Scheduler.DefaultDurationMinutes) * time.Minute
}

func (c *Config) AuditRetention() time.Duration {
	if c.Audit.RetentionDays <= 0 {
		return 31 * 24 * time.Hour
	}
	return time.Duration(c.Audit.RetentionDays) * 24 * time.Hour
}

func (c *Config) RulesCacheTTL() time.Duration {
	if c.Audit.RulesCacheTTLSec <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Audit.RulesCacheTTLSec) * time.Second
}
