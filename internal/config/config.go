package config

import (
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Server struct {
		APIPort int    `yaml:"api_port"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"server"`

	Database struct {
		Path string `yaml:"path"`
	} `yaml:"database"`

	Redis struct {
		Address  string `yaml:"address"`
		Password string `yaml:"password"`
		DB       int    `yaml:"db"`
	} `yaml:"redis"`

	Cache struct {
		Prefix               string `yaml:"prefix"`
		DefaultTTLSeconds    int    `yaml:"default_ttl_seconds"`
		SweepIntervalSeconds int    `yaml:"sweep_interval_seconds"`
		MaxEntries           int    `yaml:"max_entries"`
		MaxBytes             int    `yaml:"max_bytes"`
	} `yaml:"cache"`

	Backend struct {
		Enabled bool   `yaml:"enabled"`
		BaseURL string `yaml:"base_url"`
		APIKey  string `yaml:"api_key"`
	} `yaml:"backend"`

	Monitoring struct {
		HealthCheckPort   int  `yaml:"health_check_port"`
		PrometheusEnabled bool `yaml:"prometheus_enabled"`
		PrometheusPort    int  `yaml:"prometheus_port"`
	} `yaml:"monitoring"`

	Export struct {
		Path string `yaml:"path"`
	} `yaml:"export"`

	Backup struct {
		Enabled       bool   `yaml:"enabled"`
		StoragePath   string `yaml:"storage_path"`
		IntervalHours int    `yaml:"interval_hours"`
		RetentionDays int    `yaml:"retention_days"`
	} `yaml:"backup"`
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
		cfg.Database.Path = "data/pontual.db"
	}
	if cfg.Cache.Prefix == "" {
		cfg.Cache.Prefix = "pontual_"
	}
	if cfg.Server.APIPort == 0 {
		cfg.Server.APIPort = 8080
	}
	if cfg.Export.Path == "" {
		cfg.Export.Path = "exports"
	}

	if err = os.MkdirAll(filepath.Dir(cfg.Database.Path), 0o755); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) CacheTTL() time.Duration {
	if c.Cache.DefaultTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.Cache.DefaultTTLSeconds) * time.Second
}

func (c *Config) BackupInterval() time.Duration {
	if c.Backup.IntervalHours <= 0 {
		return 24 * time.Hour
	}
	return time.Duration(c.Backup.IntervalHours) * time.Hour
}

func (c *Config) SweepInterval() time.Duration {
	if c.Cache.SweepIntervalSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.Cache.SweepIntervalSeconds) * time.Second
}
