package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"

	"github.com/LeLongFintech/GULLIVER/internal/dataset"
)

// Config is the complete application configuration. Values come from
// environment variables with the GLV prefix, optionally overlaid on a
// YAML file.
type Config struct {
	Server  ServerConfig  `yaml:"server" envconfig:"SERVER"`
	Logging LoggingConfig `yaml:"logging" envconfig:"LOGGING"`
	Data    DataConfig    `yaml:"data" envconfig:"DATA"`
	Risk    RiskConfig    `yaml:"risk" envconfig:"RISK"`
}

// ServerConfig contains HTTP server configuration.
type ServerConfig struct {
	Port            int           `yaml:"port" envconfig:"PORT" default:"8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" envconfig:"READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" envconfig:"WRITE_TIMEOUT" default:"15s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" envconfig:"IDLE_TIMEOUT" default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" envconfig:"SHUTDOWN_TIMEOUT" default:"30s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" envconfig:"ALLOWED_ORIGINS" default:"*"`
}

// LoggingConfig contains logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level" envconfig:"LEVEL" default:"info"`
	Format string `yaml:"format" envconfig:"FORMAT" default:"json"`
}

// DataConfig locates the input files.
type DataConfig struct {
	Dir        string `yaml:"dir" envconfig:"DIR" default:"data"`
	PricesFile string `yaml:"prices_file" envconfig:"PRICES_FILE" default:"OHLCV_Merge.csv"`
	SharesFile string `yaml:"shares_file" envconfig:"SHARES_FILE" default:"Share_outstanding.csv"`
}

// RiskConfig tunes the scoring engine.
type RiskConfig struct {
	// TrainCutoff is the ISO date separating training history from the
	// live scoring period.
	TrainCutoff      string  `yaml:"train_cutoff" envconfig:"TRAIN_CUTOFF" default:"2024-01-01"`
	UniverseQuantile float64 `yaml:"universe_quantile" envconfig:"UNIVERSE_QUANTILE" default:"0.7"`
	Trees            int     `yaml:"trees" envconfig:"TREES" default:"400"`
	LeafSize         int     `yaml:"leaf_size" envconfig:"LEAF_SIZE" default:"3"`
	AlertThreshold   float64 `yaml:"alert_threshold" envconfig:"ALERT_THRESHOLD" default:"8.0"`
}

// Load builds the configuration from the environment and, when present,
// a config.yaml overlay, then validates it.
func Load() (*Config, error) {
	var cfg Config

	if path := configFilePath(); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}

	// Environment wins over the file.
	if err := envconfig.Process("GLV", &cfg); err != nil {
		return nil, fmt.Errorf("load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}
	return &cfg, nil
}

// Validate checks the configuration for structural problems.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Server.ReadTimeout <= 0 || c.Server.WriteTimeout <= 0 {
		return fmt.Errorf("server timeouts must be positive")
	}
	if _, err := c.TrainCutoff(); err != nil {
		return err
	}
	if c.Risk.UniverseQuantile <= 0 || c.Risk.UniverseQuantile >= 1 {
		return fmt.Errorf("universe quantile must be in (0, 1): %g", c.Risk.UniverseQuantile)
	}
	if c.Risk.Trees <= 0 {
		return fmt.Errorf("tree count must be positive: %d", c.Risk.Trees)
	}
	if c.Risk.AlertThreshold < 0 || c.Risk.AlertThreshold > 10 {
		return fmt.Errorf("alert threshold must be in [0, 10]: %g", c.Risk.AlertThreshold)
	}
	return nil
}

// TrainCutoff parses the configured cutoff date.
func (c *Config) TrainCutoff() (time.Time, error) {
	cutoff, err := dataset.ParseDate(c.Risk.TrainCutoff)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid train cutoff %q: %w", c.Risk.TrainCutoff, err)
	}
	return cutoff, nil
}

// PricesPath returns the resolved price source path.
func (c *Config) PricesPath() string {
	return filepath.Join(c.Data.Dir, c.Data.PricesFile)
}

// SharesPath returns the resolved shares source path.
func (c *Config) SharesPath() string {
	return filepath.Join(c.Data.Dir, c.Data.SharesFile)
}

// Default returns the built-in defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    15 * time.Second,
			IdleTimeout:     60 * time.Second,
			ShutdownTimeout: 30 * time.Second,
			AllowedOrigins:  []string{"*"},
		},
		Logging: LoggingConfig{Level: "info", Format: "json"},
		Data: DataConfig{
			Dir:        "data",
			PricesFile: "OHLCV_Merge.csv",
			SharesFile: "Share_outstanding.csv",
		},
		Risk: RiskConfig{
			TrainCutoff:      "2024-01-01",
			UniverseQuantile: 0.7,
			Trees:            400,
			LeafSize:         3,
			AlertThreshold:   8.0,
		},
	}
}

func configFilePath() string {
	for _, location := range []string{"config.yaml", "configs/config.yaml"} {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}
	return ""
}
