// Package config loads the application configuration from a YAML file
// and applies environment variable overrides on top.
package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/hoopsight/lineup-optimizer/pkg/dataset"
	"github.com/hoopsight/lineup-optimizer/pkg/models"
)

// Config is the top-level application configuration.
type Config struct {
	Server    ServerConfig          `yaml:"server"`
	Store     StoreConfig           `yaml:"store"`
	Data      DataConfig            `yaml:"data"`
	Recommend RecommendConfig       `yaml:"recommend"`
	Training  dataset.TrainerConfig `yaml:"training"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host           string `yaml:"host"`
	Port           int    `yaml:"port"`
	ReadTimeout    int    `yaml:"read_timeout"`    // seconds
	WriteTimeout   int    `yaml:"write_timeout"`   // seconds
	ReloadSchedule string `yaml:"reload_schedule"` // cron spec; empty disables periodic bundle reload
}

// StoreConfig holds the model bundle store settings.
type StoreConfig struct {
	Path string `yaml:"path"` // SQLite database file
}

// DataConfig holds training data locations.
type DataConfig struct {
	Dir                 string `yaml:"dir"`        // directory of matchup CSVs
	FirstYear           int    `yaml:"first_year"` // inclusive season range
	LastYear            int    `yaml:"last_year"`
	AllowedFeaturesPath string `yaml:"allowed_features_path"` // optional allow-list file
}

// RecommendConfig holds inference-time settings.
type RecommendConfig struct {
	TopK    int                  `yaml:"top_k"`
	Weights models.SignalWeights `yaml:"weights"`
}

// Default returns the configuration used when no file is provided.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30,
			WriteTimeout: 30,
		},
		Store: StoreConfig{
			Path: "./data/bundles.db",
		},
		Data: DataConfig{
			Dir:       "./data/matchups",
			FirstYear: 2007,
			LastYear:  2015,
		},
		Recommend: RecommendConfig{
			TopK:    5,
			Weights: models.DefaultSignalWeights(),
		},
		Training: dataset.DefaultTrainerConfig(),
	}
}

// Load reads the YAML file at path when it is non-empty, merges it over
// the defaults, applies environment overrides, and validates the
// result. An empty path yields the defaults plus environment overrides.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	cfg.applyEnvironment()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyEnvironment overrides file settings from environment variables.
func (c *Config) applyEnvironment() {
	c.Server.Host = getEnv("LINEUP_HOST", c.Server.Host)
	c.Server.Port = getEnvAsInt("LINEUP_PORT", c.Server.Port)
	c.Server.ReloadSchedule = getEnv("LINEUP_RELOAD_SCHEDULE", c.Server.ReloadSchedule)
	c.Store.Path = getEnv("LINEUP_STORE_PATH", c.Store.Path)
	c.Data.Dir = getEnv("LINEUP_DATA_DIR", c.Data.Dir)
	c.Recommend.TopK = getEnvAsInt("LINEUP_TOP_K", c.Recommend.TopK)
}

// Validate rejects settings the rest of the system cannot run with.
func (c *Config) Validate() error {
	if c.Server.Port < 1 || c.Server.Port > 65535 {
		return fmt.Errorf("invalid server port: %d", c.Server.Port)
	}
	if c.Store.Path == "" {
		return fmt.Errorf("store path is required")
	}
	if c.Recommend.TopK <= 0 {
		return fmt.Errorf("top_k must be positive, got %d", c.Recommend.TopK)
	}
	w := c.Recommend.Weights
	if w.Regression < 0 || w.Likelihood < 0 || w.Pattern < 0 || w.Cluster < 0 {
		return fmt.Errorf("signal weights must be non-negative")
	}
	if w.Sum() <= 0 {
		return fmt.Errorf("signal weights must not all be zero")
	}
	if c.Data.FirstYear > c.Data.LastYear {
		return fmt.Errorf("first_year %d is after last_year %d", c.Data.FirstYear, c.Data.LastYear)
	}
	return nil
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}
	value, err := strconv.Atoi(valueStr)
	if err != nil {
		return defaultValue
	}
	return value
}
