// Package config provides centralized configuration management.
//
// Configuration can be loaded from:
//  1. YAML file (config.yaml) or TOML file (config.toml), chosen by extension
//  2. Environment variables (fallback)
//
// Example usage:
//
//	cfg := config.LoadOrEnv()
//	engineCfg, err := cfg.Reconcile()
//	dbPath := cfg.Storage.DatabasePath
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// Config represents the entire application configuration
type Config struct {
	Engine        EngineConfig        `yaml:"engine" toml:"engine"`
	Datasets      DatasetsConfig      `yaml:"datasets" toml:"datasets"`
	Labels        LabelsConfig        `yaml:"labels" toml:"labels"`
	Categories    CategoriesConfig    `yaml:"categories" toml:"categories"`
	Storage       StorageConfig       `yaml:"storage" toml:"storage"`
	API           APIConfig           `yaml:"api" toml:"api"`
	Observability ObservabilityConfig `yaml:"observability" toml:"observability"`
}

// EngineConfig holds matching engine settings
type EngineConfig struct {
	MaxRows         int    `yaml:"max_rows" toml:"max_rows"`
	AmountTolerance string `yaml:"amount_tolerance" toml:"amount_tolerance"` // decimal string, e.g. "0.01"
	Timezone        string `yaml:"timezone" toml:"timezone"`
	Parallel        *bool  `yaml:"parallel" toml:"parallel"`
}

// DatasetsConfig holds per-dataset column resolution
type DatasetsConfig struct {
	Hub   DatasetConfig `yaml:"hub" toml:"hub"`
	Sales DatasetConfig `yaml:"sales" toml:"sales"`
}

// DatasetConfig describes how to locate columns in one dataset
type DatasetConfig struct {
	HeaderMatch string              `yaml:"header_match" toml:"header_match"` // exact or fold
	Columns     map[string][]string `yaml:"columns" toml:"columns"`           // field -> header aliases
	Required    []string            `yaml:"required" toml:"required"`
}

// LabelsConfig holds counterparty label rules
type LabelsConfig struct {
	StripPrefixes   []string          `yaml:"strip_prefixes" toml:"strip_prefixes"`
	Aliases         map[string]string `yaml:"aliases" toml:"aliases"`
	Known           []string          `yaml:"known" toml:"known"`
	GenericHolder   string            `yaml:"generic_holder" toml:"generic_holder"`
	GenericVariants []string          `yaml:"generic_variants" toml:"generic_variants"`
}

// CategoriesConfig holds category bucketing rules
type CategoriesConfig struct {
	Defaults []string       `yaml:"defaults" toml:"defaults"`
	Rules    []CategoryRule `yaml:"rules" toml:"rules"`
	Exclude  []string       `yaml:"exclude" toml:"exclude"`
	Fallback string         `yaml:"fallback" toml:"fallback"`
}

// CategoryRule maps any source containing Contains to Category
type CategoryRule struct {
	Contains string `yaml:"contains" toml:"contains"`
	Category string `yaml:"category" toml:"category"`
}

// StorageConfig holds database configuration
type StorageConfig struct {
	DatabasePath string `yaml:"database_path" toml:"database_path"`
}

// APIConfig holds HTTP server settings
type APIConfig struct {
	Port           int      `yaml:"port" toml:"port"`
	MaxUploadMB    int      `yaml:"max_upload_mb" toml:"max_upload_mb"`
	AllowedOrigins []string `yaml:"allowed_origins" toml:"allowed_origins"`
}

// ObservabilityConfig holds observability settings
type ObservabilityConfig struct {
	Logging LoggingConfig `yaml:"logging" toml:"logging"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `yaml:"level" toml:"level"`
	Format string `yaml:"format" toml:"format"` // text or json
}

const (
	defaultDatabasePath = "recon.db"
	defaultPort         = 8085
	defaultMaxUploadMB  = 20
)

// Load reads and parses the config file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	// Expand environment variables (e.g., ${RECON_DB_PATH})
	expanded := os.ExpandEnv(string(data))

	var cfg Config
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		if err := toml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	default:
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	}

	cfg.applyDefaults()
	return &cfg, nil
}

// LoadFromEnv loads configuration from environment variables only
func LoadFromEnv() *Config {
	cfg := Default()
	cfg.Storage.DatabasePath = getEnv("RECON_DB_PATH", defaultDatabasePath)
	cfg.Engine.MaxRows = getEnvInt("RECON_MAX_ROWS", cfg.Engine.MaxRows)
	cfg.API.Port = getEnvInt("RECON_PORT", defaultPort)
	cfg.Observability.Logging = LoggingConfig{
		Level:  getEnv("LOG_LEVEL", "info"),
		Format: getEnv("LOG_FORMAT", "text"),
	}
	return cfg
}

// LoadOrEnv tries to load from config.yaml, falls back to environment variables
func LoadOrEnv() *Config {
	return LoadOrEnv_WithPath("config.yaml")
}

// LoadOrEnv_WithPath tries to load from specified path, falls back to environment variables
func LoadOrEnv_WithPath(path string) *Config {
	if cfg, err := Load(path); err == nil {
		return cfg
	}
	return LoadFromEnv()
}

// applyDefaults fills operational settings a file left out. Engine sections
// are resolved lazily by Reconcile.
func (c *Config) applyDefaults() {
	if c.Storage.DatabasePath == "" {
		c.Storage.DatabasePath = defaultDatabasePath
	}
	if c.API.Port == 0 {
		c.API.Port = defaultPort
	}
	if c.API.MaxUploadMB == 0 {
		c.API.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Observability.Logging.Level == "" {
		c.Observability.Logging.Level = "info"
	}
	if c.Observability.Logging.Format == "" {
		c.Observability.Logging.Format = "text"
	}
}

// getEnv retrieves an environment variable with a fallback default
func getEnv(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}

// getEnvInt retrieves an integer environment variable with a fallback default
func getEnvInt(key string, fallback int) int {
	if val := os.Getenv(key); val != "" {
		var result int
		if _, err := fmt.Sscanf(val, "%d", &result); err == nil {
			return result
		}
	}
	return fallback
}
