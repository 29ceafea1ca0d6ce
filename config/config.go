// Package config provides configuration loading and validation.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the root host configuration structure.
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Extensions ExtensionsConfig `yaml:"extensions"`
	Recipes    RecipesConfig    `yaml:"recipes"`
	Tenants    []TenantConfig   `yaml:"tenants"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
}

// ServerConfig configures the HTTP admin server.
type ServerConfig struct {
	Host         string        `yaml:"host"`
	Port         int           `yaml:"port"`
	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// ExtensionsConfig configures extension discovery.
type ExtensionsConfig struct {
	// Roots are the directories scanned for extensions at startup.
	Roots []string `yaml:"roots"`
}

// RecipesConfig configures recipe harvesting.
type RecipesConfig struct {
	// Roots are the directories walked for *.recipe.yaml files.
	Roots []string `yaml:"roots"`
}

// TenantConfig declares one tenant known at startup.
type TenantConfig struct {
	Name             string `yaml:"name"`
	DatabaseProvider string `yaml:"database_provider"`
	ConnectionString string `yaml:"connection_string"`
	TablePrefix      string `yaml:"table_prefix"`
	Schema           string `yaml:"schema"`
	RecipeName       string `yaml:"recipe_name"`
	State            string `yaml:"state"`
}

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // "debug", "info", "warn", "error"
	Format string `yaml:"format"` // "json" or "console"
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"` // Enable /metrics endpoint
	Path    string `yaml:"path"`    // Custom path (default: /metrics)
}

// Default returns the configuration defaults.
func Default() *Config {
	return &Config{
		Server: ServerConfig{
			Host:         "0.0.0.0",
			Port:         8080,
			ReadTimeout:  30 * time.Second,
			WriteTimeout: 60 * time.Second,
		},
		Extensions: ExtensionsConfig{
			Roots: []string{"extensions"},
		},
		Recipes: RecipesConfig{
			Roots: []string{"recipes"},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}

// Load reads and validates configuration from a YAML file, applying
// defaults for anything unset.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the configuration for contradictions.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d is out of range", c.Server.Port)
	}

	seen := make(map[string]bool, len(c.Tenants))
	for _, t := range c.Tenants {
		if t.Name == "" {
			return fmt.Errorf("tenant name is required")
		}
		if seen[t.Name] {
			return fmt.Errorf("tenant %q declared twice", t.Name)
		}
		seen[t.Name] = true
	}

	switch c.Logging.Level {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level %q is not valid", c.Logging.Level)
	}

	return nil
}
