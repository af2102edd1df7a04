package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// Config holds the full application configuration.
type Config struct {
	Service    ServiceConfig    `koanf:"service"`
	Database   DatabaseConfig   `koanf:"database"`
	Logger     LoggerConfig     `koanf:"logger"`
	Auth       AuthConfig       `koanf:"auth"`
	Mail       MailConfig       `koanf:"mail"`
	Pagination PaginationConfig `koanf:"pagination"`
	Metrics    MetricsConfig    `koanf:"metrics"`
}

// ServiceConfig contains service metadata.
type ServiceConfig struct {
	Name        string `koanf:"name"`
	Version     string `koanf:"version"`
	Environment string `koanf:"environment"` // dev, staging, production
	Port        int    `koanf:"port"`
}

// DatabaseConfig contains database connection settings.
type DatabaseConfig struct {
	Host            string        `koanf:"host"`
	Port            int           `koanf:"port"`
	User            string        `koanf:"user"`
	Password        string        `koanf:"password"`
	Database        string        `koanf:"database"`
	SSLMode         string        `koanf:"ssl_mode"`
	MaxConnections  int           `koanf:"max_connections"`
	MinConnections  int           `koanf:"min_connections"`
	MaxConnLifetime time.Duration `koanf:"max_conn_lifetime"`
	MaxConnIdleTime time.Duration `koanf:"max_conn_idle_time"`
}

// LoggerConfig contains logging configuration.
type LoggerConfig struct {
	Level       string `koanf:"level"`  // debug, info, warn, error
	Format      string `koanf:"format"` // json, console
	Development bool   `koanf:"development"`
}

// AuthConfig contains authentication and authorization configuration.
type AuthConfig struct {
	JWTSecret           string        `koanf:"jwt_secret"`
	AccessTokenDuration time.Duration `koanf:"access_token_duration"`
	RBACType            string        `koanf:"rbac_type"` // "builtin" or "casbin"
}

// MailConfig contains SMTP settings for confirmation-code delivery.
type MailConfig struct {
	Host        string        `koanf:"host"`
	Port        int           `koanf:"port"`
	Username    string        `koanf:"username"`
	Password    string        `koanf:"password"`
	FromAddress string        `koanf:"from_address"`
	Timeout     time.Duration `koanf:"timeout"`
	// Disabled switches the mailer to a no-op that only logs codes;
	// useful for local development.
	Disabled bool `koanf:"disabled"`
}

// PaginationConfig contains pagination configuration.
type PaginationConfig struct {
	CursorEncryptionKey string `koanf:"cursor_encryption_key"`
	MaxPageSize         int    `koanf:"max_page_size"`
	DefaultPageSize     int    `koanf:"default_page_size"`
}

// MetricsConfig contains metrics configuration.
type MetricsConfig struct {
	Enabled bool   `koanf:"enabled"`
	Path    string `koanf:"path"`
}

// envPrefix is the prefix for environment variable overrides,
// e.g. TESSERA_DATABASE_HOST maps to database.host.
const envPrefix = "TESSERA_"

// Load loads configuration from defaults, an optional config file, and
// environment variables, in that order of precedence.
func Load() (*Config, error) {
	k := koanf.New(".")

	cfg := Defaults()
	if err := k.Load(structs.Provider(cfg, "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	for _, path := range configPaths() {
		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
		}
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config from %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider(envPrefix, ".", func(s string) string {
		return strings.ToLower(strings.ReplaceAll(strings.TrimPrefix(s, envPrefix), "_", "."))
	}), nil); err != nil {
		return nil, fmt.Errorf("failed to load from environment: %w", err)
	}

	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// configPaths returns the config paths to check, most specific last.
func configPaths() []string {
	paths := []string{
		"config.yaml",
		"configs/config.yaml",
		fmt.Sprintf("configs/config.%s.yaml", Environment()),
	}

	if configPath := os.Getenv("CONFIG_PATH"); configPath != "" {
		paths = append(paths, configPath)
	}

	return paths
}

// Environment returns the current environment.
func Environment() string {
	if env := os.Getenv("ENVIRONMENT"); env != "" {
		return env
	}
	return "dev"
}

// IsProduction reports whether the service runs in production.
func (c *Config) IsProduction() bool {
	return c.Service.Environment == "production"
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.Service.Name == "" {
		return errors.New("service name is required")
	}
	if c.Service.Port <= 0 || c.Service.Port > 65535 {
		return fmt.Errorf("invalid service port: %d", c.Service.Port)
	}
	if c.Database.Host == "" {
		return errors.New("database host is required")
	}
	if c.Database.Port <= 0 || c.Database.Port > 65535 {
		return fmt.Errorf("invalid database port: %d", c.Database.Port)
	}
	if c.Auth.AccessTokenDuration < time.Minute {
		return errors.New("access token duration must be at least 1 minute")
	}
	if c.Pagination.DefaultPageSize <= 0 || c.Pagination.DefaultPageSize > c.Pagination.MaxPageSize {
		return fmt.Errorf("invalid default page size: %d", c.Pagination.DefaultPageSize)
	}
	return nil
}

// Defaults returns default configuration values.
func Defaults() *Config {
	return &Config{
		Service: ServiceConfig{
			Name:        "tessera",
			Version:     "dev",
			Environment: "dev",
			Port:        8080,
		},
		Database: DatabaseConfig{
			Host:            "localhost",
			Port:            5432,
			User:            "tessera",
			Password:        "tessera_dev",
			Database:        "tessera_dev",
			SSLMode:         "disable",
			MaxConnections:  25,
			MinConnections:  5,
			MaxConnLifetime: time.Hour,
			MaxConnIdleTime: 30 * time.Minute,
		},
		Logger: LoggerConfig{
			Level:       "info",
			Format:      "json",
			Development: false,
		},
		Auth: AuthConfig{
			JWTSecret:           "", // Must be set via env or config in production
			AccessTokenDuration: 24 * time.Hour,
			RBACType:            "builtin",
		},
		Mail: MailConfig{
			Host:        "localhost",
			Port:        25,
			FromAddress: "noreply@tessera.local",
			Timeout:     30 * time.Second,
			Disabled:    true,
		},
		Pagination: PaginationConfig{
			CursorEncryptionKey: "", // Generated at startup when empty
			MaxPageSize:         100,
			DefaultPageSize:     20,
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
	}
}
