package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration
type Config struct {
	Store          StoreConfig          `yaml:"store"`
	Server         ServerConfig         `yaml:"server"`
	ConnectionTest ConnectionTestConfig `yaml:"connection_test"`
	LogLevel       string               `yaml:"log_level,omitempty"`
}

// StoreConfig represents the configuration store settings
type StoreConfig struct {
	Provider         string            `yaml:"provider"` // mongodb, sqlite
	URI              string            `yaml:"uri"`
	Database         string            `yaml:"database"`
	Collection       string            `yaml:"collection"`
	AllowNoopUpdates bool              `yaml:"allow_noop_updates,omitempty"`
	Options          map[string]string `yaml:"options,omitempty"`
}

// ServerConfig represents the HTTP server settings
type ServerConfig struct {
	Host       string `yaml:"host"`
	Port       string `yaml:"port"`
	CORSOrigin string `yaml:"cors_origin,omitempty"`
}

// ConnectionTestConfig limits how often /test_db_connection may be called.
// A RateLimit of zero disables the limiter.
type ConnectionTestConfig struct {
	RateLimit float64 `yaml:"rate_limit"` // requests per second
	Burst     int     `yaml:"burst"`
}

// DefaultConfig returns a default configuration
func DefaultConfig() *Config {
	return &Config{
		Store: StoreConfig{
			Provider:   "mongodb",
			URI:        "mongodb://localhost:27017",
			Database:   "tafsiri",
			Collection: "configs",
		},
		Server: ServerConfig{
			Host:       "0.0.0.0",
			Port:       "8000",
			CORSOrigin: "*",
		},
		ConnectionTest: ConnectionTestConfig{
			RateLimit: 1,
			Burst:     5,
		},
		LogLevel: "INFO",
	}
}

// Load loads configuration from file. Keys missing from the file keep
// their default values.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := DefaultConfig()
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config file: %w", err)
	}

	return config, nil
}

// Validate checks the configuration for missing or unsupported values
func (c *Config) Validate() error {
	switch c.Store.Provider {
	case "mongodb":
		if c.Store.Database == "" {
			return fmt.Errorf("store.database is required for mongodb")
		}
	case "sqlite":
	default:
		return fmt.Errorf("unsupported store provider: %q (use mongodb or sqlite)", c.Store.Provider)
	}
	if c.Store.URI == "" {
		return fmt.Errorf("store.uri is required")
	}
	if c.Store.Collection == "" {
		return fmt.Errorf("store.collection is required")
	}
	if c.ConnectionTest.RateLimit < 0 {
		return fmt.Errorf("connection_test.rate_limit must not be negative")
	}
	if c.ConnectionTest.RateLimit > 0 && c.ConnectionTest.Burst < 1 {
		return fmt.Errorf("connection_test.burst must be at least 1 when rate_limit is set")
	}
	return nil
}

// Save saves configuration to file
func (c *Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// the file may hold store credentials
	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// GetConfigPath returns the default config file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".tafsiri/config.yaml"
	}
	return filepath.Join(home, ".tafsiri", "config.yaml")
}

// ResolvePath picks the config file path: an explicit flag value, then
// TAFSIRI_CONFIG_PATH, then the default location
func ResolvePath(flagValue string) string {
	if flagValue != "" {
		return flagValue
	}
	if envPath := os.Getenv("TAFSIRI_CONFIG_PATH"); envPath != "" {
		return envPath
	}
	return GetConfigPath()
}

// Exists checks if config file exists
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
