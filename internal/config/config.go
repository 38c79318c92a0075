package config

import (
	"os"
	"strconv"

	"gotune/internal/errors"
)

// Config represents the complete application configuration
type Config struct {
	Database DatabaseConfig `validate:"required"`
	Server   ServerConfig   `validate:"required"`
	Filter   FilterConfig
	Sampler  SamplerConfig
	Paths    PathConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	URL           string `validate:"required"`
	MigrationsDir string
}

// ServerConfig holds web server settings
type ServerConfig struct {
	APIPort string `validate:"required"`
	UIPort  string
	GinMode string
}

// FilterConfig holds candidate screening settings
type FilterConfig struct {
	Concurrency int64
}

// SamplerConfig holds defaults for deterministic sampler streams. The seed
// is used by the API for digest requests that carry no explicit seed.
type SamplerConfig struct {
	DefaultSeed int64
}

// PathConfig holds file system paths. ExportDir is where the report UI
// saves a copy of each workbook download; empty disables saving.
type PathConfig struct {
	ExportDir string
}

// Load reads configuration from environment variables and validates it
func Load() (*Config, error) {
	config := &Config{}

	dbConfig, err := loadDatabaseConfig()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load database configuration")
	}
	config.Database = *dbConfig

	config.Server = *loadServerConfig()
	config.Filter = *loadFilterConfig()
	config.Sampler = *loadSamplerConfig()
	config.Paths = *loadPathConfig()

	if err := validateConfig(config); err != nil {
		return nil, errors.Wrap(err, "configuration validation failed")
	}

	return config, nil
}

func loadDatabaseConfig() (*DatabaseConfig, error) {
	url := os.Getenv("DATABASE_URL")
	if url == "" {
		return nil, errors.ConfigInvalid("DATABASE_URL is required")
	}

	return &DatabaseConfig{
		URL:           url,
		MigrationsDir: getEnvOrDefault("MIGRATIONS_DIR", "adapters/postgres/migrations"),
	}, nil
}

func loadServerConfig() *ServerConfig {
	return &ServerConfig{
		APIPort: getEnvOrDefault("PORT", "8080"),
		UIPort:  getEnvOrDefault("UI_PORT", "8081"),
		GinMode: getEnvOrDefault("GIN_MODE", "debug"),
	}
}

func loadFilterConfig() *FilterConfig {
	return &FilterConfig{
		Concurrency: int64(getEnvIntOrDefault("FILTER_CONCURRENCY", 8)),
	}
}

func loadSamplerConfig() *SamplerConfig {
	return &SamplerConfig{
		DefaultSeed: int64(getEnvIntOrDefault("SAMPLER_SEED", 0)),
	}
}

func loadPathConfig() *PathConfig {
	return &PathConfig{
		ExportDir: getEnvOrDefault("EXPORT_DIR", ""),
	}
}

func validateConfig(config *Config) error {
	if config.Database.URL == "" {
		return errors.ConfigInvalid("database URL is required")
	}
	if config.Server.APIPort == "" {
		return errors.ConfigInvalid("API port is required")
	}
	if config.Filter.Concurrency < 1 {
		return errors.ConfigInvalid("filter concurrency must be at least 1")
	}
	return nil
}

// Helper functions for environment variable parsing
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
