// Package config provides configuration management functionality: process
// configuration from the environment and run definitions from YAML files.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration.
type Config struct {
	DataDir   string // base directory for input files and the results database
	ResultsDB string // sqlite file for persisted calculation runs
	LogLevel  string
	LogPretty bool
	Workers   int // scenario worker pool size, 0 = number of cores
	DevMode   bool
}

// Load builds the configuration from the environment, .env file included.
func Load() (*Config, error) {
	_ = godotenv.Load()

	dataDir := getEnv("IRRBB_DATA_DIR", "")
	if dataDir == "" {
		dataDir = "./data"
	}
	absDataDir, err := filepath.Abs(dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	if err := os.MkdirAll(absDataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	cfg := &Config{
		DataDir:   absDataDir,
		ResultsDB: getEnv("IRRBB_RESULTS_DB", filepath.Join(absDataDir, "results.db")),
		LogLevel:  getEnv("LOG_LEVEL", "info"),
		LogPretty: getEnvAsBool("LOG_PRETTY", false),
		Workers:   getEnvAsInt("IRRBB_WORKERS", 0),
		DevMode:   getEnvAsBool("DEV_MODE", false),
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks if required configuration is present.
func (c *Config) Validate() error {
	if c.Workers < 0 {
		return fmt.Errorf("IRRBB_WORKERS must be non-negative, got %d", c.Workers)
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}
