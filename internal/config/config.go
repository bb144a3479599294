// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for the SQLite databases, always absolute
	PricesCSV    string // Path to the joint price table CSV
	HoldingsCSV  string // Path to the holdings metadata CSV
	EODHDAPIKey  string // Optional EODHD token for fetching prices
	LogLevel     string
	LogPretty    bool
	Port         int
	NumTrials    int
	RiskFreeRate float64
	Freq         int
	Seed         int64 // Monte Carlo seed; 0 means a fresh seed per run
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	dataDir := getEnv("QUANTFOLIO_DATA_DIR", "")
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
		DataDir:      absDataDir,
		PricesCSV:    getEnv("QUANTFOLIO_PRICES_CSV", ""),
		HoldingsCSV:  getEnv("QUANTFOLIO_HOLDINGS_CSV", ""),
		EODHDAPIKey:  getEnv("EODHD_API_KEY", ""),
		LogLevel:     getEnv("LOG_LEVEL", "info"),
		LogPretty:    getEnvAsBool("LOG_PRETTY", true),
		Port:         getEnvAsInt("QUANTFOLIO_PORT", 8080),
		NumTrials:    getEnvAsInt("QUANTFOLIO_NUM_TRIALS", 10000),
		RiskFreeRate: getEnvAsFloat("QUANTFOLIO_RISK_FREE_RATE", 0.005),
		Freq:         getEnvAsInt("QUANTFOLIO_FREQ", 252),
		Seed:         int64(getEnvAsInt("QUANTFOLIO_SEED", 0)),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// PricesDBPath returns the path of the price history database.
func (c *Config) PricesDBPath() string {
	return filepath.Join(c.DataDir, "prices.db")
}

// RunsDBPath returns the path of the optimization run database.
func (c *Config) RunsDBPath() string {
	return filepath.Join(c.DataDir, "runs.db")
}

// Validate checks if required configuration is present
func (c *Config) Validate() error {
	if c.NumTrials <= 0 {
		return fmt.Errorf("QUANTFOLIO_NUM_TRIALS must be positive, got %d", c.NumTrials)
	}
	if c.Freq <= 0 {
		return fmt.Errorf("QUANTFOLIO_FREQ must be positive, got %d", c.Freq)
	}
	return nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
