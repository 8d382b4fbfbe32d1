// Package config loads application configuration from environment
// variables, with an optional YAML file for the optimizer grid.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"
)

// Config holds all application configuration.
type Config struct {
	TwelveAPIKey   string        `env:"TWELVE_API_KEY"`
	Symbol         string        `env:"SYMBOL" envDefault:"BTC/USD"`
	Interval       string        `env:"INTERVAL" envDefault:"1h"`
	CandleCount    int           `env:"CANDLE_COUNT" envDefault:"300"`
	LogLevel       string        `env:"LOG_LEVEL" envDefault:"info"`
	RequestTimeout time.Duration `env:"REQUEST_TIMEOUT" envDefault:"30s"`
	RequestsPerSec int           `env:"REQUESTS_PER_SEC" envDefault:"5"`
	BacktestDays   int           `env:"BACKTEST_DAYS" envDefault:"30"`
	CooldownHours  int           `env:"COOLDOWN_HOURS" envDefault:"5"`
	EnableDepth    bool          `env:"ENABLE_DEPTH" envDefault:"false"`
	MetricsAddr    string        `env:"METRICS_ADDR" envDefault:""`
	GridFile       string        `env:"GRID_FILE" envDefault:""`
}

// Load initializes configuration from environment variables. A .env
// file in the working directory is read first if present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Warn().Msg(".env file not found, relying on actual environment variables")
	}

	cfg := &Config{
		TwelveAPIKey:   os.Getenv("TWELVE_API_KEY"),
		Symbol:         getEnvWithDefault("SYMBOL", "BTC/USD"),
		Interval:       getEnvWithDefault("INTERVAL", "1h"),
		CandleCount:    getEnvIntWithDefault("CANDLE_COUNT", 300),
		LogLevel:       getEnvWithDefault("LOG_LEVEL", "info"),
		RequestTimeout: getEnvDurationWithDefault("REQUEST_TIMEOUT", 30*time.Second),
		RequestsPerSec: getEnvIntWithDefault("REQUESTS_PER_SEC", 5),
		BacktestDays:   getEnvIntWithDefault("BACKTEST_DAYS", 30),
		CooldownHours:  getEnvIntWithDefault("COOLDOWN_HOURS", 5),
		EnableDepth:    getEnvBoolWithDefault("ENABLE_DEPTH", false),
		MetricsAddr:    os.Getenv("METRICS_ADDR"),
		GridFile:       os.Getenv("GRID_FILE"),
	}
	return cfg, nil
}

// GridConfig is the YAML shape for a custom optimizer grid.
type GridConfig struct {
	StopLossMults   []float64 `yaml:"stop_loss_mults"`
	TakeProfitMults []float64 `yaml:"take_profit_mults"`
}

// LoadGrid parses an optimizer grid file.
func LoadGrid(path string) (*GridConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading grid file: %w", err)
	}
	var grid GridConfig
	if err := yaml.Unmarshal(data, &grid); err != nil {
		return nil, fmt.Errorf("parsing grid file: %w", err)
	}
	if len(grid.StopLossMults) == 0 || len(grid.TakeProfitMults) == 0 {
		return nil, fmt.Errorf("grid file %s must list stop_loss_mults and take_profit_mults", path)
	}
	return &grid, nil
}

func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntWithDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBoolWithDefault(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

func getEnvDurationWithDefault(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
