// Package common provides shared utilities for StockSight
package common

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Config holds all configuration for StockSight
type Config struct {
	Environment string        `toml:"environment"`
	Server      ServerConfig  `toml:"server"`
	Storage     StorageConfig `toml:"storage"`
	Clients     ClientsConfig `toml:"clients"`
	Chat        ChatConfig    `toml:"chat"`
	Logging     LoggingConfig `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host string `toml:"host"`
	Port int    `toml:"port"`
}

// StorageConfig holds local persistence configuration.
type StorageConfig struct {
	Path      string `toml:"path"`       // BadgerHold directory for the portfolio record
	SaveDelay string `toml:"save_delay"` // debounce window for coalesced writes
}

// GetSaveDelay parses and returns the debounce delay
func (c *StorageConfig) GetSaveDelay() time.Duration {
	d, err := time.ParseDuration(c.SaveDelay)
	if err != nil {
		return 2 * time.Second
	}
	return d
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Relay    RelayConfig    `toml:"relay"`
	MFAPI    EndpointConfig `toml:"mfapi"`
	Screener EndpointConfig `toml:"screener"`
	GFinance EndpointConfig `toml:"gfinance"`
	Yahoo    EndpointConfig `toml:"yahoo"`
	Ledger   LedgerConfig   `toml:"ledger"`
}

// RelayConfig holds relay client configuration
type RelayConfig struct {
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *RelayConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// EndpointConfig holds base URL configuration for a data source
type EndpointConfig struct {
	BaseURL string `toml:"base_url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EndpointConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// LedgerConfig holds the remote ledger sync endpoint configuration
type LedgerConfig struct {
	URL     string `toml:"url"`
	Timeout string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *LedgerConfig) GetTimeout() time.Duration {
	d, err := time.ParseDuration(c.Timeout)
	if err != nil {
		return 30 * time.Second
	}
	return d
}

// ChatConfig holds conversational engine configuration
type ChatConfig struct {
	PacingDelay string `toml:"pacing_delay"` // artificial delay before each reply
}

// GetPacingDelay parses and returns the pacing delay
func (c *ChatConfig) GetPacingDelay() time.Duration {
	d, err := time.ParseDuration(c.PacingDelay)
	if err != nil {
		return 600 * time.Millisecond
	}
	return d
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level string `toml:"level"`
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host: "0.0.0.0",
			Port: 8080,
		},
		Storage: StorageConfig{
			Path:      "data/portfolio",
			SaveDelay: "2s",
		},
		Clients: ClientsConfig{
			Relay: RelayConfig{
				RateLimit: 5,
				Timeout:   "30s",
			},
			MFAPI: EndpointConfig{
				BaseURL: "https://api.mfapi.in",
				Timeout: "15s",
			},
			Screener: EndpointConfig{
				BaseURL: "https://www.screener.in",
			},
			GFinance: EndpointConfig{
				BaseURL: "https://www.google.com/finance",
			},
			Yahoo: EndpointConfig{
				BaseURL: "https://query1.finance.yahoo.com",
			},
			Ledger: LedgerConfig{
				Timeout: "20s",
			},
		},
		Chat: ChatConfig{
			PacingDelay: "600ms",
		},
		Logging: LoggingConfig{
			Level: "info",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Load and merge each config file in order (later files override earlier)
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue // Skip missing files
		}

		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		}

		if err := toml.Unmarshal(data, config); err != nil {
			return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
		}
	}

	applyEnvOverrides(config)

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("STOCKSIGHT_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("STOCKSIGHT_HOST"); host != "" {
		config.Server.Host = host
	}

	if port := os.Getenv("STOCKSIGHT_PORT"); port != "" {
		if p, err := strconv.Atoi(port); err == nil {
			config.Server.Port = p
		}
	}

	if level := os.Getenv("STOCKSIGHT_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if path := os.Getenv("STOCKSIGHT_DATA_PATH"); path != "" {
		config.Storage.Path = filepath.Join(path, "portfolio")
	}

	if url := os.Getenv("STOCKSIGHT_LEDGER_URL"); url != "" {
		config.Clients.Ledger.URL = url
	}
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
