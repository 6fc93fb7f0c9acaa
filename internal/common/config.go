// Package common provides shared utilities for trendcast
package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	toml "github.com/pelletier/go-toml/v2"
)

// Market data sources understood by the loader.
const (
	SourceYahoo  = "yahoo"
	SourceEODHD  = "eodhd"
	SourceAlpaca = "alpaca"
)

// Config holds all configuration for trendcast
type Config struct {
	Environment string           `toml:"environment"`
	Server      ServerConfig     `toml:"server"`
	Market      MarketConfig     `toml:"market"`
	Prediction  PredictionConfig `toml:"prediction"`
	Clients     ClientsConfig    `toml:"clients"`
	Logging     LoggingConfig    `toml:"logging"`
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Host      string `toml:"host"`
	Port      int    `toml:"port"`
	StaticDir string `toml:"static_dir"` // served at "/" when present
}

// MarketConfig selects the market data source and the history window.
type MarketConfig struct {
	Source        string `toml:"source"`
	LookbackYears int    `toml:"lookback_years"`
}

// PredictionConfig holds the model and horizon settings
type PredictionConfig struct {
	DefaultDays  int     `toml:"default_days"`
	MinDays      int     `toml:"min_days"`
	MaxDays      int     `toml:"max_days"`
	SMAShort     int     `toml:"sma_short"`
	SMALong      int     `toml:"sma_long"`
	TestFraction float64 `toml:"test_fraction"`
}

// ClientsConfig holds API client configurations
type ClientsConfig struct {
	Yahoo  YahooConfig  `toml:"yahoo"`
	EODHD  EODHDConfig  `toml:"eodhd"`
	Alpaca AlpacaConfig `toml:"alpaca"`
}

// YahooConfig holds Yahoo Finance chart API configuration
type YahooConfig struct {
	BaseURL   string `toml:"base_url"`
	UserAgent string `toml:"user_agent"`
	RateLimit int    `toml:"rate_limit"`
	Timeout   string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *YahooConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// EODHDConfig holds EODHD API configuration
type EODHDConfig struct {
	BaseURL         string `toml:"base_url"`
	APIKey          string `toml:"api_key"`
	DefaultExchange string `toml:"default_exchange"`
	RateLimit       int    `toml:"rate_limit"`
	Timeout         string `toml:"timeout"`
}

// GetTimeout parses and returns the timeout duration
func (c *EODHDConfig) GetTimeout() time.Duration {
	return parseTimeout(c.Timeout)
}

// AlpacaConfig holds Alpaca market data configuration
type AlpacaConfig struct {
	BaseURL   string `toml:"base_url"`
	APIKey    string `toml:"api_key"`
	APISecret string `toml:"api_secret"`
	Feed      string `toml:"feed"`
}

// LoggingConfig holds logging configuration
type LoggingConfig struct {
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

func parseTimeout(s string) time.Duration {
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 30 * time.Second
	}
	return d
}

// NewDefaultConfig returns a Config with sensible defaults
func NewDefaultConfig() *Config {
	return &Config{
		Environment: "development",
		Server: ServerConfig{
			Host:      "0.0.0.0",
			Port:      5000,
			StaticDir: "static",
		},
		Market: MarketConfig{
			Source:        SourceYahoo,
			LookbackYears: 5,
		},
		Prediction: PredictionConfig{
			DefaultDays:  30,
			MinDays:      7,
			MaxDays:      180,
			SMAShort:     20,
			SMALong:      50,
			TestFraction: 0.2,
		},
		Clients: ClientsConfig{
			Yahoo: YahooConfig{
				BaseURL:   "https://query1.finance.yahoo.com",
				UserAgent: "Mozilla/5.0 (compatible; trendcast/1.0)",
				RateLimit: 5,
				Timeout:   "30s",
			},
			EODHD: EODHDConfig{
				BaseURL:         "https://eodhd.com/api",
				DefaultExchange: "US",
				RateLimit:       10,
				Timeout:         "30s",
			},
			Alpaca: AlpacaConfig{
				Feed: "iex",
			},
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
	}
}

// LoadConfig loads configuration from files with environment overrides
func LoadConfig(paths ...string) (*Config, error) {
	config := NewDefaultConfig()

	// Later files override earlier ones
	for _, path := range paths {
		if path == "" {
			continue
		}

		if _, err := os.Stat(path); os.IsNotExist(err) {
			continue
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

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return config, nil
}

// applyEnvOverrides applies environment variable overrides to config
func applyEnvOverrides(config *Config) {
	if env := os.Getenv("TRENDCAST_ENV"); env != "" {
		config.Environment = env
	}

	if host := os.Getenv("TRENDCAST_HOST"); host != "" {
		config.Server.Host = host
	}

	// PORT is what most PaaS hosts inject
	for _, name := range []string{"PORT", "TRENDCAST_PORT"} {
		if port := os.Getenv(name); port != "" {
			if p, err := strconv.Atoi(port); err == nil {
				config.Server.Port = p
			}
		}
	}

	if dir := os.Getenv("TRENDCAST_STATIC_DIR"); dir != "" {
		config.Server.StaticDir = dir
	}

	if level := os.Getenv("TRENDCAST_LOG_LEVEL"); level != "" {
		config.Logging.Level = level
	}

	if src := os.Getenv("TRENDCAST_MARKET_SOURCE"); src != "" {
		config.Market.Source = strings.ToLower(strings.TrimSpace(src))
	}

	for _, name := range []string{"EODHD_API_KEY", "TRENDCAST_EODHD_API_KEY"} {
		if v := os.Getenv(name); v != "" {
			config.Clients.EODHD.APIKey = v
		}
	}

	if v := os.Getenv("APCA_API_KEY_ID"); v != "" {
		config.Clients.Alpaca.APIKey = v
	}
	if v := os.Getenv("APCA_API_SECRET_KEY"); v != "" {
		config.Clients.Alpaca.APISecret = v
	}
}

// Validate checks the settings the pipeline depends on.
func (c *Config) Validate() error {
	switch c.Market.Source {
	case SourceYahoo:
	case SourceEODHD:
		if c.Clients.EODHD.APIKey == "" {
			return fmt.Errorf("clients.eodhd.api_key is required when market.source is %q", SourceEODHD)
		}
	case SourceAlpaca:
		if c.Clients.Alpaca.APIKey == "" || c.Clients.Alpaca.APISecret == "" {
			return fmt.Errorf("clients.alpaca.api_key and api_secret are required when market.source is %q", SourceAlpaca)
		}
	default:
		return fmt.Errorf("unknown market.source %q", c.Market.Source)
	}

	p := c.Prediction
	if p.MinDays <= 0 || p.MaxDays < p.MinDays {
		return fmt.Errorf("prediction.min_days/max_days out of order: %d/%d", p.MinDays, p.MaxDays)
	}
	if p.DefaultDays < p.MinDays || p.DefaultDays > p.MaxDays {
		return fmt.Errorf("prediction.default_days %d outside [%d, %d]", p.DefaultDays, p.MinDays, p.MaxDays)
	}
	if p.SMAShort <= 0 || p.SMALong <= 0 {
		return fmt.Errorf("prediction.sma_short and sma_long must be positive")
	}
	if p.TestFraction <= 0 || p.TestFraction >= 1 {
		return fmt.Errorf("prediction.test_fraction must be in (0, 1), got %v", p.TestFraction)
	}
	if c.Market.LookbackYears <= 0 {
		return fmt.Errorf("market.lookback_years must be positive")
	}
	return nil
}

// IsProduction returns true if running in production mode
func (c *Config) IsProduction() bool {
	env := strings.ToLower(strings.TrimSpace(c.Environment))
	return env == "production" || env == "prod"
}
