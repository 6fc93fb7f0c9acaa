package common

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Defaults(t *testing.T) {
	cfg := NewDefaultConfig()
	assert.Equal(t, 5000, cfg.Server.Port)
	assert.Equal(t, SourceYahoo, cfg.Market.Source)
	assert.Equal(t, 5, cfg.Market.LookbackYears)
	assert.Equal(t, 30, cfg.Prediction.DefaultDays)
	assert.Equal(t, 7, cfg.Prediction.MinDays)
	assert.Equal(t, 180, cfg.Prediction.MaxDays)
	assert.Equal(t, 20, cfg.Prediction.SMAShort)
	assert.Equal(t, 50, cfg.Prediction.SMALong)
	assert.InDelta(t, 0.2, cfg.Prediction.TestFraction, 1e-12)
	require.NoError(t, cfg.Validate())
}

func TestConfig_PortEnvOverride(t *testing.T) {
	t.Setenv("TRENDCAST_PORT", "9090")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 9090, cfg.Server.Port)
}

func TestConfig_PlainPortEnvOverride(t *testing.T) {
	t.Setenv("PORT", "7000")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 7000, cfg.Server.Port)
}

func TestConfig_InvalidPortIgnored(t *testing.T) {
	t.Setenv("TRENDCAST_PORT", "not-a-port")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestConfig_EODHDKeyEnvOverride(t *testing.T) {
	t.Setenv("EODHD_API_KEY", "from-env")
	t.Setenv("TRENDCAST_MARKET_SOURCE", "EODHD")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "from-env", cfg.Clients.EODHD.APIKey)
	assert.Equal(t, SourceEODHD, cfg.Market.Source)
	assert.NoError(t, cfg.Validate())
}

func TestConfig_AlpacaKeysEnvOverride(t *testing.T) {
	t.Setenv("APCA_API_KEY_ID", "key")
	t.Setenv("APCA_API_SECRET_KEY", "secret")

	cfg := NewDefaultConfig()
	applyEnvOverrides(cfg)

	assert.Equal(t, "key", cfg.Clients.Alpaca.APIKey)
	assert.Equal(t, "secret", cfg.Clients.Alpaca.APISecret)
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"unknown source", func(c *Config) { c.Market.Source = "bloomberg" }},
		{"eodhd without key", func(c *Config) { c.Market.Source = SourceEODHD }},
		{"alpaca without secret", func(c *Config) {
			c.Market.Source = SourceAlpaca
			c.Clients.Alpaca.APIKey = "key"
		}},
		{"min above max", func(c *Config) { c.Prediction.MinDays = 200 }},
		{"default outside range", func(c *Config) { c.Prediction.DefaultDays = 365 }},
		{"zero sma", func(c *Config) { c.Prediction.SMAShort = 0 }},
		{"test fraction one", func(c *Config) { c.Prediction.TestFraction = 1 }},
		{"zero lookback", func(c *Config) { c.Market.LookbackYears = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestLoadConfig_FileMergedOverDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "trendcast.toml")
	content := `
environment = "production"

[server]
port = 8181

[prediction]
sma_short = 10

[clients.yahoo]
timeout = "5s"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)

	assert.True(t, cfg.IsProduction())
	assert.Equal(t, 8181, cfg.Server.Port)
	assert.Equal(t, 10, cfg.Prediction.SMAShort)
	assert.Equal(t, 50, cfg.Prediction.SMALong, "unset keys keep defaults")
	assert.Equal(t, 5*time.Second, cfg.Clients.Yahoo.GetTimeout())
}

func TestLoadConfig_MissingFileSkipped(t *testing.T) {
	cfg, err := LoadConfig(filepath.Join(t.TempDir(), "absent.toml"), "")
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Server.Port)
}

func TestLoadConfig_ParseError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.toml")
	require.NoError(t, os.WriteFile(path, []byte("[server\nport = "), 0o644))

	_, err := LoadConfig(path)
	assert.Error(t, err)
}

func TestGetTimeout_FallsBack(t *testing.T) {
	c := EODHDConfig{Timeout: "soon"}
	assert.Equal(t, 30*time.Second, c.GetTimeout())
}
