// Package app wires configuration, clients and services into one application
package app

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/bobmcallan/trendcast/internal/clients/alpaca"
	"github.com/bobmcallan/trendcast/internal/clients/eodhd"
	"github.com/bobmcallan/trendcast/internal/clients/yahoo"
	"github.com/bobmcallan/trendcast/internal/common"
	"github.com/bobmcallan/trendcast/internal/features"
	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/numeric"
	"github.com/bobmcallan/trendcast/internal/services/chart"
	"github.com/bobmcallan/trendcast/internal/services/market"
	"github.com/bobmcallan/trendcast/internal/services/prediction"
	"github.com/bobmcallan/trendcast/internal/services/suggest"
	"github.com/bobmcallan/trendcast/internal/trend"
)

// App holds all initialized clients and services.
// It is shared by the HTTP server and the one-shot CLI commands.
type App struct {
	Config            *common.Config
	Logger            *common.Logger
	MarketClient      interfaces.MarketDataClient
	Loader            interfaces.SeriesLoader
	SuggestionService interfaces.SuggestionService
	PredictionService interfaces.PredictionService
	ChartRenderer     interfaces.ChartRenderer
	Horizon           trend.HorizonPolicy
	StartupTime       time.Time
}

// getBinaryDir returns the directory containing the executable.
func getBinaryDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

// ResolveConfigPath picks the config file: the given path, TRENDCAST_CONFIG,
// trendcast.toml next to the binary, then config/trendcast.toml.
func ResolveConfigPath(configPath string) string {
	if configPath == "" {
		configPath = os.Getenv("TRENDCAST_CONFIG")
	}
	if configPath == "" {
		configPath = filepath.Join(getBinaryDir(), "trendcast.toml")
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			configPath = "config/trendcast.toml" // fallback for development
		}
	}
	return configPath
}

// NewApp loads configuration and initializes all services.
// configPath may be empty, in which case ResolveConfigPath decides.
func NewApp(configPath string) (*App, error) {
	config, err := common.LoadConfig(ResolveConfigPath(configPath))
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger := common.NewLoggerFromConfig(config.Logging)
	return NewAppWithConfig(config, logger)
}

// NewAppWithConfig initializes all services from an already loaded config.
func NewAppWithConfig(config *common.Config, logger *common.Logger) (*App, error) {
	startupStart := time.Now()

	client, err := NewMarketClient(config, logger)
	if err != nil {
		return nil, err
	}
	return newApp(config, logger, client, startupStart), nil
}

// NewAppWithClient initializes all services over the given market data client.
func NewAppWithClient(config *common.Config, logger *common.Logger, client interfaces.MarketDataClient) *App {
	return newApp(config, logger, client, time.Now())
}

func newApp(config *common.Config, logger *common.Logger, client interfaces.MarketDataClient, startupStart time.Time) *App {
	p := config.Prediction

	loader := market.NewLoader(client, config.Market.LookbackYears, logger)
	table := suggest.Default()
	predictionService := prediction.NewService(
		loader,
		features.NewBuilder(p.SMAShort, p.SMALong),
		trend.NewModel(p.TestFraction),
		table,
		prediction.NewAssembler(numeric.NewSanitizer(logger)),
		logger,
	)

	a := &App{
		Config:            config,
		Logger:            logger,
		MarketClient:      client,
		Loader:            loader,
		SuggestionService: table,
		PredictionService: predictionService,
		ChartRenderer:     chart.NewRenderer(),
		Horizon:           trend.HorizonPolicy{Min: p.MinDays, Max: p.MaxDays, Default: p.DefaultDays},
		StartupTime:       time.Now(),
	}

	logger.Info().
		Str("source", client.Name()).
		Int("suggestions", table.Len()).
		Dur("elapsed", time.Since(startupStart)).
		Msg("Application initialized")

	return a
}

// NewMarketClient creates the data-source client selected by market.source.
func NewMarketClient(config *common.Config, logger *common.Logger) (interfaces.MarketDataClient, error) {
	c := config.Clients
	switch config.Market.Source {
	case common.SourceYahoo, "":
		return yahoo.NewClient(
			yahoo.WithBaseURL(c.Yahoo.BaseURL),
			yahoo.WithUserAgent(c.Yahoo.UserAgent),
			yahoo.WithRateLimit(c.Yahoo.RateLimit),
			yahoo.WithTimeout(c.Yahoo.GetTimeout()),
			yahoo.WithLogger(logger),
		), nil
	case common.SourceEODHD:
		return eodhd.NewClient(c.EODHD.APIKey,
			eodhd.WithBaseURL(c.EODHD.BaseURL),
			eodhd.WithDefaultExchange(c.EODHD.DefaultExchange),
			eodhd.WithRateLimit(c.EODHD.RateLimit),
			eodhd.WithTimeout(c.EODHD.GetTimeout()),
			eodhd.WithLogger(logger),
		), nil
	case common.SourceAlpaca:
		return alpaca.NewClient(c.Alpaca.APIKey, c.Alpaca.APISecret, c.Alpaca.BaseURL,
			alpaca.WithFeed(c.Alpaca.Feed),
			alpaca.WithLogger(logger),
		), nil
	default:
		return nil, fmt.Errorf("unknown market source %q", config.Market.Source)
	}
}
