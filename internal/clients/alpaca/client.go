// Package alpaca adapts the Alpaca market data API to the daily frame contract
package alpaca

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/alpacahq/alpaca-trade-api-go/v3/marketdata"

	"github.com/bobmcallan/trendcast/internal/common"
	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
)

// DefaultFeed is the free IEX feed
const DefaultFeed = "iex"

// barsGetter is the subset of *marketdata.Client used here
type barsGetter interface {
	GetBars(symbol string, req marketdata.GetBarsRequest) ([]marketdata.Bar, error)
}

// Client implements interfaces.MarketDataClient against Alpaca
type Client struct {
	md       barsGetter
	feed     string
	location *time.Location
	logger   *common.Logger
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithFeed selects the data feed ("iex", "sip")
func WithFeed(feed string) ClientOption {
	return func(c *Client) {
		if feed != "" {
			c.feed = strings.ToLower(feed)
		}
	}
}

// withBarsGetter replaces the market data client
func withBarsGetter(md barsGetter) ClientOption {
	return func(c *Client) {
		c.md = md
	}
}

// NewClient creates a new Alpaca market data client. An empty baseURL uses the SDK default.
func NewClient(apiKey, apiSecret, baseURL string, opts ...ClientOption) *Client {
	loc, err := time.LoadLocation("America/New_York")
	if err != nil {
		loc = time.FixedZone("EST", -5*60*60)
	}

	c := &Client{
		feed:     DefaultFeed,
		location: loc,
		logger:   common.NewSilentLogger(),
	}
	for _, opt := range opts {
		opt(c)
	}

	if c.md == nil {
		c.md = marketdata.NewClient(marketdata.ClientOpts{
			APIKey:    apiKey,
			APISecret: apiSecret,
			BaseURL:   baseURL,
			Feed:      marketdata.Feed(c.feed),
		})
	}
	return c
}

// Name identifies the vendor
func (c *Client) Name() string { return "alpaca" }

// GetDailyFrame retrieves split- and dividend-adjusted daily bars as a flat OHLCV frame.
// Bar timestamps are mapped to the New York trading date. Daily bars are stamped
// at New York midnight, so an End of midnight UTC on to leaves that day out.
func (c *Client) GetDailyFrame(ctx context.Context, ticker string, from, to time.Time) (*models.Frame, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	symbol := strings.ToUpper(strings.TrimSpace(ticker))
	bars, err := c.md.GetBars(symbol, marketdata.GetBarsRequest{
		TimeFrame:  marketdata.OneDay,
		Adjustment: marketdata.All,
		Start:      from,
		End:        to,
		Feed:       marketdata.Feed(c.feed),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch alpaca bars for %s: %w", symbol, err)
	}

	out := make([]models.DailyBar, len(bars))
	for i, bar := range bars {
		local := bar.Timestamp.In(c.location)
		out[i] = models.DailyBar{
			Date:   time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC),
			Open:   bar.Open,
			High:   bar.High,
			Low:    bar.Low,
			Close:  bar.Close,
			Volume: float64(bar.Volume),
		}
	}

	c.logger.Debug().Str("ticker", symbol).Int("bars", len(out)).Msg("Alpaca daily bars fetched")
	return models.FrameFromBars(out), nil
}

var _ interfaces.MarketDataClient = (*Client)(nil)
