// Package eodhd provides a client for the EODHD end-of-day API
package eodhd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/bobmcallan/trendcast/internal/common"
	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
)

// flexFloat64 handles JSON values that may be a number, a string or null.
// Missing values decode to NaN.
type flexFloat64 float64

func (f *flexFloat64) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*f = flexFloat64(math.NaN())
		return nil
	}
	var num float64
	if err := json.Unmarshal(data, &num); err == nil {
		*f = flexFloat64(num)
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		num, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
		if err != nil {
			*f = flexFloat64(math.NaN())
			return nil
		}
		*f = flexFloat64(num)
		return nil
	}
	return fmt.Errorf("cannot unmarshal %s into float64", string(data))
}

const (
	DefaultBaseURL   = "https://eodhd.com/api"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 10 // requests per second
	DefaultExchange  = "US"
)

// Client implements interfaces.MarketDataClient against EODHD
type Client struct {
	baseURL    string
	apiKey     string
	exchange   string
	httpClient *http.Client
	logger     *common.Logger
	limiter    *rate.Limiter
}

// ClientOption configures the client
type ClientOption func(*Client)

// WithBaseURL sets the base URL
func WithBaseURL(baseURL string) ClientOption {
	return func(c *Client) {
		c.baseURL = strings.TrimRight(baseURL, "/")
	}
}

// WithLogger sets the logger
func WithLogger(logger *common.Logger) ClientOption {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithRateLimit sets the rate limit
func WithRateLimit(requestsPerSecond int) ClientOption {
	return func(c *Client) {
		if requestsPerSecond > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(requestsPerSecond), requestsPerSecond)
		}
	}
}

// WithTimeout sets the HTTP timeout
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *Client) {
		c.httpClient.Timeout = timeout
	}
}

// WithDefaultExchange sets the exchange suffix appended to bare tickers
func WithDefaultExchange(exchange string) ClientOption {
	return func(c *Client) {
		if exchange != "" {
			c.exchange = strings.ToUpper(exchange)
		}
	}
}

// NewClient creates a new EODHD client
func NewClient(apiKey string, opts ...ClientOption) *Client {
	c := &Client{
		baseURL:  DefaultBaseURL,
		apiKey:   apiKey,
		exchange: DefaultExchange,
		httpClient: &http.Client{
			Timeout: DefaultTimeout,
		},
		limiter: rate.NewLimiter(rate.Limit(DefaultRateLimit), DefaultRateLimit),
		logger:  common.NewSilentLogger(),
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Name identifies the vendor
func (c *Client) Name() string { return "eodhd" }

// APIError represents an API error
type APIError struct {
	StatusCode int
	Message    string
	Endpoint   string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("EODHD API error: %s (status: %d, endpoint: %s)", e.Message, e.StatusCode, e.Endpoint)
}

// get performs a rate-limited GET request
func (c *Client) get(ctx context.Context, path string, params url.Values, result interface{}) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("rate limit wait: %w", err)
	}

	if params == nil {
		params = url.Values{}
	}
	params.Set("api_token", c.apiKey)
	params.Set("fmt", "json")

	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	c.logger.Debug().Str("url", c.baseURL+path).Msg("EODHD API request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &APIError{
			StatusCode: resp.StatusCode,
			Message:    string(body),
			Endpoint:   path,
		}
	}

	if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}

	return nil
}

// Symbol returns the EODHD code for ticker, appending the default exchange
// to bare tickers ("AAPL" -> "AAPL.US").
func (c *Client) Symbol(ticker string) string {
	ticker = strings.ToUpper(strings.TrimSpace(ticker))
	if strings.Contains(ticker, ".") {
		return ticker
	}
	return ticker + "." + c.exchange
}

// eodBarResponse represents the API response for EOD data
type eodBarResponse struct {
	Date          string      `json:"date"`
	Open          flexFloat64 `json:"open"`
	High          flexFloat64 `json:"high"`
	Low           flexFloat64 `json:"low"`
	Close         flexFloat64 `json:"close"`
	AdjustedClose flexFloat64 `json:"adjusted_close"`
	Volume        flexFloat64 `json:"volume"`
}

// GetDailyFrame retrieves adjusted daily bars from from up to, not including, to as a flat
// OHLCV frame. Open, high and low are scaled by adjusted_close/close.
// EODHD answers an unknown symbol with 404, which yields an empty frame.
func (c *Client) GetDailyFrame(ctx context.Context, ticker string, from, to time.Time) (*models.Frame, error) {
	params := url.Values{}
	params.Set("period", "d")
	params.Set("order", "a")
	params.Set("from", from.Format(models.DateLayout))
	// EODHD treats to as inclusive
	params.Set("to", to.AddDate(0, 0, -1).Format(models.DateLayout))

	path := fmt.Sprintf("/eod/%s", url.PathEscape(c.Symbol(ticker)))

	var bars []eodBarResponse
	if err := c.get(ctx, path, params, &bars); err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.StatusCode == http.StatusNotFound {
			c.logger.Info().Str("ticker", ticker).Msg("EODHD returned no data")
			return models.FrameFromBars(nil), nil
		}
		return nil, err
	}

	out := make([]models.DailyBar, 0, len(bars))
	for _, bar := range bars {
		date, err := time.Parse(models.DateLayout, bar.Date)
		if err != nil {
			c.logger.Warn().Str("ticker", ticker).Str("date", bar.Date).Msg("Skipping bar with unparseable date")
			continue
		}
		out = append(out, adjust(date, bar))
	}

	c.logger.Debug().Str("ticker", ticker).Int("bars", len(out)).Msg("EODHD daily bars fetched")
	return models.FrameFromBars(out), nil
}

func adjust(date time.Time, bar eodBarResponse) models.DailyBar {
	closePx := float64(bar.Close)
	adjClose := float64(bar.AdjustedClose)

	ratio := 1.0
	if closePx != 0 && !math.IsNaN(closePx) && !math.IsNaN(adjClose) {
		ratio = adjClose / closePx
		closePx = adjClose
	}

	return models.DailyBar{
		Date:   date,
		Open:   float64(bar.Open) * ratio,
		High:   float64(bar.High) * ratio,
		Low:    float64(bar.Low) * ratio,
		Close:  closePx,
		Volume: float64(bar.Volume),
	}
}

var _ interfaces.MarketDataClient = (*Client)(nil)
