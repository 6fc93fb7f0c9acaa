// Package yahoo provides a client for the Yahoo Finance v8 chart API
package yahoo

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

const (
	DefaultBaseURL   = "https://query1.finance.yahoo.com"
	DefaultTimeout   = 30 * time.Second
	DefaultRateLimit = 5 // requests per second
	DefaultUserAgent = "Mozilla/5.0"
)

// Client implements interfaces.MarketDataClient against the Yahoo chart API
type Client struct {
	baseURL    string
	userAgent  string
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

// WithUserAgent sets the User-Agent header; Yahoo rejects requests without one
func WithUserAgent(ua string) ClientOption {
	return func(c *Client) {
		if ua != "" {
			c.userAgent = ua
		}
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

// NewClient creates a new Yahoo chart client
func NewClient(opts ...ClientOption) *Client {
	c := &Client{
		baseURL:   DefaultBaseURL,
		userAgent: DefaultUserAgent,
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
func (c *Client) Name() string { return "yahoo" }

// APIError represents a non-success chart response
type APIError struct {
	StatusCode int
	Code       string
	Message    string
	Symbol     string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("Yahoo API error: %s %s (status: %d, symbol: %s)", e.Code, e.Message, e.StatusCode, e.Symbol)
}

// NotFound reports whether Yahoo does not know the symbol
func (e *APIError) NotFound() bool {
	return e.StatusCode == http.StatusNotFound || strings.EqualFold(e.Code, "Not Found")
}

type chartResponse struct {
	Chart struct {
		Result []chartResult `json:"result"`
		Error  *chartError   `json:"error"`
	} `json:"chart"`
}

type chartError struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type chartResult struct {
	Meta struct {
		Symbol    string `json:"symbol"`
		GMTOffset int64  `json:"gmtoffset"`
		Timezone  string `json:"exchangeTimezoneName"`
	} `json:"meta"`
	Timestamp  []int64 `json:"timestamp"`
	Indicators struct {
		Quote []struct {
			Open   []*float64 `json:"open"`
			High   []*float64 `json:"high"`
			Low    []*float64 `json:"low"`
			Close  []*float64 `json:"close"`
			Volume []*float64 `json:"volume"`
		} `json:"quote"`
		AdjClose []struct {
			AdjClose []*float64 `json:"adjclose"`
		} `json:"adjclose"`
	} `json:"indicators"`
}

// chart fetches and decodes one chart response
func (c *Client) chart(ctx context.Context, symbol string, from, to time.Time) (*chartResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limit wait: %w", err)
	}

	params := url.Values{}
	params.Set("period1", strconv.FormatInt(from.Unix(), 10))
	params.Set("period2", strconv.FormatInt(to.Unix(), 10))
	params.Set("interval", "1d")
	params.Set("includeAdjustedClose", "true")
	params.Set("events", "div,splits")

	path := "/v8/finance/chart/" + url.PathEscape(symbol)
	reqURL := fmt.Sprintf("%s%s?%s", c.baseURL, path, params.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)

	c.logger.Debug().Str("url", c.baseURL+path).Msg("Yahoo chart request")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	var chart chartResponse
	decodeErr := json.Unmarshal(body, &chart)

	if resp.StatusCode != http.StatusOK {
		apiErr := &APIError{StatusCode: resp.StatusCode, Symbol: symbol}
		if decodeErr == nil && chart.Chart.Error != nil {
			apiErr.Code = chart.Chart.Error.Code
			apiErr.Message = chart.Chart.Error.Description
		} else {
			apiErr.Message = truncate(string(body), 256)
		}
		return nil, apiErr
	}
	if decodeErr != nil {
		return nil, fmt.Errorf("failed to decode response: %w", decodeErr)
	}
	if chart.Chart.Error != nil {
		return nil, &APIError{
			StatusCode: resp.StatusCode,
			Code:       chart.Chart.Error.Code,
			Message:    chart.Chart.Error.Description,
			Symbol:     symbol,
		}
	}
	return &chart, nil
}

// GetDailyFrame retrieves auto-adjusted daily bars from from up to, not including, to.
// Columns are grouped by symbol. Dates are the exchange-local trading day.
// An unknown symbol yields an empty frame.
func (c *Client) GetDailyFrame(ctx context.Context, ticker string, from, to time.Time) (*models.Frame, error) {
	symbol := strings.ToUpper(strings.TrimSpace(ticker))

	// period2 is exclusive
	chart, err := c.chart(ctx, symbol, from, to)
	if err != nil {
		if apiErr, ok := err.(*APIError); ok && apiErr.NotFound() {
			c.logger.Info().Str("ticker", symbol).Str("code", apiErr.Code).Msg("Yahoo returned no data")
			return newFrame(symbol), nil
		}
		return nil, err
	}

	frame := newFrame(symbol)
	if len(chart.Chart.Result) == 0 {
		return frame, nil
	}

	result := chart.Chart.Result[0]
	if len(result.Indicators.Quote) == 0 {
		return frame, nil
	}
	quote := result.Indicators.Quote[0]
	var adj []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adj = result.Indicators.AdjClose[0].AdjClose
	}

	skipped := 0
	for i, ts := range result.Timestamp {
		o, h, l, cl := at(quote.Open, i), at(quote.High, i), at(quote.Low, i), at(quote.Close, i)
		if math.IsNaN(o) && math.IsNaN(h) && math.IsNaN(l) && math.IsNaN(cl) {
			skipped++
			continue
		}

		if a := at(adj, i); !math.IsNaN(a) && !math.IsNaN(cl) && cl != 0 {
			ratio := a / cl
			o, h, l, cl = o*ratio, h*ratio, l*ratio, a
		}

		frame.AppendRow(tradingDay(ts, result.Meta.GMTOffset), o, h, l, cl, at(quote.Volume, i))
	}

	c.logger.Debug().
		Str("ticker", symbol).
		Int("bars", frame.Len()).
		Int("skipped", skipped).
		Msg("Yahoo daily bars fetched")

	return frame, nil
}

func newFrame(symbol string) *models.Frame {
	return models.NewFrame(
		models.ColumnKey{Field: models.ColumnOpen, Group: symbol},
		models.ColumnKey{Field: models.ColumnHigh, Group: symbol},
		models.ColumnKey{Field: models.ColumnLow, Group: symbol},
		models.ColumnKey{Field: models.ColumnClose, Group: symbol},
		models.ColumnKey{Field: models.ColumnVolume, Group: symbol},
	)
}

// tradingDay converts a bar timestamp to the exchange-local calendar date at UTC midnight
func tradingDay(ts, gmtOffset int64) time.Time {
	local := time.Unix(ts+gmtOffset, 0).UTC()
	return time.Date(local.Year(), local.Month(), local.Day(), 0, 0, 0, 0, time.UTC)
}

func at(values []*float64, i int) float64 {
	if i >= len(values) || values[i] == nil {
		return math.NaN()
	}
	return *values[i]
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

var _ interfaces.MarketDataClient = (*Client)(nil)
