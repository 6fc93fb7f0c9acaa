// Package market loads the daily price history a prediction is built from
package market

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bobmcallan/trendcast/internal/common"
	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
)

// DefaultLookbackYears is the history window length.
const DefaultLookbackYears = 5

// ErrNoData is returned when the source has no rows for the ticker and window.
var ErrNoData = errors.New("no market data")

// Window returns the fetch range for now: end is today rolled back to Friday
// on weekends, start is years*365 days before end. end is exclusive, so the
// series stops at the last session before it.
func Window(now time.Time, years int) (start, end time.Time) {
	if years <= 0 {
		years = DefaultLookbackYears
	}
	end = time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	switch end.Weekday() {
	case time.Saturday:
		end = end.AddDate(0, 0, -1)
	case time.Sunday:
		end = end.AddDate(0, 0, -2)
	}
	start = end.AddDate(0, 0, -365*years)
	return start, end
}

// Loader implements interfaces.SeriesLoader over one market data client.
type Loader struct {
	client        interfaces.MarketDataClient
	lookbackYears int
	logger        *common.Logger
}

// NewLoader creates a loader
func NewLoader(client interfaces.MarketDataClient, lookbackYears int, logger *common.Logger) *Loader {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Loader{
		client:        client,
		lookbackYears: lookbackYears,
		logger:        logger,
	}
}

// Load fetches the window ending at now for ticker, ordered by date with one
// row per date. A single attempt is made.
func (l *Loader) Load(ctx context.Context, ticker string, now time.Time) (*models.Frame, error) {
	ticker = strings.TrimSpace(ticker)
	start, end := Window(now, l.lookbackYears)

	l.logger.Info().
		Str("ticker", ticker).
		Str("source", l.client.Name()).
		Str("start", start.Format(models.DateLayout)).
		Str("end", end.Format(models.DateLayout)).
		Msg("Fetching daily history")

	frame, err := l.client.GetDailyFrame(ctx, ticker, start, end)
	if err != nil {
		return nil, fmt.Errorf("fetch %s from %s: %w", ticker, l.client.Name(), err)
	}
	if frame.Empty() {
		l.logger.Warn().Str("ticker", ticker).Msg("No data returned")
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}

	out := frame.SortedUnique().Before(end)
	if dropped := frame.Len() - out.Len(); dropped > 0 {
		l.logger.Debug().Str("ticker", ticker).Int("dropped", dropped).Msg("Dropped duplicate or out-of-window dates")
	}
	if out.Empty() {
		l.logger.Warn().Str("ticker", ticker).Msg("No data before window end")
		return nil, fmt.Errorf("%s: %w", ticker, ErrNoData)
	}
	return out, nil
}

var _ interfaces.SeriesLoader = (*Loader)(nil)
