// Package interfaces defines service contracts for trendcast
package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/trendcast/internal/models"
)

// MarketDataClient fetches daily OHLCV history from one data vendor.
type MarketDataClient interface {
	// GetDailyFrame returns daily bars for ticker dated from (inclusive) up to
	// to (exclusive).
	// An unknown ticker may yield an empty frame rather than an error.
	GetDailyFrame(ctx context.Context, ticker string, from, to time.Time) (*models.Frame, error)

	// Name identifies the vendor in logs
	Name() string
}
