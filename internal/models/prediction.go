package models

import (
	"time"

	"github.com/guregu/null/v6"
)

// DateLayout is the wire format for every date in API responses.
const DateLayout = "2006-01-02"

// FeatureSet holds the index-aligned series derived from a normalized frame.
// NaN marks a missing value in every series.
type FeatureSet struct {
	Dates     []time.Time
	TimeIndex []float64
	Open      []float64
	High      []float64
	Low       []float64
	Close     []float64
	Volume    []float64
	SMAShort  []float64
	SMALong   []float64

	ShortWindow int
	LongWindow  int
}

// Len returns the number of bars.
func (fs *FeatureSet) Len() int {
	if fs == nil {
		return 0
	}
	return len(fs.Dates)
}

// TrendLine is a fitted close = Slope*TimeIndex + Intercept line.
type TrendLine struct {
	Slope     float64 `json:"slope"`
	Intercept float64 `json:"intercept"`
}

// Predict evaluates the line at x.
func (l TrendLine) Predict(x float64) float64 {
	return l.Slope*x + l.Intercept
}

// Split is an order-preserving train/test partition of positions [0, n).
// Training covers [0, TrainEnd), held-out covers [TrainEnd, N).
type Split struct {
	TrainEnd int
	N        int
}

// TrainLen returns the number of training positions.
func (s Split) TrainLen() int { return s.TrainEnd }

// TestLen returns the number of held-out positions.
func (s Split) TestLen() int { return s.N - s.TrainEnd }

// LatestStats is the snapshot of the most recent bar.
type LatestStats struct {
	Date   string     `json:"date"`
	Open   null.Float `json:"open"`
	High   null.Float `json:"high"`
	Low    null.Float `json:"low"`
	Close  null.Float `json:"close"`
	Volume null.Int   `json:"volume"`
}

// Prediction is the chart-ready response for one ticker.
type Prediction struct {
	HistoricalDates    []string     `json:"historical_dates"`
	HistoricalPrices   []null.Float `json:"historical_prices"`
	HistoricalVolume   []null.Int   `json:"historical_volume"`
	SMAShort           []null.Float `json:"sma_short"`
	SMALong            []null.Float `json:"sma_long"`
	PredictedDates     []string     `json:"predicted_dates"`
	PredictedPrices    []null.Float `json:"predicted_prices"`
	ModelFitPercentage float64      `json:"model_fit_percentage"`
	Ticker             string       `json:"ticker"`
	CompanyName        string       `json:"company_name"`
	LatestStats        *LatestStats `json:"latest_stats"`
	YahooFinanceURL    string       `json:"yahoo_finance_url"`
}

// PredictionRequest is the decoded body of a prediction call.
type PredictionRequest struct {
	Ticker  string
	Horizon int
}

// Suggestion is one autocomplete entry.
type Suggestion struct {
	Name   string `json:"name" yaml:"name"`
	Ticker string `json:"ticker" yaml:"ticker"`
}
