package prediction

import (
	"net/url"

	"github.com/bobmcallan/trendcast/internal/models"
	"github.com/bobmcallan/trendcast/internal/numeric"
)

// QuoteURLBase is the prefix of the per-ticker quote page link.
const QuoteURLBase = "https://finance.yahoo.com/quote/"

// Assembler converts pipeline output into the JSON-safe response.
type Assembler struct {
	sanitizer *numeric.Sanitizer
}

// NewAssembler creates an assembler that reports conversions through sanitizer.
func NewAssembler(sanitizer *numeric.Sanitizer) *Assembler {
	if sanitizer == nil {
		sanitizer = numeric.NewSanitizer(nil)
	}
	return &Assembler{sanitizer: sanitizer}
}

// LatestStats snapshots the last bar. Prices are rounded to 2 decimals
// after sanitizing. Returns nil for an empty feature set.
func (a *Assembler) LatestStats(fs *models.FeatureSet) *models.LatestStats {
	n := fs.Len()
	if n == 0 {
		return nil
	}
	last := n - 1
	return &models.LatestStats{
		Date:   fs.Dates[last].Format(models.DateLayout),
		Open:   numeric.Round(a.sanitizer.Float(fs.Open[last]), 2),
		High:   numeric.Round(a.sanitizer.Float(fs.High[last]), 2),
		Low:    numeric.Round(a.sanitizer.Float(fs.Low[last]), 2),
		Close:  numeric.Round(a.sanitizer.Float(fs.Close[last]), 2),
		Volume: a.sanitizer.Int(fs.Volume[last]),
	}
}

// Result is the raw pipeline output handed to Assemble.
type Result struct {
	Ticker         string
	CompanyName    string
	Features       *models.FeatureSet
	PredictedDates []string
	Predicted      []float64
	FitPercentage  float64
	LatestStats    *models.LatestStats
}

// Assemble builds the response. Every numeric value passes through the sanitizer.
func (a *Assembler) Assemble(r Result) *models.Prediction {
	fs := r.Features
	dates := make([]string, fs.Len())
	for i, d := range fs.Dates {
		dates[i] = d.Format(models.DateLayout)
	}

	return &models.Prediction{
		HistoricalDates:    dates,
		HistoricalPrices:   a.sanitizer.Floats(fs.Close),
		HistoricalVolume:   a.sanitizer.Ints(fs.Volume),
		SMAShort:           a.sanitizer.Floats(fs.SMAShort),
		SMALong:            a.sanitizer.Floats(fs.SMALong),
		PredictedDates:     r.PredictedDates,
		PredictedPrices:    a.sanitizer.Floats(r.Predicted),
		ModelFitPercentage: numeric.RoundFloat(r.FitPercentage, 2),
		Ticker:             r.Ticker,
		CompanyName:        r.CompanyName,
		LatestStats:        r.LatestStats,
		YahooFinanceURL:    QuoteURL(r.Ticker),
	}
}

// QuoteURL links to the ticker's Yahoo Finance quote page.
func QuoteURL(ticker string) string {
	return QuoteURLBase + url.PathEscape(ticker)
}
