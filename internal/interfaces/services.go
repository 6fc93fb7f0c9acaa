package interfaces

import (
	"context"
	"time"

	"github.com/bobmcallan/trendcast/internal/models"
)

// SeriesLoader returns the date-ordered daily history used for one prediction.
type SeriesLoader interface {
	Load(ctx context.Context, ticker string, now time.Time) (*models.Frame, error)
}

// FeatureBuilder turns a raw frame into the regression feature, target and display series.
type FeatureBuilder interface {
	Build(frame *models.Frame) (*models.FeatureSet, error)
}

// TrendModel fits, scores and extrapolates a straight line over the time index.
type TrendModel interface {
	Split(n int) models.Split
	Fit(x, y []float64) (models.TrendLine, error)
	Score(line models.TrendLine, x, y []float64) float64
	Extrapolate(line models.TrendLine, lastIndex float64, horizon int) []float64
}

// SuggestionService answers autocomplete queries from the static company table.
type SuggestionService interface {
	Suggest(query string, limit int) []models.Suggestion
	CompanyName(ticker string) string
}

// PredictionService runs the full load → features → fit → assemble pipeline.
type PredictionService interface {
	Predict(ctx context.Context, req models.PredictionRequest) (*models.Prediction, error)
}

// ChartRenderer draws a prediction as an image.
type ChartRenderer interface {
	RenderPrediction(p *models.Prediction) ([]byte, error)
}
