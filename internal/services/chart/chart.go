// Package chart renders a prediction as a PNG line chart
package chart

import (
	"bytes"
	"fmt"
	"time"

	"github.com/guregu/null/v6"
	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
)

// Renderer implements ChartRenderer with go-chart
type Renderer struct {
	Width  int
	Height int
}

// NewRenderer creates a renderer with the default 900x400 canvas
func NewRenderer() *Renderer {
	return &Renderer{Width: 900, Height: 400}
}

// RenderPrediction draws close (blue solid), both moving averages and the
// projection (red dashed, starting at the last close). Missing points are skipped.
// Returns raw PNG bytes.
func (r *Renderer) RenderPrediction(p *models.Prediction) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("nil prediction")
	}

	closeSeries, err := timeSeries(p.HistoricalDates, p.HistoricalPrices)
	if err != nil {
		return nil, err
	}
	if len(closeSeries.XValues) < 2 {
		return nil, fmt.Errorf("need at least 2 historical points, got %d", len(closeSeries.XValues))
	}
	closeSeries.Name = "Close"
	closeSeries.Style = chart.Style{
		StrokeColor: drawing.ColorFromHex("2563eb"), // blue-600
		StrokeWidth: 2,
	}

	series := []chart.Series{closeSeries}

	if s, err := timeSeries(p.HistoricalDates, p.SMAShort); err == nil && len(s.XValues) >= 2 {
		s.Name = "SMA short"
		s.Style = chart.Style{
			StrokeColor: drawing.ColorFromHex("f59e0b"), // amber-500
			StrokeWidth: 1.5,
		}
		series = append(series, s)
	}

	if s, err := timeSeries(p.HistoricalDates, p.SMALong); err == nil && len(s.XValues) >= 2 {
		s.Name = "SMA long"
		s.Style = chart.Style{
			StrokeColor: drawing.ColorFromHex("10b981"), // emerald-500
			StrokeWidth: 1.5,
		}
		series = append(series, s)
	}

	predicted, err := timeSeries(p.PredictedDates, p.PredictedPrices)
	if err != nil {
		return nil, err
	}
	if len(predicted.XValues) > 0 {
		last := len(closeSeries.XValues) - 1
		predicted.XValues = append([]time.Time{closeSeries.XValues[last]}, predicted.XValues...)
		predicted.YValues = append([]float64{closeSeries.YValues[last]}, predicted.YValues...)
		predicted.Name = "Prediction"
		predicted.Style = chart.Style{
			StrokeColor:     drawing.ColorFromHex("dc2626"), // red-600
			StrokeWidth:     2,
			StrokeDashArray: []float64{5.0, 3.0},
		}
		series = append(series, predicted)
	}

	title := p.CompanyName
	if title == "" {
		title = p.Ticker
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("%s (fit %.2f%%)", title, p.ModelFitPercentage),
		Width:  r.Width,
		Height: r.Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 10, Right: 20, Bottom: 10},
		},
		XAxis: chart.XAxis{
			TickPosition: chart.TickPositionBetweenTicks,
			ValueFormatter: func(v interface{}) string {
				if t, ok := v.(float64); ok {
					return chart.TimeFromFloat64(t).Format("Jan 06")
				}
				return ""
			},
		},
		YAxis: chart.YAxis{
			ValueFormatter: func(v interface{}) string {
				if f, ok := v.(float64); ok {
					return fmt.Sprintf("%.2f", f)
				}
				return ""
			},
		},
		Series: series,
	}

	graph.Elements = []chart.Renderable{
		chart.LegendLeft(&graph),
	}

	var buf bytes.Buffer
	if err := graph.Render(chart.PNG, &buf); err != nil {
		return nil, fmt.Errorf("chart render failed: %w", err)
	}

	return buf.Bytes(), nil
}

// timeSeries pairs dates with the valid values
func timeSeries(dates []string, values []null.Float) (chart.TimeSeries, error) {
	var s chart.TimeSeries
	for i, v := range values {
		if i >= len(dates) || !v.Valid {
			continue
		}
		d, err := time.Parse(models.DateLayout, dates[i])
		if err != nil {
			return s, fmt.Errorf("invalid date %q: %w", dates[i], err)
		}
		s.XValues = append(s.XValues, d)
		s.YValues = append(s.YValues, v.Float64)
	}
	return s, nil
}

var _ interfaces.ChartRenderer = (*Renderer)(nil)
