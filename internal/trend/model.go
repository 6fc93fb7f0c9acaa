// Package trend fits, scores and extrapolates a straight-line trend of close
// price against a positional time index.
package trend

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
	"github.com/bobmcallan/trendcast/internal/numeric"
)

// DefaultTestFraction is the share of bars held out for scoring.
const DefaultTestFraction = 0.2

// ErrNoTrainingData is returned when the training range has no finite (x, y) pair.
var ErrNoTrainingData = errors.New("no finite training pairs")

// Model is an ordinary-least-squares trend model with an order-preserving split.
type Model struct {
	TestFraction float64
}

// NewModel creates a model; a fraction outside (0, 1) falls back to 0.2.
func NewModel(testFraction float64) *Model {
	if testFraction <= 0 || testFraction >= 1 {
		testFraction = DefaultTestFraction
	}
	return &Model{TestFraction: testFraction}
}

// Split partitions positions [0, n) into a leading training range and a
// trailing held-out range of ceil(n*TestFraction) positions.
func (m *Model) Split(n int) models.Split {
	if n <= 0 {
		return models.Split{}
	}
	test := int(math.Ceil(float64(n) * m.TestFraction))
	if test > n {
		test = n
	}
	return models.Split{TrainEnd: n - test, N: n}
}

// Fit regresses y on x with an intercept over pairs where both values are finite.
func (m *Model) Fit(x, y []float64) (models.TrendLine, error) {
	xs, ys := finitePairs(x, y)
	switch len(xs) {
	case 0:
		return models.TrendLine{}, ErrNoTrainingData
	case 1:
		return models.TrendLine{Slope: 0, Intercept: ys[0]}, nil
	}

	if stat.Variance(xs, nil) == 0 {
		return models.TrendLine{Slope: 0, Intercept: stat.Mean(ys, nil)}, nil
	}

	alpha, beta := stat.LinearRegression(xs, ys, nil, false)
	return models.TrendLine{Slope: beta, Intercept: alpha}, nil
}

// Score returns the coefficient of determination of line over the held-out
// pairs as a percentage in [0, 100], rounded to 2 decimals.
// Pairs whose actual or predicted value is not finite are ignored.
func (m *Model) Score(line models.TrendLine, x, y []float64) float64 {
	var actual, predicted []float64
	for i := range x {
		if i >= len(y) {
			break
		}
		p := line.Predict(x[i])
		if !finite(y[i]) || !finite(p) {
			continue
		}
		actual = append(actual, y[i])
		predicted = append(predicted, p)
	}

	r2 := rSquared(predicted, actual)
	if math.IsNaN(r2) || r2 < 0 {
		r2 = 0
	}
	return numeric.RoundFloat(r2*100, 2)
}

// Extrapolate predicts the positions lastIndex+1 .. lastIndex+horizon.
func (m *Model) Extrapolate(line models.TrendLine, lastIndex float64, horizon int) []float64 {
	if horizon <= 0 {
		return []float64{}
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = line.Predict(lastIndex + float64(i+1))
	}
	return out
}

// rSquared is R² with constant actuals forced finite: 1 for an exact fit, 0 otherwise.
// Fewer than two pairs have no defined score and yield NaN.
func rSquared(predicted, actual []float64) float64 {
	if len(actual) < 2 {
		return math.NaN()
	}

	mean := stat.Mean(actual, nil)
	var ssTot, ssRes float64
	for i, a := range actual {
		ssTot += (a - mean) * (a - mean)
		ssRes += (a - predicted[i]) * (a - predicted[i])
	}
	if ssTot == 0 {
		if ssRes == 0 {
			return 1
		}
		return 0
	}
	return stat.RSquaredFrom(predicted, actual, nil)
}

func finitePairs(x, y []float64) ([]float64, []float64) {
	n := len(x)
	if len(y) < n {
		n = len(y)
	}
	xs := make([]float64, 0, n)
	ys := make([]float64, 0, n)
	for i := 0; i < n; i++ {
		if finite(x[i]) && finite(y[i]) {
			xs = append(xs, x[i])
			ys = append(ys, y[i])
		}
	}
	return xs, ys
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

var _ interfaces.TrendModel = (*Model)(nil)
