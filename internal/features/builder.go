package features

import (
	"fmt"
	"strings"

	"github.com/bobmcallan/trendcast/internal/interfaces"
	"github.com/bobmcallan/trendcast/internal/models"
)

// Default moving-average windows.
const (
	DefaultShortWindow = 20
	DefaultLongWindow  = 50
)

// SchemaError reports required columns absent after normalization.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("missing columns: %s", strings.Join(e.Missing, ", "))
}

// Builder builds FeatureSets with the configured moving-average windows.
type Builder struct {
	ShortWindow int
	LongWindow  int
}

// NewBuilder creates a builder; non-positive windows fall back to 20/50.
func NewBuilder(shortWindow, longWindow int) *Builder {
	if shortWindow <= 0 {
		shortWindow = DefaultShortWindow
	}
	if longWindow <= 0 {
		longWindow = DefaultLongWindow
	}
	return &Builder{ShortWindow: shortWindow, LongWindow: longWindow}
}

// Build normalizes frame and extracts the index-aligned series.
func (b *Builder) Build(frame *models.Frame) (*models.FeatureSet, error) {
	if frame == nil {
		return nil, fmt.Errorf("nil frame")
	}
	flat := Normalize(frame)

	cols := make(map[string][]float64, len(models.RequiredColumns))
	var missing []string
	for _, name := range models.RequiredColumns {
		values, ok := flat.Column(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		cols[name] = values
	}
	if len(missing) > 0 {
		return nil, &SchemaError{Missing: missing}
	}

	n := flat.Len()
	for name, values := range cols {
		if len(values) != n {
			return nil, fmt.Errorf("column %s has %d values for %d rows", name, len(values), n)
		}
	}

	timeIndex := make([]float64, n)
	for i := range timeIndex {
		timeIndex[i] = float64(i)
	}

	closes := cols[models.ColumnClose]
	return &models.FeatureSet{
		Dates:       flat.Index,
		TimeIndex:   timeIndex,
		Open:        cols[models.ColumnOpen],
		High:        cols[models.ColumnHigh],
		Low:         cols[models.ColumnLow],
		Close:       closes,
		Volume:      cols[models.ColumnVolume],
		SMAShort:    MovingAverage(closes, b.ShortWindow),
		SMALong:     MovingAverage(closes, b.LongWindow),
		ShortWindow: b.ShortWindow,
		LongWindow:  b.LongWindow,
	}, nil
}

var _ interfaces.FeatureBuilder = (*Builder)(nil)
