// Package numeric converts loosely typed values into JSON-safe numbers.
//
// Every value crossing the JSON boundary goes through Float or Int. Both return
// the guregu/null types, whose invalid state marshals as JSON null, so NaN and
// ±Inf can never reach an encoder.
package numeric

import (
	"encoding/json"
	"math"
	"strconv"

	"github.com/guregu/null/v6"
	"github.com/shopspring/decimal"

	"github.com/bobmcallan/trendcast/internal/common"
)

// IntTolerance is how close a float must be to an integer to be accepted by Int.
const IntTolerance = 1e-9

// Sanitizer performs the conversions and reports rejected fractional integers.
type Sanitizer struct {
	logger *common.Logger
}

// NewSanitizer creates a sanitizer that logs to logger (silent when nil).
func NewSanitizer(logger *common.Logger) *Sanitizer {
	if logger == nil {
		logger = common.NewSilentLogger()
	}
	return &Sanitizer{logger: logger}
}

var silent = NewSanitizer(nil)

// Float converts v to a finite float or the missing marker.
func Float(v any) null.Float { return silent.Float(v) }

// Int converts v to an integer or the missing marker.
func Int(v any) null.Int { return silent.Int(v) }

// Float converts v to a finite float or the missing marker.
func (s *Sanitizer) Float(v any) null.Float {
	f, ok := coerce(v)
	if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
		return null.Float{}
	}
	return null.FloatFrom(f)
}

// Int converts v to an integer when it is within IntTolerance of one.
// A value with a significant fractional part is rejected rather than truncated.
func (s *Sanitizer) Int(v any) null.Int {
	f := s.Float(v)
	if !f.Valid {
		return null.Int{}
	}
	r := math.Round(f.Float64)
	if math.Abs(f.Float64-r) >= IntTolerance {
		s.logger.Warn().Float64("value", f.Float64).Msg("Refusing to convert non-integer float to int")
		return null.Int{}
	}
	// float64(math.MaxInt64) is 2^63, which does not fit
	if r >= math.MaxInt64 || r < math.MinInt64 {
		return null.Int{}
	}
	return null.IntFrom(int64(r))
}

// Floats sanitizes a series element-wise.
func (s *Sanitizer) Floats(values []float64) []null.Float {
	out := make([]null.Float, len(values))
	for i, v := range values {
		out[i] = s.Float(v)
	}
	return out
}

// Ints sanitizes a series element-wise as integers.
func (s *Sanitizer) Ints(values []float64) []null.Int {
	out := make([]null.Int, len(values))
	for i, v := range values {
		out[i] = s.Int(v)
	}
	return out
}

// Round rounds a valid value to the given decimal places. See RoundFloat.
func Round(v null.Float, places int32) null.Float {
	if !v.Valid {
		return v
	}
	return null.FloatFrom(RoundFloat(v.Float64, places))
}

// RoundFloat rounds a finite float to the given decimal places using its exact
// binary value, so 2.675 (stored as 2.67499...) rounds down. Exact ties go to even.
func RoundFloat(f float64, places int32) float64 {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return f
	}
	d, err := decimal.NewFromString(strconv.FormatFloat(f, 'f', int(places), 64))
	if err != nil {
		return f
	}
	return d.InexactFloat64()
}

func coerce(v any) (float64, bool) {
	switch n := v.(type) {
	case nil:
		return 0, false
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int8:
		return float64(n), true
	case int16:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint:
		return float64(n), true
	case uint8:
		return float64(n), true
	case uint16:
		return float64(n), true
	case uint32:
		return float64(n), true
	case uint64:
		return float64(n), true
	case bool:
		if n {
			return 1, true
		}
		return 0, true
	case *float64:
		if n == nil {
			return 0, false
		}
		return *n, true
	case json.Number:
		f, err := strconv.ParseFloat(string(n), 64)
		return f, err == nil
	case decimal.Decimal:
		return n.InexactFloat64(), true
	case null.Float:
		return n.Float64, n.Valid
	case null.Int:
		return float64(n.Int64), n.Valid
	default:
		// strings and everything else are not numeric
		return 0, false
	}
}
