package trend

import (
	"bytes"
	"encoding/json"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/bobmcallan/trendcast/internal/models"
)

// HorizonPolicy bounds the number of days to project.
type HorizonPolicy struct {
	Min     int
	Max     int
	Default int
}

// DefaultHorizon accepts 7 to 180 days and falls back to 30.
var DefaultHorizon = HorizonPolicy{Min: 7, Max: 180, Default: 30}

// Clamp parses a raw JSON request value and applies the bounds.
// Numbers are truncated toward zero, numeric strings are parsed as integers.
// Absent, unparseable or out-of-range values give Default.
func (p HorizonPolicy) Clamp(raw json.RawMessage) int {
	v, ok := parseRaw(raw)
	return p.apply(v, ok)
}

// ClampString applies the bounds to a query-string value.
func (p HorizonPolicy) ClampString(s string) int {
	v, ok := parseString(s)
	return p.apply(v, ok)
}

func (p HorizonPolicy) apply(v int, ok bool) int {
	if !ok || v < p.Min || v > p.Max {
		return p.Default
	}
	return v
}

// ClampHorizon applies DefaultHorizon to a raw JSON value.
func ClampHorizon(raw json.RawMessage) int {
	return DefaultHorizon.Clamp(raw)
}

func parseRaw(raw json.RawMessage) (int, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return 0, false
	}

	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return 0, false
		}
		return parseString(s)
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		f, err := strconv.ParseFloat(string(raw), 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return 0, false
		}
		f = math.Trunc(f)
		if f > math.MaxInt32 || f < math.MinInt32 {
			return 0, false
		}
		return int(f), true
	default:
		// null, booleans, arrays, objects
		return 0, false
	}
}

func parseString(s string) (int, bool) {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return v, true
}

// FutureDates returns the horizon calendar days following last as YYYY-MM-DD.
// Weekends and holidays are not skipped.
func FutureDates(last time.Time, horizon int) []string {
	if horizon <= 0 {
		return []string{}
	}
	out := make([]string, horizon)
	for i := range out {
		out[i] = last.AddDate(0, 0, i+1).Format(models.DateLayout)
	}
	return out
}
