// Package models defines data structures for trendcast
package models

import (
	"math"
	"sort"
	"time"
)

// OHLCV column names every source must provide after normalization.
const (
	ColumnOpen   = "Open"
	ColumnHigh   = "High"
	ColumnLow    = "Low"
	ColumnClose  = "Close"
	ColumnVolume = "Volume"
)

// RequiredColumns lists the columns the feature builder needs, in reporting order.
var RequiredColumns = []string{ColumnClose, ColumnOpen, ColumnHigh, ColumnLow, ColumnVolume}

// ColumnKey names a column. Group is empty for flat sources; grouped sources
// (one column set per symbol) carry the symbol there.
type ColumnKey struct {
	Field string `json:"field"`
	Group string `json:"group,omitempty"`
}

// Frame is a date-indexed, column-major table of daily values.
// A NaN cell means the source had no value for that day.
type Frame struct {
	Index   []time.Time `json:"index"`
	Columns []ColumnKey `json:"columns"`
	Data    [][]float64 `json:"-"` // Data[column][row]
}

// NewFrame allocates an empty frame with the given columns.
func NewFrame(columns ...ColumnKey) *Frame {
	return &Frame{
		Columns: columns,
		Data:    make([][]float64, len(columns)),
	}
}

// Len returns the number of rows.
func (f *Frame) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Index)
}

// Empty reports whether the frame has no rows.
func (f *Frame) Empty() bool {
	return f.Len() == 0
}

// Grouped reports whether any column carries a group qualifier.
func (f *Frame) Grouped() bool {
	for _, c := range f.Columns {
		if c.Group != "" {
			return true
		}
	}
	return false
}

// AppendRow adds one row; values are given in column order.
func (f *Frame) AppendRow(date time.Time, values ...float64) {
	f.Index = append(f.Index, date)
	for i := range f.Columns {
		v := math.NaN()
		if i < len(values) {
			v = values[i]
		}
		f.Data[i] = append(f.Data[i], v)
	}
}

// Column returns the values of the first ungrouped column with the given name.
func (f *Frame) Column(name string) ([]float64, bool) {
	for i, c := range f.Columns {
		if c.Group == "" && c.Field == name {
			return f.Data[i], true
		}
	}
	return nil, false
}

// SortedUnique returns a copy ordered by date ascending with duplicate dates
// removed; the first row seen for a date wins.
func (f *Frame) SortedUnique() *Frame {
	order := make([]int, f.Len())
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return f.Index[order[a]].Before(f.Index[order[b]])
	})

	out := NewFrame(f.Columns...)
	for _, row := range order {
		d := f.Index[row]
		if n := len(out.Index); n > 0 && out.Index[n-1].Equal(d) {
			continue
		}
		out.Index = append(out.Index, d)
		for c := range f.Columns {
			out.Data[c] = append(out.Data[c], f.Data[c][row])
		}
	}
	return out
}

// Before returns a copy keeping only rows dated strictly before end.
// Rows are assumed sorted by date.
func (f *Frame) Before(end time.Time) *Frame {
	n := sort.Search(f.Len(), func(i int) bool { return !f.Index[i].Before(end) })
	out := NewFrame(f.Columns...)
	out.Index = append(out.Index, f.Index[:n]...)
	for c := range f.Columns {
		out.Data[c] = append(out.Data[c], f.Data[c][:n]...)
	}
	return out
}

// DailyBar is one day's open/high/low/close/volume record.
type DailyBar struct {
	Date   time.Time `json:"date"`
	Open   float64   `json:"open"`
	High   float64   `json:"high"`
	Low    float64   `json:"low"`
	Close  float64   `json:"close"`
	Volume float64   `json:"volume"`
}

// FrameFromBars builds a flat OHLCV frame from bars.
func FrameFromBars(bars []DailyBar) *Frame {
	f := NewFrame(
		ColumnKey{Field: ColumnOpen},
		ColumnKey{Field: ColumnHigh},
		ColumnKey{Field: ColumnLow},
		ColumnKey{Field: ColumnClose},
		ColumnKey{Field: ColumnVolume},
	)
	for _, b := range bars {
		f.AppendRow(b.Date, b.Open, b.High, b.Low, b.Close, b.Volume)
	}
	return f
}
