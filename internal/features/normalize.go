// Package features derives the regression feature, target and display series
// from a daily price frame.
package features

import (
	"github.com/bobmcallan/trendcast/internal/models"
)

// Normalize flattens grouped columns into unique single names.
// Walking the columns in order, a column takes its bare field name when that
// name is still free, otherwise "Field_Group". Flat frames are returned as is.
func Normalize(frame *models.Frame) *models.Frame {
	if frame == nil || !frame.Grouped() {
		return frame
	}

	taken := make(map[string]bool, len(frame.Columns))
	columns := make([]models.ColumnKey, len(frame.Columns))
	for i, c := range frame.Columns {
		name := c.Field
		if taken[name] {
			name = c.Field + "_" + c.Group
		}
		taken[name] = true
		columns[i] = models.ColumnKey{Field: name}
	}

	return &models.Frame{
		Index:   frame.Index,
		Columns: columns,
		Data:    frame.Data,
	}
}
