package trend

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestClampHorizon(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want int
	}{
		{"in range", `45`, 45},
		{"below minimum", `3`, 30},
		{"above maximum", `200`, 30},
		{"lower bound", `7`, 7},
		{"upper bound", `180`, 180},
		{"fraction truncated", `45.9`, 45},
		{"negative", `-10`, 30},
		{"numeric string", `"60"`, 60},
		{"padded string", `" 60 "`, 60},
		{"non numeric string", `"abc"`, 30},
		{"decimal string", `"45.5"`, 30},
		{"null", `null`, 30},
		{"bool", `true`, 30},
		{"object", `{"days":45}`, 30},
		{"absent", ``, 30},
		{"huge", `1e300`, 30},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClampHorizon(json.RawMessage(tt.raw)))
		})
	}
}

func TestHorizonPolicy_ClampString(t *testing.T) {
	p := DefaultHorizon
	assert.Equal(t, 45, p.ClampString("45"))
	assert.Equal(t, 30, p.ClampString(""))
	assert.Equal(t, 30, p.ClampString("abc"))
	assert.Equal(t, 30, p.ClampString("3"))

	custom := HorizonPolicy{Min: 1, Max: 10, Default: 5}
	assert.Equal(t, 1, custom.Clamp(json.RawMessage(`1`)))
	assert.Equal(t, 5, custom.Clamp(json.RawMessage(`11`)))
}

func TestFutureDates(t *testing.T) {
	last := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC) // Friday

	dates := FutureDates(last, 5)
	assert.Equal(t, []string{"2024-03-02", "2024-03-03", "2024-03-04", "2024-03-05", "2024-03-06"}, dates)

	// month and leap-day rollover
	assert.Equal(t, []string{"2024-02-29", "2024-03-01"}, FutureDates(time.Date(2024, 2, 28, 0, 0, 0, 0, time.UTC), 2))

	assert.Empty(t, FutureDates(last, 0))
}
