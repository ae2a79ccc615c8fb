package analytics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseDate(t *testing.T) {
	tests := []struct {
		in     string
		want   time.Time
		wantOK bool
	}{
		{"2024-01-05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"2024-01-05T10:30:00", time.Date(2024, 1, 5, 10, 30, 0, 0, time.UTC), true},
		{"2024/01/05", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"01/05/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"1/5/2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"05-Jan-2024", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"Jan 2024", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"2024-01", time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), true},
		{"  2024-01-05  ", time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), true},
		{"", time.Time{}, false},
		{"not a date", time.Time{}, false},
		{"2024-13-40", time.Time{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseDate(tt.in)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.True(t, tt.want.Equal(got), "got %v want %v", got, tt.want)
			}
		})
	}
}

func TestParseAmount(t *testing.T) {
	tests := []struct {
		in     string
		want   float64
		wantOK bool
	}{
		{"100", 100, true},
		{"100.5", 100.5, true},
		{"-3.25", -3.25, true},
		{"1,234.56", 1234.56, true},
		{" 42 ", 42, true},
		{"", 0, false},
		{"abc", 0, false},
		{"12x", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ParseAmount(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFloorMonth(t *testing.T) {
	in := time.Date(2024, 6, 17, 13, 45, 1, 0, time.FixedZone("X", 3600))
	got := FloorMonth(in)

	assert.Equal(t, time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC), got)
	assert.Equal(t, got, FloorMonth(got), "flooring is idempotent")
}
