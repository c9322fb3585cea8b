package dataprocessing

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestWeekEnding(t *testing.T) {
	tests := []struct {
		name string
		day  time.Time
		want time.Time
	}{
		{"monday", date(2024, 1, 1), date(2024, 1, 7)},
		{"saturday", date(2024, 1, 6), date(2024, 1, 7)},
		{"sunday is its own week end", date(2024, 1, 7), date(2024, 1, 7)},
		{"across month", date(2024, 1, 29), date(2024, 2, 4)},
		{"across year", date(2024, 12, 30), date(2025, 1, 5)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := weekEnding(tt.day)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, time.Sunday, got.Weekday())
		})
	}
}

func TestTotalCalendarWeeks(t *testing.T) {
	tests := []struct {
		name        string
		first, last time.Time
		want        int
	}{
		{"single day", date(2024, 1, 3), date(2024, 1, 3), 1},
		{"monday to wednesday without a sunday", date(2024, 1, 1), date(2024, 1, 3), 1},
		{"same week", date(2024, 1, 1), date(2024, 1, 7), 1},
		{"sunday then monday", date(2024, 1, 7), date(2024, 1, 8), 2},
		{"three mondays", date(2024, 1, 1), date(2024, 1, 15), 3},
		{"partial weeks at both ends", date(2024, 1, 6), date(2024, 1, 22), 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, totalCalendarWeeks(tt.first, tt.last))
		})
	}
}

func TestCalendarWeeks(t *testing.T) {
	dates := []time.Time{date(2024, 1, 1), date(2024, 1, 7), date(2024, 1, 15), date(2024, 1, 16)}
	assert.Equal(t, 2, calendarWeeks(dates))
	assert.Equal(t, 0, calendarWeeks(nil))
}

func TestTotalDays(t *testing.T) {
	assert.Equal(t, 1, totalDays(date(2024, 1, 1), date(2024, 1, 1)))
	assert.Equal(t, 15, totalDays(date(2024, 1, 1), date(2024, 1, 15)))
	assert.Equal(t, 367, totalDays(date(2024, 1, 1), date(2025, 1, 1)), "leap year")
}

func TestRollingGaps(t *testing.T) {
	tests := []struct {
		name        string
		dates       []time.Time
		wantPeriods int
		wantGaps    int
	}{
		{
			name:        "weekly scans leave no gap",
			dates:       []time.Time{date(2024, 1, 1), date(2024, 1, 8), date(2024, 1, 15)},
			wantPeriods: 9,
			wantGaps:    0,
		},
		{
			name:        "two week hole",
			dates:       []time.Time{date(2024, 1, 2), date(2024, 1, 17)},
			wantPeriods: 10,
			wantGaps:    8,
		},
		{
			name:        "exactly one window",
			dates:       []time.Time{date(2024, 1, 1), date(2024, 1, 7)},
			wantPeriods: 1,
			wantGaps:    0,
		},
		{
			name:        "range shorter than a window",
			dates:       []time.Time{date(2024, 1, 1), date(2024, 1, 3)},
			wantPeriods: -3,
			wantGaps:    0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			first, last := tt.dates[0], tt.dates[len(tt.dates)-1]
			periods, gaps := rollingGaps(tt.dates, first, last)
			assert.Equal(t, tt.wantPeriods, periods)
			assert.Equal(t, tt.wantGaps, gaps)
		})
	}
}
