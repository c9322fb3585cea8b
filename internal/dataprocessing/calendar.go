package dataprocessing

import (
	"math"
	"sort"
	"time"

	"github.com/samber/lo"

	"scanadherence/internal/config"
	"scanadherence/pkg/contracts/domain"
)

// scanDates returns the sorted distinct calendar dates of records
func scanDates(records []domain.ScanRecord) []time.Time {
	dates := lo.Uniq(lo.Map(records, func(r domain.ScanRecord, _ int) time.Time {
		return r.ScanDate()
	}))
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates
}

// daysBetween counts whole calendar days from a to b. Both are UTC dates.
func daysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// totalDays is the inclusive length in days of the range first..last
func totalDays(first, last time.Time) int {
	return daysBetween(first, last) + 1
}

// weekEnding returns the Sunday closing the Monday-Sunday week holding d
func weekEnding(d time.Time) time.Time {
	offset := (7 - int(d.Weekday())) % 7
	return d.AddDate(0, 0, offset)
}

// totalCalendarWeeks counts the Monday-Sunday weeks touched by first..last,
// partial weeks at either end included
func totalCalendarWeeks(first, last time.Time) int {
	return daysBetween(weekEnding(first), weekEnding(last))/7 + 1
}

// calendarWeeks counts the distinct weeks holding at least one date
func calendarWeeks(dates []time.Time) int {
	return len(lo.Uniq(lo.Map(dates, func(d time.Time, _ int) time.Time {
		return weekEnding(d)
	})))
}

// rollingGaps slides a window of config.RollingWindowDays over first..last
// one day at a time and counts windows holding none of dates. periods is
// the number of window positions and is not positive for short ranges.
func rollingGaps(dates []time.Time, first, last time.Time) (periods, gaps int) {
	days := totalDays(first, last)
	periods = days - (config.RollingWindowDays - 1)
	if periods <= 0 {
		return periods, 0
	}

	// covered[i] is the number of scan dates in the first i days
	covered := make([]int, days+1)
	hit := make([]bool, days)
	for _, d := range dates {
		if off := daysBetween(first, d); off >= 0 && off < days {
			hit[off] = true
		}
	}
	for i, h := range hit {
		covered[i+1] = covered[i]
		if h {
			covered[i+1]++
		}
	}

	for start := 0; start < periods; start++ {
		if covered[start+config.RollingWindowDays]-covered[start] == 0 {
			gaps++
		}
	}
	return periods, gaps
}
