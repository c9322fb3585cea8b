package dataprocessing

import (
	"math"
	"sort"
	"strconv"

	"github.com/samber/lo"
	"gonum.org/v1/gonum/stat"

	"scanadherence/internal/config"
	"scanadherence/pkg/contracts/domain"
)

var metricScale = math.Pow10(config.MetricPrecision)

// round2 scales, rounds half to even and scales back, the way the DN_MSI
// statistics are rounded. NaN stays NaN.
func round2(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	return math.RoundToEven(x*metricScale) / metricScale
}

// roundRate rounds the exact decimal value of x to the metric precision,
// so 2/80 gives 0.03 and 2.675 gives 2.67. Used for the rate metrics.
func roundRate(x float64) float64 {
	if math.IsNaN(x) || math.IsInf(x, 0) {
		return x
	}
	r, err := strconv.ParseFloat(strconv.FormatFloat(x, 'f', config.MetricPrecision, 64), 64)
	if err != nil {
		return round2(x)
	}
	return r
}

// ratio returns num/den, or 0 when den is not positive
func ratio(num, den float64) float64 {
	if den <= 0 {
		return 0
	}
	return num / den
}

// qualityStats are the DN_MSI descriptive statistics of one group
type qualityStats struct {
	Mean   float64
	SD     float64
	Median float64
	IQR    float64
}

// dnmsiValues returns the present DN_MSI scores of records
func dnmsiValues(records []domain.ScanRecord) []float64 {
	return lo.FilterMap(records, func(r domain.ScanRecord, _ int) (float64, bool) {
		return r.DNMSI, r.HasDNMSI()
	})
}

// describe computes the rounded quality statistics of values. Missing
// statistics are NaN: every one for no values, the SD for a single value.
func describe(values []float64) qualityStats {
	nan := math.NaN()
	if len(values) == 0 {
		return qualityStats{Mean: nan, SD: nan, Median: nan, IQR: nan}
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	mean, sd := stat.MeanStdDev(sorted, nil)
	if len(sorted) < 2 {
		sd = nan
	}

	return qualityStats{
		Mean:   round2(mean),
		SD:     round2(sd),
		Median: round2(quantile(sorted, 0.5)),
		IQR:    round2(quantile(sorted, 0.75) - quantile(sorted, 0.25)),
	}
}

// quantile interpolates linearly between the closest ranks of sorted,
// placing p at position (n-1)*p
func quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	pos := float64(n-1) * p
	lower := int(math.Floor(pos))
	upper := int(math.Ceil(pos))
	if lower == upper {
		return sorted[lower]
	}
	frac := pos - float64(lower)
	return sorted[lower] + (sorted[upper]-sorted[lower])*frac
}

// studyEye rounds the mean inclusion flag half to even
func studyEye(records []domain.ScanRecord) int {
	flags := lo.Map(records, func(r domain.ScanRecord, _ int) float64 {
		return float64(r.IsIncluded)
	})
	return int(math.RoundToEven(stat.Mean(flags, nil)))
}
