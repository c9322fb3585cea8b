package dataprocessing

import (
	"log/slog"
	"math"
	"sort"

	"scanadherence/pkg/contracts/domain"
)

// Summarizer computes the adherence and image-quality metrics of one
// patient-eye group
type Summarizer struct {
	logger *slog.Logger
	opts   PipelineOptions
}

// NewSummarizer creates a summarizer for the pipeline named in opts
func NewSummarizer(logger *slog.Logger, opts PipelineOptions) *Summarizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Summarizer{logger: logger, opts: opts}
}

// Summarize computes the SummaryRecord of a non-empty group.
// Callers filter out empty groups beforehand.
func (s *Summarizer) Summarize(group domain.PatientEyeGroup) domain.SummaryRecord {
	records := sortByScanStart(group.Records)
	first := records[0].ScanDate()
	last := records[len(records)-1].ScanDate()

	rec := domain.NewSummaryRecord(group.Key)
	rec.NumberOfTests = len(records)
	rec.TotalDays = totalDays(first, last)
	rec.TestingRate = roundRate(ratio(float64(rec.NumberOfTests), float64(rec.TotalDays)))
	rec.TotalCalendarWeeks = totalCalendarWeeks(first, last)

	quality := describe(dnmsiValues(records))
	rec.MeanDNMSI = quality.Mean

	switch s.opts.Pipeline {
	case domain.PipelineAO:
		rec.StudyEye = studyEye(records)
		rec.AdherenceRate = roundRate(ratio(float64(rec.NumberOfTests), float64(rec.TotalCalendarWeeks)))
		if s.opts.IncludeQualitySpread {
			rec.SDDNMSI = quality.SD
			rec.MedianDNMSI = quality.Median
			rec.IQRDNMSI = quality.IQR
		}

	case domain.PipelineRGX:
		dates := scanDates(records)
		rec.CalendarWeeks = calendarWeeks(dates)
		rec.WeeklyAdherenceRate = roundRate(math.Min(
			ratio(float64(rec.CalendarWeeks), float64(rec.TotalCalendarWeeks))*100, 100))

		rec.RollingPeriods, rec.GapWindows = rollingGaps(dates, first, last)
		rec.NoTestPeriodsRatio = roundRate(ratio(float64(rec.GapWindows), float64(rec.RollingPeriods)))

		rec.SDDNMSI = quality.SD
		rec.MedianDNMSI = quality.Median
		rec.IQRDNMSI = quality.IQR
	}

	return rec
}

// sortByScanStart returns a copy of records in ascending scan order.
// Equal timestamps keep their sheet order.
func sortByScanStart(records []domain.ScanRecord) []domain.ScanRecord {
	sorted := append([]domain.ScanRecord(nil), records...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ScanStart.Before(sorted[j].ScanStart)
	})
	return sorted
}
