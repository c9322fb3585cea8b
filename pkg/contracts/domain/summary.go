package domain

import "math"

// SummaryRecord holds the adherence and image-quality metrics of one
// patient-eye group. Metrics a pipeline does not compute are NaN.
type SummaryRecord struct {
	PatientEye          string  `json:"patient_eye"`
	StudyEye            int     `json:"study_eye"`
	TotalDays           int     `json:"total_days"`
	NumberOfTests       int     `json:"number_of_tests"`
	TestingRate         float64 `json:"testing_rate"`
	TotalCalendarWeeks  int     `json:"total_calendar_weeks"`
	CalendarWeeks       int     `json:"calendar_weeks"`
	AdherenceRate       float64 `json:"adherence_rate"`
	WeeklyAdherenceRate float64 `json:"weekly_adherence_rate"`
	RollingPeriods      int     `json:"rolling_periods"`
	GapWindows          int     `json:"gap_windows"`
	NoTestPeriodsRatio  float64 `json:"no_test_periods_ratio"`
	MeanDNMSI           float64 `json:"mean_dn_msi"`
	SDDNMSI             float64 `json:"sd_dn_msi"`
	MedianDNMSI         float64 `json:"median_dn_msi"`
	IQRDNMSI            float64 `json:"iqr_dn_msi"`
}

// NewSummaryRecord returns a record for key with every optional metric missing
func NewSummaryRecord(key string) SummaryRecord {
	nan := math.NaN()
	return SummaryRecord{
		PatientEye:          key,
		AdherenceRate:       nan,
		WeeklyAdherenceRate: nan,
		NoTestPeriodsRatio:  nan,
		MeanDNMSI:           nan,
		SDDNMSI:             nan,
		MedianDNMSI:         nan,
		IQRDNMSI:            nan,
	}
}

// SummaryColumn describes one output column and how to read it from a record
type SummaryColumn struct {
	Header string
	Value  func(SummaryRecord) interface{}
}

// SummaryTable is an ordered set of summary records bound for one output sheet
type SummaryTable struct {
	Name    string          `json:"name"`
	Columns []SummaryColumn `json:"-"`
	Records []SummaryRecord `json:"records"`
}

// Keys returns the PatientEye keys of the table in row order
func (t SummaryTable) Keys() []string {
	keys := make([]string, len(t.Records))
	for i, r := range t.Records {
		keys[i] = r.PatientEye
	}
	return keys
}

// Headers returns the header row of the table
func (t SummaryTable) Headers() []string {
	headers := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		headers[i] = c.Header
	}
	return headers
}

// Rows renders every record into cell values using the column layout.
// NaN floats are rendered as nil so they are written as empty cells.
func (t SummaryTable) Rows() [][]interface{} {
	rows := make([][]interface{}, 0, len(t.Records))
	for _, rec := range t.Records {
		row := make([]interface{}, len(t.Columns))
		for i, col := range t.Columns {
			v := col.Value(rec)
			if f, ok := v.(float64); ok && (math.IsNaN(f) || math.IsInf(f, 0)) {
				v = nil
			}
			row[i] = v
		}
		rows = append(rows, row)
	}
	return rows
}
