package dataprocessing

import "scanadherence/pkg/contracts/domain"

// Output headers
const (
	HeaderPatientEye          = "Patient_Eye"
	HeaderStudyEye            = "Study_Eye"
	HeaderTotalDays           = "Total Days"
	HeaderNumberOfTests       = "Number of Tests"
	HeaderTestingRate         = "Testing Rate"
	HeaderTotalCalendarWeeks  = "Total Calendar Weeks"
	HeaderAdherenceRate       = "Adherence_Rate"
	HeaderWeeklyAdherenceRate = "Weekly Adherence Rate (%)"
	HeaderNoTestPeriodsRatio  = "No-Test Periods Ratio"
	HeaderMeanDNMSI           = "Mean DN_MSI"
	HeaderSDDNMSI             = "SD DN_MSI"
	HeaderMedianDNMSI         = "Median DN_MSI"
	HeaderIQRDNMSI            = "IQR DN_MSI"
)

var (
	colPatientEye = domain.SummaryColumn{Header: HeaderPatientEye, Value: func(r domain.SummaryRecord) interface{} { return r.PatientEye }}
	colStudyEye   = domain.SummaryColumn{Header: HeaderStudyEye, Value: func(r domain.SummaryRecord) interface{} { return r.StudyEye }}
	colTotalDays  = domain.SummaryColumn{Header: HeaderTotalDays, Value: func(r domain.SummaryRecord) interface{} { return r.TotalDays }}
	colTests      = domain.SummaryColumn{Header: HeaderNumberOfTests, Value: func(r domain.SummaryRecord) interface{} { return r.NumberOfTests }}
	colRate       = domain.SummaryColumn{Header: HeaderTestingRate, Value: func(r domain.SummaryRecord) interface{} { return r.TestingRate }}
	colWeeks      = domain.SummaryColumn{Header: HeaderTotalCalendarWeeks, Value: func(r domain.SummaryRecord) interface{} { return r.TotalCalendarWeeks }}
	colAdherence  = domain.SummaryColumn{Header: HeaderAdherenceRate, Value: func(r domain.SummaryRecord) interface{} { return r.AdherenceRate }}
	colWeekly     = domain.SummaryColumn{Header: HeaderWeeklyAdherenceRate, Value: func(r domain.SummaryRecord) interface{} { return r.WeeklyAdherenceRate }}
	colNoTest     = domain.SummaryColumn{Header: HeaderNoTestPeriodsRatio, Value: func(r domain.SummaryRecord) interface{} { return r.NoTestPeriodsRatio }}
	colMean       = domain.SummaryColumn{Header: HeaderMeanDNMSI, Value: func(r domain.SummaryRecord) interface{} { return r.MeanDNMSI }}
	colSD         = domain.SummaryColumn{Header: HeaderSDDNMSI, Value: func(r domain.SummaryRecord) interface{} { return r.SDDNMSI }}
	colMedian     = domain.SummaryColumn{Header: HeaderMedianDNMSI, Value: func(r domain.SummaryRecord) interface{} { return r.MedianDNMSI }}
	colIQR        = domain.SummaryColumn{Header: HeaderIQRDNMSI, Value: func(r domain.SummaryRecord) interface{} { return r.IQRDNMSI }}
)

// SummaryColumns returns the output column layout of a pipeline
func SummaryColumns(opts PipelineOptions) []domain.SummaryColumn {
	if opts.Pipeline == domain.PipelineRGX {
		return []domain.SummaryColumn{
			colPatientEye, colRate, colWeekly, colNoTest,
			colMean, colSD, colMedian, colIQR,
		}
	}

	cols := []domain.SummaryColumn{
		colPatientEye, colStudyEye, colTotalDays, colTests,
		colRate, colWeeks, colAdherence, colMean,
	}
	if opts.IncludeQualitySpread {
		cols = append(cols, colSD, colMedian, colIQR)
	}
	return cols
}
