package testutil

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

// AOHeader is the raw sheet layout of the AO study export
var AOHeader = []string{
	"StudySubjectID", "Eye", "ScanStartTime", "DN_MSI",
	"UpdateLongiPositions", "EligibleQuant", "Isincluded", "UniqueIdentifier",
}

// RGXHeader is the raw sheet layout of the RGX study export
var RGXHeader = []string{"StudySubjectID", "Eye", "ScanStartTime", "DN_MSI"}

// Scan describes one raw scan row of a fixture sheet. Start may be left zero
// when StartText is set; DNMSI nil leaves the cell blank.
type Scan struct {
	SubjectID        string
	Eye              string
	Start            time.Time
	StartText        string
	DNMSI            interface{}
	UniqueIdentifier string
	IsIncluded       int
}

func (s Scan) start() interface{} {
	if s.StartText != "" {
		return s.StartText
	}
	return s.Start
}

// AORow renders the scan in AOHeader order
func (s Scan) AORow() []interface{} {
	return []interface{}{
		s.SubjectID, s.Eye, s.start(), s.DNMSI,
		1, 1, s.IsIncluded, s.UniqueIdentifier,
	}
}

// RGXRow renders the scan in RGXHeader order
func (s Scan) RGXRow() []interface{} {
	return []interface{}{s.SubjectID, s.Eye, s.start(), s.DNMSI}
}

// Day returns noon UTC of the given date, clear of day-boundary rounding
func Day(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 12, 0, 0, 0, time.UTC)
}

// Series returns n scans of one patient eye starting at start, step days apart
func Series(subject, eye string, start time.Time, stepDays, n int, dnmsi float64) []Scan {
	scans := make([]Scan, n)
	for i := range scans {
		scans[i] = Scan{
			SubjectID: subject,
			Eye:       eye,
			Start:     start.AddDate(0, 0, i*stepDays),
			DNMSI:     dnmsi,
		}
	}
	return scans
}

// WorkbookBuilder assembles an xlsx fixture in a test temp dir
type WorkbookBuilder struct {
	t      testing.TB
	f      *excelize.File
	sheets int
}

// NewWorkbook starts an empty fixture workbook
func NewWorkbook(t testing.TB) *WorkbookBuilder {
	t.Helper()
	f := excelize.NewFile()
	t.Cleanup(func() { f.Close() })
	return &WorkbookBuilder{t: t, f: f}
}

// Sheet adds a sheet with header and rows
func (b *WorkbookBuilder) Sheet(name string, header []string, rows ...[]interface{}) *WorkbookBuilder {
	b.t.Helper()

	if b.sheets == 0 {
		require.NoError(b.t, b.f.SetSheetName(b.f.GetSheetName(0), name))
	} else {
		_, err := b.f.NewSheet(name)
		require.NoError(b.t, err)
	}
	b.sheets++

	if header != nil {
		cells := make([]interface{}, len(header))
		for i, h := range header {
			cells[i] = h
		}
		require.NoError(b.t, b.f.SetSheetRow(name, "A1", &cells))
	}

	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(b.t, err)
		values := row
		require.NoError(b.t, b.f.SetSheetRow(name, cell, &values))
	}
	return b
}

// AOSheet adds an AO-layout raw sheet
func (b *WorkbookBuilder) AOSheet(name string, scans ...Scan) *WorkbookBuilder {
	b.t.Helper()
	rows := make([][]interface{}, len(scans))
	for i, s := range scans {
		rows[i] = s.AORow()
	}
	return b.Sheet(name, AOHeader, rows...)
}

// RGXSheet adds an RGX-layout raw sheet
func (b *WorkbookBuilder) RGXSheet(name string, scans ...Scan) *WorkbookBuilder {
	b.t.Helper()
	rows := make([][]interface{}, len(scans))
	for i, s := range scans {
		rows[i] = s.RGXRow()
	}
	return b.Sheet(name, RGXHeader, rows...)
}

// Save writes the workbook to a fresh temp dir and returns its path
func (b *WorkbookBuilder) Save() string {
	b.t.Helper()
	path := filepath.Join(b.t.TempDir(), "scans.xlsx")
	require.NoError(b.t, b.f.SaveAs(path))
	return path
}

// ReadSheet returns the raw cell values of sheet, header row included
func ReadSheet(t testing.TB, path, sheet string) [][]string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	require.NoError(t, err)
	return rows
}

// SheetList returns the sheet names of the workbook at path
func SheetList(t testing.TB, path string) []string {
	t.Helper()
	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()
	return f.GetSheetList()
}
