package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"scanadherence/internal/errors"
	"scanadherence/internal/validation"
	"scanadherence/internal/workbook"
	"scanadherence/pkg/contracts/domain"
)

// scanTimeLayouts are the text forms accepted for ScanStartTime when the
// cell does not hold an Excel date serial
var scanTimeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"1/2/2006 15:04:05",
	"1/2/2006 15:04",
	"1/2/2006",
	"02-Jan-2006 15:04:05",
	"02-Jan-2006",
}

// LoadResult is the outcome of loading a raw scan sheet
type LoadResult struct {
	Records      []domain.ScanRecord
	RowsRead     int
	RowsExcluded int
}

// Loader turns raw sheet rows into immutable scan records
type Loader struct {
	logger *slog.Logger
	opts   PipelineOptions
}

// NewLoader creates a loader for one pipeline
func NewLoader(logger *slog.Logger, opts PipelineOptions) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{logger: logger, opts: opts}
}

// Load validates the sheet schema and builds one ScanRecord per kept row.
// The table itself is left untouched.
func (l *Loader) Load(ctx context.Context, table *workbook.Table) (*LoadResult, error) {
	if err := validation.RequireColumns(table.Sheet, table, RequiredColumns(l.opts.Pipeline)); err != nil {
		return nil, err
	}

	passthrough := l.passthroughColumns(table)
	result := &LoadResult{
		Records:  make([]domain.ScanRecord, 0, table.Len()),
		RowsRead: table.Len(),
	}

	for i, row := range table.Rows {
		// The prefix applies to the cell as stored, leading blanks included
		rawSubject := table.Value(row, domain.ColumnStudySubjectID)
		if !strings.HasPrefix(rawSubject, l.opts.SubjectPrefix) {
			result.RowsExcluded++
			continue
		}
		subject := strings.TrimSpace(rawSubject)

		rec, err := l.buildRecord(table, row, table.RowNumber(i), subject, passthrough)
		if err != nil {
			return nil, err
		}
		result.Records = append(result.Records, rec)
	}

	l.logger.DebugContext(ctx, "Loaded scan records",
		slog.String("sheet", table.Sheet),
		slog.Int("rows_read", result.RowsRead),
		slog.Int("rows_excluded", result.RowsExcluded),
		slog.Int("records", len(result.Records)))

	return result, nil
}

func (l *Loader) buildRecord(table *workbook.Table, row []string, rowNum int, subject string, passthrough []string) (domain.ScanRecord, error) {
	eye := strings.TrimSpace(table.Value(row, domain.ColumnEye))

	rawTime := table.Value(row, domain.ColumnScanStartTime)
	scanStart, err := ParseScanTime(rawTime)
	if err != nil {
		return domain.ScanRecord{}, errors.NewMalformedTimestampError(rowNum, rawTime, err)
	}

	dnmsi, err := parseOptionalFloat(table.Value(row, domain.ColumnDNMSI))
	if err != nil {
		return domain.ScanRecord{}, errors.NewMalformedValueError(rowNum, domain.ColumnDNMSI, table.Value(row, domain.ColumnDNMSI), err)
	}

	rec := domain.ScanRecord{
		Row:        rowNum,
		SubjectID:  subject,
		Eye:        eye,
		PatientEye: domain.PatientEyeKey(subject, eye),
		ScanStart:  scanStart,
		DNMSI:      dnmsi,
	}

	if l.opts.FilterDevices {
		rec.UniqueIdentifier = strings.TrimSpace(table.Value(row, domain.ColumnUniqueIdentifier))
		deviceID, ok := DeriveDeviceID(rec.UniqueIdentifier, l.opts.DeviceIDPolicy)
		if !ok {
			return domain.ScanRecord{}, errors.NewMalformedIdentifierError(rowNum, rec.UniqueIdentifier)
		}
		rec.DeviceID = deviceID
	}

	if l.opts.Pipeline == domain.PipelineAO {
		raw := table.Value(row, domain.ColumnIsIncluded)
		included, err := parseFlag(raw)
		if err != nil {
			return domain.ScanRecord{}, errors.NewMalformedValueError(rowNum, domain.ColumnIsIncluded, raw, err)
		}
		rec.IsIncluded = included
	}

	if len(passthrough) > 0 {
		rec.Passthrough = make(map[string]string, len(passthrough))
		for _, col := range passthrough {
			rec.Passthrough[col] = table.Value(row, col)
		}
	}

	return rec, nil
}

// passthroughColumns lists header columns not mapped onto ScanRecord fields
func (l *Loader) passthroughColumns(table *workbook.Table) []string {
	typed := map[string]bool{
		domain.ColumnStudySubjectID:   true,
		domain.ColumnEye:              true,
		domain.ColumnScanStartTime:    true,
		domain.ColumnDNMSI:            true,
		domain.ColumnIsIncluded:       l.opts.Pipeline == domain.PipelineAO,
		domain.ColumnUniqueIdentifier: l.opts.FilterDevices,
	}
	var cols []string
	for _, h := range table.Header {
		if h != "" && !typed[h] {
			cols = append(cols, h)
		}
	}
	return cols
}

// ParseScanTime parses a raw ScanStartTime cell. Numeric cells are Excel
// date serials; text cells must match one of the accepted layouts.
func ParseScanTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, fmt.Errorf("empty timestamp")
	}

	if serial, err := strconv.ParseFloat(raw, 64); err == nil {
		if math.IsNaN(serial) || math.IsInf(serial, 0) {
			return time.Time{}, fmt.Errorf("invalid date serial %q", raw)
		}
		return excelize.ExcelDateToTime(serial, false)
	}

	for _, layout := range scanTimeLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp layout %q", raw)
}

// parseOptionalFloat parses a numeric cell; blank cells are NaN
func parseOptionalFloat(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return math.NaN(), nil
	}
	return strconv.ParseFloat(raw, 64)
}

// parseFlag parses an integral 0/1 style cell
func parseFlag(raw string) (int, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(raw), 64)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("not an integer: %v", v)
	}
	return int(v), nil
}
