package services

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"scanadherence/internal/config"
	"scanadherence/internal/errors"
	"scanadherence/internal/infrastructure"
	"scanadherence/internal/shared/testutil"
	"scanadherence/internal/workbook"
	"scanadherence/pkg/contracts/domain"
)

// deviceScans returns n daily scans of one eye taken on device
func deviceScans(subject, eye, device string, from time.Time, n, included int) []testutil.Scan {
	scans := testutil.Series(subject, eye, from, 1, n, 0.5)
	for i := range scans {
		scans[i].UniqueIdentifier = fmt.Sprintf("%s_%03d", device, i)
		scans[i].IsIncluded = included
	}
	return scans
}

func aoWorkbook(t *testing.T) string {
	t.Helper()
	jan1 := testutil.Day(2024, 1, 1)

	var scans []testutil.Scan
	scans = append(scans, deviceScans("AO01", "OS", "DEVB", jan1, 11, 0)...)
	scans = append(scans, deviceScans("AO01", "OD", "DEVA", jan1, 12, 1)...)
	scans = append(scans, deviceScans("AO01", "OS", "DEVC", jan1, 3, 0)...)
	scans = append(scans, deviceScans("AO02", "OD", "DEVD", jan1, 4, 1)...)
	scans = append(scans, deviceScans("XY01", "OD", "DEVA", jan1, 12, 1)...)

	return testutil.NewWorkbook(t).
		AOSheet("AO_RawData", scans...).
		Sheet("Notes", []string{"keep"}, []interface{}{"me"}).
		Save()
}

func aoConfig(path string) config.PipelineConfig {
	cfg := config.Default().AO
	cfg.Workbook = path
	return cfg
}

func rgxConfig(path string) config.PipelineConfig {
	cfg := config.Default().RGX
	cfg.Workbook = path
	cfg.InputSheet = "RGX_RawData"
	cfg.OutputSheet = "RGX_Summary"
	return cfg
}

func TestSummaryService_RunAO(t *testing.T) {
	path := aoWorkbook(t)
	logger, logs := testutil.NewCaptureLogger(t)

	report, err := NewSummaryService(logger, nil).Run(context.Background(), domain.PipelineAO, aoConfig(path))
	require.NoError(t, err)

	assert.NotEmpty(t, report.RunID)
	assert.Equal(t, 42, report.RowsRead)
	assert.Equal(t, 12, report.RowsExcluded)
	assert.Equal(t, 7, report.RowsDropped)
	assert.Equal(t, 23, report.RowsKept)
	assert.Equal(t, 2, report.GroupsProcessed)
	assert.Equal(t, 1, report.GroupsSkipped)
	assert.Equal(t, []string{"AO_Summary", "AO_Summary_study_eyes", "AO_Summary_not_study_eyes"}, report.SheetsWritten)

	header := []string{
		"Patient_Eye", "Study_Eye", "Total Days", "Number of Tests", "Testing Rate",
		"Total Calendar Weeks", "Adherence_Rate", "Mean DN_MSI",
	}
	odRow := []string{"AO01_OD", "1", "12", "12", "1", "2", "6", "0.5"}
	osRow := []string{"AO01_OS", "0", "11", "11", "1", "2", "5.5", "0.5"}

	assert.Equal(t, [][]string{header, odRow, osRow}, testutil.ReadSheet(t, path, "AO_Summary"))
	assert.Equal(t, [][]string{header, odRow}, testutil.ReadSheet(t, path, "AO_Summary_study_eyes"))
	assert.Equal(t, [][]string{header, osRow}, testutil.ReadSheet(t, path, "AO_Summary_not_study_eyes"))
	assert.Equal(t, [][]string{{"keep"}, {"me"}}, testutil.ReadSheet(t, path, "Notes"))

	testutil.AssertLogged(t, logs, slog.LevelInfo, "Summary sheet created")
	assert.Equal(t, 3, logs.Count("Summary sheet created"))
	rec, ok := logs.Find("Summary run complete")
	require.True(t, ok)
	assert.Equal(t, "summary_service", rec.Attrs["component"])
}

func TestSummaryService_RunRGX(t *testing.T) {
	var scans []testutil.Scan
	scans = append(scans, testutil.Scan{SubjectID: "R2", Eye: "OS", Start: testutil.Day(2024, 3, 5), DNMSI: 0.73})
	for i, v := range []float64{0.6, 0.8, 1.0} {
		scans = append(scans, testutil.Scan{SubjectID: "R1", Eye: "OD", Start: testutil.Day(2024, 1, 1+7*i), DNMSI: v})
	}
	path := testutil.NewWorkbook(t).RGXSheet("RGX_RawData", scans...).Save()

	report, err := NewSummaryService(nil, nil).Run(context.Background(), domain.PipelineRGX, rgxConfig(path))
	require.NoError(t, err)
	assert.Equal(t, []string{"RGX_Summary"}, report.SheetsWritten)

	rows := testutil.ReadSheet(t, path, "RGX_Summary")
	require.Len(t, rows, 3)
	assert.Equal(t, []string{
		"Patient_Eye", "Testing Rate", "Weekly Adherence Rate (%)", "No-Test Periods Ratio",
		"Mean DN_MSI", "SD DN_MSI", "Median DN_MSI", "IQR DN_MSI",
	}, rows[0])
	assert.Equal(t, []string{"R1_OD", "0.2", "100", "0", "0.8", "0.2", "0.8", "0.2"}, rows[1])

	single := rows[2]
	require.Len(t, single, 8)
	assert.Equal(t, []string{"R2_OS", "1", "100", "0", "0.73"}, single[:5])
	assert.Empty(t, single[5], "SD of a single scan is left empty")
	assert.Equal(t, []string{"0.73", "0"}, single[6:])
	assert.ElementsMatch(t, []string{"RGX_RawData", "RGX_Summary"}, testutil.SheetList(t, path))
}

func TestSummaryService_RunIsIdempotent(t *testing.T) {
	path := aoWorkbook(t)
	svc := NewSummaryService(nil, nil)

	_, err := svc.Run(context.Background(), domain.PipelineAO, aoConfig(path))
	require.NoError(t, err)
	first := testutil.ReadSheet(t, path, "AO_Summary")

	_, err = svc.Run(context.Background(), domain.PipelineAO, aoConfig(path))
	require.NoError(t, err)
	second := testutil.ReadSheet(t, path, "AO_Summary")

	if diff := cmp.Diff(first, second); diff != "" {
		t.Errorf("summary sheet changed on rerun (-first +second):\n%s", diff)
	}
}

func TestSummaryService_FailuresLeaveWorkbookUnchanged(t *testing.T) {
	tests := []struct {
		name    string
		build   func(t *testing.T) string
		cfg     func(path string) config.PipelineConfig
		errType errors.ErrorType
	}{
		{
			name: "missing required column",
			build: func(t *testing.T) string {
				return testutil.NewWorkbook(t).
					Sheet("RGX_RawData", []string{"StudySubjectID", "Eye", "ScanStartTime"},
						[]interface{}{"R1", "OD", "2024-01-01"}).
					Save()
			},
			cfg:     rgxConfig,
			errType: errors.ErrTypeSchema,
		},
		{
			name: "malformed timestamp",
			build: func(t *testing.T) string {
				return testutil.NewWorkbook(t).
					RGXSheet("RGX_RawData",
						testutil.Scan{SubjectID: "R1", Eye: "OD", Start: testutil.Day(2024, 1, 1), DNMSI: 0.5},
						testutil.Scan{SubjectID: "R1", Eye: "OD", StartText: "not a date", DNMSI: 0.5},
					).
					Save()
			},
			cfg:     rgxConfig,
			errType: errors.ErrTypeMalformedTimestamp,
		},
		{
			name: "strict device policy",
			build: func(t *testing.T) string {
				return testutil.NewWorkbook(t).
					AOSheet("AO_RawData", testutil.Scan{SubjectID: "AO1", Eye: "OD", Start: testutil.Day(2024, 1, 1), DNMSI: 0.5, UniqueIdentifier: "NOSEP"}).
					Save()
			},
			cfg: func(path string) config.PipelineConfig {
				cfg := aoConfig(path)
				cfg.DeviceIDPolicy = config.DeviceIDPolicyStrict
				return cfg
			},
			errType: errors.ErrTypeMalformedIdentifier,
		},
		{
			name: "input sheet not found",
			build: func(t *testing.T) string {
				return testutil.NewWorkbook(t).Sheet("Other", []string{"A"}).Save()
			},
			cfg:     rgxConfig,
			errType: errors.ErrTypeNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.build(t)
			cfg := tt.cfg(path)
			before, err := os.ReadFile(path)
			require.NoError(t, err)

			pipeline := domain.PipelineRGX
			if cfg.SubjectPrefix != "" {
				pipeline = domain.PipelineAO
			}
			report, err := NewSummaryService(nil, nil).Run(context.Background(), pipeline, cfg)
			require.Error(t, err)
			assert.Nil(t, report)
			assert.True(t, errors.IsType(err, tt.errType), "got %v", err)

			after, err := os.ReadFile(path)
			require.NoError(t, err)
			assert.Equal(t, before, after, "workbook must not be touched")
		})
	}
}

func TestSummaryService_NoWriteAfterLoadFailure(t *testing.T) {
	path := testutil.NewWorkbook(t).Sheet("RGX_RawData", nil).Save()
	table := workbook.NewTable("RGX_RawData", testutil.RGXHeader, [][]string{{"R1", "OD", "bad", "0.1"}})

	store := new(MockWorkbookStore)
	store.On("SheetNames", path).Return([]string{"RGX_RawData"}, nil)
	store.On("ReadTable", path, "RGX_RawData").Return(table, nil)

	_, err := NewSummaryServiceWithStore(nil, nil, store).Run(context.Background(), domain.PipelineRGX, rgxConfig(path))
	require.Error(t, err)

	store.AssertExpectations(t)
	store.AssertNotCalled(t, "ReplaceSheets", mock.Anything, mock.Anything)
}

func TestSummaryService_WriteFailure(t *testing.T) {
	path := testutil.NewWorkbook(t).Sheet("RGX_RawData", nil).Save()
	table := workbook.NewTable("RGX_RawData", testutil.RGXHeader, [][]string{{"R1", "OD", "2024-01-01", "0.1"}})

	store := new(MockWorkbookStore)
	store.On("SheetNames", path).Return([]string{"RGX_RawData"}, nil)
	store.On("ReadTable", path, "RGX_RawData").Return(table, nil)
	store.On("ReplaceSheets", path, mock.MatchedBy(func(sheets []workbook.Sheet) bool {
		return len(sheets) == 1 && sheets[0].Name == "RGX_Summary" && len(sheets[0].Rows) == 1
	})).Return(errors.NewStorageError("disk full", nil))

	report, err := NewSummaryServiceWithStore(nil, nil, store).Run(context.Background(), domain.PipelineRGX, rgxConfig(path))
	assert.Nil(t, report)
	assert.True(t, errors.IsType(err, errors.ErrTypeStorage))
	store.AssertExpectations(t)
}

func TestSummaryService_InvalidRequests(t *testing.T) {
	svc := NewSummaryService(nil, nil)

	_, err := svc.Run(context.Background(), domain.Pipeline("xyz"), config.Default().AO)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation))

	_, err = svc.Run(context.Background(), domain.PipelineAO, config.Default().AO)
	assert.True(t, errors.IsType(err, errors.ErrTypeConfig), "no workbook configured")

	path := testutil.NewWorkbook(t).AOSheet("AO_RawData").Save()
	cfg := aoConfig(path)
	cfg.OutputSheet = "a_summary_name_that_is_too_long"
	_, err = svc.Run(context.Background(), domain.PipelineAO, cfg)
	assert.True(t, errors.IsType(err, errors.ErrTypeValidation), "suffixed sheet exceeds 31 characters")
}

func TestSummaryService_RecordsMetrics(t *testing.T) {
	textfile := filepath.Join(t.TempDir(), "run.prom")
	tel, err := infrastructure.InitializeTelemetry(config.TelemetryConfig{MetricsTextfile: textfile}, nil)
	require.NoError(t, err)
	defer tel.Shutdown(context.Background())

	_, err = NewSummaryService(nil, tel).Run(context.Background(), domain.PipelineAO, aoConfig(aoWorkbook(t)))
	require.NoError(t, err)
	require.NoError(t, tel.WriteMetrics())

	content, err := os.ReadFile(textfile)
	require.NoError(t, err)
	assert.Contains(t, string(content), "scan_groups_processed")
	assert.Contains(t, string(content), "scan_stage_duration_seconds")
	assert.Contains(t, string(content), `stage="write"`)
}

func TestOutputSheetNames(t *testing.T) {
	assert.Equal(t, []string{"S", "S_study_eyes", "S_not_study_eyes"}, OutputSheetNames(domain.PipelineAO, "S"))
	assert.Equal(t, []string{"S"}, OutputSheetNames(domain.PipelineRGX, "S"))
}
