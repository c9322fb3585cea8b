package services

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"

	"scanadherence/internal/config"
	"scanadherence/internal/dataprocessing"
	"scanadherence/internal/errors"
	"scanadherence/internal/infrastructure"
	"scanadherence/internal/validation"
	"scanadherence/internal/workbook"
	"scanadherence/pkg/contracts/domain"
)

// RunReport describes a completed summary run
type RunReport struct {
	RunID           string        `json:"run_id"`
	Pipeline        string        `json:"pipeline"`
	Workbook        string        `json:"workbook"`
	InputSheet      string        `json:"input_sheet"`
	RowsRead        int           `json:"rows_read"`
	RowsExcluded    int           `json:"rows_excluded"`
	RowsDropped     int           `json:"rows_dropped"`
	RowsKept        int           `json:"rows_kept"`
	GroupsProcessed int           `json:"groups_processed"`
	GroupsSkipped   int           `json:"groups_skipped"`
	SheetsWritten   []string      `json:"sheets_written"`
	Duration        time.Duration `json:"duration"`
}

// SummaryService runs a summary pipeline against one workbook
type SummaryService struct {
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	validator *validation.FileValidator
	store     WorkbookStore
}

// NewSummaryService creates a summary service backed by xlsx files.
// telemetry may be nil.
func NewSummaryService(logger *slog.Logger, telemetry *infrastructure.Telemetry) *SummaryService {
	return NewSummaryServiceWithStore(logger, telemetry, NewExcelStore())
}

// NewSummaryServiceWithStore creates a summary service over a custom store
func NewSummaryServiceWithStore(logger *slog.Logger, telemetry *infrastructure.Telemetry, store WorkbookStore) *SummaryService {
	if logger == nil {
		logger = slog.Default()
	}
	logger = infrastructure.WithComponent(logger, "summary_service")
	return &SummaryService{
		logger:    logger,
		telemetry: telemetry,
		validator: validation.NewFileValidator(logger),
		store:     store,
	}
}

// Run reads cfg.InputSheet of cfg.Workbook, summarizes it with the named
// pipeline and writes the summary sheets back. Every error is returned
// before the write stage starts, so a failed run leaves the workbook as it
// was.
func (s *SummaryService) Run(ctx context.Context, pipeline domain.Pipeline, cfg config.PipelineConfig) (*RunReport, error) {
	start := time.Now()
	ctx = infrastructure.EnsureRunID(ctx)

	if !pipeline.Valid() {
		return nil, errors.NewAppValidationError("unknown pipeline " + pipeline.String())
	}
	if cfg.Workbook == "" {
		return nil, errors.NewConfigError("no workbook configured for pipeline "+pipeline.String(), nil)
	}

	opts := dataprocessing.OptionsFromConfig(pipeline, cfg)
	report := &RunReport{
		RunID:      infrastructure.GetRunID(ctx),
		Pipeline:   pipeline.String(),
		Workbook:   cfg.Workbook,
		InputSheet: cfg.InputSheet,
	}
	attrs := []attribute.KeyValue{
		attribute.String("pipeline", pipeline.String()),
		attribute.String("sheet", cfg.InputSheet),
	}

	s.logger.InfoContext(ctx, "Starting summary run",
		slog.String("pipeline", pipeline.String()),
		slog.String("workbook", cfg.Workbook),
		slog.String("input_sheet", cfg.InputSheet),
		slog.String("output_sheet", cfg.OutputSheet))

	if err := s.stage(ctx, "validate", attrs, func(ctx context.Context) error {
		return s.validate(pipeline, cfg)
	}); err != nil {
		return nil, s.fail(ctx, "validate", err)
	}

	var table *workbook.Table
	if err := s.stage(ctx, "read", attrs, func(ctx context.Context) error {
		var err error
		table, err = s.store.ReadTable(cfg.Workbook, cfg.InputSheet)
		return err
	}); err != nil {
		return nil, s.fail(ctx, "read", err)
	}

	var loaded *dataprocessing.LoadResult
	if err := s.stage(ctx, "load", attrs, func(ctx context.Context) error {
		var err error
		loaded, err = dataprocessing.NewLoader(s.logger, opts).Load(ctx, table)
		return err
	}); err != nil {
		return nil, s.fail(ctx, "load", err)
	}
	report.RowsRead = loaded.RowsRead
	report.RowsExcluded = loaded.RowsExcluded

	var assembly *dataprocessing.Assembly
	if err := s.stage(ctx, "aggregate", attrs, func(ctx context.Context) error {
		var err error
		assembly, err = dataprocessing.NewAssembler(s.logger, opts).Assemble(ctx, loaded.Records, cfg.OutputSheet)
		return err
	}); err != nil {
		return nil, s.fail(ctx, "aggregate", err)
	}
	report.RowsDropped = assembly.RowsDropped
	report.RowsKept = len(loaded.Records) - assembly.RowsDropped
	report.GroupsProcessed = assembly.GroupsProcessed
	report.GroupsSkipped = assembly.GroupsSkipped

	sheets := make([]workbook.Sheet, 0, len(assembly.Tables()))
	for _, t := range assembly.Tables() {
		sheets = append(sheets, workbook.Sheet{Name: t.Name, Header: t.Headers(), Rows: t.Rows()})
	}

	if err := s.stage(ctx, "write", attrs, func(ctx context.Context) error {
		return s.store.ReplaceSheets(cfg.Workbook, sheets)
	}); err != nil {
		return nil, s.fail(ctx, "write", err)
	}

	for _, sheet := range sheets {
		report.SheetsWritten = append(report.SheetsWritten, sheet.Name)
		s.logger.InfoContext(ctx, "Summary sheet created",
			slog.String("sheet", sheet.Name),
			slog.Int("rows", len(sheet.Rows)))
	}
	report.Duration = time.Since(start)

	s.recordMetrics(ctx, report, attrs)

	s.logger.InfoContext(ctx, "Summary run complete",
		slog.Int("rows_read", report.RowsRead),
		slog.Int("rows_kept", report.RowsKept),
		slog.Int("groups_processed", report.GroupsProcessed),
		slog.Int("groups_skipped", report.GroupsSkipped),
		slog.Duration("duration", report.Duration))

	return report, nil
}

// validate checks the workbook file and the sheet names of a run
func (s *SummaryService) validate(pipeline domain.Pipeline, cfg config.PipelineConfig) error {
	if err := s.validator.ValidateWorkbook(cfg.Workbook); err != nil {
		return err
	}
	names, err := s.store.SheetNames(cfg.Workbook)
	if err != nil {
		return err
	}
	return s.validator.ValidateSheetNames(names, cfg.InputSheet, OutputSheetNames(pipeline, cfg.OutputSheet)...)
}

// OutputSheetNames lists every sheet a pipeline writes for outputSheet
func OutputSheetNames(pipeline domain.Pipeline, outputSheet string) []string {
	if pipeline == domain.PipelineAO {
		return []string{
			outputSheet,
			outputSheet + config.StudyEyesSuffix,
			outputSheet + config.NotStudyEyesSuffix,
		}
	}
	return []string{outputSheet}
}

// stage runs fn inside a traced stage when telemetry is configured
func (s *SummaryService) stage(ctx context.Context, name string, attrs []attribute.KeyValue, fn func(context.Context) error) error {
	if s.telemetry == nil {
		return fn(ctx)
	}
	ctx, end := s.telemetry.StartStage(ctx, name, attrs...)
	err := fn(ctx)
	end(err)
	return err
}

func (s *SummaryService) fail(ctx context.Context, stage string, err error) error {
	s.logger.ErrorContext(ctx, "Summary run aborted, workbook left unchanged",
		slog.String("stage", stage),
		slog.String("error", err.Error()))
	return err
}

func (s *SummaryService) recordMetrics(ctx context.Context, report *RunReport, attrs []attribute.KeyValue) {
	if s.telemetry == nil || s.telemetry.Metrics == nil {
		return
	}
	m := s.telemetry.Metrics
	opt := metric.WithAttributes(attrs...)
	m.RowsRead.Add(ctx, int64(report.RowsRead), opt)
	m.RowsDropped.Add(ctx, int64(report.RowsExcluded+report.RowsDropped), opt)
	m.GroupsProcessed.Add(ctx, int64(report.GroupsProcessed), opt)
	m.GroupsSkipped.Add(ctx, int64(report.GroupsSkipped), opt)
	m.SheetsWritten.Add(ctx, int64(len(report.SheetsWritten)), opt)
}
