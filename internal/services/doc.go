// Package services runs summary pipelines end to end.
//
// SummaryService ties the stages together for one workbook:
//
//	validate -> read -> load -> aggregate -> write
//
// Each stage runs in its own trace span when telemetry is configured. A
// failure in any stage before write aborts the run and leaves the workbook
// untouched; the write itself replaces the file atomically.
//
//	svc := services.NewSummaryService(logger, telemetry)
//	report, err := svc.Run(ctx, domain.PipelineAO, cfg.AO)
package services
