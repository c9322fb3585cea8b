package dataprocessing

import (
	"context"
	"log/slog"
	"sort"

	"github.com/samber/lo"

	"scanadherence/internal/config"
	"scanadherence/pkg/contracts/domain"
)

// Assembly is the result of summarizing every group of a run
type Assembly struct {
	// Summary holds one record per non-empty group in key order
	Summary domain.SummaryTable
	// Partitions are the study-eye and not-study-eye sub-tables (ao only)
	Partitions []domain.SummaryTable

	GroupsProcessed int
	GroupsSkipped   int
	RowsDropped     int
}

// Tables returns every table to be written, the full summary first
func (a *Assembly) Tables() []domain.SummaryTable {
	return append([]domain.SummaryTable{a.Summary}, a.Partitions...)
}

// Assembler folds patient-eye groups into summary tables
type Assembler struct {
	logger     *slog.Logger
	opts       PipelineOptions
	filter     *DeviceFilter
	summarizer *Summarizer
}

// NewAssembler creates an assembler for the pipeline named in opts
func NewAssembler(logger *slog.Logger, opts PipelineOptions) *Assembler {
	if logger == nil {
		logger = slog.Default()
	}
	a := &Assembler{
		logger:     logger,
		opts:       opts,
		summarizer: NewSummarizer(logger, opts),
	}
	if opts.FilterDevices {
		a.filter = NewDeviceFilter(opts.MinScansPerDevice)
	}
	return a
}

// Assemble groups records by patient eye, filters and summarizes each
// group in key order and builds the output tables named after outputSheet.
// Groups left empty by the device filter are skipped without error.
func (a *Assembler) Assemble(ctx context.Context, records []domain.ScanRecord, outputSheet string) (*Assembly, error) {
	result := &Assembly{}
	summaries := make([]domain.SummaryRecord, 0)

	for _, group := range PartitionByPatientEye(records) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		if a.filter != nil {
			var dropped int
			group, dropped = a.filter.Apply(group)
			result.RowsDropped += dropped
		}

		if group.Empty() {
			result.GroupsSkipped++
			a.logger.DebugContext(ctx, "Skipping group without qualifying scans",
				slog.String("patient_eye", group.Key))
			continue
		}

		summaries = append(summaries, a.summarizer.Summarize(group))
		result.GroupsProcessed++
	}

	result.Summary = domain.SummaryTable{
		Name:    outputSheet,
		Columns: SummaryColumns(a.opts),
		Records: summaries,
	}
	if a.opts.Pipeline == domain.PipelineAO {
		study, notStudy := SplitByStudyEye(result.Summary)
		result.Partitions = []domain.SummaryTable{study, notStudy}
	}

	a.logger.InfoContext(ctx, "Summaries assembled",
		slog.String("pipeline", a.opts.Pipeline.String()),
		slog.Int("groups_processed", result.GroupsProcessed),
		slog.Int("groups_skipped", result.GroupsSkipped),
		slog.Int("rows_dropped", result.RowsDropped))

	return result, nil
}

// PartitionByPatientEye groups records by PatientEye key. Groups come back
// in ascending key order and keep the input order of their records.
func PartitionByPatientEye(records []domain.ScanRecord) []domain.PatientEyeGroup {
	byKey := lo.GroupBy(records, func(r domain.ScanRecord) string {
		return r.PatientEye
	})

	keys := lo.Keys(byKey)
	sort.Strings(keys)

	return lo.Map(keys, func(key string, _ int) domain.PatientEyeGroup {
		return domain.PatientEyeGroup{Key: key, Records: byKey[key]}
	})
}

// SplitByStudyEye divides table into the rows whose StudyEye is 1 and those
// whose StudyEye is 0, named with the study-eye suffixes
func SplitByStudyEye(table domain.SummaryTable) (study, notStudy domain.SummaryTable) {
	study = domain.SummaryTable{
		Name:    table.Name + config.StudyEyesSuffix,
		Columns: table.Columns,
		Records: lo.Filter(table.Records, func(r domain.SummaryRecord, _ int) bool { return r.StudyEye == 1 }),
	}
	notStudy = domain.SummaryTable{
		Name:    table.Name + config.NotStudyEyesSuffix,
		Columns: table.Columns,
		Records: lo.Filter(table.Records, func(r domain.SummaryRecord, _ int) bool { return r.StudyEye == 0 }),
	}
	return study, notStudy
}
