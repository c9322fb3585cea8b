package dataprocessing

import (
	"scanadherence/internal/config"
	"scanadherence/pkg/contracts/domain"
)

// PipelineOptions configures loading, filtering and aggregation of one run
type PipelineOptions struct {
	Pipeline domain.Pipeline

	// SubjectPrefix keeps only subjects starting with it; empty keeps all
	SubjectPrefix string

	// Device filter (ao only). Devices need strictly more scans than
	// MinScansPerDevice to be kept.
	FilterDevices     bool
	MinScansPerDevice int
	DeviceIDPolicy    string

	// IncludeQualitySpread adds SD, median and IQR of DN_MSI to ao output
	IncludeQualitySpread bool
}

// DefaultOptions returns the default options of pipeline
func DefaultOptions(pipeline domain.Pipeline) PipelineOptions {
	cfg := config.Default()
	if pipeline == domain.PipelineAO {
		return OptionsFromConfig(pipeline, cfg.AO)
	}
	return OptionsFromConfig(pipeline, cfg.RGX)
}

// OptionsFromConfig maps pipeline settings onto processing options
func OptionsFromConfig(pipeline domain.Pipeline, cfg config.PipelineConfig) PipelineOptions {
	policy := cfg.DeviceIDPolicy
	if policy == "" {
		policy = config.DeviceIDPolicyWholeString
	}
	return PipelineOptions{
		Pipeline:             pipeline,
		SubjectPrefix:        cfg.SubjectPrefix,
		FilterDevices:        pipeline == domain.PipelineAO,
		MinScansPerDevice:    cfg.MinScansPerDevice,
		DeviceIDPolicy:       policy,
		IncludeQualitySpread: cfg.IncludeQualitySpread,
	}
}

// RequiredColumns lists the raw columns a pipeline cannot run without
func RequiredColumns(pipeline domain.Pipeline) []string {
	columns := []string{
		domain.ColumnStudySubjectID,
		domain.ColumnEye,
		domain.ColumnScanStartTime,
		domain.ColumnDNMSI,
	}
	if pipeline == domain.PipelineAO {
		columns = append(columns,
			domain.ColumnUpdateLongiPositions,
			domain.ColumnEligibleQuant,
			domain.ColumnIsIncluded,
			domain.ColumnUniqueIdentifier,
		)
	}
	return columns
}
