// Package config provides configuration management for the scan adherence
// summary tool.
//
// # Configuration Sources
//
// Configuration is loaded from the following sources in order of precedence:
//
//	1. Environment variables (highest priority)
//	2. YAML configuration file
//	3. Default values (lowest priority)
//
// # Environment Variables
//
// All environment variables follow the pattern SCAN_* for namespacing:
//
//	SCAN_CONFIG_FILE=/etc/scan/config.yaml
//	SCAN_LOGGING_LEVEL=debug
//	SCAN_AO_WORKBOOK=/data/AO_from_DB.xlsx
//	SCAN_AO_MIN_SCANS_PER_DEVICE=10
//	SCAN_RGX_OUTPUT_SHEET=RGX-314-2103_Summary
//	SCAN_TELEMETRY_METRICS_TEXTFILE=/var/lib/node_exporter/scan.prom
//
// # Pipelines
//
// Each pipeline (ao, rgx) has its own PipelineConfig naming the workbook,
// the raw input sheet and the summary sheet it writes. The defaults match
// the sheet names of the study exports.
//
// # Usage
//
//	cfg, err := config.Load()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	ao, _ := cfg.Pipeline(config.PipelineAO)
package config
