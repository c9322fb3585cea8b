// Package dataprocessing turns raw scan sheets into per patient-eye
// adherence and image-quality summaries.
//
// # Architecture
//
// A run passes through four stages:
//
// 1. Loader: checks the sheet schema and builds immutable ScanRecords
// 2. DeviceFilter (ao only): drops scans of devices with too few scans
// 3. Summarizer: computes the metrics of one patient-eye group
// 4. Assembler: partitions records by patient eye and folds the groups
// into summary tables
//
// # Usage
//
//	opts := dataprocessing.DefaultOptions(domain.PipelineRGX)
//	loaded, err := dataprocessing.NewLoader(logger, opts).Load(ctx, table)
//	if err != nil {
//	    return err
//	}
//	assembly, err := dataprocessing.NewAssembler(logger, opts).
//	    Assemble(ctx, loaded.Records, "RGX_Summary")
//
// # Calendar weeks
//
// Weeks run Monday to Sunday and are labelled by their Sunday. A range of
// scans touches every week from the week of its first scan to the week of
// its last, so partial weeks at both ends count once each.
//
// # Rounding
//
// Every rate and statistic is rounded half to even at two decimals, and
// Study_Eye is the mean inclusion flag rounded half to even.
package dataprocessing
