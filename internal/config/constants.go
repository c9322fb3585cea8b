package config

// Application constants
const (
	// Application Info
	AppName = "Scan Adherence Summary"

	// EnvPrefix namespaces every environment variable (SCAN_*)
	EnvPrefix = "SCAN"

	// Pipeline names
	PipelineAO  = "ao"
	PipelineRGX = "rgx"

	// Device filtering
	DefaultMinScansPerDevice = 10
	DefaultSubjectPrefix     = "AO"
	DeviceIDSeparator        = "_"

	// DeviceIDPolicyWholeString treats an identifier without separator as the device id
	DeviceIDPolicyWholeString = "whole-string"
	// DeviceIDPolicyStrict rejects identifiers without separator
	DeviceIDPolicyStrict = "strict"

	// Output sheet suffixes for the study-eye partition
	StudyEyesSuffix    = "_study_eyes"
	NotStudyEyesSuffix = "_not_study_eyes"

	// Rolling coverage window in days
	RollingWindowDays = 7

	// Decimal places of every rounded metric
	MetricPrecision = 2

	// Log Settings
	DefaultLogLevel  = "info"
	DefaultLogFormat = "json"
	DefaultLogFile   = "logs/adherence.log"
)
