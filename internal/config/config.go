package config

import (
	"fmt"
	"os"

	"github.com/go-playground/validator/v10"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// Config represents the complete application configuration
type Config struct {
	Logging   LoggingConfig   `yaml:"logging" envconfig:"LOGGING"`
	Telemetry TelemetryConfig `yaml:"telemetry" envconfig:"TELEMETRY"`
	AO        PipelineConfig  `yaml:"ao" envconfig:"AO"`
	RGX       PipelineConfig  `yaml:"rgx" envconfig:"RGX"`
}

// LoggingConfig contains logging configuration
type LoggingConfig struct {
	Level    string `yaml:"level" envconfig:"LEVEL" validate:"oneof=debug info warn warning error"`
	Format   string `yaml:"format" envconfig:"FORMAT"`
	Output   string `yaml:"output" envconfig:"OUTPUT" validate:"oneof=console file both"`
	FilePath string `yaml:"file_path" envconfig:"FILE_PATH"`
}

// TelemetryConfig controls run tracing and the metrics textfile
type TelemetryConfig struct {
	EnableTracing   bool   `yaml:"enable_tracing" envconfig:"ENABLE_TRACING"`
	TraceOutput     string `yaml:"trace_output" envconfig:"TRACE_OUTPUT"`
	MetricsTextfile string `yaml:"metrics_textfile" envconfig:"METRICS_TEXTFILE"`
}

// PipelineConfig holds the call-site settings of one summary pipeline
type PipelineConfig struct {
	Workbook             string `yaml:"workbook" envconfig:"WORKBOOK"`
	InputSheet           string `yaml:"input_sheet" envconfig:"INPUT_SHEET" validate:"required"`
	OutputSheet          string `yaml:"output_sheet" envconfig:"OUTPUT_SHEET" validate:"required,nefield=InputSheet"`
	SubjectPrefix        string `yaml:"subject_prefix" envconfig:"SUBJECT_PREFIX"`
	MinScansPerDevice    int    `yaml:"min_scans_per_device" envconfig:"MIN_SCANS_PER_DEVICE" validate:"min=0"`
	DeviceIDPolicy       string `yaml:"device_id_policy" envconfig:"DEVICE_ID_POLICY" validate:"oneof=whole-string strict"`
	IncludeQualitySpread bool   `yaml:"include_quality_spread" envconfig:"INCLUDE_QUALITY_SPREAD"`
}

// Load builds the configuration from defaults, an optional YAML file and
// SCAN_* environment variables, in increasing order of precedence.
func Load() (*Config, error) {
	cfg := Default()

	if configFile := getConfigFilePath(); configFile != "" {
		if err := loadFromFile(configFile, cfg); err != nil {
			return nil, fmt.Errorf("failed to load config from file %s: %w", configFile, err)
		}
	}

	if err := envconfig.Process(EnvPrefix, cfg); err != nil {
		return nil, fmt.Errorf("failed to load config from env: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays YAML settings on top of cfg
func loadFromFile(filePath string, cfg *Config) error {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, cfg)
}

// Validate checks struct constraints and normalizes logging settings
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return err
	}

	// JSON is the only supported log format
	c.Logging.Format = DefaultLogFormat

	if c.Logging.Output != "console" && c.Logging.FilePath == "" {
		c.Logging.FilePath = DefaultLogFile
	}

	if c.Telemetry.EnableTracing && c.Telemetry.TraceOutput == "" {
		c.Telemetry.TraceOutput = "stdout"
	}

	return nil
}

// Validate checks the constraints of a single pipeline run, typically after
// call-site overrides were applied
func (p PipelineConfig) Validate() error {
	return validator.New().Struct(p)
}

// Pipeline returns the settings for the named pipeline
func (c *Config) Pipeline(name string) (PipelineConfig, error) {
	switch name {
	case PipelineAO:
		return c.AO, nil
	case PipelineRGX:
		return c.RGX, nil
	default:
		return PipelineConfig{}, fmt.Errorf("unknown pipeline %q", name)
	}
}

// getConfigFilePath returns the path to the config file
func getConfigFilePath() string {
	if explicit := os.Getenv(EnvPrefix + "_CONFIG_FILE"); explicit != "" {
		return explicit
	}

	// Check for config file in common locations
	locations := []string{
		"config.yaml",
		"configs/config.yaml",
	}

	for _, location := range locations {
		if _, err := os.Stat(location); err == nil {
			return location
		}
	}

	return "" // No config file found, use env vars only
}

// Default returns default configuration
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{
			Level:    DefaultLogLevel,
			Format:   DefaultLogFormat,
			Output:   "console",
			FilePath: DefaultLogFile,
		},
		Telemetry: TelemetryConfig{
			EnableTracing: false,
			TraceOutput:   "stdout",
		},
		AO: PipelineConfig{
			InputSheet:        "AO_RawData",
			OutputSheet:       "AO_Summary",
			SubjectPrefix:     DefaultSubjectPrefix,
			MinScansPerDevice: DefaultMinScansPerDevice,
			DeviceIDPolicy:    DeviceIDPolicyWholeString,
		},
		RGX: PipelineConfig{
			InputSheet:     "AO_RawData",
			OutputSheet:    "AO_Summary",
			DeviceIDPolicy: DeviceIDPolicyWholeString,
		},
	}
}
