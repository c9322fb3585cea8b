package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"scanadherence/internal/config"
	"scanadherence/internal/errors"
	"scanadherence/internal/infrastructure"
	"scanadherence/internal/services"
	"scanadherence/pkg/contracts"
	"scanadherence/pkg/contracts/domain"
)

// runFlags are the call-site overrides shared by both pipeline commands
type runFlags struct {
	workbook      string
	sheets        []string
	subjectPrefix string
	minScans      int
	devicePolicy  string
	qualitySpread bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		stop()
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	flags := &runFlags{}

	rootCmd := &cobra.Command{
		Use:   "adherence",
		Short: config.AppName,
		Long: `Summarizes per patient-eye scan adherence and DN_MSI quality
from the raw scan sheet of an xlsx workbook and writes the summary
sheets back into the same workbook.`,
		Version:       contracts.VersionString(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().StringVarP(&flags.workbook, "workbook", "w", "", "path of the xlsx workbook (overrides config)")
	rootCmd.PersistentFlags().StringArrayVarP(&flags.sheets, "sheet", "s", nil, "input:output sheet pair, repeatable; runs in order")
	rootCmd.PersistentFlags().StringVar(&flags.subjectPrefix, "subject-prefix", "", "keep only subjects with this prefix")

	rootCmd.AddCommand(newAOCmd(flags), newRGXCmd(flags))
	return rootCmd
}

func newAOCmd(flags *runFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "ao",
		Short: "Summarize AO scans with device filtering and study-eye split",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, domain.PipelineAO, flags)
		},
	}
	cmd.Flags().IntVar(&flags.minScans, "min-scans", config.DefaultMinScansPerDevice, "a device needs more scans than this to be kept")
	cmd.Flags().StringVar(&flags.devicePolicy, "device-policy", config.DeviceIDPolicyWholeString, "device id policy for identifiers without separator (whole-string|strict)")
	cmd.Flags().BoolVar(&flags.qualitySpread, "quality-spread", false, "add DN_MSI spread statistics to the summary")
	return cmd
}

func newRGXCmd(flags *runFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "rgx",
		Short: "Summarize RGX scans with weekly and rolling coverage",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPipeline(cmd, domain.PipelineRGX, flags)
		},
	}
}

// runPipeline loads the configuration, applies flag overrides and runs every
// requested sheet pair in order. The first failure stops the remaining pairs.
func runPipeline(cmd *cobra.Command, pipeline domain.Pipeline, flags *runFlags) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.NewConfigError("failed to load configuration", err)
	}

	logger, err := infrastructure.InitializeLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer infrastructure.CloseLogFile()

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	defer func() {
		if err := telemetry.Shutdown(context.Background()); err != nil {
			logger.Warn("Telemetry shutdown failed", slog.String("error", err.Error()))
		}
	}()

	base, err := cfg.Pipeline(pipeline.String())
	if err != nil {
		return errors.NewConfigError("no configuration for pipeline", err)
	}
	runs, err := flags.pipelineConfigs(cmd, base)
	if err != nil {
		return err
	}

	ctx := infrastructure.EnsureRunID(cmd.Context())
	logger.InfoContext(ctx, "Starting adherence summaries",
		slog.String("version", contracts.Version),
		slog.String("pipeline", pipeline.String()),
		slog.Int("sheet_pairs", len(runs)))

	runErr := runAll(ctx, services.NewSummaryService(logger, telemetry), pipeline, runs, cmd.OutOrStdout())

	if err := telemetry.WriteMetrics(); err != nil {
		logger.WarnContext(ctx, "Failed to write metrics", slog.String("error", err.Error()))
	}

	if runErr != nil {
		logger.ErrorContext(ctx, "Summary run failed", slog.String("error", runErr.Error()))
	}
	return runErr
}

func runAll(ctx context.Context, svc *services.SummaryService, pipeline domain.Pipeline, runs []config.PipelineConfig, out io.Writer) error {
	for _, run := range runs {
		report, err := svc.Run(ctx, pipeline, run)
		if err != nil {
			return fmt.Errorf("%s -> %s: %w", run.InputSheet, run.OutputSheet, err)
		}
		for _, sheet := range report.SheetsWritten {
			fmt.Fprintf(out, "Summary sheet %s created successfully.\n", sheet)
		}
	}
	return nil
}

// pipelineConfigs applies the changed flags to base and expands the sheet
// pairs into one validated config per run
func (f *runFlags) pipelineConfigs(cmd *cobra.Command, base config.PipelineConfig) ([]config.PipelineConfig, error) {
	if f.workbook != "" {
		base.Workbook = f.workbook
	}
	if cmd.Flags().Changed("subject-prefix") {
		base.SubjectPrefix = f.subjectPrefix
	}
	if cmd.Flags().Changed("min-scans") {
		base.MinScansPerDevice = f.minScans
	}
	if cmd.Flags().Changed("device-policy") {
		base.DeviceIDPolicy = f.devicePolicy
	}
	if cmd.Flags().Changed("quality-spread") {
		base.IncludeQualitySpread = f.qualitySpread
	}

	if len(f.sheets) == 0 {
		if err := base.Validate(); err != nil {
			return nil, errors.NewConfigError("invalid pipeline settings", err)
		}
		return []config.PipelineConfig{base}, nil
	}

	runs := make([]config.PipelineConfig, 0, len(f.sheets))
	for _, pair := range f.sheets {
		input, output, err := parseSheetPair(pair)
		if err != nil {
			return nil, err
		}
		run := base
		run.InputSheet = input
		run.OutputSheet = output
		if err := run.Validate(); err != nil {
			return nil, errors.NewConfigError("invalid sheet pair "+pair, err)
		}
		runs = append(runs, run)
	}
	return runs, nil
}

// parseSheetPair splits an "input:output" flag value
func parseSheetPair(pair string) (string, string, error) {
	input, output, ok := strings.Cut(pair, ":")
	input, output = strings.TrimSpace(input), strings.TrimSpace(output)
	if !ok || input == "" || output == "" {
		return "", "", errors.NewAppValidationError(fmt.Sprintf("sheet pair %q must be input:output", pair))
	}
	return input, output, nil
}
