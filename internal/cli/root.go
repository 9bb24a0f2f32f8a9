package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"sigitm/internal/config"
	apperrors "sigitm/internal/errors"
	"sigitm/internal/infrastructure"
	"sigitm/internal/services"
)

const shutdownTimeout = 5 * time.Second

// Execute runs the CLI and returns the process exit code.
func Execute() int {
	rootCmd := newRootCmd(os.Stdout, os.Stderr, infrastructure.InitializeLogger)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}

// app carries the global flags and the components built from them for a
// single invocation.
type app struct {
	out    io.Writer
	errOut io.Writer

	configPath  string
	dir         string
	prefix      string
	sheet       string
	logLevel    string
	metricsFile string

	newLogger func(config.LoggingConfig) (*slog.Logger, error)

	cfg       *config.Config
	logger    *slog.Logger
	telemetry *infrastructure.Telemetry
	ingestor  *services.FileIngestor
}

func newRootCmd(out, errOut io.Writer, newLogger func(config.LoggingConfig) (*slog.Logger, error)) *cobra.Command {
	a := &app{out: out, errOut: errOut, newLogger: newLogger}
	if a.newLogger == nil {
		a.newLogger = func(cfg config.LoggingConfig) (*slog.Logger, error) {
			return infrastructure.NewLogger(cfg, errOut)
		}
	}

	rootCmd := &cobra.Command{
		Use:           config.AppName,
		Short:         "Ingest SIGITM ticket exports",
		Long:          "Finds the newest CONSULTA_TLP_PCP_CS export in the downloads folder, normalizes it and optionally removes it.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.SetOut(out)
	rootCmd.SetErr(errOut)

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "Path to a YAML config file")
	flags.StringVar(&a.dir, "dir", "", "Directory searched for exports (default: downloads folder)")
	flags.StringVar(&a.prefix, "prefix", "", "Export filename prefix (default: "+config.DefaultPrefix+")")
	flags.StringVar(&a.sheet, "sheet", "", "Sheet to read (default: first sheet)")
	flags.StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	flags.StringVar(&a.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file on exit")

	rootCmd.AddCommand(newProcessCmd(a))
	rootCmd.AddCommand(newDeleteCmd(a))
	rootCmd.AddCommand(newLocateCmd(a))
	rootCmd.AddCommand(newTimestampCmd(a))
	rootCmd.AddCommand(newVersionCmd(a))

	return rootCmd
}

// setup loads configuration, applies flag overrides and builds the ingestor.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}

	if cmd.Flags().Changed("dir") {
		cfg.Ingest.Directory = a.dir
	}
	if cmd.Flags().Changed("prefix") {
		cfg.Ingest.Prefix = a.prefix
	}
	if cmd.Flags().Changed("sheet") {
		cfg.Ingest.Sheet = a.sheet
	}
	if cmd.Flags().Changed("log-level") {
		cfg.Logging.Level = a.logLevel
	}
	if a.metricsFile != "" {
		cfg.Telemetry.Enabled = true
	}
	if err := cfg.Validate(); err != nil {
		return apperrors.NewConfigError("invalid configuration", err)
	}

	logger, err := a.newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	telemetry, err := infrastructure.InitializeTelemetry(cfg.Telemetry, a.errOut, logger)
	if err != nil {
		return fmt.Errorf("failed to initialize telemetry: %w", err)
	}

	a.cfg = cfg
	a.logger = logger
	a.telemetry = telemetry
	a.ingestor = services.NewFileIngestor(cfg.Ingest, logger, telemetry)
	return nil
}

// teardown flushes metrics and traces and closes the log file.
func (a *app) teardown() error {
	var errs []error
	if a.metricsFile != "" {
		if err := a.telemetry.WriteMetricsTextfile(a.metricsFile); err != nil {
			errs = append(errs, fmt.Errorf("failed to write metrics: %w", err))
		}
	}

	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.telemetry.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("failed to shut down telemetry: %w", err))
	}
	if err := infrastructure.CloseLogFile(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

// run wraps a command body with setup and teardown. Every invocation gets a
// fresh trace ID for log correlation.
func (a *app) run(cmd *cobra.Command, fn func(ctx context.Context) error) (err error) {
	if err := a.setup(cmd); err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, a.teardown())
	}()

	ctx := infrastructure.EnsureTraceID(cmd.Context())
	a.logger.DebugContext(ctx, "Command started",
		slog.String("command", cmd.CommandPath()),
		slog.String("directory", a.cfg.Ingest.Directory))
	return fn(ctx)
}
