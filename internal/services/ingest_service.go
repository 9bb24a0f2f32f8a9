package services

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"

	"sigitm/internal/config"
	"sigitm/internal/dataprocessing"
	apperrors "sigitm/internal/errors"
	"sigitm/internal/files"
	"sigitm/internal/infrastructure"
	"sigitm/internal/table"
	"sigitm/internal/validation"
)

// ProcessingResult is the outcome of loading one export. Table is set only
// when Success is true.
type ProcessingResult struct {
	Success    bool
	Message    string
	Table      *table.Table
	SourceFile string
	Report     dataprocessing.Report
}

// FileIngestor finds, loads and removes ticket exports in one directory
type FileIngestor struct {
	cfg        config.IngestConfig
	logger     *slog.Logger
	telemetry  *infrastructure.Telemetry
	discovery  *files.Discovery
	manager    *files.Manager
	validator  *validation.FileValidator
	normalizer *dataprocessing.Normalizer
}

// NewFileIngestor creates an ingestor for cfg. Empty directory and prefix
// fall back to the downloads folder and the default export prefix. A missing
// directory is created when cfg.CreateDirectory is set; failing that only
// logs, since explicit paths can still be processed.
func NewFileIngestor(cfg config.IngestConfig, logger *slog.Logger, telemetry *infrastructure.Telemetry) *FileIngestor {
	if logger == nil {
		logger = slog.Default()
	}
	if telemetry == nil {
		telemetry = infrastructure.NoopTelemetry()
	}
	logger = infrastructure.WithComponent(logger, "ingestor")

	if cfg.Prefix == "" {
		cfg.Prefix = config.DefaultPrefix
	}
	if cfg.Directory == "" {
		dir, err := config.DownloadsDir()
		if err != nil {
			logger.Warn("Could not resolve downloads directory, using working directory",
				slog.String("error", err.Error()))
			dir = "."
		}
		cfg.Directory = dir
	}

	manager := files.NewManager(logger)
	validator := validation.NewFileValidator(logger, manager)
	if err := validator.EnsureInputDirectory(cfg.Directory, cfg.CreateDirectory); err != nil {
		logger.Warn("Input directory unavailable",
			slog.String("directory", cfg.Directory),
			slog.String("error", err.Error()))
	}

	logger.Debug("FileIngestor initialized",
		slog.String("directory", cfg.Directory),
		slog.String("prefix", cfg.Prefix),
		slog.String("sheet", cfg.Sheet))

	return &FileIngestor{
		cfg:        cfg,
		logger:     logger,
		telemetry:  telemetry,
		discovery:  files.NewDiscovery(cfg.Directory),
		manager:    manager,
		validator:  validator,
		normalizer: dataprocessing.NewNormalizer(logger),
	}
}

// Directory returns the directory searched for exports
func (fi *FileIngestor) Directory() string {
	return fi.cfg.Directory
}

// Prefix returns the export filename prefix
func (fi *FileIngestor) Prefix() string {
	return fi.cfg.Prefix
}

// LocateLatest returns the path of the most recently modified export in the
// directory. Equal modification times resolve to the first name in lexical
// order.
func (fi *FileIngestor) LocateLatest(ctx context.Context) (string, error) {
	ctx, span := fi.telemetry.Tracer.Start(ctx, "ingest.locate_latest",
		trace.WithAttributes(
			attribute.String("ingest.directory", fi.cfg.Directory),
			attribute.String("ingest.prefix", fi.cfg.Prefix)))
	defer span.End()

	found, err := fi.discovery.FindFilesByPrefix("", fi.cfg.Prefix)
	if err != nil {
		appErr := apperrors.NewStorageError("failed to scan "+fi.cfg.Directory, err)
		recordSpanError(span, appErr)
		return "", appErr
	}

	latest, ok := files.GetLatestFile(found)
	if !ok {
		appErr := apperrors.NewNotFoundError(
			fmt.Sprintf("no files starting with %s in %s", fi.cfg.Prefix, fi.cfg.Directory),
			apperrors.ErrNoFilesFound)
		recordSpanError(span, appErr)
		return "", appErr
	}

	span.SetAttributes(semconv.FileName(latest.Name))
	fi.logger.InfoContext(ctx, "Latest export located",
		slog.String("file", latest.Path),
		slog.Int("candidates", len(found)),
		slog.Time("modified", latest.ModTime))

	return latest.Path, nil
}

// ExtractLoadTimestamp reads the load timestamp from an export file name
func (fi *FileIngestor) ExtractLoadTimestamp(path string) (dataprocessing.LoadTimestamp, error) {
	return dataprocessing.ExtractLoadTimestamp(path)
}

// LoadAndNormalize parses the workbook at path and runs the normalization
// steps. Any failure, including a panic inside the steps, yields an
// unsuccessful result.
func (fi *FileIngestor) LoadAndNormalize(ctx context.Context, path string) (result ProcessingResult) {
	ctx, span := fi.telemetry.Tracer.Start(ctx, "ingest.load_and_normalize",
		trace.WithAttributes(semconv.FilePath(path)))
	start := time.Now()

	defer func() {
		if r := recover(); r != nil {
			err := apperrors.NewParsingError(fmt.Sprintf("unexpected failure: %v", r), nil)
			result = fi.failure(ctx, span, path, err)
		}
		fi.telemetry.Metrics.LoadDurationSecs.Record(ctx, time.Since(start).Seconds())
		span.End()
	}()

	if err := fi.validator.ValidateWorkbookFile(path); err != nil {
		return fi.failure(ctx, span, path, apperrors.NewValidationError("invalid workbook", err))
	}

	ts, err := dataprocessing.ExtractLoadTimestamp(path)
	if err != nil {
		return fi.failure(ctx, span, path, err)
	}

	tbl, err := dataprocessing.ParseWorkbook(path, fi.cfg.Sheet, fi.logger)
	if err != nil {
		return fi.failure(ctx, span, path, apperrors.NewParsingError("failed to read workbook", err))
	}

	report, err := fi.normalizer.Normalize(tbl, ts)
	if err != nil {
		return fi.failure(ctx, span, path, err)
	}

	metrics := fi.telemetry.Metrics
	for _, cf := range report.ColumnFailures {
		metrics.ColumnFailures.Add(ctx, 1, infrastructure.ColumnAttr(cf.Column))
	}
	metrics.FilesProcessed.Add(ctx, 1)
	metrics.RowsLoaded.Add(ctx, int64(tbl.Len()))

	span.SetAttributes(
		attribute.Int("ingest.rows", tbl.Len()),
		attribute.Int("ingest.columns", tbl.Width()),
		attribute.Int("ingest.column_failures", len(report.ColumnFailures)))
	span.SetStatus(codes.Ok, "")

	fi.logger.InfoContext(ctx, "Export loaded",
		slog.String("file", path),
		slog.String("load_datetime", ts.DateTime),
		slog.Int("rows", tbl.Len()),
		slog.Int("columns", tbl.Width()),
		slog.Int("column_failures", len(report.ColumnFailures)),
		slog.Duration("duration", time.Since(start)))

	return ProcessingResult{
		Success: true,
		Message: fmt.Sprintf("loaded %d rows and %d columns from %s",
			tbl.Len(), tbl.Width(), filepath.Base(path)),
		Table:      tbl,
		SourceFile: path,
		Report:     report,
	}
}

// ProcessLatest loads path, or the latest export when path is empty
func (fi *FileIngestor) ProcessLatest(ctx context.Context, path string) ProcessingResult {
	ctx, span := fi.telemetry.Tracer.Start(ctx, "ingest.process_latest")
	defer span.End()

	if path == "" {
		latest, err := fi.LocateLatest(ctx)
		if err != nil {
			return fi.failure(ctx, span, "", err)
		}
		path = latest
	}

	result := fi.LoadAndNormalize(ctx, path)
	if !result.Success {
		span.SetStatus(codes.Error, result.Message)
	}
	return result
}

// DeleteLatest removes path, or the latest export when path is empty. It
// reports whether a file was removed.
func (fi *FileIngestor) DeleteLatest(ctx context.Context, path string) bool {
	ctx, span := fi.telemetry.Tracer.Start(ctx, "ingest.delete_latest")
	defer span.End()

	if path == "" {
		latest, err := fi.LocateLatest(ctx)
		if err != nil {
			recordSpanError(span, err)
			fi.logger.ErrorContext(ctx, "No export to delete",
				slog.String("error", err.Error()))
			return false
		}
		path = latest
	}
	span.SetAttributes(semconv.FilePath(path))

	if err := fi.manager.DeleteFile(path); err != nil {
		appErr := apperrors.NewStorageError("failed to delete "+path, err)
		recordSpanError(span, appErr)
		fi.logger.ErrorContext(ctx, "Failed to delete export",
			slog.String("file", path),
			slog.String("error", appErr.Error()))
		return false
	}

	fi.telemetry.Metrics.FilesDeleted.Add(ctx, 1)
	fi.logger.InfoContext(ctx, "Export deleted", slog.String("file", path))
	return true
}

func (fi *FileIngestor) failure(ctx context.Context, span trace.Span, path string, err error) ProcessingResult {
	recordSpanError(span, err)
	fi.telemetry.Metrics.LoadFailures.Add(ctx, 1)
	fi.logger.ErrorContext(ctx, "Export processing failed",
		slog.String("file", path),
		slog.String("error", err.Error()))

	msg := err.Error()
	if path != "" {
		msg = fmt.Sprintf("failed to process %s: %s", filepath.Base(path), msg)
	}
	return ProcessingResult{
		Success:    false,
		Message:    msg,
		SourceFile: path,
	}
}

func recordSpanError(span trace.Span, err error) {
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}
