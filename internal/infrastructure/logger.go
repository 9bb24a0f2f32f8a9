package infrastructure

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"sigitm/internal/config"
)

// process-wide logger installed by InitializeLogger
var std struct {
	once   sync.Once
	logger *slog.Logger
	err    error

	mu   sync.Mutex
	file *os.File
}

// InitializeLogger builds the process logger on stderr and installs it as the
// slog default. Later calls return the first result.
func InitializeLogger(cfg config.LoggingConfig) (*slog.Logger, error) {
	std.once.Do(func() {
		std.logger, std.err = NewLogger(cfg, os.Stderr)
		if std.logger != nil {
			slog.SetDefault(std.logger)
		}
	})
	return std.logger, std.err
}

// NewLogger builds a logger for cfg. Console records go to console, which
// callers keep off stdout so exported tables stay clean.
func NewLogger(cfg config.LoggingConfig, console io.Writer) (*slog.Logger, error) {
	out, err := logOutput(cfg, console)
	if err != nil {
		return nil, err
	}

	opts := &slog.HandlerOptions{Level: parseLogLevel(cfg.Level)}
	var h slog.Handler = slog.NewJSONHandler(out, opts)
	if strings.EqualFold(cfg.Format, "text") {
		h = slog.NewTextHandler(out, opts)
	}
	return slog.New(traceIDHandler{h}), nil
}

func logOutput(cfg config.LoggingConfig, console io.Writer) (io.Writer, error) {
	mode := strings.ToLower(cfg.Output)
	if mode != "file" && mode != "both" {
		return console, nil
	}

	if err := os.MkdirAll(filepath.Dir(cfg.FilePath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	f, err := os.OpenFile(cfg.FilePath, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}

	std.mu.Lock()
	std.file = f
	std.mu.Unlock()

	if mode == "both" {
		return io.MultiWriter(console, f), nil
	}
	return f, nil
}

// CloseLogFile closes the log file opened by NewLogger, if any.
func CloseLogFile() error {
	std.mu.Lock()
	defer std.mu.Unlock()

	if std.file == nil {
		return nil
	}
	err := std.file.Close()
	std.file = nil
	return err
}

// ResetLoggerForTesting forgets the logger built by InitializeLogger.
func ResetLoggerForTesting() {
	CloseLogFile()
	std.once = sync.Once{}
	std.logger, std.err = nil, nil
}

// parseLogLevel accepts slog level names in any case plus "warning".
// Anything else is info.
func parseLogLevel(level string) slog.Level {
	if strings.EqualFold(level, "warning") {
		return slog.LevelWarn
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(level)); err != nil {
		return slog.LevelInfo
	}
	return l
}
