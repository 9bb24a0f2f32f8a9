package validation

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"sigitm/internal/files"
)

// WorkbookExtensions lists the OOXML spreadsheet extensions the reader accepts
var WorkbookExtensions = []string{".xlsx", ".xlsm", ".xltx", ".xltm"}

// FileValidator checks the input directory and workbook files before they are read
type FileValidator struct {
	logger  *slog.Logger
	manager *files.Manager
}

// NewFileValidator creates a new file validator. Missing directories are
// created through manager; nil gets a manager sharing logger.
func NewFileValidator(logger *slog.Logger, manager *files.Manager) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	if manager == nil {
		manager = files.NewManager(logger)
	}
	return &FileValidator{
		logger:  logger,
		manager: manager,
	}
}

// EnsureInputDirectory validates that dir exists and is a directory. A missing
// directory is created when create is true.
func (v *FileValidator) EnsureInputDirectory(dir string, create bool) error {
	if !create {
		info, err := os.Stat(dir)
		if os.IsNotExist(err) {
			v.logger.Warn("Input directory does not exist",
				slog.String("directory", dir))
			return fmt.Errorf("input directory %s does not exist", dir)
		}
		if err != nil {
			return fmt.Errorf("failed to stat directory %s: %w", dir, err)
		}
		if !info.IsDir() {
			return fmt.Errorf("%s is not a directory", dir)
		}
		return nil
	}

	created, err := v.manager.EnsureDirectory(dir)
	if err != nil {
		v.logger.Error("Input directory unusable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return fmt.Errorf("input directory %s: %w", dir, err)
	}
	if created {
		v.logger.Warn("Input directory does not exist, created it",
			slog.String("directory", dir))
	}
	return nil
}

// ValidateFile checks if a specific file exists and is readable
func (v *FileValidator) ValidateFile(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		v.logger.Error("File does not exist",
			slog.String("file", path))
		return fmt.Errorf("file %s does not exist", path)
	}
	if err != nil {
		v.logger.Error("Failed to stat file",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("failed to stat file %s: %w", path, err)
	}
	if info.IsDir() {
		v.logger.Error("Path is a directory, not a file",
			slog.String("path", path))
		return fmt.Errorf("%s is a directory, not a file", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return fmt.Errorf("file %s is not readable: %w", path, err)
	}
	file.Close()

	v.logger.Debug("File validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateWorkbookFile checks that path is a readable OOXML workbook and not
// an Office lock file.
func (v *FileValidator) ValidateWorkbookFile(path string) error {
	if err := v.ValidateFile(path); err != nil {
		return err
	}

	ext := strings.ToLower(filepath.Ext(path))
	supported := false
	for _, e := range WorkbookExtensions {
		if ext == e {
			supported = true
			break
		}
	}
	if !supported {
		v.logger.Error("File is not a supported workbook",
			slog.String("file", path),
			slog.String("extension", ext))
		return fmt.Errorf("file %s is not a supported workbook (extension: %s)", path, ext)
	}

	if strings.HasPrefix(filepath.Base(path), "~$") {
		v.logger.Warn("Skipping temporary Excel file",
			slog.String("file", path))
		return fmt.Errorf("file %s is a temporary Excel file", path)
	}

	return nil
}
