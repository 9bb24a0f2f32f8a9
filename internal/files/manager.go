package files

import (
	"fmt"
	"log/slog"
	"os"
)

// Manager provides file management operations
type Manager struct {
	logger *slog.Logger
}

// NewManager creates a new file manager instance
func NewManager(logger *slog.Logger) *Manager {
	if logger == nil {
		logger = slog.Default()
	}
	return &Manager{logger: logger}
}

// DeleteFile removes the regular file at path. Directories, symlinks and
// other special files are refused. A missing path returns the os error
// unchanged so callers can test it with os.IsNotExist.
func (m *Manager) DeleteFile(path string) error {
	info, err := os.Lstat(path)
	if err != nil {
		return err
	}
	if !info.Mode().IsRegular() {
		return fmt.Errorf("%s is not a regular file", path)
	}

	m.logger.Info("Deleting file", slog.String("path", path))
	return os.Remove(path)
}

// EnsureDirectory creates a directory if it doesn't exist.
// It reports whether the directory had to be created.
func (m *Manager) EnsureDirectory(path string) (bool, error) {
	info, err := os.Stat(path)
	if err == nil {
		if !info.IsDir() {
			return false, fmt.Errorf("%s exists and is not a directory", path)
		}
		return false, nil
	}
	if !os.IsNotExist(err) {
		return false, err
	}

	m.logger.Debug("Creating directory", slog.String("path", path))
	if err := os.MkdirAll(path, 0755); err != nil {
		return false, err
	}
	return true, nil
}
