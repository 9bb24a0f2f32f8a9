package config

import (
	"errors"
	"path/filepath"

	"github.com/adrg/xdg"
)

// DownloadsDir returns the user's platform-specific downloads directory as
// resolved by the xdg package: XDG_DOWNLOAD_DIR and user-dirs.dirs on Unix,
// the Downloads known folder on Windows and ~/Downloads on macOS.
//
// xdg reads the environment once at init; call xdg.Reload after changing it.
func DownloadsDir() (string, error) {
	if dir := xdg.UserDirs.Download; dir != "" {
		return dir, nil
	}
	if xdg.Home == "" {
		return "", errors.New("failed to resolve home directory")
	}
	return filepath.Join(xdg.Home, DownloadsFolder), nil
}
