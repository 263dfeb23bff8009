//go:build windows

package paths

import (
	"fmt"

	"golang.org/x/sys/windows"
)

func desktopDir() (string, error) {
	dir, err := windows.KnownFolderPath(windows.FOLDERID_Desktop, windows.KF_FLAG_DEFAULT)
	if err != nil {
		return "", fmt.Errorf("Failed to get desktop directory: %w", err)
	}
	return dir, nil
}
