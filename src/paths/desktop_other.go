//go:build !windows

package paths

import (
	"fmt"
	"os"
	"path/filepath"
)

func desktopDir() (string, error) {
	if xdg := os.Getenv("XDG_DESKTOP_DIR"); xdg != "" {
		return xdg, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("Failed to get desktop directory: %w", err)
	}
	return filepath.Join(home, "Desktop"), nil
}
