package download

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// tempPrefix names partial downloads before they are renamed into place
const tempPrefix = ".download-"

// RemoveStale deletes partial downloads older than maxAge left in dir by an
// interrupted run. Finished files are never touched.
func RemoveStale(dir string, maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasPrefix(entry.Name(), tempPrefix) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue // Removed underneath us
		}
		if time.Since(info.ModTime()) <= maxAge {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
			slog.Warn("failed to remove partial download", "file", path, "error", err)
			continue
		}
		slog.Debug("removed partial download", "file", path)
		removed++
	}
	return removed, nil
}
