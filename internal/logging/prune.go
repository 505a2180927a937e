package logging

import (
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// PruneRunLogs removes run logs in dir that were last written more than
// keepDays ago, sparing current. It returns the number removed. keepDays of 0
// keeps everything.
func PruneRunLogs(logger *slog.Logger, dir string, keepDays int, current string) int {
	if keepDays <= 0 || dir == "" {
		return 0
	}
	paths, err := filepath.Glob(filepath.Join(dir, LogFilePattern))
	if err != nil {
		return 0
	}
	cutoff := time.Now().AddDate(0, 0, -keepDays)
	current = filepath.Clean(current)

	removed := 0
	for _, path := range paths {
		if filepath.Clean(path) == current {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.IsDir() || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(path); err != nil {
			WarnWithContext(logger, "old run log could not be removed", "log_retention_failed",
				String("path", path),
				Error(err),
				String(FieldErrorHint, "check permissions on [paths] log_dir"),
				String(FieldImpact, "stale run log stays on disk"),
			)
			continue
		}
		removed++
	}
	if removed > 0 && logger != nil {
		logger.Debug("pruned run logs",
			Int("removed", removed),
			String("dir", dir),
			String(FieldEventType, "log_pruned"),
		)
	}
	return removed
}
