package logging

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"
)

// RetentionTarget names a directory whose files matching Pattern expire.
// Paths in Exclude are never removed.
type RetentionTarget struct {
	Dir     string
	Pattern string
	Exclude []string
}

// CleanupOldLogs deletes expired files across targets and returns how many
// were removed. Files expire retentionDays after their last modification;
// zero or negative days keeps everything.
func CleanupOldLogs(logger *slog.Logger, retentionDays int, targets ...RetentionTarget) int {
	if retentionDays <= 0 {
		return 0
	}
	if logger == nil {
		logger = NewNop()
	}
	cutoff := time.Now().AddDate(0, 0, -retentionDays)

	removed := 0
	for _, target := range targets {
		if target.Dir == "" {
			continue
		}
		keep := make(map[string]bool, len(target.Exclude))
		for _, path := range target.Exclude {
			keep[filepath.Clean(path)] = true
		}
		matches, err := filepath.Glob(filepath.Join(target.Dir, patternOrAll(target.Pattern)))
		if err != nil {
			continue
		}
		for _, path := range matches {
			if keep[filepath.Clean(path)] || !expired(path, cutoff) {
				continue
			}
			if err := os.Remove(path); err != nil {
				WarnWithContext(logger, "could not remove expired log", "log_retention_failed",
					String("path", path),
					Error(err),
					String(FieldErrorHint, "check permissions on log_dir"),
					String(FieldImpact, "old log file remains on disk"),
				)
				continue
			}
			removed++
			logger.Debug("expired log removed", String("path", path), String(FieldEventType, "log_pruned"))
		}
	}
	return removed
}

func patternOrAll(pattern string) string {
	if pattern == "" {
		return "*"
	}
	return pattern
}

func expired(path string, cutoff time.Time) bool {
	info, err := os.Lstat(path)
	if err != nil || info.Mode()&fs.ModeType != 0 {
		return false
	}
	return info.ModTime().Before(cutoff)
}
