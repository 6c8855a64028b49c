package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath names a per-process log file: <dir>/<name>.<start>.log.
func LogFilePath(logsDir, name string, start time.Time) string {
	return filepath.Join(logsDir, fmt.Sprintf("%s.%s.log", name, start.Format("20060102_150405")))
}
