// Package logging builds the engine's slog handler chain and the zerolog
// adapter used by components that take a key/value Logger.
package logging

import (
	"fmt"
	"path/filepath"
	"time"
)

// LogFilePath names the log file of a server session started at sessionStart.
func LogFilePath(logsDir string, sessionStart time.Time) string {
	return filepath.Join(
		logsDir,
		fmt.Sprintf("%s.%s.log", ServiceName, sessionStart.Format("20060102_150405")),
	)
}
