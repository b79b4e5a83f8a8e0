package logging

import (
	"os"
	"path/filepath"
)

// LogDirName is the directory under the user home where logs live.
const LogDirName = ".litmesh/logs"

// LogDir returns the log directory path.
// Falls back to a temp directory when the home directory is unknown.
func LogDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "litmesh-logs")
	}
	return filepath.Join(home, LogDirName)
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(LogDir(), "litmesh.log")
}

// EnsureLogDir creates the log directory if it does not exist.
func EnsureLogDir() error {
	return os.MkdirAll(LogDir(), 0o755)
}
