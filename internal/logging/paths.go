package logging

import (
	"os"
	"path/filepath"
)

// DefaultLogDir returns the default log directory (~/.sitesearch/logs/).
// Falls back to temp directory if home directory is unavailable.
// SITESEARCH_LOG_DIR overrides both.
func DefaultLogDir() string {
	if dir := os.Getenv("SITESEARCH_LOG_DIR"); dir != "" {
		return dir
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), ".sitesearch", "logs")
	}
	return filepath.Join(home, ".sitesearch", "logs")
}

// DefaultLogPath returns the default log file path.
func DefaultLogPath() string {
	return filepath.Join(DefaultLogDir(), "sitesearch.log")
}
