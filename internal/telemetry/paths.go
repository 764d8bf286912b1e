package telemetry

import (
	"os"
	"path/filepath"
)

// DefaultStatsPath returns where search stats are kept.
// SITESEARCH_DATA_DIR overrides the ~/.sitesearch directory.
func DefaultStatsPath() string {
	if dir := os.Getenv("SITESEARCH_DATA_DIR"); dir != "" {
		return filepath.Join(dir, "stats.db")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join(os.TempDir(), "sitesearch", "stats.db")
	}
	return filepath.Join(home, ".sitesearch", "stats.db")
}
