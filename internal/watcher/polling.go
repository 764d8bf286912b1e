package watcher

import (
	"errors"
	"io/fs"
	"os"
	"time"
)

// fileSnapshot is what polling compares between ticks.
type fileSnapshot struct {
	exists  bool
	modTime time.Time
	size    int64
}

func snapshot(path string) (fileSnapshot, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return fileSnapshot{}, nil
	}
	if err != nil {
		return fileSnapshot{}, err
	}
	return fileSnapshot{exists: true, modTime: info.ModTime(), size: info.Size()}, nil
}

// diff returns the operation that turns prev into cur, or false when nothing
// changed.
func diff(prev, cur fileSnapshot) (Change, bool) {
	switch {
	case prev.exists && !cur.exists:
		return Removed, true
	case !cur.exists:
		return 0, false
	case !prev.exists, !prev.modTime.Equal(cur.modTime), prev.size != cur.size:
		return Written, true
	default:
		return 0, false
	}
}
