package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"time"
)

// MaxBackups is how many backups `config init --force` keeps per file.
const MaxBackups = 3

// BackupSuffix separates the config file name from the backup timestamp.
const BackupSuffix = ".bak"

const backupStamp = "20060102-150405.000"

// BackupFile copies path to path.bak.<timestamp> and prunes older backups.
// It returns "" when path does not exist.
func BackupFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read config for backup: %w", err)
	}

	backup := path + BackupSuffix + "." + time.Now().Format(backupStamp)
	if err := os.WriteFile(backup, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write backup: %w", err)
	}

	if old, err := ListBackups(path); err == nil && len(old) > MaxBackups {
		for _, b := range old[MaxBackups:] {
			_ = os.Remove(b)
		}
	}
	return backup, nil
}

// ListBackups returns the backups of path, newest first.
func ListBackups(path string) ([]string, error) {
	backups, err := filepath.Glob(globEscape(path) + BackupSuffix + ".*")
	if err != nil {
		return nil, fmt.Errorf("failed to list config backups: %w", err)
	}
	// The timestamp sorts lexically.
	slices.Sort(backups)
	slices.Reverse(backups)
	return backups, nil
}

func globEscape(path string) string {
	var b []rune
	for _, r := range path {
		if r == '*' || r == '?' || r == '[' {
			b = append(b, '[', r, ']')
			continue
		}
		b = append(b, r)
	}
	return string(b)
}
