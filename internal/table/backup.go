package table

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Backup copies the file at path alongside itself as
// <stem>_backup_YYYYMMDD_HHMMSS<ext> and returns the backup path. A missing
// source is not an error: there is nothing to protect yet.
func Backup(path string, now time.Time) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", nil
		}
		return "", fmt.Errorf("reading %s for backup: %w", path, err)
	}

	ext := filepath.Ext(path)
	stem := strings.TrimSuffix(path, ext)
	dst := fmt.Sprintf("%s_backup_%s%s", stem, now.Format("20060102_150405"), ext)

	if err := os.WriteFile(dst, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup %s: %w", dst, err)
	}
	return dst, nil
}
