package storage

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// BackupOptions control the naming and extent of a backup.
type BackupOptions struct {
	Timestamp  bool             // name.20060102_150405.ext instead of name.bkp.ext
	Force      bool             // overwrite an existing backup
	Companions []string         // suffixes of companion files to copy along, e.g. ".ids"
	Now        func() time.Time // clock, defaults to time.Now
}

// BackupPath returns the path of a backup for a document.
func BackupPath(path string, opts BackupOptions) string {
	ext := filepath.Ext(path)
	base := strings.TrimSuffix(path, ext)
	tag := "bkp"
	if opts.Timestamp {
		now := time.Now
		if opts.Now != nil {
			now = opts.Now
		}
		tag = now().Format("20060102_150405")
	}
	return base + "." + tag + ext
}

// Backup copies a document, together with existing companion files. It
// returns the path of the backup. Existing backups are not overwritten
// unless opts.Force is set.
func Backup(path string, opts BackupOptions) (string, error) {
	if err := ValidatePath(path); err != nil {
		return "", err
	}
	target := BackupPath(path, opts)
	if Exists(target) && !opts.Force {
		return "", fmt.Errorf("%w: backup %s", ErrExists, target)
	}
	if err := copyFile(path, target); err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	for _, suffix := range opts.Companions {
		err := copyFile(path+suffix, target+suffix)
		if err != nil && !isNotExist(err) {
			return target, fmt.Errorf("backing up %s: %w", path+suffix, err)
		}
	}
	tracer().Infof("backup of %s written to %s", path, target)
	return target, nil
}
