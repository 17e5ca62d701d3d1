package storage

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ArchiveExt is the file extension of encrypted archives.
const ArchiveExt = ".mfz"

// IsArchive is a predicate: does path denote an encrypted archive?
func IsArchive(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ArchiveExt)
}

// ValidatePath rejects empty paths and paths containing control characters.
func ValidatePath(path string) error {
	if strings.TrimSpace(path) == "" {
		return fmt.Errorf("%w: empty path", ErrInvalidPath)
	}
	for _, r := range path {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains control characters", ErrInvalidPath, path)
		}
	}
	return nil
}

// Exists is a predicate: does a file at path exist?
func Exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

// Load reads a document. Archives are decrypted with password, which may be
// nil for plain files. A missing file results in an error matching
// fs.ErrNotExist.
func Load(path string, password *Password) ([]byte, error) {
	if err := ValidatePath(path); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if !IsArchive(path) {
		return data, nil
	}
	if password.Empty() {
		return nil, ErrPasswordRequired
	}
	var plain []byte
	err = password.With(func(secret []byte) error {
		plain, err = Open(data, secret)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}
	tracer().Debugf("decrypted archive %s (%d bytes)", path, len(plain))
	return plain, nil
}

// Save writes a document atomically. Archives are encrypted with password.
func Save(path string, data []byte, password *Password) error {
	if err := ValidatePath(path); err != nil {
		return err
	}
	if IsArchive(path) {
		if password.Empty() {
			return ErrPasswordRequired
		}
		var sealed []byte
		err := password.With(func(secret []byte) error {
			var err error
			sealed, err = Seal(data, secret)
			return err
		})
		if err != nil {
			return fmt.Errorf("saving %s: %w", path, err)
		}
		data = sealed
	}
	return WriteFileAtomic(path, data, 0o644)
}

// WriteFileAtomic writes data to a temporary file next to path and renames
// it to path. Either the old or the new content is visible, never a mix.
func WriteFileAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp*")
	if err != nil {
		return fmt.Errorf("creating temporary file: %w", err)
	}
	tmpName := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpName)
	}
	if _, err = tmp.Write(data); err != nil {
		cleanup()
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err = os.Chmod(tmpName, perm); err != nil {
		os.Remove(tmpName)
		return err
	}
	if err = os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// copyFile copies src to dst atomically.
func copyFile(src, dst string) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return err
	}
	return WriteFileAtomic(dst, data, info.Mode().Perm())
}

func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist)
}
