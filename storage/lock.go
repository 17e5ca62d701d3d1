package storage

import (
	"fmt"
	"os"
	"strconv"
)

// LockPath returns the path of the lock file for a document.
func LockPath(docPath string) string {
	return docPath + ".lock"
}

// FileLock is an advisory, exclusive lock on a document. Locks are held on
// a separate lock file, so that atomic replacement of the document does not
// affect the lock.
type FileLock struct {
	path string
	file *os.File
}

// Lock acquires the lock for a document without blocking. If another
// process holds the lock, ErrLocked is returned.
func Lock(docPath string) (*FileLock, error) {
	if err := ValidatePath(docPath); err != nil {
		return nil, err
	}
	path := LockPath(docPath)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return nil, fmt.Errorf("opening lock file %s: %w", path, err)
	}
	if err := lockFile(f); err != nil {
		f.Close()
		return nil, err
	}
	if err := f.Truncate(0); err == nil {
		f.WriteAt([]byte(strconv.Itoa(os.Getpid())+"\n"), 0)
	}
	tracer().Debugf("acquired lock %s", path)
	return &FileLock{path: path, file: f}, nil
}

// Path returns the path of the lock file.
func (l *FileLock) Path() string {
	return l.path
}

// Unlock releases the lock and removes the lock file.
// Calling Unlock on a released lock is a no-op.
func (l *FileLock) Unlock() error {
	if l == nil || l.file == nil {
		return nil
	}
	err := unlockFile(l.file)
	os.Remove(l.path)
	if cerr := l.file.Close(); err == nil {
		err = cerr
	}
	l.file = nil
	tracer().Debugf("released lock %s", l.path)
	return err
}
