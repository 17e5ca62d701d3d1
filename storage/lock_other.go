//go:build !unix

package storage

import (
	"os"
)

// Advisory locks are not supported on this platform; locking always succeeds.

func lockFile(f *os.File) error {
	return nil
}

func unlockFile(f *os.File) error {
	return nil
}
