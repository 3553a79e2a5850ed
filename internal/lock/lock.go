// Package lock serializes runs that write the same report file.
package lock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

const lockFilePrefix = "flatten-"

// OutputLock is an advisory lock keyed by the absolute output path.
// The lock file lives outside the scanned tree.
type OutputLock struct {
	flock  *flock.Flock
	path   string
	target string
}

// ForOutput returns the lock for outputPath in the OS temporary directory.
// Lock files persist after Unlock so that waiting runs and new runs share one inode.
// Each distinct output path leaves one empty file behind.
func ForOutput(outputPath string) *OutputLock {
	return ForOutputIn(os.TempDir(), outputPath)
}

// ForOutputIn returns the lock for outputPath with its lock file placed in directory.
// The same output path always maps to the same lock file name.
func ForOutputIn(directory string, outputPath string) *OutputLock {
	target := outputPath
	if absolutePath, err := filepath.Abs(outputPath); err == nil {
		target = absolutePath
	}
	name := uuid.NewSHA1(uuid.NameSpaceURL, []byte("file://"+filepath.ToSlash(target))).String()
	path := filepath.Join(directory, lockFilePrefix+name+".lock")
	return &OutputLock{
		flock:  flock.New(path),
		path:   path,
		target: target,
	}
}

// Path returns the lock file location.
func (outputLock *OutputLock) Path() string {
	return outputLock.path
}

// Lock blocks until the exclusive lock is held.
func (outputLock *OutputLock) Lock() error {
	if err := outputLock.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock for %s: %w", outputLock.target, err)
	}
	return nil
}

// TryLock acquires the lock without blocking and reports whether it succeeded.
func (outputLock *OutputLock) TryLock() (bool, error) {
	acquired, err := outputLock.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to try lock for %s: %w", outputLock.target, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (outputLock *OutputLock) Unlock() error {
	if err := outputLock.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock for %s: %w", outputLock.target, err)
	}
	return nil
}
