// Package idxlock guards the on-disk index directory against concurrent
// access from more than one process, giving the "one active index"
// convention a real cross-process mechanism via a gofrs/flock advisory
// lock file.
package idxlock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// Lock is a cross-process exclusive lock on an index directory.
type Lock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

// New creates a lock for the index directory at dir. The lock file
// lives at <dir>/.index.lock.
func New(dir string) *Lock {
	lockPath := filepath.Join(dir, ".index.lock")
	return &Lock{path: lockPath, flock: flock.New(lockPath)}
}

// TryLock attempts to acquire the lock without blocking. Returns false
// if another process already holds it.
func (l *Lock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	if acquired {
		l.locked = true
	}
	return acquired, nil
}

// Unlock releases the lock. Safe to call multiple times.
func (l *Lock) Unlock() error {
	if !l.locked {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release index lock: %w", err)
	}
	l.locked = false
	return nil
}

// IsLocked reports whether this instance currently holds the lock.
func (l *Lock) IsLocked() bool {
	return l.locked
}
