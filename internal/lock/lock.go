// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package lock serializes edit batches against one working directory with
// an OS-level file lock.
package lock

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
)

var (
	// ErrLockTimeout is returned when the lock is still held by another
	// process after the timeout.
	ErrLockTimeout = errors.New("timeout acquiring working directory lock")
	// ErrDirRequired is returned when no working directory is given.
	ErrDirRequired = errors.New("working directory is required")
)

const (
	// DefaultTimeout is how long Lock waits when no timeout is configured.
	DefaultTimeout = 10 * time.Second

	pollInterval = 10 * time.Millisecond
)

// DirLock is an exclusive lock on a working directory. The lock file lives
// in the OS temp directory, named after the absolute directory path, so the
// working tree itself is never touched.
type DirLock struct {
	Dir     string // Absolute working directory
	Path    string // Lock file
	Timeout time.Duration
}

// New returns a lock for dir. A zero timeout uses DefaultTimeout.
func New(dir string, timeout time.Duration) (*DirLock, error) {
	return newIn(os.TempDir(), dir, timeout)
}

func newIn(lockRoot, dir string, timeout time.Duration) (*DirLock, error) {
	if dir == "" {
		return nil, ErrDirRequired
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	sum := sha256.Sum256([]byte(abs))
	return &DirLock{
		Dir:     abs,
		Path:    filepath.Join(lockRoot, "apply-edits-"+hex.EncodeToString(sum[:8])+".lock"),
		Timeout: timeout,
	}, nil
}

// Lock blocks until the lock is held, the timeout passes or ctx is done.
// The returned function releases the lock.
func (l *DirLock) Lock(ctx context.Context) (func() error, error) {
	ctx, cancel := context.WithTimeout(ctx, l.Timeout)
	defer cancel()

	fl := flock.New(l.Path)
	locked, err := fl.TryLockContext(ctx, pollInterval)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("%w: %s after %s", ErrLockTimeout, l.Dir, l.Timeout)
		}
		return nil, fmt.Errorf("acquiring lock %s: %w", l.Path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%w: %s", ErrLockTimeout, l.Dir)
	}
	return fl.Unlock, nil
}
