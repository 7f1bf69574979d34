// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package lock

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	root := t.TempDir()
	l, err := newIn(root, "some/dir", 0)
	require.NoError(t, err)
	assert.True(t, filepath.IsAbs(l.Dir))
	assert.Equal(t, DefaultTimeout, l.Timeout)
	assert.Equal(t, root, filepath.Dir(l.Path))

	same, err := newIn(root, l.Dir, time.Second)
	require.NoError(t, err)
	assert.Equal(t, l.Path, same.Path, "same directory, same lock file")

	other, err := newIn(root, "other/dir", 0)
	require.NoError(t, err)
	assert.NotEqual(t, l.Path, other.Path)

	_, err = New("", 0)
	assert.ErrorIs(t, err, ErrDirRequired)
}

func TestLock_AcquireRelease(t *testing.T) {
	l, err := newIn(t.TempDir(), t.TempDir(), time.Second)
	require.NoError(t, err)

	unlock, err := l.Lock(context.Background())
	require.NoError(t, err)
	require.NoError(t, unlock())

	unlock, err = l.Lock(context.Background())
	require.NoError(t, err, "lock is reusable after release")
	require.NoError(t, unlock())
}

func TestLock_Timeout(t *testing.T) {
	root, dir := t.TempDir(), t.TempDir()
	holder, err := newIn(root, dir, time.Second)
	require.NoError(t, err)
	unlock, err := holder.Lock(context.Background())
	require.NoError(t, err)
	defer unlock()

	waiter, err := newIn(root, dir, 50*time.Millisecond)
	require.NoError(t, err)
	start := time.Now()
	_, err = waiter.Lock(context.Background())
	assert.ErrorIs(t, err, ErrLockTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 40*time.Millisecond)
}

func TestLock_WaitsForRelease(t *testing.T) {
	root, dir := t.TempDir(), t.TempDir()
	holder, err := newIn(root, dir, time.Second)
	require.NoError(t, err)
	unlock, err := holder.Lock(context.Background())
	require.NoError(t, err)

	go func() {
		time.Sleep(30 * time.Millisecond)
		_ = unlock()
	}()

	waiter, err := newIn(root, dir, 2*time.Second)
	require.NoError(t, err)
	release, err := waiter.Lock(context.Background())
	require.NoError(t, err)
	require.NoError(t, release())
}
