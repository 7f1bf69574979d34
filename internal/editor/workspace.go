// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"
)

const defaultFilePerm = os.FileMode(0o644)

// Workspace is the working directory a batch is applied to. Paths handed to
// it are relative and are resolved inside the root; anything else is
// rejected before it reaches the filesystem.
type Workspace struct {
	fs   afero.Fs
	root string // Absolute OS directory; empty for in-memory workspaces
}

// NewWorkspace roots a workspace at dir on the OS filesystem.
func NewWorkspace(dir string) (*Workspace, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("opening working directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("working directory %s is not a directory", abs)
	}
	return &Workspace{
		fs:   afero.NewBasePathFs(afero.NewOsFs(), abs),
		root: abs,
	}, nil
}

// NewFsWorkspace wraps an arbitrary afero filesystem, typically a MemMapFs in
// tests. The filesystem root is the working directory.
func NewFsWorkspace(fsys afero.Fs) *Workspace {
	return &Workspace{fs: fsys}
}

// Fs returns the filesystem rooted at the working directory.
func (w *Workspace) Fs() afero.Fs { return w.fs }

// Root returns the absolute working directory, or "" for in-memory
// workspaces.
func (w *Workspace) Root() string { return w.root }

// Clean validates p and returns its canonical slash-separated form.
func (w *Workspace) Clean(p string) (string, error) {
	p = strings.TrimSpace(p)
	if p == "" {
		return "", errors.New("empty path")
	}
	if filepath.IsAbs(p) || strings.HasPrefix(p, "/") || strings.HasPrefix(p, `\`) {
		return "", fmt.Errorf("%w: %s is absolute", ErrPathOutsideRoot, p)
	}
	clean := path.Clean(filepath.ToSlash(p))
	if clean == "." {
		return "", fmt.Errorf("path %s names the working directory itself", p)
	}
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("%w: %s", ErrPathOutsideRoot, p)
	}
	if w.root != "" {
		if err := w.checkSymlinks(clean); err != nil {
			return "", err
		}
	}
	return clean, nil
}

// checkSymlinks resolves the deepest existing ancestor of rel and rejects it
// when a symlink takes it out of the root.
func (w *Workspace) checkSymlinks(rel string) error {
	root, err := filepath.EvalSymlinks(w.root)
	if err != nil {
		return fmt.Errorf("resolving working directory: %w", err)
	}
	candidate := filepath.Join(w.root, filepath.FromSlash(rel))
	for {
		resolved, err := filepath.EvalSymlinks(candidate)
		if err == nil {
			if resolved != root && !strings.HasPrefix(resolved, root+string(filepath.Separator)) {
				return fmt.Errorf("%w: %s resolves to %s", ErrPathOutsideRoot, rel, resolved)
			}
			return nil
		}
		parent := filepath.Dir(candidate)
		if parent == candidate || len(parent) < len(w.root) {
			return nil
		}
		candidate = parent
	}
}

// target returns the root-relative path clean finally refers to once
// symlinks inside the root are followed. In-memory workspaces, and paths
// that cannot be resolved, map to themselves.
func (w *Workspace) target(clean string) string {
	if w.root == "" {
		return clean
	}
	root, err := filepath.EvalSymlinks(w.root)
	if err != nil {
		return clean
	}
	full := filepath.Join(w.root, filepath.FromSlash(clean))
	resolved, err := filepath.EvalSymlinks(full)
	if err != nil {
		// A file still to be created: resolve its directory instead.
		dir, derr := filepath.EvalSymlinks(filepath.Dir(full))
		if derr != nil {
			return clean
		}
		resolved = filepath.Join(dir, filepath.Base(full))
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return clean
	}
	return filepath.ToSlash(rel)
}

// fileState is the in-memory working copy of one path for one invocation.
type fileState struct {
	path        string
	target      string // Symlink-resolved path that is read and written
	origExists  bool
	origContent string
	perm        os.FileMode
	exists      bool
	content     string
	touched     bool
	lastOp      int   // Index of the last successful op on this path
	loadErr     error // Set when the path could not be loaded; every op on it fails
}

func (s *fileState) changed() bool {
	return s.exists != s.origExists || s.content != s.origContent
}

// load reads p fresh from disk. A missing file is not an error.
func (w *Workspace) load(p string) *fileState {
	st := &fileState{path: p, perm: defaultFilePerm, lastOp: -1}

	clean, err := w.Clean(p)
	if err != nil {
		st.loadErr = err
		return st
	}
	st.path = clean
	st.target = w.target(clean)

	info, err := w.fs.Stat(st.target)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return st
	case err != nil:
		st.loadErr = fmt.Errorf("stat %s: %w", clean, err)
		return st
	case info.IsDir():
		st.loadErr = fmt.Errorf("%s is a directory", clean)
		return st
	}

	data, err := afero.ReadFile(w.fs, st.target)
	if err != nil {
		st.loadErr = fmt.Errorf("reading %s: %w", clean, err)
		return st
	}
	st.origExists, st.exists = true, true
	st.origContent, st.content = string(data), string(data)
	st.perm = info.Mode().Perm()
	return st
}

// commit persists the final state of every path in order. If any write
// fails, the paths already written are restored from their originals and
// the failing state is returned with the error.
func (w *Workspace) commit(states []*fileState) (*fileState, error) {
	var done []*fileState
	for _, st := range states {
		if !st.changed() {
			continue
		}
		if err := w.persist(st); err != nil {
			w.restore(done)
			return st, err
		}
		done = append(done, st)
	}
	return nil, nil
}

func (w *Workspace) persist(st *fileState) error {
	if !st.exists {
		// The file is removed, so links that named it are left dangling.
		if err := w.fs.Remove(st.target); err != nil {
			return fmt.Errorf("deleting %s: %w", st.path, err)
		}
		return nil
	}

	if dir := path.Dir(st.target); dir != "." {
		if err := w.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating directory %s: %w", dir, err)
		}
	}
	return w.atomicWrite(st.target, []byte(st.content), st.perm)
}

// restore undoes persisted states in reverse order. Errors are ignored; the
// caller already reports the batch as failed.
func (w *Workspace) restore(done []*fileState) {
	for i := len(done) - 1; i >= 0; i-- {
		st := done[i]
		if st.origExists {
			_ = w.atomicWrite(st.target, []byte(st.origContent), st.perm)
			continue
		}
		_ = w.fs.Remove(st.target)
	}
}

// atomicWrite writes data to a temp file in the same directory, then renames
// it to the target path.
func (w *Workspace) atomicWrite(name string, data []byte, perm os.FileMode) error {
	f, err := afero.TempFile(w.fs, path.Dir(name), ".apply-edits-*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := f.Name()

	if _, err := f.Write(data); err != nil {
		f.Close()
		w.fs.Remove(tmpPath)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := f.Close(); err != nil {
		w.fs.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := w.fs.Chmod(tmpPath, perm); err != nil {
		w.fs.Remove(tmpPath)
		return fmt.Errorf("setting permissions: %w", err)
	}

	if err := w.fs.Rename(tmpPath, name); err != nil {
		w.fs.Remove(tmpPath)
		return fmt.Errorf("renaming temp file: %w", err)
	}
	return nil
}
