// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package git commits landed edit batches and undoes them.
package git

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// Trailer marks commits made by apply-edits. Undo only resets commits that
// carry it.
const Trailer = "Applied-By: apply-edits"

// ErrNotAppliedCommit is returned when undo targets a commit apply-edits did
// not make.
var ErrNotAppliedCommit = errors.New("HEAD is not an apply-edits commit")

// ErrNoGit is returned when the working directory is not inside a git
// repository.
var ErrNoGit = errors.New("not a git repository")

// Config configures git integration.
type Config struct {
	WorkDir     string // Working directory the edit paths are relative to
	AuthorName  string // Commit author (default "apply-edits")
	AuthorEmail string // Commit author email (default "apply-edits@localhost")
}

// Repo wraps a go-git repository for the operations we need.
type Repo struct {
	repo   *gogit.Repository
	cfg    Config
	prefix string // WorkDir relative to the repository root, slash-separated
}

// Open opens the repository containing cfg.WorkDir. The working directory
// may be a subdirectory of the repository.
func Open(cfg Config) (*Repo, error) {
	abs, err := filepath.Abs(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("resolving %s: %w", cfg.WorkDir, err)
	}
	r, err := gogit.PlainOpenWithOptions(abs, &gogit.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoGit, err)
	}
	wt, err := r.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	prefix, err := relativePrefix(wt.Filesystem.Root(), abs)
	if err != nil {
		return nil, err
	}
	if cfg.AuthorName == "" {
		cfg.AuthorName = "apply-edits"
	}
	if cfg.AuthorEmail == "" {
		cfg.AuthorEmail = "apply-edits@localhost"
	}
	return &Repo{repo: r, cfg: cfg, prefix: prefix}, nil
}

func relativePrefix(root, dir string) (string, error) {
	if resolved, err := filepath.EvalSymlinks(root); err == nil {
		root = resolved
	}
	if resolved, err := filepath.EvalSymlinks(dir); err == nil {
		dir = resolved
	}
	rel, err := filepath.Rel(root, dir)
	if err != nil {
		return "", fmt.Errorf("locating %s in repository: %w", dir, err)
	}
	if rel == "." {
		return "", nil
	}
	return filepath.ToSlash(rel), nil
}

// repoPath converts a working-directory path into a repository path.
func (r *Repo) repoPath(p string) string {
	p = strings.TrimPrefix(filepath.ToSlash(p), "./")
	if r.prefix == "" {
		return p
	}
	return r.prefix + "/" + p
}

// UnrelatedChanges lists paths with uncommitted changes, staged or not,
// other than the given working-directory paths. The result is relative to
// the repository root and sorted.
func (r *Repo) UnrelatedChanges(paths []string) ([]string, error) {
	wt, err := r.repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("getting worktree: %w", err)
	}

	status, err := wt.Status()
	if err != nil {
		return nil, fmt.Errorf("getting status: %w", err)
	}

	own := make(map[string]bool, len(paths))
	for _, p := range paths {
		own[r.repoPath(p)] = true
	}
	var out []string
	for name, fs := range status {
		if own[name] || (fs.Staging == gogit.Unmodified && fs.Worktree == gogit.Unmodified) {
			continue
		}
		out = append(out, name)
	}
	sort.Strings(out)
	return out, nil
}

// IsAppliedCommit checks whether HEAD carries the apply-edits trailer.
func (r *Repo) IsAppliedCommit() (bool, error) {
	msg, err := r.lastCommitMessage()
	if err != nil {
		return false, err
	}
	return hasTrailer(msg), nil
}

func hasTrailer(msg string) bool {
	for _, line := range strings.Split(msg, "\n") {
		if strings.TrimSpace(line) == Trailer {
			return true
		}
	}
	return false
}

func (r *Repo) headCommit() (*object.Commit, error) {
	head, err := r.repo.Head()
	if err != nil {
		return nil, fmt.Errorf("getting HEAD: %w", err)
	}
	commit, err := r.repo.CommitObject(head.Hash())
	if err != nil {
		return nil, fmt.Errorf("getting commit: %w", err)
	}
	return commit, nil
}

// lastCommitMessage returns the message of the HEAD commit.
func (r *Repo) lastCommitMessage() (string, error) {
	commit, err := r.headCommit()
	if err != nil {
		return "", err
	}
	return commit.Message, nil
}
