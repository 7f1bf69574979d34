// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"errors"
	"fmt"
	"time"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/format/index"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// ErrNothingToCommit is returned when Commit is given no paths.
var ErrNothingToCommit = errors.New("no paths to commit")

// Commit stages exactly the given paths and commits them. Paths are relative
// to the working directory; deleted paths are staged as removals. Other
// changes in the tree are left alone. Returns the new commit hash.
func (r *Repo) Commit(changed, deleted []string, message string) (string, error) {
	if len(changed) == 0 && len(deleted) == 0 {
		return "", ErrNothingToCommit
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	for _, p := range changed {
		if _, err := wt.Add(r.repoPath(p)); err != nil {
			return "", fmt.Errorf("staging %s: %w", p, err)
		}
	}
	for _, p := range deleted {
		// A removed file that was never tracked has nothing to stage.
		if _, err := wt.Remove(r.repoPath(p)); err != nil && !errors.Is(err, index.ErrEntryNotFound) {
			return "", fmt.Errorf("staging removal of %s: %w", p, err)
		}
	}

	hash, err := wt.Commit(withTrailer(message), &gogit.CommitOptions{
		Author: &object.Signature{
			Name:  r.cfg.AuthorName,
			Email: r.cfg.AuthorEmail,
			When:  time.Now(),
		},
	})
	if err != nil {
		return "", fmt.Errorf("committing: %w", err)
	}
	return hash.String(), nil
}

// Undo reverts HEAD if apply-edits made it. It resets softly to the parent,
// so the edited content stays in the working tree and the index.
func (r *Repo) Undo() (string, error) {
	ok, err := r.IsAppliedCommit()
	if err != nil {
		return "", err
	}
	if !ok {
		return "", ErrNotAppliedCommit
	}

	commit, err := r.headCommit()
	if err != nil {
		return "", err
	}
	if commit.NumParents() == 0 {
		return "", fmt.Errorf("cannot undo: HEAD is the initial commit")
	}

	parent, err := commit.Parent(0)
	if err != nil {
		return "", fmt.Errorf("getting parent commit: %w", err)
	}

	wt, err := r.repo.Worktree()
	if err != nil {
		return "", fmt.Errorf("getting worktree: %w", err)
	}

	err = wt.Reset(&gogit.ResetOptions{
		Commit: parent.Hash,
		Mode:   gogit.SoftReset,
	})
	if err != nil {
		return "", fmt.Errorf("resetting to parent: %w", err)
	}

	return commit.Hash.String(), nil
}
