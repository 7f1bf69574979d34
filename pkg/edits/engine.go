// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package edits

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/petar-djukic/apply-edits/internal/editor"
	"github.com/petar-djukic/apply-edits/internal/feedback"
	"github.com/petar-djukic/apply-edits/internal/fileview"
	"github.com/petar-djukic/apply-edits/internal/git"
	"github.com/petar-djukic/apply-edits/internal/lock"
	"github.com/petar-djukic/apply-edits/pkg/types"
)

const (
	defaultMinSimilarity = 0.5
	defaultMaxCandidates = 3
	defaultPreviewLength = 200
)

// Engine applies edit batches to one working directory.
type Engine struct {
	cfg    Config
	ws     *editor.Workspace
	editor *editor.Editor
	log    *slog.Logger
}

// New validates the config and returns a ready-to-use Engine. Files are not
// read until a batch is applied.
func New(cfg Config) (*Engine, error) {
	if err := validateConfig(cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	applyDefaults(&cfg)

	ws, err := editor.NewWorkspace(cfg.WorkDir)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}

	ed := editor.New(ws, editor.Options{
		DryRun:        cfg.DryRun,
		RequireUnique: cfg.RequireUnique,
		SyntaxCheck:   cfg.SyntaxCheck,
		PreviewLength: cfg.PreviewLength,
	})
	ed.Locator = editor.Locator{MinSimilarity: cfg.MinSimilarity, MaxCandidates: cfg.MaxCandidates}
	ed.Logger = cfg.Logger

	if !cfg.NoLock {
		l, err := lock.New(ws.Root(), cfg.LockTimeout)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
		}
		ed.Lock = l
	}

	return &Engine{cfg: cfg, ws: ws, editor: ed, log: cfg.Logger}, nil
}

// WorkDir returns the absolute working directory.
func (e *Engine) WorkDir() string {
	return e.ws.Root()
}

// Apply validates and applies batch. Operation failures are reported in the
// returned report; the error is set only when the batch could not be
// attempted. With Commit configured, a batch that landed is committed and
// the outcome recorded in report.Commit.
func (e *Engine) Apply(ctx context.Context, batch types.Batch) (*types.ApplyReport, error) {
	report, err := e.editor.Apply(ctx, batch)
	if err != nil {
		return nil, err
	}
	if e.cfg.Commit && !report.DryRun && report.Success {
		report.Commit = e.commit(batch)
	}
	return report, nil
}

// Preview resolves batch without writing, whatever DryRun is set to. The
// report carries a unified diff per changed file.
func (e *Engine) Preview(ctx context.Context, batch types.Batch) (*types.ApplyReport, error) {
	ed := *e.editor
	ed.Options.DryRun = true
	return ed.Apply(ctx, batch)
}

// ApplyWithRetry applies batch, and while edits fail, asks regenerate for a
// corrected batch built from the retry prompt, backing off between
// attempts.
func (e *Engine) ApplyWithRetry(ctx context.Context, cfg RetryConfig, batch types.Batch, regenerate RegenerateFunc) (*RetryResult, error) {
	return feedback.Run(ctx, cfg, e, batch, regenerate)
}

// RetryPrompt renders the failures in report as a markdown correction
// request.
func RetryPrompt(report *types.ApplyReport) string {
	return feedback.FormatRetryPrompt(report, feedback.FormatConfig{})
}

// Read returns the current contents of the files named by patterns (plain
// paths or doublestar globs), at most maxLines lines each.
func (e *Engine) Read(patterns []string, maxLines int) []fileview.Result {
	return fileview.Read(e.ws, patterns, maxLines)
}

// Undo reverts the last commit if apply-edits made it, keeping its changes
// in the working tree. Returns the reverted commit hash.
func (e *Engine) Undo() (string, error) {
	repo, err := git.Open(git.Config{WorkDir: e.ws.Root()})
	if err != nil {
		return "", err
	}
	return repo.Undo()
}

// commit stages the files the batch touched and commits them. Failure is
// recorded, never undone: the edits have already landed.
func (e *Engine) commit(batch types.Batch) *types.CommitInfo {
	changed, deleted := e.touchedPaths(batch)
	if len(changed)+len(deleted) == 0 {
		return &types.CommitInfo{Error: ErrNoChanges.Error()}
	}

	repo, err := git.Open(git.Config{WorkDir: e.ws.Root()})
	if err != nil {
		e.logger().Warn("commit skipped", "error", err)
		return &types.CommitInfo{Error: err.Error()}
	}

	files := append(append([]string{}, changed...), deleted...)
	unrelated, err := repo.UnrelatedChanges(files)
	if err != nil {
		e.logger().Warn("checking worktree status", "error", err)
	} else if len(unrelated) > 0 {
		e.logger().Warn("leaving unrelated changes uncommitted", "paths", len(unrelated))
	}

	hash, err := repo.Commit(changed, deleted, git.Message(batch.CommitMessage, batch.Summary, files))
	if err != nil {
		e.logger().Warn("commit failed", "error", err)
		return &types.CommitInfo{Error: err.Error(), Unrelated: unrelated}
	}
	e.logger().Debug("committed batch", "hash", hash, "files", len(files))
	return &types.CommitInfo{Hash: hash, Unrelated: unrelated}
}

// touchedPaths splits the batch's paths, in first-touch order, into those
// that exist after the batch and those that no longer do.
func (e *Engine) touchedPaths(batch types.Batch) (changed, deleted []string) {
	seen := make(map[string]bool)
	for _, op := range batch.Edits {
		p, err := e.ws.Clean(op.Path)
		if err != nil || seen[p] {
			continue
		}
		seen[p] = true
		if _, err := e.ws.Fs().Stat(p); errors.Is(err, os.ErrNotExist) {
			deleted = append(deleted, p)
		} else {
			changed = append(changed, p)
		}
	}
	return changed, deleted
}

func (e *Engine) logger() *slog.Logger {
	if e.log != nil {
		return e.log
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// validateConfig checks that required fields are present and in range.
func validateConfig(cfg Config) error {
	if cfg.WorkDir == "" {
		return fmt.Errorf("WorkDir is required")
	}
	if info, err := os.Stat(cfg.WorkDir); err != nil || !info.IsDir() {
		return fmt.Errorf("WorkDir %q does not exist or is not a directory", cfg.WorkDir)
	}
	if cfg.MinSimilarity != AnySimilarity && (cfg.MinSimilarity < 0 || cfg.MinSimilarity > 1) {
		return fmt.Errorf("MinSimilarity %v is outside [0, 1]", cfg.MinSimilarity)
	}
	if cfg.MaxCandidates < 0 {
		return fmt.Errorf("MaxCandidates must not be negative")
	}
	if cfg.PreviewLength < 0 {
		return fmt.Errorf("PreviewLength must not be negative")
	}
	if cfg.LockTimeout < 0 {
		return fmt.Errorf("LockTimeout must not be negative")
	}
	return nil
}

// applyDefaults fills zero-value fields with sensible defaults.
func applyDefaults(cfg *Config) {
	if cfg.MinSimilarity == 0 {
		cfg.MinSimilarity = defaultMinSimilarity
	}
	if cfg.MaxCandidates == 0 {
		cfg.MaxCandidates = defaultMaxCandidates
	}
	if cfg.PreviewLength == 0 {
		cfg.PreviewLength = defaultPreviewLength
	}
	if cfg.LockTimeout == 0 {
		cfg.LockTimeout = lock.DefaultTimeout
	}
}
