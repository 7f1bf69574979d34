// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editor applies batches of edit operations to a working directory.
// A batch is resolved against an in-memory copy of the files it touches and
// is either written in full or not written at all.
package editor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/petar-djukic/apply-edits/internal/editformat"
	"github.com/petar-djukic/apply-edits/pkg/types"
)

const defaultPreviewLength = 200

// Locker serializes batches against one working directory.
type Locker interface {
	Lock(ctx context.Context) (unlock func() error, err error)
}

// Options controls how a batch is applied.
type Options struct {
	DryRun        bool // Resolve everything, write nothing, report diffs
	RequireUnique bool // Fail replace and inserts with ambiguous when the target repeats
	SyntaxCheck   bool // Reject edits that break a file that used to parse
	PreviewLength int  // Runes of search text echoed in failures (default 200)
}

// Editor applies edit batches to a workspace.
type Editor struct {
	Workspace *Workspace
	Locator   Locator
	Options   Options
	Lock      Locker       // Optional; nil applies without locking
	Logger    *slog.Logger // Optional; nil discards
}

// New creates an Editor for ws with the given options.
func New(ws *Workspace, opts Options) *Editor {
	return &Editor{Workspace: ws, Options: opts}
}

// Apply validates, resolves and commits batch. Operation failures are
// reported in the returned report, never as an error; the error is only
// set when the batch could not be attempted (cancelled context, lock
// timeout).
func (e *Editor) Apply(ctx context.Context, batch types.Batch) (*types.ApplyReport, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	log := e.logger().With("batch", uuid.NewString())
	started := time.Now()
	report := &types.ApplyReport{DryRun: e.Options.DryRun}

	if verrs := editformat.Validate(batch); len(verrs) > 0 {
		report.Edits = rejectBatch(batch, verrs)
		report.Tally()
		report.RolledBack = true
		log.Debug("batch rejected", "edits", len(batch.Edits), "errors", len(verrs))
		return report, nil
	}

	if e.Lock != nil {
		unlock, err := e.Lock.Lock(ctx)
		if err != nil {
			return nil, fmt.Errorf("locking working directory: %w", err)
		}
		defer func() {
			if err := unlock(); err != nil {
				log.Warn("releasing lock", "error", err)
			}
		}()
	}

	states := make(map[string]*fileState)
	var touched []*fileState
	report.Edits = make([]types.OperationResult, len(batch.Edits))

	for i, op := range batch.Edits {
		st, ok := states[op.Path]
		if !ok {
			st = e.Workspace.load(op.Path)
			states[op.Path] = st
			// Differently spelled paths, and symlinks to the same file,
			// share one working copy.
			if canon, dup := states[st.target]; dup && st.loadErr == nil && canon != st {
				st = canon
				states[op.Path] = st
			} else if st.loadErr == nil {
				states[st.target] = st
			}
		}

		if st.loadErr != nil {
			report.Edits[i] = resultFromError(i, op, st.loadErr)
			continue
		}
		if oe := e.resolve(op, st); oe != nil {
			report.Edits[i] = resultFromError(i, op, oe)
			log.Debug("operation failed", "index", i, "type", op.Kind, "path", st.path, "kind", oe.Kind)
			continue
		}

		report.Edits[i] = types.OperationResult{Index: i, Path: op.Path, Type: op.Type(), Status: types.StatusWouldApply}
		st.lastOp = i
		if !st.touched {
			st.touched = true
			touched = append(touched, st)
		}
	}

	if e.Options.SyntaxCheck {
		e.checkSyntax(ctx, touched, batch, report)
	}

	report.Tally()
	switch {
	case report.Failed > 0:
		report.RolledBack = true
	case e.Options.DryRun:
		report.Diffs = diffs(touched)
	default:
		if st, err := e.Workspace.commit(touched); err != nil {
			log.Warn("commit failed, restored originals", "path", st.path, "error", err)
			e.failPath(st, batch, report, err)
			report.RolledBack = true
		} else {
			for i := range report.Edits {
				report.Edits[i].Status = types.StatusApplied
			}
		}
	}

	report.Tally()
	log.Debug("batch finished",
		"edits", len(batch.Edits),
		"applied", report.Applied,
		"failed", report.Failed,
		"files", len(touched),
		"dry_run", report.DryRun,
		"elapsed", time.Since(started))
	return report, nil
}

// checkSyntax fails the last op on every file whose edits introduced parse
// errors.
func (e *Editor) checkSyntax(ctx context.Context, touched []*fileState, batch types.Batch, report *types.ApplyReport) {
	for _, st := range touched {
		if !st.exists || !st.changed() {
			continue
		}
		line, broken := syntaxRegression(ctx, st.path, st.origContent, st.origExists, st.content)
		if !broken {
			continue
		}
		oe := newOpError(types.ErrSyntax, "edits leave %s with a syntax error near line %d", st.path, line)
		oe.Hint = "The file parsed cleanly before this batch. Check the replacement text for unbalanced brackets, quotes or indentation."
		report.Edits[st.lastOp] = resultFromError(st.lastOp, batch.Edits[st.lastOp], oe)
	}
}

// failPath marks every op on st as an io_error after a commit failure.
func (e *Editor) failPath(st *fileState, batch types.Batch, report *types.ApplyReport, err error) {
	for i, op := range batch.Edits {
		clean, cerr := e.Workspace.Clean(op.Path)
		if cerr != nil || clean != st.path {
			continue
		}
		report.Edits[i] = resultFromError(i, op, err)
	}
}

// rejectBatch reports every op as failed validation. Ops without their own
// violations note that the batch as a whole was rejected.
func rejectBatch(batch types.Batch, verrs []editformat.ValidationError) []types.OperationResult {
	byIndex := make(map[int][]string)
	for _, ve := range verrs {
		byIndex[ve.Index] = append(byIndex[ve.Index], ve.Error())
	}

	results := make([]types.OperationResult, len(batch.Edits))
	for i, op := range batch.Edits {
		msg := fmt.Sprintf("batch rejected: %d validation error(s) in other operations", len(verrs))
		if msgs, ok := byIndex[i]; ok {
			msg = strings.Join(msgs, "; ")
		}
		results[i] = types.OperationResult{
			Index:     i,
			Path:      op.Path,
			Type:      op.Type(),
			Status:    types.StatusError,
			ErrorKind: types.ErrValidation,
			Message:   msg,
			Hint:      "Fix the listed fields and resubmit the whole batch; nothing was applied.",
		}
	}
	if len(batch.Edits) == 0 {
		results = append(results, types.OperationResult{
			Index:     0,
			Status:    types.StatusError,
			ErrorKind: types.ErrValidation,
			Message:   verrs[0].Error(),
			Hint:      "Submit at least one edit operation.",
		})
	}
	return results
}

func diffs(touched []*fileState) map[string]string {
	out := make(map[string]string)
	for _, st := range touched {
		if !st.changed() {
			continue
		}
		if d := unifiedDiff(st); d != "" {
			out[st.path] = d
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func (e *Editor) previewLength() int {
	if e.Options.PreviewLength > 0 {
		return e.Options.PreviewLength
	}
	return defaultPreviewLength
}

func (e *Editor) logger() *slog.Logger {
	if e.Logger != nil {
		return e.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
