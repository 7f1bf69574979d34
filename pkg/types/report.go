// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Status is the outcome of a single operation.
type Status string

const (
	StatusApplied    Status = "applied"     // Resolved and written to disk
	StatusWouldApply Status = "would_apply" // Resolved, but the batch was rolled back or dry-run
	StatusError      Status = "error"       // Failed to resolve or commit
)

// ErrorKind classifies an operation failure.
type ErrorKind string

const (
	ErrValidation    ErrorKind = "validation"
	ErrNotFound      ErrorKind = "not_found"
	ErrAmbiguous     ErrorKind = "ambiguous"
	ErrAlreadyExists ErrorKind = "already_exists"
	ErrMissingFile   ErrorKind = "missing_file"
	ErrIO            ErrorKind = "io_error"
	ErrOutOfRange    ErrorKind = "out_of_range"
	ErrSyntax        ErrorKind = "syntax_error"
)

// MatchCandidate is a region of the file that resembles a target that could
// not be found verbatim.
type MatchCandidate struct {
	Line          int      `json:"line"`       // First line of the window (1-based)
	Content       string   `json:"content"`    // Original, non-normalized window text
	Similarity    float64  `json:"similarity"` // 0.0-1.0
	ContextBefore []string `json:"context_before,omitempty"`
	ContextAfter  []string `json:"context_after,omitempty"`
}

// Percent returns the similarity as a whole-number percentage.
func (c MatchCandidate) Percent() int {
	return int(c.Similarity*100 + 0.5)
}

// OperationResult reports what happened to one operation of a batch.
type OperationResult struct {
	Index           int              `json:"index"`
	Path            string           `json:"path"`
	Type            string           `json:"type"`
	Status          Status           `json:"status"`
	ErrorKind       ErrorKind        `json:"error_kind,omitempty"`
	Message         string           `json:"message,omitempty"`
	SearchPreview   string           `json:"search_preview,omitempty"`
	ClosestMatches  []MatchCandidate `json:"closest_matches,omitempty"`
	Hint            string           `json:"hint,omitempty"`
	SuggestedSearch string           `json:"suggested_search,omitempty"`
}

// Failed reports whether the operation ended in an error.
func (r OperationResult) Failed() bool {
	return r.Status == StatusError
}

// CommitInfo describes the optional git commit made after a batch landed.
type CommitInfo struct {
	Hash      string   `json:"hash,omitempty"`
	Error     string   `json:"error,omitempty"`
	Unrelated []string `json:"unrelated,omitempty"` // Changes outside the batch, left uncommitted
}

// ApplyReport is the result of one batch invocation.
type ApplyReport struct {
	Success    bool              `json:"success"`
	Applied    int               `json:"applied"`
	Failed     int               `json:"failed"`
	DryRun     bool              `json:"dry_run,omitempty"`
	RolledBack bool              `json:"rolled_back,omitempty"`
	Edits      []OperationResult `json:"edits"`
	Diffs      map[string]string `json:"diffs,omitempty"`
	Commit     *CommitInfo       `json:"commit,omitempty"`
}

// Tally recomputes Applied, Failed and Success from Edits.
func (r *ApplyReport) Tally() {
	r.Applied, r.Failed = 0, 0
	for _, e := range r.Edits {
		switch e.Status {
		case StatusApplied:
			r.Applied++
		case StatusError:
			r.Failed++
		}
	}
	r.Success = r.Failed == 0
}

// Failures returns the failed operation results in batch order.
func (r *ApplyReport) Failures() []OperationResult {
	var out []OperationResult
	for _, e := range r.Edits {
		if e.Failed() {
			out = append(out, e)
		}
	}
	return out
}

func (r *ApplyReport) String() string {
	return fmt.Sprintf("%d applied, %d failed", r.Applied, r.Failed)
}
