// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"errors"
	"fmt"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

// ErrPathOutsideRoot is returned when an operation path escapes the working
// directory.
var ErrPathOutsideRoot = errors.New("path escapes working directory")

// OpError describes why a single operation could not be resolved or
// committed, with enough detail for a caller to build a corrected retry.
type OpError struct {
	Kind       types.ErrorKind
	Message    string
	Preview    string                 // Truncated search or anchor text
	Candidates []types.MatchCandidate // Closest regions for not_found
	Hint       string
	Suggested  string // Verbatim file text that would have matched
}

func (e *OpError) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func newOpError(kind types.ErrorKind, format string, args ...any) *OpError {
	return &OpError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// resultFromError converts err into a failed OperationResult for op.
// Errors that are not *OpError are reported as io_error.
func resultFromError(index int, op types.Op, err error) types.OperationResult {
	res := types.OperationResult{
		Index:  index,
		Path:   op.Path,
		Type:   op.Type(),
		Status: types.StatusError,
	}

	var oe *OpError
	if !errors.As(err, &oe) {
		res.ErrorKind = types.ErrIO
		res.Message = err.Error()
		res.Hint = "Check that the path is a regular file inside the working directory and is readable and writable."
		return res
	}

	res.ErrorKind = oe.Kind
	res.Message = oe.Message
	res.SearchPreview = oe.Preview
	res.ClosestMatches = oe.Candidates
	res.Hint = oe.Hint
	res.SuggestedSearch = oe.Suggested
	return res
}
