// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

// ValidationError is one structural problem with a batch. Index is the
// operation's position in the batch; Field is empty for problems with the
// batch as a whole.
type ValidationError struct {
	Index   int
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	if e.Field == "" {
		return e.Message
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// requirement lists the fields a kind must carry.
type requirement struct {
	search, replace, anchor, content, line, lineRange bool
}

var requirements = map[types.OpKind]requirement{
	types.KindReplace:      {search: true, replace: true},
	types.KindReplaceAll:   {search: true, replace: true},
	types.KindInsertAfter:  {anchor: true, content: true},
	types.KindInsertBefore: {anchor: true, content: true},
	types.KindInsertAtLine: {line: true, content: true},
	types.KindCreate:       {content: true},
	types.KindAppend:       {content: true},
	types.KindPrepend:      {content: true},
	types.KindDeleteFile:   {},
	types.KindDeleteMatch:  {search: true},
	types.KindDeleteLines:  {lineRange: true},
}

// Validate checks the structure of batch without touching the filesystem.
// It returns every violation found, in batch order.
func Validate(batch types.Batch) []ValidationError {
	if len(batch.Edits) == 0 {
		return []ValidationError{{Index: 0, Message: "batch contains no edits"}}
	}

	var errs []ValidationError
	for i, op := range batch.Edits {
		errs = append(errs, validateOp(i, op)...)
	}
	return errs
}

func validateOp(i int, op types.Op) []ValidationError {
	var errs []ValidationError
	fail := func(field, format string, args ...any) {
		errs = append(errs, ValidationError{Index: i, Field: field, Message: fmt.Sprintf(format, args...)})
	}

	if strings.TrimSpace(op.Path) == "" {
		fail("path", "is required")
	}
	if op.Kind == "" {
		fail("type", "is required")
		return errs
	}
	if !op.Kind.Known() {
		fail("type", "unknown operation %q (supported: %s)", op.Kind, kindList())
		return errs
	}
	req := requirements[op.Kind]

	if req.search {
		requireText(op.Search, "search", fail)
	}
	if req.anchor {
		requireText(op.Anchor, "anchor", fail)
	}
	if req.replace && op.Replace == nil {
		fail("replace", "is required for %s", op.Kind)
	}
	if req.content && op.Content == nil {
		fail("content", "is required for %s", op.Kind)
	}
	if req.line {
		requirePositive(op.Line, "line", fail)
	}
	if req.lineRange {
		requirePositive(op.StartLine, "start_line", fail)
		requirePositive(op.EndLine, "end_line", fail)
		if op.StartLine != nil && op.EndLine != nil && *op.StartLine > *op.EndLine {
			fail("end_line", "must not be before start_line (%d > %d)", *op.StartLine, *op.EndLine)
		}
	}
	return errs
}

func requireText(v *string, field string, fail func(string, string, ...any)) {
	switch {
	case v == nil:
		fail(field, "is required")
	case *v == "":
		fail(field, "must not be empty")
	}
}

func requirePositive(v *int, field string, fail func(string, string, ...any)) {
	switch {
	case v == nil:
		fail(field, "is required")
	case *v < 1:
		fail(field, "must be at least 1, got %d", *v)
	}
}

func kindList() string {
	names := make([]string, len(types.Kinds))
	for i, k := range types.Kinds {
		names[i] = string(k)
	}
	return strings.Join(names, ", ")
}
