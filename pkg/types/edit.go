// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package types defines the edit batch and report types shared by the
// apply-edits packages.
package types

// OpKind discriminates the edit operation variants.
type OpKind string

const (
	KindReplace      OpKind = "replace"
	KindReplaceAll   OpKind = "replace_all"
	KindInsertAfter  OpKind = "insert_after"
	KindInsertBefore OpKind = "insert_before"
	KindInsertAtLine OpKind = "insert_at_line"
	KindCreate       OpKind = "create"
	KindAppend       OpKind = "append"
	KindPrepend      OpKind = "prepend"
	KindDeleteFile   OpKind = "delete_file"
	KindDeleteMatch  OpKind = "delete_match"
	KindDeleteLines  OpKind = "delete_lines"
)

// Kinds lists every known operation kind in documentation order.
var Kinds = []OpKind{
	KindReplace,
	KindReplaceAll,
	KindInsertAfter,
	KindInsertBefore,
	KindInsertAtLine,
	KindCreate,
	KindAppend,
	KindPrepend,
	KindDeleteFile,
	KindDeleteMatch,
	KindDeleteLines,
}

// Known reports whether k is one of the supported kinds.
func (k OpKind) Known() bool {
	for _, known := range Kinds {
		if k == known {
			return true
		}
	}
	return false
}

// Op is a single edit operation. Kind selects the variant; the pointer
// fields are set only when the input carried them, so a missing field can
// be told apart from an empty one.
type Op struct {
	Kind      OpKind  `json:"type" yaml:"type"`
	Path      string  `json:"path" yaml:"path"`
	Search    *string `json:"search,omitempty" yaml:"search,omitempty"`
	Replace   *string `json:"replace,omitempty" yaml:"replace,omitempty"`
	Anchor    *string `json:"anchor,omitempty" yaml:"anchor,omitempty"`
	Content   *string `json:"content,omitempty" yaml:"content,omitempty"`
	Line      *int    `json:"line,omitempty" yaml:"line,omitempty"`
	StartLine *int    `json:"start_line,omitempty" yaml:"start_line,omitempty"`
	EndLine   *int    `json:"end_line,omitempty" yaml:"end_line,omitempty"`
	Overwrite bool    `json:"overwrite,omitempty" yaml:"overwrite,omitempty"`
}

// Type returns the wire name of the operation kind.
func (o Op) Type() string {
	return string(o.Kind)
}

// Target returns the text the operation has to locate in the file: the
// anchor for inserts, the search string otherwise. Empty when the kind does
// not search.
func (o Op) Target() string {
	switch o.Kind {
	case KindInsertAfter, KindInsertBefore:
		return deref(o.Anchor)
	case KindReplace, KindReplaceAll, KindDeleteMatch:
		return deref(o.Search)
	}
	return ""
}

// Batch is one submission of edits. CommitMessage and Summary belong to the
// caller and are only read by the optional git commit step.
type Batch struct {
	Edits         []Op   `json:"edits" yaml:"edits"`
	CommitMessage string `json:"commit_message,omitempty" yaml:"commit_message,omitempty"`
	Summary       string `json:"summary,omitempty" yaml:"summary,omitempty"`
}

// Str returns a pointer to s, for building operations in code.
func Str(s string) *string { return &s }

// Int returns a pointer to n, for building operations in code.
func Int(n int) *int { return &n }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
