// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

// resolve applies op to the working copy in st. On failure st is left
// exactly as it was.
func (e *Editor) resolve(op types.Op, st *fileState) *OpError {
	if op.Kind != types.KindCreate && !st.exists {
		oe := newOpError(types.ErrMissingFile, "file %s does not exist", st.path)
		oe.Hint = "Use a create operation to make a new file, or check the path against a fresh read of the working directory."
		return oe
	}

	switch op.Kind {
	case types.KindReplace:
		return e.replace(op, st, ModeFirst)
	case types.KindReplaceAll:
		return e.replace(op, st, ModeAll)
	case types.KindInsertAfter, types.KindInsertBefore:
		return e.insertAtAnchor(op, st)
	case types.KindInsertAtLine:
		return insertAtLine(op, st)
	case types.KindCreate:
		if st.exists && !op.Overwrite {
			oe := newOpError(types.ErrAlreadyExists, "file %s already exists", st.path)
			oe.Hint = "Use replace or another edit operation to change an existing file, or set overwrite: true to replace it."
			return oe
		}
		st.exists = true
		st.content = *op.Content
	case types.KindAppend:
		st.content = appendText(st.content, *op.Content)
	case types.KindPrepend:
		st.content = prependText(st.content, *op.Content)
	case types.KindDeleteFile:
		st.exists = false
		st.content = ""
	case types.KindDeleteMatch:
		return e.deleteMatch(op, st)
	case types.KindDeleteLines:
		return deleteLines(op, st)
	default:
		return newOpError(types.ErrValidation, "unknown operation type %q", op.Kind)
	}
	return nil
}

func (e *Editor) replace(op types.Op, st *fileState, mode Mode) *OpError {
	search := op.Target()
	loc := e.Locator.Locate(st.content, search, mode)
	if !loc.Found {
		return e.notFound(st, "search text", search, loc.Candidates)
	}
	if mode == ModeFirst {
		if oe := e.checkUnique(st, "search text", search); oe != nil {
			return oe
		}
	}

	var b strings.Builder
	last := 0
	for _, span := range loc.Spans {
		b.WriteString(st.content[last:span.Start])
		b.WriteString(*op.Replace)
		last = span.End
	}
	b.WriteString(st.content[last:])
	st.content = b.String()
	return nil
}

func (e *Editor) insertAtAnchor(op types.Op, st *fileState) *OpError {
	anchor := op.Target()
	loc := e.Locator.Locate(st.content, anchor, ModeFirst)
	if !loc.Found {
		return e.notFound(st, "anchor", anchor, loc.Candidates)
	}
	if oe := e.checkUnique(st, "anchor", anchor); oe != nil {
		return oe
	}

	span := loc.Spans[0]
	var at int
	if op.Kind == types.KindInsertAfter {
		at = lineIndexAt(st.content, span.End-1) + 1
	} else {
		at = lineIndexAt(st.content, span.Start)
	}
	st.content = insertLines(st.content, at, *op.Content)
	return nil
}

func insertAtLine(op types.Op, st *fileState) *OpError {
	n := len(splitKeep(st.content))
	line := *op.Line
	if line < 1 || line > n+1 {
		oe := newOpError(types.ErrOutOfRange, "line %d is outside %s (file has %d lines, valid range 1-%d)", line, st.path, n, n+1)
		oe.Hint = fmt.Sprintf("Re-read %s and use a line number between 1 and %d; %d appends at the end.", st.path, n+1, n+1)
		return oe
	}
	st.content = insertLines(st.content, line-1, *op.Content)
	return nil
}

// deleteMatch removes every line spanned by any occurrence of the search
// text.
func (e *Editor) deleteMatch(op types.Op, st *fileState) *OpError {
	search := op.Target()
	loc := e.Locator.Locate(st.content, search, ModeAll)
	if !loc.Found {
		return e.notFound(st, "search text", search, loc.Candidates)
	}

	drop := make(map[int]bool)
	for _, span := range loc.Spans {
		first := lineIndexAt(st.content, span.Start)
		last := lineIndexAt(st.content, span.End-1)
		for i := first; i <= last; i++ {
			drop[i] = true
		}
	}
	st.content = removeLines(st.content, func(i int) bool { return drop[i] })
	return nil
}

func deleteLines(op types.Op, st *fileState) *OpError {
	n := len(splitKeep(st.content))
	start, end := *op.StartLine, *op.EndLine
	if start < 1 || end > n || start > end {
		oe := newOpError(types.ErrOutOfRange, "lines %d-%d are outside %s (file has %d lines)", start, end, st.path, n)
		oe.Hint = fmt.Sprintf("Re-read %s and choose a range within 1-%d.", st.path, n)
		return oe
	}
	st.content = removeLines(st.content, func(i int) bool { return i >= start-1 && i <= end-1 })
	return nil
}

// checkUnique fails with ambiguous when RequireUnique is set and target
// occurs more than once.
func (e *Editor) checkUnique(st *fileState, what, target string) *OpError {
	if !e.Options.RequireUnique {
		return nil
	}
	n := e.Locator.Count(st.content, target)
	if n <= 1 {
		return nil
	}
	oe := newOpError(types.ErrAmbiguous, "%s occurs %d times in %s", what, n, st.path)
	oe.Preview = preview(target, e.previewLength())
	oe.Hint = "Include surrounding lines so the text matches exactly once, or use replace_all to change every occurrence."
	return oe
}

func (e *Editor) notFound(st *fileState, what, target string, candidates []types.MatchCandidate) *OpError {
	oe := newOpError(types.ErrNotFound, "%s not found in %s", what, st.path)
	oe.Preview = preview(target, e.previewLength())
	oe.Candidates = candidates

	s, ok := suggestCorrection(st.content, target, candidates)
	if ok {
		oe.Suggested = s.search
	}
	oe.Hint = notFoundHint(st.path, candidates, s, ok)
	return oe
}

// splitKeep splits s into lines that keep their terminators. The final
// line may lack one.
func splitKeep(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.SplitAfter(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// lineIndexAt returns the 0-based line holding byte offset.
func lineIndexAt(s string, offset int) int {
	return strings.Count(s[:offset], "\n")
}

func endsWithNewline(s string) bool {
	return s == "" || strings.HasSuffix(s, "\n")
}

// lineEnding returns the terminator of a terminated line.
func lineEnding(line string) string {
	if strings.HasSuffix(line, "\r\n") {
		return "\r\n"
	}
	return "\n"
}

// eolNear picks the terminator for text placed before line index at: that
// of the line above, else the line below, else the first terminated line.
func eolNear(lines []string, at int) string {
	for _, i := range []int{at - 1, at} {
		if i >= 0 && i < len(lines) && strings.HasSuffix(lines[i], "\n") {
			return lineEnding(lines[i])
		}
	}
	for _, line := range lines {
		if strings.HasSuffix(line, "\n") {
			return lineEnding(line)
		}
	}
	return "\n"
}

// withEOL rewrites every line terminator in text to eol.
func withEOL(text, eol string) string {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	if eol == "\n" {
		return text
	}
	return strings.ReplaceAll(text, "\n", eol)
}

// insertLines inserts text as whole lines before line index at. Whether the
// file ended with a newline is preserved, and the inserted lines take the
// line ending of their neighbours.
func insertLines(content string, at int, text string) string {
	hadFinal := endsWithNewline(content)
	lines := splitKeep(content)
	eol := eolNear(lines, at)
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	text = withEOL(text, eol)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += eol
	}

	out := make([]string, 0, len(lines)+1)
	out = append(out, lines[:at]...)
	out = append(out, text)
	out = append(out, lines[at:]...)
	return restoreFinal(strings.Join(out, ""), hadFinal)
}

// removeLines drops every line whose 0-based index satisfies drop.
func removeLines(content string, drop func(int) bool) string {
	hadFinal := endsWithNewline(content)
	lines := splitKeep(content)
	eol := eolNear(lines, len(lines))
	var b strings.Builder
	for i, line := range lines {
		if drop(i) {
			continue
		}
		if !strings.HasSuffix(line, "\n") {
			line += eol
		}
		b.WriteString(line)
	}
	return restoreFinal(b.String(), hadFinal)
}

func restoreFinal(s string, hadFinal bool) string {
	if hadFinal {
		return s
	}
	if strings.HasSuffix(s, "\r\n") {
		return strings.TrimSuffix(s, "\r\n")
	}
	return strings.TrimSuffix(s, "\n")
}

func appendText(content, text string) string {
	if text == "" {
		return content
	}
	if content != "" && !strings.HasSuffix(content, "\n") {
		content += eolNear(splitKeep(content), 0)
	}
	return content + text
}

func prependText(content, text string) string {
	if text == "" {
		return content
	}
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	return text + content
}
