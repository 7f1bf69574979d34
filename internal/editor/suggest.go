// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

const (
	fuzzySuggestThreshold = 0.9
	typoMinLen            = 5
	typoMaxLen            = 200
)

// suggestion is a corrected search string that occurs verbatim in the file.
// It is reported to the caller and never applied.
type suggestion struct {
	search string
	reason string
}

// suggestCorrection tries, in order: an indentation-only difference,
// trailing whitespace, line endings, a near-identical candidate, and a
// single extra character.
func suggestCorrection(content, search string, candidates []types.MatchCandidate) (suggestion, bool) {
	checks := []func() (suggestion, bool){
		func() (suggestion, bool) { return indentationCorrection(content, search) },
		func() (suggestion, bool) { return trailingWhitespaceCorrection(content, search) },
		func() (suggestion, bool) { return lineEndingCorrection(content, search) },
		func() (suggestion, bool) { return candidateCorrection(candidates) },
		func() (suggestion, bool) { return typoCorrection(content, search) },
	}
	for _, check := range checks {
		if s, ok := check(); ok {
			return s, true
		}
	}
	return suggestion{}, false
}

// indentationCorrection finds a window whose lines equal the search lines
// once leading and trailing blanks are ignored.
func indentationCorrection(content, search string) (suggestion, bool) {
	searchLines := splitLines(search)
	fileLines := splitLines(content)
	if len(searchLines) == 0 || len(searchLines) > len(fileLines) {
		return suggestion{}, false
	}
	norm := normalizeLines(searchLines)
	normFile := normalizeLines(fileLines)

	for i := 0; i+len(norm) <= len(normFile); i++ {
		if !equalLines(normFile[i:i+len(norm)], norm) {
			continue
		}
		actual := strings.Join(fileLines[i:i+len(norm)], "\n")
		if strings.HasSuffix(search, "\n") {
			actual += "\n"
		}
		if actual == search || !strings.Contains(content, actual) {
			return suggestion{}, false
		}
		return suggestion{
			search: actual,
			reason: fmt.Sprintf("Content matches at line %d except for whitespace (search indents %d, file indents %d)",
				i+1, leadingWidth(searchLines[0]), leadingWidth(fileLines[i])),
		}, true
	}
	return suggestion{}, false
}

func trailingWhitespaceCorrection(content, search string) (suggestion, bool) {
	lines := strings.Split(search, "\n")
	for i, line := range lines {
		lines[i] = strings.TrimRight(line, " \t")
	}
	trimmed := strings.Join(lines, "\n")
	if trimmed == search || trimmed == "" || !strings.Contains(content, trimmed) {
		return suggestion{}, false
	}
	return suggestion{search: trimmed, reason: "Search has trailing whitespace the file does not"}, true
}

func lineEndingCorrection(content, search string) (suggestion, bool) {
	if strings.Contains(search, "\r\n") && !strings.Contains(content, "\r\n") {
		lf := strings.ReplaceAll(search, "\r\n", "\n")
		if strings.Contains(content, lf) {
			return suggestion{search: lf, reason: "File uses LF line endings, search uses CRLF"}, true
		}
	}
	if strings.Contains(content, "\r\n") && !strings.Contains(search, "\r\n") {
		crlf := strings.ReplaceAll(search, "\n", "\r\n")
		if strings.Contains(content, crlf) {
			return suggestion{search: crlf, reason: "File uses CRLF line endings, search uses LF"}, true
		}
	}
	return suggestion{}, false
}

func candidateCorrection(candidates []types.MatchCandidate) (suggestion, bool) {
	if len(candidates) == 0 || candidates[0].Similarity < fuzzySuggestThreshold {
		return suggestion{}, false
	}
	best := candidates[0]
	return suggestion{
		search: best.Content,
		reason: fmt.Sprintf("Found %d%% similar content at line %d", best.Percent(), best.Line),
	}, true
}

// typoCorrection tries deleting each rune of search in turn.
func typoCorrection(content, search string) (suggestion, bool) {
	n := utf8.RuneCountInString(search)
	if n < typoMinLen || n > typoMaxLen {
		return suggestion{}, false
	}
	// Invalid bytes decode as RuneError with size 1, so each is still a
	// single deletion.
	for i, size := 0, 0; i < len(search); i += size {
		var r rune
		r, size = utf8.DecodeRuneInString(search[i:])
		candidate := search[:i] + search[i+size:]
		if strings.Contains(content, candidate) {
			return suggestion{
				search: candidate,
				reason: fmt.Sprintf("Search has an extra %q at position %d", r, i),
			}, true
		}
	}
	return suggestion{}, false
}

// notFoundHint builds the mandatory hint for a not_found failure.
func notFoundHint(path string, candidates []types.MatchCandidate, s suggestion, found bool) string {
	if found {
		return s.reason + ". Retry with suggested_search, which is copied verbatim from the file."
	}
	if len(candidates) == 0 {
		return fmt.Sprintf("No similar content found in %s. The file may have changed; re-read it, "+
			"or use insert_at_line with a verified line number instead.", path)
	}

	best := candidates[0]
	switch {
	case best.Similarity > 0.9:
		return fmt.Sprintf("Very close match at line %d. Check for minor differences (whitespace, punctuation) "+
			"and copy the text exactly from closest_matches.", best.Line)
	case best.Similarity > 0.7:
		return fmt.Sprintf("Similar content found at line %d. The code may have been modified; "+
			"rebuild the search from closest_matches.", best.Line)
	default:
		return fmt.Sprintf("Partial match at line %d (%d%% similar). The code structure may have changed; "+
			"re-read the file or use insert_at_line with a verified line number instead.", best.Line, best.Percent())
	}
}

// preview truncates s to limit runes, marking the cut.
func preview(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	runes := []rune(s)
	return string(runes[:limit]) + "..."
}

func equalLines(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func leadingWidth(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}
