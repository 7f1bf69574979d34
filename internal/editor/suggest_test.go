// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/petar-djukic/apply-edits/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndentationCorrection(t *testing.T) {
	content := "func f() {\n\treturn 1\n}\n"
	s, ok := indentationCorrection(content, "func f() {\n    return 1\n}\n")
	require.True(t, ok)
	assert.Equal(t, content, s.search)
	assert.Contains(t, s.reason, "line 1")
	assert.True(t, strings.Contains(content, s.search))
}

func TestIndentationCorrection_NoMatch(t *testing.T) {
	_, ok := indentationCorrection("a\nb\n", "c\n")
	assert.False(t, ok)
}

func TestTrailingWhitespaceCorrection(t *testing.T) {
	s, ok := trailingWhitespaceCorrection("x := 1\ny := 2\n", "x := 1  \ny := 2\t\n")
	require.True(t, ok)
	assert.Equal(t, "x := 1\ny := 2\n", s.search)
}

func TestLineEndingCorrection(t *testing.T) {
	s, ok := lineEndingCorrection("a\r\nb\r\n", "a\nb\n")
	require.True(t, ok)
	assert.Equal(t, "a\r\nb\r\n", s.search)
	assert.Contains(t, s.reason, "CRLF")

	s, ok = lineEndingCorrection("a\nb\n", "a\r\nb\r\n")
	require.True(t, ok)
	assert.Equal(t, "a\nb\n", s.search)
}

func TestTypoCorrection(t *testing.T) {
	s, ok := typoCorrection("hello world\n", "hello worlld")
	require.True(t, ok)
	assert.Equal(t, "hello world", s.search)
	assert.Contains(t, s.reason, "'l'")

	_, ok = typoCorrection("abc", "abcd")
	assert.False(t, ok, "too short to guess")
}

func TestTypoCorrection_InvalidUTF8(t *testing.T) {
	assert.NotPanics(t, func() {
		_, ok := typoCorrection("zzzz\n", "abcd\xff")
		assert.False(t, ok)
	})

	s, ok := typoCorrection("abcdef\n", "abc\xffdef")
	require.True(t, ok)
	assert.Equal(t, "abcdef", s.search)
	assert.Contains(t, s.reason, "position 3")
}

func TestCandidateCorrection(t *testing.T) {
	s, ok := candidateCorrection([]types.MatchCandidate{{Line: 4, Content: "x := 1", Similarity: 0.95}})
	require.True(t, ok)
	assert.Equal(t, "x := 1", s.search)
	assert.Contains(t, s.reason, "95%")
	assert.Contains(t, s.reason, "line 4")

	_, ok = candidateCorrection([]types.MatchCandidate{{Line: 4, Content: "x", Similarity: 0.8}})
	assert.False(t, ok)
}

func TestSuggestCorrection_Order(t *testing.T) {
	content := "func f() {\n\treturn 1\n}\n"
	cands := []types.MatchCandidate{{Line: 1, Content: "func f() {", Similarity: 0.99}}
	s, ok := suggestCorrection(content, "func f() {\n  return 1\n}\n", cands)
	require.True(t, ok)
	assert.Equal(t, content, s.search, "indentation wins over the fuzzy candidate")

	_, ok = suggestCorrection("abc\n", "zzzzzzzz", nil)
	assert.False(t, ok)
}

func TestNotFoundHint(t *testing.T) {
	tests := []struct {
		name  string
		cands []types.MatchCandidate
		want  string
	}{
		{"none", nil, "insert_at_line"},
		{"very close", []types.MatchCandidate{{Line: 3, Similarity: 0.95}}, "Very close match at line 3"},
		{"similar", []types.MatchCandidate{{Line: 3, Similarity: 0.8}}, "Similar content found at line 3"},
		{"partial", []types.MatchCandidate{{Line: 3, Similarity: 0.6}}, "Partial match at line 3 (60% similar)"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Contains(t, notFoundHint("a.go", tt.cands, suggestion{}, false), tt.want)
		})
	}

	hint := notFoundHint("a.go", nil, suggestion{reason: "Search has trailing whitespace the file does not"}, true)
	assert.Contains(t, hint, "trailing whitespace")
	assert.Contains(t, hint, "suggested_search")
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", preview("short", 200))

	long := strings.Repeat("é", 250)
	p := preview(long, 200)
	assert.Equal(t, 203, utf8.RuneCountInString(p))
	assert.True(t, strings.HasSuffix(p, "..."))
}
