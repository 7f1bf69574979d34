// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"testing"

	"github.com/petar-djukic/apply-edits/pkg/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertLines(t *testing.T) {
	tests := []struct {
		name    string
		content string
		at      int
		text    string
		want    string
	}{
		{"lf middle", "a\nb\n", 1, "X", "a\nX\nb\n"},
		{"lf end without final newline", "a\nb", 2, "X", "a\nb\nX"},
		{"crlf middle", "a\r\nb\r\n", 1, "X", "a\r\nX\r\nb\r\n"},
		{"crlf multi-line text", "a\r\nb\r\n", 0, "X\nY\n", "X\r\nY\r\na\r\nb\r\n"},
		{"crlf end without final newline", "a\r\nb", 2, "X", "a\r\nb\r\nX"},
		{"crlf text into lf file", "a\nb\n", 1, "X\r\n", "a\nX\nb\n"},
		{"empty file", "", 0, "X", "X\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, insertLines(tt.content, tt.at, tt.text))
		})
	}
}

func TestRemoveLines_CRLF(t *testing.T) {
	got := removeLines("a\r\nb\r\nc", func(i int) bool { return i == 2 })
	assert.Equal(t, "a\r\nb", got)

	got = removeLines("a\r\nb\r\nc\r\n", func(i int) bool { return i == 1 })
	assert.Equal(t, "a\r\nc\r\n", got)
}

func TestAppendText_CRLF(t *testing.T) {
	assert.Equal(t, "a\r\nb\r\nX", appendText("a\r\nb", "X"))
	assert.Equal(t, "a\nX", appendText("a", "X"))
}

func TestEditor_InsertKeepsCRLF(t *testing.T) {
	e, fsys := memEditor(t, map[string]string{"w.txt": "a\r\nb\r\n"}, Options{})
	report := apply(t, e,
		types.Op{Kind: types.KindInsertAfter, Path: "w.txt", Anchor: types.Str("a"), Content: types.Str("X")},
		types.Op{Kind: types.KindInsertAtLine, Path: "w.txt", Line: types.Int(4), Content: types.Str("Z")},
	)
	require.True(t, report.Success, "%+v", report.Failures())
	assert.Equal(t, "a\r\nX\r\nb\r\nZ\r\n", readMem(t, fsys, "w.txt"))
}

func TestEmptyPrependAndAppendLeaveContent(t *testing.T) {
	assert.Equal(t, "a\n", prependText("a\n", ""))
	assert.Equal(t, "a", appendText("a", ""))
}
