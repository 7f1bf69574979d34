// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"strings"

	"github.com/pmezard/go-difflib/difflib"
)

const diffContext = 3

// unifiedDiff renders the change to one file as a unified diff. Created and
// deleted files diff against /dev/null.
func unifiedDiff(st *fileState) string {
	from, to := "a/"+st.path, "b/"+st.path
	if !st.origExists {
		from = "/dev/null"
	}
	if !st.exists {
		to = "/dev/null"
	}

	text, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        diffLines(st.origContent),
		B:        diffLines(st.content),
		FromFile: from,
		ToFile:   to,
		Context:  diffContext,
	})
	if err != nil {
		return ""
	}
	return text
}

// diffLines splits s for difflib, terminating the final line so the diff
// output stays line-oriented.
func diffLines(s string) []string {
	lines := splitKeep(s)
	if n := len(lines); n > 0 && !strings.HasSuffix(lines[n-1], "\n") {
		lines[n-1] += "\n"
	}
	return lines
}
