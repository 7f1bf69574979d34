// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package feedback turns a failed batch report into a retry prompt and
// drives the apply/regenerate loop for callers that produce edits.
package feedback

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

const (
	defaultMaxCandidates   = 3
	defaultMaxContentLines = 12
)

// FormatConfig configures the retry prompt.
type FormatConfig struct {
	MaxCandidates   int // Candidates shown per failed edit (default 3)
	MaxContentLines int // Lines of each candidate shown (default 12)
}

// FormatRetryPrompt produces a follow-up prompt from a report with failed
// edits. Every failure is listed with its kind, message, search preview,
// closest matches with line numbers, hint and suggested search. Returns ""
// when nothing failed.
func FormatRetryPrompt(report *types.ApplyReport, cfg FormatConfig) string {
	failures := report.Failures()
	if len(failures) == 0 {
		return ""
	}
	maxCands := cfg.MaxCandidates
	if maxCands == 0 {
		maxCands = defaultMaxCandidates
	}
	maxLines := cfg.MaxContentLines
	if maxLines == 0 {
		maxLines = defaultMaxContentLines
	}

	var buf strings.Builder

	fmt.Fprintf(&buf, "The previous edit batch failed: %d of %d edits could not be applied", len(failures), len(report.Edits))
	if report.RolledBack {
		buf.WriteString(" and no files were changed")
	}
	buf.WriteString(".\nRegenerate the whole batch against the current file contents. ")
	buf.WriteString("Search and anchor text must be copied exactly from the file, including whitespace.\n\n")

	buf.WriteString("## Failed Edits\n\n")
	for _, f := range failures {
		fmt.Fprintf(&buf, "### Edit %d: %s %s (%s)\n\n", f.Index+1, f.Type, f.Path, f.ErrorKind)
		if f.Message != "" {
			fmt.Fprintf(&buf, "%s\n\n", f.Message)
		}
		if f.SearchPreview != "" {
			buf.WriteString("Searched for:\n```\n")
			buf.WriteString(ensureNewline(f.SearchPreview))
			buf.WriteString("```\n\n")
		}
		for i, c := range f.ClosestMatches {
			if i == maxCands {
				break
			}
			fmt.Fprintf(&buf, "Closest match at line %d (%d%% similar):\n```\n", c.Line, c.Percent())
			buf.WriteString(numberedContext(c, maxLines))
			buf.WriteString("```\n\n")
		}
		if f.SuggestedSearch != "" {
			buf.WriteString("Suggested search (exact file text):\n```\n")
			buf.WriteString(ensureNewline(f.SuggestedSearch))
			buf.WriteString("```\n\n")
		}
		if f.Hint != "" {
			fmt.Fprintf(&buf, "Hint: %s\n\n", f.Hint)
		}
	}

	if wouldApply := countStatus(report, types.StatusWouldApply); wouldApply > 0 {
		fmt.Fprintf(&buf, "The other %d edits were valid but were not applied; include them again.\n", wouldApply)
	}
	return buf.String()
}

// numberedContext renders a candidate with its surrounding lines. Candidate
// lines are marked with "> ".
func numberedContext(c types.MatchCandidate, maxLines int) string {
	var buf strings.Builder
	first := c.Line - len(c.ContextBefore)
	line := first
	write := func(text string, marked bool) {
		marker := "  "
		if marked {
			marker = "> "
		}
		fmt.Fprintf(&buf, "%s%4d │ %s\n", marker, line, text)
		line++
	}

	for _, l := range c.ContextBefore {
		write(l, false)
	}
	body := strings.Split(c.Content, "\n")
	for i, l := range body {
		if i == maxLines {
			fmt.Fprintf(&buf, "  ... (%d more lines)\n", len(body)-maxLines)
			line += len(body) - maxLines
			break
		}
		write(l, true)
	}
	for _, l := range c.ContextAfter {
		write(l, false)
	}
	return buf.String()
}

func countStatus(report *types.ApplyReport, s types.Status) int {
	n := 0
	for _, e := range report.Edits {
		if e.Status == s {
			n++
		}
	}
	return n
}

func ensureNewline(s string) string {
	if strings.HasSuffix(s, "\n") {
		return s
	}
	return s + "\n"
}
