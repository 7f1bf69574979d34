// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package git

import (
	"fmt"
	"strings"
	"unicode"
)

const maxSubjectLength = 72

// commitTypes maps summary keywords to conventional commit types.
var commitTypes = []struct {
	keywords []string
	prefix   string
}{
	{[]string{"fix", "bug", "repair", "patch", "resolve", "correct"}, "fix"},
	{[]string{"refactor", "restructure", "reorganize", "clean up", "simplify", "rename"}, "refactor"},
	{[]string{"test", "spec", "coverage"}, "test"},
	{[]string{"doc", "docs", "comment", "readme", "documentation"}, "docs"},
	{[]string{"style", "format", "lint", "whitespace"}, "style"},
	{[]string{"perf", "performance", "optimize", "speed"}, "perf"},
	{[]string{"ci", "pipeline", "workflow", "github action"}, "ci"},
	{[]string{"build", "dependency", "deps", "module"}, "build"},
	{[]string{"chore", "cleanup", "maintain", "bump"}, "chore"},
	// "feat" is the fallback for summaries, so it comes last.
	{[]string{"add", "create", "implement", "new", "feature", "introduce"}, "feat"},
}

// Message picks the commit message for a batch: the caller's commit message
// if given, otherwise one generated from the summary and the touched files.
func Message(commitMessage, summary string, files []string) string {
	if msg := strings.TrimSpace(commitMessage); msg != "" {
		return msg
	}
	return GenerateMessage(summary, files)
}

// GenerateMessage creates a conventional commit message from a batch
// summary and the files it touched. Without a summary the subject names the
// files.
func GenerateMessage(summary string, files []string) string {
	summary = strings.TrimSpace(summary)
	var subject string
	if summary == "" {
		subject = "chore: " + describeFiles(files)
	} else {
		subject = buildSubject(inferCommitType(summary), summary)
	}

	if body := buildBody(files); body != "" {
		return subject + "\n\n" + body
	}
	return subject
}

// withTrailer appends the apply-edits trailer unless msg already has it.
func withTrailer(msg string) string {
	msg = strings.TrimRight(msg, "\n")
	if hasTrailer(msg) {
		return msg + "\n"
	}
	return msg + "\n\n" + Trailer + "\n"
}

// inferCommitType determines the conventional commit type from keywords.
// Summaries already written as "type: ..." keep their type.
func inferCommitType(summary string) string {
	lower := strings.ToLower(summary)
	if i := strings.Index(lower, ":"); i > 0 {
		prefix := strings.TrimSpace(lower[:i])
		for _, ct := range commitTypes {
			if prefix == ct.prefix {
				return ct.prefix
			}
		}
	}
	for _, ct := range commitTypes {
		for _, kw := range ct.keywords {
			if containsWord(lower, kw) {
				return ct.prefix
			}
		}
	}
	return "feat"
}

// containsWord checks whether text contains keyword as a whole word
// (bounded by non-letter characters or string edges). For multi-word
// keywords like "clean up", it falls back to substring matching.
func containsWord(text, keyword string) bool {
	if strings.Contains(keyword, " ") {
		return strings.Contains(text, keyword)
	}
	idx := 0
	for {
		i := strings.Index(text[idx:], keyword)
		if i < 0 {
			return false
		}
		start := idx + i
		end := start + len(keyword)
		leftOK := start == 0 || !unicode.IsLetter(rune(text[start-1]))
		rightOK := end == len(text) || !unicode.IsLetter(rune(text[end]))
		if leftOK && rightOK {
			return true
		}
		idx = start + 1
	}
}

// buildSubject creates the first line of the commit message, at most 72
// characters. A summary with its own "type:" prefix is not prefixed twice.
func buildSubject(commitType, summary string) string {
	summary = strings.TrimSpace(summary)
	if i := strings.Index(summary, ":"); i > 0 && strings.EqualFold(strings.TrimSpace(summary[:i]), commitType) {
		summary = strings.TrimSpace(summary[i+1:])
	}
	if summary != "" {
		summary = strings.ToLower(summary[:1]) + summary[1:]
	}
	summary = strings.TrimRight(summary, ".")

	subject := fmt.Sprintf("%s: %s", commitType, summary)
	if len(subject) > maxSubjectLength {
		subject = subject[:maxSubjectLength-3] + "..."
	}
	return subject
}

func describeFiles(files []string) string {
	switch len(files) {
	case 0:
		return "apply edits"
	case 1:
		return "apply edits to " + files[0]
	default:
		return fmt.Sprintf("apply edits to %d files", len(files))
	}
}

// buildBody creates the commit body listing touched files.
func buildBody(files []string) string {
	if len(files) == 0 {
		return ""
	}

	var buf strings.Builder
	buf.WriteString("Modified files:\n")
	for _, f := range files {
		buf.WriteString(fmt.Sprintf("- %s\n", f))
	}
	return strings.TrimRight(buf.String(), "\n")
}
