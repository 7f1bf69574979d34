// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package fileview reads files fresh from a workspace and renders them with
// line numbers, so a caller can build search text against current content.
package fileview

import (
	"errors"
	"fmt"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"

	"github.com/petar-djukic/apply-edits/internal/editor"
)

// DefaultMaxLines caps how many lines of each file are returned.
const DefaultMaxLines = 500

// Result is one file as read from the workspace.
type Result struct {
	Path                   string `json:"path"`
	Exists                 bool   `json:"exists"`
	Lines                  int    `json:"lines,omitempty"`
	Bytes                  int    `json:"bytes,omitempty"`
	Truncated              bool   `json:"truncated,omitempty"`
	Content                string `json:"content,omitempty"`
	ContentWithLineNumbers string `json:"content_with_line_numbers,omitempty"`
	Error                  string `json:"error,omitempty"`
}

// Read returns one result per file named by patterns. Plain paths are read
// as given, so a missing file reports Exists false. Patterns with glob
// syntax (including **) are expanded against the workspace; each file is
// reported once, in the order first matched.
func Read(ws *editor.Workspace, patterns []string, maxLines int) []Result {
	if maxLines <= 0 {
		maxLines = DefaultMaxLines
	}

	var results []Result
	seen := make(map[string]bool)
	for _, pattern := range patterns {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" {
			continue
		}
		if !hasMeta(pattern) {
			if clean, err := ws.Clean(pattern); err == nil {
				if seen[clean] {
					continue
				}
				seen[clean] = true
			}
			results = append(results, readOne(ws, pattern, maxLines))
			continue
		}

		matches, err := expand(ws.Fs(), pattern)
		if err != nil {
			results = append(results, Result{Path: pattern, Error: err.Error()})
			continue
		}
		if len(matches) == 0 {
			results = append(results, Result{Path: pattern, Error: "no files match pattern"})
			continue
		}
		for _, m := range matches {
			if seen[m] {
				continue
			}
			seen[m] = true
			results = append(results, readOne(ws, m, maxLines))
		}
	}
	return results
}

func hasMeta(p string) bool {
	return strings.ContainsAny(p, "*?[{")
}

// expand returns the regular files matching pattern, sorted.
func expand(fsys afero.Fs, pattern string) ([]string, error) {
	pattern = path.Clean(strings.TrimPrefix(pattern, "./"))
	if strings.HasPrefix(pattern, "/") || pattern == ".." || strings.HasPrefix(pattern, "../") {
		return nil, fmt.Errorf("%w: %s", editor.ErrPathOutsideRoot, pattern)
	}

	matches, err := doublestar.Glob(afero.NewIOFS(fsys), pattern)
	if err != nil {
		return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
	}

	var files []string
	for _, m := range matches {
		info, err := fsys.Stat(m)
		if err != nil || info.IsDir() {
			continue
		}
		files = append(files, m)
	}
	sort.Strings(files)
	return files, nil
}

func readOne(ws *editor.Workspace, p string, maxLines int) Result {
	clean, err := ws.Clean(p)
	if err != nil {
		return Result{Path: p, Error: err.Error()}
	}
	res := Result{Path: clean}

	info, err := ws.Fs().Stat(clean)
	if errors.Is(err, os.ErrNotExist) {
		return res
	}
	res.Exists = true
	if err != nil {
		res.Error = err.Error()
		return res
	}
	if info.IsDir() {
		res.Error = fmt.Sprintf("%s is a directory", clean)
		return res
	}

	data, err := afero.ReadFile(ws.Fs(), clean)
	if err != nil {
		res.Error = err.Error()
		return res
	}

	content := string(data)
	lines := splitLines(content)
	res.Lines = len(lines)
	res.Bytes = len(data)
	res.Truncated = len(lines) > maxLines
	res.Content = content
	if res.Truncated {
		res.Content = strings.Join(lines[:maxLines], "\n") + "\n"
	}
	res.ContentWithLineNumbers = numbered(lines, maxLines, strings.HasSuffix(content, "\n"))
	return res
}

// splitLines splits s into lines without terminators. A final newline does
// not start another line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(strings.TrimSuffix(s, "\n"), "\n")
	for i, l := range lines {
		lines[i] = strings.TrimSuffix(l, "\r")
	}
	return lines
}

// numbered renders lines as "N | text", padded to the widest line number
// shown.
func numbered(lines []string, maxLines int, finalNewline bool) string {
	shown := min(len(lines), maxLines)
	width := len(fmt.Sprint(max(shown, 1)))

	var b strings.Builder
	for i := 0; i < shown; i++ {
		fmt.Fprintf(&b, "%*d | %s\n", width, i+1, lines[i])
	}
	if len(lines) > maxLines {
		fmt.Fprintf(&b, "%*s | ... (%d more lines)\n", width, "...", len(lines)-maxLines)
	}

	out := b.String()
	if !finalNewline {
		out = strings.TrimSuffix(out, "\n")
	}
	return out
}

// FormatPrompt renders results as markdown sections suitable for pasting
// into a prompt.
func FormatPrompt(results []Result) string {
	var b strings.Builder
	for _, r := range results {
		switch {
		case r.Error != "":
			fmt.Fprintf(&b, "### %s\n\n*Error reading file: %s*\n\n", r.Path, r.Error)
		case !r.Exists:
			fmt.Fprintf(&b, "### %s\n\n*File does not exist - will be created*\n\n", r.Path)
		default:
			truncated := ""
			if r.Truncated {
				truncated = " (truncated)"
			}
			fmt.Fprintf(&b, "### %s (%d lines%s)\n\n", r.Path, r.Lines, truncated)
			fmt.Fprintf(&b, "```%s\n%s\n```\n\n", strings.TrimPrefix(path.Ext(r.Path), "."), strings.TrimSuffix(r.ContentWithLineNumbers, "\n"))
		}
	}
	return b.String()
}
