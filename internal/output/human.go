// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package output renders apply reports and file reads, as JSON for machines
// and as a coloured summary for people.
package output

import (
	"bytes"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/formatters"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/muesli/termenv"

	"github.com/petar-djukic/apply-edits/internal/fileview"
	"github.com/petar-djukic/apply-edits/pkg/types"
)

const (
	indent          = "      "
	previewLines    = 5
	candidateLines  = 4
	shownCandidates = 3
)

// Human writes reports for a person reading a terminal.
type Human struct {
	w     io.Writer
	out   *termenv.Output
	color bool
}

// NewHuman creates a Human writer on w. Colour is used only when color is
// set and w is a terminal that supports it.
func NewHuman(w io.Writer, color bool) *Human {
	var opts []termenv.OutputOption
	if !color {
		opts = append(opts, termenv.WithProfile(termenv.Ascii))
	}
	out := termenv.NewOutput(w, opts...)
	return &Human{w: w, out: out, color: out.Profile != termenv.Ascii}
}

func (h *Human) style(s string) termenv.Style {
	return h.out.String(s)
}

func (h *Human) printf(format string, args ...any) {
	fmt.Fprintf(h.w, format, args...)
}

// Header prints the tool name, version and working directory.
func (h *Human) Header(version, workdir string, dryRun bool) {
	h.printf("%s %s\n", h.style("apply-edits").Bold().Foreground(termenv.ANSICyan), h.style("v"+version).Faint())
	h.printf("%s %s\n", h.style("Working directory:").Faint(), workdir)
	if dryRun {
		h.printf("%s\n", h.style("Dry run: no files will be written").Foreground(termenv.ANSIYellow))
	}
	h.printf("\n")
}

// Report prints one block per operation followed by a summary.
func (h *Human) Report(r *types.ApplyReport) {
	total := len(r.Edits)
	h.printf("Processing %s edit(s)...\n\n", h.style(fmt.Sprint(total)).Bold())
	for _, e := range r.Edits {
		h.edit(e, total)
	}
	if r.DryRun && len(r.Diffs) > 0 {
		h.diffs(r.Diffs)
	}
	h.summary(r)
}

func (h *Human) edit(e types.OperationResult, total int) {
	h.printf("%s %s %s\n",
		h.style(fmt.Sprintf("[%d/%d]", e.Index+1, total)).Faint(),
		h.style(e.Type).Foreground(termenv.ANSICyan),
		e.Path)

	switch e.Status {
	case types.StatusApplied:
		h.printf("%s%s %s\n", indent, h.style("✓").Bold().Foreground(termenv.ANSIGreen), h.style("applied").Foreground(termenv.ANSIGreen))
		return
	case types.StatusWouldApply:
		h.printf("%s%s %s\n", indent, h.style("○").Bold().Foreground(termenv.ANSIYellow), h.style("would apply").Foreground(termenv.ANSIYellow))
		return
	}

	h.printf("%s%s %s\n", indent, h.style("✗").Bold().Foreground(termenv.ANSIRed), h.style("ERROR ("+string(e.ErrorKind)+")").Bold().Foreground(termenv.ANSIRed))
	h.printf("%s%s\n", indent, h.style(e.Message).Foreground(termenv.ANSIRed))

	if e.SearchPreview != "" {
		h.printf("\n%s%s:\n", indent, h.style("Search string (preview)").Faint())
		h.block(e.SearchPreview, previewLines, "")
	}

	if len(e.ClosestMatches) > 0 {
		h.printf("\n%s%s:\n", indent, h.style("Closest matches in file").Faint())
		for i, m := range e.ClosestMatches {
			if i == shownCandidates {
				break
			}
			h.printf("\n%s%s Line %s (%s%% similar):\n", indent, h.style("│").Faint(),
				h.style(fmt.Sprint(m.Line)).Foreground(termenv.ANSIYellow),
				h.style(fmt.Sprint(m.Percent())).Foreground(termenv.ANSIYellow))
			h.block(h.highlight(e.Path, m.Content), candidateLines, "  ")
		}
	}

	if e.Hint != "" {
		h.printf("\n%s%s %s\n", indent, h.style("Hint:").Foreground(termenv.ANSICyan), e.Hint)
	}
	if e.SuggestedSearch != "" {
		h.printf("\n%s%s:\n", indent, h.style("Suggested search").Faint())
		h.block(e.SuggestedSearch, previewLines, "")
	}
	h.printf("\n")
}

// block prints up to limit lines of text behind a gutter.
func (h *Human) block(text string, limit int, pad string) {
	lines := strings.Split(strings.TrimSuffix(text, "\n"), "\n")
	gutter := h.style("│").Faint()
	for i, line := range lines {
		if i == limit {
			h.printf("%s%s %s%s\n", indent, gutter, pad, h.style("...").Faint())
			return
		}
		h.printf("%s%s %s%s\n", indent, gutter, pad, line)
	}
}

func (h *Human) diffs(diffs map[string]string) {
	paths := make([]string, 0, len(diffs))
	for p := range diffs {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	for _, p := range paths {
		for _, line := range strings.Split(strings.TrimSuffix(diffs[p], "\n"), "\n") {
			switch {
			case strings.HasPrefix(line, "+++"), strings.HasPrefix(line, "---"):
				h.printf("%s\n", h.style(line).Bold())
			case strings.HasPrefix(line, "+"):
				h.printf("%s\n", h.style(line).Foreground(termenv.ANSIGreen))
			case strings.HasPrefix(line, "-"):
				h.printf("%s\n", h.style(line).Foreground(termenv.ANSIRed))
			case strings.HasPrefix(line, "@@"):
				h.printf("%s\n", h.style(line).Foreground(termenv.ANSICyan))
			default:
				h.printf("%s\n", line)
			}
		}
		h.printf("\n")
	}
}

func (h *Human) summary(r *types.ApplyReport) {
	h.printf("%s\n", h.style(strings.Repeat("━", 50)).Faint())

	applied := h.style(fmt.Sprint(r.Applied))
	failed := h.style(fmt.Sprint(r.Failed))
	if r.Failed == 0 {
		applied = applied.Bold().Foreground(termenv.ANSIGreen)
		failed = failed.Foreground(termenv.ANSIGreen)
	} else {
		applied = applied.Foreground(termenv.ANSIYellow)
		failed = failed.Bold().Foreground(termenv.ANSIRed)
	}
	h.printf("%s %s applied, %s failed\n", h.style("SUMMARY:").Bold(), applied, failed)

	switch {
	case r.RolledBack:
		h.printf("%s\n", h.style("No files were modified: the batch was rolled back. Fix the failed edits and resubmit the whole batch.").Foreground(termenv.ANSIYellow))
	case r.DryRun:
		h.printf("%s\n", h.style("Dry run: no files were modified.").Foreground(termenv.ANSIYellow))
	}

	if c := r.Commit; c != nil {
		if c.Error != "" {
			h.printf("%s %s\n", h.style("Commit failed:").Foreground(termenv.ANSIRed), c.Error)
		} else {
			h.printf("%s %s\n", h.style("Committed").Foreground(termenv.ANSIGreen), shortHash(c.Hash))
		}
		if n := len(c.Unrelated); n > 0 {
			h.printf("%s\n", h.style(fmt.Sprintf("%d unrelated change(s) left uncommitted", n)).Foreground(termenv.ANSIYellow))
		}
	}
}

// Files prints a one-line header per file read.
func (h *Human) Files(results []fileview.Result) {
	for _, r := range results {
		switch {
		case r.Error != "":
			h.printf("%s %s\n", h.style(r.Path).Bold(), h.style("("+r.Error+")").Foreground(termenv.ANSIRed))
		case !r.Exists:
			h.printf("%s (does not exist)\n", r.Path)
		default:
			h.printf("%s (%s lines, %s)\n", h.style(r.Path).Bold(),
				h.style(fmt.Sprint(r.Lines)).Foreground(termenv.ANSICyan),
				h.style(FormatBytes(r.Bytes)).Foreground(termenv.ANSICyan))
		}
	}
}

// Error prints a process-level error.
func (h *Human) Error(err error) {
	h.printf("%s %v\n", h.style("ERROR:").Bold().Foreground(termenv.ANSIRed), err)
}

// highlight colours content by the language of path. Without colour, or
// when no lexer applies, content is returned unchanged.
func (h *Human) highlight(path, content string) string {
	if !h.color {
		return content
	}
	lexer := lexers.Match(path)
	if lexer == nil {
		return content
	}
	lexer = chroma.Coalesce(lexer)

	formatter := formatters.Get("terminal256")
	iterator, err := lexer.Tokenise(nil, content)
	if err != nil {
		return content
	}

	var buf bytes.Buffer
	if err := formatter.Format(&buf, styles.Get("monokai"), iterator); err != nil {
		return content
	}
	return buf.String()
}

// FormatBytes renders a byte count as B, KB or MB.
func FormatBytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

func shortHash(h string) string {
	if len(h) > 7 {
		return h[:7]
	}
	return h
}
