// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"sort"
	"strings"
	"unicode/utf8"

	"github.com/petar-djukic/apply-edits/pkg/types"
	"github.com/sergi/go-diff/diffmatchpatch"
)

const (
	defaultMinSimilarity = 0.5
	defaultMaxCandidates = 3
	candidateContext     = 2
)

// Span is a byte range [Start, End) of a match in file text.
type Span struct {
	Start int
	End   int
}

// Mode selects how many exact occurrences Locate reports.
type Mode int

const (
	ModeFirst Mode = iota // Only the first occurrence, top to bottom
	ModeAll               // Every non-overlapping occurrence
)

// Location is the outcome of Locate. Found is true when the target occurs
// verbatim; Candidates is only populated when it does not.
type Location struct {
	Found      bool
	Spans      []Span
	Candidates []types.MatchCandidate
}

// Locator finds target text in file content. Exact matches always win;
// fuzzy scoring runs only on a miss and only produces candidates for
// diagnostics, never a match.
type Locator struct {
	MinSimilarity float64 // Candidates scoring below this are dropped (default 0.5; negative keeps all)
	MaxCandidates int     // Number of candidates returned (default 3)
}

// Locate searches text for target. On an exact hit it returns the spans
// requested by mode; otherwise it returns ranked closest candidates.
func (l *Locator) Locate(text, target string, mode Mode) Location {
	spans := exactMatches(text, target, mode)
	if len(spans) > 0 {
		return Location{Found: true, Spans: spans}
	}
	return Location{Candidates: l.Closest(text, target)}
}

// Count returns the number of non-overlapping exact occurrences.
func (l *Locator) Count(text, target string) int {
	if target == "" {
		return 0
	}
	return strings.Count(text, target)
}

// Closest ranks windows of text by line-wise similarity to target. The
// window height is the target's line count. Lines are compared after
// trimming and collapsing blanks, so indentation differences do not
// penalize a window. Results are sorted by similarity, ties broken by line.
func (l *Locator) Closest(text, target string) []types.MatchCandidate {
	targetLines := splitLines(target)
	fileLines := splitLines(text)
	if len(targetLines) == 0 || len(fileLines) == 0 {
		return nil
	}

	normTarget := normalizeLines(targetLines)
	normFile := normalizeLines(fileLines)

	height := len(targetLines)
	if height > len(fileLines) {
		height = len(fileLines)
	}

	minSim := l.minSimilarity()
	var candidates []types.MatchCandidate
	for i := 0; i+height <= len(fileLines); i++ {
		score := windowSimilarity(normFile[i:i+height], normTarget)
		if score < minSim {
			continue
		}
		candidates = append(candidates, types.MatchCandidate{
			Line:          i + 1,
			Content:       strings.Join(fileLines[i:i+height], "\n"),
			Similarity:    score,
			ContextBefore: copyLines(fileLines[max(0, i-candidateContext):i]),
			ContextAfter:  copyLines(fileLines[i+height : min(len(fileLines), i+height+candidateContext)]),
		})
	}

	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].Similarity > candidates[b].Similarity
	})

	if n := l.maxCandidates(); len(candidates) > n {
		candidates = candidates[:n]
	}
	return candidates
}

func (l *Locator) minSimilarity() float64 {
	if l.MinSimilarity < 0 {
		return 0
	}
	if l.MinSimilarity > 0 {
		return l.MinSimilarity
	}
	return defaultMinSimilarity
}

func (l *Locator) maxCandidates() int {
	if l.MaxCandidates > 0 {
		return l.MaxCandidates
	}
	return defaultMaxCandidates
}

// exactMatches returns byte spans of verbatim occurrences of target.
func exactMatches(text, target string, mode Mode) []Span {
	if target == "" {
		return nil
	}
	var spans []Span
	offset := 0
	for {
		idx := strings.Index(text[offset:], target)
		if idx < 0 {
			break
		}
		start := offset + idx
		spans = append(spans, Span{Start: start, End: start + len(target)})
		if mode == ModeFirst {
			break
		}
		offset = start + len(target)
	}
	return spans
}

// windowSimilarity averages per-line similarity between a window of
// normalized file lines and the normalized target lines. Target lines
// beyond the window (file shorter than target) count as zero.
func windowSimilarity(window, target []string) float64 {
	if len(target) == 0 {
		return 0
	}
	var total float64
	for i := range window {
		total += similarity(window[i], target[i])
	}
	return total / float64(len(target))
}

// similarity computes the Levenshtein-based similarity ratio between two strings
// using the go-diff library. Returns a value between 0.0 and 1.0.
func similarity(a, b string) float64 {
	if a == b {
		return 1.0
	}
	if a == "" || b == "" {
		return 0.0
	}

	dmp := diffmatchpatch.New()
	diffs := dmp.DiffMain(a, b, false)
	distance := dmp.DiffLevenshtein(diffs)
	maxLen := utf8.RuneCountInString(a)
	if n := utf8.RuneCountInString(b); n > maxLen {
		maxLen = n
	}
	return 1.0 - float64(distance)/float64(maxLen)
}

// splitLines splits text into lines without terminators. A trailing
// newline does not produce an extra empty line.
func splitLines(s string) []string {
	if s == "" {
		return nil
	}
	lines := strings.Split(s, "\n")
	if lines[len(lines)-1] == "" {
		lines = lines[:len(lines)-1]
	}
	return lines
}

// normalizeLines trims each line and collapses runs of spaces and tabs.
func normalizeLines(lines []string) []string {
	out := make([]string, len(lines))
	for i, line := range lines {
		out[i] = collapseSpaces(strings.TrimSpace(line))
	}
	return out
}

// collapseSpaces replaces runs of spaces and tabs with a single space.
func collapseSpaces(s string) string {
	var b strings.Builder
	inSpace := false
	for _, r := range s {
		if r == ' ' || r == '\t' {
			if !inSpace {
				b.WriteByte(' ')
				inSpace = true
			}
		} else {
			b.WriteRune(r)
			inSpace = false
		}
	}
	return b.String()
}

func copyLines(lines []string) []string {
	if len(lines) == 0 {
		return nil
	}
	out := make([]string, len(lines))
	copy(out, lines)
	return out
}
