// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package editformat turns caller input into edit batches and checks their
// structure. It accepts lenient JSON and YAML shapes as well as
// SEARCH/REPLACE blocks, and maps all of them onto types.Op.
package editformat

import (
	"fmt"
	"strings"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

const (
	markerSearch  = "<<<<<<< SEARCH"
	markerDivider = "======="
	markerReplace = ">>>>>>> REPLACE"
)

// ParseError describes a malformed SEARCH/REPLACE block.
type ParseError struct {
	Position int    // Line number where the block starts (1-based)
	RawText  string // The raw text of the malformed block
	Message  string // What went wrong
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse error at line %d: %s", e.Position, e.Message)
}

// NoEditsFoundError is returned when the text contains no blocks.
type NoEditsFoundError struct{}

func (e *NoEditsFoundError) Error() string {
	return "no edit blocks found in input"
}

// BlockResult holds the outcome of parsing block-formatted text.
type BlockResult struct {
	Ops         []types.Op    // One op per well-formed block
	ParseErrors []*ParseError // Malformed blocks, in order
	Prose       string        // Text outside the blocks
}

// blockState tracks which section of a block the scanner is in.
type blockState int

const (
	outside blockState = iota
	inSearch
	inReplace
)

// ParseBlocks converts SEARCH/REPLACE blocks into operations. Each block is
// preceded by a line naming the file. A block with an empty search section
// creates the file; any other block replaces the first occurrence of its
// search text.
func ParseBlocks(text string) (*BlockResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, &NoEditsFoundError{}
	}

	lines := strings.Split(text, "\n")
	result := &BlockResult{}
	var prose []string
	var search, replace []string
	state := outside
	start, path, found := 0, "", 0

	malformed := func(end int, msg string) {
		result.ParseErrors = append(result.ParseErrors, &ParseError{
			Position: start + 1,
			RawText:  strings.Join(lines[start:min(end, len(lines))], "\n"),
			Message:  msg,
		})
	}

	for i, line := range lines {
		switch state {
		case outside:
			if !isMarker(line, markerSearch) {
				prose = append(prose, line)
				continue
			}
			found++
			start, path = i, ""
			search, replace = nil, nil
			// The path line may sit above an opening fence.
			for j := len(prose) - 1; j >= 0 && j >= len(prose)-2; j-- {
				if isMarkdownFence(prose[j]) {
					continue
				}
				if path = extractFilePath(prose[j]); path != "" {
					prose = append(prose[:j], prose[j+1:]...)
				}
				break
			}
			state = inSearch

		case inSearch:
			switch {
			case isMarker(line, markerDivider):
				state = inReplace
			case isMarker(line, markerSearch):
				malformed(i, "unclosed block: missing ======= divider")
				found++
				start, search = i, nil
			default:
				search = append(search, line)
			}

		case inReplace:
			if !isMarker(line, markerReplace) {
				replace = append(replace, line)
				continue
			}
			state = outside
			if path == "" {
				malformed(i+1, "missing file path before <<<<<<< SEARCH marker")
				continue
			}
			result.Ops = append(result.Ops, blockOp(path, search, replace))
		}
	}

	switch state {
	case inSearch:
		malformed(len(lines), "unclosed block: missing ======= divider")
	case inReplace:
		malformed(len(lines), "unclosed block: missing >>>>>>> REPLACE marker")
	}

	if found == 0 {
		return nil, &NoEditsFoundError{}
	}
	result.Prose = strings.TrimSpace(stripFences(prose))
	return result, nil
}

// blockOp builds the operation for one block. The block format drops the
// newline before each marker, so non-empty sections get it back.
func blockOp(path string, search, replace []string) types.Op {
	old := joinSection(search)
	repl := joinSection(replace)
	if old == "" {
		return types.Op{Kind: types.KindCreate, Path: path, Content: &repl}
	}
	return types.Op{Kind: types.KindReplace, Path: path, Search: &old, Replace: &repl}
}

func joinSection(lines []string) string {
	if len(lines) == 0 {
		return ""
	}
	return strings.Join(lines, "\n") + "\n"
}

// extractFilePath cleans a file path line, stripping markdown markup.
// Lines that read like prose are not paths.
func extractFilePath(line string) string {
	s := strings.TrimSpace(line)
	if isMarkdownFence(s) {
		return ""
	}
	s = strings.TrimSpace(strings.Trim(s, "`*"))
	if strings.ContainsAny(s, " \t") && !strings.Contains(s, "/") {
		return ""
	}
	return s
}

// isMarker checks if a line matches a marker, allowing surrounding whitespace.
func isMarker(line, marker string) bool {
	return strings.TrimSpace(line) == marker
}

func isMarkdownFence(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), "```")
}

// stripFences joins prose lines, dropping the fences that wrapped blocks.
func stripFences(lines []string) string {
	var kept []string
	for _, l := range lines {
		if !isMarkdownFence(l) {
			kept = append(kept, l)
		}
	}
	return strings.Join(kept, "\n")
}
