// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"bytes"
	"errors"
	"fmt"
	"strings"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

// Format names an input encoding for an edit batch.
type Format string

const (
	FormatAuto   Format = "auto"   // Detect from the content
	FormatJSON   Format = "json"   // JSON document
	FormatYAML   Format = "yaml"   // YAML document
	FormatBlocks Format = "blocks" // SEARCH/REPLACE blocks
)

// ParseFormat maps a flag value onto a Format.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case "", FormatAuto:
		return FormatAuto, nil
	case FormatJSON, FormatYAML, FormatBlocks:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("unknown input format %q (want auto, json, yaml or blocks)", s)
	}
}

// DetectFormat guesses the encoding of data. Text containing a SEARCH
// marker line is block input; a leading brace or bracket is JSON; anything
// else is read as YAML.
func DetectFormat(data []byte) Format {
	for _, line := range strings.Split(string(data), "\n") {
		if isMarker(line, markerSearch) {
			return FormatBlocks
		}
	}
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && (trimmed[0] == '{' || trimmed[0] == '[') {
		return FormatJSON
	}
	return FormatYAML
}

// DecodeAs reads a batch from data in the given format. Malformed blocks
// fail the whole input rather than being dropped.
func DecodeAs(data []byte, f Format) (types.Batch, error) {
	if f == FormatAuto {
		f = DetectFormat(data)
	}

	switch f {
	case FormatJSON, FormatYAML:
		return Decode(data)
	case FormatBlocks:
		res, err := ParseBlocks(string(data))
		if err != nil {
			return types.Batch{}, fmt.Errorf("%w: %v", ErrMalformed, err)
		}
		if len(res.ParseErrors) > 0 {
			errs := make([]error, len(res.ParseErrors))
			for i, pe := range res.ParseErrors {
				errs[i] = pe
			}
			return types.Batch{}, fmt.Errorf("%w: %w", ErrMalformed, errors.Join(errs...))
		}
		return types.Batch{Edits: res.Ops, Summary: firstLine(res.Prose)}, nil
	default:
		return types.Batch{}, fmt.Errorf("unsupported input format %q", f)
	}
}

func firstLine(s string) string {
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		return strings.TrimSpace(s[:i])
	}
	return strings.TrimSpace(s)
}
