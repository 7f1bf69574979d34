// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editformat

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

// ErrMalformed is returned when input cannot be read as a batch at all.
// Problems with individual fields are left to Validate.
var ErrMalformed = errors.New("malformed edit batch")

// Key aliases accepted for each field, in priority order.
var (
	kindKeys      = []string{"type", "operation", "op", "action"}
	pathKeys      = []string{"path", "file", "file_path", "filepath", "filename"}
	searchKeys    = []string{"search", "find", "old", "old_text"}
	replaceKeys   = []string{"replace", "replacement", "with", "new", "new_text"}
	contentKeys   = []string{"content", "text", "new_content", "body"}
	afterKeys     = []string{"anchor", "search", "match", "after", "pattern", "at", "location"}
	beforeKeys    = []string{"anchor", "search", "match", "before", "pattern", "at", "location"}
	lineKeys      = []string{"line", "line_number", "at_line"}
	startLineKeys = []string{"start_line", "start", "from_line"}
	endLineKeys   = []string{"end_line", "end", "to_line"}
	overwriteKeys = []string{"overwrite", "force"}
	editsKeys     = []string{"edits", "operations", "changes"}
	messageKeys   = []string{"commit_message", "message"}
)

// kindSynonyms maps alternative spellings to canonical kinds.
var kindSynonyms = map[string]types.OpKind{
	"replace_first":  types.KindReplace,
	"search_replace": types.KindReplace,
	"replaceall":     types.KindReplaceAll,
	"insert_line":    types.KindInsertAtLine,
	"insert_at":      types.KindInsertAtLine,
	"insertafter":    types.KindInsertAfter,
	"insertbefore":   types.KindInsertBefore,
	"create_file":    types.KindCreate,
	"new_file":       types.KindCreate,
	"write":          types.KindCreate,
	"remove_file":    types.KindDeleteFile,
	"remove_lines":   types.KindDeleteLines,
}

// Decode reads a batch from JSON or YAML. The top level is an object with
// an edits list (or one of its aliases), a bare list of operations, or a
// single operation object.
func Decode(data []byte) (types.Batch, error) {
	raw, err := unmarshalLoose(data)
	if err != nil {
		return types.Batch{}, err
	}
	return batchFrom(raw)
}

func unmarshalLoose(data []byte) (any, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("%w: empty input", ErrMalformed)
	}

	var raw any
	if trimmed[0] == '{' || trimmed[0] == '[' {
		dec := json.NewDecoder(bytes.NewReader(trimmed))
		dec.UseNumber()
		if err := dec.Decode(&raw); err == nil {
			return raw, nil
		}
	}
	if err := yaml.Unmarshal(trimmed, &raw); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, err)
	}
	return raw, nil
}

func batchFrom(raw any) (types.Batch, error) {
	switch v := raw.(type) {
	case []any:
		ops, err := opsFrom(v)
		return types.Batch{Edits: ops}, err
	case map[string]any:
		if list, ok := lookup(v, editsKeys); ok {
			items, ok := list.([]any)
			if !ok {
				return types.Batch{}, fmt.Errorf("%w: edits must be a list, got %T", ErrMalformed, list)
			}
			ops, err := opsFrom(items)
			if err != nil {
				return types.Batch{}, err
			}
			b := types.Batch{Edits: ops}
			b.CommitMessage = deref(stringField(v, messageKeys))
			b.Summary = deref(stringField(v, []string{"summary"}))
			return b, nil
		}
		if _, ok := lookup(v, kindKeys); ok {
			return types.Batch{Edits: []types.Op{opFrom(v)}}, nil
		}
		return types.Batch{}, fmt.Errorf("%w: object has no edits list", ErrMalformed)
	default:
		return types.Batch{}, fmt.Errorf("%w: expected an object or a list, got %T", ErrMalformed, raw)
	}
}

func opsFrom(items []any) ([]types.Op, error) {
	ops := make([]types.Op, 0, len(items))
	for i, item := range items {
		m, ok := item.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: edit %d must be an object, got %T", ErrMalformed, i, item)
		}
		ops = append(ops, opFrom(m))
	}
	return ops, nil
}

// DecodeOp normalizes a single operation object, as received from a tool
// call.
func DecodeOp(m map[string]any) types.Op {
	return opFrom(m)
}

func opFrom(m map[string]any) types.Op {
	m = lowerKeys(m)
	op := types.Op{
		Kind: canonicalKind(deref(stringField(m, kindKeys))),
		Path: strings.TrimSpace(deref(stringField(m, pathKeys))),
	}

	switch op.Kind {
	case types.KindInsertAfter:
		op.Anchor = stringField(m, afterKeys)
	case types.KindInsertBefore:
		op.Anchor = stringField(m, beforeKeys)
	default:
		op.Search = stringField(m, searchKeys)
	}
	op.Replace = stringField(m, replaceKeys)
	op.Content = stringField(m, contentKeys)
	op.Line = intField(m, lineKeys)
	op.StartLine = intField(m, startLineKeys)
	op.EndLine = intField(m, endLineKeys)
	if v, ok := lookup(m, overwriteKeys); ok {
		op.Overwrite = truthy(v)
	}

	// A bare delete removes matching lines when it names a search, the
	// whole file otherwise.
	if op.Kind == "delete" || op.Kind == "remove" {
		op.Kind = types.KindDeleteFile
		if op.Search != nil {
			op.Kind = types.KindDeleteMatch
		}
	}
	if op.Kind == types.KindInsertAtLine && op.Line == nil {
		op.Line = op.StartLine
	}
	return op
}

// canonicalKind lower-cases s and treats dashes and spaces as underscores.
func canonicalKind(s string) types.OpKind {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("-", "_", " ", "_").Replace(k)
	if syn, ok := kindSynonyms[k]; ok {
		return syn
	}
	return types.OpKind(k)
}

func lowerKeys(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		lk := strings.ToLower(k)
		if _, dup := out[lk]; dup && lk != k {
			continue
		}
		out[lk] = v
	}
	return out
}

func lookup(m map[string]any, keys []string) (any, bool) {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v, true
		}
	}
	return nil, false
}

// stringField returns the first present alias as a string. Lists of strings
// are joined as lines; scalars are formatted.
func stringField(m map[string]any, keys []string) *string {
	v, ok := lookup(m, keys)
	if !ok {
		return nil
	}
	switch t := v.(type) {
	case string:
		return &t
	case []any:
		lines := make([]string, 0, len(t))
		for _, item := range t {
			lines = append(lines, fmt.Sprint(item))
		}
		s := strings.Join(lines, "\n") + "\n"
		return &s
	case map[string]any:
		return nil
	default:
		s := fmt.Sprint(t)
		return &s
	}
}

// intField accepts integers, whole floats and digit strings. Anything else
// that is present decodes to 0 so the validator reports it.
func intField(m map[string]any, keys []string) *int {
	v, ok := lookup(m, keys)
	if !ok {
		return nil
	}
	n, ok := toInt(v)
	if !ok {
		n = 0
	}
	return &n
}

func toInt(v any) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int64:
		return int(t), true
	case uint64:
		return int(t), true
	case float64:
		if t != math.Trunc(t) {
			return 0, false
		}
		return int(t), true
	case json.Number:
		if n, err := t.Int64(); err == nil {
			return int(n), true
		}
		if f, err := t.Float64(); err == nil {
			return toInt(f)
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(t)); err == nil {
			return n, true
		}
	}
	return 0, false
}

func truthy(v any) bool {
	switch t := v.(type) {
	case bool:
		return t
	case string:
		b, _ := strconv.ParseBool(strings.TrimSpace(t))
		return b
	}
	return false
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
