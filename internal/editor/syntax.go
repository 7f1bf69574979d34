// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package editor

import (
	"context"
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/smacker/go-tree-sitter/golang"
	"github.com/smacker/go-tree-sitter/javascript"
	"github.com/smacker/go-tree-sitter/python"
	"github.com/smacker/go-tree-sitter/typescript/typescript"
	"github.com/smacker/go-tree-sitter/yaml"
)

// grammars maps file extensions to the tree-sitter language used by the
// syntax guard. Files with other extensions are never checked.
var grammars = map[string]*sitter.Language{
	".go":   golang.GetLanguage(),
	".py":   python.GetLanguage(),
	".js":   javascript.GetLanguage(),
	".ts":   typescript.GetLanguage(),
	".yaml": yaml.GetLanguage(),
	".yml":  yaml.GetLanguage(),
}

// syntaxRegression reports whether an edit broke a file that used to parse.
// It returns the 1-based line of the first error node in after. A file whose
// original content already had errors is not reported, and neither is a
// file the parser could not handle at all.
func syntaxRegression(ctx context.Context, path, before string, beforeExists bool, after string) (int, bool) {
	lang, ok := grammars[strings.ToLower(filepath.Ext(path))]
	if !ok {
		return 0, false
	}

	if beforeExists && before != "" {
		root, err := sitter.ParseCtx(ctx, []byte(before), lang)
		if err != nil || root == nil || root.HasError() {
			return 0, false
		}
	}

	root, err := sitter.ParseCtx(ctx, []byte(after), lang)
	if err != nil || root == nil || !root.HasError() {
		return 0, false
	}
	return firstErrorLine(root), true
}

// firstErrorLine walks the tree depth-first and returns the line of the
// first ERROR or MISSING node.
func firstErrorLine(n *sitter.Node) int {
	if n.IsError() || n.IsMissing() {
		return int(n.StartPoint().Row) + 1
	}
	for i := 0; i < int(n.ChildCount()); i++ {
		child := n.Child(i)
		if child == nil || !child.HasError() && !child.IsMissing() {
			continue
		}
		return firstErrorLine(child)
	}
	return int(n.StartPoint().Row) + 1
}
