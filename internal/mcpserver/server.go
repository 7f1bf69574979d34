// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package mcpserver exposes the edit engine as MCP tools over stdio.
package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/petar-djukic/apply-edits/internal/editformat"
	"github.com/petar-djukic/apply-edits/internal/fileview"
	"github.com/petar-djukic/apply-edits/pkg/types"
)

// Engine is the part of the edit engine the tools need.
type Engine interface {
	Apply(ctx context.Context, batch types.Batch) (*types.ApplyReport, error)
	Preview(ctx context.Context, batch types.Batch) (*types.ApplyReport, error)
	Read(patterns []string, maxLines int) []fileview.Result
}

// ApplyArgs are the apply_edits tool arguments. Edits use the same lenient
// shapes the CLI accepts.
type ApplyArgs struct {
	Edits         []map[string]any `json:"edits" description:"Edit operations, applied all or nothing"`
	DryRun        bool             `json:"dry_run,omitempty" description:"Resolve the edits and report diffs without writing"`
	CommitMessage string           `json:"commit_message,omitempty"`
	Summary       string           `json:"summary,omitempty"`
}

// ReadArgs are the read_files tool arguments.
type ReadArgs struct {
	Paths    []string `json:"paths" description:"File paths or doublestar globs relative to the working directory"`
	MaxLines int      `json:"max_lines,omitempty" description:"Lines returned per file (default 500)"`
	Format   string   `json:"format,omitempty" description:"json (default) or prompt"`
}

// ReadResult is the read_files tool result.
type ReadResult struct {
	Files  []fileview.Result `json:"files"`
	Prompt string            `json:"prompt,omitempty"`
}

// New builds an MCP server exposing apply_edits and read_files on engine.
func New(engine Engine, version string) *server.MCPServer {
	s := server.NewMCPServer("apply-edits", version)

	applyTool := mcp.NewTool(
		"apply_edits",
		mcp.WithDescription("Apply a batch of text edits (replace, replace_all, insert_after, insert_before, insert_at_line, create, append, prepend, delete_file, delete_match, delete_lines). Either every edit lands or no file changes; failures report closest matches and a hint."),
		mcp.WithArray("edits", mcp.Required(), mcp.Items(map[string]any{"type": "object"})),
		mcp.WithBoolean("dry_run"),
		mcp.WithString("commit_message"),
		mcp.WithString("summary"),
		mcp.WithOutputSchema[types.ApplyReport](),
	)
	s.AddTool(applyTool, mcp.NewStructuredToolHandler(handleApply(engine)))

	readTool := mcp.NewTool(
		"read_files",
		mcp.WithDescription("Read files fresh, with line numbers, before writing edits against them"),
		mcp.WithArray("paths", mcp.Required(), mcp.Items(map[string]any{"type": "string"})),
		mcp.WithNumber("max_lines", mcp.Min(1)),
		mcp.WithString("format", mcp.Enum("json", "prompt")),
		mcp.WithOutputSchema[ReadResult](),
	)
	s.AddTool(readTool, mcp.NewStructuredToolHandler(handleRead(engine)))

	return s
}

// Serve runs s on stdin and stdout until the client disconnects.
func Serve(s *server.MCPServer) error {
	return server.ServeStdio(s)
}

func handleApply(engine Engine) mcp.StructuredToolHandlerFunc[ApplyArgs, types.ApplyReport] {
	return func(ctx context.Context, req mcp.CallToolRequest, args ApplyArgs) (types.ApplyReport, error) {
		batch := types.Batch{CommitMessage: args.CommitMessage, Summary: args.Summary}
		for _, m := range args.Edits {
			batch.Edits = append(batch.Edits, editformat.DecodeOp(m))
		}

		apply := engine.Apply
		if args.DryRun {
			apply = engine.Preview
		}
		report, err := apply(ctx, batch)
		if err != nil {
			return types.ApplyReport{}, err
		}
		return *report, nil
	}
}

func handleRead(engine Engine) mcp.StructuredToolHandlerFunc[ReadArgs, ReadResult] {
	return func(ctx context.Context, req mcp.CallToolRequest, args ReadArgs) (ReadResult, error) {
		if len(args.Paths) == 0 {
			return ReadResult{}, errors.New("paths required")
		}
		out := ReadResult{Files: engine.Read(args.Paths, args.MaxLines)}
		switch strings.ToLower(args.Format) {
		case "", "json":
		case "prompt":
			out.Prompt = fileview.FormatPrompt(out.Files)
		default:
			return ReadResult{}, fmt.Errorf("unknown format %q (want json or prompt)", args.Format)
		}
		return out, nil
	}
}
