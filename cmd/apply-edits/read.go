// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/apply-edits/internal/fileview"
	"github.com/petar-djukic/apply-edits/internal/output"
)

// newReadCmd creates the "read" command.
func newReadCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "read",
		Short: "Read files with line numbers",
		Long:  "Read prints the current contents of files, with line numbers, so edits can be written against what is on disk.",
		RunE:  runRead,
	}

	cmd.Flags().String("file", "", "File to read")
	cmd.Flags().StringSlice("files", nil, "Comma-separated files or doublestar globs to read")
	cmd.Flags().Int("max-lines", fileview.DefaultMaxLines, "Lines returned per file")
	cmd.Flags().String("format", "json", "Output format: json or prompt")
	cmd.MarkFlagsOneRequired("file", "files")

	return cmd
}

func runRead(cmd *cobra.Command, args []string) error {
	var paths []string
	if file, _ := cmd.Flags().GetString("file"); file != "" {
		paths = append(paths, file)
	}
	files, _ := cmd.Flags().GetStringSlice("files")
	paths = append(paths, files...)
	if len(paths) == 0 {
		return errors.New("either --file or --files must be specified")
	}

	format, _ := cmd.Flags().GetString("format")
	maxLines, _ := cmd.Flags().GetInt("max-lines")

	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}
	results := engine.Read(paths, maxLines)

	switch strings.ToLower(format) {
	case "json":
		human(cmd).Files(results)
		if err := output.WriteJSON(cmd.OutOrStdout(), output.Files{Files: results}); err != nil {
			return fmt.Errorf("writing results: %w", err)
		}
	case "prompt":
		fmt.Fprint(cmd.OutOrStdout(), fileview.FormatPrompt(results))
	default:
		return fmt.Errorf("unknown format %q: use json or prompt", format)
	}
	return nil
}
