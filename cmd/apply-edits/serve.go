// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/petar-djukic/apply-edits/internal/mcpserver"
)

// newServeCmd creates the "serve" command.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve the edit tools over MCP stdio",
		Long:  "Serve runs an MCP server on stdin and stdout exposing apply_edits and read_files, rooted at the working directory.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}
			if err := mcpserver.Serve(mcpserver.New(engine, version)); err != nil {
				return fmt.Errorf("server error: %w", err)
			}
			return nil
		},
	}
}
