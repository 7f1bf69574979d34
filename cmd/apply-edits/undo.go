// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

// newUndoCmd creates the "undo" command.
func newUndoCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "undo",
		Short: "Revert the last apply-edits commit",
		Long:  "Undo performs a soft reset of the last commit if it was made by apply-edits --commit. The edited files stay in the working tree.",
		RunE: func(cmd *cobra.Command, args []string) error {
			engine, err := newEngine(cmd)
			if err != nil {
				return err
			}

			hash, err := engine.Undo()
			if err != nil {
				return fmt.Errorf("undo failed: %w", err)
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Reverted commit %s.\n", hash)
			return nil
		},
	}
}
