// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/apply-edits/internal/editformat"
	"github.com/petar-djukic/apply-edits/internal/output"
)

// newApplyCmd creates the "apply" command.
func newApplyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "apply",
		Short: "Apply a batch of edits",
		Long: `Apply reads an edit batch (JSON, YAML or SEARCH/REPLACE blocks), applies it
to the working directory and prints the report as JSON on stdout and as a
summary on stderr. Edit failures are part of the report; the exit status is
0 unless --exit-code is set.`,
		RunE: runApply,
	}

	cmd.Flags().StringP("file", "f", "", "Read the batch from this file")
	cmd.Flags().Bool("stdin", false, "Read the batch from stdin")
	cmd.Flags().String("format", "auto", "Input format: auto, json, yaml or blocks")
	cmd.Flags().Bool("exit-code", false, "Exit with status 2 when any edit failed")

	cmd.Flags().Bool("dry-run", false, "Resolve the batch and show diffs without writing")
	cmd.Flags().Bool("strict-unique", false, "Fail replace and inserts whose target occurs more than once")
	cmd.Flags().Bool("syntax-check", false, "Reject edits that break a file that used to parse")
	cmd.Flags().Bool("commit", false, "Commit the touched files when the batch lands")
	cmd.Flags().Float64("min-similarity", 0.5, "Lowest similarity reported as a closest match (0 reports every window)")
	cmd.Flags().Int("max-candidates", 3, "Closest matches reported per failure")
	cmd.Flags().Int("preview-length", 200, "Characters of search text echoed in failures")
	cmd.Flags().Duration("lock-timeout", 0, "Wait for the working-directory lock (default 10s)")

	for _, name := range []string{"dry-run", "strict-unique", "syntax-check", "commit", "min-similarity", "max-candidates", "preview-length", "lock-timeout"} {
		_ = viper.BindPFlag(name, cmd.Flags().Lookup(name))
	}
	cmd.MarkFlagsMutuallyExclusive("file", "stdin")
	cmd.MarkFlagsOneRequired("file", "stdin")

	return cmd
}

// runApply decodes the batch, applies it and prints the report.
func runApply(cmd *cobra.Command, args []string) error {
	data, err := readInput(cmd)
	if err != nil {
		return err
	}

	formatName, _ := cmd.Flags().GetString("format")
	format, err := editformat.ParseFormat(formatName)
	if err != nil {
		return err
	}
	batch, err := editformat.DecodeAs(data, format)
	if err != nil {
		return err
	}

	engine, err := newEngine(cmd)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	h := human(cmd)
	h.Header(version, engine.WorkDir(), viper.GetBool("dry-run"))

	report, err := engine.Apply(ctx, batch)
	if err != nil {
		return err
	}

	h.Report(report)
	if err := output.WriteJSON(cmd.OutOrStdout(), report); err != nil {
		return fmt.Errorf("writing report: %w", err)
	}

	if exitCode, _ := cmd.Flags().GetBool("exit-code"); exitCode && !report.Success {
		return errEditsFailed
	}
	return nil
}

func readInput(cmd *cobra.Command) ([]byte, error) {
	if useStdin, _ := cmd.Flags().GetBool("stdin"); useStdin {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("reading stdin: %w", err)
		}
		return data, nil
	}

	file, _ := cmd.Flags().GetString("file")
	if file == "" {
		return nil, errors.New("either --file or --stdin must be specified")
	}
	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("reading edits file: %w", err)
	}
	return data, nil
}
