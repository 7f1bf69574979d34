// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Command apply-edits applies batches of targeted text edits to a working
// directory, all or nothing.
package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/petar-djukic/apply-edits/internal/output"
	"github.com/petar-djukic/apply-edits/pkg/edits"
)

const version = "0.1.0"

// errEditsFailed reports a batch with failures when --exit-code is set.
var errEditsFailed = errors.New("edits failed")

func main() {
	rootCmd := newRootCmd(os.Stdout, os.Stderr)
	if err := rootCmd.Execute(); err != nil {
		if errors.Is(err, errEditsFailed) {
			os.Exit(2)
		}
		output.NewHuman(os.Stderr, !viper.GetBool("no-color")).Error(err)
		os.Exit(1)
	}
}

func newRootCmd(stdout, stderr io.Writer) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:           "apply-edits",
		Short:         "Apply targeted text edits atomically",
		Long:          "apply-edits applies a batch of structured edit operations to a working directory. Either every edit lands or no file changes, and every failure is reported with the closest matching text and a hint.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return initConfig()
		},
	}
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	// Global flags.
	rootCmd.PersistentFlags().String("workdir", ".", "Working directory edit paths are relative to")
	rootCmd.PersistentFlags().String("config", "", "Config file (default .apply-edits.yaml in the working directory)")
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level: debug, info, warn or error")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable coloured output")

	// Bind flags to viper.
	for _, name := range []string{"workdir", "config", "log-level", "no-color"} {
		_ = viper.BindPFlag(name, rootCmd.PersistentFlags().Lookup(name))
	}

	// Env vars: APPLY_EDITS_WORKDIR, APPLY_EDITS_LOCK_TIMEOUT, etc.
	viper.SetEnvPrefix("APPLY_EDITS")
	viper.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	viper.AutomaticEnv()

	rootCmd.AddCommand(newApplyCmd())
	rootCmd.AddCommand(newReadCmd())
	rootCmd.AddCommand(newServeCmd())
	rootCmd.AddCommand(newUndoCmd())
	rootCmd.AddCommand(newVersionCmd())
	return rootCmd
}

// initConfig reads the optional config file once flags are parsed, so
// --workdir and --config are known.
func initConfig() error {
	if file := viper.GetString("config"); file != "" {
		viper.SetConfigFile(file)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config %s: %w", file, err)
		}
		return nil
	}

	viper.SetConfigName(".apply-edits")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(viper.GetString("workdir"))
	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return fmt.Errorf("reading config: %w", err)
		}
	}
	return nil
}

// newLogger builds the stderr logger for --log-level.
func newLogger(w io.Writer) (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log-level"))); err != nil {
		return nil, fmt.Errorf("invalid log level %q", viper.GetString("log-level"))
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})), nil
}

// newEngine builds an engine from the merged flag, env and file settings.
func newEngine(cmd *cobra.Command) (*edits.Engine, error) {
	logger, err := newLogger(cmd.ErrOrStderr())
	if err != nil {
		return nil, err
	}

	workDir, err := filepath.Abs(viper.GetString("workdir"))
	if err != nil {
		return nil, fmt.Errorf("resolving working directory: %w", err)
	}

	// The flag defaults to 0.5, so a zero here was asked for.
	minSimilarity := viper.GetFloat64("min-similarity")
	if minSimilarity == 0 {
		minSimilarity = edits.AnySimilarity
	}

	engine, err := edits.New(edits.Config{
		WorkDir:       workDir,
		DryRun:        viper.GetBool("dry-run"),
		RequireUnique: viper.GetBool("strict-unique"),
		SyntaxCheck:   viper.GetBool("syntax-check"),
		MinSimilarity: minSimilarity,
		MaxCandidates: viper.GetInt("max-candidates"),
		PreviewLength: viper.GetInt("preview-length"),
		LockTimeout:   viper.GetDuration("lock-timeout"),
		Commit:        viper.GetBool("commit"),
		Logger:        logger,
	})
	if err != nil {
		return nil, fmt.Errorf("initialization failed: %w", err)
	}
	return engine, nil
}

func human(cmd *cobra.Command) *output.Human {
	return output.NewHuman(cmd.ErrOrStderr(), !viper.GetBool("no-color"))
}

// newVersionCmd creates the "version" command.
func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print apply-edits version",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "apply-edits %s\n", version)
		},
	}
}
