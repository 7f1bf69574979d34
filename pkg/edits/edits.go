// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

// Package edits is the public interface for apply-edits: it applies batches
// of targeted text edits to a working directory, all or nothing, and
// reports every failure with enough context to correct it.
package edits

import (
	"errors"
	"log/slog"
	"time"

	"github.com/petar-djukic/apply-edits/internal/feedback"
)

// Error types for the engine API.
var (
	ErrInvalidConfig = errors.New("invalid config")
	ErrNoChanges     = errors.New("batch changed no files")
)

// AnySimilarity is a MinSimilarity that reports every window as a
// candidate. A zero MinSimilarity selects the default instead.
const AnySimilarity = -1.0

// Config configures an Engine.
type Config struct {
	WorkDir       string        // Directory edit paths are relative to (required)
	DryRun        bool          // Resolve every batch without writing
	RequireUnique bool          // Fail replace and inserts whose target occurs more than once
	SyntaxCheck   bool          // Reject edits that break a previously parseable file
	MinSimilarity float64       // Lowest similarity reported as a candidate (default 0.5, AnySimilarity for no floor)
	MaxCandidates int           // Candidates reported per failure (default 3)
	PreviewLength int           // Runes of search text echoed in failures (default 200)
	LockTimeout   time.Duration // Wait for the working-directory lock (default 10s)
	NoLock        bool          // Apply without the working-directory lock
	Commit        bool          // Commit landed batches to the enclosing git repository
	Logger        *slog.Logger  // Optional; nil discards
}

// RegenerateFunc produces a corrected batch from a retry prompt.
type RegenerateFunc = feedback.RegenerateFunc

// RetryConfig configures ApplyWithRetry.
type RetryConfig = feedback.LoopConfig

// RetryResult is the outcome of ApplyWithRetry.
type RetryResult = feedback.LoopResult
