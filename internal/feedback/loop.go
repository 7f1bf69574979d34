// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package feedback

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

const (
	defaultMaxAttempts = 3
	defaultBaseDelay   = time.Second
	defaultMaxDelay    = 30 * time.Second
)

// ErrAttemptsExhausted is returned when every attempt left failed edits.
var ErrAttemptsExhausted = errors.New("max attempts exhausted with failed edits")

// Applier applies one batch.
type Applier interface {
	Apply(ctx context.Context, batch types.Batch) (*types.ApplyReport, error)
}

// RegenerateFunc produces a corrected batch from the retry prompt and the
// failed report. It typically asks whoever produced the edits to try again
// against fresh file contents.
type RegenerateFunc func(ctx context.Context, prompt string, report *types.ApplyReport) (types.Batch, error)

// LoopConfig configures the retry loop.
type LoopConfig struct {
	MaxAttempts  int           // Total apply attempts, including the first (default 3)
	BaseDelay    time.Duration // Delay before the second attempt (default 1s)
	MaxDelay     time.Duration // Cap for the doubling delay (default 30s)
	FormatConfig FormatConfig  // Retry prompt settings

	// Sleep waits between attempts; nil uses a context-aware timer.
	Sleep func(ctx context.Context, d time.Duration) error
}

// LoopResult holds the outcome of the retry loop.
type LoopResult struct {
	Success  bool               // Final report had no failures
	Attempts int                // Apply calls made
	Report   *types.ApplyReport // Last report
	Prompts  []string           // Retry prompts sent, in order
}

// Run applies batch, and while the report has failures, asks regenerate for
// a new batch, waits with exponential backoff and applies again, up to
// MaxAttempts applies in total. Context cancellation stops the loop between
// attempts.
func Run(ctx context.Context, cfg LoopConfig, applier Applier, batch types.Batch, regenerate RegenerateFunc) (*LoopResult, error) {
	maxAttempts := cfg.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	sleep := cfg.Sleep
	if sleep == nil {
		sleep = sleepContext
	}

	result := &LoopResult{}
	for {
		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("context canceled after %d attempts: %w", result.Attempts, err)
		}

		report, err := applier.Apply(ctx, batch)
		result.Attempts++
		if err != nil {
			return result, fmt.Errorf("attempt %d: %w", result.Attempts, err)
		}
		result.Report = report

		if report.Failed == 0 {
			result.Success = true
			return result, nil
		}
		if result.Attempts >= maxAttempts {
			return result, fmt.Errorf("%w (%d attempts, %d failed)", ErrAttemptsExhausted, result.Attempts, report.Failed)
		}

		prompt := FormatRetryPrompt(report, cfg.FormatConfig)
		result.Prompts = append(result.Prompts, prompt)

		batch, err = regenerate(ctx, prompt, report)
		if err != nil {
			return result, fmt.Errorf("regenerating after attempt %d: %w", result.Attempts, err)
		}

		if err := sleep(ctx, Backoff(result.Attempts, cfg.BaseDelay, cfg.MaxDelay)); err != nil {
			return result, fmt.Errorf("context canceled after %d attempts: %w", result.Attempts, err)
		}
	}
}

// Backoff returns the delay after the given failed attempt (1-based):
// base, 2*base, 4*base and so on, capped at maxDelay. Zero values use the
// defaults.
func Backoff(attempt int, base, maxDelay time.Duration) time.Duration {
	if base <= 0 {
		base = defaultBaseDelay
	}
	if maxDelay <= 0 {
		maxDelay = defaultMaxDelay
	}
	d := base
	for i := 1; i < attempt; i++ {
		d *= 2
		if d >= maxDelay {
			return maxDelay
		}
	}
	return min(d, maxDelay)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
