// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package feedback

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

// scriptedApplier fails the first n applies.
type scriptedApplier struct {
	failures int
	calls    int
	batches  []types.Batch
	err      error
}

func (a *scriptedApplier) Apply(_ context.Context, batch types.Batch) (*types.ApplyReport, error) {
	a.calls++
	a.batches = append(a.batches, batch)
	if a.err != nil {
		return nil, a.err
	}
	if a.calls <= a.failures {
		return failedReport(), nil
	}
	r := &types.ApplyReport{Edits: []types.OperationResult{{Status: types.StatusApplied}}}
	r.Tally()
	return r, nil
}

type recordedSleeps struct{ delays []time.Duration }

func (s *recordedSleeps) sleep(_ context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return nil
}

func regenerateWith(summary string) RegenerateFunc {
	return func(context.Context, string, *types.ApplyReport) (types.Batch, error) {
		return types.Batch{Summary: summary}, nil
	}
}

func TestRun_SucceedsFirstTime(t *testing.T) {
	applier := &scriptedApplier{}
	sleeps := &recordedSleeps{}

	result, err := Run(context.Background(), LoopConfig{Sleep: sleeps.sleep}, applier, types.Batch{}, regenerateWith("x"))
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 1, result.Attempts)
	assert.Empty(t, result.Prompts)
	assert.Empty(t, sleeps.delays)
}

func TestRun_RetriesWithRegeneratedBatch(t *testing.T) {
	applier := &scriptedApplier{failures: 2}
	sleeps := &recordedSleeps{}

	var prompts []string
	regen := func(_ context.Context, prompt string, report *types.ApplyReport) (types.Batch, error) {
		prompts = append(prompts, prompt)
		assert.Equal(t, 1, report.Failed)
		return types.Batch{Summary: "retry"}, nil
	}

	result, err := Run(context.Background(), LoopConfig{Sleep: sleeps.sleep}, applier, types.Batch{Summary: "first"}, regen)
	require.NoError(t, err)
	assert.True(t, result.Success)
	assert.Equal(t, 3, result.Attempts)
	assert.Len(t, prompts, 2)
	assert.Equal(t, prompts, result.Prompts)
	assert.Contains(t, prompts[0], "main.go")
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeps.delays)
	assert.Equal(t, "first", applier.batches[0].Summary)
	assert.Equal(t, "retry", applier.batches[2].Summary)
}

func TestRun_Exhausted(t *testing.T) {
	applier := &scriptedApplier{failures: 10}
	sleeps := &recordedSleeps{}

	result, err := Run(context.Background(), LoopConfig{MaxAttempts: 2, Sleep: sleeps.sleep}, applier, types.Batch{}, regenerateWith("x"))
	assert.ErrorIs(t, err, ErrAttemptsExhausted)
	assert.False(t, result.Success)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, 1, result.Report.Failed)
	assert.Len(t, sleeps.delays, 1)
}

func TestRun_ApplyError(t *testing.T) {
	applier := &scriptedApplier{err: errors.New("lock timeout")}
	_, err := Run(context.Background(), LoopConfig{}, applier, types.Batch{}, regenerateWith("x"))
	assert.ErrorContains(t, err, "lock timeout")
}

func TestRun_RegenerateError(t *testing.T) {
	applier := &scriptedApplier{failures: 1}
	regen := func(context.Context, string, *types.ApplyReport) (types.Batch, error) {
		return types.Batch{}, errors.New("model unavailable")
	}
	result, err := Run(context.Background(), LoopConfig{}, applier, types.Batch{}, regen)
	assert.ErrorContains(t, err, "model unavailable")
	assert.Equal(t, 1, result.Attempts)
}

func TestRun_ContextCancellation(t *testing.T) {
	applier := &scriptedApplier{failures: 10}
	ctx, cancel := context.WithCancel(context.Background())
	regen := func(context.Context, string, *types.ApplyReport) (types.Batch, error) {
		cancel()
		return types.Batch{}, nil
	}

	result, err := Run(ctx, LoopConfig{BaseDelay: time.Hour}, applier, types.Batch{}, regen)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, result.Attempts)
}

func TestBackoff(t *testing.T) {
	tests := []struct {
		attempt int
		want    time.Duration
	}{
		{1, time.Second},
		{2, 2 * time.Second},
		{3, 4 * time.Second},
		{5, 16 * time.Second},
		{6, 30 * time.Second},
		{20, 30 * time.Second},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Backoff(tt.attempt, 0, 0), "attempt %d", tt.attempt)
	}
	assert.Equal(t, 300*time.Millisecond, Backoff(3, 100*time.Millisecond, 300*time.Millisecond))
}
