// Copyright (c) 2026 Petar Djukic. All rights reserved.
// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/petar-djukic/apply-edits/pkg/types"
)

type result struct {
	stdout string
	stderr string
	err    error
}

func execute(t *testing.T, stdin string, args ...string) result {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)

	var stdout, stderr bytes.Buffer
	cmd := newRootCmd(&stdout, &stderr)
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetArgs(args)
	err := cmd.Execute()
	return result{stdout: stdout.String(), stderr: stderr.String(), err: err}
}

func write(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(p, []byte(content), 0o644))
	return p
}

func decodeReport(t *testing.T, s string) types.ApplyReport {
	t.Helper()
	var r types.ApplyReport
	require.NoError(t, json.Unmarshal([]byte(s), &r))
	return r
}

func TestApply_FromFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "config.yaml", "retries: 3\n")
	batch := write(t, t.TempDir(), "batch.json", `{"edits":[{"type":"replace","path":"config.yaml","search":"retries: 3","replace":"retries: 5"}]}`)

	res := execute(t, "", "apply", "--workdir", dir, "--file", batch, "--no-color")
	require.NoError(t, res.err)

	report := decodeReport(t, res.stdout)
	assert.True(t, report.Success)
	assert.Equal(t, 1, report.Applied)
	assert.Contains(t, res.stderr, "✓ applied")
	assert.Contains(t, res.stderr, "SUMMARY: 1 applied, 0 failed")

	data, err := os.ReadFile(filepath.Join(dir, "config.yaml"))
	require.NoError(t, err)
	assert.Equal(t, "retries: 5\n", string(data))
}

func TestApply_StdinYAML(t *testing.T) {
	dir := t.TempDir()
	input := "edits:\n  - type: create\n    path: notes/todo.md\n    content: \"# Todo\"\n"

	res := execute(t, input, "apply", "--workdir", dir, "--stdin")
	require.NoError(t, res.err)
	assert.True(t, decodeReport(t, res.stdout).Success)

	data, err := os.ReadFile(filepath.Join(dir, "notes", "todo.md"))
	require.NoError(t, err)
	assert.Equal(t, "# Todo", string(data), "create writes content verbatim")
}

func TestApply_Blocks(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "main.go", "package main\n\nfunc main() {}\n")
	input := "main.go\n<<<<<<< SEARCH\nfunc main() {}\n=======\nfunc main() { run() }\n>>>>>>> REPLACE\n"

	res := execute(t, input, "apply", "--workdir", dir, "--stdin", "--format", "blocks")
	require.NoError(t, res.err)
	assert.True(t, decodeReport(t, res.stdout).Success)
}

func TestApply_FailuresExitZeroByDefault(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.txt", "hello\n")
	input := `[{"type":"replace","path":"a.txt","search":"goodbye","replace":"x"}]`

	res := execute(t, input, "apply", "--workdir", dir, "--stdin")
	require.NoError(t, res.err)
	report := decodeReport(t, res.stdout)
	assert.False(t, report.Success)
	assert.Equal(t, 1, report.Failed)
	assert.Contains(t, res.stderr, "✗ ERROR (not_found)")

	res = execute(t, input, "apply", "--workdir", dir, "--stdin", "--exit-code")
	assert.ErrorIs(t, res.err, errEditsFailed)
}

func TestApply_MinSimilarityZeroReportsEveryWindow(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.txt", "aaaa\nbbbb\n")
	input := `[{"type":"replace","path":"a.txt","search":"zzzz","replace":"x"}]`

	res := execute(t, input, "apply", "--workdir", dir, "--stdin")
	require.NoError(t, res.err)
	assert.Empty(t, decodeReport(t, res.stdout).Edits[0].ClosestMatches)

	res = execute(t, input, "apply", "--workdir", dir, "--stdin", "--min-similarity", "0")
	require.NoError(t, res.err)
	assert.Len(t, decodeReport(t, res.stdout).Edits[0].ClosestMatches, 2)
}

func TestApply_DryRunFromEnv(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.txt", "old\n")
	t.Setenv("APPLY_EDITS_DRY_RUN", "true")

	res := execute(t, `[{"type":"replace","path":"a.txt","search":"old","replace":"new"}]`, "apply", "--workdir", dir, "--stdin")
	require.NoError(t, res.err)
	report := decodeReport(t, res.stdout)
	assert.True(t, report.DryRun)
	assert.Contains(t, report.Diffs["a.txt"], "+new")

	data, err := os.ReadFile(filepath.Join(dir, "a.txt"))
	require.NoError(t, err)
	assert.Equal(t, "old\n", string(data))
}

func TestApply_ConfigFile(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, ".apply-edits.yaml", "strict-unique: true\n")
	write(t, dir, "a.txt", "x\nx\n")

	res := execute(t, `[{"type":"replace","path":"a.txt","search":"x","replace":"y"}]`, "apply", "--workdir", dir, "--stdin")
	require.NoError(t, res.err)
	report := decodeReport(t, res.stdout)
	require.Len(t, report.Edits, 1)
	assert.Equal(t, types.ErrAmbiguous, report.Edits[0].ErrorKind)
}

func TestApply_MalformedInput(t *testing.T) {
	res := execute(t, "{not json: [", "apply", "--workdir", t.TempDir(), "--stdin")
	assert.Error(t, res.err)
	assert.NotErrorIs(t, res.err, errEditsFailed)
	assert.Empty(t, res.stdout)
}

func TestApply_RequiresInput(t *testing.T) {
	res := execute(t, "", "apply", "--workdir", t.TempDir())
	assert.Error(t, res.err)
}

func TestApply_BadWorkdir(t *testing.T) {
	res := execute(t, `[{"type":"delete_file","path":"a"}]`, "apply", "--workdir", filepath.Join(t.TempDir(), "missing"), "--stdin")
	assert.ErrorContains(t, res.err, "invalid config")
}

func TestRead_JSON(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.go", "package a\n")

	res := execute(t, "", "read", "--workdir", dir, "--files", "a.go,b.go")
	require.NoError(t, res.err)

	var out struct {
		Files []struct {
			Path   string `json:"path"`
			Exists bool   `json:"exists"`
		} `json:"files"`
	}
	require.NoError(t, json.Unmarshal([]byte(res.stdout), &out))
	require.Len(t, out.Files, 2)
	assert.True(t, out.Files[0].Exists)
	assert.False(t, out.Files[1].Exists)
	assert.Contains(t, res.stderr, "a.go (1 lines, 10 B)")
	assert.Contains(t, res.stderr, "b.go (does not exist)")
}

func TestRead_Prompt(t *testing.T) {
	dir := t.TempDir()
	write(t, dir, "a.go", "package a\n")

	res := execute(t, "", "read", "--workdir", dir, "--file", "a.go", "--format", "prompt")
	require.NoError(t, res.err)
	assert.Contains(t, res.stdout, "### a.go (1 lines)\n\n```go\n1 | package a\n```")
}

func TestRead_UnknownFormat(t *testing.T) {
	res := execute(t, "", "read", "--workdir", t.TempDir(), "--file", "a.go", "--format", "xml")
	assert.ErrorContains(t, res.err, "unknown format")
}

func TestVersion(t *testing.T) {
	res := execute(t, "", "version")
	require.NoError(t, res.err)
	assert.Equal(t, "apply-edits "+version+"\n", res.stdout)
}

func TestInvalidLogLevel(t *testing.T) {
	res := execute(t, "", "read", "--workdir", t.TempDir(), "--file", "a", "--log-level", "loud")
	assert.ErrorContains(t, res.err, "invalid log level")
}
